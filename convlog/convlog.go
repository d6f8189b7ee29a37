// Package convlog records advisor call sessions: a per-session JSON document
// rewritten on every update, a text summary, and a SQLite session store.
package convlog

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/oscarlabs/oscarr/advisor"
	"github.com/oscarlabs/oscarr/voice"
)

// InitialState captures the wallet at the start of a session. Amounts are in
// holding units unless suffixed USD.
type InitialState struct {
	Balance            float64 `json:"balance"`
	BalanceUSD         float64 `json:"balance_usd"`
	HoldingPriceUSD    float64 `json:"holding_price_usd"`
	MonthlySpending    float64 `json:"monthly_spending"`
	MonthlySpendingUSD float64 `json:"monthly_spending_usd"`
}

// Interaction is one exchange during the call.
type Interaction struct {
	Timestamp time.Time         `json:"timestamp"`
	Role      string            `json:"role"`
	Message   string            `json:"message"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

// SessionDoc is the full conversation document. The whole document is
// rewritten to disk after every update; it is a snapshot, not an append log.
type SessionDoc struct {
	Timestamp             time.Time           `json:"timestamp"`
	ConversationID        string              `json:"conversation_id"`
	InitialState          InitialState        `json:"initial_state"`
	Interactions          []Interaction       `json:"interactions"`
	InvestmentSuggestions []advisor.Candidate `json:"investment_suggestions"`
	FinalDecision         *voice.Decision     `json:"final_decision"`
	HoldingPriceUSD       float64             `json:"holding_price_usd"`
}

// Session accumulates one advisor call and persists it under dir.
type Session struct {
	mu  sync.Mutex
	doc SessionDoc
	dir string
	log zerolog.Logger
}

// NewSession starts a session document in dir, creating dir if needed.
func NewSession(dir string, log zerolog.Logger) (*Session, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create conversation dir: %w", err)
	}

	now := time.Now()
	s := &Session{
		doc: SessionDoc{
			Timestamp:      now,
			ConversationID: now.Format("20060102_150405"),
		},
		dir: dir,
		log: log.With().Str("component", "convlog").Logger(),
	}
	return s, nil
}

// ID returns the session's conversation ID.
func (s *Session) ID() string {
	return s.doc.ConversationID
}

// LogInitialState records the wallet state at session start.
func (s *Session) LogInitialState(balance, holdingPriceUSD, monthlySpending float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.doc.InitialState = InitialState{
		Balance:            balance,
		BalanceUSD:         balance * holdingPriceUSD,
		HoldingPriceUSD:    holdingPriceUSD,
		MonthlySpending:    monthlySpending,
		MonthlySpendingUSD: monthlySpending * holdingPriceUSD,
	}
	s.doc.HoldingPriceUSD = holdingPriceUSD
	return s.save()
}

// LogSuggestions records the ranked candidates offered during the call.
func (s *Session) LogSuggestions(candidates []advisor.Candidate) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.doc.InvestmentSuggestions = candidates
	return s.save()
}

// LogInteraction records one exchange.
func (s *Session) LogInteraction(role, message string, metadata map[string]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.doc.Interactions = append(s.doc.Interactions, Interaction{
		Timestamp: time.Now(),
		Role:      role,
		Message:   message,
		Metadata:  metadata,
	})
	return s.save()
}

// LogFinalDecision records the decision extracted from the transcript.
func (s *Session) LogFinalDecision(decision *voice.Decision) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.doc.FinalDecision = decision
	return s.save()
}

// save rewrites the whole JSON document. Caller holds s.mu.
func (s *Session) save() error {
	data, err := json.MarshalIndent(s.doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encode session doc: %w", err)
	}

	path := filepath.Join(s.dir, fmt.Sprintf("conversation_%s.json", s.doc.ConversationID))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write session doc: %w", err)
	}
	return nil
}

// Summary renders a human-readable account of the session.
func (s *Session) Summary() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	price := s.doc.HoldingPriceUSD
	initial := s.doc.InitialState

	var b strings.Builder
	b.WriteString("=== Conversation Summary ===\n")
	fmt.Fprintf(&b, "Date: %s\n", s.doc.Timestamp.Format(time.RFC3339))
	b.WriteString("\nInitial State:\n")
	fmt.Fprintf(&b, "- Balance: %.2f (~ $%.2f)\n", initial.Balance, initial.BalanceUSD)
	fmt.Fprintf(&b, "- Holding Price: $%.6f\n", price)
	fmt.Fprintf(&b, "- Monthly Spending: %.2f (~ $%.2f)\n", initial.MonthlySpending, initial.MonthlySpendingUSD)

	b.WriteString("\nInteractions:\n")
	for _, it := range s.doc.Interactions {
		fmt.Fprintf(&b, "\n%s (%s):\n%s\n", strings.ToUpper(it.Role), it.Timestamp.Format(time.RFC3339), it.Message)
	}

	if d := s.doc.FinalDecision; d != nil {
		b.WriteString("\nFinal Decision:\n")
		fmt.Fprintf(&b, "- Amount: %.2f (~ $%.2f)\n", d.InvestmentAmount, d.InvestmentAmount*price)
		fmt.Fprintf(&b, "- Asset: %s\n", d.PreferredInvestment)
		status := "pending"
		if d.InvestmentCompleted {
			status = "completed"
		}
		fmt.Fprintf(&b, "- Status: %s\n", status)
	}

	return b.String()
}

// SaveSummary writes the text summary next to the JSON document and returns
// its path.
func (s *Session) SaveSummary() (string, error) {
	summary := s.Summary()

	s.mu.Lock()
	defer s.mu.Unlock()

	path := filepath.Join(s.dir, fmt.Sprintf("summary_%s.txt", s.doc.ConversationID))
	if err := os.WriteFile(path, []byte(summary), 0o644); err != nil {
		return "", fmt.Errorf("write summary: %w", err)
	}
	return path, nil
}
