// Package service runs the advisor cycle end to end: spending patterns,
// surplus detection, candidate ranking, the outbound call, and the decision
// flow fed back by the call webhook.
package service

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/oscarlabs/oscarr/advisor"
	"github.com/oscarlabs/oscarr/convlog"
	"github.com/oscarlabs/oscarr/voice"
	"github.com/oscarlabs/oscarr/wallet"
)

// TranscriptParser extracts decisions and generates replies from call
// transcripts.
type TranscriptParser interface {
	ProcessTranscript(ctx context.Context, transcript string) (*voice.Decision, error)
	GenerateFollowUp(ctx context.Context, analysis *advisor.OpportunityAnalysis, decision *voice.Decision) (string, error)
	ConfirmInvestment(ctx context.Context, symbol string, amount float64, holdingSymbol string, analysis *advisor.OpportunityAnalysis) (string, error)
}

// CallStarter places outbound calls.
type CallStarter interface {
	StartCall(ctx context.Context, phoneNumber, script, webhookURL string) (string, error)
}

// DecisionStore persists sessions and final decisions.
type DecisionStore interface {
	StartSession(ctx context.Context, conversationID, callID string, unusedFunds float64) (string, error)
	EndSession(ctx context.Context, sessionID string) error
	SaveDecision(ctx context.Context, sessionID string, decision *voice.Decision) error
}

// Config tunes the advisor cycle.
type Config struct {
	HoldingSymbol    string
	PhoneNumber      string
	WebhookURL       string
	ConversationDir  string
	LookbackDays     int
	MaxInvestment    float64
	IncludeMemecoins bool
	// DryRun skips the outbound call, for demo mode and tests.
	DryRun bool
}

// CycleOutcome reports one detection-and-ranking run. Surplus=false with a
// nil Err means the wallet simply has nothing to invest; Skipped carries the
// candidates dropped for data failures so "no candidates" and "no data" stay
// distinguishable.
type CycleOutcome struct {
	Surplus    bool
	Report     advisor.UnusedFundsReport
	Candidates []advisor.Candidate
	Skipped    []advisor.SkippedPair
	CallID     string
}

// Service owns one wallet's advisor loop.
type Service struct {
	config   Config
	ledger   *wallet.Ledger
	detector *advisor.Detector
	ranker   *advisor.Ranker
	analyzer *advisor.Analyzer
	parser   TranscriptParser
	caller   CallStarter
	store    DecisionStore
	log      zerolog.Logger

	mu      sync.Mutex
	current *activeSession
}

// activeSession correlates the inbound webhook with the cycle that placed
// the call.
type activeSession struct {
	conv      *convlog.Session
	sessionID string
	report    advisor.UnusedFundsReport
	best      string
}

// New wires the service together.
func New(config Config, ledger *wallet.Ledger, detector *advisor.Detector, ranker *advisor.Ranker,
	analyzer *advisor.Analyzer, parser TranscriptParser, caller CallStarter, store DecisionStore,
	log zerolog.Logger) *Service {
	return &Service{
		config:   config,
		ledger:   ledger,
		detector: detector,
		ranker:   ranker,
		analyzer: analyzer,
		parser:   parser,
		caller:   caller,
		store:    store,
		log:      log.With().Str("component", "service").Logger(),
	}
}

// CheckUnusedFunds runs one full advisor cycle. Cycles are serialized: a
// second call blocks until the first finishes.
func (s *Service) CheckUnusedFunds(ctx context.Context) (CycleOutcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	pattern, ok := s.ledger.SpendingPatterns(s.config.LookbackDays)
	verdict := s.detector.Detect(ctx, s.ledger.Balance(), pattern, ok)

	outcome := CycleOutcome{Surplus: verdict.Surplus, Report: verdict.Report}
	if !verdict.Surplus {
		return outcome, nil
	}

	ranked, err := s.ranker.Rank(ctx, verdict.Report.HoldingPriceUSD, s.config.IncludeMemecoins)
	if err != nil {
		return outcome, fmt.Errorf("rank candidates: %w", err)
	}
	outcome.Candidates = ranked.Candidates
	outcome.Skipped = ranked.Skipped

	if len(ranked.Candidates) == 0 {
		s.log.Warn().Int("skipped", len(ranked.Skipped)).
			Msg("surplus found but no candidate data available")
		return outcome, nil
	}

	conv, err := convlog.NewSession(s.config.ConversationDir, s.log)
	if err != nil {
		return outcome, fmt.Errorf("open conversation log: %w", err)
	}
	if err := conv.LogInitialState(
		verdict.Report.Balance.InexactFloat64(),
		verdict.Report.HoldingPriceUSD,
		verdict.Report.MonthlyAverage.InexactFloat64(),
	); err != nil {
		s.log.Warn().Err(err).Msg("log initial state")
	}
	if err := conv.LogSuggestions(ranked.Candidates); err != nil {
		s.log.Warn().Err(err).Msg("log suggestions")
	}

	script := voice.BuildCallScript(verdict.Report, ranked, s.config.HoldingSymbol)
	if err := conv.LogInteraction("assistant", script, nil); err != nil {
		s.log.Warn().Err(err).Msg("log script")
	}

	callID := ""
	if s.config.DryRun {
		s.log.Info().Msg("dry run: skipping outbound call")
	} else {
		callID, err = s.caller.StartCall(ctx, s.config.PhoneNumber, script, s.config.WebhookURL)
		if err != nil {
			// The cycle still counts: the report and suggestions stand even
			// when the provider is down.
			s.log.Error().Err(err).Msg("start call")
		}
	}
	outcome.CallID = callID

	sessionID, err := s.store.StartSession(ctx, conv.ID(), callID, verdict.Report.UnusedFunds.InexactFloat64())
	if err != nil {
		s.log.Warn().Err(err).Msg("persist session")
	}

	s.current = &activeSession{
		conv:      conv,
		sessionID: sessionID,
		report:    verdict.Report,
		best:      ranked.Candidates[0].Symbol,
	}

	s.log.Info().
		Str("unused", verdict.Report.UnusedFunds.String()).
		Int("candidates", len(ranked.Candidates)).
		Str("call_id", callID).
		Msg("advisor cycle complete")

	return outcome, nil
}

// HandleCallResult consumes a call-completion webhook. Anything but
// status "completed" is acknowledged and dropped.
func (s *Service) HandleCallResult(ctx context.Context, transcript, status string) error {
	if status != "completed" {
		s.log.Info().Str("status", status).Msg("ignoring call update")
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	sess := s.current
	if sess == nil {
		return fmt.Errorf("no active session for call result")
	}

	decision, err := s.parser.ProcessTranscript(ctx, transcript)
	if err != nil {
		return fmt.Errorf("process transcript: %w", err)
	}

	if err := sess.conv.LogInteraction("user", transcript, nil); err != nil {
		s.log.Warn().Err(err).Msg("log transcript")
	}
	if err := sess.conv.LogFinalDecision(decision); err != nil {
		s.log.Warn().Err(err).Msg("log decision")
	}
	if sess.sessionID != "" {
		if err := s.store.SaveDecision(ctx, sess.sessionID, decision); err != nil {
			s.log.Warn().Err(err).Msg("persist decision")
		}
	}

	if err := s.followUp(ctx, sess, decision); err != nil {
		s.log.Error().Err(err).Msg("follow-up failed")
	}

	if decision.InvestmentCompleted || decision.Interest == "no" {
		if _, err := sess.conv.SaveSummary(); err != nil {
			s.log.Warn().Err(err).Msg("save summary")
		}
		if sess.sessionID != "" {
			if err := s.store.EndSession(ctx, sess.sessionID); err != nil {
				s.log.Warn().Err(err).Msg("end session")
			}
		}
		s.current = nil
	}

	return nil
}

// followUp places the next call in the conversation: an investment
// confirmation when the user picked an asset, or a question-answering
// follow-up otherwise.
func (s *Service) followUp(ctx context.Context, sess *activeSession, decision *voice.Decision) error {
	if decision.Interest == "yes" && decision.PreferredInvestment != "" {
		symbol := decision.PreferredInvestment
		amount := s.investmentAmount(sess.report, decision)

		analysis, err := s.analyzer.AnalyzeOpportunity(ctx, symbol)
		if err != nil {
			s.log.Warn().Err(err).Str("symbol", symbol).Msg("opportunity analysis unavailable")
		}

		confirmation, err := s.parser.ConfirmInvestment(ctx, symbol, amount, s.config.HoldingSymbol, analysis)
		if err != nil {
			return fmt.Errorf("generate confirmation: %w", err)
		}
		return s.placeFollowUpCall(ctx, sess, confirmation)
	}

	if len(decision.Questions) > 0 || (decision.NextStep != "" && decision.NextStep != "end") {
		analysis, err := s.analyzer.AnalyzeOpportunity(ctx, sess.best)
		if err != nil {
			s.log.Warn().Err(err).Str("symbol", sess.best).Msg("opportunity analysis unavailable")
		}

		followUp, err := s.parser.GenerateFollowUp(ctx, analysis, decision)
		if err != nil {
			return fmt.Errorf("generate follow-up: %w", err)
		}
		return s.placeFollowUpCall(ctx, sess, followUp)
	}

	return nil
}

func (s *Service) placeFollowUpCall(ctx context.Context, sess *activeSession, script string) error {
	if err := sess.conv.LogInteraction("assistant", script, nil); err != nil {
		s.log.Warn().Err(err).Msg("log follow-up")
	}
	if s.config.DryRun {
		s.log.Info().Msg("dry run: skipping follow-up call")
		return nil
	}
	_, err := s.caller.StartCall(ctx, s.config.PhoneNumber, script, s.config.WebhookURL)
	return err
}

// investmentAmount picks the amount to confirm: the user's stated amount
// when given, otherwise the full surplus, always capped by the ceiling.
func (s *Service) investmentAmount(report advisor.UnusedFundsReport, decision *voice.Decision) float64 {
	amount := decision.InvestmentAmount
	if amount <= 0 {
		amount = report.UnusedFunds.InexactFloat64()
	}
	if amount > s.config.MaxInvestment {
		amount = s.config.MaxInvestment
	}
	return amount
}

// RecordTransaction forwards a transfer into the ledger. Exposed for the
// demo endpoints.
func (s *Service) RecordTransaction(from, to string, amount float64, dir wallet.Direction) (wallet.Transaction, error) {
	return s.ledger.AddTransaction(from, to, decimal.NewFromFloat(amount), dir)
}
