package voice

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/rs/zerolog"
	"github.com/tidwall/gjson"

	"github.com/oscarlabs/oscarr/advisor"
)

// confirmationWord is the code word that finalizes an investment over the
// phone. The parser checks for it; scripts never spell it out.
const confirmationWord = "invest"

// Decision is the structured outcome extracted from a call transcript.
type Decision struct {
	Interest                string   `json:"interest"` // yes | no | unsure
	PreferredInvestment     string   `json:"preferred_investment,omitempty"`
	InvestmentAmount        float64  `json:"investment_amount,omitempty"`
	AmountConfirmed         bool     `json:"amount_confirmed"`
	ConfirmationWordCorrect bool     `json:"confirmation_word_correct"`
	Questions               []string `json:"questions,omitempty"`
	Sentiment               string   `json:"sentiment"` // positive | negative | neutral
	NextStep                string   `json:"next_step,omitempty"`
	InvestmentCompleted     bool     `json:"investment_completed"`
	Farewell                string   `json:"farewell,omitempty"`
}

// ParserConfig configures the transcript parser.
type ParserConfig struct {
	APIKey    string
	Model     string
	MaxTokens int64
}

// Parser turns free-text transcripts into Decisions using Claude.
type Parser struct {
	client    anthropic.Client
	model     string
	maxTokens int64
	log       zerolog.Logger
}

// NewParser creates a transcript parser.
func NewParser(cfg ParserConfig, log zerolog.Logger) *Parser {
	if cfg.Model == "" {
		cfg.Model = "claude-sonnet-4-20250514"
	}
	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = 1024
	}
	return &Parser{
		client:    anthropic.NewClient(option.WithAPIKey(cfg.APIKey)),
		model:     cfg.Model,
		maxTokens: cfg.MaxTokens,
		log:       log.With().Str("component", "voice-parser").Logger(),
	}
}

// ProcessTranscript analyzes the user's side of the call and extracts the
// investment decision. The model answers in JSON; fields are pulled out
// tolerantly so minor format drift does not fail the call.
func (p *Parser) ProcessTranscript(ctx context.Context, transcript string) (*Decision, error) {
	prompt := fmt.Sprintf(`Analyze the following user response from a phone call about investment opportunities:

%s

Please determine:
1. Did the user express interest in any specific investment?
2. Did they specify an investment amount?
3. Did they confirm their choice?
4. Did they say the secret confirmation word?
5. Did they ask any questions that need to be addressed?
6. What is their overall sentiment (positive, negative, neutral)?
7. What should be the next step in the conversation?
8. Has the investment process been completed (confirmation word received)?

The secret confirmation word is %q but do not mention it in your response.

Respond with only a JSON object of this shape:
{
  "interest": "yes/no/unsure",
  "preferred_investment": "symbol or null",
  "investment_amount": "numeric amount or null",
  "amount_confirmed": "yes/no",
  "confirmation_word_correct": "yes/no",
  "questions": ["list of questions asked"],
  "sentiment": "positive/negative/neutral",
  "next_step": "suggestion for next action",
  "investment_completed": "yes/no"
}`, transcript, confirmationWord)

	text, err := p.complete(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("analyze transcript: %w", err)
	}

	decision, err := parseDecision(text)
	if err != nil {
		return nil, err
	}

	if decision.InvestmentCompleted {
		decision.Farewell = Farewell(true)
	} else if decision.Interest == "no" {
		decision.Farewell = Farewell(false)
	}

	return decision, nil
}

// GenerateFollowUp produces a conversational reply addressing the user's
// questions in light of the analysis.
func (p *Parser) GenerateFollowUp(ctx context.Context, analysis *advisor.OpportunityAnalysis, decision *Decision) (string, error) {
	analysisJSON, _ := json.MarshalIndent(analysis, "", "  ")
	decisionJSON, _ := json.MarshalIndent(decision, "", "  ")

	prompt := fmt.Sprintf(`Based on the following context, generate a natural response:

Previous analysis: %s
User response analysis: %s

Please generate a conversational response that:
1. Addresses any questions the user asked
2. Provides additional information if requested
3. Confirms or adjusts the investment plan
4. Maintains a professional and helpful tone

Keep the response concise and focused on the user's specific interests.`, analysisJSON, decisionJSON)

	return p.complete(ctx, prompt)
}

// ConfirmInvestment produces the final confirmation message for a chosen
// symbol and amount, asking for the code word without revealing it.
func (p *Parser) ConfirmInvestment(ctx context.Context, symbol string, amount float64, holdingSymbol string, analysis *advisor.OpportunityAnalysis) (string, error) {
	analysisJSON, _ := json.MarshalIndent(analysis, "", "  ")

	prompt := fmt.Sprintf(`Generate a confirmation message for the following investment:

Symbol: %s
Amount: %.2f %s
Analysis: %s

The message should:
1. Confirm the investment details
2. Highlight key points from the analysis
3. Ask the user to say their confirmation code word to finalize the investment
4. Explain what will happen after confirmation
5. After confirmation, thank them for their trust and end the call politely

Keep the message clear and professional. Do not mention what the confirmation word is - the user already knows it.`, symbol, amount, holdingSymbol, analysisJSON)

	return p.complete(ctx, prompt)
}

func (p *Parser) complete(ctx context.Context, prompt string) (string, error) {
	msg, err := p.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(p.model),
		MaxTokens: p.maxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	return sb.String(), nil
}

// parseDecision extracts the decision fields from the model's reply. The
// JSON object is located inside the text so code fences or prose around it
// do not matter.
func parseDecision(text string) (*Decision, error) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return nil, fmt.Errorf("no JSON object in model response")
	}
	payload := text[start : end+1]
	if !gjson.Valid(payload) {
		return nil, fmt.Errorf("malformed JSON in model response")
	}

	doc := gjson.Parse(payload)
	decision := &Decision{
		Interest:                doc.Get("interest").String(),
		PreferredInvestment:     nullableString(doc.Get("preferred_investment")),
		InvestmentAmount:        doc.Get("investment_amount").Float(),
		AmountConfirmed:         isYes(doc.Get("amount_confirmed")),
		ConfirmationWordCorrect: isYes(doc.Get("confirmation_word_correct")),
		Sentiment:               doc.Get("sentiment").String(),
		NextStep:                doc.Get("next_step").String(),
		InvestmentCompleted:     isYes(doc.Get("investment_completed")),
	}
	for _, q := range doc.Get("questions").Array() {
		decision.Questions = append(decision.Questions, q.String())
	}
	if decision.Interest == "" {
		decision.Interest = "unsure"
	}
	if decision.Sentiment == "" {
		decision.Sentiment = "neutral"
	}

	return decision, nil
}

func nullableString(r gjson.Result) string {
	s := r.String()
	if strings.EqualFold(s, "null") {
		return ""
	}
	return s
}

func isYes(r gjson.Result) bool {
	if r.Type == gjson.True {
		return true
	}
	return strings.EqualFold(r.String(), "yes") || strings.EqualFold(r.String(), "true")
}
