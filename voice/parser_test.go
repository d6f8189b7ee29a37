package voice

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDecisionPlainJSON(t *testing.T) {
	decision, err := parseDecision(`{
		"interest": "yes",
		"preferred_investment": "BTCUSDT",
		"investment_amount": 500,
		"amount_confirmed": "yes",
		"confirmation_word_correct": "no",
		"questions": ["What are the fees?"],
		"sentiment": "positive",
		"next_step": "confirm amount",
		"investment_completed": "no"
	}`)
	require.NoError(t, err)

	assert.Equal(t, "yes", decision.Interest)
	assert.Equal(t, "BTCUSDT", decision.PreferredInvestment)
	assert.InDelta(t, 500.0, decision.InvestmentAmount, 1e-9)
	assert.True(t, decision.AmountConfirmed)
	assert.False(t, decision.ConfirmationWordCorrect)
	assert.Equal(t, []string{"What are the fees?"}, decision.Questions)
	assert.Equal(t, "positive", decision.Sentiment)
	assert.False(t, decision.InvestmentCompleted)
	assert.Empty(t, decision.Farewell)
}

func TestParseDecisionInsideCodeFence(t *testing.T) {
	decision, err := parseDecision("Here is my analysis:\n```json\n" +
		`{"interest": "unsure", "sentiment": "neutral", "investment_completed": "no"}` +
		"\n```\nLet me know if you need more.")
	require.NoError(t, err)
	assert.Equal(t, "unsure", decision.Interest)
	assert.Equal(t, "neutral", decision.Sentiment)
}

func TestParseDecisionHandlesNullsAndBooleans(t *testing.T) {
	decision, err := parseDecision(`{
		"interest": "no",
		"preferred_investment": null,
		"investment_amount": null,
		"amount_confirmed": false,
		"confirmation_word_correct": true,
		"investment_completed": false
	}`)
	require.NoError(t, err)

	assert.Empty(t, decision.PreferredInvestment)
	assert.Zero(t, decision.InvestmentAmount)
	assert.False(t, decision.AmountConfirmed)
	assert.True(t, decision.ConfirmationWordCorrect)
}

func TestParseDecisionStringAmount(t *testing.T) {
	decision, err := parseDecision(`{"interest": "yes", "investment_amount": "250.5"}`)
	require.NoError(t, err)
	assert.InDelta(t, 250.5, decision.InvestmentAmount, 1e-9)
}

func TestParseDecisionDefaults(t *testing.T) {
	decision, err := parseDecision(`{}`)
	require.NoError(t, err)
	assert.Equal(t, "unsure", decision.Interest)
	assert.Equal(t, "neutral", decision.Sentiment)
}

func TestParseDecisionRejectsNonJSON(t *testing.T) {
	_, err := parseDecision("the user seemed uninterested")
	assert.Error(t, err)

	_, err = parseDecision("{not valid json}")
	assert.Error(t, err)
}
