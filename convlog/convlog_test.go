package convlog

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oscarlabs/oscarr/advisor"
	"github.com/oscarlabs/oscarr/voice"
)

func readDoc(t *testing.T, dir, id string) SessionDoc {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(dir, "conversation_"+id+".json"))
	require.NoError(t, err)

	var doc SessionDoc
	require.NoError(t, json.Unmarshal(data, &doc))
	return doc
}

func TestSessionRewritesWholeDocument(t *testing.T) {
	dir := t.TempDir()
	s, err := NewSession(dir, zerolog.Nop())
	require.NoError(t, err)

	require.NoError(t, s.LogInitialState(10185, 0.2421, 207))

	doc := readDoc(t, dir, s.ID())
	assert.InDelta(t, 10185, doc.InitialState.Balance, 1e-9)
	assert.InDelta(t, 10185*0.2421, doc.InitialState.BalanceUSD, 1e-6)
	assert.InDelta(t, 207, doc.InitialState.MonthlySpending, 1e-9)
	assert.Empty(t, doc.Interactions)

	require.NoError(t, s.LogInteraction("assistant", "Hello! This is Oscar.", nil))
	require.NoError(t, s.LogInteraction("user", "Tell me more.", map[string]string{"channel": "phone"}))

	// Every update rewrites the same file with the full state so far.
	doc = readDoc(t, dir, s.ID())
	require.Len(t, doc.Interactions, 2)
	assert.Equal(t, "assistant", doc.Interactions[0].Role)
	assert.Equal(t, "user", doc.Interactions[1].Role)
	assert.InDelta(t, 10185, doc.InitialState.Balance, 1e-9)
}

func TestSessionRecordsSuggestionsAndDecision(t *testing.T) {
	dir := t.TempDir()
	s, err := NewSession(dir, zerolog.Nop())
	require.NoError(t, err)

	require.NoError(t, s.LogSuggestions([]advisor.Candidate{
		{Symbol: "BTCUSDT", RiskLevel: "low", DailyReturn: 0.03},
	}))
	require.NoError(t, s.LogFinalDecision(&voice.Decision{
		Interest:            "yes",
		PreferredInvestment: "BTCUSDT",
		InvestmentAmount:    500,
		InvestmentCompleted: true,
	}))

	doc := readDoc(t, dir, s.ID())
	require.Len(t, doc.InvestmentSuggestions, 1)
	assert.Equal(t, "BTCUSDT", doc.InvestmentSuggestions[0].Symbol)
	require.NotNil(t, doc.FinalDecision)
	assert.True(t, doc.FinalDecision.InvestmentCompleted)
}

func TestSummaryAndSaveSummary(t *testing.T) {
	dir := t.TempDir()
	s, err := NewSession(dir, zerolog.Nop())
	require.NoError(t, err)

	require.NoError(t, s.LogInitialState(1000, 0.25, 300))
	require.NoError(t, s.LogInteraction("assistant", "Hello!", nil))
	require.NoError(t, s.LogFinalDecision(&voice.Decision{
		PreferredInvestment: "ETHUSDT",
		InvestmentAmount:    200,
		InvestmentCompleted: true,
	}))

	summary := s.Summary()
	assert.Contains(t, summary, "Conversation Summary")
	assert.Contains(t, summary, "1000.00")
	assert.Contains(t, summary, "ASSISTANT")
	assert.Contains(t, summary, "ETHUSDT")
	assert.Contains(t, summary, "completed")

	path, err := s.SaveSummary()
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, summary, string(data))
}
