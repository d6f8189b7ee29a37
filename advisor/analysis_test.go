package advisor

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oscarlabs/oscarr/market"
)

func TestCalculateSMA(t *testing.T) {
	prices := []float64{1, 2, 3, 4, 5, 6}

	assert.InDelta(t, 5.0, CalculateSMA(prices, 3), 1e-9) // (4+5+6)/3
	assert.InDelta(t, 3.5, CalculateSMA(prices, 6), 1e-9)
	assert.Zero(t, CalculateSMA(prices, 7)) // not enough data
}

func TestCalculateRSI(t *testing.T) {
	up := []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15, 16}
	assert.InDelta(t, 100, CalculateRSI(up, 14), 1e-9)

	down := []float64{16, 15, 14, 13, 12, 11, 10, 9, 8, 7, 6, 5, 4, 3, 2, 1}
	assert.InDelta(t, 0, CalculateRSI(down, 14), 1e-9)

	assert.InDelta(t, 50, CalculateRSI([]float64{1, 2}, 14), 1e-9) // neutral on short input
}

func TestAssessRiskTiers(t *testing.T) {
	// Best case: bullish, oversold, calm, rising volume -> 1+0+1+1 = 3.
	low := &OpportunityAnalysis{Trend: "bullish", RSI: 25, Volatility: 0.01, VolumeTrend: "increasing"}
	assert.Equal(t, "low", assessRisk(low))

	// Middling on every axis -> 1+1+1+2 = 5.
	medium := &OpportunityAnalysis{Trend: "bullish", RSI: 50, Volatility: 0.01, VolumeTrend: "decreasing"}
	assert.Equal(t, "medium", assessRisk(medium))

	// Worst case: bearish, overbought, volatile, fading volume -> 2+2+2+2 = 8.
	high := &OpportunityAnalysis{Trend: "bearish", RSI: 80, Volatility: 0.09, VolumeTrend: "decreasing"}
	assert.Equal(t, "high", assessRisk(high))
}

func TestAnalyzeOpportunity(t *testing.T) {
	p := rosterProvider()
	a := NewAnalyzer(p, 30, zerolog.Nop())

	analysis, err := a.AnalyzeOpportunity(context.Background(), "BTCUSDT")
	require.NoError(t, err)

	assert.Equal(t, "BTCUSDT", analysis.Symbol)
	assert.InDelta(t, 103, analysis.CurrentPrice, 1e-9)
	assert.InDelta(t, 0.01, analysis.Volatility, 1e-9)
	assert.Contains(t, []string{"bullish", "bearish"}, analysis.Trend)
	assert.Contains(t, []string{"low", "medium", "high"}, analysis.RiskLevel)
}

func TestAnalyzeOpportunityPropagatesFetchErrors(t *testing.T) {
	p := rosterProvider()
	p.failPairs["BTCUSDT"] = true
	a := NewAnalyzer(p, 30, zerolog.Nop())

	_, err := a.AnalyzeOpportunity(context.Background(), "BTCUSDT")
	assert.Error(t, err)
}

func TestAnalyzeOpportunityEmptyCandles(t *testing.T) {
	p := &fakeProvider{
		tickers: map[string]market.Ticker{"X": {Symbol: "X", Last: 1}},
		candles: map[string][]market.Candle{"X": {}},
	}
	a := NewAnalyzer(p, 30, zerolog.Nop())

	_, err := a.AnalyzeOpportunity(context.Background(), "X")
	assert.Error(t, err)
}
