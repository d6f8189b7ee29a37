package advisor

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oscarlabs/oscarr/market"
)

// flatCandles builds a candle window whose last close is `close` and whose
// mean(high-low)/mean(close) equals `volatility`.
func flatCandles(n int, close, volatility float64) []market.Candle {
	candles := make([]market.Candle, n)
	spread := close * volatility
	for i := range candles {
		candles[i] = market.Candle{
			Open:   close,
			High:   close + spread/2,
			Low:    close - spread/2,
			Close:  close,
			Volume: 1000,
		}
	}
	return candles
}

func rosterProvider() *fakeProvider {
	p := &fakeProvider{
		spot:      0.2421,
		tickers:   map[string]market.Ticker{},
		candles:   map[string][]market.Candle{},
		failPairs: map[string]bool{},
	}

	// Daily returns: ETH 0.05, BTC 0.03, SOL 0.01, DOGE 0.10, SHIB 0.02,
	// PEPE 0.01, FLOKI 0.00.
	returns := map[string]float64{
		"BTCUSDT": 0.03, "ETHUSDT": 0.05, "SOLUSDT": 0.01,
		"DOGEUSDT": 0.10, "SHIBUSDT": 0.02, "PEPEUSDT": 0.01, "FLOKIUSDT": 0.0,
	}
	for symbol, ret := range returns {
		close := 100.0
		p.candles[symbol] = flatCandles(30, close, 0.01)
		p.tickers[symbol] = market.Ticker{
			Symbol:         symbol,
			Last:           close * (1 + ret),
			QuoteVolume24h: 5_000_000,
		}
	}
	return p
}

func TestRankOrdersStandardBeforeExtreme(t *testing.T) {
	r := NewRanker(rosterProvider(), 30, zerolog.Nop())

	ranked, err := r.Rank(context.Background(), 0.2421, true)
	require.NoError(t, err)
	require.Len(t, ranked.Candidates, 7)
	assert.Empty(t, ranked.Skipped)

	got := make([]string, len(ranked.Candidates))
	for i, c := range ranked.Candidates {
		got[i] = c.Symbol
	}
	// Standard by return desc, then memecoins by return desc.
	assert.Equal(t, []string{
		"ETHUSDT", "BTCUSDT", "SOLUSDT",
		"DOGEUSDT", "SHIBUSDT", "PEPEUSDT", "FLOKIUSDT",
	}, got)

	// DOGE outperforms every standard pair yet still ranks after them.
	assert.Greater(t, ranked.Candidates[3].DailyReturn, ranked.Candidates[0].DailyReturn)
}

func TestRankStandardOnlyByDefault(t *testing.T) {
	r := NewRanker(rosterProvider(), 30, zerolog.Nop())

	ranked, err := r.Rank(context.Background(), 0.2421, false)
	require.NoError(t, err)
	require.Len(t, ranked.Candidates, 3)
	for _, c := range ranked.Candidates {
		assert.False(t, c.IsMemecoin)
	}
}

func TestRankSkipsFailedCandidates(t *testing.T) {
	p := rosterProvider()
	p.failPairs["SOLUSDT"] = true
	r := NewRanker(p, 30, zerolog.Nop())

	ranked, err := r.Rank(context.Background(), 0.2421, false)
	require.NoError(t, err)

	got := make([]string, len(ranked.Candidates))
	for i, c := range ranked.Candidates {
		got[i] = c.Symbol
	}
	assert.Equal(t, []string{"ETHUSDT", "BTCUSDT"}, got)

	require.Len(t, ranked.Skipped, 1)
	assert.Equal(t, "SOLUSDT", ranked.Skipped[0].Symbol)
	assert.Contains(t, ranked.Skipped[0].Reason, "SOLUSDT")
}

func TestRankAllFetchesFailedIsDistinguishable(t *testing.T) {
	p := rosterProvider()
	for _, symbol := range StandardPairs {
		p.failPairs[symbol] = true
	}
	r := NewRanker(p, 30, zerolog.Nop())

	ranked, err := r.Rank(context.Background(), 0.2421, false)
	require.NoError(t, err)
	assert.Empty(t, ranked.Candidates)
	assert.Len(t, ranked.Skipped, len(StandardPairs))
}

func TestRankRejectsInvalidHoldingPrice(t *testing.T) {
	r := NewRanker(rosterProvider(), 30, zerolog.Nop())
	_, err := r.Rank(context.Background(), 0, false)
	assert.Error(t, err)
}

func TestRankMemecoinsAlwaysExtremeWithWarning(t *testing.T) {
	r := NewRanker(rosterProvider(), 30, zerolog.Nop())

	ranked, err := r.Rank(context.Background(), 0.2421, true)
	require.NoError(t, err)

	for _, c := range ranked.Candidates {
		if c.IsMemecoin {
			assert.Equal(t, "extreme", c.RiskLevel, c.Symbol)
			assert.Equal(t, MemecoinWarning, c.Warning, c.Symbol)
		} else {
			assert.Empty(t, c.Warning, c.Symbol)
		}
	}
}

func TestRankHoldingUnitConversions(t *testing.T) {
	r := NewRanker(rosterProvider(), 30, zerolog.Nop())

	ranked, err := r.Rank(context.Background(), 0.25, false)
	require.NoError(t, err)

	for _, c := range ranked.Candidates {
		assert.InDelta(t, c.PriceUSD/0.25, c.PriceHolding, 1e-9)
		assert.InDelta(t, c.Volume24hUSD/0.25, c.Volume24hHolding, 1e-6)
	}
}

func TestClassifyRiskByVolatility(t *testing.T) {
	tests := []struct {
		volatility float64
		isMemecoin bool
		want       string
	}{
		{0.01, false, "low"},
		{0.03, false, "medium"},
		{0.08, false, "high"},
		{0.02, false, "medium"},
		{0.05, false, "high"},
		{0.01, true, "extreme"},
		{0.08, true, "extreme"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, classifyRisk(tt.volatility, tt.isMemecoin),
			"volatility=%v memecoin=%v", tt.volatility, tt.isMemecoin)
	}
}

func TestCandleVolatility(t *testing.T) {
	// mean(high-low) = 3, mean(close) = 100.
	candles := flatCandles(10, 100, 0.03)
	assert.InDelta(t, 0.03, candleVolatility(candles), 1e-9)
}
