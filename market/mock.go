package market

import (
	"context"
	"fmt"
	"hash/fnv"
	"math/rand"
)

// MockProvider serves deterministic synthetic market data for demo mode and
// tests. The same seed always produces the same prices and candles.
type MockProvider struct {
	seed       int64
	basePrices map[string]float64
	spotPrices map[string]float64
}

// NewMockProvider creates a seeded mock provider.
func NewMockProvider(seed int64) *MockProvider {
	return &MockProvider{
		seed: seed,
		basePrices: map[string]float64{
			"BTCUSDT":  43000,
			"ETHUSDT":  2300,
			"SOLUSDT":  98,
			"DOGEUSDT": 0.082,
			"SHIBUSDT": 0.0000095,
			"PEPEUSDT": 0.0000012,
			"FLOKIUSDT": 0.000031,
		},
		spotPrices: map[string]float64{
			"matic-network": 0.2421,
		},
	}
}

func (m *MockProvider) SpotPrice(_ context.Context, assetID string) (float64, error) {
	price, ok := m.spotPrices[assetID]
	if !ok {
		return 0, fmt.Errorf("unknown asset %q", assetID)
	}
	return price, nil
}

func (m *MockProvider) Ticker(_ context.Context, symbol string) (Ticker, error) {
	base, ok := m.basePrices[symbol]
	if !ok {
		return Ticker{}, fmt.Errorf("unknown symbol %q", symbol)
	}
	r := m.randFor(symbol)

	// Last price drifts a little off the final candle close.
	candles, _ := m.DailyCandles(context.Background(), symbol, 30)
	last := candles[len(candles)-1].Close * (1 + (r.Float64()-0.45)*0.04)

	return Ticker{
		Symbol:         symbol,
		Last:           last,
		QuoteVolume24h: base * (1e4 + r.Float64()*1e5),
	}, nil
}

func (m *MockProvider) DailyCandles(_ context.Context, symbol string, days int) ([]Candle, error) {
	base, ok := m.basePrices[symbol]
	if !ok {
		return nil, fmt.Errorf("unknown symbol %q", symbol)
	}
	r := m.randFor(symbol)

	candles := make([]Candle, days)
	price := base
	for i := range candles {
		change := (r.Float64() - 0.5) * 0.06
		open := price
		close := open * (1 + change)
		high := maxFloat(open, close) * (1 + r.Float64()*0.015)
		low := minFloat(open, close) * (1 - r.Float64()*0.015)

		candles[i] = Candle{
			OpenTime:  int64(i),
			Open:      open,
			High:      high,
			Low:       low,
			Close:     close,
			Volume:    base * (1e3 + r.Float64()*1e4),
			CloseTime: int64(i + 1),
		}
		price = close
	}
	return candles, nil
}

// randFor derives a per-symbol source so results do not depend on call order.
func (m *MockProvider) randFor(symbol string) *rand.Rand {
	h := fnv.New64a()
	h.Write([]byte(symbol))
	return rand.New(rand.NewSource(m.seed ^ int64(h.Sum64())))
}

func maxFloat(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}

func minFloat(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}
