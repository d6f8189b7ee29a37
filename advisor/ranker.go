package advisor

import (
	"context"
	"fmt"
	"sort"

	"github.com/rs/zerolog"

	"github.com/oscarlabs/oscarr/market"
)

// Candidate rosters. Standard pairs are always considered; memecoin pairs
// only when the caller explicitly asks for them.
var (
	StandardPairs = []string{"BTCUSDT", "ETHUSDT", "SOLUSDT"}
	MemecoinPairs = []string{"DOGEUSDT", "SHIBUSDT", "PEPEUSDT", "FLOKIUSDT"}
)

// MemecoinWarning is attached to every extreme-risk candidate.
const MemecoinWarning = "EXTREME RISK: Meme coins are highly speculative and can lose most of their value rapidly. Only invest what you can afford to lose completely."

// Candidate is one ranked investment option.
type Candidate struct {
	Symbol           string  `json:"symbol"`
	PriceUSD         float64 `json:"price_usd"`
	PriceHolding     float64 `json:"price_holding"`
	DailyReturn      float64 `json:"daily_return"`
	Volatility       float64 `json:"volatility"`
	RiskLevel        string  `json:"risk_level"`
	Warning          string  `json:"warning,omitempty"`
	Volume24hUSD     float64 `json:"volume_24h_usd"`
	Volume24hHolding float64 `json:"volume_24h_holding"`
	IsMemecoin       bool    `json:"is_memecoin"`
}

// SkippedPair records a roster member dropped from the result and why, so
// callers can tell "nothing qualified" apart from "every fetch failed".
type SkippedPair struct {
	Symbol string `json:"symbol"`
	Reason string `json:"reason"`
}

// RankedCandidates is the ranker output.
type RankedCandidates struct {
	Candidates []Candidate   `json:"candidates"`
	Skipped    []SkippedPair `json:"skipped,omitempty"`
}

// Ranker scores and orders the candidate roster.
type Ranker struct {
	provider     market.Provider
	lookbackDays int
	log          zerolog.Logger
}

// NewRanker creates a ranker reading lookbackDays of daily candles per pair.
func NewRanker(provider market.Provider, lookbackDays int, log zerolog.Logger) *Ranker {
	return &Ranker{
		provider:     provider,
		lookbackDays: lookbackDays,
		log:          log.With().Str("component", "ranker").Logger(),
	}
}

// Rank evaluates the roster against current market data. holdingPrice is the
// USD price of the holding asset, used for unit conversions; it must be
// positive. A candidate whose data fetch fails is recorded in Skipped and
// the rest still rank; Rank itself only fails on invalid input.
func (r *Ranker) Rank(ctx context.Context, holdingPrice float64, includeMemecoins bool) (RankedCandidates, error) {
	if holdingPrice <= 0 {
		return RankedCandidates{}, fmt.Errorf("holding price must be positive, got %f", holdingPrice)
	}

	roster := make([]string, 0, len(StandardPairs)+len(MemecoinPairs))
	roster = append(roster, StandardPairs...)
	if includeMemecoins {
		roster = append(roster, MemecoinPairs...)
	}

	out := RankedCandidates{}
	for _, symbol := range roster {
		candidate, err := r.evaluate(ctx, symbol, holdingPrice)
		if err != nil {
			r.log.Warn().Err(err).Str("symbol", symbol).Msg("skipping candidate")
			out.Skipped = append(out.Skipped, SkippedPair{Symbol: symbol, Reason: err.Error()})
			continue
		}
		out.Candidates = append(out.Candidates, candidate)
	}

	// Standard assets first, then extreme risk; best daily return first
	// within each group.
	sort.SliceStable(out.Candidates, func(i, j int) bool {
		a, b := out.Candidates[i], out.Candidates[j]
		if a.IsMemecoin != b.IsMemecoin {
			return !a.IsMemecoin
		}
		return a.DailyReturn > b.DailyReturn
	})

	return out, nil
}

func (r *Ranker) evaluate(ctx context.Context, symbol string, holdingPrice float64) (Candidate, error) {
	ticker, err := r.provider.Ticker(ctx, symbol)
	if err != nil {
		return Candidate{}, fmt.Errorf("ticker: %w", err)
	}

	candles, err := r.provider.DailyCandles(ctx, symbol, r.lookbackDays)
	if err != nil {
		return Candidate{}, fmt.Errorf("candles: %w", err)
	}
	if len(candles) == 0 {
		return Candidate{}, fmt.Errorf("no candles returned")
	}

	prevClose := candles[len(candles)-1].Close
	if prevClose <= 0 {
		return Candidate{}, fmt.Errorf("invalid reference close %f", prevClose)
	}
	dailyReturn := (ticker.Last - prevClose) / prevClose

	volatility := candleVolatility(candles)
	isMemecoin := isMemecoinPair(symbol)

	candidate := Candidate{
		Symbol:           symbol,
		PriceUSD:         ticker.Last,
		PriceHolding:     ticker.Last / holdingPrice,
		DailyReturn:      dailyReturn,
		Volatility:       volatility,
		Volume24hUSD:     ticker.QuoteVolume24h,
		Volume24hHolding: ticker.QuoteVolume24h / holdingPrice,
		IsMemecoin:       isMemecoin,
	}
	candidate.RiskLevel = classifyRisk(volatility, isMemecoin)
	if isMemecoin {
		candidate.Warning = MemecoinWarning
	}

	return candidate, nil
}

// candleVolatility is mean(high-low) / mean(close) over the window.
func candleVolatility(candles []market.Candle) float64 {
	var rangeSum, closeSum float64
	for _, c := range candles {
		rangeSum += c.High - c.Low
		closeSum += c.Close
	}
	n := float64(len(candles))
	meanClose := closeSum / n
	if meanClose == 0 {
		return 0
	}
	return (rangeSum / n) / meanClose
}

// classifyRisk maps volatility to a risk tier. Memecoins are always extreme
// regardless of measured volatility.
func classifyRisk(volatility float64, isMemecoin bool) string {
	if isMemecoin {
		return "extreme"
	}
	switch {
	case volatility < 0.02:
		return "low"
	case volatility < 0.05:
		return "medium"
	default:
		return "high"
	}
}

func isMemecoinPair(symbol string) bool {
	for _, m := range MemecoinPairs {
		if m == symbol {
			return true
		}
	}
	return false
}
