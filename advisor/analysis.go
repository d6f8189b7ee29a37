package advisor

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/oscarlabs/oscarr/market"
)

// OpportunityAnalysis is the secondary, indicator-based risk read on a
// single symbol. It supplements the ranker's volatility tiering; the main
// detection flow does not depend on it.
type OpportunityAnalysis struct {
	Symbol       string  `json:"symbol"`
	CurrentPrice float64 `json:"current_price"`
	Trend        string  `json:"trend"`        // bullish | bearish
	RSI          float64 `json:"rsi"`
	Volatility   float64 `json:"volatility"`
	VolumeTrend  string  `json:"volume_trend"` // increasing | decreasing
	RiskLevel    string  `json:"risk_level"`   // low | medium | high
}

// Analyzer runs per-symbol technical analysis.
type Analyzer struct {
	provider     market.Provider
	lookbackDays int
	log          zerolog.Logger
}

// NewAnalyzer creates an analyzer over lookbackDays of daily candles.
func NewAnalyzer(provider market.Provider, lookbackDays int, log zerolog.Logger) *Analyzer {
	return &Analyzer{
		provider:     provider,
		lookbackDays: lookbackDays,
		log:          log.With().Str("component", "analyzer").Logger(),
	}
}

// AnalyzeOpportunity assesses one symbol: SMA7/SMA30 crossover trend,
// 14-period RSI, window volatility, volume trend, and an additive risk
// score folded into low/medium/high.
func (a *Analyzer) AnalyzeOpportunity(ctx context.Context, symbol string) (*OpportunityAnalysis, error) {
	candles, err := a.provider.DailyCandles(ctx, symbol, a.lookbackDays)
	if err != nil {
		return nil, fmt.Errorf("candles for %s: %w", symbol, err)
	}
	if len(candles) == 0 {
		return nil, fmt.Errorf("no candles for %s", symbol)
	}

	ticker, err := a.provider.Ticker(ctx, symbol)
	if err != nil {
		return nil, fmt.Errorf("ticker for %s: %w", symbol, err)
	}

	closes := make([]float64, len(candles))
	var volumeSum, lastVolume float64
	for i, c := range candles {
		closes[i] = c.Close
		volumeSum += c.Volume
		lastVolume = c.Volume
	}

	trend := "bearish"
	if CalculateSMA(closes, 7) > CalculateSMA(closes, 30) {
		trend = "bullish"
	}

	volumeTrend := "decreasing"
	if lastVolume > volumeSum/float64(len(candles)) {
		volumeTrend = "increasing"
	}

	analysis := &OpportunityAnalysis{
		Symbol:       symbol,
		CurrentPrice: ticker.Last,
		Trend:        trend,
		RSI:          CalculateRSI(closes, 14),
		Volatility:   candleVolatility(candles),
		VolumeTrend:  volumeTrend,
	}
	analysis.RiskLevel = assessRisk(analysis)

	return analysis, nil
}

// assessRisk scores the analysis additively: score <= 3 is low, <= 5 is
// medium, above that high.
func assessRisk(a *OpportunityAnalysis) string {
	score := 0

	if a.Trend == "bullish" {
		score++
	} else {
		score += 2
	}

	switch {
	case a.RSI > 70:
		score += 2
	case a.RSI < 30:
		// Oversold adds nothing.
	default:
		score++
	}

	if a.Volatility > 0.05 {
		score += 2
	} else {
		score++
	}

	if a.VolumeTrend == "increasing" {
		score++
	} else {
		score += 2
	}

	switch {
	case score <= 3:
		return "low"
	case score <= 5:
		return "medium"
	default:
		return "high"
	}
}
