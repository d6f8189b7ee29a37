// Package advisor decides whether a wallet holds investable surplus and
// ranks candidate assets for it.
package advisor

import (
	"context"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/oscarlabs/oscarr/market"
	"github.com/oscarlabs/oscarr/wallet"
)

// DefaultMonthlyAverage is assumed when the ledger has no spending history
// to estimate from, in holding units.
const DefaultMonthlyAverage = 206.5

// FallbackHoldingPrice is the USD price substituted when the spot-price
// oracle is unreachable.
const FallbackHoldingPrice = 0.242130

// DetectorConfig tunes the unused-funds decision.
type DetectorConfig struct {
	// MinInvestment is the investment floor in the reference currency.
	MinInvestment float64
	// SafetyNetMultiplier is the number of months of average spend kept
	// untouched.
	SafetyNetMultiplier float64
	// ThresholdRatio feeds the informational threshold field only.
	ThresholdRatio float64
	// HoldingAssetID is the oracle ID of the asset balances are held in.
	HoldingAssetID string
}

// UnusedFundsReport describes a detected surplus. Amounts are in holding
// units unless suffixed USD.
type UnusedFundsReport struct {
	Balance        decimal.Decimal `json:"balance"`
	MonthlyAverage decimal.Decimal `json:"monthly_average"`
	SafetyNet      decimal.Decimal `json:"safety_net"`
	UnusedFunds    decimal.Decimal `json:"unused_funds"`

	// Threshold is monthlyAverage scaled by (1 + ThresholdRatio). It is
	// reported for visibility but does not gate the decision; the decision
	// compares the surplus against the minimum-investment floor.
	Threshold decimal.Decimal `json:"threshold"`

	HoldingPriceUSD   float64 `json:"holding_price_usd"`
	BalanceUSD        float64 `json:"balance_usd"`
	SafetyNetUSD      float64 `json:"safety_net_usd"`
	UnusedFundsUSD    float64 `json:"unused_funds_usd"`
	PriceFromFallback bool    `json:"price_from_fallback"`
}

// Verdict is the detector outcome. Surplus=false means the balance offers
// nothing to invest; it is an expected result, not a failure.
type Verdict struct {
	Surplus bool
	Report  UnusedFundsReport
}

// Detector computes surplus verdicts from balances and spending patterns.
type Detector struct {
	config   DetectorConfig
	provider market.Provider
	log      zerolog.Logger
}

// NewDetector creates a detector backed by the given market data provider.
func NewDetector(config DetectorConfig, provider market.Provider, log zerolog.Logger) *Detector {
	return &Detector{
		config:   config,
		provider: provider,
		log:      log.With().Str("component", "detector").Logger(),
	}
}

// Detect decides whether the balance carries investable surplus. The
// spending pattern's monthly average drives the safety net; patternOK=false
// substitutes the default monthly average. A spot-price fetch failure is
// logged and replaced by the fallback price, never surfaced as an error.
func (d *Detector) Detect(ctx context.Context, balance decimal.Decimal, pattern wallet.SpendingPattern, patternOK bool) Verdict {
	monthly := decimal.NewFromFloat(DefaultMonthlyAverage)
	if patternOK {
		monthly = pattern.MonthlyAverage
	}

	price, err := d.provider.SpotPrice(ctx, d.config.HoldingAssetID)
	fromFallback := false
	if err != nil || price <= 0 {
		d.log.Warn().Err(err).Float64("fallback", FallbackHoldingPrice).
			Msg("spot price unavailable, using fallback")
		price = FallbackHoldingPrice
		fromFallback = true
	}

	multiplier := decimal.NewFromFloat(d.config.SafetyNetMultiplier)
	safetyNet := monthly.Mul(multiplier)
	unused := balance.Sub(safetyNet)
	threshold := monthly.Mul(decimal.NewFromFloat(1 + d.config.ThresholdRatio))
	minHoldingUnits := decimal.NewFromFloat(d.config.MinInvestment / price)

	report := UnusedFundsReport{
		Balance:           balance,
		MonthlyAverage:    monthly,
		SafetyNet:         safetyNet,
		UnusedFunds:       unused,
		Threshold:         threshold,
		HoldingPriceUSD:   price,
		BalanceUSD:        balance.InexactFloat64() * price,
		SafetyNetUSD:      safetyNet.InexactFloat64() * price,
		UnusedFundsUSD:    unused.InexactFloat64() * price,
		PriceFromFallback: fromFallback,
	}

	surplus := unused.GreaterThanOrEqual(minHoldingUnits)
	if surplus {
		d.log.Info().
			Str("balance", balance.String()).
			Str("safety_net", safetyNet.String()).
			Str("unused", unused.String()).
			Msg("unused funds detected")
	} else {
		d.log.Info().
			Str("balance", balance.String()).
			Str("safety_net", safetyNet.String()).
			Msg("no investable surplus")
	}

	return Verdict{Surplus: surplus, Report: report}
}
