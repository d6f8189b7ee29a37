package voice

import (
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/oscarlabs/oscarr/advisor"
)

func sampleRanked() advisor.RankedCandidates {
	return advisor.RankedCandidates{
		Candidates: []advisor.Candidate{
			{Symbol: "ETHUSDT", PriceUSD: 2300, PriceHolding: 9500.2, DailyReturn: 0.05, RiskLevel: "medium"},
			{Symbol: "BTCUSDT", PriceUSD: 43000, PriceHolding: 177612.5, DailyReturn: 0.03, RiskLevel: "low"},
			{
				Symbol: "DOGEUSDT", PriceUSD: 0.082, PriceHolding: 0.3387,
				DailyReturn: 0.10, RiskLevel: "extreme", IsMemecoin: true,
				Warning: advisor.MemecoinWarning,
			},
		},
	}
}

func sampleReport() advisor.UnusedFundsReport {
	return advisor.UnusedFundsReport{
		UnusedFunds:     decimal.RequireFromString("9564"),
		UnusedFundsUSD:  2315.5,
		HoldingPriceUSD: 0.2421,
	}
}

func TestBuildCallScript(t *testing.T) {
	script := BuildCallScript(sampleReport(), sampleRanked(), "POL")

	assert.Contains(t, script, "This is Oscar")
	assert.Contains(t, script, "9564.00 POL")
	assert.Contains(t, script, "ETHUSDT")
	assert.Contains(t, script, "BTCUSDT")
	assert.Contains(t, script, "DOGEUSDT")
	assert.Contains(t, script, advisor.MemecoinWarning)
	assert.Contains(t, script, "confirmation code word")

	// Best standard candidate is the recommendation.
	assert.Contains(t, script, "I recommend ETHUSDT")

	// Standard options listed before the high-risk section.
	assert.Less(t,
		strings.Index(script, "ETHUSDT"),
		strings.Index(script, "High-Risk Alternative Options"))
}

func TestBuildCallScriptWithoutMemecoins(t *testing.T) {
	ranked := sampleRanked()
	ranked.Candidates = ranked.Candidates[:2]

	script := BuildCallScript(sampleReport(), ranked, "POL")
	assert.NotContains(t, script, "DOGEUSDT")
	assert.Contains(t, script, "ETHUSDT")
}

func TestFarewell(t *testing.T) {
	assert.Contains(t, Farewell(true), "Thank you for choosing to invest")
	assert.Contains(t, Farewell(false), "Thank you for your time")
}
