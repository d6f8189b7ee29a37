// Package voice builds the advisor's call scripts, turns call transcripts
// into structured decisions, and talks to the outbound calling provider.
package voice

import (
	"fmt"
	"strings"

	"github.com/oscarlabs/oscarr/advisor"
)

// BuildCallScript renders the script the calling agent follows: surplus
// summary, standard options, memecoin options behind explicit risk guidance,
// and the amount/confirmation protocol.
func BuildCallScript(report advisor.UnusedFundsReport, ranked advisor.RankedCandidates, holdingSymbol string) string {
	var standard, memecoins []advisor.Candidate
	for _, c := range ranked.Candidates {
		if c.IsMemecoin {
			memecoins = append(memecoins, c)
		} else {
			standard = append(standard, c)
		}
	}

	unused := report.UnusedFunds.InexactFloat64()

	var standardText strings.Builder
	for i, c := range standard {
		fmt.Fprintf(&standardText,
			"%d. %s - Current Price: %.2f %s (~ $%.2f), Risk Level: %s, 24h Return: %.2f%%\n",
			i+1, c.Symbol, c.PriceHolding, holdingSymbol, c.PriceUSD, c.RiskLevel, c.DailyReturn*100)
	}

	var memecoinText strings.Builder
	for _, c := range memecoins {
		fmt.Fprintf(&memecoinText,
			"- %s - Current Price: %.8f %s (~ $%.8f), Risk Level: %s, 24h Return: %.2f%%\n  %s\n",
			c.Symbol, c.PriceHolding, holdingSymbol, c.PriceUSD, c.RiskLevel, c.DailyReturn*100, c.Warning)
	}

	referenceText := ""
	if report.UnusedFundsUSD > 0 {
		referenceText = fmt.Sprintf(
			"\n\nFor reference, your unused funds of %.2f %s are worth approximately $%.2f.",
			unused, holdingSymbol, report.UnusedFundsUSD)
	}

	recommendation := ""
	if len(standard) > 0 {
		recommendation = fmt.Sprintf(
			"Based on historical data analysis, I recommend %s as the most suitable investment option for your profile.\n\n",
			standard[0].Symbol)
	}

	return fmt.Sprintf(`Hello! This is Oscar, your weekly AI financial advisor.

I've noticed you have %.2f %s in unused funds that could be working harder for you. Based on your spending patterns, you're keeping more than necessary in your wallet.%s

Here are some investment opportunities I've analyzed:
(Say the analysed opportunities without waiting for the user to respond)

Standard Investment Options:
%s
Would you like to invest some of your unused funds? I can help you choose the best option based on your risk tolerance and investment goals.

[Wait for user response]

If the user asks about alternative or higher risk investments:
1. Mention that there are also higher-risk options available in the memecoin category
2. Ask if they would like to hear about these options
3. If yes, present the following with strong risk warnings:

High-Risk Alternative Options:
%s
Additional guidelines for memecoin inquiries:
1. Emphasize the extreme volatility and high risk
2. Recommend limiting memecoin investments to a small portion of their portfolio (max 5-10%%)
3. Remind them that these investments can result in significant losses
4. Suggest considering standard options first

If the user wants to proceed with any investment:
1. Ask them to specify an amount they would like to invest, reminding them that they have %.2f %s available.
2. After they choose an amount, repeat their choice back to them for confirmation.
3. If they confirm the amount, ask them to say their confirmation code word to finalize the investment.

%sPlease let me know if you'd like to proceed with any of these options or if you have any questions about the available investments.
`,
		unused, holdingSymbol, referenceText,
		standardText.String(),
		memecoinText.String(),
		unused, holdingSymbol,
		recommendation)
}

// Farewell returns the closing line for a call, depending on whether an
// investment was confirmed.
func Farewell(investmentMade bool) string {
	if investmentMade {
		return "Thank you for choosing to invest with us today. Your investment will be processed shortly, and you'll receive a confirmation with the transaction details. Have a great rest of your day!"
	}
	return "Thank you for your time today. Feel free to reach out whenever you'd like to discuss investment opportunities. Have a great rest of your day!"
}
