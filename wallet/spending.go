package wallet

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Fallback averages used when the history holds no outgoing transactions.
// Callers that want a different default should check the ok flag instead.
var (
	FallbackDailyAverage   = decimal.NewFromFloat(50.0)
	FallbackWeeklyAverage  = decimal.NewFromFloat(350.0)
	FallbackMonthlyAverage = decimal.NewFromFloat(1500.0)
)

// SpendingPattern summarizes outgoing volume over the analysis window.
type SpendingPattern struct {
	DailyAverage   decimal.Decimal `json:"daily_average"`
	WeeklyAverage  decimal.Decimal `json:"weekly_average"`
	MonthlyAverage decimal.Decimal `json:"monthly_average"`
}

// SpendingPatterns derives daily, weekly and monthly spending averages from
// the outgoing transactions of the last windowDays. Incoming transactions
// never count as spending. The daily average is the mean of per-calendar-day
// totals, the weekly average the mean of per-ISO-week totals, and the monthly
// average is the daily average scaled to 30 days.
//
// When the window holds no outgoing transactions the fallback pattern is
// returned with ok=false so callers can substitute their own default.
func (l *Ledger) SpendingPatterns(windowDays int) (SpendingPattern, bool) {
	byDay := map[string]decimal.Decimal{}
	byWeek := map[string]decimal.Decimal{}

	for _, tx := range l.History(windowDays) {
		if tx.Direction != Outgoing {
			continue
		}
		day := tx.Timestamp.Format("2006-01-02")
		byDay[day] = byDay[day].Add(tx.Amount)

		year, week := tx.Timestamp.ISOWeek()
		wk := fmt.Sprintf("%04d-W%02d", year, week)
		byWeek[wk] = byWeek[wk].Add(tx.Amount)
	}

	if len(byDay) == 0 {
		return SpendingPattern{
			DailyAverage:   FallbackDailyAverage,
			WeeklyAverage:  FallbackWeeklyAverage,
			MonthlyAverage: FallbackMonthlyAverage,
		}, false
	}

	daily := meanOf(byDay)
	weekly := meanOf(byWeek)

	return SpendingPattern{
		DailyAverage:   daily,
		WeeklyAverage:  weekly,
		MonthlyAverage: daily.Mul(decimal.NewFromInt(30)),
	}, true
}

func meanOf(groups map[string]decimal.Decimal) decimal.Decimal {
	sum := decimal.Zero
	for _, v := range groups {
		sum = sum.Add(v)
	}
	return sum.Div(decimal.NewFromInt(int64(len(groups))))
}
