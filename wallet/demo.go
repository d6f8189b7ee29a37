// Demo mode: synthetic transaction history for offline runs and tests.
package wallet

import (
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/shopspring/decimal"
)

// Counterparties used for generated transactions, for variety in logs and
// conversation summaries.
var demoCounterparties = []string{
	"@coffee_shop", "@grocery_mart", "@streaming_svc", "@ride_share",
	"@gas_station", "@pharmacy", "@alice", "@bob", "@restaurant_xyz",
}

// SeedDemoHistory fills the ledger with windowDays of synthetic activity:
// one to three transactions per day, amounts between 5 and 50 holding units,
// random direction. The same seed always produces the same history.
func SeedDemoHistory(l *Ledger, seed int64, windowDays int) {
	r := rand.New(rand.NewSource(seed))

	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	for daysAgo := windowDays - 1; daysAgo >= 0; daysAgo-- {
		d := now.AddDate(0, 0, -daysAgo)
		dayStart := time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, d.Location())

		count := 1 + r.Intn(3)
		for i := 0; i < count; i++ {
			amount := roundTo2Decimals(5.0 + r.Float64()*45.0)
			dir := Outgoing
			if r.Intn(2) == 0 {
				dir = Incoming
			}
			counterparty := demoCounterparties[r.Intn(len(demoCounterparties))]

			tx := Transaction{
				ID:        generateDemoTxID(r),
				Amount:    decimal.NewFromFloat(amount),
				Direction: dir,
				Timestamp: dayStart.Add(time.Duration(r.Intn(24)) * time.Hour),
			}
			if dir == Outgoing {
				tx.From = l.address
				tx.To = counterparty
			} else {
				tx.From = counterparty
				tx.To = l.address
			}
			l.apply(tx)
		}
	}
}

func generateDemoTxID(r *rand.Rand) string {
	const chars = "abcdef0123456789"
	id := make([]byte, 16)
	for i := range id {
		id[i] = chars[r.Intn(len(chars))]
	}
	return fmt.Sprintf("tx_%s", id)
}

func roundTo2Decimals(v float64) float64 {
	return math.Round(v*100) / 100
}
