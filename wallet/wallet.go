// Package wallet tracks an account balance and its transaction history, and
// derives spending patterns from the outgoing side of that history.
package wallet

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Direction classifies a transaction relative to the account.
type Direction string

const (
	Incoming Direction = "incoming"
	Outgoing Direction = "outgoing"
)

// Transaction is an immutable ledger entry.
type Transaction struct {
	ID        string          `json:"id"`
	From      string          `json:"from"`
	To        string          `json:"to"`
	Amount    decimal.Decimal `json:"amount"`
	Direction Direction       `json:"direction"`
	Timestamp time.Time       `json:"timestamp"`
}

// Ledger holds the account balance and the transactions applied to it since
// the balance was last set. The balance always equals the anchor balance plus
// the signed sum of recorded amounts.
type Ledger struct {
	mu           sync.RWMutex
	address      string
	balance      decimal.Decimal
	transactions []Transaction
	anchoredAt   time.Time
	now          func() time.Time
}

// Option configures a Ledger.
type Option func(*Ledger)

// WithClock overrides the time source. Used by tests and the demo seeder.
func WithClock(now func() time.Time) Option {
	return func(l *Ledger) { l.now = now }
}

// NewLedger creates a ledger for the given address with an initial balance.
func NewLedger(address string, initial decimal.Decimal, opts ...Option) *Ledger {
	l := &Ledger{
		address: address,
		balance: initial,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	l.anchoredAt = l.now()
	return l
}

// Address returns the account address the ledger tracks.
func (l *Ledger) Address() string {
	return l.address
}

// AddTransaction records a transfer and applies it to the balance. The
// amount is the absolute transfer size; the direction determines its sign.
func (l *Ledger) AddTransaction(from, to string, amount decimal.Decimal, dir Direction) (Transaction, error) {
	if amount.IsNegative() || amount.IsZero() {
		return Transaction{}, fmt.Errorf("transaction amount must be positive, got %s", amount)
	}
	if dir != Incoming && dir != Outgoing {
		return Transaction{}, fmt.Errorf("unknown transaction direction %q", dir)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	tx := Transaction{
		ID:        uuid.New().String(),
		From:      from,
		To:        to,
		Amount:    amount,
		Direction: dir,
		Timestamp: l.now(),
	}
	l.apply(tx)
	return tx, nil
}

// apply appends a transaction and adjusts the balance. Caller holds l.mu.
func (l *Ledger) apply(tx Transaction) {
	if tx.Direction == Incoming {
		l.balance = l.balance.Add(tx.Amount)
	} else {
		l.balance = l.balance.Sub(tx.Amount)
	}
	l.transactions = append(l.transactions, tx)
}

// SetBalance replaces the balance and discards the transaction history. The
// new balance becomes the anchor for the sum invariant.
func (l *Ledger) SetBalance(v decimal.Decimal) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.balance = v
	l.transactions = nil
	l.anchoredAt = l.now()
}

// Balance returns the current balance in holding units.
func (l *Ledger) Balance() decimal.Decimal {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.balance
}

// History returns the transactions recorded within the last windowDays, in
// insertion order.
func (l *Ledger) History(windowDays int) []Transaction {
	l.mu.RLock()
	defer l.mu.RUnlock()

	cutoff := l.now().AddDate(0, 0, -windowDays)
	out := make([]Transaction, 0, len(l.transactions))
	for _, tx := range l.transactions {
		if tx.Timestamp.Before(cutoff) {
			continue
		}
		out = append(out, tx)
	}
	return out
}
