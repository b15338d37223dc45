package match

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Ledger tracks per-client available balances in the market's two assets.
// Balances are created lazily on first credit and can never go negative.
// It is owned by a single Engine and must only be mutated through it.
type Ledger struct {
	base    map[int64]decimal.Decimal
	counter map[int64]decimal.Decimal
}

func NewLedger() *Ledger {
	return &Ledger{
		base:    make(map[int64]decimal.Decimal),
		counter: make(map[int64]decimal.Decimal),
	}
}

func (l *Ledger) balances(asset Asset) map[int64]decimal.Decimal {
	switch asset {
	case AssetBase:
		return l.base
	case AssetCounter:
		return l.counter
	}
	panic(fmt.Sprintf("ledger: unknown asset %d", asset))
}

// Credit adds amount to the client's balance. Amount must not be negative.
func (l *Ledger) Credit(userID int64, asset Asset, amount decimal.Decimal) {
	if amount.IsNegative() {
		panic(fmt.Sprintf("ledger: negative credit %s %s for user %d", amount, asset, userID))
	}
	m := l.balances(asset)
	m[userID] = m[userID].Add(amount)
}

// Debit subtracts amount from the client's balance. It returns false and
// performs no mutation if the balance is too low; this is the sole admission
// gate for order creation.
func (l *Ledger) Debit(userID int64, asset Asset, amount decimal.Decimal) bool {
	if amount.IsNegative() {
		panic(fmt.Sprintf("ledger: negative debit %s %s for user %d", amount, asset, userID))
	}
	m := l.balances(asset)
	have := m[userID]
	if have.LessThan(amount) {
		return false
	}
	m[userID] = have.Sub(amount)
	return true
}

// Balance returns the client's available balance, zero if absent.
func (l *Ledger) Balance(userID int64, asset Asset) decimal.Decimal {
	return l.balances(asset)[userID]
}

// Balances returns both of the client's balances.
func (l *Ledger) Balances(userID int64) (base, counter decimal.Decimal) {
	return l.base[userID], l.counter[userID]
}
