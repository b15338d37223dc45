package match

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestLedgerCreditDebit(t *testing.T) {
	ledger := NewLedger()

	assert.True(t, decimal.Zero.Equal(ledger.Balance(101, AssetBase)))

	ledger.Credit(101, AssetBase, decimal.NewFromInt(1000))
	ledger.Credit(101, AssetCounter, decimal.NewFromInt(500))
	ledger.Credit(101, AssetBase, decimal.NewFromInt(50))

	base, counter := ledger.Balances(101)
	assert.True(t, decimal.NewFromInt(1050).Equal(base))
	assert.True(t, decimal.NewFromInt(500).Equal(counter))

	assert.True(t, ledger.Debit(101, AssetBase, decimal.NewFromInt(1050)))
	assert.True(t, decimal.Zero.Equal(ledger.Balance(101, AssetBase)))
}

func TestLedgerDebitInsufficient(t *testing.T) {
	ledger := NewLedger()
	ledger.Credit(101, AssetCounter, decimal.NewFromInt(100))

	// An overdraw mutates nothing.
	assert.False(t, ledger.Debit(101, AssetCounter, decimal.NewFromInt(101)))
	assert.True(t, decimal.NewFromInt(100).Equal(ledger.Balance(101, AssetCounter)))

	// An unknown client has an implicit zero balance.
	assert.False(t, ledger.Debit(999, AssetCounter, decimal.NewFromInt(1)))
}

func TestLedgerZeroAmounts(t *testing.T) {
	ledger := NewLedger()
	ledger.Credit(101, AssetBase, decimal.Zero)
	assert.True(t, ledger.Debit(101, AssetBase, decimal.Zero))
	assert.True(t, decimal.Zero.Equal(ledger.Balance(101, AssetBase)))
}

func TestLedgerNegativeAmountsPanic(t *testing.T) {
	ledger := NewLedger()
	assert.Panics(t, func() {
		ledger.Credit(101, AssetBase, decimal.NewFromInt(-1))
	})
	assert.Panics(t, func() {
		ledger.Debit(101, AssetBase, decimal.NewFromInt(-1))
	})
}
