package match

import (
	"github.com/shopspring/decimal"
)

// Terms controls how an order resolves once its matching pass stops.
type Terms string

const (
	// GoodTillCancel matches what it can and rests the remainder on the book.
	GoodTillCancel Terms = "gtc"
	// ImmediateOrCancel matches what it can and refunds the remainder.
	ImmediateOrCancel Terms = "ioc"
	// MakerOnly rejects the order outright if it would match at all.
	MakerOnly Terms = "maker_only"
	// GTCWithContinuation behaves like GoodTillCancel but pauses instead of
	// finishing when the match budget runs out, so the owner can resume
	// matching with a fresh budget.
	GTCWithContinuation Terms = "gtc_continuation"
)

func (t Terms) valid() bool {
	switch t {
	case GoodTillCancel, ImmediateOrCancel, MakerOnly, GTCWithContinuation:
		return true
	}
	return false
}

// Status is the lifecycle state of an order.
type Status string

const (
	StatusUnknown           Status = "unknown"
	StatusRejected          Status = "rejected"
	StatusOpen              Status = "open"
	StatusDone              Status = "done"
	StatusNeedsContinuation Status = "needs_continuation"
)

// Terminal reports whether no further mutation of the order is possible.
func (s Status) Terminal() bool {
	return s == StatusDone || s == StatusRejected
}

// Reason records why an order was rejected or closed.
type Reason string

const (
	ReasonNone              Reason = ""
	ReasonInvalidPrice      Reason = "invalid_price"
	ReasonInvalidSize       Reason = "invalid_size"
	ReasonInsufficientFunds Reason = "insufficient_funds"
	ReasonWouldTake         Reason = "would_take"       // maker-only order would have matched
	ReasonTooManyMatches    Reason = "too_many_matches" // match budget exhausted
	ReasonUnmatched         Reason = "unmatched"        // nothing on the book to match
	ReasonClientCancel      Reason = "client_cancel"
)

// Asset selects one of the two balance classes a market trades.
type Asset int8

const (
	AssetBase    Asset = 1
	AssetCounter Asset = 2
)

func (a Asset) String() string {
	switch a {
	case AssetBase:
		return "base"
	case AssetCounter:
		return "counter"
	}
	return "invalid"
}

// Order is the full record of an order, retained after it closes so status
// and executed amounts stay queryable. Only the engine mutates it.
type Order struct {
	ID          string
	UserID      int64
	Price       SidedPrice
	SizeBase    decimal.Decimal
	SizeCounter decimal.Decimal
	Terms       Terms
	Status      Status
	Reason      Reason

	ExecutedBase    decimal.Decimal
	ExecutedCounter decimal.Decimal
	Fees            decimal.Decimal

	Timestamp int64 // Unix nano, creation time

	// Intrusive FIFO pointers for the order's book level.
	next *Order
	prev *Order
}

func (o *Order) Side() Side {
	return o.Price.Side()
}

// RemainingBase is the unexecuted part of the order's base size.
func (o *Order) RemainingBase() decimal.Decimal {
	return o.SizeBase.Sub(o.ExecutedBase)
}
