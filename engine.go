package match

import (
	"time"

	"github.com/shopspring/decimal"
)

// Config parameterizes one market's engine. Sizes are whole units of the
// respective asset; initial sizes are validated against [min, max) windows.
type Config struct {
	MarketID string

	BaseMinInitialSize    decimal.Decimal
	BaseMaxSize           decimal.Decimal
	CounterMinInitialSize decimal.Decimal
	CounterMaxSize        decimal.Decimal

	// BaseMinRemainingSize is the dust threshold: a resting order whose
	// remainder falls below it is swept into completion.
	BaseMinRemainingSize decimal.Decimal

	// TakerFeeRate is the proportional fee withheld from the taker's credit,
	// floored to a whole unit of the credited asset.
	TakerFeeRate decimal.Decimal
}

// DefaultConfig returns the standard market parameters: 0.05% taker fee,
// base sizes in [100, 10^30), counter sizes in [1000, 10^30), dust below 10.
func DefaultConfig(marketID string) Config {
	return Config{
		MarketID:              marketID,
		BaseMinInitialSize:    decimal.NewFromInt(100),
		BaseMaxSize:           decimal.New(1, 30),
		CounterMinInitialSize: decimal.NewFromInt(1000),
		CounterMaxSize:        decimal.New(1, 30),
		BaseMinRemainingSize:  decimal.NewFromInt(10),
		TakerFeeRate:          decimal.New(5, -4),
	}
}

// Engine is the matching engine for one market: it owns the market's ledger,
// order store and resting book, and is the only writer to any of them.
//
// It is a synchronous single-writer state machine. Every public operation
// runs to completion before the next may begin, and the caller is responsible
// for serializing calls; there is no internal locking.
type Engine struct {
	cfg     Config
	seqID   uint64
	tradeID uint64
	ledger  *Ledger
	store   *orderStore
	book    *book
	sink    EventSink

	feeBase    decimal.Decimal
	feeCounter decimal.Decimal
}

// NewEngine creates an engine for one market. A nil sink discards events.
func NewEngine(cfg Config, sink EventSink) *Engine {
	if sink == nil {
		sink = NewDiscardEventSink()
	}
	if cfg.BaseMinRemainingSize.Sign() <= 0 {
		cfg.BaseMinRemainingSize = decimal.NewFromInt(1)
	}
	if cfg.TakerFeeRate.IsNegative() {
		cfg.TakerFeeRate = decimal.Zero
	}

	return &Engine{
		cfg:    cfg,
		ledger: NewLedger(),
		store:  newOrderStore(),
		book:   newBook(),
		sink:   sink,
	}
}

func (e *Engine) MarketID() string {
	return e.cfg.MarketID
}

func (e *Engine) nextSeq() uint64 {
	e.seqID++
	return e.seqID
}

func (e *Engine) nextTrade() uint64 {
	e.tradeID++
	return e.tradeID
}

func (e *Engine) publish(ev *BookEvent) {
	e.sink.Publish(ev)
	releaseBookEvent(ev)
}

// validSize reports whether d is a positive whole number of units.
func validSize(d decimal.Decimal) bool {
	return d.Sign() > 0 && d.Equal(d.Floor())
}

func snapshotOrder(order *Order) Order {
	cpy := *order
	cpy.next = nil
	cpy.prev = nil
	return cpy
}

// Deposit credits a client balance from the asset-transfer boundary.
func (e *Engine) Deposit(userID int64, asset Asset, amount decimal.Decimal) error {
	if asset != AssetBase && asset != AssetCounter {
		return ErrInvalidParam
	}
	if !validSize(amount) {
		return ErrInvalidParam
	}
	e.ledger.Credit(userID, asset, amount)
	return nil
}

// Withdraw debits a client balance for the asset-transfer boundary.
func (e *Engine) Withdraw(userID int64, asset Asset, amount decimal.Decimal) error {
	if asset != AssetBase && asset != AssetCounter {
		return ErrInvalidParam
	}
	if !validSize(amount) {
		return ErrInvalidParam
	}
	if !e.ledger.Debit(userID, asset, amount) {
		return ErrInsufficientBalance
	}
	return nil
}

// Balances returns the client's available balances.
func (e *Engine) Balances(userID int64) (base, counter decimal.Decimal) {
	return e.ledger.Balances(userID)
}

// FeesCollected returns the taker fees withheld so far, per asset.
func (e *Engine) FeesCollected() (base, counter decimal.Decimal) {
	return e.feeBase, e.feeCounter
}

// Order returns a copy of the order record, including closed orders.
func (e *Engine) Order(orderID string) (Order, error) {
	order := e.store.get(orderID)
	if order == nil {
		return Order{}, ErrOrderNotFound
	}
	return snapshotOrder(order), nil
}

// BookEntry describes one occupied price level for depth inspection.
type BookEntry struct {
	Price SidedPrice
	Depth decimal.Decimal
	Count int64
}

// Walk returns the most aggressive occupied level at or beyond from on
// from's side, with its aggregate depth and order count. The second return
// is false when the rest of that side is empty.
func (e *Engine) Walk(from SidedPrice) (BookEntry, bool) {
	if !from.IsValid() {
		return BookEntry{}, false
	}
	level := e.book.firstLevelAt(from.Key())
	if level == nil || level.key > leastAggressiveKey(from.Side()) {
		return BookEntry{}, false
	}
	return BookEntry{Price: level.price, Depth: level.totalSize, Count: level.count}, true
}

// Depth returns every occupied level between from and to, which must share a
// side, most aggressive first.
func (e *Engine) Depth(from, to SidedPrice) ([]BookEntry, error) {
	walker, err := e.book.walk(from, to)
	if err != nil {
		return nil, err
	}

	var entries []BookEntry
	for {
		key, ok := walker.Next()
		if !ok {
			return entries, nil
		}
		level := e.book.firstLevelAt(key)
		if level == nil || level.key != key {
			e.book.fatal("walk yielded absent level %d", key)
		}
		entries = append(entries, BookEntry{Price: level.price, Depth: level.totalSize, Count: level.count})
	}
}

// CreateOrder validates the order, reserves funds, and runs a matching pass
// bounded by maxMatches.
//
// Caller-contract violations (reused id, bad terms, negative budget) return
// an error with no state change. Business rejections (bad price or size,
// insufficient funds) succeed as calls: the order is recorded with
// StatusRejected and a reason, funds untouched. Otherwise the order ends the
// call Done, Open on the book, or NeedsContinuation, per its terms, and the
// returned copy reflects that outcome.
func (e *Engine) CreateOrder(userID int64, orderID string, price SidedPrice, sizeBase decimal.Decimal, terms Terms, maxMatches int) (Order, error) {
	if orderID == "" || !terms.valid() || maxMatches < 0 {
		return Order{}, ErrInvalidParam
	}

	order, err := e.store.create(userID, orderID, price, sizeBase, terms, time.Now().UnixNano())
	if err != nil {
		return Order{}, err
	}

	if !price.IsValid() {
		return e.reject(order, ReasonInvalidPrice), nil
	}

	if !validSize(sizeBase) ||
		sizeBase.LessThan(e.cfg.BaseMinInitialSize) ||
		sizeBase.GreaterThanOrEqual(e.cfg.BaseMaxSize) {
		return e.reject(order, ReasonInvalidSize), nil
	}

	order.SizeCounter = CounterAmount(sizeBase, price)
	if order.SizeCounter.LessThan(e.cfg.CounterMinInitialSize) ||
		order.SizeCounter.GreaterThanOrEqual(e.cfg.CounterMaxSize) {
		return e.reject(order, ReasonInvalidSize), nil
	}

	// Reserve the full cost up front: counter for a buy, base for a sell.
	var reserved bool
	if order.Side() == Buy {
		reserved = e.ledger.Debit(userID, AssetCounter, order.SizeCounter)
	} else {
		reserved = e.ledger.Debit(userID, AssetBase, order.SizeBase)
	}
	if !reserved {
		return e.reject(order, ReasonInsufficientFunds), nil
	}

	e.processOrder(order, maxMatches)
	return snapshotOrder(order), nil
}

// ContinueOrder resumes matching for an order paused on an exhausted budget.
// Only the owner may continue it, and only from StatusNeedsContinuation.
func (e *Engine) ContinueOrder(userID int64, orderID string, maxMatches int) (Order, error) {
	if maxMatches < 0 {
		return Order{}, ErrInvalidParam
	}
	order := e.store.get(orderID)
	if order == nil {
		return Order{}, ErrOrderNotFound
	}
	if order.UserID != userID {
		return Order{}, ErrNotOwner
	}
	if order.Status != StatusNeedsContinuation {
		return Order{}, ErrInvalidOrderState
	}

	e.processOrder(order, maxMatches)
	return snapshotOrder(order), nil
}

// CancelOrder takes an order off the book (if resting) and refunds its
// unmatched reservation. Cancelling an already-terminal order is a no-op,
// not an error.
func (e *Engine) CancelOrder(userID int64, orderID string) (Order, error) {
	order := e.store.get(orderID)
	if order == nil {
		return Order{}, ErrOrderNotFound
	}
	if order.UserID != userID {
		return Order{}, ErrNotOwner
	}

	switch {
	case order.Status == StatusOpen:
		e.book.remove(order)
		e.publish(newRemovedEvent(e.nextSeq(), e.cfg.MarketID, order))
		e.finish(order, ReasonClientCancel)
	case order.Status == StatusNeedsContinuation:
		e.finish(order, ReasonClientCancel)
	case order.Status.Terminal():
		// Already terminal, nothing to undo.
	default:
		return Order{}, ErrInvalidOrderState
	}

	return snapshotOrder(order), nil
}

func (e *Engine) reject(order *Order, reason Reason) Order {
	order.Status = StatusRejected
	order.Reason = reason
	return snapshotOrder(order)
}

// processOrder runs one bounded matching pass and resolves the outcome
// according to the order's terms.
func (e *Engine) processOrder(order *Order, maxMatches int) {
	if order.Terms == MakerOnly {
		// A maker-only order must not take at all. With a zero budget any
		// eligible opposing level stops the pass on budget before a single
		// fill, which resolves below as a would-take rejection.
		maxMatches = 0
	}

	res := e.matchAgainstBook(order, maxMatches)
	e.creditTaker(order, res)

	switch order.Terms {
	case ImmediateOrCancel:
		switch res.reason {
		case stopSatisfied:
			e.finish(order, ReasonNone)
		case stopMaxMatches:
			e.finish(order, ReasonTooManyMatches)
		case stopBookExhausted:
			e.finish(order, ReasonUnmatched)
		}
	case MakerOnly:
		if res.reason == stopBookExhausted {
			e.rest(order)
		} else {
			e.refundUnmatched(order)
			order.Status = StatusRejected
			order.Reason = ReasonWouldTake
		}
	case GoodTillCancel:
		switch res.reason {
		case stopSatisfied:
			e.finish(order, ReasonNone)
		case stopMaxMatches:
			e.finish(order, ReasonTooManyMatches)
		case stopBookExhausted:
			e.rest(order)
		}
	case GTCWithContinuation:
		switch res.reason {
		case stopSatisfied:
			e.finish(order, ReasonNone)
		case stopMaxMatches:
			// Funds stay reserved; the owner resumes with a fresh budget.
			order.Status = StatusNeedsContinuation
		case stopBookExhausted:
			e.rest(order)
		}
	}
}

type stopReason int8

const (
	stopSatisfied stopReason = iota + 1
	stopMaxMatches
	stopBookExhausted
)

type matchResult struct {
	reason         stopReason
	matchedBase    decimal.Decimal
	matchedCounter decimal.Decimal
}

// matchAgainstBook walks the opposite side of the book in price-time
// priority, filling the taker against resting orders until it is satisfied,
// the eligible range is exhausted, or the match budget runs out. The budget
// is decremented once per resting order touched, partial or full, and is a
// hard ceiling.
func (e *Engine) matchAgainstBook(taker *Order, maxMatches int) matchResult {
	res := matchResult{matchedBase: decimal.Zero, matchedCounter: decimal.Zero}
	budget := maxMatches

	// Scan only prices at least as favorable to the taker as its own limit.
	from := mostAggressiveKey(taker.Side().Opposite())
	limit := taker.Price.Opposite().Key()

	for {
		level := e.book.firstLevelAt(from)
		if level == nil || level.key > limit {
			res.reason = stopBookExhausted
			return res
		}

		emptied := false
		for !emptied {
			maker := level.head
			if maker == nil {
				e.book.fatal("matching found level %d empty", level.key)
			}
			if budget <= 0 {
				res.reason = stopMaxMatches
				return res
			}

			// The resting order's price governs the trade.
			matchBase := decimal.Min(taker.RemainingBase(), maker.RemainingBase())
			matchCounter := CounterAmount(matchBase, maker.Price)

			taker.ExecutedBase = taker.ExecutedBase.Add(matchBase)
			taker.ExecutedCounter = taker.ExecutedCounter.Add(matchCounter)
			maker.ExecutedBase = maker.ExecutedBase.Add(matchBase)
			maker.ExecutedCounter = maker.ExecutedCounter.Add(matchCounter)
			res.matchedBase = res.matchedBase.Add(matchBase)
			res.matchedCounter = res.matchedCounter.Add(matchCounter)
			budget--

			// The maker paid its reservation at creation time; deliver what
			// it bought, fee-free.
			if maker.Side() == Buy {
				e.ledger.Credit(maker.UserID, AssetBase, matchBase)
			} else {
				e.ledger.Credit(maker.UserID, AssetCounter, matchCounter)
			}

			e.book.reduce(level.key, matchBase)

			if remaining := maker.RemainingBase(); remaining.LessThan(e.cfg.BaseMinRemainingSize) {
				// Sweep the dust: the maker is done, refund whatever of its
				// reservation never matched.
				_, emptied = e.book.removeFront(level.key)
				e.refundUnmatched(maker)
				maker.Status = StatusDone
				maker.Reason = ReasonNone
				e.publish(newFillEvent(e.nextSeq(), e.nextTrade(), e.cfg.MarketID, maker, taker,
					matchBase.Add(remaining), matchBase, matchCounter, true))
			} else {
				e.publish(newFillEvent(e.nextSeq(), e.nextTrade(), e.cfg.MarketID, maker, taker,
					matchBase, matchBase, matchCounter, false))
			}

			if taker.RemainingBase().LessThan(e.cfg.BaseMinRemainingSize) {
				res.reason = stopSatisfied
				return res
			}
		}
		// Level drained and deleted; the next lookup resumes from the same
		// key and lands on the next occupied level.
	}
}

// creditTaker delivers everything the taker matched this pass, net of the
// proportional taker fee. No fee is charged on refunded reservations.
func (e *Engine) creditTaker(order *Order, res matchResult) {
	if res.matchedBase.Sign() <= 0 {
		return
	}

	var gross decimal.Decimal
	var asset Asset
	if order.Side() == Buy {
		gross = res.matchedBase
		asset = AssetBase
	} else {
		gross = res.matchedCounter
		asset = AssetCounter
	}

	fee := gross.Mul(e.cfg.TakerFeeRate).Floor()
	order.Fees = order.Fees.Add(fee)
	if asset == AssetBase {
		e.feeBase = e.feeBase.Add(fee)
	} else {
		e.feeCounter = e.feeCounter.Add(fee)
	}

	e.ledger.Credit(order.UserID, asset, gross.Sub(fee))
}

// rest enters the order into the book as a resting maker.
func (e *Engine) rest(order *Order) {
	e.book.enter(order)
	e.publish(newAddedEvent(e.nextSeq(), e.cfg.MarketID, order))
}

// finish closes the order, refunding whatever of its reservation never
// matched.
func (e *Engine) finish(order *Order, reason Reason) {
	e.refundUnmatched(order)
	order.Status = StatusDone
	order.Reason = reason
}

// refundUnmatched returns the reserved-but-unmatched part of the order's
// funds: leftover counter for a buy, leftover base for a sell.
func (e *Engine) refundUnmatched(order *Order) {
	if order.Side() == Buy {
		if residual := order.SizeCounter.Sub(order.ExecutedCounter); residual.Sign() > 0 {
			e.ledger.Credit(order.UserID, AssetCounter, residual)
		}
	} else {
		if residual := order.SizeBase.Sub(order.ExecutedBase); residual.Sign() > 0 {
			e.ledger.Credit(order.UserID, AssetBase, residual)
		}
	}
}
