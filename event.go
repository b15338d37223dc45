package match

import (
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

// EventType classifies a book lifecycle event.
type EventType string

const (
	// EventAdded fires when an order enters the book.
	EventAdded EventType = "added"
	// EventRemoved fires when a resting order is cancelled off the book.
	EventRemoved EventType = "removed"
	// EventPartiallyFilled fires when a resting order is partially matched.
	EventPartiallyFilled EventType = "partially_filled"
	// EventFullyFilled fires when a resting order leaves the book filled
	// (including a sub-dust remainder swept into completion).
	EventFullyFilled EventType = "fully_filled"
)

// BookEvent describes one change to the resting book, for downstream
// book-building and trade-history consumers.
//
// SequenceID is a per-market monotonically increasing ID used for ordering,
// deduplication, and rebuild synchronization. SizeBase is always the base
// amount that left (or, for EventAdded, joined) the order's price level, so
// replaying events reproduces depth exactly. Fill events additionally carry
// the matched amounts and the taker's identity; TradeID is set only on fills.
type BookEvent struct {
	SequenceID     uint64
	TradeID        uint64
	Type           EventType
	MarketID       string
	Side           Side
	Price          SidedPrice
	SizeBase       decimal.Decimal
	MatchedBase    decimal.Decimal
	MatchedCounter decimal.Decimal
	OrderID        string
	UserID         int64
	TakerOrderID   string
	TakerUserID    int64
	CreatedAt      time.Time
}

var bookEventPool = sync.Pool{
	New: func() any {
		return new(BookEvent)
	},
}

func acquireBookEvent() *BookEvent {
	return bookEventPool.Get().(*BookEvent)
}

func releaseBookEvent(ev *BookEvent) {
	// Reset to zero values. The decimal zero value is a valid 0.
	*ev = BookEvent{}
	bookEventPool.Put(ev)
}

func newAddedEvent(seqID uint64, marketID string, order *Order) *BookEvent {
	ev := acquireBookEvent()
	ev.SequenceID = seqID
	ev.Type = EventAdded
	ev.MarketID = marketID
	ev.Side = order.Side()
	ev.Price = order.Price
	ev.SizeBase = order.RemainingBase()
	ev.OrderID = order.ID
	ev.UserID = order.UserID
	ev.CreatedAt = time.Now().UTC()
	return ev
}

func newRemovedEvent(seqID uint64, marketID string, order *Order) *BookEvent {
	ev := acquireBookEvent()
	ev.SequenceID = seqID
	ev.Type = EventRemoved
	ev.MarketID = marketID
	ev.Side = order.Side()
	ev.Price = order.Price
	ev.SizeBase = order.RemainingBase()
	ev.OrderID = order.ID
	ev.UserID = order.UserID
	ev.CreatedAt = time.Now().UTC()
	return ev
}

func newFillEvent(seqID, tradeID uint64, marketID string, maker, taker *Order, removedBase, matchedBase, matchedCounter decimal.Decimal, full bool) *BookEvent {
	ev := acquireBookEvent()
	ev.SequenceID = seqID
	ev.TradeID = tradeID
	ev.Type = EventPartiallyFilled
	if full {
		ev.Type = EventFullyFilled
	}
	ev.MarketID = marketID
	ev.Side = maker.Side()
	ev.Price = maker.Price
	ev.SizeBase = removedBase
	ev.MatchedBase = matchedBase
	ev.MatchedCounter = matchedCounter
	ev.OrderID = maker.ID
	ev.UserID = maker.UserID
	ev.TakerOrderID = taker.ID
	ev.TakerUserID = taker.UserID
	ev.CreatedAt = time.Now().UTC()
	return ev
}

// EventSink receives book lifecycle events.
//
// IMPORTANT: Implementations must either:
//  1. Process events synchronously before returning, OR
//  2. Clone the BookEvent data before returning
//
// The caller recycles BookEvent objects to a sync.Pool after Publish returns,
// so any asynchronous processing must work with cloned data.
type EventSink interface {
	Publish(...*BookEvent)
}

// MemoryEventSink stores events in memory, useful for testing.
type MemoryEventSink struct {
	mu     sync.RWMutex
	events []*BookEvent
}

// NewMemoryEventSink creates a new MemoryEventSink.
func NewMemoryEventSink() *MemoryEventSink {
	return &MemoryEventSink{
		events: make([]*BookEvent, 0),
	}
}

// Publish appends clones of the events to the in-memory slice.
func (m *MemoryEventSink) Publish(events ...*BookEvent) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, ev := range events {
		cpy := new(BookEvent)
		*cpy = *ev
		m.events = append(m.events, cpy)
	}
}

// Count returns the number of events stored.
func (m *MemoryEventSink) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.events)
}

// Get returns the event at the specified index.
func (m *MemoryEventSink) Get(index int) *BookEvent {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.events[index]
}

// Events returns a copy of all events stored.
func (m *MemoryEventSink) Events() []*BookEvent {
	m.mu.RLock()
	defer m.mu.RUnlock()

	events := make([]*BookEvent, len(m.events))
	copy(events, m.events)
	return events
}

// DiscardEventSink drops all events, useful for benchmarking.
type DiscardEventSink struct {
}

// NewDiscardEventSink creates a new DiscardEventSink.
func NewDiscardEventSink() *DiscardEventSink {
	return &DiscardEventSink{}
}

// Publish does nothing.
func (p *DiscardEventSink) Publish(events ...*BookEvent) {

}
