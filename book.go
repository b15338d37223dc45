package match

import (
	"fmt"

	"github.com/huandu/skiplist"
	"github.com/shopspring/decimal"
)

// priceLevel is one occupied price on the book: a FIFO of resting orders,
// oldest first, plus aggregates for depth queries.
type priceLevel struct {
	key       PriceKey
	price     SidedPrice
	totalSize decimal.Decimal
	head      *Order
	tail      *Order
	count     int64
}

// book holds every resting order, indexed by packed price key. Both sides
// live in one ordered structure: the key ranges are disjoint and ascending
// key order walks either side from most to least aggressive. Every order in
// a level is StatusOpen, and a level present in the book is never empty.
type book struct {
	totalOrders int64
	depths      int64
	levels      *skiplist.SkipList
	levelForKey map[PriceKey]*skiplist.Element
	resting     map[string]*Order
}

func newBook() *book {
	return &book{
		levels: skiplist.New(skiplist.GreaterThanFunc(func(lhs, rhs any) int {
			k1, _ := lhs.(PriceKey)
			k2, _ := rhs.(PriceKey)

			if k1 > k2 {
				return 1
			} else if k1 < k2 {
				return -1
			}

			return 0
		})),
		levelForKey: make(map[PriceKey]*skiplist.Element),
		resting:     make(map[string]*Order),
	}
}

// fatal reports an internal consistency breach. The book's invariants make
// these unreachable; hitting one means prior state is corrupt, so processing
// halts rather than guessing.
func (b *book) fatal(format string, args ...any) {
	msg := fmt.Sprintf("book: "+format, args...)
	logger.Error(msg)
	panic(msg)
}

// enter appends the order to its price level, creating the level if absent,
// and marks the order open.
func (b *book) enter(order *Order) {
	order.Status = StatusOpen

	key := order.Price.Key()
	if el, ok := b.levelForKey[key]; ok {
		level, _ := el.Value.(*priceLevel)

		order.prev = level.tail
		order.next = nil
		if level.tail != nil {
			level.tail.next = order
		}
		level.tail = order
		if level.head == nil {
			level.head = order
		}

		level.totalSize = level.totalSize.Add(order.RemainingBase())
		level.count++
	} else {
		level := &priceLevel{
			key:       key,
			price:     order.Price,
			totalSize: order.RemainingBase(),
			head:      order,
			tail:      order,
			count:     1,
		}
		order.next = nil
		order.prev = nil

		b.levelForKey[key] = b.levels.Set(key, level)
		b.depths++
	}

	b.resting[order.ID] = order
	b.totalOrders++
}

// front returns the highest-priority order at a level without removing it.
func (b *book) front(key PriceKey) *Order {
	el, ok := b.levelForKey[key]
	if !ok {
		return nil
	}
	level, _ := el.Value.(*priceLevel)
	return level.head
}

// removeFront pops the first order at a level, deleting the level if it
// becomes empty. It returns the popped order and whether the level emptied.
func (b *book) removeFront(key PriceKey) (*Order, bool) {
	el, ok := b.levelForKey[key]
	if !ok {
		b.fatal("removeFront on absent level %d", key)
	}
	level, _ := el.Value.(*priceLevel)
	order := level.head
	if order == nil {
		b.fatal("level %d present but empty", key)
	}

	b.unlink(el, level, order)
	return order, level.count == 0
}

// remove takes a specific order out of its level, wherever it sits in the
// FIFO. Used by cancellation.
func (b *book) remove(order *Order) {
	key := order.Price.Key()
	el, ok := b.levelForKey[key]
	if !ok {
		b.fatal("remove: no level %d for order %s", key, order.ID)
	}
	if _, ok := b.resting[order.ID]; !ok {
		b.fatal("remove: order %s not resting", order.ID)
	}
	level, _ := el.Value.(*priceLevel)
	b.unlink(el, level, order)
}

func (b *book) unlink(el *skiplist.Element, level *priceLevel, order *Order) {
	if order.prev != nil {
		order.prev.next = order.next
	} else {
		level.head = order.next
	}
	if order.next != nil {
		order.next.prev = order.prev
	} else {
		level.tail = order.prev
	}
	order.next = nil
	order.prev = nil

	level.totalSize = level.totalSize.Sub(order.RemainingBase())
	level.count--
	delete(b.resting, order.ID)
	b.totalOrders--

	if level.count == 0 {
		b.levels.RemoveElement(el)
		delete(b.levelForKey, level.key)
		b.depths--
	}
}

// reduce shrinks a level's aggregate size after a partial fill of its front
// order. The order's own remaining size is tracked through ExecutedBase.
func (b *book) reduce(key PriceKey, amount decimal.Decimal) {
	el, ok := b.levelForKey[key]
	if !ok {
		b.fatal("reduce on absent level %d", key)
	}
	level, _ := el.Value.(*priceLevel)
	level.totalSize = level.totalSize.Sub(amount)
}

// firstLevelAt returns the occupied level with the smallest key at or after
// key, or nil if the rest of the keyspace is empty.
func (b *book) firstLevelAt(key PriceKey) *priceLevel {
	el := b.levels.Find(key)
	if el == nil {
		return nil
	}
	level, _ := el.Value.(*priceLevel)
	return level
}

func (b *book) orderCount() int64 {
	return b.totalOrders
}

func (b *book) depthCount() int64 {
	return b.depths
}

// bookWalker lazily yields the occupied price keys between two bounds,
// most aggressive first.
type bookWalker struct {
	book *book
	keys *PriceRange
}

// walk enumerates the occupied levels between two prices of the same side.
func (b *book) walk(from, to SidedPrice) (*bookWalker, error) {
	keys, err := NewPriceRange(from, to)
	if err != nil {
		return nil, err
	}
	return &bookWalker{book: b, keys: keys}, nil
}

// Next returns the next occupied price key, or false when the range is done.
func (w *bookWalker) Next() (PriceKey, bool) {
	for {
		p, ok := w.keys.Next()
		if !ok {
			return 0, false
		}
		key := p.Key()
		if _, occupied := w.book.levelForKey[key]; occupied {
			return key, true
		}
	}
}
