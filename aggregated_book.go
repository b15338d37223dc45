package match

import (
	"github.com/igrmk/treemap/v2"
	"github.com/shopspring/decimal"
)

// AggregatedBook maintains a simplified view of one market's order book,
// tracking only price levels and their aggregated sizes. It is designed for
// downstream consumers that rebuild book state from the engine's BookEvent
// stream.
type AggregatedBook struct {
	seqID uint64
	bid   *treemap.TreeMap[PriceKey, decimal.Decimal]
	ask   *treemap.TreeMap[PriceKey, decimal.Decimal]
}

// NewAggregatedBook creates an empty aggregated book.
func NewAggregatedBook() *AggregatedBook {
	less := func(a, b PriceKey) bool {
		return a < b
	}
	return &AggregatedBook{
		bid: treemap.NewWithKeyCompare[PriceKey, decimal.Decimal](less),
		ask: treemap.NewWithKeyCompare[PriceKey, decimal.Decimal](less),
	}
}

// SequenceID returns the last applied event sequence ID, for gap detection
// and resynchronization.
func (ab *AggregatedBook) SequenceID() uint64 {
	return ab.seqID
}

func (ab *AggregatedBook) side(s Side) *treemap.TreeMap[PriceKey, decimal.Decimal] {
	if s == Buy {
		return ab.bid
	}
	return ab.ask
}

// Apply replays one BookEvent onto the aggregated state. Events already seen
// are skipped; a gap in the sequence returns ErrSequenceGap and leaves the
// state untouched, signalling that the caller must rebuild.
func (ab *AggregatedBook) Apply(ev *BookEvent) error {
	if ev.SequenceID <= ab.seqID {
		return nil // duplicate delivery
	}
	if ev.SequenceID != ab.seqID+1 {
		return ErrSequenceGap
	}
	ab.seqID = ev.SequenceID

	tree := ab.side(ev.Side)
	key := ev.Price.Key()

	switch ev.Type {
	case EventAdded:
		size, _ := tree.Get(key)
		tree.Set(key, size.Add(ev.SizeBase))
	case EventRemoved, EventPartiallyFilled, EventFullyFilled:
		size, ok := tree.Get(key)
		if !ok {
			return ErrSequenceGap
		}
		size = size.Sub(ev.SizeBase)
		if size.Sign() > 0 {
			tree.Set(key, size)
		} else {
			tree.Del(key)
		}
	}
	return nil
}

// Depth returns the aggregated size resting at a price level, zero if the
// level is empty.
func (ab *AggregatedBook) Depth(price SidedPrice) decimal.Decimal {
	size, _ := ab.side(price.Side()).Get(price.Key())
	return size
}

// Best returns the most aggressive occupied level on a side.
func (ab *AggregatedBook) Best(side Side) (SidedPrice, decimal.Decimal, bool) {
	it := ab.side(side).Iterator()
	if !it.Valid() {
		return SidedPrice{}, decimal.Zero, false
	}
	price, err := PriceFromKey(it.Key())
	if err != nil {
		return SidedPrice{}, decimal.Zero, false
	}
	return price, it.Value(), true
}

// Levels returns the number of occupied price levels on a side.
func (ab *AggregatedBook) Levels(side Side) int {
	return ab.side(side).Len()
}
