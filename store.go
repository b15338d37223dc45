package match

import (
	"github.com/shopspring/decimal"
)

// orderStore owns every order ever created on a market, keyed by id.
// Closed orders are kept for history and stay queryable; records are never
// deleted.
type orderStore struct {
	orders map[string]*Order
}

func newOrderStore() *orderStore {
	return &orderStore{
		orders: make(map[string]*Order),
	}
}

// create inserts a fresh order in StatusUnknown. The id must never have been
// used before on this store; a reused id returns ErrDuplicateOrderID without
// inserting anything.
func (s *orderStore) create(userID int64, id string, price SidedPrice, sizeBase decimal.Decimal, terms Terms, now int64) (*Order, error) {
	if _, ok := s.orders[id]; ok {
		return nil, ErrDuplicateOrderID
	}

	order := &Order{
		ID:        id,
		UserID:    userID,
		Price:     price,
		SizeBase:  sizeBase,
		Terms:     terms,
		Status:    StatusUnknown,
		Timestamp: now,
	}
	s.orders[id] = order
	return order, nil
}

// get returns the live order record, or nil if the id is unknown.
func (s *orderStore) get(id string) *Order {
	return s.orders[id]
}

func (s *orderStore) count() int {
	return len(s.orders)
}
