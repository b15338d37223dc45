package match

import (
	"sync"

	"github.com/shopspring/decimal"
)

// Exchange routes calls to per-market engines. It only routes: each engine
// remains a synchronous single-writer state machine, and serializing calls
// within one market is still the caller's responsibility.
type Exchange struct {
	engines sync.Map
	sink    EventSink
}

// NewExchange creates an exchange publishing all markets' events to sink.
// A nil sink discards events.
func NewExchange(sink EventSink) *Exchange {
	if sink == nil {
		sink = NewDiscardEventSink()
	}
	return &Exchange{
		sink: sink,
	}
}

// CreateMarket registers a market and returns its engine.
func (x *Exchange) CreateMarket(cfg Config) (*Engine, error) {
	if cfg.MarketID == "" {
		return nil, ErrInvalidParam
	}

	engine := NewEngine(cfg, x.sink)
	if _, loaded := x.engines.LoadOrStore(cfg.MarketID, engine); loaded {
		return nil, ErrMarketExists
	}

	logger.Info("market created", "market_id", cfg.MarketID)
	return engine, nil
}

// Engine returns the engine for a market.
func (x *Exchange) Engine(marketID string) (*Engine, error) {
	v, ok := x.engines.Load(marketID)
	if !ok {
		return nil, ErrMarketNotFound
	}
	engine, _ := v.(*Engine)
	return engine, nil
}

// CreateOrder routes an order to its market's engine.
func (x *Exchange) CreateOrder(marketID string, userID int64, orderID string, price SidedPrice, sizeBase decimal.Decimal, terms Terms, maxMatches int) (Order, error) {
	engine, err := x.Engine(marketID)
	if err != nil {
		return Order{}, err
	}
	return engine.CreateOrder(userID, orderID, price, sizeBase, terms, maxMatches)
}

// ContinueOrder routes a continuation to its market's engine.
func (x *Exchange) ContinueOrder(marketID string, userID int64, orderID string, maxMatches int) (Order, error) {
	engine, err := x.Engine(marketID)
	if err != nil {
		return Order{}, err
	}
	return engine.ContinueOrder(userID, orderID, maxMatches)
}

// CancelOrder routes a cancellation to its market's engine.
func (x *Exchange) CancelOrder(marketID string, userID int64, orderID string) (Order, error) {
	engine, err := x.Engine(marketID)
	if err != nil {
		return Order{}, err
	}
	return engine.CancelOrder(userID, orderID)
}

// Order looks an order up on its market.
func (x *Exchange) Order(marketID string, orderID string) (Order, error) {
	engine, err := x.Engine(marketID)
	if err != nil {
		return Order{}, err
	}
	return engine.Order(orderID)
}

// Balances returns a client's balances on one market.
func (x *Exchange) Balances(marketID string, userID int64) (base, counter decimal.Decimal, err error) {
	engine, err := x.Engine(marketID)
	if err != nil {
		return decimal.Zero, decimal.Zero, err
	}
	base, counter = engine.Balances(userID)
	return base, counter, nil
}
