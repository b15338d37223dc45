package match

import "errors"

var (
	ErrInvalidParam        = errors.New("the param is invalid")
	ErrInvalidPrice        = errors.New("the price is not a usable decimal")
	ErrPriceOutOfRange     = errors.New("the price is outside the representable range")
	ErrDuplicateOrderID    = errors.New("an order with this id already exists")
	ErrOrderNotFound       = errors.New("order not found")
	ErrNotOwner            = errors.New("the order belongs to a different client")
	ErrInvalidOrderState   = errors.New("the order state does not allow this operation")
	ErrInsufficientBalance = errors.New("the balance is too low for this withdrawal")
	ErrMarketExists        = errors.New("the market already exists")
	ErrMarketNotFound      = errors.New("market not found")
	ErrSequenceGap         = errors.New("event sequence gap detected")
)
