package match

import "github.com/rs/xid"

// OrderIDSource produces order identifiers. The engine requires ids to be
// unique for the lifetime of a market; time-sortable ids additionally make
// order history naturally chronological.
type OrderIDSource interface {
	NewOrderID() string
}

// XIDSource generates globally unique, time-sortable ids.
type XIDSource struct{}

func (XIDSource) NewOrderID() string {
	return xid.New().String()
}

// DefaultOrderIDSource is used by callers that do not bring their own
// identifier generator.
var DefaultOrderIDSource OrderIDSource = XIDSource{}
