package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderType distinguishes limit orders from market orders.
type OrderType string

const (
	OrderTypeLimit  OrderType = "LIMIT"
	OrderTypeMarket OrderType = "MARKET"
)

// Side indicates the direction of an order or trade. Short is a local
// concept: on the wire it is encoded as a sell plus a custom indicator
// field, never as a distinct protocol side value.
type Side string

const (
	SideBuy   Side = "BUY"
	SideSell  Side = "SELL"
	SideShort Side = "SHORT"
)

// OrderStatus represents the lifecycle state of an order.
//
// OrderStatusCancelled exists for completeness but no inbound handler
// currently transitions an order into it: cancel acknowledgments are
// logged by the dispatcher and intentionally do not touch order state.
type OrderStatus string

const (
	OrderStatusNew       OrderStatus = "NEW"
	OrderStatusFilled    OrderStatus = "FILLED"
	OrderStatusCancelled OrderStatus = "CANCELLED"
)

// ShortIndicatorTag is the custom wire tag carried on outbound sell
// messages that represent a short sale.
const ShortIndicatorTag = 5001

// ShortIndicatorValue is the value set under ShortIndicatorTag.
const ShortIndicatorValue = "YES"

// Order represents an order known to this client, either one we
// submitted ourselves or one synthesized from an execution report for
// an identifier we had no prior record of.
type Order struct {
	ClOrdID        string
	Symbol         string
	Side           Side
	Type           OrderType
	Quantity       int64
	Price          *decimal.Decimal // nil for market orders
	Status         OrderStatus
	FilledQuantity int64
	FilledPrice    decimal.Decimal
	Extensions     map[int]string // custom wire tags, e.g. the short indicator
	CreatedAt      time.Time
}

// WireSide maps the local side to the side value that goes on the
// wire: shorts are transmitted as sells.
func (o *Order) WireSide() Side {
	if o.Side == SideShort {
		return SideSell
	}
	return o.Side
}
