package domain

import "github.com/shopspring/decimal"

// Trade represents one fill reported by the counterparty. Trades are
// immutable once recorded and their append order is significant: the
// realized-PnL accumulation walks them in arrival order.
type Trade struct {
	TradeID  string
	Symbol   string
	Side     Side
	Quantity int64
	Price    decimal.Decimal
}

// Notional returns quantity times price.
func (t Trade) Notional() decimal.Decimal {
	return t.Price.Mul(decimal.NewFromInt(t.Quantity))
}
