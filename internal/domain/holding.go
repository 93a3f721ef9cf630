package domain

import "github.com/shopspring/decimal"

// Holding represents a currently open position in one stock.
// CurrentPrice is supplied by the price lookup collaborator; when a live
// quote is unavailable it carries the last recorded price instead.
type Holding struct {
	Symbol       string
	CompanyName  string
	Quantity     decimal.Decimal
	CurrentPrice decimal.Decimal
}

// Value returns the market value of the holding (quantity * current price).
func (h Holding) Value() decimal.Decimal {
	return h.Quantity.Mul(h.CurrentPrice)
}
