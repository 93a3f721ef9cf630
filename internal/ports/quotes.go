package ports

import (
	"context"

	"github.com/shopspring/decimal"
)

// QuoteClient defines the interface for live market price lookups.
type QuoteClient interface {
	// Price returns the latest market price for a symbol.
	// Returns ErrPriceUnavailable when no usable price can be obtained;
	// callers decide whether to fall back to a last recorded price.
	Price(ctx context.Context, symbol string) (decimal.Decimal, error)
}
