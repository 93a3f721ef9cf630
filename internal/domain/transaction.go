package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Transaction represents a single executed buy or sell order. It is an
// immutable historical record: once written by the trade execution flow it is
// only ever read back, ordered ascending by Timestamp with ID as the stable
// tie-break.
type Transaction struct {
	ID        int64           // Unique identifier (usually from DB), breaks timestamp ties
	Symbol    string          // Stock ticker symbol (e.g., "AAPL")
	Type      TradeType       // BUY or SELL
	Quantity  decimal.Decimal // Number of shares, must be > 0
	Price     decimal.Decimal // Execution price per share, must be >= 0
	Timestamp time.Time       // When the trade executed
}
