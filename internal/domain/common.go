package domain

import "fmt"

// TradeType represents the side of a transaction (BUY or SELL).
type TradeType string

const (
	Buy  TradeType = "BUY"
	Sell TradeType = "SELL"
)

// IsValid reports whether t is one of the known trade types.
func (t TradeType) IsValid() bool {
	return t == Buy || t == Sell
}

// ParseTradeType converts a string into a TradeType.
func ParseTradeType(s string) (TradeType, error) {
	switch TradeType(s) {
	case Buy:
		return Buy, nil
	case Sell:
		return Sell, nil
	default:
		return "", fmt.Errorf("unknown trade type: %q", s)
	}
}
