package domain

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

// Lot is a surviving (whole or partial) quantity from one BUY transaction,
// pending consumption by future SELLs. Lots for the same symbol are reported
// in purchase order, oldest first.
type Lot struct {
	Symbol   string
	Quantity decimal.Decimal
	UnitCost decimal.Decimal
}

// RealizedTrade is the outcome of one SELL transaction. A single SELL may
// span multiple lots; Profit is the sum across all lots it consumed.
type RealizedTrade struct {
	Symbol   string
	Quantity decimal.Decimal
	Profit   decimal.Decimal
}

// RealizedStatistics aggregates the realized outcomes of a full transaction
// history. With no SELL transactions all fields are zero (never NaN or
// infinity sentinels).
type RealizedStatistics struct {
	RealizedProfit decimal.Decimal
	TotalTrades    int             // one per SELL, regardless of lots spanned
	WinningTrades  int             // trades with strictly positive profit
	WinRate        decimal.Decimal // winning / total * 100
	AverageReturn  decimal.Decimal // realized profit / total trades
	BiggestWin     decimal.Decimal
	BiggestLoss    decimal.Decimal
	Trades         []RealizedTrade
	OpenLots       []Lot // lots still open after the last transaction
}

// PortfolioReport is the final account summary: cash, market value of open
// positions, and the realized statistics merged in unchanged.
type PortfolioReport struct {
	Balance           decimal.Decimal
	HoldingsValue     decimal.Decimal
	TotalReturn       decimal.Decimal // balance + holdings value - initial investment
	InitialInvestment decimal.Decimal
	RealizedProfit    decimal.Decimal
	TotalTrades       int
	WinningTrades     int
	WinRate           decimal.Decimal
	AverageReturn     decimal.Decimal
	BiggestWin        decimal.Decimal
	BiggestLoss       decimal.Decimal
}

// MarshalJSON renders monetary and percentage fields rounded to 2 decimal
// places. Rounding happens only here, never during computation.
func (r PortfolioReport) MarshalJSON() ([]byte, error) {
	n := func(d decimal.Decimal) json.Number { return json.Number(d.StringFixed(2)) }
	return json.Marshal(struct {
		Balance           json.Number `json:"balance"`
		HoldingsValue     json.Number `json:"holdingsValue"`
		TotalReturn       json.Number `json:"totalReturn"`
		InitialInvestment json.Number `json:"initialInvestment"`
		RealizedProfit    json.Number `json:"realizedProfit"`
		TotalTrades       int         `json:"totalTrades"`
		WinningTrades     int         `json:"winningTrades"`
		WinRate           json.Number `json:"winRate"`
		AverageReturn     json.Number `json:"averageReturn"`
		BiggestWin        json.Number `json:"biggestWin"`
		BiggestLoss       json.Number `json:"biggestLoss"`
	}{
		Balance:           n(r.Balance),
		HoldingsValue:     n(r.HoldingsValue),
		TotalReturn:       n(r.TotalReturn),
		InitialInvestment: n(r.InitialInvestment),
		RealizedProfit:    n(r.RealizedProfit),
		TotalTrades:       r.TotalTrades,
		WinningTrades:     r.WinningTrades,
		WinRate:           n(r.WinRate),
		AverageReturn:     n(r.AverageReturn),
		BiggestWin:        n(r.BiggestWin),
		BiggestLoss:       n(r.BiggestLoss),
	})
}
