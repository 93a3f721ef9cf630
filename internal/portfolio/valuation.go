package portfolio

import (
	"github.com/shopspring/decimal"

	"stocksim/internal/domain"
)

// ComputePortfolioReport combines the cash balance, the market value of open
// holdings, and previously computed realized statistics into the final
// account summary. Prices come with the holdings; a caller that could not
// obtain a live quote supplies the last recorded price instead, and the
// valuator never fails on price. Pure function, inputs are not mutated.
func ComputePortfolioReport(balance decimal.Decimal, holdings []domain.Holding, stats domain.RealizedStatistics, initialInvestment decimal.Decimal) domain.PortfolioReport {
	holdingsValue := decimal.Zero
	for _, h := range holdings {
		holdingsValue = holdingsValue.Add(h.Value())
	}

	return domain.PortfolioReport{
		Balance:           balance,
		HoldingsValue:     holdingsValue,
		TotalReturn:       balance.Add(holdingsValue).Sub(initialInvestment),
		InitialInvestment: initialInvestment,
		RealizedProfit:    stats.RealizedProfit,
		TotalTrades:       stats.TotalTrades,
		WinningTrades:     stats.WinningTrades,
		WinRate:           stats.WinRate,
		AverageReturn:     stats.AverageReturn,
		BiggestWin:        stats.BiggestWin,
		BiggestLoss:       stats.BiggestLoss,
	}
}
