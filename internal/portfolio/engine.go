// Package portfolio implements the portfolio accounting core: FIFO lot
// matching of a buy/sell transaction history into realized profit/loss
// statistics, and valuation of the resulting portfolio.
//
// All arithmetic uses decimal values; nothing here rounds. The package is
// pure computation: no I/O, no shared state between calls, safe to invoke
// concurrently for different users.
package portfolio

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"stocksim/internal/domain"
	"stocksim/internal/ports"
)

var hundred = decimal.NewFromInt(100)

// ComputeRealizedStatistics processes a transaction history in order and
// returns the realized trade outcomes and aggregate statistics.
//
// Transactions must be ordered ascending by timestamp (ID as tie-break);
// this is the repository's contract and is not re-checked here. Every BUY
// opens a lot at the tail of its symbol's queue; every SELL consumes lots
// from the head, oldest first. A SELL larger than the symbol's open lots
// fails with ports.ErrInsufficientLots, and any transaction with a
// non-positive quantity, negative price, or unknown type fails with
// ports.ErrInvalidTransaction. On any failure the zero value is returned:
// the computation is atomic, nothing is partially applied.
func ComputeRealizedStatistics(transactions []domain.Transaction) (domain.RealizedStatistics, error) {
	books := make(map[string]*lotQueue)
	var stats domain.RealizedStatistics

	for _, tx := range transactions {
		if err := validate(tx); err != nil {
			return domain.RealizedStatistics{}, err
		}

		switch tx.Type {
		case domain.Buy:
			book, ok := books[tx.Symbol]
			if !ok {
				book = &lotQueue{}
				books[tx.Symbol] = book
			}
			book.push(tx.Quantity, tx.Price)

		case domain.Sell:
			// A symbol never bought is a data-integrity error distinct from
			// a partial oversell; both reject before the queue is touched so
			// a failed computation leaves no partial state.
			book, ok := books[tx.Symbol]
			if !ok {
				return domain.RealizedStatistics{}, fmt.Errorf(
					"sell of %s %s with no prior purchases: %w",
					tx.Quantity, tx.Symbol, ports.ErrInsufficientLots)
			}
			if available := book.available(); available.LessThan(tx.Quantity) {
				return domain.RealizedStatistics{}, fmt.Errorf(
					"sell of %s %s exceeds open lots (%s available): %w",
					tx.Quantity, tx.Symbol, available, ports.ErrInsufficientLots)
			}

			profit := book.consume(tx.Quantity, tx.Price)
			stats.Trades = append(stats.Trades, domain.RealizedTrade{
				Symbol:   tx.Symbol,
				Quantity: tx.Quantity,
				Profit:   profit,
			})
			stats.RealizedProfit = stats.RealizedProfit.Add(profit)
			stats.TotalTrades++
			if profit.IsPositive() {
				stats.WinningTrades++
			}
			if profit.GreaterThan(stats.BiggestWin) {
				stats.BiggestWin = profit
			}
			if profit.LessThan(stats.BiggestLoss) {
				stats.BiggestLoss = profit
			}
		}
	}

	if stats.TotalTrades > 0 {
		total := decimal.NewFromInt(int64(stats.TotalTrades))
		stats.WinRate = decimal.NewFromInt(int64(stats.WinningTrades)).Div(total).Mul(hundred)
		stats.AverageReturn = stats.RealizedProfit.Div(total)
	}

	stats.OpenLots = openLots(books)
	return stats, nil
}

func validate(tx domain.Transaction) error {
	if !tx.Type.IsValid() {
		return fmt.Errorf("transaction %d: unknown type %q: %w", tx.ID, tx.Type, ports.ErrInvalidTransaction)
	}
	if !tx.Quantity.IsPositive() {
		return fmt.Errorf("transaction %d: quantity %s is not positive: %w", tx.ID, tx.Quantity, ports.ErrInvalidTransaction)
	}
	if tx.Price.IsNegative() {
		return fmt.Errorf("transaction %d: price %s is negative: %w", tx.ID, tx.Price, ports.ErrInvalidTransaction)
	}
	return nil
}

// openLots flattens the surviving queues, symbols sorted for a deterministic
// result, lots within a symbol in purchase order.
func openLots(books map[string]*lotQueue) []domain.Lot {
	symbols := make([]string, 0, len(books))
	for symbol, book := range books {
		if !book.empty() {
			symbols = append(symbols, symbol)
		}
	}
	sort.Strings(symbols)

	var open []domain.Lot
	for _, symbol := range symbols {
		for _, l := range books[symbol].lots {
			open = append(open, domain.Lot{
				Symbol:   symbol,
				Quantity: l.quantity,
				UnitCost: l.unitCost,
			})
		}
	}
	return open
}
