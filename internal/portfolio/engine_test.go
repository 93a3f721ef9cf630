package portfolio

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stocksim/internal/domain"
	"stocksim/internal/ports"
)

var baseTime = time.Date(2025, 3, 10, 14, 30, 0, 0, time.UTC)

// tx builds a transaction n minutes after baseTime, with n doubling as the
// row ID so the ordering contract holds.
func tx(n int64, symbol string, side domain.TradeType, quantity, price float64) domain.Transaction {
	return domain.Transaction{
		ID:        n,
		Symbol:    symbol,
		Type:      side,
		Quantity:  decimal.NewFromFloat(quantity),
		Price:     decimal.NewFromFloat(price),
		Timestamp: baseTime.Add(time.Duration(n) * time.Minute),
	}
}

func TestComputeRealizedStatistics_SellSpanningLots(t *testing.T) {
	// BUY 10 @ 100, BUY 10 @ 120, SELL 15 @ 150:
	// consumes all 10@100 (profit 500) and 5@120 (profit 150).
	stats, err := ComputeRealizedStatistics([]domain.Transaction{
		tx(1, "AAPL", domain.Buy, 10, 100),
		tx(2, "AAPL", domain.Buy, 10, 120),
		tx(3, "AAPL", domain.Sell, 15, 150),
	})
	require.NoError(t, err)

	assert.Equal(t, "650", stats.RealizedProfit.String())
	assert.Equal(t, 1, stats.TotalTrades)
	assert.Equal(t, 1, stats.WinningTrades)
	assert.Equal(t, "100", stats.WinRate.String())
	assert.Equal(t, "650", stats.AverageReturn.String())
	assert.Equal(t, "650", stats.BiggestWin.String())
	assert.Equal(t, "0", stats.BiggestLoss.String())

	require.Len(t, stats.OpenLots, 1)
	assert.Equal(t, "AAPL", stats.OpenLots[0].Symbol)
	assert.Equal(t, "5", stats.OpenLots[0].Quantity.String())
	assert.Equal(t, "120", stats.OpenLots[0].UnitCost.String())
}

func TestComputeRealizedStatistics_LosingTrade(t *testing.T) {
	// BUY 5 @ 50, SELL 5 @ 40: profit 5 * (40-50) = -50.
	stats, err := ComputeRealizedStatistics([]domain.Transaction{
		tx(1, "TSLA", domain.Buy, 5, 50),
		tx(2, "TSLA", domain.Sell, 5, 40),
	})
	require.NoError(t, err)

	assert.Equal(t, "-50", stats.RealizedProfit.String())
	assert.Equal(t, 1, stats.TotalTrades)
	assert.Equal(t, 0, stats.WinningTrades)
	assert.Equal(t, "0", stats.WinRate.String())
	assert.Equal(t, "-50", stats.AverageReturn.String())
	assert.Equal(t, "0", stats.BiggestWin.String())
	assert.Equal(t, "-50", stats.BiggestLoss.String())
	assert.Empty(t, stats.OpenLots)
}

func TestComputeRealizedStatistics_SymbolsIndependent(t *testing.T) {
	// Selling AAPL must not touch the MSFT queue.
	stats, err := ComputeRealizedStatistics([]domain.Transaction{
		tx(1, "AAPL", domain.Buy, 10, 100),
		tx(2, "MSFT", domain.Buy, 5, 200),
		tx(3, "AAPL", domain.Sell, 10, 110),
	})
	require.NoError(t, err)

	assert.Equal(t, "100", stats.RealizedProfit.String())
	assert.Equal(t, 1, stats.TotalTrades)
	assert.Equal(t, 1, stats.WinningTrades)

	require.Len(t, stats.OpenLots, 1)
	assert.Equal(t, "MSFT", stats.OpenLots[0].Symbol)
	assert.Equal(t, "5", stats.OpenLots[0].Quantity.String())
	assert.Equal(t, "200", stats.OpenLots[0].UnitCost.String())
}

func TestComputeRealizedStatistics_FIFOOrder(t *testing.T) {
	// Buys at strictly rising prices; a sell covering the first two lots and
	// half the third must consume them earliest-first: selling 25 @ 40 against
	// 10@10, 10@20, 10@30 realizes 10*30 + 10*20 + 5*10 = 550. Any other
	// matching order gives a different total.
	stats, err := ComputeRealizedStatistics([]domain.Transaction{
		tx(1, "NVDA", domain.Buy, 10, 10),
		tx(2, "NVDA", domain.Buy, 10, 20),
		tx(3, "NVDA", domain.Buy, 10, 30),
		tx(4, "NVDA", domain.Sell, 25, 40),
	})
	require.NoError(t, err)

	assert.Equal(t, "550", stats.RealizedProfit.String())
	require.Len(t, stats.OpenLots, 1)
	assert.Equal(t, "5", stats.OpenLots[0].Quantity.String())
	assert.Equal(t, "30", stats.OpenLots[0].UnitCost.String(), "remaining lot must be the latest buy")
}

func TestComputeRealizedStatistics_SellExactlyDrainsLot(t *testing.T) {
	// A lot consumed to exactly zero is removed; the next sell starts on the
	// following lot.
	stats, err := ComputeRealizedStatistics([]domain.Transaction{
		tx(1, "AMD", domain.Buy, 10, 100),
		tx(2, "AMD", domain.Buy, 10, 200),
		tx(3, "AMD", domain.Sell, 10, 150),
		tx(4, "AMD", domain.Sell, 10, 250),
	})
	require.NoError(t, err)

	assert.Equal(t, 2, stats.TotalTrades)
	require.Len(t, stats.Trades, 2)
	assert.Equal(t, "500", stats.Trades[0].Profit.String())
	assert.Equal(t, "500", stats.Trades[1].Profit.String())
	assert.Empty(t, stats.OpenLots)
}

func TestComputeRealizedStatistics_NoSells(t *testing.T) {
	stats, err := ComputeRealizedStatistics([]domain.Transaction{
		tx(1, "AAPL", domain.Buy, 10, 100),
		tx(2, "MSFT", domain.Buy, 5, 200),
	})
	require.NoError(t, err)

	assert.Equal(t, 0, stats.TotalTrades)
	assert.Equal(t, 0, stats.WinningTrades)
	assert.Equal(t, "0", stats.WinRate.String())
	assert.Equal(t, "0", stats.AverageReturn.String())
	assert.Equal(t, "0", stats.BiggestWin.String())
	assert.Equal(t, "0", stats.BiggestLoss.String())
	assert.Equal(t, "0", stats.RealizedProfit.String())
	assert.Empty(t, stats.Trades)
}

func TestComputeRealizedStatistics_EmptyHistory(t *testing.T) {
	stats, err := ComputeRealizedStatistics(nil)
	require.NoError(t, err)
	assert.Equal(t, 0, stats.TotalTrades)
	assert.Empty(t, stats.OpenLots)
}

func TestComputeRealizedStatistics_BiggestWinAndLoss(t *testing.T) {
	stats, err := ComputeRealizedStatistics([]domain.Transaction{
		tx(1, "AAPL", domain.Buy, 30, 100),
		tx(2, "AAPL", domain.Sell, 10, 150), // +500
		tx(3, "AAPL", domain.Sell, 10, 80),  // -200
		tx(4, "AAPL", domain.Sell, 10, 110), // +100
	})
	require.NoError(t, err)

	assert.Equal(t, 3, stats.TotalTrades)
	assert.Equal(t, 2, stats.WinningTrades)
	assert.Equal(t, "500", stats.BiggestWin.String())
	assert.Equal(t, "-200", stats.BiggestLoss.String())
	assert.Equal(t, "400", stats.RealizedProfit.String())
	// 2/3 * 100
	assert.Equal(t, "66.67", stats.WinRate.Round(2).String())
	assert.Equal(t, "133.33", stats.AverageReturn.Round(2).String())
}

func TestComputeRealizedStatistics_BreakEvenIsNotAWin(t *testing.T) {
	stats, err := ComputeRealizedStatistics([]domain.Transaction{
		tx(1, "AAPL", domain.Buy, 10, 100),
		tx(2, "AAPL", domain.Sell, 10, 100),
	})
	require.NoError(t, err)

	assert.Equal(t, 1, stats.TotalTrades)
	assert.Equal(t, 0, stats.WinningTrades, "zero profit must not count as a win")
	assert.Equal(t, "0", stats.WinRate.String())
}

func TestComputeRealizedStatistics_FractionalQuantities(t *testing.T) {
	// 0.1 + 0.2 shares bought, 0.3 sold; binary floats would drift here.
	stats, err := ComputeRealizedStatistics([]domain.Transaction{
		tx(1, "BRK.A", domain.Buy, 0.1, 1000),
		tx(2, "BRK.A", domain.Buy, 0.2, 1000),
		tx(3, "BRK.A", domain.Sell, 0.3, 1100),
	})
	require.NoError(t, err)

	assert.Equal(t, "30", stats.RealizedProfit.String())
	assert.Empty(t, stats.OpenLots)
}

func TestComputeRealizedStatistics_RejectsInvalidTransactions(t *testing.T) {
	tests := []struct {
		name string
		txs  []domain.Transaction
	}{
		{
			name: "zero quantity",
			txs:  []domain.Transaction{tx(1, "AAPL", domain.Buy, 0, 100)},
		},
		{
			name: "negative quantity",
			txs:  []domain.Transaction{tx(1, "AAPL", domain.Buy, -5, 100)},
		},
		{
			name: "negative price",
			txs:  []domain.Transaction{tx(1, "AAPL", domain.Buy, 5, -100)},
		},
		{
			name: "unknown type",
			txs: []domain.Transaction{{
				ID:       1,
				Symbol:   "AAPL",
				Type:     domain.TradeType("SHORT"),
				Quantity: decimal.NewFromInt(5),
				Price:    decimal.NewFromInt(100),
			}},
		},
		{
			name: "invalid tail aborts the whole computation",
			txs: []domain.Transaction{
				tx(1, "AAPL", domain.Buy, 10, 100),
				tx(2, "AAPL", domain.Sell, 5, 150),
				tx(3, "AAPL", domain.Sell, 0, 150),
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stats, err := ComputeRealizedStatistics(tt.txs)
			require.ErrorIs(t, err, ports.ErrInvalidTransaction)
			assert.Equal(t, domain.RealizedStatistics{}, stats, "nothing may be partially applied")
		})
	}
}

func TestComputeRealizedStatistics_ZeroPriceIsValid(t *testing.T) {
	// Price >= 0: a zero price (e.g. a grant) is accepted.
	stats, err := ComputeRealizedStatistics([]domain.Transaction{
		tx(1, "AAPL", domain.Buy, 10, 0),
		tx(2, "AAPL", domain.Sell, 10, 50),
	})
	require.NoError(t, err)
	assert.Equal(t, "500", stats.RealizedProfit.String())
}

func TestComputeRealizedStatistics_RejectsOversell(t *testing.T) {
	t.Run("partial shortfall", func(t *testing.T) {
		stats, err := ComputeRealizedStatistics([]domain.Transaction{
			tx(1, "AAPL", domain.Buy, 10, 100),
			tx(2, "AAPL", domain.Sell, 15, 150),
		})
		require.ErrorIs(t, err, ports.ErrInsufficientLots)
		assert.Contains(t, err.Error(), "exceeds open lots")
		assert.Equal(t, domain.RealizedStatistics{}, stats)
	})

	t.Run("no prior purchases", func(t *testing.T) {
		stats, err := ComputeRealizedStatistics([]domain.Transaction{
			tx(1, "MSFT", domain.Buy, 10, 100),
			tx(2, "AAPL", domain.Sell, 5, 150),
		})
		require.ErrorIs(t, err, ports.ErrInsufficientLots)
		assert.Contains(t, err.Error(), "no prior purchases")
		assert.Equal(t, domain.RealizedStatistics{}, stats)
	})

	t.Run("previously drained symbol", func(t *testing.T) {
		_, err := ComputeRealizedStatistics([]domain.Transaction{
			tx(1, "AAPL", domain.Buy, 10, 100),
			tx(2, "AAPL", domain.Sell, 10, 150),
			tx(3, "AAPL", domain.Sell, 1, 150),
		})
		require.ErrorIs(t, err, ports.ErrInsufficientLots)
		assert.Contains(t, err.Error(), "0 available")
	})
}

func TestComputeRealizedStatistics_Conservation(t *testing.T) {
	// At every prefix: sum bought - sum sold == sum of remaining lots.
	history := []domain.Transaction{
		tx(1, "AAPL", domain.Buy, 10, 100),
		tx(2, "AAPL", domain.Buy, 8, 110),
		tx(3, "AAPL", domain.Sell, 12, 120),
		tx(4, "AAPL", domain.Buy, 4, 90),
		tx(5, "AAPL", domain.Sell, 6, 95),
		tx(6, "MSFT", domain.Buy, 3, 300),
		tx(7, "AAPL", domain.Sell, 4, 130),
	}

	for i := 1; i <= len(history); i++ {
		prefix := history[:i]
		stats, err := ComputeRealizedStatistics(prefix)
		require.NoError(t, err, "prefix of length %d", i)

		expected := map[string]decimal.Decimal{}
		for _, h := range prefix {
			switch h.Type {
			case domain.Buy:
				expected[h.Symbol] = expected[h.Symbol].Add(h.Quantity)
			case domain.Sell:
				expected[h.Symbol] = expected[h.Symbol].Sub(h.Quantity)
			}
		}

		remaining := map[string]decimal.Decimal{}
		for _, l := range stats.OpenLots {
			require.True(t, l.Quantity.IsPositive(), "queued lots never carry zero quantity")
			remaining[l.Symbol] = remaining[l.Symbol].Add(l.Quantity)
		}

		for symbol, want := range expected {
			assert.True(t, remaining[symbol].Equal(want),
				"prefix %d, symbol %s: remaining %s, want %s", i, symbol, remaining[symbol], want)
		}
	}
}

func TestComputeRealizedStatistics_Idempotent(t *testing.T) {
	history := []domain.Transaction{
		tx(1, "AAPL", domain.Buy, 10, 100),
		tx(2, "AAPL", domain.Sell, 4, 120),
		tx(3, "MSFT", domain.Buy, 5, 200),
		tx(4, "AAPL", domain.Sell, 6, 90),
	}
	snapshot := make([]domain.Transaction, len(history))
	copy(snapshot, history)

	first, err := ComputeRealizedStatistics(history)
	require.NoError(t, err)
	second, err := ComputeRealizedStatistics(history)
	require.NoError(t, err)

	assert.Equal(t, first, second, "no hidden state may leak between calls")
	assert.Equal(t, snapshot, history, "input must not be mutated")
}
