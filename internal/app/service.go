// Package app wires the portfolio accounting core to its external
// collaborators: the account/transaction/holding repositories, the live
// quote client, and the configured initial investment.
package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"stocksim/internal/domain"
	"stocksim/internal/portfolio"
	"stocksim/internal/ports"
)

// PortfolioService orchestrates report generation and paper-trade execution
// for one user at a time. It holds no per-user state; each call owns its own
// data, so the service is safe for concurrent use across users.
type PortfolioService struct {
	logger            ports.Logger
	accounts          ports.AccountRepository
	transactions      ports.TransactionRepository
	holdings          ports.HoldingRepository
	store             ports.TradeStore
	quotes            ports.QuoteClient
	initialInvestment decimal.Decimal
	now               func() time.Time
}

// Config holds the dependencies for the PortfolioService.
type Config struct {
	Logger            ports.Logger
	Accounts          ports.AccountRepository
	Transactions      ports.TransactionRepository
	Holdings          ports.HoldingRepository
	Store             ports.TradeStore
	Quotes            ports.QuoteClient
	InitialInvestment decimal.Decimal
}

// NewPortfolioService creates a new application service instance.
func NewPortfolioService(cfg Config) (*PortfolioService, error) {
	if cfg.Logger == nil || cfg.Accounts == nil || cfg.Transactions == nil ||
		cfg.Holdings == nil || cfg.Store == nil || cfg.Quotes == nil {
		return nil, fmt.Errorf("missing required dependencies for PortfolioService")
	}
	if !cfg.InitialInvestment.IsPositive() {
		return nil, fmt.Errorf("configuration InitialInvestment must be positive")
	}

	return &PortfolioService{
		logger:            cfg.Logger,
		accounts:          cfg.Accounts,
		transactions:      cfg.Transactions,
		holdings:          cfg.Holdings,
		store:             cfg.Store,
		quotes:            cfg.Quotes,
		initialInvestment: cfg.InitialInvestment,
		now:               time.Now,
	}, nil
}

// Report computes the full portfolio report for a user: realized statistics
// over the complete transaction history, plus current valuation of cash and
// holdings against the initial investment.
//
// Holdings are priced with a live quote where available; when the lookup
// fails the last recorded price is kept, logged at Warn, and the report
// proceeds.
func (s *PortfolioService) Report(ctx context.Context, userID int64) (domain.PortfolioReport, error) {
	balance, err := s.accounts.Balance(ctx, userID)
	if err != nil {
		return domain.PortfolioReport{}, fmt.Errorf("failed to load balance: %w", err)
	}

	transactions, err := s.transactions.FindByUser(ctx, userID)
	if err != nil {
		return domain.PortfolioReport{}, fmt.Errorf("failed to load transactions: %w", err)
	}

	stats, err := portfolio.ComputeRealizedStatistics(transactions)
	if err != nil {
		return domain.PortfolioReport{}, fmt.Errorf("failed to compute realized statistics: %w", err)
	}

	holdings, err := s.holdings.HoldingsByUser(ctx, userID)
	if err != nil {
		return domain.PortfolioReport{}, fmt.Errorf("failed to load holdings: %w", err)
	}

	for i := range holdings {
		price, err := s.quotes.Price(ctx, holdings[i].Symbol)
		if err != nil {
			s.logger.Warn(ctx, "Live price unavailable, using last recorded price", map[string]interface{}{
				"symbol": holdings[i].Symbol,
				"error":  err.Error(),
			})
			continue
		}
		holdings[i].CurrentPrice = price
	}

	return portfolio.ComputePortfolioReport(balance, holdings, stats, s.initialInvestment), nil
}

// ExecuteTrade validates and applies a paper trade at the current live price.
// Unlike reporting, trading requires a live quote; there is no stored-price
// fallback. BUY requires sufficient cash, SELL requires sufficient shares.
func (s *PortfolioService) ExecuteTrade(ctx context.Context, userID int64, symbol string, quantity decimal.Decimal, side domain.TradeType) (domain.Transaction, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return domain.Transaction{}, fmt.Errorf("empty symbol: %w", ports.ErrInvalidTransaction)
	}
	if !side.IsValid() {
		return domain.Transaction{}, fmt.Errorf("trade type %q: %w", side, ports.ErrInvalidTransaction)
	}
	if !quantity.IsPositive() {
		return domain.Transaction{}, fmt.Errorf("trade quantity %s is not positive: %w", quantity, ports.ErrInvalidTransaction)
	}

	price, err := s.quotes.Price(ctx, symbol)
	if err != nil {
		return domain.Transaction{}, fmt.Errorf("cannot trade %s without a live price: %w", symbol, err)
	}

	total := quantity.Mul(price)
	switch side {
	case domain.Buy:
		balance, err := s.accounts.Balance(ctx, userID)
		if err != nil {
			return domain.Transaction{}, fmt.Errorf("failed to load balance: %w", err)
		}
		if total.GreaterThan(balance) {
			return domain.Transaction{}, fmt.Errorf("buy of %s %s costs %s with balance %s: %w",
				quantity, symbol, total, balance, ports.ErrInsufficientFunds)
		}
	case domain.Sell:
		holding, err := s.holdings.HoldingBySymbol(ctx, userID, symbol)
		if err != nil {
			return domain.Transaction{}, fmt.Errorf("failed to load holding: %w", err)
		}
		held := decimal.Zero
		if holding != nil {
			held = holding.Quantity
		}
		if quantity.GreaterThan(held) {
			return domain.Transaction{}, fmt.Errorf("sell of %s %s with %s held: %w",
				quantity, symbol, held, ports.ErrInsufficientShares)
		}
	}

	tx := domain.Transaction{
		Symbol:    symbol,
		Type:      side,
		Quantity:  quantity,
		Price:     price,
		Timestamp: s.now().UTC(),
	}

	txID, err := s.store.ApplyTrade(ctx, userID, tx)
	if err != nil {
		return domain.Transaction{}, fmt.Errorf("failed to apply trade: %w", err)
	}
	tx.ID = txID

	s.logger.Info(ctx, "Trade executed", map[string]interface{}{
		"user":     userID,
		"symbol":   symbol,
		"type":     side,
		"quantity": quantity.String(),
		"price":    price.String(),
		"total":    total.String(),
	})
	return tx, nil
}
