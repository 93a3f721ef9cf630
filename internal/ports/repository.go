package ports

import (
	"context"

	"github.com/shopspring/decimal"

	"stocksim/internal/domain"
)

// AccountRepository defines the interface for reading user account state.
type AccountRepository interface {
	// CreateAccount registers a new user seeded with an opening cash balance
	// and returns the assigned user ID.
	CreateAccount(ctx context.Context, username string, openingBalance decimal.Decimal) (int64, error)
	// Balance retrieves the current cash balance for a user.
	// Returns ErrNotFound if the user does not exist.
	Balance(ctx context.Context, userID int64) (decimal.Decimal, error)
}

// TransactionRepository defines the interface for reading the transaction log.
type TransactionRepository interface {
	// FindByUser retrieves all transactions for a user ordered ascending by
	// timestamp, with the row ID as a stable tie-break.
	FindByUser(ctx context.Context, userID int64) ([]domain.Transaction, error)
}

// HoldingRepository defines the interface for reading current positions.
type HoldingRepository interface {
	// HoldingsByUser retrieves the user's open holdings. CurrentPrice carries
	// the last price recorded for the stock.
	HoldingsByUser(ctx context.Context, userID int64) ([]domain.Holding, error)
	// HoldingBySymbol retrieves one holding.
	// Returns nil, nil if the user holds no shares of the symbol.
	HoldingBySymbol(ctx context.Context, userID int64, symbol string) (*domain.Holding, error)
}

// TradeStore applies an executed trade to persistent state.
type TradeStore interface {
	// ApplyTrade atomically adjusts the cash balance, upserts or decrements
	// the holding, records the last traded price for the stock, and appends
	// the transaction row. Returns the new transaction's ID.
	ApplyTrade(ctx context.Context, userID int64, tx domain.Transaction) (int64, error)
}
