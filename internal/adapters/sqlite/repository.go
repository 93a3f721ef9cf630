package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/shopspring/decimal"
	_ "github.com/mattn/go-sqlite3" // SQLite driver

	"stocksim/internal/domain"
	"stocksim/internal/ports"
)

// Repository implements the ports.AccountRepository, ports.TransactionRepository,
// ports.HoldingRepository and ports.TradeStore interfaces using SQLite.
//
// Monetary values (balances, prices, quantities) are stored as TEXT in their
// decimal string form so nothing is ever coerced through binary floats.
type Repository struct {
	db     *sql.DB
	logger ports.Logger
}

// Config holds configuration for the SQLite repository.
type Config struct {
	DBPath string
	Logger ports.Logger
}

// NewRepository creates a new SQLite repository instance.
func NewRepository(cfg Config) (*Repository, error) {
	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger is required for SQLite repository")
	}
	dbPath := cfg.DBPath
	if dbPath == "" {
		dbPath = "./data/stocksim.db" // Default path
	}

	// Create data directory if it doesn't exist
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		err = fmt.Errorf("failed to create data directory '%s': %w", filepath.Dir(dbPath), err)
		cfg.Logger.Error(context.Background(), err, "SQLite repository initialization failed")
		return nil, err
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		err = fmt.Errorf("failed to open database at '%s': %w", dbPath, err)
		cfg.Logger.Error(context.Background(), err, "SQLite repository initialization failed")
		return nil, err
	}

	if err := db.Ping(); err != nil {
		db.Close()
		err = fmt.Errorf("failed to ping database at '%s': %w", dbPath, err)
		cfg.Logger.Error(context.Background(), err, "SQLite repository initialization failed")
		return nil, err
	}

	// SQLite handles concurrency internally, but the Go driver benefits from
	// limiting connections.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	repo := &Repository{db: db, logger: cfg.Logger}

	if err := repo.initializeSchema(context.Background()); err != nil {
		db.Close()
		err = fmt.Errorf("failed to initialize database schema: %w", err)
		cfg.Logger.Error(context.Background(), err, "SQLite repository initialization failed")
		return nil, err
	}
	cfg.Logger.Info(context.Background(), "Database schema initialized/verified", map[string]interface{}{"path": dbPath})

	return repo, nil
}

// initializeSchema creates tables if they don't exist.
func (r *Repository) initializeSchema(ctx context.Context) error {
	const schema = `
	CREATE TABLE IF NOT EXISTS users (
		user_id INTEGER PRIMARY KEY AUTOINCREMENT,
		username TEXT NOT NULL UNIQUE,
		balance TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS stocks (
		stock_id INTEGER PRIMARY KEY AUTOINCREMENT,
		symbol TEXT NOT NULL UNIQUE,
		company_name TEXT,
		last_price TEXT NOT NULL DEFAULT '0',
		last_updated TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS holdings (
		user_id INTEGER NOT NULL,
		stock_id INTEGER NOT NULL,
		quantity TEXT NOT NULL,
		PRIMARY KEY (user_id, stock_id)
	);

	CREATE TABLE IF NOT EXISTS transactions (
		transaction_id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id INTEGER NOT NULL,
		stock_id INTEGER NOT NULL,
		transaction_type TEXT NOT NULL,
		quantity TEXT NOT NULL,
		price TEXT NOT NULL,
		transaction_date TIMESTAMP NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_transactions_user_date ON transactions (user_id, transaction_date, transaction_id);
	CREATE INDEX IF NOT EXISTS idx_holdings_user ON holdings (user_id);
	`
	_, err := r.db.ExecContext(ctx, schema)
	if err != nil {
		return fmt.Errorf("failed to execute schema initialization: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (r *Repository) Close() error {
	if r.db != nil {
		r.logger.Info(context.Background(), "Closing SQLite database connection")
		return r.db.Close()
	}
	return nil
}

// --- AccountRepository Implementation ---

// CreateAccount registers a new user seeded with an opening cash balance.
func (r *Repository) CreateAccount(ctx context.Context, username string, openingBalance decimal.Decimal) (int64, error) {
	const query = `INSERT INTO users (username, balance) VALUES (?, ?)`
	result, err := r.db.ExecContext(ctx, query, username, openingBalance.String())
	if err != nil {
		return 0, fmt.Errorf("failed to create account %q: %w", username, err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get account ID for %q: %w", username, err)
	}
	return id, nil
}

// Balance retrieves the current cash balance for a user.
func (r *Repository) Balance(ctx context.Context, userID int64) (decimal.Decimal, error) {
	const query = `SELECT balance FROM users WHERE user_id = ?`
	var raw string
	err := r.db.QueryRowContext(ctx, query, userID).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return decimal.Zero, fmt.Errorf("user %d: %w", userID, ports.ErrNotFound)
	}
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to query balance for user %d: %w", userID, err)
	}
	balance, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("corrupt balance %q for user %d: %w", raw, userID, err)
	}
	return balance, nil
}

// --- TransactionRepository Implementation ---

// FindByUser retrieves all transactions for a user ordered ascending by
// timestamp, with the row ID as a stable tie-break.
func (r *Repository) FindByUser(ctx context.Context, userID int64) ([]domain.Transaction, error) {
	const query = `
	SELECT t.transaction_id, s.symbol, t.transaction_type, t.quantity, t.price, t.transaction_date
	FROM transactions t
	JOIN stocks s ON s.stock_id = t.stock_id
	WHERE t.user_id = ?
	ORDER BY t.transaction_date ASC, t.transaction_id ASC`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions for user %d: %w", userID, err)
	}
	defer rows.Close()

	var transactions []domain.Transaction
	for rows.Next() {
		var (
			tx            domain.Transaction
			tradeType     string
			quantity, prc string
		)
		if err := rows.Scan(&tx.ID, &tx.Symbol, &tradeType, &quantity, &prc, &tx.Timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan transaction row for user %d: %w", userID, err)
		}
		tx.Type = domain.TradeType(tradeType)
		if tx.Quantity, err = decimal.NewFromString(quantity); err != nil {
			return nil, fmt.Errorf("corrupt quantity %q in transaction %d: %w", quantity, tx.ID, err)
		}
		if tx.Price, err = decimal.NewFromString(prc); err != nil {
			return nil, fmt.Errorf("corrupt price %q in transaction %d: %w", prc, tx.ID, err)
		}
		transactions = append(transactions, tx)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating transaction rows for user %d: %w", userID, err)
	}
	return transactions, nil
}

// --- HoldingRepository Implementation ---

// HoldingsByUser retrieves the user's open holdings with the last recorded price.
func (r *Repository) HoldingsByUser(ctx context.Context, userID int64) ([]domain.Holding, error) {
	const query = `
	SELECT s.symbol, COALESCE(s.company_name, ''), h.quantity, s.last_price
	FROM holdings h
	JOIN stocks s ON s.stock_id = h.stock_id
	WHERE h.user_id = ?
	ORDER BY s.symbol ASC`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query holdings for user %d: %w", userID, err)
	}
	defer rows.Close()

	var holdings []domain.Holding
	for rows.Next() {
		h, err := scanHolding(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("user %d: %w", userID, err)
		}
		holdings = append(holdings, h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating holding rows for user %d: %w", userID, err)
	}
	return holdings, nil
}

// HoldingBySymbol retrieves one holding, or nil, nil when the user holds
// no shares of the symbol.
func (r *Repository) HoldingBySymbol(ctx context.Context, userID int64, symbol string) (*domain.Holding, error) {
	const query = `
	SELECT s.symbol, COALESCE(s.company_name, ''), h.quantity, s.last_price
	FROM holdings h
	JOIN stocks s ON s.stock_id = h.stock_id
	WHERE h.user_id = ? AND s.symbol = ?`

	row := r.db.QueryRowContext(ctx, query, userID, symbol)
	h, err := scanHolding(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("user %d symbol %s: %w", userID, symbol, err)
	}
	return &h, nil
}

func scanHolding(scan func(dest ...any) error) (domain.Holding, error) {
	var (
		h             domain.Holding
		quantity, prc string
	)
	if err := scan(&h.Symbol, &h.CompanyName, &quantity, &prc); err != nil {
		return domain.Holding{}, err
	}
	var err error
	if h.Quantity, err = decimal.NewFromString(quantity); err != nil {
		return domain.Holding{}, fmt.Errorf("corrupt holding quantity %q: %w", quantity, err)
	}
	if h.CurrentPrice, err = decimal.NewFromString(prc); err != nil {
		return domain.Holding{}, fmt.Errorf("corrupt last price %q: %w", prc, err)
	}
	return h, nil
}

// --- TradeStore Implementation ---

// ApplyTrade atomically applies an executed trade: adjusts the cash balance,
// upserts or decrements the holding (removing it at zero), records the last
// traded price for the stock, and appends the transaction row.
func (r *Repository) ApplyTrade(ctx context.Context, userID int64, tx domain.Transaction) (int64, error) {
	dbTx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin trade transaction: %w", err)
	}
	defer dbTx.Rollback()

	stockID, err := r.ensureStock(ctx, dbTx, tx.Symbol, tx.Price, tx.Timestamp)
	if err != nil {
		return 0, err
	}

	balance, err := r.balanceTx(ctx, dbTx, userID)
	if err != nil {
		return 0, err
	}

	total := tx.Quantity.Mul(tx.Price)
	switch tx.Type {
	case domain.Buy:
		balance = balance.Sub(total)
	case domain.Sell:
		balance = balance.Add(total)
	default:
		return 0, fmt.Errorf("trade type %q: %w", tx.Type, ports.ErrInvalidTransaction)
	}

	if _, err := dbTx.ExecContext(ctx,
		`UPDATE users SET balance = ? WHERE user_id = ?`, balance.String(), userID); err != nil {
		return 0, fmt.Errorf("failed to update balance for user %d: %w", userID, err)
	}

	if err := r.adjustHolding(ctx, dbTx, userID, stockID, tx); err != nil {
		return 0, err
	}

	result, err := dbTx.ExecContext(ctx, `
	INSERT INTO transactions (user_id, stock_id, transaction_type, quantity, price, transaction_date)
	VALUES (?, ?, ?, ?, ?, ?)`,
		userID, stockID, string(tx.Type), tx.Quantity.String(), tx.Price.String(), tx.Timestamp)
	if err != nil {
		return 0, fmt.Errorf("failed to record transaction for user %d: %w", userID, err)
	}
	txID, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get transaction ID: %w", err)
	}

	if err := dbTx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit trade for user %d: %w", userID, err)
	}

	r.logger.Debug(ctx, "Trade applied", map[string]interface{}{
		"user":     userID,
		"symbol":   tx.Symbol,
		"type":     tx.Type,
		"quantity": tx.Quantity.String(),
		"price":    tx.Price.String(),
	})
	return txID, nil
}

// ensureStock returns the stock's row ID, creating the row on first trade,
// and records the traded price as the stock's last known price.
func (r *Repository) ensureStock(ctx context.Context, dbTx *sql.Tx, symbol string, price decimal.Decimal, at time.Time) (int64, error) {
	if _, err := dbTx.ExecContext(ctx,
		`INSERT INTO stocks (symbol, last_price, last_updated) VALUES (?, ?, ?)
		 ON CONFLICT(symbol) DO UPDATE SET last_price = excluded.last_price, last_updated = excluded.last_updated`,
		symbol, price.String(), at); err != nil {
		return 0, fmt.Errorf("failed to upsert stock %s: %w", symbol, err)
	}
	var stockID int64
	if err := dbTx.QueryRowContext(ctx,
		`SELECT stock_id FROM stocks WHERE symbol = ?`, symbol).Scan(&stockID); err != nil {
		return 0, fmt.Errorf("failed to resolve stock ID for %s: %w", symbol, err)
	}
	return stockID, nil
}

func (r *Repository) balanceTx(ctx context.Context, dbTx *sql.Tx, userID int64) (decimal.Decimal, error) {
	var raw string
	err := dbTx.QueryRowContext(ctx, `SELECT balance FROM users WHERE user_id = ?`, userID).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return decimal.Zero, fmt.Errorf("user %d: %w", userID, ports.ErrNotFound)
	}
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to query balance for user %d: %w", userID, err)
	}
	balance, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("corrupt balance %q for user %d: %w", raw, userID, err)
	}
	return balance, nil
}

func (r *Repository) adjustHolding(ctx context.Context, dbTx *sql.Tx, userID, stockID int64, tx domain.Transaction) error {
	var raw string
	err := dbTx.QueryRowContext(ctx,
		`SELECT quantity FROM holdings WHERE user_id = ? AND stock_id = ?`, userID, stockID).Scan(&raw)
	held := decimal.Zero
	switch {
	case errors.Is(err, sql.ErrNoRows):
		// first trade in this stock
	case err != nil:
		return fmt.Errorf("failed to query holding for user %d: %w", userID, err)
	default:
		if held, err = decimal.NewFromString(raw); err != nil {
			return fmt.Errorf("corrupt holding quantity %q for user %d: %w", raw, userID, err)
		}
	}

	var next decimal.Decimal
	if tx.Type == domain.Buy {
		next = held.Add(tx.Quantity)
	} else {
		next = held.Sub(tx.Quantity)
	}

	if !next.IsPositive() {
		if _, err := dbTx.ExecContext(ctx,
			`DELETE FROM holdings WHERE user_id = ? AND stock_id = ?`, userID, stockID); err != nil {
			return fmt.Errorf("failed to remove emptied holding for user %d: %w", userID, err)
		}
		return nil
	}

	if _, err := dbTx.ExecContext(ctx,
		`INSERT INTO holdings (user_id, stock_id, quantity) VALUES (?, ?, ?)
		 ON CONFLICT(user_id, stock_id) DO UPDATE SET quantity = excluded.quantity`,
		userID, stockID, next.String()); err != nil {
		return fmt.Errorf("failed to upsert holding for user %d: %w", userID, err)
	}
	return nil
}
