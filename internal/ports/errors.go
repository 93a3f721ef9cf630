package ports

import "errors"

// Standard application-level errors.
// Adapters should wrap underlying infrastructure errors with these standard errors.
var (
	// General Errors
	ErrUnknown            = errors.New("unknown error occurred")
	ErrInvalidRequest     = errors.New("invalid request parameters or format")
	ErrNotFound           = errors.New("resource not found")
	ErrConfigurationError = errors.New("invalid or missing configuration")

	// Accounting Errors
	ErrInvalidTransaction = errors.New("invalid transaction (non-positive quantity, negative price, or unknown type)")
	ErrInsufficientLots   = errors.New("sell exceeds open buy lots for symbol")
	ErrInsufficientFunds  = errors.New("insufficient funds for trade")
	ErrInsufficientShares = errors.New("insufficient shares for sale")

	// Quote Specific Errors
	ErrPriceUnavailable = errors.New("live price unavailable for symbol")

	// Database Specific Errors
	ErrDuplicateEntry = errors.New("database record already exists")
	ErrDBConnection   = errors.New("database connection error")
	ErrQueryFailed    = errors.New("database query failed")
	ErrUpdateFailed   = errors.New("database update failed")
)
