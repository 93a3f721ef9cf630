package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"

	"stocksim/internal/adapters/logger" // Import the logger package for LogLevel
)

// Log output formats.
const (
	LogFormatStd     = "std"
	LogFormatZerolog = "zerolog"
)

// Config holds all application configuration.
type Config struct {
	// Accounting
	InitialInvestment decimal.Decimal // Opening cash balance seeded per account

	// Database
	DBPath string

	// Quotes
	QuoteBaseURL  string        // Override for the Yahoo Finance host (tests, proxies)
	QuoteCacheTTL time.Duration // Freshness window for cached quotes
	QuoteTimeout  time.Duration // Per-request HTTP timeout

	// Logging
	LogLevel  logger.LogLevel
	LogFormat string // "std" or "zerolog"
	LogFile   string // Enables rotated file output when set (zerolog only)
}

// LoadConfig loads configuration from environment variables (.env file).
func LoadConfig() (*Config, error) {
	// Load .env file, but don't fail if it doesn't exist (allow pure env vars)
	_ = godotenv.Load()

	cfg := &Config{}
	var errs []string // Collect validation errors

	// Accounting
	initialInvestment := getEnv("INITIAL_INVESTMENT", "10000.00")
	investment, err := decimal.NewFromString(initialInvestment)
	if err != nil {
		errs = append(errs, fmt.Sprintf("invalid INITIAL_INVESTMENT %q: %v", initialInvestment, err))
	} else if !investment.IsPositive() {
		errs = append(errs, "INITIAL_INVESTMENT must be positive")
	} else {
		cfg.InitialInvestment = investment
	}

	// Database
	cfg.DBPath = getEnv("DB_PATH", "./data/stocksim.db")
	if cfg.DBPath == "" {
		errs = append(errs, "DB_PATH must be set")
	}

	// Quotes
	cfg.QuoteBaseURL = getEnv("QUOTE_BASE_URL", "")

	cacheTTLSeconds := getEnvAsInt("QUOTE_CACHE_TTL_SECONDS", 300)
	if cacheTTLSeconds <= 0 {
		errs = append(errs, "QUOTE_CACHE_TTL_SECONDS must be positive")
	}
	cfg.QuoteCacheTTL = time.Duration(cacheTTLSeconds) * time.Second

	timeoutSeconds := getEnvAsInt("QUOTE_TIMEOUT_SECONDS", 8)
	if timeoutSeconds <= 0 {
		errs = append(errs, "QUOTE_TIMEOUT_SECONDS must be positive")
	}
	cfg.QuoteTimeout = time.Duration(timeoutSeconds) * time.Second

	// Logging
	cfg.LogLevel = logger.ParseLevel(getEnv("LOG_LEVEL", "INFO"))
	cfg.LogFormat = getEnv("LOG_FORMAT", LogFormatStd)
	if cfg.LogFormat != LogFormatStd && cfg.LogFormat != LogFormatZerolog {
		errs = append(errs, fmt.Sprintf("LOG_FORMAT must be %q or %q", LogFormatStd, LogFormatZerolog))
	}
	cfg.LogFile = getEnv("LOG_FILE", "")

	if len(errs) > 0 {
		return nil, fmt.Errorf("configuration validation failed: %s", strings.Join(errs, "; "))
	}

	return cfg, nil
}

// --- Env Var Helpers ---

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}
