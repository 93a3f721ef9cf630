package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log" // Use standard log only for initial fatal errors before logger is set up
	"os"
	"strings"

	"github.com/shopspring/decimal"

	"stocksim/config"
	"stocksim/internal/adapters/logger"
	"stocksim/internal/adapters/sqlite"
	"stocksim/internal/adapters/yahooclient"
	"stocksim/internal/app"
	"stocksim/internal/domain"
	"stocksim/internal/ports"
)

func main() {
	userID := flag.Int64("user", 0, "user ID to report on")
	createUser := flag.String("create-user", "", "create a new account with the configured initial investment")
	trade := flag.String("trade", "", "execute a paper trade before reporting, format SYMBOL:QUANTITY:BUY|SELL")
	flag.Parse()

	// 1. Load Configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("FATAL: Failed to load configuration: %v", err)
	}

	// 2. Initialize Logger
	appLogger := newLogger(cfg)
	appLogger.Info(context.Background(), "Logger initialized", map[string]interface{}{"level": cfg.LogLevel.String()})

	// 3. Initialize Repository (Database Adapter)
	repo, err := sqlite.NewRepository(sqlite.Config{
		DBPath: cfg.DBPath,
		Logger: appLogger,
	})
	if err != nil {
		appLogger.Error(context.Background(), err, "FATAL: Failed to initialize database repository")
		os.Exit(1)
	}
	defer func() {
		if err := repo.Close(); err != nil {
			appLogger.Error(context.Background(), err, "Error closing database repository")
		}
	}()

	// 4. Initialize Quote Client
	quotes, err := yahooclient.New(yahooclient.Config{
		BaseURL:  cfg.QuoteBaseURL,
		CacheTTL: cfg.QuoteCacheTTL,
		Timeout:  cfg.QuoteTimeout,
		Logger:   appLogger,
	})
	if err != nil {
		appLogger.Error(context.Background(), err, "FATAL: Failed to initialize quote client")
		os.Exit(1)
	}

	// 5. Initialize Application Service
	service, err := app.NewPortfolioService(app.Config{
		Logger:            appLogger,
		Accounts:          repo,
		Transactions:      repo,
		Holdings:          repo,
		Store:             repo,
		Quotes:            quotes,
		InitialInvestment: cfg.InitialInvestment,
	})
	if err != nil {
		appLogger.Error(context.Background(), err, "FATAL: Failed to initialize portfolio service")
		os.Exit(1)
	}

	ctx := context.Background()

	if *createUser != "" {
		id, err := repo.CreateAccount(ctx, *createUser, cfg.InitialInvestment)
		if err != nil {
			appLogger.Error(ctx, err, "Failed to create account")
			os.Exit(1)
		}
		fmt.Printf("created user %d (%s) with balance %s\n", id, *createUser, cfg.InitialInvestment.StringFixed(2))
		return
	}

	if *userID == 0 {
		flag.Usage()
		os.Exit(2)
	}

	if *trade != "" {
		symbol, quantity, side, err := parseTrade(*trade)
		if err != nil {
			appLogger.Error(ctx, err, "Invalid -trade value")
			os.Exit(2)
		}
		tx, err := service.ExecuteTrade(ctx, *userID, symbol, quantity, side)
		if err != nil {
			appLogger.Error(ctx, err, "Trade failed")
			os.Exit(1)
		}
		fmt.Printf("%s %s %s @ %s\n", tx.Type, tx.Quantity, tx.Symbol, tx.Price)
	}

	report, err := service.Report(ctx, *userID)
	if err != nil {
		appLogger.Error(ctx, err, "Failed to compute portfolio report")
		os.Exit(1)
	}

	out, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		appLogger.Error(ctx, err, "Failed to render portfolio report")
		os.Exit(1)
	}
	fmt.Println(string(out))
}

func newLogger(cfg *config.Config) ports.Logger {
	if cfg.LogFormat == config.LogFormatZerolog {
		return logger.NewZeroLogger(logger.ZeroConfig{
			Level:      cfg.LogLevel,
			FilePath:   cfg.LogFile,
			MaxSizeMB:  100,
			MaxBackups: 7,
			MaxAgeDays: 30,
		})
	}
	return logger.NewStdLogger(cfg.LogLevel)
}

// parseTrade parses SYMBOL:QUANTITY:BUY|SELL.
func parseTrade(s string) (string, decimal.Decimal, domain.TradeType, error) {
	parts := strings.Split(s, ":")
	if len(parts) != 3 {
		return "", decimal.Zero, "", fmt.Errorf("want SYMBOL:QUANTITY:BUY|SELL, got %q", s)
	}
	quantity, err := decimal.NewFromString(parts[1])
	if err != nil {
		return "", decimal.Zero, "", fmt.Errorf("invalid quantity %q: %w", parts[1], err)
	}
	side, err := domain.ParseTradeType(strings.ToUpper(parts[2]))
	if err != nil {
		return "", decimal.Zero, "", err
	}
	return parts[0], quantity, side, nil
}
