// Package yahooclient implements ports.QuoteClient against the Yahoo Finance
// v8 chart endpoint, with a freshness cache so repeated lookups for the same
// symbol do not hammer the API.
package yahooclient

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"stocksim/internal/ports"
)

const defaultBaseURL = "https://query2.finance.yahoo.com"

// Config holds configuration for the Yahoo quote client.
type Config struct {
	BaseURL  string        // defaults to the public Yahoo Finance host
	CacheTTL time.Duration // how long a fetched quote stays fresh
	Timeout  time.Duration // per-request HTTP timeout
	Logger   ports.Logger
}

// Client fetches live stock prices.
type Client struct {
	httpClient *http.Client
	baseURL    string
	ttl        time.Duration
	logger     ports.Logger

	mu    sync.RWMutex
	cache map[string]cachedQuote
}

type cachedQuote struct {
	price   decimal.Decimal
	fetched time.Time
}

// New creates a new Yahoo quote client.
func New(cfg Config) (*Client, error) {
	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger is required for Yahoo quote client")
	}
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	ttl := cfg.CacheTTL
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 8 * time.Second
	}

	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    baseURL,
		ttl:        ttl,
		logger:     cfg.Logger,
		cache:      make(map[string]cachedQuote),
	}, nil
}

// Price returns the latest market price for a symbol.
// Returns ports.ErrPriceUnavailable when Yahoo has no usable price.
func (c *Client) Price(ctx context.Context, symbol string) (decimal.Decimal, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return decimal.Zero, fmt.Errorf("empty symbol: %w", ports.ErrPriceUnavailable)
	}

	c.mu.RLock()
	if q, ok := c.cache[symbol]; ok && time.Since(q.fetched) < c.ttl {
		c.mu.RUnlock()
		return q.price, nil
	}
	c.mu.RUnlock()

	price, err := c.fetch(ctx, symbol)
	if err != nil {
		return decimal.Zero, err
	}

	c.mu.Lock()
	c.cache[symbol] = cachedQuote{price: price, fetched: time.Now()}
	c.mu.Unlock()

	return price, nil
}

func (c *Client) fetch(ctx context.Context, symbol string) (decimal.Decimal, error) {
	url := fmt.Sprintf("%s/v8/finance/chart/%s?interval=1m&range=1d", c.baseURL, symbol)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to build quote request for %s: %w", symbol, err)
	}
	req.Header.Set("User-Agent", "stocksim/1.0")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return decimal.Zero, fmt.Errorf("quote request for %s failed: %w", symbol, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.logger.Warn(ctx, "Quote request returned non-OK status", map[string]interface{}{
			"symbol": symbol,
			"status": resp.StatusCode,
		})
		return decimal.Zero, fmt.Errorf("quote request for %s returned HTTP %d: %w",
			symbol, resp.StatusCode, ports.ErrPriceUnavailable)
	}

	var raw struct {
		Chart struct {
			Result []struct {
				Meta struct {
					RegularMarketPrice float64 `json:"regularMarketPrice"`
				} `json:"meta"`
				Timestamp  []int64 `json:"timestamp"`
				Indicators struct {
					Quote []struct {
						Close []float64 `json:"close"`
					} `json:"quote"`
				} `json:"indicators"`
			} `json:"result"`
		} `json:"chart"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return decimal.Zero, fmt.Errorf("failed to decode quote response for %s: %w", symbol, err)
	}
	if len(raw.Chart.Result) == 0 {
		return decimal.Zero, fmt.Errorf("no chart result for %s: %w", symbol, ports.ErrPriceUnavailable)
	}

	r := raw.Chart.Result[0]
	price := r.Meta.RegularMarketPrice

	// Fall back to the last non-zero close when the meta price is missing.
	if price <= 0 && len(r.Indicators.Quote) > 0 {
		closes := r.Indicators.Quote[0].Close
		for i := len(closes) - 1; i >= 0; i-- {
			if closes[i] > 0 {
				price = closes[i]
				break
			}
		}
	}
	if price <= 0 {
		return decimal.Zero, fmt.Errorf("no usable price for %s: %w", symbol, ports.ErrPriceUnavailable)
	}

	return decimal.NewFromFloat(price), nil
}
