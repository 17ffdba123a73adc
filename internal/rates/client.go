// Package rates fetches exchange-rate tables from an open.er-api.com
// compatible endpoint.
package rates

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/singleflight"

	"fintrack/internal/cache"
	"fintrack/internal/core"
	"fintrack/internal/log"
)

const (
	DefaultBaseURL = "https://open.er-api.com/v6/latest"

	// listBase is the table whose keys make up the selectable currencies.
	listBase = "USD"

	maxBodyBytes = 1 << 20
)

var (
	// FallbackCurrencies is offered when the currency list cannot be fetched.
	FallbackCurrencies = []string{"EUR", "USD", "GBP", "ALL"}

	// BaseChoices are the base currencies the header lets the user pick.
	BaseChoices = []string{"EUR", "USD", "GBP", "CAD", "JPY", "ALL"}

	ErrNoRates = errors.New("rates: response carries no rates")
)

type Config struct {
	BaseURL  string
	Timeout  time.Duration
	CacheTTL time.Duration
}

// Client fetches rate tables. Tables are cached per base currency and
// concurrent fetches of the same base share one request.
type Client struct {
	baseURL    string
	httpClient *http.Client
	cache      *cache.LRUCache[core.RateTable]
	group      singleflight.Group
	logger     *log.Logger
}

type latestResponse struct {
	Result string                     `json:"result"`
	Rates  map[string]decimal.Decimal `json:"rates"`
}

func NewClient(cfg Config, logger *log.Logger) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = 10 * time.Minute
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: &http.Client{Timeout: cfg.Timeout},
		cache:      cache.NewLRU[core.RateTable](len(BaseChoices)+1, cfg.CacheTTL),
		logger:     logger.WithComponent(log.ComponentRates),
	}
}

// Cache exposes the table cache for the janitor.
func (c *Client) Cache() cache.Cleaner { return c.cache }

// Latest returns the rate table relative to base.
func (c *Client) Latest(ctx context.Context, base string) (core.RateTable, error) {
	base = core.NormalizeCurrency(base)
	if !core.ValidCurrency(base) {
		return nil, fmt.Errorf("latest rates for %q: %w", base, core.ErrInvalidCurrency)
	}
	if table, ok := c.cache.Get(base); ok {
		return table.Clone(), nil
	}

	flight := c.group.DoChan(base, func() (any, error) {
		// Detached from the callers; bounded by the client timeout.
		fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.httpClient.Timeout)
		defer cancel()
		table, err := c.fetch(fetchCtx, base)
		if err != nil {
			return nil, err
		}
		c.cache.Set(base, table)
		return table, nil
	})

	var res singleflight.Result
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("latest rates for %s: %w", base, ctx.Err())
	case res = <-flight:
	}
	if res.Err != nil {
		return nil, res.Err
	}
	if res.Shared {
		c.logger.DebugContext(ctx, "Rate fetch shared", log.FieldBaseCurrency, base)
	}
	return res.Val.(core.RateTable).Clone(), nil
}

// Currencies returns the sorted codes of the USD table, or
// FallbackCurrencies when the fetch fails.
func (c *Client) Currencies(ctx context.Context) []string {
	table, err := c.Latest(ctx, listBase)
	if err != nil || len(table) == 0 {
		if err != nil {
			c.logger.WarnContext(ctx, "Currency list unavailable, using fallback", log.FieldError, err.Error())
		}
		return append([]string(nil), FallbackCurrencies...)
	}
	return table.Codes()
}

func (c *Client) fetch(ctx context.Context, base string) (core.RateTable, error) {
	start := time.Now()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/"+base, nil)
	if err != nil {
		return nil, fmt.Errorf("build rates request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch rates for %s: %w", base, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("fetch rates for %s: status %d: %s", base, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var out latestResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBodyBytes)).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode rates for %s: %w", base, err)
	}
	if len(out.Rates) == 0 {
		return nil, fmt.Errorf("fetch rates for %s (result %q): %w", base, out.Result, ErrNoRates)
	}

	c.logger.InfoContext(ctx, "Rates fetched",
		log.FieldBaseCurrency, base,
		log.FieldCount, len(out.Rates),
		log.FieldDuration, time.Since(start).Milliseconds())
	return core.RateTable(out.Rates), nil
}
