// Package pricefeed implements the price source collaborator against an
// HTTP market-data provider, with a small TTL cache so settlement never
// waits on the provider for recently quoted instruments.
package pricefeed

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/coinharbor/exchange-backend/internal/domain"
)

// DefaultCacheTTL bounds how stale a served quote can be. Settlement prices
// an order once with whatever this returns; the TTL is the freshness
// guarantee, not a correctness one.
const DefaultCacheTTL = 5 * time.Second

// Client fetches instrument prices over HTTP
type Client struct {
	baseURL string
	http    *http.Client

	mu    sync.Mutex
	ttl   time.Duration
	cache map[string]quote
}

type quote struct {
	price   decimal.Decimal
	fetched time.Time
}

// NewClient creates a new price feed client
// baseURL points at the market-data provider, e.g. "https://feed.example.com"
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
		ttl:     DefaultCacheTTL,
		cache:   make(map[string]quote),
	}
}

// CurrentPrice returns the instrument's current unit price, serving from
// cache when a fresh quote is available.
// Returns domain.ErrInstrumentUnavailable for unknown instruments.
func (c *Client) CurrentPrice(ctx context.Context, instrumentID string) (decimal.Decimal, error) {
	c.mu.Lock()
	if q, ok := c.cache[instrumentID]; ok && time.Since(q.fetched) < c.ttl {
		c.mu.Unlock()
		return q.price, nil
	}
	c.mu.Unlock()

	price, err := c.fetch(ctx, instrumentID)
	if err != nil {
		return decimal.Zero, err
	}

	c.mu.Lock()
	c.cache[instrumentID] = quote{price: price, fetched: time.Now()}
	c.mu.Unlock()

	return price, nil
}

func (c *Client) fetch(ctx context.Context, instrumentID string) (decimal.Decimal, error) {
	endpoint := fmt.Sprintf("%s/v1/price?symbol=%s", c.baseURL, url.QueryEscape(instrumentID))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to build price request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to fetch price for %s: %w", instrumentID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return decimal.Zero, fmt.Errorf("%w: %s", domain.ErrInstrumentUnavailable, instrumentID)
	}
	if resp.StatusCode != http.StatusOK {
		return decimal.Zero, fmt.Errorf("price feed returned status %d for %s", resp.StatusCode, instrumentID)
	}

	var body struct {
		Symbol string `json:"symbol"`
		Price  string `json:"price"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return decimal.Zero, fmt.Errorf("failed to decode price response: %w", err)
	}

	price, err := decimal.NewFromString(body.Price)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to parse price %q: %w", body.Price, err)
	}

	return price, nil
}

// Static is a fixed price table implementing domain.PriceSource. Used in
// tests and local development without a market-data provider.
type Static struct {
	Prices map[string]decimal.Decimal
}

// CurrentPrice returns the configured price for the instrument
// Returns domain.ErrInstrumentUnavailable for instruments not in the table
func (s *Static) CurrentPrice(ctx context.Context, instrumentID string) (decimal.Decimal, error) {
	price, ok := s.Prices[instrumentID]
	if !ok {
		return decimal.Zero, fmt.Errorf("%w: %s", domain.ErrInstrumentUnavailable, instrumentID)
	}
	return price, nil
}
