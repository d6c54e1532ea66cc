// Package market implements the upstream market data client: per-token
// price, market cap, liquidity and holder count, plus the SOL/USD rate
// used by reward conversion.
package market

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"token-launchpad/internal/domain"
)

// Default configuration values.
const (
	DefaultTimeout = 10 * time.Second
)

// Client talks to the market data REST API.
type Client struct {
	baseURL string
	client  *http.Client
}

// ClientOption configures Client.
type ClientOption func(*Client)

// WithTimeout sets HTTP client timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		c.client.Timeout = d
	}
}

// WithHTTPClient sets custom http.Client.
func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *Client) {
		c.client = client
	}
}

// NewClient creates a market data client.
func NewClient(baseURL string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL: baseURL,
		client:  &http.Client{Timeout: DefaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// marketResponse is the wire shape for per-token market data.
type marketResponse struct {
	Mint         string  `json:"mint"`
	PriceUSD     float64 `json:"price_usd"`
	MarketCapUSD float64 `json:"market_cap_usd"`
	LiquidityUSD float64 `json:"liquidity_usd"`
	HolderCount  int     `json:"holder_count"`
}

// priceResponse is the wire shape for the SOL/USD rate.
type priceResponse struct {
	PriceUSD float64 `json:"price_usd"`
}

// Lookup fetches current market data for a mint.
func (c *Client) Lookup(ctx context.Context, mint string) (*domain.MarketData, error) {
	q := url.Values{}
	q.Set("mint", mint)

	var resp marketResponse
	if err := c.get(ctx, "/v1/market?"+q.Encode(), &resp); err != nil {
		return nil, fmt.Errorf("fetch market data: %w", err)
	}
	return &domain.MarketData{
		Mint:         resp.Mint,
		PriceUSD:     resp.PriceUSD,
		MarketCapUSD: resp.MarketCapUSD,
		LiquidityUSD: resp.LiquidityUSD,
		HolderCount:  resp.HolderCount,
	}, nil
}

// SolPriceUSD fetches the current SOL/USD rate.
func (c *Client) SolPriceUSD(ctx context.Context) (float64, error) {
	var resp priceResponse
	if err := c.get(ctx, "/v1/price/sol", &resp); err != nil {
		return 0, fmt.Errorf("fetch SOL price: %w", err)
	}
	if resp.PriceUSD <= 0 {
		return 0, fmt.Errorf("non-positive SOL price: %v", resp.PriceUSD)
	}
	return resp.PriceUSD, nil
}

func (c *Client) get(ctx context.Context, path string, result interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(body))
	}
	if err := json.Unmarshal(body, result); err != nil {
		return fmt.Errorf("unmarshal response: %w", err)
	}
	return nil
}
