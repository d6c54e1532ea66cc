// Package feed implements the HTTP client for the upstream trade feed and
// bonding-curve progress endpoints.
package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"token-launchpad/internal/domain"
)

// Default configuration values.
const (
	DefaultTimeout     = 15 * time.Second
	DefaultMaxRetries  = 3
	DefaultRetryDelay  = 500 * time.Millisecond
	DefaultMaxDelay    = 5 * time.Second
	DefaultBackoffMult = 2.0
	DefaultPageSize    = 100
)

// Client talks to the trade feed REST API.
type Client struct {
	baseURL     string
	client      *http.Client
	maxRetries  int
	retryDelay  time.Duration
	maxDelay    time.Duration
	backoffMult float64
}

// ClientOption configures Client.
type ClientOption func(*Client)

// WithTimeout sets HTTP client timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		c.client.Timeout = d
	}
}

// WithMaxRetries sets maximum retry attempts.
func WithMaxRetries(n int) ClientOption {
	return func(c *Client) {
		c.maxRetries = n
	}
}

// WithRetryDelay sets initial retry delay.
func WithRetryDelay(d time.Duration) ClientOption {
	return func(c *Client) {
		c.retryDelay = d
	}
}

// WithHTTPClient sets custom http.Client.
func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *Client) {
		c.client = client
	}
}

// NewClient creates a trade feed client.
func NewClient(baseURL string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL:     baseURL,
		client:      &http.Client{Timeout: DefaultTimeout},
		maxRetries:  DefaultMaxRetries,
		retryDelay:  DefaultRetryDelay,
		maxDelay:    DefaultMaxDelay,
		backoffMult: DefaultBackoffMult,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// tradeResponse is the feed's wire shape for a single trade.
type tradeResponse struct {
	Signature    string  `json:"signature"`
	Mint         string  `json:"mint"`
	Wallet       string  `json:"wallet"`
	Side         string  `json:"side"`
	AmountNative float64 `json:"amount_native"`
	AmountUSD    float64 `json:"amount_usd"`
	Timestamp    int64   `json:"timestamp"`
}

// progressResponse is the curve progress wire shape.
type progressResponse struct {
	Mint     string  `json:"mint"`
	Progress float64 `json:"progress"`
}

// Trades fetches the most recent trades for a mint, newest-first pages up
// to limit entries. The caller deduplicates against its own store.
func (c *Client) Trades(ctx context.Context, mint string, limit int) ([]*domain.TradeRecord, error) {
	if limit <= 0 {
		limit = DefaultPageSize
	}
	q := url.Values{}
	q.Set("mint", mint)
	q.Set("limit", strconv.Itoa(limit))

	var raw []tradeResponse
	if err := c.get(ctx, "/v1/trades?"+q.Encode(), &raw); err != nil {
		return nil, fmt.Errorf("fetch trades: %w", err)
	}

	trades := make([]*domain.TradeRecord, 0, len(raw))
	for _, r := range raw {
		trades = append(trades, &domain.TradeRecord{
			TxSignature:  r.Signature,
			Mint:         r.Mint,
			Wallet:       r.Wallet,
			Side:         r.Side,
			AmountNative: r.AmountNative,
			AmountUSD:    r.AmountUSD,
			Timestamp:    r.Timestamp,
		})
	}
	return trades, nil
}

// Progress fetches bonding-curve fill progress for a mint, in [0, 1].
func (c *Client) Progress(ctx context.Context, mint string) (float64, error) {
	q := url.Values{}
	q.Set("mint", mint)

	var resp progressResponse
	if err := c.get(ctx, "/v1/curve/progress?"+q.Encode(), &resp); err != nil {
		return 0, fmt.Errorf("fetch curve progress: %w", err)
	}
	return resp.Progress, nil
}

// get performs a GET with retries and exponential backoff.
func (c *Client) get(ctx context.Context, path string, result interface{}) error {
	delay := c.retryDelay
	var lastErr error

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
			// Exponential backoff
			delay = time.Duration(float64(delay) * c.backoffMult)
			if delay > c.maxDelay {
				delay = c.maxDelay
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
		if err != nil {
			return fmt.Errorf("create request: %w", err)
		}
		req.Header.Set("Accept", "application/json")

		resp, err := c.client.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("http request: %w", err)
			continue
		}

		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			lastErr = fmt.Errorf("read response: %w", err)
			continue
		}

		if resp.StatusCode == http.StatusTooManyRequests {
			lastErr = fmt.Errorf("rate limited (429)")
			continue
		}

		if resp.StatusCode != http.StatusOK {
			lastErr = fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(body))
			continue
		}

		if result != nil {
			if err := json.Unmarshal(body, result); err != nil {
				return fmt.Errorf("unmarshal response: %w", err)
			}
		}
		return nil
	}

	return fmt.Errorf("max retries exceeded: %w", lastErr)
}
