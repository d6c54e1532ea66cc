// Package generator implements the HTTP client for the external content
// generation service that feeds terminal broadcasts.
package generator

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"token-launchpad/internal/domain"
)

// Default configuration values.
const (
	DefaultTimeout   = 20 * time.Second
	DefaultMaxLength = 280
)

// Client talks to the content generation REST API.
type Client struct {
	baseURL   string
	client    *http.Client
	maxLength int
}

// ClientOption configures Client.
type ClientOption func(*Client)

// WithTimeout sets HTTP client timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		c.client.Timeout = d
	}
}

// WithMaxLength caps generated text length in runes.
func WithMaxLength(n int) ClientOption {
	return func(c *Client) {
		c.maxLength = n
	}
}

// WithHTTPClient sets custom http.Client.
func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *Client) {
		c.client = client
	}
}

// NewClient creates a content generation client.
func NewClient(baseURL string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL:   baseURL,
		client:    &http.Client{Timeout: DefaultTimeout},
		maxLength: DefaultMaxLength,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// generateRequest is the wire shape of a generation request.
type generateRequest struct {
	Mint   string `json:"mint"`
	Name   string `json:"name"`
	Symbol string `json:"symbol"`
	Type   string `json:"type"`
}

// generateResponse is the wire shape of a generation result.
type generateResponse struct {
	Text string `json:"text"`
}

// Generate produces one piece of terminal content for a token. Empty and
// whitespace-only results are errors so the terminal falls back instead of
// broadcasting a blank line.
func (c *Client) Generate(ctx context.Context, token *domain.Token, contentType domain.ContentType) (string, error) {
	body, err := json.Marshal(generateRequest{
		Mint:   token.Mint,
		Name:   token.Name,
		Symbol: token.Symbol,
		Type:   string(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/generate", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(respBody))
	}

	var result generateResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return "", fmt.Errorf("unmarshal response: %w", err)
	}

	text := strings.TrimSpace(result.Text)
	if text == "" {
		return "", fmt.Errorf("empty generation result")
	}
	if runes := []rune(text); len(runes) > c.maxLength {
		text = string(runes[:c.maxLength])
	}
	return text, nil
}
