// Package mempool reads address balances from an Esplora-compatible REST API
// (mempool.space and its testnet/fractal mirrors) and adapts them into a
// watch-only wallet.Provider.
//
// # Usage
//
//	client := mempool.NewClient(mempool.Config{
//	    BaseURL: "https://mempool.space",
//	})
//
//	stats, err := client.AddressStats(ctx, "bc1q...")
package mempool

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sethvargo/go-retry"
)

// Config holds configuration for the mempool API client.
type Config struct {
	// BaseURL is the explorer root, without the /api suffix.
	// Defaults to "https://mempool.space" if empty.
	BaseURL string

	// MaxRetries is the maximum number of retry attempts for retryable errors.
	// Defaults to 3 if zero.
	MaxRetries int

	// BaseRetryDelay is the initial delay before the first retry.
	// Defaults to 500ms if zero.
	BaseRetryDelay time.Duration

	// MaxRetryDelay caps the exponential backoff delay.
	// Defaults to 5 seconds if zero.
	MaxRetryDelay time.Duration

	// HTTPClient allows injecting a custom HTTP client (useful for testing).
	// Defaults to a client with 15s timeout.
	HTTPClient *http.Client
}

// Client is an Esplora REST client.
type Client struct {
	config Config
	http   *http.Client
}

// NewClient creates a client with defaults applied.
func NewClient(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://mempool.space"
	}
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = 3
	}
	if cfg.BaseRetryDelay == 0 {
		cfg.BaseRetryDelay = 500 * time.Millisecond
	}
	if cfg.MaxRetryDelay == 0 {
		cfg.MaxRetryDelay = 5 * time.Second
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	return &Client{config: cfg, http: httpClient}
}

// BaseURL returns the configured explorer root.
func (c *Client) BaseURL() string {
	return c.config.BaseURL
}

// TxoStats are the funded/spent sums for one side (chain or mempool).
type TxoStats struct {
	FundedTxoCount int   `json:"funded_txo_count"`
	FundedTxoSum   int64 `json:"funded_txo_sum"`
	SpentTxoCount  int   `json:"spent_txo_count"`
	SpentTxoSum    int64 `json:"spent_txo_sum"`
	TxCount        int   `json:"tx_count"`
}

// Net is funded minus spent.
func (s TxoStats) Net() int64 {
	return s.FundedTxoSum - s.SpentTxoSum
}

// AddressStats is the response of GET /api/address/{address}.
type AddressStats struct {
	Address      string   `json:"address"`
	ChainStats   TxoStats `json:"chain_stats"`
	MempoolStats TxoStats `json:"mempool_stats"`
}

// AddressStats fetches funded/spent totals for address.
func (c *Client) AddressStats(ctx context.Context, address string) (*AddressStats, error) {
	address = strings.TrimSpace(address)
	if address == "" {
		return nil, fmt.Errorf("mempool: address is required")
	}
	var out AddressStats
	body, err := c.getWithRetry(ctx, "address/"+url.PathEscape(address))
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("mempool: decode address stats: %w", err)
	}
	return &out, nil
}

// get sends a single GET to {BaseURL}/api/{path}.
func (c *Client) get(ctx context.Context, path string) ([]byte, error) {
	u := fmt.Sprintf("%s/api/%s", strings.TrimRight(c.config.BaseURL, "/"), strings.TrimPrefix(path, "/"))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("mempool: create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("mempool: http request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("mempool: read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &HTTPError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}
	return body, nil
}

// getWithRetry retries 429 and 5xx responses with capped exponential backoff.
func (c *Client) getWithRetry(ctx context.Context, path string) ([]byte, error) {
	backoff := retry.NewExponential(c.config.BaseRetryDelay)
	backoff = retry.WithCappedDuration(c.config.MaxRetryDelay, backoff)
	backoff = retry.WithMaxRetries(uint64(c.config.MaxRetries), backoff)

	var body []byte
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		b, err := c.get(ctx, path)
		if err != nil {
			var httpErr *HTTPError
			if errors.As(err, &httpErr) && httpErr.IsRetryable() {
				return retry.RetryableError(err)
			}
			return err
		}
		body = b
		return nil
	})
	if err != nil {
		return nil, err
	}
	return body, nil
}
