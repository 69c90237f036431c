// Package rpc is an HTTP JSON-RPC 2.0 transport that satisfies
// walletclient.Provider. It backs injected-wallet endpoints (a local wallet
// daemon) and public chain nodes alike.
package rpc

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync/atomic"
	"time"

	"github.com/showtime-xyz/walletsession/internal/metrics"
	"github.com/showtime-xyz/walletsession/internal/walletclient"
	wserr "github.com/showtime-xyz/walletsession/pkg/errors"
)

// ErrRPCResponse indicates a response that is not valid JSON-RPC.
var ErrRPCResponse = &wserr.SessionError{
	Code:     "RPC_INVALID_RESPONSE",
	Message:  "invalid RPC response",
	ExitCode: wserr.ExitGeneral,
}

// maxResponseBytes bounds how much of a response body is read.
const maxResponseBytes = 4 << 20

// readOnly lists methods that are safe to repeat. Anything that prompts the
// user or signs is sent exactly once.
//
//nolint:gochecknoglobals // read-only lookup table
var readOnly = map[string]bool{
	"eth_chainId":     true,
	"eth_accounts":    true,
	"eth_blockNumber": true,
	"eth_getBalance":  true,
	"net_version":     true,
}

// IsReadOnly reports whether method is retried on transient failures.
func IsReadOnly(method string) bool {
	return readOnly[method]
}

// Client is a JSON-RPC client bound to one endpoint.
type Client struct {
	url        string
	endpoint   string
	httpClient *http.Client
	limiter    *RateLimiter
	retry      RetryConfig
	metrics    *metrics.Metrics
	idCounter  atomic.Uint64
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithRateLimiter shares a limiter between clients.
func WithRateLimiter(rl *RateLimiter) Option {
	return func(c *Client) { c.limiter = rl }
}

// WithRetry overrides the retry policy for read-only methods.
func WithRetry(cfg RetryConfig) Option {
	return func(c *Client) { c.retry = cfg }
}

// WithMetrics records call counts and latency into m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Client) { c.metrics = m }
}

// NewClient creates a client for rawURL.
func NewClient(rawURL string, opts ...Option) *Client {
	c := &Client{
		url:        rawURL,
		endpoint:   endpointKey(rawURL),
		httpClient: &http.Client{Timeout: 30 * time.Second},
		limiter:    DefaultRateLimiter(),
		retry:      DefaultRetryConfig(),
		metrics:    metrics.Global,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// URL returns the endpoint URL.
func (c *Client) URL() string {
	return c.url
}

// Request implements walletclient.Provider.
func (c *Client) Request(ctx context.Context, method string, params ...any) (json.RawMessage, error) {
	if !IsReadOnly(method) {
		return c.call(ctx, method, params)
	}

	return RetryWithConfig(ctx, c.retry, func() (json.RawMessage, error) {
		res, err := c.call(ctx, method, params)
		if err != nil && IsRetryable(err) {
			c.metrics.RecordRPCRetry()
		}
		return res, err
	})
}

type request struct {
	JSONRPC string `json:"jsonrpc"`
	Method  string `json:"method"`
	Params  []any  `json:"params"`
	ID      uint64 `json:"id"`
}

type response struct {
	JSONRPC string                      `json:"jsonrpc"`
	ID      uint64                      `json:"id"`
	Result  json.RawMessage             `json:"result"`
	Error   *walletclient.ProviderError `json:"error,omitempty"`
}

func (c *Client) call(ctx context.Context, method string, params []any) (result json.RawMessage, err error) {
	if err := c.limiter.Wait(ctx, c.endpoint); err != nil {
		return nil, err
	}

	start := time.Now()
	defer func() { c.metrics.RecordRPCCall(time.Since(start), err) }()

	if params == nil {
		params = []any{}
	}

	body, err := json.Marshal(request{
		JSONRPC: "2.0",
		Method:  method,
		Params:  params,
		ID:      c.idCounter.Add(1),
	})
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating HTTP request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, WrapRetryable(wserr.Wrap(wserr.ErrNetworkError, "%s %s", method, c.endpoint))
	}
	defer func() { _ = httpResp.Body.Close() }()

	switch {
	case httpResp.StatusCode == http.StatusTooManyRequests:
		return nil, fmt.Errorf("%w: retry after %s", ErrRateLimited, ParseRetryAfter(httpResp.Header.Get("Retry-After")))
	case httpResp.StatusCode >= http.StatusInternalServerError:
		return nil, WrapRetryable(fmt.Errorf("%s: HTTP %d", method, httpResp.StatusCode))
	}

	respBody, err := io.ReadAll(io.LimitReader(httpResp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}

	var resp response
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, wserr.Wrap(ErrRPCResponse, "HTTP %d", httpResp.StatusCode)
	}

	if resp.Error != nil {
		return nil, resp.Error
	}
	if resp.Result == nil {
		return nil, wserr.Wrap(ErrRPCResponse, "%s: missing result", method)
	}

	return resp.Result, nil
}

// endpointKey reduces a URL to scheme://host so API keys in the path do not
// fan out into separate limiters or end up in error messages.
func endpointKey(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return rawURL
	}
	return u.Scheme + "://" + u.Host
}
