package rpc

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/showtime-xyz/walletsession/internal/metrics"
	"github.com/showtime-xyz/walletsession/internal/walletclient"
	wserr "github.com/showtime-xyz/walletsession/pkg/errors"
)

func fastRetry() RetryConfig {
	return RetryConfig{MaxAttempts: 3, BaseDelay: time.Millisecond, MaxDelay: 2 * time.Millisecond}
}

func newTestClient(url string, m *metrics.Metrics) *Client {
	return NewClient(url,
		WithRetry(fastRetry()),
		WithRateLimiter(NewRateLimiter(0, 1)),
		WithMetrics(m),
	)
}

// jsonRPCServer answers every request with handler(method, params).
func jsonRPCServer(t *testing.T, handler func(method string, params []any) (any, *walletclient.ProviderError)) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			JSONRPC string `json:"jsonrpc"`
			Method  string `json:"method"`
			Params  []any  `json:"params"`
			ID      uint64 `json:"id"`
		}
		if !assert.NoError(t, json.NewDecoder(r.Body).Decode(&req)) {
			return
		}
		assert.Equal(t, "2.0", req.JSONRPC)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		result, rpcErr := handler(req.Method, req.Params)
		resp := map[string]any{"jsonrpc": "2.0", "id": req.ID}
		if rpcErr != nil {
			resp["error"] = rpcErr
		} else {
			resp["result"] = result
		}
		assert.NoError(t, json.NewEncoder(w).Encode(resp))
	}))
}

func TestClient_Request_Result(t *testing.T) {
	t.Parallel()

	server := jsonRPCServer(t, func(method string, params []any) (any, *walletclient.ProviderError) {
		assert.Equal(t, "eth_accounts", method)
		assert.Empty(t, params)
		return []string{"0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed"}, nil
	})
	defer server.Close()

	m := &metrics.Metrics{}
	c := newTestClient(server.URL, m)

	raw, err := c.Request(context.Background(), "eth_accounts")
	require.NoError(t, err)
	assert.JSONEq(t, `["0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed"]`, string(raw))
	assert.Equal(t, int64(1), m.Snapshot().RPCCallsTotal)
}

func TestClient_Request_ProviderError(t *testing.T) {
	t.Parallel()

	server := jsonRPCServer(t, func(string, []any) (any, *walletclient.ProviderError) {
		return nil, &walletclient.ProviderError{Code: walletclient.CodeUserRejected, Message: "User denied message signature."}
	})
	defer server.Close()

	m := &metrics.Metrics{}
	c := newTestClient(server.URL, m)

	_, err := c.Request(context.Background(), "personal_sign", "0x68656c6c6f", "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed")
	require.ErrorIs(t, err, wserr.ErrRequestRejected)

	var pe *walletclient.ProviderError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "User denied message signature.", pe.Message)
	assert.Equal(t, int64(1), m.Snapshot().RPCErrorsTotal)
}

func TestClient_Request_RetriesReadOnly(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(`{"jsonrpc":"2.0","id":3,"result":"0x1"}`))
	}))
	defer server.Close()

	m := &metrics.Metrics{}
	c := newTestClient(server.URL, m)

	raw, err := c.Request(context.Background(), "eth_chainId")
	require.NoError(t, err)
	assert.JSONEq(t, `"0x1"`, string(raw))
	assert.Equal(t, int32(3), calls.Load())
	assert.Equal(t, int64(2), m.Snapshot().RPCRetries)
}

func TestClient_Request_NeverRetriesSigning(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	c := newTestClient(server.URL, &metrics.Metrics{})

	_, err := c.Request(context.Background(), "personal_sign", "0x00", "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed")
	require.Error(t, err)
	assert.True(t, IsRetryable(err))
	assert.Equal(t, int32(1), calls.Load())
}

func TestClient_Request_RateLimited(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Retry-After", "1")
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	c := newTestClient(server.URL, &metrics.Metrics{})

	_, err := c.Request(context.Background(), "eth_sendRawTransaction", "0x00")
	require.ErrorIs(t, err, ErrRateLimited)
	assert.Contains(t, err.Error(), "retry after 1s")
}

func TestClient_Request_InvalidResponse(t *testing.T) {
	t.Parallel()

	t.Run("not json", func(t *testing.T) {
		t.Parallel()
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte("<html>oops</html>"))
		}))
		defer server.Close()

		_, err := newTestClient(server.URL, &metrics.Metrics{}).Request(context.Background(), "personal_sign")
		require.ErrorIs(t, err, ErrRPCResponse)
	})

	t.Run("missing result", func(t *testing.T) {
		t.Parallel()
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`{"jsonrpc":"2.0","id":1}`))
		}))
		defer server.Close()

		_, err := newTestClient(server.URL, &metrics.Metrics{}).Request(context.Background(), "personal_sign")
		require.ErrorIs(t, err, ErrRPCResponse)
	})
}

func TestClient_Request_NetworkError(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := server.URL
	server.Close()

	_, err := newTestClient(url, &metrics.Metrics{}).Request(context.Background(), "eth_accounts")
	require.ErrorIs(t, err, wserr.ErrNetworkError)
}

func TestClient_Request_ContextCanceled(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		<-release
	}))
	defer server.Close()
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := newTestClient(server.URL, &metrics.Metrics{}).Request(ctx, "eth_requestAccounts")
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestClient_ImplementsProvider(t *testing.T) {
	t.Parallel()

	server := jsonRPCServer(t, func(string, []any) (any, *walletclient.ProviderError) {
		return "0x2105", nil
	})
	defer server.Close()

	wc, err := walletclient.New(newTestClient(server.URL, &metrics.Metrics{}), walletclient.Base)
	require.NoError(t, err)

	id, err := wc.ChainID(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(8453), id)
}

func TestEndpointKey(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "https://mainnet.infura.io", endpointKey("https://mainnet.infura.io/v3/secret"))
	assert.Equal(t, "http://127.0.0.1:1248", endpointKey("http://127.0.0.1:1248"))
	assert.Equal(t, "not a url", endpointKey("not a url"))
}

func TestIsReadOnly(t *testing.T) {
	t.Parallel()

	assert.True(t, IsReadOnly("eth_chainId"))
	assert.True(t, IsReadOnly("eth_accounts"))
	assert.False(t, IsReadOnly("eth_requestAccounts"))
	assert.False(t, IsReadOnly("personal_sign"))
}
