package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"strings"
)

var (
	// ErrInvalidRPCURL indicates the URL cannot be used as a JSON-RPC endpoint.
	ErrInvalidRPCURL = errors.New("invalid RPC URL")

	// ErrInsecureRPCURL indicates a plaintext URL pointing at a remote host.
	ErrInsecureRPCURL = errors.New("insecure RPC URL: plain http is only allowed for loopback hosts")

	// ErrInvalidConfig indicates an out-of-range setting.
	ErrInvalidConfig = errors.New("invalid configuration")
)

// ValidateRPCURL checks that an endpoint uses http(s) or ws(s). Plain http and
// ws are only accepted for loopback hosts, which is where injected wallet
// providers listen. An empty URL is valid and means "not configured".
func ValidateRPCURL(raw string) error {
	if raw == "" {
		return nil
	}

	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidRPCURL, err)
	}

	switch strings.ToLower(u.Scheme) {
	case "https", "wss":
		if u.Host == "" {
			return fmt.Errorf("%w: missing host", ErrInvalidRPCURL)
		}
		return nil
	case "http", "ws":
		if u.Host == "" {
			return fmt.Errorf("%w: missing host", ErrInvalidRPCURL)
		}
		if !isLoopback(u.Hostname()) {
			return ErrInsecureRPCURL
		}
		return nil
	default:
		return fmt.Errorf("%w: unsupported scheme %q", ErrInvalidRPCURL, u.Scheme)
	}
}

func isLoopback(host string) bool {
	if strings.EqualFold(host, "localhost") {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}

// Validate checks endpoint URLs and numeric settings.
func (c *Config) Validate() error {
	endpoints := []struct {
		key string
		url string
	}{
		{"chains.default.rpc", c.Chains.Default.RPC},
		{"chains.embedded.rpc", c.Chains.Embedded.RPC},
		{"modal.wallet_rpc", c.Modal.WalletRPC},
		{"mobile.wallet_rpc", c.Mobile.WalletRPC},
		{"mobile.json_rpc_url", c.Mobile.JSONRPCURL},
	}
	for _, e := range endpoints {
		if err := ValidateRPCURL(e.url); err != nil {
			return fmt.Errorf("%s: %w", e.key, err)
		}
	}

	if c.Chains.Default.ID <= 0 || c.Chains.Embedded.ID <= 0 {
		return fmt.Errorf("%w: chain ids must be positive", ErrInvalidConfig)
	}
	if c.RPC.RatePerSecond < 0 || c.RPC.Burst < 0 {
		return fmt.Errorf("%w: rpc limits must not be negative", ErrInvalidConfig)
	}
	if c.Security.SessionTTLMinutes < 0 {
		return fmt.Errorf("%w: session_ttl_minutes must not be negative", ErrInvalidConfig)
	}
	return nil
}
