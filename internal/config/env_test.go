package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseBool(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input    string
		expected bool
	}{
		{"1", true},
		{"true", true},
		{"YES", true},
		{"on", true},
		{"  true  ", true},
		{"0", false},
		{"false", false},
		{"no", false},
		{"", false},
		{"random", false},
	}

	for _, tc := range tests {
		t.Run(tc.input, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.expected, parseBool(tc.input))
		})
	}
}

func TestSanitizeURL(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"clean", "https://mainnet.infura.io/v3/abc123", "https://mainnet.infura.io/v3/abc123"},
		{"padded", "  https://mainnet.infura.io/v3/abc123  ", "https://mainnet.infura.io/v3/abc123"},
		{"frame", "http://127.0.0.1:1248", "http://127.0.0.1:1248"},
		{"localhost", "http://localhost:8545", "http://localhost:8545"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.expected, SanitizeURL(tc.input))
		})
	}
}

func TestValidateRPCURL(t *testing.T) {
	t.Parallel()

	valid := []string{
		"",
		"https://mainnet.infura.io/v3/abc123",
		"wss://relay.walletconnect.com",
		"http://localhost:8545",
		"http://127.0.0.1:1248",
		"http://[::1]:8545",
	}
	for _, u := range valid {
		assert.NoError(t, ValidateRPCURL(u), u)
	}

	require.ErrorIs(t, ValidateRPCURL("http://example.com:8545"), ErrInsecureRPCURL)

	for _, u := range []string{"javascript:alert(1)", "file:///etc/passwd", "https://"} {
		require.ErrorIs(t, ValidateRPCURL(u), ErrInvalidRPCURL, u)
	}
}

func TestApplyEnvironment(t *testing.T) {
	// Not parallel: modifies environment variables.

	t.Run("home", func(t *testing.T) {
		cfg := Defaults()
		t.Setenv(EnvHome, "/custom/home")
		ApplyEnvironment(cfg)
		assert.Equal(t, "/custom/home", cfg.Home)
	})

	t.Run("endpoints are sanitized", func(t *testing.T) {
		cfg := Defaults()
		t.Setenv(EnvRPCURL, "  https://mainnet.infura.io/v3/test ")
		t.Setenv(EnvWalletRPC, "http://127.0.0.1:1250")
		t.Setenv(EnvMobileRPC, "https://rpc.example.org")
		ApplyEnvironment(cfg)
		assert.Equal(t, "https://mainnet.infura.io/v3/test", cfg.Chains.Default.RPC)
		assert.Equal(t, "http://127.0.0.1:1250", cfg.Modal.WalletRPC)
		assert.Equal(t, "https://rpc.example.org", cfg.Mobile.JSONRPCURL)
	})

	t.Run("e2e flag", func(t *testing.T) {
		cfg := Defaults()
		t.Setenv(EnvE2E, "1")
		ApplyEnvironment(cfg)
		assert.True(t, cfg.IsE2E())
	})

	t.Run("output and logging", func(t *testing.T) {
		cfg := Defaults()
		t.Setenv(EnvOutputFormat, "JSON")
		t.Setenv(EnvVerbose, "yes")
		t.Setenv(EnvLogLevel, "DEBUG")
		t.Setenv(EnvNoColor, "")
		ApplyEnvironment(cfg)
		assert.Equal(t, "json", cfg.Output.DefaultFormat)
		assert.True(t, cfg.Output.Verbose)
		assert.Equal(t, "debug", cfg.Logging.Level)
		assert.Equal(t, "never", cfg.Output.Color)
	})

	t.Run("session ttl", func(t *testing.T) {
		cfg := Defaults()
		t.Setenv(EnvSessionTTL, "30")
		ApplyEnvironment(cfg)
		assert.Equal(t, 30, cfg.Security.SessionTTLMinutes)

		cfg = Defaults()
		t.Setenv(EnvSessionTTL, "-5")
		ApplyEnvironment(cfg)
		assert.Equal(t, 15, cfg.Security.SessionTTLMinutes)
	})
}
