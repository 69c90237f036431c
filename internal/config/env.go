package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/mrz1836/go-sanitize"
)

// Environment variable names.
const (
	EnvHome         = "WALLETSESSION_HOME"
	EnvRPCURL       = "WALLETSESSION_RPC_URL"
	EnvWalletRPC    = "WALLETSESSION_WALLET_RPC"
	EnvMobileRPC    = "WALLETSESSION_MOBILE_RPC"
	EnvOutputFormat = "WALLETSESSION_OUTPUT_FORMAT"
	EnvVerbose      = "WALLETSESSION_VERBOSE"
	EnvLogLevel     = "WALLETSESSION_LOG_LEVEL"
	EnvE2E          = "WALLETSESSION_E2E"
	EnvSessionTTL   = "WALLETSESSION_SESSION_TTL"
	EnvNoColor      = "NO_COLOR"
)

// ApplyEnvironment applies environment variable overrides to the configuration.
//
//nolint:gocognit,gocyclo // Environment variable overrides require sequential checks
func ApplyEnvironment(cfg *Config) {
	if v := os.Getenv(EnvHome); v != "" {
		cfg.Home = v
	}

	if v := os.Getenv(EnvRPCURL); v != "" {
		cfg.Chains.Default.RPC = SanitizeURL(v)
	}

	if v := os.Getenv(EnvWalletRPC); v != "" {
		cfg.Modal.WalletRPC = SanitizeURL(v)
	}

	if v := os.Getenv(EnvMobileRPC); v != "" {
		cfg.Mobile.JSONRPCURL = SanitizeURL(v)
	}

	if v := os.Getenv(EnvOutputFormat); v != "" {
		cfg.Output.DefaultFormat = strings.ToLower(v)
	}

	if v := os.Getenv(EnvVerbose); v != "" {
		cfg.Output.Verbose = parseBool(v)
	}

	if v := os.Getenv(EnvLogLevel); v != "" {
		cfg.Logging.Level = strings.ToLower(v)
	}

	if v := os.Getenv(EnvE2E); v != "" {
		cfg.E2E = parseBool(v)
	}

	if _, ok := os.LookupEnv(EnvNoColor); ok {
		cfg.Output.Color = "never"
	}

	// minutes
	if v := os.Getenv(EnvSessionTTL); v != "" {
		if ttl, err := strconv.Atoi(v); err == nil && ttl > 0 {
			cfg.Security.SessionTTLMinutes = ttl
		}
	}
}

// parseBool parses a boolean string value.
func parseBool(s string) bool {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "1" || s == "true" || s == "yes" || s == "on" {
		return true
	}
	b, _ := strconv.ParseBool(s)
	return b
}

// SanitizeURL cleans a URL string by removing invalid characters and trimming whitespace.
// Pasted RPC endpoints often carry stray quotes or newlines.
func SanitizeURL(url string) string {
	return sanitize.URL(strings.TrimSpace(url))
}
