// Package config provides configuration management for walletsession.
package config

import (
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config represents the application configuration.
type Config struct {
	Version  int            `yaml:"version"`
	Home     string         `yaml:"home"`
	E2E      bool           `yaml:"e2e"`
	Chains   ChainsConfig   `yaml:"chains"`
	Modal    ModalConfig    `yaml:"modal"`
	Mobile   MobileConfig   `yaml:"mobile"`
	RPC      RPCConfig      `yaml:"rpc"`
	Security SecurityConfig `yaml:"security"`
	Output   OutputConfig   `yaml:"output"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// ChainsConfig selects the chains wallet clients are bound to.
type ChainsConfig struct {
	// Default is used for modal and mobile SDK clients.
	Default ChainConfig `yaml:"default"`
	// Embedded is used for the embedded wallet client.
	Embedded ChainConfig `yaml:"embedded"`
}

// ChainConfig describes an EVM chain.
type ChainConfig struct {
	ID   int64  `yaml:"id"`
	Name string `yaml:"name"`
	RPC  string `yaml:"rpc"`
}

// ModalConfig defines the connect-via-modal backend settings.
type ModalConfig struct {
	Enabled   bool   `yaml:"enabled"`
	WalletRPC string `yaml:"wallet_rpc"`
	ProjectID string `yaml:"project_id"`
	Relay     string `yaml:"relay"`
	ShowQR    bool   `yaml:"show_qr"`
}

// MobileConfig defines the mobile SDK bridge settings.
type MobileConfig struct {
	Enabled bool `yaml:"enabled"`
	// WalletRPC is the SDK bridge endpoint the wallet app answers on.
	WalletRPC string `yaml:"wallet_rpc"`
	// WalletName is reported as the connected wallet's name.
	WalletName string `yaml:"wallet_name"`
	// JSONRPCURL serves non-signing requests of mobile clients.
	JSONRPCURL string `yaml:"json_rpc_url"`
}

// RPCConfig defines limits for outbound JSON-RPC calls.
type RPCConfig struct {
	RatePerSecond float64 `yaml:"rate_per_second"`
	Burst         int     `yaml:"burst"`
}

// SecurityConfig defines security settings.
type SecurityConfig struct {
	SessionEnabled    bool `yaml:"session_enabled"`
	SessionTTLMinutes int  `yaml:"session_ttl_minutes"`
}

// OutputConfig defines output formatting settings.
type OutputConfig struct {
	DefaultFormat string `yaml:"default_format"`
	Color         string `yaml:"color"`
	Verbose       bool   `yaml:"verbose"`
}

// LoggingConfig defines logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
	JSON  bool   `yaml:"json"`
}

// Load reads configuration from the specified file.
func Load(path string) (*Config, error) {
	// #nosec G304 -- config file path is from validated user input
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := Defaults()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Save writes configuration to the specified file.
func Save(cfg *Config, path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0o600)
}

// Path returns the default config file path.
func Path(home string) string {
	return filepath.Join(home, "config.yaml")
}

// GetHome returns the walletsession home directory path.
func (c *Config) GetHome() string {
	return c.Home
}

// KeystorePath returns the directory holding embedded wallet keystores.
func (c *Config) KeystorePath() string {
	return filepath.Join(c.Home, "keystore")
}

// SessionsPath returns the directory holding session files.
func (c *Config) SessionsPath() string {
	return filepath.Join(c.Home, "sessions")
}

// GetLoggingLevel returns the configured logging level.
func (c *Config) GetLoggingLevel() string {
	return c.Logging.Level
}

// GetLoggingFile returns the configured log file path.
func (c *Config) GetLoggingFile() string {
	return c.Logging.File
}

// GetOutputFormat returns the default output format.
func (c *Config) GetOutputFormat() string {
	return c.Output.DefaultFormat
}

// IsVerbose returns true if verbose output is enabled.
func (c *Config) IsVerbose() bool {
	return c.Output.Verbose
}

// IsE2E returns true when the deterministic test wallet replaces the coordinator.
func (c *Config) IsE2E() bool {
	return c.E2E
}

// GetSecurity returns the security configuration.
func (c *Config) GetSecurity() SecurityConfig {
	return c.Security
}

// DefaultHome returns the default walletsession home directory.
func DefaultHome() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".walletsession"
	}
	return filepath.Join(home, ".walletsession")
}
