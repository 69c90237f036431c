package config

// Default chain endpoints. PublicNode and Base require no API key.
const (
	DefaultMainnetRPCURL = "https://ethereum-rpc.publicnode.com"
	DefaultBaseRPCURL    = "https://mainnet.base.org"

	// DefaultWalletRPC is the local injected-provider endpoint used by the
	// modal backend (Frame listens here by default).
	DefaultWalletRPC = "http://127.0.0.1:1248"

	// DefaultMobileWalletRPC is the mobile SDK bridge endpoint.
	DefaultMobileWalletRPC = "http://127.0.0.1:1249"

	// DefaultMobileWalletName is the metadata name of the mobile wallet.
	DefaultMobileWalletName = "CoinbaseWallet"

	// DefaultRelay is the pairing relay advertised in pairing URIs.
	DefaultRelay = "wss://relay.walletconnect.com"
)

// Defaults returns the default configuration.
func Defaults() *Config {
	return &Config{
		Version: 1,
		Home:    "~/.walletsession",
		E2E:     false,
		Chains: ChainsConfig{
			Default: ChainConfig{
				ID:   1,
				Name: "mainnet",
				RPC:  DefaultMainnetRPCURL,
			},
			Embedded: ChainConfig{
				ID:   8453,
				Name: "base",
				RPC:  DefaultBaseRPCURL,
			},
		},
		Modal: ModalConfig{
			Enabled:   true,
			WalletRPC: DefaultWalletRPC,
			Relay:     DefaultRelay,
			ShowQR:    true,
		},
		Mobile: MobileConfig{
			Enabled:    false, // no native SDK on desktop
			WalletRPC:  DefaultMobileWalletRPC,
			WalletName: DefaultMobileWalletName,
			JSONRPCURL: DefaultMainnetRPCURL,
		},
		RPC: RPCConfig{
			RatePerSecond: 5,
			Burst:         10,
		},
		Security: SecurityConfig{
			SessionEnabled:    true,
			SessionTTLMinutes: 15,
		},
		Output: OutputConfig{
			DefaultFormat: "auto",
			Color:         "auto",
			Verbose:       false,
		},
		Logging: LoggingConfig{
			Level: "error",
			File:  "~/.walletsession/walletsession.log",
		},
	}
}
