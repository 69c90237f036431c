// Package coordinator reconciles the embedded, modal and mobile SDK wallet
// backends into a single wallet session: one address, one connected flag,
// and one place to connect, disconnect, sign and obtain a client.
package coordinator

import (
	"context"

	"github.com/showtime-xyz/walletsession/internal/walletclient"
)

// SessionState is the derived view of all backends.
type SessionState struct {
	Address   string  `json:"address"`
	Backend   Backend `json:"backend"`
	Connected bool    `json:"connected"`
	Name      string  `json:"name"`
}

// ConnectResult is delivered to Connect callers.
type ConnectResult struct {
	Address    string `json:"address"`
	WalletName string `json:"wallet_name"`
}

// Wallet is the capability consumers program against. It is implemented by
// *Coordinator and by the deterministic testwallet.
type Wallet interface {
	Session() SessionState
	Address() string
	Connected() bool
	Name() string
	Connect(ctx context.Context) (ConnectResult, error)
	Disconnect(ctx context.Context) error
	WalletClient(ctx context.Context) (*walletclient.Client, error)
	SignMessage(ctx context.Context, message string) (string, error)
	Subscribe(fn func(SessionState)) (unsubscribe func())
	Close()
}

// MarshalText renders the backend by name.
func (b Backend) MarshalText() ([]byte, error) {
	return []byte(b.String()), nil
}
