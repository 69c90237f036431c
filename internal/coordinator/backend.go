package coordinator

import (
	"context"

	"github.com/showtime-xyz/walletsession/internal/walletclient"
)

// Backend identifies which wallet backend drives the session.
type Backend int

// Backends in activation precedence order.
const (
	BackendNone Backend = iota
	BackendEmbedded
	BackendModal
	BackendMobileSDK
)

func (b Backend) String() string {
	switch b {
	case BackendEmbedded:
		return "embedded"
	case BackendModal:
		return "modal"
	case BackendMobileSDK:
		return "mobile_sdk"
	default:
		return "none"
	}
}

// EmbeddedState is a snapshot of the embedded custodial wallet.
type EmbeddedState struct {
	Connected bool
	Provider  walletclient.Provider
}

// ModalState is a snapshot of the connect-via-modal backend.
type ModalState struct {
	Connected bool
	Address   string
	Provider  walletclient.Provider
}

// MobileState is a snapshot of the native mobile wallet SDK.
type MobileState struct {
	Connected bool
	Address   string
	// Name is the wallet's self-reported metadata name, e.g. "CoinbaseWallet".
	Name string
}

// EmbeddedWallet is connected at session restore time; the coordinator
// only observes it.
type EmbeddedWallet interface {
	State() EmbeddedState
	Subscribe(fn func(EmbeddedState)) (unsubscribe func())
}

// ModalWallet opens a pairing flow and exposes an injected provider once
// the user approves.
type ModalWallet interface {
	State() ModalState
	Open(ctx context.Context) error
	Disconnect(ctx context.Context) error
	Subscribe(fn func(ModalState)) (unsubscribe func())
}

// MobileSDK is a native wallet app reached through its SDK.
type MobileSDK interface {
	State() MobileState
	Disconnect(ctx context.Context) error
	PersonalSign(ctx context.Context, message, address string) (string, error)
	// Bridge returns a provider that routes signing through the SDK and
	// everything else to a JSON-RPC node.
	Bridge() walletclient.Provider
	Subscribe(fn func(MobileState)) (unsubscribe func())
}

// Snapshot is the latest known state of all three backends.
type Snapshot struct {
	Embedded EmbeddedState
	Modal    ModalState
	Mobile   MobileState
}

// Active returns the highest precedence connected backend.
func (s Snapshot) Active() Backend {
	switch {
	case s.Embedded.Connected:
		return BackendEmbedded
	case s.Modal.Connected:
		return BackendModal
	case s.Mobile.Connected:
		return BackendMobileSDK
	default:
		return BackendNone
	}
}
