package coordinator

import (
	"context"
	"fmt"

	"github.com/showtime-xyz/walletsession/internal/walletclient"
)

// Adapter builds a wallet client for one backend from a snapshot.
type Adapter func(ctx context.Context, snap Snapshot) (*walletclient.Client, error)

// Chains selects the chain each backend's client is bound to.
type Chains struct {
	// Embedded is used for the embedded wallet.
	Embedded walletclient.Chain
	// Default is used for the modal and mobile SDK backends.
	Default walletclient.Chain
}

// DefaultChains binds the embedded wallet to Base and everything else to mainnet.
func DefaultChains() Chains {
	return Chains{Embedded: walletclient.Base, Default: walletclient.Mainnet}
}

// AdapterFactory maps backend variants to client adapters.
type AdapterFactory struct {
	adapters map[Backend]Adapter
}

// NewAdapterFactory returns a factory with the stock adapters registered.
// mobile may be nil when no mobile SDK is configured.
func NewAdapterFactory(chains Chains, mobile MobileSDK) *AdapterFactory {
	f := &AdapterFactory{adapters: make(map[Backend]Adapter)}

	f.Register(BackendEmbedded, func(_ context.Context, snap Snapshot) (*walletclient.Client, error) {
		if !snap.Embedded.Connected || snap.Embedded.Provider == nil {
			return nil, nil
		}
		return walletclient.New(snap.Embedded.Provider, chains.Embedded)
	})

	f.Register(BackendModal, func(_ context.Context, snap Snapshot) (*walletclient.Client, error) {
		if !snap.Modal.Connected || snap.Modal.Provider == nil {
			return nil, nil
		}
		return walletclient.New(snap.Modal.Provider, chains.Default)
	})

	f.Register(BackendMobileSDK, func(_ context.Context, snap Snapshot) (*walletclient.Client, error) {
		if mobile == nil || !snap.Mobile.Connected || snap.Mobile.Address == "" {
			return nil, nil
		}
		bridge := mobile.Bridge()
		if bridge == nil {
			return nil, ErrNoProvider
		}
		return walletclient.New(bridge, chains.Default)
	})

	return f
}

// Register installs or replaces the adapter for b.
func (f *AdapterFactory) Register(b Backend, a Adapter) {
	f.adapters[b] = a
}

// Build returns a client for b, or nil when b cannot currently produce one.
func (f *AdapterFactory) Build(ctx context.Context, b Backend, snap Snapshot) (*walletclient.Client, error) {
	a, ok := f.adapters[b]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNoAdapter, b)
	}
	return a(ctx, snap)
}
