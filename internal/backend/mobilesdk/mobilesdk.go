// Package mobilesdk implements the native mobile wallet backend. The wallet
// app is reached through an SDK; signing goes to the app and read calls go
// to a JSON-RPC node.
package mobilesdk

import (
	"context"
	"sync"

	"github.com/showtime-xyz/walletsession/internal/backend"
	"github.com/showtime-xyz/walletsession/internal/coordinator"
	"github.com/showtime-xyz/walletsession/internal/walletclient"
	wserr "github.com/showtime-xyz/walletsession/pkg/errors"
)

// Metadata describes the wallet app.
type Metadata struct {
	Name string `json:"name"`
}

// SDK is the wallet app's native surface.
type SDK interface {
	// Connect asks the app for an account.
	Connect(ctx context.Context) (address string, err error)
	// Accounts returns the already authorized accounts without prompting.
	Accounts(ctx context.Context) ([]string, error)
	Disconnect(ctx context.Context) error
	PersonalSign(ctx context.Context, message, address string) (string, error)
	Metadata() Metadata
}

// Wallet is the mobile SDK backend.
type Wallet struct {
	sdk SDK
	rpc walletclient.Provider

	mu    sync.Mutex
	state coordinator.MobileState

	bridgeOnce sync.Once
	bridge     *BridgeProvider

	observers backend.Observers[coordinator.MobileState]
}

var _ coordinator.MobileSDK = (*Wallet)(nil)

// New wraps sdk. rpc serves requests the app does not handle and may be nil.
func New(sdk SDK, rpc walletclient.Provider) *Wallet {
	return &Wallet{sdk: sdk, rpc: rpc}
}

// State implements coordinator.MobileSDK.
func (w *Wallet) State() coordinator.MobileState {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

// Subscribe implements coordinator.MobileSDK.
func (w *Wallet) Subscribe(fn func(coordinator.MobileState)) func() {
	return w.observers.Subscribe(fn)
}

// Connect asks the app for an account and announces the connected state.
func (w *Wallet) Connect(ctx context.Context) (string, error) {
	addr, err := w.sdk.Connect(ctx)
	if err != nil {
		return "", err
	}
	if addr == "" {
		return "", wserr.Wrap(wserr.ErrNotConnected, "wallet app returned no account")
	}

	w.set(coordinator.MobileState{Connected: true, Address: addr, Name: w.sdk.Metadata().Name})
	return addr, nil
}

// Resume restores a session the app still authorizes. It reports whether
// the wallet is connected.
func (w *Wallet) Resume(ctx context.Context) (bool, error) {
	if w.State().Connected {
		return true, nil
	}
	accounts, err := w.sdk.Accounts(ctx)
	if err != nil || len(accounts) == 0 {
		return false, err
	}

	w.set(coordinator.MobileState{Connected: true, Address: accounts[0], Name: w.sdk.Metadata().Name})
	return true, nil
}

// Disconnect ends the app session. The disconnected state is announced
// even when the app reports an error.
func (w *Wallet) Disconnect(ctx context.Context) error {
	err := w.sdk.Disconnect(ctx)
	w.set(coordinator.MobileState{})
	return err
}

// PersonalSign implements coordinator.MobileSDK.
func (w *Wallet) PersonalSign(ctx context.Context, message, address string) (string, error) {
	return w.sdk.PersonalSign(ctx, message, address)
}

// Bridge implements coordinator.MobileSDK.
func (w *Wallet) Bridge() walletclient.Provider {
	w.bridgeOnce.Do(func() {
		w.bridge = &BridgeProvider{wallet: w, rpc: w.rpc}
	})
	return w.bridge
}

func (w *Wallet) set(st coordinator.MobileState) {
	w.mu.Lock()
	w.state = st
	w.mu.Unlock()

	w.observers.Notify(st)
}
