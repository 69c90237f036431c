// Package modal implements the connect-via-modal wallet backend. Open shows
// a pairing URI to the user and asks the wallet provider for accounts; the
// backend is connected once the wallet approves.
package modal

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/showtime-xyz/walletsession/internal/backend"
	"github.com/showtime-xyz/walletsession/internal/coordinator"
	"github.com/showtime-xyz/walletsession/internal/walletclient"
	wserr "github.com/showtime-xyz/walletsession/pkg/errors"
)

// Presenter shows a pairing to the user.
type Presenter interface {
	Present(ctx context.Context, p Pairing) error
}

// PresenterFunc adapts a func to Presenter.
type PresenterFunc func(ctx context.Context, p Pairing) error

// Present implements Presenter.
func (f PresenterFunc) Present(ctx context.Context, p Pairing) error { return f(ctx, p) }

// Dialer returns the wallet provider reached through a pairing.
type Dialer func(ctx context.Context, p Pairing) (walletclient.Provider, error)

// StaticDialer always returns provider.
func StaticDialer(provider walletclient.Provider) Dialer {
	return func(context.Context, Pairing) (walletclient.Provider, error) {
		return provider, nil
	}
}

// Options configures a Wallet.
type Options struct {
	Relay     string
	Chain     walletclient.Chain
	Presenter Presenter
	Dial      Dialer
	Now       func() time.Time
}

// Wallet is the modal backend.
type Wallet struct {
	relay     string
	chain     walletclient.Chain
	presenter Presenter
	dial      Dialer
	now       func() time.Time

	// openMu serializes pairing flows.
	openMu sync.Mutex

	mu       sync.Mutex
	address  string
	provider walletclient.Provider

	observers backend.Observers[coordinator.ModalState]
}

var _ coordinator.ModalWallet = (*Wallet)(nil)

// New returns a disconnected modal wallet.
func New(opts Options) *Wallet {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Chain == (walletclient.Chain{}) {
		opts.Chain = walletclient.Mainnet
	}
	return &Wallet{
		relay:     opts.Relay,
		chain:     opts.Chain,
		presenter: opts.Presenter,
		dial:      opts.Dial,
		now:       opts.Now,
	}
}

// State implements coordinator.ModalWallet.
func (w *Wallet) State() coordinator.ModalState {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.stateLocked()
}

func (w *Wallet) stateLocked() coordinator.ModalState {
	if w.provider == nil {
		return coordinator.ModalState{}
	}
	return coordinator.ModalState{Connected: true, Address: w.address, Provider: w.provider}
}

// Subscribe implements coordinator.ModalWallet.
func (w *Wallet) Subscribe(fn func(coordinator.ModalState)) func() {
	return w.observers.Subscribe(fn)
}

// Open runs a pairing flow. When already connected it re-announces the
// current state instead. On failure the wallet stays disconnected.
func (w *Wallet) Open(ctx context.Context) error {
	w.openMu.Lock()
	defer w.openMu.Unlock()

	if st := w.State(); st.Connected {
		w.observers.Notify(st)
		return nil
	}
	if w.dial == nil {
		return wserr.WithSuggestion(wserr.ErrNotConnected, "set modal.wallet_rpc in config.yaml")
	}

	pairing, err := NewPairing(w.relay, w.now())
	if err != nil {
		return err
	}

	if w.presenter != nil {
		if err := w.presenter.Present(ctx, pairing); err != nil {
			return err
		}
	}

	ctx, cancel := context.WithDeadline(ctx, pairing.ExpiresAt)
	defer cancel()

	provider, err := w.dial(ctx, pairing)
	if err != nil {
		return err
	}
	client, err := walletclient.New(provider, w.chain)
	if err != nil {
		return err
	}

	addrs, err := client.RequestAddresses(ctx)
	if err != nil {
		return err
	}
	if len(addrs) == 0 {
		return wserr.Wrap(wserr.ErrNotConnected, "wallet returned no accounts")
	}

	w.connect(addrs[0], provider)
	return nil
}

// Resume reconnects without a pairing flow when the wallet provider already
// authorizes an account. It reports whether the wallet is connected.
func (w *Wallet) Resume(ctx context.Context) (bool, error) {
	w.openMu.Lock()
	defer w.openMu.Unlock()

	if w.State().Connected {
		return true, nil
	}
	if w.dial == nil {
		return false, nil
	}

	provider, err := w.dial(ctx, Pairing{Relay: w.relay, ExpiresAt: w.now().Add(PairingTTL)})
	if err != nil {
		return false, err
	}
	client, err := walletclient.New(provider, w.chain)
	if err != nil {
		return false, err
	}
	addrs, err := client.GetAddresses(ctx)
	if err != nil || len(addrs) == 0 {
		return false, err
	}

	w.connect(addrs[0], provider)
	return true, nil
}

func (w *Wallet) connect(address string, provider walletclient.Provider) {
	w.mu.Lock()
	w.address = address
	w.provider = provider
	st := w.stateLocked()
	w.mu.Unlock()

	w.observers.Notify(st)
}

// Disconnect drops the provider and announces the disconnected state, then
// asks the wallet to revoke the account permission so a later Resume does
// not reconnect. Wallets without revocation are treated as disconnected.
func (w *Wallet) Disconnect(ctx context.Context) error {
	w.mu.Lock()
	provider := w.provider
	w.address = ""
	w.provider = nil
	st := w.stateLocked()
	w.mu.Unlock()

	w.observers.Notify(st)

	if provider == nil {
		return nil
	}
	_, err := provider.Request(ctx, "wallet_revokePermissions", map[string]any{"eth_accounts": map[string]any{}})
	if errors.Is(err, wserr.ErrUnsupportedMethod) {
		return nil
	}
	return err
}
