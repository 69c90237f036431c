// Package embedded implements the embedded custodial wallet backend. It is
// connected when a seed is restored from the keystore or a cached session,
// and signs locally with the derived account key.
package embedded

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"sync"

	"github.com/showtime-xyz/walletsession/internal/backend"
	"github.com/showtime-xyz/walletsession/internal/coordinator"
	"github.com/showtime-xyz/walletsession/internal/keystore"
	"github.com/showtime-xyz/walletsession/internal/seal"
	"github.com/showtime-xyz/walletsession/internal/session"
	"github.com/showtime-xyz/walletsession/internal/walletclient"
)

// Resumer returns a cached seed. *session.FileManager implements it.
type Resumer interface {
	Resume(name string) (*seal.Secret, *session.Session, error)
}

// Wallet is the embedded backend.
type Wallet struct {
	chain    walletclient.Chain
	upstream walletclient.Provider

	mu     sync.Mutex
	signer *walletclient.LocalSigner

	observers backend.Observers[coordinator.EmbeddedState]
}

var _ coordinator.EmbeddedWallet = (*Wallet)(nil)

// New returns a locked wallet on chain. Requests the signer cannot answer
// are forwarded to upstream, which may be nil.
func New(chain walletclient.Chain, upstream walletclient.Provider) *Wallet {
	return &Wallet{chain: chain, upstream: upstream}
}

// State implements coordinator.EmbeddedWallet.
func (w *Wallet) State() coordinator.EmbeddedState {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.stateLocked()
}

func (w *Wallet) stateLocked() coordinator.EmbeddedState {
	if w.signer == nil {
		return coordinator.EmbeddedState{}
	}
	return coordinator.EmbeddedState{Connected: true, Provider: w.signer}
}

// Subscribe implements coordinator.EmbeddedWallet.
func (w *Wallet) Subscribe(fn func(coordinator.EmbeddedState)) func() {
	return w.observers.Subscribe(fn)
}

// Address returns the unlocked account or "".
func (w *Wallet) Address() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.signer == nil {
		return ""
	}
	return w.signer.Address()
}

// Restore derives the account key from seed and connects the wallet.
func (w *Wallet) Restore(ctx context.Context, seed []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	key, err := keystore.DeriveKey(seed, 0)
	if err != nil {
		return fmt.Errorf("deriving embedded account: %w", err)
	}
	w.bind(key)
	return nil
}

// RestoreFromSession connects the wallet from a cached session for name.
func (w *Wallet) RestoreFromSession(ctx context.Context, sessions Resumer, name string) (*session.Session, error) {
	secret, sess, err := sessions.Resume(name)
	if err != nil {
		return nil, err
	}
	defer secret.Destroy()

	if err := w.Restore(ctx, secret.Bytes()); err != nil {
		return nil, err
	}
	return sess, nil
}

// Lock disconnects the wallet and drops the key.
func (w *Wallet) Lock() {
	w.mu.Lock()
	if w.signer == nil {
		w.mu.Unlock()
		return
	}
	w.signer = nil
	st := w.stateLocked()
	w.mu.Unlock()

	w.observers.Notify(st)
}

func (w *Wallet) bind(key *ecdsa.PrivateKey) {
	w.mu.Lock()
	w.signer = walletclient.NewLocalSigner(key, w.chain, w.upstream)
	st := w.stateLocked()
	w.mu.Unlock()

	w.observers.Notify(st)
}
