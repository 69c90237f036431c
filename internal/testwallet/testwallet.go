// Package testwallet provides an always-connected wallet backed by a random
// local key. It replaces the coordinator in end-to-end runs.
package testwallet

import (
	"context"
	"crypto/ecdsa"
	"fmt"

	"github.com/ethereum/go-ethereum/crypto"

	"github.com/showtime-xyz/walletsession/internal/coordinator"
	"github.com/showtime-xyz/walletsession/internal/walletclient"
)

// Wallet is a coordinator.Wallet that never leaves the connected state.
type Wallet struct {
	signer *walletclient.LocalSigner
	client *walletclient.Client
}

var _ coordinator.Wallet = (*Wallet)(nil)

// New returns a wallet with a freshly generated key.
func New(chain walletclient.Chain) (*Wallet, error) {
	key, err := crypto.GenerateKey()
	if err != nil {
		return nil, fmt.Errorf("generating key: %w", err)
	}
	return NewFromKey(key, chain)
}

// NewFromKey returns a wallet for key.
func NewFromKey(key *ecdsa.PrivateKey, chain walletclient.Chain) (*Wallet, error) {
	signer := walletclient.NewLocalSigner(key, chain, nil)
	client, err := walletclient.New(signer, chain)
	if err != nil {
		return nil, err
	}
	return &Wallet{signer: signer, client: client}, nil
}

// Session implements coordinator.Wallet.
func (w *Wallet) Session() coordinator.SessionState {
	return coordinator.SessionState{
		Address:   w.signer.Address(),
		Backend:   coordinator.BackendEmbedded,
		Connected: true,
	}
}

// Address implements coordinator.Wallet.
func (w *Wallet) Address() string { return w.signer.Address() }

// Connected implements coordinator.Wallet.
func (w *Wallet) Connected() bool { return true }

// Name implements coordinator.Wallet.
func (w *Wallet) Name() string { return "" }

// Connect resolves immediately with the wallet's address.
func (w *Wallet) Connect(context.Context) (coordinator.ConnectResult, error) {
	return coordinator.ConnectResult{Address: w.signer.Address()}, nil
}

// Disconnect is a no-op.
func (w *Wallet) Disconnect(context.Context) error { return nil }

// WalletClient implements coordinator.Wallet.
func (w *Wallet) WalletClient(context.Context) (*walletclient.Client, error) {
	return w.client, nil
}

// SignMessage signs message with the local key.
func (w *Wallet) SignMessage(_ context.Context, message string) (string, error) {
	return w.signer.SignText([]byte(message))
}

// Subscribe implements coordinator.Wallet. The state never changes.
func (w *Wallet) Subscribe(func(coordinator.SessionState)) func() {
	return func() {}
}

// Close implements coordinator.Wallet.
func (w *Wallet) Close() {}
