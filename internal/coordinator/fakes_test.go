package coordinator

import (
	"context"
	"encoding/json"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/require"

	"github.com/showtime-xyz/walletsession/internal/walletclient"
)

// feed is an observable backend state.
type feed[T any] struct {
	mu    sync.Mutex
	state T
	subs  map[int]func(T)
	next  int
}

func newFeed[T any](initial T) *feed[T] {
	return &feed[T]{state: initial, subs: make(map[int]func(T))}
}

func (f *feed[T]) State() T {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

func (f *feed[T]) Subscribe(fn func(T)) func() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.next++
	id := f.next
	f.subs[id] = fn
	return func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		delete(f.subs, id)
	}
}

func (f *feed[T]) subscribers() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.subs)
}

// set stores st and notifies subscribers synchronously, outside the lock.
func (f *feed[T]) set(st T) {
	f.mu.Lock()
	f.state = st
	fns := make([]func(T), 0, len(f.subs))
	for _, fn := range f.subs {
		fns = append(fns, fn)
	}
	f.mu.Unlock()
	for _, fn := range fns {
		fn(st)
	}
}

type fakeEmbedded struct {
	*feed[EmbeddedState]
}

func newFakeEmbedded(st EmbeddedState) *fakeEmbedded {
	return &fakeEmbedded{feed: newFeed(st)}
}

type fakeModal struct {
	*feed[ModalState]

	open          func(ctx context.Context) error
	disconnectErr error
	opens         atomic.Int32
	disconnects   atomic.Int32
}

func newFakeModal(st ModalState) *fakeModal {
	return &fakeModal{feed: newFeed(st)}
}

func (m *fakeModal) Open(ctx context.Context) error {
	m.opens.Add(1)
	if m.open != nil {
		return m.open(ctx)
	}
	return nil
}

func (m *fakeModal) Disconnect(context.Context) error {
	m.disconnects.Add(1)
	if m.disconnectErr != nil {
		return m.disconnectErr
	}
	m.set(ModalState{})
	return nil
}

type signCall struct {
	message string
	address string
}

type fakeMobile struct {
	*feed[MobileState]

	bridge        walletclient.Provider
	disconnectErr error
	disconnects   atomic.Int32

	mu    sync.Mutex
	signs []signCall
}

func newFakeMobile(st MobileState) *fakeMobile {
	return &fakeMobile{feed: newFeed(st)}
}

func (m *fakeMobile) Disconnect(context.Context) error {
	m.disconnects.Add(1)
	if m.disconnectErr != nil {
		return m.disconnectErr
	}
	m.set(MobileState{})
	return nil
}

func (m *fakeMobile) PersonalSign(_ context.Context, message, address string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.signs = append(m.signs, signCall{message: message, address: address})
	return "0xmobilesignature", nil
}

func (m *fakeMobile) Bridge() walletclient.Provider {
	return m.bridge
}

func (m *fakeMobile) signCalls() []signCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]signCall(nil), m.signs...)
}

func newSigner(t *testing.T, chain walletclient.Chain) *walletclient.LocalSigner {
	t.Helper()
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	return walletclient.NewLocalSigner(key, chain, nil)
}

// accountsProvider answers eth_accounts with addr once release is closed.
func accountsProvider(addr string, release <-chan struct{}) walletclient.ProviderFunc {
	return func(ctx context.Context, method string, _ ...any) (json.RawMessage, error) {
		if method != "eth_accounts" {
			return nil, &walletclient.ProviderError{Code: walletclient.CodeUnsupportedMethod, Message: method}
		}
		if release != nil {
			select {
			case <-release:
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
		return json.Marshal([]string{addr})
	}
}
