package embedded

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/showtime-xyz/walletsession/internal/coordinator"
	"github.com/showtime-xyz/walletsession/internal/keystore"
	"github.com/showtime-xyz/walletsession/internal/seal"
	"github.com/showtime-xyz/walletsession/internal/session"
	"github.com/showtime-xyz/walletsession/internal/walletclient"
)

const (
	testMnemonic = "abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon about"
	testAddress  = "0x9858EfFD232B4033E47d90003D41EC34EcaEda94"
)

func testSeed(t *testing.T) []byte {
	t.Helper()
	seed, err := keystore.MnemonicToSeed(testMnemonic, "")
	require.NoError(t, err)
	return seed
}

type fakeResumer struct {
	seed []byte
	err  error
}

func (f fakeResumer) Resume(name string) (*seal.Secret, *session.Session, error) {
	if f.err != nil {
		return nil, nil, f.err
	}
	return seal.SecretFrom(f.seed), &session.Session{Name: name, Address: testAddress, ExpiresAt: time.Now().Add(time.Minute)}, nil
}

func TestWallet_RestoreAndLock(t *testing.T) {
	t.Parallel()

	w := New(walletclient.Base, nil)
	assert.Equal(t, coordinator.EmbeddedState{}, w.State())

	var states []coordinator.EmbeddedState
	unsubscribe := w.Subscribe(func(st coordinator.EmbeddedState) { states = append(states, st) })
	defer unsubscribe()

	require.NoError(t, w.Restore(context.Background(), testSeed(t)))
	assert.Equal(t, testAddress, w.Address())

	st := w.State()
	require.True(t, st.Connected)
	require.NotNil(t, st.Provider)

	client, err := walletclient.New(st.Provider, walletclient.Base)
	require.NoError(t, err)
	addrs, err := client.GetAddresses(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{testAddress}, addrs)

	w.Lock()
	w.Lock()
	assert.Empty(t, w.Address())
	assert.False(t, w.State().Connected)

	require.Len(t, states, 2)
	assert.True(t, states[0].Connected)
	assert.False(t, states[1].Connected)
}

func TestWallet_RestoreCanceled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	w := New(walletclient.Base, nil)
	require.ErrorIs(t, w.Restore(ctx, testSeed(t)), context.Canceled)
	assert.False(t, w.State().Connected)
}

func TestWallet_RestoreInvalidSeed(t *testing.T) {
	t.Parallel()

	w := New(walletclient.Base, nil)
	require.Error(t, w.Restore(context.Background(), []byte{1, 2, 3}))
	assert.False(t, w.State().Connected)
}

func TestWallet_RestoreFromSession(t *testing.T) {
	t.Parallel()

	w := New(walletclient.Base, nil)
	sess, err := w.RestoreFromSession(context.Background(), fakeResumer{seed: testSeed(t)}, "default")
	require.NoError(t, err)
	assert.Equal(t, "default", sess.Name)
	assert.Equal(t, testAddress, w.Address())

	_, err = New(walletclient.Base, nil).RestoreFromSession(context.Background(), fakeResumer{err: session.ErrSessionExpired}, "default")
	require.ErrorIs(t, err, session.ErrSessionExpired)
}

func TestWallet_DrivesCoordinator(t *testing.T) {
	t.Parallel()

	w := New(walletclient.Base, nil)
	c := coordinator.New(coordinator.Config{Embedded: w})
	defer c.Close()

	require.NoError(t, w.Restore(context.Background(), testSeed(t)))
	require.Eventually(t, func() bool { return c.Address() == testAddress }, time.Second, 5*time.Millisecond)
	assert.Equal(t, coordinator.BackendEmbedded, c.Session().Backend)

	client, err := c.WalletClient(context.Background())
	require.NoError(t, err)
	assert.Equal(t, walletclient.Base, client.Chain())

	w.Lock()
	assert.False(t, c.Connected())
}
