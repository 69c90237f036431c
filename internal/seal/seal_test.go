package seal_test

import (
	"bytes"
	"errors"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/showtime-xyz/walletsession/internal/seal"
)

func TestSealOpen_RoundTrip(t *testing.T) {
	t.Parallel()
	seed := bytes.Repeat([]byte{0x5a}, 64)

	ciphertext, err := seal.Seal(seed, "correct horse battery") // gitleaks:allow
	require.NoError(t, err)
	assert.NotContains(t, string(ciphertext), string(seed))

	plaintext, err := seal.Open(ciphertext, "correct horse battery")
	require.NoError(t, err)
	assert.Equal(t, seed, plaintext)
}

func TestOpen_WrongPassphrase(t *testing.T) {
	t.Parallel()

	ciphertext, err := seal.Seal([]byte("seed"), "right")
	require.NoError(t, err)

	_, err = seal.Open(ciphertext, "wrong")
	require.Error(t, err)
}

func TestSealOpen_EmptyPassphrase(t *testing.T) {
	t.Parallel()

	_, err := seal.Seal([]byte("seed"), "")
	require.ErrorIs(t, err, seal.ErrEmptyPassphrase)

	_, err = seal.Open([]byte("anything"), "")
	require.ErrorIs(t, err, seal.ErrEmptyPassphrase)
}

func TestOpen_Garbage(t *testing.T) {
	t.Parallel()
	_, err := seal.Open([]byte("not an age file"), "pass")
	require.Error(t, err)
}

func TestOpenSecret(t *testing.T) {
	t.Parallel()

	ciphertext, err := seal.Seal([]byte("seed material"), "pass")
	require.NoError(t, err)

	secret, err := seal.OpenSecret(ciphertext, "pass")
	require.NoError(t, err)
	defer secret.Destroy()

	assert.Equal(t, []byte("seed material"), secret.Bytes())
}

func TestSecret_Destroy(t *testing.T) {
	t.Parallel()

	secret := seal.SecretFrom([]byte{1, 2, 3, 4})
	view := secret.Bytes()
	assert.Equal(t, 4, secret.Len())

	secret.Destroy()
	assert.Nil(t, secret.Bytes())
	assert.Equal(t, 0, secret.Len())
	assert.False(t, secret.Locked())
	assert.Equal(t, []byte{0, 0, 0, 0}, view)

	secret.Destroy()
}

func TestSecretFrom_CopiesInput(t *testing.T) {
	t.Parallel()

	src := []byte{9, 9, 9}
	secret := seal.SecretFrom(src)
	defer secret.Destroy()

	src[0] = 0
	assert.Equal(t, byte(9), secret.Bytes()[0])
}

type failingReader struct{}

var errNoEntropy = errors.New("no entropy")

func (failingReader) Read([]byte) (int, error) { return 0, errNoEntropy }

func TestRandomBytes(t *testing.T) { //nolint:paralleltest // swaps package-level Reader
	b, err := seal.RandomBytes(32)
	require.NoError(t, err)
	assert.Len(t, b, 32)

	orig := seal.Reader
	seal.Reader = failingReader{}
	defer func() { seal.Reader = orig }()

	_, err = seal.RandomBytes(8)
	require.ErrorIs(t, err, errNoEntropy)
}

func TestMain(m *testing.M) {
	seal.SetScryptWorkFactor(10)
	os.Exit(m.Run())
}
