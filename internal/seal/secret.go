package seal

import (
	"crypto/rand"
	"io"
	"runtime"
	"sync"
)

// Reader is the randomness source for keys, session tokens and pairing secrets.
//
//nolint:gochecknoglobals // Package-level RNG is swapped in tests
var Reader io.Reader = rand.Reader

// RandomBytes returns n bytes from Reader.
func RandomBytes(n int) ([]byte, error) {
	b := make([]byte, n)
	if _, err := io.ReadFull(Reader, b); err != nil {
		return nil, err
	}
	return b, nil
}

// Zero overwrites b with zeros.
func Zero(b []byte) {
	for i := range b {
		b[i] = 0
	}
}

// Secret holds sensitive bytes (a wallet seed, a private key) in memory that
// is locked where the platform allows and zeroed on Destroy.
type Secret struct {
	mu     sync.Mutex
	data   []byte
	locked bool
}

// NewSecret allocates a zeroed Secret of the given size.
func NewSecret(size int) *Secret {
	s := &Secret{data: make([]byte, size)}
	s.locked = mlock(s.data)

	runtime.SetFinalizer(s, func(s *Secret) {
		s.Destroy()
	})

	return s
}

// SecretFrom copies b into a new Secret. The caller still owns b.
func SecretFrom(b []byte) *Secret {
	s := NewSecret(len(b))
	copy(s.data, b)
	return s
}

// Bytes returns the underlying slice, or nil once destroyed.
func (s *Secret) Bytes() []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data
}

// Len returns the number of bytes held.
func (s *Secret) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.data)
}

// Locked reports whether the memory is pinned.
func (s *Secret) Locked() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.locked
}

// Destroy zeroes and unlocks the memory. Safe to call more than once.
func (s *Secret) Destroy() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.data == nil {
		return
	}

	Zero(s.data)
	if s.locked {
		munlock(s.data)
		s.locked = false
	}
	s.data = nil

	runtime.SetFinalizer(s, nil)
}
