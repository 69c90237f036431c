// Package session caches an unlocked embedded wallet seed between CLI
// invocations. The seed is sealed with a random key held in the OS keychain
// and written to a session file that expires after a bounded TTL.
package session

import (
	"errors"
	"time"

	"github.com/showtime-xyz/walletsession/internal/seal"
)

// TTL bounds.
const (
	DefaultTTL = 15 * time.Minute
	MaxTTL     = 60 * time.Minute
	MinTTL     = 1 * time.Minute

	// ServiceName is the keychain service session keys are stored under.
	ServiceName = "walletsession-session"
)

var (
	// ErrSessionNotFound indicates no session exists for the keystore.
	ErrSessionNotFound = errors.New("session not found")

	// ErrSessionExpired indicates the session has expired.
	ErrSessionExpired = errors.New("session expired")

	// ErrKeyringUnavailable indicates the OS keychain cannot be used.
	ErrKeyringUnavailable = errors.New("keyring unavailable")

	// ErrSessionCorrupted indicates the session file or key could not be read.
	ErrSessionCorrupted = errors.New("session corrupted")

	// ErrInvalidName indicates a keystore name outside [a-zA-Z0-9_-]{1,64}.
	ErrInvalidName = errors.New("invalid keystore name")
)

// Session is the public metadata of a cached unlock.
type Session struct {
	Name      string    `json:"name"`
	Address   string    `json:"address"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// ValidAt reports whether the session is still live at t.
func (s *Session) ValidAt(t time.Time) bool {
	return t.Before(s.ExpiresAt)
}

// Remaining returns the time left at t, never negative.
func (s *Session) Remaining(t time.Time) time.Duration {
	if d := s.ExpiresAt.Sub(t); d > 0 {
		return d
	}
	return 0
}

// ClampTTL bounds ttl to [MinTTL, MaxTTL].
func ClampTTL(ttl time.Duration) time.Duration {
	return min(max(ttl, MinTTL), MaxTTL)
}

// Manager caches unlocked seeds.
type Manager interface {
	// Available reports whether the keychain can hold session keys.
	Available() bool

	// Start caches seed for name. address is stored as plain metadata.
	Start(name, address string, seed []byte, ttl time.Duration) error

	// Resume returns the cached seed. The caller must Destroy it.
	Resume(name string) (*seal.Secret, *Session, error)

	// Active reports whether an unexpired session exists.
	Active(name string) bool

	// End removes a session. Ending a missing session is not an error.
	End(name string) error

	// EndAll removes every session and returns how many were removed.
	EndAll() int

	// List returns unexpired sessions.
	List() ([]*Session, error)
}

// Keyring stores small secrets.
type Keyring interface {
	Set(service, user, password string) error
	Get(service, user string) (string, error)
	Delete(service, user string) error
}
