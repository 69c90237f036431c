package session

import (
	"github.com/zalando/go-keyring"
)

// OSKeyring stores secrets in the platform keychain (macOS Keychain,
// Secret Service, Windows Credential Manager).
type OSKeyring struct{}

// NewOSKeyring returns the platform keychain.
func NewOSKeyring() *OSKeyring {
	return &OSKeyring{}
}

// Set stores a secret.
func (OSKeyring) Set(service, user, password string) error {
	return keyring.Set(service, user, password)
}

// Get retrieves a secret.
func (OSKeyring) Get(service, user string) (string, error) {
	return keyring.Get(service, user)
}

// Delete removes a secret.
func (OSKeyring) Delete(service, user string) error {
	return keyring.Delete(service, user)
}

// probe round-trips a throwaway value through k.
func probe(k Keyring) bool {
	const (
		service = "walletsession-probe"
		user    = "probe"
		value   = "ok"
	)

	if err := k.Set(service, user, value); err != nil {
		return false
	}
	got, err := k.Get(service, user)
	_ = k.Delete(service, user)
	return err == nil && got == value
}
