// Package seal encrypts wallet secrets at rest and holds them in locked memory.
package seal

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"filippo.io/age"
)

// ErrEmptyPassphrase is returned when sealing or opening with an empty passphrase.
var ErrEmptyPassphrase = errors.New("passphrase is empty")

// scryptWorkFactor is the log2 scrypt cost; 0 keeps the age default.
//
//nolint:gochecknoglobals // lowered only by tests
var scryptWorkFactor int

// SetScryptWorkFactor sets the scrypt cost used by Seal. Tests lower it to
// keep encryption fast; production code never calls it.
func SetScryptWorkFactor(logN int) {
	scryptWorkFactor = logN
}

// Seal encrypts plaintext with an age scrypt recipient derived from passphrase.
func Seal(plaintext []byte, passphrase string) ([]byte, error) {
	if passphrase == "" {
		return nil, ErrEmptyPassphrase
	}

	recipient, err := age.NewScryptRecipient(passphrase)
	if err != nil {
		return nil, fmt.Errorf("creating scrypt recipient: %w", err)
	}
	if scryptWorkFactor > 0 {
		recipient.SetWorkFactor(scryptWorkFactor)
	}

	buf := &bytes.Buffer{}
	w, err := age.Encrypt(buf, recipient)
	if err != nil {
		return nil, fmt.Errorf("initializing encryption: %w", err)
	}

	if _, err := w.Write(plaintext); err != nil {
		return nil, fmt.Errorf("writing encrypted data: %w", err)
	}

	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("finalizing encryption: %w", err)
	}

	return buf.Bytes(), nil
}

// Open decrypts ciphertext produced by Seal.
func Open(ciphertext []byte, passphrase string) ([]byte, error) {
	if passphrase == "" {
		return nil, ErrEmptyPassphrase
	}

	identity, err := age.NewScryptIdentity(passphrase)
	if err != nil {
		return nil, fmt.Errorf("creating scrypt identity: %w", err)
	}

	r, err := age.Decrypt(bytes.NewReader(ciphertext), identity)
	if err != nil {
		return nil, fmt.Errorf("initializing decryption: %w", err)
	}

	plaintext, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading decrypted data: %w", err)
	}

	return plaintext, nil
}

// OpenSecret decrypts ciphertext straight into a Secret and zeroes the
// intermediate buffer.
func OpenSecret(ciphertext []byte, passphrase string) (*Secret, error) {
	plaintext, err := Open(ciphertext, passphrase)
	if err != nil {
		return nil, err
	}
	defer Zero(plaintext)

	return SecretFrom(plaintext), nil
}
