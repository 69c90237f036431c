package seal

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/chacha20poly1305"
)

// KeySize is the length of keys accepted by SealWithKey.
const KeySize = chacha20poly1305.KeySize

var (
	// ErrInvalidKey is returned for keys that are not KeySize bytes.
	ErrInvalidKey = errors.New("invalid key length")

	// ErrCiphertext is returned when a sealed blob is truncated or fails authentication.
	ErrCiphertext = errors.New("ciphertext cannot be opened")
)

// SealWithKey encrypts plaintext with XChaCha20-Poly1305 under a random
// 32 byte key. The nonce is prepended to the result. Use Seal for
// passphrases; random keys need no key stretching.
func SealWithKey(plaintext, key []byte) ([]byte, error) {
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, fmt.Errorf("%w: %d bytes", ErrInvalidKey, len(key))
	}

	nonce, err := RandomBytes(aead.NonceSize())
	if err != nil {
		return nil, fmt.Errorf("generating nonce: %w", err)
	}
	return aead.Seal(nonce, nonce, plaintext, nil), nil
}

// OpenWithKeySecret decrypts a blob produced by SealWithKey into a Secret.
func OpenWithKeySecret(ciphertext, key []byte) (*Secret, error) {
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, fmt.Errorf("%w: %d bytes", ErrInvalidKey, len(key))
	}
	if len(ciphertext) < aead.NonceSize()+aead.Overhead() {
		return nil, ErrCiphertext
	}

	nonce, body := ciphertext[:aead.NonceSize()], ciphertext[aead.NonceSize():]
	plaintext, err := aead.Open(nil, nonce, body, nil)
	if err != nil {
		return nil, ErrCiphertext
	}
	defer Zero(plaintext)
	return SecretFrom(plaintext), nil
}
