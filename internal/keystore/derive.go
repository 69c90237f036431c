package keystore

import (
	"crypto/ecdsa"
	"fmt"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/tyler-smith/go-bip32"
)

// DerivationPath is the BIP44 path of the embedded wallet's account.
const DerivationPath = "m/44'/60'/0'/0/0"

// DeriveKey derives the secp256k1 key at m/44'/60'/0'/0/index from seed.
func DeriveKey(seed []byte, index uint32) (*ecdsa.PrivateKey, error) {
	master, err := bip32.NewMasterKey(seed)
	if err != nil {
		return nil, fmt.Errorf("creating master key: %w", err)
	}

	path := []uint32{
		bip32.FirstHardenedChild + 44,
		bip32.FirstHardenedChild + 60,
		bip32.FirstHardenedChild,
		0,
		index,
	}

	key := master
	for _, child := range path {
		if key, err = key.NewChildKey(child); err != nil {
			return nil, fmt.Errorf("deriving child %d: %w", child, err)
		}
	}

	priv, err := crypto.ToECDSA(key.Key)
	if err != nil {
		return nil, fmt.Errorf("converting key: %w", err)
	}
	return priv, nil
}

// DeriveAddress returns the checksummed address for seed at index.
func DeriveAddress(seed []byte, index uint32) (string, error) {
	key, err := DeriveKey(seed, index)
	if err != nil {
		return "", err
	}
	return crypto.PubkeyToAddress(key.PublicKey).Hex(), nil
}
