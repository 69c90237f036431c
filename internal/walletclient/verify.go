package walletclient

import (
	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"

	wserr "github.com/showtime-xyz/walletsession/pkg/errors"
)

// RecoverAddress returns the address that produced an EIP-191 signature over message.
func RecoverAddress(message, signature string) (string, error) {
	sig, err := hexutil.Decode(signature)
	if err != nil || len(sig) != crypto.SignatureLength {
		return "", wserr.WithDetails(wserr.ErrInvalidSignature, map[string]string{"signature": signature})
	}

	// Yellow paper V is 27/28; wallets also emit 0/1.
	if sig[crypto.RecoveryIDOffset] >= 27 {
		sig[crypto.RecoveryIDOffset] -= 27
	}

	pub, err := crypto.SigToPub(accounts.TextHash([]byte(message)), sig)
	if err != nil {
		return "", wserr.Wrap(wserr.ErrInvalidSignature, "recovering public key")
	}
	return crypto.PubkeyToAddress(*pub).Hex(), nil
}

// VerifyMessage reports whether signature over message was made by address.
func VerifyMessage(address, message, signature string) (bool, error) {
	if !common.IsHexAddress(address) {
		return false, wserr.WithDetails(wserr.ErrInvalidAddress, map[string]string{"address": address})
	}
	recovered, err := RecoverAddress(message, signature)
	if err != nil {
		return false, err
	}
	return common.HexToAddress(address).Hex() == recovered, nil
}
