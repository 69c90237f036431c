package walletclient

import (
	"context"
	"crypto/ecdsa"
	"encoding/json"
	"strings"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
)

// LocalSigner is a Provider backed by a private key held in process. It
// answers account, chain and signing requests itself and forwards anything
// else to an optional upstream provider.
type LocalSigner struct {
	key      *ecdsa.PrivateKey
	address  common.Address
	chain    Chain
	upstream Provider
}

// NewLocalSigner returns a signer for key on chain. upstream may be nil.
func NewLocalSigner(key *ecdsa.PrivateKey, chain Chain, upstream Provider) *LocalSigner {
	return &LocalSigner{
		key:      key,
		address:  crypto.PubkeyToAddress(key.PublicKey),
		chain:    chain,
		upstream: upstream,
	}
}

// Address returns the checksummed signer address.
func (s *LocalSigner) Address() string {
	return s.address.Hex()
}

// Request implements Provider.
func (s *LocalSigner) Request(ctx context.Context, method string, params ...any) (json.RawMessage, error) {
	switch method {
	case "eth_accounts", "eth_requestAccounts":
		return marshalResult([]string{s.address.Hex()})
	case "eth_chainId":
		return marshalResult(s.chain.HexID())
	case "personal_sign":
		return s.personalSign(params)
	default:
		if s.upstream == nil {
			return nil, unsupported(method)
		}
		return s.upstream.Request(ctx, method, params...)
	}
}

func (s *LocalSigner) personalSign(params []any) (json.RawMessage, error) {
	data, ok := stringParam(params, 0)
	if !ok {
		return nil, invalidParams("personal_sign: missing message")
	}
	account, ok := stringParam(params, 1)
	if !ok || !common.IsHexAddress(account) {
		return nil, invalidParams("personal_sign: missing or invalid account")
	}
	if common.HexToAddress(account) != s.address {
		return nil, &ProviderError{Code: CodeUnauthorized, Message: "account not managed by this signer"}
	}

	sig, err := s.SignText(DecodeMessageParam(data))
	if err != nil {
		return nil, err
	}
	return marshalResult(sig)
}

// SignText produces an EIP-191 signature over data with V in {27, 28}.
func (s *LocalSigner) SignText(data []byte) (string, error) {
	sig, err := crypto.Sign(accounts.TextHash(data), s.key)
	if err != nil {
		return "", err
	}
	sig[crypto.RecoveryIDOffset] += 27
	return hexutil.Encode(sig), nil
}

// DecodeMessageParam interprets a personal_sign message parameter: 0x hex is
// decoded to bytes, anything else is taken as UTF-8 text.
func DecodeMessageParam(data string) []byte {
	if strings.HasPrefix(data, "0x") || strings.HasPrefix(data, "0X") {
		if b, err := hexutil.Decode("0x" + data[2:]); err == nil {
			return b
		}
	}
	return []byte(data)
}
