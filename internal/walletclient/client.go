package walletclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"

	wserr "github.com/showtime-xyz/walletsession/pkg/errors"
)

// ErrNilProvider is returned when a client is built without a provider.
var ErrNilProvider = errors.New("walletclient: nil provider")

// Client is a provider bound to a chain.
type Client struct {
	provider Provider
	chain    Chain
}

// New binds provider to chain.
func New(provider Provider, chain Chain) (*Client, error) {
	if provider == nil {
		return nil, ErrNilProvider
	}
	return &Client{provider: provider, chain: chain}, nil
}

// Chain returns the chain the client is bound to.
func (c *Client) Chain() Chain {
	return c.chain
}

// Provider returns the underlying provider.
func (c *Client) Provider() Provider {
	return c.provider
}

// Request forwards a raw request to the provider.
func (c *Client) Request(ctx context.Context, method string, params ...any) (json.RawMessage, error) {
	return c.provider.Request(ctx, method, params...)
}

// GetAddresses returns the accounts the provider exposes (eth_accounts),
// checksummed. It never prompts the user.
func (c *Client) GetAddresses(ctx context.Context) ([]string, error) {
	return c.addresses(ctx, "eth_accounts")
}

// RequestAddresses asks the provider to authorize accounts (eth_requestAccounts).
func (c *Client) RequestAddresses(ctx context.Context) ([]string, error) {
	return c.addresses(ctx, "eth_requestAccounts")
}

func (c *Client) addresses(ctx context.Context, method string) ([]string, error) {
	raw, err := c.provider.Request(ctx, method)
	if err != nil {
		return nil, err
	}

	var accounts []string
	if err := json.Unmarshal(raw, &accounts); err != nil {
		return nil, fmt.Errorf("parsing %s result: %w", method, err)
	}

	out := make([]string, 0, len(accounts))
	for _, a := range accounts {
		if !common.IsHexAddress(a) {
			return nil, wserr.WithDetails(wserr.ErrInvalidAddress, map[string]string{"address": a})
		}
		out = append(out, common.HexToAddress(a).Hex())
	}
	return out, nil
}

// ChainID asks the provider which chain it is on.
func (c *Client) ChainID(ctx context.Context) (int64, error) {
	raw, err := c.provider.Request(ctx, "eth_chainId")
	if err != nil {
		return 0, err
	}

	var hexID string
	if err := json.Unmarshal(raw, &hexID); err != nil {
		return 0, fmt.Errorf("parsing chain id: %w", err)
	}

	id, err := strconv.ParseInt(strings.TrimPrefix(hexID, "0x"), 16, 64)
	if err != nil {
		return 0, fmt.Errorf("parsing chain id %q: %w", hexID, err)
	}
	return id, nil
}

// SignMessage requests an EIP-191 personal_sign of message by account and
// returns the 0x-prefixed 65 byte signature.
func (c *Client) SignMessage(ctx context.Context, account, message string) (string, error) {
	if !common.IsHexAddress(account) {
		return "", wserr.WithDetails(wserr.ErrInvalidAddress, map[string]string{"address": account})
	}

	raw, err := c.provider.Request(ctx, "personal_sign", hexutil.Encode([]byte(message)), account)
	if err != nil {
		return "", err
	}

	var sig string
	if err := json.Unmarshal(raw, &sig); err != nil {
		return "", fmt.Errorf("parsing signature: %w", err)
	}
	if _, err := hexutil.Decode(sig); err != nil {
		return "", wserr.Wrap(wserr.ErrInvalidSignature, "provider returned %q", sig)
	}
	return sig, nil
}
