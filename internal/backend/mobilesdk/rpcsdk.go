package mobilesdk

import (
	"context"
	"errors"

	"github.com/showtime-xyz/walletsession/internal/walletclient"
	wserr "github.com/showtime-xyz/walletsession/pkg/errors"
)

// RPCSDK is an SDK reached over the wallet app's JSON-RPC bridge.
type RPCSDK struct {
	client *walletclient.Client
	meta   Metadata
}

var _ SDK = (*RPCSDK)(nil)

// NewRPCSDK returns an SDK speaking to provider. name is reported as the
// wallet's metadata name.
func NewRPCSDK(provider walletclient.Provider, chain walletclient.Chain, name string) (*RPCSDK, error) {
	client, err := walletclient.New(provider, chain)
	if err != nil {
		return nil, err
	}
	return &RPCSDK{client: client, meta: Metadata{Name: name}}, nil
}

// Connect implements SDK.
func (s *RPCSDK) Connect(ctx context.Context) (string, error) {
	addrs, err := s.client.RequestAddresses(ctx)
	if err != nil {
		return "", err
	}
	if len(addrs) == 0 {
		return "", nil
	}
	return addrs[0], nil
}

// Accounts implements SDK.
func (s *RPCSDK) Accounts(ctx context.Context) ([]string, error) {
	return s.client.GetAddresses(ctx)
}

// Disconnect revokes the account permission. Apps that do not implement
// revocation are treated as disconnected.
func (s *RPCSDK) Disconnect(ctx context.Context) error {
	_, err := s.client.Request(ctx, "wallet_revokePermissions", map[string]any{"eth_accounts": map[string]any{}})
	if errors.Is(err, wserr.ErrUnsupportedMethod) {
		return nil
	}
	return err
}

// PersonalSign implements SDK.
func (s *RPCSDK) PersonalSign(ctx context.Context, message, address string) (string, error) {
	return s.client.SignMessage(ctx, address, message)
}

// Metadata implements SDK.
func (s *RPCSDK) Metadata() Metadata {
	return s.meta
}
