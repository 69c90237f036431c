package mobilesdk

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/ethereum/go-ethereum/common"

	"github.com/showtime-xyz/walletsession/internal/walletclient"
)

// BridgeProvider adapts the mobile backend to walletclient.Provider: account
// and signing requests go to the app, everything else to the JSON-RPC node.
type BridgeProvider struct {
	wallet *Wallet
	rpc    walletclient.Provider
}

// Request implements walletclient.Provider.
func (b *BridgeProvider) Request(ctx context.Context, method string, params ...any) (json.RawMessage, error) {
	switch method {
	case "eth_accounts":
		return json.Marshal(b.accounts())
	case "eth_requestAccounts":
		if accounts := b.accounts(); len(accounts) > 0 {
			return json.Marshal(accounts)
		}
		addr, err := b.wallet.Connect(ctx)
		if err != nil {
			return nil, err
		}
		return json.Marshal([]string{addr})
	case "personal_sign":
		return b.personalSign(ctx, params)
	}

	if b.rpc == nil {
		return nil, &walletclient.ProviderError{
			Code:    walletclient.CodeUnsupportedMethod,
			Message: "method not supported: " + method,
		}
	}
	return b.rpc.Request(ctx, method, params...)
}

func (b *BridgeProvider) accounts() []string {
	st := b.wallet.State()
	if !st.Connected || st.Address == "" {
		return []string{}
	}
	return []string{st.Address}
}

func (b *BridgeProvider) personalSign(ctx context.Context, params []any) (json.RawMessage, error) {
	if len(params) < 2 {
		return nil, invalidParams("personal_sign expects [message, address]")
	}
	data, ok := params[0].(string)
	if !ok {
		return nil, invalidParams("message must be a string")
	}
	address, ok := params[1].(string)
	if !ok || !common.IsHexAddress(address) {
		return nil, invalidParams("address must be a hex address")
	}

	st := b.wallet.State()
	if !st.Connected || !strings.EqualFold(st.Address, address) {
		return nil, &walletclient.ProviderError{
			Code:    walletclient.CodeUnauthorized,
			Message: "account not connected: " + address,
		}
	}

	message := string(walletclient.DecodeMessageParam(data))
	sig, err := b.wallet.PersonalSign(ctx, message, st.Address)
	if err != nil {
		return nil, err
	}
	return json.Marshal(sig)
}

func invalidParams(msg string) error {
	return &walletclient.ProviderError{Code: walletclient.CodeInvalidParams, Message: msg}
}
