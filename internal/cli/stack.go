package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/showtime-xyz/walletsession/internal/backend/embedded"
	"github.com/showtime-xyz/walletsession/internal/backend/mobilesdk"
	"github.com/showtime-xyz/walletsession/internal/backend/modal"
	"github.com/showtime-xyz/walletsession/internal/config"
	"github.com/showtime-xyz/walletsession/internal/coordinator"
	"github.com/showtime-xyz/walletsession/internal/output"
	"github.com/showtime-xyz/walletsession/internal/rpc"
	"github.com/showtime-xyz/walletsession/internal/session"
	"github.com/showtime-xyz/walletsession/internal/testwallet"
	"github.com/showtime-xyz/walletsession/internal/walletclient"
)

// walletStack is the wallet a command talks to plus the concrete backends
// behind it. Backends are nil when disabled or in e2e mode.
type walletStack struct {
	wallet   coordinator.Wallet
	embedded *embedded.Wallet
	modal    *modal.Wallet
	mobile   *mobilesdk.Wallet
}

func (s *walletStack) Close() {
	s.wallet.Close()
}

func chainFrom(c config.ChainConfig) walletclient.Chain {
	return walletclient.Chain{ID: c.ID, Name: c.Name, RPC: c.RPC}
}

// buildWalletStack assembles the configured backends. In e2e mode the
// deterministic test wallet replaces the coordinator entirely.
func buildWalletStack(cc *CommandContext) (*walletStack, error) {
	c := cc.Config
	chains := coordinator.Chains{
		Embedded: chainFrom(c.Chains.Embedded),
		Default:  chainFrom(c.Chains.Default),
	}

	if c.IsE2E() {
		cc.Log.Debug("e2e mode: using test wallet")
		w, err := testwallet.New(chains.Embedded)
		if err != nil {
			return nil, err
		}
		return &walletStack{wallet: w}, nil
	}

	limiter := rpc.NewRateLimiter(c.RPC.RatePerSecond, c.RPC.Burst)
	newRPC := func(url string) walletclient.Provider {
		if url == "" {
			return nil
		}
		return rpc.NewClient(url, rpc.WithRateLimiter(limiter), rpc.WithMetrics(cc.Metrics))
	}
	// Wallet endpoints wait on the user, so only ctx bounds them.
	newWalletRPC := func(url string) walletclient.Provider {
		if url == "" {
			return nil
		}
		return rpc.NewClient(url,
			rpc.WithHTTPClient(&http.Client{}),
			rpc.WithRateLimiter(limiter),
			rpc.WithMetrics(cc.Metrics),
		)
	}

	stack := &walletStack{}
	cfg := coordinator.Config{Chains: chains, Logger: cc.Log, Metrics: cc.Metrics}

	stack.embedded = embedded.New(chains.Embedded, newRPC(c.Chains.Embedded.RPC))
	cfg.Embedded = stack.embedded

	if c.Modal.Enabled {
		opts := modal.Options{
			Relay:     c.Modal.Relay,
			Chain:     chains.Default,
			Presenter: pairingPresenter(cc),
		}
		if provider := newWalletRPC(c.Modal.WalletRPC); provider != nil {
			opts.Dial = modal.StaticDialer(provider)
		}
		stack.modal = modal.New(opts)
		cfg.Modal = stack.modal
	}

	if c.Mobile.Enabled {
		sdk, err := mobilesdk.NewRPCSDK(newWalletRPC(c.Mobile.WalletRPC), chains.Default, c.Mobile.WalletName)
		if err != nil {
			return nil, err
		}
		stack.mobile = mobilesdk.New(sdk, newRPC(c.Mobile.JSONRPCURL))
		cfg.Mobile = stack.mobile
	}

	stack.wallet = coordinator.New(cfg)
	return stack, nil
}

// restore reconnects what a previous invocation left connected: the
// embedded wallet from its session, and any wallet that still authorizes
// an account. Failures are logged, not returned.
func (s *walletStack) restore(ctx context.Context, cc *CommandContext, name string) {
	if s.embedded != nil {
		if mgr := cc.Sessions(); mgr != nil && mgr.Available() {
			if _, err := s.embedded.RestoreFromSession(ctx, mgr, name); err != nil && !errors.Is(err, session.ErrSessionNotFound) {
				cc.Log.Debug("embedded: no session for %s: %v", name, err)
			}
		}
	}
	if s.modal != nil {
		if _, err := s.modal.Resume(ctx); err != nil {
			cc.Log.Debug("modal: resume: %v", err)
		}
	}
	if s.mobile != nil {
		if _, err := s.mobile.Resume(ctx); err != nil {
			cc.Log.Debug("mobile: resume: %v", err)
		}
	}
}

func pairingPresenter(cc *CommandContext) modal.Presenter {
	return modal.PresenterFunc(func(_ context.Context, p modal.Pairing) error {
		cc.Log.Debug("modal: pairing topic %s expires %s", p.Topic, p.ExpiresAt)
		w := cc.Fmt.StatusWriter()
		if !cc.Config.Modal.ShowQR {
			_, err := fmt.Fprintf(w, "Pairing URI: %s\n", p.URI())
			return err
		}
		return output.RenderPairing(w, p.URI(), output.DefaultQRConfig())
	})
}
