package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/showtime-xyz/walletsession/internal/coordinator"
	"github.com/showtime-xyz/walletsession/internal/keystore"
	wserr "github.com/showtime-xyz/walletsession/pkg/errors"
)

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var (
	sessionWallet string
	connectMobile bool

	statusCmd = &cobra.Command{
		Use:   "status",
		Short: "Show the wallet session",
		Long: `Show the derived wallet session: the address, which backend is active,
and whether anything is connected. Backends that are still authorized from
an earlier command are reconnected first.`,
		Example: "  walletsession status\n  walletsession status -o json",
		Args:    cobra.NoArgs,
		RunE:    runStatus,
	}

	connectCmd = &cobra.Command{
		Use:   "connect",
		Short: "Connect an external wallet",
		Long: `Open the pairing flow and wait until a wallet connects.

A pairing URI (and, on a terminal, a QR code) is printed to stderr. The
command returns as soon as the modal wallet or the mobile wallet reports a
connected account, or fails when --timeout elapses.`,
		Example: "  walletsession connect\n  walletsession connect --mobile\n  walletsession connect --timeout 5m",
		Args:    cobra.NoArgs,
		RunE:    runConnect,
	}

	disconnectCmd = &cobra.Command{
		Use:     "disconnect",
		Short:   "Disconnect external wallets",
		Long:    `Disconnect the modal and mobile wallets. The embedded wallet is locked with "wallet lock".`,
		Example: "  walletsession disconnect",
		Args:    cobra.NoArgs,
		RunE:    runDisconnect,
	}
)

//nolint:gochecknoinits // Cobra CLI pattern requires init for command registration
func init() {
	for _, c := range []*cobra.Command{statusCmd, connectCmd, disconnectCmd} {
		c.GroupID = "session"
		c.Flags().StringVar(&sessionWallet, "wallet", keystore.DefaultName, "embedded wallet to restore from its session")
		rootCmd.AddCommand(c)
	}
	connectCmd.Flags().BoolVar(&connectMobile, "mobile", false, "connect through the mobile wallet app instead of the modal")
}

type sessionView struct {
	coordinator.SessionState

	Embedded bool `json:"embedded_connected"`
	Modal    bool `json:"modal_connected"`
	Mobile   bool `json:"mobile_connected"`
}

func newSessionView(s *walletStack) sessionView {
	v := sessionView{SessionState: s.wallet.Session()}
	if s.embedded != nil {
		v.Embedded = s.embedded.State().Connected
	}
	if s.modal != nil {
		v.Modal = s.modal.State().Connected
	}
	if s.mobile != nil {
		v.Mobile = s.mobile.State().Connected
	}
	return v
}

func (v sessionView) RenderText(w io.Writer) error {
	if !v.Connected {
		_, err := fmt.Fprintln(w, "Not connected. Run: walletsession connect, or walletsession wallet unlock")
		return err
	}

	address := v.Address
	if address == "" {
		address = "(resolving)"
	}
	if _, err := fmt.Fprintf(w, "Address: %s\nBackend: %s\n", address, v.Backend); err != nil {
		return err
	}
	if v.Name != "" {
		if _, err := fmt.Fprintf(w, "Wallet:  %s\n", v.Name); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintf(w, "Backends: embedded=%t modal=%t mobile=%t\n", v.Embedded, v.Modal, v.Mobile)
	return err
}

func openStack(cmd *cobra.Command) (*CommandContext, *walletStack, error) {
	cc := GetCmdContext(cmd)
	stack, err := buildWalletStack(cc)
	if err != nil {
		return nil, nil, err
	}
	stack.restore(cmd.Context(), cc, sessionWallet)
	return cc, stack, nil
}

func runStatus(cmd *cobra.Command, _ []string) error {
	cc, stack, err := openStack(cmd)
	if err != nil {
		return err
	}
	defer stack.Close()

	// The embedded address is resolved in the background; a client lookup
	// resolves it synchronously.
	if s := stack.wallet.Session(); s.Connected && s.Address == "" {
		if client, err := stack.wallet.WalletClient(cmd.Context()); err == nil && client != nil {
			if addrs, err := client.GetAddresses(cmd.Context()); err == nil && len(addrs) > 0 {
				view := newSessionView(stack)
				view.Address = addrs[0]
				return cc.Fmt.Print(view)
			}
		}
	}
	return cc.Fmt.Print(newSessionView(stack))
}

type connectView struct {
	coordinator.ConnectResult

	Backend coordinator.Backend `json:"backend"`
}

func (v connectView) RenderText(w io.Writer) error {
	if v.WalletName != "" {
		_, err := fmt.Fprintf(w, "Connected %s (%s) via %s\n", v.Address, v.WalletName, v.Backend)
		return err
	}
	_, err := fmt.Fprintf(w, "Connected %s via %s\n", v.Address, v.Backend)
	return err
}

func runConnect(cmd *cobra.Command, _ []string) error {
	cc, stack, err := openStack(cmd)
	if err != nil {
		return err
	}
	defer stack.Close()

	ctx, cancel := contextWithTimeout(cmd, timeout)
	defer cancel()

	if connectMobile {
		if stack.mobile == nil {
			return wserr.WithSuggestion(coordinator.ErrNoBackend, "set mobile.enabled: true in config.yaml")
		}
		if _, err := stack.mobile.Connect(ctx); err != nil {
			return err
		}
		st := stack.mobile.State()
		return cc.Fmt.Print(connectView{
			ConnectResult: coordinator.ConnectResult{Address: st.Address, WalletName: st.Name},
			Backend:       coordinator.BackendMobileSDK,
		})
	}

	cc.Fmt.Statusf("Waiting for a wallet to connect...")
	res, err := stack.wallet.Connect(ctx)
	if err != nil {
		return connectError(err)
	}

	return cc.Fmt.Print(connectView{ConnectResult: res, Backend: connectedBackend(stack, res)})
}

// connectedBackend reports which backend produced res. The modal wallet
// wins when both report the address, matching Connect's resolution order.
func connectedBackend(stack *walletStack, res coordinator.ConnectResult) coordinator.Backend {
	switch {
	case stack.modal != nil && stack.modal.State().Connected && stack.modal.State().Address == res.Address:
		return coordinator.BackendModal
	case stack.mobile != nil && stack.mobile.State().Connected && stack.mobile.State().Address == res.Address:
		return coordinator.BackendMobileSDK
	default:
		return stack.wallet.Session().Backend
	}
}

type disconnectView struct {
	Connected bool `json:"connected"`
}

func (v disconnectView) RenderText(w io.Writer) error {
	if v.Connected {
		_, err := fmt.Fprintln(w, "External wallets disconnected; the embedded wallet is still unlocked")
		return err
	}
	_, err := fmt.Fprintln(w, "Disconnected")
	return err
}

func runDisconnect(cmd *cobra.Command, _ []string) error {
	cc, stack, err := openStack(cmd)
	if err != nil {
		return err
	}
	defer stack.Close()

	if (stack.modal == nil || !stack.modal.State().Connected) && (stack.mobile == nil || !stack.mobile.State().Connected) {
		return cc.Fmt.Print(disconnectView{Connected: stack.wallet.Connected()})
	}

	ctx, cancel := contextWithTimeout(cmd, timeout)
	defer cancel()

	if err := stack.wallet.Disconnect(ctx); err != nil {
		return connectError(err)
	}
	return cc.Fmt.Print(disconnectView{Connected: stack.wallet.Connected()})
}

func connectError(err error) error {
	if wserr.Is(err, context.DeadlineExceeded) {
		return wserr.WithSuggestion(
			wserr.Wrap(wserr.ErrNotConnected, "timed out waiting for the wallet"),
			"approve the request in your wallet or raise --timeout",
		)
	}
	return err
}
