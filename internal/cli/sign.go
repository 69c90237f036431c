package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/showtime-xyz/walletsession/internal/keystore"
	"github.com/showtime-xyz/walletsession/internal/walletclient"
	wserr "github.com/showtime-xyz/walletsession/pkg/errors"
)

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var (
	signMessage   string
	signDirect    bool
	verifyAddress string
	verifyMessage string
	verifySig     string

	signCmd = &cobra.Command{
		Use:   "sign",
		Short: "Sign a message with the connected wallet",
		Long: `Sign a message (EIP-191 personal_sign) with the connected external wallet.

The modal wallet signs when it is connected, otherwise the mobile wallet.
The embedded wallet is only used with --direct, which signs through the
session's wallet client instead. Use --message - to read the message from
stdin.`,
		Example: `  walletsession sign --message "Sign in to Showtime"
  echo -n "hello" | walletsession sign --message -
  walletsession sign --message "hello" --direct`,
		Args: cobra.NoArgs,
		RunE: runSign,
	}

	verifyCmd = &cobra.Command{
		Use:     "verify",
		Short:   "Verify a signed message",
		Example: `  walletsession verify --address 0x... --message "hello" --signature 0x...`,
		Args:    cobra.NoArgs,
		RunE:    runVerify,
	}
)

//nolint:gochecknoinits // Cobra CLI pattern requires init for command registration
func init() {
	signCmd.GroupID = "session"
	verifyCmd.GroupID = "session"
	rootCmd.AddCommand(signCmd, verifyCmd)

	signCmd.Flags().StringVarP(&signMessage, "message", "m", "", "message to sign, or - for stdin")
	signCmd.Flags().BoolVar(&signDirect, "direct", false, "sign through the wallet client, including the embedded wallet")
	signCmd.Flags().StringVar(&sessionWallet, "wallet", keystore.DefaultName, "embedded wallet to restore from its session")
	_ = signCmd.MarkFlagRequired("message")

	verifyCmd.Flags().StringVar(&verifyAddress, "address", "", "expected signer address")
	verifyCmd.Flags().StringVarP(&verifyMessage, "message", "m", "", "signed message")
	verifyCmd.Flags().StringVar(&verifySig, "signature", "", "0x-prefixed signature")
	_ = verifyCmd.MarkFlagRequired("address")
	_ = verifyCmd.MarkFlagRequired("message")
	_ = verifyCmd.MarkFlagRequired("signature")
}

type signView struct {
	Address   string `json:"address"`
	Message   string `json:"message"`
	Signature string `json:"signature"`
}

func (v signView) RenderText(w io.Writer) error {
	_, err := fmt.Fprintf(w, "Address:   %s\nSignature: %s\n", v.Address, v.Signature)
	return err
}

func messageArg(m string) (string, error) {
	if m != "-" {
		return m, nil
	}
	data, err := io.ReadAll(stdin)
	if err != nil {
		return "", fmt.Errorf("reading message: %w", err)
	}
	return strings.TrimSuffix(string(data), "\n"), nil
}

func runSign(cmd *cobra.Command, _ []string) error {
	message, err := messageArg(signMessage)
	if err != nil {
		return err
	}

	cc, stack, err := openStack(cmd)
	if err != nil {
		return err
	}
	defer stack.Close()

	ctx, cancel := contextWithTimeout(cmd, timeout)
	defer cancel()

	if signDirect {
		client, err := stack.wallet.WalletClient(ctx)
		if err != nil {
			return err
		}
		if client == nil {
			return notConnected()
		}
		addrs, err := client.GetAddresses(ctx)
		if err != nil {
			return err
		}
		if len(addrs) == 0 {
			return notConnected()
		}
		sig, err := client.SignMessage(ctx, addrs[0], message)
		if err != nil {
			return err
		}
		return cc.Fmt.Print(signView{Address: addrs[0], Message: message, Signature: sig})
	}

	sig, err := stack.wallet.SignMessage(ctx, message)
	if err != nil {
		return err
	}
	if sig == "" {
		return wserr.WithSuggestion(
			wserr.Wrap(wserr.ErrNotConnected, "no external wallet to sign with"),
			"run: walletsession connect, or sign with the embedded wallet using --direct",
		)
	}
	return cc.Fmt.Print(signView{Address: stack.wallet.Address(), Message: message, Signature: sig})
}

func notConnected() error {
	return wserr.WithSuggestion(wserr.ErrNotConnected, "run: walletsession connect, or walletsession wallet unlock")
}

type verifyView struct {
	Address string `json:"address"`
	Valid   bool   `json:"valid"`
}

func (v verifyView) RenderText(w io.Writer) error {
	_, err := fmt.Fprintf(w, "Signature valid for %s\n", v.Address)
	return err
}

func runVerify(cmd *cobra.Command, _ []string) error {
	cc := GetCmdContext(cmd)

	message, err := messageArg(verifyMessage)
	if err != nil {
		return err
	}
	ok, err := walletclient.VerifyMessage(verifyAddress, message, verifySig)
	if err != nil {
		return err
	}
	if !ok {
		recovered, _ := walletclient.RecoverAddress(message, verifySig)
		return wserr.WithDetails(
			wserr.Wrap(wserr.ErrInvalidSignature, "signature does not match %s", verifyAddress),
			map[string]string{"recovered": recovered},
		)
	}
	return cc.Fmt.Print(verifyView{Address: verifyAddress, Valid: true})
}
