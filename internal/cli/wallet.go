package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/showtime-xyz/walletsession/internal/keystore"
	"github.com/showtime-xyz/walletsession/internal/output"
	"github.com/showtime-xyz/walletsession/internal/seal"
	wserr "github.com/showtime-xyz/walletsession/pkg/errors"
)

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var (
	walletWords   int
	walletLockAll bool

	walletDeleteForce bool

	walletCmd = &cobra.Command{
		Use:   "wallet",
		Short: "Manage the embedded wallet",
		Long: `Create, import, unlock and lock the embedded wallet.

The recovery phrase is turned into a seed that is encrypted with your
password and stored under <home>/keystore. Unlocking caches the seed in a
session protected by the OS keychain, so later commands can sign without
asking for the password again until the session expires.`,
	}

	walletCreateCmd = &cobra.Command{
		Use:     "create [name]",
		Short:   "Create a new embedded wallet",
		Example: "  walletsession wallet create\n  walletsession wallet create trading --words 24",
		Args:    cobra.MaximumNArgs(1),
		RunE:    runWalletCreate,
	}

	walletImportCmd = &cobra.Command{
		Use:     "import [name]",
		Short:   "Import an embedded wallet from a recovery phrase",
		Example: "  walletsession wallet import",
		Args:    cobra.MaximumNArgs(1),
		RunE:    runWalletImport,
	}

	walletUnlockCmd = &cobra.Command{
		Use:     "unlock [name]",
		Short:   "Unlock the embedded wallet for the session lifetime",
		Example: "  walletsession wallet unlock",
		Args:    cobra.MaximumNArgs(1),
		RunE:    runWalletUnlock,
	}

	walletLockCmd = &cobra.Command{
		Use:     "lock [name]",
		Short:   "End the embedded wallet session",
		Example: "  walletsession wallet lock\n  walletsession wallet lock --all",
		Args:    cobra.MaximumNArgs(1),
		RunE:    runWalletLock,
	}

	walletDeleteCmd = &cobra.Command{
		Use:     "delete <name>",
		Short:   "Delete an embedded wallet keystore",
		Example: "  walletsession wallet delete trading --force",
		Args:    cobra.ExactArgs(1),
		RunE:    runWalletDelete,
	}

	walletListCmd = &cobra.Command{
		Use:   "list",
		Short: "List embedded wallets",
		Args:  cobra.NoArgs,
		RunE:  runWalletList,
	}
)

//nolint:gochecknoinits // Cobra CLI pattern requires init for command registration
func init() {
	walletCmd.GroupID = "wallet"
	rootCmd.AddCommand(walletCmd)
	walletCmd.AddCommand(walletCreateCmd, walletImportCmd, walletUnlockCmd, walletLockCmd, walletListCmd, walletDeleteCmd)

	walletCreateCmd.Flags().IntVar(&walletWords, "words", 12, "recovery phrase length: 12 or 24")
	walletLockCmd.Flags().BoolVar(&walletLockAll, "all", false, "end every session")
	walletDeleteCmd.Flags().BoolVar(&walletDeleteForce, "force", false, "confirm deletion")
}

type walletView struct {
	Name      string    `json:"name"`
	Address   string    `json:"address"`
	Path      string    `json:"path"`
	Mnemonic  string    `json:"mnemonic,omitempty"`
	Unlocked  bool      `json:"unlocked"`
	ExpiresAt time.Time `json:"expires_at,omitzero"`
}

func (v walletView) RenderText(w io.Writer) error {
	if v.Mnemonic != "" {
		if _, err := fmt.Fprintf(w, "Recovery phrase (write it down, it is shown once):\n\n  %s\n\n", v.Mnemonic); err != nil {
			return err
		}
	}
	if _, err := fmt.Fprintf(w, "Wallet:  %s\nAddress: %s\nPath:    %s\n", v.Name, v.Address, v.Path); err != nil {
		return err
	}
	if v.Unlocked {
		_, err := fmt.Fprintf(w, "Unlocked until %s\n", v.ExpiresAt.Local().Format(time.Kitchen))
		return err
	}
	return nil
}

func nameArg(args []string) string {
	if len(args) > 0 {
		return args[0]
	}
	return keystore.DefaultName
}

func runWalletCreate(cmd *cobra.Command, args []string) error {
	cc := GetCmdContext(cmd)
	name := nameArg(args)
	if err := checkNewWallet(cc, name); err != nil {
		return err
	}

	mnemonic, err := keystore.GenerateMnemonic(walletWords)
	if err != nil {
		return err
	}

	view, err := saveWallet(cc, name, mnemonic)
	if err != nil {
		return err
	}
	view.Mnemonic = mnemonic
	return cc.Fmt.Print(view)
}

func runWalletImport(cmd *cobra.Command, args []string) error {
	cc := GetCmdContext(cmd)
	name := nameArg(args)
	if err := checkNewWallet(cc, name); err != nil {
		return err
	}

	input, err := promptMnemonicFn()
	if err != nil {
		return err
	}
	mnemonic := keystore.NormalizeMnemonic(input)
	if err := keystore.ValidateMnemonic(mnemonic); err != nil {
		return err
	}

	view, err := saveWallet(cc, name, mnemonic)
	if err != nil {
		return err
	}
	return cc.Fmt.Print(view)
}

func checkNewWallet(cc *CommandContext, name string) error {
	if err := keystore.ValidateName(name); err != nil {
		return err
	}
	if cc.Keystore.Exists(name) {
		return wserr.WithSuggestion(
			wserr.WithDetails(wserr.ErrKeystoreExists, map[string]string{"name": name}),
			"choose another name or run: walletsession wallet unlock "+name,
		)
	}
	return nil
}

// saveWallet encrypts the mnemonic's seed under a new password and, when
// sessions are available, unlocks it right away.
func saveWallet(cc *CommandContext, name, mnemonic string) (walletView, error) {
	seed, err := keystore.MnemonicToSeed(mnemonic, "")
	if err != nil {
		return walletView{}, err
	}
	defer seal.Zero(seed)

	password, err := promptNewPasswordFn()
	if err != nil {
		return walletView{}, err
	}
	defer seal.Zero(password)

	entry, err := cc.Keystore.Save(name, seed, string(password))
	if err != nil {
		return walletView{}, err
	}
	cc.Log.Debug("wallet %s created for %s", name, entry.Address)

	view := walletView{Name: entry.Name, Address: entry.Address, Path: entry.Path}
	if mgr := cc.Sessions(); mgr != nil && mgr.Available() {
		if err := mgr.Start(name, entry.Address, seed, cc.SessionTTL()); err != nil {
			cc.Log.Error("starting session for %s: %v", name, err)
		} else {
			view.Unlocked = true
			view.ExpiresAt = time.Now().Add(cc.SessionTTL())
		}
	}
	return view, nil
}

func runWalletUnlock(cmd *cobra.Command, args []string) error {
	cc := GetCmdContext(cmd)
	name := nameArg(args)

	mgr := cc.Sessions()
	if mgr == nil || !mgr.Available() {
		return wserr.WithSuggestion(wserr.ErrSessionUnavailable,
			"enable security.session_enabled and make sure the OS keychain is reachable")
	}

	password, err := promptPasswordFn("Enter keystore password: ")
	if err != nil {
		return err
	}
	defer seal.Zero(password)

	entry, secret, err := cc.Keystore.Load(name, string(password))
	if err != nil {
		return err
	}
	defer secret.Destroy()

	ttl := cc.SessionTTL()
	if err := mgr.Start(name, entry.Address, secret.Bytes(), ttl); err != nil {
		return wserr.Wrap(err, "starting session")
	}

	return cc.Fmt.Print(walletView{
		Name:      entry.Name,
		Address:   entry.Address,
		Path:      entry.Path,
		Unlocked:  true,
		ExpiresAt: time.Now().Add(ttl),
	})
}

type lockView struct {
	Ended int `json:"ended"`
}

func (v lockView) RenderText(w io.Writer) error {
	_, err := fmt.Fprintf(w, "Ended %d session(s)\n", v.Ended)
	return err
}

func runWalletLock(cmd *cobra.Command, args []string) error {
	cc := GetCmdContext(cmd)

	mgr := cc.Sessions()
	if mgr == nil || !mgr.Available() {
		return cc.Fmt.Print(lockView{})
	}

	if walletLockAll {
		return cc.Fmt.Print(lockView{Ended: mgr.EndAll()})
	}

	name := nameArg(args)
	active := mgr.Active(name)
	if err := mgr.End(name); err != nil {
		return err
	}
	if !active {
		return cc.Fmt.Print(lockView{})
	}
	return cc.Fmt.Print(lockView{Ended: 1})
}

type walletListView struct {
	Wallets []walletView `json:"wallets"`
}

func (v walletListView) RenderText(w io.Writer) error {
	if len(v.Wallets) == 0 {
		_, err := fmt.Fprintln(w, "No wallets. Run: walletsession wallet create")
		return err
	}
	tbl := output.NewTable("NAME", "ADDRESS", "SESSION")
	for _, wv := range v.Wallets {
		state := "locked"
		if wv.Unlocked {
			state = "unlocked until " + wv.ExpiresAt.Local().Format(time.Kitchen)
		}
		tbl.AddRow(wv.Name, wv.Address, state)
	}
	return tbl.RenderText(w)
}

func runWalletList(cmd *cobra.Command, _ []string) error {
	cc := GetCmdContext(cmd)

	names, err := cc.Keystore.List()
	if err != nil {
		return err
	}

	unlocked := make(map[string]time.Time)
	if mgr := cc.Sessions(); mgr != nil && mgr.Available() {
		sessions, err := mgr.List()
		if err != nil {
			cc.Log.Debug("listing sessions: %v", err)
		}
		for _, s := range sessions {
			unlocked[s.Name] = s.ExpiresAt
		}
	}

	view := walletListView{Wallets: make([]walletView, 0, len(names))}
	for _, name := range names {
		entry, err := cc.Keystore.Info(name)
		if err != nil {
			return err
		}
		wv := walletView{Name: entry.Name, Address: entry.Address, Path: entry.Path}
		wv.ExpiresAt, wv.Unlocked = unlocked[name]
		view.Wallets = append(view.Wallets, wv)
	}
	return cc.Fmt.Print(view)
}

type deleteView struct {
	Name string `json:"name"`
}

func (v deleteView) RenderText(w io.Writer) error {
	_, err := fmt.Fprintf(w, "Deleted wallet %s\n", v.Name)
	return err
}

func runWalletDelete(cmd *cobra.Command, args []string) error {
	cc := GetCmdContext(cmd)
	name := args[0]

	if !walletDeleteForce {
		return wserr.WithSuggestion(
			wserr.Wrap(wserr.ErrInvalidInput, "deleting %s destroys the keystore", name),
			"make sure the recovery phrase is backed up, then pass --force",
		)
	}

	if mgr := cc.Sessions(); mgr != nil && mgr.Available() {
		if err := mgr.End(name); err != nil {
			cc.Log.Error("ending session for %s: %v", name, err)
		}
	}
	if err := cc.Keystore.Delete(name); err != nil {
		return err
	}
	return cc.Fmt.Print(deleteView{Name: name})
}
