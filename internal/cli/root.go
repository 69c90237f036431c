// Package cli implements the walletsession command-line interface.
//
// This package uses global variables to manage CLI state, which is the standard
// pattern for Cobra-based CLI applications. The globals are initialized in
// PersistentPreRunE and cleaned up in PersistentPostRun.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level state
package cli

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/showtime-xyz/walletsession/internal/config"
	"github.com/showtime-xyz/walletsession/internal/keystore"
	"github.com/showtime-xyz/walletsession/internal/metrics"
	"github.com/showtime-xyz/walletsession/internal/output"
	"github.com/showtime-xyz/walletsession/internal/session"
	wserr "github.com/showtime-xyz/walletsession/pkg/errors"
)

// DefaultTimeout bounds connect and disconnect when --timeout is not given.
const DefaultTimeout = 2 * time.Minute

var (
	// Global flags
	homeDir      string
	outputFormat string
	verbose      bool
	timeout      time.Duration

	// Global state initialized in PersistentPreRunE
	cfg       *config.Config
	logger    *config.Logger
	formatter *output.Formatter

	// newKeyring is swapped in tests.
	newKeyring = func() session.Keyring { return session.NewOSKeyring() }
)

// rootCmd is the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "walletsession",
	Short: "One wallet session across embedded, modal and mobile wallets",
	Long: `walletsession unifies three wallet backends behind one session:

  embedded   a local key unlocked from an encrypted keystore
  modal      an external wallet paired through a wc: URI / QR code
  mobile     a native wallet app reached through its SDK bridge

Whichever backends are connected, the session exposes one address, one
connected flag, and one place to connect, disconnect and sign.

Example:
  walletsession wallet create
  walletsession wallet unlock
  walletsession connect
  walletsession sign --message "Sign in to Showtime"`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		if err := initGlobals(cmd); err != nil {
			return err
		}
		SetCmdContext(cmd, NewCommandContext(cfg, logger, formatter))
		return nil
	},
	PersistentPostRun: func(_ *cobra.Command, _ []string) {
		cleanup()
	},
}

// Execute runs the root command.
func Execute() error {
	return ExecuteContext(context.Background())
}

// ExecuteContext runs the root command under ctx.
func ExecuteContext(ctx context.Context) error {
	err := rootCmd.ExecuteContext(ctx)
	if err != nil {
		format := output.FormatText
		if formatter != nil {
			format = formatter.Format()
		}
		_ = output.FormatError(rootCmd.ErrOrStderr(), err, format)
		return err
	}
	return nil
}

// ExitCode returns the appropriate exit code for an error.
func ExitCode(err error) int {
	return wserr.ExitCode(err)
}

// initGlobals initializes global configuration, logger, and formatter.
func initGlobals(cmd *cobra.Command) error {
	// Errors from loading the config are rendered per the flag alone.
	formatter = newFormatter(cmd, outputFormat)

	home := homeDir
	if home == "" {
		home = os.Getenv(config.EnvHome)
	}
	if home == "" {
		home = config.DefaultHome()
	}

	var err error
	cfg, err = config.Load(config.Path(home))
	if err != nil {
		if !os.IsNotExist(err) {
			return wserr.Wrap(wserr.ErrConfigInvalid, "reading %s", config.Path(home))
		}
		cfg = config.Defaults()
	}
	cfg.Home = home

	config.ApplyEnvironment(cfg)

	if homeDir != "" {
		cfg.Home = homeDir
	}
	if cfg.Logging.File == config.Defaults().Logging.File {
		cfg.Logging.File = filepath.Join(cfg.Home, "walletsession.log")
	}
	if verbose {
		cfg.Output.Verbose = true
		cfg.Logging.Level = "debug"
	}
	if outputFormat != "" && outputFormat != "auto" {
		cfg.Output.DefaultFormat = outputFormat
	}

	if err := cfg.Validate(); err != nil {
		return wserr.WithSuggestion(wserr.Wrap(wserr.ErrConfigInvalid, "%v", err), "fix "+config.Path(cfg.Home))
	}

	logger, err = config.NewLogger(config.ParseLogLevel(cfg.Logging.Level), cfg.Logging.File)
	if err != nil {
		logger = config.NullLogger()
	}
	logger.SetJSONOutput(cfg.Logging.JSON)

	formatter = newFormatter(cmd, cfg.Output.DefaultFormat)
	return nil
}

func newFormatter(cmd *cobra.Command, format string) *output.Formatter {
	explicit := output.ParseFormat(format)
	return output.NewFormatter(output.DetectFormat(cmd.OutOrStdout(), explicit), cmd.OutOrStdout()).
		WithStatus(cmd.ErrOrStderr())
}

// cleanup releases resources.
func cleanup() {
	if logger != nil {
		m := metrics.Global.Snapshot()
		logger.Debug("metrics: connect=%d disconnect=%d sign=%d rpc=%d rpc_errors=%d",
			m.ConnectTotal, m.DisconnectTotal, m.SignTotal, m.RPCCallsTotal, m.RPCErrorsTotal)
		_ = logger.Close()
	}
}

func newKeystore(c *config.Config) *keystore.Store {
	return keystore.NewStore(c.KeystorePath())
}

//nolint:gochecknoinits // Cobra CLI pattern requires init for flag registration
func init() {
	rootCmd.PersistentFlags().StringVar(&homeDir, "home", "", "walletsession data directory (default: ~/.walletsession)")
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", "auto", "output format: text, json, auto")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", DefaultTimeout, "how long connect and disconnect wait for the wallet (0 waits forever)")

	rootCmd.AddGroup(
		&cobra.Group{ID: "wallet", Title: "Embedded wallet:"},
		&cobra.Group{ID: "session", Title: "Wallet session:"},
		&cobra.Group{ID: "config", Title: "Other:"},
	)
}
