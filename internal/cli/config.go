package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/showtime-xyz/walletsession/internal/config"
	wserr "github.com/showtime-xyz/walletsession/pkg/errors"
)

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var (
	configForce bool

	configCmd = &cobra.Command{
		Use:   "config",
		Short: "Manage configuration",
		Long:  `View and initialize walletsession configuration.`,
	}

	configInitCmd = &cobra.Command{
		Use:   "init",
		Short: "Write a default configuration file",
		Long: `Create a default configuration file at <home>/config.yaml.

An existing file is only overwritten with --force.`,
		Example: "  walletsession config init\n  walletsession config init --force",
		Args:    cobra.NoArgs,
		RunE:    runConfigInit,
	}

	configShowCmd = &cobra.Command{
		Use:     "show",
		Short:   "Show the effective configuration",
		Long:    `Show the configuration after defaults and environment overrides are applied.`,
		Example: "  walletsession config show\n  walletsession config show -o json",
		Args:    cobra.NoArgs,
		RunE:    runConfigShow,
	}
)

//nolint:gochecknoinits // Cobra CLI pattern requires init for command registration
func init() {
	configCmd.GroupID = "config"
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configInitCmd, configShowCmd)

	configInitCmd.Flags().BoolVar(&configForce, "force", false, "overwrite existing configuration")
}

type configInitView struct {
	Path string `json:"path"`
}

func (v configInitView) RenderText(w io.Writer) error {
	_, err := fmt.Fprintf(w, `Configuration initialized at %s

Edit this file to configure:
  - chains.default.rpc:  JSON-RPC endpoint for wallet clients
  - modal.wallet_rpc:    wallet endpoint the modal pairs with
  - mobile.enabled:      use the mobile wallet app bridge
  - e2e:                 replace every backend with a throwaway test wallet
`, v.Path)
	return err
}

func runConfigInit(cmd *cobra.Command, _ []string) error {
	cc := GetCmdContext(cmd)
	path := config.Path(cc.Config.Home)

	if _, err := os.Stat(path); err == nil && !configForce {
		return wserr.WithSuggestion(
			wserr.Wrap(wserr.ErrInvalidInput, "configuration already exists at %s", path),
			"use --force to overwrite",
		)
	}

	c := config.Defaults()
	c.Home = cc.Config.Home
	if err := config.Save(c, path); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return cc.Fmt.Print(configInitView{Path: path})
}

// configView renders the config as YAML in text mode and as the same
// tree in JSON mode.
type configView struct {
	tree map[string]any
	raw  []byte
}

func newConfigView(c *config.Config) (configView, error) {
	raw, err := yaml.Marshal(c)
	if err != nil {
		return configView{}, err
	}
	var tree map[string]any
	if err := yaml.Unmarshal(raw, &tree); err != nil {
		return configView{}, err
	}
	return configView{tree: tree, raw: raw}, nil
}

func (v configView) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.tree)
}

func (v configView) RenderText(w io.Writer) error {
	_, err := w.Write(v.raw)
	return err
}

func runConfigShow(cmd *cobra.Command, _ []string) error {
	cc := GetCmdContext(cmd)
	view, err := newConfigView(cc.Config)
	if err != nil {
		return err
	}
	return cc.Fmt.Print(view)
}
