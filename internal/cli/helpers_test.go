package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zalando/go-keyring"

	"github.com/showtime-xyz/walletsession/internal/config"
	"github.com/showtime-xyz/walletsession/internal/seal"
	"github.com/showtime-xyz/walletsession/internal/walletclient"
)

const (
	testPassword = "correct horse battery"
	testMnemonic = "abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon about"
	testAddress  = "0x9858EfFD232B4033E47d90003D41EC34EcaEda94"
)

func TestMain(m *testing.M) {
	seal.SetScryptWorkFactor(10) // fast for tests
	keyring.MockInit()
	os.Exit(m.Run())
}

// resetFlags restores every flag of cmd and its children to its default.
// Cobra keeps flag values between Execute calls.
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}

// runCLI executes the root command with --home set to home. Tests using it
// must not run in parallel: the CLI state is package-level.
func runCLI(t *testing.T, home string, args ...string) (string, string, error) {
	t.Helper()
	t.Setenv(config.EnvLogLevel, "off")

	resetFlags(rootCmd)
	var stdout, stderr bytes.Buffer
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stderr)
	rootCmd.SetArgs(append([]string{"--home", home}, args...))
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
	})

	err := ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

// runJSON runs args with -o json and decodes stdout into out.
func runJSON(t *testing.T, home string, out any, args ...string) {
	t.Helper()
	stdout, stderr, err := runCLI(t, home, append(args, "-o", "json")...)
	require.NoError(t, err, stderr)
	require.NoError(t, json.Unmarshal([]byte(stdout), out), stdout)
}

// withMockPrompts replaces prompt functions for testing and restores on cleanup.
func withMockPrompts(t *testing.T, password, mnemonic string) {
	t.Helper()
	origPW := promptPasswordFn
	origNewPW := promptNewPasswordFn
	origMnemonic := promptMnemonicFn
	t.Cleanup(func() {
		promptPasswordFn = origPW
		promptNewPasswordFn = origNewPW
		promptMnemonicFn = origMnemonic
	})
	promptPasswordFn = func(string) ([]byte, error) { return []byte(password), nil }
	promptNewPasswordFn = func() ([]byte, error) { return []byte(password), nil }
	promptMnemonicFn = func() (string, error) { return mnemonic, nil }
}

// writeConfig writes a config under home with mutate applied to the defaults.
func writeConfig(t *testing.T, home string, mutate func(*config.Config)) {
	t.Helper()
	c := config.Defaults()
	c.Home = home
	c.Modal.Enabled = false
	c.Modal.ShowQR = false
	mutate(c)
	require.NoError(t, config.Save(c, config.Path(home)))
}

// walletServer is a JSON-RPC wallet endpoint backed by a local key. Like a
// browser wallet it reports no accounts until eth_requestAccounts approves.
type walletServer struct {
	*httptest.Server

	signer     *walletclient.LocalSigner
	authorized atomic.Bool
	reject     atomic.Bool
}

func newWalletServer(t *testing.T) *walletServer {
	t.Helper()
	key, err := crypto.GenerateKey()
	require.NoError(t, err)

	ws := &walletServer{signer: walletclient.NewLocalSigner(key, walletclient.Chain{ID: 1, Name: "mainnet"}, nil)}
	ws.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Method string `json:"method"`
			Params []any  `json:"params"`
			ID     uint64 `json:"id"`
		}
		if !assert.NoError(t, json.NewDecoder(r.Body).Decode(&req)) {
			return
		}
		resp := map[string]any{"jsonrpc": "2.0", "id": req.ID}
		switch {
		case req.Method == "eth_accounts" && !ws.authorized.Load():
			resp["result"] = []string{}
		case req.Method == "eth_requestAccounts" && ws.reject.Load():
			resp["error"] = &walletclient.ProviderError{Code: walletclient.CodeUserRejected, Message: "User rejected the request."}
		case req.Method == "wallet_revokePermissions":
			ws.authorized.Store(false)
			resp["result"] = struct{}{}
		default:
			if req.Method == "eth_requestAccounts" {
				ws.authorized.Store(true)
			}
			result, err := ws.signer.Request(r.Context(), req.Method, req.Params...)
			if err != nil {
				resp["error"] = err
			} else {
				resp["result"] = result
			}
		}
		assert.NoError(t, json.NewEncoder(w).Encode(resp))
	}))
	t.Cleanup(ws.Close)
	return ws
}

func (ws *walletServer) Address() string {
	return ws.signer.Address()
}

func keystoreFile(home, name string) string {
	return filepath.Join(home, "keystore", name+".keystore")
}
