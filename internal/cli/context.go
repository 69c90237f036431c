package cli

import (
	"context"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"github.com/showtime-xyz/walletsession/internal/config"
	"github.com/showtime-xyz/walletsession/internal/keystore"
	"github.com/showtime-xyz/walletsession/internal/metrics"
	"github.com/showtime-xyz/walletsession/internal/output"
	"github.com/showtime-xyz/walletsession/internal/session"
)

type cmdContextKey struct{}

// CommandContext holds dependencies for CLI commands.
type CommandContext struct {
	Config   *config.Config
	Log      *config.Logger
	Fmt      *output.Formatter
	Keystore *keystore.Store
	Metrics  *metrics.Metrics

	sessionsOnce sync.Once
	sessions     session.Manager
}

// NewCommandContext creates a context with the given dependencies.
func NewCommandContext(c *config.Config, l *config.Logger, f *output.Formatter) *CommandContext {
	return &CommandContext{
		Config:   c,
		Log:      l,
		Fmt:      f,
		Keystore: newKeystore(c),
		Metrics:  metrics.Global,
	}
}

// Sessions returns the session manager, or nil when sessions are disabled.
// The keychain is probed on first use.
func (c *CommandContext) Sessions() session.Manager {
	c.sessionsOnce.Do(func() {
		if !c.Config.Security.SessionEnabled {
			return
		}
		c.sessions = session.NewManager(c.Config.SessionsPath(), newKeyring())
	})
	return c.sessions
}

// SessionTTL returns the configured session lifetime, bounded.
func (c *CommandContext) SessionTTL() time.Duration {
	return session.ClampTTL(time.Duration(c.Config.Security.SessionTTLMinutes) * time.Minute)
}

// SetCmdContext attaches cc to cmd.
func SetCmdContext(cmd *cobra.Command, cc *CommandContext) {
	base := cmd.Context()
	if base == nil {
		base = context.Background()
	}
	cmd.SetContext(context.WithValue(base, cmdContextKey{}, cc))
}

// GetCmdContext returns the context attached by SetCmdContext. Commands
// run outside the root get one built from the globals.
func GetCmdContext(cmd *cobra.Command) *CommandContext {
	if ctx := cmd.Context(); ctx != nil {
		if cc, ok := ctx.Value(cmdContextKey{}).(*CommandContext); ok {
			return cc
		}
	}
	return NewCommandContext(cfg, logger, formatter)
}

// contextWithTimeout returns a context rooted in the command context that
// expires after d. A non-positive d never expires.
func contextWithTimeout(cmd *cobra.Command, d time.Duration) (context.Context, context.CancelFunc) {
	base := cmd.Context()
	if base == nil {
		base = context.Background()
	}
	if d <= 0 {
		return context.WithCancel(base)
	}
	return context.WithTimeout(base, d)
}
