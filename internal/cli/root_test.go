package cli

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"

	"github.com/showtime-xyz/walletsession/internal/coordinator"
	wserr "github.com/showtime-xyz/walletsession/pkg/errors"
)

func TestExitCode(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, wserr.ExitSuccess},
		{"plain", errors.New("boom"), wserr.ExitGeneral},
		{"not connected", wserr.ErrNotConnected, wserr.ExitNotFound},
		{"no backend", coordinator.ErrNoBackend, wserr.ExitNotFound},
		{"wrapped config", wserr.Wrap(wserr.ErrConfigInvalid, "reading"), wserr.ExitInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, ExitCode(tt.err))
		})
	}
}

func TestContextWithTimeout(t *testing.T) {
	t.Parallel()

	cmd := &cobra.Command{}
	cmd.SetContext(context.Background())

	ctx, cancel := contextWithTimeout(cmd, time.Minute)
	deadline, ok := ctx.Deadline()
	assert.True(t, ok)
	assert.WithinDuration(t, time.Now().Add(time.Minute), deadline, 5*time.Second)
	cancel()
	assert.ErrorIs(t, ctx.Err(), context.Canceled)

	ctx, cancel = contextWithTimeout(cmd, 0)
	defer cancel()
	_, ok = ctx.Deadline()
	assert.False(t, ok, "zero timeout waits forever")
	assert.NoError(t, ctx.Err())
}
