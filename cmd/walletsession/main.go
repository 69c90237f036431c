// Package main is the entry point for the walletsession CLI.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/showtime-xyz/walletsession/internal/cli"
)

// Set via -ldflags at release time.
//
//nolint:gochecknoglobals // build metadata
var (
	version = ""
	commit  = ""
	date    = ""
)

func main() {
	cli.SetBuildInfo(cli.BuildInfo{Version: version, Commit: commit, Date: date})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := cli.ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(cli.ExitCode(err))
	}
}
