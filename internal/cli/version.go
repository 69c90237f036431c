package cli

import (
	"fmt"
	"io"
	"runtime"

	"github.com/spf13/cobra"
)

// BuildInfo describes the running binary. It is set from main via ldflags.
type BuildInfo struct {
	Version string `json:"version"`
	Commit  string `json:"commit"`
	Date    string `json:"date"`
}

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level state
var (
	buildInfo BuildInfo

	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		RunE:  runVersion,
	}
)

//nolint:gochecknoinits // Cobra CLI pattern requires init for command registration
func init() {
	versionCmd.GroupID = "config"
	rootCmd.AddCommand(versionCmd)
}

// SetBuildInfo records the build metadata and exposes it as --version.
func SetBuildInfo(info BuildInfo) {
	buildInfo = info
	rootCmd.Version = formatVersion(info)
}

func formatVersion(info BuildInfo) string {
	v, commit, date := info.Version, info.Commit, info.Date
	if v == "" {
		v = "dev"
	}
	if commit == "" {
		commit = "unknown"
	}
	if date == "" {
		date = "unknown"
	}
	return fmt.Sprintf("%s (commit: %s, built: %s)", v, commit, date)
}

type versionView struct {
	BuildInfo

	Go       string `json:"go"`
	Platform string `json:"platform"`
}

func (v versionView) RenderText(w io.Writer) error {
	_, err := fmt.Fprintf(w, "walletsession %s\n%s %s\n", formatVersion(v.BuildInfo), v.Go, v.Platform)
	return err
}

func runVersion(cmd *cobra.Command, _ []string) error {
	cc := GetCmdContext(cmd)
	info := buildInfo
	if info.Version == "" {
		info.Version = "dev"
	}
	return cc.Fmt.Print(versionView{
		BuildInfo: info,
		Go:        runtime.Version(),
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
	})
}
