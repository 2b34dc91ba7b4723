package commands

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
)

// VersionInfo carries the build metadata stamped at link time.
type VersionInfo struct {
	Version string
	Commit  string
	Date    string
}

// NewVersionCommand creates the version command.
func NewVersionCommand(info VersionInfo) *cobra.Command {
	var short bool

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Long:  `Display bqscope version and build information.`,
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			if short {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), info.Version)
				return
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "bqscope v%s\n", info.Version)
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "  commit: %s\n", info.Commit)
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "  built:  %s\n", info.Date)
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "  go:     %s (%s/%s)\n", runtime.Version(), runtime.GOOS, runtime.GOARCH)
		},
	}

	cmd.Flags().BoolVar(&short, "short", false, "Print only the version number")

	return cmd
}
