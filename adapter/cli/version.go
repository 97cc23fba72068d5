package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// Build information, set with -ldflags "-X .../adapter/cli.Version=...".
var (
	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"
)

var shortVersion bool

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print build information",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		if shortVersion {
			fmt.Fprintln(cmd.OutOrStdout(), Version)
			return
		}
		fmt.Fprintf(cmd.OutOrStdout(), "autopay %s (commit %s, built %s)\n", Version, Commit, BuildDate)
	},
}

func init() {
	versionCmd.Flags().BoolVar(&shortVersion, "short", false, "print only the version")
	rootCmd.AddCommand(versionCmd)
}
