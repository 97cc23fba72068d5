package cli

import (
	"fmt"
	"sort"

	"github.com/felixgeelhaar/autopay/pkg/observability"
	"github.com/spf13/cobra"
)

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Probe storage and broker connections",
	RunE: func(cmd *cobra.Command, args []string) error {
		app := GetApp()
		if app == nil {
			return fmt.Errorf("app not initialized")
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Ledgers: %v\n", app.LedgerNames())
		if app.Health == nil {
			fmt.Fprintln(out, "Status:  healthy (no checks registered)")
			return nil
		}

		report := app.Health.GetOverallHealth(cmd.Context())
		fmt.Fprintf(out, "Status:  %s\n", report.Status)
		names := make([]string, 0, len(report.Checks))
		for name := range report.Checks {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			check := report.Checks[name]
			fmt.Fprintf(out, "  %-10s %-9s %s\n", name, check.Status, check.Message)
		}
		if report.Status == observability.HealthStatusUnhealthy {
			return fmt.Errorf("unhealthy")
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(healthCmd)
}
