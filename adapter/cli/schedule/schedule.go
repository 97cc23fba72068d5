package schedule

import (
	"fmt"
	"io"

	"github.com/felixgeelhaar/autopay/adapter/cli"
	"github.com/felixgeelhaar/autopay/internal/ledger/application/queries"
	"github.com/spf13/cobra"
)

var ledgerName string

// Cmd is the schedule command group
var Cmd = &cobra.Command{
	Use:   "schedule",
	Short: "Manage automatic payment schedules",
	Long: `Attach schedules to bills or policies so a sweep pays them
automatically. Use --ledger to pick the bills or insurance ledger.`,
}

func init() {
	Cmd.PersistentFlags().StringVarP(&ledgerName, "ledger", "l", "bills", "ledger the schedule lives in (bills or insurance)")

	Cmd.AddCommand(createCmd)
	Cmd.AddCommand(modifyCmd)
	Cmd.AddCommand(cancelCmd)
	Cmd.AddCommand(showCmd)
	Cmd.AddCommand(listCmd)
}

// resolve returns the app and the selected ledger, or nil when the CLI is
// not wired to storage.
func resolve(cmd *cobra.Command, what string) (*cli.App, cli.ScheduleService, error) {
	app := cli.GetApp()
	if app == nil {
		fmt.Fprintf(cmd.OutOrStdout(), "%s requires database connection.\n", what)
		return nil, nil, nil
	}
	svc, err := app.Ledger(ledgerName)
	if err != nil {
		return nil, nil, err
	}
	return app, svc, nil
}

func printSchedule(out io.Writer, s queries.ScheduleDTO) {
	if s.ObligationID == 0 {
		fmt.Fprintf(out, "  #%d (detached)\n", s.ID)
	} else {
		fmt.Fprintf(out, "  #%d -> obligation #%d\n", s.ID, s.ObligationID)
	}
	fmt.Fprintf(out, "    Next due: %s\n", cli.FormatTime(s.NextDue))
	fmt.Fprintf(out, "    Repeats: %s\n", cli.FormatInterval(s.Interval))
	fmt.Fprintf(out, "    Status: %s\n", formatStatus(s))
	if s.LastExecutedAt != nil {
		fmt.Fprintf(out, "    Last run: %s\n", cli.FormatTime(*s.LastExecutedAt))
	}
	if s.MissedCount > 0 {
		fmt.Fprintf(out, "    Missed: %d due dates\n", s.MissedCount)
	}
	if cli.Verbose() {
		fmt.Fprintf(out, "    Owner: %s\n", s.Owner)
		fmt.Fprintf(out, "    Created: %s\n", cli.FormatTime(s.CreatedAt))
	}
}

func formatStatus(s queries.ScheduleDTO) string {
	switch {
	case !s.Active:
		return "inactive"
	case s.Due:
		return "due"
	default:
		return "active"
	}
}
