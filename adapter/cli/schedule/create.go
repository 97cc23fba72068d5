package schedule

import (
	"fmt"
	"strings"

	"github.com/felixgeelhaar/autopay/adapter/cli"
	"github.com/felixgeelhaar/autopay/internal/ledger/domain"
	"github.com/spf13/cobra"
)

var (
	first string
	every string
)

var createCmd = &cobra.Command{
	Use:   "create <obligation-id>",
	Short: "Schedule automatic payment of a bill or policy",
	Long: `Create a schedule that pays the given bill or policy when a sweep
runs at or after its due time. Recurring schedules follow the obligation
from one period to the next.

Examples:
  autopay schedule create 1 --first +1d --every 30d
  autopay schedule create 2 --ledger insurance --first 2025-08-01 --every 30d
  autopay schedule create 3 --first +2h            # one-time`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, svc, err := resolve(cmd, "Scheduling")
		if svc == nil {
			return err
		}

		obligationID, err := cli.ParseID(args[0], "obligation")
		if err != nil {
			return err
		}
		nextDue, err := cli.ParseWhen(first, app.Now())
		if err != nil {
			return err
		}
		interval, err := cli.ParseInterval(every)
		if err != nil {
			return err
		}
		owner, err := app.Caller(cmd.Context(), svc.Namespace())
		if err != nil {
			return err
		}

		id, err := svc.CreateSchedule(cmd.Context(), owner, domain.ObligationID(obligationID), nextDue, interval)
		if err != nil {
			return fmt.Errorf("failed to create schedule: %w", err)
		}

		out := cmd.OutOrStdout()
		fmt.Fprintln(out, "Schedule created!")
		fmt.Fprintln(out, strings.Repeat("-", 40))
		fmt.Fprintf(out, "  Schedule ID: %d\n", id)
		fmt.Fprintf(out, "  Ledger:      %s\n", svc.Namespace())
		fmt.Fprintf(out, "  Next due:    %s\n", cli.FormatTime(nextDue))
		fmt.Fprintf(out, "  Repeats:     %s\n", cli.FormatInterval(interval))
		return nil
	},
}

func init() {
	createCmd.Flags().StringVar(&first, "first", "", "first due time (required)")
	createCmd.Flags().StringVar(&every, "every", "0", "interval between payments, e.g. 30d or 12h; 0 for one-time")
	_ = createCmd.MarkFlagRequired("first")
}
