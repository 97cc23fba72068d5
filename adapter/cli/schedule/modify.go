package schedule

import (
	"fmt"

	"github.com/felixgeelhaar/autopay/adapter/cli"
	"github.com/felixgeelhaar/autopay/internal/ledger/domain"
	"github.com/spf13/cobra"
)

var modifyCmd = &cobra.Command{
	Use:   "modify <schedule-id>",
	Short: "Change a schedule's timing",
	Long: `Replace the next due time and interval of one of your schedules.
A deactivated schedule stays inactive.

Examples:
  autopay schedule modify 1 --first +7d --every 14d`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, svc, err := resolve(cmd, "Schedule changes")
		if svc == nil {
			return err
		}

		id, err := cli.ParseID(args[0], "schedule")
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
		caller, err := app.Caller(cmd.Context(), svc.Namespace())
		if err != nil {
			return err
		}

		if err := svc.ModifySchedule(cmd.Context(), caller, domain.ScheduleID(id), nextDue, interval); err != nil {
			return fmt.Errorf("failed to modify schedule: %w", err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Schedule #%d now due %s, %s.\n", id, cli.FormatTime(nextDue), cli.FormatInterval(interval))
		return nil
	},
}

func init() {
	modifyCmd.Flags().StringVar(&first, "first", "", "next due time (required)")
	modifyCmd.Flags().StringVar(&every, "every", "0", "interval between payments; 0 for one-time")
	_ = modifyCmd.MarkFlagRequired("first")
}
