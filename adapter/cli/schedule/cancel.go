package schedule

import (
	"fmt"

	"github.com/felixgeelhaar/autopay/adapter/cli"
	"github.com/felixgeelhaar/autopay/internal/ledger/domain"
	"github.com/spf13/cobra"
)

var cancelCmd = &cobra.Command{
	Use:     "cancel <schedule-id>",
	Short:   "Stop a schedule",
	Aliases: []string{"rm"},
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, svc, err := resolve(cmd, "Schedule cancellation")
		if svc == nil {
			return err
		}

		id, err := cli.ParseID(args[0], "schedule")
		if err != nil {
			return err
		}
		caller, err := app.Caller(cmd.Context(), svc.Namespace())
		if err != nil {
			return err
		}

		if err := svc.CancelSchedule(cmd.Context(), caller, domain.ScheduleID(id)); err != nil {
			return fmt.Errorf("failed to cancel schedule: %w", err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Schedule #%d cancelled.\n", id)
		return nil
	},
}
