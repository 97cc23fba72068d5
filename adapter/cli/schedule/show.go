package schedule

import (
	"fmt"

	"github.com/felixgeelhaar/autopay/adapter/cli"
	"github.com/felixgeelhaar/autopay/internal/ledger/domain"
	"github.com/spf13/cobra"
)

var showCmd = &cobra.Command{
	Use:   "show <schedule-id>",
	Short: "Show a schedule",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		_, svc, err := resolve(cmd, "Schedule lookup")
		if svc == nil {
			return err
		}

		id, err := cli.ParseID(args[0], "schedule")
		if err != nil {
			return err
		}

		s, err := svc.Schedule(cmd.Context(), domain.ScheduleID(id))
		if err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Schedule (%s):\n", svc.Namespace())
		printSchedule(cmd.OutOrStdout(), *s)
		return nil
	},
}
