package schedule

import (
	"fmt"

	"github.com/felixgeelhaar/autopay/internal/ledger/application/queries"
	sharedDomain "github.com/felixgeelhaar/autopay/internal/shared/domain"
	"github.com/spf13/cobra"
)

var (
	dueOnly bool
	listAll bool
)

var listCmd = &cobra.Command{
	Use:     "list",
	Short:   "List schedules",
	Aliases: []string{"ls"},
	Long: `List your schedules. --due lists every schedule the next sweep would
execute; --all lists every schedule in the ledger.

Examples:
  autopay schedule list
  autopay schedule list --ledger insurance --due`,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, svc, err := resolve(cmd, "Schedule listing")
		if svc == nil {
			return err
		}

		var schedules []queries.ScheduleDTO
		switch {
		case dueOnly:
			schedules, err = svc.DueSchedules(cmd.Context())
		case listAll:
			schedules, err = svc.Schedules(cmd.Context(), sharedDomain.Principal{})
		default:
			owner, callerErr := app.Caller(cmd.Context(), svc.Namespace())
			if callerErr != nil {
				return callerErr
			}
			schedules, err = svc.Schedules(cmd.Context(), owner)
		}
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if len(schedules) == 0 {
			fmt.Fprintln(out, "No schedules found.")
			return nil
		}
		fmt.Fprintf(out, "Schedules in %s (%d):\n", svc.Namespace(), len(schedules))
		for _, s := range schedules {
			printSchedule(out, s)
		}
		return nil
	},
}

func init() {
	listCmd.Flags().BoolVar(&dueOnly, "due", false, "only schedules due now")
	listCmd.Flags().BoolVarP(&listAll, "all", "a", false, "every schedule in the ledger")
}
