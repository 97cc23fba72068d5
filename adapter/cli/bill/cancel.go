package bill

import (
	"fmt"

	"github.com/felixgeelhaar/autopay/adapter/cli"
	billsDomain "github.com/felixgeelhaar/autopay/internal/bills/domain"
	"github.com/felixgeelhaar/autopay/internal/ledger/domain"
	"github.com/spf13/cobra"
)

var cancelCmd = &cobra.Command{
	Use:   "cancel <bill-id>",
	Short: "Cancel a bill",
	Long: `Remove a bill from the ledger. Schedules that paid it keep running
and skip it from now on.

Examples:
  autopay bill cancel 3`,
	Aliases: []string{"rm"},
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc := requireService(cmd, "Bill cancellation")
		if svc == nil {
			return nil
		}

		id, err := cli.ParseID(args[0], "bill")
		if err != nil {
			return err
		}
		caller, err := cli.GetApp().Caller(cmd.Context(), billsDomain.Namespace)
		if err != nil {
			return err
		}

		if err := svc.CancelBill(cmd.Context(), caller, domain.ObligationID(id)); err != nil {
			return fmt.Errorf("failed to cancel bill: %w", err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Bill #%d cancelled.\n", id)
		return nil
	},
}
