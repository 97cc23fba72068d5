package bill

import (
	"fmt"

	"github.com/felixgeelhaar/autopay/adapter/cli"
	billsDomain "github.com/felixgeelhaar/autopay/internal/bills/domain"
	"github.com/felixgeelhaar/autopay/internal/ledger/domain"
	"github.com/spf13/cobra"
)

var payCmd = &cobra.Command{
	Use:   "pay <bill-id>",
	Short: "Pay a bill",
	Long: `Pay one of your bills. Paying a recurring bill opens the next one.

Examples:
  autopay bill pay 3`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc := requireService(cmd, "Bill payment")
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

		next, err := svc.PayBill(cmd.Context(), caller, domain.ObligationID(id))
		if err != nil {
			return fmt.Errorf("failed to pay bill: %w", err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Bill #%d paid.\n", id)
		if next != 0 {
			fmt.Fprintf(cmd.OutOrStdout(), "Next bill: #%d\n", next)
		}
		return nil
	},
}
