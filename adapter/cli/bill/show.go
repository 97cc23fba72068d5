package bill

import (
	"fmt"

	"github.com/felixgeelhaar/autopay/adapter/cli"
	"github.com/felixgeelhaar/autopay/internal/ledger/domain"
	"github.com/spf13/cobra"
)

var showCmd = &cobra.Command{
	Use:   "show <bill-id>",
	Short: "Show a bill",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc := requireService(cmd, "Bill lookup")
		if svc == nil {
			return nil
		}

		id, err := cli.ParseID(args[0], "bill")
		if err != nil {
			return err
		}

		b, err := svc.Bill(cmd.Context(), domain.ObligationID(id))
		if err != nil {
			return err
		}

		fmt.Fprintln(cmd.OutOrStdout(), "Bill:")
		printBill(cmd.OutOrStdout(), *b)
		return nil
	},
}
