package bill

import (
	"fmt"

	"github.com/felixgeelhaar/autopay/adapter/cli"
	billsApp "github.com/felixgeelhaar/autopay/internal/bills/application"
	billsDomain "github.com/felixgeelhaar/autopay/internal/bills/domain"
	"github.com/spf13/cobra"
)

var showAll bool

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List unpaid bills",
	Long: `List your unpaid bills, or every bill in the ledger with --all.

Examples:
  autopay bill list
  autopay bill list --all`,
	Aliases: []string{"ls"},
	RunE: func(cmd *cobra.Command, args []string) error {
		svc := requireService(cmd, "Bill listing")
		if svc == nil {
			return nil
		}

		var (
			bills []billsApp.BillView
			err   error
		)
		if showAll {
			bills, err = svc.AllBills(cmd.Context())
		} else {
			owner, callerErr := cli.GetApp().Caller(cmd.Context(), billsDomain.Namespace)
			if callerErr != nil {
				return callerErr
			}
			bills, err = svc.UnpaidBills(cmd.Context(), owner)
		}
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if len(bills) == 0 {
			fmt.Fprintln(out, "No bills found.")
			return nil
		}
		fmt.Fprintf(out, "Bills (%d):\n", len(bills))
		for _, b := range bills {
			printBill(out, b)
		}
		return nil
	},
}

var overdueCmd = &cobra.Command{
	Use:   "overdue",
	Short: "List overdue bills",
	RunE: func(cmd *cobra.Command, args []string) error {
		svc := requireService(cmd, "Bill listing")
		if svc == nil {
			return nil
		}

		bills, err := svc.OverdueBills(cmd.Context())
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if len(bills) == 0 {
			fmt.Fprintln(out, "Nothing overdue.")
			return nil
		}
		fmt.Fprintf(out, "Overdue bills (%d):\n", len(bills))
		for _, b := range bills {
			printBill(out, b)
		}
		return nil
	},
}

var totalCmd = &cobra.Command{
	Use:   "total",
	Short: "Sum your unpaid bills",
	RunE: func(cmd *cobra.Command, args []string) error {
		svc := requireService(cmd, "Bill totals")
		if svc == nil {
			return nil
		}

		owner, err := cli.GetApp().Caller(cmd.Context(), billsDomain.Namespace)
		if err != nil {
			return err
		}
		total, err := svc.TotalUnpaid(cmd.Context(), owner)
		if err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Total unpaid: %d\n", total)
		return nil
	},
}

func init() {
	listCmd.Flags().BoolVarP(&showAll, "all", "a", false, "list every bill in the ledger")
}
