package bill

import (
	"fmt"
	"io"

	"github.com/felixgeelhaar/autopay/adapter/cli"
	billsApp "github.com/felixgeelhaar/autopay/internal/bills/application"
	"github.com/spf13/cobra"
)

// Cmd is the bill command group
var Cmd = &cobra.Command{
	Use:   "bill",
	Short: "Manage bills",
	Long:  `Create, pay, cancel, and list bills.`,
}

func init() {
	Cmd.AddCommand(createCmd)
	Cmd.AddCommand(payCmd)
	Cmd.AddCommand(cancelCmd)
	Cmd.AddCommand(showCmd)
	Cmd.AddCommand(listCmd)
	Cmd.AddCommand(overdueCmd)
	Cmd.AddCommand(totalCmd)
}

func requireService(cmd *cobra.Command, what string) *billsApp.Service {
	app := cli.GetApp()
	if app == nil || app.Bills == nil {
		fmt.Fprintf(cmd.OutOrStdout(), "%s requires database connection.\n", what)
		return nil
	}
	return app.Bills
}

func printBill(out io.Writer, b billsApp.BillView) {
	fmt.Fprintf(out, "  #%d %s\n", b.ID, b.Details.Name)
	fmt.Fprintf(out, "    Amount: %d\n", b.Amount)
	fmt.Fprintf(out, "    Due: %s\n", cli.FormatTime(b.DueAt))
	fmt.Fprintf(out, "    Status: %s\n", formatStatus(b))
	if b.Recurring {
		fmt.Fprintf(out, "    Repeats: every %d days\n", b.FrequencyDays)
	}
	if b.ScheduleID != nil {
		fmt.Fprintf(out, "    Paid by schedule: #%d\n", *b.ScheduleID)
	}
	if cli.Verbose() {
		fmt.Fprintf(out, "    Owner: %s\n", b.Owner)
		fmt.Fprintf(out, "    Created: %s\n", cli.FormatTime(b.CreatedAt))
	}
}

func formatStatus(b billsApp.BillView) string {
	switch {
	case b.FulfilledAt != nil:
		return "paid " + cli.FormatTime(*b.FulfilledAt)
	case b.Overdue:
		return "overdue"
	default:
		return b.Status
	}
}
