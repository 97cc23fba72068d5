package bill

import (
	"fmt"
	"strings"

	"github.com/felixgeelhaar/autopay/adapter/cli"
	billsDomain "github.com/felixgeelhaar/autopay/internal/bills/domain"
	"github.com/spf13/cobra"
)

var (
	amount    int64
	due       string
	everyDays uint32
)

var createCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Create a bill",
	Long: `Create a bill owned by the caller.

A bill with --every repeats: paying it opens the next one, due that many
days after the previous due date.

Examples:
  autopay bill create "Electricity" --amount 120 --due 2025-07-01
  autopay bill create "Rent" --amount 900 --due +3d --every 30`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc := requireService(cmd, "Bill creation")
		if svc == nil {
			return nil
		}
		app := cli.GetApp()

		owner, err := app.Caller(cmd.Context(), billsDomain.Namespace)
		if err != nil {
			return err
		}
		dueAt, err := cli.ParseWhen(due, app.Now())
		if err != nil {
			return err
		}

		id, err := svc.CreateBill(cmd.Context(), owner, args[0], amount, dueAt, everyDays > 0, everyDays)
		if err != nil {
			return fmt.Errorf("failed to create bill: %w", err)
		}

		out := cmd.OutOrStdout()
		fmt.Fprintln(out, "Bill created!")
		fmt.Fprintln(out, strings.Repeat("-", 40))
		fmt.Fprintf(out, "  Bill ID: %d\n", id)
		fmt.Fprintf(out, "  Due:     %s\n", cli.FormatTime(dueAt))
		return nil
	},
}

func init() {
	createCmd.Flags().Int64VarP(&amount, "amount", "a", 0, "amount owed (required)")
	createCmd.Flags().StringVarP(&due, "due", "d", "", "due time: unix seconds, +DURATION, RFC3339 or YYYY-MM-DD (required)")
	createCmd.Flags().Uint32Var(&everyDays, "every", 0, "repeat every N days")
	_ = createCmd.MarkFlagRequired("amount")
	_ = createCmd.MarkFlagRequired("due")
}
