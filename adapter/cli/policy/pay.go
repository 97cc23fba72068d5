package policy

import (
	"fmt"

	"github.com/felixgeelhaar/autopay/adapter/cli"
	insuranceDomain "github.com/felixgeelhaar/autopay/internal/insurance/domain"
	"github.com/felixgeelhaar/autopay/internal/ledger/domain"
	"github.com/spf13/cobra"
)

var payCmd = &cobra.Command{
	Use:   "pay <policy-id>",
	Short: "Pay the current premium",
	Long: `Pay a policy's current premium. The next premium opens 30 days
after the paid one was due.

Examples:
  autopay policy pay 1`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc := requireService(cmd, "Premium payment")
		if svc == nil {
			return nil
		}

		id, err := cli.ParseID(args[0], "policy")
		if err != nil {
			return err
		}
		caller, err := cli.GetApp().Caller(cmd.Context(), insuranceDomain.Namespace)
		if err != nil {
			return err
		}

		next, err := svc.PayPremium(cmd.Context(), caller, domain.ObligationID(id))
		if err != nil {
			return fmt.Errorf("failed to pay premium: %w", err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Premium for policy #%d paid.\n", id)
		fmt.Fprintf(cmd.OutOrStdout(), "Next premium: #%d\n", next)
		return nil
	},
}
