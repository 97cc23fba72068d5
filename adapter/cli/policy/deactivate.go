package policy

import (
	"fmt"

	"github.com/felixgeelhaar/autopay/adapter/cli"
	insuranceDomain "github.com/felixgeelhaar/autopay/internal/insurance/domain"
	"github.com/felixgeelhaar/autopay/internal/ledger/domain"
	"github.com/spf13/cobra"
)

var deactivateCmd = &cobra.Command{
	Use:   "deactivate <policy-id>",
	Short: "Deactivate a policy",
	Long: `Deactivate one of your policies. Its record is kept and no further
premiums are opened.

Examples:
  autopay policy deactivate 4`,
	Aliases: []string{"cancel"},
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc := requireService(cmd, "Policy deactivation")
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

		if err := svc.DeactivatePolicy(cmd.Context(), caller, domain.ObligationID(id)); err != nil {
			return fmt.Errorf("failed to deactivate policy: %w", err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Policy #%d deactivated.\n", id)
		return nil
	},
}
