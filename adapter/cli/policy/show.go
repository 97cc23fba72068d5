package policy

import (
	"fmt"

	"github.com/felixgeelhaar/autopay/adapter/cli"
	"github.com/felixgeelhaar/autopay/internal/ledger/domain"
	"github.com/spf13/cobra"
)

var showCmd = &cobra.Command{
	Use:   "show <policy-id>",
	Short: "Show a policy",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc := requireService(cmd, "Policy lookup")
		if svc == nil {
			return nil
		}

		id, err := cli.ParseID(args[0], "policy")
		if err != nil {
			return err
		}

		p, err := svc.Policy(cmd.Context(), domain.ObligationID(id))
		if err != nil {
			return err
		}

		fmt.Fprintln(cmd.OutOrStdout(), "Policy:")
		printPolicy(cmd.OutOrStdout(), *p)
		return nil
	},
}
