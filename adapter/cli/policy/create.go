package policy

import (
	"fmt"
	"strings"

	"github.com/felixgeelhaar/autopay/adapter/cli"
	insuranceDomain "github.com/felixgeelhaar/autopay/internal/insurance/domain"
	"github.com/spf13/cobra"
)

var (
	coverageType   string
	monthlyPremium int64
	coverageAmount int64
)

var createCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Create a policy",
	Long: `Create an insurance policy owned by the caller. The first premium is
due 30 days from now.

Examples:
  autopay policy create "Family Health" --type health --premium 120 --coverage 50000`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc := requireService(cmd, "Policy creation")
		if svc == nil {
			return nil
		}

		owner, err := cli.GetApp().Caller(cmd.Context(), insuranceDomain.Namespace)
		if err != nil {
			return err
		}

		id, err := svc.CreatePolicy(cmd.Context(), owner, args[0], coverageType, monthlyPremium, coverageAmount)
		if err != nil {
			return fmt.Errorf("failed to create policy: %w", err)
		}

		p, err := svc.Policy(cmd.Context(), id)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintln(out, "Policy created!")
		fmt.Fprintln(out, strings.Repeat("-", 40))
		fmt.Fprintf(out, "  Policy ID:     %d\n", id)
		fmt.Fprintf(out, "  First premium: %s\n", cli.FormatTime(p.DueAt))
		return nil
	},
}

func init() {
	createCmd.Flags().StringVarP(&coverageType, "type", "t", "", "coverage type, e.g. health, auto, home")
	createCmd.Flags().Int64VarP(&monthlyPremium, "premium", "p", 0, "monthly premium (required)")
	createCmd.Flags().Int64Var(&coverageAmount, "coverage", 0, "coverage amount (required)")
	_ = createCmd.MarkFlagRequired("premium")
	_ = createCmd.MarkFlagRequired("coverage")
}
