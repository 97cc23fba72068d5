package policy

import (
	"fmt"

	"github.com/felixgeelhaar/autopay/adapter/cli"
	insuranceApp "github.com/felixgeelhaar/autopay/internal/insurance/application"
	insuranceDomain "github.com/felixgeelhaar/autopay/internal/insurance/domain"
	"github.com/spf13/cobra"
)

var showAll bool

var listCmd = &cobra.Command{
	Use:     "list",
	Short:   "List active policies",
	Aliases: []string{"ls"},
	RunE: func(cmd *cobra.Command, args []string) error {
		svc := requireService(cmd, "Policy listing")
		if svc == nil {
			return nil
		}

		var (
			policies []insuranceApp.PolicyView
			err      error
		)
		if showAll {
			policies, err = svc.AllPolicies(cmd.Context())
		} else {
			owner, callerErr := cli.GetApp().Caller(cmd.Context(), insuranceDomain.Namespace)
			if callerErr != nil {
				return callerErr
			}
			policies, err = svc.ActivePolicies(cmd.Context(), owner)
		}
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if len(policies) == 0 {
			fmt.Fprintln(out, "No policies found.")
			return nil
		}
		fmt.Fprintf(out, "Policies (%d):\n", len(policies))
		for _, p := range policies {
			printPolicy(out, p)
		}
		return nil
	},
}

var totalCmd = &cobra.Command{
	Use:   "total",
	Short: "Sum your open monthly premiums",
	RunE: func(cmd *cobra.Command, args []string) error {
		svc := requireService(cmd, "Premium totals")
		if svc == nil {
			return nil
		}

		owner, err := cli.GetApp().Caller(cmd.Context(), insuranceDomain.Namespace)
		if err != nil {
			return err
		}
		total, err := svc.TotalMonthlyPremium(cmd.Context(), owner)
		if err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Total monthly premium: %d\n", total)
		return nil
	},
}

func init() {
	listCmd.Flags().BoolVarP(&showAll, "all", "a", false, "list every policy in the ledger")
}
