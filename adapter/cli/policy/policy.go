package policy

import (
	"fmt"
	"io"

	"github.com/felixgeelhaar/autopay/adapter/cli"
	insuranceApp "github.com/felixgeelhaar/autopay/internal/insurance/application"
	"github.com/spf13/cobra"
)

// Cmd is the policy command group
var Cmd = &cobra.Command{
	Use:   "policy",
	Short: "Manage insurance policies",
	Long: `Create insurance policies, pay their monthly premiums, and
deactivate them. Premiums fall due every 30 days.`,
}

func init() {
	Cmd.AddCommand(createCmd)
	Cmd.AddCommand(payCmd)
	Cmd.AddCommand(deactivateCmd)
	Cmd.AddCommand(showCmd)
	Cmd.AddCommand(listCmd)
	Cmd.AddCommand(totalCmd)
}

func requireService(cmd *cobra.Command, what string) *insuranceApp.Service {
	app := cli.GetApp()
	if app == nil || app.Insurance == nil {
		fmt.Fprintf(cmd.OutOrStdout(), "%s requires database connection.\n", what)
		return nil
	}
	return app.Insurance
}

func printPolicy(out io.Writer, p insuranceApp.PolicyView) {
	fmt.Fprintf(out, "  #%d %s (%s)\n", p.ID, p.Details.Name, p.Details.CoverageType)
	fmt.Fprintf(out, "    Premium: %d\n", p.Amount)
	fmt.Fprintf(out, "    Coverage: %d\n", p.Details.CoverageAmount)
	fmt.Fprintf(out, "    Due: %s\n", cli.FormatTime(p.DueAt))
	fmt.Fprintf(out, "    Status: %s\n", p.Status)
	if cli.Verbose() {
		fmt.Fprintf(out, "    Owner: %s\n", p.Owner)
	}
}
