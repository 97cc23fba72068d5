package cli

import (
	"fmt"
	"time"

	sharedDomain "github.com/felixgeelhaar/autopay/internal/shared/domain"
	"github.com/spf13/cobra"
)

var (
	tokenTTL     time.Duration
	tokenLedgers []string
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Manage caller tokens",
}

var tokenIssueCmd = &cobra.Command{
	Use:   "issue <principal>",
	Short: "Issue a signed caller token",
	Long: `Issue a token that identifies principal when AUTH_MODE=jwt.
The token is signed with AUTH_JWT_SECRET.

Examples:
  autopay token issue GALICE
  autopay token issue GALICE --ledger insurance --ttl 720h`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app := GetApp()
		if app == nil || app.TokenIssuer == nil {
			fmt.Fprintln(cmd.OutOrStdout(), "Issuing tokens requires AUTH_JWT_SECRET.")
			return nil
		}

		principal := sharedDomain.NewPrincipal(args[0])
		if principal.IsEmpty() {
			return fmt.Errorf("principal is required")
		}

		ttl := tokenTTL
		if ttl <= 0 {
			ttl = app.TokenTTL
		}
		for _, ledger := range tokenLedgers {
			if _, err := app.Ledger(ledger); err != nil {
				return err
			}
		}

		token, err := app.TokenIssuer.Issue(principal, ttl, tokenLedgers...)
		if err != nil {
			return fmt.Errorf("failed to issue token: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), token)
		return nil
	},
}

func init() {
	tokenIssueCmd.Flags().DurationVar(&tokenTTL, "ttl", 0, "token lifetime (default AUTH_TOKEN_TTL)")
	tokenIssueCmd.Flags().StringSliceVarP(&tokenLedgers, "ledger", "l", nil, "restrict the token to these ledgers")
	tokenCmd.AddCommand(tokenIssueCmd)
	rootCmd.AddCommand(tokenCmd)
}
