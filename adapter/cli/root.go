package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/felixgeelhaar/autopay/pkg/observability"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var (
	asPrincipal string
	authToken   string
	verbose     bool
	logger      *slog.Logger
)

type commandContext struct {
	correlationID uuid.UUID
	startedAt     time.Time
}

type commandContextKey struct{}

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "autopay",
	Short: "Autopay - recurring bills and insurance premiums",
	Long: `Autopay keeps ledgers of recurring obligations, bills and insurance
premiums, and pays them automatically through schedules.

	A sweep executes every schedule that has fallen due, catching up
	on any due dates that passed while nobody was sweeping.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if logger == nil {
			logger = slog.Default()
		}
		info := commandContext{
			correlationID: uuid.New(),
			startedAt:     time.Now(),
		}
		ctx := observability.WithCorrelationID(cmd.Context(), info.correlationID.String())
		ctx = observability.WithOperation(ctx, cmd.CommandPath())
		if asPrincipal != "" {
			ctx = observability.WithPrincipal(ctx, asPrincipal)
		}
		cmd.SetContext(context.WithValue(ctx, commandContextKey{}, info))
		logger.DebugContext(ctx, "command start", "command", cmd.CommandPath())
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger == nil {
			logger = slog.Default()
		}
		ctx := cmd.Context()
		info, ok := ctx.Value(commandContextKey{}).(commandContext)
		if !ok {
			return
		}
		if a := GetApp(); a != nil && a.Flush != nil {
			if err := a.Flush(ctx); err != nil {
				logger.WarnContext(ctx, "failed to relay events", "error", err)
			}
		}
		logger.DebugContext(ctx, "command end",
			"command", cmd.CommandPath(),
			"duration_ms", time.Since(info.startedAt).Milliseconds(),
		)
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute(ctx context.Context) {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&asPrincipal, "as", "", "act as this principal (local auth)")
	rootCmd.PersistentFlags().StringVar(&authToken, "token", "", "signed caller token (jwt auth)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}

// AddCommand adds a command to the root command.
func AddCommand(cmd *cobra.Command) {
	rootCmd.AddCommand(cmd)
}

// SetLogger sets the CLI logger.
func SetLogger(l *slog.Logger) {
	logger = l
}

// Verbose reports whether --verbose was given.
func Verbose() bool {
	return verbose
}
