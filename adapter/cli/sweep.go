package cli

import (
	"errors"
	"fmt"
	"time"

	sharedDomain "github.com/felixgeelhaar/autopay/internal/shared/domain"
	"github.com/felixgeelhaar/autopay/internal/shared/infrastructure/convert"
	"github.com/spf13/cobra"
)

// ErrClockBackwards rejects a sweep time earlier than the ledger clock.
var ErrClockBackwards = errors.New("ledger time cannot move backwards")

var (
	sweepAt     string
	sweepLedger string
)

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Execute every due schedule",
	Long: `Execute every active schedule whose due time has passed, paying the
linked bill or premium and moving the schedule to its next due time.

Anyone may sweep. Due times that passed without a sweep are skipped and
reported as missed.

Examples:
  autopay sweep
  autopay sweep --ledger insurance
  autopay sweep --at 2025-07-01`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		app := GetApp()
		if app == nil {
			fmt.Fprintln(cmd.OutOrStdout(), "Sweeping requires database connection.")
			return nil
		}

		if sweepAt != "" {
			if app.Clock == nil {
				return fmt.Errorf("--at is not supported by this build")
			}
			now := app.Now()
			at, err := ParseWhen(sweepAt, now)
			if err != nil {
				return err
			}
			if at < now {
				return fmt.Errorf("%w: --at %s is before %s", ErrClockBackwards, FormatTime(at), FormatTime(now))
			}
			app.Clock.Set(time.Unix(convert.Uint64ToInt64Clamped(at), 0).UTC())
		}

		names := app.LedgerNames()
		if sweepLedger != "" {
			names = []string{sweepLedger}
		}

		out := cmd.OutOrStdout()
		for _, name := range names {
			svc, err := app.Ledger(name)
			if err != nil {
				return err
			}
			caller, err := app.Caller(cmd.Context(), name)
			if err != nil {
				caller = sharedDomain.Principal{}
			}

			result, err := svc.ExecuteDueSchedules(cmd.Context(), caller)
			if err != nil {
				return fmt.Errorf("failed to sweep %s: %w", name, err)
			}

			fmt.Fprintf(out, "%s: swept at %s\n", name, FormatTime(result.At))
			if len(result.Executed) == 0 {
				fmt.Fprintln(out, "  nothing due")
				continue
			}
			fmt.Fprintf(out, "  executed: %v\n", result.Executed)
			fmt.Fprintf(out, "  paid:     %d\n", result.Fulfilled)
			if result.Missed > 0 {
				fmt.Fprintf(out, "  missed:   %d due dates\n", result.Missed)
			}
		}
		return nil
	},
}

func init() {
	sweepCmd.Flags().StringVar(&sweepAt, "at", "", "sweep as of this time instead of now")
	sweepCmd.Flags().StringVarP(&sweepLedger, "ledger", "l", "", "sweep only this ledger (bills or insurance)")
	rootCmd.AddCommand(sweepCmd)
}
