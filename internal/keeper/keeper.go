// Package keeper runs catch-up sweeps over the ledgers on a cron cadence.
package keeper

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/felixgeelhaar/autopay/internal/ledger/application/commands"
	sharedDomain "github.com/felixgeelhaar/autopay/internal/shared/domain"
	"github.com/felixgeelhaar/autopay/pkg/observability"
	"github.com/robfig/cron/v3"
)

// ErrNotStarted is returned when the keeper is stopped twice or never started.
var ErrNotStarted = errors.New("keeper not started")

// Sweeper is a ledger whose due schedules can be executed in one call.
type Sweeper interface {
	Namespace() string
	ExecuteDueSchedules(ctx context.Context, caller sharedDomain.Principal) (*commands.SweepResult, error)
}

// Config configures the keeper.
type Config struct {
	// Schedule is a five-field cron expression or a descriptor such as "@every 1m".
	Schedule string
	Timezone string
	// Principal is recorded as the caller of every sweep.
	Principal sharedDomain.Principal
	Timeout   time.Duration
}

// Report summarizes one ledger's sweep.
type Report struct {
	Ledger    string
	Executed  int
	Fulfilled int
	Missed    uint32
	At        uint64
	Err       error
}

// Keeper sweeps every registered ledger whenever its cron schedule fires.
type Keeper struct {
	mu sync.Mutex

	cfg      Config
	sweepers []Sweeper
	metrics  observability.Metrics
	logger   *slog.Logger

	parser cron.Parser
	c      *cron.Cron
	last   []Report
}

// New creates a keeper over the given ledgers.
func New(cfg Config, sweepers []Sweeper, metrics observability.Metrics, logger *slog.Logger) *Keeper {
	if metrics == nil {
		metrics = observability.NoopMetrics{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &Keeper{
		cfg:      cfg,
		sweepers: sweepers,
		metrics:  metrics,
		logger:   logger,
		parser:   cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor),
	}
}

// Validate checks that the cron schedule and timezone parse.
func (k *Keeper) Validate() error {
	if _, err := k.parser.Parse(k.cfg.Schedule); err != nil {
		return fmt.Errorf("invalid keeper schedule %q: %w", k.cfg.Schedule, err)
	}
	if _, err := k.location(); err != nil {
		return err
	}
	return nil
}

func (k *Keeper) location() (*time.Location, error) {
	tz := strings.TrimSpace(k.cfg.Timezone)
	if tz == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, fmt.Errorf("invalid keeper timezone %q: %w", tz, err)
	}
	return loc, nil
}

// Start registers the sweep job and starts the cron runner. Sweeps run
// until Stop is called or ctx is done.
func (k *Keeper) Start(ctx context.Context) error {
	k.mu.Lock()
	defer k.mu.Unlock()
	if k.c != nil {
		return nil
	}

	loc, err := k.location()
	if err != nil {
		return err
	}
	c := cron.New(cron.WithParser(k.parser), cron.WithLocation(loc), cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
	if _, err := c.AddFunc(k.cfg.Schedule, func() { k.tick(ctx) }); err != nil {
		return fmt.Errorf("invalid keeper schedule %q: %w", k.cfg.Schedule, err)
	}
	k.c = c
	c.Start()

	k.logger.Info("keeper started",
		"schedule", k.cfg.Schedule,
		"tz", loc.String(),
		"ledgers", len(k.sweepers),
	)
	return nil
}

// Stop halts the cron runner and waits for a running sweep to finish.
func (k *Keeper) Stop() error {
	k.mu.Lock()
	c := k.c
	k.c = nil
	k.mu.Unlock()
	if c == nil {
		return ErrNotStarted
	}
	<-c.Stop().Done()
	k.logger.Info("keeper stopped")
	return nil
}

func (k *Keeper) tick(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	runCtx, cancel := context.WithTimeout(ctx, k.cfg.Timeout)
	defer cancel()
	k.RunOnce(runCtx)
}

// RunOnce sweeps every ledger in registration order. A failing ledger does
// not stop the others; its error is carried on its report.
func (k *Keeper) RunOnce(ctx context.Context) []Report {
	reports := make([]Report, 0, len(k.sweepers))
	for _, s := range k.sweepers {
		reports = append(reports, k.sweep(ctx, s))
	}

	k.mu.Lock()
	k.last = reports
	k.mu.Unlock()
	return reports
}

func (k *Keeper) sweep(ctx context.Context, s Sweeper) Report {
	ledger := s.Namespace()
	tag := observability.T(observability.LedgerKey, ledger)
	ctx = observability.WithOperation(observability.NewRequestContext(ctx, ""), "sweep")

	start := time.Now()
	result, err := s.ExecuteDueSchedules(ctx, k.cfg.Principal)
	k.metrics.Timing(observability.MetricSweepDuration, time.Since(start), tag)
	k.metrics.Counter(observability.MetricSweeps, 1, tag)

	report := Report{Ledger: ledger, Err: err}
	if err != nil {
		k.logger.ErrorContext(ctx, "sweep failed", observability.LedgerKey, ledger, observability.ErrorKey, err)
		return report
	}

	report.Executed = len(result.Executed)
	report.Fulfilled = result.Fulfilled
	report.Missed = result.Missed
	report.At = result.At
	k.metrics.Counter(observability.MetricSchedulesExecuted, int64(report.Executed), tag)
	k.metrics.Counter(observability.MetricSchedulesMissed, int64(report.Missed), tag)

	if report.Executed > 0 {
		k.logger.InfoContext(ctx, "sweep completed",
			observability.LedgerKey, ledger,
			"executed", report.Executed,
			"fulfilled", report.Fulfilled,
			"missed", report.Missed,
			"at", report.At,
		)
	}
	return report
}

// LastReports returns the reports of the most recent run.
func (k *Keeper) LastReports() []Report {
	k.mu.Lock()
	defer k.mu.Unlock()
	out := make([]Report, len(k.last))
	copy(out, k.last)
	return out
}
