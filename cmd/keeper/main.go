// Command keeper runs the ledger sweeps on a cron schedule and relays ledger
// events from the outbox to the configured bus.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/felixgeelhaar/autopay/internal/app"
	"github.com/felixgeelhaar/autopay/internal/keeper"
	"github.com/felixgeelhaar/autopay/internal/shared/domain"
	"github.com/felixgeelhaar/autopay/internal/shared/infrastructure/eventbus"
	"github.com/felixgeelhaar/autopay/pkg/config"
	"github.com/felixgeelhaar/autopay/pkg/observability"
)

func main() {
	logger := observability.LoggerFromEnv()
	if err := run(logger); err != nil {
		logger.Error("keeper exited", "error", err)
		os.Exit(1)
	}
}

func run(logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if cfg.IsDevelopment() {
		logger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}
	logger.Info("starting autopay keeper", "env", cfg.AppEnv)

	container, err := app.NewContainer(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("init container: %w", err)
	}
	defer func() { _ = container.Close() }()

	sweeper := keeper.New(keeper.Config{
		Schedule:  cfg.KeeperSchedule,
		Timezone:  cfg.KeeperTimezone,
		Principal: domain.NewPrincipal(cfg.Principal),
	}, container.Sweepers(), container.Metrics, logger)
	if err := sweeper.Start(ctx); err != nil {
		return fmt.Errorf("start sweeps: %w", err)
	}
	logger.Info("sweeps scheduled", "cron", cfg.KeeperSchedule, "tz", cfg.KeeperTimezone, "ledgers", container.Namespaces())

	processor := container.OutboxProcessor
	if cfg.OutboxProcessorEnabled {
		if err := processor.Start(ctx); err != nil {
			return fmt.Errorf("start outbox processor: %w", err)
		}
	} else {
		logger.Info("outbox processor disabled")
	}

	// Without a broker the container has already put the alerter on the
	// in-process bus.
	if cfg.UsesBroker() {
		consumer, err := eventbus.NewRabbitMQConsumer(eventbus.RabbitMQConsumerConfig{
			URL:    cfg.RabbitMQURL,
			Logger: logger,
		}, eventbus.NewConsumerRegistry(logger))
		if err != nil {
			return fmt.Errorf("connect consumer: %w", err)
		}
		defer func() { _ = consumer.Close() }()

		consumer.RegisterConsumer(container.MissedAlerter)
		go func() {
			if err := consumer.Start(ctx); err != nil && ctx.Err() == nil {
				logger.Error("event consumer stopped", "error", err)
			}
		}()
	}

	go every(ctx, cfg.OutboxCleanupInterval, func() {
		deleted, err := container.OutboxRepo.DeleteOld(ctx, cfg.OutboxRetentionDays)
		switch {
		case err != nil:
			logger.Error("outbox cleanup failed", "error", err)
		case deleted > 0:
			logger.Info("outbox pruned", "deleted", deleted, "retention_days", cfg.OutboxRetentionDays)
		}
	})
	go every(ctx, cfg.OutboxStatsInterval, func() {
		s := processor.GetStats()
		logger.Info("outbox stats",
			"running", s.IsRunning,
			"published", s.PublishedCount,
			"failed", s.FailedCount,
			"dead", s.DeadCount,
			"lag_seconds", s.LagSeconds,
			"last_error", s.LastError,
		)
	})

	if cfg.KeeperHealthAddr != "" {
		srv := newHealthServer(cfg, container, sweeper, logger)
		go srv.serve(ctx)
	}

	<-ctx.Done()
	logger.Info("shutting down keeper")

	var errs []error
	if err := sweeper.Stop(); err != nil {
		errs = append(errs, fmt.Errorf("stop sweeps: %w", err))
	}
	processor.Stop()
	return errors.Join(errs...)
}

// every calls fn each interval until ctx is done.
func every(ctx context.Context, interval time.Duration, fn func()) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			fn()
		}
	}
}
