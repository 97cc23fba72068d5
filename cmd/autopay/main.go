package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/felixgeelhaar/autopay/adapter/cli"
	"github.com/felixgeelhaar/autopay/adapter/cli/bill"
	"github.com/felixgeelhaar/autopay/adapter/cli/policy"
	"github.com/felixgeelhaar/autopay/adapter/cli/schedule"
	"github.com/felixgeelhaar/autopay/internal/app"
	"github.com/felixgeelhaar/autopay/internal/ledger/application/services"
	"github.com/felixgeelhaar/autopay/pkg/config"
	"github.com/felixgeelhaar/autopay/pkg/observability"
)

func main() {
	logger := observability.LoggerFromEnv()

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		cancel()
	}()

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	if cfg.IsDevelopment() {
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelWarn,
		}))
	}
	cli.SetLogger(logger)

	// Every ledger call of one command reads the same instant. sweep --at
	// moves this clock.
	clock := services.NewFixedClock(time.Now())

	var cliApp *cli.App
	container, err := app.NewContainerWithOptions(ctx, cfg, logger, app.Options{Clock: clock})
	if err != nil {
		if cfg.IsDevelopment() {
			logger.Warn("failed to initialize container, running in limited mode", "error", err)
		} else {
			logger.Error("failed to initialize container", "error", err)
			os.Exit(1)
		}
	} else {
		defer func() { _ = container.Close() }()

		cliApp = cli.NewApp(container.Bills, container.Insurance, container, clock)
		cliApp.TokenIssuer = container.TokenIssuer
		cliApp.TokenTTL = cfg.AuthTokenTTL
		cliApp.Flush = container.FlushOutbox
		cliApp.Health = container.Health
		cliApp.DefaultCredential = cfg.Principal
		if cfg.AuthMode == config.AuthJWT {
			cliApp.DefaultCredential = cfg.AuthToken
		}
	}

	cli.SetApp(cliApp)

	cli.AddCommand(bill.Cmd)
	cli.AddCommand(policy.Cmd)
	cli.AddCommand(schedule.Cmd)

	cli.Execute(ctx)
}
