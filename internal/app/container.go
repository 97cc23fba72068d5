package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	billsApp "github.com/felixgeelhaar/autopay/internal/bills/application"
	billsDomain "github.com/felixgeelhaar/autopay/internal/bills/domain"
	insuranceApp "github.com/felixgeelhaar/autopay/internal/insurance/application"
	insuranceDomain "github.com/felixgeelhaar/autopay/internal/insurance/domain"
	"github.com/felixgeelhaar/autopay/internal/keeper"
	ledgerApp "github.com/felixgeelhaar/autopay/internal/ledger/application"
	"github.com/felixgeelhaar/autopay/internal/ledger/application/services"
	"github.com/felixgeelhaar/autopay/internal/ledger/infrastructure/auth"
	"github.com/felixgeelhaar/autopay/internal/ledger/infrastructure/persistence"
	sharedDomain "github.com/felixgeelhaar/autopay/internal/shared/domain"
	"github.com/felixgeelhaar/autopay/internal/shared/infrastructure/eventbus"
	"github.com/felixgeelhaar/autopay/internal/shared/infrastructure/outbox"
	"github.com/felixgeelhaar/autopay/pkg/config"
	"github.com/felixgeelhaar/autopay/pkg/observability"
)

// ErrUnknownLedger is returned for a ledger namespace the container does not host.
var ErrUnknownLedger = errors.New("unknown ledger")

// Container holds all application dependencies.
type Container struct {
	Config  *config.Config
	Logger  *slog.Logger
	Metrics observability.Metrics
	Clock   services.Clock

	// Storage
	Storage    *Storage
	OutboxRepo outbox.Repository

	// Events
	EventPublisher    eventbus.Publisher
	InProcessEventBus *eventbus.InProcessEventBus
	OutboxProcessor   *outbox.Processor
	MissedAlerter     *keeper.MissedScheduleAlerter

	// Ledgers
	Bills     *billsApp.Service
	Insurance *insuranceApp.Service

	// Auth
	TokenIssuer *auth.TokenIssuer
	authorizers map[string]services.Authorizer

	Health *observability.HealthRegistry
}

// Options override pieces of the container that tests and the sweep
// command pin down.
type Options struct {
	Clock   services.Clock
	Metrics observability.Metrics
}

// NewContainer creates and wires all dependencies.
func NewContainer(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Container, error) {
	return NewContainerWithOptions(ctx, cfg, logger, Options{})
}

// NewContainerWithOptions creates the container with explicit overrides.
func NewContainerWithOptions(ctx context.Context, cfg *config.Config, logger *slog.Logger, opts Options) (*Container, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.Clock == nil {
		opts.Clock = services.SystemClock{}
	}
	if opts.Metrics == nil {
		opts.Metrics = observability.NewInMemoryMetrics()
	}

	c := &Container{
		Config:      cfg,
		Logger:      logger,
		Metrics:     opts.Metrics,
		Clock:       opts.Clock,
		Health:      observability.NewHealthRegistry(),
		authorizers: make(map[string]services.Authorizer),
	}

	storage, err := NewRepositoryFactory(cfg, logger).Open(ctx)
	if err != nil {
		return nil, err
	}
	c.Storage = storage
	c.OutboxRepo = storage.Outbox
	if storage.Conn != nil {
		c.Health.Register("database", observability.DatabaseHealthChecker(storage.Conn.Ping))
	}
	if storage.RedisClient != nil {
		c.Health.Register("redis", observability.RedisHealthChecker(func(ctx context.Context) error {
			return storage.RedisClient.Ping(ctx).Err()
		}))
	}

	c.setupEvents(cfg, logger)

	lease := persistence.LeasePolicy{Threshold: cfg.LeaseThreshold, Bump: cfg.LeaseBump}
	uow := storage.Backend.UnitOfWork()

	billsRepo := persistence.NewKVStateRepository[billsDomain.Details](storage.Backend, billsDomain.Profile(), lease)
	billsInvoker := ledgerApp.NewInvoker[billsDomain.Details](billsRepo, c.OutboxRepo, uow, c.Clock, logger)
	c.Bills = billsApp.NewService(billsInvoker, c.Metrics, logger)

	insuranceRepo := persistence.NewKVStateRepository[insuranceDomain.Details](storage.Backend, insuranceDomain.Profile(), lease)
	insuranceInvoker := ledgerApp.NewInvoker[insuranceDomain.Details](insuranceRepo, c.OutboxRepo, uow, c.Clock, logger)
	c.Insurance = insuranceApp.NewService(insuranceInvoker, c.Metrics, logger)

	if err := c.setupAuth(cfg); err != nil {
		_ = c.Close()
		return nil, err
	}

	return c, nil
}

// setupEvents picks the publisher the outbox relays to. With a broker URL
// events go to RabbitMQ behind a circuit breaker; otherwise they are
// dispatched in process to the missed-schedule alerter.
func (c *Container) setupEvents(cfg *config.Config, logger *slog.Logger) {
	c.MissedAlerter = keeper.NewMissedScheduleAlerter(c.Namespaces(), c.Metrics, logger)

	if cfg.UsesBroker() {
		rabbit, err := eventbus.NewRabbitMQPublisher(cfg.RabbitMQURL, logger)
		if err == nil {
			c.Health.Register("rabbitmq", observability.RabbitMQHealthChecker(rabbit.Ping))
			c.EventPublisher = eventbus.NewBreakerPublisher(rabbit, eventbus.BreakerConfig{
				Name:             "rabbitmq",
				FailureThreshold: cfg.BreakerFailureThreshold,
				MaxRequests:      cfg.BreakerMaxRequests,
				Interval:         cfg.BreakerInterval,
				Timeout:          cfg.BreakerTimeout,
			}, logger)
		} else {
			logger.Warn("RabbitMQ not available, dispatching events in process", "error", err)
		}
	}

	if c.EventPublisher == nil {
		c.InProcessEventBus = eventbus.NewInProcessEventBus(logger)
		c.InProcessEventBus.RegisterConsumer(c.MissedAlerter)
		c.EventPublisher = eventbus.NewInProcessPublisher(c.InProcessEventBus, logger)
	}

	c.OutboxProcessor = outbox.NewProcessor(c.OutboxRepo, c.EventPublisher, outbox.ProcessorConfig{
		PollInterval:     cfg.OutboxPollInterval,
		BatchSize:        cfg.OutboxBatchSize,
		MaxRetries:       cfg.OutboxMaxRetries,
		RetryBackoffBase: outbox.DefaultProcessorConfig().RetryBackoffBase,
		RetryBackoffMax:  outbox.DefaultProcessorConfig().RetryBackoffMax,
	}, logger, outbox.WithMetrics(c.Metrics))
}

func (c *Container) setupAuth(cfg *config.Config) error {
	for _, ns := range c.Namespaces() {
		if cfg.AuthMode != config.AuthJWT {
			c.authorizers[ns] = services.LocalAuthorizer{}
			continue
		}
		authorizer, err := auth.NewTokenAuthorizer(cfg.AuthJWTSecret, cfg.AuthJWTIssuer, ns, c.Clock)
		if err != nil {
			return fmt.Errorf("failed to create %s authorizer: %w", ns, err)
		}
		c.authorizers[ns] = authorizer
	}

	if cfg.AuthJWTSecret != "" {
		issuer, err := auth.NewTokenIssuer(cfg.AuthJWTSecret, cfg.AuthJWTIssuer, c.Clock)
		if err != nil {
			return err
		}
		c.TokenIssuer = issuer
	}
	return nil
}

// Namespaces lists the hosted ledgers in sweep order.
func (c *Container) Namespaces() []string {
	return []string{billsDomain.Namespace, insuranceDomain.Namespace}
}

// Sweepers returns every hosted ledger for the keeper.
func (c *Container) Sweepers() []keeper.Sweeper {
	return []keeper.Sweeper{c.Bills, c.Insurance}
}

// Authenticate resolves the caller of an operation on ledger.
func (c *Container) Authenticate(ctx context.Context, ledger, credential string) (sharedDomain.Principal, error) {
	authorizer, ok := c.authorizers[ledger]
	if !ok {
		return sharedDomain.Principal{}, fmt.Errorf("%w: %s", ErrUnknownLedger, ledger)
	}
	return authorizer.Authenticate(ctx, credential)
}

// FlushOutbox relays pending events once. Processes that exit right after
// a command call it when the outbox is not durable.
func (c *Container) FlushOutbox(ctx context.Context) error {
	if c.Storage.DurableOutbox {
		return nil
	}
	return c.OutboxProcessor.ProcessOnce(ctx)
}

// Close shuts down everything the container opened.
func (c *Container) Close() error {
	if c.OutboxProcessor != nil && c.OutboxProcessor.IsRunning() {
		c.OutboxProcessor.Stop()
	}

	if c.EventPublisher != nil {
		if err := c.EventPublisher.Close(); err != nil {
			c.Logger.Warn("error closing event publisher", "error", err)
		}
	}

	if c.Storage != nil {
		if err := c.Storage.Close(); err != nil {
			return fmt.Errorf("failed to close storage: %w", err)
		}
	}
	return nil
}
