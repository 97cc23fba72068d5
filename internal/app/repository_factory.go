package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/felixgeelhaar/autopay/internal/ledger/infrastructure/persistence"
	"github.com/felixgeelhaar/autopay/internal/shared/infrastructure/database"
	_ "github.com/felixgeelhaar/autopay/internal/shared/infrastructure/database/postgres" // Register PostgreSQL driver
	_ "github.com/felixgeelhaar/autopay/internal/shared/infrastructure/database/sqlite"   // Register SQLite driver
	"github.com/felixgeelhaar/autopay/internal/shared/infrastructure/migrations"
	"github.com/felixgeelhaar/autopay/internal/shared/infrastructure/outbox"
	"github.com/felixgeelhaar/autopay/pkg/config"
	"github.com/redis/go-redis/v9"
)

// RedisKeyPrefix namespaces every ledger key in Redis.
const RedisKeyPrefix = "autopay:"

// Storage is the opened ledger backend and the outbox that shares its
// transactions where the backend allows it.
type Storage struct {
	Backend persistence.Backend
	Outbox  outbox.Repository
	// DurableOutbox is false when outbox messages only live in process
	// memory and must be relayed before the process exits.
	DurableOutbox bool

	Conn        database.Connection
	RedisClient *redis.Client
}

// Close releases the connections held by the storage.
func (s *Storage) Close() error {
	var firstErr error
	if s.Conn != nil {
		if err := s.Conn.Close(); err != nil {
			firstErr = err
		}
	}
	if s.RedisClient != nil {
		if err := s.RedisClient.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// RepositoryFactory opens the storage backend named by the configuration.
type RepositoryFactory struct {
	cfg    *config.Config
	logger *slog.Logger
}

// NewRepositoryFactory creates a new repository factory.
func NewRepositoryFactory(cfg *config.Config, logger *slog.Logger) *RepositoryFactory {
	if logger == nil {
		logger = slog.Default()
	}
	return &RepositoryFactory{cfg: cfg, logger: logger}
}

// Open connects to the configured backend.
func (f *RepositoryFactory) Open(ctx context.Context) (*Storage, error) {
	switch f.cfg.StorageBackend {
	case config.StorageMemory:
		f.logger.Warn("using in-memory storage, ledgers are lost on exit")
		store := persistence.NewMemoryStore()
		return &Storage{Backend: store, Outbox: outbox.NewInMemoryRepository()}, nil
	case config.StorageSQL:
		return f.openSQL(ctx)
	case config.StorageRedis:
		return f.openRedis(ctx)
	default:
		return nil, fmt.Errorf("unsupported storage backend: %s", f.cfg.StorageBackend)
	}
}

func (f *RepositoryFactory) openSQL(ctx context.Context) (*Storage, error) {
	conn, err := database.NewConnection(ctx, database.Config{URL: f.cfg.DatabaseURL})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := migrations.Run(ctx, conn); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	outboxRepo, err := outbox.NewRepository(conn)
	if err != nil {
		_ = conn.Close()
		return nil, err
	}

	f.logger.Info("connected to database", "driver", conn.Driver().String())
	return &Storage{
		Backend:       persistence.NewSQLStore(conn),
		Outbox:        outboxRepo,
		DurableOutbox: true,
		Conn:          conn,
	}, nil
}

func (f *RepositoryFactory) openRedis(ctx context.Context) (*Storage, error) {
	opt, err := redis.ParseURL(f.cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}
	client := redis.NewClient(opt)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	f.logger.Info("connected to Redis", "addr", opt.Addr)
	return &Storage{
		Backend:     persistence.NewRedisStore(client, RedisKeyPrefix),
		Outbox:      outbox.NewInMemoryRepository(),
		RedisClient: client,
	}, nil
}
