package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Storage backends a ledger can live in.
const (
	StorageMemory = "memory"
	StorageSQL    = "sql"
	StorageRedis  = "redis"
)

// Authentication modes.
const (
	// AuthLocal trusts AUTOPAY_PRINCIPAL (or --as) as the caller.
	AuthLocal = "local"
	// AuthJWT requires a signed token resolved by the token authorizer.
	AuthJWT = "jwt"
)

// Config holds application configuration.
type Config struct {
	// Application
	AppEnv    string
	LogLevel  string
	Principal string

	// Auth
	AuthMode      string
	AuthJWTSecret string
	AuthJWTIssuer string
	AuthToken     string
	AuthTokenTTL  time.Duration

	// Storage
	StorageBackend string
	DatabaseURL    string
	RedisURL       string
	LeaseThreshold time.Duration
	LeaseBump      time.Duration

	// RabbitMQ
	RabbitMQURL string

	// Outbox
	OutboxPollInterval     time.Duration
	OutboxBatchSize        int
	OutboxMaxRetries       int
	OutboxStatsInterval    time.Duration
	OutboxRetentionDays    int
	OutboxCleanupInterval  time.Duration
	OutboxProcessorEnabled bool

	// Publisher circuit breaker
	BreakerFailureThreshold uint32
	BreakerMaxRequests      uint32
	BreakerInterval         time.Duration
	BreakerTimeout          time.Duration

	// Keeper
	KeeperSchedule   string
	KeeperTimezone   string
	KeeperHealthAddr string
}

// Load loads configuration from environment variables, reading a .env file
// first when one exists.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		AppEnv:    getEnv("APP_ENV", "development"),
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		Principal: getEnv("AUTOPAY_PRINCIPAL", ""),

		AuthMode:      getEnv("AUTH_MODE", AuthLocal),
		AuthJWTSecret: getEnv("AUTH_JWT_SECRET", ""),
		AuthJWTIssuer: getEnv("AUTH_JWT_ISSUER", "autopay"),
		AuthToken:     getEnv("AUTH_TOKEN", ""),
		AuthTokenTTL:  getDurationEnv("AUTH_TOKEN_TTL", 24*time.Hour),

		StorageBackend: getEnv("STORAGE_BACKEND", StorageSQL),
		DatabaseURL:    getEnv("DATABASE_URL", ""),
		RedisURL:       getEnv("REDIS_URL", "redis://localhost:6379/0"),
		LeaseThreshold: getDurationEnv("LEASE_THRESHOLD", 24*time.Hour),
		LeaseBump:      getDurationEnv("LEASE_BUMP", 720*time.Hour),

		RabbitMQURL: getEnv("RABBITMQ_URL", ""),

		OutboxPollInterval:     getDurationEnv("OUTBOX_POLL_INTERVAL", 500*time.Millisecond),
		OutboxBatchSize:        getIntEnv("OUTBOX_BATCH_SIZE", 100),
		OutboxMaxRetries:       getIntEnv("OUTBOX_MAX_RETRIES", 5),
		OutboxStatsInterval:    getDurationEnv("OUTBOX_STATS_INTERVAL", 30*time.Second),
		OutboxRetentionDays:    getIntEnv("OUTBOX_RETENTION_DAYS", 14),
		OutboxCleanupInterval:  getDurationEnv("OUTBOX_CLEANUP_INTERVAL", 24*time.Hour),
		OutboxProcessorEnabled: getBoolEnv("OUTBOX_PROCESSOR_ENABLED", true),

		BreakerFailureThreshold: getUint32Env("PUBLISHER_BREAKER_FAILURE_THRESHOLD", 5),
		BreakerMaxRequests:      getUint32Env("PUBLISHER_BREAKER_MAX_REQUESTS", 1),
		BreakerInterval:         getDurationEnv("PUBLISHER_BREAKER_INTERVAL", time.Minute),
		BreakerTimeout:          getDurationEnv("PUBLISHER_BREAKER_TIMEOUT", 30*time.Second),

		KeeperSchedule:   getEnv("KEEPER_SCHEDULE", "@every 1m"),
		KeeperTimezone:   getEnv("KEEPER_TIMEZONE", "UTC"),
		KeeperHealthAddr: getEnv("KEEPER_HEALTH_ADDR", "0.0.0.0:8081"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports settings that cannot work together.
func (c *Config) Validate() error {
	switch c.StorageBackend {
	case StorageMemory, StorageSQL, StorageRedis:
	default:
		return fmt.Errorf("unknown STORAGE_BACKEND %q", c.StorageBackend)
	}
	switch c.AuthMode {
	case AuthLocal:
	case AuthJWT:
		if c.AuthJWTSecret == "" {
			return fmt.Errorf("AUTH_JWT_SECRET is required when AUTH_MODE=jwt")
		}
	default:
		return fmt.Errorf("unknown AUTH_MODE %q", c.AuthMode)
	}
	if c.LeaseBump > 0 && c.LeaseThreshold > c.LeaseBump {
		return fmt.Errorf("LEASE_THRESHOLD (%s) must not exceed LEASE_BUMP (%s)", c.LeaseThreshold, c.LeaseBump)
	}
	return nil
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

// IsProduction returns true if running in production mode.
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// UsesBroker reports whether events leave the process through RabbitMQ.
func (c *Config) UsesBroker() bool {
	return c.RabbitMQURL != ""
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getUint32Env(key string, defaultValue uint32) uint32 {
	if value := os.Getenv(key); value != "" {
		if u, err := strconv.ParseUint(value, 10, 32); err == nil {
			return uint32(u)
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}
