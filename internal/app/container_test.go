package app

import (
	"context"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/felixgeelhaar/autopay/internal/ledger/application/services"
	sharedDomain "github.com/felixgeelhaar/autopay/internal/shared/domain"
	"github.com/felixgeelhaar/autopay/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const day = uint64(86400)

func testConfig(backend string) *config.Config {
	return &config.Config{
		AppEnv:              "test",
		LogLevel:            "error",
		AuthMode:            config.AuthLocal,
		AuthJWTIssuer:       "autopay",
		StorageBackend:      backend,
		LeaseThreshold:      24 * time.Hour,
		LeaseBump:           720 * time.Hour,
		OutboxPollInterval:  50 * time.Millisecond,
		OutboxBatchSize:     100,
		OutboxMaxRetries:    3,
		BreakerMaxRequests:  1,
		BreakerInterval:     time.Minute,
		BreakerTimeout:      time.Second,
		KeeperSchedule:      "@every 1m",
		OutboxRetentionDays: 1,
	}
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func TestContainer_MemoryBackend(t *testing.T) {
	ctx := context.Background()
	clock := services.NewFixedClock(time.Unix(10_000, 0))
	c, err := NewContainerWithOptions(ctx, testConfig(config.StorageMemory), quietLogger(), Options{Clock: clock})
	require.NoError(t, err)
	defer c.Close()

	assert.Nil(t, c.Storage.Conn)
	assert.False(t, c.Storage.DurableOutbox)
	require.NotNil(t, c.InProcessEventBus)
	assert.Equal(t, []string{"bills", "insurance"}, c.Namespaces())
	assert.Len(t, c.Sweepers(), 2)

	owner, err := c.Authenticate(ctx, "bills", "GALICE")
	require.NoError(t, err)

	billID, err := c.Bills.CreateBill(ctx, owner, "Water", 45, 20_000, true, 1)
	require.NoError(t, err)
	_, err = c.Bills.CreateSchedule(ctx, owner, billID, 10_000+day, day)
	require.NoError(t, err)

	policyID, err := c.Insurance.CreatePolicy(ctx, owner, "Home", "property", 75, 250_000)
	require.NoError(t, err)
	assert.Equal(t, billID, policyID, "ledgers number independently")

	clock.Advance(4 * 24 * time.Hour)
	result, err := c.Bills.ExecuteDueSchedules(ctx, sharedDomain.Principal{})
	require.NoError(t, err)
	assert.Equal(t, uint32(3), result.Missed)

	require.NoError(t, c.FlushOutbox(ctx))
	alerts := c.MissedAlerter.Alerts()
	require.Len(t, alerts, 1)
	assert.Equal(t, "bills", alerts[0].Ledger)
	assert.Equal(t, uint32(3), alerts[0].Missed)
}

func TestContainer_SQLBackendPersists(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(config.StorageSQL)
	cfg.DatabaseURL = "sqlite://" + t.TempDir() + "/ledger.db"

	c, err := NewContainer(ctx, cfg, quietLogger())
	require.NoError(t, err)
	assert.True(t, c.Storage.DurableOutbox)

	owner := sharedDomain.NewPrincipal("GBOB")
	id, err := c.Bills.CreateBill(ctx, owner, "Internet", 60, uint64(time.Now().Unix())+day, false, 0)
	require.NoError(t, err)

	pending, err := c.OutboxRepo.GetUnpublished(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, pending, 1)
	require.NoError(t, c.FlushOutbox(ctx))
	require.NoError(t, c.Close())

	reopened, err := NewContainer(ctx, cfg, quietLogger())
	require.NoError(t, err)
	defer reopened.Close()

	bill, err := reopened.Bills.Bill(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Internet", bill.Details.Name)
	assert.Equal(t, int64(60), bill.Amount)

	health := reopened.Health.GetOverallHealth(ctx)
	assert.Contains(t, health.Checks, "database")
}

func TestContainer_Auth(t *testing.T) {
	ctx := context.Background()

	t.Run("local", func(t *testing.T) {
		c, err := NewContainer(ctx, testConfig(config.StorageMemory), quietLogger())
		require.NoError(t, err)
		defer c.Close()

		_, err = c.Authenticate(ctx, "bills", "")
		assert.ErrorIs(t, err, services.ErrUnauthenticated)
		_, err = c.Authenticate(ctx, "payroll", "GALICE")
		assert.ErrorIs(t, err, ErrUnknownLedger)
		assert.Nil(t, c.TokenIssuer)
	})

	t.Run("jwt", func(t *testing.T) {
		cfg := testConfig(config.StorageMemory)
		cfg.AuthMode = config.AuthJWT
		cfg.AuthJWTSecret = "test-secret-value"

		c, err := NewContainer(ctx, cfg, quietLogger())
		require.NoError(t, err)
		defer c.Close()
		require.NotNil(t, c.TokenIssuer)

		token, err := c.TokenIssuer.Issue(sharedDomain.NewPrincipal("GCAROL"), time.Hour, "insurance")
		require.NoError(t, err)

		p, err := c.Authenticate(ctx, "insurance", token)
		require.NoError(t, err)
		assert.Equal(t, "GCAROL", p.String())

		_, err = c.Authenticate(ctx, "bills", token)
		assert.ErrorIs(t, err, services.ErrUnauthenticated)

		_, err = c.Authenticate(ctx, "bills", "GCAROL")
		assert.ErrorIs(t, err, services.ErrUnauthenticated)
	})

	t.Run("jwt without secret", func(t *testing.T) {
		cfg := testConfig(config.StorageMemory)
		cfg.AuthMode = config.AuthJWT
		_, err := NewContainer(ctx, cfg, quietLogger())
		assert.Error(t, err)
	})
}
