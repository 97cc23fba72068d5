package cli

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"strings"
	"testing"
	"time"

	internalApp "github.com/felixgeelhaar/autopay/internal/app"
	"github.com/felixgeelhaar/autopay/internal/ledger/application/services"
	"github.com/felixgeelhaar/autopay/pkg/config"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var start = time.Unix(1_700_000_000, 0).UTC()

func setupApp(t *testing.T, cfg *config.Config) (*App, *internalApp.Container) {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	clock := services.NewFixedClock(start)
	container, err := internalApp.NewContainerWithOptions(context.Background(), cfg, logger, internalApp.Options{Clock: clock})
	require.NoError(t, err)

	a := NewApp(container.Bills, container.Insurance, container, clock)
	a.TokenIssuer = container.TokenIssuer
	a.Flush = container.FlushOutbox
	SetApp(a)
	t.Cleanup(func() {
		SetApp(nil)
		SetCredentials("", "")
		sweepAt, sweepLedger = "", ""
		tokenTTL, tokenLedgers = 0, nil
		_ = container.Close()
	})
	return a, container
}

func memoryConfig() *config.Config {
	return &config.Config{
		AppEnv:         "test",
		AuthMode:       config.AuthLocal,
		StorageBackend: config.StorageMemory,
		LeaseThreshold: 24 * time.Hour,
		LeaseBump:      720 * time.Hour,
	}
}

func runCmd(t *testing.T, cmd *cobra.Command, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetContext(context.Background())
	err := cmd.RunE(cmd, args)
	return out.String(), err
}

func TestSweepCmd_CatchesUp(t *testing.T) {
	a, container := setupApp(t, memoryConfig())
	SetCredentials("GALICE", "")
	ctx := context.Background()
	now := uint64(start.Unix())

	alice, err := a.Caller(ctx, "bills")
	require.NoError(t, err)
	billID, err := a.Bills.CreateBill(ctx, alice, "Internet", 50, now+86400, true, 1)
	require.NoError(t, err)
	_, err = a.Bills.CreateSchedule(ctx, alice, billID, now+86400, 86400)
	require.NoError(t, err)

	out, err := runCmd(t, sweepCmd)
	require.NoError(t, err)
	assert.Contains(t, out, "bills: swept at")
	assert.Contains(t, out, "insurance: swept at")
	assert.Equal(t, 2, strings.Count(out, "nothing due"))

	// Anyone may sweep, including an anonymous caller.
	SetCredentials("", "")
	sweepAt = "+3d"
	sweepLedger = "bills"
	out, err = runCmd(t, sweepCmd)
	require.NoError(t, err)
	assert.NotContains(t, out, "insurance")
	assert.Contains(t, out, "executed: [1]")
	assert.Contains(t, out, "paid:     1")
	assert.Contains(t, out, "missed:   2 due dates")
	assert.Equal(t, now+3*86400, a.Now())

	require.NoError(t, container.FlushOutbox(ctx))
	alerts := container.MissedAlerter.Alerts()
	require.Len(t, alerts, 1)
	assert.Equal(t, uint32(2), alerts[0].Missed)
}

func TestSweepCmd_RejectsPastTime(t *testing.T) {
	a, _ := setupApp(t, memoryConfig())
	before := a.Now()

	for _, at := range []string{"2023-01-01", "1699999999"} {
		sweepAt = at
		out, err := runCmd(t, sweepCmd)

		require.ErrorIs(t, err, ErrClockBackwards)
		assert.Empty(t, out)
		assert.Equal(t, before, a.Now())
	}

	sweepAt = "1700000000"
	_, err := runCmd(t, sweepCmd)
	require.NoError(t, err)
	assert.Equal(t, before, a.Now())
}

func TestSweepCmd_UnknownLedger(t *testing.T) {
	setupApp(t, memoryConfig())
	sweepLedger = "pets"

	_, err := runCmd(t, sweepCmd)
	assert.ErrorIs(t, err, ErrUnknownLedger)
}

func TestTokenIssueCmd(t *testing.T) {
	cfg := memoryConfig()
	cfg.AuthMode = config.AuthJWT
	cfg.AuthJWTSecret = "test-secret"
	cfg.AuthJWTIssuer = "autopay"
	a, _ := setupApp(t, cfg)
	ctx := context.Background()

	tokenLedgers = []string{"insurance"}
	out, err := runCmd(t, tokenIssueCmd, "GALICE")
	require.NoError(t, err)
	token := strings.TrimSpace(out)
	require.NotEmpty(t, token)

	SetCredentials("", token)
	p, err := a.Caller(ctx, "insurance")
	require.NoError(t, err)
	assert.Equal(t, "GALICE", p.String())

	_, err = a.Caller(ctx, "bills")
	assert.ErrorIs(t, err, services.ErrUnauthenticated)

	tokenLedgers = []string{"pets"}
	_, err = runCmd(t, tokenIssueCmd, "GALICE")
	assert.ErrorIs(t, err, ErrUnknownLedger)
}

func TestTokenIssueCmd_WithoutSecret(t *testing.T) {
	setupApp(t, memoryConfig())

	out, err := runCmd(t, tokenIssueCmd, "GALICE")
	require.NoError(t, err)
	assert.Contains(t, out, "requires AUTH_JWT_SECRET")
}
