package cli

import (
	"context"
	"errors"
	"testing"

	"github.com/felixgeelhaar/autopay/pkg/observability"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHealthCmd(t *testing.T) {
	a, _ := setupApp(t, memoryConfig())

	out, err := runCmd(t, healthCmd)
	require.NoError(t, err)
	assert.Contains(t, out, "Ledgers: [bills insurance]")
	assert.Contains(t, out, "no checks registered")

	a.Health = observability.NewHealthRegistry()
	a.Health.Register("rabbitmq", observability.RabbitMQHealthChecker(func(context.Context) error {
		return errors.New("refused")
	}))
	out, err = runCmd(t, healthCmd)
	require.NoError(t, err, "a degraded broker is not fatal")
	assert.Contains(t, out, "Status:  degraded")
	assert.Contains(t, out, "rabbitmq connection failed: refused")

	a.Health.Register("database", observability.DatabaseHealthChecker(func(context.Context) error {
		return errors.New("disk full")
	}))
	out, err = runCmd(t, healthCmd)
	assert.Error(t, err)
	assert.Contains(t, out, "Status:  unhealthy")
}

func TestHealthCmd_NoApp(t *testing.T) {
	SetApp(nil)
	_, err := runCmd(t, healthCmd)
	assert.EqualError(t, err, "app not initialized")
}
