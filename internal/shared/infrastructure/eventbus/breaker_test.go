package eventbus_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/felixgeelhaar/autopay/internal/shared/infrastructure/eventbus"
	"github.com/stretchr/testify/assert"
)

type flakyPublisher struct {
	calls int
	err   error
}

func (p *flakyPublisher) Publish(context.Context, string, []byte) error {
	p.calls++
	return p.err
}

func (p *flakyPublisher) Close() error { return nil }

func TestBreakerPublisher(t *testing.T) {
	ctx := context.Background()
	next := &flakyPublisher{err: errors.New("connection reset")}
	cfg := eventbus.DefaultBreakerConfig()
	cfg.FailureThreshold = 2
	cfg.Timeout = time.Hour
	publisher := eventbus.NewBreakerPublisher(next, cfg, nil)

	assert.EqualError(t, publisher.Publish(ctx, "bills.schedule.executed", nil), "connection reset")
	assert.EqualError(t, publisher.Publish(ctx, "bills.schedule.executed", nil), "connection reset")
	assert.Equal(t, "open", publisher.State())

	err := publisher.Publish(ctx, "bills.schedule.executed", nil)
	assert.ErrorIs(t, err, eventbus.ErrBrokerUnavailable)
	assert.Equal(t, 2, next.calls)
}

func TestBreakerPublisher_PassesThrough(t *testing.T) {
	next := &flakyPublisher{}
	publisher := eventbus.NewBreakerPublisher(next, eventbus.DefaultBreakerConfig(), nil)

	assert.NoError(t, publisher.Publish(context.Background(), "bills.obligation.created", []byte(`{}`)))
	assert.Equal(t, "closed", publisher.State())
	assert.NoError(t, publisher.Close())
}
