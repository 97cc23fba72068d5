package eventbus_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/felixgeelhaar/autopay/internal/shared/infrastructure/eventbus"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInProcessEventBus_Publish(t *testing.T) {
	ctx := context.Background()
	bus := eventbus.NewInProcessEventBus(nil)
	consumer := &mockConsumer{eventTypes: []string{"bills.schedule.missed"}}
	bus.RegisterConsumer(consumer)

	body, err := json.Marshal(eventbus.ConsumedEvent{
		EventID:       uuid.New(),
		AggregateID:   "5",
		AggregateType: "bills.schedule",
		OccurredAt:    time.Unix(100, 0).UTC(),
		Payload:       json.RawMessage(`{"missed":3}`),
		Metadata:      eventbus.EventMetadata{Principal: "GALICE"},
	})
	require.NoError(t, err)

	require.NoError(t, bus.Publish(ctx, "bills.schedule.missed", body))

	require.Len(t, consumer.events, 1)
	got := consumer.events[0]
	assert.Equal(t, "bills.schedule.missed", got.RoutingKey, "transport key fills an empty envelope key")
	assert.Equal(t, "5", got.AggregateID)
	assert.Equal(t, "GALICE", got.Metadata.Principal)
	assert.JSONEq(t, `{"missed":3}`, string(got.Payload))
}

func TestInProcessEventBus_EnvelopeKeyWins(t *testing.T) {
	bus := eventbus.NewInProcessEventBus(nil)
	bills := &mockConsumer{eventTypes: []string{"bills.schedule.missed"}}
	insurance := &mockConsumer{eventTypes: []string{"insurance.schedule.missed"}}
	bus.RegisterConsumer(bills)
	bus.RegisterConsumer(insurance)

	body := []byte(`{"routing_key":"insurance.schedule.missed","aggregate_id":"8"}`)
	require.NoError(t, bus.Publish(context.Background(), "bills.schedule.missed", body))

	assert.Empty(t, bills.events)
	require.Len(t, insurance.events, 1)
	assert.Equal(t, "8", insurance.events[0].AggregateID)
}

func TestInProcessEventBus_SwallowsFailures(t *testing.T) {
	ctx := context.Background()
	bus := eventbus.NewInProcessEventBus(nil)
	consumer := &mockConsumer{eventTypes: []string{"bills.schedule.missed"}, err: errors.New("boom")}
	bus.RegisterConsumer(consumer)

	require.NoError(t, bus.Publish(ctx, "bills.schedule.missed", []byte(`{"routing_key":"bills.schedule.missed"}`)))
	assert.Len(t, consumer.events, 1)

	require.NoError(t, bus.Publish(ctx, "bills.schedule.missed", []byte("not json")))
	assert.Len(t, consumer.events, 1)
}

func TestInProcessPublisher(t *testing.T) {
	bus := eventbus.NewInProcessEventBus(nil)
	consumer := &mockConsumer{eventTypes: []string{"bills.obligation.fulfilled"}}
	bus.RegisterConsumer(consumer)
	publisher := eventbus.NewInProcessPublisher(bus, nil)

	require.NoError(t, publisher.Publish(context.Background(), "bills.obligation.fulfilled", []byte(`{}`)))

	assert.Len(t, consumer.events, 1)
	assert.NoError(t, publisher.Close())
	assert.NoError(t, bus.Close())
}
