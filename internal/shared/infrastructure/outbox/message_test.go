package outbox

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/felixgeelhaar/autopay/internal/shared/domain"
	"github.com/felixgeelhaar/autopay/internal/shared/infrastructure/eventbus"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testEvent struct {
	domain.BaseEvent
	Data string `json:"data"`
}

func newTestEvent(aggregateID, data string) *testEvent {
	return &testEvent{
		BaseEvent: domain.NewBaseEvent(aggregateID, "bills.obligation", "bills.obligation.created", time.Unix(1_700_000_000, 0)),
		Data:      data,
	}
}

func TestNewMessage(t *testing.T) {
	t.Run("creates message from domain event", func(t *testing.T) {
		event := newTestEvent("7", "test data")

		msg, err := NewMessage(event)

		require.NoError(t, err)
		assert.Equal(t, event.EventID(), msg.EventID)
		assert.Equal(t, "bills.obligation", msg.AggregateType)
		assert.Equal(t, "7", msg.AggregateID)
		assert.Equal(t, "bills.obligation.created", msg.EventType)
		assert.Equal(t, "bills.obligation.created", msg.RoutingKey)
		assert.Equal(t, event.OccurredAt(), msg.CreatedAt)
		assert.Contains(t, string(msg.Payload), "test data")
		assert.Zero(t, msg.ID)
		assert.Nil(t, msg.PublishedAt)
		assert.Zero(t, msg.RetryCount)
	})

	t.Run("serializes event metadata", func(t *testing.T) {
		event := newTestEvent("7", "test")
		metadata := domain.EventMetadata{
			CorrelationID: uuid.New(),
			CausationID:   uuid.New(),
			Principal:     "GALICE",
		}
		event.SetMetadata(metadata)

		msg, err := NewMessage(event)

		require.NoError(t, err)
		assert.Contains(t, string(msg.Metadata), metadata.CorrelationID.String())
		assert.Contains(t, string(msg.Metadata), `"principal":"GALICE"`)
	})
}

func TestMessage_Exhausted(t *testing.T) {
	tests := []struct {
		retries    int
		maxRetries int
		want       bool
	}{
		{0, 3, false},
		{1, 3, false},
		{2, 3, true},
		{7, 3, true},
		{0, 1, true},
		{0, 0, true},
	}
	for _, tt := range tests {
		msg := &Message{RetryCount: tt.retries}
		assert.Equal(t, tt.want, msg.Exhausted(tt.maxRetries), "retries=%d max=%d", tt.retries, tt.maxRetries)
	}
}

func TestMessage_Envelope(t *testing.T) {
	event := newTestEvent("9", "body")
	event.SetMetadata(domain.EventMetadata{CorrelationID: uuid.New(), CausationID: uuid.New(), Principal: "GBOB"})
	msg, err := NewMessage(event)
	require.NoError(t, err)

	raw, err := msg.Envelope()
	require.NoError(t, err)

	var envelope eventbus.ConsumedEvent
	require.NoError(t, json.Unmarshal(raw, &envelope))
	assert.Equal(t, event.EventID(), envelope.EventID)
	assert.Equal(t, "9", envelope.AggregateID)
	assert.Equal(t, "bills.obligation.created", envelope.RoutingKey)
	assert.Equal(t, "GBOB", envelope.Metadata.Principal)
	assert.JSONEq(t, string(msg.Payload), string(envelope.Payload))
}

func TestMessage_EnvelopeWithoutMetadata(t *testing.T) {
	msg := &Message{EventID: uuid.New(), RoutingKey: "insurance.schedule.missed", Payload: json.RawMessage(`{}`)}

	raw, err := msg.Envelope()
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "principal")

	msg.Metadata = json.RawMessage(`not json`)
	_, err = msg.Envelope()
	assert.Error(t, err)
}
