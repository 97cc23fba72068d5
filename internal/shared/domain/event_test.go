package domain_test

import (
	"testing"
	"time"

	"github.com/felixgeelhaar/autopay/internal/shared/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestNewBaseEvent(t *testing.T) {
	occurredAt := time.Unix(3500, 0)

	event := domain.NewBaseEvent("7", "bills.obligation", "bills.obligation.created", occurredAt)

	assert.NotEqual(t, uuid.Nil, event.EventID())
	assert.Equal(t, "7", event.AggregateID())
	assert.Equal(t, "bills.obligation", event.AggregateType())
	assert.Equal(t, "bills.obligation.created", event.RoutingKey())
	assert.True(t, event.OccurredAt().Equal(occurredAt))
	assert.Equal(t, time.UTC, event.OccurredAt().Location())
}

func TestNewBaseEvent_UniqueIDs(t *testing.T) {
	e1 := domain.NewBaseEvent("1", "bills.schedule", "bills.schedule.executed", time.Unix(0, 0))
	e2 := domain.NewBaseEvent("1", "bills.schedule", "bills.schedule.executed", time.Unix(0, 0))

	assert.NotEqual(t, e1.EventID(), e2.EventID())
}

func TestBaseEvent_WithMetadata(t *testing.T) {
	correlationID := uuid.New()
	causationID := uuid.New()

	event := domain.NewBaseEvent("3", "insurance.obligation", "insurance.obligation.fulfilled", time.Unix(100, 0))
	event.SetMetadata(domain.EventMetadata{
		CorrelationID: correlationID,
		CausationID:   causationID,
		Principal:     "GOWNER",
	})

	metadata := event.Metadata()
	assert.Equal(t, correlationID, metadata.CorrelationID)
	assert.Equal(t, causationID, metadata.CausationID)
	assert.Equal(t, "GOWNER", metadata.Principal)
}
