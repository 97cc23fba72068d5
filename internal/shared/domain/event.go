package domain

import (
	"time"

	"github.com/google/uuid"
)

// DomainEvent is a fact a ledger recorded. The routing key names both the
// ledger and the fact, as in "bills.schedule.missed".
type DomainEvent interface {
	EventID() uuid.UUID
	AggregateID() string
	AggregateType() string
	RoutingKey() string
	OccurredAt() time.Time
	Metadata() EventMetadata
}

// EventMetadata ties an event to the invocation that raised it.
type EventMetadata struct {
	CorrelationID uuid.UUID `json:"correlation_id"`
	CausationID   uuid.UUID `json:"causation_id"`
	Principal     string    `json:"principal,omitempty"`
}

// BaseEvent is embedded by every ledger event. Its fields are unexported so
// only the concrete event's own fields end up in the JSON payload.
type BaseEvent struct {
	id            uuid.UUID
	aggregateID   string
	aggregateType string
	routingKey    string
	occurredAt    time.Time
	meta          EventMetadata
}

// NewBaseEvent stamps a fresh event id. occurredAt is ledger time, stored
// in UTC.
func NewBaseEvent(aggregateID, aggregateType, routingKey string, occurredAt time.Time) BaseEvent {
	return BaseEvent{
		id:            uuid.New(),
		aggregateID:   aggregateID,
		aggregateType: aggregateType,
		routingKey:    routingKey,
		occurredAt:    occurredAt.UTC(),
	}
}

func (e BaseEvent) EventID() uuid.UUID      { return e.id }
func (e BaseEvent) AggregateID() string     { return e.aggregateID }
func (e BaseEvent) AggregateType() string   { return e.aggregateType }
func (e BaseEvent) RoutingKey() string      { return e.routingKey }
func (e BaseEvent) OccurredAt() time.Time   { return e.occurredAt }
func (e BaseEvent) Metadata() EventMetadata { return e.meta }

func (e *BaseEvent) SetMetadata(metadata EventMetadata) { e.meta = metadata }
