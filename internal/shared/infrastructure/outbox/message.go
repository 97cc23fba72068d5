package outbox

import (
	"encoding/json"
	"time"

	"github.com/felixgeelhaar/autopay/internal/shared/domain"
	"github.com/felixgeelhaar/autopay/internal/shared/infrastructure/eventbus"
	"github.com/google/uuid"
)

// Message is one row of the outbox table. A row is pending until
// PublishedAt or DeadLetteredAt is set.
type Message struct {
	ID            int64
	EventID       uuid.UUID
	AggregateType string
	AggregateID   string
	EventType     string
	RoutingKey    string
	Payload       json.RawMessage
	Metadata      json.RawMessage
	CreatedAt     time.Time

	PublishedAt      *time.Time
	NextRetryAt      *time.Time
	RetryCount       int
	LastError        *string
	DeadLetteredAt   *time.Time
	DeadLetterReason *string
}

// NewMessage serializes a ledger event. The routing key doubles as the
// event type.
func NewMessage(event domain.DomainEvent) (*Message, error) {
	payload, err := json.Marshal(event)
	if err != nil {
		return nil, err
	}
	metadata, err := json.Marshal(event.Metadata())
	if err != nil {
		return nil, err
	}
	key := event.RoutingKey()
	return &Message{
		EventID:       event.EventID(),
		AggregateType: event.AggregateType(),
		AggregateID:   event.AggregateID(),
		EventType:     key,
		RoutingKey:    key,
		Payload:       payload,
		Metadata:      metadata,
		CreatedAt:     event.OccurredAt(),
	}, nil
}

// Exhausted reports whether one more failure uses up maxRetries attempts.
func (m *Message) Exhausted(maxRetries int) bool {
	return maxRetries <= 0 || m.RetryCount+1 >= maxRetries
}

// eventMetadata decodes the stored metadata, tolerating rows written
// without any.
func (m *Message) eventMetadata() (domain.EventMetadata, error) {
	var meta domain.EventMetadata
	if len(m.Metadata) == 0 {
		return meta, nil
	}
	err := json.Unmarshal(m.Metadata, &meta)
	return meta, err
}

// Envelope renders the body published to the broker.
func (m *Message) Envelope() ([]byte, error) {
	meta, err := m.eventMetadata()
	if err != nil {
		return nil, err
	}
	envelope := eventbus.ConsumedEvent{
		EventID:       m.EventID,
		AggregateID:   m.AggregateID,
		AggregateType: m.AggregateType,
		RoutingKey:    m.RoutingKey,
		OccurredAt:    m.CreatedAt,
		Payload:       m.Payload,
	}
	if len(m.Metadata) > 0 {
		envelope.Metadata = eventbus.EventMetadata{
			Principal:     meta.Principal,
			CorrelationID: meta.CorrelationID.String(),
			CausationID:   meta.CausationID.String(),
		}
	}
	return json.Marshal(envelope)
}
