package application

import (
	"github.com/felixgeelhaar/autopay/internal/shared/domain"
	"github.com/google/uuid"
)

// StampEvents gives every event recorded by one invocation the same
// correlation, causation and principal, and returns what it applied.
// A nil correlation ID starts a new correlation chain. Events that do not
// carry metadata are left alone.
func StampEvents(events []domain.DomainEvent, correlationID uuid.UUID, principal domain.Principal) domain.EventMetadata {
	if correlationID == uuid.Nil {
		correlationID = uuid.New()
	}
	meta := domain.EventMetadata{
		CorrelationID: correlationID,
		CausationID:   uuid.New(),
		Principal:     principal.String(),
	}
	for _, event := range events {
		if stampable, ok := event.(interface{ SetMetadata(domain.EventMetadata) }); ok {
			stampable.SetMetadata(meta)
		}
	}
	return meta
}
