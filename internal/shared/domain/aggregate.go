package domain

// EventRecorder collects the events an aggregate raised during one
// invocation. The zero value is ready to use.
type EventRecorder struct {
	events []DomainEvent
}

// Record appends event.
func (r *EventRecorder) Record(event DomainEvent) {
	r.events = append(r.events, event)
}

// DomainEvents returns the recorded events in the order they were raised.
func (r *EventRecorder) DomainEvents() []DomainEvent {
	return r.events
}

// ClearDomainEvents forgets everything recorded so far.
func (r *EventRecorder) ClearDomainEvents() {
	r.events = nil
}
