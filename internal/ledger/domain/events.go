package domain

import (
	"strconv"
	"time"

	sharedDomain "github.com/felixgeelhaar/autopay/internal/shared/domain"
	"github.com/felixgeelhaar/autopay/internal/shared/infrastructure/convert"
)

const (
	AggregateObligation = "obligation"
	AggregateSchedule   = "schedule"

	EventCreated   = "created"
	EventFulfilled = "fulfilled"
	EventCancelled = "cancelled"
	EventModified  = "modified"
	EventExecuted  = "executed"
	EventMissed    = "missed"
)

// LedgerTime converts ledger seconds to a UTC time.
func LedgerTime(seconds uint64) time.Time {
	return time.Unix(convert.Uint64ToInt64Clamped(seconds), 0).UTC()
}

func newObligationEvent(p Profile, id ObligationID, event string, now uint64) sharedDomain.BaseEvent {
	return sharedDomain.NewBaseEvent(
		strconv.FormatUint(uint64(id), 10),
		p.AggregateType(AggregateObligation),
		p.RoutingKey(AggregateObligation, event),
		LedgerTime(now),
	)
}

func newScheduleEvent(p Profile, id ScheduleID, event string, now uint64) sharedDomain.BaseEvent {
	return sharedDomain.NewBaseEvent(
		strconv.FormatUint(uint64(id), 10),
		p.AggregateType(AggregateSchedule),
		p.RoutingKey(AggregateSchedule, event),
		LedgerTime(now),
	)
}

// ObligationCreated is emitted when an obligation is created, including successors.
type ObligationCreated struct {
	sharedDomain.BaseEvent
	ObligationID  ObligationID `json:"obligation_id"`
	Owner         string       `json:"owner"`
	Amount        int64        `json:"amount"`
	DueAt         uint64       `json:"due_at"`
	Recurring     bool         `json:"recurring"`
	FrequencyDays uint32       `json:"frequency_days"`
	PredecessorID ObligationID `json:"predecessor_id,omitempty"`
}

// ObligationFulfilled is emitted when an obligation is paid, by its owner or by a schedule.
type ObligationFulfilled struct {
	sharedDomain.BaseEvent
	ObligationID ObligationID `json:"obligation_id"`
	Owner        string       `json:"owner"`
	Amount       int64        `json:"amount"`
	FulfilledAt  uint64       `json:"fulfilled_at"`
	SuccessorID  ObligationID `json:"successor_id,omitempty"`
	ScheduleID   ScheduleID   `json:"schedule_id,omitempty"`
}

// ObligationCancelled is emitted when an obligation is removed or deactivated.
type ObligationCancelled struct {
	sharedDomain.BaseEvent
	ObligationID ObligationID `json:"obligation_id"`
	Owner        string       `json:"owner"`
	Removed      bool         `json:"removed"`
}

// ScheduleCreated is emitted when a schedule is linked to an obligation.
type ScheduleCreated struct {
	sharedDomain.BaseEvent
	ScheduleID   ScheduleID   `json:"schedule_id"`
	ObligationID ObligationID `json:"obligation_id"`
	Owner        string       `json:"owner"`
	NextDue      uint64       `json:"next_due"`
	Interval     uint64       `json:"interval"`
}

// ScheduleModified is emitted when a schedule's timing changes.
type ScheduleModified struct {
	sharedDomain.BaseEvent
	ScheduleID ScheduleID `json:"schedule_id"`
	NextDue    uint64     `json:"next_due"`
	Interval   uint64     `json:"interval"`
}

// ScheduleCancelled is emitted when a schedule is deactivated by its owner.
type ScheduleCancelled struct {
	sharedDomain.BaseEvent
	ScheduleID ScheduleID `json:"schedule_id"`
}

// ScheduleExecuted is emitted for every schedule a sweep processes.
type ScheduleExecuted struct {
	sharedDomain.BaseEvent
	ScheduleID   ScheduleID   `json:"schedule_id"`
	ObligationID ObligationID `json:"obligation_id,omitempty"`
	Fulfilled    bool         `json:"fulfilled"`
	NextDue      uint64       `json:"next_due"`
	Active       bool         `json:"active"`
}

// ScheduleMissed is emitted when a sweep skips elapsed interval boundaries.
type ScheduleMissed struct {
	sharedDomain.BaseEvent
	ScheduleID ScheduleID `json:"schedule_id"`
	Missed     uint32     `json:"missed"`
}
