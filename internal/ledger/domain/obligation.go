package domain

import (
	"github.com/felixgeelhaar/autopay/internal/shared/domain"
	"github.com/felixgeelhaar/autopay/internal/shared/infrastructure/convert"
)

// SecondsPerDay converts frequency days to ledger seconds.
const SecondsPerDay uint64 = 86400

// ObligationID identifies an obligation within one ledger. Ids start at 1.
type ObligationID uint32

// Status is the tri-state lifecycle of an obligation.
type Status string

const (
	StatusOpen      Status = "open"
	StatusFulfilled Status = "fulfilled"
	StatusCancelled Status = "cancelled"
)

// Details carries the variant-specific fields of an obligation.
type Details interface {
	// Validate returns a *Error when the details cannot be accepted. Any
	// other error is reported as an invalid amount.
	Validate() error
}

// Obligation is a payable item owned by a principal.
type Obligation[D Details] struct {
	ID            ObligationID     `json:"id"`
	Owner         domain.Principal `json:"owner"`
	Amount        int64            `json:"amount"`
	DueAt         uint64           `json:"due_at"`
	Recurring     bool             `json:"recurring"`
	FrequencyDays uint32           `json:"frequency_days"`
	Status        Status           `json:"status"`
	CreatedAt     uint64           `json:"created_at"`
	FulfilledAt   *uint64          `json:"fulfilled_at,omitempty"`
	ScheduleRef   *ScheduleID      `json:"schedule_ref,omitempty"`
	Details       D                `json:"details"`
}

// IsOpen reports whether the obligation still awaits payment.
func (o *Obligation[D]) IsOpen() bool {
	return o.Status == StatusOpen
}

// IsOverdue reports whether the obligation is open and past due at now.
func (o *Obligation[D]) IsOverdue(now uint64) bool {
	return o.IsOpen() && o.DueAt < now
}

// markFulfilled transitions to Fulfilled. Callers check IsOpen first.
func (o *Obligation[D]) markFulfilled(now uint64) {
	o.Status = StatusFulfilled
	fulfilledAt := now
	o.FulfilledAt = &fulfilledAt
}

// successor builds the next occurrence of a recurring obligation.
func (o *Obligation[D]) successor(id ObligationID, now uint64) *Obligation[D] {
	period := uint64(o.FrequencyDays) * SecondsPerDay
	next := &Obligation[D]{
		ID:            id,
		Owner:         o.Owner,
		Amount:        o.Amount,
		DueAt:         convert.SaturatingAddUint64(o.DueAt, period),
		Recurring:     true,
		FrequencyDays: o.FrequencyDays,
		Status:        StatusOpen,
		CreatedAt:     now,
		Details:       o.Details,
	}
	if o.ScheduleRef != nil {
		ref := *o.ScheduleRef
		next.ScheduleRef = &ref
	}
	return next
}

// clone returns a deep copy so readers never alias ledger state.
func (o *Obligation[D]) clone() Obligation[D] {
	c := *o
	if o.FulfilledAt != nil {
		at := *o.FulfilledAt
		c.FulfilledAt = &at
	}
	if o.ScheduleRef != nil {
		ref := *o.ScheduleRef
		c.ScheduleRef = &ref
	}
	return c
}
