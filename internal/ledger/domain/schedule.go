package domain

import (
	"github.com/felixgeelhaar/autopay/internal/shared/domain"
	"github.com/felixgeelhaar/autopay/internal/shared/infrastructure/convert"
)

// ScheduleID identifies a schedule. Schedules have their own id space.
type ScheduleID uint32

// Schedule is a timer that fulfills its linked obligation when due.
// ObligationRef is zero once another schedule has taken over the obligation.
type Schedule struct {
	ID             ScheduleID       `json:"id"`
	Owner          domain.Principal `json:"owner"`
	ObligationRef  ObligationID     `json:"obligation_ref"`
	NextDue        uint64           `json:"next_due"`
	Interval       uint64           `json:"interval"`
	Recurring      bool             `json:"recurring"`
	Active         bool             `json:"active"`
	CreatedAt      uint64           `json:"created_at"`
	LastExecutedAt *uint64          `json:"last_executed_at,omitempty"`
	MissedCount    uint32           `json:"missed_count"`
}

// IsDue reports whether the sweep at now must execute the schedule.
func (s *Schedule) IsDue(now uint64) bool {
	return s.Active && s.NextDue <= now
}

// Advance moves the schedule past now after an execution and returns how many
// additional interval boundaries had already elapsed. One-time schedules
// deactivate for good.
func (s *Schedule) Advance(now uint64) uint32 {
	executedAt := now
	s.LastExecutedAt = &executedAt

	if !s.Recurring || s.Interval == 0 {
		s.Active = false
		return 0
	}

	next, missed := CatchUp(s.NextDue, s.Interval, now)
	s.MissedCount = saturatingAddUint32(s.MissedCount, missed)
	s.NextDue = next
	return missed
}

// CatchUp returns the first boundary nextDue+k*interval (k >= 1) strictly after
// now, and the number of boundaries at or before now that were skipped past the
// executed one.
func CatchUp(nextDue, interval, now uint64) (uint64, uint32) {
	next := convert.SaturatingAddUint64(nextDue, interval)
	if next > now {
		return next, 0
	}
	skipped := (now-next)/interval + 1
	next = convert.SaturatingAddUint64(next, skipped*interval)
	return next, clampUint32(skipped)
}

func (s *Schedule) clone() Schedule {
	c := *s
	if s.LastExecutedAt != nil {
		at := *s.LastExecutedAt
		c.LastExecutedAt = &at
	}
	return c
}

func clampUint32(v uint64) uint32 {
	if v > uint64(^uint32(0)) {
		return ^uint32(0)
	}
	return uint32(v)
}

func saturatingAddUint32(a, b uint32) uint32 {
	if a > ^uint32(0)-b {
		return ^uint32(0)
	}
	return a + b
}
