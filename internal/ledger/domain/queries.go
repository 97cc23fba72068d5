package domain

import sharedDomain "github.com/felixgeelhaar/autopay/internal/shared/domain"

// Obligation returns a copy of the obligation with the given id.
func (s *State[D]) Obligation(id ObligationID) (Obligation[D], bool) {
	o, ok := s.obligations[id]
	if !ok {
		return Obligation[D]{}, false
	}
	return o.clone(), true
}

// Obligations returns copies of all obligations in ascending id order.
func (s *State[D]) Obligations() []Obligation[D] {
	return s.filterObligations(func(*Obligation[D]) bool { return true })
}

// OpenByOwner returns the owner's open obligations.
func (s *State[D]) OpenByOwner(owner sharedDomain.Principal) []Obligation[D] {
	return s.filterObligations(func(o *Obligation[D]) bool {
		return o.IsOpen() && o.Owner.Equals(owner)
	})
}

// SumOpen totals the amounts of the owner's open obligations.
func (s *State[D]) SumOpen(owner sharedDomain.Principal) int64 {
	var total int64
	for _, o := range s.obligations {
		if o.IsOpen() && o.Owner.Equals(owner) {
			total += o.Amount
		}
	}
	return total
}

// Overdue returns every open obligation whose due time is before now.
func (s *State[D]) Overdue(now uint64) []Obligation[D] {
	return s.filterObligations(func(o *Obligation[D]) bool {
		return o.IsOverdue(now)
	})
}

// Schedule returns a copy of the schedule with the given id.
func (s *State[D]) Schedule(id ScheduleID) (Schedule, bool) {
	sch, ok := s.schedules[id]
	if !ok {
		return Schedule{}, false
	}
	return sch.clone(), true
}

// Schedules returns copies of all schedules in ascending id order.
func (s *State[D]) Schedules() []Schedule {
	return s.filterSchedules(func(*Schedule) bool { return true })
}

// SchedulesByOwner returns the owner's schedules, active or not.
func (s *State[D]) SchedulesByOwner(owner sharedDomain.Principal) []Schedule {
	return s.filterSchedules(func(sch *Schedule) bool {
		return sch.Owner.Equals(owner)
	})
}

// DueSchedules returns the schedules a sweep at now would execute.
func (s *State[D]) DueSchedules(now uint64) []Schedule {
	return s.filterSchedules(func(sch *Schedule) bool {
		return sch.IsDue(now)
	})
}

// LinkedObligation resolves the obligation a schedule currently drives.
func (s *State[D]) LinkedObligation(id ScheduleID) (ObligationID, bool) {
	return s.links.Resolve(id)
}

func (s *State[D]) filterObligations(keep func(*Obligation[D]) bool) []Obligation[D] {
	out := make([]Obligation[D], 0)
	for _, id := range s.obligationIDs() {
		if o := s.obligations[id]; keep(o) {
			out = append(out, o.clone())
		}
	}
	return out
}

func (s *State[D]) filterSchedules(keep func(*Schedule) bool) []Schedule {
	out := make([]Schedule, 0)
	for _, id := range s.scheduleIDs() {
		if sch := s.schedules[id]; keep(sch) {
			out = append(out, sch.clone())
		}
	}
	return out
}
