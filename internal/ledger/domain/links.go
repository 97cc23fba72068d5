package domain

// LinkIndex keeps the one-to-one schedule↔obligation association in both
// directions. It is a side table: it owns neither record and may point at an
// obligation that has since been removed.
type LinkIndex struct {
	bySchedule   map[ScheduleID]ObligationID
	byObligation map[ObligationID]ScheduleID
}

// NewLinkIndex creates an empty index.
func NewLinkIndex() *LinkIndex {
	return &LinkIndex{
		bySchedule:   make(map[ScheduleID]ObligationID),
		byObligation: make(map[ObligationID]ScheduleID),
	}
}

// Link associates a schedule with an obligation. Any previous link of
// either side is dropped; the schedule that lost its obligation is returned.
func (l *LinkIndex) Link(scheduleID ScheduleID, obligationID ObligationID) (ScheduleID, bool) {
	l.Unlink(scheduleID)
	displaced, had := l.byObligation[obligationID]
	if had {
		delete(l.bySchedule, displaced)
	}
	l.bySchedule[scheduleID] = obligationID
	l.byObligation[obligationID] = scheduleID
	return displaced, had
}

// Unlink drops the link of a schedule, if any.
func (l *LinkIndex) Unlink(scheduleID ScheduleID) {
	obligationID, ok := l.bySchedule[scheduleID]
	if !ok {
		return
	}
	delete(l.bySchedule, scheduleID)
	if l.byObligation[obligationID] == scheduleID {
		delete(l.byObligation, obligationID)
	}
}

// Resolve returns the obligation a schedule drives.
func (l *LinkIndex) Resolve(scheduleID ScheduleID) (ObligationID, bool) {
	id, ok := l.bySchedule[scheduleID]
	return id, ok
}

// ScheduleFor returns the schedule driving an obligation.
func (l *LinkIndex) ScheduleFor(obligationID ObligationID) (ScheduleID, bool) {
	id, ok := l.byObligation[obligationID]
	return id, ok
}

// Relink moves the schedule driving from onto to.
func (l *LinkIndex) Relink(from, to ObligationID) (ScheduleID, bool) {
	scheduleID, ok := l.byObligation[from]
	if !ok {
		return 0, false
	}
	l.Link(scheduleID, to)
	return scheduleID, true
}

// Len returns the number of linked schedules.
func (l *LinkIndex) Len() int {
	return len(l.bySchedule)
}
