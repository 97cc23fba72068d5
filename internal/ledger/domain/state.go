package domain

import (
	"errors"
	"fmt"
	"sort"

	sharedDomain "github.com/felixgeelhaar/autopay/internal/shared/domain"
)

// State is one ledger instance: the obligation and schedule stores, their id
// counters and the link index between them. Operations mutate it in place and
// record domain events; the application layer persists it once per invocation.
type State[D Details] struct {
	sharedDomain.EventRecorder
	profile          Profile
	obligations      map[ObligationID]*Obligation[D]
	schedules        map[ScheduleID]*Schedule
	lastObligationID ObligationID
	lastScheduleID   ScheduleID
	links            *LinkIndex
}

// Snapshot is the persisted form of a State.
type Snapshot[D Details] struct {
	Obligations      []Obligation[D]
	Schedules        []Schedule
	LastObligationID ObligationID
	LastScheduleID   ScheduleID
}

// NewState creates an empty ledger.
func NewState[D Details](profile Profile) *State[D] {
	return &State[D]{
		profile:     profile,
		obligations: make(map[ObligationID]*Obligation[D]),
		schedules:   make(map[ScheduleID]*Schedule),
		links:       NewLinkIndex(),
	}
}

// RehydrateState rebuilds a ledger from its snapshot. The link index is
// derived from each schedule's obligation reference; a schedule is only
// linked if its obligation is gone or still names it.
func RehydrateState[D Details](profile Profile, snap Snapshot[D]) *State[D] {
	s := NewState[D](profile)
	s.lastObligationID = snap.LastObligationID
	s.lastScheduleID = snap.LastScheduleID
	for i := range snap.Obligations {
		o := snap.Obligations[i].clone()
		s.obligations[o.ID] = &o
	}
	for i := range snap.Schedules {
		sch := snap.Schedules[i].clone()
		s.schedules[sch.ID] = &sch
		if sch.ObligationRef == 0 {
			continue
		}
		if o, ok := s.obligations[sch.ObligationRef]; ok && (o.ScheduleRef == nil || *o.ScheduleRef != sch.ID) {
			continue
		}
		s.links.Link(sch.ID, sch.ObligationRef)
	}
	return s
}

// Snapshot returns the persisted form with records in ascending id order.
func (s *State[D]) Snapshot() Snapshot[D] {
	return Snapshot[D]{
		Obligations:      s.Obligations(),
		Schedules:        s.Schedules(),
		LastObligationID: s.lastObligationID,
		LastScheduleID:   s.lastScheduleID,
	}
}

// Profile returns the variant configuration of the ledger.
func (s *State[D]) Profile() Profile {
	return s.profile
}

// fail reports a failure in the ledger's error style. Abort-style ledgers
// panic with *Abort and never return.
func (s *State[D]) fail(code Code, format string, args ...any) error {
	msg := fmt.Sprintf(format, args...)
	if s.profile.ErrorStyle == StyleAbort {
		panic(&Abort{Code: code, Reason: msg})
	}
	return NewError(code, msg)
}

// CreateObligation validates and stores a new obligation. No id is consumed
// when validation fails.
func (s *State[D]) CreateObligation(
	owner sharedDomain.Principal,
	amount int64,
	dueAt uint64,
	recurring bool,
	frequencyDays uint32,
	details D,
	now uint64,
) (ObligationID, error) {
	if fixed := s.profile.FixedPeriodDays; fixed > 0 {
		recurring = true
		frequencyDays = fixed
	}
	if owner.IsEmpty() {
		return 0, s.fail(CodeUnauthorized, "%s owner is required", s.profile.Noun)
	}
	if amount <= 0 {
		return 0, s.fail(CodeInvalidAmount, "%s amount must be positive", s.profile.Title())
	}
	if recurring && frequencyDays == 0 {
		return 0, s.fail(CodeInvalidFrequency, "recurring %s requires a frequency", s.profile.Noun)
	}
	if err := details.Validate(); err != nil {
		var ledgerErr *Error
		if errors.As(err, &ledgerErr) {
			return 0, s.fail(ledgerErr.Code, "%s", ledgerErr.Message)
		}
		return 0, s.fail(CodeInvalidAmount, "invalid %s details: %v", s.profile.Noun, err)
	}

	o := &Obligation[D]{
		ID:            s.nextObligationID(),
		Owner:         owner,
		Amount:        amount,
		DueAt:         dueAt,
		Recurring:     recurring,
		FrequencyDays: frequencyDays,
		Status:        StatusOpen,
		CreatedAt:     now,
		Details:       details,
	}
	if !recurring {
		o.FrequencyDays = 0
	}
	s.obligations[o.ID] = o
	s.recordCreated(o, 0, now)
	return o.ID, nil
}

// FulfillObligation marks an open obligation paid by its owner and returns
// the id of the successor it spawned, or 0 for one-time obligations.
func (s *State[D]) FulfillObligation(caller sharedDomain.Principal, id ObligationID, now uint64) (ObligationID, error) {
	o, ok := s.obligations[id]
	if !ok {
		return 0, s.fail(CodeNotFound, "%s not found", s.profile.Title())
	}
	if !o.Owner.Equals(caller) {
		return 0, s.fail(CodeUnauthorized, "only the %s owner can pay it", s.profile.Noun)
	}
	switch o.Status {
	case StatusFulfilled:
		return 0, s.fail(CodeAlreadyFulfilled, "%s already paid", s.profile.Title())
	case StatusCancelled:
		return 0, s.fail(CodeNotActive, "%s is not active", s.profile.Title())
	}
	return s.fulfill(o, 0, now), nil
}

// fulfill transitions o to Fulfilled and, when recurring, stores its
// successor and moves the schedule driving o onto it.
func (s *State[D]) fulfill(o *Obligation[D], via ScheduleID, now uint64) ObligationID {
	o.markFulfilled(now)

	var successorID ObligationID
	var next *Obligation[D]
	if o.Recurring {
		successorID = s.nextObligationID()
		next = o.successor(successorID, now)
		s.obligations[successorID] = next
		if scheduleID, ok := s.links.Relink(o.ID, successorID); ok {
			if sch, ok := s.schedules[scheduleID]; ok {
				sch.ObligationRef = successorID
			}
		}
	}

	s.Record(&ObligationFulfilled{
		BaseEvent:    newObligationEvent(s.profile, o.ID, EventFulfilled, now),
		ObligationID: o.ID,
		Owner:        o.Owner.String(),
		Amount:       o.Amount,
		FulfilledAt:  now,
		SuccessorID:  successorID,
		ScheduleID:   via,
	})
	if next != nil {
		s.recordCreated(next, o.ID, now)
	}
	return successorID
}

// CancelObligation removes or deactivates an obligation according to the
// profile. Schedules that drive it are left untouched.
func (s *State[D]) CancelObligation(caller sharedDomain.Principal, id ObligationID, now uint64) error {
	o, ok := s.obligations[id]
	if !ok {
		return s.fail(CodeNotFound, "%s not found", s.profile.Title())
	}
	if s.profile.CancelRequiresOwner && !o.Owner.Equals(caller) {
		return s.fail(CodeUnauthorized, "only the %s owner can cancel it", s.profile.Noun)
	}

	removed := s.profile.CancelMode == CancelRemove
	if removed {
		delete(s.obligations, id)
	} else {
		switch o.Status {
		case StatusCancelled:
			return s.fail(CodeNotActive, "%s is not active", s.profile.Title())
		case StatusFulfilled:
			return s.fail(CodeAlreadyFulfilled, "%s already paid", s.profile.Title())
		}
		o.Status = StatusCancelled
	}

	s.Record(&ObligationCancelled{
		BaseEvent:    newObligationEvent(s.profile, id, EventCancelled, now),
		ObligationID: id,
		Owner:        o.Owner.String(),
		Removed:      removed,
	})
	return nil
}

// CreateSchedule links a new schedule to an obligation owned by owner.
func (s *State[D]) CreateSchedule(
	owner sharedDomain.Principal,
	obligationID ObligationID,
	nextDue uint64,
	interval uint64,
	now uint64,
) (ScheduleID, error) {
	o, ok := s.obligations[obligationID]
	if !ok {
		return 0, s.fail(CodeNotFound, "%s not found", s.profile.Title())
	}
	if !o.Owner.Equals(owner) {
		return 0, s.fail(CodeUnauthorized, "only the %s owner can schedule it", s.profile.Noun)
	}
	if o.Status == StatusCancelled {
		return 0, s.fail(CodeNotActive, "%s is not active", s.profile.Title())
	}
	if nextDue <= now {
		return 0, s.fail(CodeInvalidSchedule, "next due must be in the future")
	}

	sch := &Schedule{
		ID:            s.nextScheduleID(),
		Owner:         owner,
		ObligationRef: obligationID,
		NextDue:       nextDue,
		Interval:      interval,
		Recurring:     interval > 0,
		Active:        true,
		CreatedAt:     now,
	}
	s.schedules[sch.ID] = sch
	// An obligation is driven by one schedule; the one it had is detached
	// and keeps running as an orphan.
	if prev, ok := s.links.Link(sch.ID, obligationID); ok {
		if old, ok := s.schedules[prev]; ok {
			old.ObligationRef = 0
		}
	}
	ref := sch.ID
	o.ScheduleRef = &ref

	s.Record(&ScheduleCreated{
		BaseEvent:    newScheduleEvent(s.profile, sch.ID, EventCreated, now),
		ScheduleID:   sch.ID,
		ObligationID: obligationID,
		Owner:        owner.String(),
		NextDue:      nextDue,
		Interval:     interval,
	})
	return sch.ID, nil
}

// ModifySchedule replaces the timing of a schedule owned by caller.
func (s *State[D]) ModifySchedule(caller sharedDomain.Principal, id ScheduleID, nextDue, interval, now uint64) error {
	sch, err := s.ownedSchedule(caller, id, "modify")
	if err != nil {
		return err
	}
	if nextDue <= now {
		return s.fail(CodeInvalidSchedule, "next due must be in the future")
	}

	sch.NextDue = nextDue
	sch.Interval = interval
	sch.Recurring = interval > 0

	s.Record(&ScheduleModified{
		BaseEvent:  newScheduleEvent(s.profile, id, EventModified, now),
		ScheduleID: id,
		NextDue:    nextDue,
		Interval:   interval,
	})
	return nil
}

// CancelSchedule deactivates a schedule owned by caller for good.
func (s *State[D]) CancelSchedule(caller sharedDomain.Principal, id ScheduleID, now uint64) error {
	sch, err := s.ownedSchedule(caller, id, "cancel")
	if err != nil {
		return err
	}
	sch.Active = false

	s.Record(&ScheduleCancelled{
		BaseEvent:  newScheduleEvent(s.profile, id, EventCancelled, now),
		ScheduleID: id,
	})
	return nil
}

func (s *State[D]) ownedSchedule(caller sharedDomain.Principal, id ScheduleID, action string) (*Schedule, error) {
	sch, ok := s.schedules[id]
	if !ok {
		return nil, s.fail(CodeNotFound, "schedule not found")
	}
	if !sch.Owner.Equals(caller) {
		return nil, s.fail(CodeUnauthorized, "only the schedule owner can %s it", action)
	}
	return sch, nil
}

// Sweep executes every active schedule due at now, in ascending id order,
// and returns the executed ids. A schedule whose obligation is gone or
// already settled still advances.
func (s *State[D]) Sweep(now uint64) []ScheduleID {
	executed := make([]ScheduleID, 0)
	for _, id := range s.scheduleIDs() {
		sch := s.schedules[id]
		if !sch.IsDue(now) {
			continue
		}

		obligationID, linked := s.links.Resolve(id)
		fulfilled := false
		if linked {
			if o, ok := s.obligations[obligationID]; ok && o.IsOpen() {
				s.fulfill(o, id, now)
				fulfilled = true
			}
		}

		missed := sch.Advance(now)
		if missed > 0 {
			s.Record(&ScheduleMissed{
				BaseEvent:  newScheduleEvent(s.profile, id, EventMissed, now),
				ScheduleID: id,
				Missed:     missed,
			})
		}

		executed = append(executed, id)
		s.Record(&ScheduleExecuted{
			BaseEvent:    newScheduleEvent(s.profile, id, EventExecuted, now),
			ScheduleID:   id,
			ObligationID: obligationID,
			Fulfilled:    fulfilled,
			NextDue:      sch.NextDue,
			Active:       sch.Active,
		})
	}
	return executed
}

func (s *State[D]) recordCreated(o *Obligation[D], predecessor ObligationID, now uint64) {
	s.Record(&ObligationCreated{
		BaseEvent:     newObligationEvent(s.profile, o.ID, EventCreated, now),
		ObligationID:  o.ID,
		Owner:         o.Owner.String(),
		Amount:        o.Amount,
		DueAt:         o.DueAt,
		Recurring:     o.Recurring,
		FrequencyDays: o.FrequencyDays,
		PredecessorID: predecessor,
	})
}

func (s *State[D]) nextObligationID() ObligationID {
	s.lastObligationID++
	return s.lastObligationID
}

func (s *State[D]) nextScheduleID() ScheduleID {
	s.lastScheduleID++
	return s.lastScheduleID
}

func (s *State[D]) obligationIDs() []ObligationID {
	ids := make([]ObligationID, 0, len(s.obligations))
	for id := range s.obligations {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func (s *State[D]) scheduleIDs() []ScheduleID {
	ids := make([]ScheduleID, 0, len(s.schedules))
	for id := range s.schedules {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
