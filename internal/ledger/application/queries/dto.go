package queries

import "github.com/felixgeelhaar/autopay/internal/ledger/domain"

// ObligationDTO is the read model of an obligation.
type ObligationDTO[D domain.Details] struct {
	ID            domain.ObligationID `json:"id"`
	Owner         string              `json:"owner"`
	Amount        int64               `json:"amount"`
	DueAt         uint64              `json:"due_at"`
	Recurring     bool                `json:"recurring"`
	FrequencyDays uint32              `json:"frequency_days"`
	Status        string              `json:"status"`
	CreatedAt     uint64              `json:"created_at"`
	FulfilledAt   *uint64             `json:"fulfilled_at,omitempty"`
	ScheduleID    *domain.ScheduleID  `json:"schedule_id,omitempty"`
	Overdue       bool                `json:"overdue"`
	Details       D                   `json:"details"`
}

// ScheduleDTO is the read model of a schedule.
type ScheduleDTO struct {
	ID             domain.ScheduleID   `json:"id"`
	Owner          string              `json:"owner"`
	ObligationID   domain.ObligationID `json:"obligation_id"`
	NextDue        uint64              `json:"next_due"`
	Interval       uint64              `json:"interval"`
	Recurring      bool                `json:"recurring"`
	Active         bool                `json:"active"`
	Due            bool                `json:"due"`
	CreatedAt      uint64              `json:"created_at"`
	LastExecutedAt *uint64             `json:"last_executed_at,omitempty"`
	MissedCount    uint32              `json:"missed_count"`
}

func toObligationDTO[D domain.Details](o domain.Obligation[D], now uint64) ObligationDTO[D] {
	return ObligationDTO[D]{
		ID:            o.ID,
		Owner:         o.Owner.String(),
		Amount:        o.Amount,
		DueAt:         o.DueAt,
		Recurring:     o.Recurring,
		FrequencyDays: o.FrequencyDays,
		Status:        string(o.Status),
		CreatedAt:     o.CreatedAt,
		FulfilledAt:   o.FulfilledAt,
		ScheduleID:    o.ScheduleRef,
		Overdue:       o.IsOverdue(now),
		Details:       o.Details,
	}
}

func toObligationDTOs[D domain.Details](obligations []domain.Obligation[D], now uint64) []ObligationDTO[D] {
	dtos := make([]ObligationDTO[D], 0, len(obligations))
	for _, o := range obligations {
		dtos = append(dtos, toObligationDTO(o, now))
	}
	return dtos
}

func toScheduleDTO(s domain.Schedule, now uint64) ScheduleDTO {
	return ScheduleDTO{
		ID:             s.ID,
		Owner:          s.Owner.String(),
		ObligationID:   s.ObligationRef,
		NextDue:        s.NextDue,
		Interval:       s.Interval,
		Recurring:      s.Recurring,
		Active:         s.Active,
		Due:            s.IsDue(now),
		CreatedAt:      s.CreatedAt,
		LastExecutedAt: s.LastExecutedAt,
		MissedCount:    s.MissedCount,
	}
}

func toScheduleDTOs(schedules []domain.Schedule, now uint64) []ScheduleDTO {
	dtos := make([]ScheduleDTO, 0, len(schedules))
	for _, s := range schedules {
		dtos = append(dtos, toScheduleDTO(s, now))
	}
	return dtos
}
