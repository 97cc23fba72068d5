package queries

import (
	"context"

	ledgerApp "github.com/felixgeelhaar/autopay/internal/ledger/application"
	"github.com/felixgeelhaar/autopay/internal/ledger/domain"
	sharedDomain "github.com/felixgeelhaar/autopay/internal/shared/domain"
)

// ListSchedulesQuery lists schedules, optionally restricted to one owner or
// to the schedules the next sweep would execute.
type ListSchedulesQuery struct {
	Owner   sharedDomain.Principal
	DueOnly bool
}

func (ListSchedulesQuery) QueryName() string { return "list_schedules" }

// ListSchedulesHandler handles the ListSchedulesQuery.
type ListSchedulesHandler[D domain.Details] struct {
	invoker *ledgerApp.Invoker[D]
}

// NewListSchedulesHandler creates a new ListSchedulesHandler.
func NewListSchedulesHandler[D domain.Details](invoker *ledgerApp.Invoker[D]) *ListSchedulesHandler[D] {
	return &ListSchedulesHandler[D]{invoker: invoker}
}

// Handle executes the ListSchedulesQuery. Results are ordered by id.
func (h *ListSchedulesHandler[D]) Handle(ctx context.Context, query ListSchedulesQuery) ([]ScheduleDTO, error) {
	var dtos []ScheduleDTO
	err := h.invoker.Read(ctx, query, func(state *domain.State[D], now uint64) error {
		var schedules []domain.Schedule
		switch {
		case query.DueOnly:
			schedules = state.DueSchedules(now)
		case !query.Owner.IsEmpty():
			schedules = state.SchedulesByOwner(query.Owner)
		default:
			schedules = state.Schedules()
		}

		dtos = make([]ScheduleDTO, 0, len(schedules))
		for _, s := range schedules {
			if !query.Owner.IsEmpty() && !s.Owner.Equals(query.Owner) {
				continue
			}
			dtos = append(dtos, toScheduleDTO(s, now))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return dtos, nil
}
