package queries

import (
	"context"

	ledgerApp "github.com/felixgeelhaar/autopay/internal/ledger/application"
	"github.com/felixgeelhaar/autopay/internal/ledger/domain"
)

// GetScheduleQuery looks up one schedule by id.
type GetScheduleQuery struct {
	ScheduleID domain.ScheduleID
}

func (GetScheduleQuery) QueryName() string { return "get_schedule" }

// GetScheduleHandler handles the GetScheduleQuery.
type GetScheduleHandler[D domain.Details] struct {
	invoker *ledgerApp.Invoker[D]
}

// NewGetScheduleHandler creates a new GetScheduleHandler.
func NewGetScheduleHandler[D domain.Details](invoker *ledgerApp.Invoker[D]) *GetScheduleHandler[D] {
	return &GetScheduleHandler[D]{invoker: invoker}
}

// Handle executes the GetScheduleQuery.
func (h *GetScheduleHandler[D]) Handle(ctx context.Context, query GetScheduleQuery) (*ScheduleDTO, error) {
	var dto *ScheduleDTO
	err := h.invoker.Read(ctx, query, func(state *domain.State[D], now uint64) error {
		s, ok := state.Schedule(query.ScheduleID)
		if !ok {
			return domain.NewError(domain.CodeNotFound, "schedule not found")
		}
		result := toScheduleDTO(s, now)
		dto = &result
		return nil
	})
	if err != nil {
		return nil, err
	}
	return dto, nil
}
