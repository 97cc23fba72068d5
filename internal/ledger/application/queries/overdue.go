package queries

import (
	"context"

	ledgerApp "github.com/felixgeelhaar/autopay/internal/ledger/application"
	"github.com/felixgeelhaar/autopay/internal/ledger/domain"
)

// OverdueQuery lists open obligations whose due time has passed.
type OverdueQuery struct{}

func (OverdueQuery) QueryName() string { return "overdue" }

// OverdueHandler handles the OverdueQuery.
type OverdueHandler[D domain.Details] struct {
	invoker *ledgerApp.Invoker[D]
}

// NewOverdueHandler creates a new OverdueHandler.
func NewOverdueHandler[D domain.Details](invoker *ledgerApp.Invoker[D]) *OverdueHandler[D] {
	return &OverdueHandler[D]{invoker: invoker}
}

// Handle executes the OverdueQuery at the invoker's current time.
func (h *OverdueHandler[D]) Handle(ctx context.Context, query OverdueQuery) ([]ObligationDTO[D], error) {
	var dtos []ObligationDTO[D]
	err := h.invoker.Read(ctx, query, func(state *domain.State[D], now uint64) error {
		dtos = toObligationDTOs(state.Overdue(now), now)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return dtos, nil
}
