package queries

import (
	"context"

	ledgerApp "github.com/felixgeelhaar/autopay/internal/ledger/application"
	"github.com/felixgeelhaar/autopay/internal/ledger/domain"
)

// GetObligationQuery looks up one obligation by id.
type GetObligationQuery struct {
	ObligationID domain.ObligationID
}

func (GetObligationQuery) QueryName() string { return "get_obligation" }

// GetObligationHandler handles the GetObligationQuery.
type GetObligationHandler[D domain.Details] struct {
	invoker *ledgerApp.Invoker[D]
}

// NewGetObligationHandler creates a new GetObligationHandler.
func NewGetObligationHandler[D domain.Details](invoker *ledgerApp.Invoker[D]) *GetObligationHandler[D] {
	return &GetObligationHandler[D]{invoker: invoker}
}

// Handle executes the GetObligationQuery. A missing obligation is reported
// as a NotFound *domain.Error for both error styles.
func (h *GetObligationHandler[D]) Handle(ctx context.Context, query GetObligationQuery) (*ObligationDTO[D], error) {
	var dto *ObligationDTO[D]
	err := h.invoker.Read(ctx, query, func(state *domain.State[D], now uint64) error {
		o, ok := state.Obligation(query.ObligationID)
		if !ok {
			return domain.NewError(domain.CodeNotFound, state.Profile().Title()+" not found")
		}
		result := toObligationDTO(o, now)
		dto = &result
		return nil
	})
	if err != nil {
		return nil, err
	}
	return dto, nil
}
