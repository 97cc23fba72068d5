package queries

import (
	"context"

	ledgerApp "github.com/felixgeelhaar/autopay/internal/ledger/application"
	"github.com/felixgeelhaar/autopay/internal/ledger/domain"
	sharedDomain "github.com/felixgeelhaar/autopay/internal/shared/domain"
)

// SumOpenQuery totals the open amounts owed by one owner.
type SumOpenQuery struct {
	Owner sharedDomain.Principal
}

func (SumOpenQuery) QueryName() string { return "sum_open" }

// SumOpenHandler handles the SumOpenQuery.
type SumOpenHandler[D domain.Details] struct {
	invoker *ledgerApp.Invoker[D]
}

// NewSumOpenHandler creates a new SumOpenHandler.
func NewSumOpenHandler[D domain.Details](invoker *ledgerApp.Invoker[D]) *SumOpenHandler[D] {
	return &SumOpenHandler[D]{invoker: invoker}
}

// Handle executes the SumOpenQuery.
func (h *SumOpenHandler[D]) Handle(ctx context.Context, query SumOpenQuery) (int64, error) {
	var total int64
	err := h.invoker.Read(ctx, query, func(state *domain.State[D], _ uint64) error {
		total = state.SumOpen(query.Owner)
		return nil
	})
	return total, err
}
