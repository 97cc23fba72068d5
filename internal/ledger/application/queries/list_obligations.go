package queries

import (
	"context"

	ledgerApp "github.com/felixgeelhaar/autopay/internal/ledger/application"
	"github.com/felixgeelhaar/autopay/internal/ledger/domain"
	sharedDomain "github.com/felixgeelhaar/autopay/internal/shared/domain"
)

// ListObligationsQuery lists obligations. An empty Owner lists every
// obligation in the ledger; with an Owner only their open obligations are
// returned.
type ListObligationsQuery struct {
	Owner sharedDomain.Principal
}

func (ListObligationsQuery) QueryName() string { return "list_obligations" }

// ListObligationsHandler handles the ListObligationsQuery.
type ListObligationsHandler[D domain.Details] struct {
	invoker *ledgerApp.Invoker[D]
}

// NewListObligationsHandler creates a new ListObligationsHandler.
func NewListObligationsHandler[D domain.Details](invoker *ledgerApp.Invoker[D]) *ListObligationsHandler[D] {
	return &ListObligationsHandler[D]{invoker: invoker}
}

// Handle executes the ListObligationsQuery. Results are ordered by id.
func (h *ListObligationsHandler[D]) Handle(ctx context.Context, query ListObligationsQuery) ([]ObligationDTO[D], error) {
	var dtos []ObligationDTO[D]
	err := h.invoker.Read(ctx, query, func(state *domain.State[D], now uint64) error {
		if query.Owner.IsEmpty() {
			dtos = toObligationDTOs(state.Obligations(), now)
		} else {
			dtos = toObligationDTOs(state.OpenByOwner(query.Owner), now)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return dtos, nil
}
