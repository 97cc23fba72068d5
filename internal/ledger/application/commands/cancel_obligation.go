package commands

import (
	"context"

	ledgerApp "github.com/felixgeelhaar/autopay/internal/ledger/application"
	"github.com/felixgeelhaar/autopay/internal/ledger/domain"
	sharedDomain "github.com/felixgeelhaar/autopay/internal/shared/domain"
	"github.com/google/uuid"
)

// CancelObligationCommand removes or deactivates an obligation.
type CancelObligationCommand struct {
	Caller        sharedDomain.Principal
	ObligationID  domain.ObligationID
	CorrelationID uuid.UUID
}

func (CancelObligationCommand) CommandName() string { return "cancel_obligation" }

// CancelObligationHandler handles the CancelObligationCommand.
type CancelObligationHandler[D domain.Details] struct {
	invoker *ledgerApp.Invoker[D]
}

// NewCancelObligationHandler creates a new CancelObligationHandler.
func NewCancelObligationHandler[D domain.Details](invoker *ledgerApp.Invoker[D]) *CancelObligationHandler[D] {
	return &CancelObligationHandler[D]{invoker: invoker}
}

// Handle executes the CancelObligationCommand.
func (h *CancelObligationHandler[D]) Handle(ctx context.Context, cmd CancelObligationCommand) error {
	inv := ledgerApp.NewInvocation(cmd, cmd.Caller, cmd.CorrelationID)
	return h.invoker.Invoke(ctx, inv, func(state *domain.State[D], now uint64) error {
		return state.CancelObligation(cmd.Caller, cmd.ObligationID, now)
	})
}
