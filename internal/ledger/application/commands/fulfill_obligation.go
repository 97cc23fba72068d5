package commands

import (
	"context"

	ledgerApp "github.com/felixgeelhaar/autopay/internal/ledger/application"
	"github.com/felixgeelhaar/autopay/internal/ledger/domain"
	sharedDomain "github.com/felixgeelhaar/autopay/internal/shared/domain"
	"github.com/google/uuid"
)

// FulfillObligationCommand pays an obligation on behalf of its owner.
type FulfillObligationCommand struct {
	Caller        sharedDomain.Principal
	ObligationID  domain.ObligationID
	CorrelationID uuid.UUID
}

func (FulfillObligationCommand) CommandName() string { return "fulfill_obligation" }

// FulfillObligationResult reports the successor spawned by a recurring
// obligation. SuccessorID is zero for one-time obligations.
type FulfillObligationResult struct {
	SuccessorID domain.ObligationID
}

// FulfillObligationHandler handles the FulfillObligationCommand.
type FulfillObligationHandler[D domain.Details] struct {
	invoker *ledgerApp.Invoker[D]
}

// NewFulfillObligationHandler creates a new FulfillObligationHandler.
func NewFulfillObligationHandler[D domain.Details](invoker *ledgerApp.Invoker[D]) *FulfillObligationHandler[D] {
	return &FulfillObligationHandler[D]{invoker: invoker}
}

// Handle executes the FulfillObligationCommand.
func (h *FulfillObligationHandler[D]) Handle(ctx context.Context, cmd FulfillObligationCommand) (*FulfillObligationResult, error) {
	var result *FulfillObligationResult
	inv := ledgerApp.NewInvocation(cmd, cmd.Caller, cmd.CorrelationID)

	err := h.invoker.Invoke(ctx, inv, func(state *domain.State[D], now uint64) error {
		successor, err := state.FulfillObligation(cmd.Caller, cmd.ObligationID, now)
		if err != nil {
			return err
		}
		result = &FulfillObligationResult{SuccessorID: successor}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}
