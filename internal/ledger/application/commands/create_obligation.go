package commands

import (
	"context"

	ledgerApp "github.com/felixgeelhaar/autopay/internal/ledger/application"
	"github.com/felixgeelhaar/autopay/internal/ledger/domain"
	sharedDomain "github.com/felixgeelhaar/autopay/internal/shared/domain"
	"github.com/felixgeelhaar/autopay/internal/shared/infrastructure/convert"
	"github.com/google/uuid"
)

// CreateObligationCommand contains the data needed to create an obligation.
type CreateObligationCommand[D domain.Details] struct {
	Owner         sharedDomain.Principal
	Amount        int64
	DueAt         uint64
	// DueIn sets the due time relative to the invocation time when DueAt
	// is zero.
	DueIn         uint64
	Recurring     bool
	FrequencyDays uint32
	Details       D
	CorrelationID uuid.UUID
}

func (CreateObligationCommand[D]) CommandName() string { return "create_obligation" }

// CreateObligationResult contains the result of creating an obligation.
type CreateObligationResult struct {
	ObligationID domain.ObligationID
}

// CreateObligationHandler handles the CreateObligationCommand.
type CreateObligationHandler[D domain.Details] struct {
	invoker *ledgerApp.Invoker[D]
}

// NewCreateObligationHandler creates a new CreateObligationHandler.
func NewCreateObligationHandler[D domain.Details](invoker *ledgerApp.Invoker[D]) *CreateObligationHandler[D] {
	return &CreateObligationHandler[D]{invoker: invoker}
}

// Handle executes the CreateObligationCommand.
func (h *CreateObligationHandler[D]) Handle(ctx context.Context, cmd CreateObligationCommand[D]) (*CreateObligationResult, error) {
	var result *CreateObligationResult
	inv := ledgerApp.NewInvocation(cmd, cmd.Owner, cmd.CorrelationID)

	err := h.invoker.Invoke(ctx, inv, func(state *domain.State[D], now uint64) error {
		dueAt := cmd.DueAt
		if dueAt == 0 && cmd.DueIn > 0 {
			dueAt = convert.SaturatingAddUint64(now, cmd.DueIn)
		}
		id, err := state.CreateObligation(cmd.Owner, cmd.Amount, dueAt, cmd.Recurring, cmd.FrequencyDays, cmd.Details, now)
		if err != nil {
			return err
		}
		result = &CreateObligationResult{ObligationID: id}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}
