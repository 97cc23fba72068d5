package commands

import (
	"context"

	ledgerApp "github.com/felixgeelhaar/autopay/internal/ledger/application"
	"github.com/felixgeelhaar/autopay/internal/ledger/domain"
	sharedDomain "github.com/felixgeelhaar/autopay/internal/shared/domain"
	"github.com/google/uuid"
)

// CancelScheduleCommand deactivates a schedule for good.
type CancelScheduleCommand struct {
	Caller        sharedDomain.Principal
	ScheduleID    domain.ScheduleID
	CorrelationID uuid.UUID
}

func (CancelScheduleCommand) CommandName() string { return "cancel_schedule" }

// CancelScheduleHandler handles the CancelScheduleCommand.
type CancelScheduleHandler[D domain.Details] struct {
	invoker *ledgerApp.Invoker[D]
}

// NewCancelScheduleHandler creates a new CancelScheduleHandler.
func NewCancelScheduleHandler[D domain.Details](invoker *ledgerApp.Invoker[D]) *CancelScheduleHandler[D] {
	return &CancelScheduleHandler[D]{invoker: invoker}
}

// Handle executes the CancelScheduleCommand.
func (h *CancelScheduleHandler[D]) Handle(ctx context.Context, cmd CancelScheduleCommand) error {
	inv := ledgerApp.NewInvocation(cmd, cmd.Caller, cmd.CorrelationID)
	return h.invoker.Invoke(ctx, inv, func(state *domain.State[D], now uint64) error {
		return state.CancelSchedule(cmd.Caller, cmd.ScheduleID, now)
	})
}
