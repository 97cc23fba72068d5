package commands

import (
	"context"

	ledgerApp "github.com/felixgeelhaar/autopay/internal/ledger/application"
	"github.com/felixgeelhaar/autopay/internal/ledger/domain"
	sharedDomain "github.com/felixgeelhaar/autopay/internal/shared/domain"
	"github.com/google/uuid"
)

// ModifyScheduleCommand replaces the timing of a schedule.
type ModifyScheduleCommand struct {
	Caller        sharedDomain.Principal
	ScheduleID    domain.ScheduleID
	NextDue       uint64
	Interval      uint64
	CorrelationID uuid.UUID
}

func (ModifyScheduleCommand) CommandName() string { return "modify_schedule" }

// ModifyScheduleHandler handles the ModifyScheduleCommand.
type ModifyScheduleHandler[D domain.Details] struct {
	invoker *ledgerApp.Invoker[D]
}

// NewModifyScheduleHandler creates a new ModifyScheduleHandler.
func NewModifyScheduleHandler[D domain.Details](invoker *ledgerApp.Invoker[D]) *ModifyScheduleHandler[D] {
	return &ModifyScheduleHandler[D]{invoker: invoker}
}

// Handle executes the ModifyScheduleCommand.
func (h *ModifyScheduleHandler[D]) Handle(ctx context.Context, cmd ModifyScheduleCommand) error {
	inv := ledgerApp.NewInvocation(cmd, cmd.Caller, cmd.CorrelationID)
	return h.invoker.Invoke(ctx, inv, func(state *domain.State[D], now uint64) error {
		return state.ModifySchedule(cmd.Caller, cmd.ScheduleID, cmd.NextDue, cmd.Interval, now)
	})
}
