package commands

import (
	"context"

	ledgerApp "github.com/felixgeelhaar/autopay/internal/ledger/application"
	"github.com/felixgeelhaar/autopay/internal/ledger/domain"
	sharedDomain "github.com/felixgeelhaar/autopay/internal/shared/domain"
	"github.com/google/uuid"
)

// CreateScheduleCommand links a new schedule to an obligation. An Interval of
// zero makes a one-time schedule.
type CreateScheduleCommand struct {
	Owner         sharedDomain.Principal
	ObligationID  domain.ObligationID
	NextDue       uint64
	Interval      uint64
	CorrelationID uuid.UUID
}

func (CreateScheduleCommand) CommandName() string { return "create_schedule" }

// CreateScheduleResult contains the id of the new schedule.
type CreateScheduleResult struct {
	ScheduleID domain.ScheduleID
}

// CreateScheduleHandler handles the CreateScheduleCommand.
type CreateScheduleHandler[D domain.Details] struct {
	invoker *ledgerApp.Invoker[D]
}

// NewCreateScheduleHandler creates a new CreateScheduleHandler.
func NewCreateScheduleHandler[D domain.Details](invoker *ledgerApp.Invoker[D]) *CreateScheduleHandler[D] {
	return &CreateScheduleHandler[D]{invoker: invoker}
}

// Handle executes the CreateScheduleCommand.
func (h *CreateScheduleHandler[D]) Handle(ctx context.Context, cmd CreateScheduleCommand) (*CreateScheduleResult, error) {
	var result *CreateScheduleResult
	inv := ledgerApp.NewInvocation(cmd, cmd.Owner, cmd.CorrelationID)

	err := h.invoker.Invoke(ctx, inv, func(state *domain.State[D], now uint64) error {
		id, err := state.CreateSchedule(cmd.Owner, cmd.ObligationID, cmd.NextDue, cmd.Interval, now)
		if err != nil {
			return err
		}
		result = &CreateScheduleResult{ScheduleID: id}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}
