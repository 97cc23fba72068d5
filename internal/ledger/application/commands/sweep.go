package commands

import (
	"context"

	ledgerApp "github.com/felixgeelhaar/autopay/internal/ledger/application"
	"github.com/felixgeelhaar/autopay/internal/ledger/domain"
	sharedDomain "github.com/felixgeelhaar/autopay/internal/shared/domain"
	"github.com/google/uuid"
)

// SweepCommand executes every due schedule. Anyone may trigger a sweep;
// Caller is only recorded on the emitted events.
type SweepCommand struct {
	Caller        sharedDomain.Principal
	CorrelationID uuid.UUID
}

func (SweepCommand) CommandName() string { return "sweep" }

// SweepResult lists the executed schedules in execution order.
type SweepResult struct {
	Executed  []domain.ScheduleID
	Fulfilled int
	Missed    uint32
	At        uint64
}

// SweepHandler handles the SweepCommand.
type SweepHandler[D domain.Details] struct {
	invoker *ledgerApp.Invoker[D]
}

// NewSweepHandler creates a new SweepHandler.
func NewSweepHandler[D domain.Details](invoker *ledgerApp.Invoker[D]) *SweepHandler[D] {
	return &SweepHandler[D]{invoker: invoker}
}

// Handle executes the SweepCommand.
func (h *SweepHandler[D]) Handle(ctx context.Context, cmd SweepCommand) (*SweepResult, error) {
	result := &SweepResult{}
	inv := ledgerApp.NewInvocation(cmd, cmd.Caller, cmd.CorrelationID)

	err := h.invoker.Invoke(ctx, inv, func(state *domain.State[D], now uint64) error {
		result.At = now
		result.Executed = state.Sweep(now)
		for _, event := range state.DomainEvents() {
			switch e := event.(type) {
			case *domain.ScheduleExecuted:
				if e.Fulfilled {
					result.Fulfilled++
				}
			case *domain.ScheduleMissed:
				result.Missed += e.Missed
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}
