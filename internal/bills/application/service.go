package application

import (
	"context"
	"log/slog"

	billsDomain "github.com/felixgeelhaar/autopay/internal/bills/domain"
	ledgerApp "github.com/felixgeelhaar/autopay/internal/ledger/application"
	"github.com/felixgeelhaar/autopay/internal/ledger/application/commands"
	"github.com/felixgeelhaar/autopay/internal/ledger/application/queries"
	"github.com/felixgeelhaar/autopay/internal/ledger/domain"
	sharedDomain "github.com/felixgeelhaar/autopay/internal/shared/domain"
	"github.com/felixgeelhaar/autopay/pkg/observability"
)

// BillView is the read model of a bill.
type BillView = queries.ObligationDTO[billsDomain.Details]

// Service exposes the bill ledger operations.
type Service struct {
	createBill     *commands.CreateObligationHandler[billsDomain.Details]
	payBill        *commands.FulfillObligationHandler[billsDomain.Details]
	cancelBill     *commands.CancelObligationHandler[billsDomain.Details]
	createSchedule *commands.CreateScheduleHandler[billsDomain.Details]
	modifySchedule *commands.ModifyScheduleHandler[billsDomain.Details]
	cancelSchedule *commands.CancelScheduleHandler[billsDomain.Details]
	sweep          *commands.SweepHandler[billsDomain.Details]

	getBill       *queries.GetObligationHandler[billsDomain.Details]
	listBills     *queries.ListObligationsHandler[billsDomain.Details]
	overdue       *queries.OverdueHandler[billsDomain.Details]
	totalUnpaid   *queries.SumOpenHandler[billsDomain.Details]
	getSchedule   *queries.GetScheduleHandler[billsDomain.Details]
	listSchedules *queries.ListSchedulesHandler[billsDomain.Details]

	metrics observability.Metrics
	logger  *slog.Logger
}

// NewService wires every bill operation to one invoker.
func NewService(invoker *ledgerApp.Invoker[billsDomain.Details], metrics observability.Metrics, logger *slog.Logger) *Service {
	if metrics == nil {
		metrics = observability.NoopMetrics{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		createBill:     commands.NewCreateObligationHandler(invoker),
		payBill:        commands.NewFulfillObligationHandler(invoker),
		cancelBill:     commands.NewCancelObligationHandler(invoker),
		createSchedule: commands.NewCreateScheduleHandler(invoker),
		modifySchedule: commands.NewModifyScheduleHandler(invoker),
		cancelSchedule: commands.NewCancelScheduleHandler(invoker),
		sweep:          commands.NewSweepHandler(invoker),
		getBill:        queries.NewGetObligationHandler(invoker),
		listBills:      queries.NewListObligationsHandler(invoker),
		overdue:        queries.NewOverdueHandler(invoker),
		totalUnpaid:    queries.NewSumOpenHandler(invoker),
		getSchedule:    queries.NewGetScheduleHandler(invoker),
		listSchedules:  queries.NewListSchedulesHandler(invoker),
		metrics:        metrics,
		logger:         logger.With(observability.LedgerKey, billsDomain.Namespace),
	}
}

// Namespace identifies the ledger.
func (s *Service) Namespace() string { return billsDomain.Namespace }

func (s *Service) tag() observability.Tag {
	return observability.T(observability.LedgerKey, billsDomain.Namespace)
}

// CreateBill records a new bill for owner.
func (s *Service) CreateBill(
	ctx context.Context,
	owner sharedDomain.Principal,
	name string,
	amount int64,
	dueAt uint64,
	recurring bool,
	frequencyDays uint32,
) (domain.ObligationID, error) {
	res, err := observability.TimeOperationResult(s.logger, s.metrics, "create_bill", func() (*commands.CreateObligationResult, error) {
		return s.createBill.Handle(ctx, commands.CreateObligationCommand[billsDomain.Details]{
			Owner:         owner,
			Amount:        amount,
			DueAt:         dueAt,
			Recurring:     recurring,
			FrequencyDays: frequencyDays,
			Details:       billsDomain.Details{Name: name},
			CorrelationID: observability.CorrelationUUID(ctx),
		})
	}, s.tag())
	if err != nil {
		return 0, err
	}
	s.metrics.Counter(observability.MetricObligationsCreated, 1, s.tag())
	return res.ObligationID, nil
}

// PayBill marks a bill paid by its owner. For recurring bills it returns
// the id of the next occurrence, otherwise 0.
func (s *Service) PayBill(ctx context.Context, caller sharedDomain.Principal, id domain.ObligationID) (domain.ObligationID, error) {
	res, err := observability.TimeOperationResult(s.logger, s.metrics, "pay_bill", func() (*commands.FulfillObligationResult, error) {
		return s.payBill.Handle(ctx, commands.FulfillObligationCommand{
			Caller:        caller,
			ObligationID:  id,
			CorrelationID: observability.CorrelationUUID(ctx),
		})
	}, s.tag())
	if err != nil {
		return 0, err
	}
	s.metrics.Counter(observability.MetricObligationsFulfilled, 1, s.tag())
	return res.SuccessorID, nil
}

// CancelBill removes a bill. Any caller may cancel any bill; schedules
// that drove it keep running and skip it.
func (s *Service) CancelBill(ctx context.Context, caller sharedDomain.Principal, id domain.ObligationID) error {
	err := observability.TimeOperation(s.logger, s.metrics, "cancel_bill", func() error {
		return s.cancelBill.Handle(ctx, commands.CancelObligationCommand{
			Caller:        caller,
			ObligationID:  id,
			CorrelationID: observability.CorrelationUUID(ctx),
		})
	}, s.tag())
	if err == nil {
		s.metrics.Counter(observability.MetricObligationsCancelled, 1, s.tag())
	}
	return err
}

// Bill returns one bill.
func (s *Service) Bill(ctx context.Context, id domain.ObligationID) (*BillView, error) {
	return s.getBill.Handle(ctx, queries.GetObligationQuery{ObligationID: id})
}

// UnpaidBills lists owner's open bills.
func (s *Service) UnpaidBills(ctx context.Context, owner sharedDomain.Principal) ([]BillView, error) {
	return s.listBills.Handle(ctx, queries.ListObligationsQuery{Owner: owner})
}

// AllBills lists every bill in the ledger.
func (s *Service) AllBills(ctx context.Context) ([]BillView, error) {
	return s.listBills.Handle(ctx, queries.ListObligationsQuery{})
}

// OverdueBills lists open bills past their due time.
func (s *Service) OverdueBills(ctx context.Context) ([]BillView, error) {
	return s.overdue.Handle(ctx, queries.OverdueQuery{})
}

// TotalUnpaid sums owner's open bill amounts.
func (s *Service) TotalUnpaid(ctx context.Context, owner sharedDomain.Principal) (int64, error) {
	return s.totalUnpaid.Handle(ctx, queries.SumOpenQuery{Owner: owner})
}

// CreateSchedule attaches an automatic payment schedule to a bill.
func (s *Service) CreateSchedule(ctx context.Context, owner sharedDomain.Principal, id domain.ObligationID, nextDue, interval uint64) (domain.ScheduleID, error) {
	res, err := s.createSchedule.Handle(ctx, commands.CreateScheduleCommand{
		Owner:         owner,
		ObligationID:  id,
		NextDue:       nextDue,
		Interval:      interval,
		CorrelationID: observability.CorrelationUUID(ctx),
	})
	if err != nil {
		return 0, err
	}
	return res.ScheduleID, nil
}

// ModifySchedule replaces a schedule's timing.
func (s *Service) ModifySchedule(ctx context.Context, caller sharedDomain.Principal, id domain.ScheduleID, nextDue, interval uint64) error {
	return s.modifySchedule.Handle(ctx, commands.ModifyScheduleCommand{
		Caller:        caller,
		ScheduleID:    id,
		NextDue:       nextDue,
		Interval:      interval,
		CorrelationID: observability.CorrelationUUID(ctx),
	})
}

// CancelSchedule stops a schedule for good.
func (s *Service) CancelSchedule(ctx context.Context, caller sharedDomain.Principal, id domain.ScheduleID) error {
	return s.cancelSchedule.Handle(ctx, commands.CancelScheduleCommand{
		Caller:        caller,
		ScheduleID:    id,
		CorrelationID: observability.CorrelationUUID(ctx),
	})
}

// Schedule returns one schedule.
func (s *Service) Schedule(ctx context.Context, id domain.ScheduleID) (*queries.ScheduleDTO, error) {
	return s.getSchedule.Handle(ctx, queries.GetScheduleQuery{ScheduleID: id})
}

// Schedules lists owner's schedules, or all schedules when owner is empty.
func (s *Service) Schedules(ctx context.Context, owner sharedDomain.Principal) ([]queries.ScheduleDTO, error) {
	return s.listSchedules.Handle(ctx, queries.ListSchedulesQuery{Owner: owner})
}

// DueSchedules lists the schedules the next sweep would execute.
func (s *Service) DueSchedules(ctx context.Context) ([]queries.ScheduleDTO, error) {
	return s.listSchedules.Handle(ctx, queries.ListSchedulesQuery{DueOnly: true})
}

// ExecuteDueSchedules pays every bill whose schedule is due.
func (s *Service) ExecuteDueSchedules(ctx context.Context, caller sharedDomain.Principal) (*commands.SweepResult, error) {
	return observability.TimeOperationResult(s.logger, s.metrics, "sweep", func() (*commands.SweepResult, error) {
		return s.sweep.Handle(ctx, commands.SweepCommand{
			Caller:        caller,
			CorrelationID: observability.CorrelationUUID(ctx),
		})
	}, s.tag())
}
