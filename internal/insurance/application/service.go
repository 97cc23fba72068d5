package application

import (
	"context"
	"log/slog"

	insuranceDomain "github.com/felixgeelhaar/autopay/internal/insurance/domain"
	ledgerApp "github.com/felixgeelhaar/autopay/internal/ledger/application"
	"github.com/felixgeelhaar/autopay/internal/ledger/application/commands"
	"github.com/felixgeelhaar/autopay/internal/ledger/application/queries"
	"github.com/felixgeelhaar/autopay/internal/ledger/domain"
	sharedDomain "github.com/felixgeelhaar/autopay/internal/shared/domain"
	"github.com/felixgeelhaar/autopay/pkg/observability"
)

// PolicyView is the read model of a policy period.
type PolicyView = queries.ObligationDTO[insuranceDomain.Details]

// Service exposes the insurance ledger operations. Every failing call
// returns an *application.AbortError.
type Service struct {
	createPolicy     *commands.CreateObligationHandler[insuranceDomain.Details]
	payPremium       *commands.FulfillObligationHandler[insuranceDomain.Details]
	deactivatePolicy *commands.CancelObligationHandler[insuranceDomain.Details]
	createSchedule   *commands.CreateScheduleHandler[insuranceDomain.Details]
	modifySchedule   *commands.ModifyScheduleHandler[insuranceDomain.Details]
	cancelSchedule   *commands.CancelScheduleHandler[insuranceDomain.Details]
	sweep            *commands.SweepHandler[insuranceDomain.Details]

	getPolicy     *queries.GetObligationHandler[insuranceDomain.Details]
	listPolicies  *queries.ListObligationsHandler[insuranceDomain.Details]
	totalPremium  *queries.SumOpenHandler[insuranceDomain.Details]
	getSchedule   *queries.GetScheduleHandler[insuranceDomain.Details]
	listSchedules *queries.ListSchedulesHandler[insuranceDomain.Details]

	metrics observability.Metrics
	logger  *slog.Logger
}

// NewService wires every policy operation to one invoker.
func NewService(invoker *ledgerApp.Invoker[insuranceDomain.Details], metrics observability.Metrics, logger *slog.Logger) *Service {
	if metrics == nil {
		metrics = observability.NoopMetrics{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		createPolicy:     commands.NewCreateObligationHandler(invoker),
		payPremium:       commands.NewFulfillObligationHandler(invoker),
		deactivatePolicy: commands.NewCancelObligationHandler(invoker),
		createSchedule:   commands.NewCreateScheduleHandler(invoker),
		modifySchedule:   commands.NewModifyScheduleHandler(invoker),
		cancelSchedule:   commands.NewCancelScheduleHandler(invoker),
		sweep:            commands.NewSweepHandler(invoker),
		getPolicy:        queries.NewGetObligationHandler(invoker),
		listPolicies:     queries.NewListObligationsHandler(invoker),
		totalPremium:     queries.NewSumOpenHandler(invoker),
		getSchedule:      queries.NewGetScheduleHandler(invoker),
		listSchedules:    queries.NewListSchedulesHandler(invoker),
		metrics:          metrics,
		logger:           logger.With(observability.LedgerKey, insuranceDomain.Namespace),
	}
}

// Namespace identifies the ledger.
func (s *Service) Namespace() string { return insuranceDomain.Namespace }

func (s *Service) tag() observability.Tag {
	return observability.T(observability.LedgerKey, insuranceDomain.Namespace)
}

// CreatePolicy opens a policy for owner. The first premium falls due one
// premium period from now.
func (s *Service) CreatePolicy(
	ctx context.Context,
	owner sharedDomain.Principal,
	name, coverageType string,
	monthlyPremium, coverageAmount int64,
) (domain.ObligationID, error) {
	res, err := observability.TimeOperationResult(s.logger, s.metrics, "create_policy", func() (*commands.CreateObligationResult, error) {
		return s.createPolicy.Handle(ctx, commands.CreateObligationCommand[insuranceDomain.Details]{
			Owner:         owner,
			Amount:        monthlyPremium,
			DueIn:         uint64(insuranceDomain.PremiumPeriodDays) * domain.SecondsPerDay,
			Recurring:     true,
			FrequencyDays: insuranceDomain.PremiumPeriodDays,
			Details: insuranceDomain.Details{
				Name:           name,
				CoverageType:   coverageType,
				CoverageAmount: coverageAmount,
			},
			CorrelationID: observability.CorrelationUUID(ctx),
		})
	}, s.tag())
	if err != nil {
		return 0, err
	}
	s.metrics.Counter(observability.MetricObligationsCreated, 1, s.tag())
	return res.ObligationID, nil
}

// PayPremium pays the current premium period and returns the id of the
// next one.
func (s *Service) PayPremium(ctx context.Context, caller sharedDomain.Principal, id domain.ObligationID) (domain.ObligationID, error) {
	res, err := observability.TimeOperationResult(s.logger, s.metrics, "pay_premium", func() (*commands.FulfillObligationResult, error) {
		return s.payPremium.Handle(ctx, commands.FulfillObligationCommand{
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

// DeactivatePolicy cancels an open policy period. Only the owner may do so.
func (s *Service) DeactivatePolicy(ctx context.Context, caller sharedDomain.Principal, id domain.ObligationID) error {
	err := observability.TimeOperation(s.logger, s.metrics, "deactivate_policy", func() error {
		return s.deactivatePolicy.Handle(ctx, commands.CancelObligationCommand{
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

// Policy returns one policy period.
func (s *Service) Policy(ctx context.Context, id domain.ObligationID) (*PolicyView, error) {
	return s.getPolicy.Handle(ctx, queries.GetObligationQuery{ObligationID: id})
}

// ActivePolicies lists owner's open policy periods.
func (s *Service) ActivePolicies(ctx context.Context, owner sharedDomain.Principal) ([]PolicyView, error) {
	return s.listPolicies.Handle(ctx, queries.ListObligationsQuery{Owner: owner})
}

// AllPolicies lists every policy period in the ledger.
func (s *Service) AllPolicies(ctx context.Context) ([]PolicyView, error) {
	return s.listPolicies.Handle(ctx, queries.ListObligationsQuery{})
}

// TotalMonthlyPremium sums owner's open premiums.
func (s *Service) TotalMonthlyPremium(ctx context.Context, owner sharedDomain.Principal) (int64, error) {
	return s.totalPremium.Handle(ctx, queries.SumOpenQuery{Owner: owner})
}

// CreateSchedule attaches an automatic premium schedule to a policy.
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

// ModifySchedule replaces a premium schedule's timing.
func (s *Service) ModifySchedule(ctx context.Context, caller sharedDomain.Principal, id domain.ScheduleID, nextDue, interval uint64) error {
	return s.modifySchedule.Handle(ctx, commands.ModifyScheduleCommand{
		Caller:        caller,
		ScheduleID:    id,
		NextDue:       nextDue,
		Interval:      interval,
		CorrelationID: observability.CorrelationUUID(ctx),
	})
}

// CancelSchedule stops a premium schedule for good.
func (s *Service) CancelSchedule(ctx context.Context, caller sharedDomain.Principal, id domain.ScheduleID) error {
	return s.cancelSchedule.Handle(ctx, commands.CancelScheduleCommand{
		Caller:        caller,
		ScheduleID:    id,
		CorrelationID: observability.CorrelationUUID(ctx),
	})
}

// Schedule returns one premium schedule.
func (s *Service) Schedule(ctx context.Context, id domain.ScheduleID) (*queries.ScheduleDTO, error) {
	return s.getSchedule.Handle(ctx, queries.GetScheduleQuery{ScheduleID: id})
}

// Schedules lists owner's premium schedules, or all when owner is empty.
func (s *Service) Schedules(ctx context.Context, owner sharedDomain.Principal) ([]queries.ScheduleDTO, error) {
	return s.listSchedules.Handle(ctx, queries.ListSchedulesQuery{Owner: owner})
}

// DueSchedules lists the premium schedules the next sweep would execute.
func (s *Service) DueSchedules(ctx context.Context) ([]queries.ScheduleDTO, error) {
	return s.listSchedules.Handle(ctx, queries.ListSchedulesQuery{DueOnly: true})
}

// ExecuteDueSchedules pays every premium whose schedule is due.
func (s *Service) ExecuteDueSchedules(ctx context.Context, caller sharedDomain.Principal) (*commands.SweepResult, error) {
	return observability.TimeOperationResult(s.logger, s.metrics, "sweep", func() (*commands.SweepResult, error) {
		return s.sweep.Handle(ctx, commands.SweepCommand{
			Caller:        caller,
			CorrelationID: observability.CorrelationUUID(ctx),
		})
	}, s.tag())
}
