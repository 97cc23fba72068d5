package application

import (
	"context"
	"errors"
	"testing"
	"time"

	insuranceDomain "github.com/felixgeelhaar/autopay/internal/insurance/domain"
	ledgerApp "github.com/felixgeelhaar/autopay/internal/ledger/application"
	"github.com/felixgeelhaar/autopay/internal/ledger/application/services"
	"github.com/felixgeelhaar/autopay/internal/ledger/domain"
	"github.com/felixgeelhaar/autopay/internal/ledger/infrastructure/persistence"
	sharedDomain "github.com/felixgeelhaar/autopay/internal/shared/domain"
	"github.com/felixgeelhaar/autopay/internal/shared/infrastructure/outbox"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const day = uint64(86400)

var (
	holder   = sharedDomain.NewPrincipal("GHOLDER")
	stranger = sharedDomain.NewPrincipal("GSTRANGER")
)

func newService(t *testing.T) (*Service, *services.FixedClock, *outbox.InMemoryRepository) {
	t.Helper()
	store := persistence.NewMemoryStore()
	clock := services.NewFixedClock(time.Unix(5_000, 0))
	outboxRepo := outbox.NewInMemoryRepository()
	repo := persistence.NewKVStateRepository[insuranceDomain.Details](store, insuranceDomain.Profile(), persistence.DefaultLeasePolicy())
	invoker := ledgerApp.NewInvoker[insuranceDomain.Details](repo, outboxRepo, store.UnitOfWork(), clock, nil)
	return NewService(invoker, nil, nil), clock, outboxRepo
}

func assertAborted(t *testing.T, err error, category error, reason string) {
	t.Helper()
	require.Error(t, err)
	assert.ErrorIs(t, err, ledgerApp.ErrAborted)
	assert.ErrorIs(t, err, category)
	var abortErr *ledgerApp.AbortError
	require.True(t, errors.As(err, &abortErr))
	assert.Equal(t, reason, abortErr.Abort.Reason)
}

func TestService_CreatePolicy(t *testing.T) {
	svc, clock, outboxRepo := newService(t)
	ctx := context.Background()

	id, err := svc.CreatePolicy(ctx, holder, "Family Health", "health", 120, 50_000)
	require.NoError(t, err)

	policy, err := svc.Policy(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, services.LedgerSeconds(clock)+30*day, policy.DueAt)
	assert.True(t, policy.Recurring)
	assert.Equal(t, "health", policy.Details.CoverageType)
	assert.Equal(t, int64(50_000), policy.Details.CoverageAmount)
	assert.Equal(t, 1, outboxRepo.Len())

	_, err = svc.CreatePolicy(ctx, holder, "Bad", "health", 0, 50_000)
	assertAborted(t, err, domain.ErrInvalidAmount, "Policy amount must be positive")

	_, err = svc.CreatePolicy(ctx, holder, "Bad", "health", 10, 0)
	assertAborted(t, err, domain.ErrInvalidAmount, "Coverage amount must be positive")

	all, err := svc.AllPolicies(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
	assert.Equal(t, 1, outboxRepo.Len())
}

func TestService_PremiumsAndDeactivation(t *testing.T) {
	svc, _, _ := newService(t)
	ctx := context.Background()

	id, err := svc.CreatePolicy(ctx, holder, "Car", "auto", 80, 20_000)
	require.NoError(t, err)

	_, err = svc.PayPremium(ctx, stranger, id)
	assertAborted(t, err, domain.ErrUnauthorized, "only the policy owner can pay it")

	next, err := svc.PayPremium(ctx, holder, id)
	require.NoError(t, err)

	total, err := svc.TotalMonthlyPremium(ctx, holder)
	require.NoError(t, err)
	assert.Equal(t, int64(80), total)

	err = svc.DeactivatePolicy(ctx, stranger, next)
	assertAborted(t, err, domain.ErrUnauthorized, "only the policy owner can cancel it")

	require.NoError(t, svc.DeactivatePolicy(ctx, holder, next))

	err = svc.DeactivatePolicy(ctx, holder, next)
	assertAborted(t, err, domain.ErrNotActive, "Policy is not active")

	active, err := svc.ActivePolicies(ctx, holder)
	require.NoError(t, err)
	assert.Empty(t, active)

	_, err = svc.PayPremium(ctx, holder, next)
	assertAborted(t, err, domain.ErrNotActive, "Policy is not active")
}

func TestService_PremiumSchedule(t *testing.T) {
	svc, clock, _ := newService(t)
	ctx := context.Background()
	now := services.LedgerSeconds(clock)

	id, err := svc.CreatePolicy(ctx, holder, "Life", "life", 60, 100_000)
	require.NoError(t, err)

	_, err = svc.CreateSchedule(ctx, holder, id, now, 30*day)
	assertAborted(t, err, domain.ErrInvalidSchedule, "next due must be in the future")

	schedID, err := svc.CreateSchedule(ctx, holder, id, now+30*day, 30*day)
	require.NoError(t, err)

	clock.Advance(31 * 24 * time.Hour)
	result, err := svc.ExecuteDueSchedules(ctx, sharedDomain.Principal{})
	require.NoError(t, err)
	assert.Equal(t, []domain.ScheduleID{schedID}, result.Executed)
	assert.Equal(t, 1, result.Fulfilled)

	sched, err := svc.Schedule(ctx, schedID)
	require.NoError(t, err)
	assert.Equal(t, now+60*day, sched.NextDue)
	assert.Equal(t, domain.ObligationID(2), sched.ObligationID)

	err = svc.ModifySchedule(ctx, stranger, schedID, now+90*day, 30*day)
	assertAborted(t, err, domain.ErrUnauthorized, "only the schedule owner can modify it")

	require.NoError(t, svc.CancelSchedule(ctx, holder, schedID))
	due, err := svc.DueSchedules(ctx)
	require.NoError(t, err)
	assert.Empty(t, due)

	_, err = svc.Schedule(ctx, 99)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
