package queries

import (
	"context"
	"testing"
	"time"

	ledgerApp "github.com/felixgeelhaar/autopay/internal/ledger/application"
	"github.com/felixgeelhaar/autopay/internal/ledger/application/services"
	"github.com/felixgeelhaar/autopay/internal/ledger/domain"
	"github.com/felixgeelhaar/autopay/internal/ledger/infrastructure/persistence"
	sharedDomain "github.com/felixgeelhaar/autopay/internal/shared/domain"
	"github.com/felixgeelhaar/autopay/internal/shared/infrastructure/outbox"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type tagDetails struct {
	Tag string `json:"tag"`
}

func (tagDetails) Validate() error { return nil }

var (
	alice = sharedDomain.NewPrincipal("GALICE")
	bob   = sharedDomain.NewPrincipal("GBOB")
)

const day = uint64(86400)

// seededInvoker returns an invoker over a bills-style ledger holding:
// 1 alice 100 overdue, 2 alice 250 due tomorrow (scheduled), 3 bob 40 paid.
func seededInvoker(t *testing.T) (*ledgerApp.Invoker[tagDetails], *services.FixedClock) {
	t.Helper()
	profile := domain.Profile{
		Namespace:  "bills",
		Noun:       "bill",
		ErrorStyle: domain.StyleRecoverable,
		CancelMode: domain.CancelRemove,
	}
	store := persistence.NewMemoryStore()
	clock := services.NewFixedClock(time.Unix(1_700_000_000, 0))
	repo := persistence.NewKVStateRepository[tagDetails](store, profile, persistence.LeasePolicy{})
	invoker := ledgerApp.NewInvoker[tagDetails](repo, outbox.NewInMemoryRepository(), store.UnitOfWork(), clock, nil)

	err := invoker.Invoke(context.Background(), ledgerApp.Invocation{Operation: "seed"}, func(s *domain.State[tagDetails], now uint64) error {
		if _, err := s.CreateObligation(alice, 100, now-day, false, 0, tagDetails{Tag: "water"}, now); err != nil {
			return err
		}
		if _, err := s.CreateObligation(alice, 250, now+day, true, 30, tagDetails{Tag: "rent"}, now); err != nil {
			return err
		}
		if _, err := s.CreateObligation(bob, 40, now+day, false, 0, tagDetails{Tag: "phone"}, now); err != nil {
			return err
		}
		if _, err := s.FulfillObligation(bob, 3, now); err != nil {
			return err
		}
		_, err := s.CreateSchedule(alice, 2, now+day, 30*day, now)
		return err
	})
	require.NoError(t, err)
	return invoker, clock
}

func TestGetObligationHandler_Handle(t *testing.T) {
	invoker, _ := seededInvoker(t)
	handler := NewGetObligationHandler(invoker)

	dto, err := handler.Handle(context.Background(), GetObligationQuery{ObligationID: 1})
	require.NoError(t, err)
	assert.Equal(t, "GALICE", dto.Owner)
	assert.Equal(t, "water", dto.Details.Tag)
	assert.True(t, dto.Overdue)
	assert.Equal(t, "open", dto.Status)

	_, err = handler.Handle(context.Background(), GetObligationQuery{ObligationID: 9})
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Contains(t, err.Error(), "Bill not found")
}

func TestListObligationsHandler_Handle(t *testing.T) {
	invoker, _ := seededInvoker(t)
	handler := NewListObligationsHandler(invoker)

	all, err := handler.Handle(context.Background(), ListObligationsQuery{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, domain.ObligationID(1), all[0].ID)
	assert.Equal(t, domain.ObligationID(3), all[2].ID)

	open, err := handler.Handle(context.Background(), ListObligationsQuery{Owner: bob})
	require.NoError(t, err)
	assert.Empty(t, open)
}

func TestSumOpenHandler_Handle(t *testing.T) {
	invoker, _ := seededInvoker(t)
	handler := NewSumOpenHandler(invoker)

	total, err := handler.Handle(context.Background(), SumOpenQuery{Owner: alice})
	require.NoError(t, err)
	assert.Equal(t, int64(350), total)

	total, err = handler.Handle(context.Background(), SumOpenQuery{Owner: bob})
	require.NoError(t, err)
	assert.Zero(t, total)
}

func TestOverdueHandler_Handle(t *testing.T) {
	invoker, clock := seededInvoker(t)
	handler := NewOverdueHandler(invoker)

	overdue, err := handler.Handle(context.Background(), OverdueQuery{})
	require.NoError(t, err)
	require.Len(t, overdue, 1)
	assert.Equal(t, domain.ObligationID(1), overdue[0].ID)

	clock.Advance(48 * time.Hour)
	overdue, err = handler.Handle(context.Background(), OverdueQuery{})
	require.NoError(t, err)
	assert.Len(t, overdue, 2)
}

func TestScheduleQueries(t *testing.T) {
	invoker, clock := seededInvoker(t)
	ctx := context.Background()

	dto, err := NewGetScheduleHandler(invoker).Handle(ctx, GetScheduleQuery{ScheduleID: 1})
	require.NoError(t, err)
	assert.Equal(t, domain.ObligationID(2), dto.ObligationID)
	assert.True(t, dto.Recurring)
	assert.False(t, dto.Due)

	_, err = NewGetScheduleHandler(invoker).Handle(ctx, GetScheduleQuery{ScheduleID: 5})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	list := NewListSchedulesHandler(invoker)
	mine, err := list.Handle(ctx, ListSchedulesQuery{Owner: alice})
	require.NoError(t, err)
	assert.Len(t, mine, 1)

	theirs, err := list.Handle(ctx, ListSchedulesQuery{Owner: bob})
	require.NoError(t, err)
	assert.Empty(t, theirs)

	due, err := list.Handle(ctx, ListSchedulesQuery{DueOnly: true})
	require.NoError(t, err)
	assert.Empty(t, due)

	clock.Advance(25 * time.Hour)
	due, err = list.Handle(ctx, ListSchedulesQuery{DueOnly: true})
	require.NoError(t, err)
	require.Len(t, due, 1)
	assert.True(t, due[0].Due)
}
