package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/felixgeelhaar/autopay/internal/ledger/application/services"
	"github.com/felixgeelhaar/autopay/internal/ledger/domain"
	sharedDomain "github.com/felixgeelhaar/autopay/internal/shared/domain"
	"github.com/felixgeelhaar/autopay/internal/shared/infrastructure/outbox"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type noteDetails struct {
	Note string `json:"note"`
}

func (noteDetails) Validate() error { return nil }

type mockStateRepo struct {
	mock.Mock
}

func (m *mockStateRepo) Load(ctx context.Context) (*domain.State[noteDetails], error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.State[noteDetails]), args.Error(1)
}

func (m *mockStateRepo) Save(ctx context.Context, state *domain.State[noteDetails]) error {
	args := m.Called(ctx, state)
	return args.Error(0)
}

func (m *mockStateRepo) ExtendLease(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

type mockOutboxRepo struct {
	mock.Mock
}

func (m *mockOutboxRepo) Save(ctx context.Context, msg *outbox.Message) error {
	args := m.Called(ctx, msg)
	return args.Error(0)
}

func (m *mockOutboxRepo) SaveBatch(ctx context.Context, msgs []*outbox.Message) error {
	args := m.Called(ctx, msgs)
	return args.Error(0)
}

func (m *mockOutboxRepo) GetUnpublished(ctx context.Context, limit int) ([]*outbox.Message, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*outbox.Message), args.Error(1)
}

func (m *mockOutboxRepo) MarkPublished(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *mockOutboxRepo) MarkFailed(ctx context.Context, id int64, err string, nextRetryAt time.Time) error {
	args := m.Called(ctx, id, err, nextRetryAt)
	return args.Error(0)
}

func (m *mockOutboxRepo) MarkDead(ctx context.Context, id int64, reason string) error {
	args := m.Called(ctx, id, reason)
	return args.Error(0)
}

func (m *mockOutboxRepo) GetFailed(ctx context.Context, maxRetries, limit int) ([]*outbox.Message, error) {
	args := m.Called(ctx, maxRetries, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*outbox.Message), args.Error(1)
}

func (m *mockOutboxRepo) DeleteOld(ctx context.Context, olderThanDays int) (int64, error) {
	args := m.Called(ctx, olderThanDays)
	return args.Get(0).(int64), args.Error(1)
}

type mockUnitOfWork struct {
	mock.Mock
}

func (m *mockUnitOfWork) Begin(ctx context.Context) (context.Context, error) {
	args := m.Called(ctx)
	return args.Get(0).(context.Context), args.Error(1)
}

func (m *mockUnitOfWork) Commit(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *mockUnitOfWork) Rollback(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

var (
	owner = sharedDomain.NewPrincipal("GOWNER")
	start = time.Unix(1_700_000_000, 0).UTC()
)

func testProfile(style domain.ErrorStyle) domain.Profile {
	return domain.Profile{
		Namespace:  "notes",
		Noun:       "note",
		ErrorStyle: style,
		CancelMode: domain.CancelRemove,
	}
}

func newTestInvoker(repo *mockStateRepo, outboxRepo *mockOutboxRepo, uow *mockUnitOfWork) *Invoker[noteDetails] {
	return NewInvoker[noteDetails](repo, outboxRepo, uow, services.NewFixedClock(start), nil)
}

func createNote(state *domain.State[noteDetails], now uint64) error {
	_, err := state.CreateObligation(owner, 100, now+3600, false, 0, noteDetails{Note: "rent"}, now)
	return err
}

func TestInvoker_Invoke(t *testing.T) {
	t.Run("persists state and queues events with metadata", func(t *testing.T) {
		repo := new(mockStateRepo)
		outboxRepo := new(mockOutboxRepo)
		uow := new(mockUnitOfWork)
		invoker := newTestInvoker(repo, outboxRepo, uow)

		ctx := context.Background()
		txCtx := context.WithValue(ctx, "tx", "transaction")
		state := domain.NewState[noteDetails](testProfile(domain.StyleRecoverable))
		correlationID := uuid.New()

		uow.On("Begin", ctx).Return(txCtx, nil)
		repo.On("Load", txCtx).Return(state, nil)
		repo.On("Save", txCtx, state).Return(nil)
		repo.On("ExtendLease", txCtx).Return(nil)
		outboxRepo.On("SaveBatch", txCtx, mock.MatchedBy(func(msgs []*outbox.Message) bool {
			if len(msgs) != 1 {
				return false
			}
			env, err := msgs[0].Envelope()
			return err == nil &&
				msgs[0].RoutingKey == "notes.obligation.created" &&
				msgs[0].AggregateID == "1" &&
				len(env) > 0
		})).Return(nil)
		uow.On("Commit", txCtx).Return(nil)

		err := invoker.Invoke(ctx, Invocation{Operation: "create", Principal: owner, CorrelationID: correlationID}, createNote)

		require.NoError(t, err)
		events := state.DomainEvents()
		require.Len(t, events, 1)
		assert.Equal(t, correlationID, events[0].Metadata().CorrelationID)
		assert.Equal(t, owner.String(), events[0].Metadata().Principal)
		repo.AssertExpectations(t)
		outboxRepo.AssertExpectations(t)
		uow.AssertExpectations(t)
	})

	t.Run("rolls back on a recoverable error", func(t *testing.T) {
		repo := new(mockStateRepo)
		outboxRepo := new(mockOutboxRepo)
		uow := new(mockUnitOfWork)
		invoker := newTestInvoker(repo, outboxRepo, uow)

		ctx := context.Background()
		txCtx := context.WithValue(ctx, "tx", "transaction")
		state := domain.NewState[noteDetails](testProfile(domain.StyleRecoverable))

		uow.On("Begin", ctx).Return(txCtx, nil)
		repo.On("Load", txCtx).Return(state, nil)
		uow.On("Rollback", txCtx).Return(nil)

		err := invoker.Invoke(ctx, Invocation{Operation: "fulfill", Principal: owner}, func(s *domain.State[noteDetails], now uint64) error {
			_, err := s.FulfillObligation(owner, 42, now)
			return err
		})

		require.Error(t, err)
		assert.ErrorIs(t, err, domain.ErrNotFound)
		assert.NotErrorIs(t, err, ErrAborted)
		repo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
		outboxRepo.AssertNotCalled(t, "SaveBatch", mock.Anything, mock.Anything)
		uow.AssertExpectations(t)
	})

	t.Run("converts an abort into an AbortError", func(t *testing.T) {
		repo := new(mockStateRepo)
		outboxRepo := new(mockOutboxRepo)
		uow := new(mockUnitOfWork)
		invoker := newTestInvoker(repo, outboxRepo, uow)

		ctx := context.Background()
		txCtx := context.WithValue(ctx, "tx", "transaction")
		state := domain.NewState[noteDetails](testProfile(domain.StyleAbort))

		uow.On("Begin", ctx).Return(txCtx, nil)
		repo.On("Load", txCtx).Return(state, nil)
		uow.On("Rollback", txCtx).Return(nil)

		err := invoker.Invoke(ctx, Invocation{Operation: "create_obligation", Principal: owner}, func(s *domain.State[noteDetails], now uint64) error {
			_, err := s.CreateObligation(owner, 0, now, false, 0, noteDetails{}, now)
			return err
		})

		require.Error(t, err)
		assert.ErrorIs(t, err, ErrAborted)
		assert.ErrorIs(t, err, domain.ErrInvalidAmount)

		var abortErr *AbortError
		require.True(t, errors.As(err, &abortErr))
		assert.Equal(t, "create_obligation", abortErr.Operation)
		assert.Equal(t, domain.CodeInvalidAmount, abortErr.Abort.Code)
		assert.Contains(t, err.Error(), "create_obligation aborted")
		repo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
		uow.AssertExpectations(t)
	})

	t.Run("returns load errors", func(t *testing.T) {
		repo := new(mockStateRepo)
		outboxRepo := new(mockOutboxRepo)
		uow := new(mockUnitOfWork)
		invoker := newTestInvoker(repo, outboxRepo, uow)

		ctx := context.Background()
		txCtx := context.WithValue(ctx, "tx", "transaction")
		loadErr := errors.New("storage offline")

		uow.On("Begin", ctx).Return(txCtx, nil)
		repo.On("Load", txCtx).Return(nil, loadErr)
		uow.On("Rollback", txCtx).Return(nil)

		err := invoker.Invoke(ctx, Invocation{Operation: "create"}, createNote)

		assert.ErrorIs(t, err, loadErr)
		uow.AssertExpectations(t)
	})

	t.Run("fails when the outbox rejects the batch", func(t *testing.T) {
		repo := new(mockStateRepo)
		outboxRepo := new(mockOutboxRepo)
		uow := new(mockUnitOfWork)
		invoker := newTestInvoker(repo, outboxRepo, uow)

		ctx := context.Background()
		txCtx := context.WithValue(ctx, "tx", "transaction")
		state := domain.NewState[noteDetails](testProfile(domain.StyleRecoverable))
		outboxErr := errors.New("outbox full")

		uow.On("Begin", ctx).Return(txCtx, nil)
		repo.On("Load", txCtx).Return(state, nil)
		repo.On("Save", txCtx, state).Return(nil)
		repo.On("ExtendLease", txCtx).Return(nil)
		outboxRepo.On("SaveBatch", txCtx, mock.Anything).Return(outboxErr)
		uow.On("Rollback", txCtx).Return(nil)

		err := invoker.Invoke(ctx, Invocation{Operation: "create", Principal: owner}, createNote)

		assert.ErrorIs(t, err, outboxErr)
		uow.AssertNotCalled(t, "Commit", mock.Anything)
	})
}

type stateQuery struct{}

func (stateQuery) QueryName() string { return "state" }

type renameCommand struct{}

func (renameCommand) CommandName() string { return "rename" }

func TestNewInvocation(t *testing.T) {
	correlationID := uuid.New()
	inv := NewInvocation(renameCommand{}, sharedDomain.NewPrincipal("GALICE"), correlationID)

	assert.Equal(t, "rename", inv.Operation)
	assert.Equal(t, "GALICE", inv.Principal.String())
	assert.Equal(t, correlationID, inv.CorrelationID)
}

func TestInvoker_Read(t *testing.T) {
	repo := new(mockStateRepo)
	invoker := newTestInvoker(repo, new(mockOutboxRepo), new(mockUnitOfWork))

	ctx := context.Background()
	state := domain.NewState[noteDetails](testProfile(domain.StyleAbort))
	repo.On("Load", ctx).Return(state, nil)

	var seen uint64
	err := invoker.Read(ctx, stateQuery{}, func(s *domain.State[noteDetails], now uint64) error {
		seen = now
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, uint64(start.Unix()), seen)
	repo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}
