package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/felixgeelhaar/autopay/internal/ledger/application/services"
	"github.com/felixgeelhaar/autopay/internal/ledger/domain"
	sharedApplication "github.com/felixgeelhaar/autopay/internal/shared/application"
	sharedDomain "github.com/felixgeelhaar/autopay/internal/shared/domain"
	"github.com/felixgeelhaar/autopay/internal/shared/infrastructure/outbox"
	"github.com/google/uuid"
)

// ErrAborted matches every *AbortError.
var ErrAborted = errors.New("invocation aborted")

// AbortError reports an invocation of an abort-style ledger that was
// unwound. None of its effects were persisted.
type AbortError struct {
	Operation string
	Abort     *domain.Abort
}

func (e *AbortError) Error() string {
	return fmt.Sprintf("%s aborted: %s", e.Operation, e.Abort.Reason)
}

func (e *AbortError) Unwrap() error { return e.Abort }

func (e *AbortError) Is(target error) bool { return target == ErrAborted }

// Invocation identifies who runs an operation and how its events correlate.
type Invocation struct {
	Operation     string
	Principal     sharedDomain.Principal
	CorrelationID uuid.UUID
}

// NewInvocation describes cmd run on behalf of principal.
func NewInvocation(cmd sharedApplication.Command, principal sharedDomain.Principal, correlationID uuid.UUID) Invocation {
	return Invocation{
		Operation:     cmd.CommandName(),
		Principal:     principal,
		CorrelationID: correlationID,
	}
}

// Invoker runs ledger operations as atomic invocations: load, mutate, save,
// renew the lease and queue the domain events, all in one unit of work.
// Invocations on one Invoker are serialized.
type Invoker[D domain.Details] struct {
	repo   domain.StateRepository[D]
	outbox outbox.Repository
	uow    sharedApplication.UnitOfWork
	clock  services.Clock
	logger *slog.Logger
	mu     sync.Mutex
}

// NewInvoker creates an invoker for one ledger.
func NewInvoker[D domain.Details](
	repo domain.StateRepository[D],
	outboxRepo outbox.Repository,
	uow sharedApplication.UnitOfWork,
	clock services.Clock,
	logger *slog.Logger,
) *Invoker[D] {
	if logger == nil {
		logger = slog.Default()
	}
	if clock == nil {
		clock = services.SystemClock{}
	}
	return &Invoker[D]{
		repo:   repo,
		outbox: outboxRepo,
		uow:    uow,
		clock:  clock,
		logger: logger,
	}
}

// Invoke runs fn against the current state at the current ledger time. Any
// error, including an abort raised inside fn, discards every effect.
func (i *Invoker[D]) Invoke(ctx context.Context, inv Invocation, fn func(state *domain.State[D], now uint64) error) error {
	i.mu.Lock()
	defer i.mu.Unlock()

	now := services.LedgerSeconds(i.clock)
	err := sharedApplication.WithUnitOfWork(ctx, i.uow, func(txCtx context.Context) error {
		state, err := i.repo.Load(txCtx)
		if err != nil {
			return err
		}

		if err := domain.Recover(func() error { return fn(state, now) }); err != nil {
			var abort *domain.Abort
			if errors.As(err, &abort) {
				return &AbortError{Operation: inv.Operation, Abort: abort}
			}
			return err
		}

		if err := i.repo.Save(txCtx, state); err != nil {
			return err
		}
		if err := i.repo.ExtendLease(txCtx); err != nil {
			return err
		}

		events := state.DomainEvents()
		sharedApplication.StampEvents(events, inv.CorrelationID, inv.Principal)

		msgs := make([]*outbox.Message, 0, len(events))
		for _, event := range events {
			msg, err := outbox.NewMessage(event)
			if err != nil {
				return err
			}
			msgs = append(msgs, msg)
		}
		return i.outbox.SaveBatch(txCtx, msgs)
	})
	if err != nil {
		i.logger.Debug("ledger invocation failed",
			"operation", inv.Operation,
			"principal", inv.Principal.String(),
			"error", err,
		)
		return err
	}
	return nil
}

// Read answers q from the current state without persisting anything.
func (i *Invoker[D]) Read(ctx context.Context, q sharedApplication.Query, fn func(state *domain.State[D], now uint64) error) error {
	i.mu.Lock()
	defer i.mu.Unlock()

	state, err := i.repo.Load(ctx)
	if err == nil {
		err = domain.Recover(func() error { return fn(state, services.LedgerSeconds(i.clock)) })
	}
	if err != nil {
		i.logger.Debug("ledger query failed", "query", q.QueryName(), "error", err)
	}
	return err
}

// Clock returns the invoker's clock.
func (i *Invoker[D]) Clock() services.Clock {
	return i.clock
}
