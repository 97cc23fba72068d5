package application

import (
	"context"
	"errors"
)

// UnitOfWork scopes a ledger invocation. Stores that cannot roll back
// implement it as a no-op and rely on the invoker never saving a failed state.
type UnitOfWork interface {
	Begin(ctx context.Context) (context.Context, error)
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// WithUnitOfWork runs fn inside uow. When fn fails the work is rolled back
// and a rollback failure is joined to fn's error.
func WithUnitOfWork(ctx context.Context, uow UnitOfWork, fn func(ctx context.Context) error) error {
	txCtx, err := uow.Begin(ctx)
	if err != nil {
		return err
	}

	if err := fn(txCtx); err != nil {
		if rbErr := uow.Rollback(txCtx); rbErr != nil {
			return errors.Join(err, rbErr)
		}
		return err
	}
	return uow.Commit(txCtx)
}
