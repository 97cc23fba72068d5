package database

import (
	"context"
	"errors"
)

// ErrNoTransaction is returned when Commit or Rollback find no transaction
// in the context.
var ErrNoTransaction = errors.New("no transaction in context")

type txKey struct{}

type txScope struct {
	tx    Transaction
	owned bool
}

// TxFromContext returns the transaction opened by a TxUnitOfWork, or nil.
func TxFromContext(ctx context.Context) Transaction {
	if scope, ok := ctx.Value(txKey{}).(txScope); ok {
		return scope.tx
	}
	return nil
}

// ExecutorFromContext returns the transaction in ctx, falling back to conn.
// Stores call it so they join an invocation's transaction when one is open.
func ExecutorFromContext(ctx context.Context, conn Connection) Executor {
	if tx := TxFromContext(ctx); tx != nil {
		return tx
	}
	return conn
}

// TxUnitOfWork runs each ledger invocation in one SQL transaction, so the
// state snapshot and its outbox rows commit together. A Begin inside an
// open transaction joins it and leaves the outer scope to finish it.
type TxUnitOfWork struct {
	conn Connection
}

// NewUnitOfWork creates a unit of work on conn.
func NewUnitOfWork(conn Connection) *TxUnitOfWork {
	return &TxUnitOfWork{conn: conn}
}

func (u *TxUnitOfWork) Begin(ctx context.Context) (context.Context, error) {
	if tx := TxFromContext(ctx); tx != nil {
		return context.WithValue(ctx, txKey{}, txScope{tx: tx}), nil
	}
	tx, err := u.conn.BeginTx(ctx)
	if err != nil {
		return nil, err
	}
	return context.WithValue(ctx, txKey{}, txScope{tx: tx, owned: true}), nil
}

func (u *TxUnitOfWork) Commit(ctx context.Context) error {
	return u.finish(ctx, Transaction.Commit)
}

func (u *TxUnitOfWork) Rollback(ctx context.Context) error {
	return u.finish(ctx, Transaction.Rollback)
}

func (u *TxUnitOfWork) finish(ctx context.Context, end func(Transaction, context.Context) error) error {
	scope, ok := ctx.Value(txKey{}).(txScope)
	if !ok {
		return ErrNoTransaction
	}
	if !scope.owned {
		return nil
	}
	return end(scope.tx, ctx)
}
