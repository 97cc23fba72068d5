package domain

import "context"

// StateRepository loads and stores one ledger instance.
type StateRepository[D Details] interface {
	// Load returns the current state, or an empty ledger when nothing is stored yet.
	Load(ctx context.Context) (*State[D], error)
	// Save writes both stores and both counters.
	Save(ctx context.Context, state *State[D]) error
	// ExtendLease keeps the ledger's entries alive after a mutation.
	ExtendLease(ctx context.Context) error
}
