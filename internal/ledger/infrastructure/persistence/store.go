package persistence

import (
	"context"
	"time"

	sharedApplication "github.com/felixgeelhaar/autopay/internal/shared/application"
)

// KVStore is the durable keyed storage a ledger lives in. Values are opaque
// bytes; entries whose lease has run out read as absent.
type KVStore interface {
	// Get returns the value stored under key and whether it exists.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// Put stores value under key. The entry keeps its current lease.
	Put(ctx context.Context, key string, value []byte) error
	// ExtendLease pushes the lease of each key out to policy.Bump when less
	// than policy.Threshold remains.
	ExtendLease(ctx context.Context, keys []string, policy LeasePolicy) error
}

// Backend is a KVStore together with the unit of work that makes a batch
// of Puts atomic.
type Backend interface {
	KVStore
	UnitOfWork() sharedApplication.UnitOfWork
}

// LeasePolicy controls how long untouched ledger entries stay live.
// A zero Bump disables leases.
type LeasePolicy struct {
	Threshold time.Duration
	Bump      time.Duration
}

// DefaultLeasePolicy keeps entries for 30 days and renews them once less
// than a day remains.
func DefaultLeasePolicy() LeasePolicy {
	return LeasePolicy{
		Threshold: 24 * time.Hour,
		Bump:      720 * time.Hour,
	}
}

// Enabled reports whether entries expire at all.
func (p LeasePolicy) Enabled() bool {
	return p.Bump > 0
}

// needsBump reports whether a lease expiring at expiresAt must be renewed.
// A zero expiresAt means no lease has been taken yet.
func (p LeasePolicy) needsBump(expiresAt, now time.Time) bool {
	if !p.Enabled() {
		return false
	}
	return expiresAt.IsZero() || expiresAt.Sub(now) < p.Threshold
}

func expired(expiresAt, now time.Time) bool {
	return !expiresAt.IsZero() && !now.Before(expiresAt)
}
