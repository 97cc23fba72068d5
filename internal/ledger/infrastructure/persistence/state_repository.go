package persistence

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/felixgeelhaar/autopay/internal/ledger/domain"
)

// Key suffixes of the four entries a ledger is stored under.
const (
	KeyObligations = "OBLIGATIONS"
	KeySchedules   = "SCHEDULES"
	KeyNextObl     = "NEXT_OBL"
	KeyNextSch     = "NEXT_SCH"
)

// KVStateRepository stores a ledger as four JSON entries in a KVStore,
// namespaced by the profile.
type KVStateRepository[D domain.Details] struct {
	store   KVStore
	profile domain.Profile
	lease   LeasePolicy
}

// NewKVStateRepository creates a repository for one ledger.
func NewKVStateRepository[D domain.Details](store KVStore, profile domain.Profile, lease LeasePolicy) *KVStateRepository[D] {
	return &KVStateRepository[D]{store: store, profile: profile, lease: lease}
}

func (r *KVStateRepository[D]) key(suffix string) string {
	return r.profile.Namespace + ":" + suffix
}

// Keys returns the storage keys of the ledger.
func (r *KVStateRepository[D]) Keys() []string {
	return []string{
		r.key(KeyObligations),
		r.key(KeySchedules),
		r.key(KeyNextObl),
		r.key(KeyNextSch),
	}
}

// Load reads the ledger. Missing entries read as empty.
func (r *KVStateRepository[D]) Load(ctx context.Context) (*domain.State[D], error) {
	var snap domain.Snapshot[D]
	if err := r.read(ctx, KeyObligations, &snap.Obligations); err != nil {
		return nil, err
	}
	if err := r.read(ctx, KeySchedules, &snap.Schedules); err != nil {
		return nil, err
	}
	if err := r.read(ctx, KeyNextObl, &snap.LastObligationID); err != nil {
		return nil, err
	}
	if err := r.read(ctx, KeyNextSch, &snap.LastScheduleID); err != nil {
		return nil, err
	}
	return domain.RehydrateState(r.profile, snap), nil
}

func (r *KVStateRepository[D]) read(ctx context.Context, suffix string, dst any) error {
	raw, ok, err := r.store.Get(ctx, r.key(suffix))
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("decode %s: %w", r.key(suffix), err)
	}
	return nil
}

// Save writes both stores and both counters.
func (r *KVStateRepository[D]) Save(ctx context.Context, state *domain.State[D]) error {
	snap := state.Snapshot()
	entries := []struct {
		suffix string
		value  any
	}{
		{KeyObligations, snap.Obligations},
		{KeySchedules, snap.Schedules},
		{KeyNextObl, snap.LastObligationID},
		{KeyNextSch, snap.LastScheduleID},
	}
	for _, e := range entries {
		raw, err := json.Marshal(e.value)
		if err != nil {
			return fmt.Errorf("encode %s: %w", r.key(e.suffix), err)
		}
		if err := r.store.Put(ctx, r.key(e.suffix), raw); err != nil {
			return err
		}
	}
	return nil
}

// ExtendLease renews the lease of all four entries.
func (r *KVStateRepository[D]) ExtendLease(ctx context.Context) error {
	return r.store.ExtendLease(ctx, r.Keys(), r.lease)
}
