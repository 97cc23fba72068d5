package persistence

import (
	"context"
	"errors"
	"sync"
	"time"

	sharedApplication "github.com/felixgeelhaar/autopay/internal/shared/application"
)

type memoryEntry struct {
	value     []byte
	expiresAt time.Time
}

type stageKey struct{}

// stage buffers writes until the unit of work commits.
type stage struct {
	owner  any
	writes map[string][]byte
	leases map[string]time.Time
	owned  bool
}

func newStage(owner any) *stage {
	return &stage{
		owner:  owner,
		writes: make(map[string][]byte),
		leases: make(map[string]time.Time),
		owned:  true,
	}
}

func stageFromContext(ctx context.Context, owner any) (*stage, bool) {
	st, ok := ctx.Value(stageKey{}).(*stage)
	if !ok || st.owner != owner {
		return nil, false
	}
	return st, true
}

var errNoStage = errors.New("no unit of work in context")

// MemoryStore keeps ledger entries in process. It is its own unit of work:
// writes made under Begin are invisible to other callers until Commit.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	now     func() time.Time
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]memoryEntry),
		now:     time.Now,
	}
}

// UnitOfWork returns the store itself.
func (s *MemoryStore) UnitOfWork() sharedApplication.UnitOfWork {
	return s
}

func (s *MemoryStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if st, ok := stageFromContext(ctx, s); ok {
		if v, ok := st.writes[key]; ok {
			return clone(v), true, nil
		}
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entries[key]
	if !ok || expired(e.expiresAt, s.now()) {
		return nil, false, nil
	}
	return clone(e.value), true, nil
}

func (s *MemoryStore) Put(ctx context.Context, key string, value []byte) error {
	if st, ok := stageFromContext(ctx, s); ok {
		st.writes[key] = clone(value)
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.put(key, value)
	return nil
}

func (s *MemoryStore) put(key string, value []byte) {
	e := s.entries[key]
	if expired(e.expiresAt, s.now()) {
		e.expiresAt = time.Time{}
	}
	e.value = clone(value)
	s.entries[key] = e
}

func (s *MemoryStore) ExtendLease(ctx context.Context, keys []string, policy LeasePolicy) error {
	if !policy.Enabled() {
		return nil
	}
	now := s.now()
	st, staged := stageFromContext(ctx, s)

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, key := range keys {
		e, ok := s.entries[key]
		if staged {
			if _, pending := st.writes[key]; !ok && !pending {
				continue
			}
			if policy.needsBump(e.expiresAt, now) {
				st.leases[key] = now.Add(policy.Bump)
			}
			continue
		}
		if !ok || !policy.needsBump(e.expiresAt, now) {
			continue
		}
		e.expiresAt = now.Add(policy.Bump)
		s.entries[key] = e
	}
	return nil
}

// LeaseExpiry returns when the entry under key expires. The zero time means
// the entry has no lease or does not exist.
func (s *MemoryStore) LeaseExpiry(key string) time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.entries[key].expiresAt
}

// Begin starts a unit of work, joining one already in ctx.
func (s *MemoryStore) Begin(ctx context.Context) (context.Context, error) {
	if st, ok := stageFromContext(ctx, s); ok {
		joined := *st
		joined.owned = false
		return context.WithValue(ctx, stageKey{}, &joined), nil
	}
	return context.WithValue(ctx, stageKey{}, newStage(s)), nil
}

// Commit applies the staged writes and leases atomically.
func (s *MemoryStore) Commit(ctx context.Context) error {
	st, ok := stageFromContext(ctx, s)
	if !ok {
		return errNoStage
	}
	if !st.owned {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for key, value := range st.writes {
		s.put(key, value)
	}
	for key, expiresAt := range st.leases {
		e := s.entries[key]
		e.expiresAt = expiresAt
		s.entries[key] = e
	}
	return nil
}

// Rollback discards the staged writes.
func (s *MemoryStore) Rollback(ctx context.Context) error {
	st, ok := stageFromContext(ctx, s)
	if !ok {
		return errNoStage
	}
	if st.owned {
		clear(st.writes)
		clear(st.leases)
	}
	return nil
}

func clone(b []byte) []byte {
	if b == nil {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
