package persistence

import (
	"context"
	"fmt"
	"time"

	sharedApplication "github.com/felixgeelhaar/autopay/internal/shared/application"
	"github.com/redis/go-redis/v9"
)

// RedisStore keeps ledger entries as plain Redis strings under a key prefix.
// Leases map to key TTLs. Writes made under Begin are buffered and flushed
// in one MULTI/EXEC on Commit.
type RedisStore struct {
	client *redis.Client
	prefix string
}

// NewRedisStore creates a store. prefix is prepended to every key.
func NewRedisStore(client *redis.Client, prefix string) *RedisStore {
	return &RedisStore{client: client, prefix: prefix}
}

// UnitOfWork returns the store itself.
func (s *RedisStore) UnitOfWork() sharedApplication.UnitOfWork {
	return s
}

func (s *RedisStore) namespaceKey(key string) string {
	return s.prefix + key
}

func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if st, ok := stageFromContext(ctx, s); ok {
		if v, ok := st.writes[key]; ok {
			return clone(v), true, nil
		}
	}

	val, err := s.client.Get(ctx, s.namespaceKey(key)).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("read %s: %w", key, err)
	}
	return val, true, nil
}

func (s *RedisStore) Put(ctx context.Context, key string, value []byte) error {
	if st, ok := stageFromContext(ctx, s); ok {
		st.writes[key] = clone(value)
		return nil
	}
	return s.client.Set(ctx, s.namespaceKey(key), value, redis.KeepTTL).Err()
}

func (s *RedisStore) ExtendLease(ctx context.Context, keys []string, policy LeasePolicy) error {
	if !policy.Enabled() {
		return nil
	}
	st, staged := stageFromContext(ctx, s)
	now := time.Now()

	for _, key := range keys {
		ttl, err := s.client.TTL(ctx, s.namespaceKey(key)).Result()
		if err != nil {
			return fmt.Errorf("read lease of %s: %w", key, err)
		}

		var expiresAt time.Time
		switch {
		case ttl == -2:
			// Missing key. A staged write will create it on commit.
			if !staged {
				continue
			}
			if _, pending := st.writes[key]; !pending {
				continue
			}
		case ttl > 0:
			expiresAt = now.Add(ttl)
		}
		if !policy.needsBump(expiresAt, now) {
			continue
		}

		if staged {
			st.leases[key] = now.Add(policy.Bump)
			continue
		}
		if err := s.client.Expire(ctx, s.namespaceKey(key), policy.Bump).Err(); err != nil {
			return fmt.Errorf("extend lease of %s: %w", key, err)
		}
	}
	return nil
}

// Begin starts a unit of work, joining one already in ctx.
func (s *RedisStore) Begin(ctx context.Context) (context.Context, error) {
	if st, ok := stageFromContext(ctx, s); ok {
		joined := *st
		joined.owned = false
		return context.WithValue(ctx, stageKey{}, &joined), nil
	}
	return context.WithValue(ctx, stageKey{}, newStage(s)), nil
}

// Commit flushes staged writes and lease renewals in a single transaction.
func (s *RedisStore) Commit(ctx context.Context) error {
	st, ok := stageFromContext(ctx, s)
	if !ok {
		return errNoStage
	}
	if !st.owned || (len(st.writes) == 0 && len(st.leases) == 0) {
		return nil
	}

	now := time.Now()
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for key, value := range st.writes {
			pipe.Set(ctx, s.namespaceKey(key), value, redis.KeepTTL)
		}
		for key, expiresAt := range st.leases {
			pipe.Expire(ctx, s.namespaceKey(key), expiresAt.Sub(now))
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("commit ledger writes: %w", err)
	}
	return nil
}

// Rollback discards the staged writes.
func (s *RedisStore) Rollback(ctx context.Context) error {
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

// Ping checks the connection for readiness probes.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}
