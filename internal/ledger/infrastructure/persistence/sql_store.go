package persistence

import (
	"context"
	"fmt"
	"strings"
	"time"

	sharedApplication "github.com/felixgeelhaar/autopay/internal/shared/application"
	"github.com/felixgeelhaar/autopay/internal/shared/infrastructure/database"
	"github.com/lib/pq"
)

// SQLStore keeps ledger entries in the ledger_kv table of a SQLite or
// PostgreSQL database. Lease expiry is stored as unix seconds, 0 meaning none.
type SQLStore struct {
	conn database.Connection
	now  func() time.Time
}

// NewSQLStore creates a store over conn. Run migrations first.
func NewSQLStore(conn database.Connection) *SQLStore {
	return &SQLStore{conn: conn, now: time.Now}
}

// UnitOfWork returns a transaction-scoped unit of work on the same connection.
func (s *SQLStore) UnitOfWork() sharedApplication.UnitOfWork {
	return database.NewUnitOfWork(s.conn)
}

func (s *SQLStore) postgres() bool {
	return s.conn.Driver() == database.DriverPostgres
}

func (s *SQLStore) bind(query string) string {
	return database.Rebind(s.conn.Driver(), query)
}

func (s *SQLStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var value []byte
	err := database.ExecutorFromContext(ctx, s.conn).QueryRow(ctx,
		s.bind(`SELECT value FROM ledger_kv WHERE key = ? AND (lease_expires_at = 0 OR lease_expires_at > ?)`),
		key, s.now().Unix(),
	).Scan(&value)
	if database.IsNoRows(err) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("read %s: %w", key, err)
	}
	return value, true, nil
}

func (s *SQLStore) Put(ctx context.Context, key string, value []byte) error {
	now := s.now().Unix()
	_, err := database.ExecutorFromContext(ctx, s.conn).Exec(ctx, s.bind(`
		INSERT INTO ledger_kv (key, value, updated_at, lease_expires_at)
		VALUES (?, ?, ?, 0)
		ON CONFLICT (key) DO UPDATE SET
			value = excluded.value,
			updated_at = excluded.updated_at,
			lease_expires_at = CASE
				WHEN ledger_kv.lease_expires_at <> 0 AND ledger_kv.lease_expires_at <= ? THEN 0
				ELSE ledger_kv.lease_expires_at
			END`),
		key, value, now, now,
	)
	if err != nil {
		return fmt.Errorf("write %s: %w", key, err)
	}
	return nil
}

func (s *SQLStore) ExtendLease(ctx context.Context, keys []string, policy LeasePolicy) error {
	if !policy.Enabled() || len(keys) == 0 {
		return nil
	}
	now := s.now()
	expiresAt := now.Add(policy.Bump).Unix()
	renewBefore := now.Add(policy.Threshold).Unix()
	exec := database.ExecutorFromContext(ctx, s.conn)

	var err error
	if s.postgres() {
		_, err = exec.Exec(ctx, `
			UPDATE ledger_kv SET lease_expires_at = $1
			WHERE key = ANY($2) AND lease_expires_at < $3`,
			expiresAt, pq.Array(keys), renewBefore,
		)
	} else {
		placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(keys)), ", ")
		args := make([]any, 0, len(keys)+2)
		args = append(args, expiresAt)
		for _, key := range keys {
			args = append(args, key)
		}
		args = append(args, renewBefore)
		_, err = exec.Exec(ctx,
			`UPDATE ledger_kv SET lease_expires_at = ? WHERE key IN (`+placeholders+`) AND lease_expires_at < ?`,
			args...,
		)
	}
	if err != nil {
		return fmt.Errorf("extend lease: %w", err)
	}
	return nil
}
