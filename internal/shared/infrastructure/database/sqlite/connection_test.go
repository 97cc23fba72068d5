package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/autopay/internal/shared/infrastructure/database"
	"github.com/felixgeelhaar/autopay/internal/shared/infrastructure/security"
)

const ledgerDDL = `CREATE TABLE ledger_kv (ledger TEXT PRIMARY KEY, snapshot BLOB NOT NULL)`

func openFile(t *testing.T) database.Connection {
	t.Helper()
	path := filepath.Join(t.TempDir(), "nested", "ledger.db")
	conn, err := database.NewConnection(context.Background(), database.Config{URL: "sqlite://" + path})
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	_, err = conn.Exec(context.Background(), ledgerDDL)
	require.NoError(t, err)
	return conn
}

func countLedgers(t *testing.T, q database.Executor) int {
	t.Helper()
	var n int
	require.NoError(t, q.QueryRow(context.Background(), `SELECT COUNT(*) FROM ledger_kv`).Scan(&n))
	return n
}

func TestNewConnection(t *testing.T) {
	ctx := context.Background()

	t.Run("creates the file under a missing directory", func(t *testing.T) {
		conn := openFile(t)
		assert.Equal(t, database.DriverSQLite, conn.Driver())
		assert.NoError(t, conn.Ping(ctx))
	})

	t.Run("in memory", func(t *testing.T) {
		conn, err := NewConnection(ctx, database.Config{SQLitePath: security.InMemory})
		require.NoError(t, err)
		defer conn.Close()
		assert.NoError(t, conn.Ping(ctx))
	})

	t.Run("rejects shell metacharacters", func(t *testing.T) {
		_, err := NewConnection(ctx, database.Config{SQLitePath: "/tmp/ledger.db; rm -rf /"})
		assert.ErrorIs(t, err, security.ErrInvalidPath)
	})
}

func TestConnection_ExecAndQuery(t *testing.T) {
	ctx := context.Background()
	conn := openFile(t)

	res, err := conn.Exec(ctx, `INSERT INTO ledger_kv (ledger, snapshot) VALUES (?, ?), (?, ?)`,
		"bills", []byte(`{}`), "insurance", []byte(`{}`))
	require.NoError(t, err)
	affected, err := res.RowsAffected()
	require.NoError(t, err)
	assert.Equal(t, int64(2), affected)

	rows, err := conn.Query(ctx, `SELECT ledger FROM ledger_kv ORDER BY ledger`)
	require.NoError(t, err)
	defer rows.Close()
	var names []string
	for rows.Next() {
		var name string
		require.NoError(t, rows.Scan(&name))
		names = append(names, name)
	}
	require.NoError(t, rows.Err())
	assert.Equal(t, []string{"bills", "insurance"}, names)
}

func TestConnection_Transaction(t *testing.T) {
	ctx := context.Background()
	conn := openFile(t)

	tx, err := conn.BeginTx(ctx)
	require.NoError(t, err)
	_, err = tx.Exec(ctx, `INSERT INTO ledger_kv VALUES (?, ?)`, "bills", []byte(`{}`))
	require.NoError(t, err)
	assert.Equal(t, 1, countLedgers(t, tx), "visible inside the transaction")
	require.NoError(t, tx.Commit(ctx))
	assert.Equal(t, 1, countLedgers(t, conn))

	tx, err = conn.BeginTx(ctx)
	require.NoError(t, err)
	_, err = tx.Exec(ctx, `INSERT INTO ledger_kv VALUES (?, ?)`, "insurance", []byte(`{}`))
	require.NoError(t, err)
	require.NoError(t, tx.Rollback(ctx))
	assert.Equal(t, 1, countLedgers(t, conn))
}
