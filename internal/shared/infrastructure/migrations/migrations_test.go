package migrations

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/felixgeelhaar/autopay/internal/shared/infrastructure/database"
	"github.com/felixgeelhaar/autopay/internal/shared/infrastructure/database/sqlite"
)

func TestRun_SQLite(t *testing.T) {
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	defer db.Close()

	ctx := context.Background()
	conn := sqlite.Wrap(db)

	require.NoError(t, Run(ctx, conn))
	// Idempotent on a second start.
	require.NoError(t, Run(ctx, conn))

	for _, table := range []string{"ledger_kv", "outbox"} {
		var name string
		err := db.QueryRowContext(ctx, `SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?`, table).Scan(&name)
		require.NoError(t, err)
		assert.Equal(t, table, name)
	}
}

func TestDirFor(t *testing.T) {
	dir, err := dirFor(database.DriverPostgres)
	require.NoError(t, err)
	assert.Equal(t, "postgres", dir)

	_, err = dirFor(database.Driver("mysql"))
	assert.Error(t, err)
}

func TestSplitStatements(t *testing.T) {
	stmts := splitStatements("CREATE TABLE a (id INT);\n\nCREATE INDEX b ON a (id);\n")
	assert.Equal(t, []string{"CREATE TABLE a (id INT)", "CREATE INDEX b ON a (id)"}, stmts)
}

func TestUpFiles_Ordered(t *testing.T) {
	files, err := upFiles("postgres")
	require.NoError(t, err)
	assert.Equal(t, []string{"000001_ledger_kv.up.sql", "000002_outbox.up.sql"}, files)
}
