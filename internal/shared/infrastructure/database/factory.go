package database

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// Config selects and tunes a ledger database.
type Config struct {
	// Driver overrides detection from URL.
	Driver Driver
	// URL is DATABASE_URL, e.g. "postgres://autopay@db/autopay" or
	// "sqlite:///var/lib/autopay/ledger.db". Empty means the local file.
	URL string
	// SQLitePath wins over a path carried in URL.
	SQLitePath string
	// MaxConns caps the PostgreSQL pool.
	MaxConns int
}

// Opener opens a connection for one driver. The driver packages register
// theirs from init, so importing them for side effects enables the driver.
type Opener func(ctx context.Context, cfg Config) (Connection, error)

var (
	openersMu sync.RWMutex
	openers   = map[Driver]Opener{}
)

// Register makes driver available to NewConnection.
func Register(driver Driver, open Opener) {
	openersMu.Lock()
	defer openersMu.Unlock()
	openers[driver] = open
}

// NewConnection opens the database cfg describes.
func NewConnection(ctx context.Context, cfg Config) (Connection, error) {
	driver := cfg.Driver
	if driver == "" {
		driver = DetectDriver(cfg.URL)
	}
	if driver == DriverSQLite && cfg.SQLitePath == "" {
		cfg.SQLitePath = SQLitePathFromURL(cfg.URL)
	}

	openersMu.RLock()
	open, ok := openers[driver]
	openersMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("database driver %q not registered", driver)
	}
	return open(ctx, cfg)
}

// SQLitePathFromURL strips the sqlite:// scheme. An empty URL yields "".
func SQLitePathFromURL(url string) string {
	return strings.TrimPrefix(url, "sqlite://")
}

// DefaultSQLitePath is ~/.autopay/ledger.db, or ./.autopay/ledger.db when
// there is no home directory.
func DefaultSQLitePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return filepath.Join(home, ".autopay", "ledger.db")
}

// EnsureDirectory creates the directory holding path. URI style paths are
// left to the driver.
func EnsureDirectory(path string) error {
	if strings.HasPrefix(path, "file:") {
		return nil
	}
	return os.MkdirAll(filepath.Dir(path), 0o750)
}
