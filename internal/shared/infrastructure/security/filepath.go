// Package security validates operator-supplied paths before they reach a driver.
package security

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrInvalidPath is returned for a path the ledger refuses to open.
var ErrInvalidPath = errors.New("invalid path")

// forbidden are shell metacharacters. A ledger path carrying one was almost
// certainly pasted from a command line by mistake.
var forbidden = []string{";", "&", "|", "$", "`", "(", ")", "{", "}", "<", ">", "!", "\n", "\r"}

// InMemory names an SQLite database that lives only in the process.
const InMemory = ":memory:"

// ValidateDatabasePath cleans a ledger database path and makes it absolute,
// following symlinks when the file already exists. InMemory passes through.
func ValidateDatabasePath(path string) (string, error) {
	if path == "" {
		return "", fmt.Errorf("%w: database path cannot be empty", ErrInvalidPath)
	}
	if path == InMemory {
		return path, nil
	}
	for _, char := range forbidden {
		if strings.Contains(path, char) {
			return "", fmt.Errorf("%w: %q contains forbidden character %q", ErrInvalidPath, path, char)
		}
	}

	clean, err := filepath.Abs(filepath.Clean(path))
	if err != nil {
		return "", fmt.Errorf("failed to resolve database path: %w", err)
	}

	resolved, err := filepath.EvalSymlinks(clean)
	if err != nil {
		if os.IsNotExist(err) {
			return clean, nil
		}
		return "", fmt.Errorf("failed to resolve database path: %w", err)
	}
	return resolved, nil
}
