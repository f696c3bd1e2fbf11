// ABOUTME: SQLite connection lifecycle for the dashboard store.
// ABOUTME: Pure Go driver (modernc.org/sqlite), WAL journal, enforced foreign keys.
package storage

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// connectionPragmas are applied on open. WAL keeps the CLI, the MCP server,
// and the sync daemon from blocking each other on the same file; foreign_keys
// is what makes graph deletion cascade to owned points.
var connectionPragmas = []string{
	"PRAGMA journal_mode = WAL",
	"PRAGMA foreign_keys = ON",
	"PRAGMA busy_timeout = 5000",
	"PRAGMA synchronous = NORMAL",
}

// DB is the sqlite-backed Repository implementation.
type DB struct {
	db *sql.DB
}

// Open creates or opens the database file at path, applies the connection
// pragmas, and ensures the schema exists. The parent directory is created
// as needed and the file is restricted to the owning user.
func Open(path string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}

	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := os.Chmod(path, 0600); err != nil && !os.IsNotExist(err) {
		_ = conn.Close()
		return nil, fmt.Errorf("set database permissions: %w", err)
	}

	for _, pragma := range connectionPragmas {
		if _, err := conn.Exec(pragma); err != nil {
			_ = conn.Close()
			return nil, fmt.Errorf("execute %s: %w", pragma, err)
		}
	}

	d := &DB{db: conn}
	if err := d.initSchema(); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}
	return d, nil
}

// DataDir returns the default data directory under XDG_DATA_HOME.
func DataDir() string {
	dataHome := os.Getenv("XDG_DATA_HOME")
	if dataHome == "" {
		home, _ := os.UserHomeDir()
		dataHome = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(dataHome, "biodash")
}

// Close closes the underlying connection.
func (d *DB) Close() error {
	if d.db != nil {
		return d.db.Close()
	}
	return nil
}
