// Package db provides the durable recipe cache backing the sync engine.
package db

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// DB wraps sql.DB with RecipeAI-specific configuration.
type DB struct {
	*sql.DB
}

// Open opens the recipe cache in dataDir. The database is opened with
// WAL mode and foreign keys enabled, and the schema is migrated to the
// current version.
func Open(dataDir string) (*DB, error) {
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "recipeai.db")

	// modernc.org/sqlite is pure Go, no CGO
	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite doesn't support multiple writers
	conn.SetMaxOpenConns(1)
	conn.SetMaxIdleConns(1)

	if _, err := conn.Exec("PRAGMA journal_mode=WAL;"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}
	if _, err := conn.Exec("PRAGMA foreign_keys=ON;"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	db := &DB{conn}
	if err := Migrate(conn); err != nil {
		conn.Close()
		return nil, err
	}
	return db, nil
}

// OpenInMemory opens a private in-memory database with the full schema
// applied. Used by tests.
func OpenInMemory() (*DB, error) {
	conn, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to open in-memory database: %w", err)
	}
	conn.SetMaxOpenConns(1)
	if err := Migrate(conn); err != nil {
		conn.Close()
		return nil, err
	}
	return &DB{conn}, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.DB.Close()
}
