// Package db provides database schema migration management.
package db

import (
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/recipeai/core/internal/apperr"
)

// migration is a versioned schema change applied in order. Migrations
// are embedded rather than read from disk: the cache ships inside a
// client binary and has no migrations directory at runtime.
type migration struct {
	Version     int
	Description string
	SQL         string
}

var migrations = []migration{
	{
		Version:     1,
		Description: "create recipes table",
		SQL: `
		CREATE TABLE IF NOT EXISTS recipes (
			id INTEGER PRIMARY KEY,
			name TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			instructions TEXT NOT NULL DEFAULT '',
			cooking_time INTEGER NOT NULL DEFAULT 0,
			difficulty TEXT NOT NULL DEFAULT '',
			image_url TEXT NOT NULL DEFAULT '',
			ingredients TEXT NOT NULL DEFAULT '[]',
			is_favorite INTEGER NOT NULL DEFAULT 0,
			is_synced INTEGER NOT NULL DEFAULT 1,
			created_at INTEGER NOT NULL
		);`,
	},
	{
		Version:     2,
		Description: "index favorite and outbox queries",
		SQL: `
		CREATE INDEX IF NOT EXISTS idx_recipes_favorite
			ON recipes (is_favorite, created_at DESC);
		CREATE INDEX IF NOT EXISTS idx_recipes_unsynced
			ON recipes (is_synced) WHERE is_synced = 0;`,
	},
}

// Migrate brings the schema up to the latest version.
func Migrate(db *sql.DB) error {
	if err := ensureMigrationTable(db); err != nil {
		return apperr.Wrap(apperr.ErrMigration, "failed to initialize migration table", err)
	}

	applied, err := appliedVersions(db)
	if err != nil {
		return apperr.Wrap(apperr.ErrMigration, "failed to read applied migrations", err)
	}

	for _, m := range migrations {
		if applied[m.Version] {
			continue
		}
		if err := apply(db, m); err != nil {
			return apperr.Wrap(apperr.ErrMigration,
				fmt.Sprintf("failed to apply migration V%d (%s)", m.Version, m.Description), err)
		}
	}
	return nil
}

// CurrentVersion returns the highest applied schema version.
func CurrentVersion(db *sql.DB) (int, error) {
	var version int
	err := db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations").Scan(&version)
	return version, err
}

func ensureMigrationTable(db *sql.DB) error {
	query := `
	CREATE TABLE IF NOT EXISTS schema_migrations (
		version INTEGER PRIMARY KEY CHECK(version > 0),
		applied_at INTEGER NOT NULL CHECK(applied_at > 0),
		description TEXT NOT NULL CHECK(length(description) > 0),
		checksum TEXT NOT NULL CHECK(length(checksum) = 64)
	);`
	_, err := db.Exec(query)
	return err
}

func appliedVersions(db *sql.DB) (map[int]bool, error) {
	rows, err := db.Query("SELECT version FROM schema_migrations")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	applied := make(map[int]bool)
	for rows.Next() {
		var v int
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		applied[v] = true
	}
	return applied, rows.Err()
}

func apply(db *sql.DB, m migration) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(m.SQL); err != nil {
		return fmt.Errorf("failed to execute migration SQL: %w", err)
	}

	hash := sha256.Sum256([]byte(m.SQL))
	query := `INSERT INTO schema_migrations (version, applied_at, description, checksum)
			  VALUES (?, ?, ?, ?)`
	if _, err := tx.Exec(query, m.Version, time.Now().Unix(), m.Description, hex.EncodeToString(hash[:])); err != nil {
		return fmt.Errorf("failed to record migration: %w", err)
	}

	return tx.Commit()
}
