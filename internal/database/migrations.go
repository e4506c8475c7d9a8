package database

import (
	"database/sql"
	"fmt"
	"time"
)

// Migration represents a database schema migration
type Migration struct {
	Version     int
	Description string
	Up          func(*sql.Tx) error
	Down        func(*sql.Tx) error
}

// migrations is the ordered list of all database migrations
var migrations = []Migration{
	{
		Version:     1,
		Description: "Create schema_version table",
		Up:          migration001Up,
		Down:        migration001Down,
	},
	{
		Version:     2,
		Description: "Create capture_log table",
		Up:          migration002Up,
		Down:        migration002Down,
	},
	{
		Version:     3,
		Description: "Track artifact eviction",
		Up:          migration003Up,
		Down:        migration003Down,
	},
}

// LatestVersion is the schema version after all migrations have run.
func LatestVersion() int {
	return migrations[len(migrations)-1].Version
}

// RunMigrations runs all pending database migrations
func (db *DB) RunMigrations() error {
	currentVersion, err := db.getCurrentVersion()
	if err != nil {
		return fmt.Errorf("failed to get current version: %w", err)
	}

	db.logger.DebugWithContext("checking schema", map[string]interface{}{"version": currentVersion})

	for _, migration := range migrations {
		if migration.Version <= currentVersion {
			continue
		}

		db.logger.InfoWithContext("running migration", map[string]interface{}{
			"version":     migration.Version,
			"description": migration.Description,
		})

		err := db.ExecTx(func(tx *sql.Tx) error {
			if err := migration.Up(tx); err != nil {
				return fmt.Errorf("migration %d failed: %w", migration.Version, err)
			}

			_, err := tx.Exec(`
				INSERT INTO schema_version (version, description, applied_at)
				VALUES (?, ?, ?)
			`, migration.Version, migration.Description, time.Now())

			return err
		})

		if err != nil {
			return err
		}
	}

	return nil
}

// MigrateDown reverts applied migrations, newest first, until the schema is
// at target.
func (db *DB) MigrateDown(target int) error {
	currentVersion, err := db.getCurrentVersion()
	if err != nil {
		return fmt.Errorf("failed to get current version: %w", err)
	}

	for i := len(migrations) - 1; i >= 0; i-- {
		migration := migrations[i]
		if migration.Version > currentVersion || migration.Version <= target {
			continue
		}

		db.logger.InfoWithContext("reverting migration", map[string]interface{}{
			"version":     migration.Version,
			"description": migration.Description,
		})

		err := db.ExecTx(func(tx *sql.Tx) error {
			if err := migration.Down(tx); err != nil {
				return fmt.Errorf("migration %d rollback failed: %w", migration.Version, err)
			}
			// Migration 1 drops schema_version itself.
			if migration.Version == 1 {
				return nil
			}
			_, err := tx.Exec(`DELETE FROM schema_version WHERE version = ?`, migration.Version)
			return err
		})
		if err != nil {
			return err
		}
	}

	return nil
}

// getCurrentVersion returns the current schema version
func (db *DB) getCurrentVersion() (int, error) {
	var tableExists bool
	err := db.conn.QueryRow(`
		SELECT COUNT(*) > 0
		FROM sqlite_master
		WHERE type='table' AND name='schema_version'
	`).Scan(&tableExists)

	if err != nil {
		return 0, err
	}

	if !tableExists {
		return 0, nil
	}

	var version int
	err = db.conn.QueryRow(`
		SELECT COALESCE(MAX(version), 0)
		FROM schema_version
	`).Scan(&version)

	if err != nil {
		return 0, err
	}

	return version, nil
}

// Migration 001: Schema version tracking table
func migration001Up(tx *sql.Tx) error {
	_, err := tx.Exec(`
		CREATE TABLE IF NOT EXISTS schema_version (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			version INTEGER NOT NULL UNIQUE,
			description TEXT NOT NULL,
			applied_at DATETIME NOT NULL
		)
	`)
	return err
}

func migration001Down(tx *sql.Tx) error {
	_, err := tx.Exec(`DROP TABLE IF EXISTS schema_version`)
	return err
}

// Migration 002: one row per capture request
func migration002Up(tx *sql.Tx) error {
	_, err := tx.Exec(`
		CREATE TABLE capture_log (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			request_id TEXT NOT NULL UNIQUE,
			kind TEXT NOT NULL CHECK (kind IN ('image', 'text')),
			status TEXT NOT NULL DEFAULT 'running'
				CHECK (status IN ('running', 'completed', 'failed')),

			-- Result
			source TEXT,
			app_name TEXT,
			width INTEGER,
			height INTEGER,
			scale_factor REAL,
			file_path TEXT,
			file_bytes INTEGER,
			text_length INTEGER,

			-- Failure
			error_kind TEXT,
			error_message TEXT,

			-- Timing
			started_at DATETIME NOT NULL,
			completed_at DATETIME,
			duration_ms INTEGER
		);

		CREATE INDEX idx_capture_log_started ON capture_log(started_at);
		CREATE INDEX idx_capture_log_status ON capture_log(status);
		CREATE INDEX idx_capture_log_file ON capture_log(file_path);
	`)
	return err
}

func migration002Down(tx *sql.Tx) error {
	_, err := tx.Exec(`DROP TABLE IF EXISTS capture_log`)
	return err
}

// Migration 003: eviction timestamp for persisted artifacts
func migration003Up(tx *sql.Tx) error {
	_, err := tx.Exec(`ALTER TABLE capture_log ADD COLUMN evicted_at DATETIME`)
	return err
}

func migration003Down(tx *sql.Tx) error {
	_, err := tx.Exec(`ALTER TABLE capture_log DROP COLUMN evicted_at`)
	return err
}
