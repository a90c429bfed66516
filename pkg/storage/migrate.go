package storage

import (
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
)

// SchemaVersion identifies a database schema, stored in PRAGMA user_version
type SchemaVersion int

const (
	// V0 is an empty database
	V0 SchemaVersion = iota
	// V1 adds the history table
	V1
	// V2 adds the history_fts full-text index and its sync triggers
	V2
	// V3 adds the timestamp and cwd indexes
	V3

	// Latest is the schema every opened database is brought up to
	Latest = V3
)

func (v SchemaVersion) String() string {
	return fmt.Sprintf("v%d", int(v))
}

//go:embed migrations/v0_to_v1.sql
var migrationV0ToV1 string

//go:embed migrations/v1_to_v2.sql
var migrationV1ToV2 string

//go:embed migrations/v2_to_v3.sql
var migrationV2ToV3 string

// migrations maps a from-version to the script producing from+1
var migrations = map[SchemaVersion]string{
	V0: migrationV0ToV1,
	V1: migrationV1ToV2,
	V2: migrationV2ToV3,
}

// ErrMissingScript is returned when no migration script exists for a step
var ErrMissingScript = errors.New("migration script not found")

// MigrationError reports a failed migration step
type MigrationError struct {
	From SchemaVersion
	To   SchemaVersion
	Err  error
}

func (e *MigrationError) Error() string {
	return fmt.Sprintf("failed to migrate schema %s to %s: %v", e.From, e.To, e.Err)
}

func (e *MigrationError) Unwrap() error {
	return e.Err
}

// CurrentVersion reads the schema version of db
func CurrentVersion(db *sql.DB) (SchemaVersion, error) {
	var version int
	if err := db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return V0, fmt.Errorf("failed to read schema version: %w", err)
	}
	return SchemaVersion(version), nil
}

// Migrate brings db up to target one version at a time. Each step runs its
// script and bumps user_version in a single transaction, so a failed step
// leaves the database at the last successfully applied version.
func Migrate(db *sql.DB, target SchemaVersion) error {
	return migrate(db, target, migrations)
}

func migrate(db *sql.DB, target SchemaVersion, scripts map[SchemaVersion]string) error {
	current, err := CurrentVersion(db)
	if err != nil {
		return err
	}

	// A newer binary wrote this database; there is no script that could
	// explain its layout.
	if current > Latest {
		return &MigrationError{From: current, To: target, Err: ErrMissingScript}
	}

	if current < target {
		slog.Debug("migrating schema", "from", current, "to", target)
	}

	for current < target {
		next := current + 1

		script, ok := scripts[current]
		if !ok {
			slog.Error("no migration script", "from", current, "to", next)
			return &MigrationError{From: current, To: next, Err: ErrMissingScript}
		}

		if err := applyMigration(db, next, script); err != nil {
			slog.Error("migration failed", "from", current, "to", next, "error", err)
			return &MigrationError{From: current, To: next, Err: err}
		}

		slog.Debug("applied migration", "from", current, "to", next)
		current = next
	}

	return nil
}

// applyMigration runs script and records version in one transaction
func applyMigration(db *sql.DB, version SchemaVersion, script string) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.Exec(script); err != nil {
		return fmt.Errorf("failed to execute script: %w", err)
	}

	if _, err := tx.Exec(fmt.Sprintf("PRAGMA user_version = %d", int(version))); err != nil {
		return fmt.Errorf("failed to set schema version: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit migration: %w", err)
	}

	return nil
}
