package database

import (
	"context"
	"database/sql"
	"fmt"
)

var postgresSchema = []string{
	`CREATE TABLE IF NOT EXISTS materialized_events (
		reference_id VARCHAR(255) PRIMARY KEY,
		entry_name   VARCHAR(128) NOT NULL,
		period_key   VARCHAR(32)  NOT NULL,
		created_at   TIMESTAMPTZ  NOT NULL,
		delivered    BOOLEAN      NOT NULL DEFAULT FALSE,
		delivered_at TIMESTAMPTZ  NULL
	)`,
	`CREATE INDEX IF NOT EXISTS materialized_events_created_at_idx ON materialized_events (created_at)`,
	`CREATE TABLE IF NOT EXISTS followup_assignments (
		id                 BIGSERIAL PRIMARY KEY,
		group_id           VARCHAR(128) NOT NULL,
		group_name         VARCHAR(255) NOT NULL DEFAULT '',
		period             VARCHAR(7)   NOT NULL,
		subject_id         VARCHAR(128) NOT NULL,
		subject_name       VARCHAR(255) NOT NULL DEFAULT '',
		phone              VARCHAR(64)  NOT NULL DEFAULT '',
		email              VARCHAR(255) NOT NULL DEFAULT '',
		assigned_date      VARCHAR(10)  NOT NULL,
		state              VARCHAR(16)  NOT NULL,
		completed_at       TIMESTAMPTZ  NULL,
		last_reminder_date VARCHAR(10)  NULL,
		notes              TEXT         NOT NULL DEFAULT '',
		created_at         TIMESTAMPTZ  NOT NULL,
		updated_at         TIMESTAMPTZ  NOT NULL,
		CONSTRAINT followup_group_period_unique UNIQUE (group_id, period)
	)`,
	`CREATE INDEX IF NOT EXISTS followup_assignments_period_idx ON followup_assignments (period)`,
}

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS materialized_events (
		reference_id TEXT PRIMARY KEY,
		entry_name   TEXT     NOT NULL,
		period_key   TEXT     NOT NULL,
		created_at   DATETIME NOT NULL,
		delivered    BOOLEAN  NOT NULL DEFAULT 0,
		delivered_at DATETIME NULL
	)`,
	`CREATE INDEX IF NOT EXISTS materialized_events_created_at_idx ON materialized_events (created_at)`,
	`CREATE TABLE IF NOT EXISTS followup_assignments (
		id                 INTEGER PRIMARY KEY AUTOINCREMENT,
		group_id           TEXT     NOT NULL,
		group_name         TEXT     NOT NULL DEFAULT '',
		period             TEXT     NOT NULL,
		subject_id         TEXT     NOT NULL,
		subject_name       TEXT     NOT NULL DEFAULT '',
		phone              TEXT     NOT NULL DEFAULT '',
		email              TEXT     NOT NULL DEFAULT '',
		assigned_date      TEXT     NOT NULL,
		state              TEXT     NOT NULL,
		completed_at       DATETIME NULL,
		last_reminder_date TEXT     NULL,
		notes              TEXT     NOT NULL DEFAULT '',
		created_at         DATETIME NOT NULL,
		updated_at         DATETIME NOT NULL,
		CONSTRAINT followup_group_period_unique UNIQUE (group_id, period)
	)`,
	`CREATE INDEX IF NOT EXISTS followup_assignments_period_idx ON followup_assignments (period)`,
}

// Migrate creates the tables if they do not exist. It is safe to run on every start.
func Migrate(ctx context.Context, db *sql.DB, driver string) error {
	var stmts []string
	switch driver {
	case DriverPostgres:
		stmts = postgresSchema
	case DriverSQLite:
		stmts = sqliteSchema
	default:
		return fmt.Errorf("unsupported database driver %q", driver)
	}
	for _, stmt := range stmts {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply schema: %w", err)
		}
	}
	return nil
}
