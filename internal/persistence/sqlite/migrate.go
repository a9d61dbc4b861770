package sqlite

import (
	"context"
	"database/sql"
	"fmt"
)

// migration is one versioned schema step. Statements within a step apply in
// order inside a single transaction.
type migration struct {
	version    int
	name       string
	statements []string
}

var migrations = []migration{
	{
		version: 1,
		name:    "base schema",
		statements: []string{
			`CREATE TABLE IF NOT EXISTS users (
				id TEXT PRIMARY KEY,
				email TEXT NOT NULL UNIQUE COLLATE NOCASE,
				name TEXT NOT NULL,
				career TEXT NOT NULL,
				password_hash TEXT NOT NULL,
				created_at TEXT NOT NULL,
				updated_at TEXT NOT NULL
			)`,
			`CREATE TABLE IF NOT EXISTS schedules (
				id TEXT PRIMARY KEY,
				title TEXT NOT NULL,
				type TEXT NOT NULL DEFAULT '',
				start_time TEXT NOT NULL,
				end_time TEXT NOT NULL,
				semester_start TEXT,
				semester_end TEXT,
				professor TEXT,
				classroom TEXT,
				notes TEXT,
				user_id TEXT NOT NULL REFERENCES users(id),
				created_at TEXT NOT NULL,
				updated_at TEXT NOT NULL,
				CHECK (end_time > start_time)
			)`,
			`CREATE INDEX IF NOT EXISTS idx_schedules_user_time
				ON schedules(user_id, start_time, end_time)`,
			`CREATE TABLE IF NOT EXISTS schedule_days (
				schedule_id TEXT NOT NULL REFERENCES schedules(id) ON DELETE CASCADE,
				weekday INTEGER NOT NULL CHECK (weekday BETWEEN 0 AND 6),
				PRIMARY KEY (schedule_id, weekday)
			)`,
			`CREATE TABLE IF NOT EXISTS study_groups (
				id TEXT PRIMARY KEY,
				name TEXT NOT NULL,
				subject TEXT NOT NULL DEFAULT '',
				description TEXT NOT NULL DEFAULT '',
				schedule_start TEXT NOT NULL,
				schedule_end TEXT NOT NULL,
				event_id TEXT,
				user_id TEXT NOT NULL REFERENCES users(id),
				created_at TEXT NOT NULL,
				updated_at TEXT NOT NULL
			)`,
			`CREATE TABLE IF NOT EXISTS group_members (
				group_id TEXT NOT NULL REFERENCES study_groups(id) ON DELETE CASCADE,
				user_id TEXT NOT NULL REFERENCES users(id),
				PRIMARY KEY (group_id, user_id)
			)`,
		},
	},
}

// Migrate brings the schema up to the latest version. Each pending step runs
// in its own transaction and is recorded in schema_migrations, so a failed
// step leaves earlier steps applied and the failed one untouched.
func (cp *ConnectionPool) Migrate(ctx context.Context) error {
	if _, err := cp.db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (
		version INTEGER PRIMARY KEY,
		name TEXT NOT NULL,
		applied_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ', 'now'))
	)`); err != nil {
		return fmt.Errorf("failed to create schema_migrations: %w", err)
	}

	current, err := cp.currentVersion(ctx)
	if err != nil {
		return err
	}

	for _, step := range migrations {
		if step.version <= current {
			continue
		}
		err := cp.WithTransaction(ctx, func(tx *sql.Tx) error {
			for _, stmt := range step.statements {
				if _, err := tx.Exec(stmt); err != nil {
					return fmt.Errorf("migration %d (%s) failed: %w", step.version, step.name, err)
				}
			}
			_, err := tx.Exec(
				"INSERT INTO schema_migrations (version, name) VALUES (?, ?)",
				step.version, step.name,
			)
			return err
		})
		if err != nil {
			return err
		}
	}

	return nil
}

func (cp *ConnectionPool) currentVersion(ctx context.Context) (int, error) {
	var version sql.NullInt64
	err := cp.db.QueryRowContext(ctx, "SELECT MAX(version) FROM schema_migrations").Scan(&version)
	if err != nil {
		return 0, fmt.Errorf("failed to read schema version: %w", err)
	}
	if !version.Valid {
		return 0, nil
	}
	return int(version.Int64), nil
}
