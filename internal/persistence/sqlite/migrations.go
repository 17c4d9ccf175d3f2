package sqlite

import (
	"context"
	"database/sql"
	"fmt"
)

// migrations holds the ordered schema history. Each entry is applied once,
// tracked in schema_migrations; new entries must be appended, never edited.
var migrations = []struct {
	version int
	name    string
	stmts   []string
}{
	{
		version: 1,
		name:    "create core tables",
		stmts: []string{
			`CREATE TABLE IF NOT EXISTS users (
				id TEXT PRIMARY KEY,
				email TEXT NOT NULL UNIQUE COLLATE NOCASE,
				display_name TEXT NOT NULL,
				password_hash TEXT NOT NULL,
				is_admin INTEGER NOT NULL DEFAULT 0,
				created_at TEXT NOT NULL,
				updated_at TEXT NOT NULL
			)`,
			`CREATE TABLE IF NOT EXISTS schedules (
				id TEXT PRIMARY KEY,
				owner_user_id TEXT NOT NULL REFERENCES users(id),
				title TEXT NOT NULL,
				created_at TEXT NOT NULL,
				updated_at TEXT NOT NULL
			)`,
			`CREATE TABLE IF NOT EXISTS reservations (
				id TEXT PRIMARY KEY,
				schedule_id TEXT NOT NULL REFERENCES schedules(id) ON DELETE CASCADE,
				organizer_id TEXT NOT NULL REFERENCES users(id),
				title TEXT NOT NULL,
				description TEXT,
				building TEXT,
				room_number TEXT,
				start_time TEXT NOT NULL,
				end_time TEXT NOT NULL,
				requires_approval INTEGER NOT NULL DEFAULT 0,
				recurrence_label TEXT,
				recurrence_end TEXT,
				created_at TEXT NOT NULL,
				updated_at TEXT NOT NULL,
				CHECK (start_time < end_time)
			)`,
			`CREATE TABLE IF NOT EXISTS sessions (
				id TEXT PRIMARY KEY,
				user_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
				token TEXT NOT NULL UNIQUE,
				expires_at TEXT NOT NULL,
				created_at TEXT NOT NULL,
				updated_at TEXT NOT NULL,
				revoked_at TEXT
			)`,
		},
	},
	{
		version: 2,
		name:    "index conflict lookups",
		stmts: []string{
			`CREATE INDEX IF NOT EXISTS idx_reservations_schedule_time
				ON reservations (schedule_id, start_time, end_time)`,
			`CREATE INDEX IF NOT EXISTS idx_reservations_facility_time
				ON reservations (building, room_number, start_time)`,
			`CREATE INDEX IF NOT EXISTS idx_schedules_owner ON schedules (owner_user_id)`,
		},
	},
}

// Migrate applies any pending schema migrations.
func (db *DB) Migrate(ctx context.Context) error {
	if _, err := db.conn.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (
		version INTEGER PRIMARY KEY,
		name TEXT NOT NULL,
		applied_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ','now'))
	)`); err != nil {
		return fmt.Errorf("sqlite: create schema_migrations: %w", err)
	}

	for _, migration := range migrations {
		var applied int
		err := db.conn.QueryRowContext(ctx,
			"SELECT COUNT(*) FROM schema_migrations WHERE version = ?", migration.version,
		).Scan(&applied)
		if err != nil {
			return fmt.Errorf("sqlite: check migration %d: %w", migration.version, err)
		}
		if applied > 0 {
			continue
		}

		err = db.WithTransaction(ctx, func(tx *sql.Tx) error {
			for _, stmt := range migration.stmts {
				if _, err := tx.Exec(stmt); err != nil {
					return fmt.Errorf("sqlite: migration %d (%s): %w", migration.version, migration.name, err)
				}
			}
			_, err := tx.Exec("INSERT INTO schema_migrations (version, name) VALUES (?, ?)",
				migration.version, migration.name)
			return err
		})
		if err != nil {
			return err
		}
	}

	return nil
}
