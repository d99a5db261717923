package cache

import (
	"context"
	"database/sql"
	"fmt"
)

// Migration is one step of the local schema. Versions are applied in ascending order
// and recorded in PRAGMA user_version.
type Migration struct {
	Version int
	Name    string
	Up      func(ctx context.Context, tx *sql.Tx) error
}

// UpgradeHook is invoked once after Open moved the schema from one version to another.
type UpgradeHook func(ctx context.Context, from, to int) error

// Migrations returns the built-in schema steps.
func Migrations() []Migration {
	return []Migration{
		{Version: 1, Name: "create documents", Up: execAll(
			`CREATE TABLE IF NOT EXISTS documents (
				collection TEXT NOT NULL,
				id TEXT NOT NULL,
				data BLOB NOT NULL,
				created_at INTEGER NOT NULL,
				updated_at INTEGER NOT NULL,
				PRIMARY KEY (collection, id)
			)`,
			`CREATE INDEX IF NOT EXISTS idx_documents_collection_updated_at
				ON documents (collection, updated_at)`,
		)},
		{Version: 2, Name: "create pending operations", Up: execAll(
			`CREATE TABLE IF NOT EXISTS pending_operations (
				seq INTEGER PRIMARY KEY AUTOINCREMENT,
				id TEXT NOT NULL UNIQUE,
				kind TEXT NOT NULL,
				collection TEXT NOT NULL,
				record_id TEXT NOT NULL,
				payload BLOB NOT NULL,
				enqueued_at INTEGER NOT NULL
			)`,
		)},
		{Version: 3, Name: "create fiscal logs", Up: execAll(
			`CREATE TABLE IF NOT EXISTS fiscal_logs (
				id TEXT PRIMARY KEY,
				order_id TEXT NOT NULL,
				order_number INTEGER NOT NULL DEFAULT 0,
				action TEXT NOT NULL,
				status TEXT NOT NULL DEFAULT '',
				message TEXT NOT NULL DEFAULT '',
				metadata BLOB,
				created_at INTEGER NOT NULL
			)`,
			`CREATE INDEX IF NOT EXISTS idx_fiscal_logs_order_id_created_at
				ON fiscal_logs (order_id, created_at)`,
			`CREATE INDEX IF NOT EXISTS idx_fiscal_logs_created_at
				ON fiscal_logs (created_at)`,
		)},
	}
}

// CurrentSchemaVersion is the highest built-in migration version.
func CurrentSchemaVersion() int {
	m := Migrations()
	return m[len(m)-1].Version
}

func execAll(statements ...string) func(ctx context.Context, tx *sql.Tx) error {
	return func(ctx context.Context, tx *sql.Tx) error {
		for _, stmt := range statements {
			if _, err := tx.ExecContext(ctx, stmt); err != nil {
				return err
			}
		}
		return nil
	}
}

// runMigrations applies every migration newer than user_version, each in its own
// transaction, and returns the version before and after.
func runMigrations(ctx context.Context, db *sql.DB, migrations []Migration) (int, int, error) {
	var from int
	if err := db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&from); err != nil {
		return 0, 0, fmt.Errorf("get user_version: %w", err)
	}

	version := from
	for _, m := range migrations {
		if m.Version <= version {
			continue
		}

		tx, err := db.BeginTx(ctx, nil)
		if err != nil {
			return from, version, fmt.Errorf("begin migration %d: %w", m.Version, err)
		}
		if err := m.Up(ctx, tx); err != nil {
			_ = tx.Rollback()
			return from, version, fmt.Errorf("migrate to v%d (%s): %w", m.Version, m.Name, err)
		}
		// PRAGMA does not accept bound parameters.
		if _, err := tx.ExecContext(ctx, fmt.Sprintf("PRAGMA user_version = %d", m.Version)); err != nil {
			_ = tx.Rollback()
			return from, version, fmt.Errorf("set user_version %d: %w", m.Version, err)
		}
		if err := tx.Commit(); err != nil {
			return from, version, fmt.Errorf("commit migration %d: %w", m.Version, err)
		}
		version = m.Version
	}

	return from, version, nil
}
