package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
)

// ExpectedSchemaVersion is the latest schema version that the application
// expects. If the database cannot be migrated to this version, it's a fatal
// error.
const ExpectedSchemaVersion = 2

// Migration represents a database schema migration.
type Migration struct {
	Up          func(*sql.Tx) error
	Description string
	Version     int
}

var migrations = []Migration{
	{
		Version:     1,
		Description: "Initial schema",
		Up: func(tx *sql.Tx) error {
			queries := []string{
				`CREATE TABLE IF NOT EXISTS entities (
					id TEXT PRIMARY KEY,
					name TEXT UNIQUE NOT NULL,
					aliases TEXT NOT NULL DEFAULT '',
					url TEXT NOT NULL DEFAULT '',
					default_category TEXT NOT NULL DEFAULT '',
					created_at DATETIME DEFAULT CURRENT_TIMESTAMP
				)`,
				`CREATE INDEX idx_entities_name ON entities(name)`,

				`CREATE TABLE IF NOT EXISTS corrections (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					pattern TEXT NOT NULL,
					match_type TEXT NOT NULL CHECK (match_type IN ('exact', 'contains')),
					entity_id TEXT NOT NULL DEFAULT '',
					entity_name TEXT NOT NULL DEFAULT '',
					location TEXT NOT NULL DEFAULT '',
					online INTEGER NOT NULL DEFAULT 0,
					transaction_type TEXT NOT NULL DEFAULT '',
					confidence REAL NOT NULL DEFAULT 1.0,
					times_applied INTEGER NOT NULL DEFAULT 0,
					last_used_at DATETIME,
					created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
					UNIQUE(pattern, match_type)
				)`,
				`CREATE INDEX idx_corrections_pattern ON corrections(pattern)`,
			}

			for _, query := range queries {
				if _, err := tx.Exec(query); err != nil {
					return fmt.Errorf("failed to execute migration query: %w", err)
				}
			}
			return nil
		},
	},
	{
		Version:     2,
		Description: "Index corrections by confidence for waterfall lookups",
		Up: func(tx *sql.Tx) error {
			_, err := tx.Exec(`CREATE INDEX idx_corrections_confidence ON corrections(confidence DESC, times_applied DESC)`)
			if err != nil {
				return fmt.Errorf("failed to create confidence index: %w", err)
			}
			return nil
		},
	},
}

// Migrate applies any pending schema migrations.
func (s *SQLiteStorage) Migrate(ctx context.Context) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	if _, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`); err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	var current int
	err := s.db.QueryRowContext(ctx, `SELECT COALESCE(MAX(version), 0) FROM schema_migrations`).Scan(&current)
	if err != nil {
		return fmt.Errorf("failed to read schema version: %w", err)
	}

	for _, migration := range migrations {
		if migration.Version <= current {
			continue
		}

		slog.Info("Applying migration",
			"version", migration.Version,
			"description", migration.Description)

		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("failed to begin migration transaction: %w", err)
		}

		if err := migration.Up(tx); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("migration %d failed: %w", migration.Version, err)
		}

		if _, err := tx.Exec(`INSERT INTO schema_migrations (version) VALUES (?)`, migration.Version); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to record migration %d: %w", migration.Version, err)
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("failed to commit migration %d: %w", migration.Version, err)
		}
	}

	return nil
}
