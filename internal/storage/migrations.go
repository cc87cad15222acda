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
				`CREATE TABLE IF NOT EXISTS disputes (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					dispute_id TEXT NOT NULL UNIQUE,
					customer_id TEXT,
					txn_id TEXT,
					description TEXT NOT NULL,
					predicted_category TEXT NOT NULL,
					confidence REAL NOT NULL DEFAULT 0,
					explanation TEXT NOT NULL,
					suggested_action TEXT NOT NULL,
					justification TEXT NOT NULL,
					status TEXT NOT NULL DEFAULT 'OPEN',
					degraded INTEGER NOT NULL DEFAULT 0,
					created_at DATETIME NOT NULL
				)`,
				`CREATE INDEX idx_disputes_created_at ON disputes(created_at)`,
				`CREATE INDEX idx_disputes_category ON disputes(predicted_category)`,
				`CREATE INDEX idx_disputes_status ON disputes(status)`,

				`CREATE TABLE IF NOT EXISTS dispute_history (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					dispute_id TEXT NOT NULL,
					field_changed TEXT NOT NULL,
					old_value TEXT,
					new_value TEXT,
					timestamp DATETIME DEFAULT CURRENT_TIMESTAMP,
					FOREIGN KEY (dispute_id) REFERENCES disputes (dispute_id)
				)`,
				`CREATE INDEX idx_dispute_history_dispute_id ON dispute_history(dispute_id)`,
			}

			for _, query := range queries {
				if _, err := tx.Exec(query); err != nil {
					return fmt.Errorf("failed to execute query: %w", err)
				}
			}
			return nil
		},
	},
	{
		Version:     2,
		Description: "Add transactions table for duplicate scanning",
		Up: func(tx *sql.Tx) error {
			queries := []string{
				`CREATE TABLE IF NOT EXISTS transactions (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					txn_id TEXT NOT NULL UNIQUE,
					customer_id TEXT NOT NULL,
					amount REAL NOT NULL,
					status TEXT,
					timestamp DATETIME NOT NULL,
					channel TEXT,
					merchant TEXT NOT NULL
				)`,
				`CREATE INDEX idx_transactions_customer ON transactions(customer_id)`,
				`CREATE INDEX idx_transactions_timestamp ON transactions(timestamp)`,
			}

			for _, query := range queries {
				if _, err := tx.Exec(query); err != nil {
					return fmt.Errorf("failed to execute query: %w", err)
				}
			}
			return nil
		},
	},
}

// Migrate applies all pending database migrations.
func (s *SQLiteStorage) Migrate(ctx context.Context) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	var currentVersion int
	err := s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&currentVersion)
	if err != nil {
		return fmt.Errorf("failed to get schema version: %w", err)
	}

	for _, migration := range migrations {
		if migration.Version <= currentVersion {
			continue
		}

		tx, txErr := s.db.BeginTx(ctx, nil)
		if txErr != nil {
			return fmt.Errorf("failed to begin transaction: %w", txErr)
		}

		if upErr := migration.Up(tx); upErr != nil {
			_ = tx.Rollback()
			return fmt.Errorf("migration %d failed: %w", migration.Version, upErr)
		}

		if _, execErr := tx.Exec(fmt.Sprintf("PRAGMA user_version = %d", migration.Version)); execErr != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to update schema version: %w", execErr)
		}

		if commitErr := tx.Commit(); commitErr != nil {
			return fmt.Errorf("failed to commit migration %d: %w", migration.Version, commitErr)
		}

		slog.Info("Applied migration",
			"version", migration.Version,
			"description", migration.Description)
	}

	var finalVersion int
	err = s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&finalVersion)
	if err != nil {
		return fmt.Errorf("failed to verify final schema version: %w", err)
	}

	if finalVersion != ExpectedSchemaVersion {
		return fmt.Errorf("database schema version mismatch: expected %d, got %d", ExpectedSchemaVersion, finalVersion)
	}

	return nil
}
