package reset

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// Migration represents a database migration
type Migration struct {
	Version     int
	Description string
	SQL         string
}

// GetMigrations returns the reset workflow migrations. The users table is
// owned by the platform's account service; only its shape is assumed here.
func GetMigrations() []Migration {
	return []Migration{
		{
			Version:     1,
			Description: "Create reset_requests table",
			SQL: `
				CREATE TABLE IF NOT EXISTS reset_requests (
					id VARCHAR(36) PRIMARY KEY,
					user_id VARCHAR(36),
					user_email VARCHAR(255) NOT NULL,
					user_name VARCHAR(255),
					status VARCHAR(20) NOT NULL DEFAULT 'pending',
					processed_by VARCHAR(36),
					created_at TIMESTAMP NOT NULL,
					processed_at TIMESTAMP
				);

				CREATE INDEX IF NOT EXISTS idx_reset_requests_status ON reset_requests(status);
				CREATE INDEX IF NOT EXISTS idx_reset_requests_email ON reset_requests(user_email);
			`,
		},
	}
}

// RunMigrations executes all pending migrations. Timestamps are bound
// from Go so the same runner works on PostgreSQL and SQLite.
func RunMigrations(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS reset_migrations (
			version INT PRIMARY KEY,
			description TEXT NOT NULL,
			applied_at TIMESTAMP NOT NULL
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	rows, err := db.QueryContext(ctx, "SELECT version FROM reset_migrations ORDER BY version")
	if err != nil {
		return fmt.Errorf("failed to query migrations: %w", err)
	}
	appliedVersions := make(map[int]bool)
	for rows.Next() {
		var version int
		if err := rows.Scan(&version); err != nil {
			rows.Close()
			return fmt.Errorf("failed to scan migration version: %w", err)
		}
		appliedVersions[version] = true
	}
	rows.Close()

	for _, migration := range GetMigrations() {
		if appliedVersions[migration.Version] {
			continue
		}

		tx, err := db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("failed to start transaction: %w", err)
		}
		if _, err := tx.ExecContext(ctx, migration.SQL); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to execute migration %d: %w", migration.Version, err)
		}
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO reset_migrations (version, description, applied_at) VALUES ($1, $2, $3)",
			migration.Version, migration.Description, time.Now().UTC(),
		); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to record migration %d: %w", migration.Version, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("failed to commit migration %d: %w", migration.Version, err)
		}
	}

	return nil
}
