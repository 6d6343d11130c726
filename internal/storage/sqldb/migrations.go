package sqldb

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

type Migration struct {
	Version     int
	Description string
	Up          map[Dialect][]string
	Down        []string
}

var migrations = []Migration{
	{
		Version:     1,
		Description: "Account namespace",
		Up: map[Dialect][]string{
			DialectMySQL: {
				`CREATE TABLE IF NOT EXISTS accounts (
					id VARCHAR(36) NOT NULL,
					address VARCHAR(44) NOT NULL PRIMARY KEY,
					owner VARCHAR(44) NOT NULL,
					payer VARCHAR(44) NOT NULL,
					lamports BIGINT NOT NULL,
					data BLOB NOT NULL,
					created_at BIGINT NOT NULL,
					INDEX idx_accounts_owner (owner, created_at)
				) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
			},
			DialectSQLite: {
				`CREATE TABLE IF NOT EXISTS accounts (
					id TEXT NOT NULL,
					address TEXT NOT NULL PRIMARY KEY,
					owner TEXT NOT NULL,
					payer TEXT NOT NULL,
					lamports INTEGER NOT NULL,
					data BLOB NOT NULL,
					created_at INTEGER NOT NULL
				)`,
				`CREATE INDEX IF NOT EXISTS idx_accounts_owner ON accounts(owner, created_at)`,
			},
		},
		Down: []string{
			`DROP TABLE IF EXISTS accounts`,
		},
	},
}

type Migrator struct {
	db      *sql.DB
	dialect Dialect
}

func NewMigrator(db *sql.DB, dialect Dialect) *Migrator {
	return &Migrator{db: db, dialect: dialect}
}

func (m *Migrator) createMigrationsTable(ctx context.Context) error {
	query := `
	CREATE TABLE IF NOT EXISTS schema_migrations (
		version INT PRIMARY KEY,
		description VARCHAR(255) NOT NULL,
		applied_at BIGINT NOT NULL
	)`
	_, err := m.db.ExecContext(ctx, query)
	return err
}

func (m *Migrator) getCurrentVersion(ctx context.Context) (int, error) {
	var version int
	err := m.db.QueryRowContext(ctx, "SELECT COALESCE(MAX(version), 0) FROM schema_migrations").Scan(&version)
	if err != nil {
		return 0, err
	}
	return version, nil
}

func (m *Migrator) Up(ctx context.Context) error {
	if err := m.createMigrationsTable(ctx); err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	currentVersion, err := m.getCurrentVersion(ctx)
	if err != nil {
		return fmt.Errorf("failed to get current version: %w", err)
	}

	for _, migration := range migrations {
		if migration.Version <= currentVersion {
			continue
		}

		statements, ok := migration.Up[m.dialect]
		if !ok {
			return fmt.Errorf("migration %d has no %s statements", migration.Version, m.dialect)
		}

		for _, stmt := range statements {
			if _, err := m.db.ExecContext(ctx, stmt); err != nil {
				return fmt.Errorf("failed to apply migration %d: %w", migration.Version, err)
			}
		}

		if _, err := m.db.ExecContext(ctx,
			"INSERT INTO schema_migrations (version, description, applied_at) VALUES (?, ?, ?)",
			migration.Version, migration.Description, time.Now().Unix(),
		); err != nil {
			return fmt.Errorf("failed to record migration %d: %w", migration.Version, err)
		}
	}

	return nil
}

func (m *Migrator) Down(ctx context.Context, steps int) error {
	currentVersion, err := m.getCurrentVersion(ctx)
	if err != nil {
		return fmt.Errorf("failed to get current version: %w", err)
	}

	if currentVersion == 0 {
		return fmt.Errorf("no migrations to rollback")
	}

	rolledBack := 0
	for i := len(migrations) - 1; i >= 0 && rolledBack < steps; i-- {
		migration := migrations[i]
		if migration.Version > currentVersion {
			continue
		}

		for _, stmt := range migration.Down {
			if _, err := m.db.ExecContext(ctx, stmt); err != nil {
				return fmt.Errorf("failed to rollback migration %d: %w", migration.Version, err)
			}
		}

		if _, err := m.db.ExecContext(ctx,
			"DELETE FROM schema_migrations WHERE version = ?",
			migration.Version,
		); err != nil {
			return fmt.Errorf("failed to remove migration record %d: %w", migration.Version, err)
		}

		rolledBack++
	}

	return nil
}
