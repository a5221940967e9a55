package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
)

// ExpectedSchemaVersion is the latest schema version that the application expects.
// If the database cannot be migrated to this version, it's a fatal error.
const ExpectedSchemaVersion = 4

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
				`CREATE TABLE IF NOT EXISTS transactions (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					hash TEXT UNIQUE NOT NULL,
					date TEXT NOT NULL,
					amount TEXT NOT NULL,
					description TEXT NOT NULL,
					type TEXT NOT NULL CHECK (type IN ('income', 'expense')),
					category TEXT NOT NULL DEFAULT 'other',
					notes TEXT NOT NULL DEFAULT '',
					source TEXT NOT NULL DEFAULT 'manual',
					external_id TEXT NOT NULL DEFAULT '',
					created_at DATETIME DEFAULT CURRENT_TIMESTAMP
				)`,
				`CREATE INDEX idx_transactions_date ON transactions(date)`,
				`CREATE INDEX idx_transactions_type_category ON transactions(type, category)`,

				`CREATE TABLE IF NOT EXISTS budgets (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					name TEXT NOT NULL,
					category TEXT NOT NULL,
					amount_limit TEXT NOT NULL,
					period TEXT NOT NULL DEFAULT 'monthly',
					created_at DATETIME DEFAULT CURRENT_TIMESTAMP
				)`,
				`CREATE INDEX idx_budgets_category ON budgets(category)`,

				`CREATE TABLE IF NOT EXISTS goals (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					name TEXT NOT NULL,
					description TEXT NOT NULL DEFAULT '',
					target_amount TEXT NOT NULL,
					current_amount TEXT NOT NULL DEFAULT '0',
					deadline TEXT,
					created_at DATETIME DEFAULT CURRENT_TIMESTAMP
				)`,
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
		Description: "Add goal contribution ledger",
		Up: func(tx *sql.Tx) error {
			if _, err := tx.Exec(`
				CREATE TABLE IF NOT EXISTS goal_contributions (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					goal_id INTEGER NOT NULL REFERENCES goals(id) ON DELETE CASCADE,
					amount TEXT NOT NULL,
					created_at DATETIME DEFAULT CURRENT_TIMESTAMP
				)
			`); err != nil {
				return fmt.Errorf("failed to create goal_contributions table: %w", err)
			}
			if _, err := tx.Exec(`CREATE INDEX idx_goal_contributions_goal ON goal_contributions(goal_id)`); err != nil {
				return fmt.Errorf("failed to create goal index: %w", err)
			}
			return nil
		},
	},
	{
		Version:     3,
		Description: "Add monthly health snapshots",
		Up: func(tx *sql.Tx) error {
			if _, err := tx.Exec(`
				CREATE TABLE IF NOT EXISTS health_snapshots (
					month TEXT PRIMARY KEY,
					savings_rate_score INTEGER NOT NULL,
					fixed_expenses_score INTEGER NOT NULL,
					budget_adherence_score INTEGER NOT NULL,
					trend_score INTEGER NOT NULL,
					overall_score INTEGER NOT NULL,
					overall_status TEXT NOT NULL,
					cached_advice TEXT NOT NULL DEFAULT '',
					advice_generated_at DATETIME,
					created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
					updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
				)
			`); err != nil {
				return fmt.Errorf("failed to create health_snapshots table: %w", err)
			}

			if _, err := tx.Exec(`
				CREATE TRIGGER update_health_snapshots_updated_at
				AFTER UPDATE ON health_snapshots
				FOR EACH ROW
				BEGIN
					UPDATE health_snapshots SET updated_at = CURRENT_TIMESTAMP WHERE month = NEW.month;
				END
			`); err != nil {
				return fmt.Errorf("failed to create updated_at trigger: %w", err)
			}

			slog.Info("Created health snapshot table")
			return nil
		},
	},
	{
		Version:     4,
		Description: "Add payslips with deduction and bonus lines",
		Up: func(tx *sql.Tx) error {
			queries := []string{
				`CREATE TABLE IF NOT EXISTS payslips (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					month TEXT NOT NULL,
					gross_salary TEXT NOT NULL,
					net_salary TEXT NOT NULL,
					employer TEXT NOT NULL DEFAULT '',
					position TEXT NOT NULL DEFAULT '',
					raw_text TEXT NOT NULL DEFAULT '',
					transaction_id INTEGER REFERENCES transactions(id) ON DELETE SET NULL,
					uploaded_at DATETIME DEFAULT CURRENT_TIMESTAMP
				)`,
				`CREATE INDEX idx_payslips_month ON payslips(month)`,

				`CREATE TABLE IF NOT EXISTS payslip_deductions (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					payslip_id INTEGER NOT NULL REFERENCES payslips(id) ON DELETE CASCADE,
					name TEXT NOT NULL,
					amount TEXT NOT NULL,
					percentage TEXT,
					category TEXT NOT NULL DEFAULT 'other'
				)`,
				`CREATE INDEX idx_payslip_deductions_payslip ON payslip_deductions(payslip_id)`,

				`CREATE TABLE IF NOT EXISTS payslip_bonuses (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					payslip_id INTEGER NOT NULL REFERENCES payslips(id) ON DELETE CASCADE,
					name TEXT NOT NULL,
					amount TEXT NOT NULL,
					type TEXT NOT NULL DEFAULT 'other'
				)`,
				`CREATE INDEX idx_payslip_bonuses_payslip ON payslip_bonuses(payslip_id)`,
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

// SchemaVersion reports the database's current PRAGMA user_version.
func (s *SQLiteStorage) SchemaVersion(ctx context.Context) (int, error) {
	if err := validateContext(ctx); err != nil {
		return 0, err
	}
	var version int
	if err := s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&version); err != nil {
		return 0, fmt.Errorf("failed to get schema version: %w", err)
	}
	return version, nil
}

// Migrate applies all pending database migrations.
func (s *SQLiteStorage) Migrate(ctx context.Context) error {
	currentVersion, err := s.SchemaVersion(ctx)
	if err != nil {
		return err
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

	finalVersion, err := s.SchemaVersion(ctx)
	if err != nil {
		return fmt.Errorf("failed to verify final schema version: %w", err)
	}

	if finalVersion != ExpectedSchemaVersion {
		return fmt.Errorf("%w: schema version mismatch: expected %d, got %d",
			ErrSchemaMismatch, ExpectedSchemaVersion, finalVersion)
	}

	return nil
}

// LatestVersion is the schema version Migrate brings a database to.
func LatestVersion() int {
	return migrations[len(migrations)-1].Version
}
