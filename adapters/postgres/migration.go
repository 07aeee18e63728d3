package postgres

import (
	"context"

	"jurimetria/internal/errors"

	"github.com/jmoiron/sqlx"
)

// Migrate creates the run ledger schema. Statements are idempotent so the
// command can be run against an existing database.
func Migrate(ctx context.Context, db *sqlx.DB) error {
	if err := createRunsTable(ctx, db); err != nil {
		return errors.Wrap(err, "failed to create runs table")
	}
	if err := createProcessesTable(ctx, db); err != nil {
		return errors.Wrap(err, "failed to create processes table")
	}
	if err := createProcessRowsTable(ctx, db); err != nil {
		return errors.Wrap(err, "failed to create process_rows table")
	}
	return createIndexes(ctx, db)
}

func createRunsTable(ctx context.Context, db *sqlx.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS runs (
			id UUID PRIMARY KEY,
			created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
		)
	`)
	return err
}

func createProcessesTable(ctx context.Context, db *sqlx.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS processes (
			run_id UUID NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
			number VARCHAR(30) NOT NULL,
			class_code INTEGER NOT NULL,
			class_name TEXT,
			court_body TEXT,
			subject_codes JSONB,
			filing_date TIMESTAMP WITH TIME ZONE NOT NULL,
			last_update_date TIMESTAMP WITH TIME ZONE NOT NULL,
			movements JSONB,
			PRIMARY KEY (run_id, number)
		)
	`)
	return err
}

func createProcessRowsTable(ctx context.Context, db *sqlx.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS process_rows (
			run_id UUID NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
			number VARCHAR(30) NOT NULL,
			class_code INTEGER NOT NULL,
			class_name TEXT,
			filing_year INTEGER NOT NULL,
			has_relief BOOLEAN NOT NULL,
			has_settlement BOOLEAN NOT NULL,
			has_grant BOOLEAN NOT NULL,
			has_denial BOOLEAN NOT NULL,
			has_judgment BOOLEAN NOT NULL,
			processing_days INTEGER NOT NULL,
			relief_to_settlement_days INTEGER,
			relief_followup_days INTEGER,
			event_observed BOOLEAN NOT NULL,
			PRIMARY KEY (run_id, number)
		)
	`)
	return err
}

func createIndexes(ctx context.Context, db *sqlx.DB) error {
	indexes := []string{
		"CREATE INDEX IF NOT EXISTS idx_runs_created_at ON runs(created_at DESC)",
		"CREATE INDEX IF NOT EXISTS idx_process_rows_class ON process_rows(run_id, class_code)",
		"CREATE INDEX IF NOT EXISTS idx_process_rows_year ON process_rows(run_id, filing_year)",
	}
	for _, idxSQL := range indexes {
		if _, err := db.ExecContext(ctx, idxSQL); err != nil {
			return errors.Wrap(err, "failed to create index")
		}
	}
	return nil
}
