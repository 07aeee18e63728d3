package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/jmoiron/sqlx"

	"jurimetria/domain/core"
	"jurimetria/domain/court"
	"jurimetria/domain/inference"
	"jurimetria/internal/errors"
	"jurimetria/ports"
)

// ProcessRepositoryImpl implements ProcessRepository for PostgreSQL
type ProcessRepositoryImpl struct {
	db *sqlx.DB
}

// NewProcessRepository creates a new PostgreSQL process repository
func NewProcessRepository(db *sqlx.DB) ports.ProcessRepository {
	return &ProcessRepositoryImpl{db: db}
}

// SaveRun stores the processes and derived rows for one run inside a single
// transaction so partially saved runs never become the latest run
func (r *ProcessRepositoryImpl) SaveRun(ctx context.Context, runID core.RunID, procs []court.Process, rows []inference.Row) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "failed to begin transaction")
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO runs (id, created_at) VALUES ($1, NOW())
	`, runID.String()); err != nil {
		return errors.Wrap(err, "failed to insert run")
	}

	for _, p := range procs {
		subjects, err := json.Marshal(p.SubjectCodes)
		if err != nil {
			return errors.Wrapf(err, "failed to encode subjects for %s", p.Number)
		}
		movements, err := json.Marshal(p.Movements)
		if err != nil {
			return errors.Wrapf(err, "failed to encode movements for %s", p.Number)
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO processes (run_id, number, class_code, class_name, court_body, subject_codes, filing_date, last_update_date, movements)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		`, runID.String(), p.Number.String(), p.ClassCode, p.ClassName, p.CourtBody,
			subjects, p.FilingDate.Time(), p.LastUpdateDate.Time(), movements); err != nil {
			return errors.Wrapf(err, "failed to insert process %s", p.Number)
		}
	}

	for _, row := range rows {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO process_rows (run_id, number, class_code, class_name, filing_year,
				has_relief, has_settlement, has_grant, has_denial, has_judgment,
				processing_days, relief_to_settlement_days, relief_followup_days, event_observed)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		`, runID.String(), row.Number.String(), row.ClassCode, row.ClassName, row.FilingYear,
			row.HasRelief, row.HasSettlement, row.HasGrant, row.HasDenial, row.HasJudgment,
			row.ProcessingDays, row.ReliefToSettlement, row.ReliefFollowupDays, row.EventObserved); err != nil {
			return errors.Wrapf(err, "failed to insert row %s", row.Number)
		}
	}

	return tx.Commit()
}

// ListRows returns the derived per-process table for a run
func (r *ProcessRepositoryImpl) ListRows(ctx context.Context, runID core.RunID) ([]inference.Row, error) {
	dbRows, err := r.db.QueryContext(ctx, `
		SELECT number, class_code, class_name, filing_year,
			has_relief, has_settlement, has_grant, has_denial, has_judgment,
			processing_days, relief_to_settlement_days, relief_followup_days, event_observed
		FROM process_rows
		WHERE run_id = $1
		ORDER BY number
	`, runID.String())
	if err != nil {
		return nil, errors.Wrap(err, "failed to query process rows")
	}
	defer dbRows.Close()

	var rows []inference.Row
	for dbRows.Next() {
		var (
			row    inference.Row
			number string
		)
		if err := dbRows.Scan(
			&number,
			&row.ClassCode,
			&row.ClassName,
			&row.FilingYear,
			&row.HasRelief,
			&row.HasSettlement,
			&row.HasGrant,
			&row.HasDenial,
			&row.HasJudgment,
			&row.ProcessingDays,
			&row.ReliefToSettlement,
			&row.ReliefFollowupDays,
			&row.EventObserved,
		); err != nil {
			return nil, errors.Wrap(err, "failed to scan process row")
		}
		row.Number = core.ProcessNumber(number)
		row.ReliefAndSettlement = row.HasRelief && row.HasSettlement
		rows = append(rows, row)
	}

	return rows, dbRows.Err()
}

// ListProcesses returns the stored processes for a run
func (r *ProcessRepositoryImpl) ListProcesses(ctx context.Context, runID core.RunID) ([]court.Process, error) {
	dbRows, err := r.db.QueryContext(ctx, `
		SELECT number, class_code, class_name, court_body, subject_codes, filing_date, last_update_date, movements
		FROM processes
		WHERE run_id = $1
		ORDER BY number
	`, runID.String())
	if err != nil {
		return nil, errors.Wrap(err, "failed to query processes")
	}
	defer dbRows.Close()

	var procs []court.Process
	for dbRows.Next() {
		var (
			p         court.Process
			number    string
			subjects  []byte
			filing    time.Time
			update    time.Time
			movements []byte
		)
		if err := dbRows.Scan(&number, &p.ClassCode, &p.ClassName, &p.CourtBody,
			&subjects, &filing, &update, &movements); err != nil {
			return nil, errors.Wrap(err, "failed to scan process")
		}
		p.Number = core.ProcessNumber(number)
		p.FilingDate = core.NewTimestamp(filing)
		p.LastUpdateDate = core.NewTimestamp(update)
		if len(subjects) > 0 {
			if err := json.Unmarshal(subjects, &p.SubjectCodes); err != nil {
				return nil, errors.Wrapf(err, "failed to decode subjects for %s", number)
			}
		}
		if len(movements) > 0 {
			if err := json.Unmarshal(movements, &p.Movements); err != nil {
				return nil, errors.Wrapf(err, "failed to decode movements for %s", number)
			}
		}
		procs = append(procs, p)
	}

	return procs, dbRows.Err()
}

// LatestRunID returns the most recent run
func (r *ProcessRepositoryImpl) LatestRunID(ctx context.Context) (core.RunID, error) {
	var id string
	err := r.db.GetContext(ctx, &id, `
		SELECT id FROM runs ORDER BY created_at DESC LIMIT 1
	`)
	if err == sql.ErrNoRows {
		return "", core.ErrRunNotFound
	}
	if err != nil {
		return "", errors.Wrap(err, "failed to query latest run")
	}
	return core.RunID(id), nil
}
