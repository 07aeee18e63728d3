package ports

import (
	"context"

	"jurimetria/domain/core"
	"jurimetria/domain/court"
	"jurimetria/domain/inference"
)

// ProcessRepository persists fetched processes and their derived signal rows
// so analyses can be re-run without refetching from the tribunal API
type ProcessRepository interface {
	// SaveRun stores the processes and derived rows for one pipeline run
	SaveRun(ctx context.Context, runID core.RunID, procs []court.Process, rows []inference.Row) error

	// ListRows returns the derived per-process table for a run
	ListRows(ctx context.Context, runID core.RunID) ([]inference.Row, error)

	// ListProcesses returns the stored processes for a run
	ListProcesses(ctx context.Context, runID core.RunID) ([]court.Process, error)

	// LatestRunID returns the most recent run, or core.ErrRunNotFound
	LatestRunID(ctx context.Context) (core.RunID, error)
}
