package ports

import (
	"context"
	"time"

	"jurimetria/domain/court"
)

// ProcessQuery selects which processes to fetch from a tribunal index
type ProcessQuery struct {
	// SubjectCodes filters on assuntos.codigo (CNJ subject table)
	SubjectCodes []int
	// ClassCode optionally filters on classe.codigo; 0 means no filter
	ClassCode int
	// FiledFrom/FiledTo optionally bound dataAjuizamento; zero means unbounded
	FiledFrom time.Time
	FiledTo   time.Time
	// MaxRecords caps the total number of processes fetched across pages
	MaxRecords int
}

// ProcessSource fetches sanitized processes from an upstream court-data API.
// Implementations must return records already conforming to the court schema
// invariants (plausible dates, chronological movements).
type ProcessSource interface {
	FetchProcesses(ctx context.Context, query ProcessQuery) ([]court.Process, error)
}
