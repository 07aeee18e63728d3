package inference

import (
	"jurimetria/domain/core"
)

// Report is the complete set of inference artifacts for one pipeline run:
// the per-process table plus every population-level estimate derived from it.
// Nil pointers mark analyses that were skipped for insufficient data rather
// than fabricated.
type Report struct {
	RunID       core.RunID     `json:"run_id"`
	GeneratedAt core.Timestamp `json:"generated_at"`
	Alpha       float64        `json:"alpha"`

	Rows    []Row         `json:"rows"`
	Summary CohortSummary `json:"summary"`
	ByClass []Breakdown   `json:"by_class"`
	ByYear  []Breakdown   `json:"by_year"`

	Association *FisherResult  `json:"association,omitempty"`
	Survival    []SurvivalStep `json:"survival,omitempty"`
}
