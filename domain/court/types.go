package court

import (
	"jurimetria/domain/core"
)

// Movement is one procedural event in a process docket. Immutable once fetched.
// Code is the CNJ movement table code; 0 means the tribunal omitted it.
type Movement struct {
	Code int            `json:"code"`
	Name string         `json:"name"`
	Date core.Timestamp `json:"date"`
}

// Process is the unit of analysis: one judicial case with its ordered docket.
// Movements are chronological after sanitization; insertion order is preserved
// for same-date movements because first-occurrence queries depend on it.
type Process struct {
	Number         core.ProcessNumber `json:"number"`
	ClassCode      int                `json:"class_code"`
	ClassName      string             `json:"class_name"`
	CourtBody      string             `json:"court_body"`
	SubjectCodes   []int              `json:"subject_codes"`
	FilingDate     core.Timestamp     `json:"filing_date"`
	LastUpdateDate core.Timestamp     `json:"last_update_date"`
	Movements      []Movement         `json:"movements"`
}

// MovementCount returns the docket length
func (p *Process) MovementCount() int {
	return len(p.Movements)
}

// FilingYear returns the calendar year the process was filed
func (p *Process) FilingYear() int {
	return p.FilingDate.Year()
}
