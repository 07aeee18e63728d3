package inference

import (
	"jurimetria/domain/core"
)

// Row is one process in the flat per-process table the inference engine
// consumes. It carries only derived fields: the engine has no dependency on
// the classifier or the fetch layer and is fully deterministic over this
// input.
type Row struct {
	Number              core.ProcessNumber `json:"number"`
	ClassCode           int                `json:"class_code"`
	ClassName           string             `json:"class_name"`
	FilingYear          int                `json:"filing_year"`
	HasRelief           bool               `json:"has_relief"`
	HasSettlement       bool               `json:"has_settlement"`
	HasGrant            bool               `json:"has_grant"`
	HasDenial           bool               `json:"has_denial"`
	HasJudgment         bool               `json:"has_judgment"`
	ProcessingDays      int                `json:"processing_days"`
	ReliefToSettlement  *int               `json:"relief_to_settlement_days,omitempty"`
	ReliefFollowupDays  *int               `json:"relief_followup_days,omitempty"`
	EventObserved       bool               `json:"event_observed"`
	ReliefAndSettlement bool               `json:"relief_and_settlement"`
}

// ContingencyFromRows builds the relief-by-settlement 2x2 table:
// rows are relief yes/no, columns are settlement yes/no
func ContingencyFromRows(rows []Row) ContingencyTable {
	var t ContingencyTable
	for _, r := range rows {
		switch {
		case r.HasRelief && r.HasSettlement:
			t.A++
		case r.HasRelief && !r.HasSettlement:
			t.B++
		case !r.HasRelief && r.HasSettlement:
			t.C++
		default:
			t.D++
		}
	}
	return t
}

// SurvivalObservations extracts the right-censored time-to-settlement sample:
// only rows with a defined relief follow-up enter the at-risk set. An observed
// event contributes its relief-to-settlement time; a censored row contributes
// the full follow-up.
func SurvivalObservations(rows []Row) []Observation {
	obs := make([]Observation, 0, len(rows))
	for _, r := range rows {
		if r.ReliefFollowupDays == nil {
			continue
		}
		o := Observation{Time: float64(*r.ReliefFollowupDays)}
		if r.EventObserved && r.ReliefToSettlement != nil {
			o.Time = float64(*r.ReliefToSettlement)
			o.Event = true
		}
		obs = append(obs, o)
	}
	return obs
}
