package duration

import (
	"jurimetria/domain/classify"
	"jurimetria/domain/core"
	"jurimetria/domain/court"
)

// Record holds the per-process elapsed-time metrics derived from the legal
// signal set and the process timestamps, with the censoring flag used by the
// survival estimator.
type Record struct {
	Number core.ProcessNumber `json:"number"`

	// ProcessingDays is last update minus filing; non-negative after sanitization
	ProcessingDays int `json:"processing_days"`

	// ReliefToSettlementDays is present only when both first-relief and
	// first-settlement exist and the settlement does not predate the relief.
	// A settlement recorded before any relief is not attributable to it and
	// must not produce a negative duration.
	ReliefToSettlementDays *int `json:"relief_to_settlement_days,omitempty"`

	// ReliefFollowupDays is the at-risk time: last update minus first relief,
	// defined whenever first relief exists, regardless of settlement outcome
	ReliefFollowupDays *int `json:"relief_followup_days,omitempty"`

	// EventObserved is true iff a settlement attributable to the relief
	// occurred before last update; false follow-ups are right-censored
	EventObserved bool `json:"event_observed"`
}

// InSurvivalSample reports whether the record belongs to the Kaplan-Meier
// cohort: only processes with a defined relief follow-up qualify
func (r Record) InSurvivalSample() bool {
	return r.ReliefFollowupDays != nil
}

// Extract derives the duration record for one sanitized process
func Extract(p court.Process, s classify.Signals) Record {
	rec := Record{
		Number:         p.Number,
		ProcessingDays: p.FilingDate.DaysUntil(p.LastUpdateDate),
	}

	relief := s.FirstReliefDate
	settlement := s.FirstSettlementDate

	if relief != nil {
		followup := relief.DaysUntil(p.LastUpdateDate)
		rec.ReliefFollowupDays = &followup

		if s.HasSettlement && settlement != nil && !settlement.Before(*relief) {
			days := relief.DaysUntil(*settlement)
			rec.ReliefToSettlementDays = &days
			rec.EventObserved = true
		}
	}

	return rec
}
