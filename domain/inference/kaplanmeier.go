package inference

import (
	"fmt"
	"sort"

	"jurimetria/domain/core"
)

// Observation is one right-censored time-to-event measurement: Time is the
// follow-up in days, Event is true when the settlement was observed and false
// when follow-up ended first
type Observation struct {
	Time  float64 `json:"time"`
	Event bool    `json:"event"`
}

// SurvivalStep is one finalized row of the Kaplan-Meier curve. The sequence
// is ordered and immutable; downstream consumers never see a running
// accumulator.
type SurvivalStep struct {
	Time     float64 `json:"time"`
	AtRisk   int     `json:"at_risk"`
	Events   int     `json:"events"`
	Censored int     `json:"censored"`
	Survival float64 `json:"survival"`
	// Variance is the Greenwood estimate S(t)^2 * sum d_j/(n_j*(n_j-d_j));
	// a term is taken as 0 when d_j == n_j (end of follow-up)
	Variance float64 `json:"variance"`
}

// KaplanMeier estimates the survival function from right-censored
// observations. One row is emitted per distinct observed time; rows where only
// censoring occurred reduce the at-risk set but leave S unchanged. Tied event
// times are processed as a single step with aggregated events, never as
// sequential single-event steps, because that would change both S and its
// variance. S(0)=1; beyond the last observed time the curve carries the last
// step with no extrapolation. Empty input is signaled as
// core.ErrInsufficientData.
func KaplanMeier(obs []Observation) ([]SurvivalStep, error) {
	if len(obs) == 0 {
		return nil, fmt.Errorf("%w: no follow-up observations", core.ErrInsufficientData)
	}
	for _, o := range obs {
		if o.Time < 0 {
			return nil, core.NewValidationError("time", fmt.Sprintf("negative follow-up %g", o.Time))
		}
	}

	sorted := make([]Observation, len(obs))
	copy(sorted, obs)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Time < sorted[j].Time })

	steps := make([]SurvivalStep, 0, len(sorted))
	survival := 1.0
	greenwood := 0.0
	atRisk := len(sorted)

	for i := 0; i < len(sorted); {
		t := sorted[i].Time
		events, censored := 0, 0
		for i < len(sorted) && sorted[i].Time == t {
			if sorted[i].Event {
				events++
			} else {
				censored++
			}
			i++
		}

		if events > 0 {
			n := float64(atRisk)
			d := float64(events)
			survival *= 1 - d/n
			if events < atRisk {
				greenwood += d / (n * (n - d))
			}
			// d == n contributes 0: the at-risk set is exhausted exactly
			// at the end of follow-up
		}

		steps = append(steps, SurvivalStep{
			Time:     t,
			AtRisk:   atRisk,
			Events:   events,
			Censored: censored,
			Survival: survival,
			Variance: survival * survival * greenwood,
		})

		atRisk -= events + censored
	}

	return steps, nil
}
