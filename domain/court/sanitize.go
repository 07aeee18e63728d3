package court

import (
	"fmt"
	"sort"

	"jurimetria/domain/core"
)

// DateWindow bounds the plausible calendar years for any timestamp in a record.
// Tribunals occasionally emit garbage dates (year 2263 and the like), which
// must be rejected before they reach duration arithmetic.
type DateWindow struct {
	MinYear int
	MaxYear int
}

// DefaultDateWindow is the plausible range used by the pipeline
func DefaultDateWindow() DateWindow {
	return DateWindow{MinYear: 1990, MaxYear: 2035}
}

// Contains reports whether ts falls inside the plausible window
func (w DateWindow) Contains(ts core.Timestamp) bool {
	if ts.IsZero() {
		return false
	}
	y := ts.Year()
	return y >= w.MinYear && y <= w.MaxYear
}

// Sanitize validates a fetched process against the date-plausibility and
// ordering invariants. It returns a copy whose movements are chronologically
// sorted (stable, so same-date movements keep their docket order) with
// implausibly-dated movements dropped. Processes whose own timestamps are
// implausible or reversed are rejected with a core.ErrMalformedProcess error;
// such records never enter the pipeline.
func Sanitize(p Process, window DateWindow) (Process, error) {
	if p.Number.IsEmpty() {
		return Process{}, fmt.Errorf("%w: empty process number", core.ErrMalformedProcess)
	}
	if !window.Contains(p.FilingDate) {
		return Process{}, fmt.Errorf("%w: filing date %s for %s", core.ErrImplausibleDate, p.FilingDate, p.Number)
	}
	if !window.Contains(p.LastUpdateDate) {
		return Process{}, fmt.Errorf("%w: last update %s for %s", core.ErrImplausibleDate, p.LastUpdateDate, p.Number)
	}
	if p.LastUpdateDate.Before(p.FilingDate) {
		return Process{}, fmt.Errorf("%w: %s", core.ErrTimestampsReversed, p.Number)
	}

	clean := p
	clean.Movements = make([]Movement, 0, len(p.Movements))
	for _, m := range p.Movements {
		if !window.Contains(m.Date) {
			continue
		}
		clean.Movements = append(clean.Movements, m)
	}

	sort.SliceStable(clean.Movements, func(i, j int) bool {
		return clean.Movements[i].Date.Before(clean.Movements[j].Date)
	})

	return clean, nil
}

// SanitizeAll filters a batch, returning the surviving processes and the
// number of dropped records
func SanitizeAll(procs []Process, window DateWindow) ([]Process, int) {
	kept := make([]Process, 0, len(procs))
	dropped := 0
	for _, p := range procs {
		clean, err := Sanitize(p, window)
		if err != nil {
			dropped++
			continue
		}
		kept = append(kept, clean)
	}
	return kept, dropped
}
