package inference

import (
	"fmt"
	"sort"

	"github.com/montanaflynn/stats"

	"jurimetria/domain/core"
)

// DurationStats summarizes a duration sample in days
type DurationStats struct {
	N      int     `json:"n"`
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
}

// CohortSummary aggregates the per-process table into counts, Wilson-bounded
// rates and duration summaries
type CohortSummary struct {
	TotalProcesses      int `json:"total_processes"`
	WithRelief          int `json:"with_relief"`
	WithSettlement      int `json:"with_settlement"`
	ReliefAndSettlement int `json:"relief_and_settlement"`
	WithGrant           int `json:"with_grant"`
	WithDenial          int `json:"with_denial"`
	WithJudgment        int `json:"with_judgment"`

	ReliefRate          Proportion `json:"relief_rate"`
	SettlementRate      Proportion `json:"settlement_rate"`
	ReliefEffectiveness Proportion `json:"relief_effectiveness"`
	// GrantRate is conditioned on processes with any grant or denial decision;
	// absent (zero Trials) when no decision was detected
	GrantRate *Proportion `json:"grant_rate,omitempty"`

	ProcessingDays         DurationStats  `json:"processing_days"`
	ReliefToSettlementDays *DurationStats `json:"relief_to_settlement_days,omitempty"`
}

// Summarize computes the cohort summary over the flat per-process table.
// An empty table is signaled as core.ErrInsufficientData.
func Summarize(rows []Row, alpha float64) (CohortSummary, error) {
	n := len(rows)
	if n == 0 {
		return CohortSummary{}, fmt.Errorf("%w: empty process table", core.ErrInsufficientData)
	}

	s := CohortSummary{TotalProcesses: n}
	processing := make([]float64, 0, n)
	toSettlement := make([]float64, 0, n)

	for _, r := range rows {
		if r.HasRelief {
			s.WithRelief++
		}
		if r.HasSettlement {
			s.WithSettlement++
		}
		if r.ReliefAndSettlement {
			s.ReliefAndSettlement++
		}
		if r.HasGrant {
			s.WithGrant++
		}
		if r.HasDenial {
			s.WithDenial++
		}
		if r.HasJudgment {
			s.WithJudgment++
		}
		processing = append(processing, float64(r.ProcessingDays))
		if r.ReliefToSettlement != nil {
			toSettlement = append(toSettlement, float64(*r.ReliefToSettlement))
		}
	}

	var err error
	if s.ReliefRate, err = WilsonInterval("relief_rate", s.WithRelief, n, alpha); err != nil {
		return CohortSummary{}, err
	}
	if s.SettlementRate, err = WilsonInterval("settlement_rate", s.WithSettlement, n, alpha); err != nil {
		return CohortSummary{}, err
	}
	// Effectiveness is conditioned on the relief subsample; with no relieved
	// processes there is no denominator and the rate stays at its zero value
	if s.WithRelief > 0 {
		if s.ReliefEffectiveness, err = WilsonInterval("relief_effectiveness", s.ReliefAndSettlement, s.WithRelief, alpha); err != nil {
			return CohortSummary{}, err
		}
	}
	if decided := s.WithGrant + s.WithDenial; decided > 0 {
		rate, err := WilsonInterval("grant_rate", s.WithGrant, decided, alpha)
		if err != nil {
			return CohortSummary{}, err
		}
		s.GrantRate = &rate
	}

	s.ProcessingDays = durationStats(processing)
	if len(toSettlement) > 0 {
		ds := durationStats(toSettlement)
		s.ReliefToSettlementDays = &ds
	}

	return s, nil
}

func durationStats(sample []float64) DurationStats {
	if len(sample) == 0 {
		return DurationStats{}
	}
	mean, _ := stats.Mean(sample)
	median, _ := stats.Median(sample)
	lo, _ := stats.Min(sample)
	hi, _ := stats.Max(sample)
	return DurationStats{N: len(sample), Mean: mean, Median: median, Min: lo, Max: hi}
}

// Breakdown is a per-group slice of the cohort (by procedural class or by
// filing year) with raw counts and simple rates
type Breakdown struct {
	Key                 string  `json:"key"`
	ClassCode           int     `json:"class_code,omitempty"`
	Year                int     `json:"year,omitempty"`
	TotalProcesses      int     `json:"total_processes"`
	WithRelief          int     `json:"with_relief"`
	WithSettlement      int     `json:"with_settlement"`
	ReliefAndSettlement int     `json:"relief_and_settlement"`
	ReliefRate          float64 `json:"relief_rate"`
	SettlementRate      float64 `json:"settlement_rate"`
}

// GroupByClass slices the table by procedural class, largest groups first
func GroupByClass(rows []Row) []Breakdown {
	groups := map[int]*Breakdown{}
	for _, r := range rows {
		g, ok := groups[r.ClassCode]
		if !ok {
			g = &Breakdown{Key: r.ClassName, ClassCode: r.ClassCode}
			groups[r.ClassCode] = g
		}
		accumulate(g, r)
	}
	out := finalize(groups)
	sort.Slice(out, func(i, j int) bool {
		if out[i].TotalProcesses != out[j].TotalProcesses {
			return out[i].TotalProcesses > out[j].TotalProcesses
		}
		return out[i].ClassCode < out[j].ClassCode
	})
	return out
}

// GroupByFilingYear slices the table by filing year, ascending
func GroupByFilingYear(rows []Row) []Breakdown {
	groups := map[int]*Breakdown{}
	for _, r := range rows {
		g, ok := groups[r.FilingYear]
		if !ok {
			g = &Breakdown{Key: fmt.Sprintf("%d", r.FilingYear), Year: r.FilingYear}
			groups[r.FilingYear] = g
		}
		accumulate(g, r)
	}
	out := finalize(groups)
	sort.Slice(out, func(i, j int) bool { return out[i].Year < out[j].Year })
	return out
}

func accumulate(g *Breakdown, r Row) {
	g.TotalProcesses++
	if r.HasRelief {
		g.WithRelief++
	}
	if r.HasSettlement {
		g.WithSettlement++
	}
	if r.ReliefAndSettlement {
		g.ReliefAndSettlement++
	}
}

func finalize(groups map[int]*Breakdown) []Breakdown {
	out := make([]Breakdown, 0, len(groups))
	for _, g := range groups {
		if g.TotalProcesses > 0 {
			g.ReliefRate = float64(g.WithRelief) / float64(g.TotalProcesses)
			g.SettlementRate = float64(g.WithSettlement) / float64(g.TotalProcesses)
		}
		out = append(out, *g)
	}
	return out
}
