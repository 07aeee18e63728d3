package app

import (
	"context"
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"

	"jurimetria/domain/classify"
	"jurimetria/domain/core"
	"jurimetria/domain/court"
	"jurimetria/domain/duration"
	"jurimetria/domain/inference"
	"jurimetria/internal"
	"jurimetria/ports"
)

// AnalysisService orchestrates the full jurimetrics pipeline: fetch,
// classify, extract durations, run the inference battery and assemble the
// report. The repository is optional; without one runs are not persisted.
type AnalysisService struct {
	source  ports.ProcessSource
	repo    ports.ProcessRepository
	rules   *classify.Rules
	log     *internal.Logger
	workers int
}

// NewAnalysisService creates the pipeline service. A nil repo disables
// persistence, a nil rules falls back to the default rule set.
func NewAnalysisService(source ports.ProcessSource, repo ports.ProcessRepository, rules *classify.Rules) *AnalysisService {
	if rules == nil {
		rules = classify.MustNewRules(classify.DefaultRuleSet())
	}
	return &AnalysisService{
		source:  source,
		repo:    repo,
		rules:   rules,
		log:     internal.DefaultLogger,
		workers: runtime.NumCPU(),
	}
}

// Run executes one end-to-end pipeline run over the source
func (s *AnalysisService) Run(ctx context.Context, query ports.ProcessQuery, alpha float64) (*inference.Report, error) {
	if s.source == nil {
		return nil, fmt.Errorf("analysis: no process source configured")
	}

	procs, err := s.source.FetchProcesses(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("analysis: fetch failed: %w", err)
	}
	if len(procs) == 0 {
		return nil, fmt.Errorf("analysis: %w: source returned no processes", core.ErrInsufficientData)
	}
	s.log.Info("analysis: classifying %d processes", len(procs))

	rows, err := s.BuildRows(ctx, procs)
	if err != nil {
		return nil, err
	}

	runID := core.RunID(core.NewID())
	if s.repo != nil {
		if err := s.repo.SaveRun(ctx, runID, procs, rows); err != nil {
			return nil, fmt.Errorf("analysis: persist run: %w", err)
		}
		s.log.Info("analysis: run %s persisted", runID)
	}

	return s.Analyze(runID, rows, alpha)
}

// AnalyzeStored reruns the inference battery over a persisted run without
// refetching. An empty runID selects the latest run.
func (s *AnalysisService) AnalyzeStored(ctx context.Context, runID core.RunID, alpha float64) (*inference.Report, error) {
	if s.repo == nil {
		return nil, fmt.Errorf("analysis: no repository configured")
	}

	if runID == "" {
		latest, err := s.repo.LatestRunID(ctx)
		if err != nil {
			return nil, fmt.Errorf("analysis: resolve latest run: %w", err)
		}
		runID = latest
	}

	rows, err := s.repo.ListRows(ctx, runID)
	if err != nil {
		return nil, fmt.Errorf("analysis: load rows for run %s: %w", runID, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("analysis: %w: run %s has no rows", core.ErrRunNotFound, runID)
	}

	return s.Analyze(runID, rows, alpha)
}

// BuildRows classifies each process and derives its duration record. Work is
// fanned out across workers; indexed writes keep row order aligned with the
// input order.
func (s *AnalysisService) BuildRows(ctx context.Context, procs []court.Process) ([]inference.Row, error) {
	rows := make([]inference.Row, len(procs))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for i := range procs {
		i := i
		g.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}
			rows[i] = buildRow(procs[i], s.rules)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("analysis: classification: %w", err)
	}

	return rows, nil
}

// Analyze runs the full inference battery over a finished row table.
// Analyses without enough data are skipped, never fabricated: the report
// carries nil for the Fisher test and survival curve in that case.
func (s *AnalysisService) Analyze(runID core.RunID, rows []inference.Row, alpha float64) (*inference.Report, error) {
	if alpha == 0 {
		alpha = inference.DefaultAlpha
	}

	summary, err := inference.Summarize(rows, alpha)
	if err != nil {
		return nil, fmt.Errorf("analysis: summarize: %w", err)
	}

	report := &inference.Report{
		RunID:       runID,
		GeneratedAt: core.Now(),
		Alpha:       alpha,
		Rows:        rows,
		Summary:     summary,
		ByClass:     inference.GroupByClass(rows),
		ByYear:      inference.GroupByFilingYear(rows),
	}

	table := inference.ContingencyFromRows(rows)
	fisher, err := inference.FisherExact(table)
	switch {
	case err == nil:
		report.Association = &fisher
	case core.IsInsufficientData(err):
		s.log.Warn("analysis: skipping association test: %v", err)
	default:
		return nil, fmt.Errorf("analysis: association test: %w", err)
	}

	obs := inference.SurvivalObservations(rows)
	if len(obs) > 0 {
		steps, err := inference.KaplanMeier(obs)
		if err != nil {
			return nil, fmt.Errorf("analysis: survival estimate: %w", err)
		}
		report.Survival = steps
	} else {
		s.log.Warn("analysis: skipping survival curve: no relieved processes")
	}

	return report, nil
}

// buildRow flattens one process into its inference table row
func buildRow(p court.Process, rules *classify.Rules) inference.Row {
	sig := classify.Classify(p, rules)
	rec := duration.Extract(p, sig)

	return inference.Row{
		Number:              p.Number,
		ClassCode:           p.ClassCode,
		ClassName:           p.ClassName,
		FilingYear:          p.FilingYear(),
		HasRelief:           sig.HasRelief,
		HasSettlement:       sig.HasSettlement,
		HasGrant:            sig.HasGrant,
		HasDenial:           sig.HasDenial,
		HasJudgment:         sig.HasJudgment,
		ProcessingDays:      rec.ProcessingDays,
		ReliefToSettlement:  rec.ReliefToSettlementDays,
		ReliefFollowupDays:  rec.ReliefFollowupDays,
		EventObserved:       rec.EventObserved,
		ReliefAndSettlement: sig.ReliefAndSettlement(),
	}
}
