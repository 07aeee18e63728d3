package app

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jurimetria/domain/core"
	"jurimetria/domain/court"
	"jurimetria/domain/inference"
	"jurimetria/ports"
)

// fakeSource returns a canned process list
type fakeSource struct {
	procs []court.Process
	err   error
}

func (f *fakeSource) FetchProcesses(ctx context.Context, query ports.ProcessQuery) ([]court.Process, error) {
	return f.procs, f.err
}

// memoryRepository keeps runs in memory for pipeline tests
type memoryRepository struct {
	runs   []core.RunID
	rows   map[core.RunID][]inference.Row
	procs  map[core.RunID][]court.Process
	failed bool
}

func newMemoryRepository() *memoryRepository {
	return &memoryRepository{
		rows:  map[core.RunID][]inference.Row{},
		procs: map[core.RunID][]court.Process{},
	}
}

func (m *memoryRepository) SaveRun(ctx context.Context, runID core.RunID, procs []court.Process, rows []inference.Row) error {
	if m.failed {
		return fmt.Errorf("save failed")
	}
	m.runs = append(m.runs, runID)
	m.procs[runID] = procs
	m.rows[runID] = rows
	return nil
}

func (m *memoryRepository) ListRows(ctx context.Context, runID core.RunID) ([]inference.Row, error) {
	return m.rows[runID], nil
}

func (m *memoryRepository) ListProcesses(ctx context.Context, runID core.RunID) ([]court.Process, error) {
	return m.procs[runID], nil
}

func (m *memoryRepository) LatestRunID(ctx context.Context) (core.RunID, error) {
	if len(m.runs) == 0 {
		return "", core.ErrRunNotFound
	}
	return m.runs[len(m.runs)-1], nil
}

func ts(year, month, day int) core.Timestamp {
	return core.NewTimestamp(time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC))
}

func testProcesses() []court.Process {
	return []court.Process{
		{
			Number: "p-relief-settled", ClassCode: 7, ClassName: "Procedimento Comum",
			FilingDate: ts(2020, 1, 1), LastUpdateDate: ts(2022, 1, 1),
			Movements: []court.Movement{
				{Code: 51, Name: "Decisão", Date: ts(2020, 3, 1)},
				{Code: 466, Name: "Homologação de Acordo", Date: ts(2020, 9, 1)},
			},
		},
		{
			Number: "p-relief-censored", ClassCode: 7, ClassName: "Procedimento Comum",
			FilingDate: ts(2020, 2, 1), LastUpdateDate: ts(2022, 2, 1),
			Movements: []court.Movement{
				{Code: 26, Name: "Distribuição", Date: ts(2020, 2, 1)},
				{Code: 51, Name: "Decisão", Date: ts(2020, 4, 1)},
			},
		},
		{
			Number: "p-no-signals", ClassCode: 12, ClassName: "Tutela Antecedente",
			FilingDate: ts(2021, 1, 1), LastUpdateDate: ts(2021, 12, 1),
			Movements: []court.Movement{
				{Code: 123, Name: "Juntada de Petição", Date: ts(2021, 2, 1)},
			},
		},
	}
}

func TestRun_EndToEndPipeline(t *testing.T) {
	repo := newMemoryRepository()
	service := NewAnalysisService(&fakeSource{procs: testProcesses()}, repo, nil)

	report, err := service.Run(context.Background(), ports.ProcessQuery{SubjectCodes: []int{10069}}, 0.05)
	require.NoError(t, err)

	assert.Len(t, report.Rows, 3)
	assert.Equal(t, 3, report.Summary.TotalProcesses)
	assert.Equal(t, 2, report.Summary.WithRelief)
	assert.Equal(t, 1, report.Summary.WithSettlement)

	// Row order follows the fetch order
	assert.Equal(t, core.ProcessNumber("p-relief-settled"), report.Rows[0].Number)
	assert.True(t, report.Rows[0].ReliefAndSettlement)
	assert.True(t, report.Rows[0].EventObserved)
	assert.False(t, report.Rows[1].EventObserved)

	// Two relieved processes enter the survival sample
	require.NotNil(t, report.Survival)
	assert.Equal(t, 2, report.Survival[0].AtRisk)

	require.NotNil(t, report.Association)
	assert.Equal(t, inference.ContingencyTable{A: 1, B: 1, C: 0, D: 1}, report.Association.Table)

	// The run was persisted
	latest, err := repo.LatestRunID(context.Background())
	require.NoError(t, err)
	assert.Equal(t, report.RunID, latest)
	assert.Len(t, repo.rows[latest], 3)
}

func TestRun_WithoutRepositorySkipsPersistence(t *testing.T) {
	service := NewAnalysisService(&fakeSource{procs: testProcesses()}, nil, nil)

	report, err := service.Run(context.Background(), ports.ProcessQuery{SubjectCodes: []int{10069}}, 0.05)
	require.NoError(t, err)
	assert.Len(t, report.Rows, 3)
}

func TestRun_EmptySourceIsInsufficientData(t *testing.T) {
	service := NewAnalysisService(&fakeSource{}, nil, nil)

	_, err := service.Run(context.Background(), ports.ProcessQuery{SubjectCodes: []int{10069}}, 0.05)
	require.Error(t, err)
	assert.True(t, core.IsInsufficientData(err))
}

func TestRun_SourceErrorPropagates(t *testing.T) {
	service := NewAnalysisService(&fakeSource{err: fmt.Errorf("api down")}, nil, nil)

	_, err := service.Run(context.Background(), ports.ProcessQuery{SubjectCodes: []int{10069}}, 0.05)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "api down")
}

func TestAnalyzeStored_LatestRun(t *testing.T) {
	repo := newMemoryRepository()
	service := NewAnalysisService(&fakeSource{procs: testProcesses()}, repo, nil)

	first, err := service.Run(context.Background(), ports.ProcessQuery{SubjectCodes: []int{10069}}, 0.05)
	require.NoError(t, err)

	// Empty runID resolves to the latest persisted run
	replay, err := service.AnalyzeStored(context.Background(), "", 0.05)
	require.NoError(t, err)
	assert.Equal(t, first.RunID, replay.RunID)
	assert.Equal(t, first.Summary.TotalProcesses, replay.Summary.TotalProcesses)
	assert.Equal(t, first.Summary.WithRelief, replay.Summary.WithRelief)
}

func TestAnalyzeStored_WithoutRepositoryFails(t *testing.T) {
	service := NewAnalysisService(&fakeSource{}, nil, nil)

	_, err := service.AnalyzeStored(context.Background(), "", 0.05)
	require.Error(t, err)
}

func TestAnalyze_ZeroAlphaFallsBackToDefault(t *testing.T) {
	service := NewAnalysisService(nil, nil, nil)

	rows := []inference.Row{{Number: "p1", ProcessingDays: 100}}
	report, err := service.Analyze("run-1", rows, 0)
	require.NoError(t, err)
	assert.Equal(t, inference.DefaultAlpha, report.Alpha)
}

func TestAnalyze_NoRelievedProcessesSkipsSurvival(t *testing.T) {
	service := NewAnalysisService(nil, nil, nil)

	rows := []inference.Row{
		{Number: "p1", ProcessingDays: 100},
		{Number: "p2", ProcessingDays: 200, HasSettlement: true},
	}
	report, err := service.Analyze("run-1", rows, 0.05)
	require.NoError(t, err)
	assert.Nil(t, report.Survival)
	assert.NotNil(t, report.Association)
}

func TestBuildRows_PreservesInputOrder(t *testing.T) {
	service := NewAnalysisService(nil, nil, nil)

	procs := make([]court.Process, 50)
	for i := range procs {
		procs[i] = court.Process{
			Number:         core.ProcessNumber(fmt.Sprintf("p-%03d", i)),
			FilingDate:     ts(2020, 1, 1),
			LastUpdateDate: ts(2021, 1, 1),
		}
	}

	rows, err := service.BuildRows(context.Background(), procs)
	require.NoError(t, err)
	require.Len(t, rows, 50)
	for i, row := range rows {
		assert.Equal(t, core.ProcessNumber(fmt.Sprintf("p-%03d", i)), row.Number)
	}
}
