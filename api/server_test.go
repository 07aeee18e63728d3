package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"jurimetria/app"
	"jurimetria/domain/core"
	"jurimetria/domain/inference"
)

func intp(n int) *int { return &n }

func sampleReport() *inference.Report {
	rows := []inference.Row{
		{Number: "0001", ClassCode: 7, ClassName: "Procedimento Comum", FilingYear: 2020,
			HasRelief: true, HasSettlement: true, ReliefAndSettlement: true,
			ProcessingDays: 400, ReliefToSettlement: intp(90), ReliefFollowupDays: intp(90), EventObserved: true},
		{Number: "0002", ClassCode: 7, ClassName: "Procedimento Comum", FilingYear: 2021,
			HasRelief: true, ProcessingDays: 500, ReliefFollowupDays: intp(450)},
	}
	summary, _ := inference.Summarize(rows, 0.05)
	steps, _ := inference.KaplanMeier(inference.SurvivalObservations(rows))

	return &inference.Report{
		RunID:       core.RunID("run-1"),
		GeneratedAt: core.Now(),
		Alpha:       0.05,
		Rows:        rows,
		Summary:     summary,
		ByClass:     inference.GroupByClass(rows),
		ByYear:      inference.GroupByFilingYear(rows),
		Survival:    steps,
	}
}

func newTestServer(report *inference.Report) *Server {
	server := NewServer(app.NewAnalysisService(nil, nil, nil), 0.05)
	if report != nil {
		server.SetReport(report)
	}
	return server
}

func get(t *testing.T, server *Server, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	server.ServeHTTP(rec, req)
	return rec
}

func TestHealthz(t *testing.T) {
	rec := get(t, newTestServer(nil), "/healthz")

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body["status"] != "ok" {
		t.Errorf("status field = %v", body["status"])
	}
	if body["report_loaded"] != false {
		t.Errorf("report_loaded = %v, want false before any report", body["report_loaded"])
	}
}

func TestEndpointsBeforeReportLoaded(t *testing.T) {
	server := newTestServer(nil)

	for _, path := range []string{"/api/report", "/api/summary", "/api/processes", "/api/survival"} {
		rec := get(t, server, path)
		if rec.Code != http.StatusServiceUnavailable {
			t.Errorf("%s: status = %d, want 503", path, rec.Code)
		}
	}
}

func TestSummaryEndpoint(t *testing.T) {
	rec := get(t, newTestServer(sampleReport()), "/api/summary")

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var body struct {
		RunID   string                  `json:"run_id"`
		Summary inference.CohortSummary `json:"summary"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body.RunID != "run-1" {
		t.Errorf("run_id = %q", body.RunID)
	}
	if body.Summary.TotalProcesses != 2 {
		t.Errorf("total = %d, want 2", body.Summary.TotalProcesses)
	}
}

func TestProcessesEndpoint(t *testing.T) {
	rec := get(t, newTestServer(sampleReport()), "/api/processes")

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var rows []inference.Row
	if err := json.Unmarshal(rec.Body.Bytes(), &rows); err != nil {
		t.Fatal(err)
	}
	if len(rows) != 2 {
		t.Errorf("rows = %d, want 2", len(rows))
	}
}

func TestSurvivalEndpoint(t *testing.T) {
	report := sampleReport()
	rec := get(t, newTestServer(report), "/api/survival")

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var steps []inference.SurvivalStep
	if err := json.Unmarshal(rec.Body.Bytes(), &steps); err != nil {
		t.Fatal(err)
	}
	if len(steps) != len(report.Survival) {
		t.Errorf("steps = %d, want %d", len(steps), len(report.Survival))
	}
}

func TestSurvivalEndpointWithoutCurve(t *testing.T) {
	report := sampleReport()
	report.Survival = nil
	rec := get(t, newTestServer(report), "/api/survival")

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestRefreshWithoutRepositoryFails(t *testing.T) {
	server := newTestServer(nil)
	req := httptest.NewRequest(http.MethodPost, "/api/refresh", nil)
	rec := httptest.NewRecorder()
	server.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422", rec.Code)
	}
}
