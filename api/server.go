package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"jurimetria/app"
	"jurimetria/domain/core"
	"jurimetria/domain/inference"
	"jurimetria/internal"
)

// Server exposes the latest analysis report over HTTP. The report is held in
// memory and swapped atomically on refresh, so readers never observe a
// half-built report.
type Server struct {
	router  *chi.Mux
	service *app.AnalysisService
	alpha   float64
	log     *internal.Logger

	mu     sync.RWMutex
	report *inference.Report
}

// NewServer creates the API server around an analysis service
func NewServer(service *app.AnalysisService, alpha float64) *Server {
	s := &Server{
		router:  chi.NewRouter(),
		service: service,
		alpha:   alpha,
		log:     internal.DefaultLogger,
	}
	s.setupMiddleware()
	s.setupRoutes()
	return s
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.Logger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Compress(5))
}

func (s *Server) setupRoutes() {
	s.router.Get("/healthz", s.handleHealth)

	s.router.Get("/api/report", s.handleReport)
	s.router.Get("/api/summary", s.handleSummary)
	s.router.Get("/api/processes", s.handleProcesses)
	s.router.Get("/api/survival", s.handleSurvival)
	s.router.Get("/api/classes", s.handleClasses)
	s.router.Get("/api/years", s.handleYears)

	s.router.Post("/api/refresh", s.handleRefresh)
}

// SetReport installs a freshly computed report
func (s *Server) SetReport(report *inference.Report) {
	s.mu.Lock()
	s.report = report
	s.mu.Unlock()
}

// ServeHTTP makes the server mountable and testable as a plain handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Start serves on the given port until the listener fails
func (s *Server) Start(port string) error {
	addr := ":" + port
	s.log.Info("api: listening on %s", addr)
	return http.ListenAndServe(addr, s.router)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	loaded := s.report != nil
	s.mu.RUnlock()
	respondJSON(w, http.StatusOK, map[string]any{"status": "ok", "report_loaded": loaded})
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	report, ok := s.currentReport(w)
	if !ok {
		return
	}
	respondJSON(w, http.StatusOK, report)
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	report, ok := s.currentReport(w)
	if !ok {
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"run_id":       report.RunID,
		"generated_at": report.GeneratedAt,
		"alpha":        report.Alpha,
		"summary":      report.Summary,
		"association":  report.Association,
	})
}

func (s *Server) handleProcesses(w http.ResponseWriter, r *http.Request) {
	report, ok := s.currentReport(w)
	if !ok {
		return
	}
	respondJSON(w, http.StatusOK, report.Rows)
}

func (s *Server) handleSurvival(w http.ResponseWriter, r *http.Request) {
	report, ok := s.currentReport(w)
	if !ok {
		return
	}
	if report.Survival == nil {
		respondError(w, http.StatusNotFound, "no survival curve: run had no relieved processes")
		return
	}
	respondJSON(w, http.StatusOK, report.Survival)
}

func (s *Server) handleClasses(w http.ResponseWriter, r *http.Request) {
	report, ok := s.currentReport(w)
	if !ok {
		return
	}
	respondJSON(w, http.StatusOK, report.ByClass)
}

func (s *Server) handleYears(w http.ResponseWriter, r *http.Request) {
	report, ok := s.currentReport(w)
	if !ok {
		return
	}
	respondJSON(w, http.StatusOK, report.ByYear)
}

// handleRefresh recomputes the report from the latest persisted run. A run_id
// query parameter selects a specific run instead.
func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	runID := core.RunID(r.URL.Query().Get("run_id"))

	report, err := s.service.AnalyzeStored(r.Context(), runID, s.alpha)
	if err != nil {
		s.log.Error("api: refresh failed: %v", err)
		respondError(w, http.StatusUnprocessableEntity, fmt.Sprintf("refresh failed: %v", err))
		return
	}

	s.SetReport(report)
	respondJSON(w, http.StatusOK, map[string]any{"run_id": report.RunID, "processes": len(report.Rows)})
}

func (s *Server) currentReport(w http.ResponseWriter) (*inference.Report, bool) {
	s.mu.RLock()
	report := s.report
	s.mu.RUnlock()
	if report == nil {
		respondError(w, http.StatusServiceUnavailable, "no report loaded yet")
		return nil, false
	}
	return report, true
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}
