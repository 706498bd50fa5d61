package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/gustline/windsite/internal/domain"
)

// AssessmentSource serves the latest assessment and can run a fresh one.
type AssessmentSource interface {
	CheckReadiness(ctx context.Context) error
	Latest() (domain.Assessment, bool)
	Run(ctx context.Context) (domain.Assessment, error)
}

// Server exposes health, readiness, metrics, and assessment HTTP endpoints.
type Server struct {
	httpServer *http.Server
	source     AssessmentSource
	logger     *slog.Logger
}

// NewServer creates an HTTP server with /healthz, /readyz, /metrics, and
// /assessment routes.
func NewServer(addr string, source AssessmentSource, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 5 * time.Minute, // refresh runs a full remote fetch
			IdleTimeout:  60 * time.Second,
		},
		source: source,
		logger: logger,
	}

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("GET /assessment", s.handleAssessment)
	mux.HandleFunc("POST /assessment/refresh", s.handleRefresh)

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := s.source.CheckReadiness(ctx); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status": "not ready",
			"error":  err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

func (s *Server) handleAssessment(w http.ResponseWriter, _ *http.Request) {
	assessment, ok := s.source.Latest()
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{
			"error": "no assessment has completed yet",
		})
		return
	}
	writeJSON(w, http.StatusOK, assessment)
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	assessment, err := s.source.Run(r.Context())
	if err != nil {
		s.logger.Error("assessment refresh failed", "error", err)
		writeJSON(w, http.StatusBadGateway, map[string]string{
			"error": err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, assessment)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // best-effort response
}
