// Package api serves the scorer's operational HTTP endpoints.
package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/okian/skillmatch/internal/batch"
)

// StatsProvider returns service statistics.
type StatsProvider interface {
	GetStats(ctx context.Context) map[string]any
}

// BatchRunner triggers one scoring run.
type BatchRunner interface {
	RunBatch(ctx context.Context) (batch.Report, error)
}

// Server wires the ops routes.
type Server struct {
	healthHandler *HealthHandler
	statsHandler  *StatsHandler
	batchHandler  *BatchHandler
}

// NewServer creates a new ops server.
func NewServer(stats StatsProvider, runner BatchRunner) *Server {
	return &Server{
		healthHandler: NewHealthHandler(),
		statsHandler:  NewStatsHandler(stats),
		batchHandler:  NewBatchHandler(runner),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(mux *http.ServeMux) {
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/batch", MetricsMiddleware(s.batchHandler.HandleRun, "batch"))
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}
