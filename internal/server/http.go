package server

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

// NewHTTPHandler returns the collector's REST handler. An empty
// authToken disables authentication.
func (s *PerfServer) NewHTTPHandler(authToken string) http.Handler {
	mux := http.NewServeMux()

	// Perf buffer
	mux.HandleFunc("POST /v1/perf/{module}/chains", s.handleReportChain)
	mux.HandleFunc("GET /v1/perf/{module}", s.handleViewPerf)
	mux.HandleFunc("DELETE /v1/perf/{module}", s.handleClearPerf)
	mux.HandleFunc("GET /v1/modules", s.handleListModules)
	mux.HandleFunc("GET /v1/nodes", s.handleListNodes)

	// Archive
	mux.HandleFunc("GET /v1/traces", s.handleListTraces)
	mux.HandleFunc("GET /v1/traces/{id}", s.handleGetTrace)
	mux.HandleFunc("DELETE /v1/traces", s.handlePruneTraces)

	// Collector state
	mux.HandleFunc("GET /v1/stats", s.handleStats)
	mux.HandleFunc("GET /v1/health", s.handleHealth)
	mux.HandleFunc("GET /v1/events/stream", s.handleEventStream)

	return RequestLogging(AuthMiddleware(authToken, mux))
}

func (s *PerfServer) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
