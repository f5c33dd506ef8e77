package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/routelab/hoptrace/internal/model"
)

func (s *PerfServer) handleReportChain(w http.ResponseWriter, r *http.Request) {
	module := r.PathValue("module")

	var chain model.PerfEventChain
	if err := json.NewDecoder(r.Body).Decode(&chain); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}

	outcome, err := s.Report(r.Context(), module, chain)
	if err != nil {
		var ie inputError
		var ve *model.ValidationError
		switch {
		case errors.As(err, &ie):
			writeError(w, http.StatusBadRequest, string(ie))
		case errors.As(err, &ve):
			writeError(w, http.StatusBadRequest, ve.Error())
		default:
			writeError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}
	writeJSON(w, http.StatusCreated, outcome)
}

func (s *PerfServer) handleViewPerf(w http.ResponseWriter, r *http.Request) {
	db := s.buffer.Snapshot(r.PathValue("module"))
	writeJSON(w, http.StatusOK, db)
}

func (s *PerfServer) handleClearPerf(w http.ResponseWriter, r *http.Request) {
	n, err := s.ClearModule(r.Context(), r.PathValue("module"))
	if err != nil {
		var ie inputError
		if errors.As(err, &ie) {
			writeError(w, http.StatusBadRequest, string(ie))
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"cleared": n})
}

func (s *PerfServer) handleListModules(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"modules": s.buffer.Modules()})
}

func (s *PerfServer) handleListNodes(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"nodes": s.Presence.Active(s.PresenceTTL)})
}
