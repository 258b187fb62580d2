package api

import (
	"encoding/json"
	"log"
	"net/http"
	"sort"
	"strings"

	"cpu-limiter/internal/metrics"
	"cpu-limiter/internal/proc"
)

const maxProcessRows = 100 // cap on the /processes listing

// TargetRequest selects the process to throttle in targeted mode
type TargetRequest struct {
	PID int `json:"pid"`
}

// LimitRequest carries a limit percentage for /limit and /global
type LimitRequest struct {
	LimitPercent int `json:"limit_percent"`
}

// ToggleRequest flips the master switch
type ToggleRequest struct {
	Enabled bool `json:"enabled"`
}

// ErrorResponse represents an error message
type ErrorResponse struct {
	Error string `json:"error"`
	Code  int    `json:"code"`
}

func (s *Server) handleSetTarget(w http.ResponseWriter, r *http.Request) {
	var req TargetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.PID <= 0 {
		respondError(w, "pid must be positive", http.StatusBadRequest)
		return
	}
	if !s.sig.Alive(req.PID) {
		respondError(w, "no such process", http.StatusNotFound)
		return
	}

	s.lim.SetTarget(req.PID)
	cfg := s.lim.GetConfig()
	metrics.SetMode(cfg.Mode)
	respondJSON(w, cfg, http.StatusOK)
}

func (s *Server) handleSetGlobal(w http.ResponseWriter, r *http.Request) {
	var req LimitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	s.lim.SetGlobal(req.LimitPercent)
	cfg := s.lim.GetConfig()
	metrics.SetMode(cfg.Mode)
	metrics.SetLimitPercent(cfg.LimitPercent)
	respondJSON(w, cfg, http.StatusOK)
}

func (s *Server) handleSetLimit(w http.ResponseWriter, r *http.Request) {
	var req LimitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	s.lim.SetLimit(req.LimitPercent)
	cfg := s.lim.GetConfig()
	metrics.SetLimitPercent(cfg.LimitPercent)
	respondJSON(w, cfg, http.StatusOK)
}

func (s *Server) handleToggle(w http.ResponseWriter, r *http.Request) {
	var req ToggleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	s.lim.Toggle(req.Enabled)
	metrics.SetEnabled(req.Enabled)
	respondJSON(w, s.lim.GetConfig(), http.StatusOK)
}

func (s *Server) handleGetConfig(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, s.lim.GetConfig(), http.StatusOK)
}

func (s *Server) handleGetStatus(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, s.lim.GetStatus(), http.StatusOK)
}

// handleProcesses lists live processes sorted by CPU usage, optionally
// filtered by a case-insensitive name substring.
func (s *Server) handleProcesses(w http.ResponseWriter, r *http.Request) {
	infos, err := s.sampler.Snapshot()
	if err != nil {
		s.logger.Printf("ERROR: process snapshot failed: %v", err)
		metrics.ErrorsTotal.Inc()
		respondError(w, "process enumeration failed", http.StatusInternalServerError)
		return
	}

	filter := strings.ToLower(r.URL.Query().Get("filter"))
	if filter != "" {
		filtered := infos[:0]
		for _, p := range infos {
			if strings.Contains(strings.ToLower(p.Name), filter) {
				filtered = append(filtered, p)
			}
		}
		infos = filtered
	}

	sort.SliceStable(infos, func(i, j int) bool {
		return infos[i].CPUPercent > infos[j].CPUPercent
	})
	if len(infos) > maxProcessRows {
		infos = infos[:maxProcessRows]
	}
	if infos == nil {
		infos = []proc.ProcessInfo{}
	}

	respondJSON(w, infos, http.StatusOK)
}

func (s *Server) handleSystem(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, s.mon.Snapshot(), http.StatusOK)
}

func respondJSON(w http.ResponseWriter, payload any, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		// Headers are out; nothing left to do but note it
		log.Printf("encode response: %v", err)
	}
}

func respondError(w http.ResponseWriter, msg string, code int) {
	respondJSON(w, ErrorResponse{Error: msg, Code: code}, code)
}
