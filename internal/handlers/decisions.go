// Package handlers exposes the engine's operations over HTTP: decision
// requests, autonomy configuration, performance reports, and outcome
// confirmation.
package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/aida/autonomy/internal/autonomy"
	"github.com/aida/autonomy/internal/decision"
	"github.com/aida/autonomy/internal/engine"
)

// DecisionRequest is the POST /decisions payload.
type DecisionRequest struct {
	DecisionType  string         `json:"decision_type"`
	ContextID     string         `json:"context_id"`
	UserID        string         `json:"user_id,omitempty"`
	AutonomyLevel int            `json:"autonomy_level"`
	Context       map[string]any `json:"context"`
}

// MakeDecision handles POST /api/v1/decisions.
func MakeDecision(eng *engine.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req DecisionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}
		if req.DecisionType == "" {
			http.Error(w, "decision_type is required", http.StatusBadRequest)
			return
		}
		if req.ContextID == "" {
			req.ContextID = uuid.NewString()
		}

		dc := decision.NewContext(req.ContextID, req.UserID, time.Now().UTC(), req.Context)
		d := eng.MakeDecision(r.Context(),
			decision.Type(req.DecisionType),
			dc,
			decision.AutonomyLevel(req.AutonomyLevel),
			req.UserID)

		writeJSON(w, http.StatusOK, d)
	}
}

// AutonomyRequest is the PUT /autonomy/{subject}/{process} payload.
type AutonomyRequest struct {
	Level               int                       `json:"level"`
	ConfidenceThreshold float64                   `json:"confidence_threshold"`
	CustomRules         autonomy.CustomRules      `json:"custom_rules,omitempty"`
	TimeRestrictions    autonomy.TimeRestrictions `json:"time_restrictions"`
	ValueLimits         autonomy.ValueLimits      `json:"value_limits"`
}

// ConfigureAutonomy handles PUT /api/v1/autonomy/{subject}/{process}.
// Invalid level and threshold combinations are rejected with 422 and
// nothing is persisted.
func ConfigureAutonomy(eng *engine.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		vars := mux.Vars(r)

		var req AutonomyRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}

		cfg, err := eng.ConfigureAutonomy(r.Context(), &autonomy.Config{
			SubjectID:           vars["subject"],
			Process:             vars["process"],
			Level:               decision.AutonomyLevel(req.Level),
			ConfidenceThreshold: req.ConfidenceThreshold,
			CustomRules:         req.CustomRules,
			TimeRestrictions:    req.TimeRestrictions,
			ValueLimits:         req.ValueLimits,
		})
		if err != nil {
			http.Error(w, err.Error(), http.StatusUnprocessableEntity)
			return
		}

		writeJSON(w, http.StatusOK, cfg)
	}
}

// GetPerformance handles GET /api/v1/performance.
// Optional query params: subject_id, from, to (RFC 3339).
func GetPerformance(eng *engine.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()

		var from, to time.Time
		if raw := q.Get("from"); raw != "" {
			t, err := time.Parse(time.RFC3339, raw)
			if err != nil {
				http.Error(w, "invalid from timestamp", http.StatusBadRequest)
				return
			}
			from = t
		}
		if raw := q.Get("to"); raw != "" {
			t, err := time.Parse(time.RFC3339, raw)
			if err != nil {
				http.Error(w, "invalid to timestamp", http.StatusBadRequest)
				return
			}
			to = t
		}

		report, err := eng.GetPerformance(r.Context(), q.Get("subject_id"), from, to)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}

		writeJSON(w, http.StatusOK, report)
	}
}

// OutcomeRequest is the POST /decisions/{id}/outcome payload.
type OutcomeRequest struct {
	Success       bool `json:"success"`
	HumanOverride bool `json:"human_override"`
}

// ConfirmOutcome handles POST /api/v1/decisions/{id}/outcome, recording the
// later-confirmed result of a decision for the performance analyzer.
func ConfirmOutcome(eng *engine.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		vars := mux.Vars(r)

		var req OutcomeRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}

		if err := eng.ConfirmOutcome(r.Context(), vars["id"], req.Success, req.HumanOverride); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}

		writeJSON(w, http.StatusOK, map[string]string{"status": "recorded"})
	}
}

// Health handles GET /health.
func Health() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
