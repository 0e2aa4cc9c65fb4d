package handlers

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/kwradar/kwradar/internal/core/gate"
	"github.com/kwradar/kwradar/internal/core/store"
	apperrors "github.com/kwradar/kwradar/internal/errors"
)

// GateHandler exposes admission controller state over HTTP.
type GateHandler struct {
	Controller *gate.Controller
	Store      *store.Store
}

// StatsHandler reports current window usage and pacing state.
func (h *GateHandler) StatsHandler(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.Controller == nil {
		respondWithError(w, r, apperrors.NewInternalError("admission controller not configured"))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(h.Controller.Stats())
}

type throttleEventRequest struct {
	Severity string `json:"severity"`
	Source   string `json:"source,omitempty"`
}

type throttleEventResponse struct {
	Severity string     `json:"severity"`
	Penalty  string     `json:"penalty"`
	Stats    gate.Stats `json:"stats"`
}

// ThrottleEventHandler applies an external throttle signal to the gate and
// records it in the audit log when a store is attached.
func (h *GateHandler) ThrottleEventHandler(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.Controller == nil {
		respondWithError(w, r, apperrors.NewInternalError("admission controller not configured"))
		return
	}

	var req throttleEventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, r, apperrors.NewInvalidInputError("invalid throttle event payload"))
		return
	}

	severity := gate.Severity(strings.ToLower(strings.TrimSpace(req.Severity)))
	if severity == "" {
		respondWithError(w, r, apperrors.NewInvalidInputError("severity is required"))
		return
	}

	penalty := h.Controller.RegisterThrottleEvent(severity)

	// The gate has already widened at this point; a failed audit write is
	// still an error so callers know the event was not mirrored.
	if h.Store != nil {
		stats := h.Controller.Stats()
		err := h.Store.RecordThrottleEvent(r.Context(), store.ThrottleEvent{
			Severity:    string(severity),
			Source:      req.Source,
			Penalty:     penalty,
			MinInterval: stats.MinInterval,
			CreatedAt:   time.Now().UTC(),
		})
		if err != nil {
			respondWithError(w, r, apperrors.WrapInternal(r.Context(), err, "failed to record throttle event"))
			return
		}
	}

	response := throttleEventResponse{
		Severity: string(severity),
		Penalty:  penalty.String(),
		Stats:    h.Controller.Stats(),
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(response)
}

// ResetHandler clears gate windows and timers.
func (h *GateHandler) ResetHandler(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.Controller == nil {
		respondWithError(w, r, apperrors.NewInternalError("admission controller not configured"))
		return
	}

	h.Controller.Reset()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(h.Controller.Stats())
}
