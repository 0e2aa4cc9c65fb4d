package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/kwradar/kwradar/internal/core/scorer"
	"github.com/kwradar/kwradar/internal/core/store"
	apperrors "github.com/kwradar/kwradar/internal/errors"
)

// KeywordHandler serves persisted keyword data and on-demand scoring.
type KeywordHandler struct {
	Store *store.Store
}

// ScoresHandler scores every seed with persisted metrics and returns the
// ranked list.
func (h *KeywordHandler) ScoresHandler(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.Store == nil {
		respondWithError(w, r, apperrors.NewInternalError("store not configured"))
		return
	}

	metrics, err := h.Store.SeedMetrics(r.Context())
	if err != nil {
		respondWithError(w, r, apperrors.WrapInternal(r.Context(), err, "failed to load seed metrics"))
		return
	}

	inputs := make([]scorer.Input, 0, len(metrics))
	for _, metric := range metrics {
		volume := metric.MeanInterest
		if !metric.HasTrend {
			volume = float64(metric.Suggestions)
		}
		inputs = append(inputs, scorer.Input{
			Keyword: metric.Seed,
			Volume:  volume,
			Growth:  metric.Growth,
		})
	}

	scores := scorer.Default().Score(inputs)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(scores)
}

// SuggestionsHandler returns stored suggestions for a seed keyword.
func (h *KeywordHandler) SuggestionsHandler(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.Store == nil {
		respondWithError(w, r, apperrors.NewInternalError("store not configured"))
		return
	}

	seed := chi.URLParam(r, "seed")
	suggestions, err := h.Store.Suggestions(r.Context(), seed)
	if err != nil {
		respondWithError(w, r, apperrors.NewInvalidInputError(err.Error()))
		return
	}
	if len(suggestions) == 0 {
		respondWithError(w, r, apperrors.NewNotFoundError("no suggestions stored for seed"))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(suggestions)
}
