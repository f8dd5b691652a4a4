// internal/server/handlers/trend.go

package handlers

import (
	"net/http"
	"strconv"

	"github.com/rs/zerolog/log"

	"marketpulse/internal/domain/record"
	"marketpulse/internal/domain/trend"
)

// TrendHandler handles trend-related HTTP requests
type TrendHandler struct {
	engine trend.Engine
	store  record.Store
}

// NewTrendHandler creates a new trend handler
func NewTrendHandler(engine trend.Engine, store record.Store) *TrendHandler {
	return &TrendHandler{engine: engine, store: store}
}

// Analyze re-scans the record store and recomputes trend state. An empty
// store is reported as success=false in the body, not as an HTTP error.
func (h *TrendHandler) Analyze(w http.ResponseWriter, r *http.Request) {
	records, err := h.store.Search(r.Context(), record.Criteria{
		Category: r.URL.Query().Get("category"),
	})
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to load records", err)
		return
	}

	result := h.engine.AnalyzeAll(r.Context(), records)
	if result.Success {
		if err := h.engine.Save(r.Context()); err != nil {
			log.Error().Err(err).Msg("failed to persist trend state")
		}
	}

	respondWithJSON(w, http.StatusOK, result)
}

// Niches returns the top trending niches.
func (h *TrendHandler) Niches(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, h.engine.TopTrendingNiches(limitParam(r, 10)))
}

// Keywords returns the top trending keywords.
func (h *TrendHandler) Keywords(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, h.engine.TopTrendingKeywords(limitParam(r, 10)))
}

// Products returns the top trending products.
func (h *TrendHandler) Products(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, h.engine.TopTrendingProducts(limitParam(r, 10)))
}

// Predictions returns the one-step-forward projections.
func (h *TrendHandler) Predictions(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, h.engine.TrendPredictions(limitParam(r, 5)))
}

func limitParam(r *http.Request, def int) int {
	if v, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && v > 0 {
		return v
	}
	return def
}
