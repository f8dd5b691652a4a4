package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"marketpulse/internal/domain/competitor"
	"marketpulse/internal/domain/record"
)

// CompetitorHandler handles competitor-related HTTP requests
type CompetitorHandler struct {
	engine competitor.Engine
	store  record.Store
}

// NewCompetitorHandler creates a new competitor handler
func NewCompetitorHandler(engine competitor.Engine, store record.Store) *CompetitorHandler {
	return &CompetitorHandler{engine: engine, store: store}
}

// Analyze re-scans the record store and recomputes competitor state.
func (h *CompetitorHandler) Analyze(w http.ResponseWriter, r *http.Request) {
	records, err := h.store.Search(r.Context(), record.Criteria{
		Category: r.URL.Query().Get("category"),
	})
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to load records", err)
		return
	}

	result := h.engine.AnalyzeAllData(r.Context(), records)
	if result.Success {
		if err := h.engine.Save(r.Context()); err != nil {
			log.Error().Err(err).Msg("failed to persist competitor state")
		}
	}

	respondWithJSON(w, http.StatusOK, result)
}

// List returns tracked competitors, optionally scoped to one niche.
func (h *CompetitorHandler) List(w http.ResponseWriter, r *http.Request) {
	if niche := r.URL.Query().Get("niche"); niche != "" {
		respondWithJSON(w, http.StatusOK, h.engine.CompetitorsByNiche(niche))
		return
	}
	respondWithJSON(w, http.StatusOK, h.engine.Competitors())
}

// Gaps returns the per-niche gap analyses.
func (h *CompetitorHandler) Gaps(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, h.engine.GapAnalyses())
}

type updateCompetitorRequest struct {
	Metrics     map[string]float64 `json:"metrics"`
	Description string             `json:"description"`
}

// Update merges metrics and description into an existing competitor.
func (h *CompetitorHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		respondWithError(w, http.StatusBadRequest, "Missing competitor ID", nil)
		return
	}

	var req updateCompetitorRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	if err := h.engine.UpdateCompetitor(r.Context(), id, req.Metrics, req.Description); err != nil {
		if errors.Is(err, competitor.ErrNotFound) {
			respondWithError(w, http.StatusNotFound, "Competitor not found", nil)
		} else {
			respondWithError(w, http.StatusInternalServerError, "Failed to update competitor", err)
		}
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]any{"success": true})
}

// Remove deletes a tracked competitor.
func (h *CompetitorHandler) Remove(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		respondWithError(w, http.StatusBadRequest, "Missing competitor ID", nil)
		return
	}

	if err := h.engine.RemoveCompetitor(r.Context(), id); err != nil {
		if errors.Is(err, competitor.ErrNotFound) {
			respondWithError(w, http.StatusNotFound, "Competitor not found", nil)
		} else {
			respondWithError(w, http.StatusInternalServerError, "Failed to remove competitor", err)
		}
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]any{"success": true})
}
