package handlers

import (
	"encoding/json"
	"io"
	"net/http"

	"marketpulse/internal/domain/competitor"
	"marketpulse/internal/domain/strategy"
	"marketpulse/internal/domain/trend"
)

// StrategyHandler handles strategy generation requests.
type StrategyHandler struct {
	generator   strategy.Generator
	trends      trend.Engine
	competitors competitor.Engine
}

// NewStrategyHandler creates a new strategy handler
func NewStrategyHandler(generator strategy.Generator, trends trend.Engine, competitors competitor.Engine) *StrategyHandler {
	return &StrategyHandler{generator: generator, trends: trends, competitors: competitors}
}

// Generate builds a fresh strategy from the current engine snapshots and
// the posted options. Unknown fields in the body are ignored. An empty body
// generates with all defaults.
func (h *StrategyHandler) Generate(w http.ResponseWriter, r *http.Request) {
	var opts strategy.Options
	if err := json.NewDecoder(r.Body).Decode(&opts); err != nil && err != io.EOF {
		respondWithError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	result := h.generator.GenerateStrategy(r.Context(), opts, h.trends.Snapshot(), h.competitors.Snapshot())
	respondWithJSON(w, http.StatusOK, result)
}
