package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"marketpulse/internal/domain/record"
)

// RecordHandler handles record ingestion and search requests.
type RecordHandler struct {
	store record.Store
}

// NewRecordHandler creates a new record handler
func NewRecordHandler(store record.Store) *RecordHandler {
	return &RecordHandler{store: store}
}

type storeRecordRequest struct {
	Category string         `json:"category"`
	Source   string         `json:"source"`
	Payload  record.Payload `json:"payload"`
}

// StoreRecord ingests one collected record.
func (h *RecordHandler) StoreRecord(w http.ResponseWriter, r *http.Request) {
	var req storeRecordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.Category == "" || req.Source == "" {
		respondWithError(w, http.StatusBadRequest, "Category and source are required", nil)
		return
	}

	id, err := h.store.StoreRecord(r.Context(), req.Category, req.Source, req.Payload)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to store record", err)
		return
	}

	respondWithJSON(w, http.StatusCreated, map[string]any{"success": true, "id": id})
}

// SearchRecords returns records matching the query parameters.
func (h *RecordHandler) SearchRecords(w http.ResponseWriter, r *http.Request) {
	criteria := record.Criteria{
		Category: r.URL.Query().Get("category"),
		Source:   r.URL.Query().Get("source"),
		Keyword:  r.URL.Query().Get("keyword"),
	}
	if from := r.URL.Query().Get("date_from"); from != "" {
		if t, err := time.Parse(time.RFC3339, from); err == nil {
			criteria.DateFrom = t
		}
	}
	if to := r.URL.Query().Get("date_to"); to != "" {
		if t, err := time.Parse(time.RFC3339, to); err == nil {
			criteria.DateTo = t
		}
	}

	records, err := h.store.Search(r.Context(), criteria)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to search records", err)
		return
	}
	if records == nil {
		records = []record.Record{}
	}

	respondWithJSON(w, http.StatusOK, records)
}
