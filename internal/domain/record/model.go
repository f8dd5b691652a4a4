package record

import (
	"context"
	"fmt"
	"time"
)

// Payload is the source-shaped body of a collected record. A payload carries
// a query string, a list of loosely-typed result items, or both, depending
// on what the collector captured.
type Payload struct {
	Query   string           `json:"query,omitempty"`
	Results []map[string]any `json:"results,omitempty"`
}

// Record is a single ingested observation about a platform, network, or site.
// Records are immutable once stored.
type Record struct {
	ID        string    `json:"id"`
	Category  string    `json:"category"`
	Source    string    `json:"source"`
	Timestamp time.Time `json:"timestamp"`
	Payload   Payload   `json:"payload"`
}

// Criteria filters a record search. Zero-value fields are ignored.
type Criteria struct {
	Category string
	Source   string
	Keyword  string
	DateFrom time.Time
	DateTo   time.Time
}

// Store defines the query interface the analysis engines consume. Category
// and source vocabularies are opaque to the engines.
type Store interface {
	// StoreRecord persists a new record and returns its id.
	StoreRecord(ctx context.Context, category, source string, payload Payload) (string, error)

	// Search returns records matching the criteria, newest first.
	Search(ctx context.Context, criteria Criteria) ([]Record, error)

	// ByCategory returns all records in a category keyed by id.
	ByCategory(ctx context.Context, category string) (map[string]Record, error)
}

// MakeID builds the canonical record id from its identifying parts.
func MakeID(category, source string, ts time.Time) string {
	return fmt.Sprintf("%s_%s_%d", category, source, ts.UnixNano())
}
