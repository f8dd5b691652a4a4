package trend

import (
	"context"

	"marketpulse/internal/domain/record"
)

// Engine defines the trend analysis interface. Implementations recompute the
// full derived state from a record snapshot on every AnalyzeAll call.
type Engine interface {
	// AnalyzeAll re-scans the given record snapshot and updates the derived
	// state. Soft-fails (Success=false) when the snapshot is empty.
	AnalyzeAll(ctx context.Context, records []record.Record) AnalysisResult

	// Snapshot returns a deep copy of the current derived state, safe to
	// read while later passes run.
	Snapshot() *Data

	// TopTrendingNiches returns up to n niches by popularity descending.
	// Returns an empty slice, never an error, when there is no data.
	TopTrendingNiches(n int) []NicheProfile

	// TopTrendingKeywords returns up to n keywords by mentions descending.
	TopTrendingKeywords(n int) []KeywordProfile

	// TopTrendingProducts returns up to n products by mentions descending.
	TopTrendingProducts(n int) []ProductProfile

	// TrendPredictions projects niches and keywords one period forward,
	// ranked by predicted growth descending.
	TrendPredictions(topN int) Predictions

	// Load restores previously persisted derived state.
	Load(ctx context.Context) error

	// Save persists the current derived state as a whole document.
	Save(ctx context.Context) error
}
