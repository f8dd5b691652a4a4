package competitor

import (
	"context"
	"errors"

	"marketpulse/internal/domain/record"
)

// ErrNotFound is returned by mutation operations referencing an unknown
// competitor id.
var ErrNotFound = errors.New("competitor not found")

// Engine defines the competitor analysis interface.
type Engine interface {
	// AnalyzeAllData re-scans the record snapshot through five passes:
	// identify, strategies, content, performance, niches. Soft-fails when
	// the snapshot is empty.
	AnalyzeAllData(ctx context.Context, records []record.Record) AnalysisResult

	// Snapshot returns a deep copy of the current derived state.
	Snapshot() *Data

	// Competitors returns the global competitor list, unclassified included.
	Competitors() []Profile

	// CompetitorsByNiche returns tracked competitors for one niche. The
	// unclassified bucket is never returned here.
	CompetitorsByNiche(niche string) []Profile

	// GapAnalyses recomputes and returns the per-niche gap analyses.
	GapAnalyses() map[string]GapAnalysis

	// UpdateCompetitor shallow-merges metrics and optional fields into an
	// existing profile. Returns ErrNotFound for an unknown id.
	UpdateCompetitor(ctx context.Context, id string, metrics map[string]float64, description string) error

	// RemoveCompetitor deletes a profile. Returns ErrNotFound for an
	// unknown id.
	RemoveCompetitor(ctx context.Context, id string) error

	// Load restores previously persisted derived state.
	Load(ctx context.Context) error

	// Save persists the current derived state as a whole document.
	Save(ctx context.Context) error
}
