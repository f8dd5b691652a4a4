package competitor

import (
	"time"
)

// ContentItem is one piece of content observed for a competitor. Items are
// append-only and de-duplicated by (Type, URL|ID).
type ContentItem struct {
	ID          string    `json:"id,omitempty"`
	Type        string    `json:"type"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	URL         string    `json:"url,omitempty"`
	Engagement  float64   `json:"engagement,omitempty"`
	PublishedAt time.Time `json:"publishedAt,omitempty"`
}

// Profile tracks one competitor entity across analysis passes. Identity for
// de-duplication is (Platform, PlatformID) when the platform id is known,
// otherwise (Platform, Name).
type Profile struct {
	ID          string             `json:"id"`
	Name        string             `json:"name"`
	URL         string             `json:"url,omitempty"`
	Platform    string             `json:"platform"`
	PlatformID  string             `json:"platformId,omitempty"`
	Niche       string             `json:"niche"`
	Description string             `json:"description,omitempty"`
	Metrics     map[string]float64 `json:"metrics"`
	Content     []ContentItem      `json:"content"`
	Added       time.Time          `json:"added"`
	LastUpdated time.Time          `json:"lastUpdated"`
}

// Key is the value-typed identity a profile is indexed under.
type Key struct {
	Platform string `json:"platform"`
	Handle   string `json:"handle"`
}

// Identity returns the index key for a profile.
func (p *Profile) Identity() Key {
	handle := p.PlatformID
	if handle == "" {
		handle = p.Name
	}
	return Key{Platform: p.Platform, Handle: handle}
}

// OpportunityLevel summarizes how under-served a niche is.
type OpportunityLevel string

const (
	OpportunityHigh   OpportunityLevel = "high"
	OpportunityMedium OpportunityLevel = "medium"
	OpportunityLow    OpportunityLevel = "low"
)

// rank orders levels for comparisons: high > medium > low.
func (l OpportunityLevel) Rank() int {
	switch l {
	case OpportunityHigh:
		return 3
	case OpportunityMedium:
		return 2
	case OpportunityLow:
		return 1
	}
	return 0
}

// GapAnalysis is the derived competitive picture for one niche. It is fully
// recomputed from the current profiles on every call, never accumulated.
type GapAnalysis struct {
	Niche            string           `json:"niche"`
	CompetitorCount  int              `json:"competitorCount"`
	OpportunityLevel OpportunityLevel `json:"opportunityLevel"`
	Recommendation   string           `json:"recommendation"`
	ContentGaps      []string         `json:"contentGaps"`
}

// PerformanceEntry is one row of the performance ranking.
type PerformanceEntry struct {
	CompetitorID string  `json:"competitorId"`
	Name         string  `json:"name"`
	Platform     string  `json:"platform"`
	Niche        string  `json:"niche"`
	Score        float64 `json:"score"`
	Audience     float64 `json:"audience"`
}

// StrategyNote is a coarse observation about how a competitor operates,
// derived from its content and metrics.
type StrategyNote struct {
	CompetitorID string   `json:"competitorId"`
	Focus        string   `json:"focus"`
	ContentTypes []string `json:"contentTypes"`
	PostingRate  float64  `json:"postingRate"`
}

// Data is the Competitor Engine's full derived-state tree.
type Data struct {
	Competitors map[string]*Profile     `json:"competitors"`
	Strategies  map[string]StrategyNote `json:"strategies"`
	Content     map[string]int          `json:"content"`
	Performance []PerformanceEntry      `json:"performance"`
	Niches      map[string]GapAnalysis  `json:"niches"`
}

// NewData returns an empty derived-state tree.
func NewData() *Data {
	return &Data{
		Competitors: make(map[string]*Profile),
		Strategies:  make(map[string]StrategyNote),
		Content:     make(map[string]int),
		Performance: []PerformanceEntry{},
		Niches:      make(map[string]GapAnalysis),
	}
}

// AnalysisResult reports the outcome of an AnalyzeAllData pass.
type AnalysisResult struct {
	Success        bool   `json:"success"`
	Message        string `json:"message,omitempty"`
	RecordsScanned int    `json:"recordsScanned"`
	RecordsSkipped int    `json:"recordsSkipped"`
	Data           *Data  `json:"data,omitempty"`
}

// UnclassifiedNiche is the bucket for competitors whose descriptive text
// matched no configured niche. It is excluded from niche-scoped views but
// retained in the global competitor list.
const UnclassifiedNiche = "unclassified"
