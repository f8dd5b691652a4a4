package trend

import (
	"time"
)

// NicheProfile aggregates everything observed about one configured niche.
// Popularity is a monotone match counter accumulated across analysis passes;
// Growth is recomputed on every pass from the popularity history window.
type NicheProfile struct {
	Niche             string    `json:"niche"`
	Popularity        int       `json:"popularity"`
	Growth            float64   `json:"growth"`
	Keywords          []string  `json:"keywords"`
	Products          []string  `json:"products"`
	PopularityHistory []int     `json:"popularityHistory,omitempty"`
	LastUpdated       time.Time `json:"lastUpdated"`
}

// KeywordProfile tracks a single literal query keyword across sources.
type KeywordProfile struct {
	Keyword         string    `json:"keyword"`
	Mentions        int       `json:"mentions"`
	Sentiment       float64   `json:"sentiment"`
	RelatedKeywords []string  `json:"relatedKeywords"`
	Sources         []string  `json:"sources"`
	LastUpdated     time.Time `json:"lastUpdated"`
}

// ProductProfile tracks a product observed in record result items. Profiles
// are merged by ID across passes.
type ProductProfile struct {
	ID              string    `json:"id"`
	Title           string    `json:"title"`
	Description     string    `json:"description"`
	Price           string    `json:"price"`
	URL             string    `json:"url"`
	Image           string    `json:"image"`
	Source          string    `json:"source"`
	Mentions        int       `json:"mentions"`
	Sentiment       float64   `json:"sentiment"`
	RelatedKeywords []string  `json:"relatedKeywords"`
	Sources         []string  `json:"sources"`
	LastUpdated     time.Time `json:"lastUpdated"`
}

// Data is the Trend Engine's full derived-state tree. It is what gets
// persisted as a whole document and what the Strategy Generator reads as a
// snapshot.
type Data struct {
	Niches   map[string]*NicheProfile   `json:"niches"`
	Keywords map[string]*KeywordProfile `json:"keywords"`
	Products map[string]*ProductProfile `json:"products"`
}

// NewData returns an empty derived-state tree.
func NewData() *Data {
	return &Data{
		Niches:   make(map[string]*NicheProfile),
		Keywords: make(map[string]*KeywordProfile),
		Products: make(map[string]*ProductProfile),
	}
}

// NichePrediction projects a niche one period forward.
type NichePrediction struct {
	Niche               string  `json:"niche"`
	CurrentPopularity   int     `json:"currentPopularity"`
	CurrentGrowth       float64 `json:"currentGrowth"`
	PredictedGrowth     float64 `json:"predictedGrowth"`
	PredictedPopularity float64 `json:"predictedPopularity"`
}

// KeywordPrediction projects a keyword one period forward.
type KeywordPrediction struct {
	Keyword           string  `json:"keyword"`
	CurrentMentions   int     `json:"currentMentions"`
	CurrentSentiment  float64 `json:"currentSentiment"`
	PredictedGrowth   float64 `json:"predictedGrowth"`
	PredictedMentions float64 `json:"predictedMentions"`
}

// Predictions is the one-step-forward projection over the current state.
type Predictions struct {
	Niches      []NichePrediction   `json:"niches"`
	Keywords    []KeywordPrediction `json:"keywords"`
	GeneratedAt time.Time           `json:"generatedAt"`
}

// AnalysisResult reports the outcome of an AnalyzeAll pass. An empty record
// set is an expected steady state and is reported here, never as an error.
type AnalysisResult struct {
	Success        bool   `json:"success"`
	Message        string `json:"message,omitempty"`
	RecordsScanned int    `json:"recordsScanned"`
	RecordsSkipped int    `json:"recordsSkipped"`
	Data           *Data  `json:"data,omitempty"`
}
