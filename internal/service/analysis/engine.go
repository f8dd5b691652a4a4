package analysis

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"

	"marketpulse/internal/domain/record"
	"marketpulse/internal/domain/trend"
	"marketpulse/internal/heuristic"
)

// StateStore persists an engine's derived state as one whole document.
type StateStore interface {
	// LoadState unmarshals the persisted document for the named engine into
	// the target. Returns false when no document exists.
	LoadState(ctx context.Context, engine string, into any) (bool, error)

	// SaveState overwrites the persisted document for the named engine.
	SaveState(ctx context.Context, engine string, state any) error
}

// StateName keys the trend engine's persisted document.
const StateName = "trend"

// Config contains configuration for the trend engine.
type Config struct {
	TopTokens     int
	MinTokenLen   int
	HistoryWindow int
	GrowthWindow  time.Duration
	EventsTopic   string
}

// DefaultConfig returns the standard engine tuning.
func DefaultConfig() Config {
	return Config{
		TopTokens:     10,
		MinTokenLen:   3,
		HistoryWindow: 12,
		GrowthWindow:  7 * 24 * time.Hour,
		EventsTopic:   "pulse",
	}
}

// persistedState is the single document written per save: the derived-state
// tree plus the ids of records already folded into the counters. The seen
// set is what keeps re-analysis of an unchanged snapshot from double
// counting.
type persistedState struct {
	Data *trend.Data     `json:"data"`
	Seen map[string]bool `json:"seen"`
}

// Engine implements trend.Engine. A second AnalyzeAll arriving while one is
// in flight is rejected with a busy result; that is the documented policy.
type Engine struct {
	store    StateStore
	eventBus *nats.Conn
	config   Config

	runMu  sync.Mutex
	saveMu sync.Mutex

	mu   sync.RWMutex
	data *trend.Data
	seen map[string]bool
}

// NewEngine creates a trend engine. The event bus is optional; pass nil to
// disable event publication.
func NewEngine(store StateStore, eventBus *nats.Conn, config Config) *Engine {
	if config.TopTokens <= 0 {
		config = DefaultConfig()
	}
	return &Engine{
		store:    store,
		eventBus: eventBus,
		config:   config,
		data:     trend.NewData(),
		seen:     make(map[string]bool),
	}
}

// AnalyzeAll runs the four analysis passes over the record snapshot:
// by-niche, by-keyword, by-product, by-timeframe.
func (e *Engine) AnalyzeAll(ctx context.Context, records []record.Record) trend.AnalysisResult {
	if !e.runMu.TryLock() {
		return trend.AnalysisResult{Success: false, Message: "trend analysis already in progress"}
	}
	defer e.runMu.Unlock()

	if len(records) == 0 {
		return trend.AnalysisResult{Success: false, Message: "no records to analyze"}
	}

	now := time.Now()
	skipped := 0

	e.mu.Lock()
	for i := range records {
		if err := e.analyzeRecord(&records[i], now); err != nil {
			skipped++
			log.Warn().Str("record", records[i].ID).Err(err).Msg("skipping malformed record")
		}
	}
	e.analyzeTimeframe(records, now)
	e.mu.Unlock()

	result := trend.AnalysisResult{
		Success:        true,
		RecordsScanned: len(records),
		RecordsSkipped: skipped,
		Data:           e.Snapshot(),
	}

	e.publishAnalyzed(result)
	return result
}

// analyzeRecord folds one record into the niche, keyword, and product
// profiles. A panic while reading a malformed payload is contained here so
// the batch continues.
func (e *Engine) analyzeRecord(rec *record.Record, now time.Time) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("payload extraction: %v", r)
		}
	}()

	isNew := !e.seen[rec.ID]
	text := recordText(rec)

	e.analyzeNiches(rec, text, isNew, now)
	e.analyzeKeyword(rec, text, isNew, now)
	e.analyzeProducts(rec, text, isNew, now)

	e.seen[rec.ID] = true
	return nil
}

// analyzeNiches is the by-niche pass for one record: substring membership
// against each configured niche's fixed keyword list.
func (e *Engine) analyzeNiches(rec *record.Record, text string, isNew bool, now time.Time) {
	for _, niche := range heuristic.Niches() {
		if _, ok := heuristic.ContainsAny(text, heuristic.NicheKeywords(niche)); !ok {
			continue
		}

		profile := e.data.Niches[niche]
		if profile == nil {
			profile = &trend.NicheProfile{Niche: niche}
			e.data.Niches[niche] = profile
		}
		if isNew {
			profile.Popularity++
		}
		profile.Keywords = union(profile.Keywords, heuristic.TopTokens(text, e.config.TopTokens, e.config.MinTokenLen))
		profile.Products = union(profile.Products, productTitles(rec))
		profile.LastUpdated = now
	}
}

// analyzeKeyword is the by-keyword pass: the record's literal query string,
// lower-cased, is the profile key.
func (e *Engine) analyzeKeyword(rec *record.Record, text string, isNew bool, now time.Time) {
	query := strings.ToLower(strings.TrimSpace(rec.Payload.Query))
	if query == "" {
		return
	}

	profile := e.data.Keywords[query]
	if profile == nil {
		profile = &trend.KeywordProfile{Keyword: query}
		e.data.Keywords[query] = profile
	}
	if isNew {
		profile.Mentions++
	}
	profile.Sentiment = heuristic.Sentiment(text)
	profile.RelatedKeywords = union(profile.RelatedKeywords, heuristic.TopTokens(text, e.config.TopTokens, e.config.MinTokenLen))
	profile.Sources = union(profile.Sources, []string{rec.Source})
	profile.LastUpdated = now
}

// analyzeProducts is the by-product pass: result items exposing a title or
// name become product profiles, merged by id. Ids missing from the payload
// are synthesized deterministically so re-analysis merges instead of
// duplicating.
func (e *Engine) analyzeProducts(rec *record.Record, text string, isNew bool, now time.Time) {
	for _, item := range rec.Payload.Results {
		title := heuristic.StringField(item, "title", "name")
		if title == "" {
			continue
		}

		id := heuristic.StringField(item, "id", "product_id", "asin")
		if id == "" {
			id = syntheticProductID(rec.Source, title)
		}

		profile := e.data.Products[id]
		if profile == nil {
			profile = &trend.ProductProfile{ID: id, Title: title, Source: rec.Source}
			e.data.Products[id] = profile
		}
		if isNew {
			profile.Mentions++
		}
		if desc := heuristic.StringField(item, "description", "selftext", "summary"); desc != "" {
			profile.Description = desc
		}
		if price := heuristic.StringField(item, "price"); price != "" {
			profile.Price = price
		}
		if url := heuristic.StringField(item, "url", "link", "permalink"); url != "" {
			profile.URL = url
		}
		if image := heuristic.StringField(item, "image", "thumbnail"); image != "" {
			profile.Image = image
		}
		profile.Sentiment = heuristic.Sentiment(heuristic.FlattenValue(item))
		profile.RelatedKeywords = union(profile.RelatedKeywords, heuristic.TopTokens(text, e.config.TopTokens, e.config.MinTokenLen))
		profile.Sources = union(profile.Sources, []string{rec.Source})
		profile.LastUpdated = now
	}
}

// analyzeTimeframe is the by-timeframe pass: growth per niche is a genuine
// period-over-period comparison of match counts in the trailing window
// against the window before it, anchored at the newest record timestamp so
// the result is a pure function of the snapshot.
func (e *Engine) analyzeTimeframe(records []record.Record, now time.Time) {
	var newest time.Time
	for i := range records {
		if records[i].Timestamp.After(newest) {
			newest = records[i].Timestamp
		}
	}

	recentFrom := newest.Add(-e.config.GrowthWindow)
	priorFrom := newest.Add(-2 * e.config.GrowthWindow)

	for _, niche := range heuristic.Niches() {
		profile := e.data.Niches[niche]
		if profile == nil {
			continue
		}

		var recent, prior int
		keywords := heuristic.NicheKeywords(niche)
		for i := range records {
			rec := &records[i]
			if _, ok := heuristic.ContainsAny(recordText(rec), keywords); !ok {
				continue
			}
			switch {
			case !rec.Timestamp.Before(recentFrom):
				recent++
			case !rec.Timestamp.Before(priorFrom):
				prior++
			}
		}

		switch {
		case prior > 0:
			profile.Growth = float64(recent-prior) / float64(prior) * 100
		case recent > 0:
			profile.Growth = 100
		default:
			profile.Growth = 0
		}

		profile.PopularityHistory = append(profile.PopularityHistory, profile.Popularity)
		if len(profile.PopularityHistory) > e.config.HistoryWindow {
			profile.PopularityHistory = profile.PopularityHistory[len(profile.PopularityHistory)-e.config.HistoryWindow:]
		}
	}
}

// Snapshot returns a deep copy of the derived state.
func (e *Engine) Snapshot() *trend.Data {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return cloneData(e.data)
}

// TopTrendingNiches returns up to n niches by popularity descending.
func (e *Engine) TopTrendingNiches(n int) []trend.NicheProfile {
	e.mu.RLock()
	defer e.mu.RUnlock()

	out := make([]trend.NicheProfile, 0, len(e.data.Niches))
	for _, p := range e.data.Niches {
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Popularity != out[j].Popularity {
			return out[i].Popularity > out[j].Popularity
		}
		return out[i].Niche < out[j].Niche
	})
	return truncateNiches(out, n)
}

// TopTrendingKeywords returns up to n keywords by mentions descending.
func (e *Engine) TopTrendingKeywords(n int) []trend.KeywordProfile {
	e.mu.RLock()
	defer e.mu.RUnlock()

	out := make([]trend.KeywordProfile, 0, len(e.data.Keywords))
	for _, p := range e.data.Keywords {
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Mentions != out[j].Mentions {
			return out[i].Mentions > out[j].Mentions
		}
		return out[i].Keyword < out[j].Keyword
	})
	if n >= 0 && len(out) > n {
		out = out[:n]
	}
	return out
}

// TopTrendingProducts returns up to n products by mentions descending.
func (e *Engine) TopTrendingProducts(n int) []trend.ProductProfile {
	e.mu.RLock()
	defer e.mu.RUnlock()

	out := make([]trend.ProductProfile, 0, len(e.data.Products))
	for _, p := range e.data.Products {
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Mentions != out[j].Mentions {
			return out[i].Mentions > out[j].Mentions
		}
		return out[i].Title < out[j].Title
	})
	if n >= 0 && len(out) > n {
		out = out[:n]
	}
	return out
}

// TrendPredictions projects the current growth and sentiment one period
// forward. There is no time-series model behind this; it is a straight
// one-step extrapolation.
func (e *Engine) TrendPredictions(topN int) trend.Predictions {
	e.mu.RLock()
	defer e.mu.RUnlock()

	preds := trend.Predictions{GeneratedAt: time.Now()}

	for _, p := range e.data.Niches {
		preds.Niches = append(preds.Niches, trend.NichePrediction{
			Niche:               p.Niche,
			CurrentPopularity:   p.Popularity,
			CurrentGrowth:       p.Growth,
			PredictedGrowth:     p.Growth,
			PredictedPopularity: float64(p.Popularity) * (1 + p.Growth/100),
		})
	}
	sort.Slice(preds.Niches, func(i, j int) bool {
		if preds.Niches[i].PredictedGrowth != preds.Niches[j].PredictedGrowth {
			return preds.Niches[i].PredictedGrowth > preds.Niches[j].PredictedGrowth
		}
		return preds.Niches[i].CurrentPopularity > preds.Niches[j].CurrentPopularity
	})
	if topN >= 0 && len(preds.Niches) > topN {
		preds.Niches = preds.Niches[:topN]
	}

	// Keywords carry no growth series; sentiment is the forward signal.
	for _, p := range e.data.Keywords {
		preds.Keywords = append(preds.Keywords, trend.KeywordPrediction{
			Keyword:           p.Keyword,
			CurrentMentions:   p.Mentions,
			CurrentSentiment:  p.Sentiment,
			PredictedGrowth:   p.Sentiment * 100,
			PredictedMentions: float64(p.Mentions) * (1 + p.Sentiment),
		})
	}
	sort.Slice(preds.Keywords, func(i, j int) bool {
		if preds.Keywords[i].PredictedGrowth != preds.Keywords[j].PredictedGrowth {
			return preds.Keywords[i].PredictedGrowth > preds.Keywords[j].PredictedGrowth
		}
		return preds.Keywords[i].CurrentMentions > preds.Keywords[j].CurrentMentions
	})
	if topN >= 0 && len(preds.Keywords) > topN {
		preds.Keywords = preds.Keywords[:topN]
	}

	return preds
}

// Load restores persisted state. A corrupt or absent document falls back to
// an empty tree; that is never fatal.
func (e *Engine) Load(ctx context.Context) error {
	var state persistedState
	found, err := e.store.LoadState(ctx, StateName, &state)
	if err != nil || !found || state.Data == nil {
		if err != nil {
			log.Warn().Err(err).Msg("trend state unreadable, starting empty")
		}
		e.mu.Lock()
		e.data = trend.NewData()
		e.seen = make(map[string]bool)
		e.mu.Unlock()
		return nil
	}

	if state.Seen == nil {
		state.Seen = make(map[string]bool)
	}
	e.mu.Lock()
	e.data = state.Data
	e.seen = state.Seen
	e.mu.Unlock()
	return nil
}

// Save persists the derived state as one whole-document overwrite. Writers
// serialize on saveMu so overlapping passes cannot interleave a partial
// write; the last completed pass wins.
func (e *Engine) Save(ctx context.Context) error {
	e.saveMu.Lock()
	defer e.saveMu.Unlock()

	e.mu.RLock()
	state := persistedState{Data: cloneData(e.data), Seen: cloneSeen(e.seen)}
	e.mu.RUnlock()

	return e.store.SaveState(ctx, StateName, state)
}

func (e *Engine) publishAnalyzed(result trend.AnalysisResult) {
	if e.eventBus == nil {
		return
	}
	payload, err := json.Marshal(map[string]any{
		"engine":  StateName,
		"scanned": result.RecordsScanned,
		"skipped": result.RecordsSkipped,
		"niches":  len(result.Data.Niches),
	})
	if err != nil {
		return
	}
	topic := fmt.Sprintf("%s.trend.analyzed", e.config.EventsTopic)
	if err := e.eventBus.Publish(topic, payload); err != nil {
		log.Warn().Err(err).Str("topic", topic).Msg("failed to publish trend event")
	}
}

func recordText(rec *record.Record) string {
	parts := make([]string, 0, 2)
	if rec.Payload.Query != "" {
		parts = append(parts, rec.Payload.Query)
	}
	if len(rec.Payload.Results) > 0 {
		parts = append(parts, heuristic.FlattenValue(rec.Payload.Results))
	}
	return strings.Join(parts, " ")
}

func productTitles(rec *record.Record) []string {
	var titles []string
	for _, item := range rec.Payload.Results {
		if title := heuristic.StringField(item, "title", "name"); title != "" {
			titles = append(titles, title)
		}
	}
	return titles
}

func syntheticProductID(source, title string) string {
	slug := strings.Join(heuristic.Tokenize(title), "-")
	if len(slug) > 60 {
		slug = slug[:60]
	}
	return source + ":" + slug
}

func union(existing []string, add []string) []string {
	seen := make(map[string]bool, len(existing))
	for _, s := range existing {
		seen[s] = true
	}
	for _, s := range add {
		if !seen[s] {
			existing = append(existing, s)
			seen[s] = true
		}
	}
	return existing
}

func truncateNiches(in []trend.NicheProfile, n int) []trend.NicheProfile {
	if n >= 0 && len(in) > n {
		return in[:n]
	}
	return in
}

func cloneData(d *trend.Data) *trend.Data {
	out := trend.NewData()
	for k, v := range d.Niches {
		cp := *v
		cp.Keywords = append([]string{}, v.Keywords...)
		cp.Products = append([]string{}, v.Products...)
		cp.PopularityHistory = append([]int{}, v.PopularityHistory...)
		out.Niches[k] = &cp
	}
	for k, v := range d.Keywords {
		cp := *v
		cp.RelatedKeywords = append([]string{}, v.RelatedKeywords...)
		cp.Sources = append([]string{}, v.Sources...)
		out.Keywords[k] = &cp
	}
	for k, v := range d.Products {
		cp := *v
		cp.RelatedKeywords = append([]string{}, v.RelatedKeywords...)
		cp.Sources = append([]string{}, v.Sources...)
		out.Products[k] = &cp
	}
	return out
}

func cloneSeen(seen map[string]bool) map[string]bool {
	out := make(map[string]bool, len(seen))
	for k, v := range seen {
		out[k] = v
	}
	return out
}
