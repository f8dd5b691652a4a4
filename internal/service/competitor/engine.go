package competitor

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"

	"marketpulse/internal/domain/competitor"
	"marketpulse/internal/domain/record"
	"marketpulse/internal/heuristic"
	"marketpulse/internal/service/analysis"
)

// StateName keys the competitor engine's persisted document.
const StateName = "competitor"

// Config contains configuration for the competitor engine.
type Config struct {
	LowCompetitorCutoff  int
	HighCompetitorCutoff int
	GapAppearanceCutoff  int
	EventsTopic          string
}

// DefaultConfig returns the standard engine tuning. A niche with fewer than
// three tracked competitors reads as a high opportunity, more than ten as
// low.
func DefaultConfig() Config {
	return Config{
		LowCompetitorCutoff:  3,
		HighCompetitorCutoff: 10,
		GapAppearanceCutoff:  1,
		EventsTopic:          "pulse",
	}
}

type persistedState struct {
	Data *competitor.Data `json:"data"`
}

// Engine implements competitor.Engine. Profiles are indexed by a value-typed
// (platform, handle) key so identification never degrades into linear scans.
// A concurrent AnalyzeAllData is rejected with a busy result.
type Engine struct {
	store    analysis.StateStore
	eventBus *nats.Conn
	config   Config

	runMu  sync.Mutex
	saveMu sync.Mutex

	mu    sync.RWMutex
	data  *competitor.Data
	index map[competitor.Key]string
}

// NewEngine creates a competitor engine. The event bus is optional.
func NewEngine(store analysis.StateStore, eventBus *nats.Conn, config Config) *Engine {
	if config.HighCompetitorCutoff <= 0 {
		config = DefaultConfig()
	}
	return &Engine{
		store:    store,
		eventBus: eventBus,
		config:   config,
		data:     competitor.NewData(),
		index:    make(map[competitor.Key]string),
	}
}

// AnalyzeAllData runs the five analysis passes over the record snapshot:
// identify, strategies, content, performance, niches.
func (e *Engine) AnalyzeAllData(ctx context.Context, records []record.Record) competitor.AnalysisResult {
	if !e.runMu.TryLock() {
		return competitor.AnalysisResult{Success: false, Message: "competitor analysis already in progress"}
	}
	defer e.runMu.Unlock()

	if len(records) == 0 {
		return competitor.AnalysisResult{Success: false, Message: "no records available for competitor analysis"}
	}

	now := time.Now()
	skipped := 0

	e.mu.Lock()
	for i := range records {
		if err := e.identifyFromRecord(&records[i], now); err != nil {
			skipped++
			log.Warn().Str("record", records[i].ID).Err(err).Msg("skipping malformed record")
		}
	}
	e.analyzeStrategies(now)
	e.analyzeContent()
	e.analyzePerformance()
	e.analyzeNiches()
	e.mu.Unlock()

	result := competitor.AnalysisResult{
		Success:        true,
		RecordsScanned: len(records),
		RecordsSkipped: skipped,
		Data:           e.Snapshot(),
	}

	e.publishAnalyzed(result)
	return result
}

// identifyFromRecord is the identification pass for one record. Panics from
// malformed payloads are contained so the batch continues.
func (e *Engine) identifyFromRecord(rec *record.Record, now time.Time) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("payload extraction: %v", r)
		}
	}()

	extract, ok := extractors[rec.Source]
	if !ok {
		return nil
	}

	for _, item := range rec.Payload.Results {
		cand, ok := extract(item)
		if !ok {
			continue
		}
		if cand.Audience < heuristic.MinAudience(rec.Source) {
			continue
		}
		e.admit(rec.Source, cand, now)
	}
	return nil
}

// admit merges a candidate into the tracked set, creating a profile on
// first sight. Metrics merge by shallow overwrite; content appends after
// de-duplication.
func (e *Engine) admit(platform string, cand candidate, now time.Time) {
	key := competitor.Key{Platform: platform, Handle: cand.PlatformID}
	if key.Handle == "" {
		key.Handle = cand.Name
	}

	id, exists := e.index[key]
	var profile *competitor.Profile
	if exists {
		profile = e.data.Competitors[id]
	}
	if profile == nil {
		niche := competitor.UnclassifiedNiche
		if matched, ok := heuristic.MatchNiche(cand.Name + " " + cand.Description); ok {
			niche = matched
		}
		profile = &competitor.Profile{
			ID:          uuid.New().String(),
			Name:        cand.Name,
			URL:         cand.URL,
			Platform:    platform,
			PlatformID:  cand.PlatformID,
			Niche:       niche,
			Description: cand.Description,
			Metrics:     make(map[string]float64),
			Added:       now,
		}
		e.data.Competitors[profile.ID] = profile
		e.index[key] = profile.ID
	}

	for k, v := range cand.Metrics {
		profile.Metrics[k] = v
	}
	if cand.Description != "" {
		profile.Description = cand.Description
	}
	if cand.URL != "" {
		profile.URL = cand.URL
	}
	profile.Content = appendContent(profile.Content, cand.Content)
	profile.LastUpdated = now
}

// appendContent appends items not already present, keyed by (type, url|id).
func appendContent(existing, add []competitor.ContentItem) []competitor.ContentItem {
	seen := make(map[string]bool, len(existing))
	for _, item := range existing {
		seen[contentKey(item)] = true
	}
	for _, item := range add {
		k := contentKey(item)
		if k == "" || seen[k] {
			continue
		}
		existing = append(existing, item)
		seen[k] = true
	}
	return existing
}

func contentKey(item competitor.ContentItem) string {
	switch {
	case item.URL != "":
		return item.Type + "|" + item.URL
	case item.ID != "":
		return item.Type + "|" + item.ID
	case item.Title != "":
		return item.Type + "|" + item.Title
	}
	return ""
}

// analyzeStrategies derives a coarse operating note per competitor from its
// content shape.
func (e *Engine) analyzeStrategies(now time.Time) {
	e.data.Strategies = make(map[string]competitor.StrategyNote, len(e.data.Competitors))
	for id, p := range e.data.Competitors {
		typeCounts := make(map[string]int)
		var oldest time.Time
		for _, item := range p.Content {
			typeCounts[item.Type]++
			if !item.PublishedAt.IsZero() && (oldest.IsZero() || item.PublishedAt.Before(oldest)) {
				oldest = item.PublishedAt
			}
		}

		types := make([]string, 0, len(typeCounts))
		for t := range typeCounts {
			types = append(types, t)
		}
		sort.Slice(types, func(i, j int) bool {
			if typeCounts[types[i]] != typeCounts[types[j]] {
				return typeCounts[types[i]] > typeCounts[types[j]]
			}
			return types[i] < types[j]
		})

		weeks := 1.0
		if !oldest.IsZero() {
			if span := now.Sub(oldest).Hours() / (24 * 7); span > 1 {
				weeks = span
			}
		}

		e.data.Strategies[id] = competitor.StrategyNote{
			CompetitorID: id,
			Focus:        p.Niche,
			ContentTypes: types,
			PostingRate:  float64(len(p.Content)) / weeks,
		}
	}
}

// analyzeContent rebuilds the global content-type histogram.
func (e *Engine) analyzeContent() {
	e.data.Content = make(map[string]int)
	for _, p := range e.data.Competitors {
		for _, item := range p.Content {
			e.data.Content[item.Type]++
		}
	}
}

// analyzeNiches rebuilds the per-niche gap analyses.
func (e *Engine) analyzeNiches() {
	e.data.Niches = make(map[string]competitor.GapAnalysis, len(heuristic.Niches()))
	for _, niche := range heuristic.Niches() {
		e.data.Niches[niche] = e.gapAnalysis(niche)
	}
}

// Snapshot returns a deep copy of the derived state.
func (e *Engine) Snapshot() *competitor.Data {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return cloneData(e.data)
}

// Competitors returns the global list, unclassified included, ordered by
// audience descending.
func (e *Engine) Competitors() []competitor.Profile {
	e.mu.RLock()
	defer e.mu.RUnlock()

	out := make([]competitor.Profile, 0, len(e.data.Competitors))
	for _, p := range e.data.Competitors {
		out = append(out, *cloneProfile(p))
	}
	sort.Slice(out, func(i, j int) bool {
		ai, aj := audience(&out[i]), audience(&out[j])
		if ai != aj {
			return ai > aj
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// CompetitorsByNiche returns tracked competitors for one niche. The
// unclassified bucket is excluded from niche-scoped views.
func (e *Engine) CompetitorsByNiche(niche string) []competitor.Profile {
	if niche == competitor.UnclassifiedNiche {
		return []competitor.Profile{}
	}

	e.mu.RLock()
	defer e.mu.RUnlock()

	out := []competitor.Profile{}
	for _, p := range e.data.Competitors {
		if p.Niche == niche {
			out = append(out, *cloneProfile(p))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		ai, aj := audience(&out[i]), audience(&out[j])
		if ai != aj {
			return ai > aj
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// GapAnalyses recomputes the per-niche gap analyses from the current
// profiles.
func (e *Engine) GapAnalyses() map[string]competitor.GapAnalysis {
	e.mu.RLock()
	defer e.mu.RUnlock()

	out := make(map[string]competitor.GapAnalysis, len(heuristic.Niches()))
	for _, niche := range heuristic.Niches() {
		out[niche] = e.gapAnalysis(niche)
	}
	return out
}

// UpdateCompetitor shallow-merges metrics and replaces the description on an
// existing profile.
func (e *Engine) UpdateCompetitor(ctx context.Context, id string, metrics map[string]float64, description string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	profile, ok := e.data.Competitors[id]
	if !ok {
		return fmt.Errorf("update competitor %s: %w", id, competitor.ErrNotFound)
	}

	for k, v := range metrics {
		profile.Metrics[k] = v
	}
	if description != "" {
		profile.Description = description
	}
	profile.LastUpdated = time.Now()
	return nil
}

// RemoveCompetitor deletes a profile and its index entry.
func (e *Engine) RemoveCompetitor(ctx context.Context, id string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	profile, ok := e.data.Competitors[id]
	if !ok {
		return fmt.Errorf("remove competitor %s: %w", id, competitor.ErrNotFound)
	}

	delete(e.index, profile.Identity())
	delete(e.data.Competitors, id)
	delete(e.data.Strategies, id)
	return nil
}

// Load restores persisted state, rebuilding the identity index. A corrupt
// or absent document falls back to an empty tree.
func (e *Engine) Load(ctx context.Context) error {
	var state persistedState
	found, err := e.store.LoadState(ctx, StateName, &state)
	if err != nil || !found || state.Data == nil {
		if err != nil {
			log.Warn().Err(err).Msg("competitor state unreadable, starting empty")
		}
		e.mu.Lock()
		e.data = competitor.NewData()
		e.index = make(map[competitor.Key]string)
		e.mu.Unlock()
		return nil
	}

	index := make(map[competitor.Key]string, len(state.Data.Competitors))
	for id, p := range state.Data.Competitors {
		if p.Metrics == nil {
			p.Metrics = make(map[string]float64)
		}
		index[p.Identity()] = id
	}

	e.mu.Lock()
	e.data = state.Data
	e.index = index
	e.mu.Unlock()
	return nil
}

// Save persists the derived state as one whole-document overwrite,
// serialized on a writer lock.
func (e *Engine) Save(ctx context.Context) error {
	e.saveMu.Lock()
	defer e.saveMu.Unlock()

	e.mu.RLock()
	state := persistedState{Data: cloneData(e.data)}
	e.mu.RUnlock()

	return e.store.SaveState(ctx, StateName, state)
}

func (e *Engine) publishAnalyzed(result competitor.AnalysisResult) {
	if e.eventBus == nil {
		return
	}
	payload, err := json.Marshal(map[string]any{
		"engine":      StateName,
		"scanned":     result.RecordsScanned,
		"skipped":     result.RecordsSkipped,
		"competitors": len(result.Data.Competitors),
	})
	if err != nil {
		return
	}
	topic := fmt.Sprintf("%s.competitor.analyzed", e.config.EventsTopic)
	if err := e.eventBus.Publish(topic, payload); err != nil {
		log.Warn().Err(err).Str("topic", topic).Msg("failed to publish competitor event")
	}
}

// audience reads the platform's configured audience metric, falling back to
// a scan of the known metric names for profiles from unconfigured platforms.
func audience(p *competitor.Profile) float64 {
	if metric := heuristic.AudienceMetric(p.Platform); metric != "" {
		if v, ok := p.Metrics[metric]; ok {
			return v
		}
	}
	for _, k := range []string{"followers", "subscribers", "karma", "saves"} {
		if v, ok := p.Metrics[k]; ok {
			return v
		}
	}
	return 0
}

func cloneProfile(p *competitor.Profile) *competitor.Profile {
	cp := *p
	cp.Metrics = make(map[string]float64, len(p.Metrics))
	for k, v := range p.Metrics {
		cp.Metrics[k] = v
	}
	cp.Content = append([]competitor.ContentItem{}, p.Content...)
	return &cp
}

func cloneData(d *competitor.Data) *competitor.Data {
	out := competitor.NewData()
	for id, p := range d.Competitors {
		out.Competitors[id] = cloneProfile(p)
	}
	for id, s := range d.Strategies {
		note := s
		note.ContentTypes = append([]string{}, s.ContentTypes...)
		out.Strategies[id] = note
	}
	for k, v := range d.Content {
		out.Content[k] = v
	}
	out.Performance = append([]competitor.PerformanceEntry{}, d.Performance...)
	for k, v := range d.Niches {
		gap := v
		gap.ContentGaps = append([]string{}, v.ContentGaps...)
		out.Niches[k] = gap
	}
	return out
}
