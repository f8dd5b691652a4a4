package strategy

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"

	"marketpulse/internal/domain/competitor"
	"marketpulse/internal/domain/strategy"
	"marketpulse/internal/domain/trend"
	"marketpulse/internal/heuristic"
)

// Config contains configuration for the strategy generator.
type Config struct {
	EventsTopic string
}

// Opportunity weights for niche prioritization; a niche missing from the
// gap analyses sits between medium and low.
const (
	weightOpportunityHigh    = 3.0
	weightOpportunityMedium  = 2.0
	weightOpportunityLow     = 1.0
	weightOpportunityUnknown = 1.5

	basePriority = 1.0
)

// Generator implements strategy.Generator. Generation is not reentrant: a
// call arriving while one is in flight is rejected with a busy result so
// two passes can never interleave partial facet lists.
type Generator struct {
	eventBus *nats.Conn
	config   Config

	runMu sync.Mutex

	mu       sync.RWMutex
	lastPlan *strategy.Plan
}

// NewGenerator creates a strategy generator. The event bus is optional.
func NewGenerator(eventBus *nats.Conn, config Config) *Generator {
	return &Generator{eventBus: eventBus, config: config}
}

// LastPlan returns the plan from the most recent successful generation,
// nil before the first one.
func (g *Generator) LastPlan() *strategy.Plan {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.lastPlan
}

// GenerateStrategy synthesizes the five facets from the supplied snapshots.
// All facet lists are rebuilt wholesale; nothing carries over from earlier
// generations.
func (g *Generator) GenerateStrategy(ctx context.Context, opts strategy.Options, trends *trend.Data, competitors *competitor.Data) strategy.Result {
	if !g.runMu.TryLock() {
		return strategy.Result{Success: false, Message: "strategy generation already in progress"}
	}
	defer g.runMu.Unlock()

	opts.ApplyDefaults(heuristic.Niches(), heuristic.Platforms(), heuristic.ContentTypes())
	if trends == nil {
		trends = trend.NewData()
	}
	if competitors == nil {
		competitors = competitor.NewData()
	}

	priorities := nichePriorities(opts.FocusNiches, trends, competitors)
	now := time.Now()

	plan := &strategy.Plan{
		Content:  buildContentFacet(opts, priorities, trends, competitors),
		Platform: buildPlatformFacet(opts, priorities),
		Product:  buildProductFacet(opts, priorities, trends),
		Budget:   buildBudgetFacet(opts, priorities),
		Timeline: buildTimelineFacet(opts, now),
	}
	summary := buildSummary(opts, priorities, plan)

	g.mu.Lock()
	g.lastPlan = plan
	g.mu.Unlock()

	g.publishGenerated(opts, summary)

	return strategy.Result{
		Success:     true,
		Plan:        plan,
		Summary:     summary,
		GeneratedAt: now,
	}
}

// nichePriority pairs a focus niche with its combined score.
type nichePriority struct {
	Niche    string
	Priority float64
}

// nichePriorities combines trend popularity and growth with the gap
// analysis opportunity level into one score per focus niche. Every focus
// niche gets at least the baseline so it appears in every facet.
func nichePriorities(focus []string, trends *trend.Data, competitors *competitor.Data) []nichePriority {
	var maxPop float64
	for _, n := range focus {
		if p := trends.Niches[n]; p != nil && float64(p.Popularity) > maxPop {
			maxPop = float64(p.Popularity)
		}
	}

	out := make([]nichePriority, 0, len(focus))
	for _, n := range focus {
		score := basePriority

		if p := trends.Niches[n]; p != nil {
			if maxPop > 0 {
				score += float64(p.Popularity) / maxPop * 4
			}
			growth := p.Growth
			if growth > 100 {
				growth = 100
			}
			if growth > 0 {
				score += growth / 100 * 3
			}
		}

		oppWeight := weightOpportunityUnknown
		if gap, ok := competitors.Niches[n]; ok {
			switch gap.OpportunityLevel {
			case competitor.OpportunityHigh:
				oppWeight = weightOpportunityHigh
			case competitor.OpportunityMedium:
				oppWeight = weightOpportunityMedium
			case competitor.OpportunityLow:
				oppWeight = weightOpportunityLow
			}
		}
		score += oppWeight

		out = append(out, nichePriority{Niche: n, Priority: score})
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Priority != out[j].Priority {
			return out[i].Priority > out[j].Priority
		}
		return out[i].Niche < out[j].Niche
	})
	return out
}

func (g *Generator) publishGenerated(opts strategy.Options, summary *strategy.Summary) {
	if g.eventBus == nil {
		return
	}
	payload, err := json.Marshal(map[string]any{
		"budget":     opts.Budget,
		"timeframe":  opts.TimeframeDays,
		"topNiches":  summary.TopNiches,
		"goalIncome": opts.GoalIncome,
	})
	if err != nil {
		return
	}
	topic := fmt.Sprintf("%s.strategy.generated", g.config.EventsTopic)
	if err := g.eventBus.Publish(topic, payload); err != nil {
		log.Warn().Err(err).Str("topic", topic).Msg("failed to publish strategy event")
	}
}
