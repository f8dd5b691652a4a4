package competitor

import (
	"sort"

	"marketpulse/internal/domain/competitor"
)

// Composite weights for the performance score. Audience carries the most
// signal; content volume and engagement split the rest.
const (
	weightAudience   = 0.4
	weightVolume     = 0.3
	weightEngagement = 0.3
)

// analyzePerformance rebuilds the performance ranking: a 0-100 composite of
// normalized audience size, content volume, and engagement ratio. Ties
// break by audience descending.
func (e *Engine) analyzePerformance() {
	var maxAudience, maxVolume float64
	for _, p := range e.data.Competitors {
		if a := audience(p); a > maxAudience {
			maxAudience = a
		}
		if v := float64(len(p.Content)); v > maxVolume {
			maxVolume = v
		}
	}

	entries := make([]competitor.PerformanceEntry, 0, len(e.data.Competitors))
	for id, p := range e.data.Competitors {
		a := audience(p)

		var normAudience, normVolume float64
		if maxAudience > 0 {
			normAudience = a / maxAudience
		}
		if maxVolume > 0 {
			normVolume = float64(len(p.Content)) / maxVolume
		}

		// Engagement events over audience, clamped to [0,1] before
		// weighting so a viral outlier cannot dominate the composite.
		var ratio float64
		if a > 0 {
			var events float64
			for _, item := range p.Content {
				events += item.Engagement
			}
			if extra, ok := p.Metrics["engagement"]; ok {
				events += extra
			}
			ratio = events / a
			if ratio > 1 {
				ratio = 1
			}
		}

		score := (normAudience*weightAudience + normVolume*weightVolume + ratio*weightEngagement) * 100

		entries = append(entries, competitor.PerformanceEntry{
			CompetitorID: id,
			Name:         p.Name,
			Platform:     p.Platform,
			Niche:        p.Niche,
			Score:        score,
			Audience:     a,
		})
	}

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Score != entries[j].Score {
			return entries[i].Score > entries[j].Score
		}
		if entries[i].Audience != entries[j].Audience {
			return entries[i].Audience > entries[j].Audience
		}
		return entries[i].Name < entries[j].Name
	})

	e.data.Performance = entries
}
