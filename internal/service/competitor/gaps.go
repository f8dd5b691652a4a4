package competitor

import (
	"fmt"
	"strings"

	"marketpulse/internal/domain/competitor"
	"marketpulse/internal/heuristic"
)

// gapAnalysis derives the competitive picture for one niche from the
// current profiles. Caller holds at least a read lock.
func (e *Engine) gapAnalysis(niche string) competitor.GapAnalysis {
	var tracked []*competitor.Profile
	for _, p := range e.data.Competitors {
		if p.Niche == niche {
			tracked = append(tracked, p)
		}
	}

	// A niche keyword nobody in the niche writes about is a content gap.
	var gaps []string
	for _, keyword := range heuristic.NicheKeywords(niche) {
		appearances := 0
		for _, p := range tracked {
			for _, item := range p.Content {
				text := strings.ToLower(item.Title + " " + item.Description)
				if strings.Contains(text, strings.ToLower(keyword)) {
					appearances++
				}
			}
		}
		if appearances < e.config.GapAppearanceCutoff {
			gaps = append(gaps, keyword)
		}
	}

	count := len(tracked)
	level := competitor.OpportunityMedium
	switch {
	case count < e.config.LowCompetitorCutoff:
		level = competitor.OpportunityHigh
	case count > e.config.HighCompetitorCutoff:
		level = competitor.OpportunityLow
	}

	return competitor.GapAnalysis{
		Niche:            niche,
		CompetitorCount:  count,
		OpportunityLevel: level,
		Recommendation:   recommendationFor(niche, level, count, gaps),
		ContentGaps:      gaps,
	}
}

// recommendationFor renders the templated recommendation for a niche from
// its opportunity level and top content gaps.
func recommendationFor(niche string, level competitor.OpportunityLevel, count int, gaps []string) string {
	top := gaps
	if len(top) > 3 {
		top = top[:3]
	}
	gapText := "no obvious content gaps"
	if len(top) > 0 {
		gapText = "uncovered topics: " + strings.Join(top, ", ")
	}

	switch level {
	case competitor.OpportunityHigh:
		return fmt.Sprintf("Only %d competitors tracked in %s. Enter aggressively; %s.", count, niche, gapText)
	case competitor.OpportunityLow:
		return fmt.Sprintf("%s is crowded with %d tracked competitors. Differentiate narrowly; %s.", niche, count, gapText)
	default:
		return fmt.Sprintf("%s has moderate competition (%d tracked). Focus on %s.", niche, count, gapText)
	}
}
