package strategy

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"marketpulse/internal/domain/competitor"
	"marketpulse/internal/domain/strategy"
	"marketpulse/internal/domain/trend"
	"marketpulse/internal/heuristic"
)

const (
	ideasPerNiche    = 10
	productsPerNiche = 5
)

// buildContentFacet synthesizes content ideas per niche from keyword and
// content-type combinations, flagging ideas that land on a content gap.
func buildContentFacet(opts strategy.Options, priorities []nichePriority, trends *trend.Data, competitors *competitor.Data) []strategy.ContentPlan {
	var totalPriority float64
	for _, np := range priorities {
		totalPriority += np.Priority
	}

	// Weekly capacity: roughly two hours of work per published piece.
	capacity := opts.WeeklyHours / 2
	if capacity < len(priorities) {
		capacity = len(priorities)
	}

	plans := make([]strategy.ContentPlan, 0, len(priorities))
	for _, np := range priorities {
		keywords := heuristic.NicheKeywords(np.Niche)
		if p := trends.Niches[np.Niche]; p != nil && len(p.Keywords) > 0 {
			keywords = append(append([]string{}, keywords...), p.Keywords...)
		}

		gapSet := make(map[string]bool)
		if gap, ok := competitors.Niches[np.Niche]; ok {
			for _, g := range gap.ContentGaps {
				gapSet[strings.ToLower(g)] = true
			}
		}

		var ideas []strategy.ContentIdea
	build:
		for _, keyword := range keywords {
			for _, contentType := range opts.ContentTypes {
				if len(ideas) >= ideasPerNiche {
					break build
				}
				ideas = append(ideas, strategy.ContentIdea{
					Title:       ideaTitle(contentType, keyword, np.Niche),
					Keyword:     keyword,
					ContentType: contentType,
					FillsGap:    gapSet[strings.ToLower(keyword)],
				})
			}
		}

		weekly := 1
		if totalPriority > 0 {
			weekly = int(math.Round(np.Priority / totalPriority * float64(capacity)))
			if weekly < 1 {
				weekly = 1
			}
		}

		plans = append(plans, strategy.ContentPlan{
			Niche:       np.Niche,
			Priority:    np.Priority,
			Ideas:       ideas,
			WeeklyPosts: weekly,
			TypeMix:     typeMix(opts.ContentTypes),
		})
	}
	return plans
}

// typeMix splits the posting mix across content types, favoring earlier
// (stronger) types with a harmonic falloff. Shares sum to 1.
func typeMix(types []string) map[string]float64 {
	if len(types) == 0 {
		return map[string]float64{}
	}
	var total float64
	for i := range types {
		total += 1 / float64(i+1)
	}
	mix := make(map[string]float64, len(types))
	for i, t := range types {
		mix[t] = math.Round(1/float64(i+1)/total*100) / 100
	}
	return mix
}

func ideaTitle(contentType, keyword, niche string) string {
	switch contentType {
	case "video":
		return fmt.Sprintf("Video walkthrough: %s for the %s audience", keyword, niche)
	case "thread":
		return fmt.Sprintf("Thread: what nobody tells you about %s", keyword)
	case "infographic":
		return fmt.Sprintf("Infographic: %s by the numbers", keyword)
	case "newsletter":
		return fmt.Sprintf("Newsletter deep dive: %s this week", keyword)
	default:
		return fmt.Sprintf("Guide: getting results with %s in %s", keyword, niche)
	}
}

// buildPlatformFacet ranks the configured platforms per niche by the fixed
// compatibility table. Posting frequency grows monotonically with
// effectiveness; the top-ranked platform is the niche's primary.
func buildPlatformFacet(opts strategy.Options, priorities []nichePriority) []strategy.PlatformPlan {
	plans := make([]strategy.PlatformPlan, 0, len(priorities))
	for _, np := range priorities {
		scores := make([]strategy.PlatformScore, 0, len(opts.Platforms))
		for _, platform := range opts.Platforms {
			eff := heuristic.PlatformEffectiveness(np.Niche, platform)
			scores = append(scores, strategy.PlatformScore{
				Platform:      platform,
				Effectiveness: eff,
				PostsPerWeek:  postsPerWeek(eff),
			})
		}
		sort.Slice(scores, func(i, j int) bool {
			if scores[i].Effectiveness != scores[j].Effectiveness {
				return scores[i].Effectiveness > scores[j].Effectiveness
			}
			return scores[i].Platform < scores[j].Platform
		})

		plan := strategy.PlatformPlan{Niche: np.Niche, Scores: scores}
		if len(scores) > 0 {
			plan.Primary = scores[0].Platform
		}
		plans = append(plans, plan)
	}
	return plans
}

// postsPerWeek maps a 0-10 effectiveness score to a posting cadence.
func postsPerWeek(effectiveness float64) int {
	posts := int(math.Ceil(effectiveness / 2))
	if posts < 1 {
		posts = 1
	}
	return posts
}

// buildProductFacet picks the top trend products relevant to each niche,
// ordered by sentiment then mentions, with the niche's affiliate network
// attached.
func buildProductFacet(opts strategy.Options, priorities []nichePriority, trends *trend.Data) []strategy.ProductPlan {
	plans := make([]strategy.ProductPlan, 0, len(priorities))
	for _, np := range priorities {
		keywords := heuristic.NicheKeywords(np.Niche)
		network := heuristic.AffiliateNetwork(np.Niche)

		var matched []*trend.ProductProfile
		for _, p := range trends.Products {
			if _, ok := heuristic.ContainsAny(p.Title+" "+p.Description, keywords); ok {
				matched = append(matched, p)
			}
		}
		sort.Slice(matched, func(i, j int) bool {
			if matched[i].Sentiment != matched[j].Sentiment {
				return matched[i].Sentiment > matched[j].Sentiment
			}
			if matched[i].Mentions != matched[j].Mentions {
				return matched[i].Mentions > matched[j].Mentions
			}
			return matched[i].Title < matched[j].Title
		})
		if len(matched) > productsPerNiche {
			matched = matched[:productsPerNiche]
		}

		picks := make([]strategy.ProductPick, 0, len(matched))
		for _, p := range matched {
			picks = append(picks, strategy.ProductPick{
				ProductID:  p.ID,
				Title:      p.Title,
				URL:        p.URL,
				Sentiment:  p.Sentiment,
				Mentions:   p.Mentions,
				Network:    network.Network,
				Commission: network.Commission,
			})
		}
		plans = append(plans, strategy.ProductPlan{Niche: np.Niche, Products: picks})
	}
	return plans
}

// buildBudgetFacet splits the budget across focus niches proportionally to
// priority, rounded to cents. The rounding remainder folds into the largest
// allocation so the total always matches the budget.
func buildBudgetFacet(opts strategy.Options, priorities []nichePriority) []strategy.BudgetAllocation {
	var totalPriority float64
	for _, np := range priorities {
		totalPriority += np.Priority
	}
	if totalPriority == 0 || len(priorities) == 0 {
		return []strategy.BudgetAllocation{}
	}

	allocations := make([]strategy.BudgetAllocation, 0, len(priorities))
	var allocated float64
	for _, np := range priorities {
		amount := math.Round(np.Priority/totalPriority*opts.Budget*100) / 100
		allocated += amount
		allocations = append(allocations, strategy.BudgetAllocation{
			Niche:    np.Niche,
			Priority: np.Priority,
			Amount:   amount,
		})
	}

	// priorities are sorted descending, so index 0 is the largest share.
	if residue := math.Round((opts.Budget-allocated)*100) / 100; residue != 0 {
		allocations[0].Amount = math.Round((allocations[0].Amount+residue)*100) / 100
	}
	return allocations
}

// buildTimelineFacet lays the fixed phase sequence onto the calendar from
// now, scaling phase durations to the configured timeframe. The income
// projection rises monotonically from zero and reaches the goal exactly at
// the final phase boundary.
func buildTimelineFacet(opts strategy.Options, now time.Time) []strategy.TimelinePhase {
	phases := heuristic.TimelinePhases()
	if len(phases) == 0 {
		return []strategy.TimelinePhase{}
	}

	var baseTotal int
	for _, p := range phases {
		baseTotal += p.Days
	}

	out := make([]strategy.TimelinePhase, 0, len(phases))
	cursor := now
	cumDays := 0
	firstPhaseDays := scaleDays(phases[0].Days, opts.TimeframeDays, baseTotal)
	totalDays := 0
	for _, p := range phases {
		totalDays += scaleDays(p.Days, opts.TimeframeDays, baseTotal)
	}

	for i, p := range phases {
		days := scaleDays(p.Days, opts.TimeframeDays, baseTotal)
		cumDays += days
		end := cursor.AddDate(0, 0, days)

		// No income during the foundation phase; a linear ramp after it,
		// anchored at the goal on the final boundary.
		var income float64
		if cumDays > firstPhaseDays && totalDays > firstPhaseDays {
			income = opts.GoalIncome * float64(cumDays-firstPhaseDays) / float64(totalDays-firstPhaseDays)
			income = math.Round(income*100) / 100
		}
		if i == len(phases)-1 {
			income = opts.GoalIncome
		}

		out = append(out, strategy.TimelinePhase{
			Name:            p.Name,
			StartDate:       cursor,
			EndDate:         end,
			DurationDays:    days,
			Tasks:           append([]string{}, p.Tasks...),
			ProjectedIncome: income,
		})
		cursor = end
	}
	return out
}

func scaleDays(phaseDays, timeframe, baseTotal int) int {
	if baseTotal == 0 {
		return phaseDays
	}
	days := int(math.Round(float64(phaseDays) * float64(timeframe) / float64(baseTotal)))
	if days < 1 {
		days = 1
	}
	return days
}

// buildSummary condenses the plan: top-3 niches by priority, top-2
// platforms by effectiveness across niches, top-3 products, and the two
// derived day counts from the timeline.
func buildSummary(opts strategy.Options, priorities []nichePriority, plan *strategy.Plan) *strategy.Summary {
	summary := &strategy.Summary{}

	for i, np := range priorities {
		if i >= 3 {
			break
		}
		summary.TopNiches = append(summary.TopNiches, np.Niche)
	}

	platformTotals := make(map[string]float64)
	for _, pp := range plan.Platform {
		for _, s := range pp.Scores {
			platformTotals[s.Platform] += s.Effectiveness
		}
	}
	platforms := make([]string, 0, len(platformTotals))
	for p := range platformTotals {
		platforms = append(platforms, p)
	}
	sort.Slice(platforms, func(i, j int) bool {
		if platformTotals[platforms[i]] != platformTotals[platforms[j]] {
			return platformTotals[platforms[i]] > platformTotals[platforms[j]]
		}
		return platforms[i] < platforms[j]
	})
	if len(platforms) > 2 {
		platforms = platforms[:2]
	}
	summary.TopPlatforms = platforms

	var picks []strategy.ProductPick
	for _, pp := range plan.Product {
		picks = append(picks, pp.Products...)
	}
	sort.Slice(picks, func(i, j int) bool {
		if picks[i].Sentiment != picks[j].Sentiment {
			return picks[i].Sentiment > picks[j].Sentiment
		}
		if picks[i].Mentions != picks[j].Mentions {
			return picks[i].Mentions > picks[j].Mentions
		}
		return picks[i].Title < picks[j].Title
	})
	for i, p := range picks {
		if i >= 3 {
			break
		}
		summary.TopProducts = append(summary.TopProducts, p.Title)
	}

	cumDays := 0
	for _, phase := range plan.Timeline {
		cumDays += phase.DurationDays
		if summary.DaysToFirstIncome == 0 && phase.ProjectedIncome > 0 {
			summary.DaysToFirstIncome = cumDays
		}
		if phase.ProjectedIncome >= opts.GoalIncome {
			summary.DaysToGoalIncome = cumDays
			break
		}
	}
	if summary.DaysToGoalIncome == 0 {
		summary.DaysToGoalIncome = cumDays
	}
	return summary
}
