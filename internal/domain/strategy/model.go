package strategy

import (
	"time"
)

// Options is the configuration surface for one strategy generation pass.
// Every field is optional; zero values are replaced by documented defaults.
// Unknown fields in a JSON body are ignored, not rejected.
type Options struct {
	Budget        float64  `json:"budget"`
	TimeframeDays int      `json:"timeframe"`
	Platforms     []string `json:"platforms"`
	FocusNiches   []string `json:"focusNiches"`
	ContentTypes  []string `json:"contentTypes"`
	GoalIncome    float64  `json:"goalIncome"`
	WeeklyHours   int      `json:"weeklyHours"`
}

// Defaults applied by ApplyDefaults.
const (
	DefaultBudget        = 20.0
	DefaultTimeframeDays = 90
	DefaultGoalIncome    = 10000.0
	DefaultWeeklyHours   = 10
)

// ApplyDefaults fills unset fields in place.
func (o *Options) ApplyDefaults(allNiches, allPlatforms, allContentTypes []string) {
	if o.Budget <= 0 {
		o.Budget = DefaultBudget
	}
	if o.TimeframeDays <= 0 {
		o.TimeframeDays = DefaultTimeframeDays
	}
	if o.GoalIncome <= 0 {
		o.GoalIncome = DefaultGoalIncome
	}
	if o.WeeklyHours <= 0 {
		o.WeeklyHours = DefaultWeeklyHours
	}
	if len(o.FocusNiches) == 0 {
		o.FocusNiches = append([]string{}, allNiches...)
	}
	if len(o.Platforms) == 0 {
		o.Platforms = append([]string{}, allPlatforms...)
	}
	if len(o.ContentTypes) == 0 {
		o.ContentTypes = append([]string{}, allContentTypes...)
	}
}

// ContentIdea is one keyword x content-type combination for a niche.
type ContentIdea struct {
	Title       string `json:"title"`
	Keyword     string `json:"keyword"`
	ContentType string `json:"contentType"`
	FillsGap    bool   `json:"fillsGap"`
}

// ContentPlan is the content facet entry for one niche.
type ContentPlan struct {
	Niche       string             `json:"niche"`
	Priority    float64            `json:"priority"`
	Ideas       []ContentIdea      `json:"ideas"`
	WeeklyPosts int                `json:"weeklyPosts"`
	TypeMix     map[string]float64 `json:"typeMix"`
}

// PlatformScore ranks one platform for one niche.
type PlatformScore struct {
	Platform      string  `json:"platform"`
	Effectiveness float64 `json:"effectiveness"`
	PostsPerWeek  int     `json:"postsPerWeek"`
}

// PlatformPlan is the platform facet entry for one niche. Scores are sorted
// by effectiveness descending; Primary is the top-ranked platform.
type PlatformPlan struct {
	Niche   string          `json:"niche"`
	Primary string          `json:"primary"`
	Scores  []PlatformScore `json:"scores"`
}

// ProductPick is one recommended product with its affiliate attachment.
type ProductPick struct {
	ProductID  string  `json:"productId"`
	Title      string  `json:"title"`
	URL        string  `json:"url,omitempty"`
	Sentiment  float64 `json:"sentiment"`
	Mentions   int     `json:"mentions"`
	Network    string  `json:"network"`
	Commission string  `json:"commission"`
}

// ProductPlan is the product facet entry for one niche.
type ProductPlan struct {
	Niche    string        `json:"niche"`
	Products []ProductPick `json:"products"`
}

// BudgetAllocation is the budget facet entry for one niche. Allocations sum
// to the configured budget within a cent.
type BudgetAllocation struct {
	Niche    string  `json:"niche"`
	Priority float64 `json:"priority"`
	Amount   float64 `json:"amount"`
}

// TimelinePhase is one fixed phase in the execution timeline.
type TimelinePhase struct {
	Name            string    `json:"name"`
	StartDate       time.Time `json:"startDate"`
	EndDate         time.Time `json:"endDate"`
	DurationDays    int       `json:"durationDays"`
	Tasks           []string  `json:"tasks"`
	ProjectedIncome float64   `json:"projectedIncome"`
}

// Plan holds the five strategy facets. Every generation pass replaces all
// five lists wholesale.
type Plan struct {
	Content  []ContentPlan      `json:"content"`
	Platform []PlatformPlan     `json:"platform"`
	Product  []ProductPlan      `json:"product"`
	Budget   []BudgetAllocation `json:"budget"`
	Timeline []TimelinePhase    `json:"timeline"`
}

// Summary condenses a plan into headline numbers for the dashboard.
type Summary struct {
	TopNiches         []string `json:"topNiches"`
	TopPlatforms      []string `json:"topPlatforms"`
	TopProducts       []string `json:"topProducts"`
	DaysToFirstIncome int      `json:"daysToFirstIncome"`
	DaysToGoalIncome  int      `json:"daysToGoalIncome"`
}

// Result reports the outcome of one generation pass.
type Result struct {
	Success     bool      `json:"success"`
	Message     string    `json:"message,omitempty"`
	Plan        *Plan     `json:"strategies,omitempty"`
	Summary     *Summary  `json:"summary,omitempty"`
	GeneratedAt time.Time `json:"generatedAt"`
}
