package heuristic

import (
	_ "embed"
	"fmt"
	"sort"

	"gopkg.in/yaml.v3"
)

//go:embed tables.yaml
var tablesYAML []byte

type nicheEntry struct {
	Keywords []string `yaml:"keywords"`
}

type platformEntry struct {
	AudienceMetric string  `yaml:"audience_metric"`
	MinAudience    float64 `yaml:"min_audience"`
}

// Network is an affiliate network recommendation for a niche.
type Network struct {
	Network    string `yaml:"network"`
	Commission string `yaml:"commission"`
}

// Phase is one fixed timeline phase.
type Phase struct {
	Name  string   `yaml:"name"`
	Days  int      `yaml:"days"`
	Tasks []string `yaml:"tasks"`
}

type tables struct {
	Niches                map[string]nicheEntry         `yaml:"niches"`
	Platforms             map[string]platformEntry      `yaml:"platforms"`
	PlatformEffectiveness map[string]map[string]float64 `yaml:"platform_effectiveness"`
	DefaultEffectiveness  float64                       `yaml:"default_effectiveness"`
	ContentTypes          []string                      `yaml:"content_types"`
	AffiliateNetworks     map[string]Network            `yaml:"affiliate_networks"`
	DefaultNetwork        Network                       `yaml:"default_network"`
	TimelinePhases        []Phase                       `yaml:"timeline_phases"`
}

var fixed tables

func init() {
	if err := yaml.Unmarshal(tablesYAML, &fixed); err != nil {
		panic(fmt.Sprintf("heuristic: invalid embedded tables: %v", err))
	}
}

// Niches returns the configured niche names, sorted for stable iteration.
func Niches() []string {
	names := make([]string, 0, len(fixed.Niches))
	for name := range fixed.Niches {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// NicheKeywords returns the fixed keyword list for a niche, nil if the niche
// is not configured.
func NicheKeywords(niche string) []string {
	return fixed.Niches[niche].Keywords
}

// Platforms returns the configured platform names, sorted.
func Platforms() []string {
	names := make([]string, 0, len(fixed.Platforms))
	for name := range fixed.Platforms {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// MinAudience returns the admission threshold for a platform. Unknown
// platforms get 0, which admits everything.
func MinAudience(platform string) float64 {
	return fixed.Platforms[platform].MinAudience
}

// AudienceMetric names the metric the threshold applies to (followers,
// karma, subscribers, saves).
func AudienceMetric(platform string) string {
	return fixed.Platforms[platform].AudienceMetric
}

// PlatformEffectiveness returns the fixed 0-10 compatibility score for a
// niche/platform pair, falling back to the table default.
func PlatformEffectiveness(niche, platform string) float64 {
	if row, ok := fixed.PlatformEffectiveness[niche]; ok {
		if score, ok := row[platform]; ok {
			return score
		}
	}
	return fixed.DefaultEffectiveness
}

// ContentTypes returns the configured content type list.
func ContentTypes() []string {
	return append([]string{}, fixed.ContentTypes...)
}

// AffiliateNetwork returns the network recommendation for a niche, falling
// back to the table default.
func AffiliateNetwork(niche string) Network {
	if n, ok := fixed.AffiliateNetworks[niche]; ok {
		return n
	}
	return fixed.DefaultNetwork
}

// TimelinePhases returns the fixed ordered phase sequence.
func TimelinePhases() []Phase {
	out := make([]Phase, len(fixed.TimelinePhases))
	copy(out, fixed.TimelinePhases)
	return out
}
