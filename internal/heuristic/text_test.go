package heuristic

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenize(t *testing.T) {
	tokens := Tokenize("Best AI-powered Tools, 2024!")
	assert.Equal(t, []string{"best", "ai", "powered", "tools", "2024"}, tokens)
}

func TestTopTokens_FrequencyThenAlpha(t *testing.T) {
	text := "budget budget budget savings savings credit"
	tokens := TopTokens(text, 2, 3)
	require.Len(t, tokens, 2)
	assert.Equal(t, "budget", tokens[0])
	assert.Equal(t, "savings", tokens[1])
}

func TestTopTokens_MinLength(t *testing.T) {
	tokens := TopTokens("ai ai ai automation", 10, 3)
	assert.Equal(t, []string{"automation"}, tokens)
}

func TestContainsAny_CaseInsensitive(t *testing.T) {
	match, ok := ContainsAny("The BEST Budget Apps", []string{"budget", "credit"})
	require.True(t, ok)
	assert.Equal(t, "budget", match)

	_, ok = ContainsAny("nothing relevant here", []string{"budget"})
	assert.False(t, ok)
}

func TestMatchNiche(t *testing.T) {
	niche, ok := MatchNiche("daily ai automation news")
	require.True(t, ok)
	assert.Equal(t, "AI & Automation Tools", niche)

	_, ok = MatchNiche("zzz qqq")
	assert.False(t, ok)
}

func TestFlattenValue_Deterministic(t *testing.T) {
	item := map[string]any{
		"title": "Great workout plan",
		"meta":  map[string]any{"views": 10, "author": "coach"},
	}
	first := FlattenValue(item)
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, FlattenValue(item))
	}
	assert.Contains(t, first, "Great workout plan")
	assert.Contains(t, first, "coach")
}

func TestNestedField(t *testing.T) {
	item := map[string]any{
		"user": map[string]any{"followers_count": float64(5000)},
	}
	v, ok := NestedField(item, "user.followers_count")
	require.True(t, ok)
	assert.Equal(t, float64(5000), v)

	_, ok = NestedField(item, "user.missing")
	assert.False(t, ok)
}

func TestTables_FixedNicheSet(t *testing.T) {
	niches := Niches()
	require.NotEmpty(t, niches)
	assert.Contains(t, niches, "AI & Automation Tools")
	assert.Contains(t, NicheKeywords("AI & Automation Tools"), "ai")
}

func TestTables_PlatformThresholds(t *testing.T) {
	assert.Equal(t, float64(1000), MinAudience("twitter"))
	assert.Equal(t, float64(0), MinAudience("unknown-platform"))
	assert.Equal(t, "followers", AudienceMetric("twitter"))
}

func TestTables_EffectivenessFallback(t *testing.T) {
	assert.Equal(t, float64(9), PlatformEffectiveness("AI & Automation Tools", "twitter"))
	assert.Equal(t, float64(5), PlatformEffectiveness("Unknown Niche", "twitter"))
}

func TestTables_TimelinePhasesOrdered(t *testing.T) {
	phases := TimelinePhases()
	require.NotEmpty(t, phases)
	assert.Equal(t, "Foundation", phases[0].Name)
	for _, p := range phases {
		assert.Greater(t, p.Days, 0)
		assert.NotEmpty(t, p.Tasks)
	}
}
