package competitor

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"marketpulse/internal/adapter/storage"
	"marketpulse/internal/domain/competitor"
	"marketpulse/internal/domain/record"
)

func newTestEngine() *Engine {
	return NewEngine(storage.NewMemoryStateStore(), nil, DefaultConfig())
}

func twitterRecord(id, handle string, followers float64) record.Record {
	return record.Record{
		ID:        id,
		Category:  "competitor",
		Source:    "twitter",
		Timestamp: time.Now(),
		Payload: record.Payload{
			Query: "ai tools",
			Results: []map[string]any{
				{
					"user": map[string]any{
						"name":            handle,
						"screen_name":     handle,
						"followers_count": followers,
						"description":     "ai automation and chatbot workflows",
					},
					"id_str":         id + "-tweet",
					"text":           "Shipped a new no-code workflow builder",
					"favorite_count": float64(40),
					"retweet_count":  float64(10),
				},
			},
		},
	}
}

func TestAnalyzeAllData_EmptyInputSoftFails(t *testing.T) {
	engine := newTestEngine()

	result := engine.AnalyzeAllData(context.Background(), nil)
	assert.False(t, result.Success)
	assert.NotEmpty(t, result.Message)
}

func TestAnalyzeAllData_IdentifiesFromTwitter(t *testing.T) {
	engine := newTestEngine()

	result := engine.AnalyzeAllData(context.Background(), []record.Record{
		twitterRecord("r1", "aiguru", 5000),
	})
	require.True(t, result.Success)

	profiles := engine.Competitors()
	require.Len(t, profiles, 1)
	assert.Equal(t, "twitter", profiles[0].Platform)
	assert.Equal(t, "aiguru", profiles[0].Name)
	assert.Equal(t, "AI & Automation Tools", profiles[0].Niche)
	assert.Equal(t, float64(5000), profiles[0].Metrics["followers"])
	require.Len(t, profiles[0].Content, 1)
	assert.Equal(t, "tweet", profiles[0].Content[0].Type)
}

func TestAnalyzeAllData_BelowThresholdIgnored(t *testing.T) {
	engine := newTestEngine()

	// Twitter admission requires at least 1000 followers.
	engine.AnalyzeAllData(context.Background(), []record.Record{
		twitterRecord("r1", "tinyaccount", 200),
	})

	assert.Empty(t, engine.Competitors())
}

func TestAnalyzeAllData_ReanalysisDoesNotDuplicate(t *testing.T) {
	engine := newTestEngine()
	rec := twitterRecord("r1", "aiguru", 5000)

	engine.AnalyzeAllData(context.Background(), []record.Record{rec})
	engine.AnalyzeAllData(context.Background(), []record.Record{rec})

	profiles := engine.Competitors()
	require.Len(t, profiles, 1)
	assert.Len(t, profiles[0].Content, 1)
}

func TestAnalyzeAllData_MetricsUpdateOnNewObservation(t *testing.T) {
	engine := newTestEngine()

	engine.AnalyzeAllData(context.Background(), []record.Record{
		twitterRecord("r1", "aiguru", 5000),
	})
	engine.AnalyzeAllData(context.Background(), []record.Record{
		twitterRecord("r2", "aiguru", 8000),
	})

	profiles := engine.Competitors()
	require.Len(t, profiles, 1)
	assert.Equal(t, float64(8000), profiles[0].Metrics["followers"])
}

func TestGapAnalyses_OpportunityByCompetitorCount(t *testing.T) {
	cases := []struct {
		count int
		level competitor.OpportunityLevel
	}{
		{1, competitor.OpportunityHigh},
		{5, competitor.OpportunityMedium},
		{12, competitor.OpportunityLow},
	}

	for _, tc := range cases {
		engine := newTestEngine()
		var records []record.Record
		for i := 0; i < tc.count; i++ {
			records = append(records, twitterRecord(
				fmt.Sprintf("r%d", i), fmt.Sprintf("aiguru%d", i), 5000))
		}
		engine.AnalyzeAllData(context.Background(), records)

		gaps := engine.GapAnalyses()
		gap, ok := gaps["AI & Automation Tools"]
		require.True(t, ok)
		assert.Equal(t, tc.count, gap.CompetitorCount)
		assert.Equal(t, tc.level, gap.OpportunityLevel)
		assert.NotEmpty(t, gap.Recommendation)
	}
}

func TestGapAnalyses_EmptyNicheIsHighOpportunity(t *testing.T) {
	engine := newTestEngine()
	engine.AnalyzeAllData(context.Background(), []record.Record{
		twitterRecord("r1", "aiguru", 5000),
	})

	gaps := engine.GapAnalyses()
	gap, ok := gaps["Home & Garden"]
	require.True(t, ok)
	assert.Equal(t, 0, gap.CompetitorCount)
	assert.Equal(t, competitor.OpportunityHigh, gap.OpportunityLevel)
	assert.NotEmpty(t, gap.ContentGaps)
}

func TestCompetitorsByNiche_ExcludesUnclassified(t *testing.T) {
	engine := newTestEngine()
	rec := twitterRecord("r1", "aiguru", 5000)
	rec.Payload.Results = append(rec.Payload.Results, map[string]any{
		"user": map[string]any{
			"name":            "randomposter",
			"screen_name":     "randomposter",
			"followers_count": float64(9000),
			"description":     "posting whatever",
		},
		"text": "hello world",
	})

	engine.AnalyzeAllData(context.Background(), []record.Record{rec})

	assert.Len(t, engine.Competitors(), 2)
	assert.Len(t, engine.CompetitorsByNiche("AI & Automation Tools"), 1)
	assert.Empty(t, engine.CompetitorsByNiche(competitor.UnclassifiedNiche))
}

func TestUpdateCompetitor(t *testing.T) {
	engine := newTestEngine()
	engine.AnalyzeAllData(context.Background(), []record.Record{
		twitterRecord("r1", "aiguru", 5000),
	})
	id := engine.Competitors()[0].ID

	err := engine.UpdateCompetitor(context.Background(),
		id, map[string]float64{"followers": 6000}, "updated description")
	require.NoError(t, err)

	profile := engine.Competitors()[0]
	assert.Equal(t, float64(6000), profile.Metrics["followers"])
	assert.Equal(t, "updated description", profile.Description)
}

func TestUpdateCompetitor_NotFound(t *testing.T) {
	engine := newTestEngine()

	err := engine.UpdateCompetitor(context.Background(), "missing", nil, "")
	assert.ErrorIs(t, err, competitor.ErrNotFound)
}

func TestRemoveCompetitor(t *testing.T) {
	engine := newTestEngine()
	engine.AnalyzeAllData(context.Background(), []record.Record{
		twitterRecord("r1", "aiguru", 5000),
	})
	id := engine.Competitors()[0].ID

	require.NoError(t, engine.RemoveCompetitor(context.Background(), id))
	assert.Empty(t, engine.Competitors())

	err := engine.RemoveCompetitor(context.Background(), id)
	assert.ErrorIs(t, err, competitor.ErrNotFound)
}

func TestRemoveCompetitor_FreesIdentityForReadmission(t *testing.T) {
	engine := newTestEngine()
	engine.AnalyzeAllData(context.Background(), []record.Record{
		twitterRecord("r1", "aiguru", 5000),
	})
	id := engine.Competitors()[0].ID
	require.NoError(t, engine.RemoveCompetitor(context.Background(), id))

	engine.AnalyzeAllData(context.Background(), []record.Record{
		twitterRecord("r2", "aiguru", 5000),
	})
	profiles := engine.Competitors()
	require.Len(t, profiles, 1)
	assert.NotEqual(t, id, profiles[0].ID)
}

func TestPerformance_ScoreBoundsAndOrder(t *testing.T) {
	engine := newTestEngine()
	engine.AnalyzeAllData(context.Background(), []record.Record{
		twitterRecord("r1", "bigaccount", 50000),
		twitterRecord("r2", "midaccount", 5000),
		twitterRecord("r3", "smallaccount", 1500),
	})

	entries := engine.Snapshot().Performance
	require.Len(t, entries, 3)
	for _, entry := range entries {
		assert.GreaterOrEqual(t, entry.Score, 0.0)
		assert.LessOrEqual(t, entry.Score, 100.0)
	}
	for i := 1; i < len(entries); i++ {
		assert.GreaterOrEqual(t, entries[i-1].Score, entries[i].Score)
	}
	assert.Equal(t, "bigaccount", entries[0].Name)
}

func TestStrategies_DerivedPerCompetitor(t *testing.T) {
	engine := newTestEngine()
	engine.AnalyzeAllData(context.Background(), []record.Record{
		twitterRecord("r1", "aiguru", 5000),
	})

	data := engine.Snapshot()
	require.Len(t, data.Strategies, 1)
	for id, note := range data.Strategies {
		assert.Equal(t, id, note.CompetitorID)
		assert.Equal(t, "AI & Automation Tools", note.Focus)
		assert.Contains(t, note.ContentTypes, "tweet")
		assert.Greater(t, note.PostingRate, 0.0)
	}
	assert.Equal(t, 1, data.Content["tweet"])
}

func TestSaveLoad_RoundTripRebuildsIndex(t *testing.T) {
	store := storage.NewMemoryStateStore()
	engine := NewEngine(store, nil, DefaultConfig())
	engine.AnalyzeAllData(context.Background(), []record.Record{
		twitterRecord("r1", "aiguru", 5000),
	})
	originalID := engine.Competitors()[0].ID
	require.NoError(t, engine.Save(context.Background()))

	restored := NewEngine(store, nil, DefaultConfig())
	require.NoError(t, restored.Load(context.Background()))

	// A rebuilt index must route the same identity to the same profile.
	restored.AnalyzeAllData(context.Background(), []record.Record{
		twitterRecord("r2", "aiguru", 7000),
	})
	profiles := restored.Competitors()
	require.Len(t, profiles, 1)
	assert.Equal(t, originalID, profiles[0].ID)
	assert.Equal(t, float64(7000), profiles[0].Metrics["followers"])
}

func TestLoad_CorruptStateFallsBackEmpty(t *testing.T) {
	store := storage.NewMemoryStateStore()
	engine := NewEngine(store, nil, DefaultConfig())
	engine.AnalyzeAllData(context.Background(), []record.Record{
		twitterRecord("r1", "aiguru", 5000),
	})
	require.NoError(t, engine.Save(context.Background()))

	store.Corrupt(StateName)

	restored := NewEngine(store, nil, DefaultConfig())
	require.NoError(t, restored.Load(context.Background()))
	assert.Empty(t, restored.Competitors())
}

// panicField poisons a result item the way a malformed payload does: any
// attempt to read it as a string blows up.
type panicField struct{}

func (panicField) String() string { panic("unreadable field") }

func TestAnalyzeAllData_RejectsConcurrentRun(t *testing.T) {
	engine := newTestEngine()

	// Hold the run lock the way an in-flight pass does.
	engine.runMu.Lock()
	defer engine.runMu.Unlock()

	result := engine.AnalyzeAllData(context.Background(), []record.Record{
		twitterRecord("r1", "aiguru", 5000),
	})
	assert.False(t, result.Success)
	assert.Contains(t, result.Message, "already in progress")
}

func TestAnalyzeAllData_MalformedRecordSkippedBatchContinues(t *testing.T) {
	engine := newTestEngine()

	bad := record.Record{
		ID:        "bad",
		Source:    "twitter",
		Timestamp: time.Now(),
		Payload: record.Payload{
			Results: []map[string]any{
				{"user": map[string]any{"name": panicField{}}},
			},
		},
	}

	result := engine.AnalyzeAllData(context.Background(), []record.Record{
		bad,
		twitterRecord("good", "aiguru", 5000),
	})
	require.True(t, result.Success)
	assert.Equal(t, 2, result.RecordsScanned)
	assert.Equal(t, 1, result.RecordsSkipped)
	assert.Len(t, engine.Competitors(), 1)
}

func TestAnalyzeAllData_YouTubeNestedStatistics(t *testing.T) {
	engine := newTestEngine()

	rec := record.Record{
		ID:        "y1",
		Category:  "competitor",
		Source:    "youtube",
		Timestamp: time.Now(),
		Payload: record.Payload{
			Query: "ai tutorials",
			Results: []map[string]any{
				{
					"channel_title": "Automation Academy",
					"title":         "Build an AI chatbot from scratch",
					"description":   "ai automation walkthrough",
					"statistics": map[string]any{
						"subscriberCount": float64(25000),
						"viewCount":       float64(400000),
					},
				},
			},
		},
	}

	result := engine.AnalyzeAllData(context.Background(), []record.Record{rec})
	require.True(t, result.Success)

	profiles := engine.Competitors()
	require.Len(t, profiles, 1)
	assert.Equal(t, "youtube", profiles[0].Platform)
	assert.Equal(t, float64(25000), profiles[0].Metrics["subscribers"])
	assert.Equal(t, float64(400000), profiles[0].Metrics["views"])
}
