package analysis

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"marketpulse/internal/adapter/storage"
	"marketpulse/internal/domain/record"
)

func newTestEngine(t *testing.T) (*Engine, *storage.MemoryStateStore) {
	t.Helper()
	store := storage.NewMemoryStateStore()
	return NewEngine(store, nil, DefaultConfig()), store
}

func aiRecord(id string, ts time.Time) record.Record {
	return record.Record{
		ID:        id,
		Category:  "trend",
		Source:    "twitter",
		Timestamp: ts,
		Payload: record.Payload{
			Query: "ai automation tools",
			Results: []map[string]any{
				{"title": "Best AI Automation Suite", "description": "great workflow product", "id": "prod-1"},
			},
		},
	}
}

func TestAnalyzeAll_EmptyInputSoftFails(t *testing.T) {
	engine, _ := newTestEngine(t)

	result := engine.AnalyzeAll(context.Background(), nil)
	assert.False(t, result.Success)
	assert.NotEmpty(t, result.Message)
}

func TestAnalyzeAll_NichePopularity(t *testing.T) {
	engine, _ := newTestEngine(t)
	now := time.Now()

	result := engine.AnalyzeAll(context.Background(), []record.Record{aiRecord("r1", now)})
	require.True(t, result.Success)

	data := engine.Snapshot()
	profile := data.Niches["AI & Automation Tools"]
	require.NotNil(t, profile)
	assert.Equal(t, 1, profile.Popularity)
}

func TestAnalyzeAll_PopularityMonotone(t *testing.T) {
	engine, _ := newTestEngine(t)
	now := time.Now()

	records := []record.Record{aiRecord("r1", now)}
	engine.AnalyzeAll(context.Background(), records)
	first := engine.Snapshot().Niches["AI & Automation Tools"].Popularity

	records = append(records, aiRecord("r2", now.Add(time.Minute)))
	engine.AnalyzeAll(context.Background(), records)
	second := engine.Snapshot().Niches["AI & Automation Tools"].Popularity

	assert.GreaterOrEqual(t, first, 0)
	assert.GreaterOrEqual(t, second, first)
	assert.Equal(t, 2, second)
}

func TestAnalyzeAll_IdempotentOnUnchangedSnapshot(t *testing.T) {
	engine, _ := newTestEngine(t)
	records := []record.Record{aiRecord("r1", time.Now())}

	engine.AnalyzeAll(context.Background(), records)
	before := engine.Snapshot()

	engine.AnalyzeAll(context.Background(), records)
	after := engine.Snapshot()

	kb := before.Keywords["ai automation tools"]
	ka := after.Keywords["ai automation tools"]
	require.NotNil(t, kb)
	require.NotNil(t, ka)
	assert.Equal(t, kb.Mentions, ka.Mentions)
	assert.Equal(t, kb.Sentiment, ka.Sentiment)
	assert.Equal(t, kb.RelatedKeywords, ka.RelatedKeywords)

	assert.Equal(t,
		before.Niches["AI & Automation Tools"].Popularity,
		after.Niches["AI & Automation Tools"].Popularity)
	assert.Equal(t, before.Products["prod-1"].Mentions, after.Products["prod-1"].Mentions)
}

func TestAnalyzeAll_ProductsMergeByID(t *testing.T) {
	engine, _ := newTestEngine(t)
	now := time.Now()

	engine.AnalyzeAll(context.Background(), []record.Record{aiRecord("r1", now)})
	engine.AnalyzeAll(context.Background(), []record.Record{
		aiRecord("r1", now),
		aiRecord("r2", now.Add(time.Minute)),
	})

	data := engine.Snapshot()
	require.Len(t, data.Products, 1)
	assert.Equal(t, 2, data.Products["prod-1"].Mentions)
}

func TestAnalyzeAll_SyntheticProductIDStable(t *testing.T) {
	engine, _ := newTestEngine(t)
	rec := record.Record{
		ID:        "r1",
		Source:    "reddit",
		Timestamp: time.Now(),
		Payload: record.Payload{
			Query: "fitness gear",
			Results: []map[string]any{
				{"title": "Adjustable Workout Bench"},
			},
		},
	}

	engine.AnalyzeAll(context.Background(), []record.Record{rec})
	engine.AnalyzeAll(context.Background(), []record.Record{rec})

	assert.Len(t, engine.Snapshot().Products, 1)
}

func TestAccessors_EmptyEngine(t *testing.T) {
	engine, _ := newTestEngine(t)

	assert.Empty(t, engine.TopTrendingNiches(5))
	assert.Empty(t, engine.TopTrendingKeywords(5))
	assert.Empty(t, engine.TopTrendingProducts(5))

	preds := engine.TrendPredictions(5)
	assert.Empty(t, preds.Niches)
	assert.Empty(t, preds.Keywords)
}

func TestTopTrendingKeywords_OrderAndTruncate(t *testing.T) {
	engine, _ := newTestEngine(t)
	now := time.Now()

	var records []record.Record
	for i := 0; i < 3; i++ {
		records = append(records, record.Record{
			ID:        fmt.Sprintf("a%d", i),
			Source:    "reddit",
			Timestamp: now,
			Payload:   record.Payload{Query: "passive income"},
		})
	}
	records = append(records, record.Record{
		ID:        "b0",
		Source:    "reddit",
		Timestamp: now,
		Payload:   record.Payload{Query: "budget apps"},
	})

	engine.AnalyzeAll(context.Background(), records)

	keywords := engine.TopTrendingKeywords(1)
	require.Len(t, keywords, 1)
	assert.Equal(t, "passive income", keywords[0].Keyword)
	assert.Equal(t, 3, keywords[0].Mentions)
}

func TestGrowth_PeriodOverPeriod(t *testing.T) {
	engine, _ := newTestEngine(t)
	now := time.Now()

	// One match in the prior window, three in the trailing window.
	records := []record.Record{
		aiRecord("old", now.Add(-10*24*time.Hour)),
		aiRecord("n1", now.Add(-2*24*time.Hour)),
		aiRecord("n2", now.Add(-1*24*time.Hour)),
		aiRecord("n3", now),
	}
	engine.AnalyzeAll(context.Background(), records)

	profile := engine.Snapshot().Niches["AI & Automation Tools"]
	require.NotNil(t, profile)
	assert.InDelta(t, 200.0, profile.Growth, 0.001)
}

func TestPredictions_RankedByPredictedGrowth(t *testing.T) {
	engine, _ := newTestEngine(t)
	now := time.Now()

	records := []record.Record{
		aiRecord("n1", now),
		{
			ID:        "f1",
			Source:    "reddit",
			Timestamp: now.Add(-10 * 24 * time.Hour),
			Payload:   record.Payload{Query: "fitness workout plan"},
		},
	}
	engine.AnalyzeAll(context.Background(), records)

	preds := engine.TrendPredictions(5)
	require.NotEmpty(t, preds.Niches)
	for i := 1; i < len(preds.Niches); i++ {
		assert.GreaterOrEqual(t,
			preds.Niches[i-1].PredictedGrowth,
			preds.Niches[i].PredictedGrowth)
	}
}

func TestSaveLoad_RoundTrip(t *testing.T) {
	store := storage.NewMemoryStateStore()
	engine := NewEngine(store, nil, DefaultConfig())
	records := []record.Record{aiRecord("r1", time.Now())}

	engine.AnalyzeAll(context.Background(), records)
	require.NoError(t, engine.Save(context.Background()))

	restored := NewEngine(store, nil, DefaultConfig())
	require.NoError(t, restored.Load(context.Background()))

	// Re-running over an unchanged snapshot must not change any counts.
	restored.AnalyzeAll(context.Background(), records)

	original := engine.Snapshot()
	after := restored.Snapshot()
	assert.Equal(t,
		original.Niches["AI & Automation Tools"].Popularity,
		after.Niches["AI & Automation Tools"].Popularity)
	assert.Equal(t,
		original.Keywords["ai automation tools"].Mentions,
		after.Keywords["ai automation tools"].Mentions)
	assert.Equal(t, original.Products["prod-1"].Mentions, after.Products["prod-1"].Mentions)
}

func TestLoad_CorruptStateFallsBackEmpty(t *testing.T) {
	store := storage.NewMemoryStateStore()
	engine := NewEngine(store, nil, DefaultConfig())

	engine.AnalyzeAll(context.Background(), []record.Record{aiRecord("r1", time.Now())})
	require.NoError(t, engine.Save(context.Background()))

	store.Corrupt(StateName)

	restored := NewEngine(store, nil, DefaultConfig())
	require.NoError(t, restored.Load(context.Background()))
	assert.Empty(t, restored.Snapshot().Niches)
}

func TestSentimentBounds_OnProfiles(t *testing.T) {
	engine, _ := newTestEngine(t)
	records := []record.Record{
		{
			ID:        "s1",
			Source:    "twitter",
			Timestamp: time.Now(),
			Payload: record.Payload{
				Query:   "budget apps",
				Results: []map[string]any{{"title": "Great budget app", "description": "best easy helpful"}},
			},
		},
	}
	engine.AnalyzeAll(context.Background(), records)

	for _, k := range engine.Snapshot().Keywords {
		assert.GreaterOrEqual(t, k.Sentiment, -1.0)
		assert.LessOrEqual(t, k.Sentiment, 1.0)
	}
}

// panicField poisons a result item the way a malformed payload does: any
// attempt to read it as a string blows up.
type panicField struct{}

func (panicField) String() string { panic("unreadable field") }

func TestAnalyzeAll_RejectsConcurrentRun(t *testing.T) {
	engine, _ := newTestEngine(t)

	// Hold the run lock the way an in-flight pass does.
	engine.runMu.Lock()
	defer engine.runMu.Unlock()

	result := engine.AnalyzeAll(context.Background(), []record.Record{aiRecord("r1", time.Now())})
	assert.False(t, result.Success)
	assert.Contains(t, result.Message, "already in progress")
}

func TestAnalyzeAll_MalformedRecordSkippedBatchContinues(t *testing.T) {
	engine, _ := newTestEngine(t)

	bad := record.Record{
		ID:        "bad",
		Source:    "twitter",
		Timestamp: time.Now(),
		Payload: record.Payload{
			Query:   "zzz",
			Results: []map[string]any{{"title": panicField{}}},
		},
	}

	result := engine.AnalyzeAll(context.Background(), []record.Record{bad, aiRecord("good", time.Now())})
	require.True(t, result.Success)
	assert.Equal(t, 2, result.RecordsScanned)
	assert.Equal(t, 1, result.RecordsSkipped)

	profile := result.Data.Niches["AI & Automation Tools"]
	require.NotNil(t, profile)
	assert.Equal(t, 1, profile.Popularity)
}
