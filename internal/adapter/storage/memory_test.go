package storage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"marketpulse/internal/domain/record"
)

func TestMemoryRecordStore_SearchFilters(t *testing.T) {
	store := NewMemoryRecordStore()
	now := time.Now()

	store.Put(record.Record{
		ID: "a", Category: "trend", Source: "twitter", Timestamp: now,
		Payload: record.Payload{Query: "ai tools"},
	})
	store.Put(record.Record{
		ID: "b", Category: "trend", Source: "reddit", Timestamp: now.Add(-time.Hour),
		Payload: record.Payload{Query: "budget apps"},
	})
	store.Put(record.Record{
		ID: "c", Category: "competitor", Source: "twitter", Timestamp: now.Add(-2 * time.Hour),
		Payload: record.Payload{Query: "ai rivals"},
	})

	byCategory, err := store.Search(context.Background(), record.Criteria{Category: "trend"})
	require.NoError(t, err)
	require.Len(t, byCategory, 2)
	assert.Equal(t, "a", byCategory[0].ID)
	assert.Equal(t, "b", byCategory[1].ID)

	bySource, err := store.Search(context.Background(), record.Criteria{Source: "twitter"})
	require.NoError(t, err)
	assert.Len(t, bySource, 2)

	byKeyword, err := store.Search(context.Background(), record.Criteria{Keyword: "budget"})
	require.NoError(t, err)
	require.Len(t, byKeyword, 1)
	assert.Equal(t, "b", byKeyword[0].ID)

	byDate, err := store.Search(context.Background(), record.Criteria{DateFrom: now.Add(-90 * time.Minute)})
	require.NoError(t, err)
	assert.Len(t, byDate, 2)
}

func TestMemoryRecordStore_StoreRecordAssignsID(t *testing.T) {
	store := NewMemoryRecordStore()

	id, err := store.StoreRecord(context.Background(), "trend", "reddit", record.Payload{Query: "ai"})
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	byID, err := store.ByCategory(context.Background(), "trend")
	require.NoError(t, err)
	require.Contains(t, byID, id)
	assert.Equal(t, "reddit", byID[id].Source)
}

func TestMemoryStateStore_RoundTrip(t *testing.T) {
	store := NewMemoryStateStore()

	type doc struct {
		Count int            `json:"count"`
		Tags  map[string]int `json:"tags"`
	}

	found, err := store.LoadState(context.Background(), "trend", &doc{})
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, store.SaveState(context.Background(), "trend", doc{Count: 3, Tags: map[string]int{"ai": 2}}))

	var got doc
	found, err = store.LoadState(context.Background(), "trend", &got)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, 3, got.Count)
	assert.Equal(t, 2, got.Tags["ai"])
}

func TestMemoryStateStore_CorruptDocumentErrors(t *testing.T) {
	store := NewMemoryStateStore()
	require.NoError(t, store.SaveState(context.Background(), "trend", map[string]int{"x": 1}))
	store.Corrupt("trend")

	var got map[string]int
	_, err := store.LoadState(context.Background(), "trend", &got)
	assert.Error(t, err)
}
