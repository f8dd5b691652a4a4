package storage

import (
	"context"
	"encoding/json"
	"sort"
	"strings"
	"sync"
	"time"

	"marketpulse/internal/domain/record"
	"marketpulse/internal/heuristic"
)

// MemoryRecordStore is an in-memory record.Store for tests and for running
// the service without a database.
type MemoryRecordStore struct {
	mu      sync.RWMutex
	records map[string]record.Record
}

// NewMemoryRecordStore creates an empty in-memory record store.
func NewMemoryRecordStore() *MemoryRecordStore {
	return &MemoryRecordStore{records: make(map[string]record.Record)}
}

// StoreRecord persists a new record and returns its id.
func (s *MemoryRecordStore) StoreRecord(ctx context.Context, category, source string, payload record.Payload) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	id := record.MakeID(category, source, now)
	s.records[id] = record.Record{
		ID:        id,
		Category:  category,
		Source:    source,
		Timestamp: now,
		Payload:   payload,
	}
	return id, nil
}

// Put inserts a fully formed record, used by tests to control timestamps.
func (s *MemoryRecordStore) Put(rec record.Record) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[rec.ID] = rec
}

// Search returns records matching the criteria, newest first.
func (s *MemoryRecordStore) Search(ctx context.Context, criteria record.Criteria) ([]record.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []record.Record
	for _, rec := range s.records {
		if criteria.Category != "" && rec.Category != criteria.Category {
			continue
		}
		if criteria.Source != "" && rec.Source != criteria.Source {
			continue
		}
		if !criteria.DateFrom.IsZero() && rec.Timestamp.Before(criteria.DateFrom) {
			continue
		}
		if !criteria.DateTo.IsZero() && rec.Timestamp.After(criteria.DateTo) {
			continue
		}
		if criteria.Keyword != "" {
			text := rec.Payload.Query + " " + heuristic.FlattenValue(rec.Payload.Results)
			if !strings.Contains(strings.ToLower(text), strings.ToLower(criteria.Keyword)) {
				continue
			}
		}
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Timestamp.Equal(out[j].Timestamp) {
			return out[i].Timestamp.After(out[j].Timestamp)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// ByCategory returns all records in a category keyed by id.
func (s *MemoryRecordStore) ByCategory(ctx context.Context, category string) (map[string]record.Record, error) {
	records, err := s.Search(ctx, record.Criteria{Category: category})
	if err != nil {
		return nil, err
	}
	out := make(map[string]record.Record, len(records))
	for _, rec := range records {
		out[rec.ID] = rec
	}
	return out, nil
}

// MemoryStateStore is an in-memory engine-state store with the same
// round-trip behavior as the Postgres one: documents pass through JSON.
type MemoryStateStore struct {
	mu   sync.RWMutex
	docs map[string][]byte
}

// NewMemoryStateStore creates an empty in-memory state store.
func NewMemoryStateStore() *MemoryStateStore {
	return &MemoryStateStore{docs: make(map[string][]byte)}
}

// LoadState unmarshals the stored document for the named engine.
func (s *MemoryStateStore) LoadState(ctx context.Context, engine string, into any) (bool, error) {
	s.mu.RLock()
	doc, ok := s.docs[engine]
	s.mu.RUnlock()
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(doc, into); err != nil {
		return false, err
	}
	return true, nil
}

// SaveState overwrites the stored document for the named engine.
func (s *MemoryStateStore) SaveState(ctx context.Context, engine string, state any) error {
	doc, err := json.Marshal(state)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.docs[engine] = doc
	s.mu.Unlock()
	return nil
}

// Corrupt overwrites a stored document with garbage, used by tests to
// exercise the serialization-failure fallback.
func (s *MemoryStateStore) Corrupt(engine string) {
	s.mu.Lock()
	s.docs[engine] = []byte("{not json")
	s.mu.Unlock()
}
