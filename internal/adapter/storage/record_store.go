package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"

	"marketpulse/internal/domain/record"
)

// RecordStore implements record.Store over Postgres. Records are immutable;
// inserts with a colliding id are ignored.
type RecordStore struct {
	db *pgxpool.Pool
}

// NewRecordStore creates a Postgres-backed record store.
func NewRecordStore(db *pgxpool.Pool) *RecordStore {
	return &RecordStore{db: db}
}

// StoreRecord persists a new record and returns its id.
func (s *RecordStore) StoreRecord(ctx context.Context, category, source string, payload record.Payload) (string, error) {
	now := time.Now()
	id := record.MakeID(category, source, now)

	payloadJSON, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("error marshaling payload: %w", err)
	}

	query := `
		INSERT INTO records (id, category, source, ts, payload)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO NOTHING
	`
	if _, err := s.db.Exec(ctx, query, id, category, source, now, payloadJSON); err != nil {
		return "", fmt.Errorf("error executing query: %w", err)
	}
	return id, nil
}

// Search returns records matching the criteria, newest first.
func (s *RecordStore) Search(ctx context.Context, criteria record.Criteria) ([]record.Record, error) {
	query := `
		SELECT id, category, source, ts, payload
		FROM records
		WHERE 1=1
	`
	args := []interface{}{}
	argIndex := 1

	if criteria.Category != "" {
		query += fmt.Sprintf(" AND category = $%d", argIndex)
		args = append(args, criteria.Category)
		argIndex++
	}
	if criteria.Source != "" {
		query += fmt.Sprintf(" AND source = $%d", argIndex)
		args = append(args, criteria.Source)
		argIndex++
	}
	if criteria.Keyword != "" {
		query += fmt.Sprintf(" AND payload::text ILIKE $%d", argIndex)
		args = append(args, "%"+criteria.Keyword+"%")
		argIndex++
	}
	if !criteria.DateFrom.IsZero() {
		query += fmt.Sprintf(" AND ts >= $%d", argIndex)
		args = append(args, criteria.DateFrom)
		argIndex++
	}
	if !criteria.DateTo.IsZero() {
		query += fmt.Sprintf(" AND ts <= $%d", argIndex)
		args = append(args, criteria.DateTo)
		argIndex++
	}

	query += " ORDER BY ts DESC"

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("error executing query: %w", err)
	}
	defer rows.Close()

	var records []record.Record
	for rows.Next() {
		var rec record.Record
		var payloadJSON []byte

		if err := rows.Scan(&rec.ID, &rec.Category, &rec.Source, &rec.Timestamp, &payloadJSON); err != nil {
			return nil, fmt.Errorf("error scanning record: %w", err)
		}
		if err := json.Unmarshal(payloadJSON, &rec.Payload); err != nil {
			return nil, fmt.Errorf("error unmarshaling payload: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating records: %w", err)
	}
	return records, nil
}

// ByCategory returns all records in a category keyed by id.
func (s *RecordStore) ByCategory(ctx context.Context, category string) (map[string]record.Record, error) {
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
