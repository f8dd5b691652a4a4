package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
)

// StateStore persists each engine's derived state as a single JSON document
// keyed by engine name. Saves are whole-structure overwrites; there are no
// field-level writes.
type StateStore struct {
	db *pgxpool.Pool
}

// NewStateStore creates a Postgres-backed state store.
func NewStateStore(db *pgxpool.Pool) *StateStore {
	return &StateStore{db: db}
}

// LoadState unmarshals the persisted document for the named engine into the
// target. Returns false with a nil error when no document exists.
func (s *StateStore) LoadState(ctx context.Context, engine string, into any) (bool, error) {
	query := `SELECT state FROM engine_state WHERE engine = $1`

	var stateJSON []byte
	err := s.db.QueryRow(ctx, query, engine).Scan(&stateJSON)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("error querying state: %w", err)
	}

	if err := json.Unmarshal(stateJSON, into); err != nil {
		return false, fmt.Errorf("error unmarshaling %s state: %w", engine, err)
	}
	return true, nil
}

// SaveState overwrites the persisted document for the named engine.
func (s *StateStore) SaveState(ctx context.Context, engine string, state any) error {
	stateJSON, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("error marshaling %s state: %w", engine, err)
	}

	query := `
		INSERT INTO engine_state (engine, state, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (engine) DO UPDATE
		SET state = $2, updated_at = now()
	`
	if _, err := s.db.Exec(ctx, query, engine, stateJSON); err != nil {
		return fmt.Errorf("error executing query: %w", err)
	}
	return nil
}
