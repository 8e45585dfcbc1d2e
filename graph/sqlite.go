package graph

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/tandemkit/tandem/schema"
)

const checkpointSchema = `
CREATE TABLE IF NOT EXISTS checkpoints (
	run_id     TEXT PRIMARY KEY,
	step       INTEGER NOT NULL,
	node       TEXT NOT NULL,
	next       TEXT NOT NULL,
	state      TEXT NOT NULL,
	updated_at TIMESTAMP NOT NULL
);`

// SQLiteCheckpointer stores the latest checkpoint per run in a SQLite
// database, so interrupted runs survive process restarts.
type SQLiteCheckpointer struct {
	db *sql.DB
}

// NewSQLiteCheckpointer opens (or creates) the database at path and
// ensures the checkpoint table exists. Use ":memory:" for an ephemeral
// store.
func NewSQLiteCheckpointer(path string) (*SQLiteCheckpointer, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open checkpoint db: %w", err)
	}
	if _, err := db.Exec(checkpointSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init checkpoint schema: %w", err)
	}
	return &SQLiteCheckpointer{db: db}, nil
}

func (s *SQLiteCheckpointer) Save(ctx context.Context, cp Checkpoint) error {
	stateJSON, err := json.Marshal(cp.State)
	if err != nil {
		return fmt.Errorf("marshal checkpoint state: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO checkpoints (run_id, step, node, next, state, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(run_id) DO UPDATE SET
			step = excluded.step,
			node = excluded.node,
			next = excluded.next,
			state = excluded.state,
			updated_at = excluded.updated_at`,
		cp.RunID, cp.Step, cp.Node, cp.Next, string(stateJSON), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("save checkpoint: %w", err)
	}
	return nil
}

func (s *SQLiteCheckpointer) Load(ctx context.Context, runID string) (*Checkpoint, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT step, node, next, state, updated_at
		FROM checkpoints WHERE run_id = ?`, runID)

	var cp Checkpoint
	var stateJSON string
	cp.RunID = runID
	if err := row.Scan(&cp.Step, &cp.Node, &cp.Next, &stateJSON, &cp.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, schema.ErrCheckpointNotFound
		}
		return nil, fmt.Errorf("load checkpoint: %w", err)
	}
	var state schema.State
	if err := json.Unmarshal([]byte(stateJSON), &state); err != nil {
		return nil, fmt.Errorf("decode checkpoint state: %w", err)
	}
	cp.State = &state
	return &cp, nil
}

// Close releases the underlying database handle.
func (s *SQLiteCheckpointer) Close() error {
	return s.db.Close()
}
