package graph

import (
	"context"
	"sync"
	"time"

	"github.com/tandemkit/tandem/schema"
)

// Checkpoint captures a run's position after one node execution. Next is
// the node the run transfers control to, or End.
type Checkpoint struct {
	RunID     string        `json:"run_id"`
	Step      int           `json:"step"`
	Node      string        `json:"node"`
	Next      string        `json:"next"`
	State     *schema.State `json:"state"`
	UpdatedAt time.Time     `json:"updated_at"`
}

// Checkpointer persists the latest checkpoint per run id.
type Checkpointer interface {
	Save(ctx context.Context, cp Checkpoint) error
	Load(ctx context.Context, runID string) (*Checkpoint, error)
}

// MemoryCheckpointer keeps checkpoints in process memory.
type MemoryCheckpointer struct {
	mu          sync.RWMutex
	checkpoints map[string]Checkpoint
}

// NewMemoryCheckpointer creates an empty in-memory checkpointer.
func NewMemoryCheckpointer() *MemoryCheckpointer {
	return &MemoryCheckpointer{checkpoints: make(map[string]Checkpoint)}
}

func (m *MemoryCheckpointer) Save(ctx context.Context, cp Checkpoint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp.State = cp.State.Clone()
	cp.UpdatedAt = time.Now()
	m.checkpoints[cp.RunID] = cp
	return nil
}

func (m *MemoryCheckpointer) Load(ctx context.Context, runID string) (*Checkpoint, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	cp, ok := m.checkpoints[runID]
	if !ok {
		return nil, schema.ErrCheckpointNotFound
	}
	cp.State = cp.State.Clone()
	return &cp, nil
}
