package runs

import (
	"context"
	"slices"
	"sync"

	"github.com/google/uuid"
)

type memory struct {
	mu     sync.RWMutex
	retain int
	runs   []Run
}

// NewMemory creates a process-local run history used when no database is
// configured.
func NewMemory(retain int) System {
	if retain <= 0 {
		retain = DefaultRetain
	}
	return &memory{retain: retain}
}

func (m *memory) Record(_ context.Context, run Run) error {
	if run.ID == uuid.Nil {
		run.ID = uuid.New()
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if slices.ContainsFunc(m.runs, func(r Run) bool { return r.ID == run.ID }) {
		return ErrDuplicate
	}

	m.runs = append(m.runs, run)
	slices.SortStableFunc(m.runs, func(a, b Run) int {
		return b.StartedAt.Compare(a.StartedAt)
	})
	if len(m.runs) > m.retain {
		m.runs = m.runs[:m.retain]
	}
	return nil
}

func (m *memory) List(_ context.Context, limit int) ([]Run, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if limit <= 0 || limit > len(m.runs) {
		limit = len(m.runs)
	}
	return slices.Clone(m.runs[:limit]), nil
}

func (m *memory) Find(_ context.Context, id uuid.UUID) (*Run, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, r := range m.runs {
		if r.ID == id {
			return &r, nil
		}
	}
	return nil, ErrNotFound
}
