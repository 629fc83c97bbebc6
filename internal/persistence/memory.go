package persistence

import (
	"context"
	"sync"

	"github.com/propflow/propflow/internal/domain/selection"
)

// MemoryRepo is an in-process PreferencesRepo for development runs
// without a database. Selections vanish with the process.
type MemoryRepo struct {
	mu     sync.Mutex
	stored map[string][]selection.Firm
}

// NewMemoryRepo creates an empty in-memory preferences store.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{stored: make(map[string][]selection.Firm)}
}

func (m *MemoryRepo) CommitSelections(ctx context.Context, accountID string, firms []selection.Firm) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	snapshot := make([]selection.Firm, len(firms))
	copy(snapshot, firms)
	m.stored[accountID] = snapshot
	return nil
}

func (m *MemoryRepo) LoadSelections(ctx context.Context, accountID string) ([]selection.Firm, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	firms := m.stored[accountID]
	out := make([]selection.Firm, len(firms))
	copy(out, firms)
	return out, nil
}

// Ping always succeeds: there is nothing to reach.
func (m *MemoryRepo) Ping(ctx context.Context) error { return nil }
