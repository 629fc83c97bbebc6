package selection

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/propflow/propflow/internal/domain/plan"
)

// Firm is a trackable prop-trading firm. Custom firms are user-authored
// and keep Custom=true for their lifetime; catalog firms are seeded
// externally. MatchKeyword is carried for downstream transaction
// matching and is only meaningful on custom firms.
type Firm struct {
	ID           string `json:"id" db:"id"`
	Name         string `json:"name" db:"name"`
	Description  string `json:"description" db:"description"`
	Selected     bool   `json:"selected" db:"selected"`
	Custom       bool   `json:"custom" db:"custom"`
	MatchKeyword string `json:"match_keyword,omitempty" db:"match_keyword"`
}

// Committer persists a full selection snapshot. The write is all or
// nothing: on error the manager assumes nothing was stored.
type Committer interface {
	Commit(ctx context.Context, firms []Firm) error
}

// CommitterFunc adapts a function to the Committer interface.
type CommitterFunc func(ctx context.Context, firms []Firm) error

func (f CommitterFunc) Commit(ctx context.Context, firms []Firm) error {
	return f(ctx, firms)
}

// Manager owns the pending/committed two-phase edit model for one
// user's firm selections. Edits (toggles, custom firm additions) touch
// only the pending copy; Save promotes pending to committed through the
// Committer, Discard reverts pending to committed. Plan capacity is
// enforced at the toggle boundary against pending's current selected
// count, so toggles within one editing session compound correctly.
//
// A Manager belongs to a single logical session. The mutex exists
// because the HTTP layer may serve concurrent requests for that
// session; every operation still runs to completion under the lock.
type Manager struct {
	mu        sync.Mutex
	committer Committer
	committed []Firm
	pending   []Firm

	newID func() string
}

// NewManager creates a manager whose committed and pending sets both
// start as deep copies of the given firms.
func NewManager(firms []Firm, committer Committer) *Manager {
	return &Manager{
		committer: committer,
		committed: cloneFirms(firms),
		pending:   cloneFirms(firms),
		newID:     uuid.NewString,
	}
}

// Toggle flips the selected flag of the firm with the given id in the
// pending set only. Selecting while already at the tier's capacity is
// rejected with ErrCapacityExceeded and leaves state untouched.
// Deselecting is never capacity checked, so a user downgraded below
// their selected count can still unwind.
func (m *Manager) Toggle(id string, tier plan.Tier) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	idx := -1
	for i := range m.pending {
		if m.pending[i].ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return fmt.Errorf("%w: %s", ErrUnknownFirm, id)
	}

	if !m.pending[idx].Selected {
		limit := tier.Capacity()
		if limit != plan.Unlimited && m.selectedCountLocked() >= limit {
			return fmt.Errorf("%w: %s allows %d", ErrCapacityExceeded, tier, limit)
		}
	}

	m.pending[idx].Selected = !m.pending[idx].Selected
	return nil
}

// AddCustomFirm appends a user-authored firm to the pending set. The
// plan gate is checked before input validation so callers below premium
// always see ErrPlanRestricted. New firms start unselected: selecting
// one goes through Toggle so the capacity check still applies.
func (m *Manager) AddCustomFirm(name, matchKeyword string, tier plan.Tier) (Firm, error) {
	if !tier.Allows(plan.Premium) {
		return Firm{}, fmt.Errorf("%w: custom firms require premium, have %s", ErrPlanRestricted, tier)
	}

	name = strings.TrimSpace(name)
	matchKeyword = strings.TrimSpace(matchKeyword)
	if name == "" || matchKeyword == "" {
		return Firm{}, fmt.Errorf("%w: name and match keyword are required", ErrValidation)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	firm := Firm{
		ID:           m.newID(),
		Name:         name,
		Custom:       true,
		MatchKeyword: matchKeyword,
	}
	m.pending = append(m.pending, firm)
	return firm, nil
}

// Save atomically promotes pending to committed through the Committer.
// On failure both copies are left untouched so the user keeps their
// unsaved edits and can retry.
func (m *Manager) Save(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	snapshot := cloneFirms(m.pending)
	if err := m.committer.Commit(ctx, snapshot); err != nil {
		return fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	m.committed = snapshot
	return nil
}

// Discard replaces pending with a fresh copy of committed. Always
// succeeds and is idempotent.
func (m *Manager) Discard() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pending = cloneFirms(m.committed)
}

// HasPendingChanges reports whether pending differs from committed in
// membership or any selected flag. Recomputed on demand; there is no
// stored flag to drift.
func (m *Manager) HasPendingChanges() bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.pending) != len(m.committed) {
		return true
	}
	byID := make(map[string]Firm, len(m.committed))
	for _, f := range m.committed {
		byID[f.ID] = f
	}
	for _, f := range m.pending {
		prev, ok := byID[f.ID]
		if !ok || prev.Selected != f.Selected {
			return true
		}
	}
	return false
}

// Pending returns a defensive copy of the pending set for rendering.
func (m *Manager) Pending() []Firm {
	m.mu.Lock()
	defer m.mu.Unlock()
	return cloneFirms(m.pending)
}

// SelectedCount returns how many pending firms are currently selected.
func (m *Manager) SelectedCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.selectedCountLocked()
}

// RemainingCapacity returns how many more firms the given tier may
// select, or plan.Unlimited. Used by callers to render limit banners.
func (m *Manager) RemainingCapacity(tier plan.Tier) int {
	return tier.RemainingCapacity(m.SelectedCount())
}

func (m *Manager) selectedCountLocked() int {
	count := 0
	for i := range m.pending {
		if m.pending[i].Selected {
			count++
		}
	}
	return count
}

func cloneFirms(firms []Firm) []Firm {
	out := make([]Firm, len(firms))
	copy(out, firms)
	return out
}
