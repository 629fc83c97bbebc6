package application

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/propflow/propflow/internal/domain/selection"
	"github.com/propflow/propflow/internal/persistence"
)

// Workspace owns one selection manager per account. Managers are
// created lazily: the first request for an account loads its committed
// selections from the preferences store and overlays them on the firm
// catalog, so catalog additions show up for existing accounts.
type Workspace struct {
	mu       sync.Mutex
	catalog  []selection.Firm
	prefs    persistence.PreferencesRepo
	managers map[string]*selection.Manager
}

// NewWorkspace creates a workspace over the seeded catalog and the
// preferences store.
func NewWorkspace(catalog []selection.Firm, prefs persistence.PreferencesRepo) *Workspace {
	return &Workspace{
		catalog:  catalog,
		prefs:    prefs,
		managers: make(map[string]*selection.Manager),
	}
}

// ManagerFor returns the account's selection manager, creating and
// hydrating it on first use.
func (w *Workspace) ManagerFor(ctx context.Context, accountID string) (*selection.Manager, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if m, ok := w.managers[accountID]; ok {
		return m, nil
	}

	stored, err := w.prefs.LoadSelections(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("hydrate account %s: %w", accountID, err)
	}

	firms := mergeCatalog(stored, w.catalog)
	committer := selection.CommitterFunc(func(ctx context.Context, firms []selection.Firm) error {
		return w.prefs.CommitSelections(ctx, accountID, firms)
	})

	m := selection.NewManager(firms, committer)
	w.managers[accountID] = m

	log.Debug().
		Str("account", accountID).
		Int("firms", len(firms)).
		Int("stored", len(stored)).
		Msg("Selection manager hydrated")

	return m, nil
}

// Evict drops the account's manager so the next request rehydrates
// from the preferences store. Unsaved pending edits are lost, which is
// the documented logout behavior.
func (w *Workspace) Evict(accountID string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	delete(w.managers, accountID)
}

// mergeCatalog overlays stored selections on the catalog: stored firms
// keep their saved order and flags, catalog firms the account has never
// saved are appended unselected.
func mergeCatalog(stored, catalog []selection.Firm) []selection.Firm {
	if len(stored) == 0 {
		return catalog
	}

	seen := make(map[string]bool, len(stored))
	merged := make([]selection.Firm, 0, len(stored)+len(catalog))
	for _, f := range stored {
		seen[f.ID] = true
		merged = append(merged, f)
	}
	for _, f := range catalog {
		if !seen[f.ID] {
			merged = append(merged, f)
		}
	}
	return merged
}
