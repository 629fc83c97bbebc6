package persistence

import (
	"context"

	"github.com/propflow/propflow/internal/domain/selection"
)

// PreferencesRepo stores the committed firm selections per account.
type PreferencesRepo interface {
	// CommitSelections atomically replaces the account's stored selection
	// set with the given snapshot. Either all rows land or none do.
	CommitSelections(ctx context.Context, accountID string, firms []selection.Firm) error

	// LoadSelections returns the account's last committed selection set,
	// or an empty slice if the account has never saved.
	LoadSelections(ctx context.Context, accountID string) ([]selection.Firm, error)
}

// RepoHealth reports basic connectivity for readiness checks.
type RepoHealth interface {
	Ping(ctx context.Context) error
}
