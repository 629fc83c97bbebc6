package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/propflow/propflow/internal/domain/selection"
	"github.com/propflow/propflow/internal/persistence"
)

// preferencesRepo implements PreferencesRepo for PostgreSQL
type preferencesRepo struct {
	db      *sqlx.DB
	timeout time.Duration
}

// NewPreferencesRepo creates a new PostgreSQL preferences repository
func NewPreferencesRepo(db *sqlx.DB, timeout time.Duration) persistence.PreferencesRepo {
	return &preferencesRepo{
		db:      db,
		timeout: timeout,
	}
}

// CommitSelections replaces the account's selection rows inside one
// transaction. Position is stored so the dashboard ordering survives a
// reload.
func (r *preferencesRepo) CommitSelections(ctx context.Context, accountID string, firms []selection.Firm) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM firm_selections WHERE account_id = $1`, accountID); err != nil {
		return fmt.Errorf("failed to clear previous selections: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO firm_selections (account_id, firm_id, name, description, selected, custom, match_keyword, position)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for i, firm := range firms {
		_, err := stmt.ExecContext(ctx,
			accountID, firm.ID, firm.Name, firm.Description,
			firm.Selected, firm.Custom, firm.MatchKeyword, i)
		if err != nil {
			if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
				return fmt.Errorf("duplicate firm %s for account %s: %w", firm.ID, accountID, err)
			}
			return fmt.Errorf("failed to insert selection for firm %s: %w", firm.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit selections: %w", err)
	}
	return nil
}

// LoadSelections retrieves the account's committed selections in saved order.
func (r *preferencesRepo) LoadSelections(ctx context.Context, accountID string) ([]selection.Firm, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	query := `
		SELECT firm_id, name, description, selected, custom, match_keyword
		FROM firm_selections
		WHERE account_id = $1
		ORDER BY position ASC`

	rows, err := r.db.QueryxContext(ctx, query, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to query selections: %w", err)
	}
	defer rows.Close()

	var firms []selection.Firm
	for rows.Next() {
		var f selection.Firm
		if err := rows.Scan(&f.ID, &f.Name, &f.Description, &f.Selected, &f.Custom, &f.MatchKeyword); err != nil {
			return nil, fmt.Errorf("failed to scan selection row: %w", err)
		}
		firms = append(firms, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate selections: %w", err)
	}

	return firms, nil
}

// Ping tests basic connectivity for readiness checks.
func (r *preferencesRepo) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	return r.db.PingContext(ctx)
}
