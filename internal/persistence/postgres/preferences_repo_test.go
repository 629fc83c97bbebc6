package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/propflow/propflow/internal/domain/selection"
)

func newMockRepo(t *testing.T) (*preferencesRepo, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	repo := &preferencesRepo{
		db:      sqlx.NewDb(db, "postgres"),
		timeout: 2 * time.Second,
	}
	return repo, mock
}

func TestCommitSelections(t *testing.T) {
	repo, mock := newMockRepo(t)

	firms := []selection.Firm{
		{ID: "ftmo", Name: "FTMO", Description: "Forex evaluations", Selected: true},
		{ID: "acme", Name: "Acme Capital", Selected: false, Custom: true, MatchKeyword: "ACMECAP"},
	}

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM firm_selections").
		WithArgs("user@propflow.dev").
		WillReturnResult(sqlmock.NewResult(0, 1))
	prep := mock.ExpectPrepare("INSERT INTO firm_selections")
	prep.ExpectExec().
		WithArgs("user@propflow.dev", "ftmo", "FTMO", "Forex evaluations", true, false, "", 0).
		WillReturnResult(sqlmock.NewResult(0, 1))
	prep.ExpectExec().
		WithArgs("user@propflow.dev", "acme", "Acme Capital", "", false, true, "ACMECAP", 1).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := repo.CommitSelections(context.Background(), "user@propflow.dev", firms)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCommitSelectionsRollsBackOnFailure(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM firm_selections").
		WithArgs("user@propflow.dev").
		WillReturnResult(sqlmock.NewResult(0, 0))
	prep := mock.ExpectPrepare("INSERT INTO firm_selections")
	prep.ExpectExec().
		WillReturnError(errors.New("connection reset"))
	mock.ExpectRollback()

	err := repo.CommitSelections(context.Background(), "user@propflow.dev",
		[]selection.Firm{{ID: "ftmo", Name: "FTMO"}})
	assert.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLoadSelections(t *testing.T) {
	repo, mock := newMockRepo(t)

	rows := sqlmock.NewRows([]string{"firm_id", "name", "description", "selected", "custom", "match_keyword"}).
		AddRow("ftmo", "FTMO", "Forex evaluations", true, false, "").
		AddRow("acme", "Acme Capital", "", false, true, "ACMECAP")

	mock.ExpectQuery("SELECT firm_id, name, description, selected, custom, match_keyword").
		WithArgs("user@propflow.dev").
		WillReturnRows(rows)

	firms, err := repo.LoadSelections(context.Background(), "user@propflow.dev")
	require.NoError(t, err)
	require.Len(t, firms, 2)
	assert.True(t, firms[0].Selected)
	assert.True(t, firms[1].Custom)
	assert.Equal(t, "ACMECAP", firms[1].MatchKeyword)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLoadSelectionsEmptyAccount(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery("SELECT firm_id, name, description, selected, custom, match_keyword").
		WithArgs("nobody@propflow.dev").
		WillReturnRows(sqlmock.NewRows([]string{"firm_id", "name", "description", "selected", "custom", "match_keyword"}))

	firms, err := repo.LoadSelections(context.Background(), "nobody@propflow.dev")
	require.NoError(t, err)
	assert.Empty(t, firms)
}
