package persistence

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/propflow/propflow/internal/domain/selection"
)

type stubRepo struct {
	commitErr error
	loaded    []selection.Firm
	commits   int
}

func (s *stubRepo) CommitSelections(ctx context.Context, accountID string, firms []selection.Firm) error {
	s.commits++
	return s.commitErr
}

func (s *stubRepo) LoadSelections(ctx context.Context, accountID string) ([]selection.Firm, error) {
	return s.loaded, nil
}

func testBreakerConfig() BreakerConfig {
	return BreakerConfig{
		MaxRequests:         1,
		Interval:            time.Minute,
		Timeout:             time.Minute,
		ConsecutiveFailures: 3,
	}
}

func TestBreakerPassesThrough(t *testing.T) {
	stub := &stubRepo{loaded: []selection.Firm{{ID: "ftmo", Name: "FTMO"}}}
	repo := NewBreakerRepo(stub, testBreakerConfig())

	err := repo.CommitSelections(context.Background(), "acct", nil)
	require.NoError(t, err)

	firms, err := repo.LoadSelections(context.Background(), "acct")
	require.NoError(t, err)
	assert.Len(t, firms, 1)
	assert.Equal(t, gobreaker.StateClosed, repo.State())
}

func TestBreakerOpensAfterConsecutiveFailures(t *testing.T) {
	stub := &stubRepo{commitErr: errors.New("connection refused")}
	repo := NewBreakerRepo(stub, testBreakerConfig())

	for i := 0; i < 3; i++ {
		assert.Error(t, repo.CommitSelections(context.Background(), "acct", nil))
	}
	assert.Equal(t, gobreaker.StateOpen, repo.State())

	// Open breaker fails fast without touching the store.
	before := stub.commits
	err := repo.CommitSelections(context.Background(), "acct", nil)
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.Equal(t, before, stub.commits)
}
