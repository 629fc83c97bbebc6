package persistence

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/sony/gobreaker"

	"github.com/propflow/propflow/internal/domain/selection"
)

// BreakerConfig tunes the circuit breaker guarding the preferences store.
type BreakerConfig struct {
	MaxRequests         uint32
	Interval            time.Duration
	Timeout             time.Duration
	ConsecutiveFailures uint32
}

// DefaultBreakerConfig returns production defaults: trip after five
// consecutive commit failures, probe again after thirty seconds.
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		MaxRequests:         1,
		Interval:            60 * time.Second,
		Timeout:             30 * time.Second,
		ConsecutiveFailures: 5,
	}
}

// BreakerRepo wraps a PreferencesRepo in a circuit breaker so a
// flapping database degrades to fast failures instead of piling up
// slow ones. Failed commits surface as ordinary errors; the caller's
// pending edits survive for retry.
type BreakerRepo struct {
	inner   PreferencesRepo
	breaker *gobreaker.CircuitBreaker
}

// NewBreakerRepo wraps the given repository with a circuit breaker.
func NewBreakerRepo(inner PreferencesRepo, config BreakerConfig) *BreakerRepo {
	settings := gobreaker.Settings{
		Name:        "preferences",
		MaxRequests: config.MaxRequests,
		Interval:    config.Interval,
		Timeout:     config.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= config.ConsecutiveFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("Preferences store breaker state changed")
		},
	}

	return &BreakerRepo{
		inner:   inner,
		breaker: gobreaker.NewCircuitBreaker(settings),
	}
}

// CommitSelections runs the inner commit through the breaker.
func (b *BreakerRepo) CommitSelections(ctx context.Context, accountID string, firms []selection.Firm) error {
	_, err := b.breaker.Execute(func() (interface{}, error) {
		return nil, b.inner.CommitSelections(ctx, accountID, firms)
	})
	return err
}

// LoadSelections runs the inner load through the breaker.
func (b *BreakerRepo) LoadSelections(ctx context.Context, accountID string) ([]selection.Firm, error) {
	result, err := b.breaker.Execute(func() (interface{}, error) {
		return b.inner.LoadSelections(ctx, accountID)
	})
	if err != nil {
		return nil, err
	}
	return result.([]selection.Firm), nil
}

// Ping bypasses the breaker: health probes should observe the store
// directly even while commits are being shed.
func (b *BreakerRepo) Ping(ctx context.Context) error {
	if h, ok := b.inner.(RepoHealth); ok {
		return h.Ping(ctx)
	}
	return nil
}

// State exposes the breaker state for health reporting.
func (b *BreakerRepo) State() gobreaker.State {
	return b.breaker.State()
}
