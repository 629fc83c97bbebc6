package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/propflow/propflow/internal/domain/plan"
	"github.com/propflow/propflow/internal/session"
)

// ErrInvalidCredentials is returned when email or password is missing.
// Actual credential verification lives with an external identity
// provider; this service only shapes the session.
var ErrInvalidCredentials = errors.New("email and password are required")

// Service turns a login into a session seeded with a plan tier. The
// tier argument is the developer plan switcher: it lets a tester open
// the dashboard under any plan without touching billing.
type Service struct {
	sessions session.Store
}

// NewService creates an auth service over the given session store.
func NewService(sessions session.Store) *Service {
	return &Service{sessions: sessions}
}

// Login validates the form inputs, parses the requested plan tier and
// issues a session token. An unrecognized tier is a hard error, never a
// silently-permissive or silently-restrictive default.
func (s *Service) Login(ctx context.Context, email, password, tier string) (session.Session, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" || strings.TrimSpace(password) == "" {
		return session.Session{}, ErrInvalidCredentials
	}

	parsed, err := plan.ParseTier(tier)
	if err != nil {
		return session.Session{}, fmt.Errorf("login rejected: %w", err)
	}

	sess := session.Session{
		Token:     uuid.NewString(),
		AccountID: email,
		Email:     email,
		Plan:      parsed,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.sessions.Put(ctx, sess); err != nil {
		return session.Session{}, fmt.Errorf("store session: %w", err)
	}

	log.Info().
		Str("account", email).
		Str("plan", parsed.String()).
		Msg("Session opened")

	return sess, nil
}

// Authenticate resolves a bearer token to its session.
func (s *Service) Authenticate(ctx context.Context, token string) (session.Session, error) {
	if token == "" {
		return session.Session{}, session.ErrNotFound
	}
	return s.sessions.Get(ctx, token)
}

// Logout drops the session. Unknown tokens are a no-op.
func (s *Service) Logout(ctx context.Context, token string) error {
	return s.sessions.Delete(ctx, token)
}
