package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	redis "github.com/redis/go-redis/v9"

	"github.com/propflow/propflow/internal/domain/plan"
)

// ErrNotFound is returned when a token has no live session.
var ErrNotFound = errors.New("session not found")

// Session is one authenticated dashboard session. Plan is seeded at
// login (the developer plan switcher) and read on every capacity and
// feature check.
type Session struct {
	Token     string    `json:"token"`
	AccountID string    `json:"account_id"`
	Email     string    `json:"email"`
	Plan      plan.Tier `json:"plan"`
	CreatedAt time.Time `json:"created_at"`
}

// Store holds live sessions keyed by token.
type Store interface {
	Put(ctx context.Context, s Session) error
	Get(ctx context.Context, token string) (Session, error)
	Delete(ctx context.Context, token string) error
}

type memoryStore struct {
	mu  sync.Mutex
	m   map[string]memoryEntry
	ttl time.Duration
}

type memoryEntry struct {
	s   Session
	exp time.Time
}

// NewMemoryStore creates an in-process store for tests and single-node
// runs. A zero ttl means sessions never expire.
func NewMemoryStore(ttl time.Duration) Store {
	return &memoryStore{m: make(map[string]memoryEntry), ttl: ttl}
}

func (s *memoryStore) Put(ctx context.Context, sess Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e := memoryEntry{s: sess}
	if s.ttl > 0 {
		e.exp = time.Now().Add(s.ttl)
	}
	s.m[sess.Token] = e
	return nil
}

func (s *memoryStore) Get(ctx context.Context, token string) (Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.m[token]
	if !ok || (!e.exp.IsZero() && time.Now().After(e.exp)) {
		delete(s.m, token)
		return Session{}, ErrNotFound
	}
	return e.s, nil
}

func (s *memoryStore) Delete(ctx context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.m, token)
	return nil
}

type redisStore struct {
	r   *redis.Client
	ttl time.Duration
}

// NewRedisStore creates a Redis-backed store for multi-instance
// deployments. Sessions are JSON encoded under propflow:session:<token>.
func NewRedisStore(client *redis.Client, ttl time.Duration) Store {
	return &redisStore{r: client, ttl: ttl}
}

func sessionKey(token string) string {
	return "propflow:session:" + token
}

func (s *redisStore) Put(ctx context.Context, sess Session) error {
	b, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	if err := s.r.Set(ctx, sessionKey(sess.Token), b, s.ttl).Err(); err != nil {
		return fmt.Errorf("store session: %w", err)
	}
	return nil
}

func (s *redisStore) Get(ctx context.Context, token string) (Session, error) {
	b, err := s.r.Get(ctx, sessionKey(token)).Bytes()
	if errors.Is(err, redis.Nil) {
		return Session{}, ErrNotFound
	}
	if err != nil {
		return Session{}, fmt.Errorf("fetch session: %w", err)
	}
	var sess Session
	if err := json.Unmarshal(b, &sess); err != nil {
		return Session{}, fmt.Errorf("decode session: %w", err)
	}
	return sess, nil
}

func (s *redisStore) Delete(ctx context.Context, token string) error {
	if err := s.r.Del(ctx, sessionKey(token)).Err(); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}
