package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"sharestuff/internal/domain"
	"sharestuff/internal/metrics"
)

// Store keeps server-side login state keyed by opaque tokens.
type Store interface {
	Create(ctx context.Context, userID int64) (domain.Session, error)
	Get(ctx context.Context, token string) (domain.Session, bool)
	Destroy(ctx context.Context, token string)
}

// MemoryStore is a Store held in process memory.
type MemoryStore struct {
	mu       sync.Mutex
	sessions map[string]domain.Session
	ttl      time.Duration
	now      func() time.Time
}

func NewMemoryStore(ttl time.Duration) *MemoryStore {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &MemoryStore{
		sessions: make(map[string]domain.Session),
		ttl:      ttl,
		now:      time.Now,
	}
}

// TTL is how long a new session stays valid.
func (s *MemoryStore) TTL() time.Duration {
	return s.ttl
}

func (s *MemoryStore) Create(ctx context.Context, userID int64) (domain.Session, error) {
	sess := domain.Session{
		Token:     uuid.NewString(),
		UserID:    userID,
		LoggedIn:  true,
		ExpiresAt: s.now().Add(s.ttl),
	}

	s.mu.Lock()
	s.sessions[sess.Token] = sess
	n := len(s.sessions)
	s.mu.Unlock()

	metrics.ActiveSessions.Set(float64(n))
	return sess, nil
}

func (s *MemoryStore) Get(ctx context.Context, token string) (domain.Session, bool) {
	if token == "" {
		return domain.Session{}, false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[token]
	if !ok {
		return domain.Session{}, false
	}
	if !s.now().Before(sess.ExpiresAt) {
		delete(s.sessions, token)
		return domain.Session{}, false
	}
	return sess, true
}

func (s *MemoryStore) Destroy(ctx context.Context, token string) {
	s.mu.Lock()
	delete(s.sessions, token)
	n := len(s.sessions)
	s.mu.Unlock()

	metrics.ActiveSessions.Set(float64(n))
}

// Prune drops expired sessions and returns how many were removed.
func (s *MemoryStore) Prune() int {
	s.mu.Lock()
	now := s.now()
	removed := 0
	for token, sess := range s.sessions {
		if !now.Before(sess.ExpiresAt) {
			delete(s.sessions, token)
			removed++
		}
	}
	n := len(s.sessions)
	s.mu.Unlock()

	metrics.ActiveSessions.Set(float64(n))
	return removed
}

// RunJanitor prunes expired sessions every interval until ctx is done.
func (s *MemoryStore) RunJanitor(ctx context.Context, interval time.Duration, logger *logrus.Logger) {
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if removed := s.Prune(); removed > 0 && logger != nil {
				logger.Debugf("pruned %d expired sessions", removed)
			}
		}
	}
}

var _ Store = (*MemoryStore)(nil)
