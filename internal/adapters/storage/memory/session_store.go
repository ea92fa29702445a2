package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/livingsystems/orient/internal/domain"
)

type SessionStore struct {
	mu     sync.RWMutex
	byID   map[domain.SessionID]*domain.Session
	byDate map[string]domain.SessionID
}

func NewSessionStore() *SessionStore {
	return &SessionStore{
		byID:   make(map[domain.SessionID]*domain.Session),
		byDate: make(map[string]domain.SessionID),
	}
}

// CreateSession is insert-or-get: the date's existing session wins, which
// makes the one-session-per-day uniqueness hold under concurrent creates.
func (s *SessionStore) CreateSession(ctx context.Context, session *domain.Session) (*domain.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if id, exists := s.byDate[session.Date]; exists {
		return cloneSession(s.byID[id]), nil
	}

	stored := cloneSession(session)
	s.byID[stored.ID] = stored
	s.byDate[stored.Date] = stored.ID
	return cloneSession(stored), nil
}

func (s *SessionStore) GetSession(ctx context.Context, id domain.SessionID) (*domain.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, ok := s.byID[id]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	return cloneSession(sess), nil
}

func (s *SessionStore) GetSessionByDate(ctx context.Context, date string) (*domain.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byDate[date]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	return cloneSession(s.byID[id]), nil
}

func (s *SessionStore) UpdateSession(ctx context.Context, session *domain.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byID[session.ID]; !exists {
		return domain.ErrSessionNotFound
	}
	s.byID[session.ID] = cloneSession(session)
	return nil
}

func (s *SessionStore) ListRecentSessions(ctx context.Context, limit int) ([]*domain.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*domain.Session, 0, len(s.byID))
	for _, sess := range s.byID {
		out = append(out, cloneSession(sess))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date > out[j].Date })

	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func cloneSession(s *domain.Session) *domain.Session {
	c := *s
	if s.CompletedAt != nil {
		t := *s.CompletedAt
		c.CompletedAt = &t
	}
	return &c
}
