package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/livingsystems/orient/internal/domain"
)

// TokenStore keeps external OAuth credentials. Only suitable for local
// mode: tokens are lost on restart.
type TokenStore struct {
	mu     sync.RWMutex
	google map[string]*domain.GoogleToken
	oura   *domain.OuraToken
}

func NewTokenStore() *TokenStore {
	return &TokenStore{google: make(map[string]*domain.GoogleToken)}
}

func (s *TokenStore) GoogleTokens(ctx context.Context) ([]*domain.GoogleToken, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*domain.GoogleToken, 0, len(s.google))
	for _, t := range s.google {
		c := *t
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].AccountEmail < out[j].AccountEmail })
	return out, nil
}

func (s *TokenStore) SaveGoogleToken(ctx context.Context, tok *domain.GoogleToken) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c := *tok
	c.UpdatedAt = time.Now()
	s.google[tok.AccountEmail] = &c
	return nil
}

func (s *TokenStore) UpdateGoogleAccessToken(ctx context.Context, email, accessToken string, expiry domain.Timestamp) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if t, ok := s.google[email]; ok {
		t.AccessToken = accessToken
		t.Expiry = expiry
		t.UpdatedAt = time.Now()
	}
	return nil
}

func (s *TokenStore) DeleteGoogleToken(ctx context.Context, email string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.google, email)
	return nil
}

func (s *TokenStore) OuraToken(ctx context.Context) (*domain.OuraToken, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.oura == nil {
		return nil, nil
	}
	c := *s.oura
	return &c, nil
}

func (s *TokenStore) SaveOuraToken(ctx context.Context, tok *domain.OuraToken) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c := *tok
	s.oura = &c
	return nil
}

func (s *TokenStore) DeleteOuraToken(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.oura = nil
	return nil
}
