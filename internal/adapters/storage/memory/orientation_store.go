package memory

import (
	"context"
	"sync"
	"time"

	"github.com/livingsystems/orient/internal/domain"
)

// OrientationStore holds the singleton orientation document.
type OrientationStore struct {
	mu      sync.RWMutex
	current *domain.Orientation

	Now func() time.Time
}

func NewOrientationStore() *OrientationStore {
	return &OrientationStore{Now: time.Now}
}

func (s *OrientationStore) GetOrientation(ctx context.Context) (*domain.Orientation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.current == nil {
		return nil, nil
	}
	c := *s.current
	return &c, nil
}

func (s *OrientationStore) SetOrientation(ctx context.Context, content string) (*domain.Orientation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.current = &domain.Orientation{
		Content:   content,
		UpdatedAt: s.Now(),
	}
	c := *s.current
	return &c, nil
}
