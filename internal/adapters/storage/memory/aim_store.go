package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/livingsystems/orient/internal/domain"
)

type AimStore struct {
	mu          sync.RWMutex
	aims        []*domain.Aim
	reflections []*domain.AimReflection
	nextReflID  int64
}

func NewAimStore() *AimStore {
	return &AimStore{}
}

// CreateAim demotes the current active aim and inserts the new one under
// one lock, so readers never observe zero or two active aims.
func (s *AimStore) CreateAim(ctx context.Context, aim *domain.Aim) (*domain.Aim, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, a := range s.aims {
		if a.Status == domain.AimActive {
			a.Status = domain.AimSuperseded
		}
	}

	stored := *aim
	stored.Status = domain.AimActive
	s.aims = append(s.aims, &stored)
	c := stored
	return &c, nil
}

func (s *AimStore) UpdateAim(ctx context.Context, id domain.AimID, fields domain.AimUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, a := range s.aims {
		if a.ID != id {
			continue
		}
		if fields.HeartWish != nil {
			a.HeartWish = *fields.HeartWish
		}
		if fields.Statement != nil {
			a.Statement = *fields.Statement
		}
		if fields.EndDate != nil {
			a.EndDate = *fields.EndDate
		}
		if fields.AccountabilityPerson != nil {
			a.AccountabilityPerson = *fields.AccountabilityPerson
		}
		if fields.Status != nil {
			a.Status = *fields.Status
		}
		return nil
	}
	return domain.ErrAimNotFound
}

func (s *AimStore) CurrentAim(ctx context.Context) (*domain.Aim, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, a := range s.aims {
		if a.Status == domain.AimActive {
			c := *a
			return &c, nil
		}
	}
	return nil, nil
}

func (s *AimStore) ListAims(ctx context.Context, limit int) ([]*domain.Aim, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*domain.Aim, 0, len(s.aims))
	for _, a := range s.aims {
		c := *a
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })

	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *AimStore) AddAimReflection(ctx context.Context, r *domain.AimReflection) (*domain.AimReflection, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextReflID++
	stored := *r
	stored.ID = s.nextReflID
	s.reflections = append(s.reflections, &stored)
	c := stored
	return &c, nil
}

func (s *AimStore) ListAimReflections(ctx context.Context, aimID domain.AimID, limit int) ([]*domain.AimReflection, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*domain.AimReflection
	for _, r := range s.reflections {
		if r.AimID == aimID {
			c := *r
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })

	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
