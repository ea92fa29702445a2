package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/livingsystems/orient/internal/domain"
)

type ScoreStore struct {
	mu      sync.RWMutex
	entries []*domain.ScoreEntry
	nextID  int64

	// Now is overridable so tests can pin the window cutoff.
	Now func() time.Time
}

func NewScoreStore() *ScoreStore {
	return &ScoreStore{Now: time.Now}
}

// SaveScores is append-only: duplicates for a (date, phase) pair are kept
// as separate rows.
func (s *ScoreStore) SaveScores(ctx context.Context, entry *domain.ScoreEntry) (*domain.ScoreEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	stored := cloneScores(entry)
	stored.ID = s.nextID
	s.entries = append(s.entries, stored)
	return cloneScores(stored), nil
}

func (s *ScoreStore) ListScores(ctx context.Context, daysBack int) ([]*domain.ScoreEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	cutoff := s.Now().AddDate(0, 0, -daysBack).Format(domain.DateFormat)

	var out []*domain.ScoreEntry
	for _, e := range s.entries {
		if e.Date >= cutoff {
			out = append(out, cloneScores(e))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date > out[j].Date
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

func cloneScores(e *domain.ScoreEntry) *domain.ScoreEntry {
	c := *e
	c.Scores = make(map[string]int, len(e.Scores))
	for k, v := range e.Scores {
		c.Scores[k] = v
	}
	return &c
}
