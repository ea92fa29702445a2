package memory

import (
	"context"
	"sync"

	"github.com/livingsystems/orient/internal/domain"
)

// SnapshotStore keeps the push history but only ever serves the newest
// row, matching the "insert new, read most recent" contract.
type SnapshotStore struct {
	mu        sync.RWMutex
	snapshots []*domain.Snapshot
}

func NewSnapshotStore() *SnapshotStore {
	return &SnapshotStore{}
}

func (s *SnapshotStore) SaveSnapshot(ctx context.Context, snap *domain.Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := *snap
	stored.Notes = append([]domain.Note(nil), snap.Notes...)
	stored.Reminders = append([]domain.Reminder(nil), snap.Reminders...)
	s.snapshots = append(s.snapshots, &stored)
	return nil
}

func (s *SnapshotStore) LatestSnapshot(ctx context.Context) (*domain.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.snapshots) == 0 {
		return nil, nil
	}
	latest := s.snapshots[len(s.snapshots)-1]
	c := *latest
	c.Notes = append([]domain.Note(nil), latest.Notes...)
	c.Reminders = append([]domain.Reminder(nil), latest.Reminders...)
	return &c, nil
}
