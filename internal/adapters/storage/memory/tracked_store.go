package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/livingsystems/orient/internal/domain"
)

type TrackedItemStore struct {
	mu    sync.RWMutex
	items []*domain.TrackedItem
}

func NewTrackedItemStore() *TrackedItemStore {
	return &TrackedItemStore{}
}

// UpsertTrackedItem refreshes an unresolved item with the same description
// instead of duplicating it. Resolved items are never revived: the same
// description after resolution starts a new row.
func (s *TrackedItemStore) UpsertTrackedItem(ctx context.Context, description, date string, sessionID domain.SessionID) (*domain.TrackedItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, item := range s.items {
		if !item.Resolved && item.Description == description {
			item.LastSeen = date
			if sessionID != "" {
				item.SessionID = sessionID
			}
			c := *item
			return &c, nil
		}
	}

	item := &domain.TrackedItem{
		ID:          domain.TrackedItemID(uuid.NewString()),
		Description: description,
		FirstSeen:   date,
		LastSeen:    date,
		SessionID:   sessionID,
	}
	s.items = append(s.items, item)
	c := *item
	return &c, nil
}

func (s *TrackedItemStore) ResolveTrackedItem(ctx context.Context, id domain.TrackedItemID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, item := range s.items {
		if item.ID == id {
			item.Resolved = true
			return nil
		}
	}
	return domain.ErrItemNotFound
}

func (s *TrackedItemStore) ListUnresolvedItems(ctx context.Context) ([]*domain.TrackedItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*domain.TrackedItem
	for _, item := range s.items {
		if !item.Resolved {
			c := *item
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].FirstSeen < out[j].FirstSeen })
	return out, nil
}
