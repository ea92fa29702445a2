package wellbeing

import (
	"context"
	"fmt"
	"time"

	"github.com/livingsystems/orient/internal/domain"
	"github.com/livingsystems/orient/internal/observability"
)

// Service covers the auxiliary stateful entities consumed by the
// synthesizer: life wheel scores and tracked items.
type Service struct {
	scores  domain.ScoreStore
	tracked domain.TrackedItemStore
	now     func() time.Time
}

func NewService(scores domain.ScoreStore, tracked domain.TrackedItemStore) *Service {
	return &Service{scores: scores, tracked: tracked, now: time.Now}
}

// SubmitScores appends a life wheel entry. Entries are append-only: a
// second submission for the same (date, phase) is a second row, not an
// overwrite. Values must sit in 1–10 and categories must belong to the
// fixed set.
func (s *Service) SubmitScores(ctx context.Context, sessionID domain.SessionID, date string, phase domain.ScorePhase, scores map[string]int) (*domain.ScoreEntry, error) {
	if phase != domain.PhaseMorning && phase != domain.PhaseEvening {
		return nil, fmt.Errorf("invalid phase %q", phase)
	}
	if len(scores) == 0 {
		return nil, fmt.Errorf("scores are required")
	}

	known := make(map[string]bool, len(domain.LifeWheelCategories))
	for _, cat := range domain.LifeWheelCategories {
		known[cat] = true
	}
	for cat, v := range scores {
		if !known[cat] {
			return nil, fmt.Errorf("unknown life wheel category %q", cat)
		}
		if v < 1 || v > 10 {
			return nil, fmt.Errorf("score for %q out of range: %d", cat, v)
		}
	}

	entry, err := s.scores.SaveScores(ctx, &domain.ScoreEntry{
		SessionID: sessionID,
		Date:      date,
		Phase:     phase,
		Scores:    scores,
		CreatedAt: s.now(),
	})
	if err != nil {
		return nil, err
	}

	observability.LoggerFromContext(ctx).Info("scores submitted", "date", date, "phase", phase)
	return entry, nil
}

// RecentScores returns the trailing window, newest first.
func (s *Service) RecentScores(ctx context.Context, daysBack int) ([]*domain.ScoreEntry, error) {
	if daysBack <= 0 {
		daysBack = 30
	}
	return s.scores.ListScores(ctx, daysBack)
}

// Track upserts an open commitment. A repeat of an unresolved description
// refreshes its LastSeen; a repeat after resolution starts a new item.
func (s *Service) Track(ctx context.Context, description, date string, sessionID domain.SessionID) (*domain.TrackedItem, error) {
	if description == "" {
		return nil, fmt.Errorf("description is required")
	}
	return s.tracked.UpsertTrackedItem(ctx, description, date, sessionID)
}

func (s *Service) Resolve(ctx context.Context, id domain.TrackedItemID) error {
	return s.tracked.ResolveTrackedItem(ctx, id)
}

func (s *Service) OpenItems(ctx context.Context) ([]*domain.TrackedItem, error) {
	return s.tracked.ListUnresolvedItems(ctx)
}
