package session

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/livingsystems/orient/internal/domain"
)

// Export renders the contractual plain-text block for a completed day:
//
//	=== YYYY-MM-DD ===
//	SCORES: <short-name> <n>, ...
//	AIM: <statement or "(none)">
//	SUMMARY: <free text>
//	---
func (s *Service) Export(ctx context.Context, date string) (string, error) {
	sess, err := s.sessions.GetSessionByDate(ctx, date)
	if err != nil {
		return "", err
	}
	if sess.Status != domain.StatusComplete || sess.Summary == "" {
		return "", domain.ErrSessionNotComplete
	}

	entry, err := s.scoresForDate(ctx, date)
	if err != nil {
		return "", err
	}

	scoresLine := "SCORES: (not recorded)"
	if entry != nil {
		parts := make([]string, 0, len(domain.LifeWheelCategories))
		for _, cat := range domain.LifeWheelCategories {
			val := "?"
			if v, ok := entry.Scores[cat]; ok {
				val = fmt.Sprintf("%d", v)
			}
			parts = append(parts, fmt.Sprintf("%s %s", domain.ScoreShortNames[cat], val))
		}
		scoresLine = "SCORES: " + strings.Join(parts, ", ")
	}

	aimLine := "AIM: (none)"
	if aim, err := s.aims.CurrentAim(ctx); err == nil && aim != nil {
		aimLine = "AIM: " + aim.Statement
	}

	return fmt.Sprintf("=== %s ===\n%s\n%s\nSUMMARY: %s\n---\n",
		date, scoresLine, aimLine, sess.Summary), nil
}

// scoresForDate finds the date's entry, preferring the morning phase.
func (s *Service) scoresForDate(ctx context.Context, date string) (*domain.ScoreEntry, error) {
	day, err := time.Parse(domain.DateFormat, date)
	if err != nil {
		return nil, fmt.Errorf("bad export date %q: %w", date, err)
	}
	daysBack := int(s.now().In(s.loc).Sub(day).Hours()/24) + 1
	if daysBack < 1 {
		daysBack = 1
	}

	entries, err := s.scores.ListScores(ctx, daysBack)
	if err != nil {
		return nil, err
	}

	var fallback *domain.ScoreEntry
	for _, e := range entries {
		if e.Date != date {
			continue
		}
		if e.Phase == domain.PhaseMorning {
			return e, nil
		}
		if fallback == nil {
			fallback = e
		}
	}
	return fallback, nil
}
