package wellbeing

import (
	"context"
	"testing"
	"time"

	"github.com/livingsystems/orient/internal/adapters/storage/memory"
	"github.com/livingsystems/orient/internal/domain"
)

func newFixture() (*Service, *memory.ScoreStore, *memory.TrackedItemStore) {
	scores := memory.NewScoreStore()
	scores.Now = func() time.Time {
		return time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	}
	tracked := memory.NewTrackedItemStore()
	return NewService(scores, tracked), scores, tracked
}

func TestSubmitScoresValidation(t *testing.T) {
	svc, _, _ := newFixture()
	ctx := context.Background()

	cases := []struct {
		name   string
		phase  domain.ScorePhase
		scores map[string]int
	}{
		{"bad phase", "afternoon", map[string]int{"Finances": 5}},
		{"empty scores", domain.PhaseMorning, nil},
		{"unknown category", domain.PhaseMorning, map[string]int{"Gardening": 5}},
		{"below range", domain.PhaseMorning, map[string]int{"Finances": 0}},
		{"above range", domain.PhaseMorning, map[string]int{"Finances": 11}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := svc.SubmitScores(ctx, "", "2024-03-01", tc.phase, tc.scores); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestSubmitScoresIsAppendOnly(t *testing.T) {
	svc, _, _ := newFixture()
	ctx := context.Background()

	for _, v := range []int{4, 9} {
		if _, err := svc.SubmitScores(ctx, "", "2024-03-01", domain.PhaseMorning,
			map[string]int{"Finances": v}); err != nil {
			t.Fatal(err)
		}
	}

	entries, err := svc.RecentScores(ctx, 7)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 2 {
		t.Fatalf("got %d entries, want both same-day submissions kept", len(entries))
	}
	// Newest first: the second submission carries the higher ID.
	if entries[0].ID <= entries[1].ID {
		t.Errorf("entries not newest first: %d then %d", entries[0].ID, entries[1].ID)
	}
}

func TestTrackDedupsWhileUnresolved(t *testing.T) {
	svc, _, _ := newFixture()
	ctx := context.Background()

	first, err := svc.Track(ctx, "Reply to the accountant", "2024-03-01", "")
	if err != nil {
		t.Fatal(err)
	}
	second, err := svc.Track(ctx, "Reply to the accountant", "2024-03-03", "")
	if err != nil {
		t.Fatal(err)
	}
	if second.ID != first.ID {
		t.Fatalf("repeat mention created a new item: %v vs %v", second.ID, first.ID)
	}
	if second.FirstSeen != "2024-03-01" || second.LastSeen != "2024-03-03" {
		t.Errorf("dates = %q / %q, want first seen kept and last seen refreshed",
			second.FirstSeen, second.LastSeen)
	}

	open, err := svc.OpenItems(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(open) != 1 {
		t.Errorf("got %d open items, want 1", len(open))
	}
}

func TestTrackAfterResolveStartsFresh(t *testing.T) {
	svc, _, _ := newFixture()
	ctx := context.Background()

	first, err := svc.Track(ctx, "Book the dentist", "2024-03-01", "")
	if err != nil {
		t.Fatal(err)
	}
	if err := svc.Resolve(ctx, first.ID); err != nil {
		t.Fatal(err)
	}

	open, _ := svc.OpenItems(ctx)
	if len(open) != 0 {
		t.Fatalf("resolved item still open: %+v", open)
	}

	again, err := svc.Track(ctx, "Book the dentist", "2024-03-10", "")
	if err != nil {
		t.Fatal(err)
	}
	if again.ID == first.ID {
		t.Error("post-resolution mention reused the resolved item")
	}
	if again.FirstSeen != "2024-03-10" {
		t.Errorf("fresh item first seen = %q", again.FirstSeen)
	}
}

func TestResolveUnknownItem(t *testing.T) {
	svc, _, _ := newFixture()

	if err := svc.Resolve(context.Background(), "nope"); err != domain.ErrItemNotFound {
		t.Errorf("got %v, want ErrItemNotFound", err)
	}
}

func TestTrackRequiresDescription(t *testing.T) {
	svc, _, _ := newFixture()

	if _, err := svc.Track(context.Background(), "", "2024-03-01", ""); err == nil {
		t.Error("expected error for empty description")
	}
}
