package memory

import (
	"context"
	"testing"
	"time"

	"github.com/livingsystems/orient/internal/domain"
)

func TestCreateSessionIsInsertOrGet(t *testing.T) {
	store := NewSessionStore()
	ctx := context.Background()

	first, err := store.CreateSession(ctx, &domain.Session{
		ID:     "s1",
		Date:   "2024-03-01",
		Status: domain.StatusCheckin,
	})
	if err != nil {
		t.Fatal(err)
	}

	second, err := store.CreateSession(ctx, &domain.Session{
		ID:     "s2",
		Date:   "2024-03-01",
		Status: domain.StatusCheckin,
	})
	if err != nil {
		t.Fatal(err)
	}
	if second.ID != first.ID {
		t.Errorf("duplicate date created a second session: %v vs %v", second.ID, first.ID)
	}

	if _, err := store.GetSession(ctx, "s2"); err != domain.ErrSessionNotFound {
		t.Errorf("losing create was stored anyway: %v", err)
	}
}

func TestGetSessionByDate(t *testing.T) {
	store := NewSessionStore()
	ctx := context.Background()

	if _, err := store.GetSessionByDate(ctx, "2024-03-01"); err != domain.ErrSessionNotFound {
		t.Errorf("got %v, want ErrSessionNotFound", err)
	}

	store.CreateSession(ctx, &domain.Session{ID: "s1", Date: "2024-03-01"})
	sess, err := store.GetSessionByDate(ctx, "2024-03-01")
	if err != nil {
		t.Fatal(err)
	}
	if sess.ID != "s1" {
		t.Errorf("got %v", sess.ID)
	}
}

func TestUpdateSessionDoesNotAliasCallerValue(t *testing.T) {
	store := NewSessionStore()
	ctx := context.Background()

	store.CreateSession(ctx, &domain.Session{ID: "s1", Date: "2024-03-01"})

	sess, _ := store.GetSession(ctx, "s1")
	sess.Dashboard = "generated"
	if err := store.UpdateSession(ctx, sess); err != nil {
		t.Fatal(err)
	}

	// Mutating the caller's copy after the update must not leak in.
	sess.Dashboard = "mutated after store"

	stored, _ := store.GetSession(ctx, "s1")
	if stored.Dashboard != "generated" {
		t.Errorf("dashboard = %q", stored.Dashboard)
	}
}

func TestListRecentSessionsNewestFirst(t *testing.T) {
	store := NewSessionStore()
	ctx := context.Background()

	ids := []domain.SessionID{"a", "b", "c"}
	for i, date := range []string{"2024-03-01", "2024-03-03", "2024-03-02"} {
		store.CreateSession(ctx, &domain.Session{
			ID:        ids[i],
			Date:      date,
			CreatedAt: time.Now(),
		})
	}

	recent, err := store.ListRecentSessions(ctx, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(recent) != 2 {
		t.Fatalf("got %d sessions, want limit applied", len(recent))
	}
	if recent[0].Date != "2024-03-03" || recent[1].Date != "2024-03-02" {
		t.Errorf("order = %q, %q", recent[0].Date, recent[1].Date)
	}
}
