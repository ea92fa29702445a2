package memory

import (
	"context"
	"testing"
	"time"

	"github.com/livingsystems/orient/internal/domain"
)

func TestLatestSnapshotServesNewest(t *testing.T) {
	store := NewSnapshotStore()
	ctx := context.Background()

	if snap, err := store.LatestSnapshot(ctx); err != nil || snap != nil {
		t.Fatalf("empty store: got %v, %v", snap, err)
	}

	store.SaveSnapshot(ctx, &domain.Snapshot{ActiveNote: "first", ReceivedAt: time.Now()})
	store.SaveSnapshot(ctx, &domain.Snapshot{ActiveNote: "second", ReceivedAt: time.Now()})

	snap, err := store.LatestSnapshot(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if snap.ActiveNote != "second" {
		t.Errorf("active note = %q, want newest push", snap.ActiveNote)
	}
}

func TestSnapshotCopiesAreIndependent(t *testing.T) {
	store := NewSnapshotStore()
	ctx := context.Background()

	store.SaveSnapshot(ctx, &domain.Snapshot{
		Reminders:  []domain.Reminder{{Name: "original"}},
		ReceivedAt: time.Now(),
	})

	snap, _ := store.LatestSnapshot(ctx)
	snap.Reminders[0].Name = "tampered"

	again, _ := store.LatestSnapshot(ctx)
	if again.Reminders[0].Name != "original" {
		t.Error("returned snapshot aliases store state")
	}
}
