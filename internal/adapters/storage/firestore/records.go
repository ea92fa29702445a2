package firestore

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/google/uuid"
	"google.golang.org/api/iterator"

	"github.com/livingsystems/orient/internal/domain"
)

// ─────────────────────────────────────────
// Firestore Types
// ─────────────────────────────────────────

type snapshotDoc struct {
	ReceivedAt time.Time     `firestore:"received_at"`
	Notes      []noteDoc     `firestore:"notes"`
	ActiveNote string        `firestore:"active_note"`
	Reminders  []reminderDoc `firestore:"reminders"`
}

type noteDoc struct {
	Title string `firestore:"title"`
	Body  string `firestore:"body"`
}

type reminderDoc struct {
	Name    string `firestore:"name"`
	DueDate string `firestore:"due_date"`
	List    string `firestore:"list"`
}

type trackedItemDoc struct {
	Description string `firestore:"description"`
	FirstSeen   string `firestore:"first_seen"`
	LastSeen    string `firestore:"last_seen"`
	Resolved    bool   `firestore:"resolved"`
	SessionID   string `firestore:"session_id"`
}

type scoreEntryDoc struct {
	SessionID string         `firestore:"session_id"`
	Date      string         `firestore:"date"`
	Phase     string         `firestore:"phase"`
	Scores    map[string]int `firestore:"scores"`
	CreatedAt time.Time      `firestore:"created_at"`
}

// ─────────────────────────────────────────
// SnapshotStore implementation
// ─────────────────────────────────────────

func (s *Store) snapshotsCol() *firestore.CollectionRef {
	return s.client.Collection("snapshots")
}

func (s *Store) SaveSnapshot(ctx context.Context, snap *domain.Snapshot) error {
	doc := snapshotDoc{
		ReceivedAt: snap.ReceivedAt,
		ActiveNote: snap.ActiveNote,
		Notes:      make([]noteDoc, 0, len(snap.Notes)),
		Reminders:  make([]reminderDoc, 0, len(snap.Reminders)),
	}
	for _, n := range snap.Notes {
		doc.Notes = append(doc.Notes, noteDoc{Title: n.Title, Body: n.Body})
	}
	for _, r := range snap.Reminders {
		doc.Reminders = append(doc.Reminders, reminderDoc{Name: r.Name, DueDate: r.DueDate, List: r.List})
	}

	_, _, err := s.snapshotsCol().Add(ctx, doc)
	if err != nil {
		return fmt.Errorf("firestore SaveSnapshot: %w", err)
	}
	return nil
}

func (s *Store) LatestSnapshot(ctx context.Context) (*domain.Snapshot, error) {
	iter := s.snapshotsCol().OrderBy("received_at", firestore.Desc).Limit(1).Documents(ctx)
	defer iter.Stop()

	snap, err := iter.Next()
	if err == iterator.Done {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("firestore LatestSnapshot: %w", err)
	}

	var doc snapshotDoc
	if err := snap.DataTo(&doc); err != nil {
		return nil, fmt.Errorf("decode snapshotDoc: %w", err)
	}

	out := &domain.Snapshot{
		ReceivedAt: doc.ReceivedAt,
		ActiveNote: doc.ActiveNote,
	}
	for _, n := range doc.Notes {
		out.Notes = append(out.Notes, domain.Note{Title: n.Title, Body: n.Body})
	}
	for _, r := range doc.Reminders {
		out.Reminders = append(out.Reminders, domain.Reminder{Name: r.Name, DueDate: r.DueDate, List: r.List})
	}
	return out, nil
}

// ─────────────────────────────────────────
// TrackedItemStore implementation
// ─────────────────────────────────────────

func (s *Store) trackedItemsCol() *firestore.CollectionRef {
	return s.client.Collection("tracked_items")
}

// UpsertTrackedItem refreshes an unresolved item with the same description
// or creates a new one, transactionally so a racing pair never duplicates.
func (s *Store) UpsertTrackedItem(ctx context.Context, description, date string, sessionID domain.SessionID) (*domain.TrackedItem, error) {
	var out *domain.TrackedItem

	err := s.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		q := s.trackedItemsCol().
			Where("description", "==", description).
			Where("resolved", "==", false).
			Limit(1)
		snaps, err := tx.Documents(q).GetAll()
		if err != nil {
			return fmt.Errorf("query tracked item: %w", err)
		}

		if len(snaps) > 0 {
			var doc trackedItemDoc
			if err := snaps[0].DataTo(&doc); err != nil {
				return fmt.Errorf("decode trackedItemDoc: %w", err)
			}
			sid := doc.SessionID
			if sessionID != "" {
				sid = string(sessionID)
			}
			if err := tx.Update(snaps[0].Ref, []firestore.Update{
				{Path: "last_seen", Value: date},
				{Path: "session_id", Value: sid},
			}); err != nil {
				return err
			}
			out = &domain.TrackedItem{
				ID:          domain.TrackedItemID(snaps[0].Ref.ID),
				Description: description,
				FirstSeen:   doc.FirstSeen,
				LastSeen:    date,
				SessionID:   domain.SessionID(sid),
			}
			return nil
		}

		id := uuid.NewString()
		doc := trackedItemDoc{
			Description: description,
			FirstSeen:   date,
			LastSeen:    date,
			SessionID:   string(sessionID),
		}
		if err := tx.Create(s.trackedItemsCol().Doc(id), doc); err != nil {
			return err
		}
		out = &domain.TrackedItem{
			ID:          domain.TrackedItemID(id),
			Description: description,
			FirstSeen:   date,
			LastSeen:    date,
			SessionID:   sessionID,
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("firestore UpsertTrackedItem: %w", err)
	}
	return out, nil
}

func (s *Store) ResolveTrackedItem(ctx context.Context, id domain.TrackedItemID) error {
	_, err := s.trackedItemsCol().Doc(string(id)).Update(ctx, []firestore.Update{
		{Path: "resolved", Value: true},
	})
	if err != nil {
		if isNotFound(err) {
			return domain.ErrItemNotFound
		}
		return fmt.Errorf("firestore ResolveTrackedItem: %w", err)
	}
	return nil
}

func (s *Store) ListUnresolvedItems(ctx context.Context) ([]*domain.TrackedItem, error) {
	q := s.trackedItemsCol().Where("resolved", "==", false).OrderBy("first_seen", firestore.Asc)
	iter := q.Documents(ctx)
	defer iter.Stop()

	var out []*domain.TrackedItem
	for {
		snap, err := iter.Next()
		if err != nil {
			if err == iterator.Done {
				break
			}
			return nil, fmt.Errorf("firestore ListUnresolvedItems: %w", err)
		}

		var doc trackedItemDoc
		if err := snap.DataTo(&doc); err != nil {
			return nil, fmt.Errorf("decode trackedItemDoc: %w", err)
		}
		out = append(out, &domain.TrackedItem{
			ID:          domain.TrackedItemID(snap.Ref.ID),
			Description: doc.Description,
			FirstSeen:   doc.FirstSeen,
			LastSeen:    doc.LastSeen,
			SessionID:   domain.SessionID(doc.SessionID),
		})
	}
	return out, nil
}

// ─────────────────────────────────────────
// ScoreStore implementation
// ─────────────────────────────────────────

func (s *Store) scoresCol() *firestore.CollectionRef {
	return s.client.Collection("life_wheel_scores")
}

func (s *Store) SaveScores(ctx context.Context, entry *domain.ScoreEntry) (*domain.ScoreEntry, error) {
	doc := scoreEntryDoc{
		SessionID: string(entry.SessionID),
		Date:      entry.Date,
		Phase:     string(entry.Phase),
		Scores:    entry.Scores,
		CreatedAt: entry.CreatedAt,
	}

	if _, _, err := s.scoresCol().Add(ctx, doc); err != nil {
		return nil, fmt.Errorf("firestore SaveScores: %w", err)
	}
	stored := *entry
	return &stored, nil
}

func (s *Store) ListScores(ctx context.Context, daysBack int) ([]*domain.ScoreEntry, error) {
	cutoff := s.now().In(s.loc).AddDate(0, 0, -daysBack).Format(domain.DateFormat)

	q := s.scoresCol().Where("date", ">=", cutoff).OrderBy("date", firestore.Desc)
	iter := q.Documents(ctx)
	defer iter.Stop()

	var out []*domain.ScoreEntry
	for {
		snap, err := iter.Next()
		if err != nil {
			if err == iterator.Done {
				break
			}
			return nil, fmt.Errorf("firestore ListScores: %w", err)
		}

		var doc scoreEntryDoc
		if err := snap.DataTo(&doc); err != nil {
			return nil, fmt.Errorf("decode scoreEntryDoc: %w", err)
		}
		out = append(out, &domain.ScoreEntry{
			SessionID: domain.SessionID(doc.SessionID),
			Date:      doc.Date,
			Phase:     domain.ScorePhase(doc.Phase),
			Scores:    doc.Scores,
			CreatedAt: doc.CreatedAt,
		})
	}
	return out, nil
}
