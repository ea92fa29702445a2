package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/livingsystems/orient/internal/domain"
)

// ─────────────────────────────────────────
// SnapshotStore
// ─────────────────────────────────────────

func (s *Store) SaveSnapshot(ctx context.Context, snap *domain.Snapshot) error {
	notes, err := json.Marshal(snap.Notes)
	if err != nil {
		return fmt.Errorf("encode notes: %w", err)
	}
	reminders, err := json.Marshal(snap.Reminders)
	if err != nil {
		return fmt.Errorf("encode reminders: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO snapshots (received_at, notes, active_note, reminders) VALUES (?, ?, ?, ?)`,
		formatTime(snap.ReceivedAt), string(notes), snap.ActiveNote, string(reminders),
	)
	if err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	return nil
}

func (s *Store) LatestSnapshot(ctx context.Context) (*domain.Snapshot, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT received_at, notes, active_note, reminders FROM snapshots
		 ORDER BY id DESC LIMIT 1`)

	var receivedAt, notes, activeNote, reminders string
	err := row.Scan(&receivedAt, &notes, &activeNote, &reminders)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("latest snapshot: %w", err)
	}

	snap := &domain.Snapshot{
		ActiveNote: activeNote,
		ReceivedAt: parseTime(receivedAt),
	}
	// A corrupt payload degrades to empty lists rather than failing the
	// whole context build.
	_ = json.Unmarshal([]byte(notes), &snap.Notes)
	_ = json.Unmarshal([]byte(reminders), &snap.Reminders)
	return snap, nil
}

// ─────────────────────────────────────────
// TrackedItemStore
// ─────────────────────────────────────────

// UpsertTrackedItem leans on the partial unique index over unresolved
// descriptions: concurrent mentions of the same open item converge on one
// row, the same way sessions rely on INSERT OR IGNORE.
func (s *Store) UpsertTrackedItem(ctx context.Context, description, date string, sessionID domain.SessionID) (*domain.TrackedItem, error) {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO tracked_items (id, description, first_seen, last_seen, session_id)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT (description) WHERE resolved = 0 DO UPDATE SET
		   last_seen = excluded.last_seen,
		   session_id = CASE WHEN excluded.session_id != ''
		     THEN excluded.session_id ELSE tracked_items.session_id END`,
		uuid.NewString(), description, date, date, string(sessionID))
	if err != nil {
		return nil, fmt.Errorf("upsert tracked item: %w", err)
	}

	var item domain.TrackedItem
	var id string
	var sid sql.NullString
	row := s.db.QueryRowContext(ctx,
		`SELECT id, first_seen, last_seen, session_id FROM tracked_items
		 WHERE description = ? AND resolved = 0`, description)
	if err := row.Scan(&id, &item.FirstSeen, &item.LastSeen, &sid); err != nil {
		return nil, fmt.Errorf("read back tracked item: %w", err)
	}
	item.ID = domain.TrackedItemID(id)
	item.SessionID = domain.SessionID(sid.String)
	item.Description = description
	return &item, nil
}

func (s *Store) ResolveTrackedItem(ctx context.Context, id domain.TrackedItemID) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE tracked_items SET resolved = 1 WHERE id = ?`, string(id))
	if err != nil {
		return fmt.Errorf("resolve tracked item: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrItemNotFound
	}
	return nil
}

func (s *Store) ListUnresolvedItems(ctx context.Context) ([]*domain.TrackedItem, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, description, first_seen, last_seen, session_id FROM tracked_items
		 WHERE resolved = 0 ORDER BY first_seen ASC`)
	if err != nil {
		return nil, fmt.Errorf("list tracked items: %w", err)
	}
	defer rows.Close()

	var out []*domain.TrackedItem
	for rows.Next() {
		var item domain.TrackedItem
		var id string
		var sid sql.NullString
		if err := rows.Scan(&id, &item.Description, &item.FirstSeen, &item.LastSeen, &sid); err != nil {
			return nil, fmt.Errorf("scan tracked item: %w", err)
		}
		item.ID = domain.TrackedItemID(id)
		item.SessionID = domain.SessionID(sid.String)
		out = append(out, &item)
	}
	return out, rows.Err()
}

// ─────────────────────────────────────────
// ScoreStore
// ─────────────────────────────────────────

func (s *Store) SaveScores(ctx context.Context, entry *domain.ScoreEntry) (*domain.ScoreEntry, error) {
	scores, err := json.Marshal(entry.Scores)
	if err != nil {
		return nil, fmt.Errorf("encode scores: %w", err)
	}

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO life_wheel_scores (session_id, date, phase, scores, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		string(entry.SessionID), entry.Date, string(entry.Phase), string(scores), formatTime(entry.CreatedAt),
	)
	if err != nil {
		return nil, fmt.Errorf("save scores: %w", err)
	}

	stored := *entry
	stored.ID, _ = res.LastInsertId()
	return &stored, nil
}

func (s *Store) ListScores(ctx context.Context, daysBack int) ([]*domain.ScoreEntry, error) {
	cutoff := s.now().In(s.loc).AddDate(0, 0, -daysBack).Format(domain.DateFormat)

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, session_id, date, phase, scores, created_at FROM life_wheel_scores
		 WHERE date >= ? ORDER BY date DESC, id DESC`, cutoff)
	if err != nil {
		return nil, fmt.Errorf("list scores: %w", err)
	}
	defer rows.Close()

	var out []*domain.ScoreEntry
	for rows.Next() {
		var (
			entry                         domain.ScoreEntry
			sid, phase, scores, createdAt string
		)
		if err := rows.Scan(&entry.ID, &sid, &entry.Date, &phase, &scores, &createdAt); err != nil {
			return nil, fmt.Errorf("scan scores: %w", err)
		}
		entry.SessionID = domain.SessionID(sid)
		entry.Phase = domain.ScorePhase(phase)
		entry.CreatedAt = parseTime(createdAt)
		if err := json.Unmarshal([]byte(scores), &entry.Scores); err != nil {
			return nil, fmt.Errorf("decode scores row %d: %w", entry.ID, err)
		}
		out = append(out, &entry)
	}
	return out, rows.Err()
}
