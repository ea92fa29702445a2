package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/livingsystems/orient/internal/domain"
)

// Store implements every persistence port on a single sqlite database.
type Store struct {
	db  *sql.DB
	loc *time.Location
	now func() time.Time
}

func NewStore(dbPath string, loc *time.Location) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	s := &Store{db: db, loc: loc, now: time.Now}
	if err := s.ensureSchema(context.Background()); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) ensureSchema(ctx context.Context) error {
	const ddl = `
PRAGMA journal_mode = WAL;
PRAGMA foreign_keys = ON;

CREATE TABLE IF NOT EXISTS sessions (
  id TEXT PRIMARY KEY,
  date TEXT NOT NULL UNIQUE,
  status TEXT NOT NULL DEFAULT 'checkin',
  dashboard TEXT NOT NULL DEFAULT '',
  evening_review TEXT NOT NULL DEFAULT '',
  summary TEXT NOT NULL DEFAULT '',
  created_at TEXT NOT NULL,
  completed_at TEXT
);

CREATE TABLE IF NOT EXISTS messages (
  seq INTEGER PRIMARY KEY AUTOINCREMENT,
  id TEXT NOT NULL UNIQUE,
  session_id TEXT NOT NULL REFERENCES sessions(id),
  role TEXT NOT NULL,
  content TEXT NOT NULL,
  created_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS snapshots (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  received_at TEXT NOT NULL,
  notes TEXT NOT NULL DEFAULT '[]',
  active_note TEXT NOT NULL DEFAULT '',
  reminders TEXT NOT NULL DEFAULT '[]'
);

CREATE TABLE IF NOT EXISTS tracked_items (
  id TEXT PRIMARY KEY,
  description TEXT NOT NULL,
  first_seen TEXT NOT NULL,
  last_seen TEXT NOT NULL,
  resolved INTEGER NOT NULL DEFAULT 0,
  session_id TEXT
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_tracked_items_open
  ON tracked_items (description) WHERE resolved = 0;

CREATE TABLE IF NOT EXISTS life_wheel_scores (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  session_id TEXT,
  date TEXT NOT NULL,
  phase TEXT NOT NULL,
  scores TEXT NOT NULL,
  created_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS aims (
  id TEXT PRIMARY KEY,
  heart_wish TEXT NOT NULL DEFAULT '',
  aim_statement TEXT NOT NULL,
  start_date TEXT NOT NULL,
  end_date TEXT NOT NULL DEFAULT '',
  accountability_person TEXT NOT NULL DEFAULT '',
  status TEXT NOT NULL DEFAULT 'active',
  created_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS aim_reflections (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  aim_id TEXT NOT NULL REFERENCES aims(id),
  date TEXT NOT NULL,
  reflection TEXT NOT NULL DEFAULT '',
  practice_happened INTEGER NOT NULL DEFAULT 0,
  created_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS orientation (
  id INTEGER PRIMARY KEY CHECK (id = 1),
  content TEXT NOT NULL,
  updated_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS google_tokens (
  account_email TEXT PRIMARY KEY,
  account_label TEXT NOT NULL DEFAULT '',
  access_token TEXT NOT NULL,
  refresh_token TEXT NOT NULL,
  expiry TEXT,
  updated_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS oura_tokens (
  id INTEGER PRIMARY KEY CHECK (id = 1),
  access_token TEXT NOT NULL,
  refresh_token TEXT NOT NULL DEFAULT '',
  expiry TEXT
);
`
	if _, err := s.db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

const timeLayout = time.RFC3339Nano

func formatTime(t time.Time) string { return t.UTC().Format(timeLayout) }

func parseTime(s string) time.Time {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

// ─────────────────────────────────────────
// SessionStore
// ─────────────────────────────────────────

func (s *Store) CreateSession(ctx context.Context, session *domain.Session) (*domain.Session, error) {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO sessions (id, date, status, created_at) VALUES (?, ?, ?, ?)`,
		string(session.ID), session.Date, string(session.Status), formatTime(session.CreatedAt),
	)
	if err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	return s.GetSessionByDate(ctx, session.Date)
}

func (s *Store) GetSession(ctx context.Context, id domain.SessionID) (*domain.Session, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, date, status, dashboard, evening_review, summary, created_at, completed_at
		 FROM sessions WHERE id = ?`, string(id))
	return scanSession(row)
}

func (s *Store) GetSessionByDate(ctx context.Context, date string) (*domain.Session, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, date, status, dashboard, evening_review, summary, created_at, completed_at
		 FROM sessions WHERE date = ?`, date)
	return scanSession(row)
}

func (s *Store) UpdateSession(ctx context.Context, session *domain.Session) error {
	var completedAt any
	if session.CompletedAt != nil {
		completedAt = formatTime(*session.CompletedAt)
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE sessions SET status = ?, dashboard = ?, evening_review = ?, summary = ?, completed_at = ?
		 WHERE id = ?`,
		string(session.Status), session.Dashboard, session.EveningReview, session.Summary,
		completedAt, string(session.ID),
	)
	if err != nil {
		return fmt.Errorf("update session: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrSessionNotFound
	}
	return nil
}

func (s *Store) ListRecentSessions(ctx context.Context, limit int) ([]*domain.Session, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, date, status, dashboard, evening_review, summary, created_at, completed_at
		 FROM sessions ORDER BY date DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	var out []*domain.Session
	for rows.Next() {
		sess, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, sess)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSession(row rowScanner) (*domain.Session, error) {
	var (
		sess        domain.Session
		id, status  string
		createdAt   string
		completedAt sql.NullString
	)
	err := row.Scan(&id, &sess.Date, &status, &sess.Dashboard, &sess.EveningReview,
		&sess.Summary, &createdAt, &completedAt)
	if err == sql.ErrNoRows {
		return nil, domain.ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan session: %w", err)
	}
	sess.ID = domain.SessionID(id)
	sess.Status = domain.SessionStatus(status)
	sess.CreatedAt = parseTime(createdAt)
	if completedAt.Valid {
		t := parseTime(completedAt.String)
		sess.CompletedAt = &t
	}
	return &sess, nil
}

// ─────────────────────────────────────────
// MessageStore
// ─────────────────────────────────────────

func (s *Store) AppendMessage(ctx context.Context, msg *domain.Message) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO messages (id, session_id, role, content, created_at) VALUES (?, ?, ?, ?, ?)`,
		string(msg.ID), string(msg.SessionID), string(msg.Role), msg.Content, formatTime(msg.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("append message: %w", err)
	}
	return nil
}

func (s *Store) GetSessionMessages(ctx context.Context, sessionID domain.SessionID) ([]*domain.Message, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, session_id, role, content, created_at FROM messages
		 WHERE session_id = ? ORDER BY seq ASC`, string(sessionID))
	if err != nil {
		return nil, fmt.Errorf("get messages: %w", err)
	}
	defer rows.Close()

	var out []*domain.Message
	for rows.Next() {
		var (
			msg           domain.Message
			id, sid, role string
			createdAt     string
		)
		if err := rows.Scan(&id, &sid, &role, &msg.Content, &createdAt); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		msg.ID = domain.MessageID(id)
		msg.SessionID = domain.SessionID(sid)
		msg.Role = domain.Role(role)
		msg.CreatedAt = parseTime(createdAt)
		out = append(out, &msg)
	}
	return out, rows.Err()
}
