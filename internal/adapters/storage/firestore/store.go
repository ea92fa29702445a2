package firestore

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/livingsystems/orient/internal/domain"
)

// Store implements every persistence port on Firestore. Sessions are keyed
// by their UUID with a unique date field; messages live in a subcollection
// under their session.
type Store struct {
	client *firestore.Client
	loc    *time.Location
	now    func() time.Time
}

// NewStore creates a Firestore store against the given project
// (ORIENT_GCP_PROJECT).
func NewStore(ctx context.Context, projectID string, loc *time.Location) (*Store, error) {
	if projectID == "" {
		return nil, fmt.Errorf("projectID is required for Firestore store")
	}

	client, err := firestore.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("creating firestore client: %w", err)
	}

	return &Store{client: client, loc: loc, now: time.Now}, nil
}

func (s *Store) Close() error { return s.client.Close() }

// ─────────────────────────────────────────
// Helpers
// ─────────────────────────────────────────

func (s *Store) sessionsCol() *firestore.CollectionRef {
	return s.client.Collection("sessions")
}

func (s *Store) sessionRef(id domain.SessionID) *firestore.DocumentRef {
	return s.sessionsCol().Doc(string(id))
}

func (s *Store) messagesCol(sessionID domain.SessionID) *firestore.CollectionRef {
	return s.sessionRef(sessionID).Collection("messages")
}

func isNotFound(err error) bool {
	return status.Code(err) == codes.NotFound
}

// ─────────────────────────────────────────
// Firestore Types
// ─────────────────────────────────────────

type sessionDoc struct {
	Date          string     `firestore:"date"`
	Status        string     `firestore:"status"`
	Dashboard     string     `firestore:"dashboard"`
	EveningReview string     `firestore:"evening_review"`
	Summary       string     `firestore:"summary"`
	CreatedAt     time.Time  `firestore:"created_at"`
	CompletedAt   *time.Time `firestore:"completed_at"`
}

type messageDoc struct {
	SessionID string    `firestore:"session_id"`
	Role      string    `firestore:"role"`
	Content   string    `firestore:"content"`
	CreatedAt time.Time `firestore:"created_at"`
}

func (d *sessionDoc) toDomain(id string) *domain.Session {
	sess := &domain.Session{
		ID:            domain.SessionID(id),
		Date:          d.Date,
		Status:        domain.SessionStatus(d.Status),
		Dashboard:     d.Dashboard,
		EveningReview: d.EveningReview,
		Summary:       d.Summary,
		CreatedAt:     d.CreatedAt,
	}
	if d.CompletedAt != nil {
		t := *d.CompletedAt
		sess.CompletedAt = &t
	}
	return sess
}

func sessionToDoc(session *domain.Session) sessionDoc {
	doc := sessionDoc{
		Date:          session.Date,
		Status:        string(session.Status),
		Dashboard:     session.Dashboard,
		EveningReview: session.EveningReview,
		Summary:       session.Summary,
		CreatedAt:     session.CreatedAt,
	}
	if session.CompletedAt != nil {
		t := *session.CompletedAt
		doc.CompletedAt = &t
	}
	return doc
}

// ─────────────────────────────────────────
// SessionStore implementation
// ─────────────────────────────────────────

// CreateSession is insert-or-get on the date key. The check and insert run
// in a transaction so two racing callers for the same date converge on one
// document.
func (s *Store) CreateSession(ctx context.Context, session *domain.Session) (*domain.Session, error) {
	var out *domain.Session

	err := s.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		q := s.sessionsCol().Where("date", "==", session.Date).Limit(1)
		snaps, err := tx.Documents(q).GetAll()
		if err != nil {
			return fmt.Errorf("query by date: %w", err)
		}
		if len(snaps) > 0 {
			var doc sessionDoc
			if err := snaps[0].DataTo(&doc); err != nil {
				return fmt.Errorf("decode sessionDoc: %w", err)
			}
			out = doc.toDomain(snaps[0].Ref.ID)
			return nil
		}

		if err := tx.Create(s.sessionRef(session.ID), sessionToDoc(session)); err != nil {
			return err
		}
		stored := *session
		out = &stored
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("firestore CreateSession: %w", err)
	}
	return out, nil
}

func (s *Store) GetSession(ctx context.Context, id domain.SessionID) (*domain.Session, error) {
	snap, err := s.sessionRef(id).Get(ctx)
	if err != nil {
		if isNotFound(err) {
			return nil, domain.ErrSessionNotFound
		}
		return nil, fmt.Errorf("firestore GetSession: %w", err)
	}

	var doc sessionDoc
	if err := snap.DataTo(&doc); err != nil {
		return nil, fmt.Errorf("firestore GetSession decode: %w", err)
	}
	return doc.toDomain(snap.Ref.ID), nil
}

func (s *Store) GetSessionByDate(ctx context.Context, date string) (*domain.Session, error) {
	iter := s.sessionsCol().Where("date", "==", date).Limit(1).Documents(ctx)
	defer iter.Stop()

	snap, err := iter.Next()
	if err == iterator.Done {
		return nil, domain.ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("firestore GetSessionByDate: %w", err)
	}

	var doc sessionDoc
	if err := snap.DataTo(&doc); err != nil {
		return nil, fmt.Errorf("decode sessionDoc: %w", err)
	}
	return doc.toDomain(snap.Ref.ID), nil
}

func (s *Store) UpdateSession(ctx context.Context, session *domain.Session) error {
	_, err := s.sessionRef(session.ID).Set(ctx, sessionToDoc(session))
	if err != nil {
		if isNotFound(err) {
			return domain.ErrSessionNotFound
		}
		return fmt.Errorf("firestore UpdateSession: %w", err)
	}
	return nil
}

func (s *Store) ListRecentSessions(ctx context.Context, limit int) ([]*domain.Session, error) {
	q := s.sessionsCol().OrderBy("date", firestore.Desc)
	if limit > 0 {
		q = q.Limit(limit)
	}

	iter := q.Documents(ctx)
	defer iter.Stop()

	var out []*domain.Session
	for {
		snap, err := iter.Next()
		if err != nil {
			if err == iterator.Done {
				break
			}
			return nil, fmt.Errorf("firestore ListRecentSessions: %w", err)
		}

		var doc sessionDoc
		if err := snap.DataTo(&doc); err != nil {
			return nil, fmt.Errorf("decode sessionDoc: %w", err)
		}
		out = append(out, doc.toDomain(snap.Ref.ID))
	}
	return out, nil
}

// ─────────────────────────────────────────
// MessageStore implementation
// ─────────────────────────────────────────

func (s *Store) AppendMessage(ctx context.Context, msg *domain.Message) error {
	doc := messageDoc{
		SessionID: string(msg.SessionID),
		Role:      string(msg.Role),
		Content:   msg.Content,
		CreatedAt: msg.CreatedAt,
	}

	_, err := s.messagesCol(msg.SessionID).Doc(string(msg.ID)).Set(ctx, doc)
	if err != nil {
		return fmt.Errorf("firestore AppendMessage: %w", err)
	}
	return nil
}

func (s *Store) GetSessionMessages(ctx context.Context, sessionID domain.SessionID) ([]*domain.Message, error) {
	iter := s.messagesCol(sessionID).OrderBy("created_at", firestore.Asc).Documents(ctx)
	defer iter.Stop()

	var out []*domain.Message
	for {
		snap, err := iter.Next()
		if err != nil {
			if err == iterator.Done {
				break
			}
			return nil, fmt.Errorf("firestore GetSessionMessages: %w", err)
		}

		var doc messageDoc
		if err := snap.DataTo(&doc); err != nil {
			return nil, fmt.Errorf("decode messageDoc: %w", err)
		}

		out = append(out, &domain.Message{
			ID:        domain.MessageID(snap.Ref.ID),
			SessionID: sessionID,
			Role:      domain.Role(doc.Role),
			Content:   doc.Content,
			CreatedAt: doc.CreatedAt,
		})
	}
	return out, nil
}
