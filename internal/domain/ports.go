package domain

import (
	"context"
	"errors"
)

var (
	ErrSessionNotFound     = errors.New("session not found")
	ErrSessionHasMessages  = errors.New("session already has messages")
	ErrSessionNotReviewing = errors.New("session is not in evening review")
	ErrSessionNotComplete  = errors.New("no completed session for that date")
	ErrAimNotFound         = errors.New("aim not found")
	ErrItemNotFound        = errors.New("tracked item not found")
)

// ChatMessage is one turn handed to the conversational backend.
type ChatMessage struct {
	Role    Role
	Content string
}

// StreamEvent is one discrete event on a streaming reply. Exactly one
// terminal event is delivered per stream: Done on clean completion, Err
// otherwise. Chunks already delivered before an Err are not retracted.
type StreamEvent struct {
	Text string
	Done bool
	Err  error
}

// ChatRequest is a single backend call: system prompt, ordered turns, and a
// per-mode output budget.
type ChatRequest struct {
	System    string
	Messages  []ChatMessage
	MaxTokens int32
}

// ChatBackend abstracts the conversational model provider.
type ChatBackend interface {
	// Stream delivers the reply as incremental text fragments. The full
	// text is the concatenation of every Text event. The channel is closed
	// after the terminal event.
	Stream(ctx context.Context, req ChatRequest) <-chan StreamEvent

	// Complete is the non-streaming call used for dashboard and summary
	// generation.
	Complete(ctx context.Context, req ChatRequest) (string, error)
}

// SessionStore persists daily sessions keyed by date.
type SessionStore interface {
	// CreateSession inserts the session for its date if none exists yet and
	// returns the stored row either way (insert-or-get).
	CreateSession(ctx context.Context, session *Session) (*Session, error)
	GetSession(ctx context.Context, id SessionID) (*Session, error)
	GetSessionByDate(ctx context.Context, date string) (*Session, error)
	UpdateSession(ctx context.Context, session *Session) error
	// ListRecentSessions returns sessions ordered by date descending.
	ListRecentSessions(ctx context.Context, limit int) ([]*Session, error)
}

// MessageStore persists session transcripts.
type MessageStore interface {
	AppendMessage(ctx context.Context, msg *Message) error
	// GetSessionMessages returns all messages in creation order.
	GetSessionMessages(ctx context.Context, sessionID SessionID) ([]*Message, error)
}

// SnapshotStore holds the device snapshot history; only the newest row is
// ever read.
type SnapshotStore interface {
	SaveSnapshot(ctx context.Context, snap *Snapshot) error
	LatestSnapshot(ctx context.Context) (*Snapshot, error) // nil, nil when none
}

// TrackedItemStore persists open commitments with dedup-while-unresolved
// upsert semantics.
type TrackedItemStore interface {
	UpsertTrackedItem(ctx context.Context, description, date string, sessionID SessionID) (*TrackedItem, error)
	ResolveTrackedItem(ctx context.Context, id TrackedItemID) error
	ListUnresolvedItems(ctx context.Context) ([]*TrackedItem, error)
}

// ScoreStore persists life wheel entries append-only.
type ScoreStore interface {
	SaveScores(ctx context.Context, entry *ScoreEntry) (*ScoreEntry, error)
	// ListScores returns entries from the trailing daysBack window, newest
	// first.
	ListScores(ctx context.Context, daysBack int) ([]*ScoreEntry, error)
}

// AimStore persists aims. CreateAim must supersede the prior active aim and
// insert the new one in a single atomic operation; a concurrent reader
// never observes zero or two active aims.
type AimStore interface {
	CreateAim(ctx context.Context, aim *Aim) (*Aim, error)
	UpdateAim(ctx context.Context, id AimID, fields AimUpdate) error
	CurrentAim(ctx context.Context) (*Aim, error) // nil, nil when none active
	ListAims(ctx context.Context, limit int) ([]*Aim, error)
	AddAimReflection(ctx context.Context, r *AimReflection) (*AimReflection, error)
	ListAimReflections(ctx context.Context, aimID AimID, limit int) ([]*AimReflection, error)
}

// AimUpdate is a partial aim mutation; nil fields are left untouched.
type AimUpdate struct {
	HeartWish            *string
	Statement            *string
	EndDate              *string
	AccountabilityPerson *string
	Status               *AimStatus
}

// OrientationStore holds the singleton orientation document.
type OrientationStore interface {
	GetOrientation(ctx context.Context) (*Orientation, error) // nil, nil when unset
	SetOrientation(ctx context.Context, content string) (*Orientation, error)
}

// TokenStore persists external credentials written by the OAuth plumbing
// that lives outside this core.
type TokenStore interface {
	GoogleTokens(ctx context.Context) ([]*GoogleToken, error)
	SaveGoogleToken(ctx context.Context, tok *GoogleToken) error
	UpdateGoogleAccessToken(ctx context.Context, email, accessToken string, expiry Timestamp) error
	DeleteGoogleToken(ctx context.Context, email string) error
	OuraToken(ctx context.Context) (*OuraToken, error) // nil, nil when none
	SaveOuraToken(ctx context.Context, tok *OuraToken) error
	DeleteOuraToken(ctx context.Context) error
}

// CalendarSource fetches the day's events. Failures degrade to an empty
// list, logged not thrown.
type CalendarSource interface {
	FetchEvents(ctx context.Context, date string) []CalendarEvent
}

// EmailSource fetches inbox state. Both calls degrade to empty on auth
// failure.
type EmailSource interface {
	FetchUnread(ctx context.Context) []Email
	FetchStarred(ctx context.Context) []Email
}

// BiometricSource fetches the day's wearable summary; nil when not
// connected or not configured.
type BiometricSource interface {
	FetchDaily(ctx context.Context, date string) *BiometricSummary
}
