package session

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/livingsystems/orient/internal/app/synthesis"
	"github.com/livingsystems/orient/internal/domain"
	"github.com/livingsystems/orient/internal/observability"
)

// Service owns the daily session lifecycle and orchestrates every
// conversational mode against the chat backend.
type Service struct {
	backend  domain.ChatBackend
	sessions domain.SessionStore
	messages domain.MessageStore
	scores   domain.ScoreStore
	aims     domain.AimStore
	builder  *synthesis.Builder
	loc      *time.Location
	now      func() time.Time
}

func NewService(
	backend domain.ChatBackend,
	sessions domain.SessionStore,
	messages domain.MessageStore,
	scores domain.ScoreStore,
	aims domain.AimStore,
	builder *synthesis.Builder,
	loc *time.Location,
) *Service {
	return &Service{
		backend:  backend,
		sessions: sessions,
		messages: messages,
		scores:   scores,
		aims:     aims,
		builder:  builder,
		loc:      loc,
		now:      time.Now,
	}
}

// WithClock fixes the service clock for tests.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// TodayDate is the current session-day key in the home timezone. The day
// boundary is wall-clock, not a timer.
func (s *Service) TodayDate() string {
	return s.now().In(s.loc).Format(domain.DateFormat)
}

// Today returns today's session and transcript, creating the session lazily
// on first access.
func (s *Service) Today(ctx context.Context) (*domain.Session, []*domain.Message, error) {
	date := s.TodayDate()

	sess, err := s.sessions.GetSessionByDate(ctx, date)
	if err == domain.ErrSessionNotFound {
		sess, err = s.sessions.CreateSession(ctx, &domain.Session{
			ID:        domain.SessionID(uuid.NewString()),
			Date:      date,
			Status:    domain.StatusCheckin,
			CreatedAt: s.now(),
		})
	}
	if err != nil {
		return nil, nil, err
	}

	msgs, err := s.messages.GetSessionMessages(ctx, sess.ID)
	if err != nil {
		return nil, nil, err
	}
	return sess, msgs, nil
}

// ByDate returns the session and transcript for an existing date.
func (s *Service) ByDate(ctx context.Context, date string) (*domain.Session, []*domain.Message, error) {
	sess, err := s.sessions.GetSessionByDate(ctx, date)
	if err != nil {
		return nil, nil, err
	}
	msgs, err := s.messages.GetSessionMessages(ctx, sess.ID)
	if err != nil {
		return nil, nil, err
	}
	return sess, msgs, nil
}

// Open streams the opening check-in turn for a session with no messages
// yet. The zero-message check is a precondition, not a lock: two
// perfectly-timed concurrent opens can both pass it, which is tolerated.
func (s *Service) Open(ctx context.Context, id domain.SessionID) (<-chan domain.StreamEvent, error) {
	sess, err := s.sessions.GetSession(ctx, id)
	if err != nil {
		return nil, err
	}

	existing, err := s.messages.GetSessionMessages(ctx, sess.ID)
	if err != nil {
		return nil, err
	}
	if len(existing) > 0 {
		return nil, domain.ErrSessionHasMessages
	}

	contextBlock, _ := s.builder.Build(ctx, sess.Date)

	observability.LoggerFromContext(ctx).Info("opening session", "session_id", sess.ID, "date", sess.Date)

	upstream := s.backend.Stream(ctx, domain.ChatRequest{
		System:    systemPrompt,
		Messages:  checkinMessages(contextBlock, nil),
		MaxTokens: chatMaxTokens,
	})
	return s.persistReply(ctx, sess.ID, upstream), nil
}

// Chat appends a user turn to the morning check-in and streams the reply
// conditioned on the full persisted history plus context.
func (s *Service) Chat(ctx context.Context, id domain.SessionID, text string) (<-chan domain.StreamEvent, error) {
	sess, err := s.sessions.GetSession(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.appendMessage(ctx, sess.ID, domain.RoleUser, text); err != nil {
		return nil, err
	}

	history, err := s.transcript(ctx, sess.ID)
	if err != nil {
		return nil, err
	}

	contextBlock, _ := s.builder.Build(ctx, sess.Date)

	upstream := s.backend.Stream(ctx, domain.ChatRequest{
		System:    systemPrompt,
		Messages:  checkinMessages(contextBlock, history),
		MaxTokens: chatMaxTokens,
	})
	return s.persistReply(ctx, sess.ID, upstream), nil
}

// Midday streams an ephemeral midday turn. History comes from the caller
// and nothing is written to any session.
func (s *Service) Midday(ctx context.Context, text string, history []domain.ChatMessage) <-chan domain.StreamEvent {
	contextBlock, _ := s.builder.Build(ctx, s.TodayDate())
	return s.backend.Stream(ctx, domain.ChatRequest{
		System:    systemPrompt,
		Messages:  ephemeralMessages(contextBlock, middayModeTag, text, history),
		MaxTokens: middayMaxTokens,
	})
}

// Reflect streams an ephemeral open-ended turn, same persistence rules as
// Midday.
func (s *Service) Reflect(ctx context.Context, text string, history []domain.ChatMessage) <-chan domain.StreamEvent {
	contextBlock, _ := s.builder.Build(ctx, s.TodayDate())
	return s.backend.Stream(ctx, domain.ChatRequest{
		System:    systemPrompt,
		Messages:  ephemeralMessages(contextBlock, reflectModeTag, text, history),
		MaxTokens: reflectMaxTokens,
	})
}

// EveningChat moves the session into evening review on first contact and
// streams the reply. An empty text opens the review; later calls append the
// user turn and replay the whole accumulated transcript.
func (s *Service) EveningChat(ctx context.Context, id domain.SessionID, text string) (<-chan domain.StreamEvent, error) {
	sess, err := s.sessions.GetSession(ctx, id)
	if err != nil {
		return nil, err
	}

	if domain.Advances(sess.Status, domain.StatusEveningReview) {
		sess.Status = domain.StatusEveningReview
		if err := s.sessions.UpdateSession(ctx, sess); err != nil {
			return nil, err
		}
	}

	if text != "" {
		if err := s.appendMessage(ctx, sess.ID, domain.RoleUser, text); err != nil {
			return nil, err
		}
	}

	transcript, err := s.transcript(ctx, sess.ID)
	if err != nil {
		return nil, err
	}

	contextBlock, _ := s.builder.Build(ctx, sess.Date)

	upstream := s.backend.Stream(ctx, domain.ChatRequest{
		System:    systemPrompt,
		Messages:  eveningMessages(contextBlock, transcript, text == ""),
		MaxTokens: chatMaxTokens,
	})
	return s.persistReply(ctx, sess.ID, upstream), nil
}

// GenerateDashboard produces the day's dashboard from the check-in
// transcript. Idempotent: a stored dashboard is returned as-is with no new
// backend call.
func (s *Service) GenerateDashboard(ctx context.Context, id domain.SessionID) (string, bool, error) {
	sess, err := s.sessions.GetSession(ctx, id)
	if err != nil {
		return "", false, err
	}

	if sess.Dashboard != "" {
		return sess.Dashboard, true, nil
	}

	transcript, err := s.transcript(ctx, sess.ID)
	if err != nil {
		return "", false, err
	}

	contextBlock, _ := s.builder.Build(ctx, sess.Date)

	msgs := make([]domain.ChatMessage, 0, len(transcript)+2)
	msgs = append(msgs, contextTurn(contextBlock))
	msgs = append(msgs, transcript...)
	msgs = append(msgs, domain.ChatMessage{Role: domain.RoleUser, Content: dashboardPrompt})

	dashboard, err := s.backend.Complete(ctx, domain.ChatRequest{
		System:    systemPrompt,
		Messages:  msgs,
		MaxTokens: dashboardMaxTokens,
	})
	if err != nil {
		return "", false, fmt.Errorf("dashboard generation: %w", err)
	}

	sess.Dashboard = dashboard
	if domain.Advances(sess.Status, domain.StatusDashboard) {
		sess.Status = domain.StatusDashboard
	}
	if err := s.sessions.UpdateSession(ctx, sess); err != nil {
		return "", false, err
	}

	observability.LoggerFromContext(ctx).Info("dashboard generated", "session_id", sess.ID)
	return dashboard, false, nil
}

// CompleteDay closes an evening review: it generates the carry-forward day
// summary and transitions the session to its terminal state.
func (s *Service) CompleteDay(ctx context.Context, id domain.SessionID) (string, error) {
	sess, err := s.sessions.GetSession(ctx, id)
	if err != nil {
		return "", err
	}
	if sess.Status != domain.StatusEveningReview {
		return "", domain.ErrSessionNotReviewing
	}

	transcript, err := s.transcript(ctx, sess.ID)
	if err != nil {
		return "", err
	}

	contextBlock, _ := s.builder.Build(ctx, sess.Date)

	msgs := make([]domain.ChatMessage, 0, len(transcript)+2)
	msgs = append(msgs, contextTurn(contextBlock))
	msgs = append(msgs, transcript...)
	msgs = append(msgs, domain.ChatMessage{Role: domain.RoleUser, Content: summaryPrompt(sess.Date)})

	summary, err := s.backend.Complete(ctx, domain.ChatRequest{
		System:    systemPrompt,
		Messages:  msgs,
		MaxTokens: summaryMaxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("day summary generation: %w", err)
	}

	now := s.now()
	sess.Summary = summary
	sess.EveningReview = summary
	sess.Status = domain.StatusComplete
	sess.CompletedAt = &now
	if err := s.sessions.UpdateSession(ctx, sess); err != nil {
		return "", err
	}

	observability.LoggerFromContext(ctx).Info("day completed", "session_id", sess.ID, "date", sess.Date)
	return summary, nil
}

// persistReply forwards the backend stream to the caller, buffering the
// full text. The assistant message is written only after a clean Done; on a
// mid-stream error nothing is persisted and the error is the terminal
// event.
func (s *Service) persistReply(ctx context.Context, id domain.SessionID, upstream <-chan domain.StreamEvent) <-chan domain.StreamEvent {
	out := make(chan domain.StreamEvent)

	go func() {
		defer close(out)
		var full strings.Builder

		// A client that disconnects stops draining out; every send needs
		// the ctx escape or this goroutine (and the upstream producer
		// behind it) blocks forever.
		send := func(ev domain.StreamEvent) bool {
			select {
			case out <- ev:
				return true
			case <-ctx.Done():
				return false
			}
		}

		for ev := range upstream {
			switch {
			case ev.Err != nil:
				observability.LoggerFromContext(ctx).Error("stream failed", "session_id", id, "error", ev.Err)
				send(ev)
				return
			case ev.Done:
				if err := s.appendMessage(ctx, id, domain.RoleAssistant, full.String()); err != nil {
					send(domain.StreamEvent{Err: fmt.Errorf("persisting reply: %w", err)})
					return
				}
				send(domain.StreamEvent{Done: true})
				return
			default:
				full.WriteString(ev.Text)
				if !send(ev) {
					return
				}
			}
		}
	}()

	return out
}

func (s *Service) appendMessage(ctx context.Context, id domain.SessionID, role domain.Role, content string) error {
	return s.messages.AppendMessage(ctx, &domain.Message{
		ID:        domain.MessageID(uuid.NewString()),
		SessionID: id,
		Role:      role,
		Content:   content,
		CreatedAt: s.now(),
	})
}

func (s *Service) transcript(ctx context.Context, id domain.SessionID) ([]domain.ChatMessage, error) {
	msgs, err := s.messages.GetSessionMessages(ctx, id)
	if err != nil {
		return nil, err
	}
	out := make([]domain.ChatMessage, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, domain.ChatMessage{Role: m.Role, Content: m.Content})
	}
	return out, nil
}
