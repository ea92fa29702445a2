package session

import (
	"context"
	"errors"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/livingsystems/orient/internal/adapters/llm"
	"github.com/livingsystems/orient/internal/adapters/storage/memory"
	"github.com/livingsystems/orient/internal/app/synthesis"
	"github.com/livingsystems/orient/internal/domain"
)

var testClock = func() time.Time {
	return time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)
}

type fixture struct {
	svc      *Service
	backend  *llm.Mock
	messages *memory.MessageStore
	sessions *memory.SessionStore
	scores   *memory.ScoreStore
	aims     *memory.AimStore
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	backend := llm.NewMock()
	sessions := memory.NewSessionStore()
	messages := memory.NewMessageStore()
	scores := memory.NewScoreStore()
	scores.Now = testClock
	aims := memory.NewAimStore()

	builder := synthesis.NewBuilder(synthesis.Deps{
		Snapshots:   memory.NewSnapshotStore(),
		Tracked:     memory.NewTrackedItemStore(),
		Scores:      scores,
		Aims:        aims,
		Orientation: memory.NewOrientationStore(),
		Sessions:    sessions,
	}, time.UTC).WithClock(testClock)

	svc := NewService(backend, sessions, messages, scores, aims, builder, time.UTC).WithClock(testClock)
	return &fixture{svc: svc, backend: backend, messages: messages, sessions: sessions, scores: scores, aims: aims}
}

// drain consumes a stream to its terminal event.
func drain(t *testing.T, ch <-chan domain.StreamEvent) (string, error) {
	t.Helper()
	var full strings.Builder
	for ev := range ch {
		if ev.Err != nil {
			return full.String(), ev.Err
		}
		if ev.Done {
			return full.String(), nil
		}
		full.WriteString(ev.Text)
	}
	t.Fatal("stream closed without a terminal event")
	return "", nil
}

func TestTodayCreatesSessionLazily(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	sess, msgs, err := f.svc.Today(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if sess.Date != "2024-03-01" {
		t.Errorf("date = %q, want 2024-03-01", sess.Date)
	}
	if sess.Status != domain.StatusCheckin {
		t.Errorf("status = %q, want %q", sess.Status, domain.StatusCheckin)
	}
	if len(msgs) != 0 {
		t.Errorf("new session has %d messages", len(msgs))
	}

	again, _, err := f.svc.Today(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if again.ID != sess.ID {
		t.Error("second Today call created a different session")
	}
}

func TestOpenStreamsAndPersistsReply(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	sess, _, _ := f.svc.Today(ctx)

	ch, err := f.svc.Open(ctx, sess.ID)
	if err != nil {
		t.Fatal(err)
	}
	text, err := drain(t, ch)
	if err != nil {
		t.Fatal(err)
	}
	want := "I'm here. What's alive for you this morning?"
	if text != want {
		t.Errorf("streamed %q, want %q", text, want)
	}

	msgs, _ := f.messages.GetSessionMessages(ctx, sess.ID)
	if len(msgs) != 1 {
		t.Fatalf("persisted %d messages, want 1", len(msgs))
	}
	if msgs[0].Role != domain.RoleAssistant || msgs[0].Content != want {
		t.Errorf("persisted message = %+v", msgs[0])
	}
}

func TestOpenRejectsNonEmptySession(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	sess, _, _ := f.svc.Today(ctx)

	ch, err := f.svc.Open(ctx, sess.ID)
	if err != nil {
		t.Fatal(err)
	}
	drain(t, ch)

	if _, err := f.svc.Open(ctx, sess.ID); !errors.Is(err, domain.ErrSessionHasMessages) {
		t.Errorf("second open: got %v, want ErrSessionHasMessages", err)
	}
}

func TestChatAppendsUserTurnAndReply(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	sess, _, _ := f.svc.Today(ctx)

	ch, err := f.svc.Chat(ctx, sess.ID, "Feeling rested today.")
	if err != nil {
		t.Fatal(err)
	}
	drain(t, ch)

	msgs, _ := f.messages.GetSessionMessages(ctx, sess.ID)
	if len(msgs) != 2 {
		t.Fatalf("got %d messages, want user + assistant", len(msgs))
	}
	if msgs[0].Role != domain.RoleUser || msgs[0].Content != "Feeling rested today." {
		t.Errorf("first message = %+v", msgs[0])
	}
	if msgs[1].Role != domain.RoleAssistant {
		t.Errorf("second message role = %q", msgs[1].Role)
	}
}

func TestStreamErrorPersistsNothing(t *testing.T) {
	f := newFixture(t)
	f.backend.StreamErr = errors.New("upstream reset")
	ctx := context.Background()
	sess, _, _ := f.svc.Today(ctx)

	ch, err := f.svc.Open(ctx, sess.ID)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := drain(t, ch); err == nil {
		t.Fatal("expected terminal stream error")
	}

	msgs, _ := f.messages.GetSessionMessages(ctx, sess.ID)
	if len(msgs) != 0 {
		t.Errorf("failed stream persisted %d messages", len(msgs))
	}
}

func TestAbandonedStreamReleasesGoroutines(t *testing.T) {
	f := newFixture(t)
	f.backend.StreamChunks = []string{"one ", "two ", "three ", "four "}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sess, _, _ := f.svc.Today(ctx)

	before := runtime.NumGoroutine()

	ch, err := f.svc.Open(ctx, sess.ID)
	if err != nil {
		t.Fatal(err)
	}
	// Read a single fragment, then walk away mid-stream like a
	// disconnected client. Nobody drains ch after this point.
	<-ch
	cancel()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if runtime.NumGoroutine() <= before {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("forwarding goroutines still blocked: %d running, was %d",
		runtime.NumGoroutine(), before)
}

func TestMiddayIsEphemeral(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	sess, _, _ := f.svc.Today(ctx)

	drain(t, f.svc.Midday(ctx, "Quick reset please.", nil))

	msgs, _ := f.messages.GetSessionMessages(ctx, sess.ID)
	if len(msgs) != 0 {
		t.Errorf("midday chat persisted %d messages", len(msgs))
	}
}

func TestGenerateDashboardIsIdempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	sess, _, _ := f.svc.Today(ctx)

	first, cached, err := f.svc.GenerateDashboard(ctx, sess.ID)
	if err != nil {
		t.Fatal(err)
	}
	if cached {
		t.Error("first generation reported cached")
	}
	if first != f.backend.CompleteText {
		t.Errorf("dashboard = %q", first)
	}
	callsAfterFirst := len(f.backend.Calls())

	second, cached, err := f.svc.GenerateDashboard(ctx, sess.ID)
	if err != nil {
		t.Fatal(err)
	}
	if !cached {
		t.Error("second generation not served from cache")
	}
	if second != first {
		t.Errorf("cached dashboard %q differs from %q", second, first)
	}
	if got := len(f.backend.Calls()); got != callsAfterFirst {
		t.Errorf("cached dashboard made %d extra backend calls", got-callsAfterFirst)
	}

	stored, _ := f.sessions.GetSession(ctx, sess.ID)
	if stored.Status != domain.StatusDashboard {
		t.Errorf("status = %q, want %q", stored.Status, domain.StatusDashboard)
	}
}

func TestEveningChatAdvancesStatusOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	sess, _, _ := f.svc.Today(ctx)

	ch, err := f.svc.EveningChat(ctx, sess.ID, "")
	if err != nil {
		t.Fatal(err)
	}
	drain(t, ch)

	stored, _ := f.sessions.GetSession(ctx, sess.ID)
	if stored.Status != domain.StatusEveningReview {
		t.Fatalf("status = %q, want %q", stored.Status, domain.StatusEveningReview)
	}

	// An empty opening turn appends only the assistant reply.
	msgs, _ := f.messages.GetSessionMessages(ctx, sess.ID)
	if len(msgs) != 1 || msgs[0].Role != domain.RoleAssistant {
		t.Errorf("opening evening turn persisted %+v", msgs)
	}

	ch, err = f.svc.EveningChat(ctx, sess.ID, "It was a full day.")
	if err != nil {
		t.Fatal(err)
	}
	drain(t, ch)

	msgs, _ = f.messages.GetSessionMessages(ctx, sess.ID)
	if len(msgs) != 3 {
		t.Fatalf("got %d messages after second evening turn, want 3", len(msgs))
	}
	if msgs[1].Role != domain.RoleUser {
		t.Errorf("second evening turn role = %q", msgs[1].Role)
	}
}

func TestEveningChatNeverRetreatsFromComplete(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	sess, _, _ := f.svc.Today(ctx)

	ch, err := f.svc.EveningChat(ctx, sess.ID, "")
	if err != nil {
		t.Fatal(err)
	}
	drain(t, ch)
	if _, err := f.svc.CompleteDay(ctx, sess.ID); err != nil {
		t.Fatal(err)
	}

	ch, err = f.svc.EveningChat(ctx, sess.ID, "one more thing")
	if err != nil {
		t.Fatal(err)
	}
	drain(t, ch)

	stored, _ := f.sessions.GetSession(ctx, sess.ID)
	if stored.Status != domain.StatusComplete {
		t.Errorf("status retreated to %q", stored.Status)
	}
}

func TestCompleteDayRequiresEveningReview(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	sess, _, _ := f.svc.Today(ctx)

	if _, err := f.svc.CompleteDay(ctx, sess.ID); !errors.Is(err, domain.ErrSessionNotReviewing) {
		t.Errorf("got %v, want ErrSessionNotReviewing", err)
	}
}

func TestCompleteDayStoresSummary(t *testing.T) {
	f := newFixture(t)
	f.backend.CompleteText = "Held steady through a crowded schedule."
	ctx := context.Background()
	sess, _, _ := f.svc.Today(ctx)

	ch, _ := f.svc.EveningChat(ctx, sess.ID, "")
	drain(t, ch)

	summary, err := f.svc.CompleteDay(ctx, sess.ID)
	if err != nil {
		t.Fatal(err)
	}
	if summary != "Held steady through a crowded schedule." {
		t.Errorf("summary = %q", summary)
	}

	stored, _ := f.sessions.GetSession(ctx, sess.ID)
	if stored.Status != domain.StatusComplete {
		t.Errorf("status = %q, want %q", stored.Status, domain.StatusComplete)
	}
	if stored.Summary != summary || stored.EveningReview != summary {
		t.Error("summary not stored on the session")
	}
	if stored.CompletedAt == nil || !stored.CompletedAt.Equal(testClock()) {
		t.Errorf("completed_at = %v", stored.CompletedAt)
	}
}
