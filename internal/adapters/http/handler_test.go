package httpadapter

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/livingsystems/orient/internal/adapters/llm"
	"github.com/livingsystems/orient/internal/adapters/storage/memory"
	"github.com/livingsystems/orient/internal/app/aims"
	"github.com/livingsystems/orient/internal/app/session"
	"github.com/livingsystems/orient/internal/app/synthesis"
	"github.com/livingsystems/orient/internal/app/wellbeing"
)

const testSecret = "agent-secret"

var handlerClock = func() time.Time {
	return time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)
}

type testServer struct {
	handler http.Handler
	backend *llm.Mock
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	backend := llm.NewMock()
	sessions := memory.NewSessionStore()
	messages := memory.NewMessageStore()
	scores := memory.NewScoreStore()
	scores.Now = handlerClock
	aimStore := memory.NewAimStore()
	tracked := memory.NewTrackedItemStore()
	snapshots := memory.NewSnapshotStore()
	orientation := memory.NewOrientationStore()

	builder := synthesis.NewBuilder(synthesis.Deps{
		Snapshots:   snapshots,
		Tracked:     tracked,
		Scores:      scores,
		Aims:        aimStore,
		Orientation: orientation,
		Sessions:    sessions,
	}, time.UTC).WithClock(handlerClock)

	sessionSvc := session.NewService(backend, sessions, messages, scores, aimStore, builder, time.UTC).
		WithClock(handlerClock)

	handler := NewServer(
		sessionSvc,
		aims.NewService(aimStore),
		wellbeing.NewService(scores, tracked),
		builder,
		snapshots,
		orientation,
		Options{AgentSecret: testSecret},
	)
	return &testServer{handler: handler, backend: backend}
}

func (ts *testServer) do(t *testing.T, method, path, body string, header map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range header {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.NewDecoder(rec.Body).Decode(v); err != nil {
		t.Fatalf("decoding response: %v\nbody: %s", err, rec.Body.String())
	}
}

// todaySessionID bootstraps today's session and returns its id.
func (ts *testServer) todaySessionID(t *testing.T) string {
	t.Helper()
	rec := ts.do(t, "GET", "/api/session/today", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("today: %d %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		Session struct {
			ID string `json:"id"`
		} `json:"session"`
	}
	decodeBody(t, rec, &resp)
	return resp.Session.ID
}

func TestHealthz(t *testing.T) {
	ts := newTestServer(t)
	rec := ts.do(t, "GET", "/healthz", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("got %d", rec.Code)
	}
}

func TestSessionTodayShape(t *testing.T) {
	ts := newTestServer(t)
	rec := ts.do(t, "GET", "/api/session/today", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("got %d: %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Session struct {
			Date        string `json:"date"`
			Status      string `json:"status"`
			MorningDone bool   `json:"morning_done"`
		} `json:"session"`
		Messages []json.RawMessage `json:"messages"`
	}
	decodeBody(t, rec, &resp)
	if resp.Session.Date != "2024-03-01" {
		t.Errorf("date = %q", resp.Session.Date)
	}
	if resp.Session.Status != "checkin" {
		t.Errorf("status = %q", resp.Session.Status)
	}
	if resp.Session.MorningDone {
		t.Error("fresh session reports morning done")
	}
	if resp.Messages == nil || len(resp.Messages) != 0 {
		t.Errorf("messages = %v, want empty array", resp.Messages)
	}
}

func TestSessionByDateNotFound(t *testing.T) {
	ts := newTestServer(t)
	rec := ts.do(t, "GET", "/api/session/2020-01-01", "", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("got %d, want 404", rec.Code)
	}
}

func TestOpenStreamsSSEFrames(t *testing.T) {
	ts := newTestServer(t)
	id := ts.todaySessionID(t)

	rec := ts.do(t, "POST", "/api/session/open", fmt.Sprintf(`{"session_id":%q}`, id), nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("got %d: %s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); ct != "text/event-stream" {
		t.Errorf("content type = %q", ct)
	}

	body := rec.Body.String()
	for _, frame := range []string{
		`data: {"text":"I'm here. "}` + "\n\n",
		`data: {"text":"What's alive for you this morning?"}` + "\n\n",
		`data: {"done":true}` + "\n\n",
	} {
		if !strings.Contains(body, frame) {
			t.Errorf("missing frame %q in:\n%s", frame, body)
		}
	}
}

func TestOpenTwiceConflicts(t *testing.T) {
	ts := newTestServer(t)
	id := ts.todaySessionID(t)
	body := fmt.Sprintf(`{"session_id":%q}`, id)

	if rec := ts.do(t, "POST", "/api/session/open", body, nil); rec.Code != http.StatusOK {
		t.Fatalf("first open: %d", rec.Code)
	}
	if rec := ts.do(t, "POST", "/api/session/open", body, nil); rec.Code != http.StatusConflict {
		t.Errorf("second open: %d, want 409", rec.Code)
	}
}

func TestStreamErrorEmitsErrorFrame(t *testing.T) {
	ts := newTestServer(t)
	ts.backend.StreamErr = fmt.Errorf("model unavailable")
	id := ts.todaySessionID(t)

	rec := ts.do(t, "POST", "/api/session/open", fmt.Sprintf(`{"session_id":%q}`, id), nil)
	body := rec.Body.String()
	if !strings.Contains(body, `data: {"error":"model unavailable"}`) {
		t.Errorf("missing error frame:\n%s", body)
	}
	if strings.Contains(body, `"done":true`) {
		t.Error("failed stream must not emit a done frame")
	}
}

func TestChatValidation(t *testing.T) {
	ts := newTestServer(t)
	id := ts.todaySessionID(t)

	cases := []struct {
		name string
		body string
	}{
		{"missing session", `{"message":"hi"}`},
		{"blank message", fmt.Sprintf(`{"session_id":%q,"message":"  "}`, id)},
		{"bad json", `{`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if rec := ts.do(t, "POST", "/api/chat", tc.body, nil); rec.Code != http.StatusBadRequest {
				t.Errorf("got %d, want 400", rec.Code)
			}
		})
	}
}

func TestCompleteDayBeforeEveningConflicts(t *testing.T) {
	ts := newTestServer(t)
	id := ts.todaySessionID(t)

	rec := ts.do(t, "POST", "/api/evening/complete", fmt.Sprintf(`{"session_id":%q}`, id), nil)
	if rec.Code != http.StatusConflict {
		t.Errorf("got %d, want 409", rec.Code)
	}
}

func TestEveningFlowToExport(t *testing.T) {
	ts := newTestServer(t)
	ts.backend.CompleteText = "Quiet and complete."
	id := ts.todaySessionID(t)
	body := fmt.Sprintf(`{"session_id":%q}`, id)

	if rec := ts.do(t, "POST", "/api/evening/chat", fmt.Sprintf(`{"session_id":%q,"message":""}`, id), nil); rec.Code != http.StatusOK {
		t.Fatalf("evening chat: %d %s", rec.Code, rec.Body.String())
	}

	rec := ts.do(t, "POST", "/api/evening/complete", body, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("complete: %d %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		Summary string `json:"summary"`
	}
	decodeBody(t, rec, &resp)
	if resp.Summary != "Quiet and complete." {
		t.Errorf("summary = %q", resp.Summary)
	}

	rec = ts.do(t, "GET", "/api/export/2024-03-01", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("export: %d %s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/plain") {
		t.Errorf("export content type = %q", ct)
	}
	if !strings.HasPrefix(rec.Body.String(), "=== 2024-03-01 ===\n") {
		t.Errorf("export body:\n%s", rec.Body.String())
	}
}

func TestExportIncompleteSessionIs404(t *testing.T) {
	ts := newTestServer(t)
	ts.todaySessionID(t)

	if rec := ts.do(t, "GET", "/api/export/2024-03-01", "", nil); rec.Code != http.StatusNotFound {
		t.Errorf("got %d, want 404", rec.Code)
	}
}

func TestDashboardGenerateAndCache(t *testing.T) {
	ts := newTestServer(t)
	id := ts.todaySessionID(t)
	body := fmt.Sprintf(`{"session_id":%q}`, id)

	rec := ts.do(t, "POST", "/api/dashboard/generate", body, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("got %d: %s", rec.Code, rec.Body.String())
	}
	var first struct {
		Dashboard string `json:"dashboard"`
		Cached    bool   `json:"cached"`
	}
	decodeBody(t, rec, &first)
	if first.Cached {
		t.Error("first generation reported cached")
	}

	rec = ts.do(t, "POST", "/api/dashboard/generate", body, nil)
	var second struct {
		Dashboard string `json:"dashboard"`
		Cached    bool   `json:"cached"`
	}
	decodeBody(t, rec, &second)
	if !second.Cached || second.Dashboard != first.Dashboard {
		t.Errorf("second generation = %+v", second)
	}
}

func TestSnapshotPushRequiresSecret(t *testing.T) {
	ts := newTestServer(t)
	body := `{"active_note":"今日","notes":[],"reminders":[{"name":"Call back"}]}`

	if rec := ts.do(t, "POST", "/api/snapshot", body, nil); rec.Code != http.StatusUnauthorized {
		t.Errorf("no secret: %d, want 401", rec.Code)
	}
	if rec := ts.do(t, "POST", "/api/snapshot", body, map[string]string{"X-Agent-Secret": "wrong"}); rec.Code != http.StatusUnauthorized {
		t.Errorf("wrong secret: %d, want 401", rec.Code)
	}
	rec := ts.do(t, "POST", "/api/snapshot", body, map[string]string{"X-Agent-Secret": testSecret})
	if rec.Code != http.StatusOK {
		t.Fatalf("valid secret: %d %s", rec.Code, rec.Body.String())
	}

	rec = ts.do(t, "GET", "/api/snapshot/status", "", nil)
	var status struct {
		Received      bool `json:"received"`
		ReminderCount int  `json:"reminder_count"`
	}
	decodeBody(t, rec, &status)
	if !status.Received || status.ReminderCount != 1 {
		t.Errorf("status = %+v", status)
	}
}

func TestSnapshotStatusEmpty(t *testing.T) {
	ts := newTestServer(t)
	rec := ts.do(t, "GET", "/api/snapshot/status", "", nil)
	var status struct {
		Received bool `json:"received"`
	}
	decodeBody(t, rec, &status)
	if status.Received {
		t.Error("empty store reports a snapshot")
	}
}

func TestScoresRoundTrip(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, "POST", "/api/scores",
		`{"phase":"morning","scores":{"Finances":4,"Relationships":8}}`, nil)
	if rec.Code != http.StatusCreated {
		t.Fatalf("submit: %d %s", rec.Code, rec.Body.String())
	}

	if rec := ts.do(t, "POST", "/api/scores", `{"phase":"morning","scores":{"Finances":11}}`, nil); rec.Code != http.StatusBadRequest {
		t.Errorf("out-of-range score: %d, want 400", rec.Code)
	}

	rec = ts.do(t, "GET", "/api/scores?days=7", "", nil)
	var entries []struct {
		Date   string         `json:"date"`
		Scores map[string]int `json:"scores"`
	}
	decodeBody(t, rec, &entries)
	if len(entries) != 1 || entries[0].Date != "2024-03-01" {
		t.Errorf("entries = %+v", entries)
	}
}

func TestTrackedItemLifecycle(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, "POST", "/api/items", `{"description":"Renew passport"}`, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("track: %d %s", rec.Code, rec.Body.String())
	}
	var item struct {
		ID        string `json:"id"`
		FirstSeen string `json:"first_seen"`
	}
	decodeBody(t, rec, &item)
	if item.FirstSeen != "2024-03-01" {
		t.Errorf("first seen = %q, want today's date defaulted", item.FirstSeen)
	}

	if rec := ts.do(t, "POST", "/api/items/"+item.ID+"/resolve", "", nil); rec.Code != http.StatusOK {
		t.Errorf("resolve: %d", rec.Code)
	}
	if rec := ts.do(t, "POST", "/api/items/missing/resolve", "", nil); rec.Code != http.StatusNotFound {
		t.Errorf("resolve unknown: %d, want 404", rec.Code)
	}

	rec = ts.do(t, "GET", "/api/items", "", nil)
	var items []json.RawMessage
	decodeBody(t, rec, &items)
	if len(items) != 0 {
		t.Errorf("resolved item still listed: %s", rec.Body.String())
	}
}

func TestAimEndpoints(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, "GET", "/api/aim/current", "", nil)
	var current struct {
		Aim      json.RawMessage `json:"aim"`
		NeedsAim bool            `json:"needs_aim_formation"`
	}
	decodeBody(t, rec, &current)
	if !current.NeedsAim {
		t.Error("no aim should flag aim formation")
	}

	rec = ts.do(t, "POST", "/api/aims", `{"aim_statement":"Hold a daily sit","start_date":"2024-02-28"}`, nil)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create: %d %s", rec.Code, rec.Body.String())
	}
	var created struct {
		ID       string `json:"id"`
		DaysHeld int    `json:"days_held"`
		Status   string `json:"status"`
	}
	decodeBody(t, rec, &created)
	if created.Status != "active" || created.DaysHeld != 2 {
		t.Errorf("created = %+v", created)
	}

	if rec := ts.do(t, "POST", "/api/aims", `{"aim_statement":"  "}`, nil); rec.Code != http.StatusBadRequest {
		t.Errorf("blank statement: %d, want 400", rec.Code)
	}

	if rec := ts.do(t, "PATCH", "/api/aims/"+created.ID, `{"status":"paused"}`, nil); rec.Code != http.StatusBadRequest {
		t.Errorf("invalid status: %d, want 400", rec.Code)
	}
	if rec := ts.do(t, "PATCH", "/api/aims/"+created.ID, `{"status":"completed"}`, nil); rec.Code != http.StatusOK {
		t.Errorf("valid update: %d", rec.Code)
	}
	if rec := ts.do(t, "PATCH", "/api/aims/missing", `{"end_date":"2024-04-01"}`, nil); rec.Code != http.StatusNotFound {
		t.Errorf("unknown aim: %d, want 404", rec.Code)
	}

	rec = ts.do(t, "POST", "/api/aims/"+created.ID+"/reflections",
		`{"reflection":"Sat before sunrise.","practice_happened":true}`, nil)
	if rec.Code != http.StatusCreated {
		t.Fatalf("reflection: %d %s", rec.Code, rec.Body.String())
	}
	var refl struct {
		Date string `json:"date"`
	}
	decodeBody(t, rec, &refl)
	if refl.Date != "2024-03-01" {
		t.Errorf("reflection date = %q, want today defaulted", refl.Date)
	}
}

func TestContextPreview(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, "GET", "/api/context", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("got %d", rec.Code)
	}
	var resp struct {
		Date         string `json:"date"`
		ContextBlock string `json:"context_block"`
		NeedsAim     bool   `json:"needs_aim_formation"`
	}
	decodeBody(t, rec, &resp)
	if resp.Date != "2024-03-01" {
		t.Errorf("date = %q", resp.Date)
	}
	if !strings.Contains(resp.ContextBlock, "## Session Context") {
		t.Error("context block missing document header")
	}
	if !resp.NeedsAim {
		t.Error("no aim should flag aim formation")
	}
}

func TestOrientationRoundTrip(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, "GET", "/api/orientation", "", nil)
	var empty struct {
		Content string `json:"content"`
	}
	decodeBody(t, rec, &empty)
	if empty.Content != "" {
		t.Errorf("unset orientation = %q", empty.Content)
	}

	if rec := ts.do(t, "PUT", "/api/orientation", `{"content":" "}`, nil); rec.Code != http.StatusBadRequest {
		t.Errorf("blank content: %d, want 400", rec.Code)
	}

	if rec := ts.do(t, "PUT", "/api/orientation", `{"content":"Tend the garden first."}`, nil); rec.Code != http.StatusOK {
		t.Fatalf("put: %d %s", rec.Code, rec.Body.String())
	}

	rec = ts.do(t, "GET", "/api/orientation", "", nil)
	var got struct {
		Content string `json:"content"`
	}
	decodeBody(t, rec, &got)
	if got.Content != "Tend the garden first." {
		t.Errorf("content = %q", got.Content)
	}
}

func TestCORSPreflight(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, "OPTIONS", "/api/chat", "", map[string]string{"Origin": "http://localhost:5173"})
	if rec.Code != http.StatusNoContent {
		t.Fatalf("got %d, want 204", rec.Code)
	}
	if rec.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Errorf("allow origin = %q", rec.Header().Get("Access-Control-Allow-Origin"))
	}
	if !strings.Contains(rec.Header().Get("Access-Control-Allow-Headers"), "X-Agent-Secret") {
		t.Error("agent secret header not allowed for CORS")
	}
}
