package httpadapter

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/livingsystems/orient/internal/app/aims"
	"github.com/livingsystems/orient/internal/app/session"
	"github.com/livingsystems/orient/internal/app/synthesis"
	"github.com/livingsystems/orient/internal/app/wellbeing"
	"github.com/livingsystems/orient/internal/domain"
)

type Server struct {
	sessions    *session.Service
	aims        *aims.Service
	wellbeing   *wellbeing.Service
	builder     *synthesis.Builder
	snapshots   domain.SnapshotStore
	orientation domain.OrientationStore

	agentSecret   string
	allowedOrigin string
	now           func() time.Time
}

type Options struct {
	AgentSecret   string
	AllowedOrigin string
}

func NewServer(
	sessions *session.Service,
	aimSvc *aims.Service,
	wb *wellbeing.Service,
	builder *synthesis.Builder,
	snapshots domain.SnapshotStore,
	orientation domain.OrientationStore,
	opts Options,
) http.Handler {
	s := &Server{
		sessions:      sessions,
		aims:          aimSvc,
		wellbeing:     wb,
		builder:       builder,
		snapshots:     snapshots,
		orientation:   orientation,
		agentSecret:   opts.AgentSecret,
		allowedOrigin: opts.AllowedOrigin,
		now:           time.Now,
	}

	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", s.handleHealth)

	// Session lifecycle
	mux.HandleFunc("GET /api/session/today", s.handleSessionToday)
	mux.HandleFunc("GET /api/session/{date}", s.handleSessionByDate)
	mux.HandleFunc("POST /api/session/open", s.handleOpen)

	// Conversational modes (SSE)
	mux.HandleFunc("POST /api/chat", s.handleChat)
	mux.HandleFunc("POST /api/midday/chat", s.handleMidday)
	mux.HandleFunc("POST /api/reflect/chat", s.handleReflect)
	mux.HandleFunc("POST /api/evening/chat", s.handleEveningChat)

	// Non-streaming generation
	mux.HandleFunc("POST /api/dashboard/generate", s.handleGenerateDashboard)
	mux.HandleFunc("POST /api/evening/complete", s.handleCompleteDay)
	mux.HandleFunc("GET /api/export/{date}", s.handleExport)

	// Orientation document
	mux.HandleFunc("GET /api/orientation", s.handleGetOrientation)
	mux.HandleFunc("PUT /api/orientation", s.handlePutOrientation)

	// Device snapshot push (authenticated by shared secret)
	mux.Handle("POST /api/snapshot", s.withAgentSecret(http.HandlerFunc(s.handlePushSnapshot)))
	mux.HandleFunc("GET /api/snapshot/status", s.handleSnapshotStatus)

	// Tracked items
	mux.HandleFunc("GET /api/items", s.handleListItems)
	mux.HandleFunc("POST /api/items", s.handleTrackItem)
	mux.HandleFunc("POST /api/items/{id}/resolve", s.handleResolveItem)

	// Life wheel scores
	mux.HandleFunc("POST /api/scores", s.handleSubmitScores)
	mux.HandleFunc("GET /api/scores", s.handleListScores)

	// Aims
	mux.HandleFunc("GET /api/aim/current", s.handleCurrentAim)
	mux.HandleFunc("GET /api/aims", s.handleListAims)
	mux.HandleFunc("POST /api/aims", s.handleCreateAim)
	mux.HandleFunc("PATCH /api/aims/{id}", s.handleUpdateAim)
	mux.HandleFunc("POST /api/aims/{id}/reflections", s.handleAddReflection)
	mux.HandleFunc("GET /api/aims/{id}/reflections", s.handleListReflections)

	// Context preview
	mux.HandleFunc("GET /api/context", s.handleContext)

	return chainMiddlewares(mux, s.withCORS, withLogging, withRequestID)
}

// ─────────────────────────────────────────────
// DTOs (request/response)
// ─────────────────────────────────────────────

type sessionResponse struct {
	ID            string     `json:"id"`
	Date          string     `json:"date"`
	Status        string     `json:"status"`
	Dashboard     string     `json:"dashboard,omitempty"`
	EveningReview string     `json:"evening_review,omitempty"`
	Summary       string     `json:"summary,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	CompletedAt   *time.Time `json:"completed_at,omitempty"`
	MorningDone   bool       `json:"morning_done"`
}

type messageResponse struct {
	ID        string    `json:"id"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

type sessionWithMessagesResponse struct {
	Session  sessionResponse   `json:"session"`
	Messages []messageResponse `json:"messages"`
}

type openRequest struct {
	SessionID string `json:"session_id"`
}

type chatRequest struct {
	SessionID string `json:"session_id"`
	Message   string `json:"message"`
}

type historyTurn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ephemeralChatRequest struct {
	Message string        `json:"message"`
	History []historyTurn `json:"history"`
}

type dashboardResponse struct {
	Dashboard string `json:"dashboard"`
	Cached    bool   `json:"cached"`
}

type completeDayResponse struct {
	Summary string `json:"summary"`
}

type orientationRequest struct {
	Content string `json:"content"`
}

type orientationResponse struct {
	Content   string     `json:"content"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`
}

type snapshotRequest struct {
	Notes      []domain.Note     `json:"notes"`
	ActiveNote string            `json:"active_note"`
	Reminders  []domain.Reminder `json:"reminders"`
}

type snapshotStatusResponse struct {
	Received      bool       `json:"received"`
	ReceivedAt    *time.Time `json:"received_at,omitempty"`
	AgeMinutes    int        `json:"age_minutes,omitempty"`
	NoteCount     int        `json:"note_count"`
	ReminderCount int        `json:"reminder_count"`
}

type trackItemRequest struct {
	Description string `json:"description"`
	Date        string `json:"date,omitempty"`
	SessionID   string `json:"session_id,omitempty"`
}

type trackedItemResponse struct {
	ID          string `json:"id"`
	Description string `json:"description"`
	FirstSeen   string `json:"first_seen"`
	LastSeen    string `json:"last_seen"`
}

type submitScoresRequest struct {
	SessionID string         `json:"session_id,omitempty"`
	Date      string         `json:"date,omitempty"`
	Phase     string         `json:"phase"`
	Scores    map[string]int `json:"scores"`
}

type scoreEntryResponse struct {
	ID        int64          `json:"id"`
	Date      string         `json:"date"`
	Phase     string         `json:"phase"`
	Scores    map[string]int `json:"scores"`
	CreatedAt time.Time      `json:"created_at"`
}

type createAimRequest struct {
	HeartWish            string `json:"heart_wish,omitempty"`
	Statement            string `json:"aim_statement"`
	StartDate            string `json:"start_date,omitempty"`
	EndDate              string `json:"end_date,omitempty"`
	AccountabilityPerson string `json:"accountability_person,omitempty"`
}

type updateAimRequest struct {
	HeartWish            *string `json:"heart_wish,omitempty"`
	Statement            *string `json:"aim_statement,omitempty"`
	EndDate              *string `json:"end_date,omitempty"`
	AccountabilityPerson *string `json:"accountability_person,omitempty"`
	Status               *string `json:"status,omitempty"`
}

type aimResponse struct {
	ID                   string    `json:"id"`
	HeartWish            string    `json:"heart_wish,omitempty"`
	Statement            string    `json:"aim_statement"`
	StartDate            string    `json:"start_date"`
	EndDate              string    `json:"end_date,omitempty"`
	AccountabilityPerson string    `json:"accountability_person,omitempty"`
	Status               string    `json:"status"`
	DaysHeld             int       `json:"days_held"`
	CreatedAt            time.Time `json:"created_at"`
}

type addReflectionRequest struct {
	Date             string `json:"date,omitempty"`
	Reflection       string `json:"reflection"`
	PracticeHappened bool   `json:"practice_happened"`
}

type reflectionResponse struct {
	Date             string    `json:"date"`
	Reflection       string    `json:"reflection"`
	PracticeHappened bool      `json:"practice_happened"`
	CreatedAt        time.Time `json:"created_at"`
}

type contextResponse struct {
	Date             string `json:"date"`
	ContextBlock     string `json:"context_block"`
	EventCount       int    `json:"event_count"`
	UnreadCount      int    `json:"unread_count"`
	StarredCount     int    `json:"starred_count"`
	TrackedItemCount int    `json:"tracked_item_count"`
	HasBiometrics    bool   `json:"has_biometrics"`
	HasSnapshot      bool   `json:"has_snapshot"`
	NeedsAim         bool   `json:"needs_aim_formation"`
}

// ─────────────────────────────────────────────
// Session handlers
// ─────────────────────────────────────────────

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleSessionToday(w http.ResponseWriter, r *http.Request) {
	sess, msgs, err := s.sessions.Today(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sessionWithMessagesResponse{
		Session:  toSessionResponse(sess),
		Messages: toMessagesResponse(msgs),
	})
}

func (s *Server) handleSessionByDate(w http.ResponseWriter, r *http.Request) {
	sess, msgs, err := s.sessions.ByDate(r.Context(), r.PathValue("date"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sessionWithMessagesResponse{
		Session:  toSessionResponse(sess),
		Messages: toMessagesResponse(msgs),
	})
}

func (s *Server) handleOpen(w http.ResponseWriter, r *http.Request) {
	var req openRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid JSON body")
		return
	}
	if req.SessionID == "" {
		badRequest(w, "session_id is required")
		return
	}

	stream, err := s.sessions.Open(r.Context(), domain.SessionID(req.SessionID))
	if err != nil {
		writeError(w, err)
		return
	}
	streamSSE(w, r, stream)
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid JSON body")
		return
	}
	if req.SessionID == "" {
		badRequest(w, "session_id is required")
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		badRequest(w, "message is required")
		return
	}

	stream, err := s.sessions.Chat(r.Context(), domain.SessionID(req.SessionID), req.Message)
	if err != nil {
		writeError(w, err)
		return
	}
	streamSSE(w, r, stream)
}

func (s *Server) handleMidday(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeEphemeral(w, r)
	if !ok {
		return
	}
	streamSSE(w, r, s.sessions.Midday(r.Context(), req.Message, toChatHistory(req.History)))
}

func (s *Server) handleReflect(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeEphemeral(w, r)
	if !ok {
		return
	}
	streamSSE(w, r, s.sessions.Reflect(r.Context(), req.Message, toChatHistory(req.History)))
}

func (s *Server) handleEveningChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid JSON body")
		return
	}
	if req.SessionID == "" {
		badRequest(w, "session_id is required")
		return
	}

	// An empty message opens the review.
	stream, err := s.sessions.EveningChat(r.Context(), domain.SessionID(req.SessionID), req.Message)
	if err != nil {
		writeError(w, err)
		return
	}
	streamSSE(w, r, stream)
}

func (s *Server) handleGenerateDashboard(w http.ResponseWriter, r *http.Request) {
	var req openRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid JSON body")
		return
	}
	if req.SessionID == "" {
		badRequest(w, "session_id is required")
		return
	}

	dashboard, cached, err := s.sessions.GenerateDashboard(r.Context(), domain.SessionID(req.SessionID))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dashboardResponse{Dashboard: dashboard, Cached: cached})
}

func (s *Server) handleCompleteDay(w http.ResponseWriter, r *http.Request) {
	var req openRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid JSON body")
		return
	}
	if req.SessionID == "" {
		badRequest(w, "session_id is required")
		return
	}

	summary, err := s.sessions.CompleteDay(r.Context(), domain.SessionID(req.SessionID))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, completeDayResponse{Summary: summary})
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	block, err := s.sessions.Export(r.Context(), r.PathValue("date"))
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte(block))
}

// ─────────────────────────────────────────────
// Orientation, snapshot, context
// ─────────────────────────────────────────────

func (s *Server) handleGetOrientation(w http.ResponseWriter, r *http.Request) {
	o, err := s.orientation.GetOrientation(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	if o == nil {
		writeJSON(w, http.StatusOK, orientationResponse{})
		return
	}
	writeJSON(w, http.StatusOK, orientationResponse{Content: o.Content, UpdatedAt: &o.UpdatedAt})
}

func (s *Server) handlePutOrientation(w http.ResponseWriter, r *http.Request) {
	var req orientationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid JSON body")
		return
	}
	if strings.TrimSpace(req.Content) == "" {
		badRequest(w, "content is required")
		return
	}

	o, err := s.orientation.SetOrientation(r.Context(), req.Content)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, orientationResponse{Content: o.Content, UpdatedAt: &o.UpdatedAt})
}

func (s *Server) handlePushSnapshot(w http.ResponseWriter, r *http.Request) {
	var req snapshotRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid JSON body")
		return
	}

	err := s.snapshots.SaveSnapshot(r.Context(), &domain.Snapshot{
		Notes:      req.Notes,
		ActiveNote: req.ActiveNote,
		Reminders:  req.Reminders,
		ReceivedAt: s.now(),
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "received"})
}

func (s *Server) handleSnapshotStatus(w http.ResponseWriter, r *http.Request) {
	snap, err := s.snapshots.LatestSnapshot(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	if snap == nil {
		writeJSON(w, http.StatusOK, snapshotStatusResponse{})
		return
	}
	writeJSON(w, http.StatusOK, snapshotStatusResponse{
		Received:      true,
		ReceivedAt:    &snap.ReceivedAt,
		AgeMinutes:    int(s.now().Sub(snap.ReceivedAt).Minutes()),
		NoteCount:     len(snap.Notes),
		ReminderCount: len(snap.Reminders),
	})
}

func (s *Server) handleContext(w http.ResponseWriter, r *http.Request) {
	date := r.URL.Query().Get("date")
	if date == "" {
		date = s.sessions.TodayDate()
	}

	block, in := s.builder.Build(r.Context(), date)
	writeJSON(w, http.StatusOK, contextResponse{
		Date:             date,
		ContextBlock:     block,
		EventCount:       len(in.Events),
		UnreadCount:      len(in.Unread),
		StarredCount:     len(in.Starred),
		TrackedItemCount: len(in.TrackedItems),
		HasBiometrics:    in.Biometrics != nil,
		HasSnapshot:      in.Snapshot != nil,
		NeedsAim:         in.NeedsAimFormation(),
	})
}

// ─────────────────────────────────────────────
// Tracked items and scores
// ─────────────────────────────────────────────

func (s *Server) handleListItems(w http.ResponseWriter, r *http.Request) {
	items, err := s.wellbeing.OpenItems(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	out := make([]trackedItemResponse, 0, len(items))
	for _, item := range items {
		out = append(out, toTrackedItemResponse(item))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleTrackItem(w http.ResponseWriter, r *http.Request) {
	var req trackItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid JSON body")
		return
	}
	if strings.TrimSpace(req.Description) == "" {
		badRequest(w, "description is required")
		return
	}

	date := req.Date
	if date == "" {
		date = s.sessions.TodayDate()
	}

	item, err := s.wellbeing.Track(r.Context(), req.Description, date, domain.SessionID(req.SessionID))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toTrackedItemResponse(item))
}

func (s *Server) handleResolveItem(w http.ResponseWriter, r *http.Request) {
	if err := s.wellbeing.Resolve(r.Context(), domain.TrackedItemID(r.PathValue("id"))); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "resolved"})
}

func (s *Server) handleSubmitScores(w http.ResponseWriter, r *http.Request) {
	var req submitScoresRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid JSON body")
		return
	}

	date := req.Date
	if date == "" {
		date = s.sessions.TodayDate()
	}

	entry, err := s.wellbeing.SubmitScores(r.Context(),
		domain.SessionID(req.SessionID), date, domain.ScorePhase(req.Phase), req.Scores)
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, toScoreEntryResponse(entry))
}

func (s *Server) handleListScores(w http.ResponseWriter, r *http.Request) {
	days := 0
	if v := r.URL.Query().Get("days"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			badRequest(w, "days must be an integer")
			return
		}
		days = n
	}

	entries, err := s.wellbeing.RecentScores(r.Context(), days)
	if err != nil {
		writeError(w, err)
		return
	}
	out := make([]scoreEntryResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, toScoreEntryResponse(e))
	}
	writeJSON(w, http.StatusOK, out)
}

// ─────────────────────────────────────────────
// Aim handlers
// ─────────────────────────────────────────────

func (s *Server) handleCurrentAim(w http.ResponseWriter, r *http.Request) {
	aim, err := s.aims.Current(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	if aim == nil {
		writeJSON(w, http.StatusOK, map[string]any{"aim": nil, "needs_aim_formation": true})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"aim":                 s.toAimResponse(aim),
		"needs_aim_formation": domain.NeedsAimFormation(aim, s.sessions.TodayDate()),
	})
}

func (s *Server) handleListAims(w http.ResponseWriter, r *http.Request) {
	list, err := s.aims.History(r.Context(), 0)
	if err != nil {
		writeError(w, err)
		return
	}
	out := make([]aimResponse, 0, len(list))
	for _, aim := range list {
		out = append(out, s.toAimResponse(aim))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreateAim(w http.ResponseWriter, r *http.Request) {
	var req createAimRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid JSON body")
		return
	}
	if strings.TrimSpace(req.Statement) == "" {
		badRequest(w, "aim_statement is required")
		return
	}

	aim, err := s.aims.Create(r.Context(), aims.CreateInput{
		HeartWish:            req.HeartWish,
		Statement:            req.Statement,
		StartDate:            req.StartDate,
		EndDate:              req.EndDate,
		AccountabilityPerson: req.AccountabilityPerson,
	}, s.sessions.TodayDate())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, s.toAimResponse(aim))
}

func (s *Server) handleUpdateAim(w http.ResponseWriter, r *http.Request) {
	var req updateAimRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid JSON body")
		return
	}

	update := domain.AimUpdate{
		HeartWish:            req.HeartWish,
		Statement:            req.Statement,
		EndDate:              req.EndDate,
		AccountabilityPerson: req.AccountabilityPerson,
	}
	if req.Status != nil {
		st := domain.AimStatus(*req.Status)
		switch st {
		case domain.AimActive, domain.AimCompleted, domain.AimSuperseded:
			update.Status = &st
		default:
			badRequest(w, "invalid aim status")
			return
		}
	}

	if err := s.aims.Update(r.Context(), domain.AimID(r.PathValue("id")), update); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "updated"})
}

func (s *Server) handleAddReflection(w http.ResponseWriter, r *http.Request) {
	var req addReflectionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid JSON body")
		return
	}

	date := req.Date
	if date == "" {
		date = s.sessions.TodayDate()
	}

	refl, err := s.aims.Reflect(r.Context(), domain.AimID(r.PathValue("id")),
		date, req.Reflection, req.PracticeHappened)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toReflectionResponse(refl))
}

func (s *Server) handleListReflections(w http.ResponseWriter, r *http.Request) {
	list, err := s.aims.Reflections(r.Context(), domain.AimID(r.PathValue("id")), 0)
	if err != nil {
		writeError(w, err)
		return
	}
	out := make([]reflectionResponse, 0, len(list))
	for _, refl := range list {
		out = append(out, toReflectionResponse(refl))
	}
	writeJSON(w, http.StatusOK, out)
}

// ─────────────────────────────────────────────
// Response helpers
// ─────────────────────────────────────────────

func toSessionResponse(s *domain.Session) sessionResponse {
	return sessionResponse{
		ID:            string(s.ID),
		Date:          s.Date,
		Status:        string(s.Status),
		Dashboard:     s.Dashboard,
		EveningReview: s.EveningReview,
		Summary:       s.Summary,
		CreatedAt:     s.CreatedAt,
		CompletedAt:   s.CompletedAt,
		MorningDone:   s.MorningDone(),
	}
}

func toMessagesResponse(msgs []*domain.Message) []messageResponse {
	out := make([]messageResponse, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, messageResponse{
			ID:        string(m.ID),
			Role:      string(m.Role),
			Content:   m.Content,
			CreatedAt: m.CreatedAt,
		})
	}
	return out
}

func toTrackedItemResponse(item *domain.TrackedItem) trackedItemResponse {
	return trackedItemResponse{
		ID:          string(item.ID),
		Description: item.Description,
		FirstSeen:   item.FirstSeen,
		LastSeen:    item.LastSeen,
	}
}

func toScoreEntryResponse(e *domain.ScoreEntry) scoreEntryResponse {
	return scoreEntryResponse{
		ID:        e.ID,
		Date:      e.Date,
		Phase:     string(e.Phase),
		Scores:    e.Scores,
		CreatedAt: e.CreatedAt,
	}
}

func (s *Server) toAimResponse(aim *domain.Aim) aimResponse {
	return aimResponse{
		ID:                   string(aim.ID),
		HeartWish:            aim.HeartWish,
		Statement:            aim.Statement,
		StartDate:            aim.StartDate,
		EndDate:              aim.EndDate,
		AccountabilityPerson: aim.AccountabilityPerson,
		Status:               string(aim.Status),
		DaysHeld:             aim.DaysHeld(s.sessions.TodayDate()),
		CreatedAt:            aim.CreatedAt,
	}
}

func toReflectionResponse(r *domain.AimReflection) reflectionResponse {
	return reflectionResponse{
		Date:             r.Date,
		Reflection:       r.Reflection,
		PracticeHappened: r.PracticeHappened,
		CreatedAt:        r.CreatedAt,
	}
}

func decodeEphemeral(w http.ResponseWriter, r *http.Request) (*ephemeralChatRequest, bool) {
	var req ephemeralChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid JSON body")
		return nil, false
	}
	if strings.TrimSpace(req.Message) == "" {
		badRequest(w, "message is required")
		return nil, false
	}
	return &req, true
}

func toChatHistory(turns []historyTurn) []domain.ChatMessage {
	out := make([]domain.ChatMessage, 0, len(turns))
	for _, t := range turns {
		role := domain.RoleUser
		if t.Role == string(domain.RoleAssistant) {
			role = domain.RoleAssistant
		}
		out = append(out, domain.ChatMessage{Role: role, Content: t.Content})
	}
	return out
}

// ─────────────────────────────────────────────
// HTTP helpers
// ─────────────────────────────────────────────

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func badRequest(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusBadRequest, map[string]string{"error": msg})
}

// writeError maps domain sentinels to status codes; anything else is a 500
// with the detail kept server-side.
func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrSessionNotFound),
		errors.Is(err, domain.ErrSessionNotComplete),
		errors.Is(err, domain.ErrAimNotFound),
		errors.Is(err, domain.ErrItemNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
	case errors.Is(err, domain.ErrSessionHasMessages),
		errors.Is(err, domain.ErrSessionNotReviewing):
		writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
	default:
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
	}
}
