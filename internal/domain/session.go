package domain

// SessionStatus is the phase of the daily session. It only ever advances:
// checkin → dashboard → evening_review → complete.
type SessionStatus string

const (
	StatusCheckin       SessionStatus = "checkin"
	StatusDashboard     SessionStatus = "dashboard"
	StatusEveningReview SessionStatus = "evening_review"
	StatusComplete      SessionStatus = "complete"
)

// Session is the one-per-calendar-day record coordinating the day's
// conversational phases. Date is the unique key in the home timezone.
type Session struct {
	ID            SessionID
	Date          string // YYYY-MM-DD
	Status        SessionStatus
	Dashboard     string // empty until generated
	EveningReview string
	Summary       string // carried into the next day's context
	CreatedAt     Timestamp
	CompletedAt   *Timestamp
}

// MorningDone reports whether the session is past the morning check-in.
// This is the canonical three-way guard used by downstream callers.
func (s *Session) MorningDone() bool {
	switch s.Status {
	case StatusDashboard, StatusEveningReview, StatusComplete:
		return true
	}
	return false
}

// statusRank orders phases for the no-retreat rule.
func statusRank(s SessionStatus) int {
	switch s {
	case StatusCheckin:
		return 0
	case StatusDashboard:
		return 1
	case StatusEveningReview:
		return 2
	case StatusComplete:
		return 3
	}
	return -1
}

// Advances reports whether moving from to next is a forward transition.
// Sessions never retreat to an earlier phase.
func Advances(from, to SessionStatus) bool {
	return statusRank(to) > statusRank(from)
}

// Message is one turn in a session's transcript. Append-only, read back in
// creation order.
type Message struct {
	ID        MessageID
	SessionID SessionID
	Role      Role
	Content   string
	CreatedAt Timestamp
}
