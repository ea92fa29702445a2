package domain

// Note is one Apple Notes row from the device snapshot.
type Note struct {
	Title string `json:"title"`
	Body  string `json:"body,omitempty"`
}

// Reminder is one outstanding Apple Reminders row from the device snapshot.
type Reminder struct {
	Name    string `json:"name"`
	DueDate string `json:"due_date,omitempty"`
	List    string `json:"list,omitempty"`
}

// Snapshot is the latest externally-pushed bundle of notes/reminders state.
// Most-recent-wins: readers only ever see the newest row. ReceivedAt drives
// the staleness warning in the context document.
type Snapshot struct {
	Notes      []Note
	ActiveNote string // may be empty
	Reminders  []Reminder
	ReceivedAt Timestamp
}

// TrackedItem is a deduplicated open commitment carried across sessions.
// While unresolved, an identical description only refreshes LastSeen; after
// resolution the same description starts a fresh item.
type TrackedItem struct {
	ID          TrackedItemID
	Description string
	FirstSeen   string // YYYY-MM-DD
	LastSeen    string
	Resolved    bool
	SessionID   SessionID // originating session, may be empty
}

// LifeWheelCategories is the fixed scoring category set, in display order.
var LifeWheelCategories = []string{
	"Health and Well-being",
	"Career or Work",
	"Finances",
	"Relationships",
	"Personal Growth",
	"Fun and Recreation",
	"Physical Environment",
	"Spirituality or Faith",
	"Contribution and Service",
	"Love and Intimacy",
}

// ScoreShortNames maps full category names to the short names used in the
// plain-text export line format.
var ScoreShortNames = map[string]string{
	"Health and Well-being":    "Health",
	"Career or Work":           "Work",
	"Finances":                 "Finances",
	"Relationships":            "Relationships",
	"Personal Growth":          "Personal Growth",
	"Fun and Recreation":       "Fun",
	"Physical Environment":     "Environment",
	"Spirituality or Faith":    "Spirituality",
	"Contribution and Service": "Contribution",
	"Love and Intimacy":        "Love",
}

// ScoreEntry is one 1–10 self-rating across the life wheel categories.
// Append-only: resubmitting the same (date, phase) creates a second entry,
// and pattern analysis averages over all of them.
type ScoreEntry struct {
	ID        int64
	SessionID SessionID // may be empty
	Date      string
	Phase     ScorePhase
	Scores    map[string]int
	CreatedAt Timestamp
}

// Orientation is the single current free-text orientation document,
// replaced wholesale on edit.
type Orientation struct {
	Content   string
	UpdatedAt Timestamp
}
