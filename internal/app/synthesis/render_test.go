package synthesis

import (
	"fmt"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/livingsystems/orient/internal/domain"
)

var sectionOrder = []string{
	"## Session Context",
	"### Biometrics (Oura)",
	"### This Morning's Pulse",
	"### Living Orientation",
	"### From Yesterday",
	"### Today's Calendar",
	"### Unread Emails (last 72h)",
	"### Starred Emails (last 3 weeks)",
	"### Open Tracked Items",
}

func emptyInputs(date string) *Inputs {
	return &Inputs{
		Date: date,
		Now:  time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC),
	}
}

func assertOrdered(t *testing.T, doc string, headings []string) {
	t.Helper()
	pos := -1
	for _, h := range headings {
		i := strings.Index(doc, h)
		if i < 0 {
			t.Fatalf("missing section %q in:\n%s", h, doc)
		}
		if i < pos {
			t.Fatalf("section %q out of order", h)
		}
		pos = i
	}
}

func TestRenderEmptyInputsKeepsSectionOrder(t *testing.T) {
	doc := Render(emptyInputs("2024-03-01"))

	assertOrdered(t, doc, sectionOrder)

	for _, placeholder := range []string{
		"No biometric data (Oura not connected).",
		"No morning pulse recorded today.",
		"No orientation document set.",
		"No previous session summary.",
		"_No active aim. Consider initiating aim formation during the evening review._",
		"No life wheel scores recorded.",
		"No events found (or calendar not connected).",
		"No unread emails (or Gmail not connected).",
		"No starred emails.",
		"No snapshot available from Mac agent.",
		"No open tracked items.",
	} {
		if !strings.Contains(doc, placeholder) {
			t.Errorf("missing placeholder %q", placeholder)
		}
	}
}

func TestRenderFullInputsKeepsSectionOrder(t *testing.T) {
	readiness, sleepScore := 82, 75
	in := emptyInputs("2024-03-01")
	in.Biometrics = &domain.BiometricSummary{ReadinessScore: &readiness, SleepScore: &sleepScore}
	in.Orientation = "Stay close to what matters."
	in.PreviousSummary = "A steady day with good momentum."
	in.Aim = &domain.Aim{
		Statement: "Move every morning",
		StartDate: "2024-02-25",
		Status:    domain.AimActive,
	}
	in.Scores = []*domain.ScoreEntry{{
		Date:   "2024-03-01",
		Phase:  domain.PhaseMorning,
		Scores: map[string]int{"Health and Well-being": 7},
	}}
	in.Events = []domain.CalendarEvent{{Title: "Standup", StartFormatted: "9:30 am"}}
	in.Unread = []domain.Email{{From: "a@example.com", Subject: "hello"}}
	in.Starred = []domain.Email{{From: "b@example.com", Subject: "follow up", LooksResolved: true}}
	in.Snapshot = &domain.Snapshot{
		ActiveNote: "Plan the week",
		Reminders:  []domain.Reminder{{Name: "Book dentist"}},
		Notes:      []domain.Note{{Title: "Ideas"}},
		ReceivedAt: in.Now.Add(-10 * time.Minute),
	}
	in.TrackedItems = []*domain.TrackedItem{{Description: "Reply to accountant", FirstSeen: "2024-02-27"}}

	doc := Render(in)

	assertOrdered(t, doc, []string{
		"## Session Context",
		"### Biometrics (Oura)",
		"### This Morning's Pulse",
		"### Living Orientation",
		"### From Yesterday",
		"### Current Aim",
		"### Recent Life Wheel Scores (last 14 days)",
		"### Today's Calendar",
		"### Unread Emails (last 72h)",
		"### Starred Emails (last 3 weeks)",
		"### Active Note",
		"### Incomplete Reminders",
		"### Notes (recent)",
		"### Open Tracked Items",
	})

	if !strings.Contains(doc, "may be resolved — worth checking whether to unstar") {
		t.Error("starred email missing the resolved flag")
	}
	if !strings.Contains(doc, "Reply to accountant _(open for 3 days)_") {
		t.Errorf("tracked item age wrong:\n%s", doc)
	}
}

func TestRenderDeterministic(t *testing.T) {
	in := emptyInputs("2024-03-01")
	in.Orientation = "Something"
	if Render(in) != Render(in) {
		t.Fatal("identical inputs rendered differently")
	}
}

func TestRenderSnapshotStaleness(t *testing.T) {
	in := emptyInputs("2024-03-01")
	in.Snapshot = &domain.Snapshot{ReceivedAt: in.Now.Add(-3 * time.Hour)}

	doc := Render(in)
	if !strings.Contains(doc, "snapshot is 3 hours old") {
		t.Errorf("expected staleness warning:\n%s", doc)
	}

	in.Snapshot.ReceivedAt = in.Now.Add(-30 * time.Minute)
	if strings.Contains(Render(in), "hours old") {
		t.Error("fresh snapshot should not warn")
	}
}

func TestRenderAimFormationNoticeOnExpiredAim(t *testing.T) {
	in := emptyInputs("2024-03-10")
	in.Aim = &domain.Aim{
		Statement: "Short sprint",
		StartDate: "2024-03-01",
		EndDate:   "2024-03-05",
		Status:    domain.AimActive,
	}

	doc := Render(in)
	if !strings.Contains(doc, "### Current Aim") {
		t.Fatal("aim section missing")
	}
	if !strings.Contains(doc, "This aim has run its course") {
		t.Error("expired aim should carry the formation notice")
	}
}

func TestRenderUnreadCapWithOverflowSuffix(t *testing.T) {
	in := emptyInputs("2024-03-01")
	for i := 0; i < 20; i++ {
		in.Unread = append(in.Unread, domain.Email{
			From:    fmt.Sprintf("sender%d@example.com", i),
			Subject: fmt.Sprintf("mail %d", i),
		})
	}

	doc := Render(in)
	if !strings.Contains(doc, "_(+ 8 more)_") {
		t.Errorf("expected overflow suffix for 20 unread:\n%s", doc)
	}
	if strings.Contains(doc, "sender12@example.com") {
		t.Error("emails past the cap should not render")
	}
}

func TestRenderTruncatesActiveNote(t *testing.T) {
	in := emptyInputs("2024-03-01")
	in.Snapshot = &domain.Snapshot{
		ActiveNote: strings.Repeat("a", 2000),
		ReceivedAt: in.Now,
	}

	doc := Render(in)
	if strings.Contains(doc, strings.Repeat("a", 1501)) {
		t.Error("active note not truncated to cap")
	}
	if !strings.Contains(doc, strings.Repeat("a", 1500)) {
		t.Error("active note truncated below cap")
	}
}

func TestTruncateRespectsRuneBoundaries(t *testing.T) {
	if got := truncate("abcdef", 3); got != "abc" {
		t.Errorf("ascii cut = %q", got)
	}

	// Each rune is three bytes; a cut at 1501 must back up to 1500, not
	// split the sequence.
	multi := strings.Repeat("日", 600)
	for _, n := range []int{1500, 1501, 1502} {
		got := truncate(multi, n)
		if !utf8.ValidString(got) {
			t.Fatalf("cut at %d produced invalid UTF-8", n)
		}
		if len(got) != 1500 {
			t.Errorf("cut at %d kept %d bytes, want 1500", n, len(got))
		}
	}
}

func TestRenderMultiByteSnippetStaysValidUTF8(t *testing.T) {
	in := emptyInputs("2024-03-01")
	in.Unread = []domain.Email{{
		From:    "a@example.com",
		Subject: "予定",
		Snippet: strings.Repeat("予定の確認です。", 30),
	}}
	in.Snapshot = &domain.Snapshot{
		ActiveNote: strings.Repeat("今日やること。", 300),
		ReceivedAt: in.Now,
	}

	if doc := Render(in); !utf8.ValidString(doc) {
		t.Error("rendered context contains invalid UTF-8")
	}
}
