package synthesis

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/livingsystems/orient/internal/domain"
)

// snapshotStaleAfter is how old the device snapshot may be before the
// context carries a warning that the Mac agent may not be running.
const snapshotStaleAfter = 2 * time.Hour

// List caps. Long lists are cut with an explicit "+N more" suffix so the
// prompt size stays bounded without silently dropping anything.
const (
	maxUnread       = 12
	maxStarred      = 15
	maxReminders    = 20
	maxNotes        = 12
	maxActiveNote   = 1500
	maxScoreEntries = 5
	maxEmailSnippet = 100
	maxStarSnippet  = 80
	maxNoteBody     = 120
)

// Render produces the context document. The section order is fixed no
// matter which inputs are present, and absent sections state their absence
// rather than disappearing. Output is deterministic for identical inputs.
func Render(in *Inputs) string {
	var lines []string
	push := func(s ...string) { lines = append(lines, s...) }

	push("## Session Context")
	push(fmt.Sprintf("**Date:** %s (home time)", in.Date))
	push(fmt.Sprintf("**Current time:** %s", in.Now.Format("3:04 PM, Monday 2 January 2006")))
	push("")

	renderBiometrics(push, in.Biometrics)
	renderMorningPulse(push, in)
	renderOrientation(push, in.Orientation)
	renderPreviousSummary(push, in.PreviousSummary)
	renderAim(push, in)
	renderScorePatterns(push, in.Scores)
	renderCalendar(push, in.Events)
	renderUnread(push, in.Unread)
	renderStarred(push, in.Starred)
	renderSnapshot(push, in)
	renderTrackedItems(push, in)

	return strings.Join(lines, "\n")
}

type pushFn func(...string)

func renderBiometrics(push pushFn, b *domain.BiometricSummary) {
	push("### Biometrics (Oura)")
	if b == nil {
		push("No biometric data (Oura not connected).")
		push("")
		return
	}
	if b.ReadinessScore != nil {
		push(fmt.Sprintf("- Readiness: %d", *b.ReadinessScore))
	}
	if b.SleepScore != nil {
		push(fmt.Sprintf("- Sleep score: %d", *b.SleepScore))
	}
	if b.TotalSleepSeconds != nil {
		line := fmt.Sprintf("- Sleep: %s", formatSleep(*b.TotalSleepSeconds))
		if b.DeepSleepSeconds != nil {
			line += fmt.Sprintf(" (%s deep)", formatSleep(*b.DeepSleepSeconds))
		}
		push(line)
	}
	if b.AvgHRV != nil {
		push(fmt.Sprintf("- Avg HRV: %.0f ms", *b.AvgHRV))
	}
	if b.LowestHeartRate != nil {
		push(fmt.Sprintf("- Lowest HR: %d bpm", *b.LowestHeartRate))
	}
	if b.TemperatureDeviation != nil {
		push(fmt.Sprintf("- Temp deviation: %+.2f°C", *b.TemperatureDeviation))
	}
	push("")
}

func renderMorningPulse(push pushFn, in *Inputs) {
	push("### This Morning's Pulse")
	var pulse *domain.ScoreEntry
	for _, e := range in.Scores {
		if e.Date == in.Date && e.Phase == domain.PhaseMorning {
			pulse = e
			break
		}
	}
	if pulse == nil {
		push("No morning pulse recorded today.")
		push("")
		return
	}
	var parts []string
	for _, cat := range domain.LifeWheelCategories {
		if v, ok := pulse.Scores[cat]; ok {
			parts = append(parts, fmt.Sprintf("%s %d", domain.ScoreShortNames[cat], v))
		}
	}
	push(strings.Join(parts, ", "))
	push("")
}

func renderOrientation(push pushFn, orientation string) {
	push("### Living Orientation")
	if orientation == "" {
		push("No orientation document set.")
	} else {
		push(orientation)
	}
	push("")
}

func renderPreviousSummary(push pushFn, summary string) {
	push("### From Yesterday")
	if summary == "" {
		push("No previous session summary.")
	} else {
		push(summary)
	}
	push("")
}

func renderAim(push pushFn, in *Inputs) {
	aim := in.Aim
	if aim == nil {
		push("### Aim Status")
		push("_No active aim. Consider initiating aim formation during the evening review._")
		push("")
		return
	}

	push("### Current Aim")
	push(fmt.Sprintf("**%q**", aim.Statement))
	if aim.HeartWish != "" {
		push(fmt.Sprintf("_Heart wish: %q_", aim.HeartWish))
	}
	meta := fmt.Sprintf("Started: %s", aim.StartDate)
	if aim.EndDate != "" {
		meta += " · Ends: " + aim.EndDate
	}
	if aim.AccountabilityPerson != "" {
		meta += " · Accountable to: " + aim.AccountabilityPerson
	}
	push(meta)
	push(fmt.Sprintf("Days held: %d", aim.DaysHeld(in.Date)))
	if in.NeedsAimFormation() {
		push("_This aim has run its course. Consider initiating aim formation during the evening review._")
	}
	push("")
}

func renderScorePatterns(push pushFn, scores []*domain.ScoreEntry) {
	push("### Recent Life Wheel Scores (last 14 days)")
	if len(scores) == 0 {
		push("No life wheel scores recorded.")
		push("")
		return
	}

	recent := scores
	if len(recent) > maxScoreEntries {
		recent = recent[:maxScoreEntries]
	}
	for _, entry := range recent {
		var parts []string
		for _, cat := range domain.LifeWheelCategories {
			if v, ok := entry.Scores[cat]; ok {
				parts = append(parts, fmt.Sprintf("%s: %d", cat, v))
			}
		}
		push(fmt.Sprintf("- **%s** (%s): %s", entry.Date, entry.Phase, strings.Join(parts, ", ")))
	}

	low := LowAverages(scores)
	if len(low) == 0 {
		push("_No categories averaging below 5._")
	} else {
		var parts []string
		for _, la := range low {
			parts = append(parts, fmt.Sprintf("%s (avg %.1f)", la.Category, la.Avg))
		}
		push(fmt.Sprintf("_Pattern alert — categories averaging below 5: %s_", strings.Join(parts, ", ")))
	}
	push("")
}

func renderCalendar(push pushFn, events []domain.CalendarEvent) {
	push("### Today's Calendar")
	if len(events) == 0 {
		push("No events found (or calendar not connected).")
		push("")
		return
	}
	for _, e := range events {
		t := e.StartFormatted
		if e.AllDay {
			t = "(all day)"
		}
		line := fmt.Sprintf("- %s: **%s**", t, e.Title)
		if e.Location != "" {
			line += " @ " + e.Location
		}
		push(line)
	}
	push("")
}

func renderUnread(push pushFn, emails []domain.Email) {
	push("### Unread Emails (last 72h)")
	if len(emails) == 0 {
		push("No unread emails (or Gmail not connected).")
		push("")
		return
	}
	shown := emails
	if len(shown) > maxUnread {
		shown = shown[:maxUnread]
	}
	for _, e := range shown {
		push(fmt.Sprintf("- **%s**: %q — %s", e.From, e.Subject, truncate(e.Snippet, maxEmailSnippet)))
	}
	if n := len(emails) - maxUnread; n > 0 {
		push(fmt.Sprintf("  _(+ %d more)_", n))
	}
	push("")
}

func renderStarred(push pushFn, emails []domain.Email) {
	push("### Starred Emails (last 3 weeks)")
	if len(emails) == 0 {
		push("No starred emails.")
		push("")
		return
	}
	shown := emails
	if len(shown) > maxStarred {
		shown = shown[:maxStarred]
	}
	for _, e := range shown {
		line := fmt.Sprintf("- **%s**: %q — %s", e.From, e.Subject, truncate(e.Snippet, maxStarSnippet))
		if e.LooksResolved {
			line += " ⚑ _may be resolved — worth checking whether to unstar_"
		}
		push(line)
	}
	if n := len(emails) - maxStarred; n > 0 {
		push(fmt.Sprintf("  _(+ %d more starred)_", n))
	}
	push("")
}

func renderSnapshot(push pushFn, in *Inputs) {
	snap := in.Snapshot
	if snap == nil {
		push("### Notes & Reminders")
		push("No snapshot available from Mac agent.")
		push("")
		return
	}

	if age := in.Now.Sub(snap.ReceivedAt); age > snapshotStaleAfter {
		push(fmt.Sprintf("> ⚠️ Notes/Reminders snapshot is %d hours old — Mac agent may not be running.",
			int(age.Hours()+0.5)))
		push("")
	}

	push("### Active Note")
	if snap.ActiveNote == "" {
		push("No active note.")
	} else {
		push(truncate(snap.ActiveNote, maxActiveNote))
	}
	push("")

	push("### Incomplete Reminders")
	if len(snap.Reminders) == 0 {
		push("No incomplete reminders.")
	} else {
		push("_These are outstanding commitments from Apple Reminders:_")
		shown := snap.Reminders
		if len(shown) > maxReminders {
			shown = shown[:maxReminders]
		}
		for _, r := range shown {
			line := "- " + r.Name
			if r.DueDate != "" {
				line += fmt.Sprintf(" (due %s)", r.DueDate)
			}
			if r.List != "" {
				line += fmt.Sprintf(" [%s]", r.List)
			}
			push(line)
		}
		if n := len(snap.Reminders) - maxReminders; n > 0 {
			push(fmt.Sprintf("  _(+ %d more)_", n))
		}
	}
	push("")

	push("### Notes (recent)")
	if len(snap.Notes) == 0 {
		push("No recent notes.")
	} else {
		shown := snap.Notes
		if len(shown) > maxNotes {
			shown = shown[:maxNotes]
		}
		for _, n := range shown {
			line := fmt.Sprintf("- **%s**", n.Title)
			if n.Body != "" {
				line += " — " + truncate(n.Body, maxNoteBody)
			}
			push(line)
		}
		if n := len(snap.Notes) - maxNotes; n > 0 {
			push(fmt.Sprintf("  _(+ %d more)_", n))
		}
	}
	push("")
}

func renderTrackedItems(push pushFn, in *Inputs) {
	push("### Open Tracked Items")
	if len(in.TrackedItems) == 0 {
		push("No open tracked items.")
		push("")
		return
	}
	for _, item := range in.TrackedItems {
		days := daysBetween(item.FirstSeen, in.Date)
		plural := "s"
		if days == 1 {
			plural = ""
		}
		push(fmt.Sprintf("- %s _(open for %d day%s)_", item.Description, days, plural))
	}
	push("")
}

// truncate cuts on a rune boundary so multi-byte text never ends up as a
// broken sequence in the context block.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}

func formatSleep(seconds int) string {
	h := seconds / 3600
	m := (seconds % 3600) / 60
	return fmt.Sprintf("%dh %dm", h, m)
}

func daysBetween(from, to string) int {
	a, err := time.Parse(domain.DateFormat, from)
	if err != nil {
		return 0
	}
	b, err := time.Parse(domain.DateFormat, to)
	if err != nil {
		return 0
	}
	d := int(b.Sub(a).Hours() / 24)
	if d < 0 {
		return 0
	}
	return d
}
