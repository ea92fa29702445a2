package sources

import (
	"context"
	"fmt"
	"sort"
	"time"

	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"

	"github.com/livingsystems/orient/internal/domain"
	"github.com/livingsystems/orient/internal/observability"
)

const maxEventsPerAccount = 50

// Calendar fetches the day's events across every connected Google account.
// Per-account failures degrade to an empty contribution, logged not thrown.
type Calendar struct {
	auth   *GoogleAuth
	tokens domain.TokenStore
	loc    *time.Location
}

func NewCalendar(auth *GoogleAuth, tokens domain.TokenStore, loc *time.Location) *Calendar {
	return &Calendar{auth: auth, tokens: tokens, loc: loc}
}

func (c *Calendar) FetchEvents(ctx context.Context, date string) []domain.CalendarEvent {
	log := observability.LoggerFromContext(ctx)

	rows, err := c.tokens.GoogleTokens(ctx)
	if err != nil {
		log.Warn("calendar: listing google tokens failed", "error", err)
		return nil
	}
	if len(rows) == 0 {
		return nil
	}

	var events []domain.CalendarEvent
	for _, row := range rows {
		evts, err := c.fetchAccount(ctx, row, date)
		if err != nil {
			log.Warn("calendar fetch failed", "account", row.AccountEmail, "error", err)
			continue
		}
		events = append(events, evts...)
	}

	// All-day events first, then by start time.
	sort.SliceStable(events, func(i, j int) bool {
		if events[i].AllDay != events[j].AllDay {
			return events[i].AllDay
		}
		return events[i].Start.Before(events[j].Start)
	})

	// The same event often appears on multiple accounts' calendars.
	seen := make(map[string]bool, len(events))
	out := events[:0]
	for _, e := range events {
		key := e.Title + "::" + e.Start.Format(time.RFC3339)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, e)
	}
	return out
}

func (c *Calendar) fetchAccount(ctx context.Context, row *domain.GoogleToken, date string) ([]domain.CalendarEvent, error) {
	svc, err := calendar.NewService(ctx, option.WithHTTPClient(c.auth.Client(ctx, row)))
	if err != nil {
		return nil, fmt.Errorf("calendar service: %w", err)
	}

	dayStart, err := time.ParseInLocation(domain.DateFormat, date, c.loc)
	if err != nil {
		return nil, fmt.Errorf("parse date %q: %w", date, err)
	}
	dayEnd := dayStart.AddDate(0, 0, 1)

	res, err := svc.Events.List("primary").
		TimeMin(dayStart.Format(time.RFC3339)).
		TimeMax(dayEnd.Format(time.RFC3339)).
		SingleEvents(true).
		OrderBy("startTime").
		MaxResults(maxEventsPerAccount).
		Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}

	label := accountLabel(row)
	out := make([]domain.CalendarEvent, 0, len(res.Items))
	for _, item := range res.Items {
		evt := domain.CalendarEvent{
			Title:    item.Summary,
			Location: item.Location,
			Account:  row.AccountEmail,
			Label:    label,
		}
		if evt.Title == "" {
			evt.Title = "(untitled)"
		}

		switch {
		case item.Start == nil:
			continue
		case item.Start.DateTime != "":
			start, err := time.Parse(time.RFC3339, item.Start.DateTime)
			if err != nil {
				continue
			}
			evt.Start = start
			evt.StartFormatted = formatClock(start.In(c.loc))
		default:
			// Date-only start means an all-day event.
			start, err := time.ParseInLocation(domain.DateFormat, item.Start.Date, c.loc)
			if err != nil {
				continue
			}
			evt.Start = start
			evt.AllDay = true
		}
		out = append(out, evt)
	}
	return out, nil
}

// formatClock renders "3:04 pm" in the home timezone.
func formatClock(t time.Time) string {
	h := t.Hour() % 12
	if h == 0 {
		h = 12
	}
	ampm := "am"
	if t.Hour() >= 12 {
		ampm = "pm"
	}
	return fmt.Sprintf("%d:%02d %s", h, t.Minute(), ampm)
}
