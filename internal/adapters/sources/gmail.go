package sources

import (
	"context"
	"fmt"
	"net/mail"
	"sort"
	"strings"
	"time"

	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"

	"github.com/livingsystems/orient/internal/domain"
	"github.com/livingsystems/orient/internal/observability"
)

const (
	unreadWindow      = 72 * time.Hour
	maxMailPerAccount = 15
	starredWindowDays = 21

	// A starred thread that has been read and sat untouched this long is
	// flagged as possibly resolved.
	starredQuietAfter = 7 * 24 * time.Hour
)

// Mail fetches unread and starred inbox rows across every connected Google
// account. Either call degrades to empty on auth or API failure.
type Mail struct {
	auth   *GoogleAuth
	tokens domain.TokenStore
	now    func() time.Time
}

func NewMail(auth *GoogleAuth, tokens domain.TokenStore) *Mail {
	return &Mail{auth: auth, tokens: tokens, now: time.Now}
}

func (m *Mail) FetchUnread(ctx context.Context) []domain.Email {
	since := m.now().Add(-unreadWindow).Unix()
	query := fmt.Sprintf("is:unread in:inbox after:%d", since)
	return m.fetchAll(ctx, query, nil)
}

func (m *Mail) FetchStarred(ctx context.Context) []domain.Email {
	query := fmt.Sprintf("is:starred newer_than:%dd", starredWindowDays)
	cutoff := m.now().Add(-starredQuietAfter)
	return m.fetchAll(ctx, query, func(e *domain.Email, labels []string) {
		read := true
		for _, l := range labels {
			if l == "UNREAD" {
				read = false
				break
			}
		}
		e.LooksResolved = read && e.Date.Before(cutoff)
	})
}

func (m *Mail) fetchAll(ctx context.Context, query string, annotate func(*domain.Email, []string)) []domain.Email {
	log := observability.LoggerFromContext(ctx)

	rows, err := m.tokens.GoogleTokens(ctx)
	if err != nil {
		log.Warn("gmail: listing google tokens failed", "error", err)
		return nil
	}
	if len(rows) == 0 {
		return nil
	}

	var emails []domain.Email
	for _, row := range rows {
		batch, err := m.fetchAccount(ctx, row, query, annotate)
		if err != nil {
			log.Warn("gmail fetch failed", "account", row.AccountEmail, "error", err)
			continue
		}
		emails = append(emails, batch...)
	}

	sort.SliceStable(emails, func(i, j int) bool {
		return emails[i].Date.After(emails[j].Date)
	})
	return emails
}

func (m *Mail) fetchAccount(ctx context.Context, row *domain.GoogleToken, query string, annotate func(*domain.Email, []string)) ([]domain.Email, error) {
	svc, err := gmail.NewService(ctx, option.WithHTTPClient(m.auth.Client(ctx, row)))
	if err != nil {
		return nil, fmt.Errorf("gmail service: %w", err)
	}

	listRes, err := svc.Users.Messages.List("me").
		Q(query).
		MaxResults(maxMailPerAccount).
		Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}

	label := accountLabel(row)
	out := make([]domain.Email, 0, len(listRes.Messages))
	for _, ref := range listRes.Messages {
		detail, err := svc.Users.Messages.Get("me", ref.Id).
			Format("metadata").
			MetadataHeaders("Subject", "From", "Date").
			Context(ctx).Do()
		if err != nil {
			// One unreadable message does not sink the account.
			continue
		}

		e := domain.Email{
			ID:      ref.Id,
			Snippet: detail.Snippet,
			Account: row.AccountEmail,
			Label:   label,
		}
		for _, h := range detail.Payload.Headers {
			switch strings.ToLower(h.Name) {
			case "subject":
				e.Subject = h.Value
			case "from":
				e.From = h.Value
			case "date":
				if t, err := mail.ParseDate(h.Value); err == nil {
					e.Date = t
				}
			}
		}
		if e.Subject == "" {
			e.Subject = "(no subject)"
		}
		if annotate != nil {
			annotate(&e, detail.LabelIds)
		}
		out = append(out, e)
	}
	return out, nil
}
