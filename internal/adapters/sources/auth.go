package sources

import (
	"context"
	"net/http"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/livingsystems/orient/internal/domain"
	"github.com/livingsystems/orient/internal/observability"
)

// GoogleAuth turns stored token rows into authenticated HTTP clients,
// persisting refreshed access tokens back to the store.
type GoogleAuth struct {
	conf   *oauth2.Config
	tokens domain.TokenStore
}

func NewGoogleAuth(clientID, clientSecret string, tokens domain.TokenStore) *GoogleAuth {
	return &GoogleAuth{
		conf: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			Endpoint:     google.Endpoint,
		},
		tokens: tokens,
	}
}

// Client returns an HTTP client for the account. Token refresh happens
// inside the oauth2 transport; the persisting source writes the new access
// token back so the next process start does not re-refresh.
func (a *GoogleAuth) Client(ctx context.Context, row *domain.GoogleToken) *http.Client {
	tok := &oauth2.Token{
		AccessToken:  row.AccessToken,
		RefreshToken: row.RefreshToken,
		Expiry:       row.Expiry,
	}
	src := &persistingSource{
		ctx:    ctx,
		email:  row.AccountEmail,
		tokens: a.tokens,
		inner:  a.conf.TokenSource(ctx, tok),
		last:   tok,
	}
	return oauth2.NewClient(ctx, src)
}

type persistingSource struct {
	ctx    context.Context
	email  string
	tokens domain.TokenStore
	inner  oauth2.TokenSource
	last   *oauth2.Token
}

func (s *persistingSource) Token() (*oauth2.Token, error) {
	tok, err := s.inner.Token()
	if err != nil {
		return nil, err
	}
	if tok.AccessToken != s.last.AccessToken {
		if err := s.tokens.UpdateGoogleAccessToken(s.ctx, s.email, tok.AccessToken, tok.Expiry); err != nil {
			observability.LoggerFromContext(s.ctx).Warn("persist refreshed google token failed",
				"account", s.email, "error", err)
		}
		s.last = tok
	}
	return tok, nil
}

// accountLabel is the display name for an account row, falling back to the
// address itself.
func accountLabel(row *domain.GoogleToken) string {
	if row.AccountLabel != "" {
		return row.AccountLabel
	}
	return row.AccountEmail
}
