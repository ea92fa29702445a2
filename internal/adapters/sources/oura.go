package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/livingsystems/orient/internal/domain"
	"github.com/livingsystems/orient/internal/observability"
)

const (
	ouraAPIBase  = "https://api.ouraring.com/v2"
	ouraTokenURL = "https://api.ouraring.com/oauth/token"

	// Access tokens are refreshed a little before their recorded expiry.
	ouraRefreshSlack = 5 * time.Minute
)

// Oura fetches the day's biometric summary from the Oura v2 API. There is
// no Go SDK for Oura, so this speaks the REST API directly. Every failure
// path degrades to nil: not configured, not connected, refresh failed, or
// the API returned nothing for the date.
type Oura struct {
	clientID     string
	clientSecret string
	tokens       domain.TokenStore
	http         *http.Client
	now          func() time.Time
}

func NewOura(clientID, clientSecret string, tokens domain.TokenStore) *Oura {
	return &Oura{
		clientID:     clientID,
		clientSecret: clientSecret,
		tokens:       tokens,
		http:         &http.Client{Timeout: 15 * time.Second},
		now:          time.Now,
	}
}

func (o *Oura) configured() bool {
	return o.clientID != "" && o.clientSecret != ""
}

type ouraReadiness struct {
	Score                *int     `json:"score"`
	TemperatureDeviation *float64 `json:"temperature_deviation"`
}

type ouraDailySleep struct {
	Score *int `json:"score"`
}

type ouraSleepSession struct {
	Type               string   `json:"type"`
	AverageHRV         *float64 `json:"average_hrv"`
	LowestHeartRate    *int     `json:"lowest_heart_rate"`
	TotalSleepDuration *int     `json:"total_sleep_duration"`
	DeepSleepDuration  *int     `json:"deep_sleep_duration"`
}

func (o *Oura) FetchDaily(ctx context.Context, date string) *domain.BiometricSummary {
	if !o.configured() {
		return nil
	}
	log := observability.LoggerFromContext(ctx)

	accessToken, err := o.validAccessToken(ctx)
	if err != nil {
		log.Warn("oura auth failed", "error", err)
		return nil
	}
	if accessToken == "" {
		return nil
	}

	var readiness []ouraReadiness
	var dailySleep []ouraDailySleep
	var sessions []ouraSleepSession

	if err := o.getCollection(ctx, accessToken, "daily_readiness", date, &readiness); err != nil {
		log.Warn("oura readiness fetch failed", "error", err)
	}
	if err := o.getCollection(ctx, accessToken, "daily_sleep", date, &dailySleep); err != nil {
		log.Warn("oura daily sleep fetch failed", "error", err)
	}
	if err := o.getCollection(ctx, accessToken, "sleep", date, &sessions); err != nil {
		log.Warn("oura sleep sessions fetch failed", "error", err)
	}

	// Detailed metrics come from the longest non-rest sleep session.
	var main *ouraSleepSession
	nonRest := sessions[:0]
	for i := range sessions {
		if sessions[i].Type != "rest" {
			nonRest = append(nonRest, sessions[i])
		}
	}
	sort.SliceStable(nonRest, func(i, j int) bool {
		return intOrZero(nonRest[i].TotalSleepDuration) > intOrZero(nonRest[j].TotalSleepDuration)
	})
	if len(nonRest) > 0 {
		main = &nonRest[0]
	}

	if len(readiness) == 0 && len(dailySleep) == 0 && main == nil {
		return nil
	}

	out := &domain.BiometricSummary{}
	if len(readiness) > 0 {
		out.ReadinessScore = readiness[0].Score
		out.TemperatureDeviation = readiness[0].TemperatureDeviation
	}
	if len(dailySleep) > 0 {
		out.SleepScore = dailySleep[0].Score
	}
	if main != nil {
		out.AvgHRV = main.AverageHRV
		out.LowestHeartRate = main.LowestHeartRate
		out.TotalSleepSeconds = main.TotalSleepDuration
		out.DeepSleepSeconds = main.DeepSleepDuration
	}
	return out
}

func (o *Oura) getCollection(ctx context.Context, accessToken, collection, date string, out any) error {
	u := fmt.Sprintf("%s/usercollection/%s?start_date=%s&end_date=%s", ouraAPIBase, collection, date, date)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	res, err := o.http.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return fmt.Errorf("oura %s: status %d", collection, res.StatusCode)
	}

	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.NewDecoder(res.Body).Decode(&envelope); err != nil {
		return fmt.Errorf("decode %s: %w", collection, err)
	}
	return json.Unmarshal(envelope.Data, out)
}

// validAccessToken returns the stored access token, refreshing it first when
// it is at or near expiry. Empty string means not connected.
func (o *Oura) validAccessToken(ctx context.Context) (string, error) {
	row, err := o.tokens.OuraToken(ctx)
	if err != nil {
		return "", err
	}
	if row == nil {
		return "", nil
	}

	if row.Expiry.IsZero() || o.now().Before(row.Expiry.Add(-ouraRefreshSlack)) {
		return row.AccessToken, nil
	}

	refreshed, err := o.refresh(ctx, row.RefreshToken)
	if err != nil {
		return "", fmt.Errorf("refresh: %w", err)
	}
	if refreshed.RefreshToken == "" {
		refreshed.RefreshToken = row.RefreshToken
	}
	if err := o.tokens.SaveOuraToken(ctx, refreshed); err != nil {
		observability.LoggerFromContext(ctx).Warn("persist refreshed oura token failed", "error", err)
	}
	return refreshed.AccessToken, nil
}

func (o *Oura) refresh(ctx context.Context, refreshToken string) (*domain.OuraToken, error) {
	form := url.Values{
		"grant_type":    {"refresh_token"},
		"refresh_token": {refreshToken},
		"client_id":     {o.clientID},
		"client_secret": {o.clientSecret},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, ouraTokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	res, err := o.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(res.Body, 512))
		return nil, fmt.Errorf("status %d: %s", res.StatusCode, body)
	}

	var payload struct {
		AccessToken  string `json:"access_token"`
		RefreshToken string `json:"refresh_token"`
		ExpiresIn    int    `json:"expires_in"`
	}
	if err := json.NewDecoder(res.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode token response: %w", err)
	}

	expiresIn := payload.ExpiresIn
	if expiresIn == 0 {
		expiresIn = 86400
	}
	return &domain.OuraToken{
		AccessToken:  payload.AccessToken,
		RefreshToken: payload.RefreshToken,
		Expiry:       o.now().Add(time.Duration(expiresIn) * time.Second),
	}, nil
}

func intOrZero(p *int) int {
	if p == nil {
		return 0
	}
	return *p
}
