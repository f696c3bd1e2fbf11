// ABOUTME: Fitbit Web API client - OAuth2 flow plus day-by-day data fetch.
// ABOUTME: Normalizes activity, heart, sleep, and body payloads to fitbit_* metrics.
package fitbit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"golang.org/x/oauth2"

	"github.com/harperreed/biodash/internal/models"
	"github.com/harperreed/biodash/internal/sync"
)

// DefaultBaseURL is the Fitbit Web API root for the authorized user.
const DefaultBaseURL = "https://api.fitbit.com/1/user/-"

// SourceGraphName owns all points imported from Fitbit.
const SourceGraphName = "Fitbit Data"

// OAuth2 endpoints for the authorization-code flow.
const (
	AuthURL  = "https://www.fitbit.com/oauth2/authorize"
	TokenURL = "https://api.fitbit.com/oauth2/token"
)

// Scopes required for the data this client reads.
var Scopes = []string{"activity", "heartrate", "sleep", "weight", "profile"}

// OAuthConfig builds the oauth2 config for the connect flow.
func OAuthConfig(clientID, clientSecret, redirectURL string) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  redirectURL,
		Scopes:       Scopes,
		Endpoint: oauth2.Endpoint{
			AuthURL:  AuthURL,
			TokenURL: TokenURL,
		},
	}
}

// Client talks to the Fitbit Web API.
type Client struct {
	baseURL    string
	oauth      *oauth2.Config
	httpClient *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL points the client at a different API root, for tests.
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = u }
}

// WithHTTPClient swaps the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// NewClient creates a Fitbit client. The oauth config may be nil when only
// fetching with an existing access token.
func NewClient(oauth *oauth2.Config, opts ...Option) *Client {
	c := &Client{
		baseURL:    DefaultBaseURL,
		oauth:      oauth,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Name implements sync.Provider.
func (c *Client) Name() string { return models.ProviderFitbit }

// SourceGraph implements sync.Provider.
func (c *Client) SourceGraph() string { return SourceGraphName }

// AuthCodeURL returns the browser URL that starts the connect flow.
func (c *Client) AuthCodeURL(state string) (string, error) {
	if c.oauth == nil {
		return "", fmt.Errorf("fitbit oauth not configured")
	}
	return c.oauth.AuthCodeURL(state, oauth2.AccessTypeOffline), nil
}

// Exchange trades an authorization code for credentials.
func (c *Client) Exchange(ctx context.Context, code string) (sync.Credentials, error) {
	if c.oauth == nil {
		return sync.Credentials{}, fmt.Errorf("fitbit oauth not configured")
	}
	token, err := c.oauth.Exchange(ctx, code)
	if err != nil {
		return sync.Credentials{}, fmt.Errorf("exchange authorization code: %w", err)
	}
	return credentialsFromToken(token), nil
}

// Refresh implements sync.Provider using the oauth2 refresh flow.
func (c *Client) Refresh(ctx context.Context, creds sync.Credentials) (sync.Credentials, error) {
	if c.oauth == nil {
		return sync.Credentials{}, fmt.Errorf("fitbit oauth not configured")
	}
	if creds.RefreshToken == "" {
		return sync.Credentials{}, fmt.Errorf("no refresh token: %w", sync.ErrUnauthorized)
	}

	// Force a refresh by presenting an already-expired access token
	stale := &oauth2.Token{
		AccessToken:  creds.AccessToken,
		RefreshToken: creds.RefreshToken,
		Expiry:       time.Now().Add(-time.Minute),
	}
	token, err := c.oauth.TokenSource(ctx, stale).Token()
	if err != nil {
		return sync.Credentials{}, fmt.Errorf("refresh access token: %w", err)
	}
	return credentialsFromToken(token), nil
}

func credentialsFromToken(token *oauth2.Token) sync.Credentials {
	creds := sync.Credentials{
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
	}
	if !token.Expiry.IsZero() {
		expiry := token.Expiry
		creds.ExpiresAt = &expiry
	}
	return creds
}

// Fetch implements sync.Provider: walks the window day by day and pulls
// activity, heart, sleep, and body data. A day that fails for any reason
// other than bad credentials is skipped so one gap never loses the rest.
func (c *Client) Fetch(ctx context.Context, creds sync.Credentials, start, end time.Time) ([]models.PointCandidate, error) {
	var candidates []models.PointCandidate

	day := models.DateOf(start)
	endDate := models.DateOf(end)
	for !day.After(endDate) {
		dayPoints, err := c.fetchDay(ctx, creds.AccessToken, day)
		if err != nil {
			// Bad credentials will not improve on the next day; abort
			if errors.Is(err, sync.ErrUnauthorized) {
				return nil, err
			}
			day = day.AddDate(0, 0, 1)
			continue
		}
		candidates = append(candidates, dayPoints...)
		day = day.AddDate(0, 0, 1)
	}
	return candidates, nil
}

func (c *Client) fetchDay(ctx context.Context, token string, day time.Time) ([]models.PointCandidate, error) {
	dateStr := day.Format(models.DateFormat)
	var points []models.PointCandidate

	var activity activityResponse
	if err := c.get(ctx, token, fmt.Sprintf("/activities/date/%s/%s.json", dateStr, dateStr), &activity); err != nil {
		return nil, err
	}
	points = append(points, activityPoints(day, activity)...)

	var heart heartResponse
	if err := c.get(ctx, token, fmt.Sprintf("/activities/heart/date/%s/%s.json", dateStr, dateStr), &heart); err != nil {
		return nil, err
	}
	points = append(points, heartPoints(day, heart)...)

	var sleep sleepResponse
	if err := c.get(ctx, token, fmt.Sprintf("/sleep/date/%s/%s.json", dateStr, dateStr), &sleep); err != nil {
		return nil, err
	}
	points = append(points, sleepPoints(day, sleep)...)

	var body bodyResponse
	if err := c.get(ctx, token, fmt.Sprintf("/body/log/weight/date/%s/%s.json", dateStr, dateStr), &body); err != nil {
		return nil, err
	}
	points = append(points, bodyPoints(day, body)...)

	return points, nil
}

func (c *Client) get(ctx context.Context, token, path string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("fitbit request %s: %w", path, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusUnauthorized:
		return fmt.Errorf("fitbit: %w", sync.ErrUnauthorized)
	default:
		return fmt.Errorf("fitbit request %s failed with status %d", path, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode fitbit response %s: %w", path, err)
	}
	return nil
}

// TestConnection implements sync.Provider via the profile endpoint.
func (c *Client) TestConnection(ctx context.Context, creds sync.Credentials) error {
	var profile struct {
		User struct {
			DisplayName string `json:"displayName"`
		} `json:"user"`
	}
	return c.get(ctx, creds.AccessToken, "/profile.json", &profile)
}

type activityResponse struct {
	Summary *struct {
		Steps         *float64 `json:"steps"`
		CaloriesOut   *float64 `json:"caloriesOut"`
		ActiveMinutes *float64 `json:"activeMinutes"`
		Floors        *float64 `json:"floors"`
		Elevation     *float64 `json:"elevation"`
		Distances     []struct {
			Distance float64 `json:"distance"`
		} `json:"distances"`
	} `json:"summary"`
}

type heartResponse struct {
	ActivitiesHeart []struct {
		Value struct {
			RestingHeartRate *float64 `json:"restingHeartRate"`
			HeartRateZones   []struct {
				Name    string  `json:"name"`
				Minutes float64 `json:"minutes"`
			} `json:"heartRateZones"`
		} `json:"value"`
	} `json:"activities-heart"`
}

type sleepResponse struct {
	Sleep []struct {
		MinutesAsleep       *float64 `json:"minutesAsleep"`
		MinutesAwake        *float64 `json:"minutesAwake"`
		Efficiency          *float64 `json:"efficiency"`
		TimeInBed           *float64 `json:"timeInBed"`
		MinutesToFallAsleep *float64 `json:"minutesToFallAsleep"`
		Levels              struct {
			Summary map[string]float64 `json:"summary"`
		} `json:"levels"`
	} `json:"sleep"`
}

type bodyResponse struct {
	Weight []struct {
		Weight *float64 `json:"weight"`
		BMI    *float64 `json:"bmi"`
	} `json:"weight"`
}

func activityPoints(day time.Time, resp activityResponse) []models.PointCandidate {
	if resp.Summary == nil {
		return nil
	}
	s := resp.Summary

	var points []models.PointCandidate
	add := func(name string, value *float64) {
		if value != nil {
			points = append(points, models.PointCandidate{Date: day, MetricName: name, Value: *value})
		}
	}
	add("fitbit_steps", s.Steps)
	add("fitbit_calories_burned", s.CaloriesOut)
	if len(s.Distances) > 0 {
		d := s.Distances[0].Distance
		add("fitbit_distance", &d)
	}
	add("fitbit_active_minutes", s.ActiveMinutes)
	add("fitbit_floors", s.Floors)
	add("fitbit_elevation", s.Elevation)
	return points
}

func heartPoints(day time.Time, resp heartResponse) []models.PointCandidate {
	if len(resp.ActivitiesHeart) == 0 {
		return nil
	}
	value := resp.ActivitiesHeart[0].Value

	var points []models.PointCandidate
	if value.RestingHeartRate != nil {
		points = append(points, models.PointCandidate{
			Date: day, MetricName: "fitbit_resting_heart_rate", Value: *value.RestingHeartRate,
		})
	}
	for _, zone := range value.HeartRateZones {
		if zone.Minutes <= 0 {
			continue
		}
		name := strings.ReplaceAll(strings.ToLower(zone.Name), " ", "_")
		points = append(points, models.PointCandidate{
			Date:       day,
			MetricName: fmt.Sprintf("fitbit_hr_zone_%s_minutes", name),
			Value:      zone.Minutes,
		})
	}
	return points
}

func sleepPoints(day time.Time, resp sleepResponse) []models.PointCandidate {
	if len(resp.Sleep) == 0 {
		return nil
	}
	s := resp.Sleep[0]

	var points []models.PointCandidate
	add := func(name string, value *float64) {
		if value != nil {
			points = append(points, models.PointCandidate{Date: day, MetricName: name, Value: *value})
		}
	}
	add("fitbit_sleep_duration", s.MinutesAsleep)
	add("fitbit_awake_time", s.MinutesAwake)
	add("fitbit_sleep_efficiency", s.Efficiency)
	add("fitbit_time_in_bed", s.TimeInBed)
	add("fitbit_sleep_latency", s.MinutesToFallAsleep)

	stageNames := []struct{ stage, metric string }{
		{"deep", "fitbit_deep_sleep_minutes"},
		{"light", "fitbit_light_sleep_minutes"},
		{"rem", "fitbit_rem_sleep_minutes"},
		{"wake", "fitbit_wake_minutes"},
	}
	for _, sn := range stageNames {
		if v, ok := s.Levels.Summary[sn.stage]; ok {
			points = append(points, models.PointCandidate{Date: day, MetricName: sn.metric, Value: v})
		}
	}
	return points
}

func bodyPoints(day time.Time, resp bodyResponse) []models.PointCandidate {
	if len(resp.Weight) == 0 {
		return nil
	}
	w := resp.Weight[0]

	var points []models.PointCandidate
	if w.Weight != nil {
		points = append(points, models.PointCandidate{Date: day, MetricName: "fitbit_weight", Value: *w.Weight})
	}
	if w.BMI != nil {
		points = append(points, models.PointCandidate{Date: day, MetricName: "fitbit_bmi", Value: *w.BMI})
	}
	return points
}
