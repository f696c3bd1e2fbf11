// ABOUTME: Oura Ring API client - fetches sleep sessions and normalizes them.
// ABOUTME: Uses a long-lived personal access token; there is no refresh flow.
package oura

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/harperreed/biodash/internal/models"
	"github.com/harperreed/biodash/internal/sync"
)

// DefaultBaseURL is the Oura v2 API root.
const DefaultBaseURL = "https://api.ouraring.com"

// SourceGraphName owns all points imported from Oura.
const SourceGraphName = "Oura Data"

// The API caps sleep queries at roughly a month; longer windows are chunked.
const maxChunkDays = 30

// Sessions under 3 hours are naps, not nightly sleep, and are dropped.
const minSleepSeconds = 3 * 3600

// Duration fields arrive in seconds and are stored as minutes.
var secondsFields = map[string]bool{
	"awake_time":           true,
	"deep_sleep_duration":  true,
	"rem_sleep_duration":   true,
	"total_sleep_duration": true,
}

// Client talks to the Oura v2 API.
type Client struct {
	baseURL    string
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

// NewClient creates an Oura client.
func NewClient(opts ...Option) *Client {
	c := &Client{
		baseURL:    DefaultBaseURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Name implements sync.Provider.
func (c *Client) Name() string { return models.ProviderOura }

// SourceGraph implements sync.Provider.
func (c *Client) SourceGraph() string { return SourceGraphName }

// Refresh implements sync.Provider. Personal access tokens never rotate.
func (c *Client) Refresh(context.Context, sync.Credentials) (sync.Credentials, error) {
	return sync.Credentials{}, sync.ErrRefreshUnsupported
}

// sleepSession is one record from /v2/usercollection/sleep. Pointer fields
// distinguish absent metrics from zero values.
type sleepSession struct {
	Day                string   `json:"day"`
	AwakeTime          *float64 `json:"awake_time"`
	AverageHRV         *float64 `json:"average_hrv"`
	AverageHeartRate   *float64 `json:"average_heart_rate"`
	AverageBreath      *float64 `json:"average_breath"`
	DeepSleepDuration  *float64 `json:"deep_sleep_duration"`
	RemSleepDuration   *float64 `json:"rem_sleep_duration"`
	TotalSleepDuration *float64 `json:"total_sleep_duration"`
}

type sleepResponse struct {
	Data []sleepSession `json:"data"`
}

// Fetch implements sync.Provider: retrieves nightly sleep sessions for the
// inclusive window, filters naps, and normalizes durations to minutes.
func (c *Client) Fetch(ctx context.Context, creds sync.Credentials, start, end time.Time) ([]models.PointCandidate, error) {
	var sessions []sleepSession

	chunkStart := models.DateOf(start)
	endDate := models.DateOf(end)
	for !chunkStart.After(endDate) {
		chunkEnd := chunkStart.AddDate(0, 0, maxChunkDays-1)
		if chunkEnd.After(endDate) {
			chunkEnd = endDate
		}
		chunk, err := c.fetchSleepChunk(ctx, creds.AccessToken, chunkStart, chunkEnd)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, chunk...)
		chunkStart = chunkEnd.AddDate(0, 0, 1)
	}

	return normalize(sessions)
}

func (c *Client) fetchSleepChunk(ctx context.Context, token string, start, end time.Time) ([]sleepSession, error) {
	u := fmt.Sprintf("%s/v2/usercollection/sleep?%s", c.baseURL, url.Values{
		"start_date": {start.Format(models.DateFormat)},
		"end_date":   {end.Format(models.DateFormat)},
	}.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("build sleep request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("oura sleep request: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusUnauthorized:
		return nil, fmt.Errorf("oura: %w", sync.ErrUnauthorized)
	default:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("oura sleep request failed with status %d: %s", resp.StatusCode, body)
	}

	var parsed sleepResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode sleep response: %w", err)
	}
	return parsed.Data, nil
}

func normalize(sessions []sleepSession) ([]models.PointCandidate, error) {
	var candidates []models.PointCandidate
	for _, s := range sessions {
		if s.Day == "" {
			continue
		}
		if s.TotalSleepDuration == nil || *s.TotalSleepDuration < minSleepSeconds {
			continue
		}
		day, err := models.ParseDate(s.Day)
		if err != nil {
			return nil, fmt.Errorf("parse sleep day %q: %w", s.Day, err)
		}

		metrics := []struct {
			name  string
			value *float64
		}{
			{"awake_time", s.AwakeTime},
			{"average_hrv", s.AverageHRV},
			{"average_heart_rate", s.AverageHeartRate},
			{"average_breath", s.AverageBreath},
			{"deep_sleep_duration", s.DeepSleepDuration},
			{"rem_sleep_duration", s.RemSleepDuration},
			{"total_sleep_duration", s.TotalSleepDuration},
		}
		for _, m := range metrics {
			if m.value == nil {
				continue
			}
			v := *m.value
			if secondsFields[m.name] {
				v /= 60
			}
			candidates = append(candidates, models.PointCandidate{
				Date:       day,
				MetricName: m.name,
				Value:      v,
			})
		}
	}
	return candidates, nil
}

// TestConnection implements sync.Provider via the personal info endpoint.
func (c *Client) TestConnection(ctx context.Context, creds sync.Credentials) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.baseURL+"/v2/usercollection/personal_info", nil)
	if err != nil {
		return fmt.Errorf("build personal info request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+creds.AccessToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("oura personal info request: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		return nil
	case http.StatusUnauthorized:
		return fmt.Errorf("oura: %w", sync.ErrUnauthorized)
	default:
		return fmt.Errorf("oura personal info request failed with status %d", resp.StatusCode)
	}
}
