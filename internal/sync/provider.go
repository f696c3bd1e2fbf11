// ABOUTME: Provider interface for wearable data sources.
// ABOUTME: Providers fetch raw data and normalize it to point candidates.
package sync

import (
	"context"
	"errors"
	"time"

	"github.com/harperreed/biodash/internal/models"
)

// ErrUnauthorized indicates the provider rejected the credentials. The
// coordinator reports it distinctly so the user knows to reconnect.
var ErrUnauthorized = errors.New("provider rejected credentials")

// ErrRefreshUnsupported is returned by providers whose credentials are
// long-lived and have no refresh flow.
var ErrRefreshUnsupported = errors.New("token refresh not supported")

// Credentials carries what a provider needs to talk to its API.
type Credentials struct {
	AccessToken  string
	RefreshToken string
	ExpiresAt    *time.Time
}

// Expired reports whether the access token has an expiry in the past.
func (c Credentials) Expired(now time.Time) bool {
	return c.ExpiresAt != nil && c.ExpiresAt.Before(now)
}

// Provider is one wearable data source. Implementations normalize provider
// payloads into point candidates; they never touch storage.
type Provider interface {
	// Name returns the provider identifier ("oura", "fitbit").
	Name() string

	// SourceGraph returns the name of the graph that owns imported points.
	SourceGraph() string

	// Fetch retrieves and normalizes data for the inclusive date window.
	Fetch(ctx context.Context, creds Credentials, start, end time.Time) ([]models.PointCandidate, error)

	// Refresh exchanges expired credentials for fresh ones. Providers
	// without a refresh flow return ErrRefreshUnsupported.
	Refresh(ctx context.Context, creds Credentials) (Credentials, error)

	// TestConnection verifies the credentials with a cheap API call.
	TestConnection(ctx context.Context, creds Credentials) error
}
