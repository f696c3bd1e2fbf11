// ABOUTME: Account model holding provider credentials and sync settings.
// ABOUTME: Every core operation takes an explicit account ID; nothing is implicit.
package models

import (
	"time"

	"github.com/google/uuid"
)

// Provider identifiers.
const (
	ProviderOura   = "oura"
	ProviderFitbit = "fitbit"
)

// Sync frequencies. Unlike benchmark strategies, an unknown frequency is a
// hard validation failure.
const (
	FrequencyManual = "manual"
	FrequencyDaily  = "daily"
	FrequencyWeekly = "weekly"
)

// IsValidFrequency reports whether s is a supported sync frequency.
func IsValidFrequency(s string) bool {
	return s == FrequencyManual || s == FrequencyDaily || s == FrequencyWeekly
}

// Account holds per-provider credentials and sync bookkeeping for one user.
type Account struct {
	ID    uuid.UUID
	Email string

	// Oura uses a long-lived personal access token; there is no refresh flow.
	OuraToken string

	// Fitbit uses OAuth with short-lived access tokens.
	FitbitAccessToken    string
	FitbitRefreshToken   string
	FitbitTokenExpiresAt *time.Time
	FitbitUserID         string

	LastOuraSync   *time.Time
	LastFitbitSync *time.Time

	SyncEnabled       bool
	SyncFrequency     string
	NextScheduledSync *time.Time

	// SelectedDashboardMetrics maps a provider/device name to the metric
	// names pinned on the dashboard for it.
	SelectedDashboardMetrics map[string][]string

	CreatedAt time.Time
}

// NewAccount creates an account with manual sync settings.
func NewAccount(email string) *Account {
	return &Account{
		ID:            uuid.New(),
		Email:         email,
		SyncFrequency: FrequencyManual,
		CreatedAt:     time.Now(),
	}
}

// LastSync returns the last successful sync time for a provider.
func (a *Account) LastSync(provider string) *time.Time {
	switch provider {
	case ProviderOura:
		return a.LastOuraSync
	case ProviderFitbit:
		return a.LastFitbitSync
	default:
		return nil
	}
}

// SetLastSync records the last successful sync time for a provider.
func (a *Account) SetLastSync(provider string, t time.Time) {
	switch provider {
	case ProviderOura:
		a.LastOuraSync = &t
	case ProviderFitbit:
		a.LastFitbitSync = &t
	}
}

// Connected reports whether credentials exist for a provider.
func (a *Account) Connected(provider string) bool {
	switch provider {
	case ProviderOura:
		return a.OuraToken != ""
	case ProviderFitbit:
		return a.FitbitAccessToken != ""
	default:
		return false
	}
}
