// ABOUTME: Tests for the sync coordinator using a scripted fake provider.
// ABOUTME: Covers window derivation, log durability, failure isolation, token refresh.
package sync

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/harperreed/biodash/internal/models"
	"github.com/harperreed/biodash/internal/storage"
)

type fakeProvider struct {
	name        string
	candidates  []models.PointCandidate
	fetchErr    error
	refreshErr  error
	refreshed   Credentials
	fetchCalls  int
	fetchStarts []time.Time
	fetchEnds   []time.Time
	fetchCreds  []Credentials
}

func (f *fakeProvider) Name() string        { return f.name }
func (f *fakeProvider) SourceGraph() string { return f.name + " import" }

func (f *fakeProvider) Fetch(_ context.Context, creds Credentials, start, end time.Time) ([]models.PointCandidate, error) {
	f.fetchCalls++
	f.fetchStarts = append(f.fetchStarts, start)
	f.fetchEnds = append(f.fetchEnds, end)
	f.fetchCreds = append(f.fetchCreds, creds)
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	return f.candidates, nil
}

func (f *fakeProvider) Refresh(context.Context, Credentials) (Credentials, error) {
	if f.refreshErr != nil {
		return Credentials{}, f.refreshErr
	}
	return f.refreshed, nil
}

func (f *fakeProvider) TestConnection(context.Context, Credentials) error { return nil }

func TestRunBootstrapWindow(t *testing.T) {
	repo, account := setupAccount(t)
	provider := &fakeProvider{name: models.ProviderOura, candidates: []models.PointCandidate{
		{Date: date(t, "2025-06-05"), MetricName: "average_hrv", Value: 42},
	}}
	coord := newTestCoordinator(repo, "2025-06-10", provider)

	result, err := coord.Run(context.Background(), account.ID, models.ProviderOura, models.SyncTypeManual)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if result.NoOp {
		t.Fatal("Expected a real run")
	}
	if result.Imported != 1 {
		t.Errorf("Imported: got %d, want 1", result.Imported)
	}

	// First sync: 30 days back through yesterday
	if got := provider.fetchStarts[0].Format(models.DateFormat); got != "2025-05-11" {
		t.Errorf("Window start: %s, want 2025-05-11", got)
	}
	if got := provider.fetchEnds[0].Format(models.DateFormat); got != "2025-06-09" {
		t.Errorf("Window end: %s, want yesterday", got)
	}

	// Last sync is the run time, not the window end
	updated, err := repo.GetAccount(account.ID)
	if err != nil {
		t.Fatalf("GetAccount failed: %v", err)
	}
	if updated.LastOuraSync == nil {
		t.Fatal("LastOuraSync not set")
	}
	if updated.LastOuraSync.Format(models.DateFormat) != "2025-06-10" {
		t.Errorf("LastOuraSync: %v, want run time", updated.LastOuraSync)
	}
}

func TestRunIncrementalWindowStartsDayAfterLastSync(t *testing.T) {
	repo, account := setupAccount(t)
	last := date(t, "2025-06-05")
	account.SetLastSync(models.ProviderOura, last)
	if err := repo.UpdateAccount(account); err != nil {
		t.Fatalf("UpdateAccount failed: %v", err)
	}

	provider := &fakeProvider{name: models.ProviderOura}
	coord := newTestCoordinator(repo, "2025-06-10", provider)

	if _, err := coord.Run(context.Background(), account.ID, models.ProviderOura, models.SyncTypeManual); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if got := provider.fetchStarts[0].Format(models.DateFormat); got != "2025-06-06" {
		t.Errorf("Window start: %s, want day after last sync", got)
	}
}

func TestRunEmptyWindowIsNoOp(t *testing.T) {
	repo, account := setupAccount(t)
	// Synced earlier today: window start (tomorrow) > end (yesterday)
	account.SetLastSync(models.ProviderOura, date(t, "2025-06-10"))
	if err := repo.UpdateAccount(account); err != nil {
		t.Fatalf("UpdateAccount failed: %v", err)
	}

	provider := &fakeProvider{name: models.ProviderOura}
	coord := newTestCoordinator(repo, "2025-06-10", provider)

	result, err := coord.Run(context.Background(), account.ID, models.ProviderOura, models.SyncTypeManual)
	if err != nil {
		t.Fatalf("No-op run must succeed: %v", err)
	}
	if !result.NoOp {
		t.Fatal("Expected a no-op")
	}
	if provider.fetchCalls != 0 {
		t.Error("No-op must not touch the network")
	}

	// No log row for a no-op
	logs, err := repo.ListSyncLogs(account.ID, 10)
	if err != nil {
		t.Fatalf("ListSyncLogs failed: %v", err)
	}
	if len(logs) != 0 {
		t.Errorf("Expected no sync logs, got %d", len(logs))
	}
}

func TestRunFailureRecordsLogAndKeepsLastSync(t *testing.T) {
	repo, account := setupAccount(t)
	before := date(t, "2025-06-01")
	account.SetLastSync(models.ProviderOura, before)
	if err := repo.UpdateAccount(account); err != nil {
		t.Fatalf("UpdateAccount failed: %v", err)
	}

	provider := &fakeProvider{name: models.ProviderOura, fetchErr: errors.New("api down")}
	coord := newTestCoordinator(repo, "2025-06-10", provider)

	_, err := coord.Run(context.Background(), account.ID, models.ProviderOura, models.SyncTypeManual)
	if err == nil {
		t.Fatal("Expected error from failed fetch")
	}

	logs, err := repo.ListSyncLogs(account.ID, 10)
	if err != nil {
		t.Fatalf("ListSyncLogs failed: %v", err)
	}
	if len(logs) != 1 {
		t.Fatalf("Expected 1 sync log, got %d", len(logs))
	}
	if logs[0].Status != models.SyncStatusFailed {
		t.Errorf("Log status: %s, want failed", logs[0].Status)
	}
	if logs[0].ErrorMessage == nil || !strings.Contains(*logs[0].ErrorMessage, "api down") {
		t.Errorf("Error message missing cause: %v", logs[0].ErrorMessage)
	}

	// Failed runs never advance the cursor
	updated, err := repo.GetAccount(account.ID)
	if err != nil {
		t.Fatalf("GetAccount failed: %v", err)
	}
	if updated.LastOuraSync == nil || !updated.LastOuraSync.Equal(before) {
		t.Errorf("LastOuraSync moved on failure: %v", updated.LastOuraSync)
	}
}

func TestRunUnauthorizedIsDistinct(t *testing.T) {
	repo, account := setupAccount(t)
	provider := &fakeProvider{name: models.ProviderOura, fetchErr: ErrUnauthorized}
	coord := newTestCoordinator(repo, "2025-06-10", provider)

	_, err := coord.Run(context.Background(), account.ID, models.ProviderOura, models.SyncTypeManual)
	if !errors.Is(err, ErrUnauthorized) {
		t.Errorf("Expected ErrUnauthorized in chain, got %v", err)
	}
}

func TestRunRefreshesExpiredTokenBeforeFetch(t *testing.T) {
	repo, account := setupAccount(t)
	expired := date(t, "2025-06-09")
	account.FitbitAccessToken = "stale"
	account.FitbitRefreshToken = "refresh-1"
	account.FitbitTokenExpiresAt = &expired
	if err := repo.UpdateAccount(account); err != nil {
		t.Fatalf("UpdateAccount failed: %v", err)
	}

	newExpiry := date(t, "2025-07-01")
	provider := &fakeProvider{
		name: models.ProviderFitbit,
		refreshed: Credentials{
			AccessToken:  "fresh",
			RefreshToken: "refresh-2",
			ExpiresAt:    &newExpiry,
		},
	}
	coord := newTestCoordinator(repo, "2025-06-10", provider)

	if _, err := coord.Run(context.Background(), account.ID, models.ProviderFitbit, models.SyncTypeManual); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	// Fetch saw the refreshed token
	if provider.fetchCreds[0].AccessToken != "fresh" {
		t.Errorf("Fetch used stale token: %s", provider.fetchCreds[0].AccessToken)
	}

	// Rotation persisted
	updated, err := repo.GetAccount(account.ID)
	if err != nil {
		t.Fatalf("GetAccount failed: %v", err)
	}
	if updated.FitbitAccessToken != "fresh" || updated.FitbitRefreshToken != "refresh-2" {
		t.Errorf("Refreshed credentials not persisted: %+v", updated)
	}
}

func TestRunAssignsImportsToSourceGraph(t *testing.T) {
	repo, account := setupAccount(t)
	provider := &fakeProvider{name: models.ProviderOura, candidates: []models.PointCandidate{
		{Date: date(t, "2025-06-05"), MetricName: "deep_sleep_duration", Value: 95},
	}}
	coord := newTestCoordinator(repo, "2025-06-10", provider)

	if _, err := coord.Run(context.Background(), account.ID, models.ProviderOura, models.SyncTypeManual); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	graph, err := repo.GetGraphByName(provider.SourceGraph())
	if err != nil {
		t.Fatalf("Source graph not created: %v", err)
	}
	points, err := repo.QueryPoints(storage.PointFilter{GraphID: &graph.ID})
	if err != nil {
		t.Fatalf("QueryPoints failed: %v", err)
	}
	if len(points) != 1 {
		t.Fatalf("Expected 1 owned point, got %d", len(points))
	}

	// Second run reuses the same graph
	account.LastOuraSync = nil
	if err := repo.UpdateAccount(account); err != nil {
		t.Fatalf("UpdateAccount failed: %v", err)
	}
	if _, err := coord.Run(context.Background(), account.ID, models.ProviderOura, models.SyncTypeManual); err != nil {
		t.Fatalf("Second run failed: %v", err)
	}
	graphs, err := repo.ListGraphs(true)
	if err != nil {
		t.Fatalf("ListGraphs failed: %v", err)
	}
	if len(graphs) != 1 {
		t.Errorf("Source graph duplicated: %d graphs", len(graphs))
	}
}

func TestRunReplayImportsNothing(t *testing.T) {
	repo, account := setupAccount(t)
	provider := &fakeProvider{name: models.ProviderOura, candidates: []models.PointCandidate{
		{Date: date(t, "2025-06-05"), MetricName: "average_hrv", Value: 42},
	}}
	coord := newTestCoordinator(repo, "2025-06-10", provider)

	first, err := coord.Run(context.Background(), account.ID, models.ProviderOura, models.SyncTypeManual)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if first.Imported != 1 {
		t.Fatalf("First run imported %d, want 1", first.Imported)
	}

	// Force the same window again
	account, err = repo.GetAccount(account.ID)
	if err != nil {
		t.Fatalf("GetAccount failed: %v", err)
	}
	account.LastOuraSync = nil
	if err := repo.UpdateAccount(account); err != nil {
		t.Fatalf("UpdateAccount failed: %v", err)
	}

	second, err := coord.Run(context.Background(), account.ID, models.ProviderOura, models.SyncTypeManual)
	if err != nil {
		t.Fatalf("Replay run failed: %v", err)
	}
	if second.Imported != 0 {
		t.Errorf("Replay imported %d, want 0", second.Imported)
	}
	if second.Log.Status != models.SyncStatusSuccess {
		t.Errorf("Replay should still succeed, got %s", second.Log.Status)
	}
}

func TestHistoryTallies(t *testing.T) {
	repo, account := setupAccount(t)
	coord := newTestCoordinator(repo, "2025-06-10", &fakeProvider{name: models.ProviderOura})

	ok := models.NewSyncLog(account.ID, models.ProviderOura, models.SyncTypeManual,
		date(t, "2025-06-01"), date(t, "2025-06-02"))
	bad := models.NewSyncLog(account.ID, models.ProviderOura, models.SyncTypeManual,
		date(t, "2025-06-03"), date(t, "2025-06-04"))
	for _, l := range []*models.SyncLog{ok, bad} {
		if err := repo.CreateSyncLog(l); err != nil {
			t.Fatalf("CreateSyncLog failed: %v", err)
		}
	}
	if err := repo.CompleteSyncLog(ok.ID, models.SyncStatusSuccess, 5, "", time.Now()); err != nil {
		t.Fatalf("CompleteSyncLog failed: %v", err)
	}
	if err := repo.CompleteSyncLog(bad.ID, models.SyncStatusFailed, 0, "boom", time.Now()); err != nil {
		t.Fatalf("CompleteSyncLog failed: %v", err)
	}

	logs, succeeded, failed, err := coord.History(account.ID, 10)
	if err != nil {
		t.Fatalf("History failed: %v", err)
	}
	if len(logs) != 2 || succeeded != 1 || failed != 1 {
		t.Errorf("History: %d logs, %d ok, %d failed", len(logs), succeeded, failed)
	}
}

func TestValidateFrequency(t *testing.T) {
	for _, valid := range []string{"manual", "daily", "weekly"} {
		if err := ValidateFrequency(valid); err != nil {
			t.Errorf("ValidateFrequency(%q) failed: %v", valid, err)
		}
	}
	if err := ValidateFrequency("hourly"); err == nil {
		t.Error("Expected hard failure for unknown frequency")
	}
}

func TestSchedulerNextRun(t *testing.T) {
	repo, _ := setupAccount(t)
	s := NewScheduler(repo)
	// Tuesday 2025-06-10 10:00 UTC
	s.Now = func() time.Time { return time.Date(2025, 6, 10, 10, 0, 0, 0, time.UTC) }

	next, err := s.NextRun(models.FrequencyDaily)
	if err != nil {
		t.Fatalf("NextRun failed: %v", err)
	}
	if next.Day() != 11 || next.Hour() != 6 {
		t.Errorf("Daily next run: %v, want tomorrow 06:00", next)
	}

	next, err = s.NextRun(models.FrequencyWeekly)
	if err != nil {
		t.Fatalf("NextRun failed: %v", err)
	}
	if next.Weekday() != time.Sunday || next.Hour() != 6 {
		t.Errorf("Weekly next run: %v, want Sunday 06:00", next)
	}

	next, err = s.NextRun(models.FrequencyManual)
	if err != nil {
		t.Fatalf("NextRun failed: %v", err)
	}
	if next != nil {
		t.Errorf("Manual frequency should have no next run, got %v", next)
	}
}

func TestSchedulerConfigure(t *testing.T) {
	repo, account := setupAccount(t)
	s := NewScheduler(repo)
	s.Now = func() time.Time { return time.Date(2025, 6, 10, 10, 0, 0, 0, time.UTC) }

	if _, err := s.Configure(account.ID, true, models.FrequencyManual); err == nil {
		t.Error("Enabling with manual frequency must fail")
	}

	updated, err := s.Configure(account.ID, true, models.FrequencyDaily)
	if err != nil {
		t.Fatalf("Configure failed: %v", err)
	}
	if !updated.SyncEnabled || updated.NextScheduledSync == nil {
		t.Errorf("Schedule not applied: %+v", updated)
	}

	updated, err = s.Configure(account.ID, false, models.FrequencyManual)
	if err != nil {
		t.Fatalf("Configure disable failed: %v", err)
	}
	if updated.SyncEnabled || updated.NextScheduledSync != nil {
		t.Errorf("Disable did not clear schedule: %+v", updated)
	}
}

func newTestCoordinator(repo storage.Repository, today string, providers ...Provider) *Coordinator {
	logger := log.New(io.Discard)
	coord := NewCoordinator(repo, logger, providers...)
	coord.Now = func() time.Time {
		d, _ := models.ParseDate(today)
		return d
	}
	return coord
}

func setupAccount(t *testing.T) (storage.Repository, *models.Account) {
	t.Helper()

	tmpDir, err := os.MkdirTemp("", "biodash-test-*")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	t.Cleanup(func() { _ = os.RemoveAll(tmpDir) })

	db, err := storage.Open(filepath.Join(tmpDir, "biodash.db"))
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	account := models.NewAccount("test@example.com")
	account.OuraToken = "oura-pat"
	account.FitbitAccessToken = "fitbit-access"
	account.FitbitRefreshToken = "fitbit-refresh"
	if err := db.CreateAccount(account); err != nil {
		t.Fatalf("CreateAccount failed: %v", err)
	}
	return db, account
}

func date(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := models.ParseDate(s)
	if err != nil {
		t.Fatalf("ParseDate(%q) failed: %v", s, err)
	}
	return d
}
