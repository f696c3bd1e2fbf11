// ABOUTME: Tests for Repository interface implementations.
// ABOUTME: Verifies CRUD for points, graphs, experiments, sync logs, accounts using SQLite.
package storage

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/harperreed/biodash/internal/models"
)

func TestUpsertPointsIdempotent(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	date := mustDate(t, "2025-06-01")
	candidates := []models.PointCandidate{
		{Date: date, MetricName: "deep_sleep_duration", Value: 95},
		{Date: date, MetricName: "average_hrv", Value: 42},
	}

	inserted, err := db.UpsertPoints(candidates)
	if err != nil {
		t.Fatalf("UpsertPoints failed: %v", err)
	}
	if inserted != 2 {
		t.Errorf("Expected 2 inserted, got %d", inserted)
	}

	// Same batch again with a different value: nothing changes
	candidates[0].Value = 999
	inserted, err = db.UpsertPoints(candidates)
	if err != nil {
		t.Fatalf("UpsertPoints second run failed: %v", err)
	}
	if inserted != 0 {
		t.Errorf("Expected 0 inserted on replay, got %d", inserted)
	}

	points, err := db.QueryPoints(PointFilter{MetricName: "deep_sleep_duration"})
	if err != nil {
		t.Fatalf("QueryPoints failed: %v", err)
	}
	if len(points) != 1 {
		t.Fatalf("Expected 1 point, got %d", len(points))
	}
	if points[0].Value != 95 {
		t.Errorf("Existing value overwritten: got %v, want 95", points[0].Value)
	}
}

func TestUpsertPointsDistinguishesGraphOwnership(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	g := models.NewGraph("Mood tracking", "manual entries")
	if err := db.CreateGraph(g); err != nil {
		t.Fatalf("CreateGraph failed: %v", err)
	}

	date := mustDate(t, "2025-06-01")
	inserted, err := db.UpsertPoints([]models.PointCandidate{
		{Date: date, MetricName: "mood", Value: 7},
		{Date: date, MetricName: "mood", Value: 8, GraphID: &g.ID},
	})
	if err != nil {
		t.Fatalf("UpsertPoints failed: %v", err)
	}
	if inserted != 2 {
		t.Errorf("Expected 2 inserted (store-level and graph-owned), got %d", inserted)
	}

	// A second store-level point for the same day/metric is a duplicate
	inserted, err = db.UpsertPoints([]models.PointCandidate{
		{Date: date, MetricName: "mood", Value: 9},
	})
	if err != nil {
		t.Fatalf("UpsertPoints failed: %v", err)
	}
	if inserted != 0 {
		t.Errorf("Expected store-level duplicate to be skipped, got %d inserted", inserted)
	}
}

func TestQueryPointsOrderingAndRange(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	_, err := db.UpsertPoints([]models.PointCandidate{
		{Date: mustDate(t, "2025-06-03"), MetricName: "steps", Value: 8200},
		{Date: mustDate(t, "2025-06-01"), MetricName: "steps", Value: 8000},
		{Date: mustDate(t, "2025-06-02"), MetricName: "steps", Value: 7900},
		{Date: mustDate(t, "2025-06-02"), MetricName: "average_hrv", Value: 44},
	})
	if err != nil {
		t.Fatalf("UpsertPoints failed: %v", err)
	}

	from := mustDate(t, "2025-06-01")
	to := mustDate(t, "2025-06-02")
	points, err := db.QueryPoints(PointFilter{From: &from, To: &to})
	if err != nil {
		t.Fatalf("QueryPoints failed: %v", err)
	}
	if len(points) != 3 {
		t.Fatalf("Expected 3 points in range, got %d", len(points))
	}

	// Date ascending, metric_name breaking ties
	if points[0].MetricName != "steps" || points[0].Value != 8000 {
		t.Errorf("Unexpected first point: %s=%v", points[0].MetricName, points[0].Value)
	}
	if points[1].MetricName != "average_hrv" {
		t.Errorf("Expected average_hrv before steps on the same day, got %s", points[1].MetricName)
	}
}

func TestDistinctMetricNames(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	date := mustDate(t, "2025-06-01")
	_, err := db.UpsertPoints([]models.PointCandidate{
		{Date: date, MetricName: "fitbit_steps", Value: 8000},
		{Date: date, MetricName: "average_hrv", Value: 42},
		{Date: date, MetricName: "fitbit_sleep_duration", Value: 410},
	})
	if err != nil {
		t.Fatalf("UpsertPoints failed: %v", err)
	}

	all, err := db.DistinctMetricNames("")
	if err != nil {
		t.Fatalf("DistinctMetricNames failed: %v", err)
	}
	if len(all) != 3 || all[0] != "average_hrv" {
		t.Errorf("Unexpected names: %v", all)
	}

	fitbit, err := db.DistinctMetricNames("fitbit_")
	if err != nil {
		t.Fatalf("DistinctMetricNames with prefix failed: %v", err)
	}
	if len(fitbit) != 2 {
		t.Errorf("Expected 2 fitbit names, got %v", fitbit)
	}
}

func TestLatestPointAndNotFound(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	_, err := db.UpsertPoints([]models.PointCandidate{
		{Date: mustDate(t, "2025-06-01"), MetricName: "weight", Value: 82.5},
		{Date: mustDate(t, "2025-06-05"), MetricName: "weight", Value: 81.9},
	})
	if err != nil {
		t.Fatalf("UpsertPoints failed: %v", err)
	}

	latest, err := db.LatestPoint("weight")
	if err != nil {
		t.Fatalf("LatestPoint failed: %v", err)
	}
	if latest.Value != 81.9 {
		t.Errorf("Expected latest value 81.9, got %v", latest.Value)
	}

	_, err = db.LatestPoint("never_recorded")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestGraphCRUDAndTrackedMetrics(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	g := models.NewGraph("Sleep quality", "Oura sleep metrics")
	g.WithTrackedMetrics([]string{"deep_sleep_duration", "rem_sleep_duration"})

	if err := db.CreateGraph(g); err != nil {
		t.Fatalf("CreateGraph failed: %v", err)
	}

	got, err := db.GetGraph(g.ID)
	if err != nil {
		t.Fatalf("GetGraph failed: %v", err)
	}
	if !got.IsDynamic() {
		t.Error("Expected graph with tracked metrics to be dynamic")
	}
	if len(got.TrackedMetrics) != 2 || got.TrackedMetrics[0] != "deep_sleep_duration" {
		t.Errorf("TrackedMetrics mismatch: %v", got.TrackedMetrics)
	}

	got.Name = "Sleep"
	got.TrackedMetrics = nil
	if err := db.UpdateGraph(got); err != nil {
		t.Fatalf("UpdateGraph failed: %v", err)
	}
	updated, err := db.GetGraph(g.ID)
	if err != nil {
		t.Fatalf("GetGraph after update failed: %v", err)
	}
	if updated.Name != "Sleep" || updated.IsDynamic() {
		t.Errorf("Update not persisted: name=%q dynamic=%v", updated.Name, updated.IsDynamic())
	}
}

func TestListGraphsExcludesTemporary(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	saved := models.NewGraph("Saved", "")
	tmp := models.NewTemporaryGraph()
	for _, g := range []*models.Graph{saved, tmp} {
		if err := db.CreateGraph(g); err != nil {
			t.Fatalf("CreateGraph failed: %v", err)
		}
	}

	visible, err := db.ListGraphs(false)
	if err != nil {
		t.Fatalf("ListGraphs failed: %v", err)
	}
	if len(visible) != 1 || visible[0].ID != saved.ID {
		t.Errorf("Expected only the saved graph, got %d graphs", len(visible))
	}

	all, err := db.ListGraphs(true)
	if err != nil {
		t.Fatalf("ListGraphs(true) failed: %v", err)
	}
	if len(all) != 2 {
		t.Errorf("Expected 2 graphs including temporary, got %d", len(all))
	}
}

func TestDeleteGraphCascadesOwnedPoints(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	g := models.NewGraph("Explorer", "")
	if err := db.CreateGraph(g); err != nil {
		t.Fatalf("CreateGraph failed: %v", err)
	}

	date := mustDate(t, "2025-06-01")
	_, err := db.UpsertPoints([]models.PointCandidate{
		{Date: date, MetricName: "mood", Value: 7, GraphID: &g.ID},
		{Date: date, MetricName: "mood", Value: 6},
	})
	if err != nil {
		t.Fatalf("UpsertPoints failed: %v", err)
	}

	if err := db.DeleteGraph(g.ID); err != nil {
		t.Fatalf("DeleteGraph failed: %v", err)
	}

	points, err := db.QueryPoints(PointFilter{MetricName: "mood"})
	if err != nil {
		t.Fatalf("QueryPoints failed: %v", err)
	}
	if len(points) != 1 {
		t.Fatalf("Expected owned point cascaded, store-level point kept; got %d", len(points))
	}
	if points[0].GraphID != nil {
		t.Error("Surviving point should be store-level")
	}
}

func TestOwnedMetricNames(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	g := models.NewGraph("Static", "")
	if err := db.CreateGraph(g); err != nil {
		t.Fatalf("CreateGraph failed: %v", err)
	}

	date := mustDate(t, "2025-06-01")
	_, err := db.UpsertPoints([]models.PointCandidate{
		{Date: date, MetricName: "steps", Value: 8000, GraphID: &g.ID},
		{Date: date, MetricName: "average_hrv", Value: 42, GraphID: &g.ID},
		{Date: date, MetricName: "weight", Value: 82},
	})
	if err != nil {
		t.Fatalf("UpsertPoints failed: %v", err)
	}

	names, err := db.OwnedMetricNames(g.ID)
	if err != nil {
		t.Fatalf("OwnedMetricNames failed: %v", err)
	}
	if len(names) != 2 || names[0] != "average_hrv" || names[1] != "steps" {
		t.Errorf("Unexpected owned names: %v", names)
	}
}

func TestExperimentCRUD(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	e := models.NewExperiment("Morning walks", "steps", models.BenchmarkAvg7Days, models.Period1Week)
	e.Description = "Walk before breakfast"
	start := mustDate(t, "2025-06-01")
	end := mustDate(t, "2025-06-07")
	e.WithDates(start, end)

	if err := db.CreateExperiment(e); err != nil {
		t.Fatalf("CreateExperiment failed: %v", err)
	}

	got, err := db.GetExperiment(e.ID)
	if err != nil {
		t.Fatalf("GetExperiment failed: %v", err)
	}
	if got.Title != "Morning walks" || got.MetricOfInterest != "steps" {
		t.Errorf("Experiment mismatch: %+v", got)
	}
	if got.StartDate == nil || !got.StartDate.Equal(start) {
		t.Errorf("StartDate mismatch: got %v", got.StartDate)
	}
	if got.EndDate == nil || !got.EndDate.Equal(end) {
		t.Errorf("EndDate mismatch: got %v", got.EndDate)
	}

	got.Title = "Evening walks"
	got.EndDate = nil
	if err := db.UpdateExperiment(got); err != nil {
		t.Fatalf("UpdateExperiment failed: %v", err)
	}
	updated, err := db.GetExperiment(e.ID)
	if err != nil {
		t.Fatalf("GetExperiment after update failed: %v", err)
	}
	if updated.Title != "Evening walks" || updated.EndDate != nil {
		t.Errorf("Update not persisted: %+v", updated)
	}

	if err := db.DeleteExperiment(e.ID); err != nil {
		t.Fatalf("DeleteExperiment failed: %v", err)
	}
	if _, err := db.GetExperiment(e.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound after delete, got %v", err)
	}
}

func TestListExperimentsNewestFirst(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	e1 := models.NewExperiment("First", "steps", models.BenchmarkAvg7Days, models.Period1Week)
	e1.CreatedAt = time.Now().Add(-time.Hour)
	e2 := models.NewExperiment("Second", "mood", models.BenchmarkAvg7Days, models.Period2Weeks)

	for _, e := range []*models.Experiment{e1, e2} {
		if err := db.CreateExperiment(e); err != nil {
			t.Fatalf("CreateExperiment failed: %v", err)
		}
	}

	list, err := db.ListExperiments()
	if err != nil {
		t.Fatalf("ListExperiments failed: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("Expected 2 experiments, got %d", len(list))
	}
	if list[0].ID != e2.ID {
		t.Errorf("Expected newest first, got %q", list[0].Title)
	}
}

func TestSyncLogLifecycle(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	a := models.NewAccount("me@example.com")
	if err := db.CreateAccount(a); err != nil {
		t.Fatalf("CreateAccount failed: %v", err)
	}

	l := models.NewSyncLog(a.ID, models.ProviderOura, models.SyncTypeManual,
		mustDate(t, "2025-06-01"), mustDate(t, "2025-06-07"))
	if err := db.CreateSyncLog(l); err != nil {
		t.Fatalf("CreateSyncLog failed: %v", err)
	}

	got, err := db.GetSyncLog(l.ID)
	if err != nil {
		t.Fatalf("GetSyncLog failed: %v", err)
	}
	if got.Status != models.SyncStatusInProgress {
		t.Errorf("Expected in_progress, got %s", got.Status)
	}
	if got.CompletedAt != nil {
		t.Error("Expected nil CompletedAt on a fresh log")
	}

	done := time.Now()
	if err := db.CompleteSyncLog(l.ID, models.SyncStatusSuccess, 14, "", done); err != nil {
		t.Fatalf("CompleteSyncLog failed: %v", err)
	}
	got, err = db.GetSyncLog(l.ID)
	if err != nil {
		t.Fatalf("GetSyncLog after complete failed: %v", err)
	}
	if got.Status != models.SyncStatusSuccess || got.RecordsImported != 14 {
		t.Errorf("Completion not persisted: status=%s records=%d", got.Status, got.RecordsImported)
	}
	if got.ErrorMessage != nil {
		t.Errorf("Expected no error message on success, got %v", *got.ErrorMessage)
	}
	if got.CompletedAt == nil {
		t.Error("Expected CompletedAt set")
	}
}

func TestSyncLogFailureKeepsErrorMessage(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	a := models.NewAccount("me@example.com")
	if err := db.CreateAccount(a); err != nil {
		t.Fatalf("CreateAccount failed: %v", err)
	}

	l := models.NewSyncLog(a.ID, models.ProviderFitbit, models.SyncTypeAutomatic,
		mustDate(t, "2025-06-01"), mustDate(t, "2025-06-07"))
	if err := db.CreateSyncLog(l); err != nil {
		t.Fatalf("CreateSyncLog failed: %v", err)
	}

	if err := db.CompleteSyncLog(l.ID, models.SyncStatusFailed, 0, "token expired", time.Now()); err != nil {
		t.Fatalf("CompleteSyncLog failed: %v", err)
	}

	got, err := db.GetSyncLog(l.ID)
	if err != nil {
		t.Fatalf("GetSyncLog failed: %v", err)
	}
	if got.Status != models.SyncStatusFailed {
		t.Errorf("Expected failed status, got %s", got.Status)
	}
	if got.ErrorMessage == nil || *got.ErrorMessage != "token expired" {
		t.Errorf("ErrorMessage mismatch: %v", got.ErrorMessage)
	}
}

func TestListSyncLogsNewestFirst(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	a := models.NewAccount("me@example.com")
	if err := db.CreateAccount(a); err != nil {
		t.Fatalf("CreateAccount failed: %v", err)
	}

	older := models.NewSyncLog(a.ID, models.ProviderOura, models.SyncTypeManual,
		mustDate(t, "2025-06-01"), mustDate(t, "2025-06-02"))
	older.StartedAt = time.Now().Add(-time.Hour)
	newer := models.NewSyncLog(a.ID, models.ProviderOura, models.SyncTypeManual,
		mustDate(t, "2025-06-03"), mustDate(t, "2025-06-04"))

	for _, l := range []*models.SyncLog{older, newer} {
		if err := db.CreateSyncLog(l); err != nil {
			t.Fatalf("CreateSyncLog failed: %v", err)
		}
	}

	logs, err := db.ListSyncLogs(a.ID, 10)
	if err != nil {
		t.Fatalf("ListSyncLogs failed: %v", err)
	}
	if len(logs) != 2 || logs[0].ID != newer.ID {
		t.Errorf("Expected newest first, got %d logs", len(logs))
	}
}

func TestAccountRoundTrip(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	a := models.NewAccount("me@example.com")
	a.OuraToken = "oura-pat"
	expires := time.Now().Add(8 * time.Hour).Truncate(time.Second)
	a.FitbitAccessToken = "fitbit-access"
	a.FitbitRefreshToken = "fitbit-refresh"
	a.FitbitTokenExpiresAt = &expires
	a.FitbitUserID = "ABC123"
	a.SyncEnabled = true
	a.SyncFrequency = models.FrequencyDaily
	a.SelectedDashboardMetrics = map[string][]string{
		"oura": {"deep_sleep_duration", "average_hrv"},
	}

	if err := db.CreateAccount(a); err != nil {
		t.Fatalf("CreateAccount failed: %v", err)
	}

	got, err := db.GetAccount(a.ID)
	if err != nil {
		t.Fatalf("GetAccount failed: %v", err)
	}
	if got.OuraToken != "oura-pat" || got.FitbitAccessToken != "fitbit-access" {
		t.Errorf("Credentials mismatch: %+v", got)
	}
	if got.FitbitTokenExpiresAt == nil || !got.FitbitTokenExpiresAt.Equal(expires) {
		t.Errorf("FitbitTokenExpiresAt mismatch: %v", got.FitbitTokenExpiresAt)
	}
	if !got.SyncEnabled || got.SyncFrequency != models.FrequencyDaily {
		t.Errorf("Sync settings mismatch: enabled=%v freq=%s", got.SyncEnabled, got.SyncFrequency)
	}
	if len(got.SelectedDashboardMetrics["oura"]) != 2 {
		t.Errorf("SelectedDashboardMetrics mismatch: %v", got.SelectedDashboardMetrics)
	}

	byEmail, err := db.GetAccountByEmail("me@example.com")
	if err != nil {
		t.Fatalf("GetAccountByEmail failed: %v", err)
	}
	if byEmail.ID != a.ID {
		t.Errorf("Email lookup returned wrong account: %v", byEmail.ID)
	}
}

func TestUpdateAccountLastSync(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	a := models.NewAccount("me@example.com")
	if err := db.CreateAccount(a); err != nil {
		t.Fatalf("CreateAccount failed: %v", err)
	}

	when := time.Now().Truncate(time.Second)
	a.SetLastSync(models.ProviderOura, when)
	if err := db.UpdateAccount(a); err != nil {
		t.Fatalf("UpdateAccount failed: %v", err)
	}

	got, err := db.GetAccount(a.ID)
	if err != nil {
		t.Fatalf("GetAccount failed: %v", err)
	}
	if got.LastOuraSync == nil || !got.LastOuraSync.Equal(when) {
		t.Errorf("LastOuraSync mismatch: %v", got.LastOuraSync)
	}
	if got.LastFitbitSync != nil {
		t.Error("LastFitbitSync should remain unset")
	}
}

func TestListSyncEnabledAccounts(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	enabled := models.NewAccount("on@example.com")
	enabled.SyncEnabled = true
	enabled.SyncFrequency = models.FrequencyDaily
	disabled := models.NewAccount("off@example.com")

	for _, a := range []*models.Account{enabled, disabled} {
		if err := db.CreateAccount(a); err != nil {
			t.Fatalf("CreateAccount failed: %v", err)
		}
	}

	accounts, err := db.ListSyncEnabledAccounts()
	if err != nil {
		t.Fatalf("ListSyncEnabledAccounts failed: %v", err)
	}
	if len(accounts) != 1 || accounts[0].ID != enabled.ID {
		t.Errorf("Expected only the enabled account, got %d", len(accounts))
	}
}

func TestGetGraphByName(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	g := models.NewGraph("Oura sync", "Imported Oura metrics")
	if err := db.CreateGraph(g); err != nil {
		t.Fatalf("CreateGraph failed: %v", err)
	}

	got, err := db.GetGraphByName("Oura sync")
	if err != nil {
		t.Fatalf("GetGraphByName failed: %v", err)
	}
	if got.ID != g.ID {
		t.Errorf("ID mismatch: got %v, want %v", got.ID, g.ID)
	}

	if _, err := db.GetGraphByName("missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func mustDate(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := models.ParseDate(s)
	if err != nil {
		t.Fatalf("ParseDate(%q) failed: %v", s, err)
	}
	return d
}

func setupTestDB(t *testing.T) *DB {
	t.Helper()

	tmpDir, err := os.MkdirTemp("", "biodash-test-*")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	t.Cleanup(func() { _ = os.RemoveAll(tmpDir) })

	dbPath := filepath.Join(tmpDir, "biodash.db")
	db, err := Open(dbPath)
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	return db
}

var _ Repository = (*DB)(nil)
