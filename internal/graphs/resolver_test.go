// ABOUTME: Tests for the graph resolver and explorer workflows.
// ABOUTME: Exercises dynamic/static resolution, the empty placeholder, and prompt payloads.
package graphs

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/harperreed/biodash/internal/models"
	"github.com/harperreed/biodash/internal/storage"
)

func TestResolveDynamicUsesTrackedOrderAndWholeStore(t *testing.T) {
	repo := setupTestRepo(t)
	resolver := NewResolver(repo)

	other := models.NewGraph("Other", "")
	if err := repo.CreateGraph(other); err != nil {
		t.Fatalf("CreateGraph failed: %v", err)
	}

	// steps points both store-level and owned by another graph
	mustUpsert(t, repo, []models.PointCandidate{
		{Date: date(t, "2025-06-01"), MetricName: "steps", Value: 8000},
		{Date: date(t, "2025-06-02"), MetricName: "steps", Value: 8200, GraphID: &other.ID},
		{Date: date(t, "2025-06-01"), MetricName: "average_hrv", Value: 42},
	})

	g := models.NewGraph("Activity", "").WithTrackedMetrics([]string{"steps", "average_hrv"})
	series, err := resolver.Resolve(g)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}

	if len(series) != 2 {
		t.Fatalf("Expected 2 series, got %d", len(series))
	}
	// Declared order, not lexicographic
	if series[0].Name != "steps" || series[1].Name != "average_hrv" {
		t.Errorf("Series out of declared order: %s, %s", series[0].Name, series[1].Name)
	}
	// Whole store: both the store-level and graph-owned steps points appear
	if len(series[0].Points) != 2 {
		t.Errorf("Expected 2 steps points from whole store, got %d", len(series[0].Points))
	}
}

func TestResolveStaticGroupsOwnedPointsLexicographically(t *testing.T) {
	repo := setupTestRepo(t)
	resolver := NewResolver(repo)

	g := models.NewGraph("Manual", "")
	if err := repo.CreateGraph(g); err != nil {
		t.Fatalf("CreateGraph failed: %v", err)
	}

	mustUpsert(t, repo, []models.PointCandidate{
		{Date: date(t, "2025-06-01"), MetricName: "steps", Value: 8000, GraphID: &g.ID},
		{Date: date(t, "2025-06-02"), MetricName: "steps", Value: 8200, GraphID: &g.ID},
		{Date: date(t, "2025-06-01"), MetricName: "mood", Value: 7, GraphID: &g.ID},
		// Store-level point that must not leak into a static graph
		{Date: date(t, "2025-06-01"), MetricName: "weight", Value: 82},
	})

	series, err := resolver.Resolve(g)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if len(series) != 2 {
		t.Fatalf("Expected 2 series, got %d", len(series))
	}
	if series[0].Name != "mood" || series[1].Name != "steps" {
		t.Errorf("Expected lexicographic order, got %s, %s", series[0].Name, series[1].Name)
	}
	if len(series[1].Points) != 2 {
		t.Errorf("Expected 2 steps points, got %d", len(series[1].Points))
	}
	if !series[1].Points[0].Date.Before(series[1].Points[1].Date) {
		t.Error("Points not in date order")
	}
}

func TestResolveEmptyGraphYieldsPlaceholder(t *testing.T) {
	repo := setupTestRepo(t)
	resolver := NewResolver(repo)

	g := models.NewGraph("Fresh", "")
	if err := repo.CreateGraph(g); err != nil {
		t.Fatalf("CreateGraph failed: %v", err)
	}

	series, err := resolver.Resolve(g)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if len(series) != 1 || series[0].Name != EmptySeriesName {
		t.Errorf("Expected single %q series, got %+v", EmptySeriesName, series)
	}
	if len(series[0].Points) != 0 {
		t.Errorf("Placeholder series should have no points")
	}

	// Dynamic graph tracking a metric with no data also collapses to the placeholder
	dyn := models.NewGraph("Dyn", "").WithTrackedMetrics([]string{"never_recorded"})
	series, err = resolver.Resolve(dyn)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if len(series) != 1 || series[0].Name != EmptySeriesName {
		t.Errorf("Expected placeholder for dataless dynamic graph, got %+v", series)
	}
}

func TestPromptPayloadFormat(t *testing.T) {
	repo := setupTestRepo(t)
	resolver := NewResolver(repo)

	mustUpsert(t, repo, []models.PointCandidate{
		{Date: date(t, "2025-06-02"), MetricName: "steps", Value: 8200},
		{Date: date(t, "2025-06-01"), MetricName: "steps", Value: 8000},
		{Date: date(t, "2025-06-01"), MetricName: "average_hrv", Value: 42.5},
	})

	g := models.NewGraph("Activity", "").WithTrackedMetrics([]string{"steps", "average_hrv"})
	payload, err := resolver.PromptPayload(g)
	if err != nil {
		t.Fatalf("PromptPayload failed: %v", err)
	}

	want := "2025-06-01: average_hrv = 42.5\n" +
		"2025-06-01: steps = 8000\n" +
		"2025-06-02: steps = 8200\n"
	if payload != want {
		t.Errorf("Payload mismatch:\ngot:\n%s\nwant:\n%s", payload, want)
	}
}

func TestExplorerLifecycle(t *testing.T) {
	repo := setupTestRepo(t)
	svc := NewService(repo)

	g, err := svc.StartExplorer()
	if err != nil {
		t.Fatalf("StartExplorer failed: %v", err)
	}
	if !g.IsTemporary {
		t.Error("Explorer graph should be temporary")
	}

	// Hidden from the default listing
	visible, err := repo.ListGraphs(false)
	if err != nil {
		t.Fatalf("ListGraphs failed: %v", err)
	}
	if len(visible) != 0 {
		t.Errorf("Temporary graph leaked into listing: %d graphs", len(visible))
	}

	saved, err := svc.SaveExplorer(g.ID, "Sleep deep dive", "exploring sleep stages")
	if err != nil {
		t.Fatalf("SaveExplorer failed: %v", err)
	}
	if saved.IsTemporary || saved.Name != "Sleep deep dive" {
		t.Errorf("Save did not promote graph: %+v", saved)
	}

	// Saving twice fails: the graph is no longer temporary
	if _, err := svc.SaveExplorer(g.ID, "again", ""); err == nil {
		t.Error("Expected error saving a non-temporary graph")
	}
}

func TestCancelExplorerDiscardsGraphAndPoints(t *testing.T) {
	repo := setupTestRepo(t)
	svc := NewService(repo)

	g, err := svc.StartExplorer()
	if err != nil {
		t.Fatalf("StartExplorer failed: %v", err)
	}
	mustUpsert(t, repo, []models.PointCandidate{
		{Date: date(t, "2025-06-01"), MetricName: "mood", Value: 7, GraphID: &g.ID},
	})

	if err := svc.CancelExplorer(g.ID); err != nil {
		t.Fatalf("CancelExplorer failed: %v", err)
	}

	if _, err := repo.GetGraph(g.ID); err == nil {
		t.Error("Cancelled explorer graph still exists")
	}
	points, err := repo.QueryPoints(storage.PointFilter{MetricName: "mood"})
	if err != nil {
		t.Fatalf("QueryPoints failed: %v", err)
	}
	if len(points) != 0 {
		t.Errorf("Owned points survived cancel: %d", len(points))
	}
}

func TestConvertToDynamic(t *testing.T) {
	repo := setupTestRepo(t)
	svc := NewService(repo)

	g := models.NewGraph("Static", "")
	if err := repo.CreateGraph(g); err != nil {
		t.Fatalf("CreateGraph failed: %v", err)
	}
	mustUpsert(t, repo, []models.PointCandidate{
		{Date: date(t, "2025-06-01"), MetricName: "steps", Value: 8000, GraphID: &g.ID},
		{Date: date(t, "2025-06-01"), MetricName: "average_hrv", Value: 42, GraphID: &g.ID},
	})

	converted, err := svc.ConvertToDynamic(g.ID)
	if err != nil {
		t.Fatalf("ConvertToDynamic failed: %v", err)
	}
	if !converted.IsDynamic() {
		t.Fatal("Graph not dynamic after conversion")
	}
	if len(converted.TrackedMetrics) != 2 || converted.TrackedMetrics[0] != "average_hrv" {
		t.Errorf("Unexpected tracked metrics: %v", converted.TrackedMetrics)
	}

	// A graph with no owned points cannot be converted
	empty := models.NewGraph("Empty", "")
	if err := repo.CreateGraph(empty); err != nil {
		t.Fatalf("CreateGraph failed: %v", err)
	}
	if _, err := svc.ConvertToDynamic(empty.ID); err == nil {
		t.Error("Expected error converting pointless graph")
	}
}

func TestConvertAllToDynamicSkipsEmptyAndDynamic(t *testing.T) {
	repo := setupTestRepo(t)
	svc := NewService(repo)

	withPoints := models.NewGraph("A", "")
	alreadyDynamic := models.NewGraph("B", "").WithTrackedMetrics([]string{"steps"})
	noPoints := models.NewGraph("C", "")
	for _, g := range []*models.Graph{withPoints, alreadyDynamic, noPoints} {
		if err := repo.CreateGraph(g); err != nil {
			t.Fatalf("CreateGraph failed: %v", err)
		}
	}
	mustUpsert(t, repo, []models.PointCandidate{
		{Date: date(t, "2025-06-01"), MetricName: "mood", Value: 7, GraphID: &withPoints.ID},
	})

	n, err := svc.ConvertAllToDynamic()
	if err != nil {
		t.Fatalf("ConvertAllToDynamic failed: %v", err)
	}
	if n != 1 {
		t.Errorf("Expected 1 conversion, got %d", n)
	}
}

func mustUpsert(t *testing.T, repo storage.Repository, candidates []models.PointCandidate) {
	t.Helper()
	if _, err := repo.UpsertPoints(candidates); err != nil {
		t.Fatalf("UpsertPoints failed: %v", err)
	}
}

func date(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := models.ParseDate(s)
	if err != nil {
		t.Fatalf("ParseDate(%q) failed: %v", s, err)
	}
	return d
}

func setupTestRepo(t *testing.T) storage.Repository {
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
	return db
}
