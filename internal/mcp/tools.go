// ABOUTME: MCP tool implementations for the metrics dashboard.
// ABOUTME: Graph, point, experiment, and sync operations for LLM clients.
package mcp

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/harperreed/biodash/internal/models"
	"github.com/harperreed/biodash/internal/storage"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

func (s *Server) registerTools() {
	// Points
	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "add_point",
		Description: "Record a metric value for a date (e.g. mood, weight, steps)",
	}, s.handleAddPoint)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "list_points",
		Description: "List stored points, optionally filtered by metric name and date range",
	}, s.handleListPoints)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "list_metric_names",
		Description: "List all distinct metric names in the store",
	}, s.handleListMetricNames)

	// Dashboard
	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "select_dashboard_metrics",
		Description: "Pin metric names to the dashboard for a provider or device",
	}, s.handleSelectDashboardMetrics)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "get_dashboard",
		Description: "Show pinned dashboard metrics with their latest values",
	}, s.handleGetDashboard)

	// Graphs
	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "list_graphs",
		Description: "List saved graphs",
	}, s.handleListGraphs)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "create_graph",
		Description: "Create a graph, optionally tracking metrics dynamically",
	}, s.handleCreateGraph)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "get_graph_data",
		Description: "Resolve a graph into its data series",
	}, s.handleGetGraphData)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "get_graph_prompt",
		Description: "Render a graph's data as plain text lines for summarization",
	}, s.handleGetGraphPrompt)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "delete_graph",
		Description: "Delete a graph and the points it owns",
	}, s.handleDeleteGraph)

	// Experiments
	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "create_experiment",
		Description: "Create a behavioral experiment tracking one metric against a benchmark",
	}, s.handleCreateExperiment)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "list_experiments",
		Description: "List experiments, newest first",
	}, s.handleListExperiments)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "get_experiment_stats",
		Description: "Get benchmark, current value, and improvement for an experiment",
	}, s.handleExperimentStats)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "get_experiment_table",
		Description: "Get the 7-day tracking table for an experiment",
	}, s.handleExperimentTable)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "complete_experiment",
		Description: "End an experiment, setting its end date to today if unset",
	}, s.handleCompleteExperiment)

	// Sync
	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "sync_now",
		Description: "Run a provider sync (oura or fitbit) for the configured account",
	}, s.handleSyncNow)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "sync_history",
		Description: "Show recent sync runs with success and failure tallies",
	}, s.handleSyncHistory)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "sync_status",
		Description: "Show automatic sync schedule settings and last sync times",
	}, s.handleSyncStatus)
}

// Tool input/output types

type addPointInput struct {
	Date       string  `json:"date" jsonschema:"Date (YYYY-MM-DD)"`
	MetricName string  `json:"metric_name" jsonschema:"Metric name (snake_case)"`
	Value      float64 `json:"value" jsonschema:"The value"`
	GraphID    string  `json:"graph_id,omitempty" jsonschema:"Owning graph ID for graph-scoped points"`
}

type simpleOutput struct {
	Message string `json:"message"`
}

type listPointsInput struct {
	MetricName string `json:"metric_name,omitempty" jsonschema:"Filter by metric name"`
	From       string `json:"from,omitempty" jsonschema:"Start date (YYYY-MM-DD) inclusive"`
	To         string `json:"to,omitempty" jsonschema:"End date (YYYY-MM-DD) inclusive"`
}

type pointOutput struct {
	Date       string  `json:"date"`
	MetricName string  `json:"metric_name"`
	Value      float64 `json:"value"`
	Unit       string  `json:"unit,omitempty"`
}

type selectDashboardInput struct {
	Device      string   `json:"device" jsonschema:"Provider or device name (e.g. oura)"`
	MetricNames []string `json:"metric_names,omitempty" jsonschema:"Metric names to pin; empty clears the device"`
}

type dashboardEntryOutput struct {
	MetricName  string   `json:"metric_name"`
	DisplayName string   `json:"display_name"`
	Unit        string   `json:"unit,omitempty"`
	Date        string   `json:"date,omitempty"`
	Value       *float64 `json:"value"`
}

type createGraphInput struct {
	Name           string   `json:"name" jsonschema:"Graph name"`
	Description    string   `json:"description,omitempty" jsonschema:"Graph description"`
	TrackedMetrics []string `json:"tracked_metrics,omitempty" jsonschema:"Metric names to track dynamically"`
}

type graphOutput struct {
	ID             string   `json:"id"`
	Name           string   `json:"name"`
	Description    string   `json:"description,omitempty"`
	Dynamic        bool     `json:"dynamic"`
	TrackedMetrics []string `json:"tracked_metrics,omitempty"`
}

type graphIDInput struct {
	GraphID string `json:"graph_id" jsonschema:"Graph ID"`
}

type seriesOutput struct {
	Name   string        `json:"name"`
	Points []pointOutput `json:"points"`
}

type createExperimentInput struct {
	Title            string `json:"title" jsonschema:"Experiment title"`
	MetricOfInterest string `json:"metric_of_interest" jsonschema:"Metric name to track"`
	Period           string `json:"period" jsonschema:"Period: 1-week, 2-weeks, 1-month, or custom"`
	Benchmark        string `json:"benchmark,omitempty" jsonschema:"Benchmark strategy (default avg-7-days)"`
	Description      string `json:"description,omitempty" jsonschema:"What the experiment changes"`
	Driver           string `json:"driver,omitempty" jsonschema:"Why this experiment matters"`
	StartDate        string `json:"start_date,omitempty" jsonschema:"Explicit start date (YYYY-MM-DD)"`
	EndDate          string `json:"end_date,omitempty" jsonschema:"Explicit end date (YYYY-MM-DD)"`
}

type experimentOutput struct {
	ID               string `json:"id"`
	Title            string `json:"title"`
	MetricOfInterest string `json:"metric_of_interest"`
	Period           string `json:"period"`
	StartDate        string `json:"start_date,omitempty"`
	EndDate          string `json:"end_date,omitempty"`
	State            string `json:"state"`
	Message          string `json:"message,omitempty"`
}

type experimentIDInput struct {
	ExperimentID string `json:"experiment_id" jsonschema:"Experiment ID"`
}

type statsOutput struct {
	BenchmarkValue  *float64 `json:"benchmark_value"`
	BenchmarkPeriod string   `json:"benchmark_period"`
	CurrentValue    *float64 `json:"current_value"`
	CurrentPeriod   string   `json:"current_period"`
	ImprovementPct  *float64 `json:"improvement_percentage"`
	DataPointsCount int      `json:"data_points_count"`
}

type tableRowOutput struct {
	Date      string   `json:"date"`
	Value     *float64 `json:"value"`
	HasData   bool     `json:"has_data"`
	Deviation *float64 `json:"deviation"`
}

type syncNowInput struct {
	Provider string `json:"provider" jsonschema:"Provider name: oura or fitbit"`
}

type syncRunOutput struct {
	Provider        string `json:"provider"`
	Status          string `json:"status"`
	RecordsImported int    `json:"records_imported"`
	Window          string `json:"window,omitempty"`
	Message         string `json:"message"`
}

type syncHistoryInput struct {
	Limit int `json:"limit,omitempty" jsonschema:"Max runs to return (default 20)"`
}

// Tool handlers

func (s *Server) handleAddPoint(ctx context.Context, req *mcp.CallToolRequest, input addPointInput) (*mcp.CallToolResult, simpleOutput, error) {
	date, err := models.ParseDate(input.Date)
	if err != nil {
		return nil, simpleOutput{}, fmt.Errorf("invalid date %q: %w", input.Date, err)
	}

	candidate := models.PointCandidate{Date: date, MetricName: input.MetricName, Value: input.Value}
	if input.GraphID != "" {
		gid, err := uuid.Parse(input.GraphID)
		if err != nil {
			return nil, simpleOutput{}, fmt.Errorf("invalid graph id: %w", err)
		}
		candidate.GraphID = &gid
	}

	inserted, err := s.repo.UpsertPoints([]models.PointCandidate{candidate})
	if err != nil {
		return nil, simpleOutput{}, fmt.Errorf("failed to add point: %w", err)
	}
	if inserted == 0 {
		return nil, simpleOutput{
			Message: fmt.Sprintf("%s already has a %s value for that scope; left unchanged", input.Date, input.MetricName),
		}, nil
	}
	return nil, simpleOutput{
		Message: fmt.Sprintf("Recorded %s = %.2f on %s", input.MetricName, input.Value, input.Date),
	}, nil
}

func (s *Server) handleListPoints(ctx context.Context, req *mcp.CallToolRequest, input listPointsInput) (*mcp.CallToolResult, any, error) {
	filter, err := buildPointFilter(input)
	if err != nil {
		return nil, nil, err
	}

	points, err := s.repo.QueryPoints(filter)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list points: %w", err)
	}
	if len(points) == 0 {
		return nil, map[string]interface{}{"message": "No points found."}, nil
	}
	return nil, toPointOutputs(points), nil
}

func (s *Server) handleListMetricNames(ctx context.Context, req *mcp.CallToolRequest, input struct{}) (*mcp.CallToolResult, any, error) {
	names, err := s.repo.DistinctMetricNames("")
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list metric names: %w", err)
	}
	if len(names) == 0 {
		return nil, map[string]interface{}{"message": "The store is empty."}, nil
	}
	return nil, names, nil
}

func (s *Server) handleSelectDashboardMetrics(ctx context.Context, req *mcp.CallToolRequest, input selectDashboardInput) (*mcp.CallToolResult, simpleOutput, error) {
	if input.Device == "" {
		return nil, simpleOutput{}, fmt.Errorf("device is required")
	}

	account, err := s.repo.GetAccount(s.accountID)
	if err != nil {
		return nil, simpleOutput{}, fmt.Errorf("failed to load account: %w", err)
	}

	if len(input.MetricNames) == 0 {
		delete(account.SelectedDashboardMetrics, input.Device)
	} else {
		if account.SelectedDashboardMetrics == nil {
			account.SelectedDashboardMetrics = make(map[string][]string)
		}
		account.SelectedDashboardMetrics[input.Device] = input.MetricNames
	}

	if err := s.repo.UpdateAccount(account); err != nil {
		return nil, simpleOutput{}, fmt.Errorf("failed to save selection: %w", err)
	}

	if len(input.MetricNames) == 0 {
		return nil, simpleOutput{Message: fmt.Sprintf("Cleared dashboard selection for %s", input.Device)}, nil
	}
	return nil, simpleOutput{
		Message: fmt.Sprintf("Pinned %d metric(s) for %s", len(input.MetricNames), input.Device),
	}, nil
}

func (s *Server) handleGetDashboard(ctx context.Context, req *mcp.CallToolRequest, input struct{}) (*mcp.CallToolResult, any, error) {
	account, err := s.repo.GetAccount(s.accountID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load account: %w", err)
	}
	if len(account.SelectedDashboardMetrics) == 0 {
		return nil, map[string]interface{}{"message": "No dashboard metrics selected."}, nil
	}

	out := make(map[string][]dashboardEntryOutput, len(account.SelectedDashboardMetrics))
	for device, names := range account.SelectedDashboardMetrics {
		entries := make([]dashboardEntryOutput, 0, len(names))
		for _, name := range names {
			entry := dashboardEntryOutput{
				MetricName:  name,
				DisplayName: models.DisplayName(name),
				Unit:        models.MetricUnit(name),
			}
			if p, err := s.repo.LatestPoint(name); err == nil {
				entry.Date = p.Date.Format(models.DateFormat)
				v := p.Value
				entry.Value = &v
			}
			entries = append(entries, entry)
		}
		out[device] = entries
	}
	return nil, out, nil
}

func (s *Server) handleListGraphs(ctx context.Context, req *mcp.CallToolRequest, input struct{}) (*mcp.CallToolResult, any, error) {
	all, err := s.repo.ListGraphs(false)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list graphs: %w", err)
	}
	if len(all) == 0 {
		return nil, map[string]interface{}{"message": "No graphs yet."}, nil
	}

	out := make([]graphOutput, 0, len(all))
	for _, g := range all {
		out = append(out, toGraphOutput(g))
	}
	return nil, out, nil
}

func (s *Server) handleCreateGraph(ctx context.Context, req *mcp.CallToolRequest, input createGraphInput) (*mcp.CallToolResult, graphOutput, error) {
	g := models.NewGraph(input.Name, input.Description)
	if len(input.TrackedMetrics) > 0 {
		g.WithTrackedMetrics(input.TrackedMetrics)
	}
	if err := s.repo.CreateGraph(g); err != nil {
		return nil, graphOutput{}, fmt.Errorf("failed to create graph: %w", err)
	}
	return nil, toGraphOutput(g), nil
}

func (s *Server) handleGetGraphData(ctx context.Context, req *mcp.CallToolRequest, input graphIDInput) (*mcp.CallToolResult, any, error) {
	g, err := s.getGraph(input.GraphID)
	if err != nil {
		return nil, nil, err
	}

	series, err := s.resolver.Resolve(g)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to resolve graph: %w", err)
	}

	out := make([]seriesOutput, 0, len(series))
	for _, sr := range series {
		out = append(out, seriesOutput{Name: sr.Name, Points: toPointOutputs(sr.Points)})
	}
	return nil, out, nil
}

func (s *Server) handleGetGraphPrompt(ctx context.Context, req *mcp.CallToolRequest, input graphIDInput) (*mcp.CallToolResult, simpleOutput, error) {
	g, err := s.getGraph(input.GraphID)
	if err != nil {
		return nil, simpleOutput{}, err
	}
	payload, err := s.resolver.PromptPayload(g)
	if err != nil {
		return nil, simpleOutput{}, fmt.Errorf("failed to build prompt payload: %w", err)
	}
	if payload == "" {
		payload = "No data."
	}
	return nil, simpleOutput{Message: payload}, nil
}

func (s *Server) handleDeleteGraph(ctx context.Context, req *mcp.CallToolRequest, input graphIDInput) (*mcp.CallToolResult, simpleOutput, error) {
	g, err := s.getGraph(input.GraphID)
	if err != nil {
		return nil, simpleOutput{}, err
	}
	if err := s.repo.DeleteGraph(g.ID); err != nil {
		return nil, simpleOutput{}, fmt.Errorf("failed to delete graph: %w", err)
	}
	return nil, simpleOutput{Message: fmt.Sprintf("Deleted graph %q and its owned points", g.Name)}, nil
}

func (s *Server) handleCreateExperiment(ctx context.Context, req *mcp.CallToolRequest, input createExperimentInput) (*mcp.CallToolResult, experimentOutput, error) {
	benchmark := input.Benchmark
	if benchmark == "" {
		benchmark = models.BenchmarkAvg7Days
	}

	exp := models.NewExperiment(input.Title, input.MetricOfInterest, benchmark, input.Period)
	exp.Description = input.Description
	exp.Driver = input.Driver

	if input.StartDate != "" {
		start, err := models.ParseDate(input.StartDate)
		if err != nil {
			return nil, experimentOutput{}, fmt.Errorf("invalid start date: %w", err)
		}
		exp.StartDate = &start
	}
	if input.EndDate != "" {
		end, err := models.ParseDate(input.EndDate)
		if err != nil {
			return nil, experimentOutput{}, fmt.Errorf("invalid end date: %w", err)
		}
		exp.EndDate = &end
	}
	s.engine.AutoCalculateDates(exp)

	if err := s.repo.CreateExperiment(exp); err != nil {
		return nil, experimentOutput{}, fmt.Errorf("failed to create experiment: %w", err)
	}

	out := toExperimentOutput(exp, s.engine.Now())
	out.Message = fmt.Sprintf("Created experiment %q tracking %s", exp.Title, exp.MetricOfInterest)
	return nil, out, nil
}

func (s *Server) handleListExperiments(ctx context.Context, req *mcp.CallToolRequest, input struct{}) (*mcp.CallToolResult, any, error) {
	all, err := s.repo.ListExperiments()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list experiments: %w", err)
	}
	if len(all) == 0 {
		return nil, map[string]interface{}{"message": "No experiments yet."}, nil
	}

	now := s.engine.Now()
	out := make([]experimentOutput, 0, len(all))
	for _, exp := range all {
		out = append(out, toExperimentOutput(exp, now))
	}
	return nil, out, nil
}

func (s *Server) handleExperimentStats(ctx context.Context, req *mcp.CallToolRequest, input experimentIDInput) (*mcp.CallToolResult, statsOutput, error) {
	exp, err := s.getExperiment(input.ExperimentID)
	if err != nil {
		return nil, statsOutput{}, err
	}

	stats, err := s.engine.Stats(exp)
	if err != nil {
		return nil, statsOutput{}, fmt.Errorf("failed to compute stats: %w", err)
	}
	return nil, statsOutput{
		BenchmarkValue:  stats.Benchmark.Value,
		BenchmarkPeriod: stats.Benchmark.Period,
		CurrentValue:    stats.Current.Value,
		CurrentPeriod:   stats.Current.Period,
		ImprovementPct:  stats.ImprovementPct,
		DataPointsCount: stats.Benchmark.Count,
	}, nil
}

func (s *Server) handleExperimentTable(ctx context.Context, req *mcp.CallToolRequest, input experimentIDInput) (*mcp.CallToolResult, any, error) {
	exp, err := s.getExperiment(input.ExperimentID)
	if err != nil {
		return nil, nil, err
	}

	rows, err := s.engine.TableData(exp)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to build table: %w", err)
	}

	out := make([]tableRowOutput, 0, len(rows))
	for _, row := range rows {
		out = append(out, tableRowOutput{
			Date:      row.Date.Format(models.DateFormat),
			Value:     row.Value,
			HasData:   row.HasData,
			Deviation: row.Deviation,
		})
	}
	return nil, out, nil
}

func (s *Server) handleCompleteExperiment(ctx context.Context, req *mcp.CallToolRequest, input experimentIDInput) (*mcp.CallToolResult, experimentOutput, error) {
	exp, err := s.getExperiment(input.ExperimentID)
	if err != nil {
		return nil, experimentOutput{}, err
	}

	done, err := s.engine.Complete(exp.ID)
	if err != nil {
		return nil, experimentOutput{}, fmt.Errorf("failed to complete experiment: %w", err)
	}
	out := toExperimentOutput(done, s.engine.Now())
	out.Message = fmt.Sprintf("Experiment %q ended on %s", done.Title, out.EndDate)
	return nil, out, nil
}

func (s *Server) handleSyncNow(ctx context.Context, req *mcp.CallToolRequest, input syncNowInput) (*mcp.CallToolResult, syncRunOutput, error) {
	result, err := s.coord.Run(ctx, s.accountID, input.Provider, models.SyncTypeManual)
	if err != nil {
		return nil, syncRunOutput{}, err
	}
	if result.NoOp {
		return nil, syncRunOutput{
			Provider: input.Provider,
			Status:   "up_to_date",
			Message:  "Already up to date; nothing to sync.",
		}, nil
	}
	return nil, syncRunOutput{
		Provider:        input.Provider,
		Status:          result.Log.Status,
		RecordsImported: result.Imported,
		Window: fmt.Sprintf("%s to %s",
			result.Log.StartDate.Format(models.DateFormat),
			result.Log.EndDate.Format(models.DateFormat)),
		Message: fmt.Sprintf("Imported %d new points from %s", result.Imported, input.Provider),
	}, nil
}

func (s *Server) handleSyncHistory(ctx context.Context, req *mcp.CallToolRequest, input syncHistoryInput) (*mcp.CallToolResult, any, error) {
	logs, succeeded, failed, err := s.coord.History(s.accountID, input.Limit)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load sync history: %w", err)
	}
	if len(logs) == 0 {
		return nil, map[string]interface{}{"message": "No sync runs yet."}, nil
	}

	runs := make([]map[string]interface{}, 0, len(logs))
	for _, l := range logs {
		run := map[string]interface{}{
			"provider":         l.Provider,
			"sync_type":        l.SyncType,
			"status":           l.Status,
			"window":           l.StartDate.Format(models.DateFormat) + " to " + l.EndDate.Format(models.DateFormat),
			"records_imported": l.RecordsImported,
			"started_at":       l.StartedAt,
		}
		if l.ErrorMessage != nil {
			run["error"] = *l.ErrorMessage
		}
		if d := l.Duration(); d != nil {
			run["duration"] = d.String()
		}
		runs = append(runs, run)
	}
	return nil, map[string]interface{}{
		"succeeded": succeeded,
		"failed":    failed,
		"runs":      runs,
	}, nil
}

func (s *Server) handleSyncStatus(ctx context.Context, req *mcp.CallToolRequest, input struct{}) (*mcp.CallToolResult, any, error) {
	status, err := s.scheduler.Status(s.accountID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load sync status: %w", err)
	}
	out := map[string]interface{}{
		"enabled":   status.Enabled,
		"frequency": status.Frequency,
	}
	if status.NextRun != nil {
		out["next_run"] = status.NextRun
	}
	if status.LastOura != nil {
		out["last_oura_sync"] = status.LastOura
	}
	if status.LastFitbit != nil {
		out["last_fitbit_sync"] = status.LastFitbit
	}
	return nil, out, nil
}

// Helpers

func (s *Server) getGraph(id string) (*models.Graph, error) {
	gid, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("invalid graph id: %w", err)
	}
	g, err := s.repo.GetGraph(gid)
	if err != nil {
		return nil, fmt.Errorf("graph not found: %w", err)
	}
	return g, nil
}

func (s *Server) getExperiment(id string) (*models.Experiment, error) {
	eid, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("invalid experiment id: %w", err)
	}
	exp, err := s.repo.GetExperiment(eid)
	if err != nil {
		return nil, fmt.Errorf("experiment not found: %w", err)
	}
	return exp, nil
}

func buildPointFilter(input listPointsInput) (storage.PointFilter, error) {
	filter := storage.PointFilter{MetricName: input.MetricName}
	if input.From != "" {
		from, err := models.ParseDate(input.From)
		if err != nil {
			return filter, fmt.Errorf("invalid from date: %w", err)
		}
		filter.From = &from
	}
	if input.To != "" {
		to, err := models.ParseDate(input.To)
		if err != nil {
			return filter, fmt.Errorf("invalid to date: %w", err)
		}
		filter.To = &to
	}
	return filter, nil
}

func toPointOutputs(points []*models.MetricPoint) []pointOutput {
	out := make([]pointOutput, 0, len(points))
	for _, p := range points {
		out = append(out, pointOutput{
			Date:       p.Date.Format(models.DateFormat),
			MetricName: p.MetricName,
			Value:      p.Value,
			Unit:       models.MetricUnit(p.MetricName),
		})
	}
	return out
}

func toGraphOutput(g *models.Graph) graphOutput {
	return graphOutput{
		ID:             g.ID.String(),
		Name:           g.Name,
		Description:    g.Description,
		Dynamic:        g.IsDynamic(),
		TrackedMetrics: g.TrackedMetrics,
	}
}

func toExperimentOutput(exp *models.Experiment, now time.Time) experimentOutput {
	out := experimentOutput{
		ID:               exp.ID.String(),
		Title:            exp.Title,
		MetricOfInterest: exp.MetricOfInterest,
		Period:           exp.Period,
		State:            exp.State(now),
	}
	if exp.StartDate != nil {
		out.StartDate = exp.StartDate.Format(models.DateFormat)
	}
	if exp.EndDate != nil {
		out.EndDate = exp.EndDate.Format(models.DateFormat)
	}
	return out
}
