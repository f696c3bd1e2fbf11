// ABOUTME: MCP resource implementations for the metrics dashboard.
// ABOUTME: Provides biodash://recent and biodash://summary read-only views.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/harperreed/biodash/internal/models"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

func (s *Server) registerResources() {
	// biodash://recent - latest recorded points
	s.mcpServer.AddResource(&mcp.Resource{
		URI:         "biodash://recent",
		Name:        "Recent Metrics",
		Description: "The most recently recorded metric points",
		MIMEType:    "application/json",
	}, s.handleRecentResource)

	// biodash://summary - store overview
	s.mcpServer.AddResource(&mcp.Resource{
		URI:         "biodash://summary",
		Name:        "Store Summary",
		Description: "Metric names, latest values, and saved graphs",
		MIMEType:    "application/json",
	}, s.handleSummaryResource)
}

// Resource handlers

func (s *Server) handleRecentResource(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	points, err := s.repo.RecentPoints(10)
	if err != nil {
		return nil, fmt.Errorf("failed to load recent points: %w", err)
	}

	entries := make([]map[string]interface{}, 0, len(points))
	for _, p := range points {
		entries = append(entries, map[string]interface{}{
			"date":         p.Date.Format(models.DateFormat),
			"metric_name":  p.MetricName,
			"display_name": models.DisplayName(p.MetricName),
			"value":        p.Value,
			"unit":         models.MetricUnit(p.MetricName),
			"category":     models.MetricCategory(p.MetricName),
		})
	}

	return jsonResource("biodash://recent", map[string]interface{}{"recent": entries})
}

func (s *Server) handleSummaryResource(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	names, err := s.repo.DistinctMetricNames("")
	if err != nil {
		return nil, fmt.Errorf("failed to list metric names: %w", err)
	}

	latest := make(map[string]interface{}, len(names))
	for _, name := range names {
		p, err := s.repo.LatestPoint(name)
		if err != nil {
			continue
		}
		latest[name] = map[string]interface{}{
			"date":  p.Date.Format(models.DateFormat),
			"value": p.Value,
			"unit":  models.MetricUnit(name),
		}
	}

	graphList, err := s.repo.ListGraphs(false)
	if err != nil {
		return nil, fmt.Errorf("failed to list graphs: %w", err)
	}
	graphInfo := make([]map[string]interface{}, 0, len(graphList))
	for _, g := range graphList {
		graphInfo = append(graphInfo, map[string]interface{}{
			"id":      g.ID.String(),
			"name":    g.Name,
			"dynamic": g.IsDynamic(),
		})
	}

	return jsonResource("biodash://summary", map[string]interface{}{
		"metric_names": names,
		"latest":       latest,
		"graphs":       graphInfo,
	})
}

func jsonResource(uri string, payload interface{}) (*mcp.ReadResourceResult, error) {
	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal result: %w", err)
	}
	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}
