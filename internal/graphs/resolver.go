// ABOUTME: Graph resolver - turns a graph definition into renderable series.
// ABOUTME: Dynamic graphs read the whole store; static graphs read owned points only.
package graphs

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/harperreed/biodash/internal/models"
	"github.com/harperreed/biodash/internal/storage"
)

// EmptySeriesName labels the placeholder series of a graph with no data.
const EmptySeriesName = "Empty"

// Series is one named line of a resolved graph, points in date order.
type Series struct {
	Name   string
	Points []*models.MetricPoint
}

// Resolver materializes graph definitions against the point store.
type Resolver struct {
	repo storage.Repository
}

// NewResolver creates a resolver backed by the given repository.
func NewResolver(repo storage.Repository) *Resolver {
	return &Resolver{repo: repo}
}

// Resolve returns the series for a graph. A dynamic graph yields one series
// per tracked metric, in declared order, drawn from the entire store. A
// static graph yields one series per distinct metric among its owned points,
// names sorted lexicographically. A graph with no data at all yields a
// single empty placeholder series.
func (r *Resolver) Resolve(g *models.Graph) ([]Series, error) {
	var series []Series
	var err error
	if g.IsDynamic() {
		series, err = r.resolveDynamic(g)
	} else {
		series, err = r.resolveStatic(g)
	}
	if err != nil {
		return nil, err
	}

	total := 0
	for _, s := range series {
		total += len(s.Points)
	}
	if total == 0 {
		return []Series{{Name: EmptySeriesName}}, nil
	}
	return series, nil
}

func (r *Resolver) resolveDynamic(g *models.Graph) ([]Series, error) {
	series := make([]Series, 0, len(g.TrackedMetrics))
	for _, name := range g.TrackedMetrics {
		points, err := r.repo.QueryPoints(storage.PointFilter{MetricName: name})
		if err != nil {
			return nil, fmt.Errorf("resolve tracked metric %s: %w", name, err)
		}
		series = append(series, Series{Name: name, Points: points})
	}
	return series, nil
}

func (r *Resolver) resolveStatic(g *models.Graph) ([]Series, error) {
	points, err := r.repo.QueryPoints(storage.PointFilter{GraphID: &g.ID})
	if err != nil {
		return nil, fmt.Errorf("resolve graph %s: %w", g.ID, err)
	}

	byMetric := make(map[string][]*models.MetricPoint)
	for _, p := range points {
		byMetric[p.MetricName] = append(byMetric[p.MetricName], p)
	}

	names := make([]string, 0, len(byMetric))
	for name := range byMetric {
		names = append(names, name)
	}
	sort.Strings(names)

	series := make([]Series, 0, len(names))
	for _, name := range names {
		series = append(series, Series{Name: name, Points: byMetric[name]})
	}
	return series, nil
}

// PromptPayload renders a graph's data as plain text for an LLM summarizer,
// one point per line, chronological with metric names breaking ties.
func (r *Resolver) PromptPayload(g *models.Graph) (string, error) {
	series, err := r.Resolve(g)
	if err != nil {
		return "", err
	}

	var points []*models.MetricPoint
	for _, s := range series {
		points = append(points, s.Points...)
	}
	sort.Slice(points, func(i, j int) bool {
		if !points[i].Date.Equal(points[j].Date) {
			return points[i].Date.Before(points[j].Date)
		}
		return points[i].MetricName < points[j].MetricName
	})

	var b strings.Builder
	for _, p := range points {
		b.WriteString(p.Date.Format(models.DateFormat))
		b.WriteString(": ")
		b.WriteString(p.MetricName)
		b.WriteString(" = ")
		b.WriteString(strconv.FormatFloat(p.Value, 'f', -1, 64))
		b.WriteString("\n")
	}
	return b.String(), nil
}
