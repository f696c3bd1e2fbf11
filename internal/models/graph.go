// ABOUTME: Graph model - a named view over the metric store.
// ABOUTME: Dynamic graphs track metric names live; static graphs own their points.
package models

import (
	"time"

	"github.com/google/uuid"
)

// Graph is a user-defined view composed of one or more metric series.
//
// When TrackedMetrics is non-empty the graph is "dynamic": its series are
// resolved live from the whole store by metric name, in declaration order.
// When empty the graph is "static": only the points it owns are rendered.
type Graph struct {
	ID             uuid.UUID
	Name           string
	Description    string
	IsTemporary    bool
	TrackedMetrics []string
	CreatedAt      time.Time
}

// NewGraph creates a saved (non-temporary) graph.
func NewGraph(name, description string) *Graph {
	return &Graph{
		ID:          uuid.New(),
		Name:        name,
		Description: description,
		CreatedAt:   time.Now(),
	}
}

// NewTemporaryGraph creates an exploratory graph that is discarded unless saved.
func NewTemporaryGraph() *Graph {
	g := NewGraph("Temporary explorer graph", "Graph for exploration")
	g.IsTemporary = true
	return g
}

// WithTrackedMetrics marks the graph dynamic over the given metric names.
func (g *Graph) WithTrackedMetrics(metrics []string) *Graph {
	g.TrackedMetrics = metrics
	return g
}

// IsDynamic reports whether the graph resolves series live by metric name.
func (g *Graph) IsDynamic() bool {
	return len(g.TrackedMetrics) > 0
}
