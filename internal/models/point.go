// ABOUTME: MetricPoint model and calendar-date helpers.
// ABOUTME: One observation of one metric on one day, optionally owned by a graph.
package models

import (
	"time"

	"github.com/google/uuid"
)

// DateFormat is the storage format for calendar dates (no time-of-day).
const DateFormat = "2006-01-02"

// ParseDate parses a YYYY-MM-DD string into a UTC midnight time.
func ParseDate(s string) (time.Time, error) {
	return time.Parse(DateFormat, s)
}

// DateOf truncates a timestamp to its calendar date (UTC midnight).
func DateOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// MetricPoint is a single observation: one value for one metric on one date.
// The triple (Date, MetricName, GraphID) is unique in the store; re-importing
// the same provider-day-metric is a no-op.
type MetricPoint struct {
	ID         uuid.UUID
	Date       time.Time
	MetricName string
	Value      float64
	GraphID    *uuid.UUID
	CreatedAt  time.Time
}

// PointCandidate is a point awaiting insertion, before an ID is assigned.
// Sync providers emit these; UpsertPoints skips candidates whose
// (date, metric, graph) combination already exists.
type PointCandidate struct {
	Date       time.Time
	MetricName string
	Value      float64
	GraphID    *uuid.UUID
}

// NewMetricPoint creates a point with a generated ID and current timestamp.
func NewMetricPoint(date time.Time, metricName string, value float64) *MetricPoint {
	return &MetricPoint{
		ID:         uuid.New(),
		Date:       DateOf(date),
		MetricName: metricName,
		Value:      value,
		CreatedAt:  time.Now(),
	}
}

// WithGraph associates the point with an owning graph.
func (p *MetricPoint) WithGraph(graphID uuid.UUID) *MetricPoint {
	p.GraphID = &graphID
	return p
}
