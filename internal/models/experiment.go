// ABOUTME: Experiment model - a time-boxed behavioral trial for one metric.
// ABOUTME: Defines period and benchmark selectors plus the conceptual lifecycle.
package models

import (
	"time"

	"github.com/google/uuid"
)

// Period selectors used to auto-derive start/end dates.
const (
	Period1Week  = "1-week"
	Period2Weeks = "2-weeks"
	Period1Month = "1-month"
	PeriodCustom = "custom"
)

// Benchmark strategy selectors. Only avg-7-days has an implemented
// algorithm; other values soft-fail to an undefined benchmark.
const (
	BenchmarkAvg7Days = "avg-7-days"
)

// Experiment states (conceptual, derived from dates, never persisted).
const (
	ExperimentUnscheduled = "unscheduled"
	ExperimentScheduled   = "scheduled"
	ExperimentEnded       = "ended"
)

// Experiment is a planned or in-progress intervention measured against a
// benchmark for a single metric. Benchmark and current-value windows are
// always derived from live store contents, never stored.
type Experiment struct {
	ID               uuid.UUID
	Title            string
	Description      string
	Driver           string
	Period           string
	StartDate        *time.Time
	EndDate          *time.Time
	MetricOfInterest string
	Benchmark        string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// NewExperiment creates an experiment with a generated ID and timestamps.
func NewExperiment(title, metricOfInterest, benchmark, period string) *Experiment {
	now := time.Now()
	return &Experiment{
		ID:               uuid.New(),
		Title:            title,
		Period:           period,
		MetricOfInterest: metricOfInterest,
		Benchmark:        benchmark,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
}

// WithDates sets explicit start/end dates. Explicit dates always take
// precedence over period-derived ones.
func (e *Experiment) WithDates(start, end time.Time) *Experiment {
	s, en := DateOf(start), DateOf(end)
	e.StartDate = &s
	e.EndDate = &en
	return e
}

// State derives the conceptual lifecycle state as of the given day.
func (e *Experiment) State(today time.Time) string {
	if e.StartDate == nil {
		return ExperimentUnscheduled
	}
	if e.EndDate != nil && e.EndDate.Before(DateOf(today)) {
		return ExperimentEnded
	}
	return ExperimentScheduled
}
