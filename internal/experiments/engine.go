// ABOUTME: Experiment engine - benchmark, current value, and table derivations.
// ABOUTME: Every window is computed fresh from the live store; nothing is cached.
package experiments

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/harperreed/biodash/internal/models"
	"github.com/harperreed/biodash/internal/storage"
)

// WindowResult is an aggregate over one derived date window. Value is nil
// when the window holds no data or the strategy is unsupported.
type WindowResult struct {
	Value  *float64
	Count  int
	Period string
}

// Stats bundles an experiment's derived numbers.
type Stats struct {
	Benchmark      WindowResult
	Current        WindowResult
	ImprovementPct *float64
}

// TableRow is one day of the experiment tracking table.
type TableRow struct {
	Date      time.Time
	Value     *float64
	HasData   bool
	Deviation *float64
}

// Engine computes experiment statistics against the point store. Now is
// injectable for deterministic tests and defaults to the wall clock.
type Engine struct {
	repo storage.Repository
	Now  func() time.Time
}

// NewEngine creates an engine backed by the given repository.
func NewEngine(repo storage.Repository) *Engine {
	return &Engine{repo: repo, Now: time.Now}
}

func (e *Engine) today() time.Time {
	return models.DateOf(e.Now())
}

// AutoCalculateDates derives start/end dates from a period selector: today
// plus 7, 14, or 30 days. Custom or unknown periods derive nothing, and
// explicitly set dates are never overwritten.
func (e *Engine) AutoCalculateDates(exp *models.Experiment) {
	if exp.StartDate != nil || exp.EndDate != nil {
		return
	}

	var days int
	switch exp.Period {
	case models.Period1Week:
		days = 7
	case models.Period2Weeks:
		days = 14
	case models.Period1Month:
		days = 30
	default:
		return
	}

	start := e.today()
	end := start.AddDate(0, 0, days)
	exp.StartDate = &start
	exp.EndDate = &end
}

// Benchmark computes the pre-experiment baseline. The avg-7-days strategy
// averages the seven days before the start date (or before today when
// unscheduled); the window excludes the reference day itself. Unsupported
// strategies soft-fail to an undefined value rather than erroring.
func (e *Engine) Benchmark(exp *models.Experiment) (WindowResult, error) {
	if exp.Benchmark != models.BenchmarkAvg7Days {
		return WindowResult{
			Period: fmt.Sprintf("Unsupported benchmark: %s", exp.Benchmark),
		}, nil
	}

	ref := e.today()
	if exp.StartDate != nil {
		ref = *exp.StartDate
	}
	start := ref.AddDate(0, 0, -7)

	// End-exclusive: the reference day belongs to the experiment, not the baseline
	lastDay := ref.AddDate(0, 0, -1)
	points, err := e.repo.QueryPoints(storage.PointFilter{
		MetricName: exp.MetricOfInterest,
		From:       &start,
		To:         &lastDay,
	})
	if err != nil {
		return WindowResult{}, fmt.Errorf("benchmark query: %w", err)
	}

	result := averageOf(points)
	result.Period = fmt.Sprintf("%s to %s", start.Format(models.DateFormat), ref.Format(models.DateFormat))
	return result, nil
}

// CurrentValue averages the metric over the experiment window: start to end
// inclusive, or start to today when the experiment is open-ended. With no
// start date the value is undefined.
func (e *Engine) CurrentValue(exp *models.Experiment) (WindowResult, error) {
	if exp.StartDate == nil {
		return WindowResult{Period: "No experiment dates set"}, nil
	}

	start := *exp.StartDate
	end := e.today()
	if exp.EndDate != nil {
		end = *exp.EndDate
	}

	points, err := e.repo.QueryPoints(storage.PointFilter{
		MetricName: exp.MetricOfInterest,
		From:       &start,
		To:         &end,
	})
	if err != nil {
		return WindowResult{}, fmt.Errorf("current value query: %w", err)
	}

	result := averageOf(points)
	result.Period = fmt.Sprintf("%s to %s", start.Format(models.DateFormat), end.Format(models.DateFormat))
	return result, nil
}

// Stats computes benchmark, current value, and improvement percentage.
// Improvement is undefined when either side is undefined or the benchmark
// is zero.
func (e *Engine) Stats(exp *models.Experiment) (*Stats, error) {
	benchmark, err := e.Benchmark(exp)
	if err != nil {
		return nil, err
	}
	current, err := e.CurrentValue(exp)
	if err != nil {
		return nil, err
	}

	s := &Stats{Benchmark: benchmark, Current: current}
	if benchmark.Value != nil && current.Value != nil && *benchmark.Value != 0 {
		pct := (*current.Value - *benchmark.Value) / *benchmark.Value * 100
		s.ImprovementPct = &pct
	}
	return s, nil
}

// TableData builds the seven-row tracking table. Rows start at the start
// date (or today when unscheduled) and advance day by day, continuing past
// the end date when the window is shorter than a week. Days past the end
// date never have data; there is no interpolation.
func (e *Engine) TableData(exp *models.Experiment) ([]TableRow, error) {
	var start, end time.Time
	switch {
	case exp.StartDate != nil && exp.EndDate != nil:
		start, end = *exp.StartDate, *exp.EndDate
	case exp.StartDate != nil:
		start = *exp.StartDate
		end = start.AddDate(0, 0, 6)
	default:
		start = e.today()
		end = start.AddDate(0, 0, 6)
	}

	benchmark, err := e.Benchmark(exp)
	if err != nil {
		return nil, err
	}

	points, err := e.repo.QueryPoints(storage.PointFilter{
		MetricName: exp.MetricOfInterest,
		From:       &start,
		To:         &end,
	})
	if err != nil {
		return nil, fmt.Errorf("table data query: %w", err)
	}
	byDate := make(map[string]float64, len(points))
	for _, p := range points {
		byDate[p.Date.Format(models.DateFormat)] = p.Value
	}

	rows := make([]TableRow, 0, 7)
	day := start
	for i := 0; i < 7; i++ {
		row := TableRow{Date: day}
		if v, ok := byDate[day.Format(models.DateFormat)]; ok {
			value := v
			row.Value = &value
			row.HasData = true
			if benchmark.Value != nil {
				dev := value - *benchmark.Value
				row.Deviation = &dev
			}
		}
		rows = append(rows, row)
		day = day.AddDate(0, 0, 1)
	}
	return rows, nil
}

// Datapoints returns the ordered in-window points for an experiment, for
// reviewing a run before completing it.
func (e *Engine) Datapoints(exp *models.Experiment) ([]*models.MetricPoint, error) {
	if exp.StartDate == nil {
		return nil, nil
	}
	start := *exp.StartDate
	end := e.today()
	if exp.EndDate != nil {
		end = *exp.EndDate
	}
	points, err := e.repo.QueryPoints(storage.PointFilter{
		MetricName: exp.MetricOfInterest,
		From:       &start,
		To:         &end,
	})
	if err != nil {
		return nil, fmt.Errorf("datapoints query: %w", err)
	}
	return points, nil
}

// Complete ends an experiment, setting the end date to today when unset.
func (e *Engine) Complete(id uuid.UUID) (*models.Experiment, error) {
	exp, err := e.repo.GetExperiment(id)
	if err != nil {
		return nil, fmt.Errorf("complete experiment: %w", err)
	}
	if exp.EndDate == nil {
		today := e.today()
		exp.EndDate = &today
	}
	if err := e.repo.UpdateExperiment(exp); err != nil {
		return nil, fmt.Errorf("complete experiment: %w", err)
	}
	return exp, nil
}

func averageOf(points []*models.MetricPoint) WindowResult {
	if len(points) == 0 {
		return WindowResult{}
	}
	sum := 0.0
	for _, p := range points {
		sum += p.Value
	}
	avg := sum / float64(len(points))
	return WindowResult{Value: &avg, Count: len(points)}
}
