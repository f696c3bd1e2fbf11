// ABOUTME: Experiment CRUD operations for SQLite storage.
// ABOUTME: Dates are stored date-only; windows are derived at read time, never here.
package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/harperreed/biodash/internal/models"
)

// CreateExperiment stores a new experiment.
func (d *DB) CreateExperiment(e *models.Experiment) error {
	_, err := d.db.Exec(`
		INSERT INTO experiments (id, title, description, driver, period, start_date, end_date,
			metric_of_interest, benchmark, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		e.ID.String(),
		e.Title,
		e.Description,
		e.Driver,
		e.Period,
		formatDatePtr(e.StartDate),
		formatDatePtr(e.EndDate),
		e.MetricOfInterest,
		e.Benchmark,
		e.CreatedAt.Format(time.RFC3339),
		e.UpdatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("create experiment: %w", err)
	}
	return nil
}

// GetExperiment retrieves an experiment by ID.
func (d *DB) GetExperiment(id uuid.UUID) (*models.Experiment, error) {
	row := d.db.QueryRow(`
		SELECT id, title, description, driver, period, start_date, end_date,
			metric_of_interest, benchmark, created_at, updated_at
		FROM experiments
		WHERE id = ?
	`, id.String())

	e, err := scanExperiment(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("experiment %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("get experiment: %w", err)
	}
	return e, nil
}

// ListExperiments returns all experiments, most recently created first.
func (d *DB) ListExperiments() ([]*models.Experiment, error) {
	rows, err := d.db.Query(`
		SELECT id, title, description, driver, period, start_date, end_date,
			metric_of_interest, benchmark, created_at, updated_at
		FROM experiments
		ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("list experiments: %w", err)
	}
	defer rows.Close()

	var experiments []*models.Experiment
	for rows.Next() {
		e, err := scanExperiment(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan experiment: %w", err)
		}
		experiments = append(experiments, e)
	}
	return experiments, rows.Err()
}

// UpdateExperiment persists all mutable fields and bumps updated_at.
func (d *DB) UpdateExperiment(e *models.Experiment) error {
	e.UpdatedAt = time.Now()
	res, err := d.db.Exec(`
		UPDATE experiments
		SET title = ?, description = ?, driver = ?, period = ?, start_date = ?, end_date = ?,
			metric_of_interest = ?, benchmark = ?, updated_at = ?
		WHERE id = ?
	`,
		e.Title,
		e.Description,
		e.Driver,
		e.Period,
		formatDatePtr(e.StartDate),
		formatDatePtr(e.EndDate),
		e.MetricOfInterest,
		e.Benchmark,
		e.UpdatedAt.Format(time.RFC3339),
		e.ID.String(),
	)
	if err != nil {
		return fmt.Errorf("update experiment: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update experiment: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("experiment %s: %w", e.ID, ErrNotFound)
	}
	return nil
}

// DeleteExperiment removes an experiment.
func (d *DB) DeleteExperiment(id uuid.UUID) error {
	res, err := d.db.Exec(`DELETE FROM experiments WHERE id = ?`, id.String())
	if err != nil {
		return fmt.Errorf("delete experiment: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete experiment: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("experiment %s: %w", id, ErrNotFound)
	}
	return nil
}

func scanExperiment(scan func(dest ...interface{}) error) (*models.Experiment, error) {
	var e models.Experiment
	var idStr, createdAt, updatedAt string
	var description, driver, startDate, endDate sql.NullString

	err := scan(&idStr, &e.Title, &description, &driver, &e.Period, &startDate, &endDate,
		&e.MetricOfInterest, &e.Benchmark, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}

	e.ID, _ = uuid.Parse(idStr)
	e.Description = description.String
	e.Driver = driver.String
	e.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	e.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
	if startDate.Valid && startDate.String != "" {
		t, err := models.ParseDate(startDate.String)
		if err != nil {
			return nil, fmt.Errorf("parse start_date: %w", err)
		}
		e.StartDate = &t
	}
	if endDate.Valid && endDate.String != "" {
		t, err := models.ParseDate(endDate.String)
		if err != nil {
			return nil, fmt.Errorf("parse end_date: %w", err)
		}
		e.EndDate = &t
	}
	return &e, nil
}

func formatDatePtr(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return t.Format(models.DateFormat)
}
