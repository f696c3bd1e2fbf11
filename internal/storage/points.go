// ABOUTME: Metric point operations for SQLite storage.
// ABOUTME: Idempotent upsert plus ordered queries over (date, metric_name).
package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/harperreed/biodash/internal/models"
)

// UpsertPoints inserts candidates whose (date, metric_name, graph_id) is not
// already present and returns the number of rows actually inserted. Existing
// rows are left untouched, never overwritten. INSERT OR IGNORE against the
// unique natural-key index makes the check-then-act atomic per point.
func (d *DB) UpsertPoints(points []models.PointCandidate) (int, error) {
	if len(points) == 0 {
		return 0, nil
	}

	tx, err := d.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("begin upsert: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.Prepare(`
		INSERT OR IGNORE INTO points (id, date, metric_name, value, graph_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return 0, fmt.Errorf("prepare upsert: %w", err)
	}
	defer stmt.Close()

	inserted := 0
	now := time.Now().Format(time.RFC3339)
	for _, p := range points {
		var graphID interface{}
		if p.GraphID != nil {
			graphID = p.GraphID.String()
		}
		res, err := stmt.Exec(
			uuid.New().String(),
			models.DateOf(p.Date).Format(models.DateFormat),
			p.MetricName,
			p.Value,
			graphID,
			now,
		)
		if err != nil {
			return 0, fmt.Errorf("upsert point %s/%s: %w", p.Date.Format(models.DateFormat), p.MetricName, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return 0, fmt.Errorf("upsert point: %w", err)
		}
		inserted += int(n)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit upsert: %w", err)
	}
	return inserted, nil
}

// QueryPoints returns points matching the filter, sorted by date ascending
// with ties broken by metric_name.
func (d *DB) QueryPoints(filter PointFilter) ([]*models.MetricPoint, error) {
	query := `
		SELECT id, date, metric_name, value, graph_id, created_at
		FROM points
	`
	var conds []string
	var args []interface{}

	if filter.MetricName != "" {
		conds = append(conds, "metric_name = ?")
		args = append(args, filter.MetricName)
	}
	if filter.GraphID != nil {
		conds = append(conds, "graph_id = ?")
		args = append(args, filter.GraphID.String())
	}
	if filter.From != nil {
		conds = append(conds, "date >= ?")
		args = append(args, models.DateOf(*filter.From).Format(models.DateFormat))
	}
	if filter.To != nil {
		conds = append(conds, "date <= ?")
		args = append(args, models.DateOf(*filter.To).Format(models.DateFormat))
	}
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY date ASC, metric_name ASC"

	rows, err := d.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query points: %w", err)
	}
	defer rows.Close()

	return d.scanPoints(rows)
}

// DistinctMetricNames returns the sorted set of metric names in the store,
// optionally restricted to a name prefix (e.g. "fitbit_").
func (d *DB) DistinctMetricNames(prefix string) ([]string, error) {
	query := `SELECT DISTINCT metric_name FROM points`
	var args []interface{}
	if prefix != "" {
		query += ` WHERE metric_name LIKE ? || '%'`
		args = append(args, prefix)
	}
	query += ` ORDER BY metric_name ASC`

	rows, err := d.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("distinct metric names: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan metric name: %w", err)
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// RecentPoints returns the most recently dated points, newest first.
func (d *DB) RecentPoints(limit int) ([]*models.MetricPoint, error) {
	if limit <= 0 {
		limit = 5
	}
	rows, err := d.db.Query(`
		SELECT id, date, metric_name, value, graph_id, created_at
		FROM points
		ORDER BY date DESC, metric_name ASC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("recent points: %w", err)
	}
	defer rows.Close()

	return d.scanPoints(rows)
}

// LatestPoint returns the most recent point for a metric name.
func (d *DB) LatestPoint(metricName string) (*models.MetricPoint, error) {
	row := d.db.QueryRow(`
		SELECT id, date, metric_name, value, graph_id, created_at
		FROM points
		WHERE metric_name = ?
		ORDER BY date DESC
		LIMIT 1
	`, metricName)

	p, err := scanPoint(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("latest point for %s: %w", metricName, ErrNotFound)
		}
		return nil, fmt.Errorf("latest point: %w", err)
	}
	return p, nil
}

// CountPoints counts stored points whose metric name is in the given set.
func (d *DB) CountPoints(metricNames []string) (int, error) {
	if len(metricNames) == 0 {
		return 0, nil
	}
	placeholders := strings.Repeat("?,", len(metricNames))
	placeholders = placeholders[:len(placeholders)-1]
	args := make([]interface{}, len(metricNames))
	for i, n := range metricNames {
		args[i] = n
	}

	var count int
	err := d.db.QueryRow(
		`SELECT COUNT(*) FROM points WHERE metric_name IN (`+placeholders+`)`,
		args...,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count points: %w", err)
	}
	return count, nil
}

func scanPoint(scan func(dest ...interface{}) error) (*models.MetricPoint, error) {
	var p models.MetricPoint
	var idStr, dateStr, createdAt string
	var graphID sql.NullString

	if err := scan(&idStr, &dateStr, &p.MetricName, &p.Value, &graphID, &createdAt); err != nil {
		return nil, err
	}

	p.ID, _ = uuid.Parse(idStr)
	p.Date, _ = models.ParseDate(dateStr)
	p.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	if graphID.Valid {
		gid, err := uuid.Parse(graphID.String)
		if err == nil {
			p.GraphID = &gid
		}
	}
	return &p, nil
}

func (d *DB) scanPoints(rows *sql.Rows) ([]*models.MetricPoint, error) {
	var points []*models.MetricPoint
	for rows.Next() {
		p, err := scanPoint(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan point: %w", err)
		}
		points = append(points, p)
	}
	return points, rows.Err()
}
