// ABOUTME: Graph CRUD operations for SQLite storage.
// ABOUTME: tracked_metrics is a JSON array column, never a hand-joined string.
package storage

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/harperreed/biodash/internal/models"
)

// CreateGraph stores a new graph.
func (d *DB) CreateGraph(g *models.Graph) error {
	tracked, err := marshalTrackedMetrics(g.TrackedMetrics)
	if err != nil {
		return fmt.Errorf("create graph: %w", err)
	}

	_, err = d.db.Exec(`
		INSERT INTO graphs (id, name, description, is_temporary, tracked_metrics, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`,
		g.ID.String(),
		g.Name,
		g.Description,
		boolToInt(g.IsTemporary),
		tracked,
		g.CreatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("create graph: %w", err)
	}
	return nil
}

// GetGraph retrieves a graph by ID.
func (d *DB) GetGraph(id uuid.UUID) (*models.Graph, error) {
	row := d.db.QueryRow(`
		SELECT id, name, description, is_temporary, tracked_metrics, created_at
		FROM graphs
		WHERE id = ?
	`, id.String())

	g, err := scanGraph(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("graph %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("get graph: %w", err)
	}
	return g, nil
}

// GetGraphByName retrieves the first graph with the given name. Used by the
// sync coordinator to locate a provider's source graph.
func (d *DB) GetGraphByName(name string) (*models.Graph, error) {
	row := d.db.QueryRow(`
		SELECT id, name, description, is_temporary, tracked_metrics, created_at
		FROM graphs
		WHERE name = ?
		ORDER BY created_at ASC
		LIMIT 1
	`, name)

	g, err := scanGraph(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("graph %q: %w", name, ErrNotFound)
		}
		return nil, fmt.Errorf("get graph by name: %w", err)
	}
	return g, nil
}

// ListGraphs returns graphs, oldest first. Temporary (unsaved explorer)
// graphs are excluded unless requested.
func (d *DB) ListGraphs(includeTemporary bool) ([]*models.Graph, error) {
	query := `
		SELECT id, name, description, is_temporary, tracked_metrics, created_at
		FROM graphs
	`
	if !includeTemporary {
		query += ` WHERE is_temporary = 0`
	}
	query += ` ORDER BY created_at ASC`

	rows, err := d.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("list graphs: %w", err)
	}
	defer rows.Close()

	var graphs []*models.Graph
	for rows.Next() {
		g, err := scanGraph(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan graph: %w", err)
		}
		graphs = append(graphs, g)
	}
	return graphs, rows.Err()
}

// UpdateGraph persists name, description, temporary flag, and tracked metrics.
func (d *DB) UpdateGraph(g *models.Graph) error {
	tracked, err := marshalTrackedMetrics(g.TrackedMetrics)
	if err != nil {
		return fmt.Errorf("update graph: %w", err)
	}

	res, err := d.db.Exec(`
		UPDATE graphs
		SET name = ?, description = ?, is_temporary = ?, tracked_metrics = ?
		WHERE id = ?
	`,
		g.Name,
		g.Description,
		boolToInt(g.IsTemporary),
		tracked,
		g.ID.String(),
	)
	if err != nil {
		return fmt.Errorf("update graph: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update graph: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("graph %s: %w", g.ID, ErrNotFound)
	}
	return nil
}

// DeleteGraph removes a graph; its owned points cascade via foreign key.
func (d *DB) DeleteGraph(id uuid.UUID) error {
	res, err := d.db.Exec(`DELETE FROM graphs WHERE id = ?`, id.String())
	if err != nil {
		return fmt.Errorf("delete graph: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete graph: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("graph %s: %w", id, ErrNotFound)
	}
	return nil
}

// OwnedMetricNames returns the distinct metric names among points owned by a
// graph. Used when converting a static graph to dynamic tracking.
func (d *DB) OwnedMetricNames(graphID uuid.UUID) ([]string, error) {
	rows, err := d.db.Query(`
		SELECT DISTINCT metric_name FROM points
		WHERE graph_id = ?
		ORDER BY metric_name ASC
	`, graphID.String())
	if err != nil {
		return nil, fmt.Errorf("owned metric names: %w", err)
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

func marshalTrackedMetrics(metrics []string) (interface{}, error) {
	if len(metrics) == 0 {
		return nil, nil
	}
	data, err := json.Marshal(metrics)
	if err != nil {
		return nil, fmt.Errorf("marshal tracked metrics: %w", err)
	}
	return string(data), nil
}

func scanGraph(scan func(dest ...interface{}) error) (*models.Graph, error) {
	var g models.Graph
	var idStr, createdAt string
	var description, tracked sql.NullString
	var isTemporary int

	if err := scan(&idStr, &g.Name, &description, &isTemporary, &tracked, &createdAt); err != nil {
		return nil, err
	}

	g.ID, _ = uuid.Parse(idStr)
	g.Description = description.String
	g.IsTemporary = isTemporary != 0
	g.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	if tracked.Valid && tracked.String != "" {
		if err := json.Unmarshal([]byte(tracked.String), &g.TrackedMetrics); err != nil {
			return nil, fmt.Errorf("unmarshal tracked metrics: %w", err)
		}
	}
	return &g, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
