// ABOUTME: Graph lifecycle operations beyond plain CRUD.
// ABOUTME: Explorer (temporary graph) workflow and static-to-dynamic conversion.
package graphs

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/harperreed/biodash/internal/models"
	"github.com/harperreed/biodash/internal/storage"
)

// Service wraps graph workflows that span multiple repository calls.
type Service struct {
	repo storage.Repository
}

// NewService creates a graph service backed by the given repository.
func NewService(repo storage.Repository) *Service {
	return &Service{repo: repo}
}

// StartExplorer creates a temporary scratch graph for interactive exploration.
// Temporary graphs are hidden from normal listings until saved.
func (s *Service) StartExplorer() (*models.Graph, error) {
	g := models.NewTemporaryGraph()
	if err := s.repo.CreateGraph(g); err != nil {
		return nil, fmt.Errorf("start explorer: %w", err)
	}
	return g, nil
}

// SaveExplorer promotes a temporary graph to a permanent one under the given
// name and description.
func (s *Service) SaveExplorer(id uuid.UUID, name, description string) (*models.Graph, error) {
	g, err := s.repo.GetGraph(id)
	if err != nil {
		return nil, fmt.Errorf("save explorer: %w", err)
	}
	if !g.IsTemporary {
		return nil, fmt.Errorf("save explorer: graph %s is not temporary", id)
	}
	g.Name = name
	g.Description = description
	g.IsTemporary = false
	if err := s.repo.UpdateGraph(g); err != nil {
		return nil, fmt.Errorf("save explorer: %w", err)
	}
	return g, nil
}

// CancelExplorer discards a temporary graph and its owned points.
func (s *Service) CancelExplorer(id uuid.UUID) error {
	g, err := s.repo.GetGraph(id)
	if err != nil {
		return fmt.Errorf("cancel explorer: %w", err)
	}
	if !g.IsTemporary {
		return fmt.Errorf("cancel explorer: graph %s is not temporary", id)
	}
	if err := s.repo.DeleteGraph(id); err != nil {
		return fmt.Errorf("cancel explorer: %w", err)
	}
	return nil
}

// ConvertToDynamic snapshots the distinct metric names among a static graph's
// owned points into its tracked metric list. Already-dynamic graphs are left
// untouched.
func (s *Service) ConvertToDynamic(id uuid.UUID) (*models.Graph, error) {
	g, err := s.repo.GetGraph(id)
	if err != nil {
		return nil, fmt.Errorf("convert graph: %w", err)
	}
	if g.IsDynamic() {
		return g, nil
	}

	names, err := s.repo.OwnedMetricNames(id)
	if err != nil {
		return nil, fmt.Errorf("convert graph: %w", err)
	}
	if len(names) == 0 {
		return nil, fmt.Errorf("convert graph: graph %s owns no points", id)
	}

	g.TrackedMetrics = names
	if err := s.repo.UpdateGraph(g); err != nil {
		return nil, fmt.Errorf("convert graph: %w", err)
	}
	return g, nil
}

// ConvertAllToDynamic converts every static saved graph that owns points.
// Graphs without owned points are skipped rather than failed. Returns the
// number converted.
func (s *Service) ConvertAllToDynamic() (int, error) {
	all, err := s.repo.ListGraphs(false)
	if err != nil {
		return 0, fmt.Errorf("convert all graphs: %w", err)
	}

	converted := 0
	for _, g := range all {
		if g.IsDynamic() {
			continue
		}
		names, err := s.repo.OwnedMetricNames(g.ID)
		if err != nil {
			return converted, fmt.Errorf("convert all graphs: %w", err)
		}
		if len(names) == 0 {
			continue
		}
		g.TrackedMetrics = names
		if err := s.repo.UpdateGraph(g); err != nil {
			return converted, fmt.Errorf("convert all graphs: %w", err)
		}
		converted++
	}
	return converted, nil
}
