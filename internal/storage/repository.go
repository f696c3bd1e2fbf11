// ABOUTME: Repository interface for dashboard data storage.
// ABOUTME: Defines the contract for points, graphs, experiments, sync logs, accounts.
package storage

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/harperreed/biodash/internal/models"
)

// ErrNotFound is returned when a referenced entity does not exist.
var ErrNotFound = errors.New("not found")

// PointFilter narrows a point query. Zero values mean "no constraint".
type PointFilter struct {
	MetricName string
	GraphID    *uuid.UUID
	From       *time.Time // inclusive
	To         *time.Time // inclusive
}

// Repository defines the storage interface for dashboard data.
// This interface allows swapping implementations (e.g., for testing).
type Repository interface {
	// Point operations. UpsertPoints is the idempotency boundary: a
	// candidate whose (date, metric_name, graph_id) already exists is
	// skipped, and the returned count covers only rows actually inserted.
	UpsertPoints(points []models.PointCandidate) (int, error)
	QueryPoints(filter PointFilter) ([]*models.MetricPoint, error)
	DistinctMetricNames(prefix string) ([]string, error)
	RecentPoints(limit int) ([]*models.MetricPoint, error)
	LatestPoint(metricName string) (*models.MetricPoint, error)
	CountPoints(metricNames []string) (int, error)

	// Graph operations
	CreateGraph(g *models.Graph) error
	GetGraph(id uuid.UUID) (*models.Graph, error)
	GetGraphByName(name string) (*models.Graph, error)
	ListGraphs(includeTemporary bool) ([]*models.Graph, error)
	UpdateGraph(g *models.Graph) error
	DeleteGraph(id uuid.UUID) error
	OwnedMetricNames(graphID uuid.UUID) ([]string, error)

	// Experiment operations
	CreateExperiment(e *models.Experiment) error
	GetExperiment(id uuid.UUID) (*models.Experiment, error)
	ListExperiments() ([]*models.Experiment, error)
	UpdateExperiment(e *models.Experiment) error
	DeleteExperiment(id uuid.UUID) error

	// Sync log operations. Logs are append-only: they are created
	// in_progress and transitioned exactly once, never deleted.
	CreateSyncLog(l *models.SyncLog) error
	CompleteSyncLog(id uuid.UUID, status string, recordsImported int, errorMessage string, completedAt time.Time) error
	GetSyncLog(id uuid.UUID) (*models.SyncLog, error)
	ListSyncLogs(accountID uuid.UUID, limit int) ([]*models.SyncLog, error)

	// Account operations
	CreateAccount(a *models.Account) error
	GetAccount(id uuid.UUID) (*models.Account, error)
	GetAccountByEmail(email string) (*models.Account, error)
	UpdateAccount(a *models.Account) error
	ListSyncEnabledAccounts() ([]*models.Account, error)

	// Lifecycle
	Close() error
}
