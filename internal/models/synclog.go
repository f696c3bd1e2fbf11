// ABOUTME: SyncLog model - append-only audit record of one ingestion attempt.
// ABOUTME: Created in_progress before any network call, transitioned exactly once.
package models

import (
	"time"

	"github.com/google/uuid"
)

// Sync types.
const (
	SyncTypeManual    = "manual"
	SyncTypeAutomatic = "automatic"
)

// Sync statuses. A row stuck in in_progress with no completion time means
// the run was interrupted, which is distinct from failed.
const (
	SyncStatusInProgress = "in_progress"
	SyncStatusSuccess    = "success"
	SyncStatusFailed     = "failed"
)

// SyncLog records one sync attempt's window, status, and outcome. Rows are
// never deleted; they form an append-only ledger per account and provider.
type SyncLog struct {
	ID              uuid.UUID
	AccountID       uuid.UUID
	Provider        string
	SyncType        string
	Status          string
	StartDate       time.Time
	EndDate         time.Time
	RecordsImported int
	ErrorMessage    *string
	StartedAt       time.Time
	CompletedAt     *time.Time
}

// NewSyncLog creates an in_progress log for the given ingestion window.
func NewSyncLog(accountID uuid.UUID, provider, syncType string, start, end time.Time) *SyncLog {
	return &SyncLog{
		ID:        uuid.New(),
		AccountID: accountID,
		Provider:  provider,
		SyncType:  syncType,
		Status:    SyncStatusInProgress,
		StartDate: DateOf(start),
		EndDate:   DateOf(end),
		StartedAt: time.Now().UTC(),
	}
}

// Duration returns the wall-clock run time, or nil while in progress.
func (l *SyncLog) Duration() *time.Duration {
	if l.CompletedAt == nil {
		return nil
	}
	d := l.CompletedAt.Sub(l.StartedAt)
	return &d
}
