// ABOUTME: Sync log operations for SQLite storage.
// ABOUTME: Logs are append-only; rows move from in_progress to a terminal status once.
package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/harperreed/biodash/internal/models"
)

// CreateSyncLog stores a new sync log row, normally in_progress.
func (d *DB) CreateSyncLog(l *models.SyncLog) error {
	_, err := d.db.Exec(`
		INSERT INTO sync_logs (id, account_id, provider, sync_type, status, start_date, end_date,
			records_imported, error_message, started_at, completed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		l.ID.String(),
		l.AccountID.String(),
		l.Provider,
		l.SyncType,
		l.Status,
		l.StartDate.Format(models.DateFormat),
		l.EndDate.Format(models.DateFormat),
		l.RecordsImported,
		nullableString(l.ErrorMessage),
		l.StartedAt.Format(time.RFC3339),
		formatTimePtr(l.CompletedAt),
	)
	if err != nil {
		return fmt.Errorf("create sync log: %w", err)
	}
	return nil
}

// CompleteSyncLog transitions an in_progress log to a terminal status.
func (d *DB) CompleteSyncLog(id uuid.UUID, status string, recordsImported int, errorMessage string, completedAt time.Time) error {
	var errMsg interface{}
	if errorMessage != "" {
		errMsg = errorMessage
	}
	res, err := d.db.Exec(`
		UPDATE sync_logs
		SET status = ?, records_imported = ?, error_message = ?, completed_at = ?
		WHERE id = ?
	`,
		status,
		recordsImported,
		errMsg,
		completedAt.Format(time.RFC3339),
		id.String(),
	)
	if err != nil {
		return fmt.Errorf("complete sync log: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("complete sync log: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("sync log %s: %w", id, ErrNotFound)
	}
	return nil
}

// GetSyncLog retrieves a sync log by ID.
func (d *DB) GetSyncLog(id uuid.UUID) (*models.SyncLog, error) {
	row := d.db.QueryRow(`
		SELECT id, account_id, provider, sync_type, status, start_date, end_date,
			records_imported, error_message, started_at, completed_at
		FROM sync_logs
		WHERE id = ?
	`, id.String())

	l, err := scanSyncLog(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("sync log %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("get sync log: %w", err)
	}
	return l, nil
}

// ListSyncLogs returns an account's sync logs, newest first.
func (d *DB) ListSyncLogs(accountID uuid.UUID, limit int) ([]*models.SyncLog, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := d.db.Query(`
		SELECT id, account_id, provider, sync_type, status, start_date, end_date,
			records_imported, error_message, started_at, completed_at
		FROM sync_logs
		WHERE account_id = ?
		ORDER BY started_at DESC
		LIMIT ?
	`, accountID.String(), limit)
	if err != nil {
		return nil, fmt.Errorf("list sync logs: %w", err)
	}
	defer rows.Close()

	var logs []*models.SyncLog
	for rows.Next() {
		l, err := scanSyncLog(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan sync log: %w", err)
		}
		logs = append(logs, l)
	}
	return logs, rows.Err()
}

func scanSyncLog(scan func(dest ...interface{}) error) (*models.SyncLog, error) {
	var l models.SyncLog
	var idStr, accountStr, startDate, endDate, startedAt string
	var errMsg, completedAt sql.NullString

	err := scan(&idStr, &accountStr, &l.Provider, &l.SyncType, &l.Status, &startDate, &endDate,
		&l.RecordsImported, &errMsg, &startedAt, &completedAt)
	if err != nil {
		return nil, err
	}

	l.ID, _ = uuid.Parse(idStr)
	l.AccountID, _ = uuid.Parse(accountStr)
	l.StartDate, _ = models.ParseDate(startDate)
	l.EndDate, _ = models.ParseDate(endDate)
	l.StartedAt, _ = time.Parse(time.RFC3339, startedAt)
	if errMsg.Valid {
		msg := errMsg.String
		l.ErrorMessage = &msg
	}
	if completedAt.Valid && completedAt.String != "" {
		t, err := time.Parse(time.RFC3339, completedAt.String)
		if err != nil {
			return nil, fmt.Errorf("parse completed_at: %w", err)
		}
		l.CompletedAt = &t
	}
	return &l, nil
}

func nullableString(s *string) interface{} {
	if s == nil {
		return nil
	}
	return *s
}

func formatTimePtr(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return t.Format(time.RFC3339)
}
