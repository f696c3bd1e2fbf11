// ABOUTME: Account CRUD operations for SQLite storage.
// ABOUTME: Credentials and sync bookkeeping live on one row per account.
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

const accountColumns = `id, email, oura_token, fitbit_access_token, fitbit_refresh_token,
	fitbit_token_expires_at, fitbit_user_id, last_oura_sync, last_fitbit_sync,
	sync_enabled, sync_frequency, next_scheduled_sync, selected_dashboard_metrics, created_at`

// CreateAccount stores a new account.
func (d *DB) CreateAccount(a *models.Account) error {
	selected, err := marshalSelectedMetrics(a.SelectedDashboardMetrics)
	if err != nil {
		return fmt.Errorf("create account: %w", err)
	}

	_, err = d.db.Exec(`
		INSERT INTO accounts (`+accountColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		a.ID.String(),
		a.Email,
		emptyToNull(a.OuraToken),
		emptyToNull(a.FitbitAccessToken),
		emptyToNull(a.FitbitRefreshToken),
		formatTimePtr(a.FitbitTokenExpiresAt),
		emptyToNull(a.FitbitUserID),
		formatTimePtr(a.LastOuraSync),
		formatTimePtr(a.LastFitbitSync),
		boolToInt(a.SyncEnabled),
		a.SyncFrequency,
		formatTimePtr(a.NextScheduledSync),
		selected,
		a.CreatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("create account: %w", err)
	}
	return nil
}

// GetAccount retrieves an account by ID.
func (d *DB) GetAccount(id uuid.UUID) (*models.Account, error) {
	row := d.db.QueryRow(`SELECT `+accountColumns+` FROM accounts WHERE id = ?`, id.String())

	a, err := scanAccount(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("account %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("get account: %w", err)
	}
	return a, nil
}

// GetAccountByEmail retrieves an account by email.
func (d *DB) GetAccountByEmail(email string) (*models.Account, error) {
	row := d.db.QueryRow(`SELECT `+accountColumns+` FROM accounts WHERE email = ?`, email)

	a, err := scanAccount(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("account %q: %w", email, ErrNotFound)
		}
		return nil, fmt.Errorf("get account by email: %w", err)
	}
	return a, nil
}

// UpdateAccount persists all mutable account fields.
func (d *DB) UpdateAccount(a *models.Account) error {
	selected, err := marshalSelectedMetrics(a.SelectedDashboardMetrics)
	if err != nil {
		return fmt.Errorf("update account: %w", err)
	}

	res, err := d.db.Exec(`
		UPDATE accounts
		SET email = ?, oura_token = ?, fitbit_access_token = ?, fitbit_refresh_token = ?,
			fitbit_token_expires_at = ?, fitbit_user_id = ?, last_oura_sync = ?,
			last_fitbit_sync = ?, sync_enabled = ?, sync_frequency = ?,
			next_scheduled_sync = ?, selected_dashboard_metrics = ?
		WHERE id = ?
	`,
		a.Email,
		emptyToNull(a.OuraToken),
		emptyToNull(a.FitbitAccessToken),
		emptyToNull(a.FitbitRefreshToken),
		formatTimePtr(a.FitbitTokenExpiresAt),
		emptyToNull(a.FitbitUserID),
		formatTimePtr(a.LastOuraSync),
		formatTimePtr(a.LastFitbitSync),
		boolToInt(a.SyncEnabled),
		a.SyncFrequency,
		formatTimePtr(a.NextScheduledSync),
		selected,
		a.ID.String(),
	)
	if err != nil {
		return fmt.Errorf("update account: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update account: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("account %s: %w", a.ID, ErrNotFound)
	}
	return nil
}

// ListSyncEnabledAccounts returns accounts with automatic sync turned on.
func (d *DB) ListSyncEnabledAccounts() ([]*models.Account, error) {
	rows, err := d.db.Query(`
		SELECT ` + accountColumns + `
		FROM accounts
		WHERE sync_enabled = 1
		ORDER BY created_at ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("list sync-enabled accounts: %w", err)
	}
	defer rows.Close()

	var accounts []*models.Account
	for rows.Next() {
		a, err := scanAccount(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan account: %w", err)
		}
		accounts = append(accounts, a)
	}
	return accounts, rows.Err()
}

func scanAccount(scan func(dest ...interface{}) error) (*models.Account, error) {
	var a models.Account
	var idStr, createdAt string
	var ouraToken, accessToken, refreshToken, expiresAt, fitbitUserID sql.NullString
	var lastOura, lastFitbit, nextSync, selected sql.NullString
	var syncEnabled int

	err := scan(&idStr, &a.Email, &ouraToken, &accessToken, &refreshToken,
		&expiresAt, &fitbitUserID, &lastOura, &lastFitbit,
		&syncEnabled, &a.SyncFrequency, &nextSync, &selected, &createdAt)
	if err != nil {
		return nil, err
	}

	a.ID, _ = uuid.Parse(idStr)
	a.OuraToken = ouraToken.String
	a.FitbitAccessToken = accessToken.String
	a.FitbitRefreshToken = refreshToken.String
	a.FitbitUserID = fitbitUserID.String
	a.SyncEnabled = syncEnabled != 0
	a.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)

	var parseErr error
	if a.FitbitTokenExpiresAt, parseErr = parseTimePtr(expiresAt); parseErr != nil {
		return nil, fmt.Errorf("parse fitbit_token_expires_at: %w", parseErr)
	}
	if a.LastOuraSync, parseErr = parseTimePtr(lastOura); parseErr != nil {
		return nil, fmt.Errorf("parse last_oura_sync: %w", parseErr)
	}
	if a.LastFitbitSync, parseErr = parseTimePtr(lastFitbit); parseErr != nil {
		return nil, fmt.Errorf("parse last_fitbit_sync: %w", parseErr)
	}
	if a.NextScheduledSync, parseErr = parseTimePtr(nextSync); parseErr != nil {
		return nil, fmt.Errorf("parse next_scheduled_sync: %w", parseErr)
	}
	if selected.Valid && selected.String != "" {
		if err := json.Unmarshal([]byte(selected.String), &a.SelectedDashboardMetrics); err != nil {
			return nil, fmt.Errorf("unmarshal selected dashboard metrics: %w", err)
		}
	}
	return &a, nil
}

func marshalSelectedMetrics(m map[string][]string) (interface{}, error) {
	if len(m) == 0 {
		return nil, nil
	}
	data, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("marshal selected dashboard metrics: %w", err)
	}
	return string(data), nil
}

func parseTimePtr(s sql.NullString) (*time.Time, error) {
	if !s.Valid || s.String == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, s.String)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func emptyToNull(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
