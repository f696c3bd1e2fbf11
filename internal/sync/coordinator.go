// ABOUTME: Sync coordinator - drives one ingestion run for an account and provider.
// ABOUTME: Owns window derivation, the sync log lifecycle, and last-sync bookkeeping.
package sync

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/harperreed/biodash/internal/models"
	"github.com/harperreed/biodash/internal/storage"
)

// Bootstrap window for an account that has never synced a provider.
const bootstrapDays = 30

// Result summarizes one coordinator run.
type Result struct {
	// NoOp is true when the derived window was empty and nothing ran.
	// No sync log row is written for a no-op.
	NoOp bool

	Log      *models.SyncLog
	Imported int
}

// Coordinator runs provider syncs against the store. Now is injectable for
// deterministic tests and defaults to the wall clock.
type Coordinator struct {
	repo      storage.Repository
	providers map[string]Provider
	logger    *log.Logger
	Now       func() time.Time
}

// NewCoordinator creates a coordinator over the given providers.
func NewCoordinator(repo storage.Repository, logger *log.Logger, providers ...Provider) *Coordinator {
	byName := make(map[string]Provider, len(providers))
	for _, p := range providers {
		byName[p.Name()] = p
	}
	return &Coordinator{
		repo:      repo,
		providers: byName,
		logger:    logger,
		Now:       time.Now,
	}
}

// Run performs one sync for an account and provider. The window starts the
// day after the last successful sync (or 30 days back on first run) and
// ends yesterday; an empty window is a successful no-op. The in_progress
// log row is committed before any network call so interrupted runs remain
// visible. On success the account's last-sync is set to the run time, never
// to the window end. On failure the last-sync is left untouched so the next
// run retries the same window.
func (c *Coordinator) Run(ctx context.Context, accountID uuid.UUID, providerName, syncType string) (*Result, error) {
	provider, ok := c.providers[providerName]
	if !ok {
		return nil, fmt.Errorf("unknown provider %q", providerName)
	}

	account, err := c.repo.GetAccount(accountID)
	if err != nil {
		return nil, fmt.Errorf("sync %s: %w", providerName, err)
	}
	if !account.Connected(providerName) {
		return nil, fmt.Errorf("sync %s: account %s has no credentials", providerName, account.Email)
	}

	now := c.Now()
	today := models.DateOf(now)
	start := today.AddDate(0, 0, -bootstrapDays)
	if last := account.LastSync(providerName); last != nil {
		start = models.DateOf(*last).AddDate(0, 0, 1)
	}
	end := today.AddDate(0, 0, -1)

	if start.After(end) {
		c.logger.Info("sync window empty, nothing to do",
			"provider", providerName,
			"start", start.Format(models.DateFormat),
			"end", end.Format(models.DateFormat))
		return &Result{NoOp: true}, nil
	}

	syncLog := models.NewSyncLog(account.ID, providerName, syncType, start, end)
	if err := c.repo.CreateSyncLog(syncLog); err != nil {
		return nil, fmt.Errorf("sync %s: %w", providerName, err)
	}
	c.logger.Info("sync started",
		"provider", providerName,
		"window", syncLog.StartDate.Format(models.DateFormat)+".."+syncLog.EndDate.Format(models.DateFormat))

	creds := credentialsFor(account, providerName)
	if creds.Expired(now) {
		refreshed, err := provider.Refresh(ctx, creds)
		if err != nil {
			return c.fail(syncLog, fmt.Errorf("refresh token: %w", err))
		}
		creds = refreshed
		applyCredentials(account, providerName, creds)
		// Persist before fetching so a crash mid-fetch does not lose the rotation
		if err := c.repo.UpdateAccount(account); err != nil {
			return c.fail(syncLog, fmt.Errorf("persist refreshed token: %w", err))
		}
		c.logger.Info("access token refreshed", "provider", providerName)
	}

	graph, err := c.sourceGraph(provider)
	if err != nil {
		return c.fail(syncLog, err)
	}

	candidates, err := provider.Fetch(ctx, creds, start, end)
	if err != nil {
		return c.fail(syncLog, fmt.Errorf("fetch: %w", err))
	}
	for i := range candidates {
		candidates[i].GraphID = &graph.ID
	}

	imported, err := c.repo.UpsertPoints(candidates)
	if err != nil {
		return c.fail(syncLog, fmt.Errorf("store points: %w", err))
	}

	completedAt := c.Now()
	if err := c.repo.CompleteSyncLog(syncLog.ID, models.SyncStatusSuccess, imported, "", completedAt); err != nil {
		return nil, fmt.Errorf("sync %s: %w", providerName, err)
	}
	account.SetLastSync(providerName, completedAt)
	if err := c.repo.UpdateAccount(account); err != nil {
		return nil, fmt.Errorf("sync %s: %w", providerName, err)
	}

	syncLog.Status = models.SyncStatusSuccess
	syncLog.RecordsImported = imported
	syncLog.CompletedAt = &completedAt
	c.logger.Info("sync finished",
		"provider", providerName,
		"fetched", len(candidates),
		"imported", imported)
	return &Result{Log: syncLog, Imported: imported}, nil
}

// TestConnection checks an account's credentials for a provider.
func (c *Coordinator) TestConnection(ctx context.Context, accountID uuid.UUID, providerName string) error {
	provider, ok := c.providers[providerName]
	if !ok {
		return fmt.Errorf("unknown provider %q", providerName)
	}
	account, err := c.repo.GetAccount(accountID)
	if err != nil {
		return err
	}
	if !account.Connected(providerName) {
		return fmt.Errorf("account %s has no %s credentials", account.Email, providerName)
	}
	return provider.TestConnection(ctx, credentialsFor(account, providerName))
}

// History returns recent sync logs for an account with success/failure tallies.
func (c *Coordinator) History(accountID uuid.UUID, limit int) ([]*models.SyncLog, int, int, error) {
	logs, err := c.repo.ListSyncLogs(accountID, limit)
	if err != nil {
		return nil, 0, 0, err
	}
	succeeded, failed := 0, 0
	for _, l := range logs {
		switch l.Status {
		case models.SyncStatusSuccess:
			succeeded++
		case models.SyncStatusFailed:
			failed++
		}
	}
	return logs, succeeded, failed, nil
}

// fail transitions the log to failed and leaves the account untouched.
func (c *Coordinator) fail(syncLog *models.SyncLog, cause error) (*Result, error) {
	completedAt := c.Now()
	if err := c.repo.CompleteSyncLog(syncLog.ID, models.SyncStatusFailed, 0, cause.Error(), completedAt); err != nil {
		c.logger.Error("failed to record sync failure", "err", err)
	}
	c.logger.Error("sync failed", "provider", syncLog.Provider, "err", cause)
	if errors.Is(cause, ErrUnauthorized) {
		return nil, fmt.Errorf("sync %s: credentials rejected, reconnect the provider: %w", syncLog.Provider, cause)
	}
	return nil, fmt.Errorf("sync %s: %w", syncLog.Provider, cause)
}

// sourceGraph finds or creates the graph owning a provider's imported points.
func (c *Coordinator) sourceGraph(p Provider) (*models.Graph, error) {
	name := p.SourceGraph()
	graph, err := c.repo.GetGraphByName(name)
	if err == nil {
		return graph, nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("source graph: %w", err)
	}
	graph = models.NewGraph(name, fmt.Sprintf("Imported %s data", p.Name()))
	if err := c.repo.CreateGraph(graph); err != nil {
		return nil, fmt.Errorf("create source graph: %w", err)
	}
	return graph, nil
}

func credentialsFor(a *models.Account, provider string) Credentials {
	switch provider {
	case models.ProviderOura:
		return Credentials{AccessToken: a.OuraToken}
	case models.ProviderFitbit:
		return Credentials{
			AccessToken:  a.FitbitAccessToken,
			RefreshToken: a.FitbitRefreshToken,
			ExpiresAt:    a.FitbitTokenExpiresAt,
		}
	default:
		return Credentials{}
	}
}

func applyCredentials(a *models.Account, provider string, creds Credentials) {
	switch provider {
	case models.ProviderOura:
		a.OuraToken = creds.AccessToken
	case models.ProviderFitbit:
		a.FitbitAccessToken = creds.AccessToken
		a.FitbitRefreshToken = creds.RefreshToken
		a.FitbitTokenExpiresAt = creds.ExpiresAt
	}
}
