// ABOUTME: Root Cobra command for biodash CLI.
// ABOUTME: Opens storage, resolves the account, and wires sync providers.
package main

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/harperreed/biodash/internal/config"
	"github.com/harperreed/biodash/internal/models"
	"github.com/harperreed/biodash/internal/provider/fitbit"
	"github.com/harperreed/biodash/internal/provider/oura"
	"github.com/harperreed/biodash/internal/storage"
	biosync "github.com/harperreed/biodash/internal/sync"
	"github.com/spf13/cobra"
)

var (
	cfg          *config.Config
	repo         storage.Repository
	account      *models.Account
	coord        *biosync.Coordinator
	scheduler    *biosync.Scheduler
	logger       *log.Logger
	fitbitClient *fitbit.Client
)

var rootCmd = &cobra.Command{
	Use:   "biodash",
	Short: "Personal health metrics dashboard",
	Long: `Biodash tracks daily health metrics, graphs them, runs behavioral
experiments against them, and pulls data from Oura and Fitbit.

QUICK START:

  $ biodash add mood 7                      # Log today's mood
  $ biodash add weight 82.5 --date 2025-06-01
  $ biodash list --metric mood              # See recent points
  $ biodash metrics                         # List all metric names

GRAPHS:

  $ biodash graph create "Sleep" --track total_sleep_duration,average_hrv
  $ biodash graph list
  $ biodash graph show <id>                 # Resolve data series
  $ biodash graph prompt <id>               # Plain-text lines for an LLM

EXPERIMENTS:

  $ biodash experiment create "Morning walks" steps --period 1-week
  $ biodash experiment stats <id>           # Benchmark vs current value
  $ biodash experiment table <id>           # 7-day tracking table

SYNC:

  $ biodash sync connect oura <token>       # Save an Oura personal token
  $ biodash sync connect fitbit             # OAuth flow for Fitbit
  $ biodash sync now oura                   # Pull missing days
  $ biodash sync schedule --enable --frequency daily
  $ biodash serve                           # Run the automatic sync daemon

MCP INTEGRATION:

  Run 'biodash mcp' to start the Model Context Protocol server for use
  with MCP-compatible AI assistants.

DATA STORAGE:

  Points are stored in SQLite at ~/.local/share/biodash/biodash.db.
  Override with BIODASH_DATA_DIR or data_dir in the config file.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Skip setup for commands that don't touch storage
		if cmd.Name() == "version" || cmd.Name() == "help" || cmd.Name() == "completion" {
			return nil
		}

		var err error
		cfg, err = config.Load()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		repo, err = cfg.OpenStorage()
		if err != nil {
			return fmt.Errorf("failed to open storage: %w", err)
		}

		account, err = resolveAccount(repo, cfg.GetAccountEmail())
		if err != nil {
			return fmt.Errorf("failed to resolve account: %w", err)
		}

		logger = log.New(os.Stderr)

		httpClient := &http.Client{
			Timeout: time.Duration(cfg.GetHTTPTimeoutSeconds()) * time.Second,
		}
		ouraClient := oura.NewClient(oura.WithHTTPClient(httpClient))
		fitbitClient = fitbit.NewClient(
			fitbit.OAuthConfig(cfg.FitbitClientID, cfg.FitbitClientSecret, cfg.FitbitRedirectURL),
			fitbit.WithHTTPClient(httpClient),
		)

		coord = biosync.NewCoordinator(repo, logger, ouraClient, fitbitClient)
		scheduler = biosync.NewScheduler(repo)
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if repo != nil {
			return repo.Close()
		}
		return nil
	},
}

// resolveAccount looks up the configured account, creating it on first run.
func resolveAccount(r storage.Repository, email string) (*models.Account, error) {
	a, err := r.GetAccountByEmail(email)
	if err == nil {
		return a, nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return nil, err
	}
	a = models.NewAccount(email)
	if err := r.CreateAccount(a); err != nil {
		return nil, err
	}
	return a, nil
}
