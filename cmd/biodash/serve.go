// ABOUTME: CLI command for the automatic sync daemon.
// ABOUTME: Runs cron-scheduled syncs for every sync-enabled account.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/harperreed/biodash/internal/models"
	biosync "github.com/harperreed/biodash/internal/sync"
	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the automatic sync daemon",
	Long: `Run the automatic sync daemon in the foreground.

Daily accounts sync at 06:00, weekly accounts on Sunday at 06:00. Each
run covers every sync-enabled account and every connected provider.
Failures are logged and retried on the next scheduled run.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithCancel(cmd.Context())
		defer cancel()

		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		go func() {
			<-sigChan
			cancel()
		}()

		c := cron.New()
		if _, err := c.AddFunc(biosync.DailyCronSpec, func() {
			runScheduledSyncs(ctx, models.FrequencyDaily)
		}); err != nil {
			return err
		}
		if _, err := c.AddFunc(biosync.WeeklyCronSpec, func() {
			runScheduledSyncs(ctx, models.FrequencyWeekly)
		}); err != nil {
			return err
		}

		logger.Info("sync daemon started",
			"daily", biosync.DailyCronSpec,
			"weekly", biosync.WeeklyCronSpec)
		c.Start()
		<-ctx.Done()
		<-c.Stop().Done()
		logger.Info("sync daemon stopped")
		return nil
	},
}

// runScheduledSyncs syncs every connected provider for accounts on the
// given frequency. One account's failure never blocks the others.
func runScheduledSyncs(ctx context.Context, frequency string) {
	accounts, err := repo.ListSyncEnabledAccounts()
	if err != nil {
		logger.Error("failed to list sync-enabled accounts", "err", err)
		return
	}

	for _, a := range accounts {
		if a.SyncFrequency != frequency {
			continue
		}
		for _, provider := range []string{models.ProviderOura, models.ProviderFitbit} {
			if !a.Connected(provider) {
				continue
			}
			if _, err := coord.Run(ctx, a.ID, provider, models.SyncTypeAutomatic); err != nil {
				logger.Error("scheduled sync failed",
					"account", a.Email,
					"provider", provider,
					"err", err)
			}
		}
		if next, err := scheduler.NextRun(a.SyncFrequency); err == nil {
			a.NextScheduledSync = next
			if err := repo.UpdateAccount(a); err != nil {
				logger.Error("failed to update next run", "account", a.Email, "err", err)
			}
		}
	}
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
