// ABOUTME: CLI commands for provider sync.
// ABOUTME: Manual runs, history, status, scheduling, and provider connection.
package main

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/google/uuid"
	"github.com/harperreed/biodash/internal/models"
	biosync "github.com/harperreed/biodash/internal/sync"
	"github.com/spf13/cobra"
)

var (
	syncHistoryLimit int
	syncEnable       bool
	syncDisable      bool
	syncFrequency    string
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Sync provider data",
	Long: `Pull daily metrics from connected providers into the store.

Each run covers the days after the last successful sync up to yesterday
(30 days back on first run). Re-running never duplicates points.

Examples:
  biodash sync connect oura <personal-access-token>
  biodash sync connect fitbit
  biodash sync now oura
  biodash sync history
  biodash sync schedule --enable --frequency daily`,
}

var syncNowCmd = &cobra.Command{
	Use:   "now <provider>",
	Short: "Run a sync for a provider",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		result, err := coord.Run(cmd.Context(), account.ID, args[0], models.SyncTypeManual)
		if err != nil {
			return err
		}
		if result.NoOp {
			fmt.Println("Already up to date; nothing to sync.")
			return nil
		}
		color.Green("✓ Imported %d new points from %s", result.Imported, args[0])
		fmt.Printf("  %s to %s\n",
			result.Log.StartDate.Format(models.DateFormat),
			result.Log.EndDate.Format(models.DateFormat))
		return nil
	},
}

var syncHistoryCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent sync runs",
	RunE: func(cmd *cobra.Command, args []string) error {
		logs, succeeded, failed, err := coord.History(account.ID, syncHistoryLimit)
		if err != nil {
			return fmt.Errorf("failed to load sync history: %w", err)
		}
		if len(logs) == 0 {
			fmt.Println("No sync runs yet.")
			return nil
		}

		fmt.Printf("%d succeeded, %d failed\n", succeeded, failed)
		faint := color.New(color.Faint)
		for _, l := range logs {
			line := fmt.Sprintf("%s %s %s %s..%s %d points",
				faint.Sprint(l.StartedAt.Format("2006-01-02 15:04")),
				l.Provider,
				l.SyncType,
				l.StartDate.Format(models.DateFormat),
				l.EndDate.Format(models.DateFormat),
				l.RecordsImported)
			switch l.Status {
			case models.SyncStatusSuccess:
				fmt.Printf("%s %s\n", color.GreenString("✓"), line)
			case models.SyncStatusFailed:
				msg := ""
				if l.ErrorMessage != nil {
					msg = faint.Sprintf(" (%s)", *l.ErrorMessage)
				}
				fmt.Printf("%s %s%s\n", color.RedString("✗"), line, msg)
			default:
				fmt.Printf("%s %s\n", color.YellowString("…"), line)
			}
		}
		return nil
	},
}

var syncStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show schedule settings and last sync times",
	RunE: func(cmd *cobra.Command, args []string) error {
		status, err := scheduler.Status(account.ID)
		if err != nil {
			return fmt.Errorf("failed to load sync status: %w", err)
		}

		enabled := "disabled"
		if status.Enabled {
			enabled = "enabled"
		}
		fmt.Printf("Automatic sync: %s (%s)\n", enabled, status.Frequency)
		if status.NextRun != nil {
			fmt.Printf("Next run: %s\n", status.NextRun.Format("2006-01-02 15:04"))
		}
		printLastSync("Oura", status.LastOura)
		printLastSync("Fitbit", status.LastFitbit)
		return nil
	},
}

func printLastSync(label string, last *time.Time) {
	if last == nil {
		fmt.Printf("Last %s sync: never\n", label)
		return
	}
	fmt.Printf("Last %s sync: %s\n", label, last.Format("2006-01-02 15:04"))
}

var syncScheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Configure automatic sync",
	Long: `Enable or disable automatic sync. Daily runs at 06:00, weekly runs
Sunday at 06:00. Enabling requires a daily or weekly frequency.

Examples:
  biodash sync schedule --enable --frequency daily
  biodash sync schedule --disable`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if syncEnable == syncDisable {
			return fmt.Errorf("pass exactly one of --enable or --disable")
		}

		frequency := syncFrequency
		if syncDisable && frequency == "" {
			frequency = models.FrequencyManual
		}
		if syncEnable && frequency == "" {
			return fmt.Errorf("--enable requires --frequency daily or weekly")
		}

		updated, err := scheduler.Configure(account.ID, syncEnable, frequency)
		if err != nil {
			return err
		}

		if updated.SyncEnabled {
			color.Green("✓ Automatic sync enabled (%s)", updated.SyncFrequency)
			if updated.NextScheduledSync != nil {
				fmt.Printf("  Next run: %s\n", updated.NextScheduledSync.Format("2006-01-02 15:04"))
			}
		} else {
			color.Green("✓ Automatic sync disabled")
		}
		return nil
	},
}

var syncConnectCmd = &cobra.Command{
	Use:   "connect <provider> [token]",
	Short: "Connect a provider account",
	Long: `Connect a provider account.

Oura uses a long-lived personal access token:
  biodash sync connect oura <token>

Fitbit uses OAuth. Configure fitbit_client_id, fitbit_client_secret, and
fitbit_redirect_url first, then:
  biodash sync connect fitbit`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		switch args[0] {
		case models.ProviderOura:
			if len(args) < 2 {
				return fmt.Errorf("usage: biodash sync connect oura <token>")
			}
			account.OuraToken = args[1]
			if err := repo.UpdateAccount(account); err != nil {
				return fmt.Errorf("failed to save token: %w", err)
			}
			color.Green("✓ Oura connected")
			fmt.Println("  Run 'biodash sync test oura' to verify the token.")
			return nil

		case models.ProviderFitbit:
			return connectFitbit(cmd)

		default:
			return fmt.Errorf("unknown provider %q (want oura or fitbit)", args[0])
		}
	},
}

func connectFitbit(cmd *cobra.Command) error {
	state := uuid.NewString()
	authURL, err := fitbitClient.AuthCodeURL(state)
	if err != nil {
		return err
	}

	fmt.Println("Open this URL in your browser and authorize access:")
	fmt.Printf("\n  %s\n\n", authURL)
	fmt.Print("Paste the authorization code here: ")

	reader := bufio.NewReader(os.Stdin)
	code, err := reader.ReadString('\n')
	if err != nil {
		return fmt.Errorf("failed to read code: %w", err)
	}
	code = strings.TrimSpace(code)
	if code == "" {
		return fmt.Errorf("no authorization code provided")
	}

	creds, err := fitbitClient.Exchange(cmd.Context(), code)
	if err != nil {
		return fmt.Errorf("failed to exchange code: %w", err)
	}

	account.FitbitAccessToken = creds.AccessToken
	account.FitbitRefreshToken = creds.RefreshToken
	account.FitbitTokenExpiresAt = creds.ExpiresAt
	if err := repo.UpdateAccount(account); err != nil {
		return fmt.Errorf("failed to save credentials: %w", err)
	}

	color.Green("✓ Fitbit connected")
	return nil
}

var syncTestCmd = &cobra.Command{
	Use:   "test <provider>",
	Short: "Verify a provider's credentials",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := coord.TestConnection(cmd.Context(), account.ID, args[0]); err != nil {
			if errors.Is(err, biosync.ErrUnauthorized) {
				return fmt.Errorf("%s rejected the credentials, reconnect with 'biodash sync connect %s'", args[0], args[0])
			}
			return err
		}
		color.Green("✓ %s connection OK", args[0])
		return nil
	},
}

var syncDisconnectCmd = &cobra.Command{
	Use:   "disconnect <provider>",
	Short: "Remove a provider's credentials",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		switch args[0] {
		case models.ProviderOura:
			account.OuraToken = ""
		case models.ProviderFitbit:
			account.FitbitAccessToken = ""
			account.FitbitRefreshToken = ""
			account.FitbitTokenExpiresAt = nil
		default:
			return fmt.Errorf("unknown provider %q (want oura or fitbit)", args[0])
		}
		if err := repo.UpdateAccount(account); err != nil {
			return fmt.Errorf("failed to update account: %w", err)
		}
		color.Green("✓ %s disconnected", args[0])
		return nil
	},
}

func init() {
	syncHistoryCmd.Flags().IntVarP(&syncHistoryLimit, "limit", "n", 20, "max runs to show")
	syncScheduleCmd.Flags().BoolVar(&syncEnable, "enable", false, "enable automatic sync")
	syncScheduleCmd.Flags().BoolVar(&syncDisable, "disable", false, "disable automatic sync")
	syncScheduleCmd.Flags().StringVar(&syncFrequency, "frequency", "", "sync frequency: daily or weekly")

	syncCmd.AddCommand(syncNowCmd)
	syncCmd.AddCommand(syncHistoryCmd)
	syncCmd.AddCommand(syncStatusCmd)
	syncCmd.AddCommand(syncScheduleCmd)
	syncCmd.AddCommand(syncConnectCmd)
	syncCmd.AddCommand(syncTestCmd)
	syncCmd.AddCommand(syncDisconnectCmd)
	rootCmd.AddCommand(syncCmd)
}
