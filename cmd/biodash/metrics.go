// ABOUTME: CLI command for listing metric names present in the store.
// ABOUTME: Shows display name, unit, and latest value per metric.
package main

import (
	"fmt"
	"sort"

	"github.com/fatih/color"
	"github.com/harperreed/biodash/internal/models"
	"github.com/spf13/cobra"
)

var metricsPrefix string

var metricsCmd = &cobra.Command{
	Use:   "metrics",
	Short: "List metric names in the store",
	Long: `List every distinct metric name in the store with its latest value.

Examples:
  biodash metrics
  biodash metrics --prefix fitbit_   # Only Fitbit-imported metrics`,
	RunE: func(cmd *cobra.Command, args []string) error {
		names, err := repo.DistinctMetricNames(metricsPrefix)
		if err != nil {
			return fmt.Errorf("failed to list metric names: %w", err)
		}
		if len(names) == 0 {
			fmt.Println("The store is empty.")
			return nil
		}

		total, err := repo.CountPoints(names)
		if err != nil {
			return fmt.Errorf("failed to count points: %w", err)
		}

		faint := color.New(color.Faint)
		for _, name := range names {
			latest, err := repo.LatestPoint(name)
			if err != nil {
				continue
			}
			unit := models.MetricUnit(name)
			fmt.Printf("%s %s %.2f %s %s\n",
				padRight(name, 32),
				faint.Sprint(latest.Date.Format(models.DateFormat)),
				latest.Value,
				unit,
				faint.Sprintf("(%s)", models.MetricCategory(name)))
		}
		fmt.Printf("%d metrics, %d points\n", len(names), total)
		return nil
	},
}

var metricsSelectCmd = &cobra.Command{
	Use:   "select <device> [metric...]",
	Short: "Pin metric names to the dashboard for a device",
	Long: `Pin metric names to the dashboard for a provider or device. Passing
no metric names clears the device's selection.

Examples:
  biodash metrics select oura average_hrv total_sleep_duration
  biodash metrics select oura          # Clear the selection`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		device := args[0]
		names := args[1:]

		if len(names) == 0 {
			delete(account.SelectedDashboardMetrics, device)
		} else {
			if account.SelectedDashboardMetrics == nil {
				account.SelectedDashboardMetrics = make(map[string][]string)
			}
			account.SelectedDashboardMetrics[device] = names
		}

		if err := repo.UpdateAccount(account); err != nil {
			return fmt.Errorf("failed to save selection: %w", err)
		}

		if len(names) == 0 {
			color.Green("✓ Cleared dashboard selection for %s", device)
			return nil
		}
		color.Green("✓ Pinned %d metric(s) for %s", len(names), device)
		return nil
	},
}

var metricsDashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Show pinned dashboard metrics with latest values",
	RunE: func(cmd *cobra.Command, args []string) error {
		selected := account.SelectedDashboardMetrics
		if len(selected) == 0 {
			fmt.Println("No dashboard metrics selected. Pin some with 'biodash metrics select'.")
			return nil
		}

		devices := make([]string, 0, len(selected))
		for device := range selected {
			devices = append(devices, device)
		}
		sort.Strings(devices)

		faint := color.New(color.Faint)
		for _, device := range devices {
			fmt.Printf("%s\n", color.New(color.Bold).Sprint(device))
			for _, name := range selected[device] {
				latest, err := repo.LatestPoint(name)
				if err != nil {
					fmt.Printf("  %s %s\n", padRight(models.DisplayName(name), 32), faint.Sprint("no data yet"))
					continue
				}
				fmt.Printf("  %s %.2f %s %s\n",
					padRight(models.DisplayName(name), 32),
					latest.Value,
					models.MetricUnit(name),
					faint.Sprint(latest.Date.Format(models.DateFormat)))
			}
		}
		return nil
	},
}

func init() {
	metricsCmd.Flags().StringVar(&metricsPrefix, "prefix", "", "filter by metric name prefix")
	metricsCmd.AddCommand(metricsSelectCmd)
	metricsCmd.AddCommand(metricsDashboardCmd)
	rootCmd.AddCommand(metricsCmd)
}
