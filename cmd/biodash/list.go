// ABOUTME: CLI command for listing metric points.
// ABOUTME: Supports metric-name and date-range filters.
package main

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/harperreed/biodash/internal/models"
	"github.com/harperreed/biodash/internal/storage"
	"github.com/spf13/cobra"
)

var (
	listMetric string
	listFrom   string
	listTo     string
)

var listCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls", "l"},
	Short:   "List metric points",
	Long: `List stored metric points, oldest first.

Each line shows: DATE  METRIC  VALUE  UNIT

Examples:
  biodash list                       # All points
  biodash list --metric steps        # Only step counts
  biodash list --from 2025-06-01 --to 2025-06-07`,
	RunE: func(cmd *cobra.Command, args []string) error {
		filter := storage.PointFilter{MetricName: listMetric}
		if listFrom != "" {
			from, err := models.ParseDate(listFrom)
			if err != nil {
				return fmt.Errorf("invalid --from date: %s", listFrom)
			}
			filter.From = &from
		}
		if listTo != "" {
			to, err := models.ParseDate(listTo)
			if err != nil {
				return fmt.Errorf("invalid --to date: %s", listTo)
			}
			filter.To = &to
		}

		points, err := repo.QueryPoints(filter)
		if err != nil {
			return fmt.Errorf("failed to list points: %w", err)
		}
		if len(points) == 0 {
			fmt.Println("No points found.")
			return nil
		}

		faint := color.New(color.Faint)
		for _, p := range points {
			fmt.Printf("%s %s %.2f %s\n",
				faint.Sprint(p.Date.Format(models.DateFormat)),
				padRight(p.MetricName, 32),
				p.Value,
				models.MetricUnit(p.MetricName))
		}
		return nil
	},
}

func padRight(s string, length int) string {
	if len(s) >= length {
		return s
	}
	return s + strings.Repeat(" ", length-len(s))
}

func init() {
	listCmd.Flags().StringVarP(&listMetric, "metric", "m", "", "filter by metric name")
	listCmd.Flags().StringVar(&listFrom, "from", "", "start date (YYYY-MM-DD), inclusive")
	listCmd.Flags().StringVar(&listTo, "to", "", "end date (YYYY-MM-DD), inclusive")
	rootCmd.AddCommand(listCmd)
}
