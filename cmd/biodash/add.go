// ABOUTME: CLI command for recording metric points.
// ABOUTME: Store-level by default, graph-owned with --graph.
package main

import (
	"fmt"
	"strconv"

	"github.com/fatih/color"
	"github.com/google/uuid"
	"github.com/harperreed/biodash/internal/models"
	"github.com/spf13/cobra"
)

var (
	addDate  string
	addGraph string
)

var addCmd = &cobra.Command{
	Use:     "add <metric> <value>",
	Aliases: []string{"a"},
	Short:   "Record a metric value",
	Long: `Record a metric value for a date. Defaults to today. One value per
metric per day; adding a duplicate leaves the existing value unchanged.

Examples:
  biodash add mood 7
  biodash add weight 82.5 --date 2025-06-01
  biodash add average_hrv 48 --graph 3f2a...`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		metricName := args[0]
		value, err := strconv.ParseFloat(args[1], 64)
		if err != nil {
			return fmt.Errorf("invalid value: %s", args[1])
		}

		date := models.DateOf(coord.Now())
		if addDate != "" {
			date, err = models.ParseDate(addDate)
			if err != nil {
				return fmt.Errorf("invalid date %q (want YYYY-MM-DD)", addDate)
			}
		}

		candidate := models.PointCandidate{Date: date, MetricName: metricName, Value: value}
		if addGraph != "" {
			gid, err := uuid.Parse(addGraph)
			if err != nil {
				return fmt.Errorf("invalid graph id: %s", addGraph)
			}
			candidate.GraphID = &gid
		}

		inserted, err := repo.UpsertPoints([]models.PointCandidate{candidate})
		if err != nil {
			return fmt.Errorf("failed to add point: %w", err)
		}
		if inserted == 0 {
			color.Yellow("! %s already has a %s value; left unchanged",
				date.Format(models.DateFormat), metricName)
			return nil
		}

		color.Green("✓ Added %s", metricName)
		unit := models.MetricUnit(metricName)
		if unit != "" {
			fmt.Printf("  %s %.2f %s\n", date.Format(models.DateFormat), value, unit)
		} else {
			fmt.Printf("  %s %.2f\n", date.Format(models.DateFormat), value)
		}
		return nil
	},
}

func init() {
	addCmd.Flags().StringVar(&addDate, "date", "", "date (YYYY-MM-DD), defaults to today")
	addCmd.Flags().StringVar(&addGraph, "graph", "", "owning graph ID for graph-scoped points")
	rootCmd.AddCommand(addCmd)
}
