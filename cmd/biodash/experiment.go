// ABOUTME: CLI commands for behavioral experiments.
// ABOUTME: Create, list, stats, 7-day table, complete, and delete.
package main

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/google/uuid"
	"github.com/harperreed/biodash/internal/experiments"
	"github.com/harperreed/biodash/internal/models"
	"github.com/spf13/cobra"
)

var (
	expPeriod      string
	expBenchmark   string
	expDescription string
	expDriver      string
	expStartDate   string
	expEndDate     string
)

var experimentCmd = &cobra.Command{
	Use:     "experiment",
	Aliases: []string{"exp", "e"},
	Short:   "Manage behavioral experiments",
	Long: `An experiment tracks one metric against a benchmark derived from the
7 days before it starts.

Examples:
  biodash experiment create "Morning walks" steps --period 1-week
  biodash experiment stats <id>
  biodash experiment table <id>
  biodash experiment complete <id>`,
}

var experimentCreateCmd = &cobra.Command{
	Use:   "create <title> <metric>",
	Short: "Create an experiment",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		benchmark := expBenchmark
		if benchmark == "" {
			benchmark = models.BenchmarkAvg7Days
		}
		period := expPeriod
		if period == "" {
			period = models.PeriodCustom
		}

		exp := models.NewExperiment(args[0], args[1], benchmark, period)
		exp.Description = expDescription
		exp.Driver = expDriver

		if expStartDate != "" {
			start, err := models.ParseDate(expStartDate)
			if err != nil {
				return fmt.Errorf("invalid --start date: %s", expStartDate)
			}
			exp.StartDate = &start
		}
		if expEndDate != "" {
			end, err := models.ParseDate(expEndDate)
			if err != nil {
				return fmt.Errorf("invalid --end date: %s", expEndDate)
			}
			exp.EndDate = &end
		}

		engine := experiments.NewEngine(repo)
		engine.AutoCalculateDates(exp)

		if err := repo.CreateExperiment(exp); err != nil {
			return fmt.Errorf("failed to create experiment: %w", err)
		}

		color.Green("✓ Created experiment %q tracking %s", exp.Title, exp.MetricOfInterest)
		fmt.Printf("  %s\n", exp.ID)
		if exp.StartDate != nil && exp.EndDate != nil {
			fmt.Printf("  %s to %s\n",
				exp.StartDate.Format(models.DateFormat),
				exp.EndDate.Format(models.DateFormat))
		}
		return nil
	},
}

var experimentListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List experiments, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		all, err := repo.ListExperiments()
		if err != nil {
			return fmt.Errorf("failed to list experiments: %w", err)
		}
		if len(all) == 0 {
			fmt.Println("No experiments yet.")
			return nil
		}

		engine := experiments.NewEngine(repo)
		now := engine.Now()
		faint := color.New(color.Faint)
		for _, exp := range all {
			window := "unscheduled"
			if exp.StartDate != nil {
				window = exp.StartDate.Format(models.DateFormat) + " to ?"
				if exp.EndDate != nil {
					window = exp.StartDate.Format(models.DateFormat) + " to " + exp.EndDate.Format(models.DateFormat)
				}
			}
			fmt.Printf("%s %s (%s) %s %s\n",
				faint.Sprint(exp.ID.String()[:8]),
				exp.Title,
				exp.MetricOfInterest,
				faint.Sprint(window),
				exp.State(now))
		}
		return nil
	},
}

var experimentStatsCmd = &cobra.Command{
	Use:   "stats <id>",
	Short: "Show benchmark, current value, and improvement",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		exp, err := lookupExperiment(args[0])
		if err != nil {
			return err
		}

		engine := experiments.NewEngine(repo)
		stats, err := engine.Stats(exp)
		if err != nil {
			return fmt.Errorf("failed to compute stats: %w", err)
		}

		fmt.Printf("%s (%s)\n", color.New(color.Bold).Sprint(exp.Title), exp.MetricOfInterest)
		fmt.Printf("  Benchmark: %s (%s, %d points)\n",
			formatValue(stats.Benchmark.Value), stats.Benchmark.Period, stats.Benchmark.Count)
		fmt.Printf("  Current:   %s (%s)\n",
			formatValue(stats.Current.Value), stats.Current.Period)
		if stats.ImprovementPct != nil {
			if *stats.ImprovementPct >= 0 {
				color.Green("  Improvement: +%.1f%%", *stats.ImprovementPct)
			} else {
				color.Red("  Improvement: %.1f%%", *stats.ImprovementPct)
			}
		} else {
			fmt.Println("  Improvement: n/a")
		}
		return nil
	},
}

var experimentTableCmd = &cobra.Command{
	Use:   "table <id>",
	Short: "Show the 7-day tracking table",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		exp, err := lookupExperiment(args[0])
		if err != nil {
			return err
		}

		engine := experiments.NewEngine(repo)
		rows, err := engine.TableData(exp)
		if err != nil {
			return fmt.Errorf("failed to build table: %w", err)
		}

		faint := color.New(color.Faint)
		for _, row := range rows {
			if !row.HasData {
				fmt.Printf("%s %s\n", row.Date.Format(models.DateFormat), faint.Sprint("-"))
				continue
			}
			deviation := ""
			if row.Deviation != nil {
				deviation = fmt.Sprintf(" (%+.2f vs benchmark)", *row.Deviation)
			}
			fmt.Printf("%s %.2f%s\n", row.Date.Format(models.DateFormat), *row.Value, deviation)
		}
		return nil
	},
}

var experimentCompleteCmd = &cobra.Command{
	Use:   "complete <id>",
	Short: "End an experiment",
	Long:  `End an experiment. Sets the end date to today if none was set.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		exp, err := lookupExperiment(args[0])
		if err != nil {
			return err
		}

		engine := experiments.NewEngine(repo)
		done, err := engine.Complete(exp.ID)
		if err != nil {
			return fmt.Errorf("failed to complete experiment: %w", err)
		}
		color.Green("✓ Experiment %q ended on %s", done.Title, done.EndDate.Format(models.DateFormat))
		return nil
	},
}

var experimentDataCmd = &cobra.Command{
	Use:   "data <id>",
	Short: "Show the experiment's in-window points",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		exp, err := lookupExperiment(args[0])
		if err != nil {
			return err
		}

		engine := experiments.NewEngine(repo)
		points, err := engine.Datapoints(exp)
		if err != nil {
			return fmt.Errorf("failed to load datapoints: %w", err)
		}
		if len(points) == 0 {
			fmt.Println("No points in the experiment window.")
			return nil
		}

		faint := color.New(color.Faint)
		for _, p := range points {
			fmt.Printf("%s %.2f\n", faint.Sprint(p.Date.Format(models.DateFormat)), p.Value)
		}
		return nil
	},
}

var experimentDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete an experiment",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		exp, err := lookupExperiment(args[0])
		if err != nil {
			return err
		}
		if err := repo.DeleteExperiment(exp.ID); err != nil {
			return fmt.Errorf("failed to delete experiment: %w", err)
		}
		color.Green("✓ Deleted experiment %q", exp.Title)
		return nil
	},
}

func formatValue(v *float64) string {
	if v == nil {
		return "n/a"
	}
	return fmt.Sprintf("%.2f", *v)
}

// lookupExperiment resolves a full or 8-character-prefix experiment ID.
func lookupExperiment(id string) (*models.Experiment, error) {
	if eid, err := uuid.Parse(id); err == nil {
		exp, err := repo.GetExperiment(eid)
		if err != nil {
			return nil, fmt.Errorf("experiment not found: %s", id)
		}
		return exp, nil
	}

	all, err := repo.ListExperiments()
	if err != nil {
		return nil, fmt.Errorf("failed to list experiments: %w", err)
	}
	var match *models.Experiment
	for _, exp := range all {
		if strings.HasPrefix(exp.ID.String(), id) {
			if match != nil {
				return nil, fmt.Errorf("ambiguous experiment id prefix: %s", id)
			}
			match = exp
		}
	}
	if match == nil {
		return nil, fmt.Errorf("experiment not found: %s", id)
	}
	return match, nil
}

func init() {
	experimentCreateCmd.Flags().StringVar(&expPeriod, "period", "", "period: 1-week, 2-weeks, 1-month, or custom")
	experimentCreateCmd.Flags().StringVar(&expBenchmark, "benchmark", "", "benchmark strategy (default avg-7-days)")
	experimentCreateCmd.Flags().StringVar(&expDescription, "description", "", "what the experiment changes")
	experimentCreateCmd.Flags().StringVar(&expDriver, "driver", "", "why this experiment matters")
	experimentCreateCmd.Flags().StringVar(&expStartDate, "start", "", "explicit start date (YYYY-MM-DD)")
	experimentCreateCmd.Flags().StringVar(&expEndDate, "end", "", "explicit end date (YYYY-MM-DD)")

	experimentCmd.AddCommand(experimentCreateCmd)
	experimentCmd.AddCommand(experimentListCmd)
	experimentCmd.AddCommand(experimentStatsCmd)
	experimentCmd.AddCommand(experimentTableCmd)
	experimentCmd.AddCommand(experimentCompleteCmd)
	experimentCmd.AddCommand(experimentDataCmd)
	experimentCmd.AddCommand(experimentDeleteCmd)
	rootCmd.AddCommand(experimentCmd)
}
