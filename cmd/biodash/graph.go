// ABOUTME: CLI commands for graph management.
// ABOUTME: Create, list, resolve, convert, and explore graphs.
package main

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/google/uuid"
	"github.com/harperreed/biodash/internal/graphs"
	"github.com/harperreed/biodash/internal/models"
	"github.com/spf13/cobra"
)

var (
	graphDescription string
	graphTrack       []string
	graphConvertAll  bool
)

var graphCmd = &cobra.Command{
	Use:     "graph",
	Aliases: []string{"g"},
	Short:   "Manage graphs",
	Long: `Manage graphs. A dynamic graph tracks metric names and always shows
the whole store's data for them; a static graph shows only the points
it owns (for example provider imports).

Examples:
  biodash graph create "Sleep" --track total_sleep_duration,average_hrv
  biodash graph list
  biodash graph show <id>
  biodash graph prompt <id>
  biodash graph convert <id>
  biodash graph delete <id>`,
}

var graphListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List saved graphs",
	RunE: func(cmd *cobra.Command, args []string) error {
		all, err := repo.ListGraphs(false)
		if err != nil {
			return fmt.Errorf("failed to list graphs: %w", err)
		}
		if len(all) == 0 {
			fmt.Println("No graphs yet.")
			return nil
		}

		faint := color.New(color.Faint)
		for _, g := range all {
			kind := "static"
			detail := ""
			if g.IsDynamic() {
				kind = "dynamic"
				detail = faint.Sprintf(" [%s]", strings.Join(g.TrackedMetrics, ", "))
			}
			fmt.Printf("%s %s (%s)%s\n",
				faint.Sprint(g.ID.String()[:8]),
				g.Name, kind, detail)
		}
		return nil
	},
}

var graphCreateCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Create a graph",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		g := models.NewGraph(args[0], graphDescription)
		if len(graphTrack) > 0 {
			g.WithTrackedMetrics(graphTrack)
		}
		if err := repo.CreateGraph(g); err != nil {
			return fmt.Errorf("failed to create graph: %w", err)
		}

		color.Green("✓ Created graph %q", g.Name)
		fmt.Printf("  %s\n", g.ID)
		return nil
	},
}

var graphShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Resolve a graph into its data series",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		g, err := lookupGraph(args[0])
		if err != nil {
			return err
		}

		resolver := graphs.NewResolver(repo)
		series, err := resolver.Resolve(g)
		if err != nil {
			return fmt.Errorf("failed to resolve graph: %w", err)
		}

		faint := color.New(color.Faint)
		fmt.Printf("%s\n", color.New(color.Bold).Sprint(g.Name))
		for _, s := range series {
			fmt.Printf("  %s (%d points)\n", s.Name, len(s.Points))
			for _, p := range s.Points {
				fmt.Printf("    %s %.2f\n", faint.Sprint(p.Date.Format(models.DateFormat)), p.Value)
			}
		}
		return nil
	},
}

var graphPromptCmd = &cobra.Command{
	Use:   "prompt <id>",
	Short: "Render a graph's data as plain text lines",
	Long:  `Render a graph's data as one line per point, suitable for pasting into an LLM prompt.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		g, err := lookupGraph(args[0])
		if err != nil {
			return err
		}

		resolver := graphs.NewResolver(repo)
		payload, err := resolver.PromptPayload(g)
		if err != nil {
			return fmt.Errorf("failed to build prompt payload: %w", err)
		}
		if payload == "" {
			fmt.Println("No data.")
			return nil
		}
		fmt.Print(payload)
		return nil
	},
}

var graphDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a graph and the points it owns",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		g, err := lookupGraph(args[0])
		if err != nil {
			return err
		}
		if err := repo.DeleteGraph(g.ID); err != nil {
			return fmt.Errorf("failed to delete graph: %w", err)
		}
		color.Green("✓ Deleted graph %q and its owned points", g.Name)
		return nil
	},
}

var graphConvertCmd = &cobra.Command{
	Use:   "convert [id]",
	Short: "Convert a static graph to dynamic",
	Long: `Convert a static graph to dynamic by snapshotting the metric names
among its owned points. Use --all to convert every eligible graph.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc := graphs.NewService(repo)

		if graphConvertAll {
			n, err := svc.ConvertAllToDynamic()
			if err != nil {
				return fmt.Errorf("failed to convert graphs: %w", err)
			}
			color.Green("✓ Converted %d graph(s) to dynamic", n)
			return nil
		}

		if len(args) == 0 {
			return fmt.Errorf("provide a graph id or --all")
		}
		g, err := lookupGraph(args[0])
		if err != nil {
			return err
		}
		converted, err := svc.ConvertToDynamic(g.ID)
		if err != nil {
			return fmt.Errorf("failed to convert graph: %w", err)
		}
		color.Green("✓ Graph %q now tracks: %s", converted.Name, strings.Join(converted.TrackedMetrics, ", "))
		return nil
	},
}

var graphExplorerCmd = &cobra.Command{
	Use:   "explorer <start|save|cancel> [args]",
	Short: "Scratch graphs for interactive exploration",
	Long: `Explorer graphs are temporary: hidden from listings until saved,
discarded with their points on cancel.

Examples:
  biodash graph explorer start
  biodash graph explorer save <id> "Sleep deep dive"
  biodash graph explorer cancel <id>`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc := graphs.NewService(repo)

		switch args[0] {
		case "start":
			g, err := svc.StartExplorer()
			if err != nil {
				return fmt.Errorf("failed to start explorer: %w", err)
			}
			color.Green("✓ Explorer started")
			fmt.Printf("  %s\n", g.ID)
			return nil

		case "save":
			if len(args) < 3 {
				return fmt.Errorf("usage: biodash graph explorer save <id> <name>")
			}
			gid, err := uuid.Parse(args[1])
			if err != nil {
				return fmt.Errorf("invalid graph id: %s", args[1])
			}
			saved, err := svc.SaveExplorer(gid, args[2], graphDescription)
			if err != nil {
				return fmt.Errorf("failed to save explorer: %w", err)
			}
			color.Green("✓ Saved as %q", saved.Name)
			return nil

		case "cancel":
			if len(args) < 2 {
				return fmt.Errorf("usage: biodash graph explorer cancel <id>")
			}
			gid, err := uuid.Parse(args[1])
			if err != nil {
				return fmt.Errorf("invalid graph id: %s", args[1])
			}
			if err := svc.CancelExplorer(gid); err != nil {
				return fmt.Errorf("failed to cancel explorer: %w", err)
			}
			color.Green("✓ Explorer discarded")
			return nil

		default:
			return fmt.Errorf("unknown explorer action %q (want start, save, or cancel)", args[0])
		}
	},
}

// lookupGraph resolves a full or 8-character-prefix graph ID.
func lookupGraph(id string) (*models.Graph, error) {
	if gid, err := uuid.Parse(id); err == nil {
		g, err := repo.GetGraph(gid)
		if err != nil {
			return nil, fmt.Errorf("graph not found: %s", id)
		}
		return g, nil
	}

	all, err := repo.ListGraphs(true)
	if err != nil {
		return nil, fmt.Errorf("failed to list graphs: %w", err)
	}
	var match *models.Graph
	for _, g := range all {
		if strings.HasPrefix(g.ID.String(), id) {
			if match != nil {
				return nil, fmt.Errorf("ambiguous graph id prefix: %s", id)
			}
			match = g
		}
	}
	if match == nil {
		return nil, fmt.Errorf("graph not found: %s", id)
	}
	return match, nil
}

func init() {
	graphCreateCmd.Flags().StringVar(&graphDescription, "description", "", "graph description")
	graphCreateCmd.Flags().StringSliceVar(&graphTrack, "track", nil, "metric names to track dynamically")
	graphConvertCmd.Flags().BoolVar(&graphConvertAll, "all", false, "convert every eligible graph")

	graphCmd.AddCommand(graphListCmd)
	graphCmd.AddCommand(graphCreateCmd)
	graphCmd.AddCommand(graphShowCmd)
	graphCmd.AddCommand(graphPromptCmd)
	graphCmd.AddCommand(graphDeleteCmd)
	graphCmd.AddCommand(graphConvertCmd)
	graphCmd.AddCommand(graphExplorerCmd)
	rootCmd.AddCommand(graphCmd)
}
