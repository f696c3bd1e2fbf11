// ABOUTME: CLI command for starting the MCP server.
// ABOUTME: Runs the stdio-based MCP server for AI assistant integration.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/harperreed/biodash/internal/mcp"
	"github.com/spf13/cobra"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start MCP server",
	Long: `Start the Model Context Protocol (MCP) server for AI assistant
integration. The server communicates via stdin/stdout.

CLIENT CONFIGURATION:

  {
    "mcpServers": {
      "biodash": {
        "command": "biodash",
        "args": ["mcp"]
      }
    }
  }

AVAILABLE TOOLS:

  add_point             Record a metric value
  list_points           List stored points
  list_metric_names     List distinct metric names
  select_dashboard_metrics  Pin metrics to the dashboard for a device
  get_dashboard         Pinned metrics with latest values
  list_graphs           List saved graphs
  create_graph          Create a graph
  get_graph_data        Resolve a graph into data series
  get_graph_prompt      Plain-text lines for summarization
  delete_graph          Delete a graph and its owned points
  create_experiment     Create a behavioral experiment
  list_experiments      List experiments
  get_experiment_stats  Benchmark, current value, improvement
  get_experiment_table  7-day tracking table
  complete_experiment   End an experiment
  sync_now              Run a provider sync
  sync_history          Recent sync runs
  sync_status           Schedule settings

AVAILABLE RESOURCES:

  biodash://recent    Most recently recorded points
  biodash://summary   Metric names, latest values, and graphs`,
	RunE: func(cmd *cobra.Command, args []string) error {
		server, err := mcp.NewServer(repo, coord, account.ID)
		if err != nil {
			return err
		}

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		go func() {
			<-sigChan
			cancel()
		}()

		return server.Serve(ctx)
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}
