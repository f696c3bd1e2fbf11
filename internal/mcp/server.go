// ABOUTME: MCP server setup for the metrics dashboard.
// ABOUTME: Wires storage, graph resolver, experiment engine, and sync coordinator.
package mcp

import (
	"context"

	"github.com/google/uuid"
	"github.com/harperreed/biodash/internal/experiments"
	"github.com/harperreed/biodash/internal/graphs"
	"github.com/harperreed/biodash/internal/storage"
	biosync "github.com/harperreed/biodash/internal/sync"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// Server wraps the MCP server with dashboard services.
type Server struct {
	mcpServer *mcp.Server
	repo      storage.Repository
	resolver  *graphs.Resolver
	graphSvc  *graphs.Service
	engine    *experiments.Engine
	coord     *biosync.Coordinator
	scheduler *biosync.Scheduler
	accountID uuid.UUID
}

// NewServer creates an MCP server operating on one account.
func NewServer(repo storage.Repository, coord *biosync.Coordinator, accountID uuid.UUID) (*Server, error) {
	mcpServer := mcp.NewServer(
		&mcp.Implementation{
			Name:    "biodash",
			Version: "1.0.0",
		},
		nil,
	)

	s := &Server{
		mcpServer: mcpServer,
		repo:      repo,
		resolver:  graphs.NewResolver(repo),
		graphSvc:  graphs.NewService(repo),
		engine:    experiments.NewEngine(repo),
		coord:     coord,
		scheduler: biosync.NewScheduler(repo),
		accountID: accountID,
	}

	s.registerTools()
	s.registerResources()

	return s, nil
}

// Serve starts the MCP server using stdio transport.
func (s *Server) Serve(ctx context.Context) error {
	return s.mcpServer.Run(ctx, &mcp.StdioTransport{})
}
