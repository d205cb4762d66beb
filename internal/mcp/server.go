// Package mcp exposes topology inspection and crossing simulation to MCP
// clients over stdio.
package mcp

import (
	"context"
	"io"
	"log/slog"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/1broseidon/screenhop/internal/engine"
	"github.com/1broseidon/screenhop/internal/ipc"
)

const (
	ServerName    = "screenhop"
	ServerVersion = "0.1.0"
)

// LiveSource answers live queries; *ipc.Client satisfies it.
type LiveSource interface {
	GetTopology() (*engine.View, error)
}

// Server is the MCP server for screenhop.
type Server struct {
	mcpServer  *mcpsdk.Server
	configPath string
	live       LiveSource
	// logger receives diagnostics from private engines; stdout belongs to
	// the transport.
	logger *slog.Logger
}

// NewServer creates a server whose tools default to configPath.
func NewServer(configPath string, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	s := &Server{
		configPath: configPath,
		live:       ipc.NewClient(),
		logger:     logger,
	}

	s.mcpServer = mcpsdk.NewServer(
		&mcpsdk.Implementation{
			Name:    ServerName,
			Version: ServerVersion,
		},
		nil,
	)

	s.registerTools()
	return s
}

// Run starts the MCP server on stdio transport, blocking until done.
func (s *Server) Run(ctx context.Context) error {
	return s.mcpServer.Run(ctx, &mcpsdk.StdioTransport{})
}

func (s *Server) registerTools() {
	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "get_topology",
		Description: "Describe the screen layout: every screen's rectangle, sensitivity and neighbours on each edge, plus explicit edge mappings. Reads the configuration file by default; pass live=true to query the running daemon.",
	}, s.handleGetTopology)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "resolve_crossing",
		Description: "Report which screen a pointer reaches when it leaves the given screen through an edge at a coordinate along that edge, and where it enters. Mappings take precedence over geometric adjacency.",
	}, s.handleResolveCrossing)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "simulate_motion",
		Description: "Replay a sequence of relative motions through a private engine using the configuration and return the resulting transitions and final pointer position. The running daemon is not affected.",
	}, s.handleSimulateMotion)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "validate_config",
		Description: "Validate a configuration file or inline configuration. Returns the first error with its field path and line when invalid.",
	}, s.handleValidateConfig)
}
