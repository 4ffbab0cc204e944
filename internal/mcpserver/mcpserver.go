package mcpserver

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/presage-dev/presage/pkg/config"
)

// Server wraps the MCP server and registers the presage analysis tools.
type Server struct {
	server *mcp.Server
	config *config.Config
}

// NewServer creates a new MCP server with all presage tools registered.
func NewServer(version string, cfg *config.Config) *Server {
	if version == "" {
		version = "dev"
	}
	if cfg == nil {
		cfg = config.LoadOrDefault()
	}
	server := mcp.NewServer(
		&mcp.Implementation{
			Name:    "presage",
			Version: version,
		},
		nil,
	)

	s := &Server{server: server, config: cfg}
	s.registerTools()
	return s
}

// Run starts the MCP server over stdio transport.
func (s *Server) Run(ctx context.Context) error {
	return s.server.Run(ctx, &mcp.StdioTransport{})
}

// registerTools adds the presage tools to the server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "analyze_diff",
		Description: describeAnalyzeDiff(),
	}, s.handleAnalyzeDiff)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "cache_stats",
		Description: describeCacheStats(),
	}, s.handleCacheStats)
}
