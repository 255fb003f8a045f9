package mcp

import (
	"context"
	"fmt"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"github.com/conceptrag/conceptrag/internal/app"
	"github.com/conceptrag/conceptrag/internal/query"
	"github.com/conceptrag/conceptrag/internal/search"
)

// Config configures the MCP server.
type Config struct {
	Name    string
	Version string
	Logger  *zap.Logger
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() *Config {
	return &Config{Name: "conceptrag", Version: "1.0.0", Logger: zap.NewNop()}
}

// Server is the conceptrag MCP tool server: a thin adapter layer over the
// search engine and catalog/concept/category collections.
type Server struct {
	mcp      *mcpsdk.Server
	app      *app.App
	engine   *search.Engine
	expander *query.Expander
	logger   *zap.Logger
}

// NewServer wires a Server around an already-constructed App and search
// Engine, and registers every tool in the surface.
func NewServer(cfg *Config, a *app.App, engine *search.Engine, expander *query.Expander) (*Server, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if a == nil {
		return nil, fmt.Errorf("app is required")
	}
	if engine == nil {
		return nil, fmt.Errorf("search engine is required")
	}
	if expander == nil {
		return nil, fmt.Errorf("query expander is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	mcpServer := mcpsdk.NewServer(&mcpsdk.Implementation{Name: cfg.Name, Version: cfg.Version}, nil)

	s := &Server{mcp: mcpServer, app: a, engine: engine, expander: expander, logger: logger}
	s.registerTools()
	return s, nil
}

// Run starts the MCP server on the stdio transport and blocks until ctx is
// canceled or the transport closes.
func (s *Server) Run(ctx context.Context) error {
	s.logger.Info("starting MCP server on stdio transport")
	if err := s.mcp.Run(ctx, &mcpsdk.StdioTransport{}); err != nil {
		return fmt.Errorf("mcp server run: %w", err)
	}
	return nil
}
