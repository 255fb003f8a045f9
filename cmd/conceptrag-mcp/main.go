// Conceptrag-mcp serves the conceptrag tool surface (C14) over a
// line-delimited JSON-RPC stdio transport, for use as an MCP server
// attached to an agent.
//
// Configuration is loaded from ~/.config/conceptrag/config.yaml (or
// --config); this binary never writes to the database, only reads it.
//
// Usage:
//
//	conceptrag-mcp --dbpath ~/.concept_rag
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/conceptrag/conceptrag/internal/app"
	"github.com/conceptrag/conceptrag/internal/config"
	"github.com/conceptrag/conceptrag/internal/mcp"
	"github.com/conceptrag/conceptrag/internal/query"
	"github.com/conceptrag/conceptrag/internal/search"
	"github.com/conceptrag/conceptrag/internal/thesaurus"
)

func main() {
	configPath := flag.String("config", "", "path to config.yaml (default ~/.config/conceptrag/config.yaml)")
	dbPath := flag.String("dbpath", "", "storage directory (default ~/.concept_rag)")
	flag.Parse()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	if err := run(ctx, *configPath, *dbPath); err != nil {
		fmt.Fprintf(os.Stderr, "conceptrag-mcp: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, configPath, dbPath string) error {
	cfg, err := config.LoadWithFile(configPath)
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}
	if dbPath != "" {
		cfg.Ingest.DBPath = dbPath
	}

	a, err := app.New(ctx, cfg)
	if err != nil {
		return fmt.Errorf("wiring application: %w", err)
	}
	defer a.Close()

	thesaurusProvider, err := thesaurus.Load(cfg.Thesaurus.DataFile)
	if err != nil {
		return fmt.Errorf("loading thesaurus: %w", err)
	}

	expander := query.NewExpander(a.Store, thesaurusProvider)
	engine := search.New(a.Store, expander, a.Logger.Underlying())

	server, err := mcp.NewServer(&mcp.Config{
		Name:    "conceptrag",
		Version: "1.0.0",
		Logger:  a.Logger.Underlying(),
	}, a, engine, expander)
	if err != nil {
		return fmt.Errorf("constructing MCP server: %w", err)
	}

	a.Logger.Underlying().Info("conceptrag-mcp ready", zap.String("dbpath", cfg.Ingest.DBPath))
	return server.Run(ctx)
}
