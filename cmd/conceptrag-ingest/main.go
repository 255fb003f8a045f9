// Conceptrag-ingest walks a directory of PDFs/EPUBs and ingests them into a
// conceptrag database: load, summarize, extract concepts, chunk, enrich,
// and index (C4, C6-C11), resuming from and recording progress in a
// checkpoint file.
//
// Configuration is loaded from ~/.config/conceptrag/config.yaml (or
// --config) and overridden by the flags below.
//
// Usage:
//
//	conceptrag-ingest --filesdir ./library --dbpath ~/.concept_rag
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/conceptrag/conceptrag/internal/app"
	"github.com/conceptrag/conceptrag/internal/concepts"
	"github.com/conceptrag/conceptrag/internal/config"
	"github.com/conceptrag/conceptrag/internal/ingest"
	"github.com/conceptrag/conceptrag/internal/loader"
	"github.com/conceptrag/conceptrag/internal/progress"
	"github.com/conceptrag/conceptrag/internal/thesaurus"
)

// Exit codes per spec.md §6.
const (
	exitSuccess   = 0
	exitFatalInit = 1
	exitBadArgs   = 2
)

var flags struct {
	configPath      string
	filesDir        string
	dbPath          string
	overwrite       bool
	resume          bool
	cleanCheckpoint bool
	maxDocs         int
	workers         int
}

func main() {
	root := newRootCmd()
	if err := root.Execute(); err != nil {
		if _, ok := err.(*argError); ok {
			os.Exit(exitBadArgs)
		}
		os.Exit(exitFatalInit)
	}
}

// argError marks a validation failure as an invalid-arguments exit (2)
// rather than a fatal-initialization exit (1).
type argError struct{ err error }

func (e *argError) Error() string { return e.err.Error() }
func (e *argError) Unwrap() error { return e.err }

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "conceptrag-ingest",
		Short: "Ingest PDFs/EPUBs into a conceptrag database",
		RunE:  runIngest,
	}

	cmd.Flags().StringVar(&flags.configPath, "config", "", "path to config.yaml (default ~/.config/conceptrag/config.yaml)")
	cmd.Flags().StringVar(&flags.filesDir, "filesdir", "", "root directory to walk for documents (required)")
	cmd.Flags().StringVar(&flags.dbPath, "dbpath", "", "storage directory (default ~/.concept_rag)")
	cmd.Flags().BoolVar(&flags.overwrite, "overwrite", false, "drop existing tables and clear checkpoint/cache before ingest")
	cmd.Flags().BoolVar(&flags.resume, "resume", false, "use checkpoint to skip already-processed documents")
	cmd.Flags().BoolVar(&flags.cleanCheckpoint, "clean-checkpoint", false, "clear checkpoint but keep tables")
	cmd.Flags().IntVar(&flags.maxDocs, "max-docs", 0, "bound the number of documents processed this run (0 = unlimited)")
	cmd.Flags().IntVar(&flags.workers, "workers", 0, "ingest parallelism (0 = use config default)")

	return cmd
}

func runIngest(cmd *cobra.Command, args []string) error {
	if flags.filesDir == "" {
		return &argError{fmt.Errorf("--filesdir is required")}
	}

	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}
	cfg.Ingest.FilesDir = flags.filesDir
	if flags.dbPath != "" {
		cfg.Ingest.DBPath = flags.dbPath
	}
	if flags.workers > 0 {
		cfg.Ingest.Workers = flags.workers
	}
	if flags.maxDocs > 0 {
		cfg.Ingest.MaxDocs = flags.maxDocs
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	return run(ctx, cfg)
}

func loadConfig() (*config.Config, error) {
	if flags.configPath != "" {
		return config.LoadWithFile(flags.configPath)
	}
	return config.LoadWithFile("")
}

func run(ctx context.Context, cfg *config.Config) error {
	a, err := app.New(ctx, cfg)
	if err != nil {
		return fmt.Errorf("wiring application: %w", err)
	}
	defer a.Close()

	if flags.overwrite {
		if err := dropCollections(ctx, a); err != nil {
			return fmt.Errorf("dropping existing tables: %w", err)
		}
		if err := a.Checkpoint.Clear(); err != nil {
			return fmt.Errorf("clearing checkpoint: %w", err)
		}
	} else if flags.cleanCheckpoint {
		if err := a.Checkpoint.Clear(); err != nil {
			return fmt.Errorf("clearing checkpoint: %w", err)
		}
	}

	files, err := loader.Discover(cfg.Ingest.FilesDir)
	if err != nil {
		return fmt.Errorf("discovering documents under %s: %w", cfg.Ingest.FilesDir, err)
	}
	a.Logger.Underlying().Info("discovered documents", zap.Int("count", len(files)), zap.String("filesdir", cfg.Ingest.FilesDir))

	reporter := progress.New(os.Stderr, len(files))
	defer reporter.Close()

	thesaurusProvider, err := thesaurus.Load(cfg.Thesaurus.DataFile)
	if err != nil {
		return fmt.Errorf("loading thesaurus: %w", err)
	}

	var extractor *concepts.Extractor
	if a.LLM != nil {
		extractor = concepts.NewExtractor(a.LLM)
	}

	ld := loader.New(cfg.Ingest.OCRCommand, cfg.Ingest.DocumentTimeout, cfg.Ingest.OCRPageTimeout, a.Logger.Underlying())
	pipeline := ingest.NewPipeline(a, ld, extractor, reporter, cfg.Ingest.ChunkSize, cfg.Ingest.ChunkOverlap, flags.resume || flags.overwrite)

	summary := ingest.Run(ctx, pipeline, files, cfg.Ingest.Workers, cfg.Ingest.MaxDocs)

	a.Logger.Underlying().Info("ingest pass complete",
		zap.Int32("processed", summary.Processed),
		zap.Int32("failed", summary.Failed))

	indexer := concepts.NewIndexer(a.Store, a.Embedder, thesaurusProviderOrNil(thesaurusProvider))
	if err := indexer.Rebuild(ctx); err != nil {
		return fmt.Errorf("rebuilding concept index: %w", err)
	}

	if summary.Failed > 0 {
		return fmt.Errorf("ingest completed with %d failed document(s)", summary.Failed)
	}
	return nil
}

// thesaurusProviderOrNil maps a provider with zero entries to nil, so the
// indexer skips thesaurus enrichment entirely rather than looking up words
// against an always-empty table.
func thesaurusProviderOrNil(p *thesaurus.Provider) concepts.Thesaurus {
	if p == nil || p.Len() == 0 {
		return nil
	}
	return p
}

func dropCollections(ctx context.Context, a *app.App) error {
	for _, name := range app.Collections {
		if err := a.Store.DeleteCollection(ctx, name); err != nil {
			return fmt.Errorf("deleting collection %s: %w", name, err)
		}
		if err := a.Store.CreateCollection(ctx, name, cfgVectorSize(a)); err != nil {
			return fmt.Errorf("recreating collection %s: %w", name, err)
		}
	}
	return nil
}

func cfgVectorSize(a *app.App) int {
	if a.Config.VectorStore.Chromem.VectorSize > 0 {
		return a.Config.VectorStore.Chromem.VectorSize
	}
	return 384
}
