package app

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/conceptrag/conceptrag/internal/checkpoint"
	"github.com/conceptrag/conceptrag/internal/config"
	"github.com/conceptrag/conceptrag/internal/embeddings"
	"github.com/conceptrag/conceptrag/internal/llm"
	"github.com/conceptrag/conceptrag/internal/logging"
	"github.com/conceptrag/conceptrag/internal/stagecache"
	"github.com/conceptrag/conceptrag/internal/vectorstore"
)

const (
	stageCacheDirName  = ".stage-cache"
	defaultPromptsDir  = "prompts"
	defaultSummaryFile = "summarize.txt"
	defaultConceptFile = "extract_concepts.txt"
)

// App is the fully wired set of dependencies shared by the ingest CLI and
// the MCP tool server.
type App struct {
	Config *config.Config
	Logger *logging.Logger

	Embedder embeddings.Provider
	Store    vectorstore.Store

	StageCache *stagecache.Cache
	Checkpoint *checkpoint.Store

	// LLM is nil when no LLM API key is configured; callers that require
	// summarization or concept extraction must check for nil themselves
	// (ingestion fails fast on a nil LLM, the MCP server never needs one).
	LLM     *llm.Service
	prompts *llm.PromptStore
}

// New wires every dependency in the order C15 specifies: logger, then
// embedding provider, then the vector store (which embeds on write), then
// the four named collections, then the stage cache and checkpoint, and
// finally (optionally) the LLM client used by ingestion.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	logger, err := newLogger(&cfg.Observability)
	if err != nil {
		return nil, err
	}

	embedder, err := embeddings.NewProvider(embeddings.ProviderConfig{
		Provider: cfg.Embeddings.Provider,
		Model:    cfg.Embeddings.Model,
		CacheDir: cfg.Embeddings.CacheDir,
	})
	if err != nil {
		_ = logger.Sync()
		return nil, fmt.Errorf("constructing embedding provider: %w", err)
	}

	store, err := vectorstore.NewStore(cfg, embedder, logger.Underlying())
	if err != nil {
		_ = embedder.Close()
		_ = logger.Sync()
		return nil, fmt.Errorf("constructing vector store: %w", err)
	}

	if err := ensureCollections(ctx, store, cfg.VectorStore.Chromem.VectorSize); err != nil {
		_ = store.Close()
		_ = embedder.Close()
		_ = logger.Sync()
		return nil, err
	}

	cache, err := stagecache.New(filepath.Join(cfg.Ingest.DBPath, stageCacheDirName), cfg.Ingest.StageCacheTTL)
	if err != nil {
		_ = store.Close()
		_ = embedder.Close()
		_ = logger.Sync()
		return nil, fmt.Errorf("constructing stage cache: %w", err)
	}

	cp, err := checkpoint.Open(cfg.Ingest.DBPath, cfg.Ingest.DBPath, cfg.Ingest.FilesDir, logger.Underlying())
	if err != nil {
		_ = store.Close()
		_ = embedder.Close()
		_ = logger.Sync()
		return nil, fmt.Errorf("opening checkpoint: %w", err)
	}

	a := &App{
		Config:     cfg,
		Logger:     logger,
		Embedder:   embedder,
		Store:      store,
		StageCache: cache,
		Checkpoint: cp,
	}

	if cfg.LLM.APIKey.IsSet() {
		if err := a.wireLLM(cfg); err != nil {
			_ = a.Close()
			return nil, err
		}
	}

	return a, nil
}

// ensureCollections creates every collection in Collections that does not
// already exist. CreateCollection returning ErrCollectionExists is not an
// error here: a reopened database already has them.
func ensureCollections(ctx context.Context, store vectorstore.Store, vectorSize int) error {
	if vectorSize <= 0 {
		vectorSize = 384
	}
	for _, name := range Collections {
		err := store.CreateCollection(ctx, name, vectorSize)
		if err != nil && !errors.Is(err, vectorstore.ErrCollectionExists) {
			return fmt.Errorf("creating collection %q: %w", name, err)
		}
	}
	return nil
}

func (a *App) wireLLM(cfg *config.Config) error {
	promptsDir := cfg.LLM.SummaryPromptFile
	if promptsDir == "" {
		promptsDir = defaultPromptsDir
	} else {
		promptsDir = filepath.Dir(promptsDir)
	}

	prompts, err := llm.NewPromptStore(promptsDir, a.Logger.Underlying())
	if err != nil {
		return fmt.Errorf("loading prompts from %s: %w", promptsDir, err)
	}

	client := llm.New(llm.Config{
		BaseURL:           cfg.LLM.BaseURL,
		APIKey:            cfg.LLM.APIKey.Value(),
		Model:             cfg.LLM.Model,
		Timeout:           cfg.LLM.RequestTimeout,
		MaxRetries:        cfg.LLM.MaxRetries,
		RequestsPerSecond: cfg.LLM.RateLimitPerSec,
	})

	a.prompts = prompts
	a.LLM = llm.NewService(client, prompts)
	return nil
}

// Close releases every resource New acquired, in reverse order.
func (a *App) Close() error {
	var errs []error
	if a.prompts != nil {
		if err := a.prompts.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if a.Checkpoint != nil {
		if err := a.Checkpoint.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if a.Store != nil {
		if err := a.Store.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if a.Embedder != nil {
		if err := a.Embedder.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if a.Logger != nil {
		_ = a.Logger.Sync()
	}
	return errors.Join(errs...)
}
