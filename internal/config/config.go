// Package config provides configuration loading for conceptrag.
//
// Configuration is loaded from a YAML file and overridden by environment
// variables, with hardcoded defaults filling in whatever neither supplies.
package config

import (
	"fmt"
	"time"
)

// Config holds the complete conceptrag configuration.
type Config struct {
	Server        ServerConfig        `koanf:"server"`
	Observability ObservabilityConfig `koanf:"observability"`
	VectorStore   VectorStoreConfig   `koanf:"vectorstore"`
	Qdrant        QdrantConfig        `koanf:"qdrant"`
	Fallback      FallbackConfig      `koanf:"fallback"`
	Embeddings    EmbeddingsConfig    `koanf:"embeddings"`
	LLM           LLMConfig           `koanf:"llm"`
	Ingest        IngestConfig        `koanf:"ingest"`
	Thesaurus     ThesaurusConfig     `koanf:"thesaurus"`
}

// ServerConfig holds the optional health/metrics HTTP surface configuration.
type ServerConfig struct {
	Port            int           `koanf:"http_port"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

// ObservabilityConfig controls structured logging and tracing.
type ObservabilityConfig struct {
	ServiceName string `koanf:"service_name"`
	LogLevel    string `koanf:"log_level"`  // "debug" | "info" | "warn" | "error"
	LogFormat   string `koanf:"log_format"` // "json" | "console"
}

// VectorStoreConfig selects and configures the storage backend (C2a).
type VectorStoreConfig struct {
	Provider string        `koanf:"provider"` // "chromem" (default) or "qdrant"
	Chromem  ChromemConfig `koanf:"chromem"`
}

// Validate validates VectorStoreConfig.
func (c *VectorStoreConfig) Validate() error {
	switch c.Provider {
	case "chromem", "":
		return c.Chromem.Validate()
	case "qdrant":
		return nil
	default:
		return fmt.Errorf("unsupported vectorstore provider: %s (supported: chromem, qdrant)", c.Provider)
	}
}

// ChromemConfig holds chromem-go embedded vector database configuration.
type ChromemConfig struct {
	Path       string `koanf:"path"`
	Compress   bool   `koanf:"compress"`
	VectorSize int    `koanf:"vector_size"`
}

// Validate validates ChromemConfig.
func (c *ChromemConfig) Validate() error {
	if c.VectorSize <= 0 {
		return fmt.Errorf("vector_size must be positive, got %d", c.VectorSize)
	}
	return nil
}

// QdrantConfig holds Qdrant vector database configuration (alternate backend).
type QdrantConfig struct {
	Host       string `koanf:"host"`
	Port       int    `koanf:"port"`
	VectorSize uint64 `koanf:"vector_size"`
}

// FallbackConfig enables a remote-primary/local-fallback storage mode.
type FallbackConfig struct {
	Enabled             bool   `koanf:"enabled"`
	LocalPath           string `koanf:"local_path"`
	SyncOnConnect       bool   `koanf:"sync_on_connect"`
	HealthCheckInterval string `koanf:"health_check_interval"`
	WALPath             string `koanf:"wal_path"`
	WALRetentionDays    int    `koanf:"wal_retention_days"`
}

// EmbeddingsConfig selects and configures the embedding provider (C1a).
type EmbeddingsConfig struct {
	Provider string `koanf:"provider"` // "hash" (default) or "fastembed"
	Model    string `koanf:"model"`
	CacheDir string `koanf:"cache_dir"`
}

// LLMConfig configures the chat-completion client (C4).
type LLMConfig struct {
	BaseURL            string        `koanf:"base_url"`
	Model              string        `koanf:"model"`
	APIKey             Secret        `koanf:"api_key"`
	MaxRetries         int           `koanf:"max_retries"`
	RetryBaseDelay     time.Duration `koanf:"retry_base_delay"`
	RequestTimeout     time.Duration `koanf:"request_timeout"`
	RateLimitPerSec    float64       `koanf:"rate_limit_per_sec"`
	SummaryPromptFile  string        `koanf:"summary_prompt_file"`
	ConceptsPromptFile string        `koanf:"concepts_prompt_file"`
}

// IngestConfig configures the ingestion pipeline and worker pool (§5, §6).
type IngestConfig struct {
	FilesDir        string        `koanf:"files_dir"`
	DBPath          string        `koanf:"db_path"`
	Workers         int           `koanf:"workers"`
	MaxDocs         int           `koanf:"max_docs"`
	StageCacheTTL   time.Duration `koanf:"stage_cache_ttl"`
	DocumentTimeout time.Duration `koanf:"document_timeout"`
	OCRPageTimeout  time.Duration `koanf:"ocr_page_timeout"`
	OCRCommand      string        `koanf:"ocr_command"`
	ChunkSize       int           `koanf:"chunk_size"`
	ChunkOverlap    int           `koanf:"chunk_overlap"`
}

// ThesaurusConfig configures the optional WordNet-style lexical lookup (C12).
type ThesaurusConfig struct {
	DataFile string `koanf:"data_file"` // empty disables thesaurus enrichment
}

// Validate validates the complete configuration, failing fast on anything
// that would make the application wiring (C15) construct a broken service.
func (c *Config) Validate() error {
	if err := c.VectorStore.Validate(); err != nil {
		return fmt.Errorf("vectorstore config: %w", err)
	}
	if c.Ingest.Workers <= 0 {
		return fmt.Errorf("ingest.workers must be positive, got %d", c.Ingest.Workers)
	}
	if c.Ingest.ChunkOverlap >= c.Ingest.ChunkSize {
		return fmt.Errorf("ingest.chunk_overlap (%d) must be smaller than chunk_size (%d)", c.Ingest.ChunkOverlap, c.Ingest.ChunkSize)
	}
	switch c.Embeddings.Provider {
	case "hash", "fastembed", "":
	default:
		return fmt.Errorf("unsupported embeddings provider: %s", c.Embeddings.Provider)
	}
	return nil
}
