package config

import (
	"os"
	"testing"
	"time"
)

func saveAndClearEnv(t *testing.T, keys ...string) {
	t.Helper()
	saved := make(map[string]string, len(keys))
	for _, k := range keys {
		saved[k] = os.Getenv(k)
		os.Unsetenv(k)
	}
	t.Cleanup(func() {
		for k, v := range saved {
			if v == "" {
				os.Unsetenv(k)
			} else {
				os.Setenv(k, v)
			}
		}
	})
}

func TestLoad_Defaults(t *testing.T) {
	saveAndClearEnv(t, "CONCEPT_RAG_DB", "OPENROUTER_API_KEY", "EMBEDDING_PROVIDER")

	cfg := Load()

	if cfg.Server.Port != 9191 {
		t.Errorf("Server.Port = %d, want 9191", cfg.Server.Port)
	}
	if cfg.Server.ShutdownTimeout != 10*time.Second {
		t.Errorf("Server.ShutdownTimeout = %v, want 10s", cfg.Server.ShutdownTimeout)
	}
	if cfg.Observability.ServiceName != "conceptrag" {
		t.Errorf("Observability.ServiceName = %q, want conceptrag", cfg.Observability.ServiceName)
	}
	if cfg.VectorStore.Provider != "chromem" {
		t.Errorf("VectorStore.Provider = %q, want chromem", cfg.VectorStore.Provider)
	}
	if cfg.VectorStore.Chromem.VectorSize != 384 {
		t.Errorf("VectorStore.Chromem.VectorSize = %d, want 384", cfg.VectorStore.Chromem.VectorSize)
	}
	if cfg.Embeddings.Provider != "hash" {
		t.Errorf("Embeddings.Provider = %q, want hash", cfg.Embeddings.Provider)
	}
	if cfg.Ingest.Workers != 4 {
		t.Errorf("Ingest.Workers = %d, want 4", cfg.Ingest.Workers)
	}
	if cfg.Ingest.ChunkSize != 500 || cfg.Ingest.ChunkOverlap != 50 {
		t.Errorf("chunk policy = %d/%d, want 500/50", cfg.Ingest.ChunkSize, cfg.Ingest.ChunkOverlap)
	}
}

func TestLoad_EnvOverridesDBPath(t *testing.T) {
	saveAndClearEnv(t, "CONCEPT_RAG_DB")
	os.Setenv("CONCEPT_RAG_DB", "/tmp/custom-db")

	cfg := Load()

	if cfg.Ingest.DBPath != "/tmp/custom-db" {
		t.Errorf("Ingest.DBPath = %q, want /tmp/custom-db", cfg.Ingest.DBPath)
	}
}

func TestLoad_EnvOverridesEmbeddingProvider(t *testing.T) {
	saveAndClearEnv(t, "EMBEDDING_PROVIDER")
	os.Setenv("EMBEDDING_PROVIDER", "fastembed")

	cfg := Load()

	if cfg.Embeddings.Provider != "fastembed" {
		t.Errorf("Embeddings.Provider = %q, want fastembed", cfg.Embeddings.Provider)
	}
}

func TestConfig_Validate_RejectsUnsupportedVectorStoreProvider(t *testing.T) {
	cfg := &Config{}
	applyDefaults(cfg)
	cfg.VectorStore.Provider = "not-a-real-backend"

	if err := cfg.Validate(); err == nil {
		t.Error("expected validation error for unsupported vectorstore provider")
	}
}

func TestConfig_Validate_RejectsOverlapGEChunkSize(t *testing.T) {
	cfg := &Config{}
	applyDefaults(cfg)
	cfg.Ingest.ChunkOverlap = cfg.Ingest.ChunkSize

	if err := cfg.Validate(); err == nil {
		t.Error("expected validation error when chunk_overlap >= chunk_size")
	}
}

func TestConfig_Validate_RejectsNonPositiveWorkers(t *testing.T) {
	cfg := &Config{}
	applyDefaults(cfg)
	cfg.Ingest.Workers = 0

	if err := cfg.Validate(); err == nil {
		t.Error("expected validation error for zero workers")
	}
}
