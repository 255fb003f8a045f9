// Package vectorstore provides vector storage abstraction for the local
// conceptual retrieval database.
//
// The package offers a unified interface for vector storage operations with
// multiple provider implementations (chromem embedded, Qdrant external). A
// conceptrag database is single-tenant and local: it holds exactly four named
// collections - catalog, chunks, concepts, and categories (see internal/app
// for the collection-name constants) - with no per-tenant scoping.
//
// # Usage
//
//	import "github.com/conceptrag/conceptrag/internal/vectorstore"
//
//	config := vectorstore.ChromemConfig{
//	    Path:              "~/.concept_rag/vectorstore",
//	    DefaultCollection: "chunks",
//	    VectorSize:        384,
//	    Compress:          true,
//	}
//
//	store, err := vectorstore.NewChromemStore(config, embedder, logger)
//	if err != nil {
//	    return err
//	}
//	defer store.Close()
//
//	docs := []vectorstore.Document{
//	    {
//	        ID:      "chunk-1",
//	        Content: "the chapter discusses event sourcing",
//	        Metadata: map[string]interface{}{"book_hash": "abc123"},
//	    },
//	}
//	ids, err := store.AddDocuments(ctx, docs)
//
//	results, err := store.Search(ctx, "event sourcing", 10)
//
// # Provider Selection
//
// The package supports two vector store providers:
//
// ChromemStore (default):
//   - Embedded chromem-go storage (no external dependencies)
//   - Local embeddings via the hash or FastEmbed provider
//   - Perfect for the single-binary, local-first deployment this system targets
//
// QdrantStore (optional):
//   - External Qdrant service via gRPC
//   - Requires a running Qdrant server
//   - Useful when a library grows large enough to want HNSW tuning or a
//     separate storage process
//
// Provider selection via config:
//
//	vector_store:
//	  provider: chromem  # "chromem" (default) or "qdrant"
//
// If fallback is enabled (config.FallbackConfig.Enabled), NewStore wraps the
// selected remote provider with FallbackStore, which mirrors writes to an
// embedded chromem store and a write-ahead log so ingestion keeps working
// when the remote store is briefly unavailable.
//
// # Performance
//
// Current implementation optimizations:
//   - Batch embedding generation for multiple documents
//   - Concurrent search operations across collections
//   - Optional compression for storage efficiency
//   - HNSW index for fast approximate nearest neighbor search
package vectorstore
