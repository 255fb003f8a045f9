package search

import (
	"context"
	"testing"

	"github.com/conceptrag/conceptrag/internal/app"
	"github.com/conceptrag/conceptrag/internal/embeddings"
	"github.com/conceptrag/conceptrag/internal/query"
	"github.com/conceptrag/conceptrag/internal/vectorstore"
)

func newTestStore(t *testing.T) vectorstore.Store {
	t.Helper()
	dir := t.TempDir()

	embedder, err := embeddings.NewProvider(embeddings.ProviderConfig{Provider: "hash", Dimension: 8})
	if err != nil {
		t.Fatalf("NewProvider() error = %v", err)
	}

	store, err := vectorstore.NewChromemStore(vectorstore.ChromemConfig{Path: dir, VectorSize: 8}, embedder, nil)
	if err != nil {
		t.Fatalf("NewChromemStore() error = %v", err)
	}

	ctx := context.Background()
	for _, name := range app.Collections {
		if err := store.CreateCollection(ctx, name, 8); err != nil {
			t.Fatalf("CreateCollection(%s) error = %v", name, err)
		}
	}
	return store
}

func TestSearch_CatalogRanksByHybridScore(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	docs := []app.CatalogRow{
		{
			ID:     app.HashID("/docs/distributed.pdf"),
			Source: "/docs/distributed-systems.pdf",
			Text:   "A deep dive into distributed systems and consensus.",
			Concepts: app.Concepts{
				PrimaryConcepts: []string{"distributed systems"},
			},
		},
		{
			ID:     app.HashID("/docs/cooking.pdf"),
			Source: "/docs/cooking-basics.pdf",
			Text:   "An introduction to basic cooking techniques.",
			Concepts: app.Concepts{
				PrimaryConcepts: []string{"cooking"},
			},
		},
	}
	for _, d := range docs {
		if _, err := store.AddDocuments(ctx, []vectorstore.Document{d.ToDocument()}); err != nil {
			t.Fatalf("AddDocuments() error = %v", err)
		}
	}

	expander := query.NewExpander(store, nil)
	engine := New(store, expander, nil)

	results, err := engine.Search(ctx, Request{Mode: ModeCatalog, Query: "distributed systems", K: 2})
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(results) == 0 {
		t.Fatal("expected at least one result")
	}
	if results[0].Source != "/docs/distributed-systems.pdf" {
		t.Errorf("top result = %s, want distributed-systems.pdf", results[0].Source)
	}
	if results[0].Scores.Hybrid < results[len(results)-1].Scores.Hybrid {
		t.Error("results not sorted by hybrid score descending")
	}
}

func TestSearch_FewerThanKCandidatesReturnsAll(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	doc := app.CatalogRow{ID: app.HashID("/docs/one.pdf"), Source: "/docs/one.pdf", Text: "solo document"}
	if _, err := store.AddDocuments(ctx, []vectorstore.Document{doc.ToDocument()}); err != nil {
		t.Fatalf("AddDocuments() error = %v", err)
	}

	expander := query.NewExpander(store, nil)
	engine := New(store, expander, nil)

	results, err := engine.Search(ctx, Request{Mode: ModeCatalog, Query: "solo", K: 10})
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("len(results) = %d, want 1", len(results))
	}
}

func TestSearch_EmptyCollectionReturnsNoResults(t *testing.T) {
	store := newTestStore(t)
	expander := query.NewExpander(store, nil)
	engine := New(store, expander, nil)

	results, err := engine.Search(context.Background(), Request{Mode: ModeCatalog, Query: "anything", K: 5})
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(results) != 0 {
		t.Errorf("len(results) = %d, want 0", len(results))
	}
}

func TestSearch_ChunksModeScoresWithoutTitleOrConcept(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	chunk := app.ChunkRow{
		ID:        app.HashID("catalog:0"),
		CatalogID: app.HashID("/docs/one.pdf"),
		Text:      "consensus protocols in distributed systems",
	}
	if _, err := store.AddDocuments(ctx, []vectorstore.Document{chunk.ToDocument()}); err != nil {
		t.Fatalf("AddDocuments() error = %v", err)
	}

	expander := query.NewExpander(store, nil)
	engine := New(store, expander, nil)

	results, err := engine.Search(ctx, Request{Mode: ModeChunks, Query: "distributed systems", K: 5})
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("len(results) = %d, want 1", len(results))
	}
	if results[0].Scores.Title != 0 || results[0].Scores.Concept != 0 {
		t.Errorf("chunks mode should leave Title/Concept at zero, got %+v", results[0].Scores)
	}
}
