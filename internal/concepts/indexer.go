package concepts

import (
	"context"
	"fmt"
	"math"

	"github.com/conceptrag/conceptrag/internal/app"
	"github.com/conceptrag/conceptrag/internal/vectorstore"
)

// weightK tunes how quickly weight saturates toward 1 as sources and
// mentions grow; chosen so a concept needs several sources and dozens of
// mentions before saturating, per the monotonic-bounded requirement.
const weightK = 10.0

// Thesaurus is the subset of thesaurus lookups the indexer needs to
// enrich a concept row. A nil Thesaurus disables enrichment entirely.
type Thesaurus interface {
	Lookup(concept string) (synonyms, broader, narrower []string, ok bool)
}

// Indexer aggregates per-document concept extractions (already written to
// the catalog collection) into the corpus-wide concepts and categories
// collections (C10). It must run after chunks are written, so chunk_count
// reflects the final chunk set.
type Indexer struct {
	store     vectorstore.Store
	embedder  vectorstore.Embedder
	thesaurus Thesaurus
}

// NewIndexer creates an Indexer. thesaurus may be nil.
func NewIndexer(store vectorstore.Store, embedder vectorstore.Embedder, thesaurus Thesaurus) *Indexer {
	return &Indexer{store: store, embedder: embedder, thesaurus: thesaurus}
}

type aggregate struct {
	displayName     string
	sources         map[string]struct{}
	catalogIDs      map[string]struct{}
	categories      map[string]struct{}
	relatedConcepts map[string]struct{}
	mentions        int
}

// Rebuild scans the entire catalog, aggregates concepts, computes weight
// and chunk_count for each, optionally enriches from the thesaurus, and
// upserts the result into the concepts collection. It finishes by
// re-deriving the categories collection.
func (ix *Indexer) Rebuild(ctx context.Context) error {
	catalogDocs, err := app.ScanCollection(ctx, ix.store, app.CollectionCatalog, nil)
	if err != nil {
		return fmt.Errorf("scanning catalog: %w", err)
	}

	aggregates := make(map[string]*aggregate)
	for _, doc := range catalogDocs {
		catalog, err := app.FromCatalogDocument(doc)
		if err != nil {
			return fmt.Errorf("decoding catalog row %s: %w", doc.ID, err)
		}

		for _, name := range catalog.Concepts.PrimaryConcepts {
			canon := app.CanonicalConcept(name)
			if canon == "" {
				continue
			}
			agg, ok := aggregates[canon]
			if !ok {
				agg = &aggregate{
					displayName:     name,
					sources:         map[string]struct{}{},
					catalogIDs:      map[string]struct{}{},
					categories:      map[string]struct{}{},
					relatedConcepts: map[string]struct{}{},
				}
				aggregates[canon] = agg
			}
			agg.sources[catalog.Source] = struct{}{}
			agg.catalogIDs[catalog.ID] = struct{}{}
			agg.mentions++
			for _, cat := range catalog.Concepts.Categories {
				agg.categories[cat] = struct{}{}
			}
			for _, rel := range catalog.Concepts.RelatedConcepts {
				if app.CanonicalConcept(rel) != canon {
					agg.relatedConcepts[rel] = struct{}{}
				}
			}
		}
	}

	chunkCounts, err := ix.chunkCountsByConceptID(ctx)
	if err != nil {
		return fmt.Errorf("counting chunk concept references: %w", err)
	}

	for canon, agg := range aggregates {
		row, err := ix.buildRow(ctx, canon, agg, chunkCounts)
		if err != nil {
			return fmt.Errorf("building concept row %q: %w", canon, err)
		}
		if _, err := ix.store.AddDocuments(ctx, []vectorstore.Document{row.ToDocument()}); err != nil {
			return fmt.Errorf("upserting concept row %q: %w", canon, err)
		}
	}

	return ix.rebuildCategories(ctx, aggregates)
}

func (ix *Indexer) buildRow(ctx context.Context, canon string, agg *aggregate, chunkCounts map[string]int) (app.ConceptRow, error) {
	id := app.HashID(canon)

	vectors, err := ix.embedder.EmbedDocuments(ctx, []string{agg.displayName})
	if err != nil {
		return app.ConceptRow{}, fmt.Errorf("embedding concept name: %w", err)
	}

	row := app.ConceptRow{
		ID:              id,
		Concept:         agg.displayName,
		ConceptType:     conceptType(agg),
		Category:        firstOf(agg.categories),
		Sources:         keysOf(agg.sources),
		CatalogIDs:      keysOf(agg.catalogIDs),
		RelatedConcepts: keysOf(agg.relatedConcepts),
		Weight:          computeWeight(len(agg.sources), agg.mentions),
		ChunkCount:      chunkCounts[id],
		Vector:          vectors[0],
	}

	if ix.thesaurus != nil {
		if syn, broader, narrower, ok := ix.thesaurus.Lookup(canon); ok {
			row.Synonyms = syn
			row.BroaderTerms = broader
			row.NarrowerTerms = narrower
			row.EnrichmentSource = app.EnrichmentSourceHybrid
			if agg.mentions == 0 {
				row.EnrichmentSource = app.EnrichmentSourceWordnet
			}
		}
	}
	if row.EnrichmentSource == "" {
		row.EnrichmentSource = app.EnrichmentSourceCorpus
	}

	return row, nil
}

// computeWeight is monotonic in both inputs and bounded to [0,1].
func computeWeight(numSources, mentions int) float64 {
	w := math.Log(1+float64(mentions)) * math.Log(1+float64(numSources)) / weightK
	if w > 1 {
		w = 1
	}
	if w < 0 {
		w = 0
	}
	return w
}

// chunkCountsByConceptID scans every chunk once and counts, per concept
// id, how many chunks reference it — a single batched pass rather than
// one scan per concept.
func (ix *Indexer) chunkCountsByConceptID(ctx context.Context) (map[string]int, error) {
	chunkDocs, err := app.ScanCollection(ctx, ix.store, app.CollectionChunks, nil)
	if err != nil {
		return nil, err
	}

	counts := make(map[string]int)
	for _, doc := range chunkDocs {
		chunk, err := app.FromChunkDocument(doc)
		if err != nil {
			return nil, fmt.Errorf("decoding chunk row %s: %w", doc.ID, err)
		}
		for _, id := range chunk.ConceptIDs {
			counts[id]++
		}
	}
	return counts, nil
}

func (ix *Indexer) rebuildCategories(ctx context.Context, aggregates map[string]*aggregate) error {
	type catAgg struct {
		documents map[string]struct{}
		concepts  int
	}
	cats := make(map[string]*catAgg)

	for _, agg := range aggregates {
		for cat := range agg.categories {
			ca, ok := cats[cat]
			if !ok {
				ca = &catAgg{documents: map[string]struct{}{}}
				cats[cat] = ca
			}
			ca.concepts++
			for src := range agg.sources {
				ca.documents[src] = struct{}{}
			}
		}
	}

	for name, ca := range cats {
		row := app.CategoryRow{
			ID:            app.HashID(app.CanonicalConcept(name)),
			Name:          name,
			DocumentCount: len(ca.documents),
			ConceptCount:  ca.concepts,
		}
		if _, err := ix.store.AddDocuments(ctx, []vectorstore.Document{row.ToDocument()}); err != nil {
			return fmt.Errorf("upserting category row %q: %w", name, err)
		}
	}
	return nil
}

func conceptType(agg *aggregate) string {
	if len(agg.sources) > 1 {
		return app.ConceptTypeThematic
	}
	return app.ConceptTypeTerminology
}

func keysOf(m map[string]struct{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}

func firstOf(m map[string]struct{}) string {
	for k := range m {
		return k
	}
	return ""
}
