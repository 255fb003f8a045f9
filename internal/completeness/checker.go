package completeness

import (
	"context"
	"fmt"

	"github.com/conceptrag/conceptrag/internal/app"
	"github.com/conceptrag/conceptrag/internal/vectorstore"
)

// Checker classifies ingestion state for a document hash against an
// already-wired App's store.
type Checker struct {
	store vectorstore.Store
}

// New creates a Checker over store.
func New(store vectorstore.Store) *Checker {
	return &Checker{store: store}
}

// Check returns the completeness Record for hash.
func (c *Checker) Check(ctx context.Context, hash string) (Record, error) {
	var rec Record

	catalogDoc, found, err := app.FindOne(ctx, c.store, app.CollectionCatalog, map[string]interface{}{"hash": hash})
	if err != nil {
		return rec, fmt.Errorf("looking up catalog row: %w", err)
	}
	rec.HasRecord = found

	if found {
		catalog, err := app.FromCatalogDocument(catalogDoc)
		if err != nil {
			return rec, fmt.Errorf("decoding catalog row: %w", err)
		}
		rec.HasSummary = catalog.Text != ""
		rec.HasConcepts = len(catalog.Concepts.PrimaryConcepts) > 0
	}

	chunkDocs, err := app.ScanCollection(ctx, c.store, app.CollectionChunks, map[string]interface{}{"hash": hash})
	if err != nil {
		return rec, fmt.Errorf("scanning chunks: %w", err)
	}
	rec.HasChunks = len(chunkDocs) > 0

	if rec.HasChunks {
		for _, doc := range chunkDocs {
			chunk, err := app.FromChunkDocument(doc)
			if err != nil {
				return rec, fmt.Errorf("decoding chunk row: %w", err)
			}
			if len(chunk.ConceptIDs) == 0 {
				rec.ChunksLackConceptTags = true
				break
			}
		}
	}

	rec.MissingComponents = missingComponents(rec)
	rec.IsComplete = len(rec.MissingComponents) == 0
	return rec, nil
}

func missingComponents(rec Record) []string {
	var missing []string
	if !rec.HasRecord {
		missing = append(missing, ComponentCatalog)
		return missing
	}
	if !rec.HasSummary {
		missing = append(missing, ComponentSummary)
	}
	if !rec.HasConcepts {
		missing = append(missing, ComponentConcepts)
	}
	if !rec.HasChunks {
		missing = append(missing, ComponentChunks)
	}
	if rec.HasChunks && rec.ChunksLackConceptTags {
		missing = append(missing, ComponentChunkConcepts)
	}
	return missing
}

// CategoriesStale reports whether the categories collection needs
// re-derivation: it is empty while concepts already exist, which can only
// happen after an ingest pass that never reached C10's final step.
func (c *Checker) CategoriesStale(ctx context.Context) (bool, error) {
	categoryInfo, err := c.store.GetCollectionInfo(ctx, app.CollectionCategories)
	if err != nil {
		return false, fmt.Errorf("getting categories info: %w", err)
	}
	conceptInfo, err := c.store.GetCollectionInfo(ctx, app.CollectionConcepts)
	if err != nil {
		return false, fmt.Errorf("getting concepts info: %w", err)
	}
	return conceptInfo.PointCount > 0 && categoryInfo.PointCount == 0, nil
}
