package app

import (
	"context"
	"fmt"

	"github.com/conceptrag/conceptrag/internal/vectorstore"
)

// scanQuery is passed to SearchInCollection for whole-collection scans,
// where ranking by similarity is irrelevant and only the exact-match
// filters (or the full collection, with filters nil) matter.
const scanQuery = "*"

// ScanCollection returns every document in collection matching filters
// (nil for the whole collection), by sizing k to the collection's current
// point count rather than relying on vector-similarity truncation.
func ScanCollection(ctx context.Context, store vectorstore.Store, collection string, filters map[string]interface{}) ([]vectorstore.Document, error) {
	info, err := store.GetCollectionInfo(ctx, collection)
	if err != nil {
		return nil, fmt.Errorf("getting collection info for %s: %w", collection, err)
	}
	if info.PointCount == 0 {
		return nil, nil
	}

	var results []vectorstore.SearchResult
	if len(filters) == 0 {
		results, err = store.ExactSearch(ctx, collection, scanQuery, info.PointCount)
	} else {
		results, err = store.SearchInCollection(ctx, collection, scanQuery, info.PointCount, filters)
	}
	if err != nil {
		return nil, fmt.Errorf("scanning collection %s: %w", collection, err)
	}

	docs := make([]vectorstore.Document, 0, len(results))
	for _, r := range results {
		docs = append(docs, vectorstore.Document{ID: r.ID, Content: r.Content, Collection: collection, Metadata: r.Metadata})
	}
	return docs, nil
}

// FindOne returns the first document in collection matching filters, or
// ok=false if none exists.
func FindOne(ctx context.Context, store vectorstore.Store, collection string, filters map[string]interface{}) (vectorstore.Document, bool, error) {
	docs, err := ScanCollection(ctx, store, collection, filters)
	if err != nil {
		return vectorstore.Document{}, false, err
	}
	if len(docs) == 0 {
		return vectorstore.Document{}, false, nil
	}
	return docs[0], true, nil
}
