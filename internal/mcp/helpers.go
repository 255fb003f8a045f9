package mcp

import (
	"context"
	"fmt"
	"strings"

	"github.com/conceptrag/conceptrag/internal/app"
)

// findCatalogBySource returns the catalog row for an exact source path.
func (s *Server) findCatalogBySource(ctx context.Context, source string) (app.CatalogRow, bool, error) {
	doc, ok, err := app.FindOne(ctx, s.app.Store, app.CollectionCatalog, map[string]interface{}{"source": source})
	if err != nil || !ok {
		return app.CatalogRow{}, ok, err
	}
	row, err := app.FromCatalogDocument(doc)
	return row, true, err
}

// findConceptByName resolves a concept name to its row via exact
// (canonicalized) match, falling back to a prefix match over the full
// concepts collection when no exact row exists.
func (s *Server) findConceptByName(ctx context.Context, name string) (app.ConceptRow, bool, error) {
	canon := app.CanonicalConcept(name)

	concepts, err := s.allConcepts(ctx)
	if err != nil {
		return app.ConceptRow{}, false, err
	}

	for _, c := range concepts {
		if app.CanonicalConcept(c.Concept) == canon {
			return c, true, nil
		}
	}
	for _, c := range concepts {
		if strings.HasPrefix(app.CanonicalConcept(c.Concept), canon) {
			return c, true, nil
		}
	}
	return app.ConceptRow{}, false, nil
}

func (s *Server) allConcepts(ctx context.Context) ([]app.ConceptRow, error) {
	docs, err := app.ScanCollection(ctx, s.app.Store, app.CollectionConcepts, nil)
	if err != nil {
		return nil, err
	}
	rows := make([]app.ConceptRow, 0, len(docs))
	for _, doc := range docs {
		row, err := app.FromConceptDocument(doc)
		if err != nil {
			return nil, fmt.Errorf("decoding concept row %s: %w", doc.ID, err)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func (s *Server) allCategories(ctx context.Context) ([]app.CategoryRow, error) {
	docs, err := app.ScanCollection(ctx, s.app.Store, app.CollectionCategories, nil)
	if err != nil {
		return nil, err
	}
	rows := make([]app.CategoryRow, 0, len(docs))
	for _, doc := range docs {
		row, err := app.FromCategoryDocument(doc)
		if err != nil {
			return nil, fmt.Errorf("decoding category row %s: %w", doc.ID, err)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func (s *Server) allChunks(ctx context.Context) ([]app.ChunkRow, error) {
	docs, err := app.ScanCollection(ctx, s.app.Store, app.CollectionChunks, nil)
	if err != nil {
		return nil, err
	}
	rows := make([]app.ChunkRow, 0, len(docs))
	for _, doc := range docs {
		row, err := app.FromChunkDocument(doc)
		if err != nil {
			return nil, fmt.Errorf("decoding chunk row %s: %w", doc.ID, err)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func containsString(haystack []string, needle string) bool {
	for _, h := range haystack {
		if h == needle {
			return true
		}
	}
	return false
}

func defaultK(k int) int {
	if k <= 0 {
		return 10
	}
	return k
}
