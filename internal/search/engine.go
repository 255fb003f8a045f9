package search

import (
	"context"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/conceptrag/conceptrag/internal/app"
	"github.com/conceptrag/conceptrag/internal/query"
	"github.com/conceptrag/conceptrag/internal/vectorstore"
)

// modeWeights are the five sub-score weights for the hybrid sum. Chunks
// carry reduced title/concept weight since chunks lack titles and are
// enriched with fewer concepts than a whole document.
type modeWeights struct {
	vector, bm25, title, concept, wordnet float64
}

var weightsByMode = map[Mode]modeWeights{
	ModeCatalog: {vector: 0.25, bm25: 0.25, title: 0.20, concept: 0.20, wordnet: 0.10},
	ModeChunks:  {vector: 0.30, bm25: 0.30, title: 0.05, concept: 0.10, wordnet: 0.25},
}

// collectionFor maps a search Mode to its backing vectorstore collection.
var collectionFor = map[Mode]string{
	ModeCatalog: app.CollectionCatalog,
	ModeChunks:  app.CollectionChunks,
}

// Engine runs the hybrid search algorithm (C13) against a vector store.
type Engine struct {
	store    vectorstore.Store
	expander *query.Expander
	logger   *zap.Logger
}

// New creates an Engine. logger may be nil, in which case debug output is
// discarded.
func New(store vectorstore.Store, expander *query.Expander, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{store: store, expander: expander, logger: logger}
}

// Search implements C13: expand the query, fetch 3k candidates by vector
// similarity, score each on five signals, and return the top k fused by
// hybrid_score.
func (e *Engine) Search(ctx context.Context, req Request) ([]Result, error) {
	collection, ok := collectionFor[req.Mode]
	if !ok {
		return nil, fmt.Errorf("search: unknown mode %q", req.Mode)
	}
	weights, ok := weightsByMode[req.Mode]
	if !ok {
		return nil, fmt.Errorf("search: no weights for mode %q", req.Mode)
	}

	expansion, err := e.expander.Expand(ctx, req.Query)
	if err != nil {
		return nil, fmt.Errorf("expanding query: %w", err)
	}
	pureVector := len(expansion.AllTerms) == 0

	candidates, err := e.fetchCandidates(ctx, collection, req.Query, req.K, req.Filters)
	if err != nil {
		return nil, fmt.Errorf("fetching candidates: %w", err)
	}

	results := make([]Result, 0, len(candidates))
	for _, c := range candidates {
		result, err := e.score(req.Mode, c, expansion, pureVector)
		if err != nil {
			return nil, fmt.Errorf("scoring candidate %s: %w", c.ID, err)
		}
		results = append(results, result)
	}

	sortResults(results)
	if len(results) > req.K {
		results = results[:req.K]
	}

	if req.Debug {
		e.logger.Debug("hybrid search",
			zap.String("query", req.Query),
			zap.Strings("all_terms", expansion.AllTerms),
			zap.Bool("pure_vector_fallback", pureVector),
			zap.Int("candidates", len(candidates)),
			zap.Int("returned", len(results)),
		)
	}

	return results, nil
}

// fetchCandidates retrieves up to 3k candidates by vector similarity. A
// collection with fewer than smallCollectionMax vectors has no HNSW index
// built, so ExactSearch's brute-force scan is used instead.
func (e *Engine) fetchCandidates(ctx context.Context, collection, queryText string, k int, filters map[string]interface{}) ([]vectorstore.SearchResult, error) {
	info, err := e.store.GetCollectionInfo(ctx, collection)
	if err != nil {
		return nil, err
	}
	if info.PointCount == 0 {
		return nil, nil
	}

	candidateK := 3 * k
	if candidateK > info.PointCount {
		candidateK = info.PointCount
	}

	if len(filters) > 0 {
		return e.store.SearchInCollection(ctx, collection, queryText, candidateK, filters)
	}
	if info.PointCount < smallCollectionMax {
		return e.store.ExactSearch(ctx, collection, queryText, candidateK)
	}
	return e.store.SearchInCollection(ctx, collection, queryText, candidateK, nil)
}

func (e *Engine) score(mode Mode, c vectorstore.SearchResult, expansion query.Expansion, pureVector bool) (Result, error) {
	vectorScore := clip01(c.Score)

	switch mode {
	case ModeCatalog:
		row, err := app.FromCatalogDocument(vectorstore.Document{ID: c.ID, Content: c.Content, Metadata: c.Metadata})
		if err != nil {
			return Result{}, err
		}
		return e.scoreCatalogRow(row, vectorScore, expansion, pureVector), nil
	case ModeChunks:
		row, err := app.FromChunkDocument(vectorstore.Document{ID: c.ID, Content: c.Content, Metadata: c.Metadata})
		if err != nil {
			return Result{}, err
		}
		return e.scoreChunkRow(row, vectorScore, expansion, pureVector), nil
	default:
		return Result{}, fmt.Errorf("score: unknown mode %q", mode)
	}
}

func (e *Engine) scoreCatalogRow(row app.CatalogRow, vectorScore float64, expansion query.Expansion, pureVector bool) Result {
	w := weightsByMode[ModeCatalog]
	title := documentTitle(row.Source)
	bm25 := bm25Score(row.Text+" "+row.Source, expansion.AllTerms, expansion.Weights)
	titleS := titleScore(title, expansion.OriginalTerms)
	conceptS, matched := conceptScore(row.Concepts.PrimaryConcepts, expansion.Weights)
	wordnetS := wordnetScore(row.Text, expansion.WordnetTerms)

	hybrid := vectorScore
	if !pureVector {
		hybrid = w.vector*vectorScore + w.bm25*bm25 + w.title*titleS + w.concept*conceptS + w.wordnet*wordnetS
	}

	return Result{
		ID:     row.ID,
		Source: row.Source,
		Text:   row.Text,
		Scores: ScoreBreakdown{
			Vector: vectorScore, BM25: bm25, Title: titleS, Concept: conceptS, Wordnet: wordnetS, Hybrid: clip01(hybrid),
		},
		MatchedConcepts: matched,
	}
}

func (e *Engine) scoreChunkRow(row app.ChunkRow, vectorScore float64, expansion query.Expansion, pureVector bool) Result {
	w := weightsByMode[ModeChunks]
	bm25 := bm25Score(row.Text, expansion.AllTerms, expansion.Weights)
	wordnetS := wordnetScore(row.Text, expansion.WordnetTerms)

	hybrid := vectorScore
	if !pureVector {
		hybrid = w.vector*vectorScore + w.bm25*bm25 + w.wordnet*wordnetS
	}

	return Result{
		ID:     row.ID,
		Source: row.CatalogID,
		Text:   row.Text,
		Scores: ScoreBreakdown{
			Vector: vectorScore, BM25: bm25, Wordnet: wordnetS, Hybrid: clip01(hybrid),
		},
	}
}

// sortResults orders by hybrid_score desc, then vector_score desc, then
// id for a fully deterministic tie-break.
func sortResults(results []Result) {
	sort.Slice(results, func(i, j int) bool {
		if results[i].Scores.Hybrid != results[j].Scores.Hybrid {
			return results[i].Scores.Hybrid > results[j].Scores.Hybrid
		}
		if results[i].Scores.Vector != results[j].Scores.Vector {
			return results[i].Scores.Vector > results[j].Scores.Vector
		}
		return app.TieBreakValue(results[i].ID) < app.TieBreakValue(results[j].ID)
	})
}
