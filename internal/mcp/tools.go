package mcp

import (
	"context"
	"fmt"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/conceptrag/conceptrag/internal/app"
	"github.com/conceptrag/conceptrag/internal/search"
)

func (s *Server) registerTools() {
	s.registerCatalogSearch()
	s.registerChunksSearch()
	s.registerBroadChunksSearch()
	s.registerConceptSearch()
	s.registerSourceConcepts()
	s.registerExtractConcepts()
	s.registerCategorySearch()
	s.registerListCategories()
	s.registerListConceptsInCategory()
	s.registerGetGuidance()
}

// ===== catalog_search =====

type catalogSearchInput struct {
	Query string `json:"query" jsonschema:"required,Free-text query to hybrid-search the catalog with."`
	K     int    `json:"k,omitempty" jsonschema:"Maximum results to return (default 10)."`
	Debug bool   `json:"debug,omitempty" jsonschema:"Emit expansion and per-candidate score detail to the log."`
}

type catalogSearchOutput struct {
	Results []search.Result `json:"results"`
}

func (s *Server) registerCatalogSearch() {
	mcpsdk.AddTool(s.mcp, &mcpsdk.Tool{
		Name:        "catalog_search",
		Description: "Hybrid search over the document catalog.",
	}, func(ctx context.Context, _ *mcpsdk.CallToolRequest, in catalogSearchInput) (*mcpsdk.CallToolResult, catalogSearchOutput, error) {
		if in.Query == "" {
			return nil, catalogSearchOutput{}, fmt.Errorf("query is required")
		}
		results, err := s.engine.Search(ctx, search.Request{Mode: search.ModeCatalog, Query: in.Query, K: defaultK(in.K), Debug: in.Debug})
		if err != nil {
			return nil, catalogSearchOutput{}, err
		}
		out := catalogSearchOutput{Results: results}
		res, err := textResult(out)
		return res, out, err
	})
}

// ===== chunks_search =====

type chunksSearchInput struct {
	Source string `json:"source" jsonschema:"required,Exact source path to scope the search to."`
	Query  string `json:"query" jsonschema:"required,Free-text query to hybrid-search the source's chunks with."`
	K      int    `json:"k,omitempty" jsonschema:"Maximum results to return (default 10)."`
}

type chunksSearchOutput struct {
	Results []search.Result `json:"results"`
}

func (s *Server) registerChunksSearch() {
	mcpsdk.AddTool(s.mcp, &mcpsdk.Tool{
		Name:        "chunks_search",
		Description: "Hybrid search over chunks of a specified source.",
	}, func(ctx context.Context, _ *mcpsdk.CallToolRequest, in chunksSearchInput) (*mcpsdk.CallToolResult, chunksSearchOutput, error) {
		if in.Source == "" || in.Query == "" {
			return nil, chunksSearchOutput{}, fmt.Errorf("source and query are required")
		}
		catalog, ok, err := s.findCatalogBySource(ctx, in.Source)
		if err != nil {
			return nil, chunksSearchOutput{}, err
		}
		if !ok {
			return nil, chunksSearchOutput{}, fmt.Errorf("source not found: %s", in.Source)
		}
		results, err := s.engine.Search(ctx, search.Request{
			Mode: search.ModeChunks, Query: in.Query, K: defaultK(in.K),
			Filters: map[string]interface{}{"catalog_id": catalog.ID},
		})
		if err != nil {
			return nil, chunksSearchOutput{}, err
		}
		out := chunksSearchOutput{Results: results}
		res, err := textResult(out)
		return res, out, err
	})
}

// ===== broad_chunks_search =====

type broadChunksSearchInput struct {
	Query string `json:"query" jsonschema:"required,Free-text query to hybrid-search all chunks with."`
	K     int    `json:"k,omitempty" jsonschema:"Maximum results to return (default 10)."`
}

type broadChunksSearchOutput struct {
	Results []search.Result `json:"results"`
}

func (s *Server) registerBroadChunksSearch() {
	mcpsdk.AddTool(s.mcp, &mcpsdk.Tool{
		Name:        "broad_chunks_search",
		Description: "Hybrid search over all chunks in the corpus.",
	}, func(ctx context.Context, _ *mcpsdk.CallToolRequest, in broadChunksSearchInput) (*mcpsdk.CallToolResult, broadChunksSearchOutput, error) {
		if in.Query == "" {
			return nil, broadChunksSearchOutput{}, fmt.Errorf("query is required")
		}
		results, err := s.engine.Search(ctx, search.Request{Mode: search.ModeChunks, Query: in.Query, K: defaultK(in.K)})
		if err != nil {
			return nil, broadChunksSearchOutput{}, err
		}
		out := broadChunksSearchOutput{Results: results}
		res, err := textResult(out)
		return res, out, err
	})
}

// ===== concept_search / concept_chunks =====

type conceptSearchInput struct {
	Concept string `json:"concept" jsonschema:"required,Concept name to find tagged chunks for."`
	K       int    `json:"k,omitempty" jsonschema:"Maximum chunks to return (default 10)."`
}

type conceptChunk struct {
	ID        string  `json:"id"`
	CatalogID string  `json:"catalog_id"`
	Text      string  `json:"text"`
	Density   float64 `json:"concept_density"`
}

type conceptSearchOutput struct {
	ConceptID string         `json:"concept_id"`
	Concept   string         `json:"concept"`
	Chunks    []conceptChunk `json:"chunks"`
}

func (s *Server) registerConceptSearch() {
	handler := func(ctx context.Context, _ *mcpsdk.CallToolRequest, in conceptSearchInput) (*mcpsdk.CallToolResult, conceptSearchOutput, error) {
		if in.Concept == "" {
			return nil, conceptSearchOutput{}, fmt.Errorf("concept is required")
		}
		concept, ok, err := s.findConceptByName(ctx, in.Concept)
		if err != nil {
			return nil, conceptSearchOutput{}, err
		}
		if !ok {
			return nil, conceptSearchOutput{}, fmt.Errorf("concept not found: %s", in.Concept)
		}

		chunks, err := s.allChunks(ctx)
		if err != nil {
			return nil, conceptSearchOutput{}, err
		}

		k := defaultK(in.K)
		matched := make([]conceptChunk, 0, k)
		for _, c := range chunks {
			if len(matched) >= k {
				break
			}
			if containsString(c.ConceptIDs, concept.ID) {
				matched = append(matched, conceptChunk{ID: c.ID, CatalogID: c.CatalogID, Text: c.Text, Density: c.ConceptDensity})
			}
		}

		out := conceptSearchOutput{ConceptID: concept.ID, Concept: concept.Concept, Chunks: matched}
		res, err := textResult(out)
		return res, out, err
	}

	mcpsdk.AddTool(s.mcp, &mcpsdk.Tool{
		Name:        "concept_search",
		Description: "Find chunks tagged with a concept.",
	}, handler)
	mcpsdk.AddTool(s.mcp, &mcpsdk.Tool{
		Name:        "concept_chunks",
		Description: "Alias of concept_search: find chunks tagged with a concept.",
	}, handler)
}

// ===== source_concepts =====

type sourceConceptsInput struct {
	Source string `json:"source,omitempty" jsonschema:"Restrict to concepts mentioning this source; omit to list every concept."`
}

type sourceConceptsOutput struct {
	Concepts []app.ConceptRow `json:"concepts"`
}

func (s *Server) registerSourceConcepts() {
	mcpsdk.AddTool(s.mcp, &mcpsdk.Tool{
		Name:        "source_concepts",
		Description: "List concepts and their sources.",
	}, func(ctx context.Context, _ *mcpsdk.CallToolRequest, in sourceConceptsInput) (*mcpsdk.CallToolResult, sourceConceptsOutput, error) {
		concepts, err := s.allConcepts(ctx)
		if err != nil {
			return nil, sourceConceptsOutput{}, err
		}
		if in.Source == "" {
			out := sourceConceptsOutput{Concepts: concepts}
			res, err := textResult(out)
			return res, out, err
		}

		filtered := make([]app.ConceptRow, 0, len(concepts))
		for _, c := range concepts {
			if containsString(c.Sources, in.Source) {
				filtered = append(filtered, c)
			}
		}
		out := sourceConceptsOutput{Concepts: filtered}
		res, err := textResult(out)
		return res, out, err
	})
}

// ===== extract_concepts =====

type extractConceptsInput struct {
	Source string `json:"source" jsonschema:"required,Exact source path to return concept metadata for."`
}

type extractConceptsOutput struct {
	Source   string       `json:"source"`
	Concepts app.Concepts `json:"concepts"`
}

func (s *Server) registerExtractConcepts() {
	mcpsdk.AddTool(s.mcp, &mcpsdk.Tool{
		Name:        "extract_concepts",
		Description: "Return a document's concept metadata from the catalog.",
	}, func(ctx context.Context, _ *mcpsdk.CallToolRequest, in extractConceptsInput) (*mcpsdk.CallToolResult, extractConceptsOutput, error) {
		if in.Source == "" {
			return nil, extractConceptsOutput{}, fmt.Errorf("source is required")
		}
		catalog, ok, err := s.findCatalogBySource(ctx, in.Source)
		if err != nil {
			return nil, extractConceptsOutput{}, err
		}
		if !ok {
			return nil, extractConceptsOutput{}, fmt.Errorf("source not found: %s", in.Source)
		}
		out := extractConceptsOutput{Source: catalog.Source, Concepts: catalog.Concepts}
		res, err := textResult(out)
		return res, out, err
	})
}

// ===== category_search =====

type categorySearchInput struct {
	Category string `json:"category" jsonschema:"required,Semantic category to find chunks for."`
	K        int    `json:"k,omitempty" jsonschema:"Maximum chunks to return (default 10)."`
}

type categorySearchOutput struct {
	Chunks []conceptChunk `json:"chunks"`
}

func (s *Server) registerCategorySearch() {
	mcpsdk.AddTool(s.mcp, &mcpsdk.Tool{
		Name:        "category_search",
		Description: "Find chunks in a semantic category.",
	}, func(ctx context.Context, _ *mcpsdk.CallToolRequest, in categorySearchInput) (*mcpsdk.CallToolResult, categorySearchOutput, error) {
		if in.Category == "" {
			return nil, categorySearchOutput{}, fmt.Errorf("category is required")
		}
		chunks, err := s.allChunks(ctx)
		if err != nil {
			return nil, categorySearchOutput{}, err
		}

		k := defaultK(in.K)
		matched := make([]conceptChunk, 0, k)
		for _, c := range chunks {
			if len(matched) >= k {
				break
			}
			if containsString(c.ConceptCategories, in.Category) {
				matched = append(matched, conceptChunk{ID: c.ID, CatalogID: c.CatalogID, Text: c.Text, Density: c.ConceptDensity})
			}
		}
		out := categorySearchOutput{Chunks: matched}
		res, err := textResult(out)
		return res, out, err
	})
}

// ===== list_categories =====

type listCategoriesOutput struct {
	Categories []app.CategoryRow `json:"categories"`
}

func (s *Server) registerListCategories() {
	mcpsdk.AddTool(s.mcp, &mcpsdk.Tool{
		Name:        "list_categories",
		Description: "Browse the derived category vocabulary.",
	}, func(ctx context.Context, _ *mcpsdk.CallToolRequest, _ struct{}) (*mcpsdk.CallToolResult, listCategoriesOutput, error) {
		categories, err := s.allCategories(ctx)
		if err != nil {
			return nil, listCategoriesOutput{}, err
		}
		out := listCategoriesOutput{Categories: categories}
		res, err := textResult(out)
		return res, out, err
	})
}

// ===== list_concepts_in_category =====

type listConceptsInCategoryInput struct {
	Category string `json:"category" jsonschema:"required,Category to list concepts for."`
}

type listConceptsInCategoryOutput struct {
	Concepts []app.ConceptRow `json:"concepts"`
}

func (s *Server) registerListConceptsInCategory() {
	mcpsdk.AddTool(s.mcp, &mcpsdk.Tool{
		Name:        "list_concepts_in_category",
		Description: "Browse the concept vocabulary within a category.",
	}, func(ctx context.Context, _ *mcpsdk.CallToolRequest, in listConceptsInCategoryInput) (*mcpsdk.CallToolResult, listConceptsInCategoryOutput, error) {
		if in.Category == "" {
			return nil, listConceptsInCategoryOutput{}, fmt.Errorf("category is required")
		}
		concepts, err := s.allConcepts(ctx)
		if err != nil {
			return nil, listConceptsInCategoryOutput{}, err
		}
		filtered := make([]app.ConceptRow, 0, len(concepts))
		for _, c := range concepts {
			if c.Category == in.Category {
				filtered = append(filtered, c)
			}
		}
		out := listConceptsInCategoryOutput{Concepts: filtered}
		res, err := textResult(out)
		return res, out, err
	})
}

// ===== get_guidance =====

type getGuidanceOutput struct {
	Guidance string `json:"guidance"`
}

const agentGuidance = `conceptrag surfaces a local document library through five retrieval angles:
catalog_search (whole documents), chunks_search / broad_chunks_search
(passages, scoped or corpus-wide), concept_search / concept_chunks and
category_search (topical browsing), and source_concepts /
extract_concepts / list_categories / list_concepts_in_category for
browsing the derived vocabulary directly. Start broad with
catalog_search or broad_chunks_search, then narrow with chunks_search
once a source is identified.`

func (s *Server) registerGetGuidance() {
	mcpsdk.AddTool(s.mcp, &mcpsdk.Tool{
		Name:        "get_guidance",
		Description: "Return static agent-usage guidance for this tool surface.",
	}, func(_ context.Context, _ *mcpsdk.CallToolRequest, _ struct{}) (*mcpsdk.CallToolResult, getGuidanceOutput, error) {
		out := getGuidanceOutput{Guidance: agentGuidance}
		res, err := textResult(out)
		return res, out, err
	})
}
