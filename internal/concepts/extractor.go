package concepts

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/conceptrag/conceptrag/internal/app"
	"github.com/conceptrag/conceptrag/internal/llm"
)

// defaultTokenBudget is the approximate token count above which extraction
// switches to chunk mode (§4.9: default >100k tokens).
const defaultTokenBudget = 100_000

// metadataLinePatterns filters lines that are page furniture rather than
// document content, so the LLM call is not spent summarizing them.
var metadataLinePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)^\s*page\s+\d+\s*$`),
	regexp.MustCompile(`^\s*\d{1,4}\s*$`),
	regexp.MustCompile(`(?i)^\s*copyright\b.*$`),
	regexp.MustCompile(`(?i)^\s*table of contents\s*$`),
	regexp.MustCompile(`(?i)^\s*(chapter|appendix)\s+[ivxlcdm\d]+\s*$`),
	regexp.MustCompile(`^\s*[ivxlcdm]+\s*$`),
}

// Extractor drives the LLM's extract_concepts call (C4) to produce
// per-document concept metadata.
type Extractor struct {
	llm *llm.Service
}

// NewExtractor creates an Extractor over an already-wired LLM service.
func NewExtractor(service *llm.Service) *Extractor {
	return &Extractor{llm: service}
}

// Extract filters metadata/TOC lines from text, then calls the LLM in
// chunk mode when text exceeds the token budget, single-pass otherwise.
func (e *Extractor) Extract(ctx context.Context, text string) (app.Concepts, error) {
	if e.llm == nil {
		return app.Concepts{}, fmt.Errorf("concepts: extractor has no LLM service configured")
	}

	filtered := FilterMetadataLines(text)

	mode := llm.ModeSinglePass
	if estimateTokens(filtered) > defaultTokenBudget {
		mode = llm.ModeChunk
	}

	meta, err := e.llm.ExtractConcepts(ctx, filtered, mode)
	if err != nil {
		return app.Concepts{}, fmt.Errorf("extracting concepts: %w", err)
	}

	return toAppConcepts(meta), nil
}

// FilterMetadataLines removes page numbers, copyright notices, and other
// non-content lines from text before it is sent to the LLM.
func FilterMetadataLines(text string) string {
	lines := strings.Split(text, "\n")
	kept := make([]string, 0, len(lines))
	for _, line := range lines {
		if isMetadataLine(line) {
			continue
		}
		kept = append(kept, line)
	}
	return strings.Join(kept, "\n")
}

func isMetadataLine(line string) bool {
	for _, p := range metadataLinePatterns {
		if p.MatchString(line) {
			return true
		}
	}
	return false
}

// estimateTokens approximates a token count from character length (~4
// characters per token), avoiding a real tokenizer dependency for a
// threshold check that only needs to be roughly right.
func estimateTokens(text string) int {
	return len(text) / 4
}

// toAppConcepts maps the LLM's ConceptMetadata onto app.Concepts, applying
// C9's case-insensitive primary-concept dedupe while preserving original
// casing for display.
func toAppConcepts(meta llm.ConceptMetadata) app.Concepts {
	seen := make(map[string]struct{}, len(meta.PrimaryConcepts))
	primary := make([]string, 0, len(meta.PrimaryConcepts))
	for _, pc := range meta.PrimaryConcepts {
		key := app.CanonicalConcept(pc.Name)
		if key == "" {
			continue
		}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		primary = append(primary, pc.Name)
	}

	return app.Concepts{
		PrimaryConcepts: primary,
		Categories:      meta.Categories,
		RelatedConcepts: meta.RelatedConcepts,
		TechnicalTerms:  meta.TechnicalTerms,
	}
}
