package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

const (
	summarizePromptName       = "summarize"
	extractConceptsPromptName = "extract_concepts"

	defaultSummarizeMaxTokens = 512
	defaultExtractMaxTokens   = 1024
)

// Service implements the C4 contract: summarize and extract_concepts,
// both driven by externally loaded prompt templates.
type Service struct {
	client  *Client
	prompts *PromptStore
}

// NewService creates a Service from an already-configured Client and
// PromptStore. The PromptStore must have loaded a "summarize.txt" and an
// "extract_concepts.txt" template.
func NewService(client *Client, prompts *PromptStore) *Service {
	return &Service{client: client, prompts: prompts}
}

// Summarize produces a summary of text no longer than max_chars runes,
// truncating the model's response if it overshoots.
func (s *Service) Summarize(ctx context.Context, text string, maxChars int) (string, error) {
	prompt, err := s.prompts.Render(summarizePromptName, text)
	if err != nil {
		return "", err
	}

	result, err := s.client.Complete(ctx, "", prompt, defaultSummarizeMaxTokens)
	if err != nil {
		return "", err
	}

	result = strings.TrimSpace(result)
	if maxChars > 0 {
		runes := []rune(result)
		if len(runes) > maxChars {
			result = string(runes[:maxChars])
		}
	}
	return result, nil
}

// ExtractConcepts extracts structured concept metadata from text. mode
// selects between chunk-scoped and single-pass extraction; the core's
// chunking decision is made by the caller, not the client — this method
// only renders the prompt appropriate to the mode.
func (s *Service) ExtractConcepts(ctx context.Context, text string, mode ExtractionMode) (ConceptMetadata, error) {
	prompt, err := s.prompts.Render(extractConceptsPromptName, text)
	if err != nil {
		return ConceptMetadata{}, err
	}
	if mode != "" {
		prompt = fmt.Sprintf("%s\n\nExtraction mode: %s", prompt, mode)
	}

	raw, err := s.client.Complete(ctx, "", prompt, defaultExtractMaxTokens)
	if err != nil {
		return ConceptMetadata{}, err
	}

	return parseConceptMetadata(raw)
}

// parseConceptMetadata parses a JSON response, tolerating models that wrap
// their JSON in a markdown code fence.
func parseConceptMetadata(raw string) (ConceptMetadata, error) {
	cleaned := strings.TrimSpace(raw)
	cleaned = strings.TrimPrefix(cleaned, "```json")
	cleaned = strings.TrimPrefix(cleaned, "```")
	cleaned = strings.TrimSuffix(cleaned, "```")
	cleaned = strings.TrimSpace(cleaned)

	var meta ConceptMetadata
	if err := json.Unmarshal([]byte(cleaned), &meta); err != nil {
		return ConceptMetadata{}, &LlmError{
			Category: CategoryBadRequest,
			Message:  fmt.Sprintf("parsing concept metadata: %v", err),
		}
	}
	return meta, nil
}
