package llm

import "encoding/json"

// ExtractionMode selects how a document's concepts are extracted.
type ExtractionMode string

const (
	// ModeChunk extracts concepts chunk-by-chunk, for documents too large
	// to fit in a single prompt.
	ModeChunk ExtractionMode = "chunk"
	// ModeSinglePass extracts concepts from the whole document in one call.
	ModeSinglePass ExtractionMode = "single_pass"
)

// PrimaryConcept is one of a document's primary concepts. The model may
// respond with either a bare string or an object carrying a summary;
// UnmarshalJSON accepts both.
type PrimaryConcept struct {
	Name    string `json:"name"`
	Summary string `json:"summary,omitempty"`
}

// UnmarshalJSON accepts either a JSON string (taken as Name) or an object
// with "name"/"summary" fields.
func (p *PrimaryConcept) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		p.Name = s
		return nil
	}

	type alias PrimaryConcept
	var a alias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	*p = PrimaryConcept(a)
	return nil
}

// MarshalJSON emits a bare string when there is no summary, matching the
// union shape the prompt response may take.
func (p PrimaryConcept) MarshalJSON() ([]byte, error) {
	if p.Summary == "" {
		return json.Marshal(p.Name)
	}
	type alias PrimaryConcept
	return json.Marshal(alias(p))
}

// ConceptMetadata is the structured result of concept extraction.
type ConceptMetadata struct {
	PrimaryConcepts []PrimaryConcept `json:"primary_concepts"`
	Categories      []string         `json:"categories"`
	TechnicalTerms  []string         `json:"technical_terms,omitempty"`
	RelatedConcepts []string         `json:"related_concepts,omitempty"`
}
