package app

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/json"
	"strings"

	"github.com/conceptrag/conceptrag/internal/vectorstore"
)

// Concepts is the structured concept payload carried by a catalog row's
// "concepts" field and mirrored into chunk/concept rows.
type Concepts struct {
	PrimaryConcepts []string `json:"primary_concepts"`
	Categories      []string `json:"categories"`
	RelatedConcepts []string `json:"related_concepts,omitempty"`
	TechnicalTerms  []string `json:"technical_terms,omitempty"`
	Summary         string   `json:"summary,omitempty"`
}

// Loc is the page-range metadata carried by catalog and chunk rows.
type Loc struct {
	StartPage int `json:"start_page"`
	EndPage   int `json:"end_page"`
}

// CatalogRow is one ingested document (catalog collection).
type CatalogRow struct {
	ID                string   `json:"id"`
	Source            string   `json:"source"`
	Hash              string   `json:"hash"`
	Text              string   `json:"text"`
	Concepts          Concepts `json:"concepts"`
	ConceptCategories []string `json:"concept_categories"`
	Loc               Loc      `json:"loc"`
	Vector            []float32
}

// ChunkRow is one retrieval-sized text segment (chunks collection).
type ChunkRow struct {
	ID                string   `json:"id"`
	CatalogID         string   `json:"catalog_id"`
	Text              string   `json:"text"`
	Hash              string   `json:"hash"`
	Loc               Loc      `json:"loc"`
	ConceptIDs        []string `json:"concept_ids"`
	ConceptCategories []string `json:"concept_categories"`
	ConceptDensity    float64  `json:"concept_density"`
	Vector            []float32
}

// ConceptRow is one corpus-wide aggregated concept (concepts collection).
type ConceptRow struct {
	ID               string   `json:"id"`
	Concept          string   `json:"concept"`
	ConceptType      string   `json:"concept_type"`
	Category         string   `json:"category"`
	Sources          []string `json:"sources"`
	CatalogIDs       []string `json:"catalog_ids"`
	RelatedConcepts  []string `json:"related_concepts"`
	Synonyms         []string `json:"synonyms,omitempty"`
	BroaderTerms     []string `json:"broader_terms,omitempty"`
	NarrowerTerms    []string `json:"narrower_terms,omitempty"`
	Weight           float64  `json:"weight"`
	ChunkCount       int      `json:"chunk_count"`
	EnrichmentSource string   `json:"enrichment_source,omitempty"`
	Vector           []float32
}

// CategoryRow is one derived category (categories collection).
type CategoryRow struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	Alias          string `json:"alias,omitempty"`
	ParentID       string `json:"parent_id,omitempty"`
	DocumentCount  int    `json:"document_count"`
	ConceptCount   int    `json:"concept_count"`
}

const (
	ConceptTypeThematic   = "thematic"
	ConceptTypeTerminology = "terminology"

	EnrichmentSourceCorpus  = "corpus"
	EnrichmentSourceWordnet = "wordnet"
	EnrichmentSourceHybrid  = "hybrid"
)

// HashID derives a stable, opaque row id from any identity string (a file
// path, "catalog_id:offset", or a canonicalized concept/category name).
func HashID(identity string) string {
	sum := sha256.Sum256([]byte(identity))
	return "id_" + hexEncode(sum[:16])
}

// CanonicalConcept lowercases and trims a concept name for id computation
// and grouping, per C9's case-insensitive dedupe rule. Display strings
// keep their original case; only the id derivation uses this form.
func CanonicalConcept(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

func hexEncode(b []byte) string {
	const hextable = "0123456789abcdef"
	out := make([]byte, len(b)*2)
	for i, v := range b {
		out[i*2] = hextable[v>>4]
		out[i*2+1] = hextable[v&0x0f]
	}
	return string(out)
}

// TieBreakValue returns a numeric value derived from an id string, for
// callers that need a deterministic secondary sort key (e.g. search's
// tie-break on id when scores are equal).
func TieBreakValue(id string) uint64 {
	sum := sha256.Sum256([]byte(id))
	return binary.BigEndian.Uint64(sum[:8])
}

// ToDocument marshals a CatalogRow into the generic vectorstore.Document
// shape, storing every non-vector field as JSON under "row" so it can be
// recovered with FromCatalogDocument.
func (c CatalogRow) ToDocument() vectorstore.Document {
	raw, _ := json.Marshal(c)
	return vectorstore.Document{
		ID:         c.ID,
		Content:    c.Text,
		Collection: CollectionCatalog,
		Metadata: map[string]interface{}{
			"row":    string(raw),
			"hash":   c.Hash,
			"source": c.Source,
		},
	}
}

// FromCatalogDocument recovers a CatalogRow from a search/scan result.
func FromCatalogDocument(doc vectorstore.Document) (CatalogRow, error) {
	var row CatalogRow
	raw, _ := doc.Metadata["row"].(string)
	if raw == "" {
		return row, errMissingRow
	}
	if err := json.Unmarshal([]byte(raw), &row); err != nil {
		return row, err
	}
	return row, nil
}

// ToDocument marshals a ChunkRow the same way CatalogRow does.
func (c ChunkRow) ToDocument() vectorstore.Document {
	raw, _ := json.Marshal(c)
	return vectorstore.Document{
		ID:         c.ID,
		Content:    c.Text,
		Collection: CollectionChunks,
		Metadata: map[string]interface{}{
			"row":        string(raw),
			"hash":       c.Hash,
			"catalog_id": c.CatalogID,
		},
	}
}

// FromChunkDocument recovers a ChunkRow from a search/scan result.
func FromChunkDocument(doc vectorstore.Document) (ChunkRow, error) {
	var row ChunkRow
	raw, _ := doc.Metadata["row"].(string)
	if raw == "" {
		return row, errMissingRow
	}
	if err := json.Unmarshal([]byte(raw), &row); err != nil {
		return row, err
	}
	return row, nil
}

// ToDocument marshals a ConceptRow the same way CatalogRow does.
func (c ConceptRow) ToDocument() vectorstore.Document {
	raw, _ := json.Marshal(c)
	return vectorstore.Document{
		ID:         c.ID,
		Content:    c.Concept,
		Collection: CollectionConcepts,
		Metadata:   map[string]interface{}{"row": string(raw)},
	}
}

// FromConceptDocument recovers a ConceptRow from a search/scan result.
func FromConceptDocument(doc vectorstore.Document) (ConceptRow, error) {
	var row ConceptRow
	raw, _ := doc.Metadata["row"].(string)
	if raw == "" {
		return row, errMissingRow
	}
	if err := json.Unmarshal([]byte(raw), &row); err != nil {
		return row, err
	}
	return row, nil
}

// ToDocument marshals a CategoryRow the same way CatalogRow does.
func (c CategoryRow) ToDocument() vectorstore.Document {
	raw, _ := json.Marshal(c)
	return vectorstore.Document{
		ID:         c.ID,
		Content:    c.Name,
		Collection: CollectionCategories,
		Metadata:   map[string]interface{}{"row": string(raw)},
	}
}

// FromCategoryDocument recovers a CategoryRow from a search/scan result.
func FromCategoryDocument(doc vectorstore.Document) (CategoryRow, error) {
	var row CategoryRow
	raw, _ := doc.Metadata["row"].(string)
	if raw == "" {
		return row, errMissingRow
	}
	if err := json.Unmarshal([]byte(raw), &row); err != nil {
		return row, err
	}
	return row, nil
}
