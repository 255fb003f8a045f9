package query

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/conceptrag/conceptrag/internal/app"
	"github.com/conceptrag/conceptrag/internal/vectorstore"
)

var termPattern = regexp.MustCompile(`[a-z0-9]+`)

// Thesaurus is the subset of thesaurus lookups the expander needs.
type Thesaurus interface {
	Lookup(term string) (synonyms, broader, narrower []string, ok bool)
}

// Expander turns raw query text into a weighted term expansion by
// consulting the concepts collection and, optionally, a thesaurus.
type Expander struct {
	store     vectorstore.Store
	thesaurus Thesaurus
}

// NewExpander creates an Expander. thesaurus may be nil, in which case
// only original and corpus terms are produced.
func NewExpander(store vectorstore.Store, thesaurus Thesaurus) *Expander {
	return &Expander{store: store, thesaurus: thesaurus}
}

// Expand implements C12: tokenize, look up each term of length >= 3
// against the concepts collection and the thesaurus, then merge and
// truncate to the top ~30 terms by weight.
func (e *Expander) Expand(ctx context.Context, text string) (Expansion, error) {
	original := tokenizeQuery(text)

	weights := make(map[string]float64, len(original))
	var corpusTerms, wordnetTerms []string
	seenCorpus := make(map[string]struct{})
	seenWordnet := make(map[string]struct{})

	for _, term := range original {
		setWeight(weights, term, weightOriginal)
	}

	var concepts []app.ConceptRow
	for _, term := range original {
		if len(term) < minExpandableTermLen {
			continue
		}

		if concepts == nil {
			var err error
			concepts, err = e.allConcepts(ctx)
			if err != nil {
				return Expansion{}, fmt.Errorf("loading concepts for expansion: %w", err)
			}
		}

		for _, c := range concepts {
			canon := app.CanonicalConcept(c.Concept)
			if canon == term || strings.HasPrefix(canon, term) {
				if setWeight(weights, canon, weightCorpusConcept) {
					addUnique(&corpusTerms, seenCorpus, canon)
				}
				for _, rel := range c.RelatedConcepts {
					relCanon := app.CanonicalConcept(rel)
					if setWeight(weights, relCanon, weightCorpusRelated) {
						addUnique(&corpusTerms, seenCorpus, relCanon)
					}
				}
			}
		}

		if e.thesaurus == nil {
			continue
		}
		if synonyms, hypernyms, _, ok := e.thesaurus.Lookup(term); ok {
			for _, syn := range synonyms {
				synLower := strings.ToLower(syn)
				if setWeight(weights, synLower, weightThesaurusSyn) {
					addUnique(&wordnetTerms, seenWordnet, synLower)
				}
			}
			for _, hyper := range hypernyms {
				hyperLower := strings.ToLower(hyper)
				if setWeight(weights, hyperLower, weightThesaurusHyper) {
					addUnique(&wordnetTerms, seenWordnet, hyperLower)
				}
			}
		}
	}

	allTerms := make([]string, 0, len(weights))
	for term := range weights {
		allTerms = append(allTerms, term)
	}
	sort.Slice(allTerms, func(i, j int) bool {
		if weights[allTerms[i]] != weights[allTerms[j]] {
			return weights[allTerms[i]] > weights[allTerms[j]]
		}
		return allTerms[i] < allTerms[j]
	})
	if len(allTerms) > maxTerms {
		for _, dropped := range allTerms[maxTerms:] {
			delete(weights, dropped)
		}
		allTerms = allTerms[:maxTerms]
	}

	return Expansion{
		OriginalTerms: original,
		CorpusTerms:   corpusTerms,
		WordnetTerms:  wordnetTerms,
		AllTerms:      allTerms,
		Weights:       weights,
	}, nil
}

// setWeight keeps the higher of any existing weight and the candidate,
// reporting whether this term is new to the weight map.
func setWeight(weights map[string]float64, term string, weight float64) bool {
	if term == "" {
		return false
	}
	existing, ok := weights[term]
	if !ok {
		weights[term] = weight
		return true
	}
	if weight > existing {
		weights[term] = weight
	}
	return false
}

func addUnique(list *[]string, seen map[string]struct{}, term string) {
	if _, ok := seen[term]; ok {
		return
	}
	seen[term] = struct{}{}
	*list = append(*list, term)
}

func (e *Expander) allConcepts(ctx context.Context) ([]app.ConceptRow, error) {
	docs, err := app.ScanCollection(ctx, e.store, app.CollectionConcepts, nil)
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

// tokenizeQuery lowercases text and strips stop-punctuation, returning
// deduplicated word tokens in first-seen order.
func tokenizeQuery(text string) []string {
	raw := termPattern.FindAllString(strings.ToLower(text), -1)
	seen := make(map[string]struct{}, len(raw))
	out := make([]string, 0, len(raw))
	for _, t := range raw {
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}
