package concepts

import (
	"math"
	"regexp"
	"strings"

	"github.com/conceptrag/conceptrag/internal/app"
)

var wordPattern = regexp.MustCompile(`[a-z0-9]+`)

// tokenize lowercases and splits text into a word-only token slice,
// preserving order (needed for the enricher's window match and the
// indexer's weight computation alike).
func tokenize(text string) []string {
	return wordPattern.FindAllString(strings.ToLower(text), -1)
}

const enrichWindowSize = 20

// EnrichResult is the per-chunk output of concept enrichment.
type EnrichResult struct {
	ConceptIDs      []string
	MatchedConcepts []string
	Density         float64
}

// Enrich assigns concept ids to a chunk by fuzzy-matching the document's
// concept set against the chunk's text (C11).
func Enrich(chunkText string, docConcepts []string) EnrichResult {
	lower := strings.ToLower(chunkText)
	tokens := tokenize(chunkText)

	type match struct {
		canon string
		words []string
	}
	matches := make(map[string]match)

	for _, concept := range docConcepts {
		canon := app.CanonicalConcept(concept)
		words := tokenize(canon)
		if len(words) == 0 {
			continue
		}

		if strings.Contains(lower, canon) {
			matches[canon] = match{canon: canon, words: words}
			continue
		}

		if len(words) > 1 {
			need := int(math.Ceil(0.6 * float64(len(words))))
			if wordsWithinWindow(tokens, words, enrichWindowSize) >= need {
				matches[canon] = match{canon: canon, words: words}
			}
		}
	}

	// Tie-break: drop single-word matches that are just one of a matched
	// multi-word concept's own words.
	for canon, m := range matches {
		if len(m.words) != 1 {
			continue
		}
		for otherCanon, other := range matches {
			if otherCanon == canon || len(other.words) <= 1 {
				continue
			}
			if containsWord(other.words, m.words[0]) {
				delete(matches, canon)
				break
			}
		}
	}

	result := EnrichResult{
		ConceptIDs:      make([]string, 0, len(matches)),
		MatchedConcepts: make([]string, 0, len(matches)),
	}
	for canon := range matches {
		result.ConceptIDs = append(result.ConceptIDs, app.HashID(canon))
		result.MatchedConcepts = append(result.MatchedConcepts, canon)
	}

	total := len(docConcepts)
	if total == 0 {
		total = 1
	}
	density := float64(len(matches)) / float64(total)
	if density > 1 {
		density = 1
	}
	result.Density = density

	return result
}

func containsWord(words []string, word string) bool {
	for _, w := range words {
		if w == word {
			return true
		}
	}
	return false
}

// wordsWithinWindow returns the largest number of distinct words (from
// the word set) found inside any windowSize-token sliding window over
// tokens.
func wordsWithinWindow(tokens, words []string, windowSize int) int {
	wordSet := make(map[string]struct{}, len(words))
	for _, w := range words {
		wordSet[w] = struct{}{}
	}

	best := 0
	for start := 0; start < len(tokens); start++ {
		end := start + windowSize
		if end > len(tokens) {
			end = len(tokens)
		}
		seen := make(map[string]struct{})
		for _, t := range tokens[start:end] {
			if _, ok := wordSet[t]; ok {
				seen[t] = struct{}{}
			}
		}
		if len(seen) > best {
			best = len(seen)
		}
		if best == len(words) {
			break
		}
	}
	return best
}
