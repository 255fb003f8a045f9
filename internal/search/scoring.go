package search

import (
	"path"
	"regexp"
	"strings"
)

const (
	bm25K1            = 1.5
	bm25B             = 0.75
	bm25AvgDocLength  = 100.0
	smallCollectionMax = 256
)

var scoreWordPattern = regexp.MustCompile(`[a-z0-9]+`)

func tokenizeForScoring(text string) []string {
	return scoreWordPattern.FindAllString(strings.ToLower(text), -1)
}

// bm25Score is a weighted BM25 pass over terms against haystack, where
// term frequency counts fuzzy occurrences (word.contains(t) ||
// t.contains(word)) rather than exact token matches.
func bm25Score(haystack string, terms []string, weights map[string]float64) float64 {
	words := tokenizeForScoring(haystack)
	if len(words) == 0 || len(terms) == 0 {
		return 0
	}

	docLength := float64(len(words))
	var weightedSum, totalWeight float64

	for _, term := range terms {
		weight := weights[term]
		totalWeight += weight
		if weight == 0 {
			continue
		}

		tf := 0
		for _, word := range words {
			if strings.Contains(word, term) || strings.Contains(term, word) {
				tf++
			}
		}
		if tf == 0 {
			continue
		}

		termFreq := float64(tf)
		termScore := (termFreq * (bm25K1 + 1)) / (termFreq + bm25K1*(1-bm25B+bm25B*docLength/bm25AvgDocLength))
		weightedSum += termScore * weight
	}

	if totalWeight == 0 {
		return 0
	}
	return clip01(weightedSum / totalWeight)
}

// documentTitle derives a human title from a source path: basename minus
// extension, with common separators normalized to spaces.
func documentTitle(source string) string {
	base := path.Base(source)
	ext := path.Ext(base)
	base = strings.TrimSuffix(base, ext)
	replacer := strings.NewReplacer("--", " ", "_", " ", "-", " ")
	return replacer.Replace(base)
}

// titleScore gives each original query term that occurs in the title an
// equal share of the [0,1] range, so matching every term saturates to 1.
func titleScore(title string, originalTerms []string) float64 {
	if len(originalTerms) == 0 {
		return 0
	}
	lowerTitle := strings.ToLower(title)
	perMatch := 1.0 / float64(len(originalTerms))

	var score float64
	for _, term := range originalTerms {
		if term != "" && strings.Contains(lowerTitle, term) {
			score += perMatch
		}
	}
	return clip01(score)
}

// conceptScore fuzzy-matches expansion terms against a catalog row's
// primary concepts, summing matched weight normalized by total weight.
func conceptScore(primaryConcepts []string, weights map[string]float64) (float64, []string) {
	if len(weights) == 0 || len(primaryConcepts) == 0 {
		return 0, nil
	}

	var totalWeight, matchedWeight float64
	var matched []string
	for term, weight := range weights {
		totalWeight += weight
		for _, concept := range primaryConcepts {
			conceptLower := strings.ToLower(concept)
			if strings.Contains(conceptLower, term) || strings.Contains(term, conceptLower) {
				matchedWeight += weight
				matched = append(matched, concept)
				break
			}
		}
	}
	if totalWeight == 0 {
		return 0, matched
	}
	return clip01(matchedWeight / totalWeight), matched
}

// wordnetScore is the fraction of wordnetTerms that occur as substrings
// of text.
func wordnetScore(text string, wordnetTerms []string) float64 {
	if len(wordnetTerms) == 0 {
		return 0
	}
	lowerText := strings.ToLower(text)
	matched := 0
	for _, term := range wordnetTerms {
		if term != "" && strings.Contains(lowerText, term) {
			matched++
		}
	}
	return float64(matched) / float64(len(wordnetTerms))
}

func clip01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
