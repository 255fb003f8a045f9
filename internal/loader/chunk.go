package loader

import (
	"strings"
	"unicode"
)

// Chunk is one contiguous, retrieval-sized slice of a document's text.
type Chunk struct {
	Text       string
	Index      int
	PageNumber int
}

// Chunk splits the document's full text into overlapping, sentence-
// boundary-preferring segments. size and overlap are measured in runes;
// callers pass config.IngestConfig's chunk_size/chunk_overlap (suggested
// defaults ~500/~50, per the open question this policy resolves).
func (d *Document) Chunk(size, overlap int) []Chunk {
	if size <= 0 {
		size = 500
	}
	if overlap < 0 || overlap >= size {
		overlap = 0
	}

	var chunks []Chunk
	for _, page := range d.Pages {
		text := []rune(page.Text)
		if len(text) == 0 {
			continue
		}

		start := 0
		for start < len(text) {
			end := start + size
			if end >= len(text) {
				end = len(text)
			} else {
				end = preferSentenceBoundary(text, start, end)
			}

			chunkText := strings.TrimSpace(string(text[start:end]))
			if chunkText != "" {
				chunks = append(chunks, Chunk{Text: chunkText, Index: len(chunks), PageNumber: page.PageNumber})
			}

			if end >= len(text) {
				break
			}
			start = end - overlap
			if start < 0 {
				start = end
			}
		}
	}

	return chunks
}

// preferSentenceBoundary looks backward from end (within the current
// window) for a sentence-ending punctuation mark followed by whitespace,
// so chunk boundaries land on sentence edges when one is nearby rather
// than splitting mid-word.
func preferSentenceBoundary(text []rune, start, end int) int {
	const lookback = 80

	limit := end - lookback
	if limit < start {
		limit = start
	}

	for i := end - 1; i > limit; i-- {
		if isSentenceEnd(text[i]) && i+1 < len(text) && unicode.IsSpace(text[i+1]) {
			return i + 1
		}
	}
	return end
}

func isSentenceEnd(r rune) bool {
	return r == '.' || r == '!' || r == '?'
}
