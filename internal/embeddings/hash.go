// Package embeddings provides embedding generation via multiple providers.
package embeddings

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"go.uber.org/zap"
)

const hashEmbeddingDimension = 384
const hashModelName = "hash-384"

// HashConfig holds configuration for the hash-based embedding provider.
type HashConfig struct {
	// Dimension is the output vector size. Defaults to 384.
	Dimension int
}

// HashProvider generates deterministic pseudo-embeddings from text without
// any model or network dependency. It is the default provider: offline,
// pure, and reproducible, at the cost of weak semantic fidelity.
//
// Algorithm (spec): tokenize on whitespace; mix each token's byte-shift
// hash into one of Dimension-3 slots (slot = hash % (dim-3), accumulate
// +1); accumulate character-code counts with weight 0.1 into the same
// slot range; reserve the first three slots for normalized structural
// features (length/1000, word_count/100, sentence_count/10); normalize
// the result to unit length.
type HashProvider struct {
	dimension int
	metrics   *Metrics
}

// NewHashProvider creates a HashProvider. An empty/zero Dimension defaults
// to 384.
func NewHashProvider(cfg HashConfig) (*HashProvider, error) {
	dim := cfg.Dimension
	if dim == 0 {
		dim = hashEmbeddingDimension
	}
	if dim <= 3 {
		return nil, fmt.Errorf("%w: dimension must be greater than 3, got %d", ErrInvalidConfig, dim)
	}
	return &HashProvider{dimension: dim, metrics: NewMetrics(zap.NewNop())}, nil
}

// Embed produces a unit-length pseudo-embedding for a single text.
func (p *HashProvider) Embed(text string) []float32 {
	vec := make([]float64, p.dimension)
	slots := p.dimension - 3

	words := strings.Fields(text)
	for _, w := range words {
		h := byteShiftHash(w)
		slot := 3 + int(h%uint32(slots))
		vec[slot]++
	}

	for _, r := range text {
		h := uint32(r)
		slot := 3 + int(h%uint32(slots))
		vec[slot] += 0.1
	}

	sentenceCount := countSentences(text)
	vec[0] = float64(len([]rune(text))) / 1000.0
	vec[1] = float64(len(words)) / 100.0
	vec[2] = float64(sentenceCount) / 10.0

	normalize(vec)

	out := make([]float32, p.dimension)
	for i, v := range vec {
		out[i] = float32(v)
	}
	return out
}

// byteShiftHash mixes the bytes of s into a 32-bit hash via shift-and-add,
// matching the "byte-shift hash" construction in the embedding spec.
func byteShiftHash(s string) uint32 {
	var h uint32
	for i := 0; i < len(s); i++ {
		h = (h << 5) + h + uint32(s[i])
	}
	return h
}

func countSentences(text string) int {
	count := 0
	for _, r := range text {
		if r == '.' || r == '!' || r == '?' {
			count++
		}
	}
	if count == 0 && len(strings.TrimSpace(text)) > 0 {
		count = 1
	}
	return count
}

func normalize(vec []float64) {
	var sumSq float64
	for _, v := range vec {
		sumSq += v * v
	}
	if sumSq == 0 {
		// Fixed fallback direction so the zero vector still has unit norm.
		vec[0] = 1.0
		return
	}
	norm := math.Sqrt(sumSq)
	for i := range vec {
		vec[i] /= norm
	}
}

// EmbedDocuments generates embeddings for multiple texts.
func (p *HashProvider) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	start := time.Now()
	defer func() {
		p.metrics.RecordGeneration(ctx, hashModelName, "embed_documents", time.Since(start), len(texts), nil)
	}()

	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = p.Embed(t)
	}
	return out, nil
}

// EmbedQuery generates an embedding for a single query. The hash algorithm
// treats documents and queries identically.
func (p *HashProvider) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	start := time.Now()
	defer func() {
		p.metrics.RecordGeneration(ctx, hashModelName, "embed_query", time.Since(start), 1, nil)
	}()
	return p.Embed(text), nil
}

// Dimension returns the configured embedding dimension.
func (p *HashProvider) Dimension() int {
	return p.dimension
}

// Close is a no-op; HashProvider holds no external resources.
func (p *HashProvider) Close() error {
	return nil
}
