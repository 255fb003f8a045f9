package embeddings

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func vectorNorm(v []float32) float64 {
	var sumSq float64
	for _, x := range v {
		sumSq += float64(x) * float64(x)
	}
	return math.Sqrt(sumSq)
}

func TestHashProvider_UnitNorm(t *testing.T) {
	p, err := NewHashProvider(HashConfig{})
	require.NoError(t, err)
	defer p.Close()

	texts := []string{
		"the quick brown fox jumps over the lazy dog",
		"a",
		"Hello, World! How are you today?",
		"",
	}

	for _, text := range texts {
		vec := p.Embed(text)
		assert.Len(t, vec, hashEmbeddingDimension)
		norm := vectorNorm(vec)
		assert.InDelta(t, 1.0, norm, 1e-5, "embedding for %q should have unit norm", text)
	}
}

func TestHashProvider_Deterministic(t *testing.T) {
	p, err := NewHashProvider(HashConfig{})
	require.NoError(t, err)
	defer p.Close()

	text := "concept retrieval over local documents"
	v1 := p.Embed(text)
	v2 := p.Embed(text)
	assert.Equal(t, v1, v2)
}

func TestHashProvider_DistinctTextsDiffer(t *testing.T) {
	p, err := NewHashProvider(HashConfig{})
	require.NoError(t, err)
	defer p.Close()

	v1 := p.Embed("graph database indexing")
	v2 := p.Embed("completely unrelated subject matter")
	assert.NotEqual(t, v1, v2)
}

func TestHashProvider_EmptyString(t *testing.T) {
	p, err := NewHashProvider(HashConfig{})
	require.NoError(t, err)
	defer p.Close()

	vec := p.Embed("")
	assert.Len(t, vec, hashEmbeddingDimension)
	assert.InDelta(t, 1.0, vectorNorm(vec), 1e-5)
}

func TestHashProvider_EmbedDocumentsAndQuery(t *testing.T) {
	p, err := NewHashProvider(HashConfig{})
	require.NoError(t, err)
	defer p.Close()

	ctx := context.Background()

	docs, err := p.EmbedDocuments(ctx, []string{"first document", "second document"})
	require.NoError(t, err)
	assert.Len(t, docs, 2)
	for _, d := range docs {
		assert.Len(t, d, hashEmbeddingDimension)
	}

	q, err := p.EmbedQuery(ctx, "first document")
	require.NoError(t, err)
	assert.Equal(t, docs[0], q, "hash provider treats query and document embedding identically")
}

func TestNewHashProvider_CustomDimension(t *testing.T) {
	p, err := NewHashProvider(HashConfig{Dimension: 64})
	require.NoError(t, err)
	defer p.Close()

	assert.Equal(t, 64, p.Dimension())
	vec := p.Embed("some text")
	assert.Len(t, vec, 64)
}

func TestNewHashProvider_RejectsTinyDimension(t *testing.T) {
	_, err := NewHashProvider(HashConfig{Dimension: 3})
	assert.ErrorIs(t, err, ErrInvalidConfig)
}
