package embeddings

import (
	"testing"

	"github.com/conceptrag/conceptrag/internal/vectorstore"
)

// TestEmbedderInterface verifies that HashProvider and FastEmbedProvider
// implement vectorstore.Embedder. This will fail to compile if either
// interface is not satisfied.
func TestEmbedderInterface(t *testing.T) {
	var _ vectorstore.Embedder = (*HashProvider)(nil)
	var _ vectorstore.Embedder = (*FastEmbedProvider)(nil)
	t.Log("HashProvider and FastEmbedProvider correctly implement vectorstore.Embedder")
}
