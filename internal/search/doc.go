// Package search implements the hybrid search engine (C13): a five-signal
// scorer (vector, BM25, title, concept, wordnet) fused into one ranked
// result set over either the catalog or chunks collection.
package search
