// Package concepts implements the concept extractor (C9), concept indexer
// (C10), and concept enricher (C11): turning per-document LLM extractions
// into the corpus-wide concepts/categories tables and tagging individual
// chunks with the concept ids they mention.
package concepts
