// Package query implements the query expander (C12): turning raw query
// text into a weighted set of original, corpus (concepts-table) and
// thesaurus terms consumed by the hybrid search engine's BM25 and
// wordnet sub-scores.
package query
