// Package thesaurus provides a read-only, pluggable lexical lookup
// (synonyms, hypernyms, hyponyms) used to enrich corpus concepts and
// expand queries (C12). The default Provider reads a flat WordNet-style
// data file; a nil Provider disables enrichment entirely rather than
// failing, since the thesaurus is an optional external collaborator.
package thesaurus
