package thesaurus

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

// Entry is one word's lexical relations.
type Entry struct {
	Synonyms  []string
	Hypernyms []string // broader terms
	Hyponyms  []string // narrower terms
}

// Provider is an in-memory lexical database loaded from a flat data file.
// Each non-empty, non-comment line has the form:
//
//	word: syn1,syn2 | hyper1,hyper2 | hypo1,hypo2
//
// Trailing sections may be omitted.
type Provider struct {
	entries map[string]Entry
}

// Load reads a thesaurus data file. An empty path returns a Provider with
// no entries rather than an error, since the thesaurus is optional.
func Load(path string) (*Provider, error) {
	p := &Provider{entries: make(map[string]Entry)}
	if path == "" {
		return p, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening thesaurus file: %w", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		word, entry, ok := parseLine(line)
		if !ok {
			continue
		}
		p.entries[word] = entry
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading thesaurus file: %w", err)
	}

	return p, nil
}

func parseLine(line string) (string, Entry, bool) {
	word, rest, found := strings.Cut(line, ":")
	if !found {
		return "", Entry{}, false
	}
	word = strings.ToLower(strings.TrimSpace(word))
	if word == "" {
		return "", Entry{}, false
	}

	sections := strings.Split(rest, "|")
	var entry Entry
	if len(sections) > 0 {
		entry.Synonyms = splitTerms(sections[0])
	}
	if len(sections) > 1 {
		entry.Hypernyms = splitTerms(sections[1])
	}
	if len(sections) > 2 {
		entry.Hyponyms = splitTerms(sections[2])
	}
	return word, entry, true
}

func splitTerms(s string) []string {
	parts := strings.Split(s, ",")
	terms := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			terms = append(terms, p)
		}
	}
	return terms
}

// Lookup satisfies internal/concepts.Thesaurus: it returns the synonyms,
// hypernyms (as broader terms) and hyponyms (as narrower terms) for word.
func (p *Provider) Lookup(word string) (synonyms, broader, narrower []string, ok bool) {
	entry, found := p.entries[strings.ToLower(word)]
	if !found {
		return nil, nil, nil, false
	}
	return entry.Synonyms, entry.Hypernyms, entry.Hyponyms, true
}

// Synonyms returns word's synonyms, or nil if word is unknown.
func (p *Provider) Synonyms(word string) []string {
	return p.entries[strings.ToLower(word)].Synonyms
}

// Hypernyms returns word's broader terms, or nil if word is unknown.
func (p *Provider) Hypernyms(word string) []string {
	return p.entries[strings.ToLower(word)].Hypernyms
}

// Len reports how many words the provider has entries for.
func (p *Provider) Len() int {
	return len(p.entries)
}
