// Package keyword scores queries against memory text using substring and
// curated synonym matches. It is the recall safety net beside the semantic
// embedding: cheap, deterministic, and independent of vector quality.
package keyword

import (
	"strings"

	"github.com/hyperjump/omoide/internal/models"
)

// Matcher scores query tokens against memory text.
type Matcher struct {
	synonyms map[string][]string
}

// NewMatcher returns a matcher with the default curated synonym table.
func NewMatcher() *Matcher {
	return &Matcher{synonyms: defaultSynonyms}
}

// NewMatcherWithSynonyms returns a matcher with a custom synonym table.
// The table is read-only; callers must not mutate it after construction.
func NewMatcherWithSynonyms(table map[string][]string) *Matcher {
	return &Matcher{synonyms: table}
}

// Score returns a length-normalized relevance score ≥ 0 for query against the
// memory's title, content, and tags. Each query token contributes +1 for a
// literal substring hit and +0.7 for each synonym that appears; the sum is
// divided by the token count. Zero tokens yields 0.
func (m *Matcher) Score(query string, memory *models.Memory) float64 {
	tokens := Tokenize(query)
	if len(tokens) == 0 {
		return 0
	}
	text := strings.ToLower(memory.SearchText())

	var score float64
	for _, token := range tokens {
		if strings.Contains(text, token) {
			score += 1
		}
		for _, synonym := range m.synonyms[token] {
			if strings.Contains(text, synonym) {
				score += 0.7
			}
		}
	}
	return score / float64(len(tokens))
}

// Tokenize lowercases the query, splits on whitespace, and drops tokens of
// length ≤ 2.
func Tokenize(query string) []string {
	fields := strings.Fields(strings.ToLower(query))
	tokens := fields[:0]
	for _, f := range fields {
		if len(f) > 2 {
			tokens = append(tokens, f)
		}
	}
	return tokens
}
