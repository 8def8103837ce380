package models

import "fmt"

// SearchQuery represents a search request with an optional type filter.
type SearchQuery struct {
	Query string `json:"query"`
	Type  string `json:"type,omitempty"`
	Limit int    `json:"limit,omitempty"`
}

// Validate ensures the search query has valid fields and sets defaults.
// Returns an error if the query is empty; otherwise normalizes the limit.
func (q *SearchQuery) Validate() error {
	if q.Query == "" {
		return fmt.Errorf("query cannot be empty")
	}
	if q.Limit <= 0 {
		q.Limit = 10
	}
	if q.Limit > 100 {
		q.Limit = 100
	}
	switch q.Type {
	case "", "all", TypeIdea, TypeNote, TypeLearning, TypeTask:
	default:
		return fmt.Errorf("invalid type filter %q", q.Type)
	}
	return nil
}
