package models

// ScoredMemory is a memory with per-request relevance scores. It is never
// persisted; scores are visible to the chat pipeline but stripped before
// memories leave the ranking boundary.
type ScoredMemory struct {
	*Memory
	SemanticScore float64 `json:"semantic_score"`
	KeywordScore  float64 `json:"keyword_score"`
	CombinedScore float64 `json:"combined_score"`
}

// StripScores returns the plain memories from a ranked list, preserving order.
func StripScores(scored []*ScoredMemory) []*Memory {
	memories := make([]*Memory, len(scored))
	for i, s := range scored {
		memories[i] = s.Memory
	}
	return memories
}
