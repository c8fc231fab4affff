package models

// SearchResult is a single semantic search hit. Similarity is derived from
// the store's cosine distance as 1 - distance, so 1.0 means identical and
// values near or below zero mean unrelated.
type SearchResult struct {
	ID         string                 `json:"id"`
	Document   string                 `json:"document"`
	Metadata   map[string]interface{} `json:"metadata,omitempty"`
	Similarity float64                `json:"similarity"`
}
