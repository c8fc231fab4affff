package models

// SearchRequest is the body of POST /api/v1/search.
type SearchRequest struct {
	Query    string `json:"query"`
	NResults int    `json:"n_results,omitempty"`
}

// ChatRequest is the body of POST /api/v1/chat.
type ChatRequest struct {
	Query     string `json:"query"`
	SessionID string `json:"sessionID,omitempty"`
}
