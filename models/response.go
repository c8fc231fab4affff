package models

// IndexedNote is a note as stored in the vector collection, returned by the
// listing endpoint (no similarity, since no query was involved).
type IndexedNote struct {
	ID       string                 `json:"id"`
	Document string                 `json:"document"`
	Metadata map[string]interface{} `json:"metadata,omitempty"`
}

// ListNotesResponse is the structure for the response of GET /notes.
type ListNotesResponse struct {
	Count int           `json:"count"`
	Notes []IndexedNote `json:"notes"`
}

// SearchResponse carries the ranked hits plus the RAG-ready context block
// assembled from them.
type SearchResponse struct {
	Count   int            `json:"count"`
	Results []SearchResult `json:"results"`
	Context string         `json:"context,omitempty"`
}

// ChatResponse is the answer of one RAG chat turn.
type ChatResponse struct {
	Answer       string `json:"answer"`
	SessionID    string `json:"sessionID"`
	ContextNotes int    `json:"context_notes"`
	Error        string `json:"error,omitempty"`
}

// TranscribeResponse is the result of running a handwritten image through
// transcription and structuring.
type TranscribeResponse struct {
	Text    string `json:"text"`
	Note    *Note  `json:"note,omitempty"`
	Indexed bool   `json:"indexed"`
}
