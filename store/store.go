// Package store provides the persistent vector collection backing the
// note indexer: a named set of (id, embedding, document, metadata) records
// with upsert, get-by-id and cosine nearest-neighbor query.
package store

import "context"

// Record is one indexed note inside a collection.
type Record struct {
	ID        string                 `json:"id"`
	Embedding []float32              `json:"embedding"`
	Document  string                 `json:"document"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
}

// Match is a query hit: the matched record plus its cosine distance to the
// query embedding (lower = more similar).
type Match struct {
	Record   Record
	Distance float64
}

// VectorStore is a persistent, named collection of records. Collections are
// created lazily on first access with cosine distance fixed at creation
// time. Implementations must make Upsert and Query individually atomic so
// that independent processes can share one collection safely.
type VectorStore interface {
	// Upsert inserts the record or replaces an existing record with the
	// same id in a single atomic operation.
	Upsert(ctx context.Context, rec Record) error

	// Get returns the record with the given id, if present.
	Get(ctx context.Context, id string) (Record, bool, error)

	// Query returns up to n records ordered by ascending cosine distance
	// to the embedding. Fewer than n records in the collection is not an
	// error; all of them are returned.
	Query(ctx context.Context, embedding []float32, n int) ([]Match, error)

	// Count returns the number of records in the collection.
	Count(ctx context.Context) (int, error)

	// GetAll returns every record in the collection without its embedding.
	GetAll(ctx context.Context) ([]Record, error)

	Close() error
}
