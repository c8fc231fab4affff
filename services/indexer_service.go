package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"log"

	"github.com/thiago-gmacedo/keep/models"
	"github.com/thiago-gmacedo/keep/store"
)

// IndexerService exposes the three public operations of the semantic index.
// None of them ever panics or propagates a collaborator failure: indexing
// runs inside long batch loops where one bad note must not abort the run,
// so failures surface as false, an empty slice or an error mapping.
type IndexerService interface {
	// IndexNote embeds and upserts one structured note. Returns false when
	// the note has no embeddable content or any collaborator fails.
	IndexNote(ctx context.Context, note models.Note) bool

	// SearchSimilarNotes returns up to nResults notes ranked by descending
	// similarity to the query. Failures yield an empty slice.
	SearchSimilarNotes(ctx context.Context, query string, nResults int) []models.SearchResult

	// GetCollectionStats reports collection size and location. When the
	// store is unreachable the mapping carries an "error" key instead.
	GetCollectionStats(ctx context.Context) map[string]interface{}

	// ListAllNotes enumerates every indexed note, most useful for the
	// listing endpoint and administrative inspection.
	ListAllNotes(ctx context.Context) []models.IndexedNote
}

type indexerService struct {
	store          store.VectorStore
	embedder       EmbeddingService
	collectionName string
	persistDir     string
}

// NewIndexerService wires the normalizer, embedding provider and collection
// store into the public indexing operations.
func NewIndexerService(st store.VectorStore, embedder EmbeddingService, collectionName, persistDir string) IndexerService {
	return &indexerService{
		store:          st,
		embedder:       embedder,
		collectionName: collectionName,
		persistDir:     persistDir,
	}
}

// DeriveID returns the stable identity of a note. Explicit hints win so
// upstream producers can pin ids across re-runs; without hints the id is a
// content hash, which makes re-indexing identical content an update rather
// than a duplicate.
func DeriveID(note models.Note) string {
	if note.VectorID != "" {
		return note.VectorID
	}
	if note.SourceID != "" {
		return note.SourceID
	}
	sum := sha256.Sum256([]byte(ExtractEmbeddableText(note)))
	return hex.EncodeToString(sum[:])[:16]
}

func (s *indexerService) IndexNote(ctx context.Context, note models.Note) bool {
	id := DeriveID(note)

	content := ExtractEmbeddableText(note)
	if content == "" {
		log.Printf("INDEXER: Empty content for note %s, skipping", id)
		return false
	}

	embedding, err := s.embedder.Embed(ctx, content)
	if err != nil {
		log.Printf("INDEXER ERROR: Failed to embed note %s: %v", id, err)
		return false
	}

	metadata := BuildMetadata(note)

	_, exists, err := s.store.Get(ctx, id)
	if err != nil {
		log.Printf("INDEXER ERROR: Failed to check for existing note %s: %v", id, err)
		return false
	}
	if exists {
		log.Printf("INDEXER: Note %s already exists. Updating...", id)
	}

	err = s.store.Upsert(ctx, store.Record{
		ID:        id,
		Embedding: embedding,
		Document:  content,
		Metadata:  metadata,
	})
	if err != nil {
		log.Printf("INDEXER ERROR: Failed to upsert note %s: %v", id, err)
		return false
	}

	if exists {
		log.Printf("INDEXER: Note %s updated successfully", id)
	} else {
		log.Printf("INDEXER: Note %s indexed successfully", id)
	}
	return true
}

func (s *indexerService) SearchSimilarNotes(ctx context.Context, query string, nResults int) []models.SearchResult {
	// Empty queries are allowed: callers enumerate the collection by
	// querying a degenerate string with a large nResults. Embedding an
	// empty string fails at the provider, so substitute a single space.
	embedQuery := query
	if embedQuery == "" {
		log.Printf("INDEXER WARN: Empty search query, results will have low relevance")
		embedQuery = " "
	}

	embedding, err := s.embedder.Embed(ctx, embedQuery)
	if err != nil {
		log.Printf("INDEXER ERROR: Failed to embed query: %v", err)
		return []models.SearchResult{}
	}

	matches, err := s.store.Query(ctx, embedding, nResults)
	if err != nil {
		log.Printf("INDEXER ERROR: Semantic search failed: %v", err)
		return []models.SearchResult{}
	}

	results := make([]models.SearchResult, 0, len(matches))
	for _, m := range matches {
		results = append(results, models.SearchResult{
			ID:         m.Record.ID,
			Document:   m.Record.Document,
			Metadata:   m.Record.Metadata,
			Similarity: 1 - m.Distance,
		})
	}
	return results
}

func (s *indexerService) GetCollectionStats(ctx context.Context) map[string]interface{} {
	count, err := s.store.Count(ctx)
	if err != nil {
		log.Printf("INDEXER ERROR: Failed to get collection stats: %v", err)
		return map[string]interface{}{"error": err.Error()}
	}
	return map[string]interface{}{
		"total_notes":       count,
		"collection_name":   s.collectionName,
		"persist_directory": s.persistDir,
	}
}

func (s *indexerService) ListAllNotes(ctx context.Context) []models.IndexedNote {
	records, err := s.store.GetAll(ctx)
	if err != nil {
		log.Printf("INDEXER ERROR: Failed to list notes: %v", err)
		return []models.IndexedNote{}
	}
	notes := make([]models.IndexedNote, 0, len(records))
	for _, rec := range records {
		notes = append(notes, models.IndexedNote{
			ID:       rec.ID,
			Document: rec.Document,
			Metadata: rec.Metadata,
		})
	}
	return notes
}
