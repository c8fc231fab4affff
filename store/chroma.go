package store

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	chromago "github.com/amikos-tech/chroma-go/pkg/api/v2"
	"github.com/amikos-tech/chroma-go/pkg/embeddings"
)

// ChromaStore backs a collection with a running Chroma server through the
// v2 HTTP API. Persistence location is a server-side concern here; the
// persistDir passed at construction is only echoed back in stats.
type ChromaStore struct {
	client     chromago.Client
	collection chromago.Collection
}

// NewChromaStore connects to the Chroma server at serverURL and gets or
// creates the named collection with cosine distance, matching the space the
// indexer's similarity transform expects.
func NewChromaStore(ctx context.Context, serverURL, collection string) (*ChromaStore, error) {
	client, err := chromago.NewHTTPClient(chromago.WithBaseURL(serverURL))
	if err != nil {
		return nil, fmt.Errorf("failed to create chroma client: %w", err)
	}

	log.Printf("STORE: Getting or creating collection '%s' using v2 API...", collection)
	col, err := client.GetOrCreateCollection(
		ctx,
		collection,
		chromago.WithCollectionMetadataCreate(
			chromago.NewMetadata(
				chromago.NewStringAttribute("hnsw:space", "cosine"),
				chromago.NewStringAttribute("created_by", "keep_indexer"),
			),
		),
	)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to get or create collection %s: %w", collection, err)
	}

	return &ChromaStore{client: client, collection: col}, nil
}

// Upsert writes the record through the collection's upsert endpoint, which
// replaces embedding, document and metadata in one call.
func (s *ChromaStore) Upsert(ctx context.Context, rec Record) error {
	if rec.ID == "" {
		return fmt.Errorf("record id must not be empty")
	}
	err := s.collection.Upsert(ctx,
		chromago.WithIDs(chromago.DocumentID(rec.ID)),
		chromago.WithTexts(rec.Document),
		chromago.WithEmbeddings(embeddings.NewEmbeddingFromFloat32(rec.Embedding)),
		chromago.WithMetadatas(attributesFromMap(rec.Metadata)),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert record %s: %w", rec.ID, err)
	}
	return nil
}

// Get retrieves a record by id.
func (s *ChromaStore) Get(ctx context.Context, id string) (Record, bool, error) {
	results, err := s.collection.Get(ctx, chromago.WithIDsGet(chromago.DocumentID(id)))
	if err != nil {
		return Record{}, false, fmt.Errorf("failed to get record %s: %w", id, err)
	}

	ids := results.GetIDs()
	if len(ids) == 0 {
		return Record{}, false, nil
	}

	rec := Record{ID: string(ids[0])}
	if docs := results.GetDocuments(); len(docs) > 0 {
		rec.Document = docs[0].ContentString()
	}
	if metas := results.GetMetadatas(); len(metas) > 0 {
		rec.Metadata = metadataToMap(metas[0])
	}
	return rec, true, nil
}

// Query runs a nearest-neighbor search and maps the first result group back
// to records with cosine distances.
func (s *ChromaStore) Query(ctx context.Context, embedding []float32, n int) ([]Match, error) {
	if n <= 0 {
		return nil, nil
	}
	results, err := s.collection.Query(ctx,
		chromago.WithQueryEmbeddings(embeddings.NewEmbeddingFromFloat32(embedding)),
		chromago.WithNResults(n),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query collection: %w", err)
	}

	idGroups := results.GetIDGroups()
	if len(idGroups) == 0 {
		return nil, nil
	}
	docGroups := results.GetDocumentsGroups()
	metaGroups := results.GetMetadatasGroups()
	distGroups := results.GetDistancesGroups()

	matches := make([]Match, 0, len(idGroups[0]))
	for i, id := range idGroups[0] {
		m := Match{Record: Record{ID: string(id)}}
		if len(docGroups) > 0 && i < len(docGroups[0]) {
			m.Record.Document = docGroups[0][i].ContentString()
		}
		if len(metaGroups) > 0 && i < len(metaGroups[0]) {
			m.Record.Metadata = metadataToMap(metaGroups[0][i])
		}
		if len(distGroups) > 0 && i < len(distGroups[0]) {
			m.Distance = float64(distGroups[0][i])
		}
		matches = append(matches, m)
	}
	return matches, nil
}

// Count returns the number of records in the collection.
func (s *ChromaStore) Count(ctx context.Context) (int, error) {
	count, err := s.collection.Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to count items in collection: %w", err)
	}
	return int(count), nil
}

// GetAll retrieves every record in the collection.
func (s *ChromaStore) GetAll(ctx context.Context) ([]Record, error) {
	results, err := s.collection.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get documents from collection: %w", err)
	}

	ids := results.GetIDs()
	docs := results.GetDocuments()
	metas := results.GetMetadatas()

	records := make([]Record, 0, len(ids))
	for i, id := range ids {
		rec := Record{ID: string(id)}
		if i < len(docs) {
			rec.Document = docs[i].ContentString()
		}
		if i < len(metas) {
			rec.Metadata = metadataToMap(metas[i])
		}
		records = append(records, rec)
	}
	return records, nil
}

// Close releases the underlying HTTP client.
func (s *ChromaStore) Close() error {
	return s.client.Close()
}

// attributesFromMap converts a flat metadata map into chroma attributes.
// Only scalar values are ever stored, per the indexer's metadata contract.
func attributesFromMap(metadata map[string]interface{}) chromago.DocumentMetadata {
	attrs := make([]*chromago.MetaAttribute, 0, len(metadata))
	for key, value := range metadata {
		switch v := value.(type) {
		case string:
			attrs = append(attrs, chromago.NewStringAttribute(key, v))
		case int:
			attrs = append(attrs, chromago.NewIntAttribute(key, int64(v)))
		case int64:
			attrs = append(attrs, chromago.NewIntAttribute(key, v))
		case float64:
			attrs = append(attrs, chromago.NewFloatAttribute(key, v))
		case bool:
			attrs = append(attrs, chromago.NewBoolAttribute(key, v))
		default:
			attrs = append(attrs, chromago.NewStringAttribute(key, fmt.Sprintf("%v", v)))
		}
	}
	return chromago.NewDocumentMetadata(attrs...)
}

// metadataToMap converts chroma document metadata back into a plain map.
// DocumentMetadata has no public accessor for its values, so the conversion
// goes through a JSON round trip.
func metadataToMap(metadata chromago.DocumentMetadata) map[string]interface{} {
	if metadata == nil {
		return nil
	}
	jsonBytes, err := json.Marshal(metadata)
	if err != nil {
		log.Printf("STORE: could not marshal metadata: %v", err)
		return map[string]interface{}{}
	}
	var metaMap map[string]interface{}
	if err := json.Unmarshal(jsonBytes, &metaMap); err != nil {
		log.Printf("STORE: could not unmarshal metadata: %v", err)
		return map[string]interface{}{}
	}
	return metaMap
}
