package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"go.etcd.io/bbolt"
)

const (
	recordsBucket    = "records"
	collectionBucket = "collection"
	metaKeyDistance  = "distance"
	distanceCosine   = "cosine"
)

// BoltStore is the default embedded collection store. Each collection lives
// in its own BoltDB file under the persist directory, so the same
// (collection, directory) pair always resolves to the same durable state.
// Concurrent access from separate processes is serialized by BoltDB's own
// file lock; each Upsert/Query runs in a single transaction.
type BoltStore struct {
	db         *bbolt.DB
	collection string
	path       string
}

// NewBoltStore opens or creates the collection at
// <persistDir>/<collection>.db. The distance metric is recorded at creation
// time and opening an existing collection with a different metric fails.
func NewBoltStore(collection, persistDir string) (*BoltStore, error) {
	if err := os.MkdirAll(persistDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create persist directory %s: %w", persistDir, err)
	}

	path := filepath.Join(persistDir, collection+".db")
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open collection store at %s: %w", path, err)
	}

	s := &BoltStore{db: db, collection: collection, path: path}
	if err := s.initBuckets(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize collection %s: %w", collection, err)
	}
	return s, nil
}

// initBuckets creates the required buckets and pins the distance metric.
func (s *BoltStore) initBuckets() error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists([]byte(recordsBucket)); err != nil {
			return fmt.Errorf("failed to create records bucket: %w", err)
		}
		meta, err := tx.CreateBucketIfNotExists([]byte(collectionBucket))
		if err != nil {
			return fmt.Errorf("failed to create collection bucket: %w", err)
		}
		existing := meta.Get([]byte(metaKeyDistance))
		if existing == nil {
			return meta.Put([]byte(metaKeyDistance), []byte(distanceCosine))
		}
		if string(existing) != distanceCosine {
			return fmt.Errorf("collection %s was created with distance %q; recreate it to change the metric", s.collection, existing)
		}
		return nil
	})
}

// Upsert stores the record under its id, replacing any previous version in
// the same transaction.
func (s *BoltStore) Upsert(ctx context.Context, rec Record) error {
	if rec.ID == "" {
		return fmt.Errorf("record id must not be empty")
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal record %s: %w", rec.ID, err)
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(recordsBucket)).Put([]byte(rec.ID), data)
	})
}

// Get retrieves a record by id.
func (s *BoltStore) Get(ctx context.Context, id string) (Record, bool, error) {
	var rec Record
	found := false
	err := s.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket([]byte(recordsBucket)).Get([]byte(id))
		if data == nil {
			return nil
		}
		if err := json.Unmarshal(data, &rec); err != nil {
			return fmt.Errorf("failed to unmarshal record %s: %w", id, err)
		}
		found = true
		return nil
	})
	return rec, found, err
}

// Query scans the collection and returns the n nearest records by cosine
// distance. A flat scan is deliberate: collections here hold personal
// notes, not web-scale corpora.
func (s *BoltStore) Query(ctx context.Context, embedding []float32, n int) ([]Match, error) {
	if n <= 0 {
		return nil, nil
	}

	var matches []Match
	err := s.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(recordsBucket)).ForEach(func(k, v []byte) error {
			var rec Record
			if err := json.Unmarshal(v, &rec); err != nil {
				return fmt.Errorf("failed to unmarshal record %s: %w", k, err)
			}
			dist, err := CosineDistance(embedding, rec.Embedding)
			if err != nil {
				return fmt.Errorf("record %s: %w", rec.ID, err)
			}
			matches = append(matches, Match{Record: rec, Distance: dist})
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Distance < matches[j].Distance
	})
	if len(matches) > n {
		matches = matches[:n]
	}
	return matches, nil
}

// Count returns the number of stored records.
func (s *BoltStore) Count(ctx context.Context) (int, error) {
	count := 0
	err := s.db.View(func(tx *bbolt.Tx) error {
		count = tx.Bucket([]byte(recordsBucket)).Stats().KeyN
		return nil
	})
	return count, err
}

// GetAll returns every record, embeddings stripped.
func (s *BoltStore) GetAll(ctx context.Context) ([]Record, error) {
	var records []Record
	err := s.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(recordsBucket)).ForEach(func(k, v []byte) error {
			var rec Record
			if err := json.Unmarshal(v, &rec); err != nil {
				return fmt.Errorf("failed to unmarshal record %s: %w", k, err)
			}
			rec.Embedding = nil
			records = append(records, rec)
			return nil
		})
	})
	return records, err
}

// Close releases the underlying database file.
func (s *BoltStore) Close() error {
	return s.db.Close()
}
