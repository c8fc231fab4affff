package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) (*BoltStore, string) {
	t.Helper()
	dir := t.TempDir()
	st, err := NewBoltStore("notes", dir)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return st, dir
}

func TestBoltStoreUpsertAndGet(t *testing.T) {
	st, _ := newTestStore(t)
	ctx := context.Background()

	rec := Record{
		ID:        "n1",
		Embedding: []float32{0.1, 0.2, 0.3},
		Document:  "Título: Nota um",
		Metadata:  map[string]interface{}{"title": "Nota um", "notes_count": 2},
	}
	require.NoError(t, st.Upsert(ctx, rec))

	got, found, err := st.Get(ctx, "n1")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "n1", got.ID)
	assert.Equal(t, "Título: Nota um", got.Document)
	assert.Equal(t, "Nota um", got.Metadata["title"])
	// Numbers come back as float64 after the JSON round trip.
	assert.Equal(t, float64(2), got.Metadata["notes_count"])
}

func TestBoltStoreGetMissing(t *testing.T) {
	st, _ := newTestStore(t)

	_, found, err := st.Get(context.Background(), "missing")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestBoltStoreUpsertReplaces(t *testing.T) {
	st, _ := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, st.Upsert(ctx, Record{ID: "n1", Embedding: []float32{1, 0}, Document: "v1"}))
	require.NoError(t, st.Upsert(ctx, Record{ID: "n1", Embedding: []float32{0, 1}, Document: "v2"}))

	count, err := st.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	got, found, err := st.Get(ctx, "n1")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "v2", got.Document)
	assert.Equal(t, []float32{0, 1}, got.Embedding)
}

func TestBoltStoreUpsertEmptyID(t *testing.T) {
	st, _ := newTestStore(t)
	assert.Error(t, st.Upsert(context.Background(), Record{Document: "sem id"}))
}

func TestBoltStoreQueryOrdering(t *testing.T) {
	st, _ := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, st.Upsert(ctx, Record{ID: "exact", Embedding: []float32{1, 0}}))
	require.NoError(t, st.Upsert(ctx, Record{ID: "close", Embedding: []float32{1, 0.5}}))
	require.NoError(t, st.Upsert(ctx, Record{ID: "orthogonal", Embedding: []float32{0, 1}}))

	matches, err := st.Query(ctx, []float32{1, 0}, 3)
	require.NoError(t, err)
	require.Len(t, matches, 3)

	assert.Equal(t, "exact", matches[0].Record.ID)
	assert.Equal(t, "close", matches[1].Record.ID)
	assert.Equal(t, "orthogonal", matches[2].Record.ID)
	assert.LessOrEqual(t, matches[0].Distance, matches[1].Distance)
	assert.LessOrEqual(t, matches[1].Distance, matches[2].Distance)
}

func TestBoltStoreQueryFewerRecordsThanRequested(t *testing.T) {
	st, _ := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, st.Upsert(ctx, Record{ID: "only", Embedding: []float32{1, 1}}))

	matches, err := st.Query(ctx, []float32{1, 0}, 10)
	require.NoError(t, err)
	assert.Len(t, matches, 1)
}

func TestBoltStoreQueryEmptyCollection(t *testing.T) {
	st, _ := newTestStore(t)

	matches, err := st.Query(context.Background(), []float32{1, 0}, 5)
	require.NoError(t, err)
	assert.Empty(t, matches)
}

func TestBoltStoreDurability(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	st, err := NewBoltStore("notes", dir)
	require.NoError(t, err)
	require.NoError(t, st.Upsert(ctx, Record{ID: "n1", Embedding: []float32{1, 2}, Document: "persistida"}))
	require.NoError(t, st.Close())

	// Reopening the same (collection, directory) pair sees the same data.
	reopened, err := NewBoltStore("notes", dir)
	require.NoError(t, err)
	defer reopened.Close()

	got, found, err := reopened.Get(ctx, "n1")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "persistida", got.Document)
}

func TestBoltStoreGetAllStripsEmbeddings(t *testing.T) {
	st, _ := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, st.Upsert(ctx, Record{ID: "a", Embedding: []float32{1}, Document: "A"}))
	require.NoError(t, st.Upsert(ctx, Record{ID: "b", Embedding: []float32{2}, Document: "B"}))

	records, err := st.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, records, 2)
	for _, rec := range records {
		assert.Nil(t, rec.Embedding)
	}
}

func TestBoltStoreSeparateCollections(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	first, err := NewBoltStore("first", dir)
	require.NoError(t, err)
	defer first.Close()
	second, err := NewBoltStore("second", dir)
	require.NoError(t, err)
	defer second.Close()

	require.NoError(t, first.Upsert(ctx, Record{ID: "n1", Embedding: []float32{1}}))

	count, err := second.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}
