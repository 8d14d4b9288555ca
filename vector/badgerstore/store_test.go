package badgerstore

import (
	"context"
	"testing"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/viant/imgvec/vector"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(Options{InMemory: true})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestStore_UpsertGetLoadAll(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	require.NoError(t, s.Upsert(ctx, vector.Record{ID: "b.jpg", Embedding: []float32{0, 1, 0.5}}))
	require.NoError(t, s.Upsert(ctx, vector.Record{ID: "a.jpg", Embedding: []float32{1, 0, 0.25}}))
	require.NoError(t, s.Upsert(ctx, vector.Record{ID: "a.jpg", Embedding: []float32{1, 0, 0.25}}))

	got, err := s.Get(ctx, "a.jpg")
	require.NoError(t, err)
	assert.Equal(t, []float32{1, 0, 0.25}, got.Embedding)

	res, err := s.LoadAll(ctx)
	require.NoError(t, err)
	require.Len(t, res.Records, 2)
	assert.Equal(t, "a.jpg", res.Records[0].ID, "key order")
	assert.Empty(t, res.Corrupt)

	dim, err := s.Dimension(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, dim)

	_, err = s.Get(ctx, "missing.jpg")
	assert.ErrorIs(t, err, vector.ErrNotFound)

	require.NoError(t, s.Remove(ctx, "b.jpg"))
	_, err = s.Get(ctx, "b.jpg")
	assert.ErrorIs(t, err, vector.ErrNotFound)
}

func TestStore_DimensionMismatch(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	require.NoError(t, s.Upsert(ctx, vector.Record{ID: "a", Embedding: []float32{1, 2}}))
	err := s.Upsert(ctx, vector.Record{ID: "b", Embedding: []float32{1, 2, 3}})
	var dm *vector.DimensionMismatchError
	require.ErrorAs(t, err, &dm)
	assert.Equal(t, 2, dm.Expected)

	_, err = s.Get(ctx, "b")
	assert.ErrorIs(t, err, vector.ErrNotFound)
	assert.ErrorIs(t, s.Upsert(ctx, vector.Record{ID: "c"}), vector.ErrInvalidRecord)
}

func TestStore_CorruptRecordSkipped(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	require.NoError(t, s.Upsert(ctx, vector.Record{ID: "good", Embedding: []float32{1, 0}}))
	require.NoError(t, s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(recordKey("bad"), []byte{0xc1, 0x00})
	}))

	res, err := s.LoadAll(ctx)
	require.NoError(t, err)
	require.Len(t, res.Records, 1)
	require.Len(t, res.Corrupt, 1)
	assert.Equal(t, "bad", res.Corrupt[0].ID)

	var cr *vector.CorruptRecordError
	_, err = s.Get(ctx, "bad")
	assert.ErrorAs(t, err, &cr)
}

func TestStore_PersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	s, err := Open(Options{Dir: dir})
	require.NoError(t, err)
	require.NoError(t, s.Upsert(ctx, vector.Record{ID: "a", Embedding: []float32{0.5, 0.5}}))
	require.NoError(t, s.Close())

	s, err = Open(Options{Dir: dir})
	require.NoError(t, err)
	defer s.Close()
	got, err := s.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, []float32{0.5, 0.5}, got.Embedding)
}

func TestOpen_RequiresDir(t *testing.T) {
	_, err := Open(Options{})
	assert.Error(t, err)
}
