package blobstore

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/viant/imgvec/vector"
)

func newLocalStore(t *testing.T, root string, c Compression) *Store {
	t.Helper()
	bucket, err := NewLocalBucket(root)
	require.NoError(t, err)
	s, err := New(context.Background(), bucket, c)
	require.NoError(t, err)
	return s
}

func TestStore_Local(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	s := newLocalStore(t, root, CompressionLZ4)

	require.NoError(t, s.Upsert(ctx, vector.Record{ID: "b c.jpg", Embedding: []float32{0, 1}}))
	require.NoError(t, s.Upsert(ctx, vector.Record{ID: "a.jpg", Embedding: []float32{1, 0}}))
	require.NoError(t, s.Upsert(ctx, vector.Record{ID: "a.jpg", Embedding: []float32{0.6, 0.8}}))

	got, err := s.Get(ctx, "a.jpg")
	require.NoError(t, err)
	assert.Equal(t, []float32{0.6, 0.8}, got.Embedding)

	res, err := s.LoadAll(ctx)
	require.NoError(t, err)
	require.Len(t, res.Records, 2)
	assert.Equal(t, "a.jpg", res.Records[0].ID)
	assert.Equal(t, "b c.jpg", res.Records[1].ID)

	var dm *vector.DimensionMismatchError
	assert.ErrorAs(t, s.Upsert(ctx, vector.Record{ID: "c.jpg", Embedding: []float32{1, 2, 3}}), &dm)

	_, err = s.Get(ctx, "missing.jpg")
	assert.ErrorIs(t, err, vector.ErrNotFound)

	// Pinned dimension survives a reopen.
	reopened := newLocalStore(t, root, CompressionNone)
	dim, err := reopened.Dimension(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, dim)
	res, err = reopened.LoadAll(ctx)
	require.NoError(t, err)
	assert.Len(t, res.Records, 2)

	require.NoError(t, reopened.Remove(ctx, "b c.jpg"))
	_, err = reopened.Get(ctx, "b c.jpg")
	assert.ErrorIs(t, err, vector.ErrNotFound)
}

func TestStore_CorruptBlobSkipped(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	s := newLocalStore(t, root, CompressionZSTD)

	require.NoError(t, s.Upsert(ctx, vector.Record{ID: "good.jpg", Embedding: []float32{1, 0}}))
	require.NoError(t, os.WriteFile(filepath.Join(root, "vectors", "bad.jpg.ivec"), []byte("IVEC\x01\x00"), 0o644))
	wrongDim, err := Encode([]float32{1, 2, 3}, CompressionNone)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(root, "vectors", "odd.jpg.ivec"), wrongDim, 0o644))
	huge := forgeDim(wrongDim, CompressionLZ4, math.MaxUint32)
	require.NoError(t, os.WriteFile(filepath.Join(root, "vectors", "huge.jpg.ivec"), huge, 0o644))

	res, err := s.LoadAll(ctx)
	require.NoError(t, err)
	require.Len(t, res.Records, 1)
	assert.Equal(t, "good.jpg", res.Records[0].ID)
	require.Len(t, res.Corrupt, 3)
	assert.Equal(t, "bad.jpg", res.Corrupt[0].ID)
	assert.Equal(t, "huge.jpg", res.Corrupt[1].ID)
	assert.Equal(t, "odd.jpg", res.Corrupt[2].ID)
}

func TestStore_EmptyBucket(t *testing.T) {
	s := newLocalStore(t, t.TempDir(), CompressionNone)
	res, err := s.LoadAll(context.Background())
	require.NoError(t, err)
	assert.Empty(t, res.Records)
	dim, err := s.Dimension(context.Background())
	require.NoError(t, err)
	assert.Zero(t, dim)
}
