package qdrantstore

import (
	"context"
	"fmt"
	"testing"
	"time"

	qdrant "github.com/qdrant/go-client/qdrant"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/viant/imgvec/vector"
)

func TestPointID(t *testing.T) {
	assert.Equal(t, PointID("a.jpg"), PointID("a.jpg"))
	assert.NotEqual(t, PointID("a.jpg"), PointID("b.jpg"))
}

func TestDenseVector(t *testing.T) {
	out := &qdrant.VectorsOutput{VectorsOptions: &qdrant.VectorsOutput_Vector{
		Vector: &qdrant.VectorOutput{Vector: &qdrant.VectorOutput_Dense{Dense: &qdrant.DenseVector{Data: []float32{1, 2}}}},
	}}
	assert.Equal(t, []float32{1, 2}, denseVector(out))
	assert.Empty(t, denseVector(nil))
}

// racedCollections reports the collection as created by another writer
// with a fixed vector size.
type racedCollections struct {
	qdrant.CollectionsClient
	size uint64
}

func (c *racedCollections) Create(context.Context, *qdrant.CreateCollection, ...grpc.CallOption) (*qdrant.CollectionOperationResponse, error) {
	return nil, status.Error(codes.AlreadyExists, "collection already exists")
}

func (c *racedCollections) CollectionExists(context.Context, *qdrant.CollectionExistsRequest, ...grpc.CallOption) (*qdrant.CollectionExistsResponse, error) {
	return &qdrant.CollectionExistsResponse{Result: &qdrant.CollectionExists{Exists: true}}, nil
}

func (c *racedCollections) Get(context.Context, *qdrant.GetCollectionInfoRequest, ...grpc.CallOption) (*qdrant.GetCollectionInfoResponse, error) {
	return &qdrant.GetCollectionInfoResponse{Result: &qdrant.CollectionInfo{
		Config: &qdrant.CollectionConfig{Params: &qdrant.CollectionParams{
			VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{Size: c.size, Distance: qdrant.Distance_Cosine}),
		}},
	}}, nil
}

func TestEnsureCollection_AlreadyExists(t *testing.T) {
	ctx := context.Background()
	s := &Store{collections: &racedCollections{size: 4}, collection: "images"}

	var dm *vector.DimensionMismatchError
	err := s.ensureCollection(ctx, vector.Record{ID: "a.jpg", Embedding: []float32{1, 0}})
	require.ErrorAs(t, err, &dm)
	assert.Equal(t, 4, dm.Expected)
	assert.Equal(t, 2, dm.Actual)
	assert.Equal(t, 4, s.Pinned(), "collection size wins")

	require.NoError(t, s.ensureCollection(ctx, vector.Record{ID: "b.jpg", Embedding: []float32{1, 0, 0, 0}}))
}

// TestStore_Integration requires a running Qdrant instance on localhost:6334.
func TestStore_Integration(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	collection := fmt.Sprintf("imgvec_test_%d", time.Now().UnixNano())
	s, err := Open(ctx, Options{Addr: "localhost:6334", Collection: collection})
	if err != nil {
		t.Skipf("Qdrant not available: %v", err)
	}
	defer func() {
		_, _ = s.collections.Delete(context.Background(), &qdrant.DeleteCollection{CollectionName: collection})
		_ = s.Close()
	}()

	res, err := s.LoadAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, res.Records)

	require.NoError(t, s.Upsert(ctx, vector.Record{ID: "a.jpg", Embedding: []float32{1, 0, 0}}))
	require.NoError(t, s.Upsert(ctx, vector.Record{ID: "b.jpg", Embedding: []float32{0, 1, 0}}))
	require.NoError(t, s.Upsert(ctx, vector.Record{ID: "a.jpg", Embedding: []float32{1, 0, 0}}))

	var dm *vector.DimensionMismatchError
	assert.ErrorAs(t, s.Upsert(ctx, vector.Record{ID: "c.jpg", Embedding: []float32{1}}), &dm)

	got, err := s.Get(ctx, "b.jpg")
	require.NoError(t, err)
	assert.Equal(t, []float32{0, 1, 0}, got.Embedding)

	_, err = s.Get(ctx, "missing.jpg")
	assert.ErrorIs(t, err, vector.ErrNotFound)

	res, err = s.LoadAll(ctx)
	require.NoError(t, err)
	assert.Len(t, res.Records, 2)
}
