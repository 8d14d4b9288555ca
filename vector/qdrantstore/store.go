// Package qdrantstore implements vector.Store on a Qdrant collection over
// gRPC. Point ids are name-based UUIDs of the image identifier; the
// identifier itself is kept in the point payload. The collection's vector
// size is the pinned dimension and is fixed when the first record is written.
package qdrantstore

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	qdrant "github.com/qdrant/go-client/qdrant"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/proto"

	"github.com/viant/imgvec/vector"
)

const (
	payloadID = "image_id"
	pageSize  = 256
)

// Namespace seeds the name-based point ids.
var Namespace = uuid.MustParse("6f1d2c1e-8a4b-4c53-9a0e-0b8f1c3d5e7a")

// Options configures the Qdrant connection.
type Options struct {
	// Addr is the gRPC address, e.g. localhost:6334.
	Addr       string
	Collection string
}

// Store is a vector.Store backed by a Qdrant collection.
type Store struct {
	conn        *grpc.ClientConn
	points      qdrant.PointsClient
	collections qdrant.CollectionsClient
	collection  string

	mu  sync.Mutex
	dim int
}

// Open connects to Qdrant and reads the collection's vector size if the
// collection already exists.
func Open(ctx context.Context, opts Options) (*Store, error) {
	if opts.Collection == "" {
		return nil, errors.New("qdrantstore: collection is required")
	}
	conn, err := grpc.NewClient(opts.Addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, vector.Unavailable(fmt.Errorf("qdrantstore: connect: %w", err))
	}
	s := &Store{
		conn:        conn,
		points:      qdrant.NewPointsClient(conn),
		collections: qdrant.NewCollectionsClient(conn),
		collection:  opts.Collection,
	}
	if err := s.loadDimension(ctx); err != nil {
		conn.Close()
		return nil, err
	}
	return s, nil
}

// PointID returns the Qdrant point id of an image identifier.
func PointID(id string) string {
	return uuid.NewSHA1(Namespace, []byte(id)).String()
}

func (s *Store) loadDimension(ctx context.Context) error {
	size, err := s.collectionSize(ctx)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.dim = size
	s.mu.Unlock()
	return nil
}

// collectionSize returns the collection's vector size, or 0 when the
// collection does not exist.
func (s *Store) collectionSize(ctx context.Context) (int, error) {
	exists, err := s.collections.CollectionExists(ctx, &qdrant.CollectionExistsRequest{CollectionName: s.collection})
	if err != nil {
		return 0, vector.Unavailable(fmt.Errorf("qdrantstore: collection exists: %w", err))
	}
	if !exists.GetResult().GetExists() {
		return 0, nil
	}
	info, err := s.collections.Get(ctx, &qdrant.GetCollectionInfoRequest{CollectionName: s.collection})
	if err != nil {
		return 0, vector.Unavailable(fmt.Errorf("qdrantstore: collection info: %w", err))
	}
	return int(info.GetResult().GetConfig().GetParams().GetVectorsConfig().GetParams().GetSize()), nil
}

// ensureCollection pins the dimension, creating the collection on first use.
// A collection created concurrently by another writer keeps its own size.
func (s *Store) ensureCollection(ctx context.Context, rec vector.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.dim == 0 {
		_, err := s.collections.Create(ctx, &qdrant.CreateCollection{
			CollectionName: s.collection,
			VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
				Size:     uint64(len(rec.Embedding)),
				Distance: qdrant.Distance_Cosine,
			}),
		})
		switch {
		case err == nil:
			s.dim = len(rec.Embedding)
		case status.Code(err) == codes.AlreadyExists:
			size, err := s.collectionSize(ctx)
			if err != nil {
				return err
			}
			if size == 0 {
				return vector.Unavailable(fmt.Errorf("qdrantstore: collection %s exists without a vector size", s.collection))
			}
			s.dim = size
		default:
			return vector.Unavailable(fmt.Errorf("qdrantstore: create collection: %w", err))
		}
	}
	if s.dim != len(rec.Embedding) {
		return &vector.DimensionMismatchError{ID: rec.ID, Expected: s.dim, Actual: len(rec.Embedding)}
	}
	return nil
}

// Upsert implements vector.Store.
func (s *Store) Upsert(ctx context.Context, rec vector.Record) error {
	if err := vector.ValidateRecord(rec); err != nil {
		return err
	}
	if err := s.ensureCollection(ctx, rec); err != nil {
		return err
	}
	_, err := s.points.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: s.collection,
		Points: []*qdrant.PointStruct{{
			Id:      &qdrant.PointId{PointIdOptions: &qdrant.PointId_Uuid{Uuid: PointID(rec.ID)}},
			Vectors: qdrant.NewVectorsDense(rec.Embedding),
			Payload: map[string]*qdrant.Value{
				payloadID: {Kind: &qdrant.Value_StringValue{StringValue: rec.ID}},
			},
		}},
		Wait: proto.Bool(true),
	})
	if err != nil {
		return vector.Unavailable(fmt.Errorf("qdrantstore: upsert %q: %w", rec.ID, err))
	}
	return nil
}

// Get implements vector.Store.
func (s *Store) Get(ctx context.Context, id string) (*vector.Record, error) {
	if s.Pinned() == 0 {
		return nil, vector.ErrNotFound
	}
	resp, err := s.points.Get(ctx, &qdrant.GetPoints{
		CollectionName: s.collection,
		Ids:            []*qdrant.PointId{qdrant.NewIDUUID(PointID(id))},
		WithPayload:    qdrant.NewWithPayload(true),
		WithVectors:    qdrant.NewWithVectors(true),
	})
	if err != nil {
		return nil, vector.Unavailable(fmt.Errorf("qdrantstore: get %q: %w", id, err))
	}
	if len(resp.GetResult()) == 0 {
		return nil, vector.ErrNotFound
	}
	return s.toRecord(resp.GetResult()[0])
}

// LoadAll implements vector.Store. Records come back in scroll (point id)
// order.
func (s *Store) LoadAll(ctx context.Context) (*vector.LoadResult, error) {
	res := &vector.LoadResult{}
	if s.Pinned() == 0 {
		return res, nil
	}
	var offset *qdrant.PointId
	for {
		page, err := s.points.Scroll(ctx, &qdrant.ScrollPoints{
			CollectionName: s.collection,
			Offset:         offset,
			Limit:          proto.Uint32(pageSize),
			WithPayload:    qdrant.NewWithPayload(true),
			WithVectors:    qdrant.NewWithVectors(true),
		})
		if err != nil {
			return nil, vector.Unavailable(fmt.Errorf("qdrantstore: scroll: %w", err))
		}
		for _, point := range page.GetResult() {
			rec, err := s.toRecord(point)
			if err != nil {
				var cr *vector.CorruptRecordError
				if errors.As(err, &cr) {
					res.Corrupt = append(res.Corrupt, cr)
					continue
				}
				return nil, err
			}
			res.Records = append(res.Records, *rec)
		}
		offset = page.GetNextPageOffset()
		if offset == nil {
			return res, nil
		}
	}
}

func (s *Store) toRecord(point *qdrant.RetrievedPoint) (*vector.Record, error) {
	id := point.GetPayload()[payloadID].GetStringValue()
	if id == "" {
		id = point.GetId().GetUuid()
		return nil, vector.NewCorruptRecordError(id, errors.New("missing image id payload"))
	}
	emb := denseVector(point.GetVectors())
	if dim := s.Pinned(); len(emb) == 0 || len(emb) != dim {
		return nil, vector.NewCorruptRecordError(id, fmt.Errorf("embedding has %d values, want %d", len(emb), dim))
	}
	return &vector.Record{ID: id, Embedding: emb}, nil
}

func denseVector(v *qdrant.VectorsOutput) []float32 {
	out := v.GetVector()
	if dense := out.GetDense(); dense != nil {
		return dense.GetData()
	}
	return out.GetData()
}

// Pinned returns the collection's vector size, 0 before the first write.
func (s *Store) Pinned() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dim
}

// Dimension implements vector.Store.
func (s *Store) Dimension(_ context.Context) (int, error) {
	return s.Pinned(), nil
}

// Remove deletes the point for id.
func (s *Store) Remove(ctx context.Context, id string) error {
	if s.Pinned() == 0 {
		return nil
	}
	_, err := s.points.Delete(ctx, &qdrant.DeletePoints{
		CollectionName: s.collection,
		Points:         qdrant.NewPointsSelector(qdrant.NewIDUUID(PointID(id))),
		Wait:           proto.Bool(true),
	})
	return vector.Unavailable(err)
}

// Close implements vector.Store.
func (s *Store) Close() error {
	return s.conn.Close()
}

var _ vector.Store = (*Store)(nil)
