package blobstore

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"

	"github.com/viant/imgvec/vector"
)

const (
	vectorsPrefix = "vectors/"
	blobSuffix    = ".ivec"
	dimensionBlob = "meta/dimension"
)

// Store is a vector.Store keeping one blob per identifier.
type Store struct {
	bucket      Bucket
	compression Compression

	// mu serializes the dimension check with the first write.
	mu  sync.Mutex
	dim int
}

// New returns a Store over bucket, reading the pinned dimension if one was
// recorded earlier.
func New(ctx context.Context, bucket Bucket, c Compression) (*Store, error) {
	s := &Store{bucket: bucket, compression: c}
	data, err := bucket.Get(ctx, dimensionBlob)
	switch {
	case errors.Is(err, vector.ErrNotFound):
	case err != nil:
		return nil, vector.Unavailable(fmt.Errorf("blobstore: read dimension: %w", err))
	case len(data) != 4:
		return nil, fmt.Errorf("blobstore: invalid dimension metadata (%d bytes)", len(data))
	default:
		s.dim = int(binary.LittleEndian.Uint32(data))
	}
	return s, nil
}

func blobName(id string) string {
	return vectorsPrefix + url.PathEscape(id) + blobSuffix
}

func idFromBlob(name string) (string, bool) {
	if !strings.HasPrefix(name, vectorsPrefix) || !strings.HasSuffix(name, blobSuffix) {
		return "", false
	}
	id, err := url.PathUnescape(strings.TrimSuffix(strings.TrimPrefix(name, vectorsPrefix), blobSuffix))
	if err != nil {
		return "", false
	}
	return id, true
}

// Upsert implements vector.Store.
func (s *Store) Upsert(ctx context.Context, rec vector.Record) error {
	if err := vector.ValidateRecord(rec); err != nil {
		return err
	}
	data, err := Encode(rec.Embedding, s.compression)
	if err != nil {
		return err
	}
	s.mu.Lock()
	if s.dim == 0 {
		buf := make([]byte, 4)
		binary.LittleEndian.PutUint32(buf, uint32(len(rec.Embedding)))
		if err := s.bucket.Put(ctx, dimensionBlob, buf); err != nil {
			s.mu.Unlock()
			return vector.Unavailable(fmt.Errorf("blobstore: write dimension: %w", err))
		}
		s.dim = len(rec.Embedding)
	}
	dim := s.dim
	s.mu.Unlock()
	if dim != len(rec.Embedding) {
		return &vector.DimensionMismatchError{ID: rec.ID, Expected: dim, Actual: len(rec.Embedding)}
	}
	if err := s.bucket.Put(ctx, blobName(rec.ID), data); err != nil {
		return vector.Unavailable(fmt.Errorf("blobstore: put %q: %w", rec.ID, err))
	}
	return nil
}

// Get implements vector.Store.
func (s *Store) Get(ctx context.Context, id string) (*vector.Record, error) {
	data, err := s.bucket.Get(ctx, blobName(id))
	if err != nil {
		return nil, vector.Unavailable(err)
	}
	return s.decode(id, data)
}

func (s *Store) decode(id string, data []byte) (*vector.Record, error) {
	emb, err := Decode(data)
	if err != nil {
		return nil, vector.NewCorruptRecordError(id, err)
	}
	if dim := s.pinned(); dim > 0 && len(emb) != dim {
		return nil, vector.NewCorruptRecordError(id, fmt.Errorf("embedding has %d values, want %d", len(emb), dim))
	}
	return &vector.Record{ID: id, Embedding: emb}, nil
}

func (s *Store) pinned() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dim
}

// LoadAll implements vector.Store. Records come back in blob name order.
func (s *Store) LoadAll(ctx context.Context) (*vector.LoadResult, error) {
	names, err := s.bucket.List(ctx, vectorsPrefix)
	if err != nil {
		return nil, vector.Unavailable(fmt.Errorf("blobstore: list: %w", err))
	}
	res := &vector.LoadResult{Records: make([]vector.Record, 0, len(names))}
	for _, name := range names {
		id, ok := idFromBlob(name)
		if !ok {
			continue
		}
		data, err := s.bucket.Get(ctx, name)
		if errors.Is(err, vector.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, vector.Unavailable(fmt.Errorf("blobstore: get %q: %w", id, err))
		}
		rec, err := s.decode(id, data)
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
	return res, nil
}

// Dimension implements vector.Store.
func (s *Store) Dimension(_ context.Context) (int, error) {
	return s.pinned(), nil
}

// Remove deletes the blob for id.
func (s *Store) Remove(ctx context.Context, id string) error {
	return vector.Unavailable(s.bucket.Delete(ctx, blobName(id)))
}

// Close implements vector.Store.
func (s *Store) Close() error { return nil }

var _ vector.Store = (*Store)(nil)
