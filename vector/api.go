package vector

import (
	"context"
	"fmt"
	"math"
)

// Record is a stored image feature vector.
type Record struct {
	// ID is the image identifier, derived from the image filename. It is
	// unique within a store and stable across re-extraction.
	ID string

	// Embedding is the fixed-length feature vector of the image.
	Embedding []float32
}

// LoadResult is the outcome of a full scan. Records keeps the backend's
// stable order; records that could not be decoded are skipped and reported
// in Corrupt instead of failing the scan.
type LoadResult struct {
	Records []Record
	Corrupt []*CorruptRecordError
}

// Store defines the image vector store API. Every implementation pins the
// vector dimensionality to the first record written and rejects records of
// another length with *DimensionMismatchError.
type Store interface {
	// Upsert inserts or replaces the record for rec.ID. The write is durable
	// and visible to the caller's next read when Upsert returns.
	Upsert(ctx context.Context, rec Record) error

	// Get returns the record for id, or ErrNotFound.
	Get(ctx context.Context, id string) (*Record, error)

	// LoadAll returns every stored record. The order is stable within a
	// process run.
	LoadAll(ctx context.Context) (*LoadResult, error)

	// Dimension returns the pinned vector length, or 0 for an empty store.
	Dimension(ctx context.Context) (int, error)

	// Close releases backend resources.
	Close() error
}

// ValidateRecord checks the invariants every backend enforces before a
// write: a non-empty identifier and a non-empty, finite embedding.
func ValidateRecord(rec Record) error {
	if rec.ID == "" {
		return fmt.Errorf("%w: empty id", ErrInvalidRecord)
	}
	if len(rec.Embedding) == 0 {
		return fmt.Errorf("%w: empty embedding for %q", ErrInvalidRecord, rec.ID)
	}
	for i, v := range rec.Embedding {
		f := float64(v)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return fmt.Errorf("%w: non-finite value at %d for %q", ErrInvalidRecord, i, rec.ID)
		}
	}
	return nil
}

// Remover is implemented by stores that can delete records. Removing a
// missing id is not an error.
type Remover interface {
	Remove(ctx context.Context, id string) error
}
