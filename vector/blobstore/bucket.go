package blobstore

import "context"

// Bucket is a flat namespace of whole-object blobs. Get returns
// vector.ErrNotFound for missing blobs. Put replaces a blob atomically.
type Bucket interface {
	Get(ctx context.Context, name string) ([]byte, error)
	Put(ctx context.Context, name string, data []byte) error
	Delete(ctx context.Context, name string) error
	// List returns the sorted names that start with prefix.
	List(ctx context.Context, prefix string) ([]string, error)
}
