package vector

import (
	"context"
	"errors"
	"testing"
)

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	if err := store.Upsert(ctx, Record{ID: "a", Embedding: []float32{1, 0}}); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}
	if err := store.Upsert(ctx, Record{ID: "b", Embedding: []float32{0, 1}}); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}
	if err := store.Upsert(ctx, Record{ID: "a", Embedding: []float32{0.5, 0.5}}); err != nil {
		t.Fatalf("Upsert replace failed: %v", err)
	}

	var dm *DimensionMismatchError
	if err := store.Upsert(ctx, Record{ID: "c", Embedding: []float32{1}}); !errors.As(err, &dm) {
		t.Fatalf("Upsert wrong dim = %v, want DimensionMismatchError", err)
	}
	if err := store.Upsert(ctx, Record{ID: ""}); !errors.Is(err, ErrInvalidRecord) {
		t.Fatalf("Upsert empty = %v, want ErrInvalidRecord", err)
	}

	res, err := store.LoadAll(ctx)
	if err != nil {
		t.Fatalf("LoadAll failed: %v", err)
	}
	if len(res.Records) != 2 || res.Records[0].ID != "a" || res.Records[0].Embedding[0] != 0.5 {
		t.Fatalf("LoadAll = %+v", res.Records)
	}

	// Returned slices are copies.
	res.Records[0].Embedding[0] = 42
	got, err := store.Get(ctx, "a")
	if err != nil || got.Embedding[0] != 0.5 {
		t.Fatalf("Get(a) = %+v, %v; stored vector was aliased", got, err)
	}
	if _, err := store.Get(ctx, "zzz"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Get(zzz) = %v, want ErrNotFound", err)
	}
	if dim, _ := store.Dimension(ctx); dim != 2 {
		t.Fatalf("Dimension = %d, want 2", dim)
	}
}

func TestMemoryStore_Remove(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	for _, id := range []string{"a", "b", "c"} {
		if err := store.Upsert(ctx, Record{ID: id, Embedding: []float32{1, 0}}); err != nil {
			t.Fatalf("Upsert(%s) failed: %v", id, err)
		}
	}
	if err := store.Remove(ctx, "b"); err != nil {
		t.Fatalf("Remove(b) failed: %v", err)
	}
	if err := store.Remove(ctx, "missing"); err != nil {
		t.Fatalf("Remove(missing) = %v, want nil", err)
	}
	if _, err := store.Get(ctx, "b"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Get after Remove = %v, want ErrNotFound", err)
	}
	res, err := store.LoadAll(ctx)
	if err != nil {
		t.Fatalf("LoadAll failed: %v", err)
	}
	if len(res.Records) != 2 || res.Records[0].ID != "a" || res.Records[1].ID != "c" {
		t.Fatalf("LoadAll after Remove = %+v, want [a c]", res.Records)
	}
	if dim, _ := store.Dimension(ctx); dim != 2 {
		t.Fatalf("Dimension after Remove = %d, want 2", dim)
	}
}
