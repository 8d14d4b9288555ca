package vector

import (
	"context"
	"sync"
)

// MemoryStore is a process-local Store. Records are kept in insertion
// order; replacing a record keeps its position.
type MemoryStore struct {
	mu    sync.RWMutex
	dim   int
	order []string
	byID  map[string][]float32
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{byID: make(map[string][]float32)}
}

// Upsert implements Store.
func (m *MemoryStore) Upsert(_ context.Context, rec Record) error {
	if err := ValidateRecord(rec); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.dim != 0 && m.dim != len(rec.Embedding) {
		return &DimensionMismatchError{ID: rec.ID, Expected: m.dim, Actual: len(rec.Embedding)}
	}
	if m.dim == 0 {
		m.dim = len(rec.Embedding)
	}
	if _, ok := m.byID[rec.ID]; !ok {
		m.order = append(m.order, rec.ID)
	}
	m.byID[rec.ID] = append([]float32(nil), rec.Embedding...)
	return nil
}

// Get implements Store.
func (m *MemoryStore) Get(_ context.Context, id string) (*Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	emb, ok := m.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &Record{ID: id, Embedding: append([]float32(nil), emb...)}, nil
}

// LoadAll implements Store.
func (m *MemoryStore) LoadAll(_ context.Context) (*LoadResult, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	res := &LoadResult{Records: make([]Record, 0, len(m.order))}
	for _, id := range m.order {
		res.Records = append(res.Records, Record{ID: id, Embedding: append([]float32(nil), m.byID[id]...)})
	}
	return res, nil
}

// Dimension implements Store.
func (m *MemoryStore) Dimension(_ context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.dim, nil
}

// Remove implements Remover. The dimension stays pinned.
func (m *MemoryStore) Remove(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byID[id]; !ok {
		return nil
	}
	delete(m.byID, id)
	for i, v := range m.order {
		if v == id {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	return nil
}

// Len returns the number of stored records.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.order)
}

// Close implements Store.
func (m *MemoryStore) Close() error { return nil }

var (
	_ Store   = (*MemoryStore)(nil)
	_ Remover = (*MemoryStore)(nil)
)
