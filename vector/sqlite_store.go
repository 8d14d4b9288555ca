package vector

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// SQLiteStore is a Store backed by a SQLite database opened with
// engine.Open or engine.OpenFile. Each image is one row of the images table;
// LoadAll returns rows in rowid order, which is first-insertion order since
// upserts update rows in place.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates a new SQLite-backed Store. It checks the database
// is reachable and ensures the images schema exists. The database must have
// been opened through the engine package so that vec_dim is registered.
func NewSQLiteStore(ctx context.Context, db *sql.DB) (*SQLiteStore, error) {
	if db == nil {
		return nil, fmt.Errorf("vector: db is nil")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if err := db.PingContext(ctx); err != nil {
		return nil, Unavailable(err)
	}
	if err := EnsureSchema(ctx, db); err != nil {
		return nil, Unavailable(err)
	}
	return &SQLiteStore{db: db}, nil
}

const pinnedDimensionQuery = `SELECT vec_dim(embedding) FROM images WHERE vec_dim(embedding) > 0 ORDER BY rowid LIMIT 1`

// Upsert inserts or replaces the record for rec.ID. The dimension check and
// the write share one transaction so concurrent first writes cannot pin two
// different dimensions.
func (s *SQLiteStore) Upsert(ctx context.Context, rec Record) error {
	if err := ValidateRecord(rec); err != nil {
		return err
	}
	if ctx == nil {
		ctx = context.Background()
	}
	blob, err := EncodeEmbedding(rec.Embedding)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Unavailable(err)
	}
	defer func() { _ = tx.Rollback() }()

	var dim int
	switch err := tx.QueryRowContext(ctx, pinnedDimensionQuery).Scan(&dim); {
	case errors.Is(err, sql.ErrNoRows):
	case err != nil:
		return Unavailable(err)
	case dim != len(rec.Embedding):
		return &DimensionMismatchError{ID: rec.ID, Expected: dim, Actual: len(rec.Embedding)}
	}

	if _, err := tx.ExecContext(ctx, `
INSERT INTO images(id, embedding) VALUES (?, ?)
ON CONFLICT(id) DO UPDATE SET
  embedding = excluded.embedding,
  updated_at = CURRENT_TIMESTAMP`, rec.ID, blob); err != nil {
		return Unavailable(err)
	}
	if err := tx.Commit(); err != nil {
		return Unavailable(err)
	}
	return nil
}

// Get returns the record stored under id.
func (s *SQLiteStore) Get(ctx context.Context, id string) (*Record, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: empty id", ErrInvalidRecord)
	}
	if ctx == nil {
		ctx = context.Background()
	}
	var blob []byte
	err := s.db.QueryRowContext(ctx, `SELECT embedding FROM images WHERE id = ?`, id).Scan(&blob)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, Unavailable(err)
	}
	dim, err := s.Dimension(ctx)
	if err != nil {
		return nil, err
	}
	vec, err := DecodeEmbeddingDim(blob, dim)
	if err != nil {
		return nil, NewCorruptRecordError(id, err)
	}
	return &Record{ID: id, Embedding: vec}, nil
}

// LoadAll scans the images table. Rows whose embedding cannot be decoded or
// does not match the pinned dimension are reported in LoadResult.Corrupt.
func (s *SQLiteStore) LoadAll(ctx context.Context) (*LoadResult, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	rows, err := s.db.QueryContext(ctx, `SELECT id, embedding FROM images ORDER BY rowid`)
	if err != nil {
		return nil, Unavailable(err)
	}
	defer rows.Close()

	out := &LoadResult{}
	dim := 0
	for rows.Next() {
		var id string
		var blob []byte
		if err := rows.Scan(&id, &blob); err != nil {
			return nil, Unavailable(err)
		}
		vec, err := DecodeEmbeddingDim(blob, dim)
		if err != nil {
			out.Corrupt = append(out.Corrupt, NewCorruptRecordError(id, err))
			continue
		}
		if dim == 0 {
			dim = len(vec)
		}
		out.Records = append(out.Records, Record{ID: id, Embedding: vec})
	}
	if err := rows.Err(); err != nil {
		return nil, Unavailable(err)
	}
	return out, nil
}

// Dimension returns the dimension pinned by the oldest decodable row.
func (s *SQLiteStore) Dimension(ctx context.Context) (int, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	var dim int
	err := s.db.QueryRowContext(ctx, pinnedDimensionQuery).Scan(&dim)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, Unavailable(err)
	}
	return dim, nil
}

// Remove deletes a record by id. Removing a missing id is not an error.
func (s *SQLiteStore) Remove(ctx context.Context, id string) error {
	if id == "" {
		return fmt.Errorf("vector: Remove called with empty id")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	_, err := s.db.ExecContext(ctx, `DELETE FROM images WHERE id = ?`, id)
	return Unavailable(err)
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Ensure SQLiteStore satisfies the Store interface.
var _ Store = (*SQLiteStore)(nil)
