// Package badgerstore implements vector.Store on BadgerDB. Each record is
// a msgpack value under "img:<id>"; the pinned dimension lives under a
// metadata key written in the same transaction as the first record.
package badgerstore

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"log/slog"
	"time"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/viant/imgvec/vector"
)

var (
	recordPrefix = []byte("img:")
	dimensionKey = []byte("meta:dim")
)

const maxConflictRetries = 5

// Options configures the Badger store.
type Options struct {
	// Dir is the directory for BadgerDB data files. Required unless InMemory.
	Dir string
	// InMemory runs BadgerDB without disk persistence.
	InMemory bool
	// Logger receives badger warnings and errors. Defaults to slog.Default().
	Logger *slog.Logger
}

// Store is a vector.Store backed by BadgerDB.
type Store struct {
	db *badger.DB
}

type entry struct {
	ID        string    `msgpack:"id"`
	Embedding []float32 `msgpack:"embedding"`
	UpdatedAt int64     `msgpack:"updated_at"`
}

// Open opens or creates a Badger store.
func Open(opts Options) (*Store, error) {
	if !opts.InMemory && opts.Dir == "" {
		return nil, errors.New("badgerstore: Dir is required for on-disk mode")
	}
	dbOpts := badger.DefaultOptions(opts.Dir)
	if opts.InMemory {
		dbOpts = badger.DefaultOptions("").WithInMemory(true)
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	dbOpts = dbOpts.WithLogger(badgerLogger{logger: logger.With("component", "badger")})
	db, err := badger.Open(dbOpts)
	if err != nil {
		return nil, vector.Unavailable(fmt.Errorf("badgerstore: open: %w", err))
	}
	return &Store{db: db}, nil
}

func recordKey(id string) []byte {
	return append(append([]byte(nil), recordPrefix...), id...)
}

// Upsert implements vector.Store.
func (s *Store) Upsert(_ context.Context, rec vector.Record) error {
	if err := vector.ValidateRecord(rec); err != nil {
		return err
	}
	value, err := msgpack.Marshal(&entry{ID: rec.ID, Embedding: rec.Embedding, UpdatedAt: time.Now().Unix()})
	if err != nil {
		return fmt.Errorf("badgerstore: marshal %q: %w", rec.ID, err)
	}
	for attempt := 0; ; attempt++ {
		err = s.db.Update(func(txn *badger.Txn) error {
			dim, err := readDimension(txn)
			if err != nil {
				return err
			}
			switch {
			case dim == 0:
				buf := make([]byte, 4)
				binary.BigEndian.PutUint32(buf, uint32(len(rec.Embedding)))
				if err := txn.Set(dimensionKey, buf); err != nil {
					return err
				}
			case dim != len(rec.Embedding):
				return &vector.DimensionMismatchError{ID: rec.ID, Expected: dim, Actual: len(rec.Embedding)}
			}
			return txn.Set(recordKey(rec.ID), value)
		})
		if !errors.Is(err, badger.ErrConflict) || attempt == maxConflictRetries {
			break
		}
	}
	return vector.Unavailable(err)
}

// Get implements vector.Store.
func (s *Store) Get(_ context.Context, id string) (*vector.Record, error) {
	var rec *vector.Record
	err := s.db.View(func(txn *badger.Txn) error {
		dim, err := readDimension(txn)
		if err != nil {
			return err
		}
		item, err := txn.Get(recordKey(id))
		if err != nil {
			return err
		}
		val, err := item.ValueCopy(nil)
		if err != nil {
			return err
		}
		rec, err = decodeEntry(id, val, dim)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, vector.ErrNotFound
	}
	if err != nil {
		return nil, vector.Unavailable(err)
	}
	return rec, nil
}

// LoadAll implements vector.Store. Records come back in key order.
func (s *Store) LoadAll(_ context.Context) (*vector.LoadResult, error) {
	res := &vector.LoadResult{}
	err := s.db.View(func(txn *badger.Txn) error {
		dim, err := readDimension(txn)
		if err != nil {
			return err
		}
		iterOpts := badger.DefaultIteratorOptions
		iterOpts.Prefix = recordPrefix
		it := txn.NewIterator(iterOpts)
		defer it.Close()
		for it.Seek(recordPrefix); it.ValidForPrefix(recordPrefix); it.Next() {
			item := it.Item()
			id := string(item.Key()[len(recordPrefix):])
			val, err := item.ValueCopy(nil)
			if err != nil {
				return err
			}
			rec, err := decodeEntry(id, val, dim)
			if err != nil {
				var cr *vector.CorruptRecordError
				if errors.As(err, &cr) {
					res.Corrupt = append(res.Corrupt, cr)
					continue
				}
				return err
			}
			res.Records = append(res.Records, *rec)
		}
		return nil
	})
	if err != nil {
		return nil, vector.Unavailable(err)
	}
	return res, nil
}

// Dimension implements vector.Store.
func (s *Store) Dimension(_ context.Context) (int, error) {
	var dim int
	err := s.db.View(func(txn *badger.Txn) error {
		var err error
		dim, err = readDimension(txn)
		return err
	})
	return dim, vector.Unavailable(err)
}

// Remove deletes the record for id. Missing records are ignored.
func (s *Store) Remove(_ context.Context, id string) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(recordKey(id))
	})
	return vector.Unavailable(err)
}

// Close implements vector.Store.
func (s *Store) Close() error {
	return s.db.Close()
}

func readDimension(txn *badger.Txn) (int, error) {
	item, err := txn.Get(dimensionKey)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	var dim int
	err = item.Value(func(val []byte) error {
		if len(val) != 4 {
			return fmt.Errorf("badgerstore: invalid dimension metadata (%d bytes)", len(val))
		}
		dim = int(binary.BigEndian.Uint32(val))
		return nil
	})
	return dim, err
}

func decodeEntry(id string, val []byte, dim int) (*vector.Record, error) {
	var e entry
	if err := msgpack.Unmarshal(val, &e); err != nil {
		return nil, vector.NewCorruptRecordError(id, err)
	}
	if len(e.Embedding) == 0 || (dim > 0 && len(e.Embedding) != dim) {
		return nil, vector.NewCorruptRecordError(id, fmt.Errorf("embedding has %d values, want %d", len(e.Embedding), dim))
	}
	return &vector.Record{ID: id, Embedding: e.Embedding}, nil
}

type badgerLogger struct {
	logger *slog.Logger
}

func (l badgerLogger) Errorf(f string, v ...interface{}) { l.logger.Error(fmt.Sprintf(f, v...)) }
func (l badgerLogger) Warningf(f string, v ...interface{}) {
	l.logger.Warn(fmt.Sprintf(f, v...))
}
func (badgerLogger) Infof(string, ...interface{})  {}
func (badgerLogger) Debugf(string, ...interface{}) {}

var _ vector.Store = (*Store)(nil)
