package engine

import (
	"database/sql"
	"fmt"
	"net/url"
	"strings"

	_ "modernc.org/sqlite" // register pure-Go SQLite driver
)

// MemoryDSN is the DSN of a private in-memory database.
const MemoryDSN = ":memory:"

// Open opens a SQLite database using the modernc.org/sqlite driver. Vector
// functions are registered before the first connection is made so every
// connection of the returned pool can use them.
//
// For file-based databases prefer OpenFile, which sets journal and locking
// pragmas. For in-memory databases, pass ":memory:"; the pool is then pinned
// to a single connection, since every SQLite connection to ":memory:" sees
// its own empty database.
func Open(dsn string) (*sql.DB, error) {
	if err := RegisterVectorFunctions(nil); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	if dsn == MemoryDSN || strings.Contains(dsn, "mode=memory") {
		db.SetMaxOpenConns(1)
	}
	return db, nil
}

// OpenFile opens a file-backed database with WAL journaling, a busy timeout
// and immediate write transactions, so concurrent upserts queue instead of
// failing with SQLITE_BUSY.
func OpenFile(path string) (*sql.DB, error) {
	if path == "" {
		return nil, fmt.Errorf("engine: empty database path")
	}
	if path == MemoryDSN {
		return Open(path)
	}
	return Open(FileDSN(path))
}

// FileDSN builds the DSN used by OpenFile.
func FileDSN(path string) string {
	q := url.Values{}
	q.Add("_pragma", "journal_mode(WAL)")
	q.Add("_pragma", "busy_timeout(5000)")
	q.Add("_pragma", "synchronous(NORMAL)")
	q.Set("_txlock", "immediate")
	return "file:" + path + "?" + q.Encode()
}
