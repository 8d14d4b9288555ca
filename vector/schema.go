package vector

import (
	"context"
	"database/sql"
)

const imagesSchema = `
CREATE TABLE IF NOT EXISTS images (
    id         TEXT PRIMARY KEY,
    embedding  BLOB NOT NULL,
    created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`

// EnsureSchema creates the images table in the provided database if it does
// not already exist.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, imagesSchema)
	return err
}
