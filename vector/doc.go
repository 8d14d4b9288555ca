// Package vector defines the image vector-store API and its SQLite-backed
// baseline implementation. It includes:
//   - Record model, Store interface and LoadResult
//   - SQLiteStore: durable storage of one embedding per image identifier
//   - MemoryStore: process-local store for tests and throwaway runs
//   - Schema helpers to create the images table
//   - Embedding encoding (BLOB) and distance functions
//
// Other backends live in the badgerstore, blobstore and qdrantstore
// subpackages; they share the errors and dimension rules defined here.
package vector
