// Package blobstore implements vector.Store as one blob per image
// identifier. Blobs live in a Bucket: a local directory, a MinIO bucket or
// an S3 bucket. Each blob carries a small header and an optionally
// compressed little-endian float32 payload:
//
//	"IVEC" | version u8 | compression u8 | dim u32 | payload
//
// The pinned dimension is kept in a separate metadata blob.
package blobstore
