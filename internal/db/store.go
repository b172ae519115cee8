package db

import "context"

// Store is the persistence contract for the document record store. It keeps
// opaque record payloads keyed by document id plus a single manifest blob
// describing the index layout (schema version, vector dimension, document
// count) for startup validation. Indexes themselves are never persisted; they
// are rebuilt from the records on process start.
type Store interface {
	// PutRecord stores or replaces the payload for id.
	PutRecord(ctx context.Context, id string, payload []byte) error
	// GetRecord returns the payload for id, or domain.ErrDocumentNotFound.
	GetRecord(ctx context.Context, id string) ([]byte, error)
	// DeleteRecord removes the payload for id. Deleting an unknown id is not
	// an error.
	DeleteRecord(ctx context.Context, id string) error
	// EachRecord calls fn for every stored record. Iteration stops on the
	// first error, which is returned.
	EachRecord(ctx context.Context, fn func(id string, payload []byte) error) error
	// CountRecords returns the number of stored records.
	CountRecords(ctx context.Context) (int, error)

	// PutManifest stores the index manifest blob.
	PutManifest(ctx context.Context, payload []byte) error
	// GetManifest returns the manifest blob, or nil when none was written yet.
	GetManifest(ctx context.Context) ([]byte, error)

	// PutBlob stores an auxiliary blob under key (embedding cache and the
	// like). Keys live in a namespace separate from records.
	PutBlob(ctx context.Context, key string, payload []byte) error
	// GetBlob returns the blob for key, or nil when absent.
	GetBlob(ctx context.Context, key string) ([]byte, error)

	// Close releases the underlying database.
	Close() error
}
