// Package storage persists study artifacts and ledgers behind a flat
// key space, local or S3.
package storage

import (
	"context"
	"errors"
)

// ErrNotFound reports a key with no object behind it, on any backend.
var ErrNotFound = errors.New("storage: key not found")

// BlobStore defines the interface for abstract storage backends.
type BlobStore interface {
	Put(ctx context.Context, key string, data []byte) error
	Get(ctx context.Context, key string) ([]byte, error)
	List(ctx context.Context, prefix string) ([]string, error)
}
