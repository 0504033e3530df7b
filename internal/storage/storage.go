// Package storage provides blob storage for post images.
package storage

import (
	"context"
	"io"
)

// ObjectStore is the interface the upload handlers depend on. The production
// implementation talks to a MinIO / S3-compatible server; tests use a fake.
type ObjectStore interface {
	EnsureBucket(ctx context.Context) error
	Put(ctx context.Context, key, contentType string, r io.Reader, size int64) error
	Remove(ctx context.Context, key string) error
	PublicURL(key string) string
}
