// Package storage defines the blob store contract used by the exporter.
package storage

import (
	"context"
	"io"
)

// BlobStore writes export artifacts and returns a URI.
type BlobStore interface {
	PutObject(ctx context.Context, path string, contentType string, r io.Reader) (string, error)
}
