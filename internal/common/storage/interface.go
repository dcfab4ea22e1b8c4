// Package storage abstracts object storage for submission source archives.
package storage

import (
	"context"
	"io"
)

// ObjectStorage defines the object operations this service needs.
type ObjectStorage interface {
	// PutObject stores an object under bucket/objectKey.
	PutObject(ctx context.Context, bucket, objectKey string, reader io.Reader, sizeBytes int64, contentType string) error

	// GetObject retrieves an object; the caller must close the reader.
	GetObject(ctx context.Context, bucket, objectKey string) (io.ReadCloser, error)
}
