package ports

import (
	"context"
	"io"
)

// ObjectStorage stores binary blobs (progress photos). Upload returns the
// stored object name.
type ObjectStorage interface {
	Upload(ctx context.Context, bucket, objectName, contentType string, reader io.Reader, size int64) (string, error)
	Remove(ctx context.Context, bucket, objectName string) error
}
