// Package storage contains the object-store abstraction used for off-site
// document archival. Ingested files live on local disk (see internal/ingest);
// an ObjectStore holds the retention copy for a legal matter. Implementations
// must rely on streaming I/O only.
package storage

import (
	"context"
	"io"
	"time"
)

// PutOptions define optional parameters for archiving objects.
// Size should be the exact number of bytes if known; if unknown, set to -1
// and the implementation will buffer/chunk as supported by the backend.
type PutOptions struct {
	Size        int64
	ContentType string
	Metadata    map[string]string
}

// ObjectInfo contains basic information about an archived object.
type ObjectInfo struct {
	Key          string
	Size         int64
	ETag         string
	ContentType  string
	LastModified time.Time
}

// ObjectStore is an S3-compatible archive client interface.
// Methods use context and streaming readers; no local buffering of content.
type ObjectStore interface {
	// Put uploads an object under the given key using the provided reader and options.
	Put(ctx context.Context, key string, r io.Reader, opt PutOptions) (ObjectInfo, error)
	// Delete removes an object by key.
	Delete(ctx context.Context, key string) error
	// PresignGet returns a time-limited URL that can be used to download the
	// archived object without credentials.
	PresignGet(ctx context.Context, key string, expiry time.Duration) (string, error)
}
