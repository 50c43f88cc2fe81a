package port

import (
	"context"
	"io"
)

// StagedObject describes a received file written to the staging store.
// Metadata travels with the object (S3 user metadata) so an operator's
// staged files can be traced without a database.
type StagedObject struct {
	Bucket      string
	Key         string
	Body        io.Reader
	ContentType string
	Size        int64
	Metadata    map[string]string
}

// ObjectStorage holds staged payloads between queueing and submission.
type ObjectStorage interface {
	// Put writes obj and returns its location.
	Put(ctx context.Context, obj StagedObject) (string, error)
	// Get opens a stored object; a missing key wraps domain.ErrNotFound.
	Get(ctx context.Context, bucket, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, bucket, key string) error
}
