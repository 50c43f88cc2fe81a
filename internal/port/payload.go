package port

import (
	"context"
	"io"
)

// Payload is a handle to a user-selected file. The queue references it; the
// bytes stay wherever the picker put them until Open is called.
type Payload interface {
	Name() string
	Size() int64
	ContentType() string
	Open(ctx context.Context) (io.ReadCloser, error)
}

// Releaser is implemented by payloads that hold resources (for example a
// staged object) which should be freed once the queue drops them.
type Releaser interface {
	Release(ctx context.Context) error
}
