package payload

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/gabriel-vasile/mimetype"
)

// File is a payload backed by a file on local disk.
type File struct {
	path        string
	name        string
	size        int64
	contentType string
}

// OpenFile stats path and sniffs its MIME type. The sniffed type only labels
// the multipart part; it plays no role in validation.
func OpenFile(path string) (*File, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%s is a directory", path)
	}
	contentType := "application/octet-stream"
	if mt, err := mimetype.DetectFile(path); err == nil {
		contentType = mt.String()
	}
	return &File{
		path:        path,
		name:        filepath.Base(path),
		size:        info.Size(),
		contentType: contentType,
	}, nil
}

func (f *File) Name() string        { return f.name }
func (f *File) Size() int64         { return f.size }
func (f *File) ContentType() string { return f.contentType }

// Path is the location on disk.
func (f *File) Path() string { return f.path }

func (f *File) Open(_ context.Context) (io.ReadCloser, error) {
	return os.Open(f.path)
}
