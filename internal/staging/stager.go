// Package staging holds files received by the console server in object
// storage until they are submitted or dropped.
package staging

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"helix/internal/port"
)

const sniffLen = 3072

// Stager writes incoming files to object storage and hands back payloads
// that read from it.
type Stager struct {
	store  port.ObjectStorage
	bucket string
	prefix string
	logger *zap.Logger
}

// NewStager creates a stager writing under bucket/prefix.
func NewStager(store port.ObjectStorage, bucket, prefix string, logger *zap.Logger) *Stager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Stager{
		store:  store,
		bucket: bucket,
		prefix: strings.Trim(prefix, "/"),
		logger: logger.Named("staging"),
	}
}

// Stage stores r for operator and returns a payload over the stored object.
// An empty or generic content type is replaced by one sniffed from the
// first bytes.
func (s *Stager) Stage(ctx context.Context, operator, name, contentType string, size int64, r io.Reader) (*Payload, error) {
	name = path.Base(strings.ReplaceAll(name, "\\", "/"))
	if name == "." || name == "/" {
		return nil, fmt.Errorf("staging: empty file name")
	}

	br := bufio.NewReaderSize(r, sniffLen)
	if contentType == "" || contentType == "application/octet-stream" {
		head, _ := br.Peek(sniffLen)
		contentType = mimetype.Detect(head).String()
	}

	key := path.Join(s.prefix, segment(operator), uuid.NewString(), name)
	counter := &countingReader{r: br}
	if _, err := s.store.Put(ctx, port.StagedObject{
		Bucket:      s.bucket,
		Key:         key,
		Body:        counter,
		ContentType: contentType,
		Size:        size,
		Metadata: map[string]string{
			"operator":      operator,
			"original-name": name,
		},
	}); err != nil {
		return nil, fmt.Errorf("staging %s: %w", name, err)
	}
	if size <= 0 {
		size = counter.n
	}

	s.logger.Debug("file staged",
		zap.String("operator", operator),
		zap.String("key", key),
		zap.Int64("size", size))

	return &Payload{
		stager:      s,
		key:         key,
		name:        name,
		contentType: contentType,
		size:        size,
	}, nil
}

// segment makes v safe to use as a single key path element.
func segment(v string) string {
	v = strings.NewReplacer("/", "_", "\\", "_").Replace(v)
	switch v {
	case "", ".", "..":
		return "_"
	}
	return v
}

// Payload is a staged file. It implements port.Payload and port.Releaser.
type Payload struct {
	stager      *Stager
	key         string
	name        string
	contentType string
	size        int64
}

func (p *Payload) Name() string        { return p.name }
func (p *Payload) Size() int64         { return p.size }
func (p *Payload) ContentType() string { return p.contentType }

// Key is the object key the payload is stored under.
func (p *Payload) Key() string { return p.key }

func (p *Payload) Open(ctx context.Context) (io.ReadCloser, error) {
	return p.stager.store.Get(ctx, p.stager.bucket, p.key)
}

// Release deletes the staged object.
func (p *Payload) Release(ctx context.Context) error {
	if err := p.stager.store.Delete(ctx, p.stager.bucket, p.key); err != nil {
		return fmt.Errorf("releasing %s: %w", p.key, err)
	}
	return nil
}

type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(b []byte) (int, error) {
	n, err := c.r.Read(b)
	c.n += int64(n)
	return n, err
}
