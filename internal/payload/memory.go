package payload

import (
	"bytes"
	"context"
	"io"
)

// Memory is a payload held in memory.
type Memory struct {
	name        string
	contentType string
	data        []byte
	size        int64
}

// NewMemory returns a payload over data.
func NewMemory(name, contentType string, data []byte) *Memory {
	return &Memory{name: name, contentType: contentType, data: data, size: int64(len(data))}
}

// NewSized returns a payload that reports size without holding that many
// bytes; Open yields zero bytes. Useful for size-only checks.
func NewSized(name string, size int64) *Memory {
	return &Memory{name: name, contentType: "application/octet-stream", size: size}
}

func (m *Memory) Name() string        { return m.name }
func (m *Memory) Size() int64         { return m.size }
func (m *Memory) ContentType() string { return m.contentType }

func (m *Memory) Open(_ context.Context) (io.ReadCloser, error) {
	return io.NopCloser(bytes.NewReader(m.data)), nil
}
