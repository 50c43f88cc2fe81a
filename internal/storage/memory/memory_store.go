// Package memory is an in-process port.ObjectStorage for single-instance
// deployments and tests.
package memory

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"

	"helix/internal/domain"
	"helix/internal/port"
)

type object struct {
	data        []byte
	contentType string
	metadata    map[string]string
}

// Store keeps objects in a map keyed by bucket and key.
type Store struct {
	mu      sync.RWMutex
	objects map[string]object
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{objects: make(map[string]object)}
}

func objectKey(bucket, key string) string {
	return bucket + "/" + key
}

func (s *Store) Put(ctx context.Context, obj port.StagedObject) (string, error) {
	data, err := io.ReadAll(obj.Body)
	if err != nil {
		return "", fmt.Errorf("memory put %s: %w", obj.Key, err)
	}
	k := objectKey(obj.Bucket, obj.Key)
	s.mu.Lock()
	s.objects[k] = object{data: data, contentType: obj.ContentType, metadata: obj.Metadata}
	s.mu.Unlock()
	return "memory://" + k, nil
}

// Metadata returns the metadata stored with an object.
func (s *Store) Metadata(bucket, key string) (map[string]string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	obj, ok := s.objects[objectKey(bucket, key)]
	return obj.metadata, ok
}

func (s *Store) Get(ctx context.Context, bucket, key string) (io.ReadCloser, error) {
	s.mu.RLock()
	obj, ok := s.objects[objectKey(bucket, key)]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("memory get %s: %w", key, domain.ErrNotFound)
	}
	return io.NopCloser(bytes.NewReader(obj.data)), nil
}

func (s *Store) Delete(ctx context.Context, bucket, key string) error {
	s.mu.Lock()
	delete(s.objects, objectKey(bucket, key))
	s.mu.Unlock()
	return nil
}

// Len is the number of stored objects.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.objects)
}
