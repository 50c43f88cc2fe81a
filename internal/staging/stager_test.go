package staging_test

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"helix/internal/domain"
	"helix/internal/port"
	"helix/internal/staging"
	"helix/internal/storage/memory"
	"helix/mocks"
)

func TestStager_StageOpenRelease(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	s := staging.NewStager(store, "bucket", "/staging/", nil)

	p, err := s.Stage(ctx, "op-1", `C:\exports\Stmt.MT940`, "text/plain", 0, strings.NewReader(":20:REF"))
	require.NoError(t, err)
	assert.Equal(t, "Stmt.MT940", p.Name())
	assert.Equal(t, int64(7), p.Size())
	assert.Equal(t, "text/plain", p.ContentType())
	assert.True(t, strings.HasPrefix(p.Key(), "staging/op-1/"))
	assert.True(t, strings.HasSuffix(p.Key(), "/Stmt.MT940"))

	var _ port.Payload = p
	var _ port.Releaser = p

	meta, ok := store.Metadata("bucket", p.Key())
	require.True(t, ok)
	assert.Equal(t, map[string]string{"operator": "op-1", "original-name": "Stmt.MT940"}, meta)

	rc, err := p.Open(ctx)
	require.NoError(t, err)
	data, _ := io.ReadAll(rc)
	assert.Equal(t, ":20:REF", string(data))

	require.NoError(t, p.Release(ctx))
	_, err = p.Open(ctx)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestStager_SniffsGenericContentType(t *testing.T) {
	s := staging.NewStager(memory.NewStore(), "bucket", "staging", nil)

	p, err := s.Stage(context.Background(), "op-1", "camt.xml", "application/octet-stream", 0,
		strings.NewReader(`<?xml version="1.0" encoding="UTF-8"?><Document></Document>`))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(p.ContentType(), "text/xml"), p.ContentType())
}

func TestStager_PutError(t *testing.T) {
	store := new(mocks.MockObjectStorage)
	store.On("Put", mock.Anything, mock.Anything).Return("", errors.New("bucket missing"))

	s := staging.NewStager(store, "bucket", "staging", nil)
	_, err := s.Stage(context.Background(), "op-1", "a.csv", "text/csv", 3, strings.NewReader("a,b"))
	assert.ErrorContains(t, err, "bucket missing")
}

func TestStager_OperatorStaysInsidePrefix(t *testing.T) {
	s := staging.NewStager(memory.NewStore(), "bucket", "staging", nil)

	for _, operator := range []string{"../../etc", `..\..\etc`, "..", "", "a/b"} {
		p, err := s.Stage(context.Background(), operator, "stmt.mt940", "text/plain", 0, strings.NewReader(":20:"))
		require.NoError(t, err, operator)
		parts := strings.Split(p.Key(), "/")
		require.Len(t, parts, 4, p.Key())
		assert.Equal(t, "staging", parts[0])
		assert.NotEqual(t, "..", parts[1])
		assert.NotEmpty(t, parts[1])
		assert.Equal(t, "stmt.mt940", parts[3])
	}
}
