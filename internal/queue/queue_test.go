package queue_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"helix/internal/domain"
	"helix/internal/payload"
	"helix/internal/queue"
)

func TestQueue_AddValidatesAgainstFileType(t *testing.T) {
	q := queue.New(newValidator())

	ok := q.Add(payload.NewSized("statement.mt940", 10*1024), "MT940")
	bad := q.Add(payload.NewSized("data.csv", 100), "MT940")

	assert.Equal(t, domain.FileStatusReady, ok.Status)
	assert.True(t, ok.Validation.Valid)
	assert.Equal(t, domain.FileStatusError, bad.Status)
	assert.False(t, bad.Validation.Valid)
	assert.Equal(t, 2, q.Len())
	assert.Len(t, q.Ready(), 1)
}

func TestQueue_NoDeduplication(t *testing.T) {
	q := queue.New(newValidator())
	p := payload.NewSized("a.csv", 1)
	a := q.Add(p, "CSV")
	b := q.Add(p, "CSV")
	assert.NotEqual(t, a.ID, b.ID)
	assert.Equal(t, 2, q.Len())
}

func TestQueue_InsertionOrder(t *testing.T) {
	q := queue.New(newValidator())
	names := []string{"c.csv", "a.csv", "b.csv"}
	for _, n := range names {
		q.Add(payload.NewSized(n, 1), "CSV")
	}
	var got []string
	for _, e := range q.Entries() {
		got = append(got, e.Payload.Name())
	}
	assert.Equal(t, names, got)
}

func TestQueue_RemoveUnknownIsNoop(t *testing.T) {
	q := queue.New(newValidator())
	q.Add(payload.NewSized("a.csv", 1), "CSV")

	_, removed := q.Remove("file_does_not_exist")
	assert.False(t, removed)
	assert.Equal(t, 1, q.Len())
}

func TestQueue_Remove(t *testing.T) {
	q := queue.New(newValidator())
	a := q.Add(payload.NewSized("a.csv", 1), "CSV")
	b := q.Add(payload.NewSized("b.csv", 1), "CSV")

	got, removed := q.Remove(a.ID)
	require.True(t, removed)
	assert.Equal(t, a, got)
	require.Len(t, q.Entries(), 1)
	assert.Equal(t, b.ID, q.Entries()[0].ID)
	_, found := q.Get(a.ID)
	assert.False(t, found)
}

func TestQueue_ClearThenAddIssuesFreshID(t *testing.T) {
	q := queue.New(newValidator())
	seen := map[string]bool{}
	for i := 0; i < 5; i++ {
		seen[q.Add(payload.NewSized("a.csv", 1), "CSV").ID] = true
	}

	cleared := q.Clear()
	assert.Len(t, cleared, 5)
	assert.Equal(t, 0, q.Len())

	e := q.Add(payload.NewSized("fresh.csv", 1), "CSV")
	assert.Equal(t, 1, q.Len())
	assert.False(t, seen[e.ID])
}

func TestQueue_ValidateAll(t *testing.T) {
	q := queue.New(newValidator())
	q.Add(payload.NewSized("a.csv", 1), "")
	q.Add(payload.NewSized("b.xml", 1), "")
	require.Empty(t, q.Ready())

	counts := q.ValidateAll("CSV")
	assert.Equal(t, queue.Counts{Valid: 1, Invalid: 1}, counts)
	assert.Equal(t, domain.FileStatusReady, q.Entries()[0].Status)
	assert.Equal(t, domain.FileStatusError, q.Entries()[1].Status)

	counts = q.ValidateAll("XML")
	assert.Equal(t, queue.Counts{Valid: 1, Invalid: 1}, counts)
	assert.Equal(t, domain.FileStatusError, q.Entries()[0].Status)
	assert.Equal(t, domain.FileStatusReady, q.Entries()[1].Status)
}

func TestFormatSizeAndIcon(t *testing.T) {
	assert.Equal(t, "0 B", queue.FormatSize(0))
	assert.Equal(t, "10 KiB", queue.FormatSize(10*1024))
	assert.Equal(t, "💰", queue.Icon("x.MT940"))
	assert.Equal(t, "📄", queue.Icon("x.pdf"))
}
