package queue

import (
	"time"

	"github.com/google/uuid"

	"helix/internal/domain"
	"helix/internal/port"
)

// Entry is one queued file with its validation and upload state.
type Entry struct {
	ID         string
	Payload    port.Payload
	Validation domain.Validation
	Status     domain.FileStatus
	Progress   int
	// Error holds the last submission failure message.
	Error   string
	AddedAt time.Time
}

func (e *Entry) info() FileInfo {
	return FileInfo{Name: e.Payload.Name(), Size: e.Payload.Size()}
}

func (e *Entry) apply(v domain.Validation) {
	e.Validation = v
	if v.Valid {
		e.Status = domain.FileStatusReady
	} else {
		e.Status = domain.FileStatusError
	}
	e.Progress = 0
	e.Error = ""
}

// Counts is the result of re-validating the whole queue.
type Counts struct {
	Valid   int `json:"valid"`
	Invalid int `json:"invalid"`
}

// Queue is an insertion-ordered set of entries keyed by generated ID.
// Identical files are not deduplicated. Queue is not safe for concurrent use.
type Queue struct {
	validator *Validator
	order     []string
	entries   map[string]*Entry
	newID     func() string
	now       func() time.Time
}

// New returns an empty queue that validates with v.
func New(v *Validator) *Queue {
	return &Queue{
		validator: v,
		entries:   make(map[string]*Entry),
		newID:     func() string { return "file_" + uuid.NewString() },
		now:       time.Now,
	}
}

// Add validates p against fileType and appends it.
func (q *Queue) Add(p port.Payload, fileType string) *Entry {
	e := &Entry{ID: q.newID(), Payload: p, AddedAt: q.now()}
	e.apply(q.validator.Validate(e.info(), fileType))
	q.entries[e.ID] = e
	q.order = append(q.order, e.ID)
	return e
}

// Get looks up an entry.
func (q *Queue) Get(id string) (*Entry, bool) {
	e, ok := q.entries[id]
	return e, ok
}

// Remove deletes an entry and returns it; unknown IDs are a no-op.
func (q *Queue) Remove(id string) (*Entry, bool) {
	e, ok := q.entries[id]
	if !ok {
		return nil, false
	}
	delete(q.entries, id)
	for i, oid := range q.order {
		if oid == id {
			q.order = append(q.order[:i], q.order[i+1:]...)
			break
		}
	}
	return e, true
}

// Clear empties the queue and returns what it held.
func (q *Queue) Clear() []*Entry {
	out := q.Entries()
	q.order = nil
	q.entries = make(map[string]*Entry)
	return out
}

// ValidateAll re-runs validation for every entry against fileType.
func (q *Queue) ValidateAll(fileType string) Counts {
	var c Counts
	for _, id := range q.order {
		e := q.entries[id]
		e.apply(q.validator.Validate(e.info(), fileType))
		if e.Validation.Valid {
			c.Valid++
		} else {
			c.Invalid++
		}
	}
	return c
}

// Entries returns the entries in insertion order.
func (q *Queue) Entries() []*Entry {
	out := make([]*Entry, 0, len(q.order))
	for _, id := range q.order {
		out = append(out, q.entries[id])
	}
	return out
}

// Ready returns the entries that may be submitted, in insertion order.
func (q *Queue) Ready() []*Entry {
	var out []*Entry
	for _, id := range q.order {
		if e := q.entries[id]; e.Status == domain.FileStatusReady {
			out = append(out, e)
		}
	}
	return out
}

// Len is the number of queued entries.
func (q *Queue) Len() int { return len(q.order) }
