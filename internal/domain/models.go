package domain

import (
	"fmt"
	"strings"
	"time"
)

// RoutingCode is the department/process/file-type triple that classifies an
// upload. Its JSON form is what the processor receives as routing_code.
type RoutingCode struct {
	Department string `json:"department"`
	Process    string `json:"process"`
	FileType   string `json:"file_type"`
}

// String renders the code as DEPT-PROCESS-TYPE.
func (r RoutingCode) String() string {
	return fmt.Sprintf("%s-%s-%s", r.Department, r.Process, r.FileType)
}

// IsComplete reports whether all three levels are set.
func (r RoutingCode) IsComplete() bool {
	return r.Department != "" && r.Process != "" && r.FileType != ""
}

// ParseRoutingCode parses DEPT-PROCESS-TYPE. Parts are upper-cased; file type
// codes may contain dots (CAMT.053) but no part may contain a dash.
func ParseRoutingCode(s string) (RoutingCode, error) {
	parts := strings.Split(strings.ToUpper(strings.TrimSpace(s)), "-")
	if len(parts) != 3 {
		return RoutingCode{}, fmt.Errorf("%w: %q", ErrInvalidRouteCode, s)
	}
	for _, p := range parts {
		if p == "" {
			return RoutingCode{}, fmt.Errorf("%w: %q", ErrInvalidRouteCode, s)
		}
	}
	return RoutingCode{Department: parts[0], Process: parts[1], FileType: parts[2]}, nil
}

// Validation is the outcome of checking one file against the selected file type.
type Validation struct {
	Valid  bool     `json:"valid"`
	Errors []string `json:"errors"`
}

// FileOutcome records what happened to one file during a batch.
type FileOutcome struct {
	EntryID  string        `json:"entry_id"`
	FileName string        `json:"file_name"`
	Size     int64         `json:"size"`
	Status   FileStatus    `json:"status"`
	JobID    string        `json:"job_id,omitempty"`
	Message  string        `json:"message,omitempty"`
	Error    string        `json:"error,omitempty"`
	Duration time.Duration `json:"duration"`
}

// BatchResult summarises one submit call.
type BatchResult struct {
	ID         string        `json:"id"`
	Operator   string        `json:"operator,omitempty"`
	Email      string        `json:"email,omitempty"`
	Routing    RoutingCode   `json:"routing"`
	Priority   Priority      `json:"priority"`
	Notes      string        `json:"notes,omitempty"`
	State      BatchState    `json:"state"`
	Outcomes   []FileOutcome `json:"outcomes"`
	Succeeded  int           `json:"succeeded"`
	Failed     int           `json:"failed"`
	Skipped    int           `json:"skipped"`
	StartedAt  time.Time     `json:"started_at"`
	FinishedAt *time.Time    `json:"finished_at,omitempty"`
}

// Record appends an outcome and updates the counters.
func (b *BatchResult) Record(o FileOutcome) {
	b.Outcomes = append(b.Outcomes, o)
	switch o.Status {
	case FileStatusCompleted:
		b.Succeeded++
	case FileStatusFailed:
		b.Failed++
	case FileStatusSkipped:
		b.Skipped++
	}
}

// Clone returns a copy that shares no slices with b.
func (b *BatchResult) Clone() *BatchResult {
	out := *b
	out.Outcomes = append([]FileOutcome(nil), b.Outcomes...)
	if b.FinishedAt != nil {
		t := *b.FinishedAt
		out.FinishedAt = &t
	}
	return &out
}
