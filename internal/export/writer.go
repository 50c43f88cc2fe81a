// Package export renders batch reports as CSV or XLSX.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
	"time"

	"helix/internal/domain"
	"helix/internal/queue"
)

// UTF-8 BOM bytes for Excel compatibility on Windows.
var BOM = []byte{0xEF, 0xBB, 0xBF}

// columns defines the report header row.
var columns = []string{
	"Batch ID",
	"Routing Code",
	"Priority",
	"File Name",
	"Size Bytes",
	"Size",
	"Status",
	"Job ID",
	"Message",
	"Error",
	"Duration Ms",
	"Batch Started At",
	"Batch Finished At",
}

// Columns returns a copy of the header row.
func Columns() []string {
	return append([]string(nil), columns...)
}

// Writer wraps csv.Writer for exporting batch outcomes as CSV.
type Writer struct {
	csv *csv.Writer
}

// NewWriter creates a Writer that writes CSV to w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{csv: csv.NewWriter(w)}
}

// WriteHeader writes the header row.
func (w *Writer) WriteHeader() error {
	return w.csv.Write(columns)
}

// WriteBatch writes one row per file outcome.
func (w *Writer) WriteBatch(b *domain.BatchResult) error {
	for i := range b.Outcomes {
		if err := w.csv.Write(outcomeToRow(b, &b.Outcomes[i])); err != nil {
			return err
		}
	}
	return nil
}

// Flush flushes the underlying csv.Writer buffer.
func (w *Writer) Flush() {
	w.csv.Flush()
}

// Error returns any error from the underlying csv.Writer.
func (w *Writer) Error() error {
	return w.csv.Error()
}

// WriteCSV writes a complete report: BOM, header and every outcome.
func WriteCSV(out io.Writer, batches ...*domain.BatchResult) error {
	if _, err := out.Write(BOM); err != nil {
		return err
	}
	w := NewWriter(out)
	if err := w.WriteHeader(); err != nil {
		return err
	}
	for _, b := range batches {
		if err := w.WriteBatch(b); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func outcomeToRow(b *domain.BatchResult, o *domain.FileOutcome) []string {
	return []string{
		b.ID,
		b.Routing.String(),
		string(b.Priority),
		o.FileName,
		strconv.FormatInt(o.Size, 10),
		queue.FormatSize(o.Size),
		string(o.Status),
		o.JobID,
		o.Message,
		o.Error,
		strconv.FormatInt(o.Duration.Milliseconds(), 10),
		b.StartedAt.Format(time.RFC3339),
		formatTime(b.FinishedAt),
	}
}

func formatTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(time.RFC3339)
}

// nonAlphanumeric matches characters that are not alphanumeric, hyphen, or underscore.
var nonAlphanumeric = regexp.MustCompile(`[^a-zA-Z0-9_-]+`)

// multiUnderscore matches consecutive underscores.
var multiUnderscore = regexp.MustCompile(`_{2,}`)

// SanitizeFilename cleans a name for use in Content-Disposition.
// Replaces non-alphanumeric chars (except - _) with _, collapses consecutive
// underscores, and truncates to 100 chars.
func SanitizeFilename(name string) string {
	s := nonAlphanumeric.ReplaceAllString(name, "_")
	s = multiUnderscore.ReplaceAllString(s, "_")
	s = strings.Trim(s, "_")
	if len(s) > 100 {
		s = s[:100]
	}
	return s
}

// BuildFilename returns a sanitized report filename.
// Format: batch_{routing}_{YYYY-MM-DD}.{ext}
func BuildFilename(b *domain.BatchResult, ext string) string {
	sanitized := SanitizeFilename("batch_" + b.Routing.String())
	return fmt.Sprintf("%s_%s.%s", sanitized, b.StartedAt.Format("2006-01-02"), ext)
}
