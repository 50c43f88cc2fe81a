package console

import (
	"fmt"
	"strings"

	"helix/internal/domain"
	"helix/internal/queue"
	"helix/internal/routing"
)

// Option is one selectable value in a routing selector.
type Option struct {
	Code  string `json:"code"`
	Label string `json:"label"`
}

// FileView is one row of the queue as rendered to the operator.
type FileView struct {
	ID         string            `json:"id"`
	Name       string            `json:"name"`
	Size       int64             `json:"size"`
	SizeText   string            `json:"size_text"`
	Icon       string            `json:"icon"`
	Status     domain.FileStatus `json:"status"`
	StatusText string            `json:"status_text"`
	Progress   int               `json:"progress"`
	Valid      bool              `json:"valid"`
	Errors     []string          `json:"errors"`
	Error      string            `json:"error,omitempty"`
}

// View is a point-in-time snapshot of the console.
type View struct {
	Operator         string              `json:"operator"`
	Selection        routing.Selection   `json:"selection"`
	Departments      []Option            `json:"departments"`
	Processes        []Option            `json:"processes"`
	FileTypes        []Option            `json:"file_types"`
	ProcessDisabled  bool                `json:"process_disabled"`
	FileTypeDisabled bool                `json:"file_type_disabled"`
	Accept           string              `json:"accept"`
	Supported        string              `json:"supported,omitempty"`
	RoutingLabel     string              `json:"routing_label"`
	RoutingError     string              `json:"routing_error,omitempty"`
	Files            []FileView          `json:"files"`
	ValidCount       int                 `json:"valid_count"`
	InvalidCount     int                 `json:"invalid_count"`
	CanClear         bool                `json:"can_clear"`
	CanValidate      bool                `json:"can_validate"`
	CanUpload        bool                `json:"can_upload"`
	Busy             bool                `json:"busy"`
	Batch            *domain.BatchResult `json:"batch,omitempty"`
}

// Snapshot renders the current state.
func (c *Controller) Snapshot() View {
	c.mu.Lock()
	defer c.mu.Unlock()

	tax := c.cascade.Taxonomy()
	sel := c.cascade.Selection()
	v := View{
		Operator:         c.operator,
		Selection:        sel,
		Departments:      []Option{},
		Processes:        []Option{},
		FileTypes:        []Option{},
		ProcessDisabled:  c.cascade.ProcessDisabled(),
		FileTypeDisabled: c.cascade.FileTypeDisabled(),
		Accept:           c.cascade.Accept(),
		RoutingLabel:     c.cascade.Label(),
		Files:            []FileView{},
		Busy:             c.current != nil,
	}
	if err := c.cascade.LastError(); err != nil {
		v.RoutingError = err.Error()
	}

	for _, code := range c.cascade.DepartmentOptions() {
		label := code
		if d, ok := tax.Department(code); ok && d.Name != "" {
			label = d.Name
		}
		v.Departments = append(v.Departments, Option{Code: code, Label: label})
	}
	for _, code := range c.cascade.ProcessOptions() {
		v.Processes = append(v.Processes, Option{Code: code, Label: processLabel(code)})
	}
	for _, code := range c.cascade.FileTypeOptions() {
		v.FileTypes = append(v.FileTypes, Option{Code: code, Label: code})
	}
	if exts := c.cascade.AcceptedExtensions(); len(exts) > 0 {
		v.Supported = fmt.Sprintf("Supported: %s files (%s)", sel.FileType, strings.Join(exts, ", "))
	}

	for _, e := range c.queue.Entries() {
		fv := fileView(e)
		if fv.Valid {
			v.ValidCount++
		} else {
			v.InvalidCount++
		}
		v.Files = append(v.Files, fv)
	}

	hasFiles := len(v.Files) > 0
	v.CanClear = hasFiles && !v.Busy
	v.CanValidate = hasFiles && !v.Busy
	v.CanUpload = c.cascade.Complete() && len(c.queue.Ready()) > 0 && !v.Busy

	if c.current != nil {
		v.Batch = c.current.Clone()
	}
	return v
}

func fileView(e *queue.Entry) FileView {
	return FileView{
		ID:         e.ID,
		Name:       e.Payload.Name(),
		Size:       e.Payload.Size(),
		SizeText:   queue.FormatSize(e.Payload.Size()),
		Icon:       queue.Icon(e.Payload.Name()),
		Status:     e.Status,
		StatusText: statusText(e.Status),
		Progress:   e.Progress,
		Valid:      e.Validation.Valid,
		Errors:     append([]string{}, e.Validation.Errors...),
		Error:      e.Error,
	}
}

func statusText(s domain.FileStatus) string {
	switch s {
	case domain.FileStatusReady:
		return "✅ Ready"
	case domain.FileStatusError:
		return "❌ Invalid"
	case domain.FileStatusUploading:
		return "📤 Uploading..."
	case domain.FileStatusCompleted:
		return "✅ Uploaded"
	case domain.FileStatusFailed:
		return "❌ Failed"
	}
	return string(s)
}

// processLabel renders PAYMENT as Payment.
func processLabel(code string) string {
	if code == "" {
		return ""
	}
	return code[:1] + strings.ToLower(code[1:])
}
