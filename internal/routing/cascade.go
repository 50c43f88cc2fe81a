package routing

import (
	"fmt"
	"strings"

	"helix/internal/domain"
)

// Selection is the operator's current routing choice. Empty fields are unset.
type Selection struct {
	Department string `json:"department"`
	Process    string `json:"process"`
	FileType   string `json:"file_type"`
}

// Cascade is the three-level selector state machine. A setter at one level
// clears every level below it; nothing propagates upwards.
//
// Cascade is not safe for concurrent use; the owning controller serialises
// access.
type Cascade struct {
	tax     *Taxonomy
	sel     Selection
	lastErr error
}

// NewCascade returns a cascade with nothing selected.
func NewCascade(tax *Taxonomy) *Cascade {
	return &Cascade{tax: tax}
}

// Taxonomy returns the table the cascade selects from.
func (c *Cascade) Taxonomy() *Taxonomy { return c.tax }

// Selection returns the current selection.
func (c *Cascade) Selection() Selection { return c.sel }

// DepartmentOptions is always the full department list.
func (c *Cascade) DepartmentOptions() []string { return c.tax.Departments() }

// ProcessOptions returns the processes legal under the selected department.
func (c *Cascade) ProcessOptions() []string { return c.tax.Processes(c.sel.Department) }

// FileTypeOptions returns the file types legal under the selected process.
func (c *Cascade) FileTypeOptions() []string { return c.tax.FileTypes(c.sel.Process) }

// ProcessDisabled reports whether the process selector has nothing to offer.
func (c *Cascade) ProcessDisabled() bool { return c.sel.Department == "" }

// FileTypeDisabled reports whether the file type selector has nothing to offer.
func (c *Cascade) FileTypeDisabled() bool { return c.sel.Process == "" }

// LastError is the configuration error raised by the most recent setter, if any.
func (c *Cascade) LastError() error { return c.lastErr }

// SetDepartment selects a department and clears process and file type.
// An empty code clears the selection entirely.
func (c *Cascade) SetDepartment(code string) error {
	code = normalize(code)
	c.sel = Selection{}
	c.lastErr = nil
	if code == "" {
		return nil
	}
	if _, ok := c.tax.Department(code); !ok {
		c.lastErr = fmt.Errorf("%w: %s", domain.ErrInvalidDepartment, code)
		return c.lastErr
	}
	c.sel.Department = code
	return nil
}

// SetProcess selects a process under the current department and clears the
// file type. An illegal code leaves the process unset, which disables the
// file type selector.
func (c *Cascade) SetProcess(code string) error {
	code = normalize(code)
	c.sel.Process = ""
	c.sel.FileType = ""
	c.lastErr = nil
	if code == "" {
		return nil
	}
	if !c.tax.HasProcess(c.sel.Department, code) {
		c.lastErr = fmt.Errorf("%w: %s under %q", domain.ErrInvalidProcess, code, c.sel.Department)
		return c.lastErr
	}
	c.sel.Process = code
	return nil
}

// SetFileType selects a file type under the current process.
func (c *Cascade) SetFileType(code string) error {
	code = normalize(code)
	c.sel.FileType = ""
	c.lastErr = nil
	if code == "" {
		return nil
	}
	if !c.tax.HasFileType(c.sel.Process, code) {
		c.lastErr = fmt.Errorf("%w: %s under %q", domain.ErrInvalidFileType, code, c.sel.Process)
		return c.lastErr
	}
	c.sel.FileType = code
	return nil
}

// Apply selects all three levels of a routing code, top-down.
func (c *Cascade) Apply(code domain.RoutingCode) error {
	if err := c.SetDepartment(code.Department); err != nil {
		return err
	}
	if err := c.SetProcess(code.Process); err != nil {
		return err
	}
	return c.SetFileType(code.FileType)
}

// AcceptedExtensions is the extension set of the selected file type, as
// offered to the file picker and used by the validator.
func (c *Cascade) AcceptedExtensions() []string {
	if c.sel.FileType == "" {
		return nil
	}
	return c.tax.Extensions(c.sel.FileType)
}

// Accept renders AcceptedExtensions as a file-input accept attribute.
func (c *Cascade) Accept() string {
	return strings.Join(c.AcceptedExtensions(), ",")
}

// Complete reports whether all three levels are selected.
func (c *Cascade) Complete() bool {
	return c.sel.Department != "" && c.sel.Process != "" && c.sel.FileType != ""
}

// RoutingCode returns the selection as a routing code; ok is false until the
// selection is complete.
func (c *Cascade) RoutingCode() (code domain.RoutingCode, ok bool) {
	if !c.Complete() {
		return domain.RoutingCode{}, false
	}
	return domain.RoutingCode{
		Department: c.sel.Department,
		Process:    c.sel.Process,
		FileType:   c.sel.FileType,
	}, true
}

// Label renders the selection for display.
func (c *Cascade) Label() string {
	code, ok := c.RoutingCode()
	if !ok {
		return "Routing not set"
	}
	return code.String()
}

func normalize(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
