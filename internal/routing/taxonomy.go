package routing

import (
	_ "embed"
	"fmt"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"

	"helix/internal/domain"
)

//go:embed taxonomy.yaml
var defaultTaxonomy []byte

// FileType describes one routable file type.
type FileType struct {
	Code        string   `yaml:"code" json:"code"`
	Description string   `yaml:"description" json:"description"`
	Icon        string   `yaml:"icon" json:"icon"`
	Extensions  []string `yaml:"extensions" json:"extensions"`
}

// Department describes one department and its processes.
type Department struct {
	Code      string   `yaml:"code" json:"code"`
	Name      string   `yaml:"name" json:"name"`
	Processes []string `yaml:"processes" json:"processes"`
}

type taxonomyFile struct {
	Departments []Department        `yaml:"departments"`
	Processes   map[string][]string `yaml:"processes"`
	FileTypes   []FileType          `yaml:"file_types"`
}

// Taxonomy is the closed department -> process -> file type table.
// It is read-only once loaded and safe for concurrent use.
type Taxonomy struct {
	departments      []Department
	deptIndex        map[string]int
	processFileTypes map[string][]string
	fileTypes        map[string]FileType
	fileTypeOrder    []string
}

// Default returns the built-in taxonomy.
func Default() *Taxonomy {
	t, err := Load(defaultTaxonomy)
	if err != nil {
		panic(fmt.Sprintf("routing: built-in taxonomy is invalid: %v", err))
	}
	return t
}

// Load parses a YAML taxonomy and checks that every referenced process and
// file type is defined.
func Load(data []byte) (*Taxonomy, error) {
	var raw taxonomyFile
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing taxonomy: %w", err)
	}
	if len(raw.Departments) == 0 {
		return nil, fmt.Errorf("taxonomy defines no departments")
	}

	t := &Taxonomy{
		deptIndex:        make(map[string]int, len(raw.Departments)),
		processFileTypes: make(map[string][]string, len(raw.Processes)),
		fileTypes:        make(map[string]FileType, len(raw.FileTypes)),
	}

	for _, ft := range raw.FileTypes {
		code := strings.ToUpper(ft.Code)
		if _, dup := t.fileTypes[code]; dup {
			return nil, fmt.Errorf("file type %s defined twice", code)
		}
		if len(ft.Extensions) == 0 {
			return nil, fmt.Errorf("file type %s has no extensions", code)
		}
		exts := make([]string, 0, len(ft.Extensions))
		for _, e := range ft.Extensions {
			e = strings.ToLower(e)
			if !strings.HasPrefix(e, ".") {
				e = "." + e
			}
			exts = append(exts, e)
		}
		ft.Code = code
		ft.Extensions = exts
		t.fileTypes[code] = ft
		t.fileTypeOrder = append(t.fileTypeOrder, code)
	}

	for proc, types := range raw.Processes {
		proc = strings.ToUpper(proc)
		upper := make([]string, 0, len(types))
		for _, ft := range types {
			ft = strings.ToUpper(ft)
			if _, ok := t.fileTypes[ft]; !ok {
				return nil, fmt.Errorf("process %s references undefined file type %s", proc, ft)
			}
			upper = append(upper, ft)
		}
		t.processFileTypes[proc] = upper
	}

	for i, d := range raw.Departments {
		d.Code = strings.ToUpper(d.Code)
		if _, dup := t.deptIndex[d.Code]; dup {
			return nil, fmt.Errorf("department %s defined twice", d.Code)
		}
		procs := make([]string, 0, len(d.Processes))
		for _, p := range d.Processes {
			p = strings.ToUpper(p)
			if _, ok := t.processFileTypes[p]; !ok {
				return nil, fmt.Errorf("department %s references undefined process %s", d.Code, p)
			}
			procs = append(procs, p)
		}
		d.Processes = procs
		t.deptIndex[d.Code] = i
		t.departments = append(t.departments, d)
	}

	return t, nil
}

// Departments returns the department codes in table order.
func (t *Taxonomy) Departments() []string {
	out := make([]string, len(t.departments))
	for i, d := range t.departments {
		out[i] = d.Code
	}
	return out
}

// Department returns the department definition for code.
func (t *Taxonomy) Department(code string) (Department, bool) {
	i, ok := t.deptIndex[code]
	if !ok {
		return Department{}, false
	}
	return t.departments[i], true
}

// Processes returns the processes of a department, or nil when the
// department is empty or unknown.
func (t *Taxonomy) Processes(department string) []string {
	d, ok := t.Department(department)
	if !ok {
		return nil
	}
	return slices.Clone(d.Processes)
}

// FileTypes returns the file types of a process, or nil when the process is
// empty or unknown.
func (t *Taxonomy) FileTypes(process string) []string {
	return slices.Clone(t.processFileTypes[process])
}

// FileType returns the definition of a file type.
func (t *Taxonomy) FileType(code string) (FileType, bool) {
	ft, ok := t.fileTypes[code]
	return ft, ok
}

// AllFileTypes returns every file type in table order.
func (t *Taxonomy) AllFileTypes() []FileType {
	out := make([]FileType, 0, len(t.fileTypeOrder))
	for _, code := range t.fileTypeOrder {
		out = append(out, t.fileTypes[code])
	}
	return out
}

// Extensions returns the accepted extensions (lower-case, with dot) of a
// file type, or nil when unknown.
func (t *Taxonomy) Extensions(fileType string) []string {
	ft, ok := t.fileTypes[fileType]
	if !ok {
		return nil
	}
	return slices.Clone(ft.Extensions)
}

// HasProcess reports whether process is routable under department.
func (t *Taxonomy) HasProcess(department, process string) bool {
	return slices.Contains(t.Processes(department), process)
}

// HasFileType reports whether fileType is routable under process.
func (t *Taxonomy) HasFileType(process, fileType string) bool {
	return slices.Contains(t.processFileTypes[process], fileType)
}

// Validate checks a complete routing code against the table.
func (t *Taxonomy) Validate(code domain.RoutingCode) error {
	if _, ok := t.Department(code.Department); !ok {
		return fmt.Errorf("%w: %s", domain.ErrInvalidDepartment, code.Department)
	}
	if !t.HasProcess(code.Department, code.Process) {
		return fmt.Errorf("%w: %s under %s", domain.ErrInvalidProcess, code.Process, code.Department)
	}
	if !t.HasFileType(code.Process, code.FileType) {
		return fmt.Errorf("%w: %s under %s", domain.ErrInvalidFileType, code.FileType, code.Process)
	}
	return nil
}
