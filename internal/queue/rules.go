package queue

import (
	"fmt"
	"path"
	"slices"
	"strings"

	"github.com/dustin/go-humanize"
)

// DefaultMaxFileSize is the per-file upload limit (50 MiB).
const DefaultMaxFileSize int64 = 50 * 1024 * 1024

// FileInfo is what a rule may look at: name and size, never content.
type FileInfo struct {
	Name string
	Size int64
}

// Extension returns the lower-cased text after the final dot, including the
// dot, or "" when the name has no dot.
func Extension(name string) string {
	return strings.ToLower(path.Ext(name))
}

// Rule is a single name/size check for a selected file type.
type Rule interface {
	RuleKey() string
	// Check returns zero or more human-readable problems.
	Check(f FileInfo, fileType string, accepted []string) []string
}

type extensionRule struct{}

func (extensionRule) RuleKey() string { return "extension" }

func (extensionRule) Check(f FileInfo, _ string, accepted []string) []string {
	if slices.Contains(accepted, Extension(f.Name)) {
		return nil
	}
	return []string{fmt.Sprintf("invalid file type, expected: %s", strings.Join(accepted, ", "))}
}

type sizeRule struct {
	max int64
}

func (sizeRule) RuleKey() string { return "size" }

func (r sizeRule) Check(f FileInfo, _ string, _ []string) []string {
	if f.Size <= r.max {
		return nil
	}
	return []string{fmt.Sprintf("file size exceeds %s limit", humanize.IBytes(uint64(r.max)))}
}

// mt940NameRule flags MT940 selections whose name neither mentions mt940
// nor uses .txt.
type mt940NameRule struct{}

func (mt940NameRule) RuleKey() string { return "mt940_name" }

func (mt940NameRule) Check(f FileInfo, fileType string, _ []string) []string {
	if fileType != "MT940" {
		return nil
	}
	if strings.Contains(strings.ToLower(f.Name), "mt940") || Extension(f.Name) == ".txt" {
		return nil
	}
	return []string{"MT940 files should have .mt940 or .txt extension"}
}

type camtXMLRule struct{}

func (camtXMLRule) RuleKey() string { return "camt053_xml" }

func (camtXMLRule) Check(f FileInfo, fileType string, _ []string) []string {
	if fileType != "CAMT.053" || Extension(f.Name) == ".xml" {
		return nil
	}
	return []string{"CAMT.053 files must be XML format (.xml)"}
}
