package queue

import (
	"helix/internal/domain"
)

// ErrTypeNotSelected is the single validation message produced while no
// file type is selected.
const ErrTypeNotSelected = "please select a file type first"

// ExtensionSource resolves the accepted extensions of a file type.
type ExtensionSource interface {
	Extensions(fileType string) []string
}

// Validator runs the registered rules in registration order.
type Validator struct {
	exts  ExtensionSource
	rules []Rule
	keys  map[string]int
}

// NewValidator returns a validator with the built-in rules: extension, size
// (maxSize bytes, DefaultMaxFileSize when <= 0) and the MT940/CAMT.053
// naming heuristics.
func NewValidator(exts ExtensionSource, maxSize int64) *Validator {
	if maxSize <= 0 {
		maxSize = DefaultMaxFileSize
	}
	v := &Validator{exts: exts, keys: make(map[string]int)}
	v.Register(extensionRule{})
	v.Register(sizeRule{max: maxSize})
	v.Register(mt940NameRule{})
	v.Register(camtXMLRule{})
	return v
}

// Register adds a rule, replacing any rule with the same key in place.
func (v *Validator) Register(r Rule) {
	if i, ok := v.keys[r.RuleKey()]; ok {
		v.rules[i] = r
		return
	}
	v.keys[r.RuleKey()] = len(v.rules)
	v.rules = append(v.rules, r)
}

// Rules returns the rule keys in evaluation order.
func (v *Validator) Rules() []string {
	out := make([]string, len(v.rules))
	for i, r := range v.rules {
		out[i] = r.RuleKey()
	}
	return out
}

// Validate checks a file against fileType. It never fails; every problem is
// reported in Errors and Valid is true only when there are none.
func (v *Validator) Validate(f FileInfo, fileType string) domain.Validation {
	if fileType == "" {
		return domain.Validation{Valid: false, Errors: []string{ErrTypeNotSelected}}
	}
	accepted := v.exts.Extensions(fileType)
	errs := []string{}
	for _, r := range v.rules {
		errs = append(errs, r.Check(f, fileType, accepted)...)
	}
	return domain.Validation{Valid: len(errs) == 0, Errors: errs}
}
