package schema

import "strings"

// MaxLabelLength is the longest label a spreadsheet sheet accepts.
const MaxLabelLength = 31

// Kind classifies an entity.
type Kind string

const (
	KindSet    Kind = "set"
	KindParam  Kind = "param"
	KindResult Kind = "result"
)

// IsValid reports whether kind is supported.
func (k Kind) IsValid() bool {
	switch k {
	case KindSet, KindParam, KindResult:
		return true
	default:
		return false
	}
}

// ValueType is the declared type of set members or table values.
type ValueType string

const (
	TypeInt    ValueType = "int"
	TypeFloat  ValueType = "float"
	TypeString ValueType = "str"
)

// ParseValueType normalises the spellings accepted in configuration files.
func ParseValueType(raw string) (ValueType, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "int", "integer":
		return TypeInt, true
	case "float", "double":
		return TypeFloat, true
	case "str", "string":
		return TypeString, true
	default:
		return "", false
	}
}

// Entry declares one set, parameter or result.
type Entry struct {
	Name       string
	ShortName  string
	Kind       Kind
	ValueType  ValueType
	Indices    []string
	Default    float64
	HasDefault bool
	Calculated bool
}

// Label returns the short name when declared, otherwise the name.
func (e Entry) Label() string {
	if e.ShortName != "" {
		return e.ShortName
	}
	return e.Name
}

// IsSet reports whether the entry is a set.
func (e Entry) IsSet() bool {
	return e.Kind == KindSet
}

// Arity is the number of indices of the entry.
func (e Entry) Arity() int {
	return len(e.Indices)
}

// IndexLabels returns the indices with repeated set names prefixed by an
// underscore, e.g. REGION, _REGION for a trade table.
func (e Entry) IndexLabels() []string {
	return DedupeLabels(e.Indices)
}

// DedupeLabels prefixes repeated names with underscores so each label is unique.
func DedupeLabels(indices []string) []string {
	labels := make([]string, len(indices))
	seen := make(map[string]bool, len(indices))
	for i, name := range indices {
		label := name
		for seen[label] {
			label = "_" + label
		}
		seen[label] = true
		labels[i] = label
	}
	return labels
}

// SetOfLabel maps an index label back to its set name.
func SetOfLabel(label string) string {
	return strings.TrimLeft(label, "_")
}
