package formats

import (
	"math"
	"strconv"
	"strings"

	dataset "energymodel-convert/internal/dataset/domain"
	schema "energymodel-convert/internal/schema/domain"
)

// ParseValue parses a table value according to the entity's dtype.
func ParseValue(entry schema.Entry, token, location string) (float64, error) {
	raw := strings.TrimSpace(token)
	if raw == "" {
		return 0, &FormatError{Entity: entry.Name, Location: location, Reason: "empty value"}
	}
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, &FormatError{Entity: entry.Name, Location: location, Token: token, Reason: "value is not numeric"}
	}
	if entry.ValueType == schema.TypeInt && value != math.Trunc(value) {
		return 0, &FormatError{Entity: entry.Name, Location: location, Token: token, Reason: "value is not an integer"}
	}
	return value, nil
}

// ParseMember normalises a set member token for the given set entry.
// Integer members are canonicalised so "2016.0" and "2016" agree.
func ParseMember(set schema.Entry, token, location string, keepWhitespace bool) (string, error) {
	member := token
	if !keepWhitespace {
		member = strings.TrimSpace(member)
	}
	if set.ValueType != schema.TypeInt {
		return member, nil
	}
	raw := strings.TrimSpace(member)
	if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return strconv.FormatInt(n, 10), nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || f != math.Trunc(f) {
		return "", &FormatError{Entity: set.Name, Location: location, Token: token, Reason: "member is not an integer"}
	}
	return strconv.FormatInt(int64(f), 10), nil
}

// ParseIndex parses one index tuple of entry, member by member.
func ParseIndex(registry *schema.Registry, entry schema.Entry, tokens []string, location string, keepWhitespace bool) ([]string, error) {
	if len(tokens) != entry.Arity() {
		return nil, &FormatError{Entity: entry.Name, Location: location, Token: strings.Join(tokens, ","), Reason: "wrong number of indices"}
	}
	tuple := make([]string, len(tokens))
	for i, token := range tokens {
		set, _ := registry.Entry(entry.Indices[i])
		member, err := ParseMember(set, token, location, keepWhitespace)
		if err != nil {
			return nil, &FormatError{Entity: entry.Name, Location: location, Token: token, Reason: "index " + entry.Indices[i] + " is not an integer"}
		}
		tuple[i] = member
	}
	return tuple, nil
}

// FormatValue renders a value with the shortest representation that
// parses back to the same float.
func FormatValue(value float64) string {
	return strconv.FormatFloat(value, 'g', -1, 64)
}

// FormatFloat renders a value in plain decimal notation.
func FormatFloat(value float64) string {
	return strconv.FormatFloat(value, 'f', -1, 64)
}

// OutputRows returns the rows a writer should emit for name: the stored
// rows, or the dense product when writeDefaults is set.
func OutputRows(model *dataset.Model, name string, writeDefaults bool) ([]dataset.Row, error) {
	if writeDefaults {
		dense, err := model.ExpandDefaults(name)
		if err != nil {
			return nil, err
		}
		if table, ok := model.Table(name); ok {
			// keep stored values whose members fall outside the declared sets
			for _, row := range table.Rows() {
				if _, ok := dense.Get(row.Index); !ok {
					_ = dense.Set(row.Index, row.Value)
				}
			}
		}
		return dense.Rows(), nil
	}
	table, ok := model.Table(name)
	if !ok {
		return nil, nil
	}
	return table.Rows(), nil
}

// NormaliseHeader trims a column header and maps legacy spellings onto
// index labels.
func NormaliseHeader(header string) string {
	h := strings.TrimSpace(header)
	if h == "MODEOFOPERATION" {
		return "MODE_OF_OPERATION"
	}
	return h
}
