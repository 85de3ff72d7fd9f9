// Package wide reads and writes spreadsheet workbooks with one sheet per
// entity, pivoting the time index into column headers.
package wide

import schema "energymodel-convert/internal/schema/domain"

// DefaultPivot is the index pivoted into column headers.
const DefaultPivot = "YEAR"

const valueHeader = "VALUE"

// layout describes the columns of one entity's sheet.
type layout struct {
	leading  []string // index labels written as leading columns
	pivotPos int      // position of the pivot index in the entity's indices, -1 if absent
}

func newLayout(entry schema.Entry, pivot string) layout {
	labels := entry.IndexLabels()
	l := layout{pivotPos: -1}
	for i, label := range labels {
		if l.pivotPos < 0 && entry.Indices[i] == pivot && label == pivot {
			l.pivotPos = i
			continue
		}
		l.leading = append(l.leading, label)
	}
	return l
}

// tuple rebuilds a full index tuple from the leading members and a pivot member.
func (l layout) tuple(leading []string, pivotMember string) []string {
	if l.pivotPos < 0 {
		return append([]string(nil), leading...)
	}
	out := make([]string, 0, len(leading)+1)
	out = append(out, leading[:l.pivotPos]...)
	out = append(out, pivotMember)
	out = append(out, leading[l.pivotPos:]...)
	return out
}

// split separates an index tuple into its leading members and pivot member.
func (l layout) split(tuple []string) ([]string, string) {
	if l.pivotPos < 0 {
		return tuple, ""
	}
	leading := make([]string, 0, len(tuple)-1)
	leading = append(leading, tuple[:l.pivotPos]...)
	leading = append(leading, tuple[l.pivotPos+1:]...)
	return leading, tuple[l.pivotPos]
}
