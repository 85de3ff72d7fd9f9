package wide

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/xuri/excelize/v2"

	dataset "energymodel-convert/internal/dataset/domain"
	"energymodel-convert/internal/formats"
	schema "energymodel-convert/internal/schema/domain"
)

// Writer renders a model into an xlsx workbook.
type Writer struct {
	opts  formats.Options
	pivot string
}

// NewWriter constructs a writer. An empty pivot selects DefaultPivot.
func NewWriter(pivot string, opts ...formats.Option) *Writer {
	if pivot == "" {
		pivot = DefaultPivot
	}
	return &Writer{opts: formats.NewOptions(opts...), pivot: pivot}
}

// Write saves the workbook at destination.
func (w *Writer) Write(ctx context.Context, model *dataset.Model, destination string) error {
	file, err := os.Create(destination)
	if err != nil {
		return fmt.Errorf("wide: create %s: %w", destination, err)
	}
	defer file.Close()
	if err := w.WriteTo(ctx, model, file); err != nil {
		return err
	}
	return file.Close()
}

// WriteTo streams the workbook to out.
func (w *Writer) WriteTo(ctx context.Context, model *dataset.Model, out io.Writer) error {
	f, err := w.Build(ctx, model)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := f.Write(out); err != nil {
		return fmt.Errorf("wide: write workbook: %w", err)
	}
	return nil
}

// Build lays out every entity in a new workbook.
func (w *Writer) Build(ctx context.Context, model *dataset.Model) (*excelize.File, error) {
	f := excelize.NewFile()
	first := true
	for _, entry := range w.opts.Entities(model) {
		if err := ctx.Err(); err != nil {
			_ = f.Close()
			return nil, err
		}
		sheet := entry.Label()
		if first {
			if err := f.SetSheetName("Sheet1", sheet); err != nil {
				_ = f.Close()
				return nil, fmt.Errorf("wide: rename sheet %s: %w", sheet, err)
			}
			first = false
		} else if _, err := f.NewSheet(sheet); err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("wide: new sheet %s: %w", sheet, err)
		}

		var err error
		if entry.IsSet() {
			err = writeSet(f, sheet, entry, model.Members(entry.Name))
		} else {
			err = w.writeTable(f, sheet, model, entry)
		}
		if err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("wide: %s: %w", entry.Name, err)
		}
	}
	return f, nil
}

func writeSet(f *excelize.File, sheet string, entry schema.Entry, members []string) error {
	numeric := entry.ValueType == schema.TypeInt
	if err := f.SetCellValue(sheet, "A1", valueHeader); err != nil {
		return err
	}
	for i, member := range members {
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetCellValue(sheet, cell, cellMember(member, numeric)); err != nil {
			return err
		}
	}
	return nil
}

func (w *Writer) writeTable(f *excelize.File, sheet string, model *dataset.Model, entry schema.Entry) error {
	rows, err := formats.OutputRows(model, entry.Name, w.opts.WriteDefaults)
	if err != nil {
		return err
	}
	l := newLayout(entry, w.pivot)
	numeric := intColumns(model.Registry(), entry)
	leadingNumeric := make([]bool, 0, len(l.leading))
	pivotNumeric := false
	for i, isInt := range numeric {
		if i == l.pivotPos {
			pivotNumeric = isInt
			continue
		}
		leadingNumeric = append(leadingNumeric, isInt)
	}

	var pivotMembers []string
	if l.pivotPos >= 0 {
		pivotMembers = w.pivotColumns(model, rows, l)
	}

	header := make([]interface{}, 0, len(l.leading)+len(pivotMembers)+1)
	for _, label := range l.leading {
		header = append(header, label)
	}
	if l.pivotPos >= 0 {
		for _, member := range pivotMembers {
			header = append(header, cellMember(member, pivotNumeric))
		}
	} else {
		header = append(header, valueHeader)
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return err
	}

	if l.pivotPos < 0 {
		for i, row := range rows {
			line := make([]interface{}, 0, len(row.Index)+1)
			for c, member := range row.Index {
				line = append(line, cellMember(member, numeric[c]))
			}
			line = append(line, row.Value)
			cell, _ := excelize.CoordinatesToCellName(1, i+2)
			if err := f.SetSheetRow(sheet, cell, &line); err != nil {
				return err
			}
		}
		return nil
	}

	column := make(map[string]int, len(pivotMembers))
	for i, member := range pivotMembers {
		column[member] = len(l.leading) + i + 1
	}
	var order []string
	grouped := make(map[string][]string)
	values := make(map[string]map[string]float64)
	for _, row := range rows {
		leading, pivotMember := l.split(row.Index)
		key := dataset.Key(leading)
		if _, ok := values[key]; !ok {
			order = append(order, key)
			grouped[key] = leading
			values[key] = make(map[string]float64)
		}
		values[key][pivotMember] = row.Value
	}

	for i, key := range order {
		rowNum := i + 2
		for c, member := range grouped[key] {
			cell, _ := excelize.CoordinatesToCellName(c+1, rowNum)
			if err := f.SetCellValue(sheet, cell, cellMember(member, leadingNumeric[c])); err != nil {
				return err
			}
		}
		for member, value := range values[key] {
			cell, _ := excelize.CoordinatesToCellName(column[member], rowNum)
			if err := f.SetCellValue(sheet, cell, value); err != nil {
				return err
			}
		}
	}
	return nil
}

// pivotColumns returns the declared pivot members plus any found in rows,
// in ascending order.
func (w *Writer) pivotColumns(model *dataset.Model, rows []dataset.Row, l layout) []string {
	members := model.Members(w.pivot)
	seen := make(map[string]bool, len(members))
	for _, member := range members {
		seen[member] = true
	}
	for _, row := range rows {
		_, member := l.split(row.Index)
		if !seen[member] {
			seen[member] = true
			members = append(members, member)
		}
	}
	dataset.SortMembers(members)
	return members
}

// intColumns reports, per index of entry, whether the indexing set is int.
func intColumns(registry *schema.Registry, entry schema.Entry) []bool {
	out := make([]bool, len(entry.Indices))
	for i, set := range entry.Indices {
		if decl, ok := registry.Entry(set); ok {
			out[i] = decl.ValueType == schema.TypeInt
		}
	}
	return out
}

// cellMember writes members of int sets as numbers so years stay numeric in
// the sheet. Every other member is a string cell.
func cellMember(member string, numeric bool) interface{} {
	if !numeric {
		return member
	}
	if n, err := strconv.ParseInt(member, 10, 64); err == nil {
		return n
	}
	return member
}
