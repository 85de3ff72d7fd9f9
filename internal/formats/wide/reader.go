package wide

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	dataset "energymodel-convert/internal/dataset/domain"
	"energymodel-convert/internal/formats"
	schema "energymodel-convert/internal/schema/domain"
)

// Reader loads an xlsx workbook.
type Reader struct {
	opts  formats.Options
	pivot string
}

// NewReader constructs a reader. An empty pivot selects DefaultPivot.
func NewReader(pivot string, opts ...formats.Option) *Reader {
	if pivot == "" {
		pivot = DefaultPivot
	}
	return &Reader{opts: formats.NewOptions(opts...), pivot: pivot}
}

// Read opens the workbook at source.
func (r *Reader) Read(ctx context.Context, source string, registry *schema.Registry) (*dataset.Model, error) {
	f, err := excelize.OpenFile(source)
	if err != nil {
		return nil, fmt.Errorf("wide: open %s: %w", source, err)
	}
	defer f.Close()
	return r.readFile(ctx, f, registry)
}

// ReadFrom loads a workbook from an in-memory stream.
func (r *Reader) ReadFrom(ctx context.Context, in io.Reader, registry *schema.Registry) (*dataset.Model, error) {
	f, err := excelize.OpenReader(in)
	if err != nil {
		return nil, fmt.Errorf("wide: open workbook: %w", err)
	}
	defer f.Close()
	return r.readFile(ctx, f, registry)
}

func (r *Reader) readFile(ctx context.Context, f *excelize.File, registry *schema.Registry) (*dataset.Model, error) {
	model, err := dataset.NewModel(registry)
	if err != nil {
		return nil, err
	}

	var tables []schema.Entry
	rowsBySheet := make(map[string][][]string)
	for _, sheet := range f.GetSheetList() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		name, ok := registry.Resolve(strings.TrimSpace(sheet))
		if !ok {
			if err := r.opts.Mismatch(sheet, "sheet"); err != nil {
				return nil, err
			}
			continue
		}
		rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
		if err != nil {
			return nil, fmt.Errorf("wide: read sheet %s: %w", sheet, err)
		}
		entry, _ := registry.Entry(name)
		if entry.IsSet() {
			if err := r.readSet(model, entry, sheet, rows); err != nil {
				return nil, err
			}
			continue
		}
		tables = append(tables, entry)
		rowsBySheet[entry.Name] = rows
	}

	// sets first, so pivot members and indices validate against declared sets
	for _, entry := range tables {
		if err := r.readTable(model, entry, rowsBySheet[entry.Name]); err != nil {
			return nil, err
		}
	}
	return model, nil
}

func (r *Reader) readSet(model *dataset.Model, entry schema.Entry, sheet string, rows [][]string) error {
	var members []string
	for i, row := range rows {
		if i == 0 {
			continue
		}
		if len(row) == 0 || strings.TrimSpace(row[0]) == "" {
			continue
		}
		member, err := formats.ParseMember(entry, row[0], location(sheet, 1, i+1), r.opts.KeepWhitespace)
		if err != nil {
			return err
		}
		members = append(members, member)
	}
	return model.PutSet(entry.Name, members)
}

func (r *Reader) readTable(model *dataset.Model, entry schema.Entry, rows [][]string) error {
	sheet := entry.Label()
	table, err := model.TableFor(entry.Name)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		return nil
	}

	header := make([]string, len(rows[0]))
	for i, cell := range rows[0] {
		header[i] = formats.NormaliseHeader(cell)
	}
	for len(header) > 0 && header[len(header)-1] == "" {
		header = header[:len(header)-1]
	}

	labels := entry.IndexLabels()
	narrow := len(header) > 0 && header[len(header)-1] == valueHeader
	l := layout{pivotPos: -1}
	if narrow {
		if len(header)-1 != len(labels) {
			return &formats.FormatError{Entity: entry.Name, Location: location(sheet, 1, 1), Token: strings.Join(header, ","), Reason: "header does not match indices"}
		}
		l.leading = labels
	} else {
		l = newLayout(entry, r.pivot)
		if l.pivotPos < 0 {
			return &formats.FormatError{Entity: entry.Name, Location: location(sheet, 1, 1), Token: strings.Join(header, ","), Reason: "missing VALUE column"}
		}
	}
	for i, label := range l.leading {
		if i >= len(header) || header[i] != label {
			return &formats.FormatError{Entity: entry.Name, Location: location(sheet, i+1, 1), Token: strings.Join(header, ","), Reason: "expected header " + label}
		}
	}

	var pivotMembers []string
	if !narrow {
		pivotSet, _ := model.Registry().Entry(r.pivot)
		for c := len(l.leading); c < len(header); c++ {
			member, err := formats.ParseMember(pivotSet, header[c], location(sheet, c+1, 1), false)
			if err != nil {
				return err
			}
			pivotMembers = append(pivotMembers, member)
		}
	}

	registry := model.Registry()
	for i, row := range rows[1:] {
		rowNum := i + 2
		if blank(row) {
			continue
		}
		leadingTokens := make([]string, len(l.leading))
		for c := range l.leading {
			if c < len(row) {
				leadingTokens[c] = row[c]
			}
		}
		if narrow {
			token := cellAt(row, len(l.leading))
			if strings.TrimSpace(token) == "" {
				continue
			}
			tuple, err := formats.ParseIndex(registry, entry, leadingTokens, location(sheet, 1, rowNum), r.opts.KeepWhitespace)
			if err != nil {
				return err
			}
			value, err := formats.ParseValue(entry, token, location(sheet, len(l.leading)+1, rowNum))
			if err != nil {
				return err
			}
			if err := table.Add(tuple, value); err != nil {
				return err
			}
			continue
		}
		for p, member := range pivotMembers {
			col := len(l.leading) + p
			token := cellAt(row, col)
			if strings.TrimSpace(token) == "" {
				continue
			}
			tuple, err := formats.ParseIndex(registry, entry, l.tuple(leadingTokens, member), location(sheet, 1, rowNum), r.opts.KeepWhitespace)
			if err != nil {
				return err
			}
			value, err := formats.ParseValue(entry, token, location(sheet, col+1, rowNum))
			if err != nil {
				return err
			}
			if err := table.Add(tuple, value); err != nil {
				return err
			}
		}
	}
	return nil
}

func cellAt(row []string, col int) string {
	if col < len(row) {
		return row[col]
	}
	return ""
}

func blank(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

func location(sheet string, col, row int) string {
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return sheet
	}
	return sheet + "!" + cell
}
