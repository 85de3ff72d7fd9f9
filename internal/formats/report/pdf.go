// Package report renders a dataset summary as a PDF.
package report

import (
	"bytes"
	"context"
	"fmt"
	"os"

	"github.com/jung-kurt/gofpdf"

	dataset "energymodel-convert/internal/dataset/domain"
	"energymodel-convert/internal/formats"
	schema "energymodel-convert/internal/schema/domain"
)

// DefaultMaxRows bounds each result detail table.
const DefaultMaxRows = 20

const pageWidth = 190.0

// Writer renders PDF reports. It has no reader counterpart.
type Writer struct {
	opts    formats.Options
	title   string
	maxRows int
}

// Option configures a Writer.
type Option func(*Writer)

// WithTitle sets the report heading.
func WithTitle(title string) Option {
	return func(w *Writer) {
		if title != "" {
			w.title = title
		}
	}
}

// WithMaxRows bounds each detail table; values below 1 keep the default.
func WithMaxRows(n int) Option {
	return func(w *Writer) {
		if n > 0 {
			w.maxRows = n
		}
	}
}

// WithFormatOptions applies shared adapter options.
func WithFormatOptions(opts ...formats.Option) Option {
	return func(w *Writer) {
		w.opts = formats.NewOptions(opts...)
	}
}

// NewWriter constructs a report writer.
func NewWriter(opts ...Option) *Writer {
	w := &Writer{opts: formats.NewOptions(), title: "Energy Model Dataset", maxRows: DefaultMaxRows}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Write saves the report at destination.
func (w *Writer) Write(ctx context.Context, model *dataset.Model, destination string) error {
	data, err := w.Build(ctx, model)
	if err != nil {
		return err
	}
	if err := os.WriteFile(destination, data, 0o644); err != nil {
		return fmt.Errorf("report: write %s: %w", destination, err)
	}
	return nil
}

// Build renders the report.
func (w *Writer) Build(ctx context.Context, model *dataset.Model) ([]byte, error) {
	entries := w.opts.Entities(model)

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetFont("Arial", "", 12)
	pdf.AddPage()

	pdf.Cell(0, 8, w.title)
	pdf.Ln(10)

	pdf.SetFont("Arial", "B", 10)
	pdf.CellFormat(110, 6, "Entity", "1", 0, "C", false, 0, "")
	pdf.CellFormat(30, 6, "Kind", "1", 0, "C", false, 0, "")
	pdf.CellFormat(40, 6, "Entries", "1", 0, "C", false, 0, "")
	pdf.Ln(-1)
	pdf.SetFont("Arial", "", 10)
	for _, entry := range entries {
		count := len(model.Members(entry.Name))
		if !entry.IsSet() {
			if table, ok := model.Table(entry.Name); ok {
				count = table.Len()
			} else {
				count = 0
			}
		}
		pdf.CellFormat(110, 6, entry.Name, "1", 0, "L", false, 0, "")
		pdf.CellFormat(30, 6, string(entry.Kind), "1", 0, "C", false, 0, "")
		pdf.CellFormat(40, 6, fmt.Sprintf("%d", count), "1", 0, "R", false, 0, "")
		pdf.Ln(-1)
	}

	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if entry.Kind != schema.KindResult {
			continue
		}
		table, ok := model.Table(entry.Name)
		if !ok || table.Len() == 0 {
			continue
		}
		w.detail(pdf, entry, table)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("report: render: %w", err)
	}
	return buf.Bytes(), nil
}

func (w *Writer) detail(pdf *gofpdf.Fpdf, entry schema.Entry, table *dataset.Table) {
	pdf.AddPage()
	pdf.SetFont("Arial", "", 12)
	pdf.Cell(0, 8, entry.Name)
	pdf.Ln(10)

	headers := append(entry.IndexLabels(), "VALUE")
	width := pageWidth / float64(len(headers))

	pdf.SetFont("Arial", "B", 8)
	for _, h := range headers {
		pdf.CellFormat(width, 6, h, "1", 0, "C", false, 0, "")
	}
	pdf.Ln(-1)
	pdf.SetFont("Arial", "", 8)

	rows := table.Rows()
	for i, row := range rows {
		if i == w.maxRows {
			break
		}
		for _, member := range row.Index {
			pdf.CellFormat(width, 6, member, "1", 0, "L", false, 0, "")
		}
		pdf.CellFormat(width, 6, formats.FormatValue(row.Value), "1", 0, "R", false, 0, "")
		pdf.Ln(-1)
	}
	if len(rows) > w.maxRows {
		pdf.Ln(2)
		pdf.Cell(0, 6, fmt.Sprintf("%d of %d rows shown", w.maxRows, len(rows)))
	}
}
