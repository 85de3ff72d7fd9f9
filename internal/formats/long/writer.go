package long

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"

	dataset "energymodel-convert/internal/dataset/domain"
	"energymodel-convert/internal/formats"
	schema "energymodel-convert/internal/schema/domain"
)

// Writer renders a model as a folder of CSV files.
type Writer struct {
	opts formats.Options
}

// NewWriter constructs a writer.
func NewWriter(opts ...formats.Option) *Writer {
	return &Writer{opts: formats.NewOptions(opts...)}
}

// Write creates destination if needed and writes one file per entity.
func (w *Writer) Write(ctx context.Context, model *dataset.Model, destination string) error {
	_, err := w.WriteFiles(ctx, model, destination)
	return err
}

// WriteFiles is Write returning the file names it produced, in write order.
func (w *Writer) WriteFiles(ctx context.Context, model *dataset.Model, destination string) ([]string, error) {
	if err := os.MkdirAll(destination, 0o755); err != nil {
		return nil, fmt.Errorf("long: create %s: %w", destination, err)
	}
	var written []string
	for _, entry := range w.opts.Entities(model) {
		if err := ctx.Err(); err != nil {
			return written, err
		}
		name := entry.Name + extension
		if err := w.writeFile(model, entry, filepath.Join(destination, name)); err != nil {
			return written, err
		}
		written = append(written, name)
	}
	return written, nil
}

func (w *Writer) writeFile(model *dataset.Model, entry schema.Entry, path string) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("long: create %s: %w", path, err)
	}
	defer file.Close()
	if err := w.WriteEntity(model, entry.Name, file); err != nil {
		return err
	}
	return file.Close()
}

// WriteEntity writes one entity's CSV to out.
func (w *Writer) WriteEntity(model *dataset.Model, name string, out io.Writer) error {
	entry, err := model.Registry().Lookup(name)
	if err != nil {
		return err
	}
	writer := csv.NewWriter(out)

	if entry.IsSet() {
		if err := writer.Write([]string{valueHeader}); err != nil {
			return err
		}
		for _, member := range model.Members(entry.Name) {
			if err := writer.Write([]string{member}); err != nil {
				return err
			}
		}
		writer.Flush()
		return writer.Error()
	}

	if err := writer.Write(append(entry.IndexLabels(), valueHeader)); err != nil {
		return err
	}
	rows, err := formats.OutputRows(model, entry.Name, w.opts.WriteDefaults)
	if err != nil {
		return err
	}
	for _, row := range rows {
		record := make([]string, 0, len(row.Index)+1)
		record = append(record, row.Index...)
		record = append(record, formats.FormatFloat(row.Value))
		if err := writer.Write(record); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}
