package datafile

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	dataset "energymodel-convert/internal/dataset/domain"
	"energymodel-convert/internal/formats"
	schema "energymodel-convert/internal/schema/domain"
)

const header = "# Model file written by energymodel-convert\n"

// Writer renders a model as a datafile.
type Writer struct {
	opts formats.Options
}

// NewWriter constructs a writer.
func NewWriter(opts ...formats.Option) *Writer {
	return &Writer{opts: formats.NewOptions(opts...)}
}

// Write creates the datafile at destination.
func (w *Writer) Write(ctx context.Context, model *dataset.Model, destination string) error {
	file, err := os.Create(destination)
	if err != nil {
		return fmt.Errorf("datafile: create %s: %w", destination, err)
	}
	defer file.Close()
	if err := w.WriteTo(ctx, model, file); err != nil {
		return err
	}
	return file.Close()
}

// WriteTo streams the datafile to out.
func (w *Writer) WriteTo(ctx context.Context, model *dataset.Model, out io.Writer) error {
	buf := bufio.NewWriter(out)
	if _, err := buf.WriteString(header); err != nil {
		return err
	}
	for _, entry := range w.opts.Entities(model) {
		if err := ctx.Err(); err != nil {
			return err
		}
		var err error
		if entry.IsSet() {
			err = writeSet(buf, entry.Name, model.Members(entry.Name))
		} else {
			err = w.writeParam(buf, model, entry)
		}
		if err != nil {
			return fmt.Errorf("datafile: %s: %w", entry.Name, err)
		}
	}
	if _, err := buf.WriteString("end;\n"); err != nil {
		return err
	}
	return buf.Flush()
}

func writeSet(buf *bufio.Writer, name string, members []string) error {
	fmt.Fprintf(buf, "set %s :=\n", name)
	for _, member := range members {
		buf.WriteString(quote(member))
		buf.WriteByte('\n')
	}
	_, err := buf.WriteString(";\n")
	return err
}

func (w *Writer) writeParam(buf *bufio.Writer, model *dataset.Model, entry schema.Entry) error {
	rows, err := formats.OutputRows(model, entry.Name, w.opts.WriteDefaults)
	if err != nil {
		return err
	}
	if !w.opts.WriteDefaults {
		kept := rows[:0]
		for _, row := range rows {
			if row.Value != entry.Default {
				kept = append(kept, row)
			}
		}
		rows = kept
	}

	var widths []int
	if w.opts.KeepWhitespace {
		widths = make([]int, entry.Arity())
		for _, row := range rows {
			for i, member := range row.Index {
				if n := len(quote(member)); n > widths[i] {
					widths[i] = n
				}
			}
		}
	}

	fmt.Fprintf(buf, "param default %s : %s :=\n", formats.FormatValue(entry.Default), entry.Name)
	for _, row := range rows {
		for i, member := range row.Index {
			q := quote(member)
			buf.WriteString(q)
			if widths != nil {
				buf.WriteString(strings.Repeat(" ", widths[i]-len(q)))
			}
			buf.WriteByte(' ')
		}
		buf.WriteString(formats.FormatValue(row.Value))
		buf.WriteByte('\n')
	}
	_, err = buf.WriteString(";\n")
	return err
}

// quote wraps members that would not survive tokenisation. Embedded single
// quotes are doubled.
func quote(member string) string {
	if member == "" || strings.ContainsAny(member, " \t\n#;:,[]'\"") {
		return "'" + strings.ReplaceAll(member, "'", "''") + "'"
	}
	return member
}
