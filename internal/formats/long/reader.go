// Package long reads and writes folders of CSV files, one file per entity
// with one row per index tuple.
package long

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	dataset "energymodel-convert/internal/dataset/domain"
	"energymodel-convert/internal/formats"
	schema "energymodel-convert/internal/schema/domain"
)

const (
	valueHeader      = "VALUE"
	extension        = ".csv"
	deprecatedFile   = "default_values.csv"
	deprecatedSource = "data/default_values.csv"
)

// Reader loads a CSV folder.
type Reader struct {
	opts formats.Options
}

// NewReader constructs a reader.
func NewReader(opts ...formats.Option) *Reader {
	return &Reader{opts: formats.NewOptions(opts...)}
}

// Read loads every <NAME>.csv under the folder source.
func (r *Reader) Read(ctx context.Context, source string, registry *schema.Registry) (*dataset.Model, error) {
	info, err := os.Stat(source)
	if err != nil {
		return nil, fmt.Errorf("long: stat %s: %w", source, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s", ErrNotDirectory, source)
	}
	if _, err := os.Stat(filepath.Join(filepath.Dir(filepath.Clean(source)), deprecatedFile)); err == nil {
		return nil, fmt.Errorf("%w (%s)", ErrDeprecatedDefaults, deprecatedSource)
	}

	files, err := os.ReadDir(source)
	if err != nil {
		return nil, fmt.Errorf("long: list %s: %w", source, err)
	}
	model, err := dataset.NewModel(registry)
	if err != nil {
		return nil, err
	}

	entries := make(map[string]string)
	for _, file := range files {
		if file.IsDir() || !strings.EqualFold(filepath.Ext(file.Name()), extension) {
			continue
		}
		base := strings.TrimSuffix(file.Name(), filepath.Ext(file.Name()))
		name, ok := registry.Resolve(base)
		if !ok {
			if err := r.opts.Mismatch(base, file.Name()); err != nil {
				return nil, err
			}
			continue
		}
		entries[name] = filepath.Join(source, file.Name())
	}

	// sets first, then tables in name order
	names := make([]string, 0, len(entries))
	for name := range entries {
		names = append(names, name)
	}
	sort.SliceStable(names, func(i, j int) bool {
		a, _ := registry.Entry(names[i])
		b, _ := registry.Entry(names[j])
		if a.IsSet() != b.IsSet() {
			return a.IsSet()
		}
		return names[i] < names[j]
	})

	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		entry, _ := registry.Entry(name)
		file, err := os.Open(entries[name])
		if err != nil {
			return nil, fmt.Errorf("long: open %s: %w", entries[name], err)
		}
		err = r.readEntity(model, entry, filepath.Base(entries[name]), file)
		file.Close()
		if err != nil {
			return nil, err
		}
	}
	return model, nil
}

// ReadEntity loads one entity's CSV stream into model.
func (r *Reader) ReadEntity(model *dataset.Model, name string, in io.Reader) error {
	entry, err := model.Registry().Lookup(name)
	if err != nil {
		return err
	}
	return r.readEntity(model, entry, entry.Name+extension, in)
}

func (r *Reader) readEntity(model *dataset.Model, entry schema.Entry, source string, in io.Reader) error {
	reader := csv.NewReader(in)
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil {
		var parseErr *csv.ParseError
		if errors.As(err, &parseErr) {
			return &formats.FormatError{Entity: entry.Name, Location: source + ":" + strconv.Itoa(parseErr.Line), Reason: parseErr.Err.Error()}
		}
		return fmt.Errorf("long: read %s: %w", source, err)
	}

	want := []string{valueHeader}
	if !entry.IsSet() {
		want = append(entry.IndexLabels(), valueHeader)
	}

	if len(records) == 0 {
		if entry.IsSet() {
			return model.PutSet(entry.Name, nil)
		}
		_, err := model.TableFor(entry.Name)
		return err
	}
	header := make([]string, len(records[0]))
	for i, cell := range records[0] {
		header[i] = formats.NormaliseHeader(strings.TrimPrefix(cell, "\ufeff"))
	}
	if !sameHeader(header, want, entry) {
		return &formats.FormatError{
			Entity:   entry.Name,
			Location: source + ":1",
			Token:    strings.Join(records[0], ","),
			Reason:   "expected header " + strings.Join(want, ","),
		}
	}

	if entry.IsSet() {
		members := make([]string, 0, len(records)-1)
		for i, record := range records[1:] {
			if blank(record) {
				continue
			}
			member, err := formats.ParseMember(entry, record[0], lineOf(source, i+2), r.opts.KeepWhitespace)
			if err != nil {
				return err
			}
			members = append(members, member)
		}
		return model.PutSet(entry.Name, members)
	}

	table, err := model.TableFor(entry.Name)
	if err != nil {
		return err
	}
	registry := model.Registry()
	arity := entry.Arity()
	for i, record := range records[1:] {
		if blank(record) {
			continue
		}
		location := lineOf(source, i+2)
		if len(record) != arity+1 {
			return &formats.FormatError{Entity: entry.Name, Location: location, Token: strings.Join(record, ","), Reason: "wrong number of columns"}
		}
		tuple, err := formats.ParseIndex(registry, entry, record[:arity], location, r.opts.KeepWhitespace)
		if err != nil {
			return err
		}
		value, err := formats.ParseValue(entry, record[arity], location)
		if err != nil {
			return err
		}
		if err := table.Add(tuple, value); err != nil {
			return err
		}
	}
	return nil
}

// sameHeader accepts either the deduplicated labels or the raw index names.
func sameHeader(header, want []string, entry schema.Entry) bool {
	if equal(header, want) {
		return true
	}
	if entry.IsSet() {
		return false
	}
	return equal(header, append(append([]string(nil), entry.Indices...), valueHeader))
}

func equal(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func blank(record []string) bool {
	for _, cell := range record {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

func lineOf(source string, line int) string {
	return source + ":" + strconv.Itoa(line)
}
