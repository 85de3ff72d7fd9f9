// Package solver parses solver solution files into result tables.
package solver

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"sort"
	"strings"

	dataset "energymodel-convert/internal/dataset/domain"
	"energymodel-convert/internal/formats"
	schema "energymodel-convert/internal/schema/domain"
)

// Record is one variable value read off a solution line.
type Record struct {
	Variable string
	Index    []string
	Value    float64
	Line     int
}

// Parser turns one solver dialect into a results-only model. base is the
// input dataset; dialects that need context from it say so.
type Parser interface {
	Dialect() string
	Parse(ctx context.Context, in io.Reader, registry *schema.Registry, base *dataset.Model) (*dataset.Model, error)
}

// Options configure every parser.
type Options struct {
	Policy         formats.Policy
	KeepWhitespace bool
	SortInput      bool
	ModelFile      string
	Logger         *log.Logger
}

// Option configures Options.
type Option func(*Options)

// WithPolicy sets the unknown variable policy.
func WithPolicy(policy formats.Policy) Option {
	return func(o *Options) { o.Policy = policy }
}

// WithKeepWhitespace keeps whitespace around index members.
func WithKeepWhitespace(keep bool) Option {
	return func(o *Options) { o.KeepWhitespace = keep }
}

// WithSortInput sorts CPLEX lines by variable in memory instead of failing.
func WithSortInput(sortInput bool) Option {
	return func(o *Options) { o.SortInput = sortInput }
}

// WithModelFile names the GLPK model file written with --wglp.
func WithModelFile(path string) Option {
	return func(o *Options) { o.ModelFile = path }
}

// WithLogger sets the logger used for warnings.
func WithLogger(logger *log.Logger) Option {
	return func(o *Options) {
		if logger != nil {
			o.Logger = logger
		}
	}
}

func newOptions(opts ...Option) Options {
	o := Options{Policy: formats.PolicyWarn, Logger: log.New(io.Discard, "", 0)}
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	return o
}

func (o Options) formatOptions() formats.Options {
	return formats.NewOptions(formats.WithPolicy(o.Policy), formats.WithLogger(o.Logger))
}

type constructor func(Options) Parser

var dialects = map[string]constructor{
	"cbc":    func(o Options) Parser { return &CBC{opts: o} },
	"gurobi": func(o Options) Parser { return &Gurobi{opts: o} },
	"highs":  func(o Options) Parser { return &HiGHS{opts: o} },
	"cplex":  func(o Options) Parser { return &CPLEX{opts: o} },
	"glpk":   func(o Options) Parser { return &GLPK{opts: o} },
}

// Parsers lists the registered dialects, sorted.
func Parsers() []string {
	names := make([]string, 0, len(dialects))
	for name := range dialects {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ParserFor returns the parser for dialect.
func ParserFor(dialect string, opts ...Option) (Parser, error) {
	construct, ok := dialects[strings.ToLower(strings.TrimSpace(dialect))]
	if !ok {
		return nil, fmt.Errorf("%w: %q (want one of %s)", ErrUnknownDialect, dialect, strings.Join(Parsers(), ", "))
	}
	return construct(newOptions(opts...)), nil
}

// ParseFile opens path and runs p over it.
func ParseFile(ctx context.Context, p Parser, path string, registry *schema.Registry, base *dataset.Model) (*dataset.Model, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("solver: open %s: %w", path, err)
	}
	defer file.Close()
	return p.Parse(ctx, file, registry, base)
}

// build routes records into result tables of a fresh model.
func build(ctx context.Context, records []Record, registry *schema.Registry, opts Options) (*dataset.Model, error) {
	model, err := dataset.NewModel(registry)
	if err != nil {
		return nil, err
	}
	fopts := opts.formatOptions()
	skipped := make(map[string]bool)
	for i, rec := range records {
		if i%1024 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		if skipped[rec.Variable] {
			continue
		}
		location := fmt.Sprintf("line %d", rec.Line)
		entry, ok := resultEntry(registry, rec.Variable)
		if !ok {
			if err := fopts.Mismatch(rec.Variable, location); err != nil {
				return nil, err
			}
			skipped[rec.Variable] = true
			continue
		}
		tuple, err := formats.ParseIndex(registry, entry, rec.Index, location, opts.KeepWhitespace)
		if err != nil {
			return nil, err
		}
		table, err := model.TableFor(entry.Name)
		if err != nil {
			return nil, err
		}
		if err := table.Add(tuple, rec.Value); err != nil {
			return nil, err
		}
	}
	return model, nil
}

// resultEntry matches a solver variable against result names, then short names.
func resultEntry(registry *schema.Registry, variable string) (schema.Entry, bool) {
	if entry, ok := registry.Entry(variable); ok && entry.Kind == schema.KindResult {
		return entry, true
	}
	if name, ok := registry.NameForShort(variable); ok {
		if entry, ok := registry.Entry(name); ok && entry.Kind == schema.KindResult {
			return entry, true
		}
	}
	return schema.Entry{}, false
}

// splitVariable parses "Name(i1,i2)" or "Name[i1,i2]" and the text after it.
func splitVariable(text string) (name string, index []string, rest string, ok bool) {
	open := strings.IndexAny(text, "([")
	if open <= 0 {
		return "", nil, "", false
	}
	closer := byte(')')
	if text[open] == '[' {
		closer = ']'
	}
	end := strings.IndexByte(text[open:], closer)
	if end < 0 {
		return "", nil, "", false
	}
	end += open
	head := strings.TrimSpace(text[:open])
	if fields := strings.Fields(head); len(fields) > 0 {
		name = fields[len(fields)-1]
	}
	if name == "" {
		return "", nil, "", false
	}
	inner := text[open+1 : end]
	if strings.TrimSpace(inner) != "" {
		for _, part := range strings.Split(inner, ",") {
			if t := strings.TrimSpace(part); len(t) >= 2 && (t[0] == '\'' || t[0] == '"') && t[len(t)-1] == t[0] {
				part = t[1 : len(t)-1]
			}
			index = append(index, part)
		}
	}
	return name, index, text[end+1:], true
}

func lineError(line int, raw, reason string) error {
	return &formats.FormatError{Location: fmt.Sprintf("line %d", line), Token: strings.TrimSpace(raw), Reason: reason}
}
