// Package datafile reads and writes the algebraic modelling language data
// block format: set and param statements terminated by end;.
package datafile

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"

	dataset "energymodel-convert/internal/dataset/domain"
	"energymodel-convert/internal/formats"
	schema "energymodel-convert/internal/schema/domain"
)

const wildcard = "*"

// Reader loads a datafile.
type Reader struct {
	opts formats.Options
}

// NewReader constructs a reader.
func NewReader(opts ...formats.Option) *Reader {
	return &Reader{opts: formats.NewOptions(opts...)}
}

// Read opens and parses the datafile at source.
func (r *Reader) Read(ctx context.Context, source string, registry *schema.Registry) (*dataset.Model, error) {
	file, err := os.Open(source)
	if err != nil {
		return nil, fmt.Errorf("datafile: open %s: %w", source, err)
	}
	defer file.Close()
	return r.ReadFrom(ctx, file, registry)
}

// ReadFrom parses a datafile stream.
func (r *Reader) ReadFrom(ctx context.Context, in io.Reader, registry *schema.Registry) (*dataset.Model, error) {
	tokens, err := lex(in)
	if err != nil {
		return nil, err
	}
	model, err := dataset.NewModel(registry)
	if err != nil {
		return nil, err
	}
	p := &parser{tokens: tokens, model: model, opts: r.opts}
	if err := p.parse(ctx); err != nil {
		return nil, err
	}
	return model, nil
}

type parser struct {
	tokens []token
	pos    int
	model  *dataset.Model
	opts   formats.Options
}

func (p *parser) peek() token { return p.tokens[p.pos] }

func (p *parser) next() token {
	t := p.tokens[p.pos]
	if t.kind != tokEOF {
		p.pos++
	}
	return t
}

func (p *parser) errorf(entity string, t token, format string, args ...any) error {
	return &formats.FormatError{
		Entity:   entity,
		Location: fmt.Sprintf("line %d", t.line),
		Token:    t.String(),
		Reason:   fmt.Sprintf(format, args...),
	}
}

func (p *parser) expect(entity string, kind tokenKind, what string) (token, error) {
	t := p.next()
	if t.kind != kind {
		return t, p.errorf(entity, t, "expected %s", what)
	}
	return t, nil
}

func (p *parser) parse(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		t := p.next()
		switch {
		case t.kind == tokEOF:
			return nil
		case t.kind == tokSemi:
			continue
		case t.kind == tokWord && t.text == "end":
			// anything after end; is ignored
			return nil
		case t.kind == tokWord && t.text == "data":
			continue
		case t.kind == tokWord && t.text == "set":
			if err := p.parseSet(); err != nil {
				return err
			}
		case t.kind == tokWord && t.text == "param":
			if err := p.parseParam(); err != nil {
				return err
			}
		default:
			return p.errorf("", t, "expected set, param or end")
		}
	}
}

// skipStatement discards tokens up to and including the next semicolon.
func (p *parser) skipStatement() {
	for {
		t := p.next()
		if t.kind == tokSemi || t.kind == tokEOF {
			return
		}
	}
}

// entity resolves a statement's entity name, applying the mismatch policy.
// ok is false when the statement should be skipped.
func (p *parser) entity(t token) (schema.Entry, bool, error) {
	name, found := p.model.Registry().Resolve(t.text)
	if !found {
		if err := p.opts.Mismatch(t.text, fmt.Sprintf("line %d", t.line)); err != nil {
			return schema.Entry{}, false, err
		}
		return schema.Entry{}, false, nil
	}
	entry, _ := p.model.Registry().Entry(name)
	return entry, true, nil
}

func (p *parser) parseSet() error {
	nameTok, err := p.expect("", tokWord, "set name")
	if err != nil {
		return err
	}
	entry, ok, err := p.entity(nameTok)
	if err != nil {
		return err
	}
	if !ok {
		p.skipStatement()
		return nil
	}
	if !entry.IsSet() {
		return p.errorf(entry.Name, nameTok, "%s is declared as a %s, not a set", entry.Name, entry.Kind)
	}
	if _, err := p.expect(entry.Name, tokAssign, ":="); err != nil {
		return err
	}
	var members []string
	for {
		t := p.next()
		switch t.kind {
		case tokSemi:
			return p.model.PutSet(entry.Name, members)
		case tokWord, tokQuoted:
			member, err := formats.ParseMember(entry, t.text, fmt.Sprintf("line %d", t.line), p.opts.KeepWhitespace || t.kind == tokQuoted)
			if err != nil {
				return err
			}
			members = append(members, member)
		case tokComma:
			continue
		default:
			return p.errorf(entry.Name, t, "unexpected token in set")
		}
	}
}

// parseParam accepts both "param default D : NAME := ..." and
// "param NAME [default D] [: cols] := ...".
func (p *parser) parseParam() error {
	var fileDefault *float64
	readDefault := func(entity string) error {
		t := p.next()
		v, err := strconv.ParseFloat(t.text, 64)
		if err != nil {
			return p.errorf(entity, t, "default is not numeric")
		}
		fileDefault = &v
		return nil
	}

	t := p.next()
	if t.kind == tokWord && t.text == "default" {
		if err := readDefault(""); err != nil {
			return err
		}
		if _, err := p.expect("", tokColon, ":"); err != nil {
			return err
		}
		t = p.next()
	}
	if t.kind != tokWord {
		return p.errorf("", t, "expected parameter name")
	}
	nameTok := t
	entry, ok, err := p.entity(nameTok)
	if err != nil {
		return err
	}
	if !ok {
		p.skipStatement()
		return nil
	}
	if entry.IsSet() {
		return p.errorf(entry.Name, nameTok, "%s is a set, not a parameter", entry.Name)
	}
	if p.peek().kind == tokWord && p.peek().text == "default" {
		p.next()
		if err := readDefault(entry.Name); err != nil {
			return err
		}
	}
	if fileDefault != nil && *fileDefault != entry.Default {
		p.opts.Logger.Printf("warning: %s default %s in datafile differs from configured %s, using configured value",
			entry.Name, formats.FormatValue(*fileDefault), formats.FormatValue(entry.Default))
	}

	var columns []token
	if p.peek().kind == tokColon {
		p.next()
		for p.peek().kind == tokWord || p.peek().kind == tokQuoted {
			columns = append(columns, p.next())
		}
	}
	if _, err := p.expect(entry.Name, tokAssign, ":="); err != nil {
		return err
	}

	table, err := p.model.TableFor(entry.Name)
	if err != nil {
		return err
	}
	b := &body{parser: p, entry: entry, table: table, columns: columns}
	return b.parse()
}

// body parses the records of one param statement, tracking slices.
type body struct {
	*parser
	entry   schema.Entry
	table   *dataset.Table
	columns []token
	slice   []string // fixed members, wildcard for free positions
}

func (b *body) free() []int {
	if b.slice == nil {
		out := make([]int, b.entry.Arity())
		for i := range out {
			out[i] = i
		}
		return out
	}
	var out []int
	for i, member := range b.slice {
		if member == wildcard {
			out = append(out, i)
		}
	}
	return out
}

func (b *body) parse() error {
	var pending []token
	for {
		t := b.next()
		switch t.kind {
		case tokSemi:
			if len(pending) > 0 {
				return b.errorf(b.entry.Name, t, "incomplete record")
			}
			return nil
		case tokLBracket:
			if len(pending) > 0 {
				return b.errorf(b.entry.Name, t, "incomplete record before slice")
			}
			if err := b.parseSlice(); err != nil {
				return err
			}
		case tokColon:
			// a new tabular header inside the same statement
			if len(pending) > 0 {
				return b.errorf(b.entry.Name, t, "incomplete record before table header")
			}
			b.columns = nil
			for b.peek().kind == tokWord || b.peek().kind == tokQuoted {
				b.columns = append(b.columns, b.next())
			}
			if _, err := b.expect(b.entry.Name, tokAssign, ":="); err != nil {
				return err
			}
		case tokWord, tokQuoted:
			pending = append(pending, t)
			done, err := b.record(pending)
			if err != nil {
				return err
			}
			if done {
				pending = pending[:0]
			}
		case tokComma:
			continue
		default:
			return b.errorf(b.entry.Name, t, "unexpected token in parameter data")
		}
	}
}

func (b *body) parseSlice() error {
	var slice []string
	for {
		t := b.next()
		switch t.kind {
		case tokRBracket:
			if len(slice) != b.entry.Arity() {
				return b.errorf(b.entry.Name, t, "slice has %d positions, expected %d", len(slice), b.entry.Arity())
			}
			b.slice = slice
			return nil
		case tokComma:
			continue
		case tokWord, tokQuoted:
			slice = append(slice, t.text)
		default:
			return b.errorf(b.entry.Name, t, "unexpected token in slice")
		}
	}
}

// record stores pending once it holds a complete record and reports
// whether it did.
func (b *body) record(pending []token) (bool, error) {
	free := b.free()
	if len(b.columns) > 0 {
		if len(free) != 2 {
			return false, b.errorf(b.entry.Name, pending[0], "tabular data needs exactly two free indices, got %d", len(free))
		}
		if len(pending) < len(b.columns)+1 {
			return false, nil
		}
		for c, column := range b.columns {
			valueTok := pending[c+1]
			if valueTok.text == "." {
				continue
			}
			if err := b.store(free, []token{pending[0], column}, valueTok); err != nil {
				return false, err
			}
		}
		return true, nil
	}
	if len(pending) < len(free)+1 {
		return false, nil
	}
	return true, b.store(free, pending[:len(free)], pending[len(free)])
}

func (b *body) store(free []int, members []token, valueTok token) error {
	location := fmt.Sprintf("line %d", valueTok.line)
	raw := make([]string, b.entry.Arity())
	copy(raw, b.slice)
	for i, pos := range free {
		raw[pos] = members[i].text
	}
	keep := b.opts.KeepWhitespace
	tuple := make([]string, len(raw))
	registry := b.model.Registry()
	for i, text := range raw {
		set, _ := registry.Entry(b.entry.Indices[i])
		member, err := formats.ParseMember(set, text, location, keep)
		if err != nil {
			return err
		}
		tuple[i] = member
	}
	value, err := formats.ParseValue(b.entry, valueTok.text, location)
	if err != nil {
		return err
	}
	return b.table.Add(tuple, value)
}
