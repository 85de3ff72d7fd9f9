package results

import (
	"fmt"
	"sort"
	"strings"

	dataset "energymodel-convert/internal/dataset/domain"
	schema "energymodel-convert/internal/schema/domain"
)

// Universe supplies set members for frame dimensions.
type Universe interface {
	Members(set string) []string
}

type cell struct {
	index []string
	value float64
}

// Frame is a sparse function over named dimensions with a default for
// absent tuples. Dimension names are index labels; a leading underscore
// addresses a repeated set.
type Frame struct {
	dims     []string
	cells    map[string]cell
	def      float64
	universe Universe
}

// NewFrame returns an empty frame.
func NewFrame(universe Universe, def float64, dims ...string) *Frame {
	return &Frame{dims: append([]string(nil), dims...), cells: make(map[string]cell), def: def, universe: universe}
}

// FrameOf copies a table into a frame using the entry's index labels.
func FrameOf(universe Universe, entry schema.Entry, table *dataset.Table) *Frame {
	f := NewFrame(universe, entry.Default, entry.IndexLabels()...)
	if table == nil {
		return f
	}
	for _, row := range table.Rows() {
		f.Set(row.Index, row.Value)
	}
	return f
}

// Dims returns the dimension names.
func (f *Frame) Dims() []string { return append([]string(nil), f.dims...) }

// Default returns the value of absent tuples.
func (f *Frame) Default() float64 { return f.def }

// Len is the number of stored tuples.
func (f *Frame) Len() int { return len(f.cells) }

// Set stores value at index.
func (f *Frame) Set(index []string, value float64) {
	f.cells[dataset.Key(index)] = cell{index: append([]string(nil), index...), value: value}
}

// Value returns the stored value or the default.
func (f *Frame) Value(index ...string) float64 {
	if c, ok := f.cells[dataset.Key(index)]; ok {
		return c.value
	}
	return f.def
}

// Get returns the stored value at index without applying the default.
func (f *Frame) Get(index ...string) (float64, bool) {
	c, ok := f.cells[dataset.Key(index)]
	return c.value, ok
}

// Rows returns the stored tuples in sorted order.
func (f *Frame) Rows() []dataset.Row {
	keys := f.sortedKeys()
	rows := make([]dataset.Row, 0, len(keys))
	for _, key := range keys {
		c := f.cells[key]
		rows = append(rows, dataset.Row{Index: append([]string(nil), c.index...), Value: c.value})
	}
	return rows
}

func (f *Frame) sortedKeys() []string {
	keys := make([]string, 0, len(f.cells))
	for key := range f.cells {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		return dataset.CompareTuples(f.cells[keys[i]].index, f.cells[keys[j]].index) < 0
	})
	return keys
}

func (f *Frame) members(dim string) []string {
	if f.universe == nil {
		return nil
	}
	return f.universe.Members(schema.SetOfLabel(dim))
}

func (f *Frame) position(dim string) int {
	for i, d := range f.dims {
		if d == dim {
			return i
		}
	}
	return -1
}

// Dense fills every tuple of the dimensions' set product with the default.
// Stored tuples outside the product are kept.
func (f *Frame) Dense() *Frame {
	domains := make([][]string, len(f.dims))
	for i, dim := range f.dims {
		domains[i] = f.members(dim)
	}
	out := f.clone()
	for _, tuple := range dataset.Product(domains) {
		key := dataset.Key(tuple)
		if _, ok := out.cells[key]; !ok {
			out.cells[key] = cell{index: tuple, value: f.def}
		}
	}
	return out
}

func (f *Frame) clone() *Frame {
	out := NewFrame(f.universe, f.def, f.dims...)
	for key, c := range f.cells {
		out.cells[key] = c
	}
	return out
}

func (f *Frame) denseIfDefault() *Frame {
	if f.def != 0 {
		return f.Dense()
	}
	return f
}

// join pairs every cell of a with the cells of b that agree on shared
// dimensions. The result dimensions are a's followed by b's others.
func join(a, b *Frame, combine func(x, y float64) float64, def float64, bMissing *float64) *Frame {
	var shared, extra []int // positions in b
	var sharedA []int
	for j, dim := range b.dims {
		if i := a.position(dim); i >= 0 {
			shared = append(shared, j)
			sharedA = append(sharedA, i)
		} else {
			extra = append(extra, j)
		}
	}
	dims := append([]string(nil), a.dims...)
	for _, j := range extra {
		dims = append(dims, b.dims[j])
	}
	out := NewFrame(a.universe, def, dims...)

	byShared := make(map[string][]cell)
	for _, key := range b.sortedKeys() {
		c := b.cells[key]
		k := make([]string, len(shared))
		for n, j := range shared {
			k[n] = c.index[j]
		}
		sk := dataset.Key(k)
		byShared[sk] = append(byShared[sk], c)
	}

	for _, key := range a.sortedKeys() {
		ac := a.cells[key]
		k := make([]string, len(sharedA))
		for n, i := range sharedA {
			k[n] = ac.index[i]
		}
		matches := byShared[dataset.Key(k)]
		if len(matches) == 0 && bMissing != nil && len(extra) == 0 {
			out.Set(ac.index, combine(ac.value, *bMissing))
			continue
		}
		for _, bc := range matches {
			index := append([]string(nil), ac.index...)
			for _, j := range extra {
				index = append(index, bc.index[j])
			}
			out.Set(index, combine(ac.value, bc.value))
		}
	}
	return out
}

// Mul multiplies two frames, joining on shared dimensions.
func Mul(a, b *Frame) *Frame {
	return join(a.denseIfDefault(), b.denseIfDefault(), func(x, y float64) float64 { return x * y }, a.def*b.def, nil)
}

// Div divides a by b, joining on shared dimensions. A zero divisor gives
// zero.
func Div(a, b *Frame) *Frame {
	def := 0.0
	if b.def != 0 {
		def = a.def / b.def
	}
	bd := b.Dense()
	missing := b.def
	out := join(a.denseIfDefault(), bd, func(x, y float64) float64 {
		if y == 0 {
			return 0
		}
		return x / y
	}, def, &missing)
	return out
}

// Add sums two frames over the union of their tuples.
func Add(a, b *Frame) (*Frame, error) {
	return union(a, b, func(x, y float64) float64 { return x + y })
}

// Sub subtracts b from a over the union of their tuples.
func Sub(a, b *Frame) (*Frame, error) {
	return union(a, b, func(x, y float64) float64 { return x - y })
}

func union(a, b *Frame, combine func(x, y float64) float64) (*Frame, error) {
	aligned, err := b.Reorder(a.dims...)
	if err != nil {
		return nil, err
	}
	out := NewFrame(a.universe, combine(a.def, b.def), a.dims...)
	for key, c := range a.cells {
		out.cells[key] = cell{index: c.index, value: combine(c.value, aligned.Value(c.index...))}
	}
	for key, c := range aligned.cells {
		if _, ok := a.cells[key]; ok {
			continue
		}
		out.cells[key] = cell{index: c.index, value: combine(a.def, c.value)}
	}
	return out, nil
}

// Sum aggregates over every dimension not in keep, iterating tuples in
// sorted order.
func (f *Frame) Sum(keep ...string) (*Frame, error) {
	positions := make([]int, len(keep))
	for n, dim := range keep {
		i := f.position(dim)
		if i < 0 {
			return nil, fmt.Errorf("%w: %s not in %s", ErrDims, dim, strings.Join(f.dims, ","))
		}
		positions[n] = i
	}
	src := f.denseIfDefault()
	out := NewFrame(f.universe, 0, keep...)
	for _, key := range src.sortedKeys() {
		c := src.cells[key]
		index := make([]string, len(positions))
		for n, i := range positions {
			index[n] = c.index[i]
		}
		k := dataset.Key(index)
		acc, ok := out.cells[k]
		if !ok {
			acc = cell{index: index}
		}
		acc.value += c.value
		out.cells[k] = acc
	}
	return out, nil
}

// Reorder permutes the dimensions into dims.
func (f *Frame) Reorder(dims ...string) (*Frame, error) {
	if len(dims) != len(f.dims) {
		return nil, fmt.Errorf("%w: %s vs %s", ErrDims, strings.Join(f.dims, ","), strings.Join(dims, ","))
	}
	perm := make([]int, len(dims))
	for n, dim := range dims {
		i := f.position(dim)
		if i < 0 {
			return nil, fmt.Errorf("%w: %s vs %s", ErrDims, strings.Join(f.dims, ","), strings.Join(dims, ","))
		}
		perm[n] = i
	}
	out := NewFrame(f.universe, f.def, dims...)
	for _, c := range f.cells {
		index := make([]string, len(perm))
		for n, i := range perm {
			index[n] = c.index[i]
		}
		out.cells[dataset.Key(index)] = cell{index: index, value: c.value}
	}
	return out, nil
}

// Map replaces every stored value with fn(index, value).
func (f *Frame) Map(fn func(index []string, value float64) float64) *Frame {
	out := NewFrame(f.universe, f.def, f.dims...)
	for key, c := range f.cells {
		out.cells[key] = cell{index: c.index, value: fn(c.index, c.value)}
	}
	return out
}

// Table converts the frame into a sparse table for entry, dropping tuples
// exactly equal to the entry default.
func (f *Frame) Table(entry schema.Entry) (*dataset.Table, error) {
	ordered, err := f.Reorder(entry.IndexLabels()...)
	if err != nil {
		return nil, err
	}
	table := dataset.NewTable(entry.Name, entry.Indices, entry.Default)
	for _, row := range ordered.Rows() {
		if row.Value == entry.Default {
			continue
		}
		if err := table.Set(row.Index, row.Value); err != nil {
			return nil, err
		}
	}
	return table, nil
}
