package dataset

import "sort"

// Row is one index tuple and its value.
type Row struct {
	Index []string
	Value float64
}

type cell struct {
	index []string
	value float64
}

// Table is the sparse canonical table of one parameter or result.
// Absent tuples hold the default value.
type Table struct {
	name    string
	indices []string
	def     float64
	cells   map[string]cell
}

// NewTable constructs an empty table.
func NewTable(name string, indices []string, def float64) *Table {
	return &Table{
		name:    name,
		indices: append([]string(nil), indices...),
		def:     def,
		cells:   make(map[string]cell),
	}
}

// Name returns the entity name.
func (t *Table) Name() string { return t.name }

// Indices returns the index set names in order.
func (t *Table) Indices() []string { return append([]string(nil), t.indices...) }

// Default returns the value of absent tuples.
func (t *Table) Default() float64 { return t.def }

// Len returns the number of stored tuples.
func (t *Table) Len() int { return len(t.cells) }

func (t *Table) checkArity(tuple []string) error {
	if len(tuple) != len(t.indices) {
		return &ShapeError{Entity: t.name, Want: len(t.indices), Got: len(tuple), Tuple: append([]string(nil), tuple...)}
	}
	return nil
}

// Set stores value at tuple, replacing any previous value.
func (t *Table) Set(tuple []string, value float64) error {
	if err := t.checkArity(tuple); err != nil {
		return err
	}
	t.cells[Key(tuple)] = cell{index: append([]string(nil), tuple...), value: value}
	return nil
}

// Add stores value at tuple and rejects a repeated tuple with a different value.
func (t *Table) Add(tuple []string, value float64) error {
	if err := t.checkArity(tuple); err != nil {
		return err
	}
	key := Key(tuple)
	if existing, ok := t.cells[key]; ok {
		if existing.value == value {
			return nil
		}
		return &DuplicateIndexError{Entity: t.name, Tuple: append([]string(nil), tuple...), Existing: existing.value, Value: value}
	}
	t.cells[key] = cell{index: append([]string(nil), tuple...), value: value}
	return nil
}

// Get returns the stored value at tuple.
func (t *Table) Get(tuple []string) (float64, bool) {
	c, ok := t.cells[Key(tuple)]
	return c.value, ok
}

// Value returns the stored value or the default.
func (t *Table) Value(tuple []string) float64 {
	if c, ok := t.cells[Key(tuple)]; ok {
		return c.value
	}
	return t.def
}

// Delete removes tuple from storage.
func (t *Table) Delete(tuple []string) {
	delete(t.cells, Key(tuple))
}

// Rows returns the stored tuples in sorted order.
func (t *Table) Rows() []Row {
	rows := make([]Row, 0, len(t.cells))
	for _, c := range t.cells {
		rows = append(rows, Row{Index: append([]string(nil), c.index...), Value: c.value})
	}
	sort.Slice(rows, func(i, j int) bool {
		return CompareTuples(rows[i].Index, rows[j].Index) < 0
	})
	return rows
}

// Clone returns a deep copy.
func (t *Table) Clone() *Table {
	out := NewTable(t.name, t.indices, t.def)
	for key, c := range t.cells {
		out.cells[key] = cell{index: append([]string(nil), c.index...), value: c.value}
	}
	return out
}

// Sparse returns a copy without the entries exactly equal to the default.
func (t *Table) Sparse() *Table {
	out := NewTable(t.name, t.indices, t.def)
	for key, c := range t.cells {
		if c.value == t.def {
			continue
		}
		out.cells[key] = cell{index: append([]string(nil), c.index...), value: c.value}
	}
	return out
}
