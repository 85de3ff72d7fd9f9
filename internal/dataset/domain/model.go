package dataset

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	schema "energymodel-convert/internal/schema/domain"
)

// Model is the canonical in-memory dataset: set members and sparse tables
// keyed by entity name.
type Model struct {
	registry *schema.Registry
	sets     map[string][]string
	tables   map[string]*Table
}

// NewModel constructs an empty model bound to registry.
func NewModel(registry *schema.Registry) (*Model, error) {
	if registry == nil {
		return nil, ErrNilRegistry
	}
	return &Model{
		registry: registry,
		sets:     make(map[string][]string),
		tables:   make(map[string]*Table),
	}, nil
}

// Registry returns the schema the model is bound to.
func (m *Model) Registry() *schema.Registry {
	return m.registry
}

func (m *Model) entry(name string, kind ...schema.Kind) (schema.Entry, error) {
	entry, ok := m.registry.Entry(name)
	if !ok {
		return schema.Entry{}, fmt.Errorf("%w: %s", ErrUnknownEntity, name)
	}
	if len(kind) == 0 {
		return entry, nil
	}
	for _, k := range kind {
		if entry.Kind == k {
			return entry, nil
		}
	}
	return schema.Entry{}, fmt.Errorf("%w: %s is a %s", ErrWrongKind, name, entry.Kind)
}

// PutSet replaces the members of a set. Duplicates are dropped, integer sets
// are validated and sorted numerically.
func (m *Model) PutSet(name string, members []string) error {
	entry, err := m.entry(name, schema.KindSet)
	if err != nil {
		return err
	}
	seen := make(map[string]bool, len(members))
	out := make([]string, 0, len(members))
	for _, member := range members {
		if entry.ValueType == schema.TypeInt {
			if _, err := strconv.ParseInt(member, 10, 64); err != nil {
				return fmt.Errorf("%w: %s member %q", ErrInvalidMember, name, member)
			}
		}
		if seen[member] {
			continue
		}
		seen[member] = true
		out = append(out, member)
	}
	if entry.ValueType == schema.TypeInt {
		SortMembers(out)
	}
	m.sets[name] = out
	return nil
}

// Members returns a copy of the members of a set.
func (m *Model) Members(name string) []string {
	return append([]string(nil), m.sets[name]...)
}

// HasSet reports whether members were stored for name.
func (m *Model) HasSet(name string) bool {
	_, ok := m.sets[name]
	return ok
}

// Table returns the stored table for name.
func (m *Model) Table(name string) (*Table, bool) {
	t, ok := m.tables[name]
	return t, ok
}

// HasTable reports whether a table was stored for name.
func (m *Model) HasTable(name string) bool {
	_, ok := m.tables[name]
	return ok
}

// PutTable stores table under name. The table's indices must match the schema.
func (m *Model) PutTable(name string, table *Table) error {
	entry, err := m.entry(name, schema.KindParam, schema.KindResult)
	if err != nil {
		return err
	}
	if table == nil {
		table = NewTable(name, entry.Indices, entry.Default)
	}
	if len(table.indices) != entry.Arity() {
		return &ShapeError{Entity: name, Want: entry.Arity(), Got: len(table.indices)}
	}
	for _, c := range table.cells {
		if len(c.index) != entry.Arity() {
			return &ShapeError{Entity: name, Want: entry.Arity(), Got: len(c.index), Tuple: c.index}
		}
	}
	table.name = name
	table.indices = append([]string(nil), entry.Indices...)
	table.def = entry.Default
	m.tables[name] = table
	return nil
}

// TableFor returns the table for name, creating an empty one when absent.
func (m *Model) TableFor(name string) (*Table, error) {
	if t, ok := m.tables[name]; ok {
		return t, nil
	}
	entry, err := m.entry(name, schema.KindParam, schema.KindResult)
	if err != nil {
		return nil, err
	}
	t := NewTable(name, entry.Indices, entry.Default)
	m.tables[name] = t
	return t, nil
}

// Put adds one value, rejecting conflicting duplicates.
func (m *Model) Put(name string, tuple []string, value float64) error {
	t, err := m.TableFor(name)
	if err != nil {
		return err
	}
	return t.Add(tuple, value)
}

// DefaultOf returns the schema default of a parameter or result.
func (m *Model) DefaultOf(name string) (float64, error) {
	entry, err := m.entry(name, schema.KindParam, schema.KindResult)
	if err != nil {
		return 0, err
	}
	return entry.Default, nil
}

// ExpandDefaults returns a dense copy of the table holding every combination
// of index members, with the default substituted for absent tuples.
func (m *Model) ExpandDefaults(name string) (*Table, error) {
	entry, err := m.entry(name, schema.KindParam, schema.KindResult)
	if err != nil {
		return nil, err
	}
	source, ok := m.tables[name]
	if !ok {
		source = NewTable(name, entry.Indices, entry.Default)
	}
	domains := make([][]string, len(entry.Indices))
	for i, index := range entry.Indices {
		domains[i] = m.sets[index]
	}
	dense := NewTable(name, entry.Indices, entry.Default)
	for _, tuple := range Product(domains) {
		dense.cells[Key(tuple)] = cell{index: tuple, value: source.Value(tuple)}
	}
	return dense, nil
}

// Remove drops the stored set or table for name.
func (m *Model) Remove(name string) {
	delete(m.sets, name)
	delete(m.tables, name)
}

// Names returns the entities with stored data, sorted.
func (m *Model) Names() []string {
	names := make([]string, 0, len(m.sets)+len(m.tables))
	for name := range m.sets {
		names = append(names, name)
	}
	for name := range m.tables {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// NamesOfKind returns the stored entities of one kind, sorted.
func (m *Model) NamesOfKind(kind schema.Kind) []string {
	var names []string
	for _, name := range m.Names() {
		if entry, ok := m.registry.Entry(name); ok && entry.Kind == kind {
			names = append(names, name)
		}
	}
	return names
}

// Merge copies the stored data of other into m. When kinds is non-empty
// only entities of those kinds are copied.
func (m *Model) Merge(other *Model, kinds ...schema.Kind) error {
	if other == nil {
		return nil
	}
	wanted := func(name string) bool {
		if len(kinds) == 0 {
			return true
		}
		entry, ok := m.registry.Entry(name)
		if !ok {
			return false
		}
		for _, k := range kinds {
			if entry.Kind == k {
				return true
			}
		}
		return false
	}
	for name, members := range other.sets {
		if !wanted(name) {
			continue
		}
		if err := m.PutSet(name, members); err != nil {
			return err
		}
	}
	for name, table := range other.tables {
		if !wanted(name) {
			continue
		}
		if err := m.PutTable(name, table.Clone()); err != nil {
			return err
		}
	}
	return nil
}

// Clone returns a deep copy of the model.
func (m *Model) Clone() *Model {
	out := &Model{
		registry: m.registry,
		sets:     make(map[string][]string, len(m.sets)),
		tables:   make(map[string]*Table, len(m.tables)),
	}
	for name, members := range m.sets {
		out.sets[name] = append([]string(nil), members...)
	}
	for name, table := range m.tables {
		out.tables[name] = table.Clone()
	}
	return out
}

// Summary returns "name=rows" pairs for logging.
func (m *Model) Summary() string {
	parts := make([]string, 0, len(m.sets)+len(m.tables))
	for _, name := range m.Names() {
		if members, ok := m.sets[name]; ok {
			parts = append(parts, fmt.Sprintf("%s=%d", name, len(members)))
			continue
		}
		parts = append(parts, fmt.Sprintf("%s=%d", name, m.tables[name].Len()))
	}
	return strings.Join(parts, " ")
}
