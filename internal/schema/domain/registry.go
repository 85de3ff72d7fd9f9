package schema

import (
	"fmt"
	"sort"
)

// Registry is the immutable set of entity declarations for one run.
type Registry struct {
	entries map[string]Entry
	byShort map[string]string
	names   []string
}

// NewRegistry validates entries and builds a registry.
func NewRegistry(entries []Entry) (*Registry, error) {
	if len(entries) == 0 {
		return nil, emptyRegistryError()
	}

	r := &Registry{
		entries: make(map[string]Entry, len(entries)),
		byShort: make(map[string]string),
	}
	for _, entry := range entries {
		if entry.Name == "" {
			return nil, configErrorf("", "entity with empty name")
		}
		if _, exists := r.entries[entry.Name]; exists {
			return nil, configErrorf(entry.Name, "duplicate entity name")
		}
		entry.Indices = append([]string(nil), entry.Indices...)
		if vt, ok := ParseValueType(string(entry.ValueType)); ok {
			entry.ValueType = vt
		}
		r.entries[entry.Name] = entry
		r.names = append(r.names, entry.Name)
	}
	sort.Strings(r.names)

	for _, name := range r.names {
		if err := r.validate(r.entries[name]); err != nil {
			return nil, err
		}
	}
	for _, name := range r.names {
		entry := r.entries[name]
		if entry.ShortName == "" {
			continue
		}
		if other, exists := r.entries[entry.ShortName]; exists && other.Name != entry.Name {
			return nil, configErrorf(entry.Name, "short_name %q collides with entity %q", entry.ShortName, other.Name)
		}
		if owner, exists := r.byShort[entry.ShortName]; exists {
			return nil, configErrorf(entry.Name, "short_name %q already used by %q", entry.ShortName, owner)
		}
		r.byShort[entry.ShortName] = entry.Name
	}
	return r, nil
}

func (r *Registry) validate(entry Entry) error {
	if !entry.Kind.IsValid() {
		return configErrorf(entry.Name, "unknown type %q", entry.Kind)
	}
	if _, ok := ParseValueType(string(entry.ValueType)); !ok {
		return configErrorf(entry.Name, "unknown dtype %q", entry.ValueType)
	}
	if len(entry.Name) > MaxLabelLength && entry.ShortName == "" {
		return configErrorf(entry.Name, "name is %d characters long, a short_name of at most %d is required", len(entry.Name), MaxLabelLength)
	}
	if len(entry.ShortName) > MaxLabelLength {
		return configErrorf(entry.Name, "short_name %q exceeds %d characters", entry.ShortName, MaxLabelLength)
	}

	if entry.Kind == KindSet {
		if len(entry.Indices) > 0 {
			return configErrorf(entry.Name, "a set cannot declare indices")
		}
		return nil
	}

	if !entry.HasDefault {
		return configErrorf(entry.Name, "missing default value")
	}
	if entry.ValueType == TypeString {
		return configErrorf(entry.Name, "%s values must be numeric", entry.Kind)
	}
	for _, index := range entry.Indices {
		set, ok := r.entries[index]
		if !ok {
			return configErrorf(entry.Name, "index %q is not a declared set", index)
		}
		if set.Kind != KindSet {
			return configErrorf(entry.Name, "index %q is a %s, not a set", index, set.Kind)
		}
	}
	return nil
}

// Entry returns the declaration for name.
func (r *Registry) Entry(name string) (Entry, bool) {
	if r == nil {
		return Entry{}, false
	}
	entry, ok := r.entries[name]
	return entry, ok
}

// Lookup returns the declaration for name or ErrUnknownEntity.
func (r *Registry) Lookup(name string) (Entry, error) {
	entry, ok := r.Entry(name)
	if !ok {
		return Entry{}, fmt.Errorf("%w: %s", ErrUnknownEntity, name)
	}
	return entry, nil
}

// Has reports whether name is declared.
func (r *Registry) Has(name string) bool {
	_, ok := r.Entry(name)
	return ok
}

// NameForShort resolves a short name to the full entity name.
func (r *Registry) NameForShort(short string) (string, bool) {
	if r == nil {
		return "", false
	}
	name, ok := r.byShort[short]
	return name, ok
}

// LabelOf returns the short name of name when it has one, otherwise name.
func (r *Registry) LabelOf(name string) string {
	if entry, ok := r.Entry(name); ok {
		return entry.Label()
	}
	return name
}

// Resolve accepts either a full name or a short name.
func (r *Registry) Resolve(label string) (string, bool) {
	if r.Has(label) {
		return label, true
	}
	return r.NameForShort(label)
}

// Names returns every entity name in sorted order.
func (r *Registry) Names() []string {
	return append([]string(nil), r.names...)
}

// Sets returns the set declarations sorted by name.
func (r *Registry) Sets() []Entry {
	return r.ofKind(KindSet)
}

// Params returns the parameter declarations sorted by name.
func (r *Registry) Params() []Entry {
	return r.ofKind(KindParam)
}

// Results returns the result declarations sorted by name.
func (r *Registry) Results() []Entry {
	return r.ofKind(KindResult)
}

// Entries returns every declaration sorted by name.
func (r *Registry) Entries() []Entry {
	out := make([]Entry, 0, len(r.names))
	for _, name := range r.names {
		out = append(out, r.entries[name])
	}
	return out
}

func (r *Registry) ofKind(kind Kind) []Entry {
	var out []Entry
	for _, name := range r.names {
		if entry := r.entries[name]; entry.Kind == kind {
			out = append(out, entry)
		}
	}
	return out
}
