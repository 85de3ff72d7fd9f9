package schema

import (
	"errors"
	"strings"
	"testing"
)

func baseEntries() []Entry {
	return []Entry{
		{Name: "REGION", Kind: KindSet, ValueType: TypeString},
		{Name: "YEAR", Kind: KindSet, ValueType: TypeInt},
		{Name: "DiscountRate", Kind: KindParam, ValueType: TypeFloat, Indices: []string{"REGION"}, Default: 0.05, HasDefault: true},
	}
}

func TestNewRegistryValid(t *testing.T) {
	reg, err := NewRegistry(baseEntries())
	if err != nil {
		t.Fatalf("new registry: %v", err)
	}
	if got := len(reg.Sets()); got != 2 {
		t.Fatalf("expected 2 sets, got %d", got)
	}
	entry, ok := reg.Entry("DiscountRate")
	if !ok {
		t.Fatalf("expected DiscountRate to be declared")
	}
	if entry.Default != 0.05 {
		t.Fatalf("expected default 0.05, got %v", entry.Default)
	}
}

func TestNewRegistryConfigErrors(t *testing.T) {
	long32 := strings.Repeat("a", 32)
	cases := []struct {
		name    string
		mutate  func([]Entry) []Entry
		message string
	}{
		{
			name: "duplicate name",
			mutate: func(e []Entry) []Entry {
				return append(e, Entry{Name: "REGION", Kind: KindSet, ValueType: TypeString})
			},
			message: "duplicate",
		},
		{
			name: "undeclared index",
			mutate: func(e []Entry) []Entry {
				return append(e, Entry{Name: "FixedCost", Kind: KindParam, ValueType: TypeFloat, Indices: []string{"TECHNOLOGY"}, HasDefault: true})
			},
			message: "not a declared set",
		},
		{
			name: "missing default",
			mutate: func(e []Entry) []Entry {
				return append(e, Entry{Name: "NewCapacity", Kind: KindResult, ValueType: TypeFloat, Indices: []string{"REGION", "YEAR"}})
			},
			message: "missing default",
		},
		{
			name: "long name without short name",
			mutate: func(e []Entry) []Entry {
				return append(e, Entry{Name: long32, Kind: KindParam, ValueType: TypeFloat, HasDefault: true})
			},
			message: "short_name",
		},
		{
			name: "short name collides with name",
			mutate: func(e []Entry) []Entry {
				return append(e, Entry{Name: long32, ShortName: "REGION", Kind: KindParam, ValueType: TypeFloat, HasDefault: true})
			},
			message: "collides",
		},
		{
			name: "short name collides with short name",
			mutate: func(e []Entry) []Entry {
				return append(e,
					Entry{Name: "ParamOne", ShortName: "P", Kind: KindParam, ValueType: TypeFloat, HasDefault: true},
					Entry{Name: "ParamTwo", ShortName: "P", Kind: KindParam, ValueType: TypeFloat, HasDefault: true},
				)
			},
			message: "already used",
		},
		{
			name: "index is not a set",
			mutate: func(e []Entry) []Entry {
				return append(e, Entry{Name: "Bad", Kind: KindParam, ValueType: TypeFloat, Indices: []string{"DiscountRate"}, HasDefault: true})
			},
			message: "not a set",
		},
		{
			name: "unknown dtype",
			mutate: func(e []Entry) []Entry {
				return append(e, Entry{Name: "TECHNOLOGY", Kind: KindSet, ValueType: "complex"})
			},
			message: "dtype",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewRegistry(tc.mutate(baseEntries()))
			if err == nil {
				t.Fatalf("expected config error")
			}
			if !errors.Is(err, ErrConfig) {
				t.Fatalf("expected ErrConfig, got %v", err)
			}
			if !strings.Contains(err.Error(), tc.message) {
				t.Fatalf("expected message containing %q, got %q", tc.message, err.Error())
			}
		})
	}
}

func TestNewRegistryEmptyIsConfigError(t *testing.T) {
	_, err := NewRegistry(nil)
	var cfgErr *ConfigError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("expected *ConfigError, got %T %v", err, err)
	}
	if !errors.Is(err, ErrConfig) {
		t.Fatalf("expected ErrConfig, got %v", err)
	}
	if !errors.Is(err, ErrEmptyRegistry) {
		t.Fatalf("expected ErrEmptyRegistry, got %v", err)
	}
}

func TestNameLengthBoundary(t *testing.T) {
	entries := append(baseEntries(), Entry{Name: strings.Repeat("b", 31), Kind: KindParam, ValueType: TypeFloat, HasDefault: true})
	if _, err := NewRegistry(entries); err != nil {
		t.Fatalf("expected 31 character name to load, got %v", err)
	}
}

func TestShortNameLookup(t *testing.T) {
	long := "DiscountedTechnologyEmissionsPenalty"
	entries := append(baseEntries(), Entry{Name: long, ShortName: "DiscountedTechEmissionsPenalty", Kind: KindResult, ValueType: TypeFloat, Indices: []string{"REGION"}, HasDefault: true})
	reg, err := NewRegistry(entries)
	if err != nil {
		t.Fatalf("new registry: %v", err)
	}
	name, ok := reg.NameForShort("DiscountedTechEmissionsPenalty")
	if !ok || name != long {
		t.Fatalf("expected %s, got %q", long, name)
	}
	if got, _ := reg.Resolve("DiscountRate"); got != "DiscountRate" {
		t.Fatalf("expected full name to resolve to itself, got %q", got)
	}
	entry, _ := reg.Entry(long)
	if entry.Label() != "DiscountedTechEmissionsPenalty" {
		t.Fatalf("expected label to be the short name, got %q", entry.Label())
	}
	if got := reg.LabelOf("DiscountRate"); got != "DiscountRate" {
		t.Fatalf("expected DiscountRate, got %q", got)
	}
	if got := reg.LabelOf(long); got != "DiscountedTechEmissionsPenalty" {
		t.Fatalf("expected short name label, got %q", got)
	}
}

func TestDedupeLabels(t *testing.T) {
	got := DedupeLabels([]string{"REGION", "REGION", "FUEL", "YEAR"})
	want := []string{"REGION", "_REGION", "FUEL", "YEAR"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, got)
		}
	}
	if SetOfLabel("_REGION") != "REGION" {
		t.Fatalf("expected _REGION to map to REGION")
	}
}
