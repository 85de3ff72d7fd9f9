// Package formatstest provides shared fixtures for adapter tests.
package formatstest

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	dataset "energymodel-convert/internal/dataset/domain"
	schema "energymodel-convert/internal/schema/domain"
	"energymodel-convert/internal/schema/infrastructure/config"
)

// Registry returns the embedded default schema.
func Registry(t testing.TB) *schema.Registry {
	t.Helper()
	reg, err := config.Default()
	if err != nil {
		t.Fatalf("default registry: %v", err)
	}
	return reg
}

// Model returns a small sparse dataset touching sets, parameters with
// short names, integer values and a result with a repeated index.
func Model(t testing.TB) *dataset.Model {
	t.Helper()
	m, err := dataset.NewModel(Registry(t))
	if err != nil {
		t.Fatalf("new model: %v", err)
	}
	sets := map[string][]string{
		"REGION":            {"BB"},
		"TECHNOLOGY":        {"gas_plant", "coal_plant"},
		"FUEL":              {"ELC"},
		"TIMESLICE":         {"ID"},
		"MODE_OF_OPERATION": {"1"},
		"YEAR":              {"2016", "2017"},
	}
	for name, members := range sets {
		if err := m.PutSet(name, members); err != nil {
			t.Fatalf("put set %s: %v", name, err)
		}
	}
	put := func(name string, value float64, tuple ...string) {
		if err := m.Put(name, tuple, value); err != nil {
			t.Fatalf("put %s%v: %v", name, tuple, err)
		}
	}
	put("CapitalCost", 500, "BB", "gas_plant", "2016")
	put("CapitalCost", 520.5, "BB", "gas_plant", "2017")
	put("CapitalCost", 1200, "BB", "coal_plant", "2017")
	put("DiscountRate", 0.1, "BB")
	put("OperationalLife", 30, "BB", "coal_plant")
	put("TotalTechnologyModelPeriodActivityUpperLimit", 1e6, "BB", "gas_plant")
	put("YearSplit", 1, "ID", "2016")
	put("NewCapacity", 3.1101, "BB", "gas_plant", "2016")
	put("Trade", 1.5, "BB", "BB", "ID", "ELC", "2017")
	return m
}

// Snapshot is a comparable view of a model.
type Snapshot struct {
	Sets   map[string][]string
	Tables map[string][]dataset.Row
}

// Snap captures the declared sets and non-empty tables of m.
func Snap(m *dataset.Model) Snapshot {
	s := Snapshot{Sets: map[string][]string{}, Tables: map[string][]dataset.Row{}}
	for _, entry := range m.Registry().Sets() {
		if members := m.Members(entry.Name); len(members) > 0 {
			s.Sets[entry.Name] = members
		}
	}
	for _, name := range m.Names() {
		table, ok := m.Table(name)
		if !ok || table.Len() == 0 {
			continue
		}
		s.Tables[name] = table.Sparse().Rows()
	}
	return s
}

// Diff reports the difference between two models, empty when equal.
func Diff(want, got *dataset.Model) string {
	return cmp.Diff(Snap(want), Snap(got))
}
