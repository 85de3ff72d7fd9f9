package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	schema "energymodel-convert/internal/schema/domain"
)

const sampleYAML = `
REGION:
  dtype: str
  type: set
YEAR:
  dtype: integer
  type: set
DiscountRate:
  indices: [REGION]
  type: param
  dtype: float
  default: 0.05
NewCapacity:
  indices: [REGION, YEAR]
  type: result
  dtype: float
  default: 0
  calculated: false
`

func TestParseYAML(t *testing.T) {
	reg, err := Parse([]byte(sampleYAML), FormatYAML)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	year, _ := reg.Entry("YEAR")
	if year.ValueType != schema.TypeInt {
		t.Fatalf("expected YEAR dtype int, got %q", year.ValueType)
	}
	if got := len(reg.Results()); got != 1 {
		t.Fatalf("expected one result, got %d", got)
	}
}

func TestParseYAMLDuplicateKey(t *testing.T) {
	doc := sampleYAML + "REGION:\n  dtype: str\n  type: set\n"
	_, err := Parse([]byte(doc), FormatYAML)
	if !errors.Is(err, schema.ErrConfig) {
		t.Fatalf("expected config error, got %v", err)
	}
	if !strings.Contains(err.Error(), "duplicate") {
		t.Fatalf("expected duplicate message, got %q", err.Error())
	}
}

func TestParseMissingDefault(t *testing.T) {
	doc := `
REGION:
  dtype: str
  type: set
CapitalCost:
  indices: [REGION]
  type: param
  dtype: float
`
	if _, err := Parse([]byte(doc), FormatYAML); !errors.Is(err, schema.ErrConfig) {
		t.Fatalf("expected config error, got %v", err)
	}
}

func TestParseTOML(t *testing.T) {
	doc := `
[REGION]
type = "set"
dtype = "str"

[DiscountRate]
type = "param"
dtype = "float"
indices = ["REGION"]
default = 0.1
`
	reg, err := Parse([]byte(doc), FormatTOML)
	if err != nil {
		t.Fatalf("parse toml: %v", err)
	}
	entry, _ := reg.Entry("DiscountRate")
	if entry.Default != 0.1 {
		t.Fatalf("expected default 0.1, got %v", entry.Default)
	}
}

func TestParseJSONDuplicate(t *testing.T) {
	doc := `{"REGION": {"type": "set", "dtype": "str"}, "REGION": {"type": "set", "dtype": "str"}}`
	if _, err := Parse([]byte(doc), FormatJSON); !errors.Is(err, schema.ErrConfig) {
		t.Fatalf("expected duplicate to fail, got %v", err)
	}
}

func TestParseEmptyYAML(t *testing.T) {
	_, err := Parse(nil, FormatYAML)
	var cfgErr *schema.ConfigError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("expected *schema.ConfigError, got %T %v", err, err)
	}
	if !errors.Is(err, schema.ErrEmptyRegistry) {
		t.Fatalf("expected ErrEmptyRegistry, got %v", err)
	}
}

func TestDefaultDataRoundTrips(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, DefaultData(), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	reg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	want, err := Default()
	if err != nil {
		t.Fatalf("default config: %v", err)
	}
	if got, exp := len(reg.Names()), len(want.Names()); got != exp {
		t.Fatalf("expected %d entities, got %d", exp, got)
	}
}

func TestLoadByExtension(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	doc := `{"REGION": {"type": "set", "dtype": "str"}, "Cost": {"type": "param", "dtype": "float", "indices": ["REGION"], "default": 0}}`
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	reg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !reg.Has("Cost") {
		t.Fatalf("expected Cost to be declared")
	}
}

func TestDefaultConfig(t *testing.T) {
	reg, err := Default()
	if err != nil {
		t.Fatalf("default config: %v", err)
	}
	trade, ok := reg.Entry("Trade")
	if !ok {
		t.Fatalf("expected Trade in default config")
	}
	if got := trade.IndexLabels()[1]; got != "_REGION" {
		t.Fatalf("expected second Trade index label _REGION, got %q", got)
	}
	name, ok := reg.NameForShort("TotalTechModelPeriodActivity")
	if !ok || name != "TotalTechnologyModelPeriodActivity" {
		t.Fatalf("expected short name lookup, got %q", name)
	}
}
