package config

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	schema "energymodel-convert/internal/schema/domain"
)

//go:embed default_config.yaml
var defaultConfig []byte

// Format identifies the encoding of a schema configuration document.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
	FormatJSON Format = "json"
)

// ErrUnsupportedFormat is returned for unknown configuration encodings.
var ErrUnsupportedFormat = errors.New("config: unsupported format")

// rawEntry mirrors one top-level mapping entry of the configuration file.
type rawEntry struct {
	Type       string   `yaml:"type" toml:"type" json:"type"`
	DType      string   `yaml:"dtype" toml:"dtype" json:"dtype"`
	Indices    []string `yaml:"indices" toml:"indices" json:"indices"`
	Default    *float64 `yaml:"default" toml:"default" json:"default"`
	ShortName  string   `yaml:"short_name" toml:"short_name" json:"short_name"`
	Calculated bool     `yaml:"calculated" toml:"calculated" json:"calculated"`
}

type namedEntry struct {
	name string
	raw  rawEntry
}

// FormatFromPath picks the format from a file extension, defaulting to YAML.
func FormatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return FormatTOML
	case ".json":
		return FormatJSON
	default:
		return FormatYAML
	}
}

// Load reads and validates the configuration at path.
func Load(path string) (*schema.Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	return Parse(data, FormatFromPath(path))
}

// Default returns the embedded standard model configuration.
func Default() (*schema.Registry, error) {
	return Parse(defaultConfig, FormatYAML)
}

// DefaultData returns a copy of the embedded configuration document.
func DefaultData() []byte {
	return bytes.Clone(defaultConfig)
}

// Parse decodes data in the given format and builds a registry.
func Parse(data []byte, format Format) (*schema.Registry, error) {
	var (
		entries []namedEntry
		err     error
	)
	switch format {
	case FormatYAML, "":
		entries, err = decodeYAML(data)
	case FormatTOML:
		entries, err = decodeTOML(data)
	case FormatJSON:
		entries, err = decodeJSON(data)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}
	if err != nil {
		return nil, err
	}

	declared := make([]schema.Entry, 0, len(entries))
	for _, item := range entries {
		entry, err := item.toEntry()
		if err != nil {
			return nil, err
		}
		declared = append(declared, entry)
	}
	return schema.NewRegistry(declared)
}

func (n namedEntry) toEntry() (schema.Entry, error) {
	kind := schema.Kind(strings.ToLower(strings.TrimSpace(n.raw.Type)))
	if !kind.IsValid() {
		return schema.Entry{}, &schema.ConfigError{Entity: n.name, Reason: fmt.Sprintf("unknown type %q", n.raw.Type)}
	}
	valueType, ok := schema.ParseValueType(n.raw.DType)
	if !ok {
		return schema.Entry{}, &schema.ConfigError{Entity: n.name, Reason: fmt.Sprintf("unknown dtype %q", n.raw.DType)}
	}
	entry := schema.Entry{
		Name:       n.name,
		ShortName:  strings.TrimSpace(n.raw.ShortName),
		Kind:       kind,
		ValueType:  valueType,
		Indices:    n.raw.Indices,
		Calculated: n.raw.Calculated,
	}
	if n.raw.Default != nil {
		entry.Default = *n.raw.Default
		entry.HasDefault = true
	}
	return entry, nil
}

func decodeYAML(data []byte) ([]namedEntry, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, &schema.ConfigError{Reason: fmt.Sprintf("parse yaml: %v", err)}
	}
	if len(doc.Content) == 0 {
		return nil, &schema.ConfigError{Reason: "no entities declared", Err: schema.ErrEmptyRegistry}
	}
	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, &schema.ConfigError{Reason: "top level must be a mapping of entity names"}
	}

	seen := make(map[string]bool, len(root.Content)/2)
	entries := make([]namedEntry, 0, len(root.Content)/2)
	for i := 0; i+1 < len(root.Content); i += 2 {
		name := root.Content[i].Value
		if seen[name] {
			return nil, &schema.ConfigError{Entity: name, Reason: fmt.Sprintf("duplicate entity name (line %d)", root.Content[i].Line)}
		}
		seen[name] = true
		var raw rawEntry
		if err := root.Content[i+1].Decode(&raw); err != nil {
			return nil, &schema.ConfigError{Entity: name, Reason: err.Error()}
		}
		entries = append(entries, namedEntry{name: name, raw: raw})
	}
	return entries, nil
}

func decodeTOML(data []byte) ([]namedEntry, error) {
	var doc map[string]rawEntry
	if err := toml.Unmarshal(data, &doc); err != nil {
		var derr *toml.DecodeError
		if errors.As(err, &derr) {
			row, col := derr.Position()
			return nil, &schema.ConfigError{Reason: fmt.Sprintf("parse toml at %d:%d: %s", row, col, derr.Error())}
		}
		return nil, &schema.ConfigError{Reason: fmt.Sprintf("parse toml: %v", err)}
	}
	entries := make([]namedEntry, 0, len(doc))
	for name, raw := range doc {
		entries = append(entries, namedEntry{name: name, raw: raw})
	}
	return entries, nil
}

func decodeJSON(data []byte) ([]namedEntry, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return nil, &schema.ConfigError{Reason: fmt.Sprintf("parse json: %v", err)}
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, &schema.ConfigError{Reason: "top level must be an object of entity names"}
	}

	seen := make(map[string]bool)
	var entries []namedEntry
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, &schema.ConfigError{Reason: fmt.Sprintf("parse json: %v", err)}
		}
		name, _ := tok.(string)
		if seen[name] {
			return nil, &schema.ConfigError{Entity: name, Reason: "duplicate entity name"}
		}
		seen[name] = true
		var raw rawEntry
		if err := dec.Decode(&raw); err != nil {
			return nil, &schema.ConfigError{Entity: name, Reason: err.Error()}
		}
		entries = append(entries, namedEntry{name: name, raw: raw})
	}
	if _, err := dec.Token(); err != nil && !errors.Is(err, io.EOF) {
		return nil, &schema.ConfigError{Reason: fmt.Sprintf("parse json: %v", err)}
	}
	return entries, nil
}
