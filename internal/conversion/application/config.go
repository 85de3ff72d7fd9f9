package application

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"energymodel-convert/internal/formats/wide"
	results "energymodel-convert/internal/results/domain"
	schema "energymodel-convert/internal/schema/domain"
)

// ReportConfig controls the PDF report writer.
type ReportConfig struct {
	Title   string `yaml:"title"`
	MaxRows int    `yaml:"max_rows"`
}

// RunConfig defines how a conversion or results run behaves.
type RunConfig struct {
	// SchemaPath names the schema config; empty uses the embedded default.
	SchemaPath     string       `yaml:"schema"`
	Pivot          string       `yaml:"pivot"`
	WriteDefaults  bool         `yaml:"write_defaults"`
	KeepWhitespace bool         `yaml:"keep_whitespace"`
	Strict         bool         `yaml:"strict"`
	Kinds          []string     `yaml:"kinds"`
	Variant        string       `yaml:"variant"`
	DSN            string       `yaml:"dsn"`
	MetricsFile    string       `yaml:"metrics_file"`
	Report         ReportConfig `yaml:"report"`
}

// LoadRunConfig loads the run config from env and an optional yaml file
// named by ENERGYMODEL_CONFIG.
func LoadRunConfig() (RunConfig, error) {
	cfg := RunConfig{
		SchemaPath:     os.Getenv("ENERGYMODEL_SCHEMA"),
		Pivot:          getenvDefault("ENERGYMODEL_PIVOT", wide.DefaultPivot),
		WriteDefaults:  getenvBoolDefault("ENERGYMODEL_WRITE_DEFAULTS", false),
		KeepWhitespace: getenvBoolDefault("ENERGYMODEL_KEEP_WHITESPACE", false),
		Strict:         getenvBoolDefault("ENERGYMODEL_STRICT", false),
		Variant:        getenvDefault("ENERGYMODEL_VARIANT", "short"),
		DSN:            os.Getenv("ENERGYMODEL_DSN"),
		MetricsFile:    os.Getenv("ENERGYMODEL_METRICS_FILE"),
		Report: ReportConfig{
			Title:   getenvDefault("ENERGYMODEL_REPORT_TITLE", "Energy Model Dataset"),
			MaxRows: getenvIntDefault("ENERGYMODEL_REPORT_MAX_ROWS", 20),
		},
	}

	if path := os.Getenv("ENERGYMODEL_CONFIG"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, err
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("run config: %s: %w", path, err)
		}
	}

	if len(cfg.Kinds) == 0 {
		cfg.Kinds = splitCSV(getenvDefault("ENERGYMODEL_KINDS", ""))
	}
	if cfg.Pivot == "" {
		cfg.Pivot = wide.DefaultPivot
	}
	return cfg, cfg.Validate()
}

// Validate checks values the env and yaml layers cannot type.
func (c RunConfig) Validate() error {
	for _, kind := range c.Kinds {
		if !schema.Kind(kind).IsValid() {
			return fmt.Errorf("run config: unknown kind %q", kind)
		}
	}
	if c.Variant == "" {
		return errors.New("run config: variant required")
	}
	if _, err := results.VariantFor(c.Variant); err != nil {
		return fmt.Errorf("run config: %w", err)
	}
	if c.Report.MaxRows < 0 {
		return errors.New("run config: report max_rows must not be negative")
	}
	return nil
}

// EntityKinds returns Kinds typed.
func (c RunConfig) EntityKinds() []schema.Kind {
	kinds := make([]schema.Kind, 0, len(c.Kinds))
	for _, kind := range c.Kinds {
		kinds = append(kinds, schema.Kind(kind))
	}
	return kinds
}

func getenvDefault(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}

func getenvBoolDefault(key string, fallback bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getenvIntDefault(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func splitCSV(value string) []string {
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	var result []string
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part != "" {
			result = append(result, part)
		}
	}
	return result
}
