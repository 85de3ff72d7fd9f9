// Package application wires the format adapters into conversions.
package application

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"sort"
	"strings"
	"time"

	dataset "energymodel-convert/internal/dataset/domain"
	"energymodel-convert/internal/formats"
	"energymodel-convert/internal/formats/datafile"
	"energymodel-convert/internal/formats/long"
	"energymodel-convert/internal/formats/postgres"
	"energymodel-convert/internal/formats/report"
	"energymodel-convert/internal/formats/wide"
	"energymodel-convert/internal/observability/metrics"
	schema "energymodel-convert/internal/schema/domain"
)

const (
	FormatExcel    = "excel"
	FormatCSV      = "csv"
	FormatDatafile = "datafile"
	FormatPostgres = "postgres"
	FormatReport   = "report"
)

// Request describes one conversion.
type Request struct {
	From   string
	To     string
	Input  string
	Output string
}

// Service converts datasets between formats.
type Service struct {
	registry *schema.Registry
	cfg      RunConfig
	logger   *log.Logger
}

// Option configures the service.
type Option func(*Service)

// WithLogger sets the service logger.
func WithLogger(logger *log.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewService constructs the service.
func NewService(registry *schema.Registry, cfg RunConfig, opts ...Option) (*Service, error) {
	if registry == nil {
		return nil, errors.New("conversion service: nil registry")
	}
	if cfg.Pivot == "" {
		cfg.Pivot = wide.DefaultPivot
	}
	s := &Service{registry: registry, cfg: cfg, logger: log.New(io.Discard, "", 0)}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Formats lists the format names accepted by Writer, sorted.
func Formats() []string {
	names := []string{FormatExcel, FormatCSV, FormatDatafile, FormatPostgres, FormatReport}
	sort.Strings(names)
	return names
}

func (s *Service) formatOptions() []formats.Option {
	policy := formats.PolicyWarn
	if s.cfg.Strict {
		policy = formats.PolicyFail
	}
	return []formats.Option{
		formats.WithKeepWhitespace(s.cfg.KeepWhitespace),
		formats.WithWriteDefaults(s.cfg.WriteDefaults),
		formats.WithPolicy(policy),
		formats.WithKinds(s.cfg.EntityKinds()...),
		formats.WithLogger(s.logger),
	}
}

// Reader returns the reader registered for format.
func (s *Service) Reader(format string) (formats.Reader, error) {
	opts := s.formatOptions()
	switch normalise(format) {
	case FormatExcel:
		return wide.NewReader(s.cfg.Pivot, opts...), nil
	case FormatCSV:
		return long.NewReader(opts...), nil
	case FormatDatafile:
		return datafile.NewReader(opts...), nil
	case FormatPostgres:
		return postgres.NewAdapter(opts...), nil
	case FormatReport:
		return nil, fmt.Errorf("%w: %s", formats.ErrWriteOnly, format)
	default:
		return nil, unknownFormat(format)
	}
}

// Writer returns the writer registered for format.
func (s *Service) Writer(format string) (formats.Writer, error) {
	opts := s.formatOptions()
	switch normalise(format) {
	case FormatExcel:
		return wide.NewWriter(s.cfg.Pivot, opts...), nil
	case FormatCSV:
		return long.NewWriter(opts...), nil
	case FormatDatafile:
		return datafile.NewWriter(opts...), nil
	case FormatPostgres:
		return postgres.NewAdapter(opts...), nil
	case FormatReport:
		return report.NewWriter(
			report.WithTitle(s.cfg.Report.Title),
			report.WithMaxRows(s.cfg.Report.MaxRows),
			report.WithFormatOptions(opts...),
		), nil
	default:
		return nil, unknownFormat(format)
	}
}

// Convert reads req.Input as req.From and writes it to req.Output as req.To.
func (s *Service) Convert(ctx context.Context, req Request) (*dataset.Model, error) {
	start := time.Now()
	model, err := s.convert(ctx, req)
	metrics.ObserveConversion(normalise(req.From), normalise(req.To), metrics.Result(err), time.Since(start))
	if err != nil {
		return nil, err
	}
	s.logger.Printf("converted from=%s to=%s output=%s %s", req.From, req.To, req.Output, model.Summary())
	return model, nil
}

func (s *Service) convert(ctx context.Context, req Request) (*dataset.Model, error) {
	reader, err := s.Reader(req.From)
	if err != nil {
		return nil, err
	}
	writer, err := s.Writer(req.To)
	if err != nil {
		return nil, err
	}
	input := s.location(req.From, req.Input)
	output := s.location(req.To, req.Output)
	if input == "" || output == "" {
		return nil, errors.New("conversion service: input and output are required")
	}

	model, err := reader.Read(ctx, input, s.registry)
	if err != nil {
		return nil, fmt.Errorf("conversion service: read %s: %w", req.From, err)
	}
	if err := writer.Write(ctx, model, output); err != nil {
		return nil, fmt.Errorf("conversion service: write %s: %w", req.To, err)
	}
	return model, nil
}

// location falls back to the configured DSN for postgres.
func (s *Service) location(format, path string) string {
	if path == "" && normalise(format) == FormatPostgres {
		return s.cfg.DSN
	}
	return path
}

func normalise(format string) string {
	return strings.ToLower(strings.TrimSpace(format))
}

func unknownFormat(format string) error {
	return fmt.Errorf("%w: %q (want one of %s)", formats.ErrUnknownFormat, format, strings.Join(Formats(), ", "))
}
