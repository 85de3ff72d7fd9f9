package application

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"time"

	dataset "energymodel-convert/internal/dataset/domain"
	"energymodel-convert/internal/formats"
	"energymodel-convert/internal/formats/long"
	"energymodel-convert/internal/observability/metrics"
	results "energymodel-convert/internal/results/domain"
	schema "energymodel-convert/internal/schema/domain"
	"energymodel-convert/internal/solver"
)

// Request names the files of one results run.
type Request struct {
	// Input is the dataset the model was solved with.
	Input string
	// Solution is the solver output.
	Solution string
	// Output is the directory receiving one CSV per result entity.
	Output string
	// Archive, when set, zips the written CSV files.
	Archive string
	// Report, when set, renders the results through the report writer.
	Report string
}

// Summary describes a finished run.
type Summary struct {
	Files   []string
	Steps   []results.StepResult
	Records int
}

// Service turns a solver solution into the full set of result tables.
type Service struct {
	registry *schema.Registry
	reader   formats.Reader
	parser   solver.Parser
	variant  results.Variant
	writer   *long.Writer
	report   formats.Writer
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

// WithReportWriter sets the writer used for Request.Report.
func WithReportWriter(w formats.Writer) Option {
	return func(s *Service) { s.report = w }
}

// WithWriterOptions passes options to the CSV results writer.
func WithWriterOptions(opts ...formats.Option) Option {
	return func(s *Service) {
		s.writer = long.NewWriter(append(opts, formats.WithKinds(schema.KindResult))...)
	}
}

// NewService constructs the service.
func NewService(registry *schema.Registry, reader formats.Reader, parser solver.Parser, variant results.Variant, opts ...Option) (*Service, error) {
	if registry == nil {
		return nil, errors.New("results service: nil registry")
	}
	if reader == nil {
		return nil, errors.New("results service: nil input reader")
	}
	if parser == nil {
		return nil, errors.New("results service: nil solver parser")
	}
	s := &Service{
		registry: registry,
		reader:   reader,
		parser:   parser,
		variant:  variant,
		writer:   long.NewWriter(formats.WithKinds(schema.KindResult)),
		logger:   log.New(io.Discard, "", 0),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Run reads the input dataset and the solution, derives the missing
// results and writes them.
func (s *Service) Run(ctx context.Context, req Request) (*Summary, error) {
	if req.Input == "" || req.Solution == "" || req.Output == "" {
		return nil, errors.New("results service: input, solution and output are required")
	}

	model, err := s.reader.Read(ctx, req.Input, s.registry)
	if err != nil {
		return nil, fmt.Errorf("results service: read input: %w", err)
	}

	solution, err := solver.ParseFile(ctx, s.parser, req.Solution, s.registry, model)
	records := 0
	if solution != nil {
		records = recordCount(solution)
	}
	metrics.ObserveSolverParse(s.parser.Dialect(), metrics.Result(err), records)
	if err != nil {
		return nil, err
	}
	s.logger.Printf("solution parsed dialect=%s records=%d", s.parser.Dialect(), records)

	if err := model.Merge(solution, schema.KindResult); err != nil {
		return nil, fmt.Errorf("results service: merge solution: %w", err)
	}

	start := time.Now()
	engine := results.NewEngine(results.WithLogger(s.logger))
	_, steps, err := engine.Derive(ctx, model, s.variant)
	for _, step := range steps {
		metrics.IncDeriveStep(s.variant.Name, string(step.Outcome))
	}
	metrics.ObserveDerive(s.variant.Name, metrics.Result(err), time.Since(start))
	if err != nil {
		return nil, err
	}

	files, err := s.writer.WriteFiles(ctx, model, req.Output)
	if err != nil {
		return nil, err
	}
	s.logger.Printf("results written dir=%s files=%d", req.Output, len(files))

	if req.Archive != "" {
		if err := long.WriteArchive(req.Output, req.Archive, files); err != nil {
			return nil, err
		}
		s.logger.Printf("results archived path=%s", req.Archive)
	}
	if req.Report != "" {
		if s.report == nil {
			return nil, errors.New("results service: no report writer configured")
		}
		if err := s.report.Write(ctx, model, req.Report); err != nil {
			return nil, err
		}
	}

	return &Summary{Files: files, Steps: steps, Records: records}, nil
}

func recordCount(model *dataset.Model) int {
	n := 0
	for _, name := range model.NamesOfKind(schema.KindResult) {
		if table, ok := model.Table(name); ok {
			n += table.Len()
		}
	}
	return n
}
