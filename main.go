package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strings"

	conversion "energymodel-convert/internal/conversion/application"
	"energymodel-convert/internal/formats"
	"energymodel-convert/internal/observability/metrics"
	resultsapp "energymodel-convert/internal/results/application"
	results "energymodel-convert/internal/results/domain"
	schema "energymodel-convert/internal/schema/domain"
	"energymodel-convert/internal/schema/infrastructure/config"
	"energymodel-convert/internal/solver"
)

const usage = `usage: energymodel-convert <command> [flags] args

commands:
  convert -from FORMAT -to FORMAT INPUT OUTPUT
  results -solver DIALECT -format FORMAT -input INPUT SOLUTION OUTPUT
  validate-config [CONFIG]
  setup [-config CONFIG] [-overwrite] config|data PATH
`

func main() {
	logger := log.New(os.Stdout, "", log.LstdFlags)
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, os.Args[1:], logger, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(2)
	}
}

func run(ctx context.Context, args []string, logger *log.Logger, stderr io.Writer) error {
	if len(args) == 0 {
		return errors.New(usage)
	}
	cfg, err := conversion.LoadRunConfig()
	if err != nil {
		return err
	}
	switch args[0] {
	case "convert":
		return runConvert(ctx, args[1:], cfg, logger, stderr)
	case "results":
		return runResults(ctx, args[1:], cfg, logger, stderr)
	case "validate-config":
		return runValidate(args[1:], cfg, logger, stderr)
	case "setup":
		return runSetup(ctx, args[1:], cfg, logger, stderr)
	default:
		return fmt.Errorf("unknown command %q\n%s", args[0], usage)
	}
}

// commonFlags registers the flags shared by convert and results.
func commonFlags(fs *flag.FlagSet, cfg *conversion.RunConfig) {
	fs.StringVar(&cfg.SchemaPath, "config", cfg.SchemaPath, "schema config (yaml, toml or json); empty uses the built-in schema")
	fs.BoolVar(&cfg.KeepWhitespace, "keep-whitespace", cfg.KeepWhitespace, "keep whitespace around index members")
	fs.BoolVar(&cfg.Strict, "strict", cfg.Strict, "fail on entities missing from the schema")
	fs.StringVar(&cfg.MetricsFile, "metrics-file", cfg.MetricsFile, "write run metrics to this textfile")
}

func runConvert(ctx context.Context, args []string, cfg conversion.RunConfig, logger *log.Logger, stderr io.Writer) error {
	fs := flag.NewFlagSet("convert", flag.ContinueOnError)
	fs.SetOutput(stderr)
	from := fs.String("from", "", "input format: "+strings.Join(conversion.Formats(), ", "))
	to := fs.String("to", "", "output format: "+strings.Join(conversion.Formats(), ", "))
	commonFlags(fs, &cfg)
	fs.BoolVar(&cfg.WriteDefaults, "write-defaults", cfg.WriteDefaults, "write every tuple including defaults")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *from == "" || *to == "" || fs.NArg() != 2 {
		return errors.New("convert: -from, -to, INPUT and OUTPUT are required")
	}

	registry, err := loadSchema(cfg.SchemaPath)
	if err != nil {
		return err
	}
	metrics.Init()
	svc, err := conversion.NewService(registry, cfg, conversion.WithLogger(logger))
	if err != nil {
		return err
	}
	_, err = svc.Convert(ctx, conversion.Request{From: *from, To: *to, Input: fs.Arg(0), Output: fs.Arg(1)})
	return finish(cfg, err)
}

func runResults(ctx context.Context, args []string, cfg conversion.RunConfig, logger *log.Logger, stderr io.Writer) error {
	fs := flag.NewFlagSet("results", flag.ContinueOnError)
	fs.SetOutput(stderr)
	dialect := fs.String("solver", "", "solver dialect: "+strings.Join(solver.Parsers(), ", "))
	format := fs.String("format", "", "input data format")
	input := fs.String("input", "", "input data the model was solved with")
	modelFile := fs.String("model-file", "", "GLPK model file written with --wglp")
	sortInput := fs.Bool("sort", false, "sort CPLEX solution lines in memory")
	archive := fs.String("archive", "", "zip the result CSV files into this path")
	reportPath := fs.String("report", "", "render a PDF report at this path")
	fs.StringVar(&cfg.Variant, "variant", cfg.Variant, "model variant: "+strings.Join(results.Variants(), ", "))
	commonFlags(fs, &cfg)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *dialect == "" || *format == "" || *input == "" || fs.NArg() != 2 {
		return errors.New("results: -solver, -format, -input, SOLUTION and OUTPUT are required")
	}

	registry, err := loadSchema(cfg.SchemaPath)
	if err != nil {
		return err
	}
	variant, err := results.VariantFor(cfg.Variant)
	if err != nil {
		return err
	}
	policy := formats.PolicyWarn
	if cfg.Strict {
		policy = formats.PolicyFail
	}
	parser, err := solver.ParserFor(*dialect,
		solver.WithPolicy(policy),
		solver.WithKeepWhitespace(cfg.KeepWhitespace),
		solver.WithSortInput(*sortInput),
		solver.WithModelFile(*modelFile),
		solver.WithLogger(logger),
	)
	if err != nil {
		return err
	}

	metrics.Init()
	convert, err := conversion.NewService(registry, cfg, conversion.WithLogger(logger))
	if err != nil {
		return err
	}
	reader, err := convert.Reader(*format)
	if err != nil {
		return err
	}
	pdf, err := convert.Writer(conversion.FormatReport)
	if err != nil {
		return err
	}
	svc, err := resultsapp.NewService(registry, reader, parser, variant,
		resultsapp.WithLogger(logger),
		resultsapp.WithReportWriter(pdf),
		resultsapp.WithWriterOptions(formats.WithWriteDefaults(cfg.WriteDefaults), formats.WithLogger(logger)),
	)
	if err != nil {
		return err
	}
	_, err = svc.Run(ctx, resultsapp.Request{
		Input:    *input,
		Solution: fs.Arg(0),
		Output:   fs.Arg(1),
		Archive:  *archive,
		Report:   *reportPath,
	})
	return finish(cfg, err)
}

func runValidate(args []string, cfg conversion.RunConfig, logger *log.Logger, stderr io.Writer) error {
	fs := flag.NewFlagSet("validate-config", flag.ContinueOnError)
	fs.SetOutput(stderr)
	if err := fs.Parse(args); err != nil {
		return err
	}
	path := cfg.SchemaPath
	if fs.NArg() > 0 {
		path = fs.Arg(0)
	}
	registry, err := loadSchema(path)
	if err != nil {
		return err
	}
	if path == "" {
		path = "built-in"
	}
	logger.Printf("config ok path=%s sets=%d params=%d results=%d",
		path, len(registry.Sets()), len(registry.Params()), len(registry.Results()))
	return nil
}

func runSetup(ctx context.Context, args []string, cfg conversion.RunConfig, logger *log.Logger, stderr io.Writer) error {
	fs := flag.NewFlagSet("setup", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&cfg.SchemaPath, "config", cfg.SchemaPath, "schema config that data templates follow; empty uses the built-in schema")
	overwrite := fs.Bool("overwrite", false, "replace an existing destination")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 2 {
		return errors.New("setup: config|data and PATH are required")
	}

	registry, err := loadSchema(cfg.SchemaPath)
	if err != nil {
		return err
	}
	svc, err := conversion.NewService(registry, cfg, conversion.WithLogger(logger))
	if err != nil {
		return err
	}
	_, err = svc.Setup(ctx, conversion.SetupRequest{Kind: fs.Arg(0), Path: fs.Arg(1), Overwrite: *overwrite})
	return err
}

func loadSchema(path string) (*schema.Registry, error) {
	if path == "" {
		return config.Default()
	}
	return config.Load(path)
}

// finish writes the metrics textfile, keeping the run error first.
func finish(cfg conversion.RunConfig, runErr error) error {
	if cfg.MetricsFile == "" {
		return runErr
	}
	if err := metrics.WriteTextfile(cfg.MetricsFile); err != nil && runErr == nil {
		return fmt.Errorf("write metrics: %w", err)
	}
	return runErr
}
