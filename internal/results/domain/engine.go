package results

import (
	"context"
	"io"
	"log"

	dataset "energymodel-convert/internal/dataset/domain"
	schema "energymodel-convert/internal/schema/domain"
)

// Outcome classifies what happened to one step.
type Outcome string

const (
	OutcomePassthrough Outcome = "passthrough"
	OutcomeDerived     Outcome = "derived"
	OutcomeSkipped     Outcome = "skipped"
)

// StepResult records one step of a derivation.
type StepResult struct {
	Target  string
	Outcome Outcome
	Rows    int
}

// Engine derives missing result entities.
type Engine struct {
	logger *log.Logger
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithLogger sets the engine logger.
func WithLogger(logger *log.Logger) EngineOption {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// NewEngine constructs an engine.
func NewEngine(opts ...EngineOption) *Engine {
	e := &Engine{logger: log.New(io.Discard, "", 0)}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Derive walks the variant's steps and adds every missing target to model,
// which it mutates and returns.
func (e *Engine) Derive(ctx context.Context, model *dataset.Model, variant Variant) (*dataset.Model, []StepResult, error) {
	registry := model.Registry()
	env := NewEnv(model)
	produced := make(map[string]bool)
	var report []StepResult

	for _, step := range variant.Steps() {
		if err := ctx.Err(); err != nil {
			return nil, report, err
		}
		entry, declared := registry.Entry(step.Target)
		if !declared {
			e.logger.Printf("derive skipped entity=%s reason=undeclared", step.Target)
			report = append(report, StepResult{Target: step.Target, Outcome: OutcomeSkipped})
			continue
		}
		if table, ok := model.Table(step.Target); ok {
			e.logger.Printf("derive passthrough entity=%s rows=%d", step.Target, table.Len())
			report = append(report, StepResult{Target: step.Target, Outcome: OutcomePassthrough, Rows: table.Len()})
			continue
		}
		if err := e.resolve(registry, model, variant, step, produced); err != nil {
			return nil, report, err
		}

		frame, err := step.Formula(env)
		if err != nil {
			return nil, report, err
		}
		table, err := frame.Table(entry)
		if err != nil {
			return nil, report, err
		}
		if err := model.PutTable(step.Target, table); err != nil {
			return nil, report, err
		}
		produced[step.Target] = true
		e.logger.Printf("derived entity=%s rows=%d", step.Target, table.Len())
		report = append(report, StepResult{Target: step.Target, Outcome: OutcomeDerived, Rows: table.Len()})
	}
	return model, report, nil
}

// resolve checks every required input of step.
func (e *Engine) resolve(registry *schema.Registry, model *dataset.Model, variant Variant, step Step, produced map[string]bool) error {
	for _, input := range step.Inputs {
		entry, ok := registry.Entry(input)
		if !ok {
			return &MissingDependencyError{Variant: variant.Name, Target: step.Target, Dependency: input, Reason: "is not declared"}
		}
		if entry.Kind != schema.KindResult {
			continue
		}
		if model.HasTable(input) || variant.IsNative(input) || produced[input] {
			continue
		}
		return &MissingDependencyError{Variant: variant.Name, Target: step.Target, Dependency: input, Reason: "is neither present, native nor derived earlier"}
	}
	return nil
}
