package formats

import (
	"io"
	"log"

	dataset "energymodel-convert/internal/dataset/domain"
	schema "energymodel-convert/internal/schema/domain"
)

// Policy decides what happens when a source names an undeclared entity.
type Policy int

const (
	// PolicyWarn logs the entity and skips it.
	PolicyWarn Policy = iota
	// PolicyFail aborts the read with a SchemaMismatchError.
	PolicyFail
)

// Options are shared by every adapter.
type Options struct {
	KeepWhitespace bool
	WriteDefaults  bool
	Policy         Policy
	Kinds          []schema.Kind
	Logger         *log.Logger
}

// Option configures Options.
type Option func(*Options)

// WithKeepWhitespace keeps surrounding whitespace in index tokens, and in
// block text output keeps column padding.
func WithKeepWhitespace(keep bool) Option {
	return func(o *Options) {
		o.KeepWhitespace = keep
	}
}

// WithWriteDefaults makes writers emit every tuple of the dense product.
func WithWriteDefaults(write bool) Option {
	return func(o *Options) {
		o.WriteDefaults = write
	}
}

// WithPolicy sets the unknown entity policy.
func WithPolicy(policy Policy) Option {
	return func(o *Options) {
		o.Policy = policy
	}
}

// WithKinds restricts writers to entities of the given kinds.
func WithKinds(kinds ...schema.Kind) Option {
	return func(o *Options) {
		o.Kinds = append([]schema.Kind(nil), kinds...)
	}
}

// WithLogger sets the logger used for warnings.
func WithLogger(logger *log.Logger) Option {
	return func(o *Options) {
		if logger != nil {
			o.Logger = logger
		}
	}
}

// NewOptions applies opts over the defaults.
func NewOptions(opts ...Option) Options {
	o := Options{
		Policy: PolicyWarn,
		Logger: log.New(io.Discard, "", 0),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	return o
}

// Mismatch applies the policy to an undeclared entity. It returns nil when
// the entity should be skipped.
func (o Options) Mismatch(entity, source string) error {
	err := &SchemaMismatchError{Entity: entity, Source: source}
	if o.Policy == PolicyFail {
		return err
	}
	o.Logger.Printf("warning: skipping %s", err.Error())
	return nil
}

// Entities lists what a writer emits, in a stable order: every declared set
// and parameter, then the results stored in the model.
func (o Options) Entities(model *dataset.Model) []schema.Entry {
	registry := model.Registry()
	var out []schema.Entry
	for _, group := range [][]schema.Entry{registry.Sets(), registry.Params(), registry.Results()} {
		for _, entry := range group {
			if !o.includes(entry.Kind) {
				continue
			}
			if entry.Kind == schema.KindResult && !model.HasTable(entry.Name) {
				continue
			}
			out = append(out, entry)
		}
	}
	return out
}

func (o Options) includes(kind schema.Kind) bool {
	if len(o.Kinds) == 0 {
		return true
	}
	for _, k := range o.Kinds {
		if k == kind {
			return true
		}
	}
	return false
}
