package formats

import (
	"context"

	dataset "energymodel-convert/internal/dataset/domain"
	schema "energymodel-convert/internal/schema/domain"
)

// Reader loads a dataset from source into a fresh Model bound to registry.
type Reader interface {
	Read(ctx context.Context, source string, registry *schema.Registry) (*dataset.Model, error)
}

// Writer renders model at destination.
type Writer interface {
	Write(ctx context.Context, model *dataset.Model, destination string) error
}
