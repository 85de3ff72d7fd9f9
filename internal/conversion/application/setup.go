package application

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	dataset "energymodel-convert/internal/dataset/domain"
	"energymodel-convert/internal/formats"
	"energymodel-convert/internal/formats/long"
	schema "energymodel-convert/internal/schema/domain"
	"energymodel-convert/internal/schema/infrastructure/config"
)

const (
	SetupConfig = "config"
	SetupData   = "data"
)

// ErrDestinationExists is returned when setup would replace existing files.
var ErrDestinationExists = errors.New("conversion service: destination exists")

// SetupRequest describes one template to generate.
type SetupRequest struct {
	Kind      string
	Path      string
	Overwrite bool
}

// Setup writes a template schema config, or a folder holding a header-only
// CSV file for every declared set and parameter.
func (s *Service) Setup(ctx context.Context, req SetupRequest) ([]string, error) {
	if req.Path == "" {
		return nil, errors.New("conversion service: setup path is required")
	}
	if !req.Overwrite {
		if _, err := os.Stat(req.Path); err == nil {
			return nil, fmt.Errorf("%w: %s", ErrDestinationExists, req.Path)
		}
	}
	switch normalise(req.Kind) {
	case SetupConfig:
		if err := os.MkdirAll(filepath.Dir(req.Path), 0o755); err != nil {
			return nil, fmt.Errorf("conversion service: create %s: %w", filepath.Dir(req.Path), err)
		}
		if err := os.WriteFile(req.Path, config.DefaultData(), 0o644); err != nil {
			return nil, fmt.Errorf("conversion service: write %s: %w", req.Path, err)
		}
		s.logger.Printf("setup kind=config path=%s", req.Path)
		return []string{filepath.Base(req.Path)}, nil
	case SetupData:
		written, err := s.WriteEmptyData(ctx, req.Path)
		if err != nil {
			return written, err
		}
		s.logger.Printf("setup kind=data path=%s files=%d", req.Path, len(written))
		return written, nil
	default:
		return nil, fmt.Errorf("conversion service: unknown setup kind %q (want %s)",
			req.Kind, strings.Join([]string{SetupConfig, SetupData}, " or "))
	}
}

// WriteEmptyData writes the input entities of the registry to dir as empty
// CSV tables and returns the file names.
func (s *Service) WriteEmptyData(ctx context.Context, dir string) ([]string, error) {
	model, err := dataset.NewModel(s.registry)
	if err != nil {
		return nil, err
	}
	writer := long.NewWriter(
		formats.WithKinds(schema.KindSet, schema.KindParam),
		formats.WithLogger(s.logger),
	)
	written, err := writer.WriteFiles(ctx, model, dir)
	if err != nil {
		return written, fmt.Errorf("conversion service: setup data: %w", err)
	}
	return written, nil
}
