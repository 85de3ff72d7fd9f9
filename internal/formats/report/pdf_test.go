package report

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"energymodel-convert/internal/formats/formatstest"
)

func TestBuildProducesPDF(t *testing.T) {
	data, err := NewWriter(WithTitle("fixture"), WithMaxRows(1)).Build(context.Background(), formatstest.Model(t))
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if !bytes.HasPrefix(data, []byte("%PDF-")) {
		t.Fatalf("expected PDF header, got %q", data[:8])
	}
}

func TestWriteCreatesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.pdf")
	if err := NewWriter().Write(context.Background(), formatstest.Model(t), path); err != nil {
		t.Fatalf("write: %v", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if info.Size() == 0 {
		t.Fatalf("expected non-empty report")
	}
}

func TestBuildHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := NewWriter().Build(ctx, formatstest.Model(t)); err == nil {
		t.Fatalf("expected context error")
	}
}
