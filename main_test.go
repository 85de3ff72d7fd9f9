package main

import (
	"bytes"
	"context"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestRunValidateConfig(t *testing.T) {
	t.Setenv("ENERGYMODEL_CONFIG", "")
	var logs bytes.Buffer
	if err := run(context.Background(), []string{"validate-config"}, log.New(&logs, "", 0), io.Discard); err != nil {
		t.Fatalf("validate-config: %v", err)
	}
	if !strings.Contains(logs.String(), "config ok path=built-in") {
		t.Fatalf("expected config ok line, got %q", logs.String())
	}
}

func TestRunValidateConfigInvalid(t *testing.T) {
	t.Setenv("ENERGYMODEL_CONFIG", "")
	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("REGION:\n  type: bogus\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := run(context.Background(), []string{"validate-config", path}, log.New(io.Discard, "", 0), io.Discard); err == nil {
		t.Fatalf("expected error for invalid config")
	}
}

func TestRunUsage(t *testing.T) {
	t.Setenv("ENERGYMODEL_CONFIG", "")
	logger := log.New(io.Discard, "", 0)
	if err := run(context.Background(), nil, logger, io.Discard); err == nil {
		t.Fatalf("expected usage error")
	}
	if err := run(context.Background(), []string{"serve"}, logger, io.Discard); err == nil {
		t.Fatalf("expected unknown command error")
	}
	if err := run(context.Background(), []string{"convert", "-from", "csv"}, logger, io.Discard); err == nil {
		t.Fatalf("expected missing arguments error")
	}
	if err := run(context.Background(), []string{"results", "-solver", "cbc"}, logger, io.Discard); err == nil {
		t.Fatalf("expected missing arguments error")
	}
}

func TestRunConvertWritesMetrics(t *testing.T) {
	t.Setenv("ENERGYMODEL_CONFIG", "")
	root := t.TempDir()
	data := filepath.Join(root, "model.txt")
	if err := os.WriteFile(data, []byte("set REGION := BB;\nparam DiscountRate default 0.05 := BB 0.1;\nend;\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	metricsFile := filepath.Join(root, "run.prom")
	args := []string{"convert", "-from", "datafile", "-to", "csv", "-metrics-file", metricsFile, data, filepath.Join(root, "csv")}
	if err := run(context.Background(), args, log.New(io.Discard, "", 0), io.Discard); err != nil {
		t.Fatalf("convert: %v", err)
	}
	got, err := os.ReadFile(filepath.Join(root, "csv", "DiscountRate.csv"))
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(got) != "REGION,VALUE\nBB,0.1\n" {
		t.Fatalf("unexpected DiscountRate.csv %q", got)
	}
	prom, err := os.ReadFile(metricsFile)
	if err != nil {
		t.Fatalf("read metrics: %v", err)
	}
	if !strings.Contains(string(prom), `energymodel_conversion_total{from="datafile",result="success",to="csv"} 1`) {
		t.Fatalf("expected conversion counter, got:\n%s", prom)
	}
}

func TestRunSetup(t *testing.T) {
	t.Setenv("ENERGYMODEL_CONFIG", "")
	root := t.TempDir()
	logger := log.New(io.Discard, "", 0)
	configPath := filepath.Join(root, "config.yaml")
	if err := run(context.Background(), []string{"setup", "config", configPath}, logger, io.Discard); err != nil {
		t.Fatalf("setup config: %v", err)
	}
	data := filepath.Join(root, "data")
	if err := run(context.Background(), []string{"setup", "-config", configPath, "data", data}, logger, io.Discard); err != nil {
		t.Fatalf("setup data: %v", err)
	}
	got, err := os.ReadFile(filepath.Join(data, "YearSplit.csv"))
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(got) != "TIMESLICE,YEAR,VALUE\n" {
		t.Fatalf("unexpected YearSplit.csv %q", got)
	}
	if err := run(context.Background(), []string{"setup", "data", data}, logger, io.Discard); err == nil {
		t.Fatalf("expected existing destination error")
	}
	if err := run(context.Background(), []string{"setup", "config"}, logger, io.Discard); err == nil {
		t.Fatalf("expected missing arguments error")
	}
}
