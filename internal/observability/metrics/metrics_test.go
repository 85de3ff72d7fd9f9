package metrics

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestObserveBeforeInit(t *testing.T) {
	if conversionTotal != nil {
		t.Skip("metrics already registered")
	}
	ObserveConversion("csv", "excel", ResultSuccess, time.Millisecond)
	ObserveSolverParse("cbc", ResultSuccess, 3)
	IncDeriveStep("fast", "derived")
	ObserveDerive("fast", ResultSuccess, time.Millisecond)
}

func TestResult(t *testing.T) {
	if Result(nil) != ResultSuccess {
		t.Fatalf("expected success")
	}
	if Result(errors.New("boom")) != ResultError {
		t.Fatalf("expected error")
	}
}

func TestWriteTextfile(t *testing.T) {
	Init()
	Init()

	ObserveConversion("csv", "excel", "", time.Millisecond)
	ObserveSolverParse("cbc", ResultSuccess, 4)
	ObserveSolverParse("cbc", ResultSuccess, 0)
	IncDeriveStep("", "")
	ObserveDerive("short", ResultSuccess, time.Second)

	path := filepath.Join(t.TempDir(), "run.prom")
	if err := WriteTextfile(path); err != nil {
		t.Fatalf("write textfile: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	text := string(data)
	for _, want := range []string{
		`energymodel_conversion_total{from="csv",result="success",to="excel"} 1`,
		`energymodel_solver_parse_total{dialect="cbc",result="success"} 2`,
		`energymodel_solver_records_total{dialect="cbc"} 4`,
		`energymodel_derive_steps_total{outcome="unknown",variant="unknown"} 1`,
		"energymodel_derive_latency_seconds_count",
	} {
		if !strings.Contains(text, want) {
			t.Fatalf("expected %q in textfile, got:\n%s", want, text)
		}
	}
}
