package application

import (
	"archive/zip"
	"bytes"
	"context"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	dataset "energymodel-convert/internal/dataset/domain"
	"energymodel-convert/internal/formats/formatstest"
	"energymodel-convert/internal/formats/long"
	"energymodel-convert/internal/formats/report"
	results "energymodel-convert/internal/results/domain"
	"energymodel-convert/internal/solver"
)

const cbcSolution = "Optimal - objective value 50\n      0 NewCapacity(BB,gas_plant,2020)       10      0\n"

func writeInput(t *testing.T, root string) string {
	t.Helper()
	m, err := dataset.NewModel(formatstest.Registry(t))
	if err != nil {
		t.Fatalf("new model: %v", err)
	}
	for name, members := range map[string][]string{
		"REGION":     {"BB"},
		"TECHNOLOGY": {"gas_plant"},
		"YEAR":       {"2020"},
	} {
		if err := m.PutSet(name, members); err != nil {
			t.Fatalf("put set: %v", err)
		}
	}
	if err := m.Put("CapitalCost", []string{"BB", "gas_plant", "2020"}, 5); err != nil {
		t.Fatalf("put: %v", err)
	}
	dir := filepath.Join(root, "input")
	if err := long.NewWriter().Write(context.Background(), m, dir); err != nil {
		t.Fatalf("write input: %v", err)
	}
	return dir
}

func newService(t *testing.T, logs *bytes.Buffer, opts ...Option) *Service {
	t.Helper()
	parser, err := solver.ParserFor("cbc")
	if err != nil {
		t.Fatalf("parser: %v", err)
	}
	variant, err := results.VariantFor("fast")
	if err != nil {
		t.Fatalf("variant: %v", err)
	}
	opts = append(opts, WithLogger(log.New(logs, "", 0)))
	svc, err := NewService(formatstest.Registry(t), long.NewReader(), parser, variant, opts...)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

func TestRunWritesDerivedResults(t *testing.T) {
	root := t.TempDir()
	input := writeInput(t, root)
	solution := filepath.Join(root, "run.sol")
	if err := os.WriteFile(solution, []byte(cbcSolution), 0o644); err != nil {
		t.Fatalf("write solution: %v", err)
	}

	var logs bytes.Buffer
	svc := newService(t, &logs, WithReportWriter(report.NewWriter()))
	out := filepath.Join(root, "results")
	summary, err := svc.Run(context.Background(), Request{
		Input:    input,
		Solution: solution,
		Output:   out,
		Archive:  filepath.Join(root, "results.zip"),
		Report:   filepath.Join(root, "results.pdf"),
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if summary.Records != 1 {
		t.Fatalf("expected 1 record, got %d", summary.Records)
	}

	data, err := os.ReadFile(filepath.Join(out, "CapitalInvestment.csv"))
	if err != nil {
		t.Fatalf("read CapitalInvestment: %v", err)
	}
	if got, want := string(data), "REGION,TECHNOLOGY,YEAR,VALUE\nBB,gas_plant,2020,50\n"; got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
	if _, err := os.Stat(filepath.Join(out, "CapitalCost.csv")); !os.IsNotExist(err) {
		t.Fatalf("expected parameters to stay out of the results, got %v", err)
	}
	if !strings.Contains(logs.String(), "derived entity=CapitalInvestment rows=1") {
		t.Fatalf("expected derived log line, got %q", logs.String())
	}

	zr, err := zip.OpenReader(filepath.Join(root, "results.zip"))
	if err != nil {
		t.Fatalf("open archive: %v", err)
	}
	defer zr.Close()
	var archived []string
	for _, f := range zr.File {
		archived = append(archived, f.Name)
	}
	written := append([]string(nil), summary.Files...)
	sort.Strings(archived)
	sort.Strings(written)
	if diff := cmp.Diff(written, archived); diff != "" {
		t.Fatalf("archive mismatch (-written +archived):\n%s", diff)
	}

	pdf, err := os.ReadFile(filepath.Join(root, "results.pdf"))
	if err != nil || !bytes.HasPrefix(pdf, []byte("%PDF-")) {
		t.Fatalf("expected a pdf report, got err=%v", err)
	}
}

func TestRunRequiresPaths(t *testing.T) {
	var logs bytes.Buffer
	svc := newService(t, &logs)
	if _, err := svc.Run(context.Background(), Request{Input: "x"}); err == nil {
		t.Fatalf("expected error for missing solution and output")
	}
}

func TestRunReportWithoutWriter(t *testing.T) {
	root := t.TempDir()
	input := writeInput(t, root)
	solution := filepath.Join(root, "run.sol")
	if err := os.WriteFile(solution, []byte(cbcSolution), 0o644); err != nil {
		t.Fatalf("write solution: %v", err)
	}
	var logs bytes.Buffer
	svc := newService(t, &logs)
	_, err := svc.Run(context.Background(), Request{
		Input:    input,
		Solution: solution,
		Output:   filepath.Join(root, "results"),
		Report:   filepath.Join(root, "results.pdf"),
	})
	if err == nil {
		t.Fatalf("expected error without a report writer")
	}
}

func TestNewServiceValidates(t *testing.T) {
	variant, _ := results.VariantFor("fast")
	if _, err := NewService(nil, long.NewReader(), nil, variant); err == nil {
		t.Fatalf("expected error for nil registry")
	}
	if _, err := NewService(formatstest.Registry(t), long.NewReader(), nil, variant); err == nil {
		t.Fatalf("expected error for nil parser")
	}
}
