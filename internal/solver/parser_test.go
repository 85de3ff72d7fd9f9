package solver

import (
	"bytes"
	"context"
	"errors"
	"log"
	"os"
	"path/filepath"
	"strings"
	"testing"

	dataset "energymodel-convert/internal/dataset/domain"
	"energymodel-convert/internal/formats"
	"energymodel-convert/internal/formats/formatstest"
)

const glpkModel = `p lp min 3 2 4
n p osemosys
n z cost
n i 1 cost
n j 1 NewCapacity[BB,gas_plant,2016]
n j 2 RateOfActivity[BB,ID,gas_plant,1,2016]
a 1 1 2.5
`

func baseModel(t *testing.T, years ...string) *dataset.Model {
	t.Helper()
	m, err := dataset.NewModel(formatstest.Registry(t))
	if err != nil {
		t.Fatalf("new model: %v", err)
	}
	if err := m.PutSet("YEAR", years); err != nil {
		t.Fatalf("put years: %v", err)
	}
	return m
}

func writeModelFile(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "model.glp")
	if err := os.WriteFile(path, []byte(glpkModel), 0o644); err != nil {
		t.Fatalf("write model file: %v", err)
	}
	return path
}

func TestEveryDialectParsesNewCapacity(t *testing.T) {
	modelFile := writeModelFile(t)
	cases := []struct {
		dialect string
		input   string
		opts    []Option
	}{
		{"cbc", "Optimal - objective value 4483.96932237\n      0 NewCapacity(BB,gas_plant,2016)       3.1101      0\n", nil},
		{"gurobi", "# Solution for model cost\n# Objective value = 4483.96932237\nNewCapacity(BB,gas_plant,2016) 3.1101\n", nil},
		{"highs", "Model status\nOptimal\n\n# Primal solution values\nFeasible\nObjective 4483.96\n# Columns 1\nNewCapacity(BB,gas_plant,2016) 3.1101\n# Rows 1\ncost 4483.96\n", nil},
		{"cplex", "NewCapacity\tBB\tgas_plant\t3.1101\t0\n", nil},
		{"glpk", "c Problem:    osemosys\ns bas 1 2 f f 4483.96\ni 1 b 4483.96 0\nj 1 b 3.1101 0\nj 2 l 0 0\ne o f\n", []Option{WithModelFile(modelFile)}},
		{"glpk", "s mip 1 2 o 4483.96\ni 1 4483.96\nj 1 3.1101\nj 2 0\ne o f\n", []Option{WithModelFile(modelFile)}},
		{"glpk", "s ipt 1 2 f f 4483.96\nj 1 3.1101 0\nj 2 0 0\ne o f\n", []Option{WithModelFile(modelFile)}},
	}
	reg := formatstest.Registry(t)
	for _, tc := range cases {
		t.Run(tc.dialect, func(t *testing.T) {
			parser, err := ParserFor(tc.dialect, tc.opts...)
			if err != nil {
				t.Fatalf("parser: %v", err)
			}
			model, err := parser.Parse(context.Background(), strings.NewReader(tc.input), reg, baseModel(t, "2016", "2017"))
			if err != nil {
				t.Fatalf("parse: %v", err)
			}
			table, ok := model.Table("NewCapacity")
			if !ok {
				t.Fatalf("expected NewCapacity table")
			}
			if got, ok := table.Get([]string{"BB", "gas_plant", "2016"}); !ok || got != 3.1101 {
				t.Fatalf("expected 3.1101, got %v (present %v)", got, ok)
			}
		})
	}
}

func TestZeroValuesAreRecorded(t *testing.T) {
	input := "Optimal - objective value 1\n0 RateOfActivity(BB,ID,gas_plant,1,2016) 0 0\n1 Trade(Globe,Globe,IP,L_AGR,2015) -0.0 0\n"
	parser, _ := ParserFor("cbc")
	model, err := parser.Parse(context.Background(), strings.NewReader(input), formatstest.Registry(t), nil)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	for _, name := range []string{"RateOfActivity", "Trade"} {
		table, ok := model.Table(name)
		if !ok || table.Len() != 1 {
			t.Fatalf("expected one recorded zero for %s", name)
		}
	}
}

func TestCBCInfeasibleMarkerWarnsOnce(t *testing.T) {
	input := "Infeasible - objective value 4483.96932237\n" +
		"**  381218 RateOfActivity(BB,ID,gas_plant,1,2016) -1.6e-06 0.02\n" +
		"**  381219 RateOfActivity(BB,ID,gas_plant,1,2017) -2e-06 0.02\n"
	var logs bytes.Buffer
	parser, _ := ParserFor("cbc", WithLogger(log.New(&logs, "", 0)))
	model, err := parser.Parse(context.Background(), strings.NewReader(input), formatstest.Registry(t), nil)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if n := strings.Count(logs.String(), "infeasible"); n != 1 {
		t.Fatalf("expected one infeasibility warning, got %d in %q", n, logs.String())
	}
	table, _ := model.Table("RateOfActivity")
	if got := table.Value([]string{"BB", "ID", "gas_plant", "1", "2016"}); got != -1.6e-06 {
		t.Fatalf("expected -1.6e-06, got %v", got)
	}
}

func TestShortNamesResolve(t *testing.T) {
	input := "# header\nRateOfProductionByTechByMode(BB,ID,gas_plant,1,ELC,2016) 2\n"
	parser, _ := ParserFor("gurobi")
	model, err := parser.Parse(context.Background(), strings.NewReader(input), formatstest.Registry(t), nil)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if !model.HasTable("RateOfProductionByTechnologyByMode") {
		t.Fatalf("expected short name to resolve, got %v", model.Names())
	}
}

func TestUnknownVariablePolicy(t *testing.T) {
	input := "# header\nMystery(BB) 2\nNewCapacity(BB,gas_plant,2016) 1\n"
	reg := formatstest.Registry(t)

	warn, _ := ParserFor("gurobi")
	model, err := warn.Parse(context.Background(), strings.NewReader(input), reg, nil)
	if err != nil {
		t.Fatalf("expected warning only, got %v", err)
	}
	if !model.HasTable("NewCapacity") {
		t.Fatalf("expected known variable to be kept")
	}

	fail, _ := ParserFor("gurobi", WithPolicy(formats.PolicyFail))
	_, err = fail.Parse(context.Background(), strings.NewReader(input), reg, nil)
	if !errors.Is(err, formats.ErrSchemaMismatch) {
		t.Fatalf("expected schema mismatch, got %v", err)
	}
}

func TestCPLEXSample(t *testing.T) {
	line := "AnnualFixedOperatingCost\tREGION\tCDBACKSTOP\t0.0\t0.0\t137958.8400384134\t0.0\t0.0\t0.0\t0.0\t0.0\t0.0\t0.0\t0.0\t0.0\t0.0\t0.0\t0.0\t0.0\n"
	parser, _ := ParserFor("cplex")
	model, err := parser.Parse(context.Background(), strings.NewReader(line), formatstest.Registry(t), baseModel(t, "2015", "2030"))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	table, _ := model.Table("AnnualFixedOperatingCost")
	if table.Len() != 16 {
		t.Fatalf("expected 16 years recorded, got %d", table.Len())
	}
	if got := table.Value([]string{"REGION", "CDBACKSTOP", "2017"}); got != 137958.8400384134 {
		t.Fatalf("expected 2017 value, got %v", got)
	}
}

func TestCPLEXUnsortedInput(t *testing.T) {
	input := "NewCapacity\tBB\tgas_plant\t1\t2\n" +
		"AnnualFixedOperatingCost\tBB\tgas_plant\t3\t4\n" +
		"NewCapacity\tBB\tcoal_plant\t5\t6\n"
	reg := formatstest.Registry(t)
	base := baseModel(t, "2016", "2017")

	parser, _ := ParserFor("cplex")
	_, err := parser.Parse(context.Background(), strings.NewReader(input), reg, base)
	var unsorted *UnsortedInputError
	if !errors.As(err, &unsorted) {
		t.Fatalf("expected unsorted input error, got %v", err)
	}
	if unsorted.Variable != "NewCapacity" || unsorted.Line != 3 {
		t.Fatalf("unexpected error detail %+v", unsorted)
	}
	if !strings.Contains(err.Error(), "sort") {
		t.Fatalf("expected remediation hint, got %q", err.Error())
	}

	sorting, _ := ParserFor("cplex", WithSortInput(true))
	model, err := sorting.Parse(context.Background(), strings.NewReader(input), reg, base)
	if err != nil {
		t.Fatalf("sorted parse: %v", err)
	}
	table, _ := model.Table("NewCapacity")
	if got := table.Value([]string{"BB", "coal_plant", "2017"}); got != 6 {
		t.Fatalf("expected 6, got %v", got)
	}
}

func TestCPLEXRequiresYears(t *testing.T) {
	parser, _ := ParserFor("cplex")
	reg := formatstest.Registry(t)
	if _, err := parser.Parse(context.Background(), strings.NewReader(""), reg, nil); !errors.Is(err, ErrMissingYears) {
		t.Fatalf("expected missing years, got %v", err)
	}
	if _, err := parser.Parse(context.Background(), strings.NewReader(""), reg, baseModel(t)); !errors.Is(err, ErrMissingYears) {
		t.Fatalf("expected missing years for empty set, got %v", err)
	}
}

func TestCPLEXWrongColumnCount(t *testing.T) {
	parser, _ := ParserFor("cplex")
	_, err := parser.Parse(context.Background(), strings.NewReader("NewCapacity\tBB\t1\n"), formatstest.Registry(t), baseModel(t, "2016", "2017"))
	if !errors.Is(err, formats.ErrFormat) {
		t.Fatalf("expected format error, got %v", err)
	}
}

func TestGLPKRequiresModelFile(t *testing.T) {
	parser, _ := ParserFor("glpk")
	_, err := parser.Parse(context.Background(), strings.NewReader("s bas 1 1 f f 0\n"), formatstest.Registry(t), nil)
	if !errors.Is(err, ErrModelFileRequired) {
		t.Fatalf("expected model file required, got %v", err)
	}
}

func TestGLPKUnknownColumn(t *testing.T) {
	parser, _ := ParserFor("glpk", WithModelFile(writeModelFile(t)))
	_, err := parser.Parse(context.Background(), strings.NewReader("s mip 1 1 o 0\nj 9 1\n"), formatstest.Registry(t), nil)
	if !errors.Is(err, formats.ErrFormat) {
		t.Fatalf("expected format error, got %v", err)
	}
}

func TestParserForUnknownDialect(t *testing.T) {
	if _, err := ParserFor("xpress"); !errors.Is(err, ErrUnknownDialect) {
		t.Fatalf("expected unknown dialect, got %v", err)
	}
	if got := strings.Join(Parsers(), ","); got != "cbc,cplex,glpk,gurobi,highs" {
		t.Fatalf("unexpected dialects %s", got)
	}
}

func TestParseFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sol.txt")
	if err := os.WriteFile(path, []byte("NewCapacity(BB,gas_plant,2016) 3.1101\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	parser, _ := ParserFor("gurobi")
	model, err := ParseFile(context.Background(), parser, path, formatstest.Registry(t), nil)
	if err != nil {
		t.Fatalf("parse file: %v", err)
	}
	if !model.HasTable("NewCapacity") {
		t.Fatalf("expected NewCapacity")
	}
}
