package datafile

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	dataset "energymodel-convert/internal/dataset/domain"
	"energymodel-convert/internal/formats"
	"energymodel-convert/internal/formats/formatstest"
)

func TestRoundTrip(t *testing.T) {
	ctx := context.Background()
	model := formatstest.Model(t)
	path := filepath.Join(t.TempDir(), "model.txt")

	if err := NewWriter().Write(ctx, model, path); err != nil {
		t.Fatalf("write: %v", err)
	}
	got, err := NewReader().Read(ctx, path, model.Registry())
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if diff := formatstest.Diff(model, got); diff != "" {
		t.Fatalf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestRoundTripEmbeddedQuote(t *testing.T) {
	ctx := context.Background()
	model, err := dataset.NewModel(formatstest.Registry(t))
	if err != nil {
		t.Fatalf("new model: %v", err)
	}
	for name, members := range map[string][]string{
		"REGION":     {"BB"},
		"TECHNOLOGY": {"O'Hare", "gas plant"},
		"YEAR":       {"2016"},
	} {
		if err := model.PutSet(name, members); err != nil {
			t.Fatalf("put set: %v", err)
		}
	}
	if err := model.Put("CapitalCost", []string{"BB", "O'Hare", "2016"}, 7); err != nil {
		t.Fatalf("put: %v", err)
	}

	var buf bytes.Buffer
	if err := NewWriter().WriteTo(ctx, model, &buf); err != nil {
		t.Fatalf("write: %v", err)
	}
	if !strings.Contains(buf.String(), "BB 'O''Hare' 2016 7\n") {
		t.Fatalf("expected doubled quote, got:\n%s", buf.String())
	}
	got, err := NewReader().ReadFrom(ctx, &buf, model.Registry())
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if diff := formatstest.Diff(model, got); diff != "" {
		t.Fatalf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestWriterLayout(t *testing.T) {
	model := formatstest.Model(t)
	if err := model.Put("CapitalCost", []string{"BB", "coal_plant", "2016"}, 0); err != nil {
		t.Fatalf("put: %v", err)
	}
	var buf bytes.Buffer
	if err := NewWriter().WriteTo(context.Background(), model, &buf); err != nil {
		t.Fatalf("write: %v", err)
	}
	out := buf.String()
	if !strings.HasPrefix(out, "# Model file written by") {
		t.Fatalf("expected header comment, got %q", out[:40])
	}
	if !strings.HasSuffix(out, ";\nend;\n") {
		t.Fatalf("expected end; terminator")
	}
	for _, want := range []string{
		"set YEAR :=\n2016\n2017\n;\n",
		"param default 0 : CapitalCost :=\nBB coal_plant 2017 1200\nBB gas_plant 2016 500\nBB gas_plant 2017 520.5\n;\n",
		"param default 0.05 : DiscountRate :=\nBB 0.1\n;\n",
		"param default 0 : AccumulatedAnnualDemand :=\n;\n",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected output to contain %q\n%s", want, out)
		}
	}
}

func TestWriterPadsColumnsWhenKeepingWhitespace(t *testing.T) {
	model := formatstest.Model(t)
	var buf bytes.Buffer
	if err := NewWriter(formats.WithKeepWhitespace(true)).WriteTo(context.Background(), model, &buf); err != nil {
		t.Fatalf("write: %v", err)
	}
	want := "BB coal_plant 2017 1200\nBB gas_plant  2016 500\n"
	if !strings.Contains(buf.String(), want) {
		t.Fatalf("expected aligned columns %q\n%s", want, buf.String())
	}
}

func TestWriteDefaultsWritesDenseProduct(t *testing.T) {
	model := formatstest.Model(t)
	var buf bytes.Buffer
	if err := NewWriter(formats.WithWriteDefaults(true)).WriteTo(context.Background(), model, &buf); err != nil {
		t.Fatalf("write: %v", err)
	}
	want := "param default 1 : CapacityToActivityUnit :=\nBB coal_plant 1\nBB gas_plant 1\n;\n"
	if !strings.Contains(buf.String(), want) {
		t.Fatalf("expected dense block %q", want)
	}
}

const sample = `# comment line
set REGION := BB ;
set TECHNOLOGY := gas_plant 'coal plant' ;
set YEAR := 2016 2017 2018;
param CapitalCost
:=
BB gas_plant 2016 3.1101  # trailing comment
BB 'coal plant' 2017 12
;
param default 30 : OperationalLife :=
[BB,*] gas_plant 25 'coal plant' 40
;
param YearSplit default 0 : 2016 2017 :=
ID 0.5 .
;
end;
set REGION := ignored ;
`

func TestReaderGrammar(t *testing.T) {
	model, err := NewReader().ReadFrom(context.Background(), strings.NewReader(sample), formatstest.Registry(t))
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if diff := cmp.Diff([]string{"gas_plant", "coal plant"}, model.Members("TECHNOLOGY")); diff != "" {
		t.Fatalf("unexpected members (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"BB"}, model.Members("REGION")); diff != "" {
		t.Fatalf("statements after end; must be ignored (-want +got):\n%s", diff)
	}

	cases := []struct {
		name  string
		tuple []string
		want  float64
	}{
		{"CapitalCost", []string{"BB", "gas_plant", "2016"}, 3.1101},
		{"CapitalCost", []string{"BB", "coal plant", "2017"}, 12},
		{"CapitalCost", []string{"BB", "gas_plant", "2018"}, 0},
		{"OperationalLife", []string{"BB", "gas_plant"}, 25},
		{"OperationalLife", []string{"BB", "coal plant"}, 40},
		{"YearSplit", []string{"ID", "2016"}, 0.5},
	}
	for _, tc := range cases {
		table, ok := model.Table(tc.name)
		if !ok {
			t.Fatalf("expected table %s", tc.name)
		}
		if got := table.Value(tc.tuple); got != tc.want {
			t.Fatalf("%s%v: expected %v, got %v", tc.name, tc.tuple, tc.want, got)
		}
	}
	table, _ := model.Table("YearSplit")
	if table.Len() != 1 {
		t.Fatalf("expected . to leave the cell absent, got %d rows", table.Len())
	}
}

func TestReaderErrors(t *testing.T) {
	reg := formatstest.Registry(t)
	cases := []struct {
		name   string
		input  string
		target error
	}{
		{"incomplete record", "param CapitalCost := BB gas_plant ;\nend;\n", formats.ErrFormat},
		{"bad value", "param CapitalCost := BB gas_plant 2016 abc ;\n", formats.ErrFormat},
		{"fractional int", "param OperationalLife := BB gas_plant 2.5 ;\n", formats.ErrFormat},
		{"duplicate tuple", "param DiscountRate := BB 0.1 BB 0.2 ;\n", dataset.ErrDuplicateIndex},
		{"unknown entity strict", "param Mystery := a 1 ;\n", formats.ErrSchemaMismatch},
		{"unterminated quote", "set REGION := 'BB ;\n", formats.ErrFormat},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewReader(formats.WithPolicy(formats.PolicyFail)).ReadFrom(context.Background(), strings.NewReader(tc.input), reg)
			if !errors.Is(err, tc.target) {
				t.Fatalf("expected %v, got %v", tc.target, err)
			}
		})
	}
}

func TestReaderSkipsUnknownEntityWhenWarning(t *testing.T) {
	input := "param Mystery default 0 : a b := x 1 2 ;\nset YEAR := 2016 ;\nend;\n"
	model, err := NewReader().ReadFrom(context.Background(), strings.NewReader(input), formatstest.Registry(t))
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if diff := cmp.Diff([]string{"2016"}, model.Members("YEAR")); diff != "" {
		t.Fatalf("unexpected YEAR (-want +got):\n%s", diff)
	}
}
