package solver

import (
	"bufio"
	"context"
	"io"
	"strconv"
	"strings"

	dataset "energymodel-convert/internal/dataset/domain"
	schema "energymodel-convert/internal/schema/domain"
)

// Gurobi parses Gurobi .sol files.
type Gurobi struct {
	opts Options
}

// Dialect returns "gurobi".
func (p *Gurobi) Dialect() string { return "gurobi" }

// Parse skips # comment lines and reads "Var(i,...) value" lines.
func (p *Gurobi) Parse(ctx context.Context, in io.Reader, registry *schema.Registry, _ *dataset.Model) (*dataset.Model, error) {
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	var records []Record
	line := 0
	for scanner.Scan() {
		line++
		raw := scanner.Text()
		text := strings.TrimSpace(raw)
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		name, index, rest, ok := splitVariable(text)
		if !ok {
			return nil, lineError(line, raw, "expected Var(index) value")
		}
		fields := strings.Fields(rest)
		if len(fields) != 1 {
			return nil, lineError(line, raw, "expected a single value")
		}
		value, err := strconv.ParseFloat(fields[0], 64)
		if err != nil {
			return nil, lineError(line, raw, "value is not numeric")
		}
		records = append(records, Record{Variable: name, Index: index, Value: value, Line: line})
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return build(ctx, records, registry, p.opts)
}
