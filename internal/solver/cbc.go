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

const infeasibleMarker = "**"

// CBC parses COIN-OR CBC solution files.
type CBC struct {
	opts Options
}

// Dialect returns "cbc".
func (p *CBC) Dialect() string { return "cbc" }

// Parse reads "[**] n Var(i,...) value [dual]" lines after the status header.
func (p *CBC) Parse(ctx context.Context, in io.Reader, registry *schema.Registry, _ *dataset.Model) (*dataset.Model, error) {
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	var records []Record
	warned := false
	line := 0
	for scanner.Scan() {
		line++
		raw := scanner.Text()
		if line == 1 {
			p.opts.Logger.Printf("cbc status: %s", strings.TrimSpace(raw))
			continue
		}
		text := strings.TrimSpace(raw)
		if text == "" {
			continue
		}
		if strings.HasPrefix(text, infeasibleMarker) {
			if !warned {
				p.opts.Logger.Printf("warning: cbc solution contains decision variables out of bounds, the solution is infeasible")
				warned = true
			}
			text = strings.TrimSpace(strings.TrimPrefix(text, infeasibleMarker))
		}
		name, index, rest, ok := splitVariable(text)
		if !ok {
			return nil, lineError(line, raw, "expected Var(index) value")
		}
		fields := strings.Fields(rest)
		if len(fields) == 0 {
			return nil, lineError(line, raw, "missing value")
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
