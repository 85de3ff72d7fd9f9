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

const (
	highsModelStatus = "Model status"
	highsPrimal      = "# Primal solution values"
	highsColumns     = "# Columns"
	highsRows        = "# Rows"
)

// HiGHS parses HiGHS solution files.
type HiGHS struct {
	opts Options
}

// Dialect returns "highs".
func (p *HiGHS) Dialect() string { return "highs" }

// Parse reads the column values of the primal solution section.
func (p *HiGHS) Parse(ctx context.Context, in io.Reader, registry *schema.Registry, _ *dataset.Model) (*dataset.Model, error) {
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	var records []Record
	line := 0
	inPrimal := false
	expectStatus := false
	remaining := 0
	for scanner.Scan() {
		line++
		raw := scanner.Text()
		text := strings.TrimSpace(raw)
		if text == "" {
			continue
		}
		switch {
		case expectStatus:
			expectStatus = false
			if text != "Optimal" {
				p.opts.Logger.Printf("warning: highs model status is %s", text)
			}
			continue
		case text == highsModelStatus:
			expectStatus = true
			continue
		case text == highsPrimal:
			inPrimal = true
			continue
		case !inPrimal:
			continue
		case strings.HasPrefix(text, highsRows):
			return build(ctx, records, registry, p.opts)
		case strings.HasPrefix(text, highsColumns):
			n, err := strconv.Atoi(strings.TrimSpace(strings.TrimPrefix(text, highsColumns)))
			if err != nil {
				return nil, lineError(line, raw, "column count is not an integer")
			}
			remaining = n
			continue
		case remaining == 0:
			// objective and feasibility lines
			continue
		}

		remaining--
		name, index, rest, ok := splitVariable(text)
		if !ok {
			// unindexed columns carry no result entity
			fields := strings.Fields(text)
			if len(fields) == 2 {
				if _, err := strconv.ParseFloat(fields[1], 64); err == nil {
					continue
				}
			}
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
