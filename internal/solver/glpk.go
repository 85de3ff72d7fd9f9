package solver

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	dataset "energymodel-convert/internal/dataset/domain"
	schema "energymodel-convert/internal/schema/domain"
)

// GLPK parses GLPK raw solution files (--write) using the column names of
// the companion model file (--wglp).
type GLPK struct {
	opts Options
}

// Dialect returns "glpk".
func (p *GLPK) Dialect() string { return "glpk" }

// Column is a model file column resolved to its variable.
type Column struct {
	Variable string
	Index    []string
}

// Parse reads the solution in; the model file comes from WithModelFile.
func (p *GLPK) Parse(ctx context.Context, in io.Reader, registry *schema.Registry, _ *dataset.Model) (*dataset.Model, error) {
	if p.opts.ModelFile == "" {
		return nil, ErrModelFileRequired
	}
	file, err := os.Open(p.opts.ModelFile)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrModelFileRequired, err)
	}
	defer file.Close()
	columns, err := ReadColumns(file)
	if err != nil {
		return nil, err
	}
	return p.ParseWithColumns(ctx, in, columns, registry)
}

// ReadColumns reads "n j <col> <Name[idx,...]>" lines of a model file.
func ReadColumns(in io.Reader) (map[int]Column, error) {
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	columns := make(map[int]Column)
	line := 0
	for scanner.Scan() {
		line++
		raw := scanner.Text()
		fields := strings.Fields(raw)
		if len(fields) < 4 || fields[0] != "n" || fields[1] != "j" {
			continue
		}
		number, err := strconv.Atoi(fields[2])
		if err != nil {
			return nil, lineError(line, raw, "column number is not an integer")
		}
		name := strings.Join(fields[3:], " ")
		variable, index, _, ok := splitVariable(name)
		if !ok {
			variable = name
		}
		columns[number] = Column{Variable: variable, Index: index}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return columns, nil
}

// ParseWithColumns parses a solution against already loaded model columns.
func (p *GLPK) ParseWithColumns(ctx context.Context, in io.Reader, columns map[int]Column, registry *schema.Registry) (*dataset.Model, error) {
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	var records []Record
	kind := ""
	line := 0
	for scanner.Scan() {
		line++
		raw := scanner.Text()
		fields := strings.Fields(raw)
		if len(fields) == 0 {
			continue
		}
		switch fields[0] {
		case "c", "i":
			continue
		case "e":
			return build(ctx, records, registry, p.opts)
		case "s":
			if len(fields) < 2 {
				return nil, lineError(line, raw, "missing solution kind")
			}
			kind = fields[1]
			if kind != "bas" && kind != "mip" && kind != "ipt" {
				return nil, lineError(line, raw, "unknown solution kind "+kind)
			}
			continue
		case "j":
		default:
			return nil, lineError(line, raw, "unexpected line")
		}

		var valueField int
		switch kind {
		case "bas":
			valueField = 3 // j col st prim dual
		case "mip":
			valueField = 2 // j col val
		case "ipt":
			valueField = 2 // j col prim dual
		default:
			return nil, lineError(line, raw, "column line before solution status")
		}
		if len(fields) <= valueField {
			return nil, lineError(line, raw, "missing value for "+kind+" solution")
		}
		number, err := strconv.Atoi(fields[1])
		if err != nil {
			return nil, lineError(line, raw, "column number is not an integer")
		}
		col, ok := columns[number]
		if !ok {
			return nil, lineError(line, raw, "column "+fields[1]+" is not in the model file")
		}
		value, err := strconv.ParseFloat(fields[valueField], 64)
		if err != nil {
			return nil, lineError(line, raw, "value is not numeric")
		}
		records = append(records, Record{Variable: col.Variable, Index: col.Index, Value: value, Line: line})
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return build(ctx, records, registry, p.opts)
}
