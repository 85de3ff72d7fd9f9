package solver

import (
	"bufio"
	"context"
	"io"
	"sort"
	"strconv"
	"strings"

	dataset "energymodel-convert/internal/dataset/domain"
	schema "energymodel-convert/internal/schema/domain"
)

const yearSet = "YEAR"

// CPLEX parses transformed CPLEX output: one tab separated line per
// variable and leading index combination, one value column per year.
type CPLEX struct {
	opts Options
}

// Dialect returns "cplex".
func (p *CPLEX) Dialect() string { return "cplex" }

type cplexLine struct {
	number int
	fields []string
	raw    string
}

// Parse requires base to carry the YEAR horizon. Lines must be grouped by
// variable unless the sort option is set.
func (p *CPLEX) Parse(ctx context.Context, in io.Reader, registry *schema.Registry, base *dataset.Model) (*dataset.Model, error) {
	years, err := horizon(base)
	if err != nil {
		return nil, err
	}

	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	var lines []cplexLine
	number := 0
	for scanner.Scan() {
		number++
		raw := scanner.Text()
		if strings.TrimSpace(raw) == "" {
			continue
		}
		lines = append(lines, cplexLine{number: number, fields: strings.Split(strings.TrimRight(raw, "\r"), "\t"), raw: raw})
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	if p.opts.SortInput {
		sort.SliceStable(lines, func(i, j int) bool {
			return lines[i].fields[0] < lines[j].fields[0]
		})
	} else if err := checkGrouped(lines); err != nil {
		return nil, err
	}

	var records []Record
	for _, l := range lines {
		variable := l.fields[0]
		entry, ok := resultEntry(registry, variable)
		if !ok {
			// unknown variables carry no arity; build applies the policy
			records = append(records, Record{Variable: variable, Line: l.number})
			continue
		}
		arity := entry.Arity()
		if arity == 0 || entry.Indices[arity-1] != yearSet {
			return nil, lineError(l.number, l.raw, entry.Name+" does not end with a YEAR index")
		}
		if len(l.fields) != arity+len(years) {
			return nil, lineError(l.number, l.raw, "expected "+strconv.Itoa(arity-1)+" index and "+strconv.Itoa(len(years))+" year columns")
		}
		leading := l.fields[1:arity]
		values := l.fields[arity:]
		for i, token := range values {
			value, err := strconv.ParseFloat(strings.TrimSpace(token), 64)
			if err != nil {
				return nil, lineError(l.number, l.raw, "value is not numeric")
			}
			index := make([]string, 0, arity)
			index = append(index, leading...)
			index = append(index, years[i])
			records = append(records, Record{Variable: variable, Index: index, Value: value, Line: l.number})
		}
	}
	return build(ctx, records, registry, p.opts)
}

// horizon lists every year from the smallest to the largest YEAR member.
func horizon(base *dataset.Model) ([]string, error) {
	if base == nil {
		return nil, ErrMissingYears
	}
	members := base.Members(yearSet)
	if len(members) == 0 {
		return nil, ErrMissingYears
	}
	start, err := strconv.Atoi(members[0])
	if err != nil {
		return nil, ErrMissingYears
	}
	end := start
	for _, member := range members {
		y, err := strconv.Atoi(member)
		if err != nil {
			return nil, ErrMissingYears
		}
		if y < start {
			start = y
		}
		if y > end {
			end = y
		}
	}
	years := make([]string, 0, end-start+1)
	for y := start; y <= end; y++ {
		years = append(years, strconv.Itoa(y))
	}
	return years, nil
}

// checkGrouped fails when a variable reappears after another started.
func checkGrouped(lines []cplexLine) error {
	lastLine := make(map[string]int)
	current := ""
	for _, l := range lines {
		variable := l.fields[0]
		if variable != current {
			if prev, seen := lastLine[variable]; seen {
				return &UnsortedInputError{Variable: variable, Line: l.number, FirstLine: prev}
			}
			current = variable
		}
		lastLine[variable] = l.number
	}
	return nil
}
