package ingest

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/mat"

	"stes_simulator/internal/heatpump"
)

// ParseCOPTable reads a COP matrix. The first row holds the flow temperatures after one
// label cell, every further row starts with its source temperature.
//
//	;35;55;75
//	0;4.0;3.0;2.2
//	10;5.0;3.6;2.6
func ParseCOPTable(r io.Reader, comma rune) (*heatpump.COPTable, error) {
	cr := csv.NewReader(r)
	cr.Comma = comma
	cr.TrimLeadingSpace = true

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading COP table: %w", err)
	}
	if len(records) < 3 {
		return nil, fmt.Errorf("%w: need a header and at least 2 rows, got %d lines", heatpump.ErrInvalidTable, len(records))
	}

	flow, err := parseFloats(records[0][1:])
	if err != nil {
		return nil, fmt.Errorf("COP table header: %w", err)
	}

	body := records[1:]
	source := make([]float64, len(body))
	values := make([]float64, 0, len(body)*len(flow))
	for i, rec := range body {
		if len(rec) != len(flow)+1 {
			return nil, fmt.Errorf("%w: line %d has %d fields, want %d", heatpump.ErrInvalidTable, i+2, len(rec), len(flow)+1)
		}
		row, err := parseFloats(rec)
		if err != nil {
			return nil, fmt.Errorf("COP table line %d: %w", i+2, err)
		}
		source[i] = row[0]
		values = append(values, row[1:]...)
	}

	return heatpump.NewCOPTable(source, flow, mat.NewDense(len(source), len(flow), values))
}

func parseFloats(fields []string) ([]float64, error) {
	out := make([]float64, len(fields))
	for i, f := range fields {
		v, err := strconv.ParseFloat(strings.TrimSpace(f), 64)
		if err != nil {
			return nil, fmt.Errorf("parsing %q: %w", f, err)
		}
		out[i] = v
	}
	return out, nil
}

// WriteCOPTable writes table in the layout ParseCOPTable reads.
func WriteCOPTable(w io.Writer, table *heatpump.COPTable, comma rune) error {
	cw := csv.NewWriter(w)
	cw.Comma = comma

	format := func(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }

	header := make([]string, 0, len(table.Flow)+1)
	header = append(header, "")
	for _, f := range table.Flow {
		header = append(header, format(f))
	}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("writing COP header: %w", err)
	}

	for i, s := range table.Source {
		rec := make([]string, 0, len(table.Flow)+1)
		rec = append(rec, format(s))
		for j := range table.Flow {
			rec = append(rec, strconv.FormatFloat(table.Values.At(i, j), 'f', 3, 64))
		}
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("writing COP row %d: %w", i, err)
		}
	}
	cw.Flush()
	return cw.Error()
}
