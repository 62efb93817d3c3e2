package main

import (
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"sort"

	"github.com/gocarina/gocsv"
	"github.com/rs/zerolog/log"
	flag "github.com/spf13/pflag"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"stes_simulator/internal/heatpump"
	"stes_simulator/internal/ingest"
	"stes_simulator/internal/logging"
)

var errTooFewBins = errors.New("need at least 2 source and 2 flow temperature bins")

// measurement is one hour of heat pump operation.
type measurement struct {
	Source      float64 `csv:"source_temp_c"`
	Flow        float64 `csv:"flow_temp_c"`
	Heat        float64 `csv:"heat_kw"`
	Electricity float64 `csv:"electricity_kw"`
}

// bin accumulates the hours that fall into one (source, flow) cell.
type bin struct {
	heatKWh float64
	elKWh   float64
	hours   float64
}

func (b bin) cop() float64 {
	if b.elKWh <= 0 {
		return 0
	}
	return b.heatKWh / b.elKWh
}

func main() {
	input := flag.String("input", "", "hourly measurements CSV (source_temp_c,flow_temp_c,heat_kw,electricity_kw)")
	output := flag.String("output", "", "COP table CSV (stdout if empty)")
	sourceWidth := flag.Float64("source-bucket", 5, "source temperature bucket width in °C")
	flowWidth := flag.Float64("flow-bucket", 10, "flow temperature bucket width in °C")
	minHours := flag.Float64("min-hours", 3, "hours a bucket needs to be measured")
	minPower := flag.Float64("min-power", 1, "min electric kW to count as running")
	delimiter := flag.String("delimiter", ";", "CSV delimiter of the COP table")
	logLevel := flag.String("log-level", "info", "log level (debug, info, warn, error)")
	flag.Parse()

	if err := logging.Setup(*logLevel, true); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	if *input == "" || len(*delimiter) != 1 {
		flag.Usage()
		os.Exit(2)
	}

	f, err := os.Open(*input)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open measurements")
	}
	rows, err := readMeasurements(f)
	f.Close()
	if err != nil {
		log.Fatal().Err(err).Str("file", *input).Msg("failed to read measurements")
	}

	table, measured, eff, err := buildTable(rows, *sourceWidth, *flowWidth, *minHours, *minPower)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to build COP table")
	}
	log.Info().
		Int("rows", len(rows)).
		Int("measured_cells", measured).
		Float64("carnot_efficiency", eff).
		Msg("COP table built")

	var w io.Writer = os.Stdout
	if *output != "" {
		out, err := os.Create(*output)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to create output")
		}
		defer out.Close()
		w = out
	}
	if err := ingest.WriteCOPTable(w, table, rune((*delimiter)[0])); err != nil {
		log.Fatal().Err(err).Msg("failed to write COP table")
	}
}

func readMeasurements(r io.Reader) ([]measurement, error) {
	var rows []*measurement
	if err := gocsv.Unmarshal(r, &rows); err != nil {
		return nil, fmt.Errorf("decoding measurements: %w", err)
	}
	out := make([]measurement, 0, len(rows))
	for _, m := range rows {
		out = append(out, *m)
	}
	return out, nil
}

func bucket(v, width float64) int {
	return int(math.Floor(v / width))
}

// buildTable bins running hours by source and flow temperature. Each axis value is a bucket
// centre. Cells with fewer than minHours are filled with the Carnot COP scaled by the
// hour-weighted mean efficiency of the measured cells. It returns the number of measured
// cells and that efficiency.
func buildTable(rows []measurement, sourceWidth, flowWidth, minHours, minPower float64) (*heatpump.COPTable, int, float64, error) {
	if sourceWidth <= 0 || flowWidth <= 0 {
		return nil, 0, 0, fmt.Errorf("bucket widths must be positive")
	}

	type key struct{ s, f int }
	bins := make(map[key]*bin)
	sourceIdx := make(map[int]bool)
	flowIdx := make(map[int]bool)

	for _, m := range rows {
		if m.Electricity < minPower || m.Heat <= 0 {
			continue
		}
		k := key{bucket(m.Source, sourceWidth), bucket(m.Flow, flowWidth)}
		b, ok := bins[k]
		if !ok {
			b = &bin{}
			bins[k] = b
		}
		b.heatKWh += m.Heat
		b.elKWh += m.Electricity
		b.hours++
		sourceIdx[k.s] = true
		flowIdx[k.f] = true
	}

	sources := sortedKeys(sourceIdx)
	flows := sortedKeys(flowIdx)
	if len(sources) < 2 || len(flows) < 2 {
		return nil, 0, 0, fmt.Errorf("%w: got %d x %d", errTooFewBins, len(sources), len(flows))
	}

	centre := func(idx int, width float64) float64 { return (float64(idx) + 0.5) * width }
	sourceAxis := make([]float64, len(sources))
	for i, s := range sources {
		sourceAxis[i] = centre(s, sourceWidth)
	}
	flowAxis := make([]float64, len(flows))
	for j, fl := range flows {
		flowAxis[j] = centre(fl, flowWidth)
	}

	carnot := func(ts, tf float64) float64 {
		if tf <= ts {
			return 0
		}
		return (tf + 273.15) / (tf - ts)
	}

	var ratios, weights []float64
	for k, b := range bins {
		if b.hours < minHours {
			continue
		}
		c := carnot(centre(k.s, sourceWidth), centre(k.f, flowWidth))
		if c <= 0 {
			continue
		}
		ratios = append(ratios, b.cop()/c)
		weights = append(weights, b.hours)
	}
	if len(ratios) == 0 {
		return nil, 0, 0, fmt.Errorf("%w: no bucket has %.0f hours", errTooFewBins, minHours)
	}
	eff := stat.Mean(ratios, weights)

	values := mat.NewDense(len(sources), len(flows), nil)
	for i, s := range sources {
		for j, fl := range flows {
			if b, ok := bins[key{s, fl}]; ok && b.hours >= minHours {
				values.Set(i, j, b.cop())
				continue
			}
			values.Set(i, j, eff*carnot(sourceAxis[i], flowAxis[j]))
		}
	}

	table, err := heatpump.NewCOPTable(sourceAxis, flowAxis, values)
	if err != nil {
		return nil, 0, 0, err
	}
	return table, len(ratios), eff, nil
}

func sortedKeys(m map[int]bool) []int {
	out := make([]int, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Ints(out)
	return out
}
