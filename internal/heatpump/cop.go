// Package heatpump models heat pump performance from COP tables, the cost and emission
// accounting shared by heat pump generators, and the river water heat pump.
package heatpump

import (
	"errors"
	"fmt"
	"sort"

	"gonum.org/v1/gonum/mat"
)

// MaxTemperatureLift is the largest flow temperature above the source temperature a heat
// pump can reach (K).
const MaxTemperatureLift = 75.0

var (
	ErrInvalidTable = errors.New("invalid COP table")
	ErrLength       = errors.New("series length mismatch")
)

// COPTable maps (source temperature, flow temperature) to COP. Rows follow Source, columns
// follow Flow; both axes are strictly ascending.
type COPTable struct {
	Source []float64
	Flow   []float64
	Values *mat.Dense
}

// NewCOPTable validates the axes against the value matrix.
func NewCOPTable(source, flow []float64, values *mat.Dense) (*COPTable, error) {
	if len(source) < 2 || len(flow) < 2 {
		return nil, fmt.Errorf("%w: need at least 2 source and 2 flow temperatures", ErrInvalidTable)
	}
	if r, c := values.Dims(); r != len(source) || c != len(flow) {
		return nil, fmt.Errorf("%w: values are %dx%d, axes are %dx%d", ErrInvalidTable, r, c, len(source), len(flow))
	}
	for _, axis := range [][]float64{source, flow} {
		for i := 1; i < len(axis); i++ {
			if axis[i] <= axis[i-1] {
				return nil, fmt.Errorf("%w: axis not strictly ascending at %v", ErrInvalidTable, axis[i])
			}
		}
	}
	return &COPTable{
		Source: append([]float64(nil), source...),
		Flow:   append([]float64(nil), flow...),
		Values: mat.DenseCopyOf(values),
	}, nil
}

// CarnotTable builds a table from a fraction of the Carnot COP, T_flow/(T_flow − T_source).
// Cells without a positive lift are left at 0.
func CarnotTable(source, flow []float64, efficiency float64) (*COPTable, error) {
	values := mat.NewDense(max(len(source), 1), max(len(flow), 1), nil)
	for i, ts := range source {
		for j, tf := range flow {
			if lift := tf - ts; lift > 0 {
				values.Set(i, j, efficiency*(tf+273.15)/lift)
			}
		}
	}
	return NewCOPTable(source, flow, values)
}

// bracket returns i with axis[i] <= v <= axis[i+1], or false outside the axis.
func bracket(axis []float64, v float64) (int, bool) {
	last := len(axis) - 1
	if v < axis[0] || v > axis[last] {
		return 0, false
	}
	i := sort.SearchFloat64s(axis, v)
	if i > 0 && (i > last-1 || axis[i] > v) {
		i--
	}
	return min(i, last-1), true
}

// Interpolate returns the bilinear COP at (source, flow), or 0 outside the table.
func (t *COPTable) Interpolate(source, flow float64) float64 {
	i, ok := bracket(t.Source, source)
	if !ok {
		return 0
	}
	j, ok := bracket(t.Flow, flow)
	if !ok {
		return 0
	}
	x0, x1 := t.Source[i], t.Source[i+1]
	y0, y1 := t.Flow[j], t.Flow[j+1]
	fx := (source - x0) / (x1 - x0)
	fy := (flow - y0) / (y1 - y0)

	v00 := t.Values.At(i, j)
	v01 := t.Values.At(i, j+1)
	v10 := t.Values.At(i+1, j)
	v11 := t.Values.At(i+1, j+1)
	return v00*(1-fx)*(1-fy) + v10*fx*(1-fy) + v01*(1-fx)*fy + v11*fx*fy
}

// CalculateCOP returns the COP and the achievable flow temperature for each hour. Flow
// temperatures are capped at source + MaxTemperatureLift. A single source temperature
// applies to every hour.
func (t *COPTable) CalculateCOP(flowTemps, sourceTemps []float64) (cop, flow []float64, err error) {
	if len(sourceTemps) != 1 && len(sourceTemps) != len(flowTemps) {
		return nil, nil, fmt.Errorf("%w: %d source temperatures for %d hours", ErrLength, len(sourceTemps), len(flowTemps))
	}
	cop = make([]float64, len(flowTemps))
	flow = make([]float64, len(flowTemps))
	for h, f := range flowTemps {
		src := sourceTemps[0]
		if len(sourceTemps) > 1 {
			src = sourceTemps[h]
		}
		flow[h] = min(f, src+MaxTemperatureLift)
		cop[h] = t.Interpolate(src, flow[h])
	}
	return cop, flow, nil
}
