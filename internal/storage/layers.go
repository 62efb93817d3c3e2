package storage

import (
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// layered extends core with the vertical discretisation used by the stratified and mass-flow
// models. All constants are computed once by newLayered.
type layered struct {
	core

	layers     Layers
	capacities []float64 // kWh/K per layer
	conduction []float64 // W/K per internal interface
	temps      []float64 // current layer temperatures, top first

	// TStoLayers holds the layer temperatures of every simulated hour (hours × layers).
	TStoLayers *mat.Dense
	// QLossLayers is the per-layer loss of the latest hour in kW.
	QLossLayers []float64
}

func newLayered(p Params) (layered, error) {
	c, err := newCore(p)
	if err != nil {
		return layered{}, err
	}
	n := c.params.NumLayers
	l := layered{
		core:        c,
		layers:      LayerGeometry(c.geom, n),
		capacities:  make([]float64, n),
		temps:       make([]float64, n),
		TStoLayers:  mat.NewDense(c.params.Hours, n, nil),
		QLossLayers: make([]float64, n),
	}
	for i, v := range l.layers.Volumes {
		l.capacities[i] = l.capacity(v)
		l.temps[i] = c.params.InitialTemp
	}
	l.conduction = make([]float64, len(l.layers.InterfaceAreas))
	for i, a := range l.layers.InterfaceAreas {
		l.conduction[i] = c.params.ThermalConductivity * a / l.layers.Thickness
	}
	return l, nil
}

// Layers returns the vertical discretisation.
func (l *layered) Layers() Layers { return l.layers }

// applyLoss removes the hour's boundary losses from each layer and returns the total in kW.
func (l *layered) applyLoss(t int) float64 {
	total := l.loss.StratifiedHeatLoss(l.temps, l.params.boundaryAt(t), l.QLossLayers)
	for i, q := range l.QLossLayers {
		l.temps[i] -= q * stepHours / l.capacities[i]
	}
	return total
}

// conduct exchanges heat between neighbouring layers, top interface first.
func (l *layered) conduct() {
	for i, k := range l.conduction {
		dT := l.temps[i] - l.temps[i+1]
		if math.Abs(dT) < tempEpsilon {
			continue
		}
		q := k * dT * stepHours / 1000 // kWh
		l.temps[i] -= q / l.capacities[i]
		l.temps[i+1] += q / l.capacities[i+1]
	}
}

func (l *layered) clipLayers() {
	for i := range l.temps {
		l.temps[i] = l.clip(l.temps[i])
	}
}

// record stores the current layer temperatures as hour t.
func (l *layered) record(t int, loss float64) {
	l.TStoLayers.SetRow(t, l.temps)
	l.TSto[t] = stat.Mean(l.temps, l.layers.Volumes)
	l.QSto[t] = l.energy(l.temps)
	l.QLoss[t] = loss
}

// energy returns the stored energy of a layer profile relative to refTemp in kWh.
func (l *layered) energy(temps []float64) float64 {
	var q float64
	for i, c := range l.capacities {
		q += c * (temps[i] - refTemp)
	}
	return q
}

// layerTemps returns the layer profile after hour t, the initial profile for t < 0, and the
// latest profile for hours not yet simulated.
func (l *layered) layerTemps(t int) []float64 {
	if t < 0 || l.next == 0 {
		out := make([]float64, l.params.NumLayers)
		for i := range out {
			out[i] = l.params.InitialTemp
		}
		return out
	}
	return mat.Row(nil, min(t, l.next-1), l.TStoLayers)
}

// State returns the storage state after hour t.
func (l *layered) State(t int) State {
	temps := l.layerTemps(t)
	hour := -1
	if t >= 0 && l.next > 0 {
		hour = min(t, l.next-1)
	}
	return State{
		Hour:   hour,
		TSto:   stat.Mean(temps, l.layers.Volumes),
		QSto:   l.energy(temps),
		Layers: temps,
		Totals: l.totals,
	}
}

// layerResult adds the layer profile to the common result.
func (l *layered) layerResult(t int) StepResult {
	res := l.result(t)
	res.Layers = append([]float64(nil), l.temps...)
	return res
}
