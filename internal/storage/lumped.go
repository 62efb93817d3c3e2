package storage

import (
	"fmt"

	"github.com/rs/zerolog/log"
)

// biotLimit is the Biot number above which a well-mixed storage is a poor approximation.
const biotLimit = 0.1

// Lumped is a single-node (well-mixed) storage integrated with forward Euler.
type Lumped struct {
	core

	warnings []string
}

// NewLumped validates p and builds a lumped storage. A high Biot number is logged and kept in
// Warnings but does not fail construction.
func NewLumped(p Params) (*Lumped, error) {
	c, err := newCore(p)
	if err != nil {
		return nil, fmt.Errorf("lumped storage: %w", err)
	}
	l := &Lumped{core: c}
	if bi, ok := l.Biot(); ok && bi > biotLimit {
		msg := fmt.Sprintf("Biot number %.3f exceeds %.1f; temperature is not uniform, use the stratified model", bi, biotLimit)
		l.warnings = append(l.warnings, msg)
		log.Warn().
			Str("storage", l.params.Name).
			Float64("biot", bi).
			Msg("lumped model questionable, use the stratified model")
	}
	return l, nil
}

// Biot returns h_eff·L_c/k with h_eff = avg(λ)/avg(δ) over the insulated boundaries and
// L_c = V/A. ok is false when the medium conductivity is not set.
func (l *Lumped) Biot() (bi float64, ok bool) {
	k := l.params.ThermalConductivity
	if k <= 0 {
		return 0, false
	}
	var lambdaSum, deltaSum float64
	var n int
	for _, b := range [][2]float64{
		{l.params.LambdaTop, l.params.DtTop},
		{l.params.LambdaSide, l.params.DsSide},
		{l.params.LambdaBottom, l.params.DbBottom},
	} {
		if b[0] <= 0 || b[1] <= 0 {
			continue
		}
		lambdaSum += b[0]
		deltaSum += b[1]
		n++
	}
	area := l.geom.TotalSurface()
	if n == 0 || area <= 0 {
		return 0, false
	}
	hEff := (lambdaSum / float64(n)) / (deltaSum / float64(n))
	return hEff * (l.geom.Volume / area) / k, true
}

// Warnings returns the advisory diagnostics collected at construction.
func (l *Lumped) Warnings() []string {
	return append([]string(nil), l.warnings...)
}

// Step advances hour t. Hour 0 records the initial state and ignores the inputs.
func (l *Lumped) Step(t int, in StepInput) (StepResult, error) {
	if err := l.begin(t); err != nil {
		return StepResult{}, err
	}
	capacity := l.capacity(l.geom.Volume)
	l.QIn[t], l.QOut[t] = in.QIn, in.QOut

	var excess, unmet float64
	if t == 0 {
		l.TSto[0] = l.params.InitialTemp
		l.QSto[0] = capacity * (l.TSto[0] - refTemp)
	} else {
		loss := l.HeatLoss(l.TSto[t-1], t).Total()
		q := l.QSto[t-1] + (in.QIn-in.QOut-loss)*stepHours
		temp := q/capacity + refTemp

		// Clipped energy is attributed to the flow that caused it.
		if temp > l.params.TMax {
			excess = min((temp-l.params.TMax)*capacity, in.QIn*stepHours)
		} else if temp < l.params.TMin {
			unmet = min((l.params.TMin-temp)*capacity, in.QOut*stepHours)
		}

		l.TSto[t] = l.clip(temp)
		l.QSto[t] = capacity * (l.TSto[t] - refTemp)
		l.QLoss[t] = loss
	}
	l.next = t + 1

	res := l.result(t)
	l.account(&res, excess, unmet)
	return res, nil
}

// Simulate runs the whole horizon in one call.
func (l *Lumped) Simulate(qIn, qOut []float64) error {
	if err := checkLengths(l.params.Hours, qIn, qOut); err != nil {
		return err
	}
	for t := range qIn {
		if _, err := l.Step(t, StepInput{QIn: qIn[t], QOut: qOut[t]}); err != nil {
			return err
		}
	}
	return nil
}

// State returns the storage state after hour t. Negative t gives the initial state.
func (l *Lumped) State(t int) State {
	if t < 0 || l.next == 0 {
		return State{Hour: -1, TSto: l.params.InitialTemp, QSto: l.capacity(l.geom.Volume) * (l.params.InitialTemp - refTemp), Totals: l.totals}
	}
	t = min(t, l.next-1)
	return State{Hour: t, TSto: l.TSto[t], QSto: l.QSto[t], Totals: l.totals}
}

// Snapshot captures the full state.
func (l *Lumped) Snapshot() Snapshot {
	s := l.snapshot(KindLumped)
	s.Warnings = l.Warnings()
	return s
}
