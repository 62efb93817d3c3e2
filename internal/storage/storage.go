package storage

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/floats"
)

// Kind selects the storage behaviour.
type Kind string

const (
	KindLumped     Kind = "lumped"
	KindStratified Kind = "stratified"
	KindSTES       Kind = "stes"
)

var ErrStepOrder = errors.New("time steps must be simulated in order")

// StepInput is the driving data of one hour. TSupply and TReturn are only read by the
// mass-flow model.
type StepInput struct {
	QIn     float64 `json:"q_in_kw"`
	QOut    float64 `json:"q_out_kw"`
	TSupply float64 `json:"t_supply_c"` // generator supply temperature
	TReturn float64 `json:"t_return_c"` // consumer return temperature
}

// Totals accumulate over a whole run.
type Totals struct {
	ExcessHeatKWh   float64 `json:"excess_heat_kwh"`
	UnmetDemandKWh  float64 `json:"unmet_demand_kwh"`
	StagnationHours int     `json:"stagnation_hours"`
}

// StepResult is returned for every simulated hour.
type StepResult struct {
	Hour   int       `json:"hour"`
	TSto   float64   `json:"t_sto_c"`
	QSto   float64   `json:"q_sto_kwh"`
	QLoss  float64   `json:"q_loss_kw"`
	Layers []float64 `json:"layers_c,omitempty"`

	// Energy that could not be stored or delivered in this hour (kWh).
	ExcessKWh float64 `json:"excess_kwh"`
	UnmetKWh  float64 `json:"unmet_kwh"`
	Stagnated bool    `json:"stagnated"`

	MassFlowIn  float64 `json:"mass_flow_in_kg_s"`
	MassFlowOut float64 `json:"mass_flow_out_kg_s"`

	Totals Totals `json:"totals"`
}

// State is a read-only view of the storage after hour t.
type State struct {
	Hour   int       `json:"hour"`
	TSto   float64   `json:"t_sto_c"`
	QSto   float64   `json:"q_sto_kwh"`
	Layers []float64 `json:"layers_c,omitempty"`
	Totals Totals    `json:"totals"`
}

// Storage is implemented by the lumped, stratified and mass-flow models.
type Storage interface {
	Step(t int, in StepInput) (StepResult, error)
	State(t int) State
	Hours() int
	Snapshot() Snapshot
}

// New builds a storage of the given kind.
func New(p Params, kind Kind) (Storage, error) {
	switch kind {
	case KindLumped:
		return NewLumped(p)
	case KindStratified:
		return NewStratified(p)
	case KindSTES:
		return NewSTES(p)
	default:
		return nil, fmt.Errorf("%w: unknown storage kind %q", ErrInvalidParams, kind)
	}
}

// core is the geometry and heat-loss capability shared by all storage kinds, plus the
// hourly series every kind records.
type core struct {
	params Params
	geom   Geometry
	loss   HeatLossModel

	TSto  []float64 // °C
	QSto  []float64 // kWh
	QLoss []float64 // kW
	QIn   []float64 // kW, as passed to Step
	QOut  []float64 // kW

	totals Totals
	next   int
}

func newCore(p Params) (core, error) {
	p = p.withDefaults()
	if err := p.Validate(); err != nil {
		return core{}, err
	}
	p = p.clone()
	g, err := NewGeometry(p.Type, p.Dimensions)
	if err != nil {
		return core{}, err
	}
	return core{
		params: p,
		geom:   g,
		loss:   NewHeatLossModel(p, g),
		TSto:   make([]float64, p.Hours),
		QSto:   make([]float64, p.Hours),
		QLoss:  make([]float64, p.Hours),
		QIn:    make([]float64, p.Hours),
		QOut:   make([]float64, p.Hours),
	}, nil
}

// begin checks that t is the next hour to simulate.
func (c *core) begin(t int) error {
	if t < 0 || t >= c.params.Hours {
		return fmt.Errorf("%w: t=%d, hours=%d", ErrStepOutOfRange, t, c.params.Hours)
	}
	if t != c.next {
		return fmt.Errorf("%w: got t=%d, want t=%d", ErrStepOrder, t, c.next)
	}
	return nil
}

// Params returns the (defaulted) parameters.
func (c *core) Params() Params { return c.params.clone() }

// Geometry returns the storage geometry.
func (c *core) Geometry() Geometry { return c.geom }

// Hours returns the simulation horizon.
func (c *core) Hours() int { return c.params.Hours }

// Simulated returns the number of hours simulated so far.
func (c *core) Simulated() int { return c.next }

// Totals returns the run accumulators.
func (c *core) Totals() Totals { return c.totals }

// HeatLoss returns the loss breakdown of a well-mixed storage at temp in hour t.
func (c *core) HeatLoss(temp float64, t int) LossBreakdown {
	return c.loss.HeatLoss(temp, c.params.boundaryAt(t))
}

// Efficiency returns 1 − ΣQ_loss/ΣQ_in over the simulated hours, or 0 without input.
func (c *core) Efficiency() float64 {
	in := floats.Sum(c.QIn[:c.next])
	if in <= 0 {
		return 0
	}
	return 1 - floats.Sum(c.QLoss[:c.next])/in
}

// capacity returns the thermal capacity of volume v in kWh/K.
func (c *core) capacity(v float64) float64 {
	return v * c.params.Rho * c.params.Cp / jPerKWh
}

// result fills the common part of the hour's result.
func (c *core) result(t int) StepResult {
	return StepResult{
		Hour:   t,
		TSto:   c.TSto[t],
		QSto:   c.QSto[t],
		QLoss:  c.QLoss[t],
		Totals: c.totals,
	}
}

// account adds unstorable and undeliverable energy of the hour to the run totals.
func (c *core) account(res *StepResult, excess, unmet float64) {
	if excess > tempEpsilon {
		c.totals.ExcessHeatKWh += excess
		c.totals.StagnationHours++
		res.ExcessKWh = excess
		res.Stagnated = true
	}
	if unmet > tempEpsilon {
		c.totals.UnmetDemandKWh += unmet
		res.UnmetKWh = unmet
	}
	res.Totals = c.totals
}

func (c *core) clip(temp float64) float64 {
	return clamp(temp, c.params.TMin, c.params.TMax)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func checkLengths(hours int, series ...[]float64) error {
	for _, s := range series {
		if len(s) != hours {
			return fmt.Errorf("%w: got %d values, want %d", ErrLengthMismatch, len(s), hours)
		}
	}
	return nil
}
