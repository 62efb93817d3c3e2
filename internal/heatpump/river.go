package heatpump

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"gonum.org/v1/gonum/floats"

	"stes_simulator/internal/economics"
)

var (
	ErrNotPrepared      = errors.New("heat pump series not prepared for this hour")
	ErrUnknownParameter = errors.New("unknown optimization parameter")
)

// RiverConfig holds the design data of a river water heat pump.
type RiverConfig struct {
	Name       string    `json:"name" yaml:"name"`
	CapacityKW float64   `json:"capacity_kw" yaml:"capacity_kw"`
	RiverTemp  []float64 `json:"river_temp" yaml:"river_temp"` // one value or one per hour
	// DT is the tolerated shortfall of the achievable flow temperature (K).
	DT                       float64 `json:"dt" yaml:"dt"`
	SpecificSourceInvestment float64 `json:"specific_source_investment" yaml:"specific_source_investment"` // €/kW
	SpecificInvestment       float64 `json:"specific_investment" yaml:"specific_investment"`               // €/kW
	MinPartLoad              float64 `json:"min_part_load" yaml:"min_part_load"`                           // fraction of capacity
	MinCapacityKW            float64 `json:"min_capacity_kw" yaml:"min_capacity_kw"`
	MaxCapacityKW            float64 `json:"max_capacity_kw" yaml:"max_capacity_kw"`
}

// DefaultRiverConfig returns a 200 kW unit on a 10 °C river.
func DefaultRiverConfig() RiverConfig {
	return RiverConfig{
		Name:                     "river heat pump",
		CapacityKW:               200,
		RiverTemp:                []float64{10},
		SpecificSourceInvestment: 1000,
		SpecificInvestment:       1000,
		MinPartLoad:              0.2,
		MinCapacityKW:            0,
		MaxCapacityKW:            500,
	}
}

// RiverHeatPump uses river water as heat source. Hourly series are indexed by hour and
// filled either by CalculateOperation or by Generate.
type RiverHeatPump struct {
	HeatPump

	CapacityKW               float64
	RiverTemp                []float64
	DT                       float64
	SpecificSourceInvestment float64
	MinPartLoad              float64
	MinCapacityKW            float64
	MaxCapacityKW            float64

	Operating   []bool
	Heat        []float64 // kW
	Electricity []float64 // kW
	Cooling     []float64 // kW drawn from the river
	COP         []float64
	FlowTemp    []float64 // °C, achievable
}

// NewRiverHeatPump builds a river heat pump from cfg.
func NewRiverHeatPump(cfg RiverConfig) (*RiverHeatPump, error) {
	if cfg.CapacityKW < 0 {
		return nil, fmt.Errorf("river heat pump %q: capacity must not be negative", cfg.Name)
	}
	if len(cfg.RiverTemp) == 0 {
		return nil, fmt.Errorf("river heat pump %q: river temperature missing", cfg.Name)
	}
	if cfg.MinPartLoad < 0 || cfg.MinPartLoad > 1 {
		return nil, fmt.Errorf("river heat pump %q: min part load %.2f outside [0, 1]", cfg.Name, cfg.MinPartLoad)
	}
	return &RiverHeatPump{
		HeatPump:                 NewHeatPump(cfg.Name, cfg.SpecificInvestment),
		CapacityKW:               cfg.CapacityKW,
		RiverTemp:                append([]float64(nil), cfg.RiverTemp...),
		DT:                       cfg.DT,
		SpecificSourceInvestment: cfg.SpecificSourceInvestment,
		MinPartLoad:              cfg.MinPartLoad,
		MinCapacityKW:            cfg.MinCapacityKW,
		MaxCapacityKW:            cfg.MaxCapacityKW,
	}, nil
}

// Prepare allocates zeroed hourly series for an online run with Generate.
func (r *RiverHeatPump) Prepare(hours int) {
	r.Operating = make([]bool, hours)
	r.Heat = make([]float64, hours)
	r.Electricity = make([]float64, hours)
	r.Cooling = make([]float64, hours)
	r.COP = make([]float64, hours)
	r.FlowTemp = make([]float64, hours)
}

func (r *RiverHeatPump) riverTempAt(t int) float64 {
	if len(r.RiverTemp) == 1 {
		return r.RiverTemp[0]
	}
	return r.RiverTemp[t]
}

// operate evaluates one hour and reports whether the unit may run.
func (r *RiverHeatPump) operate(load, required, source float64, table *COPTable) (heat, el, cop, flow float64, ok bool) {
	flow = min(required, source+MaxTemperatureLift)
	cop = table.Interpolate(source, flow)
	heat = min(load, r.CapacityKW)
	ok = flow >= required-r.DT && heat >= r.MinPartLoad*r.CapacityKW && cop > 0 && heat > 0
	if !ok {
		return 0, 0, cop, flow, false
	}
	return heat, heat / cop, cop, flow, true
}

// CalculateOperation fills all hourly series for a load profile and required flow
// temperatures.
func (r *RiverHeatPump) CalculateOperation(load, flowTemps []float64, table *COPTable) error {
	if len(load) != len(flowTemps) {
		return fmt.Errorf("%w: %d load values, %d flow temperatures", ErrLength, len(load), len(flowTemps))
	}
	if len(r.RiverTemp) != 1 && len(r.RiverTemp) != len(load) {
		return fmt.Errorf("%w: %d river temperatures for %d hours", ErrLength, len(r.RiverTemp), len(load))
	}
	r.Prepare(len(load))
	for t := range load {
		r.record(t, load[t], flowTemps[t], table)
	}
	return nil
}

func (r *RiverHeatPump) record(t int, load, required float64, table *COPTable) {
	heat, el, cop, flow, ok := r.operate(load, required, r.riverTempAt(t), table)
	r.Operating[t] = ok
	r.Heat[t] = heat
	r.Electricity[t] = el
	r.Cooling[t] = heat - el
	r.COP[t] = cop
	r.FlowTemp[t] = flow
}

// Generate runs hour t against the remaining load and returns heat and electric power (kW).
// Prepare must have been called for the horizon.
func (r *RiverHeatPump) Generate(t int, remainingLoad, flowTemp float64, table *COPTable) (heat, el float64, err error) {
	if t < 0 || t >= len(r.Heat) {
		return 0, 0, fmt.Errorf("%w: t=%d, prepared=%d", ErrNotPrepared, t, len(r.Heat))
	}
	if len(r.RiverTemp) != 1 && t >= len(r.RiverTemp) {
		return 0, 0, fmt.Errorf("%w: no river temperature for t=%d", ErrLength, t)
	}
	r.record(t, remainingLoad, flowTemp, table)
	return r.Heat[t], r.Electricity[t], nil
}

// Results aggregates a run.
type Results struct {
	HeatMWh        float64 `json:"heat_mwh"`
	ElectricityMWh float64 `json:"electricity_mwh"`
	SCOP           float64 `json:"scop"`
	Starts         int     `json:"starts"`
	OperatingHours float64 `json:"operating_hours"`
	HoursPerStart  float64 `json:"hours_per_start"`
}

// CalculateResults aggregates the hourly series; duration is the step length in hours.
func (r *RiverHeatPump) CalculateResults(duration float64) Results {
	var res Results
	res.HeatMWh = floats.Sum(r.Heat) * duration / 1000
	res.ElectricityMWh = floats.Sum(r.Electricity) * duration / 1000
	if res.ElectricityMWh > 0 {
		res.SCOP = res.HeatMWh / res.ElectricityMWh
	}
	for t, on := range r.Operating {
		if on {
			res.OperatingHours += duration
			if t > 0 && !r.Operating[t-1] {
				res.Starts++
			}
		}
	}
	if res.Starts > 0 {
		res.HoursPerStart = res.OperatingHours / float64(res.Starts)
	}
	return res
}

// Result is the flat per-generator record used for tabular output.
type Result struct {
	Name           string    `json:"name"`
	HeatMWh        float64   `json:"heat_mwh"`
	ElectricityMWh float64   `json:"electricity_mwh"`
	Heat           []float64 `json:"heat_kw"`
	Electricity    []float64 `json:"electricity_kw"`
	// WGK is the heat generation cost in €/MWh; WGKApplicable is false without heat output.
	WGK            decimal.Decimal `json:"wgk"`
	WGKApplicable  bool            `json:"wgk_applicable"`
	CO2Tonnes      float64         `json:"co2_t"`
	SpecificCO2    float64         `json:"specific_co2_t_per_mwh"`
	PrimaryEnergy  float64         `json:"primary_energy_mwh"`
	Starts         int             `json:"starts"`
	OperatingHours float64         `json:"operating_hours"`
	HoursPerStart  float64         `json:"hours_per_start"`
	SCOP           float64         `json:"scop"`
	Color          string          `json:"color"`
}

// Calculate runs operation, economics and emissions for a whole horizon. An inactive unit
// produces an all-zero result.
func (r *RiverHeatPump) Calculate(econ economics.Parameters, duration float64, load, flowTemps []float64, table *COPTable) (Result, error) {
	if r.Active {
		if err := r.CalculateOperation(load, flowTemps, table); err != nil {
			return Result{}, fmt.Errorf("river heat pump %q: %w", r.Name, err)
		}
	} else {
		r.Prepare(len(load))
	}
	return r.summarize(econ, duration), nil
}

func (r *RiverHeatPump) summarize(econ economics.Parameters, duration float64) Result {
	res := r.CalculateResults(duration)
	costs := r.HeatGenerationCosts(r.CapacityKW, res.HeatMWh, res.ElectricityMWh, r.SpecificSourceInvestment, econ)
	env := r.EnvironmentalImpact(res.HeatMWh, res.ElectricityMWh)
	return Result{
		Name:           r.Name,
		HeatMWh:        res.HeatMWh,
		ElectricityMWh: res.ElectricityMWh,
		Heat:           append([]float64(nil), r.Heat...),
		Electricity:    append([]float64(nil), r.Electricity...),
		WGK:            costs.WGK,
		WGKApplicable:  costs.Applicable,
		CO2Tonnes:      env.CO2Tonnes,
		SpecificCO2:    env.SpecificCO2,
		PrimaryEnergy:  env.PrimaryEnergyMWh,
		Starts:         res.Starts,
		OperatingHours: res.OperatingHours,
		HoursPerStart:  res.HoursPerStart,
		SCOP:           res.SCOP,
		Color:          "blue",
	}
}

// Summarize builds the result table row from series filled with Generate.
func (r *RiverHeatPump) Summarize(econ economics.Parameters, duration float64) Result {
	return r.summarize(econ, duration)
}

// Variable is a bounded optimisation variable.
type Variable struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
}

const capacityParam = "capacity_kw"

// OptimizationParameters exposes the rated capacity for sizing optimisers. idx keeps the
// names unique when several generators are optimised together.
func (r *RiverHeatPump) OptimizationParameters(idx int) []Variable {
	return []Variable{{
		Name:  capacityParam + "_" + strconv.Itoa(idx),
		Value: r.CapacityKW,
		Min:   r.MinCapacityKW,
		Max:   r.MaxCapacityKW,
	}}
}

// SetParameters applies optimiser values by name.
func (r *RiverHeatPump) SetParameters(values []float64, names []string, idx int) error {
	if len(values) != len(names) {
		return fmt.Errorf("%w: %d values, %d names", ErrLength, len(values), len(names))
	}
	want := capacityParam + "_" + strconv.Itoa(idx)
	for i, n := range names {
		if n == want {
			r.CapacityKW = values[i]
			return nil
		}
	}
	return fmt.Errorf("%w: %s", ErrUnknownParameter, want)
}

// ExtractTechData returns the design data as one line.
func (r *RiverHeatPump) ExtractTechData() string {
	return fmt.Sprintf("capacity: %.1f kW, river temperature: %s °C, min part load: %.0f %%",
		r.CapacityKW, r.riverTempText(), r.MinPartLoad*100)
}

// DisplayText returns a label for the unit and its cost data.
func (r *RiverHeatPump) DisplayText() string {
	return fmt.Sprintf("%s: capacity: %.1f kW, river temperature: %s °C, dT: %.1f K, specific investment river intake: %s €/kW, specific investment heat pump: %s €/kW",
		r.Name, r.CapacityKW, r.riverTempText(), r.DT,
		decimal.NewFromFloat(r.SpecificSourceInvestment).StringFixed(0),
		decimal.NewFromFloat(r.SpecificInvestment).StringFixed(0))
}

func (r *RiverHeatPump) riverTempText() string {
	if len(r.RiverTemp) == 1 {
		return strconv.FormatFloat(r.RiverTemp[0], 'f', 1, 64)
	}
	lo, hi := floats.Min(r.RiverTemp), floats.Max(r.RiverTemp)
	return strings.Join([]string{
		strconv.FormatFloat(lo, 'f', 1, 64),
		strconv.FormatFloat(hi, 'f', 1, 64),
	}, "..")
}
