package simulator

import (
	"context"
	"errors"
	"fmt"

	"gonum.org/v1/gonum/floats"

	"stes_simulator/internal/economics"
	"stes_simulator/internal/heatpump"
	"stes_simulator/internal/ingest"
	"stes_simulator/internal/storage"
)

var ErrFinished = errors.New("plant run finished")

// PlantConfig is everything needed to rebuild a plant from scratch.
type PlantConfig struct {
	Storage   storage.Params       `json:"storage"`
	HeatPump  heatpump.RiverConfig `json:"heat_pump"`
	Strategy  heatpump.Strategy    `json:"strategy"`
	Economics economics.Parameters `json:"economics"`
}

// StepUpdate is emitted for every simulated hour.
type StepUpdate struct {
	Hour           int     `json:"hour"`
	DemandKW       float64 `json:"demand_kw"`
	HeatPumpHeatKW float64 `json:"heat_pump_heat_kw"`
	HeatPumpElKW   float64 `json:"heat_pump_el_kw"`
	COP            float64 `json:"cop"`
	HeatPumpOn     bool    `json:"heat_pump_on"`

	StorageLossKW  float64   `json:"storage_loss_kw"`
	StorageKWh     float64   `json:"storage_kwh"`
	MeanTemp       float64   `json:"t_mean_c"`
	TopTemp        float64   `json:"t_top_c"`
	BottomTemp     float64   `json:"t_bottom_c"`
	Layers         []float64 `json:"layers_c"`
	ChargeFraction float64   `json:"charge_fraction"`
	MassFlowIn     float64   `json:"mass_flow_in_kg_s"`
	MassFlowOut    float64   `json:"mass_flow_out_kg_s"`
	UnmetKWh       float64   `json:"unmet_kwh"`
	ExcessKWh      float64   `json:"excess_kwh"`
	Stagnated      bool      `json:"stagnated"`

	SupplyTemp float64 `json:"supply_temp_c"`
	ReturnTemp float64 `json:"return_temp_c"`
}

// Row converts the update to its CSV form.
func (u StepUpdate) Row() ingest.ResultRow {
	return ingest.ResultRow{
		Hour:           u.Hour,
		HeatDemand:     u.DemandKW,
		HeatPumpHeat:   u.HeatPumpHeatKW,
		HeatPumpEl:     u.HeatPumpElKW,
		COP:            u.COP,
		HeatPumpOn:     u.HeatPumpOn,
		StorageIn:      u.HeatPumpHeatKW,
		StorageOut:     u.DemandKW,
		StorageLoss:    u.StorageLossKW,
		StorageEnergy:  u.StorageKWh,
		MeanTemp:       u.MeanTemp,
		TopTemp:        u.TopTemp,
		BottomTemp:     u.BottomTemp,
		ChargeFraction: u.ChargeFraction,
		MassFlowIn:     u.MassFlowIn,
		MassFlowOut:    u.MassFlowOut,
		Unmet:          u.UnmetKWh,
		Excess:         u.ExcessKWh,
		SupplyTemp:     u.SupplyTemp,
		ReturnTemp:     u.ReturnTemp,
		Stagnated:      u.Stagnated,
	}
}

// Plant couples a mass-flow storage with a river heat pump. Each hour the strategy decides
// from the storage temperatures of the previous hour whether the heat pump charges at full
// capacity; the network demand is always drawn from the storage.
type Plant struct {
	cfg    PlantConfig
	inputs Inputs
	table  *heatpump.COPTable

	storage  *storage.STES
	pump     *heatpump.RiverHeatPump
	strategy heatpump.Strategy
	on       bool
	next     int
}

// NewPlant builds a plant over the horizon of in. Ambient, soil and river series in in
// replace the constants of cfg.
func NewPlant(cfg PlantConfig, in Inputs, table *heatpump.COPTable) (*Plant, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	if table == nil {
		return nil, errors.New("plant: COP table missing")
	}
	if err := cfg.Economics.Validate(); err != nil {
		return nil, fmt.Errorf("plant: %w", err)
	}

	cfg.Storage.Hours = in.Hours()
	if in.Ambient != nil {
		cfg.Storage.AmbientSeries = in.Ambient
	}
	if in.Soil != nil {
		cfg.Storage.SoilSeries = in.Soil
	}
	if in.RiverTemp != nil {
		cfg.HeatPump.RiverTemp = in.RiverTemp
	}

	p := &Plant{cfg: cfg, inputs: in, table: table}
	if err := p.Reset(); err != nil {
		return nil, err
	}
	return p, nil
}

// Reset rebuilds storage and heat pump in their initial state.
func (p *Plant) Reset() error {
	sto, err := storage.NewSTES(p.cfg.Storage)
	if err != nil {
		return fmt.Errorf("plant: %w", err)
	}
	pump, err := heatpump.NewRiverHeatPump(p.cfg.HeatPump)
	if err != nil {
		return fmt.Errorf("plant: %w", err)
	}
	pump.Prepare(p.inputs.Hours())

	p.storage = sto
	p.pump = pump
	p.strategy = p.cfg.Strategy
	p.on = false
	p.next = 0
	return nil
}

// SetStrategy replaces the switching thresholds from the next hour on.
func (p *Plant) SetStrategy(s heatpump.Strategy) {
	p.strategy = s
	p.cfg.Strategy = s
}

// Strategy returns the active switching thresholds.
func (p *Plant) Strategy() heatpump.Strategy { return p.strategy }

// Hours returns the horizon.
func (p *Plant) Hours() int { return p.inputs.Hours() }

// Next returns the next hour to simulate.
func (p *Plant) Next() int { return p.next }

// Done reports whether the whole horizon is simulated.
func (p *Plant) Done() bool { return p.next >= p.inputs.Hours() }

// Storage exposes the storage model.
func (p *Plant) Storage() *storage.STES { return p.storage }

// HeatPump exposes the heat pump model.
func (p *Plant) HeatPump() *heatpump.RiverHeatPump { return p.pump }

// Step simulates the next hour.
func (p *Plant) Step() (StepUpdate, error) {
	if p.Done() {
		return StepUpdate{}, ErrFinished
	}
	t := p.next
	demand := p.inputs.Demand[t]
	supply := p.inputs.SupplyTemp[t]
	ret := p.inputs.ReturnTemp[t]

	top, bottom := p.storage.Temperatures(t - 1)
	p.on = p.pump.Active && p.strategy.Decide(p.on, top, bottom, demand)

	var heat, el float64
	if p.on {
		var err error
		heat, el, err = p.pump.Generate(t, p.pump.CapacityKW, supply, p.table)
		if err != nil {
			return StepUpdate{}, fmt.Errorf("plant hour %d: %w", t, err)
		}
		// A heat pump that cannot reach the flow temperature stays off.
		p.on = heat > 0
	}

	res, err := p.storage.Step(t, storage.StepInput{QIn: heat, QOut: demand, TSupply: supply, TReturn: ret})
	if err != nil {
		return StepUpdate{}, fmt.Errorf("plant hour %d: %w", t, err)
	}
	p.next++

	top, bottom = p.storage.Temperatures(t)
	u := StepUpdate{
		Hour:           t,
		DemandKW:       demand,
		HeatPumpHeatKW: heat,
		HeatPumpElKW:   el,
		HeatPumpOn:     p.on,
		StorageLossKW:  res.QLoss,
		StorageKWh:     res.QSto,
		MeanTemp:       res.TSto,
		TopTemp:        top,
		BottomTemp:     bottom,
		Layers:         res.Layers,
		ChargeFraction: p.storage.ChargeState(t, ret, supply).Fraction,
		MassFlowIn:     res.MassFlowIn,
		MassFlowOut:    res.MassFlowOut,
		UnmetKWh:       res.UnmetKWh,
		ExcessKWh:      res.ExcessKWh,
		Stagnated:      res.Stagnated,
		SupplyTemp:     supply,
		ReturnTemp:     ret,
	}
	if p.on {
		u.COP = p.pump.COP[t]
	}
	return u, nil
}

// Run simulates all remaining hours.
func (p *Plant) Run(ctx context.Context) ([]StepUpdate, error) {
	updates := make([]StepUpdate, 0, p.Hours()-p.next)
	for !p.Done() {
		if err := ctx.Err(); err != nil {
			return updates, err
		}
		u, err := p.Step()
		if err != nil {
			return updates, err
		}
		updates = append(updates, u)
	}
	return updates, nil
}

// Summary aggregates the hours simulated so far.
func (p *Plant) Summary() Summary {
	hp := p.pump.CalculateResults(1)
	totals := p.storage.Totals()

	s := Summary{
		Hours:                  p.next,
		DemandKWh:              floats.Sum(p.inputs.Demand[:p.next]),
		HeatPumpHeatKWh:        hp.HeatMWh * 1000,
		HeatPumpElectricityKWh: hp.ElectricityMWh * 1000,
		SCOP:                   hp.SCOP,
		HeatPumpStarts:         hp.Starts,
		OperatingHours:         hp.OperatingHours,
		LossKWh:                floats.Sum(p.storage.QLoss[:p.next]),
		ExcessHeatKWh:          totals.ExcessHeatKWh,
		UnmetDemandKWh:         totals.UnmetDemandKWh,
		StagnationHours:        totals.StagnationHours,
		StorageEfficiency:      p.storage.Efficiency(),
	}
	if p.next > 0 {
		t := p.next - 1
		s.ChargeFraction = p.storage.ChargeState(t, p.inputs.ReturnTemp[t], p.inputs.SupplyTemp[t]).Fraction
	}
	return s
}

// Result returns the heat pump result row including economics.
func (p *Plant) Result() heatpump.Result {
	return p.pump.Summarize(p.cfg.Economics, 1)
}
