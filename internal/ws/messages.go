package ws

import (
	"encoding/json"

	"stes_simulator/internal/simulator"
)

// Envelope wraps all WebSocket messages with a type discriminator.
type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Client -> Server messages

type SetSpeedPayload struct {
	Speed float64 `json:"speed"`
}

type SeekPayload struct {
	Hour int `json:"hour"`
}

type StrategyConfigPayload struct {
	ChargeOn  float64 `json:"charge_on"`
	ChargeOff float64 `json:"charge_off"`
	// Restart replays the run from hour 0 with the new thresholds.
	Restart bool `json:"restart"`
}

// Server -> Client messages

type SimStatePayload struct {
	RunID   string  `json:"run_id"`
	Hour    int     `json:"hour"`
	Hours   int     `json:"hours"`
	Speed   float64 `json:"speed"`
	Running bool    `json:"running"`
}

type PlantStepPayload struct {
	Hour           int       `json:"hour"`
	DemandKW       float64   `json:"demand_kw"`
	HeatPumpHeatKW float64   `json:"heat_pump_heat_kw"`
	HeatPumpElKW   float64   `json:"heat_pump_el_kw"`
	COP            float64   `json:"cop"`
	HeatPumpOn     bool      `json:"heat_pump_on"`
	TopTemp        float64   `json:"t_top_c"`
	BottomTemp     float64   `json:"t_bottom_c"`
	MeanTemp       float64   `json:"t_mean_c"`
	Layers         []float64 `json:"layers_c"`
	ChargeFraction float64   `json:"charge_fraction"`
	LossKW         float64   `json:"loss_kw"`
	UnmetKWh       float64   `json:"unmet_kwh"`
	ExcessKWh      float64   `json:"excess_kwh"`
	Stagnated      bool      `json:"stagnated"`
}

type SummaryPayload struct {
	RunID                  string  `json:"run_id"`
	Hours                  int     `json:"hours"`
	DemandKWh              float64 `json:"demand_kwh"`
	HeatPumpHeatKWh        float64 `json:"heat_pump_heat_kwh"`
	HeatPumpElectricityKWh float64 `json:"heat_pump_electricity_kwh"`
	SCOP                   float64 `json:"scop"`
	HeatPumpStarts         int     `json:"heat_pump_starts"`
	LossKWh                float64 `json:"loss_kwh"`
	ExcessHeatKWh          float64 `json:"excess_heat_kwh"`
	UnmetDemandKWh         float64 `json:"unmet_demand_kwh"`
	StagnationHours        int     `json:"stagnation_hours"`
	ChargeFraction         float64 `json:"charge_fraction"`
	StorageEfficiency      float64 `json:"storage_efficiency"`
	CoveragePct            float64 `json:"coverage_pct"`
}

type SeriesInfo struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Type string `json:"type"`
	Unit string `json:"unit"`
}

type DataLoadedPayload struct {
	Series []SeriesInfo `json:"series"`
	Hours  int          `json:"hours"`
}

// Message type constants
const (
	// Client -> Server
	TypeSimStart       = "sim:start"
	TypeSimPause       = "sim:pause"
	TypeSimSetSpeed    = "sim:set_speed"
	TypeSimSeek        = "sim:seek"
	TypeStrategyConfig = "strategy:config"

	// Server -> Client
	TypeSimState      = "sim:state"
	TypePlantStep     = "plant:step"
	TypeSummaryUpdate = "summary:update"
	TypeDataLoaded    = "data:loaded"
)

func NewEnvelope(msgType string, payload any) ([]byte, error) {
	var raw json.RawMessage
	if payload != nil {
		var err error
		raw, err = json.Marshal(payload)
		if err != nil {
			return nil, err
		}
	}
	return json.Marshal(Envelope{Type: msgType, Payload: raw})
}

func SimStateFromEngine(s simulator.State) SimStatePayload {
	return SimStatePayload{
		RunID:   s.RunID,
		Hour:    s.Hour,
		Hours:   s.Hours,
		Speed:   s.Speed,
		Running: s.Running,
	}
}

func StepFromEngine(u simulator.StepUpdate) PlantStepPayload {
	return PlantStepPayload{
		Hour:           u.Hour,
		DemandKW:       u.DemandKW,
		HeatPumpHeatKW: u.HeatPumpHeatKW,
		HeatPumpElKW:   u.HeatPumpElKW,
		COP:            u.COP,
		HeatPumpOn:     u.HeatPumpOn,
		TopTemp:        u.TopTemp,
		BottomTemp:     u.BottomTemp,
		MeanTemp:       u.MeanTemp,
		Layers:         u.Layers,
		ChargeFraction: u.ChargeFraction,
		LossKW:         u.StorageLossKW,
		UnmetKWh:       u.UnmetKWh,
		ExcessKWh:      u.ExcessKWh,
		Stagnated:      u.Stagnated,
	}
}

func SummaryFromEngine(s simulator.Summary) SummaryPayload {
	return SummaryPayload{
		RunID:                  s.RunID,
		Hours:                  s.Hours,
		DemandKWh:              s.DemandKWh,
		HeatPumpHeatKWh:        s.HeatPumpHeatKWh,
		HeatPumpElectricityKWh: s.HeatPumpElectricityKWh,
		SCOP:                   s.SCOP,
		HeatPumpStarts:         s.HeatPumpStarts,
		LossKWh:                s.LossKWh,
		ExcessHeatKWh:          s.ExcessHeatKWh,
		UnmetDemandKWh:         s.UnmetDemandKWh,
		StagnationHours:        s.StagnationHours,
		ChargeFraction:         s.ChargeFraction,
		StorageEfficiency:      s.StorageEfficiency,
		CoveragePct:            s.Coverage(),
	}
}
