// Package config loads plant scenarios from YAML and turns them into simulator inputs.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"stes_simulator/internal/economics"
	"stes_simulator/internal/heatpump"
	"stes_simulator/internal/profile"
	"stes_simulator/internal/simulator"
	"stes_simulator/internal/storage"
)

var ErrInvalidScenario = errors.New("invalid scenario")

// Inputs names the data files of a scenario. Relative paths are resolved against the
// scenario file. Without a profile file the synthetic profile is used.
type Inputs struct {
	Profile      string `json:"profile" yaml:"profile"`
	Long         string `json:"long" yaml:"long"`
	COPTable     string `json:"cop_table" yaml:"cop_table"`
	COPDelimiter string `json:"cop_delimiter" yaml:"cop_delimiter"`
}

// Profile describes the synthetic year.
type Profile struct {
	Hours        int                  `json:"hours" yaml:"hours"`
	Ambient      profile.Seasonal     `json:"ambient" yaml:"ambient"`
	River        profile.Seasonal     `json:"river" yaml:"river"`
	SoilDamping  float64              `json:"soil_damping" yaml:"soil_damping"`
	SoilLagHours int                  `json:"soil_lag_hours" yaml:"soil_lag_hours"`
	Demand       profile.DemandConfig `json:"demand" yaml:"demand"`
	SupplyTemp   float64              `json:"supply_temp" yaml:"supply_temp"`
	ReturnTemp   float64              `json:"return_temp" yaml:"return_temp"`
	// ShapeFrom names a loaded series whose hour-of-day pattern shapes a synthetic demand.
	ShapeFrom string `json:"shape_from" yaml:"shape_from"`
}

// Scenario is the full description of a plant run.
type Scenario struct {
	Name      string               `json:"name" yaml:"name"`
	Storage   storage.Params       `json:"storage" yaml:"storage"`
	HeatPump  heatpump.RiverConfig `json:"heat_pump" yaml:"heat_pump"`
	Strategy  heatpump.Strategy    `json:"strategy" yaml:"strategy"`
	Economics economics.Parameters `json:"economics" yaml:"economics"`
	Inputs    Inputs               `json:"inputs" yaml:"inputs"`
	Profile   Profile              `json:"profile" yaml:"profile"`
}

// Default returns a 20 000 m³ pit storage charged by a 500 kW river heat pump for a small
// district heating network.
func Default() Scenario {
	hp := heatpump.DefaultRiverConfig()
	hp.CapacityKW = 500
	hp.MaxCapacityKW = 2000

	return Scenario{
		Name: "default",
		Storage: storage.Params{
			Name:                "pit storage",
			Type:                storage.TruncatedTrapezoid,
			Dimensions:          []float64{50, 50, 30, 30, 12},
			Rho:                 1000,
			Cp:                  4180,
			ThermalConductivity: 0.6,
			LambdaTop:           0.04,
			LambdaSide:          0.03,
			LambdaBottom:        0.05,
			LambdaSoil:          1.5,
			DtTop:               0.3,
			DsSide:              0.4,
			DbBottom:            0.5,
			TAmb:                10,
			TSoil:               10,
			TMin:                40,
			TMax:                85,
			InitialTemp:         60,
			NumLayers:           storage.DefaultLayers,
			TMaxReturn:          70,
			DTSupply:            5,
		},
		HeatPump:  hp,
		Strategy:  heatpump.Strategy{ChargeOn: 65, ChargeOff: 70},
		Economics: economics.DefaultParameters(),
		Inputs:    Inputs{COPDelimiter: ";"},
		Profile: Profile{
			Hours:        storage.DefaultHours,
			Ambient:      profile.DefaultAmbient(),
			River:        profile.DefaultRiver(),
			SoilDamping:  0.3,
			SoilLagHours: 30 * 24,
			Demand:       profile.DemandConfig{AnnualMWh: 2000, HeatingLimit: 15, BaseShare: 0.2},
			SupplyTemp:   75,
			ReturnTemp:   45,
		},
	}
}

// Load reads a scenario file on top of Default and validates it.
func Load(path string) (Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Scenario{}, fmt.Errorf("reading scenario: %w", err)
	}
	sc, err := Parse(data)
	if err != nil {
		return Scenario{}, fmt.Errorf("%s: %w", path, err)
	}
	sc.Inputs.resolve(filepath.Dir(path))
	return sc, nil
}

// Parse decodes YAML on top of Default and validates the result. Unknown keys are rejected.
func Parse(data []byte) (Scenario, error) {
	sc := Default()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&sc); err != nil && !errors.Is(err, io.EOF) {
		return Scenario{}, fmt.Errorf("parsing scenario: %w", err)
	}
	if err := sc.Validate(); err != nil {
		return Scenario{}, err
	}
	return sc, nil
}

func (in *Inputs) resolve(dir string) {
	for _, p := range []*string{&in.Profile, &in.Long, &in.COPTable} {
		if *p != "" && !filepath.IsAbs(*p) {
			*p = filepath.Join(dir, *p)
		}
	}
}

// Validate checks the scenario. Storage parameters are validated for the synthetic horizon;
// the final horizon follows the loaded data.
func (s Scenario) Validate() error {
	params := s.Storage
	if params.Hours == 0 {
		params.Hours = max(s.Profile.Hours, 1)
	}
	if err := params.Validate(); err != nil {
		return fmt.Errorf("%w: storage: %w", ErrInvalidScenario, err)
	}
	if err := s.Economics.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidScenario, err)
	}
	if s.HeatPump.CapacityKW < 0 {
		return fmt.Errorf("%w: heat pump capacity must not be negative", ErrInvalidScenario)
	}
	if s.Strategy.ChargeOff < s.Strategy.ChargeOn {
		return fmt.Errorf("%w: strategy charge_off %.1f below charge_on %.1f", ErrInvalidScenario, s.Strategy.ChargeOff, s.Strategy.ChargeOn)
	}
	if s.Inputs.Profile == "" && s.Inputs.Long == "" {
		if s.Profile.Hours <= 0 {
			return fmt.Errorf("%w: profile hours must be positive", ErrInvalidScenario)
		}
		if s.Profile.SupplyTemp <= s.Profile.ReturnTemp {
			return fmt.Errorf("%w: profile supply temperature must exceed return temperature", ErrInvalidScenario)
		}
	}
	if len(s.Inputs.COPDelimiter) > 1 {
		return fmt.Errorf("%w: cop_delimiter must be a single character", ErrInvalidScenario)
	}
	return nil
}

// PlantConfig returns the plant part of the scenario.
func (s Scenario) PlantConfig() simulator.PlantConfig {
	return simulator.PlantConfig{
		Storage:   s.Storage,
		HeatPump:  s.HeatPump,
		Strategy:  s.Strategy,
		Economics: s.Economics,
	}
}
