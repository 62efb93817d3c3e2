package storage

import (
	"errors"
	"fmt"
)

// StorageType selects the geometry and heat-loss correlations of a storage.
type StorageType string

const (
	CylindricalOverground  StorageType = "cylindrical_overground"
	CylindricalUnderground StorageType = "cylindrical_underground"
	TruncatedCone          StorageType = "truncated_cone"
	TruncatedTrapezoid     StorageType = "truncated_trapezoid"
)

var (
	ErrUnsupportedGeometry = errors.New("unsupported storage geometry")
	ErrInvalidDimensions   = errors.New("invalid storage dimensions")
	ErrInsulationTooThin   = errors.New("side insulation thinner than the physical minimum for soil contact")
	ErrInvalidParams       = errors.New("invalid storage parameters")
	ErrLengthMismatch      = errors.New("input length does not match simulation horizon")
	ErrStepOutOfRange      = errors.New("time step outside simulation horizon")
)

const (
	// DefaultHours is one calendar year at hourly resolution.
	DefaultHours = 8760
	// DefaultLayers is the layer count of stratified storages.
	DefaultLayers = 5

	// refTemp is the zero point of stored energy (°C).
	refTemp = 0.0
	// jPerKWh converts J to kWh.
	jPerKWh = 3.6e6
	// stepHours is the fixed integration step.
	stepHours = 1.0
	// tempEpsilon is the temperature difference below which no heat or mass is transferred.
	tempEpsilon = 1e-6
)

// Params holds the full parameter set of a storage. Dimensions depend on Type:
//
//	cylindrical_*:       radius, height
//	truncated_cone:      top radius, bottom radius, height
//	truncated_trapezoid: top length, top width, bottom length, bottom width, height
type Params struct {
	Name       string      `json:"name" yaml:"name"`
	Type       StorageType `json:"storage_type" yaml:"storage_type"`
	Dimensions []float64   `json:"dimensions" yaml:"dimensions"`

	Rho                 float64 `json:"rho" yaml:"rho"`                                   // kg/m³
	Cp                  float64 `json:"cp" yaml:"cp"`                                     // J/(kg·K)
	ThermalConductivity float64 `json:"thermal_conductivity" yaml:"thermal_conductivity"` // W/(m·K), storage medium

	LambdaTop    float64 `json:"lambda_top" yaml:"lambda_top"`
	LambdaSide   float64 `json:"lambda_side" yaml:"lambda_side"`
	LambdaBottom float64 `json:"lambda_bottom" yaml:"lambda_bottom"`
	LambdaSoil   float64 `json:"lambda_soil" yaml:"lambda_soil"`
	DtTop        float64 `json:"dt_top" yaml:"dt_top"`       // m
	DsSide       float64 `json:"ds_side" yaml:"ds_side"`     // m
	DbBottom     float64 `json:"db_bottom" yaml:"db_bottom"` // m

	TAmb          float64   `json:"t_amb" yaml:"t_amb"`
	TSoil         float64   `json:"t_soil" yaml:"t_soil"`
	AmbientSeries []float64 `json:"ambient_series,omitempty" yaml:"-"`
	SoilSeries    []float64 `json:"soil_series,omitempty" yaml:"-"`

	TMax        float64 `json:"t_max" yaml:"t_max"`
	TMin        float64 `json:"t_min" yaml:"t_min"`
	InitialTemp float64 `json:"initial_temp" yaml:"initial_temp"`
	Hours       int     `json:"hours" yaml:"hours"`
	NumLayers   int     `json:"num_layers" yaml:"num_layers"`

	// Mass-flow model only.
	TMaxReturn float64 `json:"t_max_return" yaml:"t_max_return"` // protection limit of the generator return
	DTSupply   float64 `json:"dt_supply" yaml:"dt_supply"`       // tolerated drop below the required supply temperature
}

// Boundary holds the ambient and soil temperature acting on the storage in one hour.
type Boundary struct {
	TAmb  float64
	TSoil float64
}

// withDefaults fills zero-valued horizon, layer count and return limit.
func (p Params) withDefaults() Params {
	if p.TMaxReturn == 0 {
		p.TMaxReturn = p.TMax
	}
	if p.Hours == 0 {
		p.Hours = DefaultHours
	}
	if p.NumLayers == 0 {
		p.NumLayers = DefaultLayers
	}
	return p
}

// Validate checks the parameter set. Geometry-specific checks (unknown type, dimension arity,
// minimum insulation of underground cylinders) are included.
func (p Params) Validate() error {
	if _, err := NewGeometry(p.Type, p.Dimensions); err != nil {
		return err
	}
	if p.Rho <= 0 || p.Cp <= 0 {
		return fmt.Errorf("%w: rho and cp must be positive", ErrInvalidParams)
	}
	if p.ThermalConductivity < 0 {
		return fmt.Errorf("%w: thermal conductivity must not be negative", ErrInvalidParams)
	}
	if p.TMin >= p.TMax {
		return fmt.Errorf("%w: t_min %.1f must be below t_max %.1f", ErrInvalidParams, p.TMin, p.TMax)
	}
	if p.Hours <= 0 {
		return fmt.Errorf("%w: hours must be positive", ErrInvalidParams)
	}
	if p.NumLayers <= 0 {
		return fmt.Errorf("%w: num_layers must be positive", ErrInvalidParams)
	}
	if p.AmbientSeries != nil && len(p.AmbientSeries) != p.Hours {
		return fmt.Errorf("%w: ambient series has %d values, want %d", ErrLengthMismatch, len(p.AmbientSeries), p.Hours)
	}
	if p.SoilSeries != nil && len(p.SoilSeries) != p.Hours {
		return fmt.Errorf("%w: soil series has %d values, want %d", ErrLengthMismatch, len(p.SoilSeries), p.Hours)
	}
	return validateInsulation(p)
}

// validateInsulation rejects resistance networks that are physically meaningless for the
// storage type.
func validateInsulation(p Params) error {
	positive := func(name string, v float64) error {
		if v <= 0 {
			return fmt.Errorf("%w: %s must be positive", ErrInvalidParams, name)
		}
		return nil
	}

	switch p.Type {
	case CylindricalOverground:
		for _, c := range []struct {
			name string
			v    float64
		}{
			{"lambda_top", p.LambdaTop}, {"lambda_side", p.LambdaSide}, {"lambda_bottom", p.LambdaBottom},
			{"lambda_soil", p.LambdaSoil}, {"dt_top", p.DtTop}, {"ds_side", p.DsSide}, {"db_bottom", p.DbBottom},
		} {
			if err := positive(c.name, c.v); err != nil {
				return err
			}
		}
	case CylindricalUnderground:
		for _, c := range []struct {
			name string
			v    float64
		}{
			{"lambda_top", p.LambdaTop}, {"lambda_side", p.LambdaSide}, {"lambda_soil", p.LambdaSoil},
			{"dt_top", p.DtTop}, {"ds_side", p.DsSide},
		} {
			if err := positive(c.name, c.v); err != nil {
				return err
			}
		}
		radius := p.Dimensions[0]
		dMin := 0.37 * radius * p.LambdaSide / p.LambdaSoil
		if p.DsSide <= 2*dMin {
			return fmt.Errorf("%w: ds_side %.3f m <= 2 x %.3f m", ErrInsulationTooThin, p.DsSide, dMin)
		}
	case TruncatedCone, TruncatedTrapezoid:
		for _, c := range []struct {
			name string
			v    float64
		}{
			{"lambda_side", p.LambdaSide}, {"lambda_bottom", p.LambdaBottom}, {"lambda_soil", p.LambdaSoil},
			{"ds_side", p.DsSide}, {"db_bottom", p.DbBottom},
		} {
			if err := positive(c.name, c.v); err != nil {
				return err
			}
		}
	}
	return nil
}

// boundaryAt returns the boundary temperatures for hour t.
func (p Params) boundaryAt(t int) Boundary {
	b := Boundary{TAmb: p.TAmb, TSoil: p.TSoil}
	if t >= 0 && t < len(p.AmbientSeries) {
		b.TAmb = p.AmbientSeries[t]
	}
	if t >= 0 && t < len(p.SoilSeries) {
		b.TSoil = p.SoilSeries[t]
	}
	return b
}

// clone returns a copy that shares no slices with p.
func (p Params) clone() Params {
	c := p
	c.Dimensions = append([]float64(nil), p.Dimensions...)
	if p.AmbientSeries != nil {
		c.AmbientSeries = append([]float64(nil), p.AmbientSeries...)
	}
	if p.SoilSeries != nil {
		c.SoilSeries = append([]float64(nil), p.SoilSeries...)
	}
	return c
}
