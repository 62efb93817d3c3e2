package simulator

import (
	"errors"
	"fmt"

	"stes_simulator/internal/model"
	"stes_simulator/internal/store"
)

var ErrMissingSeries = errors.New("required series missing")

// Inputs are the hourly driving series of a plant run.
type Inputs struct {
	Demand     []float64 // kW
	SupplyTemp []float64 // °C, required network supply temperature
	ReturnTemp []float64 // °C, network return temperature

	// Optional; nil leaves the scenario constants in place.
	RiverTemp []float64
	Ambient   []float64
	Soil      []float64
}

// Hours returns the horizon covered by the demand series.
func (in Inputs) Hours() int {
	return len(in.Demand)
}

// Validate checks that all present series cover the same horizon.
func (in Inputs) Validate() error {
	n := len(in.Demand)
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrMissingSeries, model.SeriesHeatDemand)
	}
	required := map[model.SeriesType][]float64{
		model.SeriesSupplyTemp: in.SupplyTemp,
		model.SeriesReturnTemp: in.ReturnTemp,
	}
	for t, s := range required {
		if len(s) != n {
			return fmt.Errorf("%w: %s has %d values, want %d", ErrMissingSeries, t, len(s), n)
		}
	}
	optional := map[model.SeriesType][]float64{
		model.SeriesRiverTemp:   in.RiverTemp,
		model.SeriesAmbientTemp: in.Ambient,
		model.SeriesSoilTemp:    in.Soil,
	}
	for t, s := range optional {
		if s != nil && len(s) != n {
			return fmt.Errorf("%s has %d values, want %d", t, len(s), n)
		}
	}
	return nil
}

// InputsFromStore reads the first series of every type for hours [0, hours).
func InputsFromStore(s *store.Store, hours int) (Inputs, error) {
	values := func(t model.SeriesType) []float64 {
		series := s.ByType(t)
		if len(series) == 0 {
			return nil
		}
		v, _ := s.Values(series[0].ID, hours)
		return v
	}

	in := Inputs{
		Demand:     values(model.SeriesHeatDemand),
		SupplyTemp: values(model.SeriesSupplyTemp),
		ReturnTemp: values(model.SeriesReturnTemp),
		RiverTemp:  values(model.SeriesRiverTemp),
		Ambient:    values(model.SeriesAmbientTemp),
		Soil:       values(model.SeriesSoilTemp),
	}
	if err := in.Validate(); err != nil {
		return Inputs{}, err
	}
	return in, nil
}
