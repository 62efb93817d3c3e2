package config

import (
	"fmt"
	"os"

	"github.com/rs/zerolog/log"

	"stes_simulator/internal/heatpump"
	"stes_simulator/internal/ingest"
	"stes_simulator/internal/model"
	"stes_simulator/internal/profile"
	"stes_simulator/internal/simulator"
	"stes_simulator/internal/store"
)

// LoadData reads the scenario's input files into a store and fills every missing series
// from the synthetic profile. It returns the store and the horizon in hours.
func (s Scenario) LoadData() (*store.Store, int, error) {
	st := store.New()

	files := []struct {
		path   string
		parser ingest.Parser
	}{
		{s.Inputs.Profile, &ingest.ProfileParser{}},
		{s.Inputs.Long, &ingest.LongParser{}},
	}
	for _, f := range files {
		if f.path == "" {
			continue
		}
		samples, err := parseFile(f.path, f.parser)
		if err != nil {
			return nil, 0, err
		}
		register(st, samples)
		log.Info().Str("file", f.path).Int("samples", len(samples)).Msg("loaded input data")
	}

	hours := s.Profile.Hours
	if r, ok := st.GlobalHourRange(); ok {
		hours = r.End + 1
	}
	if hours <= 0 {
		return nil, 0, fmt.Errorf("%w: no hours to simulate", ErrInvalidScenario)
	}

	if err := s.fillMissing(st, hours); err != nil {
		return nil, 0, err
	}
	return st, hours, nil
}

func parseFile(path string, p ingest.Parser) ([]model.Sample, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	samples, err := p.Parse(f)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return samples, nil
}

// register adds samples and a catalog series for every new series ID.
func register(st *store.Store, samples []model.Sample) {
	known := make(map[string]bool)
	for _, series := range st.Series() {
		known[series.ID] = true
	}
	for _, smp := range samples {
		if known[smp.SeriesID] {
			continue
		}
		info := model.SeriesCatalog[smp.Type]
		st.AddSeries(model.Series{ID: smp.SeriesID, Name: info.Name, Type: smp.Type, Unit: info.Unit})
		known[smp.SeriesID] = true
	}
	st.AddSamples(samples)
}

func (s Scenario) fillMissing(st *store.Store, hours int) error {
	values := func(t model.SeriesType) []float64 {
		series := st.ByType(t)
		if len(series) == 0 {
			return nil
		}
		v, _ := st.Values(series[0].ID, hours)
		return v
	}
	add := func(t model.SeriesType, v []float64) {
		register(st, samplesOf(t, v))
		log.Debug().Str("series", string(t)).Msg("synthesized series")
	}

	p := s.Profile
	ambient := values(model.SeriesAmbientTemp)
	if ambient == nil {
		ambient = p.Ambient.Hourly(hours)
		add(model.SeriesAmbientTemp, ambient)
	}
	if values(model.SeriesSoilTemp) == nil {
		add(model.SeriesSoilTemp, profile.SoilFromAmbient(ambient, p.SoilDamping, p.SoilLagHours))
	}
	if values(model.SeriesRiverTemp) == nil {
		add(model.SeriesRiverTemp, p.River.Hourly(hours))
	}
	if values(model.SeriesHeatDemand) == nil {
		shape := profile.DefaultHeatingShape()
		if p.ShapeFrom != "" {
			v, ok := st.Values(p.ShapeFrom, hours)
			if !ok {
				return fmt.Errorf("%w: shape_from series %q not loaded", ErrInvalidScenario, p.ShapeFrom)
			}
			shape = profile.BuildDailyShape(v)
		}
		demand, err := profile.HeatDemand(ambient, p.Demand, shape)
		if err != nil {
			return fmt.Errorf("synthesizing demand: %w", err)
		}
		add(model.SeriesHeatDemand, demand)
	}
	if values(model.SeriesSupplyTemp) == nil {
		add(model.SeriesSupplyTemp, constant(hours, p.SupplyTemp))
	}
	if values(model.SeriesReturnTemp) == nil {
		add(model.SeriesReturnTemp, constant(hours, p.ReturnTemp))
	}
	return nil
}

func samplesOf(t model.SeriesType, values []float64) []model.Sample {
	unit := model.SeriesCatalog[t].Unit
	out := make([]model.Sample, len(values))
	for h, v := range values {
		out[h] = model.Sample{Hour: h, SeriesID: string(t), Type: t, Value: v, Unit: unit}
	}
	return out
}

func constant(n int, v float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}

// LoadCOPTable reads the configured table, or builds one at 45 % of the Carnot COP.
func (s Scenario) LoadCOPTable() (*heatpump.COPTable, error) {
	if s.Inputs.COPTable == "" {
		return heatpump.CarnotTable(
			[]float64{-5, 0, 5, 10, 15, 20, 25},
			[]float64{35, 45, 55, 65, 75, 85, 95},
			0.45,
		)
	}
	f, err := os.Open(s.Inputs.COPTable)
	if err != nil {
		return nil, fmt.Errorf("opening COP table: %w", err)
	}
	defer f.Close()

	comma := ';'
	if s.Inputs.COPDelimiter != "" {
		comma = rune(s.Inputs.COPDelimiter[0])
	}
	table, err := ingest.ParseCOPTable(f, comma)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", s.Inputs.COPTable, err)
	}
	return table, nil
}

// Build loads all data and returns a plant ready to run plus the loaded series.
func (s Scenario) Build() (*simulator.Plant, *store.Store, error) {
	st, hours, err := s.LoadData()
	if err != nil {
		return nil, nil, err
	}
	in, err := simulator.InputsFromStore(st, hours)
	if err != nil {
		return nil, nil, err
	}
	table, err := s.LoadCOPTable()
	if err != nil {
		return nil, nil, err
	}
	plant, err := simulator.NewPlant(s.PlantConfig(), in, table)
	if err != nil {
		return nil, nil, err
	}
	return plant, st, nil
}
