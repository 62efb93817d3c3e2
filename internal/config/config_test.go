package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stes_simulator/internal/economics"
	"stes_simulator/internal/model"
	"stes_simulator/internal/storage"
)

func TestDefault_IsValid(t *testing.T) {
	sc := Default()
	require.NoError(t, sc.Validate())
	assert.Equal(t, storage.TruncatedTrapezoid, sc.Storage.Type)
	assert.Equal(t, 500.0, sc.HeatPump.CapacityKW)
}

func TestParse_Empty(t *testing.T) {
	sc, err := Parse(nil)
	require.NoError(t, err)
	assert.Equal(t, Default(), sc)
}

func TestParse_Overrides(t *testing.T) {
	sc, err := Parse([]byte(`
name: test
storage:
  storage_type: cylindrical_overground
  dimensions: [8, 20]
  t_max: 95
heat_pump:
  capacity_kw: 750
  river_temp: [4, 5]
strategy:
  charge_on: 60
  charge_off: 80
economics:
  electricity_price: 220
profile:
  hours: 24
`))
	require.NoError(t, err)
	assert.Equal(t, "test", sc.Name)
	assert.Equal(t, storage.CylindricalOverground, sc.Storage.Type)
	assert.Equal(t, []float64{8, 20}, sc.Storage.Dimensions)
	assert.Equal(t, 95.0, sc.Storage.TMax)
	// Untouched keys keep their defaults.
	assert.Equal(t, 40.0, sc.Storage.TMin)
	assert.Equal(t, 750.0, sc.HeatPump.CapacityKW)
	assert.Equal(t, []float64{4, 5}, sc.HeatPump.RiverTemp)
	assert.Equal(t, 80.0, sc.Strategy.ChargeOff)
	assert.Equal(t, 220.0, sc.Economics.ElectricityPrice)
	assert.Equal(t, 20, sc.Economics.TimePeriod)
	assert.Equal(t, 24, sc.Profile.Hours)
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"unknown key", "storage:\n  volume: 5\n"},
		{"bad yaml", "storage: [\n"},
		{"inverted strategy", "strategy:\n  charge_on: 80\n  charge_off: 60\n"},
		{"bad storage", "storage:\n  t_min: 99\n"},
		{"bad economics", "economics:\n  time_period: 0\n"},
		{"negative capacity", "heat_pump:\n  capacity_kw: -1\n"},
		{"no profile spread", "profile:\n  supply_temp: 40\n  return_temp: 45\n"},
		{"long delimiter", "inputs:\n  cop_delimiter: ';;'\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			assert.Error(t, err)
		})
	}

	_, err := Parse([]byte("strategy:\n  charge_on: 80\n  charge_off: 60\n"))
	assert.ErrorIs(t, err, ErrInvalidScenario)
}

func TestParse_ErrorsKeepCause(t *testing.T) {
	_, err := Parse([]byte(`
storage:
  storage_type: cylindrical_underground
  dimensions: [10, 10]
  lambda_top: 0.04
  dt_top: 0.2
  lambda_side: 0.04
  lambda_soil: 2
  ds_side: 0.05
`))
	assert.ErrorIs(t, err, ErrInvalidScenario)
	assert.ErrorIs(t, err, storage.ErrInsulationTooThin)

	_, err = Parse([]byte("economics:\n  time_period: 0\n"))
	assert.ErrorIs(t, err, ErrInvalidScenario)
	assert.ErrorIs(t, err, economics.ErrInvalidParameters)
}

func TestLoad_ResolvesRelativePaths(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "scenario.yaml")
	require.NoError(t, os.WriteFile(path, []byte("inputs:\n  profile: data/profile.csv\n  cop_table: /abs/cop.csv\n"), 0o644))

	sc, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "data", "profile.csv"), sc.Inputs.Profile)
	assert.Equal(t, "/abs/cop.csv", sc.Inputs.COPTable)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestPlantConfig(t *testing.T) {
	sc := Default()
	pc := sc.PlantConfig()
	assert.Equal(t, sc.Storage.Name, pc.Storage.Name)
	assert.Equal(t, sc.Strategy, pc.Strategy)
	assert.Equal(t, sc.Economics, pc.Economics)
}

func TestLoadData_Synthetic(t *testing.T) {
	sc := Default()
	sc.Profile.Hours = 48

	st, hours, err := sc.LoadData()
	require.NoError(t, err)
	assert.Equal(t, 48, hours)
	for _, typ := range []model.SeriesType{
		model.SeriesAmbientTemp, model.SeriesSoilTemp, model.SeriesRiverTemp,
		model.SeriesHeatDemand, model.SeriesSupplyTemp, model.SeriesReturnTemp,
	} {
		series := st.ByType(typ)
		require.Len(t, series, 1, typ)
		assert.Equal(t, 48, st.SampleCount(series[0].ID), typ)
	}
	v, ok := st.ValueAt(string(model.SeriesSupplyTemp), 10)
	require.True(t, ok)
	assert.Equal(t, 75.0, v)
}

func TestLoadData_ProfileFileKeepsMeasuredSeries(t *testing.T) {
	dir := t.TempDir()
	csv := "hour,heat_demand_kw,supply_temp_c,return_temp_c\n0,100,80,50\n1,120,80,50\n2,90,78,48\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "profile.csv"), []byte(csv), 0o644))

	sc := Default()
	sc.Inputs.Profile = filepath.Join(dir, "profile.csv")

	st, hours, err := sc.LoadData()
	require.NoError(t, err)
	assert.Equal(t, 3, hours)

	demand, ok := st.Values(string(model.SeriesHeatDemand), hours)
	require.True(t, ok)
	assert.Equal(t, []float64{100, 120, 90}, demand)
	assert.Len(t, st.ByType(model.SeriesRiverTemp), 1)
}

func TestLoadData_ShapeFrom(t *testing.T) {
	dir := t.TempDir()
	csv := "series_id,hour,value\nheat_input_reference,0,1\nheat_input_reference,8,4\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "long.csv"), []byte(csv), 0o644))

	sc := Default()
	sc.Inputs.Long = filepath.Join(dir, "long.csv")
	sc.Profile.ShapeFrom = "heat_input_reference"

	st, hours, err := sc.LoadData()
	require.NoError(t, err)
	assert.Equal(t, 9, hours)
	assert.Len(t, st.ByType(model.SeriesHeatDemand), 1)

	sc.Profile.ShapeFrom = "missing"
	_, _, err = sc.LoadData()
	assert.ErrorIs(t, err, ErrInvalidScenario)
}

func TestLoadData_MissingFile(t *testing.T) {
	sc := Default()
	sc.Inputs.Profile = filepath.Join(t.TempDir(), "nope.csv")
	_, _, err := sc.LoadData()
	assert.Error(t, err)
}

func TestLoadCOPTable(t *testing.T) {
	sc := Default()
	table, err := sc.LoadCOPTable()
	require.NoError(t, err)
	assert.Greater(t, table.Interpolate(10, 75), 0.0)

	dir := t.TempDir()
	path := filepath.Join(dir, "cop.csv")
	require.NoError(t, os.WriteFile(path, []byte(";35;55\n0;4.0;3.0\n10;5.0;3.6\n"), 0o644))
	sc.Inputs.COPTable = path

	table, err = sc.LoadCOPTable()
	require.NoError(t, err)
	assert.InDelta(t, 3.6, table.Interpolate(10, 55), 1e-12)
}

func TestBuild(t *testing.T) {
	sc := Default()
	sc.Profile.Hours = 72

	plant, st, err := sc.Build()
	require.NoError(t, err)
	assert.Equal(t, 72, plant.Hours())
	assert.NotEmpty(t, st.Series())
	assert.Equal(t, 72, plant.Storage().Params().Hours)
	assert.Len(t, plant.HeatPump().RiverTemp, 72)
}
