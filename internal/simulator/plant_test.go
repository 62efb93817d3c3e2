package simulator

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"stes_simulator/internal/economics"
	"stes_simulator/internal/heatpump"
	"stes_simulator/internal/model"
	"stes_simulator/internal/storage"
	"stes_simulator/internal/store"
)

func copTable(t *testing.T) *heatpump.COPTable {
	t.Helper()
	values := mat.NewDense(3, 4, []float64{
		4.0, 3.0, 2.2, 1.6,
		5.0, 3.6, 2.6, 1.9,
		6.0, 4.2, 3.0, 2.2,
	})
	table, err := heatpump.NewCOPTable([]float64{0, 10, 20}, []float64{35, 55, 75, 95}, values)
	require.NoError(t, err)
	return table
}

func testConfig(initial float64) PlantConfig {
	return PlantConfig{
		Storage: storage.Params{
			Name:                "pit",
			Type:                storage.CylindricalOverground,
			Dimensions:          []float64{5, 10},
			Rho:                 1000,
			Cp:                  4180,
			ThermalConductivity: 0.6,
			LambdaTop:           0.04,
			LambdaSide:          0.04,
			LambdaBottom:        0.04,
			LambdaSoil:          2.0,
			DtTop:               0.2,
			DsSide:              0.2,
			DbBottom:            0.2,
			TAmb:                10,
			TSoil:               10,
			TMin:                40,
			TMax:                90,
			InitialTemp:         initial,
			NumLayers:           5,
			TMaxReturn:          70,
			DTSupply:            5,
		},
		HeatPump:  heatpump.DefaultRiverConfig(),
		Strategy:  heatpump.Strategy{ChargeOn: 70, ChargeOff: 70},
		Economics: economics.DefaultParameters(),
	}
}

func constant(n int, v float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}

func testInputs(hours int) Inputs {
	return Inputs{
		Demand:     constant(hours, 100),
		SupplyTemp: constant(hours, 75),
		ReturnTemp: constant(hours, 45),
	}
}

func newPlant(t *testing.T, cfg PlantConfig, hours int) *Plant {
	t.Helper()
	p, err := NewPlant(cfg, testInputs(hours), copTable(t))
	require.NoError(t, err)
	return p
}

func TestPlant_HotStorageCoversDemand(t *testing.T) {
	p := newPlant(t, testConfig(80), 10)

	updates, err := p.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, updates, 10)

	for i, u := range updates {
		assert.Equal(t, i, u.Hour)
		assert.False(t, u.HeatPumpOn)
		assert.Zero(t, u.HeatPumpHeatKW)
		assert.Zero(t, u.UnmetKWh)
		assert.Greater(t, u.MassFlowOut, 0.0)
		if i > 0 {
			assert.Less(t, u.MeanTemp, updates[i-1].MeanTemp)
		}
	}
	assert.True(t, p.Done())
}

func TestPlant_HeatPumpChargesCoolStorage(t *testing.T) {
	p := newPlant(t, testConfig(60), 24)

	updates, err := p.Run(context.Background())
	require.NoError(t, err)

	first := updates[0]
	assert.True(t, first.HeatPumpOn)
	assert.InDelta(t, 200, first.HeatPumpHeatKW, 1e-12)
	assert.InDelta(t, 200/2.6, first.HeatPumpElKW, 1e-9)
	assert.InDelta(t, 2.6, first.COP, 1e-12)
	assert.Greater(t, first.MassFlowIn, 0.0)
	// Top layer still below supply − ΔT: the network is not served.
	assert.InDelta(t, 100, first.UnmetKWh, 1e-12)

	for _, u := range updates {
		assert.True(t, u.HeatPumpOn)
		assert.Less(t, u.BottomTemp, 70.0)
	}

	s := p.Summary()
	assert.Equal(t, 24, s.Hours)
	assert.Equal(t, 0, s.HeatPumpStarts)
	assert.InDelta(t, 24, s.OperatingHours, 1e-12)
	assert.InDelta(t, 4800, s.HeatPumpHeatKWh, 1e-9)
	assert.InDelta(t, 2.6, s.SCOP, 1e-9)
	assert.InDelta(t, 2400, s.DemandKWh, 1e-9)
}

func TestPlant_HeatPumpNeverStartsAboveChargeOn(t *testing.T) {
	cfg := testConfig(60)
	cfg.Strategy = heatpump.Strategy{ChargeOn: 50, ChargeOff: 70}
	p := newPlant(t, cfg, 6)

	_, err := p.Run(context.Background())
	require.NoError(t, err)

	s := p.Summary()
	assert.Zero(t, s.HeatPumpHeatKWh)
	assert.InDelta(t, 600, s.UnmetDemandKWh, 1e-9)
	assert.InDelta(t, 0, s.Coverage(), 1e-12)
	assert.Zero(t, s.StagnationHours)
}

func TestPlant_InactiveHeatPump(t *testing.T) {
	p := newPlant(t, testConfig(60), 4)
	p.HeatPump().Active = false

	updates, err := p.Run(context.Background())
	require.NoError(t, err)
	for _, u := range updates {
		assert.False(t, u.HeatPumpOn)
	}
}

func TestPlant_StepAfterEnd(t *testing.T) {
	p := newPlant(t, testConfig(80), 2)
	_, err := p.Run(context.Background())
	require.NoError(t, err)

	_, err = p.Step()
	assert.ErrorIs(t, err, ErrFinished)
}

func TestPlant_ResetIsDeterministic(t *testing.T) {
	p := newPlant(t, testConfig(60), 12)
	first, err := p.Run(context.Background())
	require.NoError(t, err)

	require.NoError(t, p.Reset())
	assert.Equal(t, 0, p.Next())
	second, err := p.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestPlant_RunHonoursContext(t *testing.T) {
	p := newPlant(t, testConfig(60), 12)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	updates, err := p.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, updates)
}

func TestPlant_SetStrategy(t *testing.T) {
	cfg := testConfig(60)
	cfg.Strategy = heatpump.Strategy{ChargeOn: 50, ChargeOff: 70}
	p := newPlant(t, cfg, 4)

	u, err := p.Step()
	require.NoError(t, err)
	assert.False(t, u.HeatPumpOn)

	p.SetStrategy(heatpump.Strategy{ChargeOn: 70, ChargeOff: 70})
	u, err = p.Step()
	require.NoError(t, err)
	assert.True(t, u.HeatPumpOn)
	assert.Equal(t, 70.0, p.Strategy().ChargeOn)
}

func TestPlant_SeriesOverrides(t *testing.T) {
	in := testInputs(3)
	in.Ambient = []float64{0, 1, 2}
	in.Soil = []float64{8, 8, 8}
	in.RiverTemp = []float64{5, 6, 7}

	p, err := NewPlant(testConfig(60), in, copTable(t))
	require.NoError(t, err)

	params := p.Storage().Params()
	assert.Equal(t, 3, params.Hours)
	assert.Equal(t, in.Ambient, params.AmbientSeries)
	assert.Equal(t, in.Soil, params.SoilSeries)
	assert.Equal(t, in.RiverTemp, p.HeatPump().RiverTemp)
}

func TestNewPlant_Errors(t *testing.T) {
	in := testInputs(3)
	in.SupplyTemp = in.SupplyTemp[:2]
	_, err := NewPlant(testConfig(60), in, copTable(t))
	assert.ErrorIs(t, err, ErrMissingSeries)

	_, err = NewPlant(testConfig(60), testInputs(3), nil)
	assert.Error(t, err)

	cfg := testConfig(60)
	cfg.Storage.TMin = 95
	_, err = NewPlant(cfg, testInputs(3), copTable(t))
	assert.ErrorIs(t, err, storage.ErrInvalidParams)
}

func TestPlant_Result(t *testing.T) {
	p := newPlant(t, testConfig(60), 24)
	_, err := p.Run(context.Background())
	require.NoError(t, err)

	res := p.Result()
	assert.Equal(t, "river heat pump", res.Name)
	assert.InDelta(t, 4.8, res.HeatMWh, 1e-9)
	assert.True(t, res.WGKApplicable)
}

func TestStepUpdate_Row(t *testing.T) {
	u := StepUpdate{Hour: 5, DemandKW: 100, HeatPumpHeatKW: 200, TopTemp: 80, Stagnated: true}
	row := u.Row()
	assert.Equal(t, 5, row.Hour)
	assert.Equal(t, 200.0, row.StorageIn)
	assert.Equal(t, 100.0, row.StorageOut)
	assert.Equal(t, 80.0, row.TopTemp)
	assert.True(t, row.Stagnated)
}

func TestInputsFromStore(t *testing.T) {
	s := store.New()
	for _, st := range []model.SeriesType{model.SeriesHeatDemand, model.SeriesSupplyTemp, model.SeriesReturnTemp} {
		s.AddSeries(model.NewSeries(st))
		s.AddSamples([]model.Sample{
			{Hour: 0, SeriesID: string(st), Type: st, Value: 1},
			{Hour: 2, SeriesID: string(st), Type: st, Value: 3},
		})
	}

	in, err := InputsFromStore(s, 4)
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 1, 3, 3}, in.Demand)
	assert.Nil(t, in.RiverTemp)
	assert.Equal(t, 4, in.Hours())
}

func TestInputsFromStore_MissingDemand(t *testing.T) {
	_, err := InputsFromStore(store.New(), 4)
	assert.ErrorIs(t, err, ErrMissingSeries)
}
