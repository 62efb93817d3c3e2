package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStratified_ChargingScenario(t *testing.T) {
	s, err := NewStratified(tankParams())
	require.NoError(t, err)
	require.NoError(t, s.Simulate(constant(24, 500), constant(24, 0)))

	rows, cols := s.TStoLayers.Dims()
	assert.Equal(t, 24, rows)
	assert.Equal(t, 5, cols)

	for i := 1; i < 24; i++ {
		assert.Greater(t, s.TSto[i], s.TSto[i-1], "hour %d", i)
		for j := 0; j < cols; j++ {
			assert.LessOrEqual(t, s.TStoLayers.At(i, j), 90.0)
		}
	}
	eff := s.Efficiency()
	assert.Greater(t, eff, 0.0)
	assert.Less(t, eff, 1.0)
}

func TestStratified_TopIsHottestWhileCharging(t *testing.T) {
	s, err := NewStratified(tankParams())
	require.NoError(t, err)
	require.NoError(t, s.Simulate(constant(24, 500), constant(24, 0)))

	layers := s.State(23).Layers
	for i := 1; i < len(layers); i++ {
		assert.GreaterOrEqual(t, layers[i-1], layers[i])
	}
	assert.Greater(t, layers[0], layers[len(layers)-1])
}

func TestStratified_EnergyBalance(t *testing.T) {
	p := tankParams()
	p.ThermalConductivity = 0.6
	s, err := NewStratified(p)
	require.NoError(t, err)
	require.NoError(t, s.Simulate(constant(24, 500), constant(24, 100)))

	for i := 1; i < 24; i++ {
		assert.InDelta(t, 500-100-s.QLoss[i], s.QSto[i]-s.QSto[i-1], 1e-6, "hour %d", i)
	}
}

func TestStratified_SingleLayerMatchesLumped(t *testing.T) {
	p := tankParams()
	p.NumLayers = 1
	qIn := constant(24, 400)
	qOut := constant(24, 150)

	l, err := NewLumped(p)
	require.NoError(t, err)
	require.NoError(t, l.Simulate(qIn, qOut))
	s, err := NewStratified(p)
	require.NoError(t, err)
	require.NoError(t, s.Simulate(qIn, qOut))

	for i := 0; i < 24; i++ {
		assert.InDelta(t, l.TSto[i], s.TSto[i], 1e-6)
		assert.InDelta(t, l.QSto[i], s.QSto[i], 1e-6)
		assert.InDelta(t, l.QLoss[i], s.QLoss[i], 1e-6)
	}
}

func TestStratified_ConductionEvensOutLayers(t *testing.T) {
	p := tankParams()
	p.ThermalConductivity = 0.6
	s, err := NewStratified(p)
	require.NoError(t, err)

	_, err = s.Step(0, StepInput{})
	require.NoError(t, err)
	s.temps = []float64{80, 60, 60, 60, 60}
	r, err := s.Step(1, StepInput{})
	require.NoError(t, err)

	assert.Less(t, r.Layers[0], 80.0)
	assert.Greater(t, r.Layers[1], r.Layers[2])
}

func TestStratified_UnservedDischarge(t *testing.T) {
	p := tankParams()
	p.InitialTemp = 41
	s, err := NewStratified(p)
	require.NoError(t, err)

	require.NoError(t, s.Simulate(constant(24, 0), constant(24, 2000)))
	totals := s.Totals()
	assert.Greater(t, totals.UnmetDemandKWh, 0.0)
	assert.Equal(t, 0, totals.StagnationHours)
	for _, temp := range s.State(23).Layers {
		assert.GreaterOrEqual(t, temp, 40.0)
	}
}

func TestStratified_UnabsorbedCharge(t *testing.T) {
	p := tankParams()
	p.Dimensions = []float64{1, 1}
	p.InitialTemp = 89
	s, err := NewStratified(p)
	require.NoError(t, err)

	require.NoError(t, s.Simulate(constant(24, 100), constant(24, 0)))
	totals := s.Totals()
	assert.Greater(t, totals.ExcessHeatKWh, 0.0)
	assert.Equal(t, 23, totals.StagnationHours)
}

func TestStratified_InitialState(t *testing.T) {
	s, err := NewStratified(tankParams())
	require.NoError(t, err)

	st := s.State(-1)
	assert.Equal(t, []float64{60, 60, 60, 60, 60}, st.Layers)
	assert.InDelta(t, 60, st.TSto, 1e-12)

	r, err := s.Step(0, StepInput{QIn: 1000})
	require.NoError(t, err)
	assert.InDelta(t, 60, r.TSto, 1e-12)
	assert.InDelta(t, 0, r.QLoss, 1e-12)
}

func TestStratified_PitLayersWeightedByVolume(t *testing.T) {
	p := tankParams()
	p.Type = TruncatedCone
	p.Dimensions = []float64{20, 8, 10}
	s, err := NewStratified(p)
	require.NoError(t, err)
	require.NoError(t, s.Simulate(constant(24, 2000), constant(24, 0)))

	// Larger upper layers dominate the mean.
	st := s.State(23)
	var plain float64
	for _, temp := range st.Layers {
		plain += temp
	}
	plain /= float64(len(st.Layers))
	assert.Greater(t, st.TSto, plain)
}
