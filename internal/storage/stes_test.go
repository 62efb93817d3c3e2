package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stesParams() Params {
	p := tankParams()
	p.ThermalConductivity = 0.6
	p.TMaxReturn = 70
	p.DTSupply = 5
	return p
}

func TestSTES_FirstHourIsFullStep(t *testing.T) {
	s, err := NewSTES(stesParams())
	require.NoError(t, err)

	r, err := s.Step(0, StepInput{QIn: 500, TSupply: 90, TReturn: 40})
	require.NoError(t, err)

	// ṁ = Q / (cp·ΔT) with ΔT ≈ 90 − 60.
	assert.InDelta(t, 500e3/(4180*30), r.MassFlowIn, 0.01)
	assert.Greater(t, r.QLoss, 0.0)
	assert.Greater(t, r.Layers[0], 60.0)
	assert.Greater(t, r.Layers[0], r.Layers[4])
	assert.InDelta(t, -500, s.QNetStorageFlow[0], 1e-12)
	assert.InDelta(t, r.Layers[0], s.TFlowToConsumer[0], 1e-12)
	assert.InDelta(t, r.Layers[4], s.TReturnToGenerator[0], 1e-12)
}

func TestSTES_ChargingBuildsStratification(t *testing.T) {
	s, err := NewSTES(stesParams())
	require.NoError(t, err)

	hours := 24
	require.NoError(t, s.Simulate(constant(hours, 500), constant(hours, 0), constant(hours, 85), constant(hours, 40)))

	for i := 1; i < hours; i++ {
		assert.Greater(t, s.TSto[i], s.TSto[i-1])
	}
	top, bottom := s.Temperatures(hours - 1)
	assert.Greater(t, top, bottom)
	assert.LessOrEqual(t, top, 85.0)
	assert.Equal(t, 0, s.Totals().StagnationHours)
}

func TestSTES_StagnationWhenSupplyNotAboveBottom(t *testing.T) {
	p := stesParams()
	p.Hours = 10
	s, err := NewSTES(p)
	require.NoError(t, err)

	qIn := []float64{500, 500, 500, 500, 500, 0, 0, 0, 0, 0}
	require.NoError(t, s.Simulate(qIn, constant(10, 0), constant(10, 55), constant(10, 40)))

	totals := s.Totals()
	assert.Equal(t, 5, totals.StagnationHours)
	assert.InDelta(t, 2500, totals.ExcessHeatKWh, 1e-9)
	for i := 0; i < 10; i++ {
		assert.InDelta(t, 0, s.MassFlowIn[i], 1e-12)
	}
}

func TestSTES_StagnationEveryHour(t *testing.T) {
	s, err := NewSTES(stesParams())
	require.NoError(t, err)

	hours := 24
	require.NoError(t, s.Simulate(constant(hours, 300), constant(hours, 0), constant(hours, 40), constant(hours, 30)))

	totals := s.Totals()
	assert.Equal(t, hours, totals.StagnationHours)
	assert.InDelta(t, 300*float64(hours), totals.ExcessHeatKWh, 1e-9)
	for i := 0; i < hours; i++ {
		assert.InDelta(t, 0, s.MassFlowIn[i], 1e-12)
		if i > 0 {
			assert.LessOrEqual(t, s.QSto[i], s.QSto[i-1])
		}
	}
}

func TestSTES_StagnationAtReturnLimit(t *testing.T) {
	p := stesParams()
	p.TMaxReturn = 50
	s, err := NewSTES(p)
	require.NoError(t, err)

	r, err := s.Step(0, StepInput{QIn: 300, TSupply: 90, TReturn: 40})
	require.NoError(t, err)
	assert.True(t, r.Stagnated)
	assert.InDelta(t, 300, r.ExcessKWh, 1e-12)
	assert.Equal(t, 1, r.Totals.StagnationHours)
}

func TestSTES_Discharge(t *testing.T) {
	s, err := NewSTES(stesParams())
	require.NoError(t, err)

	r, err := s.Step(0, StepInput{QOut: 200, TSupply: 60, TReturn: 40})
	require.NoError(t, err)

	assert.InDelta(t, 200e3/(4180*20), r.MassFlowOut, 0.01)
	assert.InDelta(t, 0, r.UnmetKWh, 1e-12)
	// Cold return enters at the bottom.
	assert.Less(t, r.Layers[4], r.Layers[0])
	assert.InDelta(t, 200, s.QNetStorageFlow[0], 1e-12)
}

func TestSTES_UnmetWhenTopTooCold(t *testing.T) {
	s, err := NewSTES(stesParams())
	require.NoError(t, err)

	// Top at 60 °C cannot serve 70 °C with 5 K tolerance.
	r, err := s.Step(0, StepInput{QOut: 200, TSupply: 70, TReturn: 40})
	require.NoError(t, err)
	assert.InDelta(t, 200, r.UnmetKWh, 1e-12)
	assert.InDelta(t, 0, r.MassFlowOut, 1e-12)
	assert.InDelta(t, 200, r.Totals.UnmetDemandKWh, 1e-12)
	assert.False(t, r.Stagnated)
}

func TestSTES_ChargeState(t *testing.T) {
	s, err := NewSTES(stesParams())
	require.NoError(t, err)

	cs := s.ChargeState(-1, 40, 80)
	assert.InDelta(t, 0.5, cs.Fraction, 1e-9)
	totalCap := 785.398 * 1000 * 4180 / 3.6e6
	assert.InDelta(t, totalCap*20, cs.AvailableKWh, 1)
	assert.InDelta(t, totalCap*40, cs.MaxKWh, 1)

	cs = s.ChargeState(-1, 40, 50)
	assert.InDelta(t, 1, cs.Fraction, 1e-12)

	cs = s.ChargeState(-1, 80, 80)
	assert.InDelta(t, 0, cs.Fraction, 1e-12)
	assert.InDelta(t, 0, cs.MaxKWh, 1e-12)
}

func TestSTES_TemperaturesBeforeFirstStep(t *testing.T) {
	s, err := NewSTES(stesParams())
	require.NoError(t, err)
	top, bottom := s.Temperatures(-1)
	assert.InDelta(t, 60, top, 1e-12)
	assert.InDelta(t, 60, bottom, 1e-12)
}

func TestSTES_SimulateLengthMismatch(t *testing.T) {
	s, err := NewSTES(stesParams())
	require.NoError(t, err)
	err = s.Simulate(constant(24, 0), constant(24, 0), constant(12, 80), constant(24, 40))
	assert.ErrorIs(t, err, ErrLengthMismatch)
}

func TestNew_Kinds(t *testing.T) {
	for _, kind := range []Kind{KindLumped, KindStratified, KindSTES} {
		st, err := New(stesParams(), kind)
		require.NoError(t, err)
		assert.Equal(t, 24, st.Hours())
	}
	_, err := New(stesParams(), Kind("pebble_bed"))
	assert.ErrorIs(t, err, ErrInvalidParams)
}
