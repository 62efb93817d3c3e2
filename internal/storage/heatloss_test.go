package storage

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// tankParams is the 5 m × 10 m water tank used throughout the tests.
func tankParams() Params {
	return Params{
		Name:         "tank",
		Type:         CylindricalOverground,
		Dimensions:   []float64{5, 10},
		Rho:          1000,
		Cp:           4180,
		LambdaTop:    0.04,
		LambdaSide:   0.04,
		LambdaBottom: 0.04,
		LambdaSoil:   2.0,
		DtTop:        0.2,
		DsSide:       0.2,
		DbBottom:     0.2,
		TAmb:         10,
		TSoil:        10,
		TMin:         40,
		TMax:         90,
		InitialTemp:  60,
		Hours:        24,
		NumLayers:    5,
	}
}

func lossModel(t *testing.T, p Params) HeatLossModel {
	t.Helper()
	require.NoError(t, p.Validate())
	g, err := NewGeometry(p.Type, p.Dimensions)
	require.NoError(t, err)
	return NewHeatLossModel(p, g)
}

func TestHeatLoss_Overground(t *testing.T) {
	m := lossModel(t, tankParams())
	l := m.HeatLoss(60, Boundary{TAmb: 10, TSoil: 10})

	// U = λ/δ = 0.2 W/m²K on top and side.
	assert.InDelta(t, 0.2*25*math.Pi*50/1000, l.Top, 1e-9)
	assert.InDelta(t, 0.2*100*math.Pi*50/1000, l.Side, 1e-9)

	// Bottom insulation in series with 4r/(3πλ_soil).
	u := 1 / (0.2/0.04 + 4*5/(3*math.Pi*2))
	assert.InDelta(t, u*25*math.Pi*50/1000, l.Bottom, 1e-9)
	assert.InDelta(t, l.Top+l.Side+l.Bottom, l.Total(), 1e-12)
}

func TestHeatLoss_SideUsesAmbientAboveGround(t *testing.T) {
	m := lossModel(t, tankParams())
	l := m.HeatLoss(60, Boundary{TAmb: 60, TSoil: 10})
	assert.InDelta(t, 0, l.Top, 1e-12)
	assert.InDelta(t, 0, l.Side, 1e-12)
	assert.Greater(t, l.Bottom, 0.0)
}

func TestHeatLoss_Underground(t *testing.T) {
	p := tankParams()
	p.Type = CylindricalUnderground
	m := lossModel(t, p)
	l := m.HeatLoss(60, Boundary{TAmb: 0, TSoil: 10})

	k := 1 / (0.2/0.04 + 0.52*5/2.0)
	assert.InDelta(t, 0.2*25*math.Pi*60/1000, l.Top, 1e-9)
	assert.InDelta(t, k*100*math.Pi*50/1000, l.Side, 1e-9)
	assert.InDelta(t, k*25*math.Pi*50/1000, l.Bottom, 1e-9)
}

func TestValidate_UndergroundInsulationTooThin(t *testing.T) {
	p := tankParams()
	p.Type = CylindricalUnderground
	// d_min = 0.37·5·0.04/2 = 0.037 m, so 0.07 m is below 2·d_min.
	p.DsSide = 0.07
	assert.ErrorIs(t, p.Validate(), ErrInsulationTooThin)

	p.DsSide = 0.08
	assert.NoError(t, p.Validate())
}

func TestHeatLoss_Pit(t *testing.T) {
	p := tankParams()
	p.Type = TruncatedCone
	p.Dimensions = []float64{20, 8, 10}
	m := lossModel(t, p)
	l := m.HeatLoss(60, Boundary{TAmb: 10, TSoil: 10})

	g, err := NewGeometry(p.Type, p.Dimensions)
	require.NoError(t, err)
	b := math.Pi / 2.0
	a := 0.2/0.04 + math.Pi*10/(2*2.0)
	kSide := math.Log((a+b*10)/a) / (b * 10)
	kBottom := math.Log((a+b*8)/a) / (b * 8)

	assert.InDelta(t, kSide*g.SSide*50/1000, l.Side, 1e-9)
	assert.InDelta(t, kBottom*g.SBottom*50/1000, l.Bottom, 1e-9)
	assert.Zero(t, l.Top)
	assert.InDelta(t, l.Side+l.Bottom, l.Total(), 1e-12)
}

func TestHeatLoss_PitIgnoresTopInsulation(t *testing.T) {
	p := tankParams()
	p.Type = TruncatedTrapezoid
	p.Dimensions = []float64{40, 30, 20, 10, 10}
	p.LambdaTop = 0
	p.DtTop = 0
	require.NoError(t, p.Validate())

	m := lossModel(t, p)
	temps := []float64{80, 70, 60}
	perLayer := make([]float64, len(temps))
	b := Boundary{TAmb: -10, TSoil: 10}
	m.StratifiedHeatLoss(temps, b, perLayer)

	// The top layer only sees its share of the side towards the soil.
	share := (m.HeatLoss(80, b).Side) / 3
	assert.InDelta(t, share, perLayer[0], 1e-9)
	assert.Zero(t, m.HeatLoss(80, b).Top)
}

func TestHeatLoss_NegativeWhenColder(t *testing.T) {
	m := lossModel(t, tankParams())
	l := m.HeatLoss(5, Boundary{TAmb: 10, TSoil: 10})
	assert.Less(t, l.Total(), 0.0)
}

func TestStratifiedHeatLoss_UniformMatchesLumped(t *testing.T) {
	types := map[StorageType][]float64{
		CylindricalOverground:  {5, 10},
		CylindricalUnderground: {5, 10},
		TruncatedCone:          {20, 8, 10},
		TruncatedTrapezoid:     {40, 30, 20, 10, 10},
	}
	b := Boundary{TAmb: 0, TSoil: 8}
	for typ, dims := range types {
		p := tankParams()
		p.Type = typ
		p.Dimensions = dims
		m := lossModel(t, p)

		for _, n := range []int{1, 5} {
			temps := make([]float64, n)
			for i := range temps {
				temps[i] = 70
			}
			perLayer := make([]float64, n)
			total := m.StratifiedHeatLoss(temps, b, perLayer)
			assert.InDelta(t, m.HeatLoss(70, b).Total(), total, 1e-9, "%s n=%d", typ, n)
		}
	}
}

func TestStratifiedHeatLoss_LayerAssignment(t *testing.T) {
	m := lossModel(t, tankParams())
	b := Boundary{TAmb: 10, TSoil: 10}
	temps := []float64{80, 70, 60}
	perLayer := make([]float64, 3)
	m.StratifiedHeatLoss(temps, b, perLayer)

	side := 0.2 * 100 * math.Pi / 3
	top := 0.2 * 25 * math.Pi
	assert.InDelta(t, (top*70+side*70)/1000, perLayer[0], 1e-9)
	assert.InDelta(t, side*60/1000, perLayer[1], 1e-9)
	assert.Greater(t, perLayer[2], side*50/1000)
}

func TestStratifiedHeatLoss_UndergroundSingleLayer(t *testing.T) {
	p := tankParams()
	p.Type = CylindricalUnderground
	m := lossModel(t, p)
	b := Boundary{TAmb: 0, TSoil: 10}
	perLayer := make([]float64, 1)
	total := m.StratifiedHeatLoss([]float64{50}, b, perLayer)
	assert.InDelta(t, m.HeatLoss(50, b).Total(), total, 1e-9)
	assert.InDelta(t, total, perLayer[0], 1e-12)
}
