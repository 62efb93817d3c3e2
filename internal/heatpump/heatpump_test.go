package heatpump

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"stes_simulator/internal/economics"
)

func TestNewHeatPump_Defaults(t *testing.T) {
	hp := NewHeatPump("hp", 1000)
	assert.True(t, hp.Active)
	assert.Equal(t, 20, hp.Lifetime)
	assert.InDelta(t, 1, hp.InstallFactor, 1e-12)
	assert.InDelta(t, 1.5, hp.MaintenanceFactor, 1e-12)
	assert.InDelta(t, 0.4, hp.CO2Factor, 1e-12)
	assert.InDelta(t, 2.4, hp.PrimaryEnergyFactor, 1e-12)
	assert.InDelta(t, 0.4, hp.SubsidyFraction, 1e-12)
}

func TestHeatGenerationCosts_NoHeat(t *testing.T) {
	hp := NewHeatPump("hp", 1000)
	c := hp.HeatGenerationCosts(200, 0, 0, 1000, economics.DefaultParameters())
	assert.False(t, c.Applicable)
	assert.True(t, c.WGK.IsZero())
	assert.True(t, c.Total.IsZero())
}

func TestHeatGenerationCosts(t *testing.T) {
	hp := NewHeatPump("hp", 1000)
	econ := economics.DefaultParameters()

	c := hp.HeatGenerationCosts(200, 1000, 300, 500, econ)
	assert.True(t, c.Applicable)
	assert.InDelta(t, 200000, c.HeatPumpInvestment, 1e-9)
	assert.InDelta(t, 100000, c.SourceInvestment, 1e-9)

	// Heat pump part: capital, electricity and upkeep annuity per MWh.
	a, b := econ.Factors()
	af, bf := a.InexactFloat64(), b.InexactFloat64()
	wantHP := (200000*af + 300*150*af*bf + 200000*0.025*af*bf) / 1000
	assert.InDelta(t, wantHP, c.HeatPump.InexactFloat64(), 1e-6)

	assert.True(t, c.Total.Equal(c.HeatPump.Add(c.Source)))
	assert.True(t, c.TotalSubsidized.LessThan(c.Total))
	assert.True(t, c.WGK.Equal(c.Total))

	econ.SubsidyEligible = true
	c = hp.HeatGenerationCosts(200, 1000, 300, 500, econ)
	assert.True(t, c.WGK.Equal(c.TotalSubsidized))
}

func TestEnvironmentalImpact(t *testing.T) {
	hp := NewHeatPump("hp", 1000)

	e := hp.EnvironmentalImpact(400, 100)
	assert.InDelta(t, 40, e.CO2Tonnes, 1e-12)
	assert.InDelta(t, 0.1, e.SpecificCO2, 1e-12)
	assert.InDelta(t, 240, e.PrimaryEnergyMWh, 1e-12)

	e = hp.EnvironmentalImpact(0, 0)
	assert.Zero(t, e.SpecificCO2)
}

func TestStrategy_Decide(t *testing.T) {
	s := Strategy{ChargeOn: 70, ChargeOff: 70}
	tests := []struct {
		name      string
		on        bool
		upper     float64
		lower     float64
		remaining float64
		want      bool
	}{
		{"off, storage warm", false, 75, 50, 100, false},
		{"off, storage cooled", false, 70, 50, 100, true},
		{"off, no demand", false, 60, 50, 0, false},
		{"on, bottom still cold", true, 85, 60, 100, true},
		{"on, bottom warm", true, 85, 70, 100, false},
		{"on, no demand", true, 85, 60, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, s.Decide(tt.on, tt.upper, tt.lower, tt.remaining))
		})
	}
}

func TestStrategy_Hysteresis(t *testing.T) {
	s := Strategy{ChargeOn: 65, ChargeOff: 75}
	// Between the thresholds the state is kept.
	assert.True(t, s.Decide(true, 70, 70, 10))
	assert.False(t, s.Decide(false, 70, 70, 10))
}
