package heatpump

import (
	"math"

	"github.com/shopspring/decimal"

	"stes_simulator/internal/economics"
)

// HeatPump holds the technology and cost data every heat pump generator shares.
type HeatPump struct {
	Name               string  `json:"name" yaml:"name"`
	SpecificInvestment float64 `json:"specific_investment" yaml:"specific_investment"` // €/kW
	Active             bool    `json:"active" yaml:"active"`

	Lifetime          int     `json:"lifetime" yaml:"lifetime"`                     // years
	InstallFactor     float64 `json:"install_factor" yaml:"install_factor"`         // % per year
	MaintenanceFactor float64 `json:"maintenance_factor" yaml:"maintenance_factor"` // % per year
	OperatingEffort   float64 `json:"operating_effort" yaml:"operating_effort"`     // h per year

	// Heat source (well, river intake, ...) cost data.
	SourceLifetime          int     `json:"source_lifetime" yaml:"source_lifetime"`
	SourceInstallFactor     float64 `json:"source_install_factor" yaml:"source_install_factor"`
	SourceMaintenanceFactor float64 `json:"source_maintenance_factor" yaml:"source_maintenance_factor"`
	SourceOperatingEffort   float64 `json:"source_operating_effort" yaml:"source_operating_effort"`

	CO2Factor           float64 `json:"co2_factor" yaml:"co2_factor"` // t CO2 per MWh electricity
	PrimaryEnergyFactor float64 `json:"primary_energy_factor" yaml:"primary_energy_factor"`
	SubsidyFraction     float64 `json:"subsidy_fraction" yaml:"subsidy_fraction"` // BEW share of investment

	Strategy *Strategy `json:"strategy,omitempty" yaml:"strategy,omitempty"`
}

// NewHeatPump returns a heat pump with the default technology and cost data.
func NewHeatPump(name string, specificInvestment float64) HeatPump {
	return HeatPump{
		Name:                    name,
		SpecificInvestment:      specificInvestment,
		Active:                  true,
		Lifetime:                20,
		InstallFactor:           1,
		MaintenanceFactor:       1.5,
		OperatingEffort:         0,
		SourceLifetime:          20,
		SourceInstallFactor:     0.5,
		SourceMaintenanceFactor: 0.5,
		SourceOperatingEffort:   0,
		CO2Factor:               0.4,
		PrimaryEnergyFactor:     2.4,
		SubsidyFraction:         0.4,
	}
}

// Costs are heat generation costs in € per MWh of heat.
type Costs struct {
	// Applicable is false when no heat was produced; all costs are zero then.
	Applicable bool `json:"applicable"`

	HeatPumpInvestment float64 `json:"heat_pump_investment"` // €
	SourceInvestment   float64 `json:"source_investment"`    // €

	HeatPump decimal.Decimal `json:"heat_pump"`
	Source   decimal.Decimal `json:"source"`
	Total    decimal.Decimal `json:"total"`

	HeatPumpSubsidized decimal.Decimal `json:"heat_pump_subsidized"`
	SourceSubsidized   decimal.Decimal `json:"source_subsidized"`
	TotalSubsidized    decimal.Decimal `json:"total_subsidized"`

	// WGK is Total or TotalSubsidized depending on subsidy eligibility.
	WGK decimal.Decimal `json:"wgk"`
}

// HeatGenerationCosts computes the levelised heat cost of a unit with capacityKW rated output
// that produced heatMWh while using electricityMWh per year.
func (hp *HeatPump) HeatGenerationCosts(capacityKW, heatMWh, electricityMWh, specificSourceInvestment float64, econ economics.Parameters) Costs {
	c := Costs{
		HeatPumpInvestment: hp.SpecificInvestment * math.Round(capacityKW),
		SourceInvestment:   specificSourceInvestment * capacityKW,
	}
	if heatMWh <= 0 {
		return c
	}
	c.Applicable = true

	electricity := economics.Usage{EnergyMWh: electricityMWh, EnergyPrice: econ.ElectricityPrice}
	unit := func(investment float64) economics.Asset {
		return economics.Asset{
			Investment:        investment,
			Lifetime:          hp.Lifetime,
			InstallFactor:     hp.InstallFactor,
			MaintenanceFactor: hp.MaintenanceFactor,
			OperatingEffort:   hp.OperatingEffort,
		}
	}
	source := func(investment float64) economics.Asset {
		return economics.Asset{
			Investment:        investment,
			Lifetime:          hp.SourceLifetime,
			InstallFactor:     hp.SourceInstallFactor,
			MaintenanceFactor: hp.SourceMaintenanceFactor,
			OperatingEffort:   hp.SourceOperatingEffort,
		}
	}
	perMWh := func(b economics.Breakdown) decimal.Decimal {
		v, _ := economics.PerMWh(b.Total, heatMWh)
		return v
	}

	c.HeatPump = perMWh(econ.Annuity(unit(c.HeatPumpInvestment), electricity))
	c.Source = perMWh(econ.Annuity(source(c.SourceInvestment), economics.Usage{}))
	c.Total = c.HeatPump.Add(c.Source)

	own := 1 - hp.SubsidyFraction
	c.HeatPumpSubsidized = perMWh(econ.Annuity(unit(c.HeatPumpInvestment*own), electricity))
	c.SourceSubsidized = perMWh(econ.Annuity(source(c.SourceInvestment*own), economics.Usage{}))
	c.TotalSubsidized = c.HeatPumpSubsidized.Add(c.SourceSubsidized)

	c.WGK = c.Total
	if econ.SubsidyEligible {
		c.WGK = c.TotalSubsidized
	}
	return c
}

// Environmental is the emission and primary energy balance of one year.
type Environmental struct {
	CO2Tonnes        float64 `json:"co2_t"`
	SpecificCO2      float64 `json:"specific_co2_t_per_mwh"`
	PrimaryEnergyMWh float64 `json:"primary_energy_mwh"`
}

// EnvironmentalImpact returns emissions caused by the electricity use.
func (hp *HeatPump) EnvironmentalImpact(heatMWh, electricityMWh float64) Environmental {
	e := Environmental{
		CO2Tonnes:        electricityMWh * hp.CO2Factor,
		PrimaryEnergyMWh: electricityMWh * hp.PrimaryEnergyFactor,
	}
	if heatMWh > 0 {
		e.SpecificCO2 = e.CO2Tonnes / heatMWh
	}
	return e
}
