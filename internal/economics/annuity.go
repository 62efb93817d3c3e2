// Package economics computes annual costs of heat generation assets with the annuity method
// of VDI 2067. Money is handled as decimal.Decimal; rates and factors enter as float64.
package economics

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

var ErrInvalidParameters = errors.New("invalid economic parameters")

// Parameters is the economic bundle shared by all generators of a scenario.
type Parameters struct {
	ElectricityPrice    float64 `json:"electricity_price" yaml:"electricity_price"`         // €/MWh
	CapitalInterestRate float64 `json:"capital_interest_rate" yaml:"capital_interest_rate"` // 0.05 = 5 %
	InflationRate       float64 `json:"inflation_rate" yaml:"inflation_rate"`               // 0.03 = 3 %
	TimePeriod          int     `json:"time_period" yaml:"time_period"`                     // years
	SubsidyEligible     bool    `json:"subsidy_eligible" yaml:"subsidy_eligible"`           // BEW
	HourlyRate          float64 `json:"hourly_rate" yaml:"hourly_rate"`                     // €/h
}

// DefaultParameters returns the values used when a scenario omits the economics section.
func DefaultParameters() Parameters {
	return Parameters{
		ElectricityPrice:    150,
		CapitalInterestRate: 0.05,
		InflationRate:       0.03,
		TimePeriod:          20,
		SubsidyEligible:     false,
		HourlyRate:          45,
	}
}

// Validate checks the bundle.
func (p Parameters) Validate() error {
	if p.TimePeriod <= 0 {
		return fmt.Errorf("%w: time_period must be positive", ErrInvalidParameters)
	}
	if p.CapitalInterestRate <= -1 || p.InflationRate <= -1 {
		return fmt.Errorf("%w: rates must be above -100%%", ErrInvalidParameters)
	}
	if p.ElectricityPrice < 0 || p.HourlyRate < 0 {
		return fmt.Errorf("%w: prices must not be negative", ErrInvalidParameters)
	}
	return nil
}

// Asset describes one investment.
type Asset struct {
	Investment        float64 // A0, €
	Lifetime          int     // TN, years
	InstallFactor     float64 // f_Inst, % of A0 per year
	MaintenanceFactor float64 // f_W_Insp, % of A0 per year
	OperatingEffort   float64 // h per year
}

// Usage is the annual consumption billed with the asset.
type Usage struct {
	EnergyMWh   float64
	EnergyPrice float64 // €/MWh
	Revenue     float64 // € per year
}

// Breakdown is an annuity split into its VDI 2067 groups. All values are € per year.
type Breakdown struct {
	Capital   decimal.Decimal `json:"capital"`
	Demand    decimal.Decimal `json:"demand"`
	Operation decimal.Decimal `json:"operation"`
	Revenue   decimal.Decimal `json:"revenue"`
	Total     decimal.Decimal `json:"total"`
}

var (
	one     = decimal.NewFromInt(1)
	hundred = decimal.NewFromInt(100)
)

// Factors returns the annuity factor a and the price-dynamic present value factor b.
func (p Parameters) Factors() (a, b decimal.Decimal) {
	q := one.Add(decimal.NewFromFloat(p.CapitalInterestRate))
	r := one.Add(decimal.NewFromFloat(p.InflationRate))
	t := decimal.NewFromInt(int64(p.TimePeriod))

	if q.Equal(one) {
		a = one.Div(t)
	} else {
		a = q.Sub(one).Div(one.Sub(q.Pow(t.Neg())))
	}
	if q.Equal(r) {
		b = t.Div(q)
	} else {
		b = one.Sub(r.Div(q).Pow(t)).Div(q.Sub(r))
	}
	return a, b
}

// Annuity returns the annual cost of asset over the analysis period.
func (p Parameters) Annuity(asset Asset, usage Usage) Breakdown {
	q := one.Add(decimal.NewFromFloat(p.CapitalInterestRate))
	r := one.Add(decimal.NewFromFloat(p.InflationRate))
	a, b := p.Factors()
	a0 := decimal.NewFromFloat(asset.Investment)
	period := p.TimePeriod

	// Replacements within the period, each priced at its own date.
	n := 0
	if asset.Lifetime > 0 && period > asset.Lifetime {
		n = period / asset.Lifetime
	}
	capital := a0
	for i := 1; i <= n; i++ {
		years := decimal.NewFromInt(int64(i * asset.Lifetime))
		capital = capital.Add(a0.Mul(r.Pow(years)).Div(q.Pow(years)))
	}

	// Residual value of the last installation at the end of the period.
	residual := decimal.Zero
	if asset.Lifetime > 0 {
		tn := decimal.NewFromInt(int64(asset.Lifetime))
		remaining := decimal.NewFromInt(int64((n+1)*asset.Lifetime - period))
		residual = a0.
			Mul(r.Pow(decimal.NewFromInt(int64(n * asset.Lifetime)))).
			Mul(remaining.Div(tn)).
			Div(q.Pow(decimal.NewFromInt(int64(period))))
	}

	var br Breakdown
	br.Capital = capital.Sub(residual).Mul(a)

	energyCost := decimal.NewFromFloat(usage.EnergyMWh).Mul(decimal.NewFromFloat(usage.EnergyPrice))
	br.Demand = energyCost.Mul(a).Mul(b)

	labour := decimal.NewFromFloat(asset.OperatingEffort).Mul(decimal.NewFromFloat(p.HourlyRate))
	upkeep := a0.Mul(decimal.NewFromFloat(asset.InstallFactor + asset.MaintenanceFactor)).Div(hundred)
	br.Operation = labour.Add(upkeep).Mul(a).Mul(b)

	br.Revenue = decimal.NewFromFloat(usage.Revenue)
	br.Total = br.Capital.Add(br.Demand).Add(br.Operation).Sub(br.Revenue)
	return br
}

// PerMWh divides an annual cost by the annual heat production. ok is false when no heat is
// produced.
func PerMWh(annual decimal.Decimal, heatMWh float64) (cost decimal.Decimal, ok bool) {
	if heatMWh <= 0 {
		return decimal.Zero, false
	}
	return annual.Div(decimal.NewFromFloat(heatMWh)), true
}
