package profile

import (
	"errors"

	"gonum.org/v1/gonum/floats"
)

var ErrNoHeatingHours = errors.New("no hour below the heating limit")

// DemandConfig describes a synthetic district heating demand.
type DemandConfig struct {
	AnnualMWh    float64 `json:"annual_mwh" yaml:"annual_mwh"`
	HeatingLimit float64 `json:"heating_limit" yaml:"heating_limit"` // °C, no space heating above
	// BaseShare is the fraction of the annual demand that is independent of weather (hot water).
	BaseShare float64 `json:"base_share" yaml:"base_share"`
}

// HeatDemand distributes the annual demand over the hours of ambient in kW. Space heating
// follows degree hours below the heating limit weighted by shape, the base share is flat.
func HeatDemand(ambient []float64, cfg DemandConfig, shape DailyShape) ([]float64, error) {
	n := len(ambient)
	totalKWh := cfg.AnnualMWh * 1000 * float64(n) / hoursPerYear

	weights := make([]float64, n)
	for h, temp := range ambient {
		if temp < cfg.HeatingLimit {
			weights[h] = (cfg.HeatingLimit - temp) * shape.Factor(float64(h%24))
		}
	}
	sum := floats.Sum(weights)

	heatingKWh := totalKWh * (1 - cfg.BaseShare)
	if sum == 0 && heatingKWh > 0 {
		return nil, ErrNoHeatingHours
	}

	demand := make([]float64, n)
	base := totalKWh * cfg.BaseShare / float64(n)
	for h := range demand {
		demand[h] = base
		if sum > 0 {
			demand[h] += heatingKWh * weights[h] / sum
		}
	}
	return demand, nil
}
