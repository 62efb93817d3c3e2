package heatpump

// Strategy switches a heat pump that charges a storage with two temperature thresholds.
type Strategy struct {
	// ChargeOn: an idle heat pump starts once the upper storage temperature is at or below it.
	ChargeOn float64 `json:"charge_on" yaml:"charge_on"`
	// ChargeOff: a running heat pump stops once the lower storage temperature reaches it.
	ChargeOff float64 `json:"charge_off" yaml:"charge_off"`
}

// Decide returns whether the heat pump runs in the next hour.
func (s Strategy) Decide(on bool, upper, lower, remaining float64) bool {
	if remaining <= 0 {
		return false
	}
	if on {
		return lower < s.ChargeOff
	}
	return upper <= s.ChargeOn
}
