package profile

import "math"

// DailyShape holds a normalised hour-of-day profile.
type DailyShape struct {
	// HourlyFactor holds the factor for each hour [0-23]; the peak hour is 1.0.
	HourlyFactor [24]float64
	PeakHour     int
}

// BuildDailyShape averages an hourly series by hour of day. Non-positive values are ignored.
// Without usable data the default heating shape is returned.
func BuildDailyShape(values []float64) DailyShape {
	var hourSum [24]float64
	var hourCount [24]int
	for h, v := range values {
		if v <= 0 {
			continue
		}
		hourSum[h%24] += v
		hourCount[h%24]++
	}

	var shape DailyShape
	var maxAvg float64
	for h := 0; h < 24; h++ {
		if hourCount[h] == 0 {
			continue
		}
		avg := hourSum[h] / float64(hourCount[h])
		shape.HourlyFactor[h] = avg
		if avg > maxAvg {
			maxAvg = avg
			shape.PeakHour = h
		}
	}
	if maxAvg == 0 {
		return DefaultHeatingShape()
	}
	for h := 0; h < 24; h++ {
		shape.HourlyFactor[h] /= maxAvg
	}
	return shape
}

// DefaultHeatingShape has a morning peak at 7:00, an evening shoulder and a night setback.
func DefaultHeatingShape() DailyShape {
	s := DailyShape{PeakHour: 7}
	for h := 0; h < 24; h++ {
		morning := math.Exp(-math.Pow(float64(h)-7, 2) / 8)
		evening := 0.8 * math.Exp(-math.Pow(float64(h)-19, 2) / 12)
		s.HourlyFactor[h] = 0.6 + 0.4*math.Max(morning, evening)
	}
	return s
}

// Factor returns the linearly interpolated factor for a fractional hour of day.
func (s DailyShape) Factor(hour float64) float64 {
	for hour < 0 {
		hour += 24
	}
	for hour >= 24 {
		hour -= 24
	}

	lo := int(math.Floor(hour)) % 24
	hi := (lo + 1) % 24
	frac := hour - math.Floor(hour)
	return s.HourlyFactor[lo]*(1-frac) + s.HourlyFactor[hi]*frac
}
