// Package profile builds synthetic hourly input series when measured profiles are missing.
package profile

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

const hoursPerYear = 8760

// EncodeHour returns sin/cos of the day-of-year and hour-of-day angles of hour h.
func EncodeHour(h int) []float64 {
	day := float64((h/24)%365) / 365
	hod := float64(h%24) / 24
	return []float64{
		math.Sin(2 * math.Pi * day),
		math.Cos(2 * math.Pi * day),
		math.Sin(2 * math.Pi * hod),
		math.Cos(2 * math.Pi * hod),
	}
}

// Seasonal is an annual cosine with an optional daily cosine on top.
type Seasonal struct {
	Mean           float64 `json:"mean" yaml:"mean"`
	Amplitude      float64 `json:"amplitude" yaml:"amplitude"`
	PeakDay        int     `json:"peak_day" yaml:"peak_day"` // day of year with the maximum, 0-based
	DailyAmplitude float64 `json:"daily_amplitude" yaml:"daily_amplitude"`
	PeakHour       int     `json:"peak_hour" yaml:"peak_hour"` // hour of day with the daily maximum
}

// At returns the value in hour h.
func (s Seasonal) At(h int) float64 {
	enc := EncodeHour(h)
	peak := EncodeHour(s.PeakDay*24 + s.PeakHour)
	// cos(a − b) = cos a·cos b + sin a·sin b
	annual := enc[1]*peak[1] + enc[0]*peak[0]
	daily := enc[3]*peak[3] + enc[2]*peak[2]
	return s.Mean + s.Amplitude*annual + s.DailyAmplitude*daily
}

// Hourly returns hours values starting at hour 0.
func (s Seasonal) Hourly(hours int) []float64 {
	out := make([]float64, hours)
	for h := range out {
		out[h] = s.At(h)
	}
	return out
}

// DefaultAmbient is a central European air temperature year.
func DefaultAmbient() Seasonal {
	return Seasonal{Mean: 9, Amplitude: 9, PeakDay: 200, DailyAmplitude: 3, PeakHour: 15}
}

// DefaultRiver is a central European river temperature year.
func DefaultRiver() Seasonal {
	return Seasonal{Mean: 11, Amplitude: 7, PeakDay: 215}
}

// SoilFromAmbient derives a soil temperature series from ambient temperatures. Daily means
// are damped towards the annual mean and delayed by lagHours.
func SoilFromAmbient(ambient []float64, damping float64, lagHours int) []float64 {
	n := len(ambient)
	if n == 0 {
		return nil
	}
	mean := stat.Mean(ambient, nil)

	daily := make([]float64, n)
	for day := 0; day*24 < n; day++ {
		end := min((day+1)*24, n)
		m := stat.Mean(ambient[day*24:end], nil)
		for h := day * 24; h < end; h++ {
			daily[h] = m
		}
	}

	soil := make([]float64, n)
	for h := range soil {
		src := ((h-lagHours)%n + n) % n
		soil[h] = mean + damping*(daily[src]-mean)
	}
	return soil
}
