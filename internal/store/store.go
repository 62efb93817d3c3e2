package store

import (
	"sort"
	"sync"

	"stes_simulator/internal/model"
)

// Store holds hourly series samples in memory, indexed by series ID.
type Store struct {
	mu      sync.RWMutex
	series  map[string]model.Series
	samples map[string][]model.Sample // keyed by series ID, sorted by hour
}

func New() *Store {
	return &Store{
		series:  make(map[string]model.Series),
		samples: make(map[string][]model.Sample),
	}
}

// AddSeries registers a series.
func (s *Store) AddSeries(series model.Series) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.series[series.ID] = series
}

// AddSamples adds samples, then sorts each affected series by hour.
func (s *Store) AddSamples(samples []model.Sample) {
	if len(samples) == 0 {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, smp := range samples {
		s.samples[smp.SeriesID] = append(s.samples[smp.SeriesID], smp)
	}

	seen := make(map[string]bool)
	for _, smp := range samples {
		if !seen[smp.SeriesID] {
			seen[smp.SeriesID] = true
			all := s.samples[smp.SeriesID]
			sort.SliceStable(all, func(i, j int) bool { return all[i].Hour < all[j].Hour })
		}
	}
}

// Series returns all registered series ordered by ID.
func (s *Store) Series() []model.Series {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.Series, 0, len(s.series))
	for _, series := range s.series {
		out = append(out, series)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// ByType returns the registered series of one type ordered by ID.
func (s *Store) ByType(t model.SeriesType) []model.Series {
	var out []model.Series
	for _, series := range s.Series() {
		if series.Type == t {
			out = append(out, series)
		}
	}
	return out
}

// SampleCount returns the number of samples of a series.
func (s *Store) SampleCount(seriesID string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.samples[seriesID])
}

// HourRange returns the hours covered by a series.
func (s *Store) HourRange(seriesID string) (model.HourRange, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	all := s.samples[seriesID]
	if len(all) == 0 {
		return model.HourRange{}, false
	}
	return model.HourRange{Start: all[0].Hour, End: all[len(all)-1].Hour}, true
}

// GlobalHourRange returns the union of all series' hour ranges.
func (s *Store) GlobalHourRange() (model.HourRange, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var r model.HourRange
	first := true
	for _, all := range s.samples {
		if len(all) == 0 {
			continue
		}
		if first || all[0].Hour < r.Start {
			r.Start = all[0].Hour
		}
		if first || all[len(all)-1].Hour > r.End {
			r.End = all[len(all)-1].Hour
		}
		first = false
	}
	return r, !first
}

// SamplesInRange returns samples between start (inclusive) and end (exclusive).
func (s *Store) SamplesInRange(seriesID string, start, end int) []model.Sample {
	s.mu.RLock()
	defer s.mu.RUnlock()

	all := s.samples[seriesID]
	startIdx := sort.Search(len(all), func(i int) bool { return all[i].Hour >= start })
	endIdx := sort.Search(len(all), func(i int) bool { return all[i].Hour >= end })
	if startIdx >= endIdx {
		return nil
	}

	result := make([]model.Sample, endIdx-startIdx)
	copy(result, all[startIdx:endIdx])
	return result
}

// ValueAt returns the most recent value at or before hour.
func (s *Store) ValueAt(seriesID string, hour int) (float64, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return valueAt(s.samples[seriesID], hour)
}

func valueAt(all []model.Sample, hour int) (float64, bool) {
	idx := sort.Search(len(all), func(i int) bool { return all[i].Hour > hour })
	if idx == 0 {
		return 0, false
	}
	return all[idx-1].Value, true
}

// Values returns a dense series for hours [0, hours). Gaps repeat the previous value and
// hours before the first sample take the first value. ok is false for an unknown series.
func (s *Store) Values(seriesID string, hours int) ([]float64, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	all := s.samples[seriesID]
	if len(all) == 0 {
		return nil, false
	}
	out := make([]float64, hours)
	for h := range out {
		v, ok := valueAt(all, h)
		if !ok {
			v = all[0].Value
		}
		out[h] = v
	}
	return out, true
}
