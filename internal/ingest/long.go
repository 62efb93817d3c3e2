package ingest

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/gocarina/gocsv"

	"stes_simulator/internal/model"
)

type longRow struct {
	SeriesID string `csv:"series_id"`
	Hour     string `csv:"hour"`
	Value    string `csv:"value"`
}

// LongParser parses one-sample-per-line CSV files. The series type is taken from the
// longest catalog type the series ID starts with, so "river_temp_upstream" is a river
// temperature.
//
// Expected format:
//
//	series_id,hour,value
//	heat_demand,0,850.5
type LongParser struct{}

func (p *LongParser) Parse(r io.Reader) ([]model.Sample, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading series: %w", err)
	}
	header, err := readHeader(data)
	if err != nil {
		return nil, err
	}
	for _, col := range []string{"series_id", "hour", "value"} {
		if !containsColumn(header, col) {
			return nil, fmt.Errorf("expected a %q column, got %v", col, header)
		}
	}

	var rows []*longRow
	if err := gocsv.UnmarshalBytes(data, &rows); err != nil {
		return nil, fmt.Errorf("decoding series: %w", err)
	}

	var samples []model.Sample
	for _, row := range rows {
		smp, err := parseLongRow(row)
		if err != nil {
			continue
		}
		samples = append(samples, smp)
	}
	return samples, nil
}

func parseLongRow(row *longRow) (model.Sample, error) {
	id := strings.TrimSpace(row.SeriesID)
	st, ok := SeriesTypeOf(id)
	if !ok {
		return model.Sample{}, fmt.Errorf("unknown series %q", id)
	}
	hour, err := strconv.Atoi(strings.TrimSpace(row.Hour))
	if err != nil || hour < 0 {
		return model.Sample{}, fmt.Errorf("series %s: bad hour %q", id, row.Hour)
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(row.Value), 64)
	if err != nil {
		return model.Sample{}, fmt.Errorf("series %s hour %d: parsing value %q: %w", id, hour, row.Value, err)
	}
	return model.Sample{
		Hour:     hour,
		SeriesID: id,
		Type:     st,
		Value:    v,
		Unit:     model.SeriesCatalog[st].Unit,
	}, nil
}

// SeriesTypeOf resolves the series type from an ID prefix.
func SeriesTypeOf(id string) (model.SeriesType, bool) {
	var best model.SeriesType
	for _, st := range model.SeriesTypes {
		if strings.HasPrefix(id, string(st)) && len(st) > len(best) {
			best = st
		}
	}
	return best, best != ""
}
