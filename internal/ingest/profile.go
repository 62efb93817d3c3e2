package ingest

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/gocarina/gocsv"

	"stes_simulator/internal/model"
)

// profileRow is one line of a wide hourly profile. Fields stay strings so that empty and
// broken cells can be told apart.
type profileRow struct {
	Hour        string `csv:"hour"`
	HeatDemand  string `csv:"heat_demand_kw"`
	SupplyTemp  string `csv:"supply_temp_c"`
	ReturnTemp  string `csv:"return_temp_c"`
	RiverTemp   string `csv:"river_temp_c"`
	AmbientTemp string `csv:"ambient_temp_c"`
	SoilTemp    string `csv:"soil_temp_c"`
	HeatInput   string `csv:"heat_input_kw"`
}

func (r *profileRow) cells() []struct {
	t model.SeriesType
	v string
} {
	return []struct {
		t model.SeriesType
		v string
	}{
		{model.SeriesHeatDemand, r.HeatDemand},
		{model.SeriesSupplyTemp, r.SupplyTemp},
		{model.SeriesReturnTemp, r.ReturnTemp},
		{model.SeriesRiverTemp, r.RiverTemp},
		{model.SeriesAmbientTemp, r.AmbientTemp},
		{model.SeriesSoilTemp, r.SoilTemp},
		{model.SeriesHeatInput, r.HeatInput},
	}
}

// ProfileParser parses wide hourly profile CSV files.
//
// Expected format (any subset of the value columns):
//
//	hour,heat_demand_kw,supply_temp_c,return_temp_c,river_temp_c,ambient_temp_c,soil_temp_c,heat_input_kw
//	0,850.5,85,50,6.2,-1.5,8.0,
type ProfileParser struct{}

func (p *ProfileParser) Parse(r io.Reader) ([]model.Sample, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading profile: %w", err)
	}
	header, err := readHeader(data)
	if err != nil {
		return nil, err
	}
	if !containsColumn(header, "hour") {
		return nil, fmt.Errorf("expected a %q column, got %v", "hour", header)
	}

	var rows []*profileRow
	if err := gocsv.UnmarshalBytes(data, &rows); err != nil {
		return nil, fmt.Errorf("decoding profile: %w", err)
	}

	var samples []model.Sample
	for _, row := range rows {
		parsed, err := parseProfileRow(row)
		if err != nil {
			// Skip rows with broken numbers
			continue
		}
		samples = append(samples, parsed...)
	}
	return samples, nil
}

func parseProfileRow(row *profileRow) ([]model.Sample, error) {
	hour, err := strconv.Atoi(strings.TrimSpace(row.Hour))
	if err != nil {
		return nil, fmt.Errorf("parsing hour %q: %w", row.Hour, err)
	}
	if hour < 0 {
		return nil, fmt.Errorf("negative hour %d", hour)
	}

	var samples []model.Sample
	for _, c := range row.cells() {
		raw := strings.TrimSpace(c.v)
		if raw == "" {
			continue
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, fmt.Errorf("hour %d: parsing %s %q: %w", hour, c.t, raw, err)
		}
		samples = append(samples, model.Sample{
			Hour:     hour,
			SeriesID: string(c.t),
			Type:     c.t,
			Value:    v,
			Unit:     model.SeriesCatalog[c.t].Unit,
		})
	}
	return samples, nil
}

func readHeader(data []byte) ([]string, error) {
	line, err := bufio.NewReader(bytes.NewReader(data)).ReadString('\n')
	if err != nil && err != io.EOF {
		return nil, fmt.Errorf("reading CSV header: %w", err)
	}
	header, err := csv.NewReader(strings.NewReader(line)).Read()
	if err != nil {
		return nil, fmt.Errorf("reading CSV header: %w", err)
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}
	return header, nil
}

func containsColumn(header []string, col string) bool {
	for _, h := range header {
		if h == col {
			return true
		}
	}
	return false
}
