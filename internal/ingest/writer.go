package ingest

import (
	"fmt"
	"io"

	"github.com/gocarina/gocsv"
)

// ResultRow is one hour of a plant run as written to CSV.
type ResultRow struct {
	Hour           int     `csv:"hour"`
	HeatDemand     float64 `csv:"heat_demand_kw"`
	HeatPumpHeat   float64 `csv:"heat_pump_heat_kw"`
	HeatPumpEl     float64 `csv:"heat_pump_el_kw"`
	COP            float64 `csv:"cop"`
	HeatPumpOn     bool    `csv:"heat_pump_on"`
	StorageIn      float64 `csv:"storage_in_kw"`
	StorageOut     float64 `csv:"storage_out_kw"`
	StorageLoss    float64 `csv:"storage_loss_kw"`
	StorageEnergy  float64 `csv:"storage_energy_kwh"`
	MeanTemp       float64 `csv:"t_mean_c"`
	TopTemp        float64 `csv:"t_top_c"`
	BottomTemp     float64 `csv:"t_bottom_c"`
	ChargeFraction float64 `csv:"charge_fraction"`
	MassFlowIn     float64 `csv:"mass_flow_in_kg_s"`
	MassFlowOut    float64 `csv:"mass_flow_out_kg_s"`
	Unmet          float64 `csv:"unmet_kwh"`
	Excess         float64 `csv:"excess_kwh"`
	SupplyTemp     float64 `csv:"supply_temp_c"`
	ReturnTemp     float64 `csv:"return_temp_c"`
	Stagnated      bool    `csv:"stagnated"`
}

// WriteResults writes hourly result rows with a header line.
func WriteResults(w io.Writer, rows []ResultRow) error {
	if err := gocsv.Marshal(rows, w); err != nil {
		return fmt.Errorf("writing results: %w", err)
	}
	return nil
}
