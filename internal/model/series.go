package model

type SeriesType string

const (
	SeriesHeatDemand  SeriesType = "heat_demand"
	SeriesSupplyTemp  SeriesType = "supply_temp"
	SeriesReturnTemp  SeriesType = "return_temp"
	SeriesRiverTemp   SeriesType = "river_temp"
	SeriesAmbientTemp SeriesType = "ambient_temp"
	SeriesSoilTemp    SeriesType = "soil_temp"
	SeriesHeatInput   SeriesType = "heat_input"
)

// SeriesInfo holds display name and unit for a series type.
type SeriesInfo struct {
	Name string
	Unit string
}

// SeriesCatalog maps every known SeriesType to its display name and unit.
var SeriesCatalog = map[SeriesType]SeriesInfo{
	SeriesHeatDemand:  {Name: "Heat Demand", Unit: "kW"},
	SeriesSupplyTemp:  {Name: "Supply Temperature", Unit: "°C"},
	SeriesReturnTemp:  {Name: "Return Temperature", Unit: "°C"},
	SeriesRiverTemp:   {Name: "River Temperature", Unit: "°C"},
	SeriesAmbientTemp: {Name: "Ambient Temperature", Unit: "°C"},
	SeriesSoilTemp:    {Name: "Soil Temperature", Unit: "°C"},
	SeriesHeatInput:   {Name: "Heat Input", Unit: "kW"},
}

// SeriesTypes lists the catalog in a stable order.
var SeriesTypes = []SeriesType{
	SeriesHeatDemand,
	SeriesSupplyTemp,
	SeriesReturnTemp,
	SeriesRiverTemp,
	SeriesAmbientTemp,
	SeriesSoilTemp,
	SeriesHeatInput,
}

// Sample is one hourly value. Hour counts from the start of the simulated year.
type Sample struct {
	Hour     int
	SeriesID string
	Type     SeriesType
	Value    float64
	Unit     string
}

type Series struct {
	ID   string
	Name string
	Type SeriesType
	Unit string
}

// NewSeries returns the catalog series for t, using the type as ID.
func NewSeries(t SeriesType) Series {
	info := SeriesCatalog[t]
	return Series{ID: string(t), Name: info.Name, Type: t, Unit: info.Unit}
}

// HourRange is inclusive on both ends.
type HourRange struct {
	Start int
	End   int
}

// Len returns the number of hours covered.
func (r HourRange) Len() int {
	if r.End < r.Start {
		return 0
	}
	return r.End - r.Start + 1
}
