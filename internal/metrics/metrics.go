// Package metrics exposes the running plant simulation as Prometheus metrics.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"stes_simulator/internal/simulator"
)

const namespace = "stes"

// Recorder implements simulator.Callback on its own registry.
type Recorder struct {
	registry *prometheus.Registry

	hour    prometheus.Gauge
	speed   prometheus.Gauge
	running prometheus.Gauge

	storageTemp    *prometheus.GaugeVec
	chargeFraction prometheus.Gauge
	storageEnergy  prometheus.Gauge
	heatPumpHeat   prometheus.Gauge
	heatPumpOn     prometheus.Gauge
	cop            prometheus.Gauge

	// Run totals follow the summary so a seek or restart rewinds them with the plant.
	heatPumpEnergy  prometheus.Gauge
	unmetDemand     prometheus.Gauge
	excessHeat      prometheus.Gauge
	stagnationHours prometheus.Gauge
	scop            prometheus.Gauge
	efficiency      prometheus.Gauge
	coverage        prometheus.Gauge
}

func NewRecorder() *Recorder {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)

	gauge := func(name, help string) prometheus.Gauge {
		return f.NewGauge(prometheus.GaugeOpts{Namespace: namespace, Name: name, Help: help})
	}

	return &Recorder{
		registry: reg,
		hour:     gauge("sim_hour", "Next hour to simulate."),
		speed:    gauge("sim_speed_hours_per_second", "Simulated hours per wall-clock second."),
		running:  gauge("sim_running", "1 while the simulation loop runs."),
		storageTemp: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "storage_temperature_celsius",
			Help:      "Storage temperature after the last simulated hour.",
		}, []string{"position"}),
		chargeFraction:  gauge("storage_charge_fraction", "Usable charge between return and supply temperature (0..1)."),
		storageEnergy:   gauge("storage_energy_kwh", "Stored energy above 0 °C."),
		heatPumpHeat:    gauge("heat_pump_heat_kw", "Heat pump output in the last simulated hour."),
		heatPumpOn:      gauge("heat_pump_on", "1 while the heat pump runs."),
		cop:             gauge("heat_pump_cop", "Heat pump COP in the last simulated hour."),
		heatPumpEnergy:  gauge("run_heat_pump_heat_kwh", "Heat delivered by the heat pump in the current run."),
		unmetDemand:     gauge("run_unmet_demand_kwh", "Demand the storage could not deliver in the current run."),
		excessHeat:      gauge("run_excess_heat_kwh", "Heat the storage could not absorb in the current run."),
		stagnationHours: gauge("run_stagnation_hours", "Hours with rejected charging heat in the current run."),
		scop:            gauge("heat_pump_scop", "Seasonal COP of the current run."),
		efficiency:      gauge("storage_efficiency", "Storage efficiency of the current run."),
		coverage:        gauge("demand_coverage_percent", "Share of the demand delivered in the current run."),
	}
}

func (r *Recorder) OnState(s simulator.State) {
	r.hour.Set(float64(s.Hour))
	r.speed.Set(s.Speed)
	r.running.Set(boolToFloat(s.Running))
}

func (r *Recorder) OnStep(u simulator.StepUpdate) {
	r.storageTemp.WithLabelValues("top").Set(u.TopTemp)
	r.storageTemp.WithLabelValues("bottom").Set(u.BottomTemp)
	r.storageTemp.WithLabelValues("mean").Set(u.MeanTemp)
	r.chargeFraction.Set(u.ChargeFraction)
	r.storageEnergy.Set(u.StorageKWh)
	r.heatPumpHeat.Set(u.HeatPumpHeatKW)
	r.heatPumpOn.Set(boolToFloat(u.HeatPumpOn))
	r.cop.Set(u.COP)
}

func (r *Recorder) OnSummary(s simulator.Summary) {
	r.heatPumpEnergy.Set(s.HeatPumpHeatKWh)
	r.unmetDemand.Set(s.UnmetDemandKWh)
	r.excessHeat.Set(s.ExcessHeatKWh)
	r.stagnationHours.Set(float64(s.StagnationHours))
	r.scop.Set(s.SCOP)
	r.efficiency.Set(s.StorageEfficiency)
	r.coverage.Set(s.Coverage())
}

// Registry returns the registry the recorder writes to.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// Handler serves the recorder's metrics.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

func boolToFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
