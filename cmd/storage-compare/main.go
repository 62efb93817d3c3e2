package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"runtime"
	"sort"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"
	flag "github.com/spf13/pflag"

	"stes_simulator/internal/config"
	"stes_simulator/internal/logging"
	"stes_simulator/internal/simulator"
	"stes_simulator/internal/sweep"
)

func main() {
	scenarioPath := flag.String("config", "", "scenario YAML file (built-in default scenario if empty)")
	scalesFlag := flag.String("scales", "0.25,0.5,1,2,4", "comma-separated storage volume factors")
	capsFlag := flag.String("capacities", "", "comma-separated heat pump capacities in kW (scenario capacity if empty)")
	jobs := flag.Int("jobs", runtime.NumCPU(), "candidates simulated in parallel")
	logLevel := flag.String("log-level", "info", "log level (debug, info, warn, error)")
	pretty := flag.Bool("pretty", true, "human readable console logs")
	flag.Parse()

	if err := logging.Setup(*logLevel, *pretty); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	scales, err := parseList(*scalesFlag)
	if err != nil {
		log.Fatal().Err(err).Str("scales", *scalesFlag).Msg("invalid scales")
	}
	sort.Float64s(scales)

	sc := config.Default()
	if *scenarioPath != "" {
		if sc, err = config.Load(*scenarioPath); err != nil {
			log.Fatal().Err(err).Msg("failed to load scenario")
		}
	}

	capacities := []float64{sc.HeatPump.CapacityKW}
	if *capsFlag != "" {
		if capacities, err = parseList(*capsFlag); err != nil {
			log.Fatal().Err(err).Str("capacities", *capsFlag).Msg("invalid capacities")
		}
		sort.Float64s(capacities)
	}

	st, hours, err := sc.LoadData()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load data")
	}
	in, err := simulator.InputsFromStore(st, hours)
	if err != nil {
		log.Fatal().Err(err).Msg("incomplete input data")
	}
	table, err := sc.LoadCOPTable()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load COP table")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	candidates := sweep.Grid(scales, capacities)
	log.Info().Int("candidates", len(candidates)).Int("hours", hours).Int("jobs", *jobs).Msg("running sweep")
	results, err := sweep.Run(ctx, sc.PlantConfig(), in, table, candidates, *jobs)
	if err != nil {
		log.Fatal().Err(err).Msg("sweep failed")
	}

	printTable(os.Stdout, sc, hours, results)
}

func printTable(w io.Writer, sc config.Scenario, hours int, results []sweep.Result) {
	if len(results) == 0 {
		return
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Storage Size Comparison")
	fmt.Fprintf(w, "  Scenario: %s, %s, %d h\n", sc.Name, sc.Storage.Type, hours)
	fmt.Fprintf(w, "  Strategy: charge on %.1f °C, charge off %.1f °C\n", sc.Strategy.ChargeOn, sc.Strategy.ChargeOff)
	fmt.Fprintln(w)

	fmt.Fprintf(w, " %9s │ %8s │ %9s │ %8s │ %8s │ %7s │ %6s │ %6s │ %8s │ %9s\n",
		"Volume", "HP", "HP Heat", "Unmet", "Coverage", "Losses", "Eff.", "SCOP", "Marginal", "WGK")
	fmt.Fprintf(w, "───────────┼──────────┼───────────┼──────────┼──────────┼─────────┼────────┼────────┼──────────┼──────────\n")

	for i, r := range results {
		s := r.Summary

		// Unmet demand saved per additional 1000 m³ against the previous row of the same capacity.
		marginal := "-"
		if i > 0 {
			prev := results[i-1]
			dVol := r.VolumeM3 - prev.VolumeM3
			if prev.Candidate.CapacityKW == r.Candidate.CapacityKW && dVol > 0 {
				m := (prev.Summary.UnmetDemandKWh - s.UnmetDemandKWh) / 1000 / (dVol / 1000)
				marginal = fmt.Sprintf("%.1f", m)
			}
		}

		wgk := "-"
		if r.HeatPump.WGKApplicable {
			wgk = r.HeatPump.WGK.StringFixed(1)
		}

		fmt.Fprintf(w, " %6.0f m³ │ %5.0f kW │ %5.0f MWh │ %4.0f MWh │ %7.1f%% │ %3.0f MWh │ %5.1f%% │ %6.2f │ %8s │ %9s\n",
			r.VolumeM3,
			r.Candidate.CapacityKW,
			s.HeatPumpHeatKWh/1000,
			s.UnmetDemandKWh/1000,
			s.Coverage(),
			s.LossKWh/1000,
			s.StorageEfficiency*100,
			s.SCOP,
			marginal,
			wgk,
		)
	}
	fmt.Fprintln(w)
}

func parseList(s string) ([]float64, error) {
	parts := strings.Split(s, ",")
	out := make([]float64, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		v, err := strconv.ParseFloat(p, 64)
		if err != nil {
			return nil, fmt.Errorf("parsing %q: %w", p, err)
		}
		if v <= 0 {
			return nil, fmt.Errorf("value must be positive, got %v", v)
		}
		out = append(out, v)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no values specified")
	}
	return out, nil
}
