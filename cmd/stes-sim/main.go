package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/rs/zerolog/log"
	flag "github.com/spf13/pflag"

	"stes_simulator/internal/config"
	"stes_simulator/internal/heatpump"
	"stes_simulator/internal/ingest"
	"stes_simulator/internal/logging"
	"stes_simulator/internal/simulator"
)

func main() {
	scenarioPath := flag.String("config", "", "scenario YAML file (built-in default scenario if empty)")
	output := flag.String("output", "", "hourly result CSV file (none if empty)")
	logLevel := flag.String("log-level", "info", "log level (debug, info, warn, error)")
	pretty := flag.Bool("pretty", true, "human readable console logs")
	flag.Parse()

	if err := logging.Setup(*logLevel, *pretty); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	sc := config.Default()
	if *scenarioPath != "" {
		var err error
		if sc, err = config.Load(*scenarioPath); err != nil {
			log.Fatal().Err(err).Msg("failed to load scenario")
		}
	}

	plant, _, err := sc.Build()
	if err != nil {
		log.Fatal().Err(err).Str("scenario", sc.Name).Msg("failed to build plant")
	}
	log.Info().Str("scenario", sc.Name).Int("hours", plant.Hours()).Float64("volume_m3", plant.Storage().Geometry().Volume).Msg("running")
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	updates, err := plant.Run(ctx)
	if err != nil {
		log.Fatal().Err(err).Int("hour", plant.Next()).Msg("simulation aborted")
	}

	if *output != "" {
		if err := writeResults(*output, updates); err != nil {
			log.Fatal().Err(err).Msg("failed to write results")
		}
		log.Info().Str("file", *output).Int("rows", len(updates)).Msg("results written")
	}

	printSummary(os.Stdout, sc, plant.Summary(), plant.Result())
}

func writeResults(path string, updates []simulator.StepUpdate) error {
	rows := make([]ingest.ResultRow, len(updates))
	for i, u := range updates {
		rows[i] = u.Row()
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := ingest.WriteResults(f, rows); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func printSummary(w io.Writer, sc config.Scenario, s simulator.Summary, hp heatpump.Result) {
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Scenario %s (%d h)\n", sc.Name, s.Hours)
	fmt.Fprintln(w)

	fmt.Fprintln(w, "  Storage:")
	fmt.Fprintf(w, "    %-22s %10.1f MWh\n", "Losses", s.LossKWh/1000)
	fmt.Fprintf(w, "    %-22s %10.1f %%\n", "Efficiency", s.StorageEfficiency*100)
	fmt.Fprintf(w, "    %-22s %10.1f %%\n", "Final charge", s.ChargeFraction*100)
	fmt.Fprintf(w, "    %-22s %10.1f MWh\n", "Excess heat", s.ExcessHeatKWh/1000)
	fmt.Fprintf(w, "    %-22s %10d h\n", "Stagnation", s.StagnationHours)
	fmt.Fprintln(w)

	fmt.Fprintln(w, "  Demand:")
	fmt.Fprintf(w, "    %-22s %10.1f MWh\n", "Heat demand", s.DemandKWh/1000)
	fmt.Fprintf(w, "    %-22s %10.1f MWh\n", "Unmet", s.UnmetDemandKWh/1000)
	fmt.Fprintf(w, "    %-22s %10.1f %%\n", "Coverage", s.Coverage())
	fmt.Fprintln(w)

	fmt.Fprintf(w, "  %s:\n", hp.Name)
	fmt.Fprintf(w, "    %-22s %10.1f MWh\n", "Heat", hp.HeatMWh)
	fmt.Fprintf(w, "    %-22s %10.1f MWh\n", "Electricity", hp.ElectricityMWh)
	fmt.Fprintf(w, "    %-22s %10.2f\n", "SCOP", hp.SCOP)
	fmt.Fprintf(w, "    %-22s %10d\n", "Starts", hp.Starts)
	fmt.Fprintf(w, "    %-22s %10.0f h\n", "Operating hours", hp.OperatingHours)
	if hp.WGKApplicable {
		fmt.Fprintf(w, "    %-22s %10s €/MWh\n", "Heat generation cost", hp.WGK.StringFixed(2))
	} else {
		fmt.Fprintf(w, "    %-22s %10s\n", "Heat generation cost", "-")
	}
	fmt.Fprintf(w, "    %-22s %10.1f t\n", "CO2", hp.CO2Tonnes)
	fmt.Fprintf(w, "    %-22s %10.1f MWh\n", "Primary energy", hp.PrimaryEnergy)
	fmt.Fprintln(w)
}
