// Package sweep evaluates storage and heat pump sizes on independent plants.
package sweep

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"stes_simulator/internal/heatpump"
	"stes_simulator/internal/simulator"
	"stes_simulator/internal/storage"
)

var ErrNoCandidates = errors.New("no sweep candidates")

// Candidate is one sizing variant. StorageScale multiplies the storage volume and keeps the
// shape; CapacityKW replaces the heat pump capacity when positive.
type Candidate struct {
	StorageScale float64 `json:"storage_scale"`
	CapacityKW   float64 `json:"capacity_kw"`
}

// Result is the outcome of one candidate.
type Result struct {
	ID        uuid.UUID         `json:"id"`
	Candidate Candidate         `json:"candidate"`
	VolumeM3  float64           `json:"volume_m3"`
	Summary   simulator.Summary `json:"summary"`
	HeatPump  heatpump.Result   `json:"heat_pump"`
}

// Grid returns every combination of scales and capacities, scales outermost.
func Grid(scales, capacities []float64) []Candidate {
	out := make([]Candidate, 0, len(scales)*len(capacities))
	for _, s := range scales {
		for _, c := range capacities {
			out = append(out, Candidate{StorageScale: s, CapacityKW: c})
		}
	}
	return out
}

// Apply returns base sized for c.
func (c Candidate) Apply(base simulator.PlantConfig) (simulator.PlantConfig, error) {
	cfg := base
	if c.StorageScale < 0 {
		return cfg, fmt.Errorf("storage scale %.3f must not be negative", c.StorageScale)
	}
	if c.StorageScale > 0 && c.StorageScale != 1 {
		f := math.Cbrt(c.StorageScale)
		dims := make([]float64, len(base.Storage.Dimensions))
		for i, d := range base.Storage.Dimensions {
			dims[i] = d * f
		}
		cfg.Storage.Dimensions = dims
	}
	if c.CapacityKW > 0 {
		cfg.HeatPump.CapacityKW = c.CapacityKW
	}
	return cfg, nil
}

// Run simulates every candidate on its own plant, at most limit at a time (limit <= 0 means
// unbounded). Results keep the candidate order. The first failure cancels the rest.
func Run(ctx context.Context, base simulator.PlantConfig, in simulator.Inputs, table *heatpump.COPTable, candidates []Candidate, limit int) ([]Result, error) {
	if len(candidates) == 0 {
		return nil, ErrNoCandidates
	}

	results := make([]Result, len(candidates))
	g, ctx := errgroup.WithContext(ctx)
	if limit > 0 {
		g.SetLimit(limit)
	}

	for i, c := range candidates {
		i, c := i, c
		g.Go(func() error {
			res, err := evaluate(ctx, base, in, table, c)
			if err != nil {
				return fmt.Errorf("candidate %d (scale %.2f, %.0f kW): %w", i, c.StorageScale, c.CapacityKW, err)
			}
			results[i] = res
			log.Debug().
				Int("candidate", i).
				Float64("scale", c.StorageScale).
				Float64("capacity_kw", c.CapacityKW).
				Float64("coverage_pct", res.Summary.Coverage()).
				Msg("sweep candidate done")
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func evaluate(ctx context.Context, base simulator.PlantConfig, in simulator.Inputs, table *heatpump.COPTable, c Candidate) (Result, error) {
	cfg, err := c.Apply(base)
	if err != nil {
		return Result{}, err
	}
	geom, err := storage.NewGeometry(cfg.Storage.Type, cfg.Storage.Dimensions)
	if err != nil {
		return Result{}, err
	}
	plant, err := simulator.NewPlant(cfg, in, table)
	if err != nil {
		return Result{}, err
	}
	if _, err := plant.Run(ctx); err != nil {
		return Result{}, err
	}

	id := uuid.New()
	sum := plant.Summary()
	sum.RunID = id.String()
	return Result{
		ID:        id,
		Candidate: c,
		VolumeM3:  geom.Volume,
		Summary:   sum,
		HeatPump:  plant.Result(),
	}, nil
}
