package ingest

import (
	"io"

	"stes_simulator/internal/model"
)

// Parser reads hourly series from a source and returns samples.
type Parser interface {
	Parse(r io.Reader) ([]model.Sample, error)
}
