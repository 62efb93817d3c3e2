package storage

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// SnapshotVersion is bumped whenever a Snapshot field changes meaning.
const SnapshotVersion = 1

var ErrSnapshotVersion = errors.New("unsupported snapshot version")

// Snapshot is a self-contained copy of a storage, used to hand independent instances to
// optimisation workers and to persist runs as JSON.
type Snapshot struct {
	Version   int    `json:"version"`
	Kind      Kind   `json:"kind"`
	Params    Params `json:"params"`
	Simulated int    `json:"simulated"`

	TSto   []float64 `json:"t_sto"`
	QSto   []float64 `json:"q_sto"`
	QLoss  []float64 `json:"q_loss"`
	QIn    []float64 `json:"q_in"`
	QOut   []float64 `json:"q_out"`
	Totals Totals    `json:"totals"`

	Warnings []string `json:"warnings,omitempty"`

	// Layered models.
	LayerTemps  []float64   `json:"layer_temps,omitempty"`
	LayerLoss   []float64   `json:"layer_loss,omitempty"`
	LayerSeries [][]float64 `json:"layer_series,omitempty"` // hours × layers

	// Mass-flow model.
	MassFlowIn         []float64 `json:"mass_flow_in,omitempty"`
	MassFlowOut        []float64 `json:"mass_flow_out,omitempty"`
	QNetStorageFlow    []float64 `json:"q_net_storage_flow,omitempty"`
	TReturnToGenerator []float64 `json:"t_return_to_generator,omitempty"`
	TFlowToConsumer    []float64 `json:"t_flow_to_consumer,omitempty"`
}

func (c *core) snapshot(kind Kind) Snapshot {
	cp := func(s []float64) []float64 { return append([]float64(nil), s...) }
	return Snapshot{
		Version:   SnapshotVersion,
		Kind:      kind,
		Params:    c.params.clone(),
		Simulated: c.next,
		TSto:      cp(c.TSto),
		QSto:      cp(c.QSto),
		QLoss:     cp(c.QLoss),
		QIn:       cp(c.QIn),
		QOut:      cp(c.QOut),
		Totals:    c.totals,
	}
}

func (l *layered) layeredSnapshot(kind Kind) Snapshot {
	s := l.snapshot(kind)
	s.LayerTemps = append([]float64(nil), l.temps...)
	s.LayerLoss = append([]float64(nil), l.QLossLayers...)
	rows, _ := l.TStoLayers.Dims()
	s.LayerSeries = make([][]float64, rows)
	for i := range s.LayerSeries {
		s.LayerSeries[i] = mat.Row(nil, i, l.TStoLayers)
	}
	return s
}

func (c *core) restore(s Snapshot) error {
	hours := c.params.Hours
	if s.Simulated < 0 || s.Simulated > hours {
		return fmt.Errorf("%w: simulated=%d, hours=%d", ErrStepOutOfRange, s.Simulated, hours)
	}
	if err := checkLengths(hours, s.TSto, s.QSto, s.QLoss, s.QIn, s.QOut); err != nil {
		return fmt.Errorf("restore series: %w", err)
	}
	copy(c.TSto, s.TSto)
	copy(c.QSto, s.QSto)
	copy(c.QLoss, s.QLoss)
	copy(c.QIn, s.QIn)
	copy(c.QOut, s.QOut)
	c.totals = s.Totals
	c.next = s.Simulated
	return nil
}

func (l *layered) restore(s Snapshot) error {
	if err := l.core.restore(s); err != nil {
		return err
	}
	n := len(l.temps)
	if len(s.LayerTemps) != n || len(s.LayerLoss) != n || len(s.LayerSeries) != l.params.Hours {
		return fmt.Errorf("restore layers: %w", ErrLengthMismatch)
	}
	copy(l.temps, s.LayerTemps)
	copy(l.QLossLayers, s.LayerLoss)
	for i, row := range s.LayerSeries {
		if len(row) != n {
			return fmt.Errorf("restore layer row %d: %w", i, ErrLengthMismatch)
		}
		l.TStoLayers.SetRow(i, row)
	}
	return nil
}

// Restore builds a new storage from a snapshot. The result shares no memory with s.
func Restore(s Snapshot) (Storage, error) {
	if s.Version != SnapshotVersion {
		return nil, fmt.Errorf("%w: %d", ErrSnapshotVersion, s.Version)
	}
	st, err := New(s.Params, s.Kind)
	if err != nil {
		return nil, err
	}

	switch v := st.(type) {
	case *Lumped:
		if err := v.restore(s); err != nil {
			return nil, err
		}
		v.warnings = append([]string(nil), s.Warnings...)
	case *Stratified:
		if err := v.restore(s); err != nil {
			return nil, err
		}
	case *STES:
		if err := v.restore(s); err != nil {
			return nil, err
		}
		hours := v.params.Hours
		if err := checkLengths(hours, s.MassFlowIn, s.MassFlowOut, s.QNetStorageFlow, s.TReturnToGenerator, s.TFlowToConsumer); err != nil {
			return nil, fmt.Errorf("restore mass flows: %w", err)
		}
		copy(v.MassFlowIn, s.MassFlowIn)
		copy(v.MassFlowOut, s.MassFlowOut)
		copy(v.QNetStorageFlow, s.QNetStorageFlow)
		copy(v.TReturnToGenerator, s.TReturnToGenerator)
		copy(v.TFlowToConsumer, s.TFlowToConsumer)
	}
	return st, nil
}
