package storage

import "fmt"

// Stratified is a multi-layer storage with boundary losses per layer, conduction between
// neighbouring layers, and charge and discharge applied from the top layer down.
type Stratified struct {
	layered
}

// NewStratified validates p and builds a stratified storage with p.NumLayers layers.
func NewStratified(p Params) (*Stratified, error) {
	l, err := newLayered(p)
	if err != nil {
		return nil, fmt.Errorf("stratified storage: %w", err)
	}
	return &Stratified{layered: l}, nil
}

// Step advances hour t. Hour 0 records the initial state and ignores the inputs.
func (s *Stratified) Step(t int, in StepInput) (StepResult, error) {
	if err := s.begin(t); err != nil {
		return StepResult{}, err
	}
	s.QIn[t], s.QOut[t] = in.QIn, in.QOut

	if t == 0 {
		s.record(0, 0)
		s.next = 1
		return s.layerResult(0), nil
	}

	loss := s.applyLoss(t)
	s.conduct()

	var excess, unmet float64
	net := (in.QIn - in.QOut) * stepHours
	if net > 0 {
		excess = s.charge(net)
	} else if net < 0 {
		unmet = s.discharge(-net)
	}

	s.clipLayers()
	s.record(t, loss)
	s.next = t + 1

	res := s.layerResult(t)
	s.account(&res, excess, unmet)
	return res, nil
}

// charge fills layers up to TMax from the top and returns the energy that did not fit.
func (s *Stratified) charge(q float64) float64 {
	for i := range s.temps {
		if q <= 0 {
			break
		}
		room := s.capacities[i] * (s.params.TMax - s.temps[i])
		if room <= 0 {
			continue
		}
		take := min(q, room)
		s.temps[i] += take / s.capacities[i]
		q -= take
	}
	return max(q, 0)
}

// discharge draws layers down to TMin from the top and returns the energy that was missing.
func (s *Stratified) discharge(q float64) float64 {
	for i := range s.temps {
		if q <= 0 {
			break
		}
		avail := s.capacities[i] * (s.temps[i] - s.params.TMin)
		if avail <= 0 {
			continue
		}
		take := min(q, avail)
		s.temps[i] -= take / s.capacities[i]
		q -= take
	}
	return max(q, 0)
}

// Simulate runs the whole horizon in one call.
func (s *Stratified) Simulate(qIn, qOut []float64) error {
	if err := checkLengths(s.params.Hours, qIn, qOut); err != nil {
		return err
	}
	for t := range qIn {
		if _, err := s.Step(t, StepInput{QIn: qIn[t], QOut: qOut[t]}); err != nil {
			return err
		}
	}
	return nil
}

// Snapshot captures the full state.
func (s *Stratified) Snapshot() Snapshot {
	return s.layeredSnapshot(KindStratified)
}
