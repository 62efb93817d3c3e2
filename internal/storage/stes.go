package storage

import "fmt"

// STES is the stratified storage driven by mass flows: the generator loop enters at the top
// with its supply temperature and leaves at the bottom, the consumer loop returns at the
// bottom and draws from the top.
type STES struct {
	layered

	masses []float64 // kg per layer

	MassFlowIn         []float64 // kg/s, generator loop
	MassFlowOut        []float64 // kg/s, consumer loop
	QNetStorageFlow    []float64 // kW, QOut − QIn
	TReturnToGenerator []float64 // °C, bottom layer
	TFlowToConsumer    []float64 // °C, top layer
}

// NewSTES validates p and prepares all geometric and capacity constants.
func NewSTES(p Params) (*STES, error) {
	l, err := newLayered(p)
	if err != nil {
		return nil, fmt.Errorf("stes: %w", err)
	}
	if l.params.DTSupply < 0 {
		return nil, fmt.Errorf("stes: %w: dt_supply must not be negative", ErrInvalidParams)
	}
	hours := l.params.Hours
	s := &STES{
		layered:            l,
		masses:             make([]float64, l.params.NumLayers),
		MassFlowIn:         make([]float64, hours),
		MassFlowOut:        make([]float64, hours),
		QNetStorageFlow:    make([]float64, hours),
		TReturnToGenerator: make([]float64, hours),
		TFlowToConsumer:    make([]float64, hours),
	}
	for i, v := range l.layers.Volumes {
		s.masses[i] = v * l.params.Rho
	}
	return s, nil
}

// Step advances hour t. Unlike the other models, hour 0 is a full step from the initial
// temperatures.
func (s *STES) Step(t int, in StepInput) (StepResult, error) {
	if err := s.begin(t); err != nil {
		return StepResult{}, err
	}
	s.QIn[t], s.QOut[t] = in.QIn, in.QOut

	loss := s.applyLoss(t)
	s.conduct()

	var excess, unmet float64
	var flowIn, flowOut float64
	last := len(s.temps) - 1

	if in.QIn > 0 {
		bottom := s.temps[last]
		if bottom < s.params.TMaxReturn && in.TSupply-bottom > tempEpsilon {
			flowIn = s.massFlow(in.QIn, in.TSupply-bottom)
			s.mixDown(flowIn*3600*stepHours, in.TSupply)
		} else {
			excess = in.QIn * stepHours
		}
	}

	if in.QOut > 0 {
		top := s.temps[0]
		if top > in.TSupply-s.params.DTSupply && top-in.TReturn > tempEpsilon {
			flowOut = s.massFlow(in.QOut, top-in.TReturn)
			s.mixUp(flowOut*3600*stepHours, in.TReturn)
		} else {
			unmet = in.QOut * stepHours
		}
	}

	s.clipLayers()
	s.record(t, loss)
	s.MassFlowIn[t] = flowIn
	s.MassFlowOut[t] = flowOut
	s.QNetStorageFlow[t] = in.QOut - in.QIn
	s.TReturnToGenerator[t] = s.temps[last]
	s.TFlowToConsumer[t] = s.temps[0]
	s.next = t + 1

	res := s.layerResult(t)
	res.MassFlowIn = flowIn
	res.MassFlowOut = flowOut
	if excess > 0 {
		// A blocked generator loop is stagnation even for tiny inputs.
		s.totals.ExcessHeatKWh += excess
		s.totals.StagnationHours++
		res.ExcessKWh = excess
		res.Stagnated = true
	}
	s.account(&res, 0, unmet)
	return res, nil
}

// massFlow returns the mass flow in kg/s that carries q kW at temperature spread dT.
func (s *STES) massFlow(q, dT float64) float64 {
	return q * 1000 / (s.params.Cp * dT)
}

// mixDown passes mass m (kg) at temperature flow through the layers from top to bottom.
func (s *STES) mixDown(m, flow float64) {
	for i := range s.temps {
		s.temps[i] = (m*flow + s.masses[i]*s.temps[i]) / (m + s.masses[i])
		flow = s.temps[i]
	}
}

// mixUp passes mass m (kg) at temperature flow through the layers from bottom to top.
func (s *STES) mixUp(m, flow float64) {
	for i := len(s.temps) - 1; i >= 0; i-- {
		s.temps[i] = (m*flow + s.masses[i]*s.temps[i]) / (m + s.masses[i])
		flow = s.temps[i]
	}
}

// Simulate runs the whole horizon in one call.
func (s *STES) Simulate(qIn, qOut, tSupply, tReturn []float64) error {
	if err := checkLengths(s.params.Hours, qIn, qOut, tSupply, tReturn); err != nil {
		return err
	}
	for t := range qIn {
		in := StepInput{QIn: qIn[t], QOut: qOut[t], TSupply: tSupply[t], TReturn: tReturn[t]}
		if _, err := s.Step(t, in); err != nil {
			return err
		}
	}
	return nil
}

// ChargeState describes how much usable heat is left in the storage.
type ChargeState struct {
	Fraction     float64 `json:"fraction"`
	AvailableKWh float64 `json:"available_kwh"`
	MaxKWh       float64 `json:"max_kwh"`
}

// ChargeState returns the charge after hour t relative to the band between the consumer
// return and supply temperatures.
func (s *STES) ChargeState(t int, tReturn, tSupply float64) ChargeState {
	temps := s.layerTemps(t)
	var cs ChargeState
	var total float64
	for i, c := range s.capacities {
		cs.AvailableKWh += c * max(temps[i]-tReturn, 0)
		total += c
	}
	cs.MaxKWh = total * (tSupply - tReturn)
	if cs.MaxKWh <= 0 {
		cs.MaxKWh = 0
		return cs
	}
	cs.Fraction = clamp(cs.AvailableKWh/cs.MaxKWh, 0, 1)
	return cs
}

// Temperatures returns the top and bottom layer temperatures after hour t.
func (s *STES) Temperatures(t int) (top, bottom float64) {
	temps := s.layerTemps(t)
	return temps[0], temps[len(temps)-1]
}

// Snapshot captures the full state.
func (s *STES) Snapshot() Snapshot {
	snap := s.layeredSnapshot(KindSTES)
	snap.MassFlowIn = append([]float64(nil), s.MassFlowIn...)
	snap.MassFlowOut = append([]float64(nil), s.MassFlowOut...)
	snap.QNetStorageFlow = append([]float64(nil), s.QNetStorageFlow...)
	snap.TReturnToGenerator = append([]float64(nil), s.TReturnToGenerator...)
	snap.TFlowToConsumer = append([]float64(nil), s.TFlowToConsumer...)
	return snap
}
