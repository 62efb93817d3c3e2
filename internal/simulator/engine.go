package simulator

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"stes_simulator/internal/heatpump"
)

// State represents the current simulation state.
type State struct {
	RunID   string  `json:"run_id"`
	Hour    int     `json:"hour"`  // next hour to simulate
	Hours   int     `json:"hours"` // horizon
	Speed   float64 `json:"speed"` // simulated hours per second
	Running bool    `json:"running"`
}

// Summary holds running plant totals.
type Summary struct {
	RunID string `json:"run_id"`
	Hours int    `json:"hours"`

	DemandKWh              float64 `json:"demand_kwh"`
	HeatPumpHeatKWh        float64 `json:"heat_pump_heat_kwh"`
	HeatPumpElectricityKWh float64 `json:"heat_pump_electricity_kwh"`
	SCOP                   float64 `json:"scop"`
	HeatPumpStarts         int     `json:"heat_pump_starts"`
	OperatingHours         float64 `json:"operating_hours"`

	LossKWh           float64 `json:"loss_kwh"`
	ExcessHeatKWh     float64 `json:"excess_heat_kwh"`
	UnmetDemandKWh    float64 `json:"unmet_demand_kwh"`
	StagnationHours   int     `json:"stagnation_hours"`
	ChargeFraction    float64 `json:"charge_fraction"`
	StorageEfficiency float64 `json:"storage_efficiency"`
}

// Coverage returns the share of the demand that was delivered, in percent.
func (s *Summary) Coverage() float64 {
	if s.DemandKWh <= 0 {
		return 100
	}
	return max(0, (s.DemandKWh-s.UnmetDemandKWh)/s.DemandKWh*100)
}

// Callback receives simulation events.
type Callback interface {
	OnState(state State)
	OnStep(update StepUpdate)
	OnSummary(summary Summary)
}

const (
	minSpeed     = 0.1
	maxSpeed     = 8760
	defaultSpeed = 24
)

// Engine replays a plant hour by hour at configurable speed.
type Engine struct {
	mu       sync.Mutex
	plant    *Plant
	callback Callback

	running bool
	speed   float64
	carry   float64 // fractional hours not yet simulated
	runID   uuid.UUID

	stopCh chan struct{}
}

func New(p *Plant, cb Callback) *Engine {
	return &Engine{
		plant:    p,
		callback: cb,
		speed:    defaultSpeed,
		runID:    uuid.New(),
	}
}

// State returns the current simulation state.
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state()
}

func (e *Engine) state() State {
	return State{
		RunID:   e.runID.String(),
		Hour:    e.plant.Next(),
		Hours:   e.plant.Hours(),
		Speed:   e.speed,
		Running: e.running,
	}
}

// Summary returns the totals of the current run.
func (e *Engine) Summary() Summary {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.summary()
}

func (e *Engine) summary() Summary {
	s := e.plant.Summary()
	s.RunID = e.runID.String()
	return s
}

// Start begins the simulation loop.
func (e *Engine) Start() {
	e.mu.Lock()
	if e.running || e.plant.Done() {
		e.mu.Unlock()
		return
	}
	e.running = true
	e.stopCh = make(chan struct{})
	id := e.runID
	e.mu.Unlock()

	log.Info().Str("run", id.String()).Msg("simulation started")
	e.broadcastState()
	go e.loop()
}

// Pause stops the simulation loop.
func (e *Engine) Pause() {
	e.mu.Lock()
	if !e.running {
		e.mu.Unlock()
		return
	}
	e.running = false
	close(e.stopCh)
	hour := e.plant.Next()
	e.mu.Unlock()

	log.Info().Int("hour", hour).Msg("simulation paused")
	e.broadcastState()
}

// SetSpeed sets the number of simulated hours per second.
func (e *Engine) SetSpeed(speed float64) {
	speed = min(max(speed, minSpeed), maxSpeed)

	e.mu.Lock()
	e.speed = speed
	e.mu.Unlock()

	e.broadcastState()
}

// SetStrategy changes the heat pump thresholds for the remaining hours.
func (e *Engine) SetStrategy(s heatpump.Strategy) {
	e.mu.Lock()
	e.plant.SetStrategy(s)
	e.mu.Unlock()

	log.Info().Float64("charge_on", s.ChargeOn).Float64("charge_off", s.ChargeOff).Msg("strategy changed")
}

// Seek rewinds the plant and silently simulates up to hour. The run gets a new ID.
func (e *Engine) Seek(hour int) error {
	e.mu.Lock()
	hour = min(max(hour, 0), e.plant.Hours())
	if err := e.plant.Reset(); err != nil {
		e.mu.Unlock()
		return err
	}
	for e.plant.Next() < hour {
		if _, err := e.plant.Step(); err != nil {
			e.mu.Unlock()
			return err
		}
	}
	e.carry = 0
	e.runID = uuid.New()
	e.mu.Unlock()

	log.Info().Int("hour", hour).Msg("simulation seek")
	e.broadcastState()
	e.broadcastSummary()
	return nil
}

// Step advances the simulation by n hours and emits every hour. Useful for deterministic
// testing. Does not require Start().
func (e *Engine) Step(n int) {
	e.advance(n)
}

const tickInterval = 100 * time.Millisecond

func (e *Engine) loop() {
	ticker := time.NewTicker(tickInterval)
	defer ticker.Stop()

	e.mu.Lock()
	stopCh := e.stopCh
	e.mu.Unlock()

	for {
		select {
		case <-stopCh:
			return
		case <-ticker.C:
			if e.tick() {
				return
			}
		}
	}
}

// tick advances one frame. Returns true if the simulation reached the end.
func (e *Engine) tick() bool {
	e.mu.Lock()
	e.carry += e.speed * tickInterval.Seconds()
	n := int(e.carry)
	e.carry -= float64(n)
	e.mu.Unlock()

	if n == 0 {
		return false
	}
	return e.advance(n)
}

// advance simulates up to n hours and reports whether the horizon is exhausted.
func (e *Engine) advance(n int) bool {
	e.mu.Lock()
	updates := make([]StepUpdate, 0, n)
	var stepErr error
	for i := 0; i < n && !e.plant.Done(); i++ {
		u, err := e.plant.Step()
		if err != nil {
			stepErr = err
			break
		}
		updates = append(updates, u)
	}
	ended := e.plant.Done() || stepErr != nil
	e.mu.Unlock()

	if stepErr != nil {
		log.Error().Err(stepErr).Msg("simulation step failed")
	}
	for _, u := range updates {
		e.callback.OnStep(u)
	}
	e.broadcastState()
	e.broadcastSummary()

	if ended {
		e.mu.Lock()
		wasRunning := e.running
		if e.running {
			e.running = false
			close(e.stopCh)
		}
		e.mu.Unlock()
		if wasRunning {
			log.Info().Msg("simulation finished")
			e.broadcastState()
		}
	}
	return ended
}

func (e *Engine) broadcastState() {
	e.mu.Lock()
	s := e.state()
	e.mu.Unlock()
	e.callback.OnState(s)
}

func (e *Engine) broadcastSummary() {
	e.mu.Lock()
	s := e.summary()
	e.mu.Unlock()
	e.callback.OnSummary(s)
}

// Callbacks fans events out to several callbacks in order.
type Callbacks []Callback

func (cs Callbacks) OnState(s State) {
	for _, c := range cs {
		c.OnState(s)
	}
}

func (cs Callbacks) OnStep(u StepUpdate) {
	for _, c := range cs {
		c.OnStep(u)
	}
}

func (cs Callbacks) OnSummary(s Summary) {
	for _, c := range cs {
		c.OnSummary(s)
	}
}
