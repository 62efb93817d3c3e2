package ws

import (
	"github.com/rs/zerolog/log"

	"stes_simulator/internal/simulator"
)

// Bridge implements simulator.Callback and broadcasts events to the WebSocket hub.
type Bridge struct {
	hub *Hub
}

func NewBridge(hub *Hub) *Bridge {
	return &Bridge{hub: hub}
}

func (b *Bridge) OnState(s simulator.State) {
	b.broadcast(TypeSimState, SimStateFromEngine(s))
}

func (b *Bridge) OnStep(u simulator.StepUpdate) {
	b.broadcast(TypePlantStep, StepFromEngine(u))
}

func (b *Bridge) OnSummary(s simulator.Summary) {
	b.broadcast(TypeSummaryUpdate, SummaryFromEngine(s))
}

func (b *Bridge) broadcast(msgType string, payload any) {
	msg, err := NewEnvelope(msgType, payload)
	if err != nil {
		log.Error().Err(err).Str("type", msgType).Msg("marshal message")
		return
	}
	b.hub.Broadcast(msg)
}
