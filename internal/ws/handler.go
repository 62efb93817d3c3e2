package ws

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"stes_simulator/internal/heatpump"
	"stes_simulator/internal/model"
	"stes_simulator/internal/simulator"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Handler manages WebSocket connections and routes messages to the engine.
type Handler struct {
	hub    *Hub
	engine *simulator.Engine
	series []model.Series
}

// NewHandler serves engine; series are announced to clients as the loaded input data.
func NewHandler(hub *Hub, engine *simulator.Engine, series []model.Series) *Handler {
	return &Handler{hub: hub, engine: engine, series: series}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("websocket upgrade")
		return
	}

	client := &Client{
		hub:  h.hub,
		conn: conn,
		send: make(chan []byte, 256),
	}

	h.hub.Register(client)
	go client.writePump()

	h.send(client, TypeDataLoaded, h.dataLoaded())
	h.send(client, TypeSimState, SimStateFromEngine(h.engine.State()))
	h.send(client, TypeSummaryUpdate, SummaryFromEngine(h.engine.Summary()))

	h.readPump(client)
}

func (h *Handler) readPump(c *Client) {
	defer func() {
		h.hub.Unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, msg, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Warn().Err(err).Msg("websocket read")
			}
			return
		}

		h.handleMessage(msg)
	}
}

func (h *Handler) handleMessage(msg []byte) {
	var env Envelope
	if err := json.Unmarshal(msg, &env); err != nil {
		log.Warn().Err(err).Msg("invalid message")
		return
	}

	switch env.Type {
	case TypeSimStart:
		h.engine.Start()

	case TypeSimPause:
		h.engine.Pause()

	case TypeSimSetSpeed:
		var p SetSpeedPayload
		if !decode(env, &p) {
			return
		}
		h.engine.SetSpeed(p.Speed)

	case TypeSimSeek:
		var p SeekPayload
		if !decode(env, &p) {
			return
		}
		if err := h.engine.Seek(p.Hour); err != nil {
			log.Error().Err(err).Int("hour", p.Hour).Msg("seek failed")
		}

	case TypeStrategyConfig:
		var p StrategyConfigPayload
		if !decode(env, &p) {
			return
		}
		if p.ChargeOff < p.ChargeOn {
			log.Warn().Float64("charge_on", p.ChargeOn).Float64("charge_off", p.ChargeOff).Msg("charge_off below charge_on, ignored")
			return
		}
		h.engine.SetStrategy(heatpump.Strategy{ChargeOn: p.ChargeOn, ChargeOff: p.ChargeOff})
		if p.Restart {
			if err := h.engine.Seek(0); err != nil {
				log.Error().Err(err).Msg("restart failed")
			}
		}

	default:
		log.Warn().Str("type", env.Type).Msg("unknown message type")
	}
}

func decode(env Envelope, v any) bool {
	if err := json.Unmarshal(env.Payload, v); err != nil {
		log.Warn().Err(err).Str("type", env.Type).Msg("invalid payload")
		return false
	}
	return true
}

func (h *Handler) dataLoaded() DataLoadedPayload {
	series := make([]SeriesInfo, 0, len(h.series))
	for _, s := range h.series {
		series = append(series, SeriesInfo{
			ID:   s.ID,
			Name: s.Name,
			Type: string(s.Type),
			Unit: s.Unit,
		})
	}
	return DataLoadedPayload{Series: series, Hours: h.engine.State().Hours}
}

func (h *Handler) send(c *Client, msgType string, payload any) {
	msg, err := NewEnvelope(msgType, payload)
	if err != nil {
		log.Error().Err(err).Str("type", msgType).Msg("marshal message")
		return
	}
	select {
	case c.send <- msg:
	default:
	}
}
