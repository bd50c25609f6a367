package api

import (
	"context"
	"encoding/json"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/nerrad567/gray-logic-diagnostics/internal/diagnostics"
	"github.com/nerrad567/gray-logic-diagnostics/internal/infrastructure/config"
	"github.com/nerrad567/gray-logic-diagnostics/internal/infrastructure/logging"
)

// Message types exchanged with WebSocket clients.
const (
	WSTypeSubscribe   = "subscribe"
	WSTypeUnsubscribe = "unsubscribe"
	WSTypePing        = "ping"
	WSTypePong        = "pong"
	WSTypeEvent       = "event"
	WSTypeResponse    = "response"
	WSTypeError       = "error"
)

// Broadcast channels.
const (
	ChannelIssued    = "diagnostics.issued"
	ChannelCompleted = "diagnostics.completed"
)

const (
	wsSendBufferSize  = 256
	hubEventQueueSize = 256
)

// OutcomeEvent is the payload broadcast on ChannelCompleted.
type OutcomeEvent struct {
	diagnostics.Result
	CodeName   string `json:"code_name"`
	Error      string `json:"error,omitempty"`
	DurationMS int64  `json:"duration_ms"`
}

// NewOutcomeEvent converts a Result for the wire.
func NewOutcomeEvent(res diagnostics.Result) OutcomeEvent {
	ev := OutcomeEvent{
		Result:     res,
		CodeName:   res.Code.String(),
		DurationMS: res.Duration.Milliseconds(),
	}
	if res.Err != nil {
		ev.Error = res.Err.Error()
	}
	return ev
}

// WSMessage is the envelope for every frame in either direction.
type WSMessage struct {
	Type      string `json:"type"`
	ID        string `json:"id,omitempty"`
	EventType string `json:"event_type,omitempty"`
	Timestamp string `json:"timestamp,omitempty"`
	Payload   any    `json:"payload,omitempty"`
}

// WSSubscribePayload names the channels of a subscribe or unsubscribe frame.
type WSSubscribePayload struct {
	Channels []string `json:"channels"`
}

// encodeFrame stamps and marshals a frame.
func encodeFrame(msg WSMessage) ([]byte, error) {
	msg.Timestamp = time.Now().UTC().Format(time.RFC3339)
	return json.Marshal(msg)
}

// hubEvent is one frame queued for delivery. A nil target means every
// client subscribed to channel.
type hubEvent struct {
	channel string
	target  *WSClient
	data    []byte
}

// Hub fans dispatcher events out to WebSocket clients. It implements
// diagnostics.Observer.
//
// The client set is owned by the Run goroutine, which is also the only
// writer to client send channels. Register, Unregister and the Observer
// methods hand work to it over channels and never block on a slow client.
type Hub struct {
	timings wsTimings
	logger  *logging.Logger

	register   chan *WSClient
	unregister chan *WSClient
	events     chan hubEvent
	done       chan struct{}

	clients map[*WSClient]struct{}
	count   atomic.Int64
}

var _ diagnostics.Observer = (*Hub)(nil)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	// CORS middleware has already vetted the origin.
	CheckOrigin: func(*http.Request) bool { return true },
}

// NewHub creates a hub. Nothing is delivered until Run is started.
func NewHub(cfg config.WebSocketConfig, logger *logging.Logger) *Hub {
	return &Hub{
		timings:    newWSTimings(cfg),
		logger:     logger,
		register:   make(chan *WSClient),
		unregister: make(chan *WSClient),
		events:     make(chan hubEvent, hubEventQueueSize),
		done:       make(chan struct{}),
		clients:    make(map[*WSClient]struct{}),
	}
}

// Run delivers events until ctx is cancelled, then disconnects every client.
func (h *Hub) Run(ctx context.Context) {
	defer h.shutdown()

	for {
		select {
		case <-ctx.Done():
			return

		case c := <-h.register:
			h.clients[c] = struct{}{}
			h.count.Store(int64(len(h.clients)))
			h.logger.Debug("websocket client connected", "clients", len(h.clients))

		case c := <-h.unregister:
			h.drop(c)

		case ev := <-h.events:
			h.deliver(ev)
		}
	}
}

// deliver writes ev to its recipients. A client whose buffer is full is
// disconnected rather than allowed to stall the hub.
func (h *Hub) deliver(ev hubEvent) {
	if ev.target != nil {
		if _, ok := h.clients[ev.target]; ok {
			h.push(ev.target, ev.data)
		}
		return
	}

	sent := 0
	for c := range h.clients {
		if c.isSubscribed(ev.channel) && h.push(c, ev.data) {
			sent++
		}
	}
	if sent > 0 {
		h.logger.Debug("websocket event sent", "channel", ev.channel, "recipients", sent)
	}
}

func (h *Hub) push(c *WSClient, data []byte) bool {
	select {
	case c.send <- data:
		return true
	default:
		h.logger.Warn("websocket client too slow, disconnecting")
		h.drop(c)
		return false
	}
}

// drop removes c and closes its send channel. It is a no-op for clients
// that are already gone.
func (h *Hub) drop(c *WSClient) {
	if _, ok := h.clients[c]; !ok {
		return
	}
	delete(h.clients, c)
	close(c.send)
	h.count.Store(int64(len(h.clients)))
	h.logger.Debug("websocket client disconnected", "clients", len(h.clients))
}

func (h *Hub) shutdown() {
	close(h.done)
	for c := range h.clients {
		h.drop(c)
		if c.conn != nil {
			c.conn.Close()
		}
	}
}

// Register adds a client. It reports false once the hub has stopped.
func (h *Hub) Register(c *WSClient) bool {
	select {
	case h.register <- c:
		return true
	case <-h.done:
		return false
	}
}

// Unregister removes a client. Unknown clients are ignored.
func (h *Hub) Unregister(c *WSClient) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	return int(h.count.Load())
}

// Broadcast queues payload for every client subscribed to channel.
// Events are dropped when the queue is full or the hub has stopped.
func (h *Hub) Broadcast(channel string, payload any) {
	data, err := encodeFrame(WSMessage{Type: WSTypeEvent, EventType: channel, Payload: payload})
	if err != nil {
		h.logger.Error("encoding websocket event", "channel", channel, "error", err)
		return
	}
	h.enqueue(hubEvent{channel: channel, data: data})
}

// reply queues a frame for a single client.
func (h *Hub) reply(c *WSClient, msg WSMessage) {
	data, err := encodeFrame(msg)
	if err != nil {
		return
	}
	h.enqueue(hubEvent{target: c, data: data})
}

func (h *Hub) enqueue(ev hubEvent) {
	select {
	case <-h.done:
		return
	default:
	}
	select {
	case h.events <- ev:
	default:
		h.logger.Warn("websocket event queue full, dropping", "channel", ev.channel)
	}
}

// Issued broadcasts a newly accepted request on ChannelIssued.
func (h *Hub) Issued(info diagnostics.RequestInfo) {
	h.Broadcast(ChannelIssued, info)
}

// Completed broadcasts a terminal outcome on ChannelCompleted.
func (h *Hub) Completed(res diagnostics.Result) {
	h.Broadcast(ChannelCompleted, NewOutcomeEvent(res))
}

// handleWebSocket upgrades the connection and starts the client pumps.
// Clients receive nothing until they subscribe to a channel.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("websocket upgrade failed", "error", err)
		return
	}

	c := newWSClient(s.hub, conn)
	if !s.hub.Register(c) {
		conn.Close()
		return
	}

	go c.writePump(s.hub.timings)
	go c.readPump(s.hub.timings)
}
