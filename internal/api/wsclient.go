package api

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/nerrad567/gray-logic-diagnostics/internal/infrastructure/config"
)

// Fallbacks for a zero WebSocketConfig.
const (
	defaultWSPingInterval = 30 * time.Second
	defaultWSPongTimeout  = 10 * time.Second
	defaultWSReadLimit    = 8192
)

// wsTimings are the keepalive settings derived from config.
type wsTimings struct {
	ping      time.Duration
	pongWait  time.Duration
	readLimit int64
}

func newWSTimings(cfg config.WebSocketConfig) wsTimings {
	t := wsTimings{
		ping:      time.Duration(cfg.PingInterval) * time.Second,
		pongWait:  time.Duration(cfg.PongTimeout) * time.Second,
		readLimit: int64(cfg.MaxMessageSize),
	}
	if t.ping <= 0 {
		t.ping = defaultWSPingInterval
	}
	if t.pongWait <= 0 {
		t.pongWait = defaultWSPongTimeout
	}
	if t.readLimit <= 0 {
		t.readLimit = defaultWSReadLimit
	}
	return t
}

// readDeadline is when the connection is considered dead without traffic.
func (t wsTimings) readDeadline() time.Time {
	return time.Now().Add(t.ping + t.pongWait)
}

// knownChannels lists the channels a client may subscribe to.
var knownChannels = map[string]struct{}{
	ChannelIssued:    {},
	ChannelCompleted: {},
}

// WSClient is one WebSocket connection. send is written only by the hub.
type WSClient struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte

	mu            sync.RWMutex
	subscriptions map[string]struct{}
}

func newWSClient(hub *Hub, conn *websocket.Conn) *WSClient {
	return &WSClient{
		hub:           hub,
		conn:          conn,
		send:          make(chan []byte, wsSendBufferSize),
		subscriptions: make(map[string]struct{}),
	}
}

func (c *WSClient) isSubscribed(channel string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.subscriptions[channel]
	return ok
}

// readPump reads client frames until the connection fails. Any frame,
// pong included, extends the read deadline.
func (c *WSClient) readPump(t wsTimings) {
	defer func() {
		c.hub.Unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(t.readLimit)
	c.conn.SetReadDeadline(t.readDeadline()) //nolint:errcheck // A failed deadline surfaces as a read error
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(t.readDeadline())
	})

	for {
		_, frame, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.hub.logger.Warn("websocket read error", "error", err)
			}
			return
		}
		c.conn.SetReadDeadline(t.readDeadline()) //nolint:errcheck // See above
		c.handle(frame)
	}
}

// writePump writes queued frames and pings on every interval. Frames that
// piled up while writing go out in the same pass. It exits when the hub
// closes send or a write fails.
func (c *WSClient) writePump(t wsTimings) {
	ticker := time.NewTicker(t.ping)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	write := func(kind int, data []byte) error {
		c.conn.SetWriteDeadline(time.Now().Add(t.pongWait)) //nolint:errcheck // Write error reported below
		return c.conn.WriteMessage(kind, data)
	}

	for {
		select {
		case frame, ok := <-c.send:
			if !ok {
				write(websocket.CloseMessage, nil) //nolint:errcheck // Best-effort close frame
				return
			}
			if err := write(websocket.TextMessage, frame); err != nil {
				return
			}
			for n := len(c.send); n > 0; n-- {
				frame, ok = <-c.send
				if !ok {
					return
				}
				if err := write(websocket.TextMessage, frame); err != nil {
					return
				}
			}
		case <-ticker.C:
			if err := write(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// handle dispatches one inbound frame.
func (c *WSClient) handle(frame []byte) {
	var msg WSMessage
	if err := json.Unmarshal(frame, &msg); err != nil {
		c.fail("", "invalid JSON message")
		return
	}

	switch msg.Type {
	case WSTypeSubscribe, WSTypeUnsubscribe:
		channels, problem := channelsOf(msg.Payload)
		if problem != "" {
			c.fail(msg.ID, problem)
			return
		}
		c.setSubscribed(channels, msg.Type == WSTypeSubscribe)
		key := "unsubscribed"
		if msg.Type == WSTypeSubscribe {
			key = "subscribed"
		}
		c.hub.reply(c, WSMessage{Type: WSTypeResponse, ID: msg.ID, Payload: map[string]any{key: channels}})
	case WSTypePing:
		c.hub.reply(c, WSMessage{Type: WSTypePong, ID: msg.ID})
	default:
		c.fail(msg.ID, "unknown message type: "+msg.Type)
	}
}

// channelsOf extracts and validates the channel list of a subscription
// frame. It returns a client-facing error message on failure.
func channelsOf(payload any) ([]string, string) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, "invalid payload"
	}
	var sub WSSubscribePayload
	if err := json.Unmarshal(raw, &sub); err != nil || len(sub.Channels) == 0 {
		return nil, "payload must list channels"
	}
	for _, ch := range sub.Channels {
		if _, ok := knownChannels[ch]; !ok {
			return nil, "unknown channel: " + ch
		}
	}
	return sub.Channels, ""
}

func (c *WSClient) setSubscribed(channels []string, on bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, ch := range channels {
		if on {
			c.subscriptions[ch] = struct{}{}
		} else {
			delete(c.subscriptions, ch)
		}
	}
}

func (c *WSClient) fail(id, message string) {
	c.hub.reply(c, WSMessage{Type: WSTypeError, ID: id, Payload: map[string]string{"message": message}})
}
