package oic

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/nerrad567/gray-logic-diagnostics/internal/infrastructure/mqtt"
	"github.com/nerrad567/gray-logic-diagnostics/internal/resource"
)

// MQTTClient is the subset of the MQTT client the bridge needs.
// *mqtt.Client satisfies it; tests supply a mock.
type MQTTClient interface {
	Publish(topic string, payload []byte, qos byte, retained bool) error
	Subscribe(topic string, qos byte, handler mqtt.MessageHandler) error
	Unsubscribe(topic string) error
}

// Logger defines the logging interface used by the Client.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// pendingCall is a request awaiting its response.
type pendingCall struct {
	action  string
	uri     string
	handler resource.ResponseHandler
	timer   *time.Timer
}

// Client implements resource.Transport and resource.GroupManager over MQTT.
//
// Thread Safety: All methods are safe for concurrent use. Response handlers
// run on the MQTT delivery goroutine or the timeout timer goroutine.
type Client struct {
	mqtt    MQTTClient
	qos     byte
	timeout time.Duration
	topics  mqtt.Topics

	mu      sync.Mutex
	pending map[string]*pendingCall
	started bool
	stopped bool
	health  HealthMessage

	logger Logger
}

var (
	_ resource.Transport    = (*Client)(nil)
	_ resource.GroupManager = (*Client)(nil)
)

// NewClient creates a bridge client.
//
// Parameters:
//   - client: MQTT connection
//   - qos: QoS for request publishes
//   - timeout: how long to wait for a response (0 waits indefinitely)
func NewClient(client MQTTClient, qos byte, timeout time.Duration) *Client {
	return &Client{
		mqtt:    client,
		qos:     qos,
		timeout: timeout,
		pending: make(map[string]*pendingCall),
		health:  HealthMessage{Status: BridgeUnknown},
		logger:  noopLogger{},
	}
}

// SetLogger sets the logger for the client.
func (c *Client) SetLogger(logger Logger) {
	c.logger = logger
}

// Start subscribes to the bridge's response and health topics.
func (c *Client) Start() error {
	topic := c.topics.BridgeResponses(Protocol)
	if err := c.mqtt.Subscribe(topic, c.qos, c.handleResponse); err != nil {
		return fmt.Errorf("subscribing to %s: %w", topic, err)
	}
	healthTopic := c.topics.BridgeHealth(Protocol)
	if err := c.mqtt.Subscribe(healthTopic, c.qos, c.handleHealth); err != nil {
		c.mqtt.Unsubscribe(topic) //nolint:errcheck // Best-effort rollback
		return fmt.Errorf("subscribing to %s: %w", healthTopic, err)
	}

	c.mu.Lock()
	c.started = true
	c.mu.Unlock()

	c.logger.Info("OIC bridge client started", "topic", topic, "timeout", c.timeout)
	return nil
}

// Stop unsubscribes and completes every outstanding request with
// resource.CodeError. Requests made after Stop fail with ErrStopped.
func (c *Client) Stop() {
	c.mu.Lock()
	if c.stopped {
		c.mu.Unlock()
		return
	}
	c.stopped = true
	outstanding := c.pending
	c.pending = make(map[string]*pendingCall)
	c.mu.Unlock()

	for _, topic := range []string{c.topics.BridgeResponses(Protocol), c.topics.BridgeHealth(Protocol)} {
		if err := c.mqtt.Unsubscribe(topic); err != nil {
			c.logger.Warn("unsubscribing OIC topic", "topic", topic, "error", err)
		}
	}

	for id, call := range outstanding {
		if call.timer != nil {
			call.timer.Stop()
		}
		c.logger.Warn("OIC request abandoned on stop", "request_id", id, "action", call.action)
		call.handler(resource.CodeError, resource.Representation{})
	}
}

// Pending returns the number of requests awaiting a response.
func (c *Client) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.pending)
}

// BridgeStatus returns the last status the bridge reported: online,
// offline, or unknown before the first health message.
func (c *Client) BridgeStatus() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.health.Status
}

// Get reads a resource.
func (c *Client) Get(res *resource.Resource, resourceType, iface string, query resource.Query, onComplete resource.ResponseHandler) error {
	return c.request(res, RequestMessage{
		Action:       ActionGet,
		ResourceType: resourceType,
		Interface:    iface,
		Query:        query,
	}, onComplete)
}

// Put writes rep to a resource.
func (c *Client) Put(res *resource.Resource, resourceType, iface string, rep resource.Representation, query resource.Query, onComplete resource.ResponseHandler) error {
	return c.request(res, RequestMessage{
		Action:         ActionPut,
		ResourceType:   resourceType,
		Interface:      iface,
		Query:          query,
		Representation: &rep,
	}, onComplete)
}

// AddActionSet stores set on a collection resource.
func (c *Client) AddActionSet(res *resource.Resource, set resource.ActionSet, onComplete resource.ResponseHandler) error {
	return c.request(res, RequestMessage{
		Action:    ActionAddActionSet,
		ActionSet: &set,
	}, onComplete)
}

// ExecuteActionSet runs the named action set on a collection resource.
func (c *Client) ExecuteActionSet(res *resource.Resource, name string, onComplete resource.ResponseHandler) error {
	return c.request(res, RequestMessage{
		Action:        ActionExecuteActionSet,
		ActionSetName: name,
	}, onComplete)
}

// request registers msg as pending and publishes it. The pending entry is
// registered first so a fast response cannot race the publish.
func (c *Client) request(res *resource.Resource, msg RequestMessage, onComplete resource.ResponseHandler) error {
	if res == nil {
		return ErrNoResource
	}

	msg.RequestID = uuid.NewString()
	msg.Timestamp = time.Now().UTC()
	msg.URI = res.URI

	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("encoding %s request: %w", msg.Action, err)
	}

	call := &pendingCall{action: msg.Action, uri: msg.URI, handler: onComplete}

	c.mu.Lock()
	switch {
	case c.stopped:
		c.mu.Unlock()
		return ErrStopped
	case !c.started:
		c.mu.Unlock()
		return ErrNotStarted
	}
	c.pending[msg.RequestID] = call
	if c.timeout > 0 {
		id := msg.RequestID
		call.timer = time.AfterFunc(c.timeout, func() { c.expire(id) })
	}
	c.mu.Unlock()

	topic := c.topics.BridgeRequest(Protocol, msg.RequestID)
	if err := c.mqtt.Publish(topic, payload, c.qos, false); err != nil {
		if _, ok := c.take(msg.RequestID); !ok {
			// The timeout fired while Publish was blocked and has already
			// completed the call; its handler owns the outcome.
			c.logger.Warn("OIC request publish failed after timeout",
				"request_id", msg.RequestID, "action", msg.Action, "error", err)
			return nil
		}
		return fmt.Errorf("publishing %s request: %w", msg.Action, err)
	}

	c.logger.Debug("OIC request sent",
		"request_id", msg.RequestID, "action", msg.Action, "uri", msg.URI)
	return nil
}

// take removes and returns a pending call, stopping its timer.
func (c *Client) take(id string) (*pendingCall, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	call, ok := c.pending[id]
	if !ok {
		return nil, false
	}
	delete(c.pending, id)
	if call.timer != nil {
		call.timer.Stop()
	}
	return call, true
}

// handleResponse completes the pending call a response belongs to.
func (c *Client) handleResponse(topic string, payload []byte) error {
	msg, err := parseResponse(topic, payload)
	if err != nil {
		return err
	}

	call, ok := c.take(msg.RequestID)
	if !ok {
		// Late response after a timeout, or another instance's request.
		c.logger.Debug("OIC response for unknown request", "request_id", msg.RequestID)
		return nil
	}

	code := msg.ResultCode()
	if msg.Error != nil {
		c.logger.Warn("OIC request failed",
			"request_id", msg.RequestID, "action", call.action, "uri", call.uri,
			"code", code, "message", msg.Error.Message)
	}

	call.handler(code, msg.Representation)
	return nil
}

// expire completes a call whose response did not arrive in time.
func (c *Client) expire(id string) {
	call, ok := c.take(id)
	if !ok {
		return
	}

	c.logger.Warn("OIC request timed out",
		"request_id", id, "action", call.action, "uri", call.uri, "timeout", c.timeout)
	call.handler(resource.CodeTimeout, resource.Representation{})
}

// handleHealth records the bridge's availability. Transitions are logged;
// requests are still sent while the bridge is offline and rely on the
// response timeout.
func (c *Client) handleHealth(_ string, payload []byte) error {
	msg, err := parseHealth(payload)
	if err != nil {
		return err
	}

	c.mu.Lock()
	prev := c.health.Status
	c.health = msg
	c.mu.Unlock()

	if prev == msg.Status {
		return nil
	}
	if msg.Status == BridgeOffline {
		c.logger.Warn("OIC bridge offline", "reason", msg.Reason)
	} else {
		c.logger.Info("OIC bridge status changed", "status", msg.Status, "previous", prev)
	}
	return nil
}
