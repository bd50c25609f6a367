package oic

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/nerrad567/gray-logic-diagnostics/internal/resource"
)

// Protocol is the bridge protocol name used in MQTT topics.
const Protocol = "oic"

// Request actions understood by the OIC bridge.
const (
	ActionGet              = "get"
	ActionPut              = "put"
	ActionAddActionSet     = "add_action_set"
	ActionExecuteActionSet = "execute_action_set"
)

// RequestMessage is sent to the bridge.
// Topic: graylogic/request/oic/{request_id}
type RequestMessage struct {
	// RequestID uniquely identifies this request for correlation.
	RequestID string `json:"request_id"`

	// Timestamp is when the request was issued (UTC).
	Timestamp time.Time `json:"timestamp"`

	// Action is one of get, put, add_action_set, execute_action_set.
	Action string `json:"action"`

	// URI is the fully-qualified target resource.
	URI string `json:"uri"`

	ResourceType string         `json:"resource_type,omitempty"`
	Interface    string         `json:"interface,omitempty"`
	Query        resource.Query `json:"query,omitempty"`

	// Representation is the body of a put.
	Representation *resource.Representation `json:"representation,omitempty"`

	// ActionSet is the body of add_action_set.
	ActionSet *resource.ActionSet `json:"action_set,omitempty"`

	// ActionSetName names the set for execute_action_set.
	ActionSetName string `json:"action_set_name,omitempty"`
}

// ResponseMessage is sent by the bridge in reply to a request.
// Topic: graylogic/response/oic/{request_id}
type ResponseMessage struct {
	RequestID string    `json:"request_id"`
	Timestamp time.Time `json:"timestamp"`

	// Success indicates whether the request succeeded.
	Success bool `json:"success"`

	// Representation is the resource payload (GET responses, PUT echoes).
	Representation resource.Representation `json:"representation"`

	// Error contains error details (if failed).
	Error *ResponseError `json:"error,omitempty"`
}

// ResponseError contains error details for failed requests.
type ResponseError struct {
	// Code is a resource.Code name, e.g. "not_found" or "forbidden".
	Code string `json:"code"`

	// Message is a human-readable error description.
	Message string `json:"message"`
}

// ResultCode maps the response to a resource.Code.
// A failure without a recognised error code maps to resource.CodeError.
func (m ResponseMessage) ResultCode() resource.Code {
	if m.Success {
		return resource.CodeSuccess
	}
	if m.Error == nil {
		return resource.CodeError
	}
	code := resource.ParseCode(m.Error.Code)
	if code.OK() {
		// A failed response never reports success.
		return resource.CodeError
	}
	return code
}

// parseResponse decodes a response and fills a missing request id from the
// topic's last segment.
func parseResponse(topic string, payload []byte) (ResponseMessage, error) {
	var msg ResponseMessage
	if err := json.Unmarshal(payload, &msg); err != nil {
		return ResponseMessage{}, fmt.Errorf("%w: %w", ErrInvalidResponse, err)
	}

	if msg.RequestID == "" {
		if i := strings.LastIndex(topic, "/"); i >= 0 && i < len(topic)-1 {
			msg.RequestID = topic[i+1:]
		}
	}
	if msg.RequestID == "" {
		return ResponseMessage{}, fmt.Errorf("%w: missing request id", ErrInvalidResponse)
	}

	return msg, nil
}

// Bridge availability as reported on graylogic/health/oic.
const (
	BridgeUnknown = "unknown"
	BridgeOnline  = "online"
	BridgeOffline = "offline"
)

// HealthMessage is the retained status the bridge publishes on its health
// topic. The broker publishes an offline one as the bridge's last will.
type HealthMessage struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Reason    string    `json:"reason,omitempty"`
}

// parseHealth decodes a health message. Statuses other than online and
// offline are reported as unknown.
func parseHealth(payload []byte) (HealthMessage, error) {
	var msg HealthMessage
	if err := json.Unmarshal(payload, &msg); err != nil {
		return HealthMessage{}, fmt.Errorf("%w: %w", ErrInvalidHealth, err)
	}
	switch msg.Status {
	case BridgeOnline, BridgeOffline:
	default:
		msg.Status = BridgeUnknown
	}
	return msg, nil
}
