package mqtt

import "fmt"

// Topic prefixes. Bridge topics use the flat scheme
// graylogic/{category}/{protocol}/{id}.
const (
	// TopicPrefixBridge is the base for all bridge topics.
	TopicPrefixBridge = "graylogic"

	// TopicPrefixCore is the base for topics published by this service.
	TopicPrefixCore = "graylogic/core"

	// TopicPrefixSystem is the base for system topics.
	TopicPrefixSystem = "graylogic/system"
)

// Topics provides builders for Gray Logic MQTT topics.
//
//	topics := mqtt.Topics{}
//	req := topics.BridgeRequest("oic", "6f1c...")
//	// Returns: "graylogic/request/oic/6f1c..."
type Topics struct{}

// =============================================================================
// Bridge Topics
// =============================================================================

// BridgeRequest returns the topic for requests to a bridge.
//
// Example: graylogic/request/oic/req-abc123
func (Topics) BridgeRequest(protocol, requestID string) string {
	return fmt.Sprintf("%s/request/%s/%s", TopicPrefixBridge, protocol, requestID)
}

// BridgeResponse returns the topic for request responses from a bridge.
//
// Example: graylogic/response/oic/req-abc123
func (Topics) BridgeResponse(protocol, requestID string) string {
	return fmt.Sprintf("%s/response/%s/%s", TopicPrefixBridge, protocol, requestID)
}

// BridgeHealth returns the topic for bridge health status.
//
// Example: graylogic/health/oic
func (Topics) BridgeHealth(protocol string) string {
	return fmt.Sprintf("%s/health/%s", TopicPrefixBridge, protocol)
}

// BridgeResponses returns a pattern matching every response from one bridge.
//
// Pattern: graylogic/response/oic/+
func (Topics) BridgeResponses(protocol string) string {
	return fmt.Sprintf("%s/response/%s/+", TopicPrefixBridge, protocol)
}

// =============================================================================
// Core Topics
// =============================================================================

// CoreDiagnosticCompleted returns the topic a terminal diagnostic outcome
// is published on.
//
// Example: graylogic/core/diagnostics/reboot/completed
func (Topics) CoreDiagnosticCompleted(command string) string {
	return fmt.Sprintf("%s/diagnostics/%s/completed", TopicPrefixCore, command)
}

// AllCoreDiagnostics returns a pattern matching every diagnostic outcome.
//
// Pattern: graylogic/core/diagnostics/+/completed
func (Topics) AllCoreDiagnostics() string {
	return fmt.Sprintf("%s/diagnostics/+/completed", TopicPrefixCore)
}

// =============================================================================
// System Topics
// =============================================================================

// SystemStatus returns the system status topic.
//
// Example: graylogic/system/status
func (Topics) SystemStatus() string {
	return fmt.Sprintf("%s/status", TopicPrefixSystem)
}
