// Package oic implements the OIC protocol bridge client used by the
// diagnostics dispatcher.
//
// The dispatcher needs two collaborators: a resource Transport (GET/PUT)
// and a GroupManager (create and execute action sets). Client provides
// both by publishing JSON requests to the OIC bridge over MQTT and
// correlating the bridge's responses by request id:
//
//	┌──────────────┐  graylogic/request/oic/{id}   ┌──────────────┐
//	│  Dispatcher  │──────────────────────────────▶│  OIC bridge  │──▶ devices
//	│  (this pkg)  │◀──────────────────────────────│              │
//	└──────────────┘  graylogic/response/oic/{id}  └──────────────┘
//
// # Actions
//
//   - get: read a resource; collection responses carry the children
//   - put: write attributes to a resource
//   - add_action_set: store an action set on a collection
//   - execute_action_set: run a stored action set by name
//
// # Timeouts
//
// A request with no response within the configured timeout completes with
// resource.CodeTimeout. A timeout of zero waits indefinitely.
package oic
