// Package api implements the HTTP REST API and WebSocket server for Gray Logic Diagnostics.
//
// This package provides:
//   - REST endpoints to issue reboot and factory reset against configured resources
//   - Read access to the diagnostics catalog, pending requests and the request journal
//   - WebSocket hub broadcasting issued and completed requests
//   - Middleware stack (request ID, logging, recovery, CORS, body limit)
//
// # Architecture
//
// The server sits in front of a diagnostics.Dispatcher. A command request
// answers 202 Accepted as soon as the first remote call is sent; the outcome
// arrives later through the Hub (a diagnostics.Observer) and the journal.
//
// # Graceful Degradation
//
// The server runs without a journal, MQTT status or database stats. The
// journal endpoints answer 503 when no journal is configured, and /metrics
// is only mounted when a Prometheus handler is supplied.
package api
