// Package diagnostics dispatches named diagnostic commands ("reboot",
// "factoryreset") against remote resources.
//
// A target is either a simple resource, updated directly with one PUT, or a
// collection resource exposing the batch interface. For a collection the
// dispatcher discovers the children, builds an action set that binds each
// child's host to the command's attribute, asks the group backend to create
// it, then to execute it.
//
// Architecture:
//
//	┌─────────────────────────────────────────────────────────────┐
//	│                 Dispatcher (dispatcher.go)                  │
//	│                                                             │
//	│  Issue ──▶ Registry.Put (one slot per command name)         │
//	│    │                                                        │
//	│    ├── simple ──────▶ PUT {attribute: "true"} ──────┐       │
//	│    │                                                │       │
//	│    └── collection ──▶ GET children                  │       │
//	│                         │ HostOf(child) + suffix    │       │
//	│                         ▼                           │       │
//	│                      AddActionSet                   │       │
//	│                         ▼                           ▼       │
//	│                      ExecuteActionSet ──────▶ callback once │
//	└─────────────────────────────────────────────────────────────┘
//
// # Key Types
//
//   - Unit: catalog entry (name, attribute key, target URI suffix)
//   - Request: one in-flight command with its State
//   - Registry: pending requests keyed by command name
//   - Dispatcher: the state machine driven by transport completions
//   - Result: the terminal outcome handed to the callback and Observer
//
// # Failure Model
//
// Nothing in this package exits the process. Every accepted request ends
// in exactly one callback carrying either the final representation or an
// error: *TransportFailure for a non-success code, ErrUnknownCommand for a
// name missing from the catalog, *InvalidChildError for a child whose URI
// has no resolvable host.
//
// # Thread Safety
//
// Dispatcher and Registry are safe for concurrent use. Completions may be
// delivered from any goroutine.
package diagnostics
