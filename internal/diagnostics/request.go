package diagnostics

import (
	"sync"
	"time"

	"github.com/nerrad567/gray-logic-diagnostics/internal/resource"
)

// Path is the route a request takes through the dispatcher.
type Path string

const (
	PathSimple     Path = "simple"
	PathCollection Path = "collection"
)

// State is the position of a request in its dispatch sequence.
type State string

const (
	StateIssued                     State = "issued"
	StateAwaitingUpdate             State = "awaiting_update"
	StateAwaitingChildren           State = "awaiting_children"
	StateAwaitingActionSetCreation  State = "awaiting_action_set_creation"
	StateAwaitingActionSetExecution State = "awaiting_action_set_execution"
	StateCompleted                  State = "completed"
	StateAborted                    State = "aborted"
	StateFailed                     State = "failed"
)

// Terminal reports whether no further completion is expected.
func (s State) Terminal() bool {
	switch s {
	case StateCompleted, StateAborted, StateFailed:
		return true
	}
	return false
}

// step returns the remote step a waiting state is blocked on.
func (s State) step() Step {
	switch s {
	case StateAwaitingUpdate:
		return StepUpdate
	case StateAwaitingChildren:
		return StepDiscoverChildren
	case StateAwaitingActionSetCreation:
		return StepCreateActionSet
	case StateAwaitingActionSetExecution:
		return StepExecuteActionSet
	}
	return ""
}

// Callback receives the terminal outcome of an accepted request.
// It is invoked exactly once, possibly from a transport goroutine.
type Callback func(Result)

// RequestInfo is a read-only snapshot of a request.
type RequestInfo struct {
	ID         string    `json:"id"`
	Command    string    `json:"command"`
	ResourceID string    `json:"resource_id,omitempty"`
	URI        string    `json:"uri"`
	Path       Path      `json:"path"`
	Value      string    `json:"value"`
	State      State     `json:"state"`
	IssuedAt   time.Time `json:"issued_at"`
}

// Result is the terminal outcome of a request.
// Err is nil only when the sequence completed with resource.CodeSuccess.
type Result struct {
	RequestInfo
	Code           resource.Code           `json:"code"`
	Representation resource.Representation `json:"representation"`
	Err            error                   `json:"-"`
	Duration       time.Duration           `json:"duration"`
}

// OK reports whether the request completed successfully.
func (r Result) OK() bool {
	return r.Err == nil
}

// Request is one in-flight diagnostic command.
//
// Each dispatch sequence holds its own *Request, so a request evicted from
// the Registry still finishes against its original resource and value.
type Request struct {
	ID       string
	Command  string
	Resource *resource.Resource
	Value    string
	Path     Path
	IssuedAt time.Time

	callback Callback

	mu    sync.Mutex
	state State

	once sync.Once
}

// State returns the current state.
func (r *Request) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

func (r *Request) setState(s State) {
	r.mu.Lock()
	r.state = s
	r.mu.Unlock()
}

// Info returns a snapshot of the request.
func (r *Request) Info() RequestInfo {
	info := RequestInfo{
		ID:       r.ID,
		Command:  r.Command,
		Path:     r.Path,
		Value:    r.Value,
		State:    r.State(),
		IssuedAt: r.IssuedAt,
	}
	if r.Resource != nil {
		info.ResourceID = r.Resource.ID
		info.URI = r.Resource.URI
	}
	return info
}
