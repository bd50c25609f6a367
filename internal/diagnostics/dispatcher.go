package diagnostics

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/nerrad567/gray-logic-diagnostics/internal/resource"
)

// BusyPolicy decides what Issue does when the command is already pending.
type BusyPolicy string

const (
	// BusyEvict overwrites the registry slot. The evicted request keeps
	// running against its own resource and still delivers its callback.
	BusyEvict BusyPolicy = "evict"

	// BusyReject refuses the new request with ErrBusy.
	BusyReject BusyPolicy = "reject"
)

// Logger defines the logging interface used by the Dispatcher.
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

// Observer is notified of request lifecycle events in addition to the
// caller's callback. Both methods run on the goroutine that delivered the
// triggering completion and should return promptly.
type Observer interface {
	// Issued is called once a request is registered, before its first remote call.
	Issued(info RequestInfo)

	// Completed is called once per request that reached Issued, including
	// requests whose first remote call could not be sent.
	Completed(res Result)
}

// Observers fans events out to each observer in order. Nil entries are skipped.
type Observers []Observer

func (o Observers) Issued(info RequestInfo) {
	for _, ob := range o {
		if ob != nil {
			ob.Issued(info)
		}
	}
}

func (o Observers) Completed(res Result) {
	for _, ob := range o {
		if ob != nil {
			ob.Completed(res)
		}
	}
}

// completion is one transport or backend response.
type completion struct {
	code resource.Code
	rep  resource.Representation
}

// Dispatcher drives diagnostic commands through the simple or collection path.
//
// Thread Safety: Issue, Reboot and FactoryReset are safe for concurrent use.
// Completions may arrive on any goroutine.
type Dispatcher struct {
	transport resource.Transport
	groups    resource.GroupManager
	registry  *Registry
	policy    BusyPolicy
	observer  Observer
	logger    Logger
	now       func() time.Time
}

// NewDispatcher creates a dispatcher with its own empty Registry.
//
// Parameters:
//   - transport: GET/PUT against resources
//   - groups: action-set backend for collection resources
//   - policy: behaviour when a command is already pending ("" means BusyEvict)
//   - observer: lifecycle hook (may be nil)
func NewDispatcher(transport resource.Transport, groups resource.GroupManager, policy BusyPolicy, observer Observer) *Dispatcher {
	if policy == "" {
		policy = BusyEvict
	}
	return &Dispatcher{
		transport: transport,
		groups:    groups,
		registry:  NewRegistry(),
		policy:    policy,
		observer:  observer,
		logger:    noopLogger{},
		now:       time.Now,
	}
}

// SetLogger sets the logger for the dispatcher.
func (d *Dispatcher) SetLogger(logger Logger) {
	d.logger = logger
}

// Registry returns the dispatcher's pending-request registry.
func (d *Dispatcher) Registry() *Registry {
	return d.registry
}

// Reboot issues the reboot command against res.
func (d *Dispatcher) Reboot(res *resource.Resource, cb Callback) (string, error) {
	return d.Issue(CommandReboot, res, cb)
}

// FactoryReset issues the factory reset command against res.
func (d *Dispatcher) FactoryReset(res *resource.Resource, cb Callback) (string, error) {
	return d.Issue(CommandFactoryReset, res, cb)
}

// Issue registers a command against res and sends its first remote call.
//
// On success it returns the generated request id and cb will be called
// exactly once with the outcome, possibly before Issue returns when the
// outcome is known locally (unknown command on the simple path).
//
// It returns an error and never calls cb when:
//   - res is nil (ErrNoTarget)
//   - the command is pending and the policy is BusyReject (ErrBusy)
//   - the first remote call could not be sent (ErrSendFailed)
//
// The command name is not validated here; an unknown name is reported
// through cb as ErrUnknownCommand.
func (d *Dispatcher) Issue(command string, res *resource.Resource, cb Callback) (string, error) {
	if res == nil {
		return "", ErrNoTarget
	}

	req := &Request{
		ID:       uuid.NewString(),
		Command:  command,
		Resource: res,
		Value:    UpdateValue,
		Path:     PathSimple,
		IssuedAt: d.now(),
		callback: cb,
		state:    StateIssued,
	}
	if res.IsCollection() {
		req.Path = PathCollection
	}

	if d.policy == BusyReject {
		if cur, ok := d.registry.PutIfAbsent(command, req); !ok {
			d.logger.Warn("diagnostic command busy",
				"command", command, "pending_request_id", cur.ID)
			return "", fmt.Errorf("%w: %s (request %s)", ErrBusy, command, cur.ID)
		}
	} else if prev := d.registry.Put(command, req); prev != nil {
		d.logger.Warn("evicting pending diagnostic request",
			"command", command, "evicted_request_id", prev.ID, "request_id", req.ID)
	}

	d.logger.Info("diagnostic command issued",
		"request_id", req.ID, "command", command, "uri", res.URI, "path", req.Path)
	if d.observer != nil {
		d.observer.Issued(req.Info())
	}

	var err error
	if req.Path == PathSimple {
		err = d.startSimple(req)
	} else {
		err = d.startCollection(req)
	}
	if err != nil {
		d.reject(req, err)
		return "", fmt.Errorf("%w: %s: %w", ErrSendFailed, command, err)
	}

	return req.ID, nil
}

// startSimple sends the single PUT of the simple path.
func (d *Dispatcher) startSimple(req *Request) error {
	attr := AttributeFor(req.Command)
	if attr == "" {
		d.finish(req, StateAborted, completion{code: resource.CodeError}, ErrUnknownCommand)
		return nil
	}

	var rep resource.Representation
	rep.SetValue(attr, req.Value)

	return d.send(req, StateAwaitingUpdate, func(h resource.ResponseHandler) error {
		return d.transport.Put(req.Resource, req.Resource.PrimaryType(), resource.InterfaceBaseline, rep, resource.Query{}, h)
	})
}

// startCollection sends the child discovery GET of the collection path.
func (d *Dispatcher) startCollection(req *Request) error {
	return d.send(req, StateAwaitingChildren, func(h resource.ResponseHandler) error {
		return d.transport.Get(req.Resource, req.Resource.PrimaryType(), resource.InterfaceBaseline, resource.Query{}, h)
	})
}

// send moves req to next and performs call with a handler that advances req.
// A duplicate completion for the same step is dropped.
func (d *Dispatcher) send(req *Request, next State, call func(resource.ResponseHandler) error) error {
	req.setState(next)

	var once sync.Once
	handler := func(code resource.Code, rep resource.Representation) {
		fired := false
		once.Do(func() { fired = true })
		if !fired {
			d.logger.Warn("duplicate completion dropped",
				"request_id", req.ID, "state", next, "code", code)
			return
		}
		d.advance(req, completion{code: code, rep: rep})
	}

	return call(handler)
}

// advance applies one completion to req and issues the next remote call.
func (d *Dispatcher) advance(req *Request, c completion) {
	state := req.State()

	if state.Terminal() || state == StateIssued {
		d.logger.Warn("completion for request not awaiting a response",
			"request_id", req.ID, "state", state, "code", c.code)
		return
	}

	step := state.step()
	d.logger.Debug("diagnostic step completed",
		"request_id", req.ID, "step", step, "code", c.code)

	if !c.code.OK() {
		d.finish(req, StateFailed, c, &TransportFailure{Step: step, Code: c.code})
		return
	}

	switch state {
	case StateAwaitingUpdate, StateAwaitingActionSetExecution:
		d.finish(req, StateCompleted, c, nil)

	case StateAwaitingChildren:
		set, err := buildActionSet(req, c.rep.Children)
		if err != nil {
			d.finish(req, StateAborted, completion{code: resource.CodeError, rep: c.rep}, err)
			return
		}
		d.logger.Debug("action set built",
			"request_id", req.ID, "name", set.Name, "actions", set.Len())
		d.sendNext(req, StateAwaitingActionSetCreation, func(h resource.ResponseHandler) error {
			return d.groups.AddActionSet(req.Resource, set, h)
		})

	case StateAwaitingActionSetCreation:
		d.sendNext(req, StateAwaitingActionSetExecution, func(h resource.ResponseHandler) error {
			return d.groups.ExecuteActionSet(req.Resource, req.Command, h)
		})
	}
}

// sendNext is send for every step after the first. A send error becomes a
// TransportFailure delivered through the callback.
func (d *Dispatcher) sendNext(req *Request, next State, call func(resource.ResponseHandler) error) {
	if err := d.send(req, next, call); err != nil {
		d.finish(req, StateFailed, completion{code: resource.CodeSendFailed},
			&TransportFailure{Step: next.step(), Code: resource.CodeSendFailed, Err: err})
	}
}

// buildActionSet binds every child's host to the command's attribute.
// Children are visited in document order.
func buildActionSet(req *Request, children []resource.Representation) (resource.ActionSet, error) {
	suffix := URISuffixFor(req.Command)
	if suffix == "" {
		return resource.ActionSet{}, ErrUnknownCommand
	}
	attr := AttributeFor(req.Command)

	set := resource.ActionSet{
		Name:    req.Command,
		Actions: make([]resource.Action, 0, len(children)),
	}
	for i, child := range children {
		host := HostOf(child.URI)
		if host == "" {
			return resource.ActionSet{}, &InvalidChildError{Index: i, URI: child.URI}
		}
		set.Actions = append(set.Actions, resource.Action{
			Target:       host + suffix,
			Capabilities: []resource.Capability{{Attribute: attr, Status: req.Value}},
		})
	}
	return set, nil
}

// finish moves req to a terminal state, releases its registry slot if it
// still owns it, and delivers the outcome exactly once.
func (d *Dispatcher) finish(req *Request, state State, c completion, err error) {
	req.once.Do(func() {
		req.setState(state)
		d.registry.EraseIfOwner(req.Command, req)

		res := d.result(req, c, err)
		if err != nil {
			d.logger.Warn("diagnostic command failed",
				"request_id", req.ID, "command", req.Command, "state", state, "error", err)
		} else {
			d.logger.Info("diagnostic command completed",
				"request_id", req.ID, "command", req.Command, "duration", res.Duration)
		}

		if req.callback != nil {
			req.callback(res)
		}
		if d.observer != nil {
			d.observer.Completed(res)
		}
	})
}

// reject terminates a request whose first call was never sent.
// The caller's callback is not invoked.
func (d *Dispatcher) reject(req *Request, err error) {
	req.once.Do(func() {
		req.setState(StateFailed)
		d.registry.EraseIfOwner(req.Command, req)

		d.logger.Error("diagnostic command not sent",
			"request_id", req.ID, "command", req.Command, "error", err)

		if d.observer != nil {
			d.observer.Completed(d.result(req, completion{code: resource.CodeSendFailed}, err))
		}
	})
}

func (d *Dispatcher) result(req *Request, c completion, err error) Result {
	return Result{
		RequestInfo:    req.Info(),
		Code:           c.code,
		Representation: c.rep,
		Err:            err,
		Duration:       d.now().Sub(req.IssuedAt),
	}
}
