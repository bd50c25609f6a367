package diagnostics

import (
	"errors"
	"fmt"

	"github.com/nerrad567/gray-logic-diagnostics/internal/resource"
)

// Domain errors for the diagnostics package.
//
// Sentinels are checked with errors.Is; the typed errors below also match
// their sentinel:
//
//	if errors.Is(err, diagnostics.ErrTransportFailure) {
//	    var tf *diagnostics.TransportFailure
//	    errors.As(err, &tf)
//	}
var (
	// ErrNoTarget is returned by Issue when the target resource is nil.
	ErrNoTarget = errors.New("diagnostics: no target resource")

	// ErrBusy is returned by Issue under BusyReject when the command is already pending.
	ErrBusy = errors.New("diagnostics: command already pending")

	// ErrSendFailed is returned by Issue when the first remote call could not be sent.
	ErrSendFailed = errors.New("diagnostics: request not sent")

	// ErrUnknownCommand is delivered when the command name is not in the catalog.
	ErrUnknownCommand = errors.New("diagnostics: unknown command")

	// ErrTransportFailure matches every *TransportFailure.
	ErrTransportFailure = errors.New("diagnostics: transport failure")

	// ErrInvalidChild matches every *InvalidChildError.
	ErrInvalidChild = errors.New("diagnostics: invalid child resource")
)

// Step names a remote call in a dispatch sequence.
type Step string

// Steps, in the order a collection sequence visits them. StepUpdate is the
// only step of the simple path.
const (
	StepUpdate           Step = "update"
	StepDiscoverChildren Step = "discover_children"
	StepCreateActionSet  Step = "create_action_set"
	StepExecuteActionSet Step = "execute_action_set"
)

// TransportFailure reports a non-success code from one remote step.
// Code is resource.CodeSendFailed when the step could not be sent at all,
// in which case Err holds the send error.
type TransportFailure struct {
	Step Step
	Code resource.Code
	Err  error
}

func (e *TransportFailure) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("diagnostics: %s failed: %s: %v", e.Step, e.Code, e.Err)
	}
	return fmt.Sprintf("diagnostics: %s failed: %s", e.Step, e.Code)
}

// Is matches ErrTransportFailure.
func (e *TransportFailure) Is(target error) bool {
	return target == ErrTransportFailure
}

func (e *TransportFailure) Unwrap() error {
	return e.Err
}

// FailedStep returns the step of the TransportFailure in err's chain.
func FailedStep(err error) (Step, bool) {
	var tf *TransportFailure
	if errors.As(err, &tf) {
		return tf.Step, true
	}
	return "", false
}

// InvalidChildError reports a collection child whose URI has no host
// before a known namespace marker.
type InvalidChildError struct {
	Index int
	URI   string
}

func (e *InvalidChildError) Error() string {
	return fmt.Sprintf("diagnostics: child %d has no resolvable host: %q", e.Index, e.URI)
}

// Is matches ErrInvalidChild.
func (e *InvalidChildError) Is(target error) bool {
	return target == ErrInvalidChild
}
