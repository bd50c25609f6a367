package oic

import "errors"

// Domain errors for the OIC bridge client.
var (
	// ErrNotStarted is returned when a request is made before Start.
	ErrNotStarted = errors.New("oic: client not started")

	// ErrStopped is returned when a request is made after Stop.
	ErrStopped = errors.New("oic: client stopped")

	// ErrNoResource is returned when a request has no target resource.
	ErrNoResource = errors.New("oic: no target resource")

	// ErrInvalidResponse is returned when a response payload cannot be parsed.
	ErrInvalidResponse = errors.New("oic: invalid response")

	// ErrInvalidHealth is returned when a health payload cannot be parsed.
	ErrInvalidHealth = errors.New("oic: invalid health message")
)
