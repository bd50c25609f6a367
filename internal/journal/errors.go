package journal

import "errors"

var (
	// ErrNotFound is returned when no journal entry has the requested id.
	ErrNotFound = errors.New("journal: entry not found")

	// ErrAlreadyCompleted is returned when Complete targets an entry that is
	// no longer pending.
	ErrAlreadyCompleted = errors.New("journal: entry already completed")
)
