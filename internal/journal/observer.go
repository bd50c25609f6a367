package journal

import (
	"context"
	"time"

	"github.com/nerrad567/gray-logic-diagnostics/internal/diagnostics"
)

// writeTimeout bounds each journal write made from a dispatcher callback.
const writeTimeout = 5 * time.Second

// Logger defines the logging interface used by the Observer.
type Logger interface {
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Observer writes dispatcher lifecycle events to a Repository.
// Write failures are logged; they never affect the request.
type Observer struct {
	repo   Repository
	logger Logger
}

var _ diagnostics.Observer = (*Observer)(nil)

// NewObserver creates an Observer over repo.
func NewObserver(repo Repository) *Observer {
	return &Observer{repo: repo, logger: noopLogger{}}
}

// SetLogger sets the logger for the observer.
func (o *Observer) SetLogger(logger Logger) {
	o.logger = logger
}

// Issued records a pending entry.
func (o *Observer) Issued(info diagnostics.RequestInfo) {
	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()

	if err := o.repo.Record(ctx, info); err != nil {
		o.logger.Error("journal record failed", "request_id", info.ID, "error", err)
	}
}

// Completed records the terminal outcome.
func (o *Observer) Completed(res diagnostics.Result) {
	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()

	if err := o.repo.Complete(ctx, res); err != nil {
		o.logger.Error("journal complete failed", "request_id", res.ID, "error", err)
	}
}
