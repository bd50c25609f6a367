package main

import (
	"github.com/nerrad567/gray-logic-diagnostics/internal/api"
	"github.com/nerrad567/gray-logic-diagnostics/internal/diagnostics"
	"github.com/nerrad567/gray-logic-diagnostics/internal/infrastructure/mqtt"
)

// jsonPublisher is the part of *mqtt.Client the outcome publisher uses.
type jsonPublisher interface {
	PublishJSON(topic string, v any, retained bool) error
}

// warnLogger is the part of *logging.Logger the outcome publisher uses.
type warnLogger interface {
	Warn(msg string, args ...any)
}

// outcomePublisher publishes terminal outcomes on
// graylogic/core/diagnostics/{command}/completed.
type outcomePublisher struct {
	client jsonPublisher
	log    warnLogger
	topics mqtt.Topics
}

var _ diagnostics.Observer = (*outcomePublisher)(nil)

// Issued is a no-op; only outcomes are published.
func (p *outcomePublisher) Issued(diagnostics.RequestInfo) {}

// Completed publishes res. A failed publish is logged and dropped.
func (p *outcomePublisher) Completed(res diagnostics.Result) {
	topic := p.topics.CoreDiagnosticCompleted(res.Command)
	if err := p.client.PublishJSON(topic, api.NewOutcomeEvent(res), false); err != nil {
		p.log.Warn("publishing diagnostic outcome", "topic", topic, "request_id", res.ID, "error", err)
	}
}
