package influxdb

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"

	"github.com/nerrad567/gray-logic-diagnostics/internal/diagnostics"
)

// Measurement names.
const (
	MeasurementOutcome = "diagnostics"
	MeasurementIssued  = "diagnostics_issued"
)

// Outcome status tag values.
const (
	statusCompleted = "completed"
	statusFailed    = "failed"
)

// OutcomePoint builds the point recorded for a terminal result.
//
// Tags: command, path, status (completed or failed), step (failed
// transport calls only). Fields: code, duration_ms.
func OutcomePoint(res diagnostics.Result, at time.Time) *write.Point {
	status := statusCompleted
	if !res.OK() {
		status = statusFailed
	}

	tags := map[string]string{
		"command": res.Command,
		"path":    string(res.Path),
		"status":  status,
	}
	if step, ok := diagnostics.FailedStep(res.Err); ok {
		tags["step"] = string(step)
	}

	fields := map[string]interface{}{
		"code":        int64(res.Code),
		"duration_ms": res.Duration.Milliseconds(),
	}

	return write.NewPoint(MeasurementOutcome, tags, fields, at)
}

// WriteDiagnosticOutcome records one terminal result. Non-blocking.
func (c *Client) WriteDiagnosticOutcome(res diagnostics.Result) {
	if !c.IsConnected() {
		return
	}
	c.writer.WritePoint(OutcomePoint(res, time.Now()))
}

// WriteDiagnosticIssued records that a command was accepted. Non-blocking.
func (c *Client) WriteDiagnosticIssued(info diagnostics.RequestInfo) {
	if !c.IsConnected() {
		return
	}
	c.writer.WritePoint(write.NewPoint(MeasurementIssued,
		map[string]string{"command": info.Command, "path": string(info.Path)},
		map[string]interface{}{"count": int64(1)},
		time.Now(),
	))
}

// Observer adapts a Client to diagnostics.Observer.
type Observer struct {
	Client *Client
}

var _ diagnostics.Observer = Observer{}

// Issued implements diagnostics.Observer.
func (o Observer) Issued(info diagnostics.RequestInfo) {
	o.Client.WriteDiagnosticIssued(info)
}

// Completed implements diagnostics.Observer.
func (o Observer) Completed(res diagnostics.Result) {
	o.Client.WriteDiagnosticOutcome(res)
}
