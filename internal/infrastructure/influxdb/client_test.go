package influxdb

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"

	"github.com/nerrad567/gray-logic-diagnostics/internal/diagnostics"
	"github.com/nerrad567/gray-logic-diagnostics/internal/infrastructure/config"
	"github.com/nerrad567/gray-logic-diagnostics/internal/resource"
)

// =============================================================================
// Fakes
// =============================================================================

type fakeWriter struct {
	mu      sync.Mutex
	points  []*write.Point
	flushes int
}

func (f *fakeWriter) WritePoint(p *write.Point) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.points = append(f.points, p)
}

func (f *fakeWriter) Flush() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.flushes++
}

func (f *fakeWriter) lines() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.points))
	for _, p := range f.points {
		out = append(out, write.PointToLineProtocol(p, time.Nanosecond))
	}
	return out
}

type fakeServer struct {
	healthy bool
	err     error
	closed  bool
}

func (f *fakeServer) Ping(ctx context.Context) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	return f.healthy, f.err
}

func (f *fakeServer) Close() { f.closed = true }

func newTestClient() (*Client, *fakeWriter, *fakeServer) {
	w := &fakeWriter{}
	s := &fakeServer{healthy: true}
	return newClient(s, w), w, s
}

// =============================================================================
// Connection Tests
// =============================================================================

func TestConnect_Disabled(t *testing.T) {
	_, err := Connect(config.InfluxDBConfig{Enabled: false})
	if !errors.Is(err, ErrDisabled) {
		t.Errorf("Connect() error = %v, want ErrDisabled", err)
	}
}

func TestConnect_Unreachable(t *testing.T) {
	_, err := Connect(config.InfluxDBConfig{
		Enabled: true,
		URL:     "http://127.0.0.1:59999",
		Token:   "t",
		Org:     "graylogic",
		Bucket:  "diagnostics",
	})
	if !errors.Is(err, ErrConnectionFailed) {
		t.Errorf("Connect() error = %v, want ErrConnectionFailed", err)
	}
}

func TestHealthCheck(t *testing.T) {
	tests := []struct {
		name    string
		server  fakeServer
		close   bool
		wantErr error
	}{
		{name: "healthy", server: fakeServer{healthy: true}},
		{name: "unhealthy", server: fakeServer{healthy: false}, wantErr: errors.New("any")},
		{name: "ping error", server: fakeServer{err: errors.New("refused")}, wantErr: errors.New("any")},
		{name: "closed", server: fakeServer{healthy: true}, close: true, wantErr: ErrNotConnected},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := tt.server
			c := newClient(&server, &fakeWriter{})
			if tt.close {
				c.Close() //nolint:errcheck // Close never fails
			}

			err := c.HealthCheck(context.Background())
			switch {
			case tt.wantErr == nil && err != nil:
				t.Errorf("HealthCheck() error = %v", err)
			case tt.wantErr != nil && err == nil:
				t.Error("HealthCheck() expected error")
			case errors.Is(tt.wantErr, ErrNotConnected) && !errors.Is(err, ErrNotConnected):
				t.Errorf("HealthCheck() error = %v, want ErrNotConnected", err)
			}
		})
	}
}

func TestClose(t *testing.T) {
	c, w, s := newTestClient()

	if err := c.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if c.IsConnected() {
		t.Error("IsConnected() = true after Close()")
	}
	if !s.closed || w.flushes != 1 {
		t.Errorf("closed = %v, flushes = %d; want true, 1", s.closed, w.flushes)
	}

	// Second close and flush are no-ops.
	if err := c.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}
	c.Flush()
	if w.flushes != 1 {
		t.Errorf("flushes = %d after Close, want 1", w.flushes)
	}

	var nilClient *Client
	if err := nilClient.Close(); err != nil {
		t.Errorf("Close() on nil client error = %v", err)
	}
}

func TestForwardErrors(t *testing.T) {
	c, _, _ := newTestClient()

	got := make(chan error, 1)
	c.SetOnError(func(err error) { got <- err })

	errs := make(chan error, 1)
	errs <- errors.New("bucket not found")
	close(errs)
	c.forwardErrors(errs)

	select {
	case err := <-got:
		if !errors.Is(err, ErrWriteFailed) {
			t.Errorf("callback error = %v, want ErrWriteFailed", err)
		}
	default:
		t.Fatal("callback not invoked")
	}
}

// =============================================================================
// Write Tests
// =============================================================================

func TestOutcomePoint(t *testing.T) {
	at := time.Unix(1767225600, 0)

	tests := []struct {
		name    string
		result  diagnostics.Result
		want    []string
		notWant []string
	}{
		{
			name: "completed simple",
			result: diagnostics.Result{
				RequestInfo: diagnostics.RequestInfo{Command: diagnostics.CommandReboot, Path: diagnostics.PathSimple},
				Code:        resource.CodeSuccess,
				Duration:    250 * time.Millisecond,
			},
			want:    []string{"diagnostics,", "command=reboot", "path=simple", "status=completed", "code=0i", "duration_ms=250i", " 1767225600000000000"},
			notWant: []string{"step="},
		},
		{
			name: "failed collection step",
			result: diagnostics.Result{
				RequestInfo: diagnostics.RequestInfo{Command: diagnostics.CommandFactoryReset, Path: diagnostics.PathCollection},
				Code:        resource.CodeTimeout,
				Err:         &diagnostics.TransportFailure{Step: diagnostics.StepExecuteActionSet, Code: resource.CodeTimeout},
			},
			want: []string{"command=factoryreset", "path=collection", "status=failed", "step=execute_action_set", "code=4i"},
		},
		{
			name: "aborted without step",
			result: diagnostics.Result{
				RequestInfo: diagnostics.RequestInfo{Command: "halt", Path: diagnostics.PathSimple},
				Code:        resource.CodeError,
				Err:         diagnostics.ErrUnknownCommand,
			},
			want:    []string{"command=halt", "status=failed", "code=1i"},
			notWant: []string{"step="},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			line := write.PointToLineProtocol(OutcomePoint(tt.result, at), time.Nanosecond)
			for _, w := range tt.want {
				if !strings.Contains(line, w) {
					t.Errorf("line %q missing %q", line, w)
				}
			}
			for _, w := range tt.notWant {
				if strings.Contains(line, w) {
					t.Errorf("line %q should not contain %q", line, w)
				}
			}
		})
	}
}

func TestObserver_WritesPoints(t *testing.T) {
	c, w, _ := newTestClient()
	obs := Observer{Client: c}

	info := diagnostics.RequestInfo{Command: diagnostics.CommandReboot, Path: diagnostics.PathSimple}
	obs.Issued(info)
	obs.Completed(diagnostics.Result{RequestInfo: info})

	lines := w.lines()
	if len(lines) != 2 {
		t.Fatalf("points = %d, want 2", len(lines))
	}
	if !strings.HasPrefix(lines[0], MeasurementIssued+",") {
		t.Errorf("first point = %q, want %s", lines[0], MeasurementIssued)
	}
	if !strings.HasPrefix(lines[1], MeasurementOutcome+",") {
		t.Errorf("second point = %q, want %s", lines[1], MeasurementOutcome)
	}
}

func TestWrite_SkippedWhenDisconnected(t *testing.T) {
	c, w, _ := newTestClient()
	c.Close() //nolint:errcheck // Close never fails

	c.WriteDiagnosticOutcome(diagnostics.Result{})
	c.WriteDiagnosticIssued(diagnostics.RequestInfo{})

	var nilClient *Client
	Observer{Client: nilClient}.Completed(diagnostics.Result{})

	if n := len(w.lines()); n != 0 {
		t.Errorf("points = %d after Close, want 0", n)
	}
}
