package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/nerrad567/gray-logic-diagnostics/internal/diagnostics"
	"github.com/nerrad567/gray-logic-diagnostics/internal/resource"
)

type fixedPending int

func (p fixedPending) Len() int { return int(p) }

func reboot(id string) diagnostics.RequestInfo {
	return diagnostics.RequestInfo{ID: id, Command: diagnostics.CommandReboot, Path: diagnostics.PathSimple}
}

func TestCollector_IssuedAndCompleted(t *testing.T) {
	c := New(nil)

	c.Issued(reboot("r1"))
	c.Issued(reboot("r2"))
	c.Completed(diagnostics.Result{RequestInfo: reboot("r1"), Duration: 200 * time.Millisecond})
	c.Completed(diagnostics.Result{
		RequestInfo: reboot("r2"),
		Code:        resource.CodeTimeout,
		Err:         &diagnostics.TransportFailure{Step: diagnostics.StepUpdate, Code: resource.CodeTimeout},
		Duration:    30 * time.Second,
	})

	if got := testutil.ToFloat64(c.issued.WithLabelValues("reboot", "simple")); got != 2 {
		t.Errorf("issued = %v, want 2", got)
	}

	tests := []struct {
		status, step string
		want         float64
	}{
		{"completed", "", 1},
		{"failed", "update", 1},
		{"failed", "", 0},
	}
	for _, tt := range tests {
		got := testutil.ToFloat64(c.completed.WithLabelValues("reboot", "simple", tt.status, tt.step))
		if got != tt.want {
			t.Errorf("completed{status=%q,step=%q} = %v, want %v", tt.status, tt.step, got, tt.want)
		}
	}

	if n := testutil.CollectAndCount(c.duration); n != 1 {
		t.Errorf("duration series = %d, want 1", n)
	}
}

func TestCollector_UnknownCommandHasNoStep(t *testing.T) {
	c := New(nil)
	c.Completed(diagnostics.Result{
		RequestInfo: diagnostics.RequestInfo{Command: "selftest", Path: diagnostics.PathSimple},
		Err:         diagnostics.ErrUnknownCommand,
	})

	if got := testutil.ToFloat64(c.completed.WithLabelValues("selftest", "simple", "failed", "")); got != 1 {
		t.Errorf("completed = %v, want 1", got)
	}
}

func TestCollector_Handler(t *testing.T) {
	c := New(fixedPending(3))
	c.Issued(reboot("r1"))

	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	body, _ := io.ReadAll(rec.Body) //nolint:errcheck // Recorder body cannot fail
	for _, want := range []string{
		"graydiag_diagnostics_pending 3",
		`graydiag_diagnostics_issued_total{command="reboot",path="simple"} 1`,
		"go_goroutines",
	} {
		if !strings.Contains(string(body), want) {
			t.Errorf("exposition missing %q", want)
		}
	}
}

func TestCollector_TrackPendingAfterNew(t *testing.T) {
	c := New(nil)
	c.TrackPending(fixedPending(2))

	if n, err := testutil.GatherAndCount(c.Gatherer(), "graydiag_diagnostics_pending"); err != nil || n != 1 {
		t.Errorf("pending series = %d, err = %v, want 1", n, err)
	}
}
