package journal

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/nerrad567/gray-logic-diagnostics/internal/diagnostics"
	"github.com/nerrad567/gray-logic-diagnostics/internal/infrastructure/database"
	"github.com/nerrad567/gray-logic-diagnostics/internal/resource"
	"github.com/nerrad567/gray-logic-diagnostics/migrations"
)

// ─── Helpers ───────────────────────────────────────────────────────

func openTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()

	db, err := database.Open(database.Config{
		Path:        filepath.Join(t.TempDir(), "journal.db"),
		WALMode:     true,
		BusyTimeout: 5,
	})
	if err != nil {
		t.Fatalf("database.Open() error = %v", err)
	}
	t.Cleanup(func() { db.Close() }) //nolint:errcheck // Test cleanup

	if err := db.Migrate(context.Background(), migrations.FS, migrations.Dir); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}

	return NewSQLiteRepository(db.DB)
}

var baseTime = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

func testInfo(id, command string, offset time.Duration) diagnostics.RequestInfo {
	return diagnostics.RequestInfo{
		ID:         id,
		Command:    command,
		ResourceID: "light-1",
		URI:        "coap://10.0.0.5:5683/oic/diag",
		Path:       diagnostics.PathSimple,
		Value:      diagnostics.UpdateValue,
		State:      diagnostics.StateIssued,
		IssuedAt:   baseTime.Add(offset),
	}
}

// ─── Record / Get ──────────────────────────────────────────────────

func TestRecordAndGet(t *testing.T) {
	repo := openTestRepo(t)
	ctx := context.Background()

	info := testInfo("req-1", diagnostics.CommandReboot, 0)
	if err := repo.Record(ctx, info); err != nil {
		t.Fatalf("Record() error = %v", err)
	}

	got, err := repo.Get(ctx, "req-1")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}

	if got.Command != diagnostics.CommandReboot {
		t.Errorf("Command = %q, want %q", got.Command, diagnostics.CommandReboot)
	}
	if got.Status != StatusPending {
		t.Errorf("Status = %q, want %q", got.Status, StatusPending)
	}
	if got.ResourceID != "light-1" || got.URI != info.URI {
		t.Errorf("ResourceID/URI = %q/%q", got.ResourceID, got.URI)
	}
	if !got.IssuedAt.Equal(info.IssuedAt) {
		t.Errorf("IssuedAt = %v, want %v", got.IssuedAt, info.IssuedAt)
	}
	if got.CompletedAt != nil || got.DurationMS != nil || got.Response != nil {
		t.Errorf("pending entry has completion fields: %+v", got)
	}
}

func TestRecord_DuplicateID(t *testing.T) {
	repo := openTestRepo(t)
	ctx := context.Background()

	info := testInfo("req-1", diagnostics.CommandReboot, 0)
	if err := repo.Record(ctx, info); err != nil {
		t.Fatalf("Record() error = %v", err)
	}
	if err := repo.Record(ctx, info); err == nil {
		t.Error("second Record() with same id expected error")
	}
}

func TestGet_NotFound(t *testing.T) {
	repo := openTestRepo(t)

	_, err := repo.Get(context.Background(), "missing")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Get() error = %v, want ErrNotFound", err)
	}
}

// ─── Complete ──────────────────────────────────────────────────────

func TestComplete(t *testing.T) {
	tests := []struct {
		name       string
		result     func(info diagnostics.RequestInfo) diagnostics.Result
		wantStatus Status
		wantCode   string
		wantError  bool
	}{
		{
			name: "success",
			result: func(info diagnostics.RequestInfo) diagnostics.Result {
				info.State = diagnostics.StateCompleted
				rep := resource.Representation{URI: info.URI}
				rep.SetValue("reboot", "true")
				return diagnostics.Result{RequestInfo: info, Code: resource.CodeSuccess, Representation: rep, Duration: 1500 * time.Millisecond}
			},
			wantStatus: StatusCompleted,
			wantCode:   resource.CodeSuccess.String(),
		},
		{
			name: "transport failure",
			result: func(info diagnostics.RequestInfo) diagnostics.Result {
				info.State = diagnostics.StateFailed
				return diagnostics.Result{
					RequestInfo: info,
					Code:        resource.CodeForbidden,
					Err:         &diagnostics.TransportFailure{Step: diagnostics.StepUpdate, Code: resource.CodeForbidden},
					Duration:    20 * time.Millisecond,
				}
			},
			wantStatus: StatusFailed,
			wantCode:   resource.CodeForbidden.String(),
			wantError:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := openTestRepo(t)
			repo.now = func() time.Time { return baseTime.Add(2 * time.Second) }
			ctx := context.Background()

			info := testInfo("req-1", diagnostics.CommandReboot, 0)
			if err := repo.Record(ctx, info); err != nil {
				t.Fatalf("Record() error = %v", err)
			}
			res := tt.result(info)
			if err := repo.Complete(ctx, res); err != nil {
				t.Fatalf("Complete() error = %v", err)
			}

			got, err := repo.Get(ctx, "req-1")
			if err != nil {
				t.Fatalf("Get() error = %v", err)
			}
			if got.Status != tt.wantStatus {
				t.Errorf("Status = %q, want %q", got.Status, tt.wantStatus)
			}
			if got.State != res.State {
				t.Errorf("State = %q, want %q", got.State, res.State)
			}
			if got.Code != tt.wantCode {
				t.Errorf("Code = %q, want %q", got.Code, tt.wantCode)
			}
			if (got.Error != "") != tt.wantError {
				t.Errorf("Error = %q, wantError %v", got.Error, tt.wantError)
			}
			if got.CompletedAt == nil || !got.CompletedAt.Equal(baseTime.Add(2*time.Second)) {
				t.Errorf("CompletedAt = %v", got.CompletedAt)
			}
			if got.DurationMS == nil || *got.DurationMS != res.Duration.Milliseconds() {
				t.Errorf("DurationMS = %v, want %d", got.DurationMS, res.Duration.Milliseconds())
			}
		})
	}
}

func TestComplete_StoresResponse(t *testing.T) {
	repo := openTestRepo(t)
	ctx := context.Background()

	info := testInfo("req-1", diagnostics.CommandReboot, 0)
	if err := repo.Record(ctx, info); err != nil {
		t.Fatalf("Record() error = %v", err)
	}

	rep := resource.Representation{URI: "/oic/diag"}
	rep.SetValue("reboot", "true")
	if err := repo.Complete(ctx, diagnostics.Result{RequestInfo: info, Representation: rep}); err != nil {
		t.Fatalf("Complete() error = %v", err)
	}

	got, err := repo.Get(ctx, "req-1")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.Response == nil {
		t.Fatal("Response is nil")
	}
	if v, _ := got.Response.Value("reboot"); v != "true" {
		t.Errorf("Response reboot = %q, want %q", v, "true")
	}
}

func TestComplete_Twice(t *testing.T) {
	repo := openTestRepo(t)
	ctx := context.Background()

	info := testInfo("req-1", diagnostics.CommandReboot, 0)
	if err := repo.Record(ctx, info); err != nil {
		t.Fatalf("Record() error = %v", err)
	}
	res := diagnostics.Result{RequestInfo: info}
	if err := repo.Complete(ctx, res); err != nil {
		t.Fatalf("Complete() error = %v", err)
	}

	if err := repo.Complete(ctx, res); !errors.Is(err, ErrAlreadyCompleted) {
		t.Errorf("second Complete() error = %v, want ErrAlreadyCompleted", err)
	}
}

func TestComplete_WithoutRecord(t *testing.T) {
	repo := openTestRepo(t)
	ctx := context.Background()

	info := testInfo("req-1", diagnostics.CommandFactoryReset, 0)
	info.State = diagnostics.StateFailed
	res := diagnostics.Result{RequestInfo: info, Code: resource.CodeSendFailed, Err: diagnostics.ErrSendFailed}

	if err := repo.Complete(ctx, res); err != nil {
		t.Fatalf("Complete() error = %v", err)
	}

	got, err := repo.Get(ctx, "req-1")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.Status != StatusFailed || got.Command != diagnostics.CommandFactoryReset {
		t.Errorf("entry = %+v", got)
	}
}

// ─── List ──────────────────────────────────────────────────────────

func TestList(t *testing.T) {
	repo := openTestRepo(t)
	ctx := context.Background()

	// Five reboots, two factory resets; one reboot completes.
	for i, cmd := range []string{
		diagnostics.CommandReboot, diagnostics.CommandReboot, diagnostics.CommandFactoryReset,
		diagnostics.CommandReboot, diagnostics.CommandReboot, diagnostics.CommandFactoryReset,
		diagnostics.CommandReboot,
	} {
		info := testInfo(string(rune('a'+i)), cmd, time.Duration(i)*time.Millisecond)
		if err := repo.Record(ctx, info); err != nil {
			t.Fatalf("Record(%d) error = %v", i, err)
		}
	}
	if err := repo.Complete(ctx, diagnostics.Result{RequestInfo: testInfo("a", diagnostics.CommandReboot, 0)}); err != nil {
		t.Fatalf("Complete() error = %v", err)
	}

	tests := []struct {
		name      string
		filter    Filter
		wantTotal int
		wantLen   int
		wantFirst string
		wantLimit int
	}{
		{name: "all", filter: Filter{}, wantTotal: 7, wantLen: 7, wantFirst: "g", wantLimit: defaultLimit},
		{name: "by command", filter: Filter{Command: diagnostics.CommandFactoryReset}, wantTotal: 2, wantLen: 2, wantFirst: "f", wantLimit: defaultLimit},
		{name: "by status", filter: Filter{Status: StatusCompleted}, wantTotal: 1, wantLen: 1, wantFirst: "a", wantLimit: defaultLimit},
		{name: "by uri", filter: Filter{URI: "coap://other/oic/diag"}, wantTotal: 0, wantLen: 0, wantLimit: defaultLimit},
		{name: "paged", filter: Filter{Limit: 2, Offset: 1}, wantTotal: 7, wantLen: 2, wantFirst: "f", wantLimit: 2},
		{name: "limit clamped", filter: Filter{Limit: 1000, Offset: -5}, wantTotal: 7, wantLen: 7, wantFirst: "g", wantLimit: maxLimit},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := repo.List(ctx, tt.filter)
			if err != nil {
				t.Fatalf("List() error = %v", err)
			}
			if got.Total != tt.wantTotal {
				t.Errorf("Total = %d, want %d", got.Total, tt.wantTotal)
			}
			if len(got.Entries) != tt.wantLen {
				t.Fatalf("len(Entries) = %d, want %d", len(got.Entries), tt.wantLen)
			}
			if got.Limit != tt.wantLimit {
				t.Errorf("Limit = %d, want %d", got.Limit, tt.wantLimit)
			}
			if got.Offset < 0 {
				t.Errorf("Offset = %d, want >= 0", got.Offset)
			}
			if tt.wantLen > 0 && got.Entries[0].ID != tt.wantFirst {
				t.Errorf("Entries[0].ID = %q, want %q", got.Entries[0].ID, tt.wantFirst)
			}
		})
	}
}

func TestList_EmptyIsNotNil(t *testing.T) {
	repo := openTestRepo(t)

	got, err := repo.List(context.Background(), Filter{})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if got.Entries == nil {
		t.Error("Entries should be an empty slice, not nil")
	}
}
