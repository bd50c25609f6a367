package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"github.com/nerrad567/gray-logic-diagnostics/internal/infrastructure/config"
)

func decodeEntry(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("failed to parse JSON output %q: %v", buf.String(), err)
	}
	return entry
}

func TestNew_Outputs(t *testing.T) {
	for _, cfg := range []config.LoggingConfig{
		{Level: "info", Format: "json", Output: "stdout"},
		{Level: "debug", Format: "text", Output: "stderr"},
		{},
	} {
		if New(cfg, "1.0.0") == nil {
			t.Errorf("New(%+v) returned nil", cfg)
		}
	}
	if Default() == nil {
		t.Error("Default() returned nil")
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input string
		want  slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"DEBUG", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"", slog.LevelInfo},
		{"verbose", slog.LevelInfo},
	}

	for _, tt := range tests {
		if got := parseLevel(tt.input); got != tt.want {
			t.Errorf("parseLevel(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestLogger_DefaultFields(t *testing.T) {
	var buf bytes.Buffer

	logger := NewWithWriter(&buf, config.LoggingConfig{Level: "info", Format: "json"}, "test")
	logger.Component("dispatcher").Info("command issued", "command", "reboot")

	entry := decodeEntry(t, &buf)
	want := map[string]string{
		"msg":       "command issued",
		"command":   "reboot",
		"service":   ServiceName,
		"version":   "test",
		"component": "dispatcher",
	}
	for k, v := range want {
		if entry[k] != v {
			t.Errorf("%s = %v, want %q", k, entry[k], v)
		}
	}
}

func TestLogger_WithIsIndependent(t *testing.T) {
	var buf bytes.Buffer
	parent := NewWithWriter(&buf, config.LoggingConfig{Format: "json"}, "test")
	child := parent.With("request_id", "r1")

	if child == parent {
		t.Fatal("With() should return a new logger")
	}

	parent.Info("parent")
	if entry := decodeEntry(t, &buf); entry["request_id"] != nil {
		t.Errorf("parent entry carries child attribute: %v", entry)
	}
}

func TestNewWithWriter_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer

	logger := NewWithWriter(&buf, config.LoggingConfig{Level: "warn", Format: "text"}, "test")
	logger.Info("hidden")
	logger.Warn("shown")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Error("info entry should be filtered at warn level")
	}
	if !strings.Contains(out, "shown") || !strings.Contains(out, "service="+ServiceName) {
		t.Errorf("unexpected text output: %q", out)
	}
}

func TestLogger_RedactsSecrets(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(&buf, config.LoggingConfig{Format: "json"}, "test")

	logger.Info("connecting", "mqtt_password", "hunter2", "InfluxToken", "abc", "broker", "localhost")

	entry := decodeEntry(t, &buf)
	if entry["mqtt_password"] != redacted || entry["InfluxToken"] != redacted {
		t.Errorf("secrets not redacted: %v", entry)
	}
	if entry["broker"] != "localhost" {
		t.Errorf("broker = %v, want localhost", entry["broker"])
	}
	if strings.Contains(buf.String(), "hunter2") {
		t.Error("raw password leaked into output")
	}
}

func TestDiscard(t *testing.T) {
	log := Discard()
	if log == nil || log.Logger == nil {
		t.Fatal("Discard() returned nil")
	}
	log.Error("dropped", "key", "value")
	log.Component("api").Info("dropped")
}
