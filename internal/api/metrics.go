package api

import (
	"net/http"
	"runtime"
	"time"
)

// SystemMetrics is the /metrics response.
type SystemMetrics struct {
	Timestamp     string             `json:"timestamp"`
	Version       string             `json:"version"`
	UptimeSeconds int64              `json:"uptime_seconds"`
	Runtime       RuntimeMetrics     `json:"runtime"`
	WebSocket     WSMetrics          `json:"websocket"`
	MQTT          *MQTTMetrics       `json:"mqtt,omitempty"`
	Bridge        *BridgeMetrics     `json:"oic_bridge,omitempty"`
	Database      *DatabaseMetrics   `json:"database,omitempty"`
	Diagnostics   DiagnosticsMetrics `json:"diagnostics"`
}

// RuntimeMetrics contains Go runtime statistics.
type RuntimeMetrics struct {
	Goroutines    int     `json:"goroutines"`
	MemoryAllocMB float64 `json:"memory_alloc_mb"`
	MemoryTotalMB float64 `json:"memory_total_mb"`
	NumGC         uint32  `json:"num_gc"`
}

// WSMetrics contains WebSocket hub statistics.
type WSMetrics struct {
	ConnectedClients int `json:"connected_clients"`
}

// MQTTMetrics contains MQTT client statistics.
type MQTTMetrics struct {
	Connected     bool `json:"connected"`
	Subscriptions int  `json:"subscriptions"`
}

// BridgeMetrics describes the OIC bridge as seen from this side.
type BridgeMetrics struct {
	Status   string `json:"status"`
	InFlight int    `json:"in_flight"`
}

// DatabaseMetrics contains database connection pool statistics.
type DatabaseMetrics struct {
	OpenConnections int   `json:"open_connections"`
	InUse           int   `json:"in_use"`
	Idle            int   `json:"idle"`
	WaitCount       int64 `json:"wait_count"`
}

// DiagnosticsMetrics describes the dispatcher and resource directory.
type DiagnosticsMetrics struct {
	Resources int            `json:"resources"`
	Pending   int            `json:"pending"`
	ByCommand map[string]int `json:"pending_by_command"`

	// OldestPendingSeconds is the age of the longest-waiting request. The
	// dispatcher has no timeout, so a growing value points at a stuck bridge.
	OldestPendingSeconds float64 `json:"oldest_pending_seconds"`
}

const bytesPerMB = 1024 * 1024

// handleMetrics returns runtime, connection and dispatcher statistics.
func (s *Server) handleMetrics(w http.ResponseWriter, _ *http.Request) {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	metrics := SystemMetrics{
		Timestamp:     time.Now().UTC().Format(time.RFC3339),
		Version:       s.version,
		UptimeSeconds: int64(time.Since(s.startTime).Seconds()),
		Runtime: RuntimeMetrics{
			Goroutines:    runtime.NumGoroutine(),
			MemoryAllocMB: float64(memStats.Alloc) / bytesPerMB,
			MemoryTotalMB: float64(memStats.TotalAlloc) / bytesPerMB,
			NumGC:         memStats.NumGC,
		},
		WebSocket: WSMetrics{ConnectedClients: s.hub.ClientCount()},
	}

	if s.mqtt != nil {
		metrics.MQTT = &MQTTMetrics{
			Connected:     s.mqtt.IsConnected(),
			Subscriptions: s.mqtt.SubscriptionCount(),
		}
	}

	if s.bridge != nil {
		metrics.Bridge = &BridgeMetrics{
			Status:   s.bridge.BridgeStatus(),
			InFlight: s.bridge.Pending(),
		}
	}

	if s.db != nil {
		st := s.db.Stats()
		metrics.Database = &DatabaseMetrics{
			OpenConnections: st.OpenConnections,
			InUse:           st.InUse,
			Idle:            st.Idle,
			WaitCount:       st.WaitCount,
		}
	}

	pending := s.dispatcher.Registry().Snapshot()
	metrics.Diagnostics = DiagnosticsMetrics{
		Resources: s.resources.Len(),
		Pending:   len(pending),
		ByCommand: make(map[string]int, len(pending)),
	}
	now := time.Now()
	for _, p := range pending {
		metrics.Diagnostics.ByCommand[p.Command]++
		if age := now.Sub(p.IssuedAt).Seconds(); age > metrics.Diagnostics.OldestPendingSeconds {
			metrics.Diagnostics.OldestPendingSeconds = age
		}
	}

	writeJSON(w, http.StatusOK, metrics)
}
