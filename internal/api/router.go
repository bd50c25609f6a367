package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// healthCheckTimeout bounds each dependency probe made by /health.
const healthCheckTimeout = 2 * time.Second

// buildRouter creates the HTTP router with all routes and middleware.
func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(withRequestID)
	r.Use(s.accessLog)
	r.Use(s.cors)
	r.Use(middleware.RequestSize(maxRequestBodySize))

	if s.prom != nil {
		r.Method(http.MethodGet, "/metrics", s.prom)
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.Get("/metrics", s.handleMetrics)

		r.Route("/diagnostics", func(r chi.Router) {
			r.Get("/", s.handleListUnits)
			r.Get("/pending", s.handleListPending)
			r.Get("/requests", s.handleListRequests)
			r.Get("/requests/{requestID}", s.handleGetRequest)
		})

		r.Route("/resources", func(r chi.Router) {
			r.Get("/", s.handleListResources)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.handleGetResource)
				r.Post("/reboot", s.handleReboot)
				r.Post("/factory-reset", s.handleFactoryReset)
			})
		})

		r.Get("/ws", s.handleWebSocket)
	})

	return r
}

// handleHealth reports "ok" when every configured dependency answers,
// "degraded" otherwise. The status code is 200 either way.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	checks := map[string]string{}
	status := "ok"

	if s.db != nil {
		ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
		if err := s.db.HealthCheck(ctx); err != nil {
			checks["database"] = err.Error()
			status = "degraded"
		} else {
			checks["database"] = "ok"
		}
		cancel()
	}

	if s.mqtt != nil {
		if s.mqtt.IsConnected() {
			checks["mqtt"] = "ok"
		} else {
			checks["mqtt"] = "disconnected"
			status = "degraded"
		}
	}

	if s.bridge != nil {
		// Only an explicit offline degrades; unknown means no status yet.
		bridge := s.bridge.BridgeStatus()
		checks["oic_bridge"] = bridge
		if bridge == "offline" {
			status = "degraded"
		}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status":  status,
		"version": s.version,
		"checks":  checks,
	})
}
