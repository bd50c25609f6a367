package api

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/nerrad567/gray-logic-diagnostics/internal/diagnostics"
	"github.com/nerrad567/gray-logic-diagnostics/internal/infrastructure/config"
	"github.com/nerrad567/gray-logic-diagnostics/internal/infrastructure/logging"
	"github.com/nerrad567/gray-logic-diagnostics/internal/journal"
	"github.com/nerrad567/gray-logic-diagnostics/internal/resource"
)

// gracefulShutdownTimeout is the maximum time to wait for in-flight requests
// to complete during shutdown.
const gracefulShutdownTimeout = 10 * time.Second

// Dispatcher is the part of *diagnostics.Dispatcher the API drives.
type Dispatcher interface {
	Issue(command string, res *resource.Resource, cb diagnostics.Callback) (string, error)
	Registry() *diagnostics.Registry
}

// HealthChecker is a dependency whose health is reported by /health.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// MQTTStatus reports the broker connection.
type MQTTStatus interface {
	IsConnected() bool
	SubscriptionCount() int
}

// Bridge reports the protocol bridge's last announced availability and
// how many remote calls await a response.
type Bridge interface {
	BridgeStatus() string
	Pending() int
}

// DBStatsProvider exposes connection pool statistics for /metrics.
type DBStatsProvider interface {
	HealthChecker
	Stats() sql.DBStats
}

// Deps holds the dependencies required by the API server.
type Deps struct {
	Config     config.APIConfig
	WS         config.WebSocketConfig // used only when Hub is nil
	Logger     *logging.Logger
	Dispatcher Dispatcher
	Resources  *resource.Directory
	Journal    journal.Repository // optional: request history endpoints return 503 without it
	Hub        *Hub               // optional: created by Start if nil
	MQTT       MQTTStatus         // optional
	Bridge     Bridge             // optional
	Database   DBStatsProvider    // optional
	Prometheus http.Handler       // optional: served at /metrics
	Version    string
}

// Server is the HTTP API server for Gray Logic Diagnostics.
//
// It manages the HTTP listener, routes, middleware and WebSocket hub.
// The server is created with New() and started with Start().
type Server struct {
	cfg        config.APIConfig
	logger     *logging.Logger
	dispatcher Dispatcher
	resources  *resource.Directory
	journal    journal.Repository
	mqtt       MQTTStatus
	bridge     Bridge
	db         DBStatsProvider
	prom       http.Handler
	version    string
	startTime  time.Time

	server      *http.Server
	hub         *Hub
	externalHub bool
	cancel      context.CancelFunc
}

// New creates a new API server with the given dependencies.
//
// The server is not started until Start() is called.
//
// Parameters:
//   - deps: Logger, Dispatcher and Resources are required
//
// Returns:
//   - *Server: Configured server ready to start
//   - error: If required dependencies are missing
func New(deps Deps) (*Server, error) {
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if deps.Dispatcher == nil {
		return nil, fmt.Errorf("dispatcher is required")
	}
	if deps.Resources == nil {
		return nil, fmt.Errorf("resource directory is required")
	}

	s := &Server{
		cfg:        deps.Config,
		logger:     deps.Logger,
		dispatcher: deps.Dispatcher,
		resources:  deps.Resources,
		journal:    deps.Journal,
		mqtt:       deps.MQTT,
		bridge:     deps.Bridge,
		db:         deps.Database,
		prom:       deps.Prometheus,
		version:    deps.Version,
		startTime:  time.Now(),
	}

	if deps.Hub != nil {
		s.hub = deps.Hub
		s.externalHub = true
	} else {
		s.hub = NewHub(deps.WS, deps.Logger)
	}

	return s, nil
}

// Hub returns the server's WebSocket hub.
func (s *Server) Hub() *Hub {
	return s.hub
}

// Handler returns the fully wired HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.buildRouter()
}

// Start begins listening for HTTP connections in a background goroutine.
// The server can be stopped with Close().
func (s *Server) Start(ctx context.Context) error {
	var srvCtx context.Context
	srvCtx, s.cancel = context.WithCancel(ctx)

	if !s.externalHub {
		go s.hub.Run(srvCtx)
	}

	s.server = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port),
		Handler:           s.buildRouter(),
		ReadTimeout:       time.Duration(s.cfg.Timeouts.Read) * time.Second,
		ReadHeaderTimeout: time.Duration(s.cfg.Timeouts.Read) * time.Second,
		WriteTimeout:      time.Duration(s.cfg.Timeouts.Write) * time.Second,
		IdleTimeout:       time.Duration(s.cfg.Timeouts.Idle) * time.Second,
	}

	go func() {
		s.logger.Info("API server starting", "address", s.server.Addr)
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("API server error", "error", err)
		}
	}()

	return nil
}

// Close gracefully shuts down the API server, waiting up to 10 seconds
// for in-flight requests.
func (s *Server) Close() error {
	if s.server == nil {
		return nil
	}

	if s.cancel != nil {
		s.cancel()
	}

	ctx, cancel := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
	defer cancel()

	s.logger.Info("API server shutting down")
	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down API server: %w", err)
	}
	return nil
}

// HealthCheck verifies the API server has been started.
func (s *Server) HealthCheck(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("api health check: %w", ctx.Err())
	default:
	}

	if s.server == nil {
		return fmt.Errorf("api server not started")
	}
	return nil
}
