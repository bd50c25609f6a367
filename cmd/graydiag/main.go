// Gray Logic Diagnostics - reboot and factory reset dispatcher
//
// This is the main entry point for the diagnostics service. It issues
// reboot and factory reset commands against configured resources through
// the OIC bridge and records every outcome:
//   - SQLite request journal
//   - InfluxDB time series (optional)
//   - Prometheus counters on /metrics
//   - WebSocket and MQTT outcome streams
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/nerrad567/gray-logic-diagnostics/internal/api"
	"github.com/nerrad567/gray-logic-diagnostics/internal/bridges/oic"
	"github.com/nerrad567/gray-logic-diagnostics/internal/diagnostics"
	"github.com/nerrad567/gray-logic-diagnostics/internal/infrastructure/config"
	"github.com/nerrad567/gray-logic-diagnostics/internal/infrastructure/database"
	"github.com/nerrad567/gray-logic-diagnostics/internal/infrastructure/influxdb"
	"github.com/nerrad567/gray-logic-diagnostics/internal/infrastructure/logging"
	"github.com/nerrad567/gray-logic-diagnostics/internal/infrastructure/mqtt"
	"github.com/nerrad567/gray-logic-diagnostics/internal/journal"
	"github.com/nerrad567/gray-logic-diagnostics/internal/metrics"
	"github.com/nerrad567/gray-logic-diagnostics/internal/resource"
	"github.com/nerrad567/gray-logic-diagnostics/migrations"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"     // Semantic version (e.g., "1.0.0")
	commit  = "unknown" // Git commit hash
	date    = "unknown" // Build date
)

// Default configuration file path
const defaultConfigPath = "configs/config.yaml"

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run starts the service and blocks until ctx is cancelled.
//
// Parameters:
//   - ctx: Context for cancellation and shutdown signals
//   - configPath: YAML config file to load
//
// Returns:
//   - error: nil on clean shutdown, or error describing failure
func run(ctx context.Context, configPath string) error {
	log := logging.Default()
	log.Info("starting Gray Logic Diagnostics",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log.Info("configuration loaded", "path", configPath)

	log = logging.New(cfg.Logging, version)
	log.Info("logger initialised",
		"level", cfg.Logging.Level,
		"format", cfg.Logging.Format,
	)

	// Resource directory is validated before any connection is made.
	directory, err := buildDirectory(cfg.Diagnostics.Resources)
	if err != nil {
		return fmt.Errorf("loading resource directory: %w", err)
	}
	log.Info("resource directory loaded", "resources", directory.Len())

	db, err := database.Open(database.Config{
		Path:        cfg.Database.Path,
		WALMode:     cfg.Database.WALMode,
		BusyTimeout: cfg.Database.BusyTimeout,
	})
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer func() {
		log.Info("closing database")
		if closeErr := db.Close(); closeErr != nil {
			log.Error("error closing database", "error", closeErr)
		}
	}()
	log.Info("database connected", "path", cfg.Database.Path)

	if migrateErr := db.Migrate(ctx, migrations.FS, migrations.Dir); migrateErr != nil {
		return fmt.Errorf("running migrations: %w", migrateErr)
	}
	log.Info("database migrations complete")

	journalRepo := journal.NewSQLiteRepository(db.DB)
	journalObserver := journal.NewObserver(journalRepo)
	journalObserver.SetLogger(log.Component("journal"))

	mqttClient, err := mqtt.Connect(cfg.MQTT)
	if err != nil {
		return fmt.Errorf("connecting to MQTT: %w", err)
	}
	defer func() {
		log.Info("disconnecting from MQTT")
		if closeErr := mqttClient.Close(); closeErr != nil {
			log.Error("error closing MQTT", "error", closeErr)
		}
	}()
	mqttClient.SetLogger(log.Component("mqtt"))
	mqttClient.SetOnConnect(func() {
		log.Info("MQTT reconnected")
	})
	mqttClient.SetOnDisconnect(func(err error) {
		log.Warn("MQTT disconnected", "error", err)
	})
	log.Info("MQTT connected",
		"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
		"client_id", cfg.MQTT.Broker.ClientID,
	)

	// Connect to InfluxDB (optional)
	var influxClient *influxdb.Client
	if cfg.InfluxDB.Enabled {
		influxClient, err = influxdb.Connect(cfg.InfluxDB)
		if err != nil {
			return fmt.Errorf("connecting to InfluxDB: %w", err)
		}
		defer func() {
			log.Info("closing InfluxDB connection")
			if closeErr := influxClient.Close(); closeErr != nil {
				log.Error("error closing InfluxDB", "error", closeErr)
			}
		}()
		influxClient.SetOnError(func(err error) {
			log.Error("InfluxDB write error", "error", err)
		})
		log.Info("InfluxDB connected",
			"url", cfg.InfluxDB.URL,
			"org", cfg.InfluxDB.Org,
			"bucket", cfg.InfluxDB.Bucket,
		)
	} else {
		log.Info("InfluxDB disabled")
	}

	bridge := oic.NewClient(mqttClient, byte(cfg.MQTT.QoS), cfg.GetRequestTimeout())
	bridge.SetLogger(log.Component("oic"))
	if startErr := bridge.Start(); startErr != nil {
		return fmt.Errorf("starting OIC bridge client: %w", startErr)
	}
	// Stop runs before the MQTT client closes so abandoned requests are
	// still published to observers.
	defer func() {
		log.Info("stopping OIC bridge client")
		bridge.Stop()
	}()

	hub := api.NewHub(cfg.WebSocket, log)
	go hub.Run(ctx)

	collector := metrics.New(nil)

	observers := diagnostics.Observers{
		journalObserver,
		collector,
		hub,
		&outcomePublisher{client: mqttClient, log: log},
	}
	if influxClient != nil {
		observers = append(observers, influxdb.Observer{Client: influxClient})
	}

	dispatcher := diagnostics.NewDispatcher(bridge, bridge,
		diagnostics.BusyPolicy(cfg.Diagnostics.BusyPolicy), observers)
	dispatcher.SetLogger(log.Component("diagnostics"))
	collector.TrackPending(dispatcher.Registry())

	server, err := api.New(api.Deps{
		Config:     cfg.API,
		WS:         cfg.WebSocket,
		Logger:     log,
		Dispatcher: dispatcher,
		Resources:  directory,
		Journal:    journalRepo,
		Hub:        hub,
		MQTT:       mqttClient,
		Bridge:     bridge,
		Database:   db,
		Prometheus: collector.Handler(),
		Version:    version,
	})
	if err != nil {
		return fmt.Errorf("creating API server: %w", err)
	}
	if startErr := server.Start(ctx); startErr != nil {
		return fmt.Errorf("starting API server: %w", startErr)
	}
	defer func() {
		if closeErr := server.Close(); closeErr != nil {
			log.Error("error closing API server", "error", closeErr)
		}
	}()

	if err := healthCheck(ctx, db, mqttClient, influxClient); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	log.Info("all health checks passed")

	log.Info("initialisation complete, waiting for shutdown signal")
	<-ctx.Done()
	log.Info("shutdown signal received, cleaning up")

	// Deferred Close() calls run in reverse order:
	// API server, OIC bridge, InfluxDB, MQTT, database.

	log.Info("Gray Logic Diagnostics stopped")
	return nil
}

// getConfigPath returns the configuration file path.
// Uses GRAYDIAG_CONFIG environment variable if set, otherwise default.
func getConfigPath() string {
	if path := os.Getenv("GRAYDIAG_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}

// buildDirectory converts configured resources into a lookup directory.
func buildDirectory(entries []config.ResourceConfig) (*resource.Directory, error) {
	list := make([]*resource.Resource, 0, len(entries))
	for _, e := range entries {
		list = append(list, &resource.Resource{
			ID:         e.ID,
			URI:        e.URI,
			Types:      e.Types,
			Interfaces: e.Interfaces,
		})
	}
	return resource.NewDirectory(list)
}

// healthCheck verifies all infrastructure connections are healthy.
//
// Parameters:
//   - ctx: Context for timeout/cancellation
//   - db: Database connection to check
//   - mqttClient: MQTT client to check
//   - influxClient: InfluxDB client to check (may be nil if disabled)
//
// Returns:
//   - error: First health check failure, or nil if all healthy
func healthCheck(ctx context.Context, db *database.DB, mqttClient *mqtt.Client, influxClient *influxdb.Client) error {
	if err := db.HealthCheck(ctx); err != nil {
		return fmt.Errorf("database: %w", err)
	}

	if err := mqttClient.HealthCheck(ctx); err != nil {
		return fmt.Errorf("mqtt: %w", err)
	}

	if influxClient != nil {
		if err := influxClient.HealthCheck(ctx); err != nil {
			return fmt.Errorf("influxdb: %w", err)
		}
	}

	return nil
}
