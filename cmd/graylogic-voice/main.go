// Gray Logic Voice - voice assistant directive engine
//
// This is the main entry point for the Gray Logic Voice service. It accepts
// smart-home directives from a voice skill adapter, executes them against the
// home automation backend's REST API, and answers with a single response
// event carrying the aggregated device state.
//
// Configuration is read from configs/config.yaml, or from the path in
// GRAYLOGIC_CONFIG.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nerrad567/gray-logic-voice/internal/api"
	"github.com/nerrad567/gray-logic-voice/internal/audit"
	"github.com/nerrad567/gray-logic-voice/internal/backend"
	"github.com/nerrad567/gray-logic-voice/internal/directive"
	"github.com/nerrad567/gray-logic-voice/internal/infrastructure/config"
	"github.com/nerrad567/gray-logic-voice/internal/infrastructure/database"
	"github.com/nerrad567/gray-logic-voice/internal/infrastructure/influxdb"
	"github.com/nerrad567/gray-logic-voice/internal/infrastructure/logging"
	"github.com/nerrad567/gray-logic-voice/internal/infrastructure/mqtt"
	"github.com/nerrad567/gray-logic-voice/migrations"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"     // Semantic version (e.g., "1.0.0")
	commit  = "unknown" // Git commit hash
	date    = "unknown" // Build date
)

const (
	// defaultConfigPath is used when GRAYLOGIC_CONFIG is unset.
	defaultConfigPath = "configs/config.yaml"

	// auditQueueSize bounds audit entries waiting for the database.
	auditQueueSize = 1024

	// auditPruneInterval is how often old audit entries are removed.
	auditPruneInterval = time.Hour

	// shutdownTimeout bounds draining the audit queue on exit.
	shutdownTimeout = 10 * time.Second
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run is the application logic, separated from main for testability.
//
// Parameters:
//   - ctx: Context for cancellation and shutdown signals
//
// Returns:
//   - error: nil on clean shutdown, or error describing failure
func run(ctx context.Context) error {
	log := logging.Default()
	log.Info("starting Gray Logic Voice",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	configPath := getConfigPath()
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

	// Audit database
	db, err := database.Open(ctx, database.Config{
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

	if migrateErr := db.Migrate(ctx, migrations.FS); migrateErr != nil {
		return fmt.Errorf("running migrations: %w", migrateErr)
	}
	log.Info("database migrations complete")

	auditRepo := audit.NewSQLiteRepository(db.DB)
	auditWriter := audit.NewWriter(auditRepo, auditQueueSize, log)
	go auditWriter.Run()
	defer func() {
		closeCtx, closeCancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer closeCancel()
		if closeErr := auditWriter.Close(closeCtx); closeErr != nil {
			log.Error("error draining audit log", "error", closeErr)
		}
	}()

	if days := cfg.Database.AuditRetentionDays; days > 0 {
		go audit.RetentionLoop(ctx, auditRepo, time.Duration(days)*24*time.Hour, auditPruneInterval, log)
		log.Info("audit retention enabled", "days", days)
	}

	// Message bus (optional)
	var mqttClient *mqtt.Client
	if cfg.MQTT.Enabled {
		mqttClient, err = mqtt.Connect(cfg.MQTT)
		if err != nil {
			return fmt.Errorf("connecting to MQTT: %w", err)
		}
		defer func() {
			log.Info("disconnecting from MQTT")
			if closeErr := mqttClient.Close(); closeErr != nil {
				log.Error("error closing MQTT", "error", closeErr)
			}
		}()
		log.Info("MQTT connected",
			"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
			"client_id", cfg.MQTT.Broker.ClientID,
		)

		mqttClient.SetOnConnect(func() {
			log.Info("MQTT reconnected")
		})
		mqttClient.SetOnDisconnect(func(err error) {
			log.Warn("MQTT disconnected", "error", err)
		})
	} else {
		log.Info("MQTT disabled")
	}

	// Time-series store (optional)
	var influxClient *influxdb.Client
	if cfg.InfluxDB.Enabled {
		influxClient, err = influxdb.Connect(ctx, cfg.InfluxDB, cfg.Site.ID)
		if err != nil {
			return fmt.Errorf("connecting to InfluxDB: %w", err)
		}
		defer func() {
			log.Info("closing InfluxDB connection")
			if closeErr := influxClient.Close(); closeErr != nil {
				log.Error("error closing InfluxDB", "error", closeErr)
			}
		}()
		log.Info("InfluxDB connected",
			"url", cfg.InfluxDB.URL,
			"org", cfg.InfluxDB.Org,
			"bucket", cfg.InfluxDB.Bucket,
		)

		influxClient.SetOnError(func(err error) {
			log.Error("InfluxDB write error", "error", err)
		})
	} else {
		log.Info("InfluxDB disabled")
	}

	if err := healthCheck(ctx, db, mqttClient, influxClient); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	log.Info("infrastructure health checks passed")

	// Backend and dispatcher
	backendClient, err := backend.NewClient(backend.Options{
		URL:     cfg.Backend.URL,
		Token:   cfg.Backend.Token,
		Timeout: cfg.GetBackendTimeout(),
	})
	if err != nil {
		return fmt.Errorf("creating backend client: %w", err)
	}
	if err := backendClient.HealthCheck(ctx); err != nil {
		// The backend often starts after us; directives fail with
		// ENDPOINT_UNREACHABLE until it is up.
		log.Warn("backend not reachable yet", "url", cfg.Backend.URL, "error", err)
	}

	dispatcher, err := directive.NewDispatcher(directive.Options{
		Backend:        backend.NewMirror(backendClient, mirrorOptions(cfg, mqttClient, influxClient, log)),
		MaxConcurrency: cfg.Directive.MaxConcurrency,
		Logger:         log,
	})
	if err != nil {
		return fmt.Errorf("creating dispatcher: %w", err)
	}

	// API server
	server, err := api.New(apiDeps(cfg, log, dispatcher, auditWriter, auditRepo, db, backendClient, mqttClient, influxClient))
	if err != nil {
		return fmt.Errorf("creating API server: %w", err)
	}
	if err := server.Start(ctx); err != nil {
		return fmt.Errorf("starting API server: %w", err)
	}
	defer func() {
		if closeErr := server.Close(); closeErr != nil {
			log.Error("error closing API server", "error", closeErr)
		}
	}()

	log.Info("initialisation complete, waiting for shutdown signal")

	<-ctx.Done()

	log.Info("shutdown signal received, cleaning up")

	// Deferred calls run in reverse order: API server, InfluxDB, MQTT,
	// audit writer drain, database.

	log.Info("Gray Logic Voice stopped")
	return nil
}

// getConfigPath returns the configuration file path.
// Uses GRAYLOGIC_CONFIG environment variable if set, otherwise default.
func getConfigPath() string {
	if path := os.Getenv("GRAYLOGIC_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}

// healthCheck verifies the infrastructure connections opened at startup.
// MQTT and InfluxDB are skipped when disabled (nil).
func healthCheck(ctx context.Context, db *database.DB, mqttClient *mqtt.Client, influxClient *influxdb.Client) error {
	if err := db.HealthCheck(ctx); err != nil {
		return fmt.Errorf("database: %w", err)
	}

	if mqttClient != nil {
		if err := mqttClient.HealthCheck(ctx); err != nil {
			return fmt.Errorf("mqtt: %w", err)
		}
	}

	if influxClient != nil {
		if err := influxClient.HealthCheck(ctx); err != nil {
			return fmt.Errorf("influxdb: %w", err)
		}
	}

	return nil
}

// mirrorOptions wires the optional sinks for backend traffic. Disabled
// clients stay nil interfaces so the mirror skips them.
func mirrorOptions(cfg *config.Config, mqttClient *mqtt.Client, influxClient *influxdb.Client, log *logging.Logger) backend.MirrorOptions {
	opts := backend.MirrorOptions{
		QoS:    byte(cfg.MQTT.QoS), //nolint:gosec // Validated to 0-2
		Logger: log,
	}
	if mqttClient != nil {
		opts.Publisher = mqttClient
		opts.Topic = mqtt.Topics{}.VoiceCommand
	}
	if influxClient != nil {
		opts.Points = influxClient
	}
	return opts
}

// apiDeps assembles the API server dependencies. Optional collaborators are
// only set when enabled, keeping their interfaces nil otherwise.
func apiDeps(
	cfg *config.Config,
	log *logging.Logger,
	dispatcher *directive.Dispatcher,
	auditWriter *audit.Writer,
	auditRepo audit.Repository,
	db *database.DB,
	backendClient *backend.Client,
	mqttClient *mqtt.Client,
	influxClient *influxdb.Client,
) api.Deps {
	deps := api.Deps{
		Config:     cfg.API,
		WS:         cfg.WebSocket,
		Security:   cfg.Security,
		Logger:     log,
		Dispatcher: dispatcher,
		AuditSink:  auditWriter,
		AuditRepo:  auditRepo,
		HealthChecks: map[string]api.HealthChecker{
			"database": db,
			"backend":  backendClient,
		},
		Version: version,
	}

	if mqttClient != nil {
		deps.Events = mqttClient
		deps.EventsTopic = mqtt.Topics{}.DirectiveEvents()
		deps.EventsQoS = byte(cfg.MQTT.QoS) //nolint:gosec // Validated to 0-2
		deps.HealthChecks["mqtt"] = mqttClient
	}
	if influxClient != nil {
		deps.Metrics = influxClient
		deps.HealthChecks["influxdb"] = influxClient
	}
	return deps
}
