// Showrunner - Light Show Orchestration Engine
//
// This is the main entry point for the Showrunner daemon. Showrunner
// drives timed light shows over MQTT: it loads declarative show
// definitions, schedules their events on a drift-free timeline, and
// publishes fixture commands to the broker while recording run history
// and timing telemetry.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/jhickman/showrunner/migrations"

	"github.com/jhickman/showrunner/internal/executor"
	"github.com/jhickman/showrunner/internal/infrastructure/config"
	"github.com/jhickman/showrunner/internal/infrastructure/database"
	"github.com/jhickman/showrunner/internal/infrastructure/influxdb"
	"github.com/jhickman/showrunner/internal/infrastructure/logging"
	"github.com/jhickman/showrunner/internal/infrastructure/mqtt"
	"github.com/jhickman/showrunner/internal/orchestrator"
	"github.com/jhickman/showrunner/internal/pidlock"
	"github.com/jhickman/showrunner/internal/show"
	"github.com/jhickman/showrunner/internal/showfile"
	"github.com/jhickman/showrunner/internal/timeline"
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
	// Cancel on interrupt signals (Ctrl+C, SIGTERM) for graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run is the actual application logic, separated from main for testability.
// Returning an error allows main to handle exit codes consistently.
//
// Parameters:
//   - ctx: Context for cancellation and shutdown signals
//
// Returns:
//   - error: nil on clean shutdown, or error describing failure
func run(ctx context.Context) error {
	// Use default logger until config is loaded
	log := logging.Default()
	log.Info("starting Showrunner",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	// Load configuration
	configPath := getConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log.Info("configuration loaded", "path", configPath)

	// Reinitialise logger with config settings
	log = logging.New(cfg.Logging, version)
	log.Info("logger initialised",
		"level", cfg.Logging.Level,
		"format", cfg.Logging.Format,
	)

	// Single-instance lock: two schedulers driving the same fixtures
	// would interleave their timelines.
	lock := pidlock.New(cfg.Lock.Name, cfg.Lock.Dir)
	acquired, err := lock.AcquireTimeout(ctx, cfg.GetAcquireTimeout())
	if err != nil {
		return fmt.Errorf("acquiring process lock: %w", err)
	}
	if !acquired {
		pid, _ := lock.HolderPID()
		return fmt.Errorf("another instance is already running (pid %d, lock %s)", pid, lock.Path())
	}
	defer func() {
		if releaseErr := lock.Release(); releaseErr != nil {
			log.Error("error releasing process lock", "error", releaseErr)
		}
	}()
	log.Info("process lock acquired", "path", lock.Path())

	// Open database
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

	// Run migrations
	if migrateErr := db.Migrate(ctx); migrateErr != nil {
		return fmt.Errorf("running migrations: %w", migrateErr)
	}
	applied, pending, statusErr := db.MigrationStatus(ctx)
	if statusErr != nil {
		return fmt.Errorf("reading migration status: %w", statusErr)
	}
	log.Info("database migrations complete", "applied", len(applied), "pending", len(pending))

	// Connect to MQTT broker (optional; without it commands are logged only)
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

		mqttClient.SetLogger(log)
		mqttClient.SetOnConnect(func() {
			log.Info("MQTT reconnected")
		})
		mqttClient.SetOnDisconnect(func(err error) {
			log.Warn("MQTT disconnected", "error", err)
		})
	} else {
		log.Info("MQTT disabled, fixture commands will be logged only")
	}

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

	// Verify infrastructure connections are healthy
	if err := healthCheck(ctx, db, mqttClient, influxClient); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	log.Info("all health checks passed")

	// Command executor with bounded worker pool
	exec := executor.New(cfg.Executor.MaxWorkers)
	defer exec.Shutdown()

	// Orchestrator with lifecycle hooks publishing show telemetry
	qos := byte(cfg.MQTT.QoS) //nolint:gosec // validated to 0-2 by config
	opts := []orchestrator.Option{
		orchestrator.WithLogger(log),
		orchestrator.WithRepository(orchestrator.NewSQLiteRepository(db.DB)),
	}
	if influxClient != nil {
		opts = append(opts, orchestrator.WithMetrics(&influxMetrics{client: influxClient}))
	}
	orch := orchestrator.New(exec, showHooks(mqttClient, qos, log), opts...)
	defer orch.Shutdown()

	// Load and compile show definitions
	var publisher showfile.Publisher
	if mqttClient != nil {
		publisher = mqttClient
	} else {
		publisher = &logPublisher{log: log}
	}

	defs, err := showfile.Load(cfg.Shows.Dir)
	if err != nil {
		return fmt.Errorf("loading show definitions: %w", err)
	}
	if len(defs) == 0 {
		return fmt.Errorf("no show definitions found in %s", cfg.Shows.Dir)
	}
	for i := range defs {
		compiled, compileErr := showfile.Compile(&defs[i], publisher, qos)
		if compileErr != nil {
			return fmt.Errorf("compiling shows: %w", compileErr)
		}
		orch.AddShow(compiled)
		log.Info("show registered",
			"show", compiled.Name(),
			"duration", compiled.Duration(),
			"events", len(compiled.Events()),
		)
	}

	// External stop control and liveness status
	if mqttClient != nil {
		topics := mqtt.Topics{}
		stopErr := mqttClient.Subscribe(topics.SystemStop(), qos, func(_ string, _ []byte) error {
			log.Info("stop command received via MQTT")
			orch.Stop()
			return nil
		})
		if stopErr != nil {
			return fmt.Errorf("subscribing to stop topic: %w", stopErr)
		}
		if pubErr := mqttClient.PublishString(topics.SystemStatus(), "online", qos, true); pubErr != nil {
			log.Warn("failed to publish online status", "error", pubErr)
		}
	}

	log.Info("initialisation complete, starting rotation")

	// Resolve the rotation order: configured list, or everything loaded
	rotation := cfg.Shows.Rotation
	if len(rotation) == 0 {
		rotation = orch.ShowNames()
	}

	rc := orchestrator.RunContext{
		"site":    cfg.Site.ID,
		"trigger": "rotation",
	}

	rotateDone := make(chan error, 1)
	go func() {
		rotateDone <- orch.Rotate(ctx, rotation, cfg.Shows.Repeat, rc)
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received, stopping current show")
		orch.Stop()
		<-rotateDone
	case err = <-rotateDone:
		if err != nil && !errors.Is(err, orchestrator.ErrShowInterrupted) {
			return fmt.Errorf("rotation failed: %w", err)
		}
		log.Info("rotation finished")
	}

	log.Info("Showrunner stopped")
	return nil
}

// getConfigPath returns the configuration file path.
// Uses SHOWRUNNER_CONFIG environment variable if set, otherwise default.
func getConfigPath() string {
	if path := os.Getenv("SHOWRUNNER_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}

// healthCheck verifies all infrastructure connections are healthy.
//
// Parameters:
//   - ctx: Context for timeout/cancellation
//   - db: Database connection to check
//   - mqttClient: MQTT client to check (may be nil if disabled)
//   - influxClient: InfluxDB client to check (may be nil if disabled)
//
// Returns:
//   - error: First health check failure, or nil if all healthy
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

// showHooks builds the orchestrator lifecycle hooks. With a connected
// MQTT client they announce runs on the show topics; without one they
// only log. Publish failures never disturb a running show, so they are
// logged and swallowed here.
func showHooks(client *mqtt.Client, qos byte, log *logging.Logger) orchestrator.Hooks {
	topics := mqtt.Topics{}

	publish := func(topic string, payload any) {
		if client == nil {
			return
		}
		data, err := json.Marshal(payload)
		if err != nil {
			log.Error("encoding show announcement", "topic", topic, "error", err)
			return
		}
		if err := client.Publish(topic, data, qos, false); err != nil {
			log.Warn("publishing show announcement", "topic", topic, "error", err)
		}
	}

	return orchestrator.Hooks{
		PreShow: func(_ context.Context, s *show.Show, rc orchestrator.RunContext) error {
			log.Info("show starting", "show", s.Name(), "duration", s.Duration())
			publish(topics.ShowStarted(s.Name()), map[string]any{
				"show":     s.Name(),
				"duration": s.Duration().Seconds(),
				"context":  rc,
				"at":       time.Now().UTC().Format(time.RFC3339Nano),
			})
			return nil
		},
		PostShow: func(_ context.Context, s *show.Show, _ orchestrator.RunContext) error {
			log.Info("show finished", "show", s.Name())
			publish(topics.ShowCompleted(s.Name()), map[string]any{
				"show": s.Name(),
				"at":   time.Now().UTC().Format(time.RFC3339Nano),
			})
			return nil
		},
		OnEvent: func(_ context.Context, ev timeline.Event, s *show.Show, _ orchestrator.RunContext) error {
			publish(topics.ShowEvent(s.Name()), map[string]any{
				"show":        s.Name(),
				"description": ev.Description,
				"offset":      ev.Offset.Seconds(),
				"commands":    len(ev.Commands),
			})
			return nil
		},
		OnError: func(_ context.Context, err error, ev *timeline.Event, s *show.Show, _ orchestrator.RunContext) error {
			if ev != nil {
				log.Error("show event failed", "show", s.Name(), "event", ev.Description, "error", err)
			} else {
				log.Error("show failed before first event", "show", s.Name(), "error", err)
			}
			return nil
		},
	}
}

// influxMetrics adapts the InfluxDB client to the orchestrator's
// Metrics interface, which uses the typed RunStatus.
type influxMetrics struct {
	client *influxdb.Client
}

func (m *influxMetrics) RecordEventTiming(showName, event string, scheduled, actual time.Duration) {
	m.client.RecordEventTiming(showName, event, scheduled, actual)
}

func (m *influxMetrics) RecordRun(showName string, status orchestrator.RunStatus, duration time.Duration, eventsFired int) {
	m.client.RecordRun(showName, string(status), duration, eventsFired)
}

// logPublisher stands in for the MQTT client when the broker is
// disabled: fixture commands are logged instead of published, which
// keeps rehearsal runs possible without infrastructure.
type logPublisher struct {
	log *logging.Logger
}

func (p *logPublisher) Publish(topic string, payload []byte, _ byte, _ bool) error {
	p.log.Info("fixture command (MQTT disabled)", "topic", topic, "payload", string(payload))
	return nil
}
