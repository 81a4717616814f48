// farmnode samples a farm zone's sensors, publishes the readings over MQTT
// and drives the zone's relays from MQTT commands.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/nerrad567/farmnode/internal/actuator"
	"github.com/nerrad567/farmnode/internal/api"
	"github.com/nerrad567/farmnode/internal/audit"
	"github.com/nerrad567/farmnode/internal/control"
	"github.com/nerrad567/farmnode/internal/hardware"
	"github.com/nerrad567/farmnode/internal/infrastructure/config"
	"github.com/nerrad567/farmnode/internal/infrastructure/database"
	"github.com/nerrad567/farmnode/internal/infrastructure/influxdb"
	"github.com/nerrad567/farmnode/internal/infrastructure/logging"
	"github.com/nerrad567/farmnode/internal/infrastructure/metrics"
	"github.com/nerrad567/farmnode/internal/infrastructure/mqtt"
	"github.com/nerrad567/farmnode/internal/sensor"
	"github.com/nerrad567/farmnode/migrations"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

const defaultConfigPath = "configs/config.yaml"

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run wires the node and blocks until ctx is cancelled. Any error returned
// is a startup failure; runtime faults are logged and survived.
func run(ctx context.Context) error {
	log := logging.Default()
	log.Info("starting farmnode",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	configPath := getConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	log = logging.New(cfg.Logging, version).With("node_id", cfg.Node.ID, "zone", cfg.Node.Zone)
	log.Info("configuration loaded", "path", configPath)

	// Hardware
	board, err := hardware.Open(cfg)
	if err != nil {
		return fmt.Errorf("opening hardware: %w", err)
	}
	defer func() {
		log.Info("releasing hardware")
		if closeErr := board.Close(); closeErr != nil {
			log.Error("error releasing hardware", "error", closeErr)
		}
	}()
	log.Info("hardware ready", "driver", cfg.Hardware.Driver)

	sensors := buildSensors(cfg, board, log)

	bank, err := buildBank(cfg, board, log)
	if err != nil {
		return fmt.Errorf("building actuator bank: %w", err)
	}
	bank.InitSafe()

	// Audit trail
	var repo audit.Repository = audit.NopRepository{}
	if cfg.Database.Enabled {
		db, dbErr := database.Open(ctx, cfg.Database)
		if dbErr != nil {
			return fmt.Errorf("opening database: %w", dbErr)
		}
		defer func() {
			log.Info("closing database")
			if closeErr := db.Close(); closeErr != nil {
				log.Error("error closing database", "error", closeErr)
			}
		}()
		if migrateErr := db.Migrate(ctx, migrations.FS); migrateErr != nil {
			return fmt.Errorf("running migrations: %w", migrateErr)
		}
		repo = audit.NewSQLiteRepository(db.DB)
		log.Info("audit trail ready", "path", db.Path())
	} else {
		log.Info("audit trail disabled")
	}

	m := metrics.New()

	// InfluxDB mirror (optional, never fatal)
	var mirror control.TelemetryMirror
	if cfg.InfluxDB.Enabled {
		influxClient, influxErr := influxdb.Connect(ctx, cfg.InfluxDB)
		if influxErr != nil {
			log.Warn("InfluxDB mirror unavailable, continuing without it", "error", influxErr)
		} else {
			influxClient.SetOnError(func(err error) {
				log.Error("InfluxDB write error", "error", err)
			})
			defer func() {
				log.Info("closing InfluxDB connection")
				if closeErr := influxClient.Close(); closeErr != nil {
					log.Error("error closing InfluxDB", "error", closeErr)
				}
			}()
			mirror = influxClient
			log.Info("InfluxDB mirror connected", "url", cfg.InfluxDB.URL, "bucket", cfg.InfluxDB.Bucket)
		}
	}

	// Broker session
	session, err := mqtt.Connect(cfg.MQTT)
	if err != nil {
		return fmt.Errorf("connecting to MQTT: %w", err)
	}
	defer func() {
		log.Info("disconnecting from MQTT")
		if closeErr := session.Close(); closeErr != nil {
			log.Error("error closing MQTT", "error", closeErr)
		}
	}()
	session.SetLogger(log)
	session.SetPresenceTopic(mqtt.Topics{}.Presence(cfg.Node.Zone, cfg.Node.ID))
	log.Info("MQTT connected",
		"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
		"client_id", cfg.MQTT.Broker.ClientID,
	)

	bindings, err := control.NewBindings(cfg.Node.Zone, cfg.Actuators)
	if err != nil {
		return fmt.Errorf("building topic bindings: %w", err)
	}
	dispatcher := control.NewDispatcher(bank, bindings, repo, m, log)

	loop := control.NewLoop(control.LoopOptions{
		Zone:      cfg.Node.Zone,
		NodeID:    cfg.Node.ID,
		Sensors:   sensors,
		Rules:     buildRules(cfg),
		Issuer:    buildIssuer(cfg, dispatcher, session, bindings),
		Publisher: session,
		Topic:     mqtt.Topics{}.Telemetry(cfg.Node.Zone),
		Interval:  cfg.GetSampleInterval(),
		Mirror:    mirror,
		Metrics:   m,
		Logger:    log,
	})

	node := control.NewNode(session, bank, bindings, dispatcher, loop, m, log)
	if err := node.Subscribe(); err != nil {
		return fmt.Errorf("subscribing control topics: %w", err)
	}

	// Status API (optional)
	if cfg.API.Enabled {
		server, apiErr := api.New(api.Deps{
			Config:    cfg.API,
			Node:      cfg.Node,
			Logger:    log,
			Session:   session,
			Actuators: bank,
			Telemetry: loop,
			Events:    repo,
			Metrics:   m.Handler(),
			Version:   version,
		})
		if apiErr != nil {
			return fmt.Errorf("creating API server: %w", apiErr)
		}
		if startErr := server.Start(ctx); startErr != nil {
			return fmt.Errorf("starting API server: %w", startErr)
		}
		defer func() {
			if closeErr := server.Close(); closeErr != nil {
				log.Error("error closing API server", "error", closeErr)
			}
		}()
	}

	log.Info("initialisation complete",
		"sensors", len(sensors),
		"actuators", len(bank.IDs()),
		"sample_interval", cfg.GetSampleInterval().String(),
	)

	node.Run(ctx)

	log.Info("shutdown signal received, cleaning up")
	return nil
}

// getConfigPath returns FARMNODE_CONFIG if set, otherwise the default path.
func getConfigPath() string {
	if path := os.Getenv("FARMNODE_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}

// buildSensors returns the configured sensors in telemetry key order:
// ph, each water probe in config order, light.
func buildSensors(cfg *config.Config, board *hardware.Board, log *logging.Logger) []sensor.Sensor {
	var sensors []sensor.Sensor

	if cfg.Sensors.PH.Enabled && board.SPI != nil {
		ph := cfg.Sensors.PH
		sensors = append(sensors, sensor.NewPHSensor(board.SPI, sensor.PHConfig{
			Channel: ph.Channel,
			VRef:    ph.VRef,
			Bits:    ph.Bits,
			Slope:   ph.Slope,
			Offset:  ph.Offset,
		}, log))
	}

	for _, probe := range cfg.Sensors.WaterProbes {
		sensors = append(sensors, sensor.NewWaterProbe(probe.Name, probe.Pin, board.GPIO, log))
	}

	if cfg.Sensors.Light.Enabled && board.I2C != nil {
		sensors = append(sensors, sensor.NewLightSensor(board.I2C, cfg.Sensors.Light.Divisor, cfg.GetLightSettle(), log))
	}

	return sensors
}

func buildBank(cfg *config.Config, board *hardware.Board, log *logging.Logger) (*actuator.Bank, error) {
	relays := make([]*actuator.Relay, 0, len(cfg.Actuators))
	for _, a := range cfg.Actuators {
		relays = append(relays, actuator.NewRelay(actuator.Spec{
			ID:        a.ID,
			Device:    a.Device,
			Pin:       a.Pin,
			ActiveLow: a.ActiveLow,
		}, board.GPIO, log))
	}
	return actuator.NewBank(relays...)
}

func buildRules(cfg *config.Config) []control.HysteresisRule {
	if !cfg.Automation.Enabled {
		return nil
	}
	return []control.HysteresisRule{{
		Sensor:     "light",
		ActuatorID: cfg.Automation.Actuator,
		Low:        cfg.Automation.Low,
		High:       cfg.Automation.High,
	}}
}

func buildIssuer(cfg *config.Config, d *control.Dispatcher, pub control.Publisher, bindings *control.Bindings) control.CommandIssuer {
	if cfg.Automation.Strategy == config.StrategySelfPublish {
		return control.BrokerIssuer{Publisher: pub, Bindings: bindings, QoS: byte(cfg.MQTT.QoS)} // #nosec G115 -- validated 0..2
	}
	return control.LocalIssuer{Dispatcher: d}
}
