package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure for a farm node.
// All configuration is loaded from YAML and can be overridden by environment variables.
type Config struct {
	Node       NodeConfig       `yaml:"node"`
	MQTT       MQTTConfig       `yaml:"mqtt"`
	Hardware   HardwareConfig   `yaml:"hardware"`
	Sensors    SensorsConfig    `yaml:"sensors"`
	Actuators  []ActuatorConfig `yaml:"actuators"`
	Loop       LoopConfig       `yaml:"loop"`
	Automation AutomationConfig `yaml:"automation"`
	Database   DatabaseConfig   `yaml:"database"`
	InfluxDB   InfluxDBConfig   `yaml:"influxdb"`
	API        APIConfig        `yaml:"api"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// NodeConfig identifies the node and the zone it monitors.
type NodeConfig struct {
	ID   string `yaml:"id"`
	Zone string `yaml:"zone"`
}

// MQTTConfig contains MQTT broker connection settings.
type MQTTConfig struct {
	Broker       MQTTBrokerConfig    `yaml:"broker"`
	Auth         MQTTAuthConfig      `yaml:"auth"`
	QoS          int                 `yaml:"qos"`
	CleanSession bool                `yaml:"clean_session"`
	KeepAlive    int                 `yaml:"keep_alive"`
	Reconnect    MQTTReconnectConfig `yaml:"reconnect"`
	Will         MQTTWillConfig      `yaml:"will"`
}

// MQTTBrokerConfig contains MQTT broker connection details.
type MQTTBrokerConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	TLS      bool   `yaml:"tls"`
	ClientID string `yaml:"client_id"`
}

// MQTTAuthConfig contains MQTT authentication credentials.
type MQTTAuthConfig struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// MQTTReconnectConfig contains MQTT reconnection settings (seconds).
type MQTTReconnectConfig struct {
	InitialDelay int `yaml:"initial_delay"`
	MaxDelay     int `yaml:"max_delay"`
}

// MQTTWillConfig is the last-will message the broker publishes on our behalf
// when the connection drops without a clean disconnect.
type MQTTWillConfig struct {
	Topic    string `yaml:"topic"`
	Payload  string `yaml:"payload"`
	QoS      int    `yaml:"qos"`
	Retained bool   `yaml:"retained"`
}

// HardwareConfig selects the board driver.
type HardwareConfig struct {
	// Driver is "raspi" for a Raspberry Pi or "sim" for an in-memory board.
	Driver string `yaml:"driver"`
}

// SensorsConfig lists the sensors fitted to the node.
type SensorsConfig struct {
	PH          PHSensorConfig     `yaml:"ph"`
	Light       LightSensorConfig  `yaml:"light"`
	WaterProbes []WaterProbeConfig `yaml:"water_probes"`
}

// PHSensorConfig describes a pH probe read through an MCP3008 ADC over SPI.
type PHSensorConfig struct {
	Enabled bool    `yaml:"enabled"`
	SPIBus  int     `yaml:"spi_bus"`
	SPIChip int     `yaml:"spi_chip"`
	Channel int     `yaml:"channel"`
	SpeedHz int64   `yaml:"speed_hz"`
	VRef    float64 `yaml:"vref"`
	Bits    int     `yaml:"bits"`
	Slope   float64 `yaml:"slope"`
	Offset  float64 `yaml:"offset"`
}

// LightSensorConfig describes a BH1750 illuminance sensor on I2C.
type LightSensorConfig struct {
	Enabled  bool    `yaml:"enabled"`
	I2CBus   int     `yaml:"i2c_bus"`
	Address  int     `yaml:"address"`
	Divisor  float64 `yaml:"divisor"`
	SettleMS int     `yaml:"settle_ms"`
}

// WaterProbeConfig describes a float switch wired to a pulled-up GPIO input.
type WaterProbeConfig struct {
	Name string `yaml:"name"`
	Pin  string `yaml:"pin"`
}

// ActuatorConfig describes one relay-driven device.
type ActuatorConfig struct {
	ID string `yaml:"id"`
	// Device is the command prefix, e.g. "LED" for LED_ON / LED_OFF.
	Device    string `yaml:"device"`
	Pin       string `yaml:"pin"`
	ActiveLow bool   `yaml:"active_low"`
}

// LoopConfig contains sampling loop settings.
type LoopConfig struct {
	// SampleInterval is the telemetry period in seconds.
	SampleInterval int `yaml:"sample_interval"`
}

// AutomationConfig configures the illuminance hysteresis rule.
type AutomationConfig struct {
	Enabled  bool    `yaml:"enabled"`
	Actuator string  `yaml:"actuator"`
	Low      float64 `yaml:"low"`
	High     float64 `yaml:"high"`
	// Strategy is "dispatch" (apply locally) or "self_publish" (publish the
	// command to the node's own control topic).
	Strategy string `yaml:"strategy"`
}

// Automation strategies.
const (
	StrategyDispatch    = "dispatch"
	StrategySelfPublish = "self_publish"
)

// mcp3008Bits is the resolution of the pH ADC the SPI framing targets.
const mcp3008Bits = 10

// Hardware drivers.
const (
	DriverRaspi = "raspi"
	DriverSim   = "sim"
)

// DatabaseConfig contains SQLite database settings for the audit trail.
type DatabaseConfig struct {
	Enabled     bool   `yaml:"enabled"`
	Path        string `yaml:"path"`
	WALMode     bool   `yaml:"wal_mode"`
	BusyTimeout int    `yaml:"busy_timeout"`
}

// InfluxDBConfig contains InfluxDB connection settings.
type InfluxDBConfig struct {
	Enabled       bool   `yaml:"enabled"`
	URL           string `yaml:"url"`
	Token         string `yaml:"token"`
	Org           string `yaml:"org"`
	Bucket        string `yaml:"bucket"`
	BatchSize     int    `yaml:"batch_size"`
	FlushInterval int    `yaml:"flush_interval"`
}

// APIConfig contains status HTTP server settings.
type APIConfig struct {
	Enabled  bool             `yaml:"enabled"`
	Host     string           `yaml:"host"`
	Port     int              `yaml:"port"`
	Timeouts APITimeoutConfig `yaml:"timeouts"`
}

// APITimeoutConfig contains HTTP timeout settings.
type APITimeoutConfig struct {
	Read  int `yaml:"read"`
	Write int `yaml:"write"`
	Idle  int `yaml:"idle"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// maxLightSettle is the longest conversion wait the BH1750 needs in
// high-resolution mode.
const maxLightSettle = 180

// Load reads configuration from a YAML file and applies environment variable overrides.
//
// The configuration loading order is:
//  1. Default values (hardcoded)
//  2. YAML file values (override defaults)
//  3. A .env file next to the working directory, if present
//  4. Environment variables (override file values)
//
// Environment variables follow the pattern: FARMNODE_SECTION_KEY
// For example: FARMNODE_MQTT_HOST, FARMNODE_NODE_ZONE
func Load(path string) (*Config, error) {
	cfg := defaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	// .env is optional; it only seeds variables that are not already set.
	if err := godotenv.Load(".env"); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("reading .env file: %w", err)
	}

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// defaultConfig returns a Config matching the reference node wiring:
// BH1750 at 0x23 on bus 1, a float switch on header pin 16 (GPIO23) and an
// active-low grow-light relay on header pin 11 (GPIO17).
func defaultConfig() *Config {
	return &Config{
		Node: NodeConfig{
			ID:   "farmnode-1",
			Zone: "zone-A",
		},
		MQTT: MQTTConfig{
			Broker: MQTTBrokerConfig{
				Host:     "localhost",
				Port:     1883,
				ClientID: "farmnode-zone-A",
			},
			QoS:          1,
			CleanSession: true,
			KeepAlive:    60,
			Reconnect: MQTTReconnectConfig{
				InitialDelay: 1,
				MaxDelay:     60,
			},
			Will: MQTTWillConfig{
				Topic:   "client/status",
				Payload: "LWT: Client disconnected",
				QoS:     1,
			},
		},
		Hardware: HardwareConfig{Driver: DriverRaspi},
		Sensors: SensorsConfig{
			PH: PHSensorConfig{
				Enabled: true,
				Channel: 0,
				SpeedHz: 1350000,
				VRef:    3.3,
				Bits:    10,
				Slope:   -5.70,
				Offset:  21.34,
			},
			Light: LightSensorConfig{
				Enabled:  true,
				I2CBus:   1,
				Address:  0x23,
				Divisor:  1.2,
				SettleMS: maxLightSettle,
			},
			WaterProbes: []WaterProbeConfig{
				{Name: "top", Pin: "16"},
			},
		},
		Actuators: []ActuatorConfig{
			{ID: "led-1", Device: "LED", Pin: "11", ActiveLow: true},
		},
		Loop: LoopConfig{SampleInterval: 10},
		Automation: AutomationConfig{
			Enabled:  true,
			Actuator: "led-1",
			Low:      200,
			High:     300,
			Strategy: StrategyDispatch,
		},
		Database: DatabaseConfig{
			Enabled:     true,
			Path:        "./data/farmnode.db",
			WALMode:     true,
			BusyTimeout: 5,
		},
		InfluxDB: InfluxDBConfig{
			URL:           "http://localhost:8086",
			Org:           "farm",
			Bucket:        "telemetry",
			BatchSize:     100,
			FlushInterval: 10,
		},
		API: APIConfig{
			Host: "0.0.0.0",
			Port: 8080,
			Timeouts: APITimeoutConfig{
				Read:  10,
				Write: 10,
				Idle:  60,
			},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
	}
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// Environment variables follow the pattern: FARMNODE_SECTION_KEY
func applyEnvOverrides(cfg *Config) error {
	// Node
	if v := os.Getenv("FARMNODE_NODE_ID"); v != "" {
		cfg.Node.ID = v
	}
	if v := os.Getenv("FARMNODE_NODE_ZONE"); v != "" {
		cfg.Node.Zone = v
	}

	// MQTT
	if v := os.Getenv("FARMNODE_MQTT_HOST"); v != "" {
		cfg.MQTT.Broker.Host = v
	}
	if v := os.Getenv("FARMNODE_MQTT_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("FARMNODE_MQTT_PORT: %w", err)
		}
		cfg.MQTT.Broker.Port = port
	}
	if v := os.Getenv("FARMNODE_MQTT_CLIENT_ID"); v != "" {
		cfg.MQTT.Broker.ClientID = v
	}
	if v := os.Getenv("FARMNODE_MQTT_USERNAME"); v != "" {
		cfg.MQTT.Auth.Username = v
	}
	if v := os.Getenv("FARMNODE_MQTT_PASSWORD"); v != "" {
		cfg.MQTT.Auth.Password = v
	}

	// Hardware
	if v := os.Getenv("FARMNODE_HARDWARE_DRIVER"); v != "" {
		cfg.Hardware.Driver = v
	}

	// Database
	if v := os.Getenv("FARMNODE_DATABASE_PATH"); v != "" {
		cfg.Database.Path = v
	}

	// InfluxDB
	if v := os.Getenv("FARMNODE_INFLUXDB_TOKEN"); v != "" {
		cfg.InfluxDB.Token = v
	}

	// Logging
	if v := os.Getenv("FARMNODE_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}

	return nil
}

// Validate checks the configuration for errors.
//
// Returns:
//   - error: Description of every validation failure, or nil if valid
func (c *Config) Validate() error {
	var errs []string

	if c.Node.ID == "" {
		errs = append(errs, "node.id is required")
	}
	if c.Node.Zone == "" {
		errs = append(errs, "node.zone is required")
	}

	// MQTT
	if c.MQTT.Broker.Host == "" {
		errs = append(errs, "mqtt.broker.host is required")
	}
	if c.MQTT.Broker.Port < 1 || c.MQTT.Broker.Port > 65535 {
		errs = append(errs, "mqtt.broker.port must be between 1 and 65535")
	}
	if c.MQTT.Broker.ClientID == "" {
		errs = append(errs, "mqtt.broker.client_id is required")
	}
	if c.MQTT.QoS < 0 || c.MQTT.QoS > 2 {
		errs = append(errs, "mqtt.qos must be 0, 1, or 2")
	}
	if c.MQTT.Will.Topic != "" && (c.MQTT.Will.QoS < 0 || c.MQTT.Will.QoS > 2) {
		errs = append(errs, "mqtt.will.qos must be 0, 1, or 2")
	}

	if c.Hardware.Driver != DriverRaspi && c.Hardware.Driver != DriverSim {
		errs = append(errs, fmt.Sprintf("hardware.driver must be %q or %q", DriverRaspi, DriverSim))
	}

	errs = append(errs, c.validateSensors()...)
	errs = append(errs, c.validateActuators()...)

	if c.Loop.SampleInterval < 1 {
		errs = append(errs, "loop.sample_interval must be at least 1 second")
	}

	if c.Automation.Enabled {
		if c.Automation.Low >= c.Automation.High {
			errs = append(errs, "automation.low must be below automation.high")
		}
		if c.Automation.Strategy != StrategyDispatch && c.Automation.Strategy != StrategySelfPublish {
			errs = append(errs, fmt.Sprintf("automation.strategy must be %q or %q",
				StrategyDispatch, StrategySelfPublish))
		}
		if c.ActuatorByID(c.Automation.Actuator) == nil {
			errs = append(errs, fmt.Sprintf("automation.actuator %q is not a configured actuator", c.Automation.Actuator))
		}
		if !c.Sensors.Light.Enabled {
			errs = append(errs, "automation requires sensors.light to be enabled")
		}
	}

	if c.Database.Enabled && c.Database.Path == "" {
		errs = append(errs, "database.path is required")
	}

	if c.InfluxDB.Enabled && (c.InfluxDB.URL == "" || c.InfluxDB.Bucket == "") {
		errs = append(errs, "influxdb.url and influxdb.bucket are required when enabled")
	}

	if c.API.Enabled && (c.API.Port < 1 || c.API.Port > 65535) {
		errs = append(errs, "api.port must be between 1 and 65535")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}

	return nil
}

func (c *Config) validateSensors() []string {
	var errs []string

	ph := c.Sensors.PH
	if ph.Enabled {
		if ph.Channel < 0 || ph.Channel > 7 {
			errs = append(errs, "sensors.ph.channel must be between 0 and 7")
		}
		if ph.Bits != mcp3008Bits {
			errs = append(errs, fmt.Sprintf("sensors.ph.bits must be %d (MCP3008)", mcp3008Bits))
		}
		if ph.VRef <= 0 {
			errs = append(errs, "sensors.ph.vref must be positive")
		}
	}

	light := c.Sensors.Light
	if light.Enabled {
		if light.Divisor <= 0 {
			errs = append(errs, "sensors.light.divisor must be positive")
		}
		if light.SettleMS < 0 || light.SettleMS > maxLightSettle {
			errs = append(errs, fmt.Sprintf("sensors.light.settle_ms must be between 0 and %d", maxLightSettle))
		}
	}

	seen := make(map[string]bool)
	for i, p := range c.Sensors.WaterProbes {
		if p.Name == "" || p.Pin == "" {
			errs = append(errs, fmt.Sprintf("sensors.water_probes[%d] requires name and pin", i))
			continue
		}
		if seen[p.Name] {
			errs = append(errs, fmt.Sprintf("sensors.water_probes: duplicate name %q", p.Name))
		}
		seen[p.Name] = true
	}

	return errs
}

func (c *Config) validateActuators() []string {
	var errs []string

	ids := make(map[string]bool)
	devices := make(map[string]bool)
	for i, a := range c.Actuators {
		if a.ID == "" || a.Device == "" || a.Pin == "" {
			errs = append(errs, fmt.Sprintf("actuators[%d] requires id, device and pin", i))
			continue
		}
		if ids[a.ID] {
			errs = append(errs, fmt.Sprintf("actuators: duplicate id %q", a.ID))
		}
		// The control topic is derived from the id, so ids must be unique;
		// devices must be unique too or two actuators would share a vocabulary.
		if devices[a.Device] {
			errs = append(errs, fmt.Sprintf("actuators: duplicate device %q", a.Device))
		}
		ids[a.ID] = true
		devices[a.Device] = true
	}

	return errs
}

// ActuatorByID returns the actuator with the given id, or nil.
func (c *Config) ActuatorByID(id string) *ActuatorConfig {
	for i := range c.Actuators {
		if c.Actuators[i].ID == id {
			return &c.Actuators[i]
		}
	}
	return nil
}

// GetSampleInterval returns the sampling period as a Duration.
func (c *Config) GetSampleInterval() time.Duration {
	return time.Duration(c.Loop.SampleInterval) * time.Second
}

// GetLightSettle returns the BH1750 conversion wait as a Duration.
func (c *Config) GetLightSettle() time.Duration {
	return time.Duration(c.Sensors.Light.SettleMS) * time.Millisecond
}

// GetReadTimeout returns the API read timeout as a Duration.
func (c *Config) GetReadTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Read) * time.Second
}

// GetWriteTimeout returns the API write timeout as a Duration.
func (c *Config) GetWriteTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Write) * time.Second
}

// GetIdleTimeout returns the API idle timeout as a Duration.
func (c *Config) GetIdleTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Idle) * time.Second
}
