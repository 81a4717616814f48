package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}
	return configPath
}

func TestLoad_ValidConfig(t *testing.T) {
	content := `
node:
  id: "node-7"
  zone: "zone-B"
mqtt:
  broker:
    host: "broker.local"
    port: 1883
    client_id: "node-7"
  qos: 1
sensors:
  water_probes:
    - name: top
      pin: "16"
    - name: bottom
      pin: "18"
actuators:
  - id: led-1
    device: LED
    pin: "11"
    active_low: true
  - id: pump-1
    device: PUMP
    pin: "13"
    active_low: false
loop:
  sample_interval: 5
`
	cfg, err := Load(writeConfig(t, content))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Node.Zone != "zone-B" {
		t.Errorf("Node.Zone = %q, want %q", cfg.Node.Zone, "zone-B")
	}
	if cfg.MQTT.Broker.Host != "broker.local" {
		t.Errorf("MQTT.Broker.Host = %q, want %q", cfg.MQTT.Broker.Host, "broker.local")
	}
	if len(cfg.Sensors.WaterProbes) != 2 {
		t.Fatalf("WaterProbes = %d, want 2", len(cfg.Sensors.WaterProbes))
	}
	if cfg.Sensors.WaterProbes[1].Name != "bottom" {
		t.Errorf("WaterProbes[1].Name = %q, want bottom", cfg.Sensors.WaterProbes[1].Name)
	}
	if a := cfg.ActuatorByID("pump-1"); a == nil || a.ActiveLow {
		t.Errorf("ActuatorByID(pump-1) = %+v, want active-high pump", a)
	}
	if got := cfg.GetSampleInterval(); got != 5*time.Second {
		t.Errorf("GetSampleInterval() = %v, want 5s", got)
	}

	// Untouched sections keep their defaults.
	if cfg.MQTT.Will.Topic != "client/status" {
		t.Errorf("MQTT.Will.Topic = %q, want default", cfg.MQTT.Will.Topic)
	}
	if cfg.Sensors.Light.Address != 0x23 {
		t.Errorf("Sensors.Light.Address = %#x, want 0x23", cfg.Sensors.Light.Address)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load("/nonexistent/path/config.yaml")
	if err == nil {
		t.Error("Load() expected error for missing file, got nil")
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	_, err := Load(writeConfig(t, "invalid: [yaml: content"))
	if err == nil {
		t.Error("Load() expected error for invalid YAML, got nil")
	}
}

func TestLoad_ValidationFailure(t *testing.T) {
	content := `
node:
  zone: ""
`
	_, err := Load(writeConfig(t, content))
	if err == nil {
		t.Fatal("Load() expected validation error for empty node.zone, got nil")
	}
	if !strings.Contains(err.Error(), "node.zone is required") {
		t.Errorf("error = %v, want node.zone message", err)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("FARMNODE_MQTT_HOST", "mqtt.farm")
	t.Setenv("FARMNODE_MQTT_PORT", "8883")
	t.Setenv("FARMNODE_NODE_ZONE", "zone-C")
	t.Setenv("FARMNODE_HARDWARE_DRIVER", "sim")

	cfg, err := Load(writeConfig(t, "node:\n  id: n1\n"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.MQTT.Broker.Host != "mqtt.farm" {
		t.Errorf("MQTT.Broker.Host = %q, want mqtt.farm", cfg.MQTT.Broker.Host)
	}
	if cfg.MQTT.Broker.Port != 8883 {
		t.Errorf("MQTT.Broker.Port = %d, want 8883", cfg.MQTT.Broker.Port)
	}
	if cfg.Node.Zone != "zone-C" {
		t.Errorf("Node.Zone = %q, want zone-C", cfg.Node.Zone)
	}
	if cfg.Hardware.Driver != DriverSim {
		t.Errorf("Hardware.Driver = %q, want sim", cfg.Hardware.Driver)
	}
}

func TestLoad_InvalidEnvPort(t *testing.T) {
	t.Setenv("FARMNODE_MQTT_PORT", "not-a-port")

	_, err := Load(writeConfig(t, "node:\n  id: n1\n"))
	if err == nil {
		t.Error("Load() expected error for invalid FARMNODE_MQTT_PORT, got nil")
	}
}

func TestLoad_ShippedConfig(t *testing.T) {
	cfg, err := Load(filepath.Join("..", "..", "..", "configs", "config.yaml"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	want := defaultConfig()
	if cfg.Node != want.Node || cfg.MQTT != want.MQTT || cfg.Automation != want.Automation {
		t.Errorf("shipped config drifted from defaults:\n got %+v\nwant %+v", cfg, want)
	}
	if len(cfg.Actuators) != 1 || cfg.Actuators[0] != want.Actuators[0] {
		t.Errorf("Actuators = %+v, want %+v", cfg.Actuators, want.Actuators)
	}
}

func TestDefaultConfig_IsValid(t *testing.T) {
	if err := defaultConfig().Validate(); err != nil {
		t.Errorf("defaultConfig().Validate() = %v, want nil", err)
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(c *Config)
		wantErr string
	}{
		{
			name:   "defaults",
			modify: func(*Config) {},
		},
		{
			name:    "invalid qos",
			modify:  func(c *Config) { c.MQTT.QoS = 3 },
			wantErr: "mqtt.qos",
		},
		{
			name:    "invalid broker port",
			modify:  func(c *Config) { c.MQTT.Broker.Port = 0 },
			wantErr: "mqtt.broker.port",
		},
		{
			name:    "unknown driver",
			modify:  func(c *Config) { c.Hardware.Driver = "arduino" },
			wantErr: "hardware.driver",
		},
		{
			name:    "light settle above conversion time",
			modify:  func(c *Config) { c.Sensors.Light.SettleMS = 500 },
			wantErr: "sensors.light.settle_ms",
		},
		{
			name:    "ph channel out of range",
			modify:  func(c *Config) { c.Sensors.PH.Channel = 8 },
			wantErr: "sensors.ph.channel",
		},
		{
			name:    "ph resolution other than mcp3008",
			modify:  func(c *Config) { c.Sensors.PH.Bits = 12 },
			wantErr: "sensors.ph.bits",
		},
		{
			name:    "disabled ph ignores resolution",
			modify:  func(c *Config) { c.Sensors.PH.Enabled = false; c.Sensors.PH.Bits = 0 },
		},
		{
			name: "duplicate probe names",
			modify: func(c *Config) {
				c.Sensors.WaterProbes = []WaterProbeConfig{{Name: "top", Pin: "16"}, {Name: "top", Pin: "18"}}
			},
			wantErr: "duplicate name",
		},
		{
			name: "duplicate actuator id",
			modify: func(c *Config) {
				c.Actuators = append(c.Actuators, ActuatorConfig{ID: "led-1", Device: "PUMP", Pin: "13"})
			},
			wantErr: "duplicate id",
		},
		{
			name: "duplicate actuator device",
			modify: func(c *Config) {
				c.Actuators = append(c.Actuators, ActuatorConfig{ID: "led-2", Device: "LED", Pin: "13"})
			},
			wantErr: "duplicate device",
		},
		{
			name:    "inverted thresholds",
			modify:  func(c *Config) { c.Automation.Low, c.Automation.High = 300, 200 },
			wantErr: "automation.low",
		},
		{
			name:    "automation on unknown actuator",
			modify:  func(c *Config) { c.Automation.Actuator = "fan-1" },
			wantErr: "automation.actuator",
		},
		{
			name:    "unknown strategy",
			modify:  func(c *Config) { c.Automation.Strategy = "schedule" },
			wantErr: "automation.strategy",
		},
		{
			name: "automation disabled ignores thresholds",
			modify: func(c *Config) {
				c.Automation.Enabled = false
				c.Automation.Low, c.Automation.High = 300, 200
			},
		},
		{
			name:    "zero sample interval",
			modify:  func(c *Config) { c.Loop.SampleInterval = 0 },
			wantErr: "loop.sample_interval",
		},
		{
			name: "database path required when enabled",
			modify: func(c *Config) {
				c.Database.Path = ""
			},
			wantErr: "database.path",
		},
		{
			name: "database path ignored when disabled",
			modify: func(c *Config) {
				c.Database.Enabled = false
				c.Database.Path = ""
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaultConfig()
			tt.modify(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() error = %v, want nil", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("Validate() error = nil, want %q", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %v, want it to mention %q", err, tt.wantErr)
			}
		})
	}
}

func TestConfig_Durations(t *testing.T) {
	cfg := defaultConfig()

	if got := cfg.GetSampleInterval(); got != 10*time.Second {
		t.Errorf("GetSampleInterval() = %v, want 10s", got)
	}
	if got := cfg.GetLightSettle(); got != 180*time.Millisecond {
		t.Errorf("GetLightSettle() = %v, want 180ms", got)
	}
	if got := cfg.GetReadTimeout(); got != 10*time.Second {
		t.Errorf("GetReadTimeout() = %v, want 10s", got)
	}
}
