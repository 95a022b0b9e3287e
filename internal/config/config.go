// YAML config loader with CUE validation integration
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"fleetview-sim/internal/fleet"
)

// Reference engine cadence and animation constants.
const (
	DefaultTelemetryInterval = time.Second
	DefaultFrameInterval     = time.Second / 60
	DefaultPathRate          = 0.048
	DefaultMinSpeed          = 0.3
	DefaultLowBattery        = 40.0
	DefaultHighTemperature   = 55.0
)

// Engine controls the two clocks and the motion constants.
type Engine struct {
	TelemetryInterval time.Duration `yaml:"telemetry_interval"`
	FrameInterval     time.Duration `yaml:"frame_interval"`
	PathRate          float64       `yaml:"path_rate"`
	MinSpeed          float64       `yaml:"min_speed"`
}

// Viewpoint tunes the observer camera.
type Viewpoint struct {
	Home         fleet.Vec3 `yaml:"home"`
	LookAt       fleet.Vec3 `yaml:"look_at"`
	FocusOffset  fleet.Vec3 `yaml:"focus_offset"`
	PositionGain float64    `yaml:"position_gain"`
	RotationGain float64    `yaml:"rotation_gain"`
	PointerPitch float64    `yaml:"pointer_pitch"`
	PointerYaw   float64    `yaml:"pointer_yaw"`
}

// Alerts holds the thresholds used by the "alert status" command.
type Alerts struct {
	LowBattery      float64 `yaml:"low_battery"`
	HighTemperature float64 `yaml:"high_temperature"`
}

// Config is the root configuration for the engine, camera, alerts and seed fleet.
type Config struct {
	Engine    Engine        `yaml:"engine"`
	Viewpoint Viewpoint     `yaml:"viewpoint"`
	Alerts    Alerts        `yaml:"alerts"`
	Fleet     []fleet.Robot `yaml:"fleet"`
}

// Default returns the reference configuration with the four-robot seed.
func Default() *Config {
	cfg := &Config{Fleet: fleet.DefaultSeed()}
	cfg.ApplyDefaults()
	return cfg
}

// ApplyDefaults fills zero values with the reference constants.
// An empty fleet is left empty.
func (c *Config) ApplyDefaults() {
	if c.Engine.TelemetryInterval <= 0 {
		c.Engine.TelemetryInterval = DefaultTelemetryInterval
	}
	if c.Engine.FrameInterval <= 0 {
		c.Engine.FrameInterval = DefaultFrameInterval
	}
	if c.Engine.PathRate <= 0 {
		c.Engine.PathRate = DefaultPathRate
	}
	if c.Engine.MinSpeed <= 0 {
		c.Engine.MinSpeed = DefaultMinSpeed
	}
	if c.Alerts.LowBattery <= 0 {
		c.Alerts.LowBattery = DefaultLowBattery
	}
	if c.Alerts.HighTemperature <= 0 {
		c.Alerts.HighTemperature = DefaultHighTemperature
	}
	v := &c.Viewpoint
	if v.Home == (fleet.Vec3{}) {
		v.Home = fleet.Vec3{X: 0, Y: 3.5, Z: 8}
	}
	if v.LookAt == (fleet.Vec3{}) {
		v.LookAt = fleet.Vec3{X: 0, Y: 1, Z: 0}
	}
	if v.FocusOffset == (fleet.Vec3{}) {
		v.FocusOffset = fleet.Vec3{X: 3, Y: 3, Z: 5}
	}
	if v.PositionGain <= 0 {
		v.PositionGain = 0.02
	}
	if v.RotationGain <= 0 {
		v.RotationGain = 0.05
	}
	if v.PointerPitch == 0 {
		v.PointerPitch = 0.3
	}
	if v.PointerYaw == 0 {
		v.PointerYaw = 0.5
	}
}

// Load loads YAML config and validates it against a CUE schema.
// A config without a fleet section gets the reference seed.
func Load(configPath, cueSchemaPath string) (*Config, error) {
	// Validate with CUE first
	if err := ValidateWithCue(configPath, cueSchemaPath); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if len(cfg.Fleet) == 0 {
		cfg.Fleet = fleet.DefaultSeed()
	}
	if _, err := fleet.NormalizeSeed(cfg.Fleet); err != nil {
		return nil, fmt.Errorf("fleet: %w", err)
	}
	cfg.ApplyDefaults()
	return &cfg, nil
}

// LoadSeed reads a bare YAML list of robots, e.g. an exported roster.
func LoadSeed(path string) ([]fleet.Robot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed: %w", err)
	}
	var robots []fleet.Robot
	if err := yaml.Unmarshal(data, &robots); err != nil {
		return nil, fmt.Errorf("decode seed: %w", err)
	}
	return fleet.NormalizeSeed(robots)
}
