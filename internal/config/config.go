// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"sort"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/relabs-tech/inertial_simulator/internal/sampler"
)

// ErrInvalid is wrapped by every validation error.
var ErrInvalid = errors.New("invalid config")

// Config holds all application configuration values.
type Config struct {
	Simulation    SimulationConfig    `yaml:"simulation"`
	Accelerometer AccelerometerConfig `yaml:"accelerometer"`
	Gyroscope     SensorConfig        `yaml:"gyroscope"`
	Magnetometer  MagnetometerConfig  `yaml:"magnetometer"`
	Input         InputConfig         `yaml:"input"`
	MQTT          MQTTConfig          `yaml:"mqtt"`
	Web           WebConfig           `yaml:"web"`
	Console       ConsoleConfig       `yaml:"console"`
	Log           LogConfig           `yaml:"log"`
}

type SimulationConfig struct {
	TickIntervalMs int     `yaml:"tick_interval_ms"`
	PhysicsStepMs  float64 `yaml:"physics_step_ms"` // 0 integrates each tick in one step
}

// SensorConfig is the sampling setup shared by all sensors.
type SensorConfig struct {
	Enabled   bool   `yaml:"enabled"`
	PeriodMs  int    `yaml:"period_ms"`       // 0 publishes every tick
	Delay     string `yaml:"delay,omitempty"` // fastest, game, ui or normal; overrides period_ms
	Averaging bool   `yaml:"averaging"`
}

type AccelerometerConfig struct {
	SensorConfig `yaml:",inline"`

	SpringConstant float64 `yaml:"spring_constant"`
	Damping        float64 `yaml:"damping"`
	Mass           float64 `yaml:"mass"`
}

// MagnetometerConfig carries the Earth field in nT.
type MagnetometerConfig struct {
	SensorConfig `yaml:",inline"`

	FieldNorth    float64 `yaml:"field_north_nt"`
	FieldEast     float64 `yaml:"field_east_nt"`
	FieldVertical float64 `yaml:"field_vertical_nt"`
}

// InputConfig is the initial device state and the automatic input driver.
type InputConfig struct {
	Mock           bool    `yaml:"mock"` // drive orientation from the sinusoidal mock source
	MockIntervalMs int     `yaml:"mock_interval_ms"`
	Yaw            float64 `yaml:"yaw"`
	Pitch          float64 `yaml:"pitch"`
	Roll           float64 `yaml:"roll"`
	TargetX        float64 `yaml:"target_x"`
	TargetZ        float64 `yaml:"target_z"`
}

type MQTTConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Broker   string `yaml:"broker"`
	ClientID string `yaml:"client_id"` // a random suffix is appended per process

	// Output topics, retained.
	TopicReadings      string `yaml:"topic_readings"`
	TopicAccelerometer string `yaml:"topic_accelerometer"`
	TopicGyroscope     string `yaml:"topic_gyroscope"`
	TopicMagnetometer  string `yaml:"topic_magnetometer"`

	// Input topics.
	TopicOrientation string `yaml:"topic_orientation"`
	TopicTarget      string `yaml:"topic_target"`
}

type WebConfig struct {
	Enabled bool `yaml:"enabled"`
	Port    int  `yaml:"port"`
}

type ConsoleConfig struct {
	IntervalMs int `yaml:"interval_ms"`
}

type LogConfig struct {
	Level string `yaml:"level"` // debug, info, warn or error
}

// Default returns the stock simulator configuration.
func Default() *Config {
	sensor := SensorConfig{Enabled: true, PeriodMs: 200}

	return &Config{
		Simulation: SimulationConfig{
			TickIntervalMs: 10,
			PhysicsStepMs:  1,
		},
		Accelerometer: AccelerometerConfig{
			SensorConfig:   sensor,
			SpringConstant: 500,
			Damping:        50,
			Mass:           1,
		},
		Gyroscope: sensor,
		Magnetometer: MagnetometerConfig{
			SensorConfig:  sensor,
			FieldNorth:    22874.1,
			FieldEast:     5939.5,
			FieldVertical: 43180.5,
		},
		Input: InputConfig{
			MockIntervalMs: 50,
		},
		MQTT: MQTTConfig{
			Enabled:            false,
			Broker:             "tcp://localhost:1883",
			ClientID:           "inertial-sim",
			TopicReadings:      "inertial_sim/readings",
			TopicAccelerometer: "inertial_sim/accelerometer",
			TopicGyroscope:     "inertial_sim/gyroscope",
			TopicMagnetometer:  "inertial_sim/magnetometer",
			TopicOrientation:   "inertial_sim/input/orientation",
			TopicTarget:        "inertial_sim/input/target",
		},
		Web: WebConfig{
			Enabled: true,
			Port:    8080,
		},
		Console: ConsoleConfig{
			IntervalMs: 500,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// TickInterval is the simulation tick period.
func (c SimulationConfig) TickInterval() time.Duration {
	return time.Duration(c.TickIntervalMs) * time.Millisecond
}

// PhysicsStep is the largest spring integration step.
func (c SimulationConfig) PhysicsStep() time.Duration {
	return time.Duration(c.PhysicsStepMs * float64(time.Millisecond))
}

// Period is the sample period, taken from Delay when it names a preset.
func (c SensorConfig) Period() time.Duration {
	if c.Delay != "" {
		if d, err := sampler.ParseDelay(c.Delay); err == nil {
			return d
		}
	}
	return time.Duration(c.PeriodMs) * time.Millisecond
}

// Package-level unexported variables for the singleton:
//   - globalConfig is only set by InitGlobal.
//   - configOnce makes InitGlobal run once.
//   - configMu guards globalConfig; Get takes the read lock.
var (
	globalConfig *Config
	configOnce   sync.Once
	configMu     sync.RWMutex
)

// Load reads a YAML configuration file. Keys missing from the file keep
// their Default values.
func Load(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("config %s: %w", configPath, err)
	}
	return cfg, nil
}

// Parse decodes YAML over the defaults and validates the result.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// DefaultYAML is the default configuration as a commented YAML document.
func DefaultYAML() ([]byte, error) {
	data, err := yaml.Marshal(Default())
	if err != nil {
		return nil, fmt.Errorf("failed to encode default config: %w", err)
	}
	return append([]byte("# inertial_sim configuration\n"), data...), nil
}

// WriteDefault writes the default configuration to path. An existing file
// is only replaced when overwrite is set.
func WriteDefault(path string, overwrite bool) error {
	data, err := DefaultYAML()
	if err != nil {
		return err
	}

	flags := os.O_WRONLY | os.O_CREATE | os.O_TRUNC
	if !overwrite {
		flags |= os.O_EXCL
	}
	f, err := os.OpenFile(path, flags, 0o644)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer f.Close()

	if _, err := f.Write(data); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// Validate checks ranges and required fields.
func (c *Config) Validate() error {
	if c.Simulation.TickIntervalMs <= 0 {
		return invalid("simulation.tick_interval_ms must be positive")
	}
	if err := finite(map[string]float64{
		"simulation.physics_step_ms":     c.Simulation.PhysicsStepMs,
		"accelerometer.spring_constant":  c.Accelerometer.SpringConstant,
		"accelerometer.damping":          c.Accelerometer.Damping,
		"accelerometer.mass":             c.Accelerometer.Mass,
		"magnetometer.field_north_nt":    c.Magnetometer.FieldNorth,
		"magnetometer.field_east_nt":     c.Magnetometer.FieldEast,
		"magnetometer.field_vertical_nt": c.Magnetometer.FieldVertical,
		"input.yaw":                      c.Input.Yaw,
		"input.pitch":                    c.Input.Pitch,
		"input.roll":                     c.Input.Roll,
		"input.target_x":                 c.Input.TargetX,
		"input.target_z":                 c.Input.TargetZ,
	}); err != nil {
		return err
	}
	if c.Simulation.PhysicsStepMs < 0 {
		return invalid("simulation.physics_step_ms must not be negative")
	}

	sensors := []struct {
		name string
		cfg  SensorConfig
	}{
		{"accelerometer", c.Accelerometer.SensorConfig},
		{"gyroscope", c.Gyroscope},
		{"magnetometer", c.Magnetometer.SensorConfig},
	}
	for _, s := range sensors {
		if s.cfg.PeriodMs < 0 {
			return invalid("%s.period_ms must not be negative", s.name)
		}
		if s.cfg.Delay != "" {
			if _, err := sampler.ParseDelay(s.cfg.Delay); err != nil {
				return invalid("%s.delay: %v", s.name, err)
			}
		}
	}

	if c.Accelerometer.SpringConstant < 0 {
		return invalid("accelerometer.spring_constant must not be negative")
	}
	if c.Accelerometer.Damping < 0 {
		return invalid("accelerometer.damping must not be negative")
	}
	if c.Accelerometer.Mass <= 0 {
		return invalid("accelerometer.mass must be positive")
	}

	if c.Input.Mock && c.Input.MockIntervalMs <= 0 {
		return invalid("input.mock_interval_ms must be positive")
	}

	if c.MQTT.Enabled {
		if c.MQTT.Broker == "" {
			return invalid("mqtt.broker is required")
		}
		if c.MQTT.TopicReadings == "" {
			return invalid("mqtt.topic_readings is required")
		}
	}

	if c.Web.Enabled && (c.Web.Port <= 0 || c.Web.Port > 65535) {
		return invalid("web.port %d out of range", c.Web.Port)
	}
	if c.Console.IntervalMs <= 0 {
		return invalid("console.interval_ms must be positive")
	}

	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return invalid("log.level %q is not one of debug, info, warn, error", c.Log.Level)
	}
	return nil
}

// finite rejects NaN and infinite values. YAML accepts .nan and .inf for
// any float field.
func finite(fields map[string]float64) error {
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		v := fields[name]
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return invalid("%s must be a finite number, got %v", name, v)
		}
	}
	return nil
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalid, fmt.Sprintf(format, args...))
}

// InitGlobal initializes the global configuration from file.
// Only the first call loads; later calls are no-ops.
func InitGlobal(configPath string) error {
	var err error
	configOnce.Do(func() {
		configMu.Lock()
		defer configMu.Unlock()
		globalConfig, err = Load(configPath)
	})
	return err
}

// Get returns the global configuration instance.
// InitGlobal must be called first, or this will return nil.
func Get() *Config {
	configMu.RLock()
	defer configMu.RUnlock()
	return globalConfig
}
