// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package sim

import (
	"time"

	"go.uber.org/zap"

	"github.com/relabs-tech/inertial_simulator/internal/orientation"
)

// SensorSettings is the sampling configuration of one sensor.
type SensorSettings struct {
	Enabled   bool `json:"enabled"`
	PeriodMs  int  `json:"period_ms"`
	Averaging bool `json:"averaging"`
}

// Spring holds the accelerometer spring parameters.
type Spring struct {
	K       float64 `json:"k"`
	Damping float64 `json:"damping"`
}

// Diagnostics exposes engine internals that are not part of the readouts.
type Diagnostics struct {
	Tick uint64 `json:"tick"`

	// Test mass position (pixels) and lab-frame acceleration (pixels/s²).
	MassX  float64 `json:"mass_x"`
	MassZ  float64 `json:"mass_z"`
	LabAX  float64 `json:"lab_ax"`
	LabAZ  float64 `json:"lab_az"`
	Spring Spring  `json:"spring"`

	GyroReference orientation.Pose `json:"gyro_reference"`

	Published map[string]uint64 `json:"published"`
}

// ConfigureSensor applies settings to the named sensor.
func (c *Clock) ConfigureSensor(name string, s SensorSettings) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, err := c.engine(name)
	if err != nil {
		return err
	}
	e.SetEnabled(s.Enabled)
	e.SetPeriod(time.Duration(s.PeriodMs) * time.Millisecond)
	e.SetAveraging(s.Averaging)

	c.log.Debug("sensor configured",
		zap.String("sensor", name),
		zap.Bool("enabled", s.Enabled),
		zap.Int("period_ms", s.PeriodMs),
		zap.Bool("averaging", s.Averaging),
	)
	return nil
}

// SensorSettings returns the current settings of the named sensor.
func (c *Clock) SensorSettings(name string) (SensorSettings, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, err := c.engine(name)
	if err != nil {
		return SensorSettings{}, err
	}
	return SensorSettings{
		Enabled:   e.Enabled(),
		PeriodMs:  int(e.Period() / time.Millisecond),
		Averaging: e.Averaging(),
	}, nil
}

// SetSpring changes the accelerometer spring constant and damping.
func (c *Clock) SetSpring(s Spring) {
	c.mu.Lock()
	c.accel.SetSpring(s.K, s.Damping)
	c.mu.Unlock()
}

// Diagnostics returns a consistent view of the engine internals.
func (c *Clock) Diagnostics() Diagnostics {
	c.mu.Lock()
	defer c.mu.Unlock()

	d := Diagnostics{
		Tick:          c.tick,
		GyroReference: c.gyro.Reference(),
		Published:     make(map[string]uint64, 3),
	}
	d.MassX, d.MassZ = c.accel.MassPosition()
	d.LabAX, d.LabAZ = c.accel.LabAcceleration()
	d.Spring.K, d.Spring.Damping = c.accel.Spring()
	for _, e := range c.engines() {
		d.Published[e.Name()] = e.Published()
	}
	return d
}
