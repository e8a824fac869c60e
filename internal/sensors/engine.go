// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package sensors simulates the inertial and magnetic sensors of a handheld
// device from its attitude and on-screen motion.
//
// Every engine owns its physical state and one sampler. Update advances the
// continuous "true" value; Sample hands that value to the sampler, which
// decides whether it becomes the new readout.
package sensors

import (
	"time"
)

// Names used in logs, topics and configuration.
const (
	NameAccelerometer = "accelerometer"
	NameGyroscope     = "gyroscope"
	NameMagnetometer  = "magnetometer"
)

// Engine is the sampling surface common to all simulated sensors.
type Engine interface {
	Name() string
	// Sample offers the current true value to the sampler.
	// It reports whether a new readout was published.
	Sample(now time.Time) bool

	Enabled() bool
	SetEnabled(enabled bool)
	Averaging() bool
	SetAveraging(averaging bool)
	Period() time.Duration
	SetPeriod(period time.Duration)
	Published() uint64
}

var (
	_ Engine = (*Accelerometer)(nil)
	_ Engine = (*Gyroscope)(nil)
	_ Engine = (*Magnetometer)(nil)
)
