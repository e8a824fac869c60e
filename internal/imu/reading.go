// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package imu

import (
	"fmt"
	"time"

	"github.com/relabs-tech/inertial_simulator/internal/orientation"
	"github.com/relabs-tech/inertial_simulator/internal/sensors"
	"github.com/relabs-tech/inertial_simulator/internal/vector"
)

// Reading is an immutable snapshot of the latest published readouts.
// Each field holds the sensor's last readout, not its current true value.
type Reading struct {
	Tick uint64    `json:"tick"`
	Time time.Time `json:"time"`

	Accelerometer vector.Vector3          `json:"accelerometer"` // m/s², body frame
	Gyroscope     sensors.AngularVelocity `json:"gyroscope"`     // rad/s
	Magnetometer  vector.Vector3          `json:"magnetometer"`  // µT, body frame

	// Orientation is the input pose the tick was computed from.
	Orientation orientation.Pose `json:"orientation"`
}

// String formats the readouts with two decimals.
func (r Reading) String() string {
	return fmt.Sprintf("accel=%s gyro=%s mag=%s", FormatVector(r.Accelerometer), FormatAngular(r.Gyroscope), FormatVector(r.Magnetometer))
}

// FormatVector renders "x, y, z" with two decimals.
func FormatVector(v vector.Vector3) string {
	return fmt.Sprintf("%.2f, %.2f, %.2f", v.X, v.Y, v.Z)
}

// FormatAngular renders "pitch, yaw, roll" with two decimals.
func FormatAngular(w sensors.AngularVelocity) string {
	return fmt.Sprintf("%.2f, %.2f, %.2f", w.Pitch, w.Yaw, w.Roll)
}
