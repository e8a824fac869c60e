// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package sensors

import (
	"time"

	"github.com/relabs-tech/inertial_simulator/internal/orientation"
	"github.com/relabs-tech/inertial_simulator/internal/sampler"
	"github.com/relabs-tech/inertial_simulator/internal/vector"
)

// Earth field components in nT.
const (
	EarthFieldNorth    = 22874.1
	EarthFieldEast     = 5939.5
	EarthFieldVertical = 43180.5

	nanoToMicroTesla = 0.001
)

// Magnetometer reports the fixed Earth field as seen from the device.
type Magnetometer struct {
	*sampler.Sampler[vector.Vector3]

	// world frame (east, north, -vertical) in µT
	field vector.Vector3

	value vector.Vector3
}

// NewMagnetometer returns a magnetometer for the default Earth field.
func NewMagnetometer() *Magnetometer {
	m := &Magnetometer{Sampler: sampler.New[vector.Vector3]()}
	m.SetEarthField(EarthFieldNorth, EarthFieldEast, EarthFieldVertical)
	return m
}

func (m *Magnetometer) Name() string { return NameMagnetometer }

// SetEarthField sets the world field from its north, east and vertical
// (downward) components in nT.
func (m *Magnetometer) SetEarthField(north, east, vertical float64) {
	m.field = vector.New(east, north, -vertical).Scale(nanoToMicroTesla)
}

// EarthField is the world-frame field in µT.
func (m *Magnetometer) EarthField() vector.Vector3 {
	return m.field
}

// Update rotates the Earth field into the body frame of pose.
func (m *Magnetometer) Update(pose orientation.Pose) {
	m.value = m.field.RotateWorldToBody(pose)
}

// Value is the current true (unsampled) body-frame field in µT.
func (m *Magnetometer) Value() vector.Vector3 {
	return m.value
}

func (m *Magnetometer) Sample(now time.Time) bool {
	return m.OnTick(m.value, now)
}
