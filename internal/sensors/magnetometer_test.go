// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package sensors

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relabs-tech/inertial_simulator/internal/orientation"
	"github.com/relabs-tech/inertial_simulator/internal/vector"
)

func TestMagnetometerIdentity(t *testing.T) {
	m := NewMagnetometer()
	m.Update(orientation.Pose{})

	requireVecInDelta(t, vector.New(5.9395, 22.8741, -43.1805), m.Value(), 1e-9)
}

func TestMagnetometerYaw90(t *testing.T) {
	m := NewMagnetometer()
	m.Update(orientation.Pose{Yaw: 90})

	requireVecInDelta(t, vector.New(22.8741, -5.9395, -43.1805), m.Value(), 1e-9)
}

func TestMagnetometerPreservesFieldStrength(t *testing.T) {
	m := NewMagnetometer()
	strength := m.EarthField().Norm()

	for _, p := range []orientation.Pose{{Roll: 10, Pitch: 20, Yaw: 30}, {Roll: 359, Pitch: -90, Yaw: 180}} {
		m.Update(p)
		assert.InDelta(t, strength, m.Value().Norm(), 1e-9)
	}
}

func TestMagnetometerCustomField(t *testing.T) {
	m := NewMagnetometer()
	m.SetEarthField(20000, 0, 40000)
	m.Update(orientation.Pose{})

	requireVecInDelta(t, vector.New(0, 20, -40), m.Value(), 1e-9)
}

func TestMagnetometerSampling(t *testing.T) {
	m := NewMagnetometer()
	m.SetEnabled(false)
	m.Update(orientation.Pose{})

	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	require.False(t, m.Sample(now))
	assert.Equal(t, vector.Vector3{}, m.Last())

	m.SetEnabled(true)
	require.True(t, m.Sample(now))
	requireVecInDelta(t, m.Value(), m.Last(), 0)
}
