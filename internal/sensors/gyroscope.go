// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package sensors

import (
	"math"
	"time"

	"github.com/relabs-tech/inertial_simulator/internal/orientation"
	"github.com/relabs-tech/inertial_simulator/internal/sampler"
)

const (
	// GyroDeadband is the smallest angle change, in degrees, reported as motion.
	GyroDeadband = 0.10

	// gyroLagDivisor: the reference angle moves 1/20 of the observed delta per tick.
	gyroLagDivisor = 20.0

	// Rotation radii in meters.
	RadiusPitch = 0.1
	RadiusYaw   = 0.15
	RadiusRoll  = 0.1
)

// AngularVelocity is a gyroscope readout in rad/s per attitude axis.
type AngularVelocity struct {
	Pitch float64 `json:"pitch"`
	Yaw   float64 `json:"yaw"`
	Roll  float64 `json:"roll"`
}

func (w AngularVelocity) Add(o AngularVelocity) AngularVelocity {
	return AngularVelocity{Pitch: w.Pitch + o.Pitch, Yaw: w.Yaw + o.Yaw, Roll: w.Roll + o.Roll}
}

func (w AngularVelocity) Scale(f float64) AngularVelocity {
	return AngularVelocity{Pitch: w.Pitch * f, Yaw: w.Yaw * f, Roll: w.Roll * f}
}

// gyroAxis tracks one attitude angle.
type gyroAxis struct {
	reference float64 // lag-filtered last sampled angle, degrees
	radius    float64
}

// rate derives the angular velocity for the current angle and advances the
// reference a fraction of the way towards it.
func (ax *gyroAxis) rate(current, dt float64) float64 {
	delta := current - ax.reference
	if math.IsNaN(delta) || math.IsInf(delta, 0) || math.Abs(delta) <= GyroDeadband {
		return 0
	}

	// arc length over dt is the tangential speed; dividing by the radius
	// again yields the angular velocity
	arc := delta * math.Pi / 180.0 * ax.radius
	tangential := arc / dt
	ax.reference += delta / gyroLagDivisor

	return tangential / ax.radius
}

// Gyroscope differentiates successive attitude samples into angular velocity.
type Gyroscope struct {
	*sampler.Sampler[AngularVelocity]

	pitch, yaw, roll gyroAxis

	value AngularVelocity
}

// NewGyroscope returns a gyroscope whose reference angles start at zero.
func NewGyroscope() *Gyroscope {
	return &Gyroscope{
		Sampler: sampler.New[AngularVelocity](),
		pitch:   gyroAxis{radius: RadiusPitch},
		yaw:     gyroAxis{radius: RadiusYaw},
		roll:    gyroAxis{radius: RadiusRoll},
	}
}

func (g *Gyroscope) Name() string { return NameGyroscope }

// Update derives per-axis angular velocity from pose over dt seconds.
// A non-positive or non-finite dt keeps the previous value and references.
// A non-finite angle reads as no motion on its axis.
func (g *Gyroscope) Update(dt float64, pose orientation.Pose) {
	if !(dt > 0) || math.IsInf(dt, 1) {
		return
	}

	g.value = AngularVelocity{
		Pitch: g.pitch.rate(pose.Pitch, dt),
		Yaw:   g.yaw.rate(pose.Yaw, dt),
		Roll:  g.roll.rate(pose.Roll, dt),
	}
}

// Value is the current true (unsampled) angular velocity.
func (g *Gyroscope) Value() AngularVelocity {
	return g.value
}

// Reference returns the lag-filtered angles the gyroscope compares against.
func (g *Gyroscope) Reference() orientation.Pose {
	return orientation.Pose{Roll: g.roll.reference, Pitch: g.pitch.reference, Yaw: g.yaw.reference}
}

func (g *Gyroscope) Sample(now time.Time) bool {
	return g.OnTick(g.value, now)
}
