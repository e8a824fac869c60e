// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package orientation

import (
	"math"
)

// Pose is the canonical representation of device attitude, in degrees.
//
// After Normalize: yaw in [0,360), pitch in [-90,90], roll in [0,360).
type Pose struct {
	Roll  float64 `json:"roll"`
	Pitch float64 `json:"pitch"`
	Yaw   float64 `json:"yaw"`
}

// Source is anything that can provide poses over time.
type Source interface {
	Next() (Pose, error)
}

// IsFinite reports whether no angle is NaN or infinite.
func (p Pose) IsFinite() bool {
	return finite(p.Roll) && finite(p.Pitch) && finite(p.Yaw)
}

// Normalize folds an arbitrary pose into the canonical ranges.
//
// A pitch beyond ±90° is reflected back into range and yaw and roll are
// turned by 180°, which describes the same attitude. Non-finite angles have
// no attitude to fold and become 0.
func Normalize(p Pose) Pose {
	if !p.IsFinite() {
		p = Pose{Roll: orZero(p.Roll), Pitch: orZero(p.Pitch), Yaw: orZero(p.Yaw)}
	}

	pitch := wrapSigned(p.Pitch)
	yaw, roll := p.Yaw, p.Roll

	switch {
	case pitch > 90:
		pitch = 180 - pitch
		yaw += 180
		roll += 180
	case pitch < -90:
		pitch = -180 - pitch
		yaw += 180
		roll += 180
	}

	return Pose{
		Roll:  wrapUnsigned(roll),
		Pitch: pitch,
		Yaw:   wrapUnsigned(yaw),
	}
}

// TiltFromAccel computes roll and pitch from a body-frame accelerometer
// reading at rest. Yaw is not observable from gravity and is set to 0.
//
// Uses simple tilt formulas:
//
//	roll  = atan2(ay, az)
//	pitch = atan2(-ax, sqrt(ay² + az²))
func TiltFromAccel(ax, ay, az float64) Pose {
	rollRad := math.Atan2(ay, az)
	pitchRad := math.Atan2(-ax, math.Sqrt(ay*ay+az*az))

	return Pose{
		Roll:  rollRad * 180.0 / math.Pi,
		Pitch: pitchRad * 180.0 / math.Pi,
		Yaw:   0,
	}
}

func finite(deg float64) bool {
	return !math.IsNaN(deg) && !math.IsInf(deg, 0)
}

func orZero(deg float64) float64 {
	if !finite(deg) {
		return 0
	}
	return deg
}

// wrapUnsigned maps deg into [0,360).
func wrapUnsigned(deg float64) float64 {
	m := math.Mod(deg, 360)
	if m < 0 {
		m += 360
	}
	if m >= 360 {
		m = 0
	}
	return m
}

// wrapSigned maps deg into [-180,180).
func wrapSigned(deg float64) float64 {
	return wrapUnsigned(deg+180) - 180
}
