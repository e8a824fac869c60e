// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package vector holds the 3D value type shared by the simulated sensors.
//
// A Vector3 carries no frame information: whether it is expressed in the
// world (lab) frame or in the device body frame is decided by the caller.
package vector

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/relabs-tech/inertial_simulator/internal/orientation"
)

// Vector3 is a physical quantity (m/s², µT, ...) along x, y and z.
// All operations return new values.
type Vector3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// New builds a Vector3 from its components.
func New(x, y, z float64) Vector3 {
	return Vector3{X: x, Y: y, Z: z}
}

// Scale multiplies every component by factor.
func (v Vector3) Scale(factor float64) Vector3 {
	return Vector3{X: v.X * factor, Y: v.Y * factor, Z: v.Z * factor}
}

// Add returns the component-wise sum of v and other.
func (v Vector3) Add(other Vector3) Vector3 {
	return Vector3{X: v.X + other.X, Y: v.Y + other.Y, Z: v.Z + other.Z}
}

// IsFinite reports whether no component is NaN or infinite.
func (v Vector3) IsFinite() bool {
	return !math.IsNaN(v.X) && !math.IsInf(v.X, 0) &&
		!math.IsNaN(v.Y) && !math.IsInf(v.Y, 0) &&
		!math.IsNaN(v.Z) && !math.IsInf(v.Z, 0)
}

// Norm is the Euclidean length.
func (v Vector3) Norm() float64 {
	return math.Sqrt(v.X*v.X + v.Y*v.Y + v.Z*v.Z)
}

// Clamp limits every component to [-limit, limit]. NaN components become 0.
func (v Vector3) Clamp(limit float64) Vector3 {
	return Vector3{X: clamp(v.X, limit), Y: clamp(v.Y, limit), Z: clamp(v.Z, limit)}
}

// RotateWorldToBody expresses a world-frame vector in the body frame of a
// device with the given attitude.
//
// The device attitude is R = Rz(yaw) · Ry(pitch) · Rx(roll), which maps body
// coordinates to world coordinates. The sensors see the world through the
// inverse, so the result is Rᵀ · v.
func (v Vector3) RotateWorldToBody(p orientation.Pose) Vector3 {
	r := AttitudeMatrix(p)

	var out mat.VecDense
	out.MulVec(r.T(), mat.NewVecDense(3, []float64{v.X, v.Y, v.Z}))

	return Vector3{X: out.AtVec(0), Y: out.AtVec(1), Z: out.AtVec(2)}
}

// AttitudeMatrix returns the body-to-world rotation Rz(yaw) · Ry(pitch) · Rx(roll).
// Angles in p are degrees.
func AttitudeMatrix(p orientation.Pose) *mat.Dense {
	var zy, zyx mat.Dense
	zy.Mul(rotZ(radians(p.Yaw)), rotY(radians(p.Pitch)))
	zyx.Mul(&zy, rotX(radians(p.Roll)))
	return &zyx
}

func rotX(a float64) *mat.Dense {
	s, c := math.Sincos(a)
	return mat.NewDense(3, 3, []float64{
		1, 0, 0,
		0, c, -s,
		0, s, c,
	})
}

func rotY(a float64) *mat.Dense {
	s, c := math.Sincos(a)
	return mat.NewDense(3, 3, []float64{
		c, 0, s,
		0, 1, 0,
		-s, 0, c,
	})
}

func rotZ(a float64) *mat.Dense {
	s, c := math.Sincos(a)
	return mat.NewDense(3, 3, []float64{
		c, -s, 0,
		s, c, 0,
		0, 0, 1,
	})
}

func radians(deg float64) float64 {
	return deg * math.Pi / 180.0
}

func clamp(x, limit float64) float64 {
	if math.IsNaN(x) {
		return 0
	}
	if x > limit {
		return limit
	}
	if x < -limit {
		return -limit
	}
	return x
}
