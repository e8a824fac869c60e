// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package sensors

import (
	"math"
	"time"

	"github.com/relabs-tech/inertial_simulator/internal/orientation"
	"github.com/relabs-tech/inertial_simulator/internal/sampler"
	"github.com/relabs-tech/inertial_simulator/internal/vector"
)

const (
	// StandardGravity in m/s².
	StandardGravity = 9.80665

	// MetersPerPixel converts on-screen displacement to lab-frame meters.
	MetersPerPixel = 1.0 / 3000

	DefaultSpringConstant = 500.0
	DefaultDamping        = 50.0
	DefaultMass           = 1.0

	// DefaultSaturation is the sensor range in multiples of g.
	DefaultSaturation = 10.0

	// DefaultPhysicsStep is the largest integration step of the spring.
	DefaultPhysicsStep = time.Millisecond

	// maxSubSteps bounds the work of one Update. A longer dt integrates
	// only the last maxSubSteps physics steps.
	maxSubSteps = 1000
)

// Accelerometer models the sensor's test mass as a damped spring tethered to
// the device housing. Moving the device on screen drags the mass behind it;
// the mass' lab-frame acceleration, seen from the device, adds to gravity.
type Accelerometer struct {
	*sampler.Sampler[vector.Vector3]

	springK    float64
	damping    float64
	mass       float64
	gravity    float64
	saturation float64
	maxStep    float64 // seconds, 0 disables sub-stepping

	// test mass state in screen pixels; x and z are the two screen axes
	posX, posZ float64
	velX, velZ float64
	accX, accZ float64

	value vector.Vector3
}

// NewAccelerometer returns an accelerometer at rest with the default constants.
func NewAccelerometer() *Accelerometer {
	return &Accelerometer{
		Sampler:    sampler.New[vector.Vector3](),
		springK:    DefaultSpringConstant,
		damping:    DefaultDamping,
		mass:       DefaultMass,
		gravity:    StandardGravity,
		saturation: DefaultSaturation,
		maxStep:    DefaultPhysicsStep.Seconds(),
	}
}

func (a *Accelerometer) Name() string { return NameAccelerometer }

// SetSpring changes the spring constant k and the damping γ.
func (a *Accelerometer) SetSpring(k, gamma float64) {
	a.springK = k
	a.damping = gamma
}

// Spring returns the spring constant k and the damping γ.
func (a *Accelerometer) Spring() (k, gamma float64) {
	return a.springK, a.damping
}

// SetMass sets the test mass. Only k/m enters the motion.
func (a *Accelerometer) SetMass(mass float64) {
	a.mass = mass
}

// SetPhysicsStep bounds the integration step; larger dt are split into
// equal sub-steps. A zero step integrates dt in one go.
func (a *Accelerometer) SetPhysicsStep(step time.Duration) {
	if step < 0 {
		step = 0
	}
	a.maxStep = step.Seconds()
}

// Limit is the saturation bound applied to every readout component.
func (a *Accelerometer) Limit() float64 {
	return a.gravity * a.saturation
}

// Value is the current true (unsampled) body-frame acceleration.
func (a *Accelerometer) Value() vector.Vector3 {
	return a.value
}

// LabAcceleration is the last lab-frame acceleration of the test mass in
// pixels/s² along the two screen axes.
func (a *Accelerometer) LabAcceleration() (ax, az float64) {
	return a.accX, a.accZ
}

// MassPosition is the test mass position in screen pixels.
func (a *Accelerometer) MassPosition() (x, z float64) {
	return a.posX, a.posZ
}

// Update advances the spring by dt seconds towards the screen target
// (targetX, targetZ) and recomputes the body-frame readout for pose.
// A non-positive or non-finite dt, or a non-finite target, leaves the
// spring untouched.
func (a *Accelerometer) Update(dt float64, pose orientation.Pose, targetX, targetZ float64) {
	if dt > 0 && !math.IsInf(dt, 1) && vector.New(targetX, targetZ, 0).IsFinite() {
		steps, h := a.substeps(dt)
		for i := 0; i < steps; i++ {
			a.integrate(h, targetX, targetZ)
		}
		if !a.finite() {
			a.pin(targetX, targetZ)
		}
	}

	// The device feels the opposite of the lab-frame acceleration of its
	// test mass.
	linear := vector.New(-a.accX*MetersPerPixel, 0, -a.accZ*MetersPerPixel).RotateWorldToBody(pose)
	gravity := vector.New(0, 0, a.gravity).RotateWorldToBody(pose)

	a.value = linear.Add(gravity).Clamp(a.Limit())
}

// substeps splits dt into equal steps no longer than maxStep. A dt past
// maxSubSteps steps is cut to that span.
func (a *Accelerometer) substeps(dt float64) (int, float64) {
	if a.maxStep <= 0 || dt <= a.maxStep {
		return 1, dt
	}
	if span := a.maxStep * maxSubSteps; dt > span {
		return maxSubSteps, a.maxStep
	}
	steps := int(math.Ceil(dt / a.maxStep))
	if steps > maxSubSteps {
		steps = maxSubSteps
	}
	return steps, dt / float64(steps)
}

// integrate performs one semi-implicit Euler step of length h.
//
// The z axis uses the damping constant as its spring coefficient.
func (a *Accelerometer) integrate(h, targetX, targetZ float64) {
	fx := a.springK * (targetX - a.posX)
	fz := a.damping * (targetZ - a.posZ)

	a.accX = fx / a.mass
	a.accZ = fz / a.mass

	a.velX += a.accX * h
	a.velZ += a.accZ * h

	a.posX += a.velX * h
	a.posZ += a.velZ * h

	// drag relative to the housing, not to the lab
	a.posX += a.damping * (targetX - a.posX) * h
	a.posZ += a.damping * (targetZ - a.posZ) * h
}

// finite reports whether the spring state is still representable. A spring
// far too stiff for the integration step diverges to ±Inf and then NaN.
func (a *Accelerometer) finite() bool {
	return vector.New(a.posX, a.velX, a.accX).IsFinite() &&
		vector.New(a.posZ, a.velZ, a.accZ).IsFinite()
}

// pin puts the test mass at rest on the target.
func (a *Accelerometer) pin(targetX, targetZ float64) {
	a.posX, a.posZ = targetX, targetZ
	a.velX, a.velZ = 0, 0
	a.accX, a.accZ = 0, 0
}

// Sample offers the current clamped acceleration to the sampler.
func (a *Accelerometer) Sample(now time.Time) bool {
	return a.OnTick(a.value, now)
}
