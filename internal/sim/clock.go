// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package sim drives the sensor engines from a shared input snapshot and
// publishes immutable readings.
//
// Input may be set from any goroutine at any rate; the tick loop reads it
// once per tick. Readings are published through an atomic slot for polling
// and through subscriptions for push-style observers.
package sim

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/relabs-tech/inertial_simulator/internal/imu"
	"github.com/relabs-tech/inertial_simulator/internal/orientation"
	"github.com/relabs-tech/inertial_simulator/internal/sensors"
	"github.com/relabs-tech/inertial_simulator/internal/vector"
)

// DefaultTickInterval is the target period of the tick loop.
const DefaultTickInterval = 10 * time.Millisecond

// ErrUnknownSensor is returned for a sensor name outside sensors.Name*.
var ErrUnknownSensor = errors.New("unknown sensor")

// TimeSource provides wall-clock time to the tick loop.
type TimeSource interface {
	Now() time.Time
}

type systemTime struct{}

func (systemTime) Now() time.Time { return time.Now() }

// Options configures a Clock. Zero values select the defaults.
type Options struct {
	Interval time.Duration
	Time     TimeSource
	Logger   *zap.Logger
}

// Clock owns the three engines and advances them once per tick.
type Clock struct {
	accel *sensors.Accelerometer
	gyro  *sensors.Gyroscope
	mag   *sensors.Magnetometer

	interval time.Duration
	time     TimeSource
	log      *zap.Logger

	input  inputSlot
	latest atomic.Pointer[imu.Reading]
	subs   *hub

	// mu serializes ticks and engine configuration.
	mu       sync.Mutex
	tick     uint64
	lastTick time.Time
}

// NewClock wires the engines into a clock. The latest reading starts as the
// engines' initial readouts.
func NewClock(accel *sensors.Accelerometer, gyro *sensors.Gyroscope, mag *sensors.Magnetometer, opts Options) *Clock {
	if opts.Interval <= 0 {
		opts.Interval = DefaultTickInterval
	}
	if opts.Time == nil {
		opts.Time = systemTime{}
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	c := &Clock{
		accel:    accel,
		gyro:     gyro,
		mag:      mag,
		interval: opts.Interval,
		time:     opts.Time,
		log:      opts.Logger,
		subs:     newHub(),
	}
	c.latest.Store(&imu.Reading{
		Accelerometer: accel.Last(),
		Gyroscope:     gyro.Last(),
		Magnetometer:  mag.Last(),
	})
	return c
}

// New returns a clock around freshly created engines.
func New(opts Options) *Clock {
	return NewClock(sensors.NewAccelerometer(), sensors.NewGyroscope(), sensors.NewMagnetometer(), opts)
}

// Interval is the target tick period.
func (c *Clock) Interval() time.Duration {
	return c.interval
}

// SetOrientation sets the device attitude in degrees. Out-of-range angles
// are normalized; NaN or infinite angles are ignored.
func (c *Clock) SetOrientation(yaw, pitch, roll float64) {
	c.SetPose(orientation.Pose{Roll: roll, Pitch: pitch, Yaw: yaw})
}

// SetPose is SetOrientation for a Pose.
func (c *Clock) SetPose(p orientation.Pose) {
	if !c.input.setPose(p) {
		c.log.Warn("non-finite orientation ignored",
			zap.Float64("roll", p.Roll), zap.Float64("pitch", p.Pitch), zap.Float64("yaw", p.Yaw))
	}
}

// SetScreenTarget sets the on-screen displacement target in pixels.
// NaN or infinite coordinates are ignored.
func (c *Clock) SetScreenTarget(x, z float64) {
	if !c.input.setTarget(x, z) {
		c.log.Warn("non-finite screen target ignored", zap.Float64("x", x), zap.Float64("z", z))
	}
}

// Input returns the current input snapshot.
func (c *Clock) Input() Input {
	return c.input.snapshot()
}

// Latest returns the most recently published reading.
func (c *Clock) Latest() imu.Reading {
	return *c.latest.Load()
}

func (c *Clock) LatestAccelerometerReading() vector.Vector3 {
	return c.latest.Load().Accelerometer
}

func (c *Clock) LatestGyroscopeReading() sensors.AngularVelocity {
	return c.latest.Load().Gyroscope
}

func (c *Clock) LatestMagnetometerReading() vector.Vector3 {
	return c.latest.Load().Magnetometer
}

// Subscribe returns a subscription receiving every reading published from
// now on. Callers must Close it.
func (c *Clock) Subscribe() *Subscription {
	return c.subs.subscribe()
}

// Run ticks until ctx is cancelled. dt is measured between ticks; the first
// tick assumes one interval has elapsed. Cancellation is a clean stop and
// returns nil.
func (c *Clock) Run(ctx context.Context) error {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	c.log.Info("simulation clock started", zap.Duration("interval", c.interval))

	for {
		select {
		case <-ctx.Done():
			c.mu.Lock()
			ticks := c.tick
			c.mu.Unlock()
			c.log.Info("simulation clock stopped", zap.Uint64("ticks", ticks))
			return nil
		case <-ticker.C:
			c.advance(c.time.Now())
		}
	}
}

func (c *Clock) advance(now time.Time) {
	dt := c.interval.Seconds()
	if !c.lastTick.IsZero() {
		dt = now.Sub(c.lastTick).Seconds()
	}
	c.lastTick = now

	if dt > 10*c.interval.Seconds() {
		c.log.Debug("tick stalled", zap.Float64("dt", dt))
	}
	c.Step(now, dt)
}

// Step runs one tick at now with an elapsed time of dt seconds and reports
// whether any sensor published. Engines are updated in a fixed order
// (gyroscope, accelerometer, magnetometer) and then sampled in the same
// order, so replaying the same inputs yields the same readings.
func (c *Clock) Step(now time.Time, dt float64) bool {
	in := c.input.snapshot()

	c.mu.Lock()
	c.gyro.Update(dt, in.Pose)
	c.accel.Update(dt, in.Pose, in.TargetX, in.TargetZ)
	c.mag.Update(in.Pose)

	published := false
	for _, e := range c.engines() {
		if e.Sample(now) {
			published = true
		}
	}
	c.tick++

	if published {
		r := &imu.Reading{
			Tick:          c.tick,
			Time:          now,
			Accelerometer: c.accel.Last(),
			Gyroscope:     c.gyro.Last(),
			Magnetometer:  c.mag.Last(),
			Orientation:   in.Pose,
		}
		c.latest.Store(r)
		c.subs.publish(*r)
	}
	c.mu.Unlock()

	return published
}

func (c *Clock) engines() []sensors.Engine {
	return []sensors.Engine{c.gyro, c.accel, c.mag}
}

func (c *Clock) engine(name string) (sensors.Engine, error) {
	for _, e := range c.engines() {
		if e.Name() == name {
			return e, nil
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownSensor, name)
}
