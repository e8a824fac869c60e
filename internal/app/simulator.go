// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/relabs-tech/inertial_simulator/internal/config"
	"github.com/relabs-tech/inertial_simulator/internal/orientation"
	"github.com/relabs-tech/inertial_simulator/internal/sensors"
	"github.com/relabs-tech/inertial_simulator/internal/sim"
)

// NewClock builds the engines and the clock from cfg and applies the
// initial input.
func NewClock(cfg *config.Config, log *zap.Logger) (*sim.Clock, error) {
	accel := sensors.NewAccelerometer()
	accel.SetSpring(cfg.Accelerometer.SpringConstant, cfg.Accelerometer.Damping)
	accel.SetMass(cfg.Accelerometer.Mass)
	accel.SetPhysicsStep(cfg.Simulation.PhysicsStep())

	mag := sensors.NewMagnetometer()
	mag.SetEarthField(cfg.Magnetometer.FieldNorth, cfg.Magnetometer.FieldEast, cfg.Magnetometer.FieldVertical)

	clock := sim.NewClock(accel, sensors.NewGyroscope(), mag, sim.Options{
		Interval: cfg.Simulation.TickInterval(),
		Logger:   log.With(zap.String("component", "clock")),
	})

	settings := map[string]config.SensorConfig{
		sensors.NameAccelerometer: cfg.Accelerometer.SensorConfig,
		sensors.NameGyroscope:     cfg.Gyroscope,
		sensors.NameMagnetometer:  cfg.Magnetometer.SensorConfig,
	}
	for name, s := range settings {
		err := clock.ConfigureSensor(name, sim.SensorSettings{
			Enabled:   s.Enabled,
			PeriodMs:  int(s.Period() / time.Millisecond),
			Averaging: s.Averaging,
		})
		if err != nil {
			return nil, fmt.Errorf("configure %s: %w", name, err)
		}
	}

	clock.SetOrientation(cfg.Input.Yaw, cfg.Input.Pitch, cfg.Input.Roll)
	clock.SetScreenTarget(cfg.Input.TargetX, cfg.Input.TargetZ)
	return clock, nil
}

// RunSimulator runs the clock and every enabled surface until ctx is
// cancelled or one of them fails.
func RunSimulator(ctx context.Context, cfg *config.Config, log *zap.Logger) error {
	log.Info("starting inertial simulator",
		zap.Duration("tick", cfg.Simulation.TickInterval()),
		zap.Bool("mock_input", cfg.Input.Mock),
		zap.Bool("mqtt", cfg.MQTT.Enabled),
		zap.Bool("web", cfg.Web.Enabled),
	)

	clock, err := NewClock(cfg, log)
	if err != nil {
		return err
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return clock.Run(ctx) })

	if cfg.Input.Mock {
		src := orientation.NewMockSource()
		interval := time.Duration(cfg.Input.MockIntervalMs) * time.Millisecond
		g.Go(func() error { return DriveOrientation(ctx, clock, src, interval, log) })
	}
	if cfg.MQTT.Enabled {
		bridge := NewBridge(cfg.MQTT, clock, log)
		g.Go(func() error { return bridge.Run(ctx) })
	}
	if cfg.Web.Enabled {
		web := NewWebServer(cfg.Web.Port, clock, log)
		g.Go(func() error { return web.Run(ctx) })
	}

	return g.Wait()
}

// DriveOrientation feeds poses from src into the clock every interval.
// Source errors are logged and the pose is kept.
func DriveOrientation(ctx context.Context, clock *sim.Clock, src orientation.Source, interval time.Duration, log *zap.Logger) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			pose, err := src.Next()
			if err != nil {
				log.Warn("error from orientation source", zap.Error(err))
				continue
			}
			clock.SetPose(pose)
		}
	}
}
