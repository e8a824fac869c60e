// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"fmt"
	"io"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/relabs-tech/inertial_simulator/internal/config"
	"github.com/relabs-tech/inertial_simulator/internal/orientation"
	"github.com/relabs-tech/inertial_simulator/internal/sim"
)

// RunMockConsole runs the simulation offline, driven by the mock
// orientation source, and prints readings to out.
func RunMockConsole(ctx context.Context, cfg *config.Config, log *zap.Logger, out io.Writer) error {
	clock, err := NewClock(cfg, log)
	if err != nil {
		return err
	}

	interval := time.Duration(cfg.Input.MockIntervalMs) * time.Millisecond
	if interval <= 0 {
		interval = 50 * time.Millisecond
	}
	src := orientation.NewMockSource()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return clock.Run(ctx) })
	g.Go(func() error { return DriveOrientation(ctx, clock, src, interval, log) })
	g.Go(func() error {
		return printLatest(ctx, clock, time.Duration(cfg.Console.IntervalMs)*time.Millisecond, out)
	})
	return g.Wait()
}

// printLatest prints the latest reading every interval, skipping repeats.
func printLatest(ctx context.Context, clock *sim.Clock, interval time.Duration, out io.Writer) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var lastTick uint64
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			r := clock.Latest()
			if r.Tick == lastTick {
				continue
			}
			lastTick = r.Tick

			fmt.Fprintf(out,
				"ROLL=%6.2f  PITCH=%6.2f  YAW=%6.2f\n",
				r.Orientation.Roll,
				r.Orientation.Pitch,
				r.Orientation.Yaw,
			)
			PrintReading(out, r)
		}
	}
}
