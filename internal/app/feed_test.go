// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/relabs-tech/inertial_simulator/internal/config"
	"github.com/relabs-tech/inertial_simulator/internal/sim"
)

func TestFeedDrivesBridge(t *testing.T) {
	fc := newFakeClient()
	log := zaptest.NewLogger(t)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- runFeed(ctx, fc, "inertial_sim/input/orientation", &scriptedSource{}, time.Millisecond, log) }()

	require.Eventually(t, func() bool { return len(fc.messages()) >= 2 }, 5*time.Second, time.Millisecond)
	cancel()
	require.NoError(t, <-done)

	// the first Next fails and is skipped
	msgs := fc.messages()
	assert.Equal(t, "inertial_sim/input/orientation", msgs[0].topic)
	assert.False(t, msgs[0].retained)

	// a simulator bridge accepts what the feed publishes
	clock := sim.New(sim.Options{Logger: log})
	b := newBridge(newFakeClient(), config.Default().MQTT, clock, log)
	b.handleOrientation(nil, fakeMessage{payload: msgs[0].payload})
	assert.InDelta(t, 30, clock.Input().Pose.Yaw, 1e-9)
	assert.InDelta(t, 20, clock.Input().Pose.Pitch, 1e-9)
}
