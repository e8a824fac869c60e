// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"

	"github.com/relabs-tech/inertial_simulator/internal/config"
	"github.com/relabs-tech/inertial_simulator/internal/imu"
	"github.com/relabs-tech/inertial_simulator/internal/sensors"
	"github.com/relabs-tech/inertial_simulator/internal/sim"
	"github.com/relabs-tech/inertial_simulator/internal/vector"
)

var t0 = time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

func newTestBridge(t *testing.T) (*Bridge, *fakeClient, *sim.Clock) {
	t.Helper()
	log := zaptest.NewLogger(t)
	clock := sim.New(sim.Options{Logger: log})
	fc := newFakeClient()
	return newBridge(fc, config.Default().MQTT, clock, log), fc, clock
}

func TestBridgePublishesEveryTopic(t *testing.T) {
	b, fc, _ := newTestBridge(t)
	r := imu.Reading{
		Tick:          4,
		Accelerometer: vector.New(0, 0, sensors.StandardGravity),
		Gyroscope:     sensors.AngularVelocity{Yaw: 0.5},
		Magnetometer:  vector.New(5.9395, 22.8741, -43.1805),
	}

	b.publish(r)

	msgs := fc.messages()
	require.Len(t, msgs, 4)

	topics := make([]string, 0, len(msgs))
	for _, m := range msgs {
		assert.True(t, m.retained, m.topic)
		topics = append(topics, m.topic)
	}
	assert.Equal(t, []string{
		"inertial_sim/readings",
		"inertial_sim/accelerometer",
		"inertial_sim/gyroscope",
		"inertial_sim/magnetometer",
	}, topics)

	var got imu.Reading
	require.NoError(t, json.Unmarshal(msgs[0].payload, &got))
	assert.Equal(t, r.Tick, got.Tick)
	assert.Equal(t, r.Magnetometer, got.Magnetometer)

	var gyro sensors.AngularVelocity
	require.NoError(t, json.Unmarshal(msgs[2].payload, &gyro))
	assert.Equal(t, r.Gyroscope, gyro)
}

func TestBridgeLogsPublishedReading(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	clock := sim.New(sim.Options{Logger: zap.NewNop()})
	b := newBridge(newFakeClient(), config.Default().MQTT, clock, zap.New(core))

	b.publish(imu.Reading{Tick: 7, Accelerometer: vector.New(0, 0, sensors.StandardGravity)})

	entries := logs.FilterMessage("reading published").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, uint64(7), fields["tick"])
	assert.Contains(t, fields["reading"], "accel=0.00, 0.00, 9.81")
}

func TestBridgeSkipsEmptyTopics(t *testing.T) {
	b, fc, _ := newTestBridge(t)
	b.cfg.TopicAccelerometer = ""
	b.cfg.TopicGyroscope = ""

	b.publish(imu.Reading{})
	assert.Len(t, fc.messages(), 2)
}

func TestBridgeInputHandlers(t *testing.T) {
	b, _, clock := newTestBridge(t)

	b.handleOrientation(nil, fakeMessage{payload: []byte(`{"yaw":-90,"pitch":10,"roll":5}`)})
	p := clock.Input().Pose
	assert.InDelta(t, 270, p.Yaw, 1e-9)
	assert.InDelta(t, 10, p.Pitch, 1e-9)
	assert.InDelta(t, 5, p.Roll, 1e-9)

	b.handleTarget(nil, fakeMessage{payload: []byte(`{"x":120,"z":-40}`)})
	in := clock.Input()
	assert.Equal(t, 120.0, in.TargetX)
	assert.Equal(t, -40.0, in.TargetZ)

	// malformed payloads are dropped
	b.handleOrientation(nil, fakeMessage{topic: "o", payload: []byte(`{"yaw":`)})
	b.handleTarget(nil, fakeMessage{topic: "t", payload: []byte(`nope`)})
	assert.Equal(t, in, clock.Input())
}

func TestBridgeRun(t *testing.T) {
	b, fc, clock := newTestBridge(t)
	for _, name := range []string{sensors.NameAccelerometer, sensors.NameGyroscope, sensors.NameMagnetometer} {
		require.NoError(t, clock.ConfigureSensor(name, sim.SensorSettings{Enabled: true}))
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- b.Run(ctx) }()

	now := t0
	require.Eventually(t, func() bool {
		clock.Step(now, 0.01)
		now = now.Add(10 * time.Millisecond)
		return len(fc.messages()) >= 4
	}, 5*time.Second, 5*time.Millisecond)

	require.NotNil(t, fc.handler("inertial_sim/input/orientation"))
	fc.handler("inertial_sim/input/target")(nil, fakeMessage{payload: []byte(`{"x":1,"z":2}`)})
	assert.Equal(t, 1.0, clock.Input().TargetX)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("bridge did not stop")
	}
	assert.True(t, fc.isDisconnected())
}

func TestBridgeRunErrors(t *testing.T) {
	b, fc, _ := newTestBridge(t)
	fc.connectErr = errors.New("connection refused")
	require.ErrorContains(t, b.Run(context.Background()), "connection refused")

	b, fc, _ = newTestBridge(t)
	fc.subscribeErr = errors.New("not authorized")
	err := b.Run(context.Background())
	require.ErrorContains(t, err, "not authorized")
	assert.Contains(t, err.Error(), "inertial_sim/input/orientation")
}

func TestClientIDIsUnique(t *testing.T) {
	a, b := clientID("inertial-sim"), clientID("inertial-sim")
	assert.True(t, strings.HasPrefix(a, "inertial-sim-"))
	assert.Len(t, a, len("inertial-sim-")+8)
	assert.NotEqual(t, a, b)
}
