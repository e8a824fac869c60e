// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"encoding/json"
	"fmt"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/relabs-tech/inertial_simulator/internal/config"
	"github.com/relabs-tech/inertial_simulator/internal/imu"
	"github.com/relabs-tech/inertial_simulator/internal/orientation"
	"github.com/relabs-tech/inertial_simulator/internal/sim"
)

// TargetInput is the payload of the screen target input topic and endpoint.
type TargetInput struct {
	X float64 `json:"x"`
	Z float64 `json:"z"`
}

// Bridge publishes readings to MQTT and feeds input topics into the clock.
type Bridge struct {
	client mqtt.Client
	cfg    config.MQTTConfig
	clock  *sim.Clock
	log    *zap.Logger
}

// NewBridge creates a bridge with its own paho client. The client id gets a
// random suffix so several simulators can share one broker.
func NewBridge(cfg config.MQTTConfig, clock *sim.Clock, log *zap.Logger) *Bridge {
	opts := mqtt.NewClientOptions().
		AddBroker(cfg.Broker).
		SetClientID(clientID(cfg.ClientID)).
		SetAutoReconnect(true)

	return newBridge(mqtt.NewClient(opts), cfg, clock, log)
}

func newBridge(client mqtt.Client, cfg config.MQTTConfig, clock *sim.Clock, log *zap.Logger) *Bridge {
	return &Bridge{client: client, cfg: cfg, clock: clock, log: log.With(zap.String("component", "mqtt"))}
}

func clientID(prefix string) string {
	return prefix + "-" + uuid.NewString()[:8]
}

// Run connects, subscribes to the input topics and publishes every new
// reading until ctx is cancelled.
func (b *Bridge) Run(ctx context.Context) error {
	if token := b.client.Connect(); token.Wait() && token.Error() != nil {
		return fmt.Errorf("MQTT connect error: %w", token.Error())
	}
	defer b.client.Disconnect(250)
	b.log.Info("connected to MQTT broker", zap.String("broker", b.cfg.Broker))

	if err := b.subscribe(b.cfg.TopicOrientation, b.handleOrientation); err != nil {
		return err
	}
	if err := b.subscribe(b.cfg.TopicTarget, b.handleTarget); err != nil {
		return err
	}

	sub := b.clock.Subscribe()
	defer sub.Close()

	for {
		select {
		case <-ctx.Done():
			b.log.Info("MQTT bridge stopped")
			return nil
		case r := <-sub.C:
			b.publish(r)
		}
	}
}

func (b *Bridge) subscribe(topic string, handler mqtt.MessageHandler) error {
	if topic == "" {
		return nil
	}
	token := b.client.Subscribe(topic, 0, handler)
	token.Wait()
	if token.Error() != nil {
		return fmt.Errorf("MQTT subscribe %s: %w", topic, token.Error())
	}
	b.log.Info("subscribed to MQTT topic", zap.String("topic", topic))
	return nil
}

// publish sends the full reading and each sensor's readout, retained.
// Publish errors are logged; the next reading is tried regardless.
func (b *Bridge) publish(r imu.Reading) {
	messages := []struct {
		topic string
		value any
	}{
		{b.cfg.TopicReadings, r},
		{b.cfg.TopicAccelerometer, r.Accelerometer},
		{b.cfg.TopicGyroscope, r.Gyroscope},
		{b.cfg.TopicMagnetometer, r.Magnetometer},
	}

	for _, m := range messages {
		if m.topic == "" {
			continue
		}
		payload, err := json.Marshal(m.value)
		if err != nil {
			b.log.Error("json marshal error", zap.String("topic", m.topic), zap.Error(err))
			continue
		}
		if token := b.client.Publish(m.topic, 0, true, payload); token.Wait() && token.Error() != nil {
			b.log.Warn("MQTT publish error", zap.String("topic", m.topic), zap.Error(token.Error()))
		}
	}
	b.log.Debug("reading published", zap.Uint64("tick", r.Tick), zap.Stringer("reading", r))
}

func (b *Bridge) handleOrientation(_ mqtt.Client, msg mqtt.Message) {
	var p orientation.Pose
	if err := json.Unmarshal(msg.Payload(), &p); err != nil {
		b.log.Warn("orientation unmarshal error", zap.String("topic", msg.Topic()), zap.Error(err))
		return
	}
	b.clock.SetPose(p)
}

func (b *Bridge) handleTarget(_ mqtt.Client, msg mqtt.Message) {
	var t TargetInput
	if err := json.Unmarshal(msg.Payload(), &t); err != nil {
		b.log.Warn("target unmarshal error", zap.String("topic", msg.Topic()), zap.Error(err))
		return
	}
	b.clock.SetScreenTarget(t.X, t.Z)
}
