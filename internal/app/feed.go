// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"go.uber.org/zap"

	"github.com/relabs-tech/inertial_simulator/internal/config"
	"github.com/relabs-tech/inertial_simulator/internal/orientation"
)

// RunMockFeed publishes mock poses on the orientation input topic, driving
// a simulator that runs elsewhere.
func RunMockFeed(ctx context.Context, cfg *config.Config, log *zap.Logger) error {
	opts := mqtt.NewClientOptions().
		AddBroker(cfg.MQTT.Broker).
		SetClientID(clientID(cfg.MQTT.ClientID + "-feed"))

	interval := time.Duration(cfg.Input.MockIntervalMs) * time.Millisecond
	if interval <= 0 {
		interval = 50 * time.Millisecond
	}
	return runFeed(ctx, mqtt.NewClient(opts), cfg.MQTT.TopicOrientation, orientation.NewMockSource(), interval, log.With(zap.String("component", "feed")))
}

func runFeed(ctx context.Context, client mqtt.Client, topic string, src orientation.Source, interval time.Duration, log *zap.Logger) error {
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return fmt.Errorf("MQTT connect error: %w", token.Error())
	}
	defer client.Disconnect(250)
	log.Info("publishing mock orientation", zap.String("topic", topic), zap.Duration("interval", interval))

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}

		pose, err := src.Next()
		if err != nil {
			log.Warn("error from mock source", zap.Error(err))
			continue
		}

		payload, err := json.Marshal(pose)
		if err != nil {
			log.Error("json marshal error", zap.Error(err))
			continue
		}

		if token := client.Publish(topic, 0, false, payload); token.Wait() && token.Error() != nil {
			log.Warn("MQTT publish error", zap.Error(token.Error()))
			continue
		}
		log.Debug("published pose", zap.Float64("roll", pose.Roll), zap.Float64("pitch", pose.Pitch), zap.Float64("yaw", pose.Yaw))
	}
}
